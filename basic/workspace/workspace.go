package workspace

/*
 * BasicV - Workspace and heap
 *
 * Copyright 2025, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

/*
   The workspace is one contiguous byte region addressed by offsets:

      0          scratch area for re-tokenised READ fields
      ProgBase   the tokenised program, ending with the sentinel record
      Top        libraries loaded by LIBRARY/INSTALL
      LibTop     byte-block heap, growing upwards (VarTop)
      ...
      HimemTop   off-heap blocks from DIM HIMEM, growing downwards
      size       end of workspace

   VarTop may never reach HimemTop; a safety margin is kept so that the
   interpreter can always build an error report.
*/

import (
	"math"

	"github.com/rcornwell/BasicV/basic/errs"
	tok "github.com/rcornwell/BasicV/basic/token"
)

const (
	ScratchSize = 1024
	safetyGap   = 512
	asciiCR     = 0x0d
)

// DefaultSize is the workspace size used when none is configured.
const DefaultSize = 512 * 1024

type himemBlock struct {
	offset int32
	size   int32
}

// Workspace holds the byte region and its allocation pointers.
type Workspace struct {
	Mem        []byte
	ProgBase   int32 // start of the program
	Top        int32 // byte after the program's sentinel record
	InstallTop int32 // byte after the last installed library
	LibTop     int32 // byte after the last loaded library
	VarTop     int32 // byte-block heap top (grows up)
	HimemTop   int32 // off-heap allocation floor (grows down)

	himemUsed []himemBlock
	himemFree []himemBlock
}

// New creates a workspace of the given size with an empty program.
func New(size int32) *Workspace {
	if size < 16*1024 {
		size = 16 * 1024
	}
	ws := &Workspace{Mem: make([]byte, size)}
	ws.NewProgram()
	return ws
}

// NewProgram discards the program, all libraries and the heap.
func (ws *Workspace) NewProgram() {
	ws.ProgBase = ScratchSize
	end := tok.EndMarker()
	copy(ws.Mem[ws.ProgBase:], end)
	ws.Top = ws.ProgBase + int32(len(end))
	ws.InstallTop = ws.Top
	ws.LibTop = ws.Top
	ws.VarTop = ws.LibTop
	ws.HimemTop = int32(len(ws.Mem))
	ws.himemUsed = nil
	ws.himemFree = nil
}

// ClearHeap discards the byte-block heap (the program and libraries
// stay).
func (ws *Workspace) ClearHeap() {
	ws.VarTop = ws.LibTop
}

// ClearLibraries forgets the libraries loaded with LIBRARY; installed
// ones stay.
func (ws *Workspace) ClearLibraries() {
	ws.LibTop = ws.InstallTop
	ws.VarTop = ws.LibTop
}

// Start returns the offset of the first program line.
func (ws *Workspace) Start() int32 {
	return ws.ProgBase
}

// LineLen returns the total length of the line record at lp.
func (ws *Workspace) LineLen(lp int32) int32 {
	return tok.Get16(ws.Mem, lp+tok.LenField)
}

// LineNo returns the line number of the record at lp.
func (ws *Workspace) LineNo(lp int32) int32 {
	return tok.Get16(ws.Mem, lp+tok.NumField)
}

// FindExec returns the first executable token of the line at lp.
func (ws *Workspace) FindExec(lp int32) int32 {
	return lp + tok.Get16(ws.Mem, lp+tok.ExecField)
}

// AtProgEnd says whether lp is the end-of-program sentinel.
func (ws *Workspace) AtProgEnd(lp int32) bool {
	return ws.LineNo(lp) == int32(tok.EndLineNo)
}

// FindLine returns the first line whose number is >= the one wanted.
// The caller checks whether the line found is the line asked for.
func (ws *Workspace) FindLine(lineno int32) int32 {
	lp := ws.ProgBase
	for !ws.AtProgEnd(lp) && ws.LineNo(lp) < lineno {
		lp += ws.LineLen(lp)
	}
	return lp
}

// FindLineStart returns the start of the line containing 'where', or -1
// if the address is not inside the program or a library.
func (ws *Workspace) FindLineStart(where int32) int32 {
	lp := ws.ProgBase
	for lp < ws.LibTop {
		length := ws.LineLen(lp)
		if length == 0 {
			return -1
		}
		if where >= lp && where < lp+length {
			return lp
		}
		lp += length
	}
	return -1
}

// InsertLine adds a line record to the program, replacing any line with
// the same number. A record whose executable section is empty deletes
// the line. Editing invalidates libraries and the heap; the caller is
// expected to clear variables.
func (ws *Workspace) InsertLine(record []byte) bool {
	lineno := tok.Get16(record, tok.NumField)
	lp := ws.FindLine(lineno)
	tail := ws.Top - lp
	remove := int32(0)
	if !ws.AtProgEnd(lp) && ws.LineNo(lp) == lineno {
		remove = ws.LineLen(lp)
	}
	empty := tok.Get16(record, tok.ExecField)+1 == int32(len(record)) // no executable tokens
	insert := int32(len(record))
	if empty {
		insert = 0
	}
	if lp+insert+tail-remove > int32(len(ws.Mem))-safetyGap {
		return false
	}
	copy(ws.Mem[lp+insert:], ws.Mem[lp+remove:ws.Top])
	if insert != 0 {
		copy(ws.Mem[lp:], record)
	}
	ws.Top += insert - remove
	ws.LibTop = ws.Top
	ws.VarTop = ws.Top
	return true
}

// SetProgram replaces the whole program with the given records.
func (ws *Workspace) SetProgram(records [][]byte) bool {
	ws.NewProgram()
	lp := ws.ProgBase
	for _, record := range records {
		if lp+int32(len(record)) > int32(len(ws.Mem))-safetyGap {
			return false
		}
		copy(ws.Mem[lp:], record)
		lp += int32(len(record))
	}
	end := tok.EndMarker()
	copy(ws.Mem[lp:], end)
	ws.Top = lp + int32(len(end))
	ws.InstallTop = ws.Top
	ws.LibTop = ws.Top
	ws.VarTop = ws.Top
	return true
}

// AddLibrary appends a library image after the program and returns its
// start offset, or -1 if it does not fit. An installed library is kept
// across runs; a loaded one goes when the heap is cleared.
func (ws *Workspace) AddLibrary(records [][]byte, installed bool) int32 {
	start := ws.LibTop
	lp := start
	for _, record := range records {
		if lp+int32(len(record)) > ws.HimemTop-safetyGap {
			return -1
		}
		copy(ws.Mem[lp:], record)
		lp += int32(len(record))
	}
	end := tok.EndMarker()
	copy(ws.Mem[lp:], end)
	ws.LibTop = lp + int32(len(end))
	ws.VarTop = ws.LibTop
	if installed {
		ws.InstallTop = ws.LibTop
	}
	return start
}

// WriteScratch places a tokenised fragment in the scratch area and
// returns its offset. The area has two halves: immediate-mode lines at
// the bottom, READ's re-tokenised data fields above them, so a READ
// run from the command line cannot clobber its own statement.
func (ws *Workspace) WriteScratch(record []byte, slot int) int32 {
	off := int32(slot) * (ScratchSize / 2)
	if len(record) > ScratchSize/2 {
		errs.Raise(errs.StringLen)
	}
	copy(ws.Mem[off:], record)
	return off
}

// AllocBytes takes a block from the byte heap, returning its offset or
// -1 when there is no room. The block is zeroed.
func (ws *Workspace) AllocBytes(size int32) int32 {
	if size < 0 {
		return -1
	}
	if ws.VarTop+size > ws.HimemTop-safetyGap {
		return -1
	}
	offset := ws.VarTop
	for i := offset; i < offset+size; i++ {
		ws.Mem[i] = 0
	}
	ws.VarTop += size
	return offset
}

// AllocHimem takes a block outside the heap, satisfied from the top of
// the workspace. Freed blocks are reused first fit.
func (ws *Workspace) AllocHimem(size int32) int32 {
	if size < 0 {
		return -1
	}
	for n, blk := range ws.himemFree {
		if blk.size >= size {
			ws.himemFree = append(ws.himemFree[:n], ws.himemFree[n+1:]...)
			ws.himemUsed = append(ws.himemUsed, blk)
			return blk.offset
		}
	}
	if ws.HimemTop-size < ws.VarTop+safetyGap {
		return -1
	}
	ws.HimemTop -= size
	blk := himemBlock{offset: ws.HimemTop, size: size}
	ws.himemUsed = append(ws.himemUsed, blk)
	for i := blk.offset; i < blk.offset+size; i++ {
		ws.Mem[i] = 0
	}
	return blk.offset
}

// FreeHimem releases one off-heap block.
func (ws *Workspace) FreeHimem(offset int32) bool {
	for n, blk := range ws.himemUsed {
		if blk.offset == offset {
			ws.himemUsed = append(ws.himemUsed[:n], ws.himemUsed[n+1:]...)
			ws.himemFree = append(ws.himemFree, blk)
			return true
		}
	}
	return false
}

// FreeAllHimem releases every off-heap block (CLEAR HIMEM, end of run).
func (ws *Workspace) FreeAllHimem() {
	ws.himemUsed = nil
	ws.himemFree = nil
	ws.HimemTop = int32(len(ws.Mem))
}

func (ws *Workspace) check(offset, size int32) {
	if offset < 0 || offset+size > int32(len(ws.Mem)) {
		errs.Raise(errs.Address)
	}
}

// Byte indirection ('?').
func (ws *Workspace) GetByte(offset int32) int32 {
	ws.check(offset, 1)
	return int32(ws.Mem[offset])
}

func (ws *Workspace) PutByte(offset, v int32) {
	ws.check(offset, 1)
	ws.Mem[offset] = byte(v)
}

// Word indirection ('!').
func (ws *Workspace) GetInteger(offset int32) int32 {
	ws.check(offset, 4)
	return tok.Get32(ws.Mem, offset)
}

func (ws *Workspace) StoreInteger(offset, v int32) {
	ws.check(offset, 4)
	tok.Put32(ws.Mem, offset, v)
}

// Float indirection ('|').
func (ws *Workspace) GetFloat(offset int32) float64 {
	ws.check(offset, 8)
	return math.Float64frombits(uint64(tok.Get64(ws.Mem, offset)))
}

func (ws *Workspace) StoreFloat(offset int32, v float64) {
	ws.check(offset, 8)
	tok.Put64(ws.Mem, offset, int64(math.Float64bits(v)))
}

// GetStringLen returns the length of the CR-terminated string at
// 'offset' ('$' indirection).
func (ws *Workspace) GetStringLen(offset int32) int32 {
	ws.check(offset, 1)
	n := int32(0)
	for offset+n < int32(len(ws.Mem)) && ws.Mem[offset+n] != asciiCR {
		n++
	}
	return n
}

// GetString reads the CR-terminated string at 'offset'.
func (ws *Workspace) GetString(offset int32) string {
	length := ws.GetStringLen(offset)
	return string(ws.Mem[offset : offset+length])
}

// StoreString writes a CR-terminated string at 'offset'.
func (ws *Workspace) StoreString(offset int32, s string) {
	ws.check(offset, int32(len(s))+1)
	copy(ws.Mem[offset:], s)
	ws.Mem[offset+int32(len(s))] = asciiCR
}
