package symbols

/*
 * BasicV - Symbol tables
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

import (
	"github.com/rcornwell/BasicV/basic/errs"
	tok "github.com/rcornwell/BasicV/basic/token"
	"github.com/rcornwell/BasicV/basic/workspace"
)

const (
	VarLists = 64 // hash chains per symbol table
	MaxDims  = 8
	MaxName  = 64
)

// Kind is the storage kind of a variable or array element.
type Kind int

const (
	None Kind = iota
	Int32
	Uint8
	Int64
	Float
	String
	ProcDef
	FnDef
	Marker // PROC/FN position noted, details not yet filled in
)

// KindFromName derives the kind from the name's type suffix.
func KindFromName(name string) Kind {
	if len(name) == 0 {
		return Float
	}
	n := len(name) - 1
	if name[n] == '(' {
		n--
	}
	switch name[n] {
	case '%':
		if n > 0 && name[n-1] == '%' {
			return Int64
		}
		return Int32
	case '&':
		return Uint8
	case '#':
		return Float
	case '$':
		return String
	}
	return Float
}

// Variable is one symbol table entry. The payload fields overlay what a
// union holds in a conventional rendition; Kind and IsArray say which
// ones are live. PROC/FN entries keep the marker byte as the first byte
// of the name so PROCx and FNx stay distinct.
type Variable struct {
	Name    string
	Hash    uint32
	Owner   *Library // nil for the program's own table
	Kind    Kind
	IsArray bool

	Integer int32
	U8      uint8
	Long    int64
	Float   float64
	Str     string
	Array   *Array
	Def     *FnProcDef
	Mark    int32 // address of the XFNPROCALL token of the definition

	next *Variable
}

// Array is an array descriptor. Exactly one of the element slices is in
// use, selected by Kind. Parent points back at the owning variable so
// that SWAP can exchange whole arrays.
type Array struct {
	Kind     Kind
	DimCount int
	Dims     [MaxDims]int32
	Size     int32
	OffHeap  bool
	Local    bool

	Ints   []int32
	U8s    []uint8
	Longs  []int64
	Floats []float64
	Strs   []string

	Parent *Variable
}

// NewArray builds a zeroed array of the given kind and bounds.
func NewArray(kind Kind, dims []int32) *Array {
	a := &Array{Kind: kind, DimCount: len(dims), Size: 1}
	for n, d := range dims {
		a.Dims[n] = d
		a.Size *= d
	}
	switch kind {
	case Int32:
		a.Ints = make([]int32, a.Size)
	case Uint8:
		a.U8s = make([]uint8, a.Size)
	case Int64:
		a.Longs = make([]int64, a.Size)
	case Float:
		a.Floats = make([]float64, a.Size)
	case String:
		a.Strs = make([]string, a.Size)
	}
	return a
}

// Index linearises a subscript list, row major.
func (a *Array) Index(subs []int32) int32 {
	if len(subs) != a.DimCount {
		errs.Raise(errs.DimCount, a.Parent.Name)
	}
	index := int32(0)
	for n, s := range subs {
		if s < 0 || s >= a.Dims[n] {
			errs.Raise(errs.Range)
		}
		index = index*a.Dims[n] + s
	}
	return index
}

// FnProcDef describes a PROC or FN once its first call has resolved it.
type FnProcDef struct {
	Addr   int32 // first executable token of the body
	Parms  []FormParm
	Simple bool // single plain 32-bit integer parameter
}

// FormParm is one formal parameter.
type FormParm struct {
	Name   string
	Return bool
}

// LibFnProc notes the position of one DEF PROC/FN in a library.
type LibFnProc struct {
	Name string
	Hash uint32
	Mark int32 // address of the XFNPROCALL token
	Line int32
}

// Library is a program image loaded beside the main program, with its
// own private symbol table.
type Library struct {
	Name    string
	Start   int32
	End     int32
	Scanned bool
	FnProcs []LibFnProc
	// DIM statements in the library prologue; run by the interpreter
	// when the library is first scanned
	PendingDims []int32

	lists [VarLists]*Variable
}

// Table is the symbol table for a program and its libraries.
type Table struct {
	ws         *workspace.Workspace
	lists      [VarLists]*Variable
	Statics    [tok.StaticVars]Variable
	Libraries  []*Library // loaded via LIBRARY, in declared order
	Installed  []*Library // loaded via INSTALL, in declared order
	LastSearch int32      // resume point for program PROC/FN scans
}

// NewTable creates an empty symbol table over the workspace.
func NewTable(ws *workspace.Workspace) *Table {
	t := &Table{ws: ws}
	t.InitStatics()
	t.LastSearch = ws.Start()
	return t
}

// StdFormat is the default value of @%.
const StdFormat = 0x0000090a

// InitStatics resets the static integer variables A%-Z% and @%.
func (t *Table) InitStatics() {
	for n := range t.Statics {
		t.Statics[n] = Variable{Kind: Int32}
	}
	t.Statics[tok.AtPercent].Integer = StdFormat
}

// Hash is the name hash used for all symbol chains.
func Hash(name string) uint32 {
	var h uint32
	for i := 0; i < len(name); i++ {
		h = h*5 ^ uint32(name[i])
	}
	return h
}

// Clear empties the program's symbol table, forgets loaded libraries
// and resets the private tables of installed libraries.
func (t *Table) Clear() {
	t.lists = [VarLists]*Variable{}
	t.Libraries = nil
	t.LastSearch = t.ws.Start()
	for _, lib := range t.Installed {
		lib.lists = [VarLists]*Variable{}
		lib.FnProcs = nil
		lib.PendingDims = nil
		lib.Scanned = false
	}
}

// Create adds a new variable to the program's table, or to a library's
// private table when owner is not nil.
func (t *Table) Create(name string, owner *Library) *Variable {
	if len(name) > MaxName {
		errs.Raise(errs.NameLen)
	}
	vp := &Variable{Name: name, Hash: Hash(name), Owner: owner, Kind: KindFromName(name)}
	if name[len(name)-1] == '(' {
		vp.IsArray = true
	}
	lists := &t.lists
	if owner != nil {
		lists = &owner.lists
	}
	slot := vp.Hash % VarLists
	vp.next = lists[slot]
	lists[slot] = vp
	return vp
}

func lookup(lists *[VarLists]*Variable, name string, hash uint32) *Variable {
	vp := lists[hash%VarLists]
	for vp != nil {
		if vp.Hash == hash && vp.Name == name {
			return vp
		}
		vp = vp.next
	}
	return nil
}

// Find looks a variable up. 'site' is the token address of the
// reference: a reference inside a library consults that library's
// private table before the program's.
func (t *Table) Find(name string, site int32) *Variable {
	hash := Hash(name)
	if lib := t.FindLibrary(site); lib != nil {
		if vp := lookup(&lib.lists, name, hash); vp != nil {
			return vp
		}
	}
	return lookup(&t.lists, name, hash)
}

// FindProgram looks a name up in the program table only.
func (t *Table) FindProgram(name string) *Variable {
	return lookup(&t.lists, name, Hash(name))
}

// AddProgram links an externally built entry (a resolved library
// PROC/FN) into the program's table.
func (t *Table) AddProgram(vp *Variable) {
	slot := vp.Hash % VarLists
	vp.next = t.lists[slot]
	t.lists[slot] = vp
}

// FindLibrary returns the library whose image contains 'site', nil when
// the address is in the main program.
func (t *Table) FindLibrary(site int32) *Library {
	for _, lib := range t.Libraries {
		if site >= lib.Start && site < lib.End {
			return lib
		}
	}
	for _, lib := range t.Installed {
		if site >= lib.Start && site < lib.End {
			return lib
		}
	}
	return nil
}

// NameAt extracts the variable or PROC/FN name at a source address.
func (t *Table) NameAt(src int32) string {
	end := tok.SkipName(t.ws.Mem, src)
	return string(t.ws.Mem[src:end])
}

// ProcName strips the PROC/FN marker for messages.
func ProcName(name string) string {
	if len(name) != 0 && (name[0] == tok.Proc || name[0] == tok.Fn) {
		name = name[1:]
	}
	return name
}

// MarkFnProc notes the position of a DEF PROC/FN found while scanning
// the program, leaving a marker entry to be filled in on first call.
// 'mark' is the address of the definition's XFNPROCALL token and 'src'
// the address of its name in the source section.
func (t *Table) MarkFnProc(mark, src int32) *Variable {
	end := tok.SkipName(t.ws.Mem, src)
	if t.ws.Mem[end-1] == '(' {
		end--
	}
	name := string(t.ws.Mem[src:end])
	if len(name) > MaxName {
		errs.Raise(errs.NameLen)
	}
	vp := &Variable{Name: name, Hash: Hash(name), Kind: Marker, Mark: mark}
	t.AddProgram(vp)
	return vp
}

// ScanLibrary builds a library's PROC/FN list and creates its private
// variables from LIBRARY LOCAL statements. DIM statements in the
// prologue are noted for the interpreter to execute, since their bounds
// are expressions.
func (t *Table) ScanLibrary(lib *Library) {
	lib.Scanned = true
	ws := t.ws
	bp := lib.Start
	foundProc := false
	for bp < lib.End && !ws.AtProgEnd(bp) {
		tp := ws.FindExec(bp)
		mem := ws.Mem
		switch {
		case mem[tp] == tok.Def && mem[tp+1] == tok.XFnProcAll:
			foundProc = true
			src := tp + 1 - tok.Get32(mem, tp+2)
			end := tok.SkipName(mem, src)
			if mem[end-1] == '(' {
				end--
			}
			name := string(mem[src:end])
			lib.FnProcs = append(lib.FnProcs, LibFnProc{
				Name: name,
				Hash: Hash(name),
				Mark: tp + 1,
				Line: bp,
			})
		case !foundProc && mem[tp] == tok.Library && mem[tp+1] == tok.Local:
			t.addLibVars(lib, tp+2)
		case !foundProc && mem[tp] == tok.Dim:
			lib.PendingDims = append(lib.PendingDims, tp)
		}
		bp += ws.LineLen(bp)
	}
}

// addLibVars creates the private variables named on a LIBRARY LOCAL
// statement.
func (t *Table) addLibVars(lib *Library, tp int32) {
	mem := t.ws.Mem
	for mem[tp] == tok.XVar || mem[tp] == tok.Var {
		src := tp - tok.Get32(mem, tp+1)
		name := t.NameAt(src)
		vp := lookup(&lib.lists, name, Hash(name))
		if vp == nil {
			vp = t.Create(name, lib)
		}
		tp += 1 + tok.LOffSize
		if vp.IsArray {
			if mem[tp] != ')' && mem[tp] != ']' {
				errs.Raise(errs.RPMiss)
			}
			tp++
		}
		if mem[tp] != ',' {
			break
		}
		tp++
	}
	if mem[tp] != tok.EOL && mem[tp] != tok.Colon {
		errs.Raise(errs.Syntax)
	}
}

// SearchLibrary looks for PROC/FN 'name' in one library, returning a
// marker entry linked into the program table, or nil.
func (t *Table) SearchLibrary(lib *Library, name string) *Variable {
	if !lib.Scanned {
		t.ScanLibrary(lib)
	}
	hash := Hash(name)
	for n := range lib.FnProcs {
		fp := &lib.FnProcs[n]
		if fp.Hash == hash && fp.Name == name {
			vp := &Variable{Name: name, Hash: hash, Kind: Marker, Mark: fp.Mark}
			t.AddProgram(vp)
			return vp
		}
	}
	return nil
}

// ScanFnProc continues the program scan for PROC/FN 'name', marking
// every definition passed on the way, then falls back to the loaded and
// installed libraries in declared order. Returns nil when the name is
// not defined anywhere.
func (t *Table) ScanFnProc(name string) *Variable {
	ws := t.ws
	hash := Hash(name)
	bp := t.LastSearch
	var found *Variable
	for !ws.AtProgEnd(bp) {
		tp := ws.FindExec(bp)
		bp += ws.LineLen(bp)
		if ws.Mem[tp] == tok.Def && ws.Mem[tp+1] == tok.XFnProcAll {
			src := tp + 1 - tok.Get32(ws.Mem, tp+2)
			vp := t.MarkFnProc(tp+1, src)
			if vp.Hash == hash && vp.Name == name {
				found = vp
				break
			}
		}
	}
	t.LastSearch = bp
	if found != nil {
		return found
	}
	for _, lib := range t.Libraries {
		if vp := t.SearchLibrary(lib, name); vp != nil {
			return vp
		}
	}
	for _, lib := range t.Installed {
		if vp := t.SearchLibrary(lib, name); vp != nil {
			return vp
		}
	}
	return nil
}

// ClearOffheapArrays releases every DIM HIMEM array and byte block.
func (t *Table) ClearOffheapArrays() {
	t.ws.FreeAllHimem()
	each := func(lists *[VarLists]*Variable) {
		for n := range lists {
			for vp := lists[n]; vp != nil; vp = vp.next {
				if vp.Array != nil && vp.Array.OffHeap {
					vp.Array = nil
				}
			}
		}
	}
	each(&t.lists)
	for _, lib := range t.Libraries {
		each(&lib.lists)
	}
	for _, lib := range t.Installed {
		each(&lib.lists)
	}
}
