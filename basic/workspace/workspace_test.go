package workspace

/*
 * BasicV - Workspace tests
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
	"testing"

	tok "github.com/rcornwell/BasicV/basic/token"
)

func TestEmptyProgram(t *testing.T) {
	ws := New(32 * 1024)
	if !ws.AtProgEnd(ws.Start()) {
		t.Errorf("fresh workspace does not start at program end")
	}
}

func TestInsertAndFindLines(t *testing.T) {
	ws := New(32 * 1024)
	for _, n := range []int32{30, 10, 20} {
		if !ws.InsertLine(tok.Tokenize("PRINT 1", n)) {
			t.Fatalf("insert of line %d failed", n)
		}
	}
	want := []int32{10, 20, 30}
	lp := ws.Start()
	for _, lineno := range want {
		if ws.AtProgEnd(lp) {
			t.Fatalf("program ended before line %d", lineno)
		}
		if got := ws.LineNo(lp); got != lineno {
			t.Errorf("got line %d, want %d", got, lineno)
		}
		lp += ws.LineLen(lp)
	}
	if !ws.AtProgEnd(lp) {
		t.Errorf("missing end marker after last line")
	}

	// Replace line 20 and delete line 30
	ws.InsertLine(tok.Tokenize("PRINT 2", 20))
	ws.InsertLine(tok.Tokenize("", 30))
	lp = ws.FindLine(20)
	if ws.LineNo(lp) != 20 {
		t.Fatalf("line 20 lost after replace")
	}
	lp = ws.FindLine(30)
	if !ws.AtProgEnd(lp) {
		t.Errorf("line 30 still present after delete")
	}
}

func TestFindLineStart(t *testing.T) {
	ws := New(32 * 1024)
	ws.InsertLine(tok.Tokenize("PRINT 1", 10))
	ws.InsertLine(tok.Tokenize("PRINT 2", 20))
	lp := ws.FindLine(20)
	exec := ws.FindExec(lp)
	if got := ws.FindLineStart(exec); got != lp {
		t.Errorf("FindLineStart gave %d, want %d", got, lp)
	}
	if ws.FindLineStart(-5) != -1 {
		t.Errorf("bad address did not return -1")
	}
}

func TestByteHeap(t *testing.T) {
	ws := New(32 * 1024)
	a := ws.AllocBytes(16)
	b := ws.AllocBytes(16)
	if a < 0 || b != a+16 {
		t.Fatalf("heap blocks at %d and %d", a, b)
	}
	if ws.AllocBytes(1<<30) >= 0 {
		t.Errorf("oversized allocation succeeded")
	}
}

func TestHimemAllocator(t *testing.T) {
	ws := New(32 * 1024)
	a := ws.AllocHimem(64)
	if a < 0 {
		t.Fatalf("allocation failed")
	}
	if !ws.FreeHimem(a) {
		t.Fatalf("free failed")
	}
	if ws.FreeHimem(a) {
		t.Errorf("double free succeeded")
	}
	// The freed block is reused
	b := ws.AllocHimem(64)
	if b != a {
		t.Errorf("free block not reused: got %d, had %d", b, a)
	}
	ws.FreeAllHimem()
	if ws.HimemTop != int32(len(ws.Mem)) {
		t.Errorf("HimemTop not restored")
	}
}

func TestIndirection(t *testing.T) {
	ws := New(32 * 1024)
	off := ws.AllocBytes(32)
	ws.PutByte(off, 0x41)
	if ws.GetByte(off) != 0x41 {
		t.Errorf("byte round trip failed")
	}
	ws.StoreInteger(off+4, -70000)
	if ws.GetInteger(off+4) != -70000 {
		t.Errorf("integer round trip failed")
	}
	ws.StoreFloat(off+8, 2.5)
	if ws.GetFloat(off+8) != 2.5 {
		t.Errorf("float round trip failed")
	}
	ws.StoreString(off+16, "hello")
	if ws.GetString(off+16) != "hello" {
		t.Errorf("string round trip failed")
	}
	if ws.GetStringLen(off+16) != 5 {
		t.Errorf("string length %d", ws.GetStringLen(off+16))
	}
}

func TestLibraryRegion(t *testing.T) {
	ws := New(32 * 1024)
	ws.InsertLine(tok.Tokenize("PRINT 1", 10))
	installed := ws.AddLibrary([][]byte{tok.Tokenize("PRINT 2", 10)}, true)
	loaded := ws.AddLibrary([][]byte{tok.Tokenize("PRINT 3", 10)}, false)
	if installed < 0 || loaded < 0 {
		t.Fatalf("library loads failed")
	}
	ws.ClearLibraries()
	if ws.LibTop != ws.InstallTop {
		t.Errorf("loaded library survived ClearLibraries")
	}
	if ws.InstallTop <= installed {
		t.Errorf("installed library was discarded")
	}
}
