package symbols

/*
 * BasicV - Symbol table tests
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
	"github.com/rcornwell/BasicV/basic/workspace"
)

func newTable() *Table {
	return NewTable(workspace.New(32 * 1024))
}

func TestKindFromName(t *testing.T) {
	cases := []struct {
		name string
		kind Kind
	}{
		{"a%", Int32},
		{"a%%", Int64},
		{"a&", Uint8},
		{"a#", Float},
		{"a$", String},
		{"a", Float},
		{"a%(", Int32},
		{"a$(", String},
	}
	for _, tc := range cases {
		if got := KindFromName(tc.name); got != tc.kind {
			t.Errorf("%q: kind %v, want %v", tc.name, got, tc.kind)
		}
	}
}

func TestCreateAndFind(t *testing.T) {
	tbl := newTable()
	vp := tbl.Create("count%", nil)
	if vp.Kind != Int32 || vp.IsArray {
		t.Errorf("wrong entry: %+v", vp)
	}
	if tbl.Find("count%", 0) != vp {
		t.Errorf("created variable not found")
	}
	if tbl.Find("other%", 0) != nil {
		t.Errorf("found a variable that was never created")
	}
	tbl.Clear()
	if tbl.Find("count%", 0) != nil {
		t.Errorf("variable survived Clear")
	}
}

func TestHashChains(t *testing.T) {
	tbl := newTable()
	// Enough names to collide in 64 chains
	names := make([]string, 200)
	for n := range names {
		names[n] = "v" + string(rune('a'+n%26)) + string(rune('a'+n/26)) + "%"
		tbl.Create(names[n], nil)
	}
	for _, name := range names {
		if tbl.Find(name, 0) == nil {
			t.Errorf("%q lost in the chains", name)
		}
	}
}

func TestLibraryScope(t *testing.T) {
	tbl := newTable()
	lib := &Library{Name: "lib", Start: 1000, End: 2000}
	tbl.Libraries = append(tbl.Libraries, lib)
	private := tbl.Create("x%", lib)
	global := tbl.Create("x%", nil)
	// A reference inside the library sees the private entry first
	if got := tbl.Find("x%", 1500); got != private {
		t.Errorf("library site resolved to the wrong entry")
	}
	if got := tbl.Find("x%", 10); got != global {
		t.Errorf("program site resolved to the wrong entry")
	}
}

func TestArrayIndex(t *testing.T) {
	a := NewArray(Int32, []int32{3, 4})
	a.Parent = &Variable{Name: "a%("}
	if a.Size != 12 {
		t.Fatalf("size %d", a.Size)
	}
	if got := a.Index([]int32{2, 3}); got != 11 {
		t.Errorf("index [2,3] = %d, want 11", got)
	}
	if got := a.Index([]int32{1, 0}); got != 4 {
		t.Errorf("index [1,0] = %d, want 4", got)
	}
}

func TestScanLibraryFindsProcs(t *testing.T) {
	ws := workspace.New(32 * 1024)
	tbl := NewTable(ws)
	records := [][]byte{
		tok.Tokenize("DEF PROCone", 10),
		tok.Tokenize("ENDPROC", 20),
		tok.Tokenize("DEF FNtwo=1", 30),
	}
	start := ws.AddLibrary(records, false)
	if start < 0 {
		t.Fatalf("library load failed")
	}
	lib := &Library{Name: "t", Start: start, End: ws.LibTop}
	tbl.Libraries = append(tbl.Libraries, lib)
	tbl.ScanLibrary(lib)
	if len(lib.FnProcs) != 2 {
		t.Fatalf("found %d definitions, want 2", len(lib.FnProcs))
	}
	if lib.FnProcs[0].Name[0] != tok.Proc || lib.FnProcs[0].Name[1:] != "one" {
		t.Errorf("first definition name %q", lib.FnProcs[0].Name[1:])
	}
	if lib.FnProcs[1].Name[0] != tok.Fn || lib.FnProcs[1].Name[1:] != "two" {
		t.Errorf("second definition name %q", lib.FnProcs[1].Name[1:])
	}
	vp := tbl.SearchLibrary(lib, lib.FnProcs[0].Name)
	if vp == nil || vp.Kind != Marker {
		t.Errorf("SearchLibrary did not return a marker entry")
	}
}
