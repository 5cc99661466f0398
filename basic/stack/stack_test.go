package stack

/*
 * BasicV - Stack tests
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

	"github.com/rcornwell/BasicV/basic/errs"
	"github.com/rcornwell/BasicV/basic/symbols"
	"github.com/rcornwell/BasicV/basic/value"
	"github.com/rcornwell/BasicV/basic/workspace"
)

func newStack() *Stack {
	return New(workspace.New(32 * 1024))
}

func scalar(vp *symbols.Variable) symbols.Lvalue {
	return symbols.Lvalue{Ref: symbols.RefScalar, Var: vp}
}

func TestPushPopKinds(t *testing.T) {
	s := newStack()
	s.PushInt(42)
	s.PushFloat(1.5)
	s.PushString("hi")
	if s.TopKind() != value.String {
		t.Errorf("top kind %v", s.TopKind())
	}
	if got := s.PopString(); got != "hi" {
		t.Errorf("string %q", got)
	}
	if got := s.PopFloat(); got != 1.5 {
		t.Errorf("float %v", got)
	}
	if got := s.PopInt(); got != 42 {
		t.Errorf("int %d", got)
	}
	if s.TopKind() != value.Unknown {
		t.Errorf("stack not empty")
	}
}

func TestVaryInt(t *testing.T) {
	s := newStack()
	s.PushVaryInt(200)
	if s.TopKind() != value.Uint8 {
		t.Errorf("200 pushed as %v", s.TopKind())
	}
	s.PopValue()
	s.PushVaryInt(100000)
	if s.TopKind() != value.Int32 {
		t.Errorf("100000 pushed as %v", s.TopKind())
	}
	s.PopValue()
	s.PushVaryInt(1 << 40)
	if s.TopKind() != value.Int64 {
		t.Errorf("1<<40 pushed as %v", s.TopKind())
	}
}

func TestWideningPops(t *testing.T) {
	s := newStack()
	s.PushUint8(7)
	if got := s.PopAnyInt(); got != 7 {
		t.Errorf("PopAnyInt %d", got)
	}
	s.PushFloat(2.75)
	if got := s.PopAnyNum64(); got != 2 {
		t.Errorf("PopAnyNum64 truncated to %d", got)
	}
	s.PushInt(3)
	if got := s.PopAnyNumFP(); got != 3.0 {
		t.Errorf("PopAnyNumFP %v", got)
	}
}

func TestPopAnyIntTypeError(t *testing.T) {
	s := newStack()
	s.PushString("oops")
	defer func() {
		r := recover()
		e, ok := r.(*errs.Error)
		if !ok || e.Kind != errs.TypeNum {
			t.Errorf("recovered %v", r)
		}
	}()
	s.PopAnyInt()
}

func TestGetLoopDiscards(t *testing.T) {
	s := newStack()
	s.PushFrame(&WhileFrame{Expr: 1, Body: 2})
	s.PushFrame(&RepeatFrame{Body: 3})
	s.PushFrame(&ForFrame{Kind: IntForItem})
	// Searching for the WHILE discards the inner loop frames
	wp := s.GetWhile()
	if wp == nil || wp.Body != 2 {
		t.Fatalf("WHILE frame not found")
	}
	if s.FrameDepth() != 1 {
		t.Errorf("frame depth %d", s.FrameDepth())
	}
}

func TestGetLoopBlockedByCall(t *testing.T) {
	s := newStack()
	s.PushFrame(&WhileFrame{})
	s.PushFrame(&ProcFrame{Name: "p"})
	if s.GetWhile() != nil {
		t.Errorf("search discarded a PROC frame")
	}
}

func TestUnwindLocalRestores(t *testing.T) {
	s := newStack()
	vp := &symbols.Variable{Name: "a%", Kind: symbols.Int32, Integer: 1}
	s.PushFrame(&ProcFrame{Name: "p"})
	s.PushFrame(&LocalFrame{Target: scalar(vp), Saved: Value{Kind: value.Int32, Int: 1}})
	vp.Integer = 99
	item := s.UnwindLocal()
	if item != ProcItem {
		t.Errorf("unwind stopped at %v", item)
	}
	if vp.Integer != 1 {
		t.Errorf("local value not restored: %d", vp.Integer)
	}
}

func TestRestoreParametersWriteBack(t *testing.T) {
	s := newStack()
	formal := &symbols.Variable{Name: "a%", Kind: symbols.Int32}
	caller := &symbols.Variable{Name: "x%", Kind: symbols.Int32, Integer: 7}
	// Simulate PROCs(x%) with DEF PROCs(RETURN a%)
	saved := s.Load(scalar(formal))
	s.PushFrame(&RetParmFrame{Target: scalar(formal), Ret: scalar(caller), Saved: saved})
	s.Store(scalar(formal), s.Load(scalar(caller)))
	formal.Integer = 14 // body: a% = a%*2
	s.RestoreParameters(1)
	if caller.Integer != 14 {
		t.Errorf("write-back gave %d", caller.Integer)
	}
	if formal.Integer != 0 {
		t.Errorf("formal not restored: %d", formal.Integer)
	}
}

func TestEmptyStackUndoesData(t *testing.T) {
	s := newStack()
	restored := int32(-1)
	s.OnData = func(c int32) { restored = c }
	s.PushFrame(&ProcFrame{Name: "p"})
	s.PushFrame(&DataFrame{Cursor: 42})
	s.EmptyStack(ProcItem)
	if restored != 42 {
		t.Errorf("data cursor not restored, got %d", restored)
	}
	if s.TopFrame().Tag() != ProcItem {
		t.Errorf("stack not emptied to the PROC frame")
	}
}

func TestProcDepthTracking(t *testing.T) {
	s := newStack()
	s.PushFrame(&ProcFrame{})
	s.PushFrame(&FnFrame{})
	s.PushFrame(&GosubFrame{})
	if s.ProcDepth != 2 || s.GosubDepth != 1 {
		t.Fatalf("depths %d/%d", s.ProcDepth, s.GosubDepth)
	}
	s.Reset()
	if s.ProcDepth != 0 || s.GosubDepth != 0 || s.FrameDepth() != 0 {
		t.Errorf("Reset left depths %d/%d/%d", s.ProcDepth, s.GosubDepth, s.FrameDepth())
	}
}

func TestStoreConversions(t *testing.T) {
	s := newStack()
	vp := &symbols.Variable{Name: "a%", Kind: symbols.Int32}
	s.Store(scalar(vp), Value{Kind: value.Float, Float: 3.9})
	if vp.Integer != 3 {
		t.Errorf("float to int stored %d", vp.Integer)
	}
	fp := &symbols.Variable{Name: "f", Kind: symbols.Float}
	s.Store(scalar(fp), Value{Kind: value.Int32, Int: 5})
	if fp.Float != 5.0 {
		t.Errorf("int to float stored %v", fp.Float)
	}
}

func TestArrayElementAccess(t *testing.T) {
	s := newStack()
	a := symbols.NewArray(symbols.String, []int32{4})
	lv := symbols.Lvalue{Ref: symbols.RefElem, Arr: a, Index: 2}
	s.Store(lv, Value{Kind: value.StrTemp, Str: "deep"})
	if got := s.Load(lv); got.Str != "deep" || got.Kind != value.String {
		t.Errorf("element round trip gave %+v", got)
	}
}
