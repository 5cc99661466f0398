package stack

/*
 * BasicV - Basic stack
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
   The interpreter keeps two stacks: a stack of typed operand values used
   during expression evaluation, and a control stack of tagged frames
   that drives structured statements. The original design interleaves
   both in one workspace region; splitting them keeps each a plain Go
   slice while preserving the frame protocol: parameter save frames sit
   below their PROC/FN frame, body LOCALs above it, and the PROC/FN
   frame remembers the operand depth at call time so that a return can
   discard half-built expressions.
*/

import (
	"math"

	"github.com/rcornwell/BasicV/basic/errs"
	"github.com/rcornwell/BasicV/basic/symbols"
	"github.com/rcornwell/BasicV/basic/value"
	"github.com/rcornwell/BasicV/basic/workspace"
)

const (
	// OpStackSize entries of headroom are demanded when an expression
	// begins, so pushes inside one expression need no check.
	OpStackSize = 32
	maxOps      = 8192
	maxFrames   = 4096
)

// Item tags a control stack frame.
type Item int

const (
	NoItem Item = iota
	GosubItem
	ProcItem
	FnItem
	LocalItem
	RetParmItem
	WhileItem
	RepeatItem
	IntForItem
	Int64ForItem
	FloatForItem
	ErrorItem
	DataItem
	LocArrayItem
	LocStringItem
	OpStackItem
	RestartItem
)

// Value is one operand stack entry. The integer kinds share Int.
type Value struct {
	Kind  value.Kind
	Int   int64
	Float float64
	Str   string
	Arr   *symbols.Array
}

// ErrorBlock describes an installed ON ERROR handler. Depth is the
// statement-loop nesting at which the handler was installed, which is
// what an ON ERROR LOCAL jump must re-enter.
type ErrorBlock struct {
	Current int32
	Local   bool
	Depth   int
	Set     bool
}

// Frame is a control stack entry.
type Frame interface {
	Tag() Item
}

type WhileFrame struct {
	Expr int32 // the test expression
	Body int32 // first statement of the loop body
}

type RepeatFrame struct {
	Body int32
}

type ForFrame struct {
	Kind     Item // IntForItem, Int64ForItem or FloatForItem
	Var      symbols.Lvalue
	Body     int32
	IntLimit int64
	IntStep  int64
	FltLimit float64
	FltStep  float64
	Simple   bool // 32-bit integer variable with step +1
}

type GosubFrame struct {
	Ret int32
}

type ProcFrame struct {
	Ret   int32
	Parms int
	Name  string
	Ops   int // operand stack depth at call
}

type FnFrame struct {
	Ret   int32
	Parms int
	Name  string
	Ops   int
	Depth int // statement-loop depth to resume at return
}

type LocalFrame struct {
	Target symbols.Lvalue
	Saved  Value
}

type RetParmFrame struct {
	Target symbols.Lvalue // the formal's storage
	Ret    symbols.Lvalue // the caller's lvalue for write-back
	Saved  Value
}

type ErrorFrame struct {
	Handler ErrorBlock
}

type DataFrame struct {
	Cursor int32
}

type LocArrayFrame struct {
	Size    int32
	Strings bool
	Offset  int32 // workspace offset of a byte block, -1 for Go storage
}

type OpStackFrame struct{}

type RestartFrame struct {
	Depth int
}

func (*WhileFrame) Tag() Item    { return WhileItem }
func (*RepeatFrame) Tag() Item   { return RepeatItem }
func (f *ForFrame) Tag() Item    { return f.Kind }
func (*GosubFrame) Tag() Item    { return GosubItem }
func (*ProcFrame) Tag() Item     { return ProcItem }
func (*FnFrame) Tag() Item       { return FnItem }
func (*LocalFrame) Tag() Item    { return LocalItem }
func (*RetParmFrame) Tag() Item  { return RetParmItem }
func (*ErrorFrame) Tag() Item    { return ErrorItem }
func (*DataFrame) Tag() Item     { return DataItem }
func (f *LocArrayFrame) Tag() Item {
	if f.Strings {
		return LocStringItem
	}
	return LocArrayItem
}
func (*OpStackFrame) Tag() Item { return OpStackItem }
func (*RestartFrame) Tag() Item { return RestartItem }

// disposable lists the frames that a loop-terminator search may quietly
// discard (undoing their effects). Call frames block the search.
var disposable = map[Item]bool{
	LocalItem:     true,
	RetParmItem:   true,
	WhileItem:     true,
	RepeatItem:    true,
	IntForItem:    true,
	Int64ForItem:  true,
	FloatForItem:  true,
	ErrorItem:     true,
	DataItem:      true,
	LocArrayItem:  true,
	LocStringItem: true,
	OpStackItem:   true,
	RestartItem:   true,
}

// Stack is the pair of operand and control stacks.
type Stack struct {
	ws     *workspace.Workspace
	ops    []Value
	frames []Frame

	ProcDepth  int // active PROC/FN calls
	GosubDepth int

	// Hooks into the interpreter state that frame disposal restores.
	OnError func(ErrorBlock)
	OnData  func(int32)
}

// New creates an empty stack over the workspace.
func New(ws *workspace.Workspace) *Stack {
	return &Stack{ws: ws}
}

// Clear discards everything without undoing effects.
func (s *Stack) Clear() {
	s.ops = s.ops[:0]
	s.frames = s.frames[:0]
	s.ProcDepth = 0
	s.GosubDepth = 0
}

/* Operand stack */

func (s *Stack) push(v Value) {
	if len(s.ops) >= maxOps {
		errs.Raise(errs.StackFull)
	}
	s.ops = append(s.ops, v)
}

func (s *Stack) PushUint8(v uint8)  { s.push(Value{Kind: value.Uint8, Int: int64(v)}) }
func (s *Stack) PushInt(v int32)    { s.push(Value{Kind: value.Int32, Int: int64(v)}) }
func (s *Stack) PushInt64(v int64)  { s.push(Value{Kind: value.Int64, Int: v}) }
func (s *Stack) PushFloat(v float64) {
	s.push(Value{Kind: value.Float, Float: v})
}
func (s *Stack) PushString(str string)  { s.push(Value{Kind: value.String, Str: str}) }
func (s *Stack) PushStrTemp(str string) { s.push(Value{Kind: value.StrTemp, Str: str}) }
func (s *Stack) PushValue(v Value)      { s.push(v) }

// PushVaryInt pushes an integer using the narrowest kind that holds it.
func (s *Stack) PushVaryInt(v int64) {
	switch {
	case v == int64(uint8(v)):
		s.PushUint8(uint8(v))
	case v == int64(int32(v)):
		s.PushInt(int32(v))
	default:
		s.PushInt64(v)
	}
}

var arrayKind = map[symbols.Kind]value.Kind{
	symbols.Int32:  value.IntArray,
	symbols.Uint8:  value.Uint8Array,
	symbols.Int64:  value.Int64Array,
	symbols.Float:  value.FloatArray,
	symbols.String: value.StrArray,
}

var arrayTempKind = map[symbols.Kind]value.Kind{
	symbols.Int32:  value.IATemp,
	symbols.Uint8:  value.U8ATemp,
	symbols.Int64:  value.I64ATemp,
	symbols.Float:  value.FATemp,
	symbols.String: value.SATemp,
}

func (s *Stack) PushArray(a *symbols.Array) {
	s.push(Value{Kind: arrayKind[a.Kind], Arr: a})
}

func (s *Stack) PushArrayTemp(a *symbols.Array) {
	s.push(Value{Kind: arrayTempKind[a.Kind], Arr: a})
}

// TopKind returns the kind of the top operand, Unknown when empty.
func (s *Stack) TopKind() value.Kind {
	if len(s.ops) == 0 {
		return value.Unknown
	}
	return s.ops[len(s.ops)-1].Kind
}

// PopValue removes and returns the top operand.
func (s *Stack) PopValue() Value {
	if len(s.ops) == 0 {
		errs.Raise(errs.Broken)
	}
	v := s.ops[len(s.ops)-1]
	s.ops = s.ops[:len(s.ops)-1]
	return v
}

func (s *Stack) PopInt() int32 {
	v := s.PopValue()
	if v.Kind != value.Int32 {
		errs.Raise(errs.Broken)
	}
	return int32(v.Int)
}

func (s *Stack) PopUint8() uint8 {
	v := s.PopValue()
	if v.Kind != value.Uint8 {
		errs.Raise(errs.Broken)
	}
	return uint8(v.Int)
}

func (s *Stack) PopInt64() int64 {
	v := s.PopValue()
	if v.Kind != value.Int64 {
		errs.Raise(errs.Broken)
	}
	return v.Int
}

func (s *Stack) PopFloat() float64 {
	v := s.PopValue()
	if v.Kind != value.Float {
		errs.Raise(errs.Broken)
	}
	return v.Float
}

// PopString pops a string of either kind.
func (s *Stack) PopString() string {
	v := s.PopValue()
	if !v.Kind.IsString() {
		errs.Raise(errs.Broken)
	}
	return v.Str
}

// PopArray pops an array of any kind.
func (s *Stack) PopArray() *symbols.Array {
	v := s.PopValue()
	if !v.Kind.IsArray() {
		errs.Raise(errs.Broken)
	}
	return v.Arr
}

// PopAnyInt pops any of the integer kinds, widening to 64 bits.
func (s *Stack) PopAnyInt() int64 {
	v := s.PopValue()
	if !v.Kind.IsInt() {
		errs.Raise(errs.TypeNum)
	}
	return v.Int
}

// toInt64 truncates a float to an integer with a range check.
func toInt64(f float64) int64 {
	if math.IsNaN(f) || f >= math.MaxInt64 || f <= math.MinInt64 {
		errs.Raise(errs.Range)
	}
	return int64(f)
}

// PopAnyNum32 pops any numeric kind as a 32-bit integer.
func (s *Stack) PopAnyNum32() int32 {
	return int32(s.PopAnyNum64())
}

// PopAnyNum64 pops any numeric kind as a 64-bit integer.
func (s *Stack) PopAnyNum64() int64 {
	v := s.PopValue()
	switch {
	case v.Kind.IsInt():
		return v.Int
	case v.Kind == value.Float:
		return toInt64(v.Float)
	}
	errs.Raise(errs.TypeNum)
	return 0
}

// PopAnyNumFP pops any numeric kind as a float.
func (s *Stack) PopAnyNumFP() float64 {
	v := s.PopValue()
	switch {
	case v.Kind.IsInt():
		return float64(v.Int)
	case v.Kind == value.Float:
		return v.Float
	}
	errs.Raise(errs.TypeNum)
	return 0
}

// OpDepth returns the operand stack depth.
func (s *Stack) OpDepth() int {
	return len(s.ops)
}

// TruncOps discards operand entries down to a recorded depth.
func (s *Stack) TruncOps(depth int) {
	if depth <= len(s.ops) {
		s.ops = s.ops[:depth]
	}
}

// CheckRoom tests that a fresh expression has headroom (the OPSTACK
// reservation of the original design).
func (s *Stack) CheckRoom() {
	if len(s.ops)+OpStackSize > maxOps || len(s.frames)+1 > maxFrames {
		errs.Raise(errs.StackFull)
	}
}

/* Control stack */

// PushFrame adds a frame, maintaining the call chain counters.
func (s *Stack) PushFrame(f Frame) {
	if len(s.frames) >= maxFrames {
		errs.Raise(errs.StackFull)
	}
	switch f.Tag() {
	case ProcItem, FnItem:
		s.ProcDepth++
	case GosubItem:
		s.GosubDepth++
	}
	s.frames = append(s.frames, f)
}

// TopFrame returns the top frame without removing it, nil when empty.
func (s *Stack) TopFrame() Frame {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

// PopFrame removes and returns the top frame.
func (s *Stack) PopFrame() Frame {
	f := s.TopFrame()
	if f == nil {
		errs.Raise(errs.Broken)
	}
	s.frames = s.frames[:len(s.frames)-1]
	switch f.Tag() {
	case ProcItem, FnItem:
		s.ProcDepth--
	case GosubItem:
		s.GosubDepth--
	}
	return f
}

// discard removes the top frame, undoing its effects. When restore is
// false, LOCAL saves are dropped without writing the old values back
// (used when resetting after a trapped error).
func (s *Stack) discard(restore bool) {
	switch f := s.PopFrame().(type) {
	case *LocalFrame:
		if restore {
			s.Store(f.Target, f.Saved)
		}
	case *RetParmFrame:
		// Write-back order does not matter here: a discarded RETPARM
		// still returns its value, as the original does.
		current := s.Load(f.Target)
		s.Store(f.Target, f.Saved)
		s.Store(f.Ret, current)
	case *ErrorFrame:
		if s.OnError != nil {
			s.OnError(f.Handler)
		}
	case *DataFrame:
		if s.OnData != nil {
			s.OnData(f.Cursor)
		}
	case *LocArrayFrame:
		// Reclaim a stack-local byte block when it is still on top of
		// the byte heap
		if f.Offset >= 0 && f.Offset+f.Size == s.ws.VarTop {
			s.ws.VarTop = f.Offset
		}
	}
}

// getLoop searches for a loop frame with the wanted tag, discarding
// disposable frames on the way. Returns nil when something blocks the
// search.
func (s *Stack) getLoop(want func(Item) bool) Frame {
	for {
		f := s.TopFrame()
		if f == nil {
			return nil
		}
		if want(f.Tag()) {
			return f
		}
		if !disposable[f.Tag()] {
			return nil
		}
		s.discard(true)
	}
}

// GetWhile finds the innermost WHILE frame.
func (s *Stack) GetWhile() *WhileFrame {
	f := s.getLoop(func(t Item) bool { return t == WhileItem })
	if f == nil {
		return nil
	}
	return f.(*WhileFrame)
}

// GetRepeat finds the innermost REPEAT frame.
func (s *Stack) GetRepeat() *RepeatFrame {
	f := s.getLoop(func(t Item) bool { return t == RepeatItem })
	if f == nil {
		return nil
	}
	return f.(*RepeatFrame)
}

// GetFor finds the innermost FOR frame.
func (s *Stack) GetFor() *ForFrame {
	f := s.getLoop(func(t Item) bool {
		return t == IntForItem || t == Int64ForItem || t == FloatForItem
	})
	if f == nil {
		return nil
	}
	return f.(*ForFrame)
}

// UnwindLocal pops consecutive LOCAL frames, restoring each saved
// value, and returns the tag of the frame it stopped at.
func (s *Stack) UnwindLocal() Item {
	for {
		f := s.TopFrame()
		if f == nil {
			return NoItem
		}
		if f.Tag() != LocalItem {
			return f.Tag()
		}
		s.discard(true)
	}
}

// EmptyStack discards frames, undoing their effects, until one with the
// required tag is on top. Used by RETURN, ENDPROC and '='.
func (s *Stack) EmptyStack(required Item) {
	for {
		f := s.TopFrame()
		if f == nil || f.Tag() == required {
			return
		}
		s.discard(true)
	}
}

// Reset discards every frame without restoring local values, for the
// stack reset after a trapped error.
func (s *Stack) Reset() {
	for s.TopFrame() != nil {
		s.discard(false)
	}
	s.ops = s.ops[:0]
	s.ProcDepth = 0
	s.GosubDepth = 0
}

// ResetTo discards frames down to a recorded depth, without restores.
func (s *Stack) ResetTo(depth int) {
	for len(s.frames) > depth {
		s.discard(false)
	}
}

// FrameDepth returns the control stack depth.
func (s *Stack) FrameDepth() int {
	return len(s.frames)
}

// RestoreParameters restores a call's parameters to their saved values
// and performs RETURN write-backs. The write-backs happen after every
// restore so that a RETURN parameter aliased by another parameter
// receives its final value, which needs the right-to-left recursion.
func (s *Stack) RestoreParameters(count int) {
	if count == 0 {
		return
	}
	switch f := s.PopFrame().(type) {
	case *LocalFrame:
		s.Store(f.Target, f.Saved)
		s.RestoreParameters(count - 1)
	case *RetParmFrame:
		current := s.Load(f.Target)
		s.Store(f.Target, f.Saved)
		s.RestoreParameters(count - 1)
		s.Store(f.Ret, current)
	default:
		errs.Raise(errs.Broken)
	}
}

/* Loads and stores through lvalues */

func numInt(v Value) int64 {
	switch {
	case v.Kind.IsInt():
		return v.Int
	case v.Kind == value.Float:
		return toInt64(v.Float)
	}
	errs.Raise(errs.VarNum)
	return 0
}

func numFloat(v Value) float64 {
	switch {
	case v.Kind.IsInt():
		return float64(v.Int)
	case v.Kind == value.Float:
		return v.Float
	}
	errs.Raise(errs.VarNum)
	return 0
}

func str(v Value) string {
	if !v.Kind.IsString() {
		errs.Raise(errs.TypeStr)
	}
	return v.Str
}

// Load fetches the current value of a storage location.
func (s *Stack) Load(lv symbols.Lvalue) Value {
	switch lv.Ref {
	case symbols.RefScalar:
		vp := lv.Var
		switch vp.Kind {
		case symbols.Int32:
			return Value{Kind: value.Int32, Int: int64(vp.Integer)}
		case symbols.Uint8:
			return Value{Kind: value.Uint8, Int: int64(vp.U8)}
		case symbols.Int64:
			return Value{Kind: value.Int64, Int: vp.Long}
		case symbols.Float:
			return Value{Kind: value.Float, Float: vp.Float}
		case symbols.String:
			return Value{Kind: value.String, Str: vp.Str}
		}
	case symbols.RefElem:
		a := lv.Arr
		switch a.Kind {
		case symbols.Int32:
			return Value{Kind: value.Int32, Int: int64(a.Ints[lv.Index])}
		case symbols.Uint8:
			return Value{Kind: value.Uint8, Int: int64(a.U8s[lv.Index])}
		case symbols.Int64:
			return Value{Kind: value.Int64, Int: a.Longs[lv.Index]}
		case symbols.Float:
			return Value{Kind: value.Float, Float: a.Floats[lv.Index]}
		case symbols.String:
			return Value{Kind: value.String, Str: a.Strs[lv.Index]}
		}
	case symbols.RefArray:
		return Value{Kind: arrayKind[lv.Var.Kind], Arr: lv.Var.Array}
	case symbols.RefByte:
		return Value{Kind: value.Int32, Int: int64(s.ws.GetByte(lv.Offset))}
	case symbols.RefWord:
		return Value{Kind: value.Int32, Int: int64(s.ws.GetInteger(lv.Offset))}
	case symbols.RefFloatI:
		return Value{Kind: value.Float, Float: s.ws.GetFloat(lv.Offset)}
	case symbols.RefStr:
		return Value{Kind: value.String, Str: s.ws.GetString(lv.Offset)}
	}
	errs.Raise(errs.Broken)
	return Value{}
}

// Store writes a value to a storage location, applying the usual
// numeric conversions.
func (s *Stack) Store(lv symbols.Lvalue, v Value) {
	switch lv.Ref {
	case symbols.RefScalar:
		vp := lv.Var
		switch vp.Kind {
		case symbols.Int32:
			vp.Integer = int32(numInt(v))
		case symbols.Uint8:
			vp.U8 = uint8(numInt(v))
		case symbols.Int64:
			vp.Long = numInt(v)
		case symbols.Float:
			vp.Float = numFloat(v)
		case symbols.String:
			vp.Str = str(v)
		default:
			errs.Raise(errs.Broken)
		}
	case symbols.RefElem:
		a := lv.Arr
		switch a.Kind {
		case symbols.Int32:
			a.Ints[lv.Index] = int32(numInt(v))
		case symbols.Uint8:
			a.U8s[lv.Index] = uint8(numInt(v))
		case symbols.Int64:
			a.Longs[lv.Index] = numInt(v)
		case symbols.Float:
			a.Floats[lv.Index] = numFloat(v)
		case symbols.String:
			a.Strs[lv.Index] = str(v)
		}
	case symbols.RefArray:
		if v.Arr != nil && !v.Kind.IsArray() {
			errs.Raise(errs.TypeArray)
		}
		lv.Var.Array = v.Arr
		if v.Arr != nil {
			v.Arr.Parent = lv.Var
		}
	case symbols.RefByte:
		s.ws.PutByte(lv.Offset, int32(numInt(v)))
	case symbols.RefWord:
		s.ws.StoreInteger(lv.Offset, int32(numInt(v)))
	case symbols.RefFloatI:
		s.ws.StoreFloat(lv.Offset, numFloat(v))
	case symbols.RefStr:
		s.ws.StoreString(lv.Offset, str(v))
	default:
		errs.Raise(errs.Broken)
	}
}
