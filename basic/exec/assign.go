package exec

/*
 * BasicV - Assignment and SWAP
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
	"github.com/rcornwell/BasicV/basic/stack"
	"github.com/rcornwell/BasicV/basic/symbols"
)

// execAssign handles a statement that starts with a storage reference:
// '=', '+=' and '-=' assignments to scalars, array elements, whole
// arrays and indirection targets.
func (ip *Interp) execAssign() {
	mem := ip.mem()
	lv := ip.getLvalue(true)
	var op byte
	switch {
	case mem[ip.current] == '=':
		op = '='
		ip.current++
	case mem[ip.current] == '+' && mem[ip.current+1] == '=':
		op = '+'
		ip.current += 2
	case mem[ip.current] == '-' && mem[ip.current+1] == '=':
		op = '-'
		ip.current += 2
	default:
		errs.Raise(errs.EqMiss)
	}
	ip.expression()
	rhs := ip.St.PopValue()
	if lv.Ref == symbols.RefArray {
		ip.assignArray(lv, op, rhs)
		return
	}
	switch op {
	case '=':
		ip.St.Store(lv, rhs)
	case '+':
		old := ip.St.Load(lv)
		if old.Kind.IsString() {
			ip.St.Store(lv, strTemp(old.Str+asString(rhs)))
		} else if bothInt(old, rhs) {
			ip.St.Store(lv, intValue(old.Int+rhs.Int))
		} else {
			ip.St.Store(lv, floatValue(asFloat(old)+asFloat(rhs)))
		}
	case '-':
		old := ip.St.Load(lv)
		if bothInt(old, rhs) {
			ip.St.Store(lv, intValue(old.Int-rhs.Int))
		} else {
			ip.St.Store(lv, floatValue(asFloat(old)-asFloat(rhs)))
		}
	}
}

// assignArray handles whole-array assignment: a() = <scalar> fills the
// array, a() = b() copies element by element.
func (ip *Interp) assignArray(lv symbols.Lvalue, op byte, rhs stack.Value) {
	ap := lv.Var.Array
	if ap == nil {
		errs.Raise(errs.VarMiss, displayName(lv.Var.Name))
	}
	if rhs.Kind.IsArray() {
		if op != '=' {
			errs.Raise(errs.BadOper)
		}
		src := rhs.Arr
		if src.Kind != ap.Kind || src.Size != ap.Size {
			errs.Raise(errs.TypeArray)
		}
		switch ap.Kind {
		case symbols.Int32:
			copy(ap.Ints, src.Ints)
		case symbols.Uint8:
			copy(ap.U8s, src.U8s)
		case symbols.Int64:
			copy(ap.Longs, src.Longs)
		case symbols.Float:
			copy(ap.Floats, src.Floats)
		case symbols.String:
			copy(ap.Strs, src.Strs)
		}
		return
	}
	for n := int32(0); n < ap.Size; n++ {
		elem := symbols.Lvalue{Ref: symbols.RefElem, Arr: ap, Index: n}
		switch op {
		case '=':
			ip.St.Store(elem, rhs)
		case '+':
			old := ip.St.Load(elem)
			if old.Kind.IsString() {
				ip.St.Store(elem, strTemp(old.Str+asString(rhs)))
			} else if bothInt(old, rhs) {
				ip.St.Store(elem, intValue(old.Int+rhs.Int))
			} else {
				ip.St.Store(elem, floatValue(asFloat(old)+asFloat(rhs)))
			}
		case '-':
			old := ip.St.Load(elem)
			if bothInt(old, rhs) {
				ip.St.Store(elem, intValue(old.Int-rhs.Int))
			} else {
				ip.St.Store(elem, floatValue(asFloat(old)-asFloat(rhs)))
			}
		}
	}
}

// execLet is the spelled-out form of assignment.
func (ip *Interp) execLet() {
	ip.current++
	ip.execAssign()
}

// execSwap exchanges two scalars, two strings or two whole arrays.
// Array swaps exchange the descriptors and repair the owner
// back-pointers.
func (ip *Interp) execSwap() {
	ip.current++
	first := ip.getLvalue(false)
	if ip.mem()[ip.current] != ',' {
		errs.Raise(errs.CoMiss)
	}
	ip.current++
	second := ip.getLvalue(false)
	ip.checkAtEOL()

	if first.Ref == symbols.RefArray || second.Ref == symbols.RefArray {
		if first.Ref != second.Ref {
			errs.Raise(errs.NoSwap)
		}
		a1, a2 := first.Var.Array, second.Var.Array
		if a1 == nil || a2 == nil || a1.Kind != a2.Kind {
			errs.Raise(errs.NoSwap)
		}
		first.Var.Array, second.Var.Array = a2, a1
		a1.Parent, a2.Parent = second.Var, first.Var
		return
	}
	k1, k2 := first.Kind(), second.Kind()
	str1, str2 := k1 == symbols.String, k2 == symbols.String
	if str1 != str2 {
		errs.Raise(errs.NoSwap)
	}
	v1 := ip.St.Load(first)
	v2 := ip.St.Load(second)
	ip.St.Store(first, v2)
	ip.St.Store(second, v1)
}
