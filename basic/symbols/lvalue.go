package symbols

/*
 * BasicV - Lvalues
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

// RefType says what kind of storage location an lvalue describes.
type RefType int

const (
	RefNone   RefType = iota
	RefScalar         // Var's own payload
	RefElem           // Arr element at Index
	RefArray          // Var's whole array binding
	RefByte           // '?' byte in the workspace at Offset
	RefWord           // '!' 32-bit word in the workspace at Offset
	RefFloatI         // '|' float in the workspace at Offset
	RefStr            // '$' CR-terminated string in the workspace at Offset
)

// Lvalue identifies a mutable storage location.
type Lvalue struct {
	Ref    RefType
	Var    *Variable
	Arr    *Array
	Index  int32
	Offset int32
	Return bool // formal parameter declared with RETURN
}

// Kind returns the element kind stored at the location.
func (lv Lvalue) Kind() Kind {
	switch lv.Ref {
	case RefScalar:
		return lv.Var.Kind
	case RefElem:
		return lv.Arr.Kind
	case RefArray:
		return lv.Var.Kind
	case RefByte, RefWord:
		return Int32
	case RefFloatI:
		return Float
	case RefStr:
		return String
	}
	return None
}

// Same says whether two lvalues name the same storage. Used by NEXT to
// match a control variable against FOR frames.
func (lv Lvalue) Same(other Lvalue) bool {
	if lv.Ref != other.Ref {
		return false
	}
	switch lv.Ref {
	case RefScalar, RefArray:
		return lv.Var == other.Var
	case RefElem:
		return lv.Arr == other.Arr && lv.Index == other.Index
	default:
		return lv.Offset == other.Offset
	}
}
