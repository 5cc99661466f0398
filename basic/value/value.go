package value

/*
 * BasicV - Value model
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

// Kind tags a value on the operand stack. The "temp" string and array
// kinds mark values that own their storage; plain kinds reference a
// variable's storage and must be copied before that variable can be
// destroyed.
type Kind int

const (
	Unknown Kind = iota
	Uint8
	Int32
	Int64
	Float
	String
	StrTemp
	IntArray
	Uint8Array
	Int64Array
	FloatArray
	StrArray
	IATemp
	U8ATemp
	I64ATemp
	FATemp
	SATemp
)

// Basic truth values. Comparison operators yield -1 for true.
const (
	True  int64 = -1
	False int64 = 0
)

// IsNumeric reports whether the kind is one of the scalar numeric kinds.
func (k Kind) IsNumeric() bool {
	return k == Uint8 || k == Int32 || k == Int64 || k == Float
}

// IsInt reports whether the kind is one of the integer kinds.
func (k Kind) IsInt() bool {
	return k == Uint8 || k == Int32 || k == Int64
}

// IsString reports whether the kind is a string kind.
func (k Kind) IsString() bool {
	return k == String || k == StrTemp
}

// IsArray reports whether the kind is one of the array kinds.
func (k Kind) IsArray() bool {
	return k >= IntArray && k <= SATemp
}
