package token

/*
 * BasicV - Token set
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
   A tokenised program is a sequence of line records. Bytes 0x00..0x7F of
   the token stream are literal characters (0x00 ends a line, ':' ends a
   statement); bytes 0x80 and up are opcodes, some carrying fixed-size
   little-endian operands.

   Line record layout:

      +0  uint16   total record length
      +2  uint16   line number (0xFFFF marks the end of the program)
      +4  uint16   offset from record start to the executable section
      +6  ...      source tokens, NUL terminated
      ...          executable tokens, NUL terminated (last byte of record)

   The source section keeps keywords as single token bytes and everything
   else as text; it backs LIST, DATA fields and name lookups. The
   executable section is what the dispatcher runs. Unresolved "X" opcodes
   are rewritten in place on first execution; each X form is exactly the
   size of its resolved form.
*/

const (
	EOL   byte = 0x00
	Colon byte = ':'
)

// Opcodes. X forms are the unresolved variants fixed up by the patcher.
const (
	XVar       byte = 0x80 // +4: offset of name in source -> Var
	Var        byte = 0x81 // +4: variable table index
	XLineNum   byte = 0x82 // +4: line number -> LineNum
	LineNum    byte = 0x83 // +4: line reference table index
	XFnProcAll byte = 0x84 // +4: offset of name in source -> FnProcAll
	FnProcAll  byte = 0x85 // +4: variable table index
	XIf        byte = 0x86 // +2 THEN offset, +2 ELSE offset
	BlockIf    byte = 0x87
	SinglIf    byte = 0x88
	XElse      byte = 0x89 // +2: branch offset
	Else       byte = 0x8a
	XLhElse    byte = 0x8b // +2
	LhElse     byte = 0x8c
	XCase      byte = 0x8d // +4: case table index -> Case
	Case       byte = 0x8e
	XWhen      byte = 0x8f // +2
	When       byte = 0x90
	XOtherwise byte = 0x91 // +2
	Otherwise  byte = 0x92
	XWhile     byte = 0x93 // +2: branch offset -> While
	While      byte = 0x94
	StaticVar  byte = 0x95 // +1: static variable index
	IntCon     byte = 0x96 // +4: 32-bit integer constant
	Int64Con   byte = 0x97 // +8: 64-bit integer constant
	FloatCon   byte = 0x98 // +8: IEEE double constant
	StringCon  byte = 0x99 // +2 length, then text
	OsCmd      byte = 0x9a // +2: offset of command text in source
	BadLine    byte = 0x9b // +1: tokeniser error number

	Call      byte = 0xa0
	Chain     byte = 0xa1
	Clear     byte = 0xa2
	Data      byte = 0xa3 // +2: offset of data text in source
	Def       byte = 0xa4
	Dim       byte = 0xa5
	End       byte = 0xa6
	EndCase   byte = 0xa7
	EndIf     byte = 0xa8
	EndProc   byte = 0xa9
	EndWhile  byte = 0xaa
	Error     byte = 0xab
	For       byte = 0xac
	Gosub     byte = 0xad
	Goto      byte = 0xae
	Input     byte = 0xaf
	Let       byte = 0xb0
	Library   byte = 0xb1
	Local     byte = 0xb2
	Next      byte = 0xb3
	On        byte = 0xb4
	Oscli     byte = 0xb5
	Print     byte = 0xb6
	Quit      byte = 0xb7
	Read      byte = 0xb8
	Rem       byte = 0xb9
	Repeat    byte = 0xba
	Report    byte = 0xbb
	Restore   byte = 0xbc
	Return    byte = 0xbd
	Run       byte = 0xbe
	Stop      byte = 0xbf
	Swap      byte = 0xc0
	Sys       byte = 0xc1
	Trace     byte = 0xc2
	Until     byte = 0xc3
	Wait      byte = 0xc4
	Install   byte = 0xc5
	Then      byte = 0xc6
	To        byte = 0xc7
	Step      byte = 0xc8
	Of        byte = 0xc9
	Off       byte = 0xca
	Proc      byte = 0xcb // name marker, also first byte of a PROC name
	Fn        byte = 0xcc // name marker, also first byte of an FN name
	Close     byte = 0xcd
	Vdu       byte = 0xce
	If        byte = 0xcf

	And  byte = 0xd0
	Or   byte = 0xd1
	Eor  byte = 0xd2
	Not  byte = 0xd3
	Div  byte = 0xd4
	Mod  byte = 0xd5
	Le   byte = 0xd6 // <=
	Ge   byte = 0xd7 // >=
	Ne   byte = 0xd8 // <>
	Shl  byte = 0xd9 // <<
	Shr  byte = 0xda // >> (arithmetic)
	Shrl byte = 0xdb // >>> (logical)

	Abs     byte = 0xe0
	Asc     byte = 0xe1
	ChrStr  byte = 0xe2
	ErrTok  byte = 0xe3
	Erl     byte = 0xe4
	FalseT  byte = 0xe5
	IntFn   byte = 0xe6
	LeftStr byte = 0xe7
	Len     byte = 0xe8
	MidStr  byte = 0xe9
	Pi      byte = 0xea
	RightSt byte = 0xeb
	Rnd     byte = 0xec
	Sgn     byte = 0xed
	Sqr     byte = 0xee
	StrStr  byte = 0xef
	StringS byte = 0xf0
	Time    byte = 0xf1
	Top     byte = 0xf2
	TrueT   byte = 0xf3
	Val     byte = 0xf4
	Himem   byte = 0xf5
)

// Operand sizes.
const (
	OffSize  = 2 // short branch offsets (IF, ELSE, WHEN, WHILE)
	LOffSize = 4 // long operands (line targets, name/table pointers)
	SizeSize = 2 // source-text offsets (DATA, '*' commands)
)

// Line record field offsets.
const (
	LenField   = 0
	NumField   = 2
	ExecField  = 4
	SrcField   = 6
	HeaderSize = 6
)

// Line number limits. EndLineNo marks the end-of-program sentinel record.
const (
	MaxLineNo = 0xfeff
	EndLineNo = 0xffff
	NoLine    = 0xfffe // tokenised fragment with no line number
)

// operandSize gives the number of fixed operand bytes following each
// opcode. StringCon is variable length and handled in SkipToken.
var operandSize [256]int

func init() {
	for _, t := range []byte{XVar, Var, XLineNum, LineNum, XFnProcAll, FnProcAll, XCase, Case, IntCon} {
		operandSize[t] = LOffSize
	}
	for _, t := range []byte{XIf, BlockIf, SinglIf} {
		operandSize[t] = 2 * OffSize
	}
	for _, t := range []byte{XElse, Else, XLhElse, LhElse, XWhen, When, XOtherwise, Otherwise, XWhile, While} {
		operandSize[t] = OffSize
	}
	for _, t := range []byte{OsCmd, Data} {
		operandSize[t] = SizeSize
	}
	operandSize[StaticVar] = 1
	operandSize[BadLine] = 1
	operandSize[Int64Con] = 8
	operandSize[FloatCon] = 8
}

// SkipToken returns the position of the token after the one at 'p'.
func SkipToken(mem []byte, p int32) int32 {
	t := mem[p]
	if t == StringCon {
		length := int32(mem[p+1]) | int32(mem[p+2])<<8
		return p + 3 + length
	}
	return p + 1 + int32(operandSize[t])
}

// AtEOL says whether a token ends a statement: end of line, ':' or one
// of the ELSE forms.
var AtEOL [256]bool

func init() {
	AtEOL[EOL] = true
	AtEOL[Colon] = true
	AtEOL[XElse] = true
	AtEOL[Else] = true
	AtEOL[XLhElse] = true
	AtEOL[LhElse] = true
}

// IsNameStart reports whether ch can start a variable name.
func IsNameStart(ch byte) bool {
	return ch == '_' || ch == '`' || (ch >= 'A' && ch <= 'Z') || (ch >= 'a' && ch <= 'z')
}

// IsNameChar reports whether ch can continue a variable name.
func IsNameChar(ch byte) bool {
	return IsNameStart(ch) || (ch >= '0' && ch <= '9')
}

// SkipName returns the position after the variable name starting at 'p'.
// The name may begin with a PROC or FN marker byte, is followed by an
// optional type suffix and, for an array, its '(' or '['.
func SkipName(mem []byte, p int32) int32 {
	end := int32(len(mem))
	if p < end && (mem[p] == Proc || mem[p] == Fn) {
		p++
	}
	for p < end && IsNameChar(mem[p]) {
		p++
	}
	if p < end {
		switch mem[p] {
		case '%':
			p++
			if p < end && mem[p] == '%' {
				p++
			}
		case '&', '#', '$':
			p++
		}
	}
	if p < end && (mem[p] == '(' || mem[p] == '[') {
		p++
	}
	return p
}

// Get16 reads a 16-bit little-endian operand.
func Get16(mem []byte, p int32) int32 {
	return int32(mem[p]) | int32(mem[p+1])<<8
}

// Put16 stores a 16-bit little-endian operand.
func Put16(mem []byte, p, v int32) {
	mem[p] = byte(v)
	mem[p+1] = byte(v >> 8)
}

// Get32 reads a 32-bit little-endian operand.
func Get32(mem []byte, p int32) int32 {
	return int32(uint32(mem[p]) | uint32(mem[p+1])<<8 | uint32(mem[p+2])<<16 | uint32(mem[p+3])<<24)
}

// Put32 stores a 32-bit little-endian operand.
func Put32(mem []byte, p, v int32) {
	mem[p] = byte(v)
	mem[p+1] = byte(v >> 8)
	mem[p+2] = byte(v >> 16)
	mem[p+3] = byte(v >> 24)
}

// Get64 reads a 64-bit little-endian operand.
func Get64(mem []byte, p int32) int64 {
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(mem[p+int32(i)])
	}
	return int64(v)
}

// Put64 stores a 64-bit little-endian operand.
func Put64(mem []byte, p int32, v int64) {
	u := uint64(v)
	for i := 0; i < 8; i++ {
		mem[p+int32(i)] = byte(u)
		u >>= 8
	}
}
