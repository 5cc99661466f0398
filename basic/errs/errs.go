package errs

/*
 * BasicV - Error kinds
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

import "fmt"

// Kind identifies one of the interpreter's numbered errors. The numbers
// are stable across runs and visible to programs through ERR.
type Kind int

const (
	None Kind = iota
	Syntax
	Broken
	Escape
	Stop
	VarNum
	VarNumStr
	TypeNum
	TypeStr
	TypeArray
	StrArray
	BadExpr
	BadOper
	Range
	NameMiss
	VarMiss
	ProcMiss
	FnMiss
	NotAProc
	NotEnuff
	TooMany
	LineMiss
	LineNo
	EndProcErr
	FnReturn
	ReturnErr
	LocalErr
	EndIf
	EndCase
	EndWhile
	NotWhile
	NotRepeat
	NotFor
	OfMiss
	RPMiss
	CoMiss
	EqMiss
	ToMiss
	QuoteMiss
	Silly
	WhenCount
	OnRange
	Data
	DataNotOp
	ErrNotOp
	StackFull
	BadDim
	NegDim
	NegByteDim
	BadByteDim
	DuplDim
	DimCount
	NoLibLoc
	NoSwap
	StringLen
	Address
	OscliFail
	SysCount
	BadTrace
	Unsupported
	UnsupState
	BadProgram
	DivZero
	NameLen
	FileMiss
)

var messages = map[Kind]string{
	Syntax:      "Syntax error",
	Broken:      "The interpreter has gone wrong",
	Escape:      "Escape",
	Stop:        "Stopped",
	VarNum:      "Number wanted",
	VarNumStr:   "Number or string wanted",
	TypeNum:     "Type mismatch: number wanted",
	TypeStr:     "Type mismatch: string wanted",
	TypeArray:   "Type mismatch: array wanted",
	StrArray:    "Type mismatch: string array wanted",
	BadExpr:     "Bad expression",
	BadOper:     "Unrecognisable operand",
	Range:       "Number is out of range",
	NameMiss:    "Variable name expected",
	VarMiss:     "Unknown variable '%s'",
	ProcMiss:    "Procedure 'PROC%s' not found",
	FnMiss:      "Function 'FN%s' not found",
	NotAProc:    "Cannot use a function as a procedure",
	NotEnuff:    "Not enough parameters for '%s'",
	TooMany:     "Too many parameters for '%s'",
	LineMiss:    "Line %d is missing",
	LineNo:      "Line number is out of range",
	EndProcErr:  "Not in a procedure",
	FnReturn:    "Not in a function",
	ReturnErr:   "Not in a subroutine",
	LocalErr:    "Not in a procedure or function",
	EndIf:       "ENDIF is missing",
	EndCase:     "ENDCASE is missing",
	EndWhile:    "ENDWHILE is missing",
	NotWhile:    "Not in a WHILE loop",
	NotRepeat:   "Not in a REPEAT loop",
	NotFor:      "Not in a FOR loop",
	OfMiss:      "OF is missing",
	RPMiss:      "')' is missing",
	CoMiss:      "',' is missing",
	EqMiss:      "'=' is missing",
	ToMiss:      "TO is missing",
	QuoteMiss:   "'\"' is missing",
	Silly:       "Silly",
	WhenCount:   "Too many WHENs in CASE statement",
	OnRange:     "ON index %d is out of range",
	Data:        "Out of data",
	DataNotOp:   "Saved DATA pointer is not on top of the stack",
	ErrNotOp:    "Saved error handler is not on top of the stack",
	StackFull:   "Basic stack is full",
	BadDim:      "Not enough memory to create array '%s'",
	NegDim:      "Dimension of array '%s' is negative",
	NegByteDim:  "Size of byte array '%s' is negative",
	BadByteDim:  "Not enough memory to create byte array '%s'",
	DuplDim:     "Array '%s' is already defined",
	DimCount:    "Array '%s' has too many dimensions",
	NoLibLoc:    "LIBRARY LOCAL is only allowed in a library",
	NoSwap:      "Cannot swap these operands",
	StringLen:   "String is too long",
	Address:     "Address is out of range",
	OscliFail:   "OSCLI failed: %s",
	SysCount:    "Too many SYS parameters",
	BadTrace:    "Bad TRACE option",
	Unsupported: "Unsupported statement",
	UnsupState:  "Statement is not supported in this version",
	BadProgram:  "Program is corrupt",
	DivZero:     "Division by zero",
	NameLen:     "Variable or procedure name is too long",
	FileMiss:    "Cannot find file '%s'",
}

// Error is the unit of unwinding inside the interpreter. Raising one
// abandons the Go call chain back to the statement-execution loop that
// owns error recovery; the interpreter's own control stack is untouched
// and is unwound there according to the installed handler.
type Error struct {
	Kind Kind
	Line int32 // line being executed when raised, -1 if none
	msg  string
}

func (e *Error) Error() string {
	return e.msg
}

// Message returns the text without any line number decoration.
func (e *Error) Message() string {
	return e.msg
}

// New builds an error without raising it.
func New(kind Kind, args ...interface{}) *Error {
	text, ok := messages[kind]
	if !ok {
		text = fmt.Sprintf("Error %d", int(kind))
	}
	if len(args) != 0 {
		text = fmt.Sprintf(text, args...)
	}
	return &Error{Kind: kind, Line: -1, msg: text}
}

// Raise panics with a numbered error. Only the statement loops in the
// exec package recover these.
func Raise(kind Kind, args ...interface{}) {
	panic(New(kind, args...))
}

// RaiseUser raises a user-defined error from the ERROR statement.
func RaiseUser(number int32, text string) {
	panic(&Error{Kind: Kind(number), Line: -1, msg: text})
}
