package token

/*
 * BasicV - Tokeniser tests
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
)

// execTokens extracts the executable token bytes of a record.
func execTokens(record []byte) []byte {
	start := Get16(record, ExecField)
	return record[start : len(record)-1]
}

func TestRecordLayout(t *testing.T) {
	record := Tokenize("PRINT 1", 10)
	if got := Get16(record, LenField); got != int32(len(record)) {
		t.Errorf("length field %d, record is %d bytes", got, len(record))
	}
	if got := Get16(record, NumField); got != 10 {
		t.Errorf("line number %d", got)
	}
	if record[len(record)-1] != EOL {
		t.Errorf("record does not end with NUL")
	}
	exec := execTokens(record)
	if exec[0] != Print {
		t.Errorf("first executable token &%02x, want PRINT", exec[0])
	}
}

func TestKeywordTokens(t *testing.T) {
	cases := []struct {
		text  string
		first byte
	}{
		{"FOR i%=1 TO 3", For},
		{"REPEAT", Repeat},
		{"ENDPROC", EndProc},
		{"ENDWHILE", EndWhile},
		{"IF 1 THEN PRINT 1", XIf},
		{"CASE x% OF", XCase},
		{"WHILE 1", XWhile},
		{"WHEN 2: PRINT 1", XWhen},
		{"OTHERWISE: PRINT 1", XOtherwise},
		{"ON ERROR PRINT 1", On},
		{"RETURN", Return},
	}
	for _, tc := range cases {
		exec := execTokens(Tokenize(tc.text, 10))
		if exec[0] != tc.first {
			t.Errorf("%q: first token &%02x, want &%02x", tc.text, exec[0], tc.first)
		}
	}
}

func TestStaticVariable(t *testing.T) {
	exec := execTokens(Tokenize("X%=1", 10))
	if exec[0] != StaticVar || exec[1] != 'X'-'A' {
		t.Errorf("static variable not recognised: % 02x", exec[:2])
	}
	// Lower case names are dynamic variables
	exec = execTokens(Tokenize("x%=1", 10))
	if exec[0] != XVar {
		t.Errorf("dynamic variable got token &%02x", exec[0])
	}
	// @% holds the print format
	exec = execTokens(Tokenize("@%=10", 10))
	if exec[0] != StaticVar || exec[1] != AtPercent {
		t.Errorf("@%% not recognised: % 02x", exec[:2])
	}
}

func TestVarOperandFindsName(t *testing.T) {
	record := Tokenize("value%=1", 10)
	exec := Get16(record, ExecField)
	if record[exec] != XVar {
		t.Fatalf("expected XVAR, got &%02x", record[exec])
	}
	src := exec - Get32(record, exec+1)
	end := SkipName(record, src)
	if string(record[src:end]) != "value%" {
		t.Errorf("operand resolves to %q", record[src:end])
	}
}

func TestLineNumberAfterGoto(t *testing.T) {
	exec := execTokens(Tokenize("GOTO 100", 10))
	if exec[0] != Goto || exec[1] != XLineNum {
		t.Fatalf("tokens % 02x", exec[:2])
	}
	if got := Get32(exec, 2); got != 100 {
		t.Errorf("line number operand %d", got)
	}
}

func TestNumericConstants(t *testing.T) {
	exec := execTokens(Tokenize("x%=42", 10))
	// XVar(5 bytes) '=' IntCon
	p := int32(5 + 1)
	if exec[p] != IntCon || Get32(exec, p+1) != 42 {
		t.Errorf("integer constant not found: % 02x", exec)
	}
	exec = execTokens(Tokenize("x%=&1F", 10))
	if exec[p] != IntCon || Get32(exec, p+1) != 0x1f {
		t.Errorf("hex constant not found: % 02x", exec)
	}
	exec = execTokens(Tokenize("x=1.5", 10))
	if exec[p] != FloatCon {
		t.Errorf("float constant not found: % 02x", exec)
	}
}

func TestStringConstant(t *testing.T) {
	exec := execTokens(Tokenize("PRINT \"a\"\"b\"", 10))
	if exec[1] != StringCon {
		t.Fatalf("tokens % 02x", exec)
	}
	length := Get16(exec, 2)
	if string(exec[4:4+length]) != "a\"b" {
		t.Errorf("string constant %q", exec[4:4+length])
	}
}

func TestDataKeepsSourceText(t *testing.T) {
	record := Tokenize("DATA 1,2,3", 10)
	exec := Get16(record, ExecField)
	if record[exec] != Data {
		t.Fatalf("expected DATA, got &%02x", record[exec])
	}
	src := exec - Get16(record, exec+1)
	if record[src] != ' ' || record[src+1] != '1' {
		t.Errorf("data text starts %q", record[src:src+2])
	}
}

func TestElseForms(t *testing.T) {
	// An ELSE opening a line belongs to a block IF
	exec := execTokens(Tokenize("ELSE", 10))
	if exec[0] != XLhElse {
		t.Errorf("leading ELSE got &%02x", exec[0])
	}
	exec = execTokens(Tokenize("IF 1 THEN PRINT 1 ELSE PRINT 2", 10))
	found := false
	for p := int32(0); p < int32(len(exec)); p = SkipToken(exec, p) {
		if exec[p] == XElse {
			found = true
		}
	}
	if !found {
		t.Errorf("embedded ELSE not tokenised: % 02x", exec)
	}
}

func TestSkipTokenSizes(t *testing.T) {
	exec := execTokens(Tokenize("IF a%=1 THEN PRINT \"yes\"", 10))
	// Walking token by token must finish exactly at the end
	p := int32(0)
	for p < int32(len(exec)) {
		next := SkipToken(exec, p)
		if next <= p {
			t.Fatalf("no progress at offset %d (token &%02x)", p, exec[p])
		}
		p = next
	}
	if p != int32(len(exec)) {
		t.Errorf("token walk ended at %d of %d", p, len(exec))
	}
}

func TestList(t *testing.T) {
	record := Tokenize("FOR i%=1 TO 3:PRINT i%;:NEXT", 10)
	if got := List(record); got != "10 FOR i%=1 TO 3:PRINT i%;:NEXT" {
		t.Errorf("LIST gave %q", got)
	}
}

func TestProcName(t *testing.T) {
	record := Tokenize("PROCdraw(1)", 10)
	exec := Get16(record, ExecField)
	if record[exec] != XFnProcAll {
		t.Fatalf("expected XFNPROCALL, got &%02x", record[exec])
	}
	src := exec - Get32(record, exec+1)
	if record[src] != Proc {
		t.Errorf("name does not start with the PROC marker")
	}
	// The parameter list stays in the token stream
	after := exec + 1 + LOffSize
	if record[after] != '(' {
		t.Errorf("token after the call is &%02x, want '('", record[after])
	}
}

func TestEndMarker(t *testing.T) {
	record := EndMarker()
	if Get16(record, NumField) != int32(EndLineNo) {
		t.Errorf("end marker line number %d", Get16(record, NumField))
	}
	exec := Get16(record, ExecField)
	if record[exec] != End {
		t.Errorf("end marker executes &%02x, want END", record[exec])
	}
}
