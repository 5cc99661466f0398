package exec

/*
 * BasicV - Interpreter tests
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
	"strings"
	"testing"

	"github.com/rcornwell/BasicV/basic/errs"
	"github.com/rcornwell/BasicV/basic/host"
	"github.com/rcornwell/BasicV/basic/workspace"
)

func newTestInterp(out *strings.Builder) *Interp {
	return New(workspace.New(64*1024), host.NewSystem(out), out)
}

// runProgram tokenises and runs a program, returning its output.
func runProgram(t *testing.T, src string) string {
	t.Helper()
	var out strings.Builder
	ip := newTestInterp(&out)
	if err := ip.LoadProgram(src); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	_, _, e := ip.Run(-1)
	if e != nil {
		t.Fatalf("run failed: %v (line %d)", e, e.Line)
	}
	return out.String()
}

// runFails runs a program that is expected to stop with an error.
func runFails(t *testing.T, src string) *errs.Error {
	t.Helper()
	var out strings.Builder
	ip := newTestInterp(&out)
	if err := ip.LoadProgram(src); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	_, _, e := ip.Run(-1)
	if e == nil {
		t.Fatalf("program ran without error, output %q", out.String())
	}
	return e
}

func TestForLoop(t *testing.T) {
	got := runProgram(t, `10 FOR I%=1 TO 3:PRINT I%;:NEXT`)
	if got != "123" {
		t.Errorf("got %q want %q", got, "123")
	}
}

func TestRepeatUntil(t *testing.T) {
	got := runProgram(t, `10 X%=0 : REPEAT : X%+=1 : UNTIL X%=5 : PRINT X%`)
	if got != "5\n" {
		t.Errorf("got %q want %q", got, "5\n")
	}
}

func TestReturnParameter(t *testing.T) {
	src := "10 DEF PROCs(RETURN a%):a%=a%*2:ENDPROC\n" +
		"20 x%=7 : PROCs(x%) : PRINT x%"
	got := runProgram(t, src)
	if got != "14\n" {
		t.Errorf("got %q want %q", got, "14\n")
	}
}

func TestOnGoto(t *testing.T) {
	src := "10 ON 2 GOTO 30,40,50 ELSE 60\n" +
		"30 PRINT \"A\":END\n" +
		"40 PRINT \"B\":END\n" +
		"50 PRINT \"C\":END\n" +
		"60 PRINT \"D\""
	got := runProgram(t, src)
	if got != "B\n" {
		t.Errorf("got %q want %q", got, "B\n")
	}
}

func TestCaseStrings(t *testing.T) {
	src := "10 CASE \"hi\" OF\n" +
		"20 WHEN \"hello\": PRINT 1\n" +
		"30 WHEN \"hi\",\"hey\": PRINT 2\n" +
		"40 OTHERWISE: PRINT 3\n" +
		"50 ENDCASE"
	got := runProgram(t, src)
	if got != "2\n" {
		t.Errorf("got %q want %q", got, "2\n")
	}
}

func TestDataReadRestore(t *testing.T) {
	src := "10 DATA 1,2,\"three\",4\n" +
		"20 READ a%,b%,c$,d%\n" +
		"30 PRINT a%;b%;c$;d%\n" +
		"40 RESTORE\n" +
		"50 READ e%\n" +
		"60 PRINT e%"
	got := runProgram(t, src)
	if got != "12three4\n1\n" {
		t.Errorf("got %q want %q", got, "12three4\n1\n")
	}
}

func TestOnError(t *testing.T) {
	src := "10 ON ERROR PRINT \"err=\";ERR:END\n" +
		"20 ERROR 123,\"x\""
	got := runProgram(t, src)
	if !strings.Contains(got, "err=123") {
		t.Errorf("output %q does not contain %q", got, "err=123")
	}
}

func TestWhileLoop(t *testing.T) {
	got := runProgram(t, `10 i%=0:WHILE i%<3:i%+=1:ENDWHILE:PRINT i%`)
	if got != "3\n" {
		t.Errorf("got %q want %q", got, "3\n")
	}
}

func TestWhileSkipped(t *testing.T) {
	src := "10 WHILE FALSE\n" +
		"20 PRINT \"no\"\n" +
		"30 ENDWHILE\n" +
		"40 PRINT \"yes\""
	got := runProgram(t, src)
	if got != "yes\n" {
		t.Errorf("got %q want %q", got, "yes\n")
	}
}

func TestInformalNesting(t *testing.T) {
	// A REPEAT left open inside a WHILE is finished by the ENDWHILE
	got := runProgram(t, `10 i%=0:WHILE i%<2:i%+=1:REPEAT:ENDWHILE:PRINT i%`)
	if got != "2\n" {
		t.Errorf("got %q want %q", got, "2\n")
	}
}

func TestNestedForNamedNext(t *testing.T) {
	src := "10 FOR i%=1 TO 2:FOR j%=1 TO 2:PRINT i%;j%;\" \";:NEXT j%,i%\n" +
		"20 PRINT"
	got := runProgram(t, src)
	if got != "11 12 21 22 \n" {
		t.Errorf("got %q", got)
	}
}

func TestNextPopsInnerLoops(t *testing.T) {
	// NEXT i% finishes the inner j% loop as a side effect
	src := "10 FOR i%=1 TO 2:FOR j%=1 TO 9:NEXT i%\n" +
		"20 PRINT i%;j%"
	got := runProgram(t, src)
	if got != "31\n" {
		t.Errorf("got %q", got)
	}
}

func TestForStepZero(t *testing.T) {
	e := runFails(t, `10 FOR i%=1 TO 2 STEP 0:NEXT`)
	if e.Kind != errs.Silly {
		t.Errorf("got error %v want Silly", e.Kind)
	}
}

func TestForStepDown(t *testing.T) {
	got := runProgram(t, `10 FOR i%=3 TO 1 STEP -1:PRINT i%;:NEXT`)
	if got != "321" {
		t.Errorf("got %q", got)
	}
}

func TestGosubReturn(t *testing.T) {
	src := "10 GOSUB 30:PRINT \"m\":END\n" +
		"30 PRINT \"s\":RETURN"
	got := runProgram(t, src)
	if got != "s\nm\n" {
		t.Errorf("got %q", got)
	}
}

func TestFnCall(t *testing.T) {
	src := "10 PRINT FNd(3)\n" +
		"20 END\n" +
		"30 DEF FNd(x%)=x%*2"
	got := runProgram(t, src)
	if got != "6\n" {
		t.Errorf("got %q", got)
	}
}

func TestFnStringResult(t *testing.T) {
	src := "10 PRINT FNa(\"x\")\n" +
		"20 END\n" +
		"30 DEF FNa(s$)\n" +
		"40 LOCAL t$\n" +
		"50 t$=s$+\"y\"\n" +
		"60 =t$"
	got := runProgram(t, src)
	if got != "xy\n" {
		t.Errorf("got %q", got)
	}
}

func TestLocalRestored(t *testing.T) {
	src := "10 x%=1:PROCa:PRINT x%\n" +
		"20 END\n" +
		"30 DEF PROCa:LOCAL x%:x%=99:ENDPROC"
	got := runProgram(t, src)
	if got != "1\n" {
		t.Errorf("got %q", got)
	}
}

func TestProcParameterRestored(t *testing.T) {
	src := "10 a%=5:PROCp(a%):PRINT a%\n" +
		"20 END\n" +
		"30 DEF PROCp(a%):a%=42:ENDPROC"
	got := runProgram(t, src)
	if got != "5\n" {
		t.Errorf("got %q", got)
	}
}

func TestSwapScalars(t *testing.T) {
	src := `10 a%=1:b%=2:SWAP a%,b%:PRINT a%;b%:SWAP a%,b%:PRINT a%;b%`
	got := runProgram(t, src)
	if got != "21\n12\n" {
		t.Errorf("got %q", got)
	}
}

func TestSwapArrays(t *testing.T) {
	src := "10 DIM a%(2):DIM b%(2)\n" +
		"20 a%(0)=5:b%(0)=9\n" +
		"30 SWAP a%(),b%()\n" +
		"40 PRINT a%(0);b%(0)"
	got := runProgram(t, src)
	if got != "95\n" {
		t.Errorf("got %q", got)
	}
}

func TestCaseNumericWidening(t *testing.T) {
	src := "10 CASE 2.0 OF\n" +
		"20 WHEN 1,2: PRINT \"two\"\n" +
		"30 ENDCASE"
	got := runProgram(t, src)
	if got != "two\n" {
		t.Errorf("got %q", got)
	}
}

func TestCaseFirstMatchWins(t *testing.T) {
	src := "10 CASE 1 OF\n" +
		"20 WHEN 1: PRINT \"first\"\n" +
		"30 WHEN 1: PRINT \"second\"\n" +
		"40 ENDCASE"
	got := runProgram(t, src)
	if got != "first\n" {
		t.Errorf("got %q", got)
	}
}

func TestCaseFallthrough(t *testing.T) {
	src := "10 CASE 9 OF\n" +
		"20 WHEN 1: PRINT \"one\"\n" +
		"30 ENDCASE\n" +
		"40 PRINT \"after\""
	got := runProgram(t, src)
	if got != "after\n" {
		t.Errorf("got %q", got)
	}
}

func TestBlockIf(t *testing.T) {
	src := "10 IF 1 THEN\n" +
		"20 PRINT \"t\"\n" +
		"30 ELSE\n" +
		"40 PRINT \"f\"\n" +
		"50 ENDIF\n" +
		"60 PRINT \"done\""
	got := runProgram(t, src)
	if got != "t\ndone\n" {
		t.Errorf("got %q", got)
	}
}

func TestBlockIfElse(t *testing.T) {
	src := "10 IF 0 THEN\n" +
		"20 PRINT \"t\"\n" +
		"30 ELSE\n" +
		"40 PRINT \"f\"\n" +
		"50 ENDIF\n" +
		"60 PRINT \"done\""
	got := runProgram(t, src)
	if got != "f\ndone\n" {
		t.Errorf("got %q", got)
	}
}

func TestSingleLineIf(t *testing.T) {
	got := runProgram(t, `10 IF 2>1 THEN PRINT "y" ELSE PRINT "n"`)
	if got != "y\n" {
		t.Errorf("got %q", got)
	}
	got = runProgram(t, `10 IF 2<1 THEN PRINT "y" ELSE PRINT "n"`)
	if got != "n\n" {
		t.Errorf("got %q", got)
	}
}

func TestIfThenLineNumber(t *testing.T) {
	src := "10 IF 1 THEN 40\n" +
		"20 PRINT \"no\"\n" +
		"30 END\n" +
		"40 PRINT \"yes\""
	got := runProgram(t, src)
	if got != "yes\n" {
		t.Errorf("got %q", got)
	}
}

func TestReadOutOfData(t *testing.T) {
	e := runFails(t, `10 READ a%`)
	if e.Kind != errs.Data {
		t.Errorf("got error %v want Data", e.Kind)
	}
}

func TestEndProcOutsideProc(t *testing.T) {
	e := runFails(t, `10 ENDPROC`)
	if e.Kind != errs.EndProcErr {
		t.Errorf("got error %v want EndProcErr", e.Kind)
	}
}

func TestUntilWithoutRepeat(t *testing.T) {
	e := runFails(t, `10 UNTIL TRUE`)
	if e.Kind != errs.NotRepeat {
		t.Errorf("got error %v want NotRepeat", e.Kind)
	}
}

func TestUnknownVariable(t *testing.T) {
	e := runFails(t, `10 PRINT zz%`)
	if e.Kind != errs.VarMiss {
		t.Errorf("got error %v want VarMiss", e.Kind)
	}
}

func TestStopReportsLine(t *testing.T) {
	e := runFails(t, "10 PRINT \"a\"\n20 STOP")
	if e.Kind != errs.Stop || e.Line != 20 {
		t.Errorf("got error %v at line %d", e.Kind, e.Line)
	}
}

func TestOnErrorLocal(t *testing.T) {
	src := "10 PROCt:PRINT \"after\"\n" +
		"20 END\n" +
		"30 DEF PROCt\n" +
		"40 LOCAL ERROR\n" +
		"50 ON ERROR LOCAL PRINT \"caught\":ENDPROC\n" +
		"60 ERROR 99,\"boom\"\n" +
		"70 ENDPROC"
	got := runProgram(t, src)
	if got != "caught\nafter\n" {
		t.Errorf("got %q", got)
	}
}

func TestLocalErrorRestoresHandler(t *testing.T) {
	src := "10 ON ERROR PRINT \"outer\":END\n" +
		"20 PROCt\n" +
		"30 ERROR 1,\"x\"\n" +
		"40 END\n" +
		"50 DEF PROCt\n" +
		"60 LOCAL ERROR\n" +
		"70 ON ERROR LOCAL PRINT \"inner\":ENDPROC\n" +
		"80 ERROR 2,\"y\"\n" +
		"90 ENDPROC"
	got := runProgram(t, src)
	if got != "inner\nouter\n" {
		t.Errorf("got %q", got)
	}
}

func TestReport(t *testing.T) {
	src := "10 ON ERROR REPORT:PRINT:END\n" +
		"20 ERROR 7,\"it broke\""
	got := runProgram(t, src)
	if !strings.Contains(got, "it broke") {
		t.Errorf("got %q", got)
	}
}

func TestStringFunctions(t *testing.T) {
	got := runProgram(t, `10 PRINT LEN("abc");LEFT$("hello",2);STR$(12);MID$("abcde",2,3)`)
	if got != "3he12bcd\n" {
		t.Errorf("got %q", got)
	}
}

func TestHexConstantAndPrint(t *testing.T) {
	got := runProgram(t, `10 PRINT &FF;" ";~255`)
	if got != "255 FF\n" {
		t.Errorf("got %q", got)
	}
}

func TestByteBlockIndirection(t *testing.T) {
	src := "10 DIM p% 8\n" +
		"20 ?p%=65:p%?1=66\n" +
		"30 PRINT ?p%;p%?1"
	got := runProgram(t, src)
	if got != "6566\n" {
		t.Errorf("got %q", got)
	}
}

func TestWordIndirection(t *testing.T) {
	src := "10 DIM p% 16\n" +
		"20 !p%=70000\n" +
		"30 PRINT !p%"
	got := runProgram(t, src)
	if got != "70000\n" {
		t.Errorf("got %q", got)
	}
}

func TestDimHimem(t *testing.T) {
	src := "10 DIM HIMEM q% 15\n" +
		"20 ?q%=7:PRINT ?q%\n" +
		"30 CLEAR HIMEM"
	got := runProgram(t, src)
	if got != "7\n" {
		t.Errorf("got %q", got)
	}
}

func TestNegativeByteDim(t *testing.T) {
	e := runFails(t, `10 DIM p% -2`)
	if e.Kind != errs.NegByteDim {
		t.Errorf("got error %v want NegByteDim", e.Kind)
	}
}

func TestDuplicateDim(t *testing.T) {
	e := runFails(t, "10 DIM a%(3)\n20 DIM a%(3)")
	if e.Kind != errs.DuplDim {
		t.Errorf("got error %v want DuplDim", e.Kind)
	}
}

func TestStringArrayAndFill(t *testing.T) {
	src := "10 DIM s$(3)\n" +
		"20 s$()=\"x\"\n" +
		"30 PRINT s$(0);s$(3)"
	got := runProgram(t, src)
	if got != "xx\n" {
		t.Errorf("got %q", got)
	}
}

func TestRestoreData(t *testing.T) {
	src := "10 DATA 5,6\n" +
		"20 READ a%\n" +
		"30 PROCmore\n" +
		"40 READ b%:PRINT a%;b%\n" +
		"50 END\n" +
		"60 DEF PROCmore\n" +
		"70 LOCAL DATA\n" +
		"80 RESTORE:READ x%\n" +
		"90 RESTORE DATA\n" +
		"95 ENDPROC"
	got := runProgram(t, src)
	if got != "56\n" {
		t.Errorf("got %q", got)
	}
}

func TestRestoreLineNumber(t *testing.T) {
	src := "10 DATA 1\n" +
		"20 DATA 2\n" +
		"30 READ a%:RESTORE 20:READ b%:PRINT a%;b%"
	got := runProgram(t, src)
	if got != "12\n" {
		t.Errorf("got %q", got)
	}
}

func TestDataQuoteDedup(t *testing.T) {
	src := "10 DATA \"a\"\"b\"\n" +
		"20 READ a$:PRINT a$"
	got := runProgram(t, src)
	if got != "a\"b\n" {
		t.Errorf("got %q", got)
	}
}

func TestRunTwiceIsIdempotent(t *testing.T) {
	// Re-running a program exercises the unpatch path: the rewritten
	// tokens must behave exactly as on the first run
	src := "10 FOR I%=1 TO 3:PRINT I%;:NEXT\n" +
		"20 IF I%>3 THEN PRINT \"over\" ELSE PRINT \"under\"\n" +
		"30 ON 1 GOTO 40\n" +
		"40 PRINT \"end\""
	var out strings.Builder
	ip := newTestInterp(&out)
	if err := ip.LoadProgram(src); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if _, _, e := ip.Run(-1); e != nil {
		t.Fatalf("first run failed: %v", e)
	}
	first := out.String()
	out.Reset()
	if _, _, e := ip.Run(-1); e != nil {
		t.Fatalf("second run failed: %v", e)
	}
	if out.String() != first {
		t.Errorf("second run gave %q, first gave %q", out.String(), first)
	}
}

func TestInstalledLibraryProc(t *testing.T) {
	var out strings.Builder
	ip := newTestInterp(&out)
	if err := ip.LoadProgram("10 PROCgreet"); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	lib := "10 DEF PROCgreet\n20 PRINT \"hi\"\n30 ENDPROC"
	if err := ip.LoadLibrary("greetlib", lib, true); err != nil {
		t.Fatalf("library load failed: %v", err)
	}
	if _, _, e := ip.Run(-1); e != nil {
		t.Fatalf("run failed: %v", e)
	}
	if out.String() != "hi\n" {
		t.Errorf("got %q", out.String())
	}
}

func TestImmediateStatement(t *testing.T) {
	var out strings.Builder
	ip := newTestInterp(&out)
	if _, _, e := ip.Immediate("PRINT 1+2"); e != nil {
		t.Fatalf("immediate failed: %v", e)
	}
	if out.String() != "3\n" {
		t.Errorf("got %q", out.String())
	}
}

func TestImmediateRun(t *testing.T) {
	var out strings.Builder
	ip := newTestInterp(&out)
	if err := ip.LoadProgram("10 PRINT \"ran\""); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if _, _, e := ip.Immediate("RUN"); e != nil {
		t.Fatalf("immediate RUN failed: %v", e)
	}
	if out.String() != "ran\n" {
		t.Errorf("got %q", out.String())
	}
}

func TestQuitCode(t *testing.T) {
	var out strings.Builder
	ip := newTestInterp(&out)
	if err := ip.LoadProgram("10 QUIT 3"); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	code, quit, e := ip.Run(-1)
	if e != nil {
		t.Fatalf("run failed: %v", e)
	}
	if !quit || code != 3 {
		t.Errorf("got code %d quit %v", code, quit)
	}
}

func TestOperandStackEmptyAtEnd(t *testing.T) {
	var out strings.Builder
	ip := newTestInterp(&out)
	if err := ip.LoadProgram("10 x%=1+2*3:PRINT x%"); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if _, _, e := ip.Run(-1); e != nil {
		t.Fatalf("run failed: %v", e)
	}
	if ip.St.OpDepth() != 0 {
		t.Errorf("operand stack depth %d at end of run", ip.St.OpDepth())
	}
}

func TestOperatorPrecedence(t *testing.T) {
	cases := []struct {
		expr string
		want string
	}{
		{"1+2*3", "7"},
		{"10 DIV 3", "3"},
		{"10 MOD 3", "1"},
		{"2^3", "8"},
		{"-2^2", "-4"},
		{"(1=1) AND 4", "4"},
		{"NOT 0", "-1"},
		{"1 << 4", "16"},
		{"\"a\"+\"b\"", "ab"},
		{"6/4", "1.5"},
	}
	for _, tc := range cases {
		got := runProgram(t, "10 PRINT "+tc.expr)
		if got != tc.want+"\n" {
			t.Errorf("%s: got %q want %q", tc.expr, got, tc.want)
		}
	}
}

func TestGotoComputed(t *testing.T) {
	src := "10 x%=4\n" +
		"20 GOTO x%*10\n" +
		"30 PRINT \"no\":END\n" +
		"40 PRINT \"yes\""
	got := runProgram(t, src)
	if got != "yes\n" {
		t.Errorf("got %q", got)
	}
}

func TestGotoMissingLine(t *testing.T) {
	e := runFails(t, `10 GOTO 99`)
	if e.Kind != errs.LineMiss {
		t.Errorf("got error %v want LineMiss", e.Kind)
	}
}
