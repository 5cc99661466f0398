package exec

/*
 * BasicV - Statement dispatcher
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
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rcornwell/BasicV/basic/errs"
	"github.com/rcornwell/BasicV/basic/host"
	"github.com/rcornwell/BasicV/basic/stack"
	"github.com/rcornwell/BasicV/basic/symbols"
	tok "github.com/rcornwell/BasicV/basic/token"
	"github.com/rcornwell/BasicV/basic/workspace"
)

// MaxWhens bounds the case table built for one CASE statement.
const MaxWhens = 500

// lineRef is the unpatch record for a resolved LINENUM token.
type lineRef struct {
	dest   int32
	lineno int32
}

// varRef is the unpatch record for a resolved VAR or FNPROCALL token.
type varRef struct {
	vp  *symbols.Variable
	src int32
}

// traceFlags mirrors the TRACE statement options.
type traceFlags struct {
	enabled   bool
	lines     bool
	procs     bool
	branches  bool
	pause     bool
	backtrace bool
	console   bool
}

// stopRun is the panic that ends a run (END, STOP at top, end of
// program, QUIT).
type stopRun struct {
	quit bool
	code int
}

// runRequest restarts execution (RUN, CHAIN).
type runRequest struct {
	lp int32 // -1 for the program start
}

// Interp is the interpreter state: one cursor, two stacks, the symbol
// table and the patch side tables.
type Interp struct {
	WS   *workspace.Workspace
	Syms *symbols.Table
	St   *stack.Stack
	Host host.Host
	Out  io.Writer

	current  int32
	thisline int32
	datacur  int32 // -1 until the first READ
	outOfData bool

	handler      stack.ErrorBlock
	errorIsLocal bool
	lastError    *errs.Error
	erl          int32

	running   bool
	immediate bool
	depth     int // statement-loop nesting; FN bodies run one deeper

	traces      traceFlags
	traceHandle io.WriteCloser

	vars       []varRef
	lineRefs   []lineRef
	caseTables []*caseTable

	statements [256]func()

	cascadeIf   bool
	makeArray   bool              // auto-create arrays in get_lvalue (LOCAL, formals)
	libPrologue *symbols.Library // owner for variables created by library prologue DIMs
	printCount int32
	rndState   uint32
}

// New builds an interpreter over a fresh workspace.
func New(ws *workspace.Workspace, h host.Host, out io.Writer) *Interp {
	ip := &Interp{
		WS:        ws,
		Syms:      symbols.NewTable(ws),
		St:        stack.New(ws),
		Host:      h,
		Out:       out,
		datacur:   -1,
		cascadeIf: true,
		rndState:  0x5a4d7e30,
	}
	ip.St.OnError = func(b stack.ErrorBlock) { ip.handler = b }
	ip.St.OnData = func(c int32) { ip.datacur = c }
	ip.createTable()
	return ip
}

// SetCascadeIf controls the cascade-IF compatibility tweak.
func (ip *Interp) SetCascadeIf(on bool) {
	ip.cascadeIf = on
}

// createTable fills in the statement dispatch table. Every byte of the
// token stream selects a handler: separators skip, opcodes that can
// never lead a statement trap, everything else executes.
func (ip *Interp) createTable() {
	for n := range ip.statements {
		ip.statements[n] = ip.badToken
	}
	// Literal characters that cannot lead a statement
	for _, ch := range []byte{'+', '-', '*', '/', '(', ')', ',', ';', '\'', '~', '.', '"', '<', '>', '&', '|', '%', '@'} {
		ip.statements[ch] = ip.badSyntax
	}
	for ch := byte('0'); ch <= '9'; ch++ {
		ip.statements[ch] = ip.badSyntax
	}
	ip.statements[tok.EOL] = ip.nextLine
	ip.statements[' '] = ip.skipColon
	ip.statements[tok.Colon] = ip.skipColon
	ip.statements['='] = ip.execFnReturn
	ip.statements['['] = ip.execAssembler
	ip.statements['?'] = ip.execAssign
	ip.statements['!'] = ip.execAssign
	ip.statements['$'] = ip.execAssign

	ip.statements[tok.XVar] = ip.execAssign
	ip.statements[tok.Var] = ip.execAssign
	ip.statements[tok.StaticVar] = ip.execAssign
	// Tokens that are valid mid-statement but can never lead one
	for _, t := range []byte{
		tok.XLineNum, tok.LineNum, tok.IntCon, tok.Int64Con, tok.FloatCon,
		tok.StringCon, tok.Then, tok.To, tok.Step, tok.Of, tok.Off, tok.Proc,
		tok.Fn, tok.Close, tok.Vdu, tok.And, tok.Or, tok.Eor, tok.Not,
		tok.Div, tok.Mod, tok.Le, tok.Ge, tok.Ne, tok.Shl, tok.Shr, tok.Shrl,
		tok.Abs, tok.Asc, tok.ChrStr, tok.ErrTok, tok.Erl, tok.FalseT,
		tok.IntFn, tok.LeftStr, tok.Len, tok.MidStr, tok.Pi, tok.RightSt,
		tok.Rnd, tok.Sgn, tok.Sqr, tok.StrStr, tok.StringS, tok.Time,
		tok.Top, tok.TrueT, tok.Val, tok.Himem,
	} {
		ip.statements[t] = ip.badSyntax
	}
	ip.statements[tok.XFnProcAll] = ip.execXProc
	ip.statements[tok.FnProcAll] = ip.execProc
	ip.statements[tok.OsCmd] = ip.execOsCmd
	ip.statements[tok.BadLine] = ip.flagBadLine

	ip.statements[tok.Call] = ip.execCall
	ip.statements[tok.XCase] = ip.execXCase
	ip.statements[tok.Case] = ip.execCase
	ip.statements[tok.Chain] = ip.execChain
	ip.statements[tok.Clear] = ip.execClear
	ip.statements[tok.Data] = ip.execData
	ip.statements[tok.Def] = ip.execDef
	ip.statements[tok.Dim] = ip.execDim
	ip.statements[tok.End] = ip.execEnd
	ip.statements[tok.EndCase] = ip.execEndIfCase
	ip.statements[tok.EndIf] = ip.execEndIfCase
	ip.statements[tok.EndProc] = ip.execEndProc
	ip.statements[tok.EndWhile] = ip.execEndWhile
	ip.statements[tok.Error] = ip.execError
	ip.statements[tok.For] = ip.execFor
	ip.statements[tok.Gosub] = ip.execGosub
	ip.statements[tok.Goto] = ip.execGoto
	ip.statements[tok.XIf] = ip.execXIf
	ip.statements[tok.BlockIf] = ip.execBlockIf
	ip.statements[tok.SinglIf] = ip.execSinglIf
	ip.statements[tok.XElse] = ip.execXElse
	ip.statements[tok.Else] = ip.execElseWhen
	ip.statements[tok.XLhElse] = ip.execXLhElse
	ip.statements[tok.LhElse] = ip.execElseWhen
	ip.statements[tok.XWhen] = ip.execXWhen
	ip.statements[tok.When] = ip.execElseWhen
	ip.statements[tok.XOtherwise] = ip.execXWhen
	ip.statements[tok.Otherwise] = ip.execElseWhen
	ip.statements[tok.Input] = ip.execInput
	ip.statements[tok.Let] = ip.execLet
	ip.statements[tok.Library] = ip.execLibrary
	ip.statements[tok.Install] = ip.execInstall
	ip.statements[tok.Local] = ip.execLocal
	ip.statements[tok.Next] = ip.execNext
	ip.statements[tok.On] = ip.execOn
	ip.statements[tok.Oscli] = ip.execOscli
	ip.statements[tok.Print] = ip.execPrint
	ip.statements[tok.Quit] = ip.execQuit
	ip.statements[tok.Read] = ip.execRead
	ip.statements[tok.Rem] = ip.execRem
	ip.statements[tok.Repeat] = ip.execRepeat
	ip.statements[tok.Report] = ip.execReport
	ip.statements[tok.Restore] = ip.execRestore
	ip.statements[tok.Return] = ip.execReturn
	ip.statements[tok.Run] = ip.execRun
	ip.statements[tok.Stop] = ip.execStop
	ip.statements[tok.Swap] = ip.execSwap
	ip.statements[tok.Sys] = ip.execSys
	ip.statements[tok.Trace] = ip.execTrace
	ip.statements[tok.Until] = ip.execUntil
	ip.statements[tok.XWhile] = ip.execXWhile
	ip.statements[tok.While] = ip.execWhile
	ip.statements[tok.Wait] = ip.execWait
}

func (ip *Interp) mem() []byte {
	return ip.WS.Mem
}

/* Statement boundary helpers */

func (ip *Interp) isAtEOL(p int32) bool {
	return tok.AtEOL[ip.mem()[p]]
}

// checkAtEOL ensures a statement ends at end of line, ':' or ELSE.
func (ip *Interp) checkAtEOL() {
	if !tok.AtEOL[ip.mem()[ip.current]] {
		errs.Raise(errs.Syntax)
	}
}

func (ip *Interp) skipColon() {
	ip.current++
}

func (ip *Interp) badToken() {
	errs.Raise(errs.Broken)
}

func (ip *Interp) badSyntax() {
	errs.Raise(errs.Syntax)
}

func (ip *Interp) flagBadLine() {
	ip.current++
	errs.Raise(errs.BadProgram)
}

func (ip *Interp) execRem() {
	for ip.mem()[ip.current] != tok.EOL {
		ip.current = tok.SkipToken(ip.mem(), ip.current)
	}
}

// execDef executes like a REM: definitions are skipped in straight-line
// flow.
func (ip *Interp) execDef() {
	ip.execRem()
}

func (ip *Interp) execAssembler() {
	errs.Raise(errs.Unsupported)
}

// nextLine advances to the start of the next line, ending the run when
// the sentinel record is reached.
func (ip *Interp) nextLine() {
	lp := ip.current + 1 // skip NUL, now at start of next line
	if ip.immediate && lp < workspace.ScratchSize {
		panic(stopRun{}) // ran off the end of a command line
	}
	if ip.WS.AtProgEnd(lp) {
		panic(stopRun{})
	}
	if ip.traces.lines {
		ip.traceLine(ip.WS.LineNo(lp))
	}
	ip.thisline = lp
	ip.current = ip.WS.FindExec(lp)
}

// advanceLine moves 'p' past a ':' or onto the first executable token
// of the next line. Common tail of REPEAT, WHILE, FOR and friends.
func (ip *Interp) advanceLine(p int32) int32 {
	if ip.mem()[p] == tok.Colon {
		p++
	}
	if ip.mem()[p] == tok.EOL {
		p++
		if ip.traces.lines {
			ip.traceLine(ip.WS.LineNo(p))
		}
		ip.thisline = p
		p = ip.WS.FindExec(p)
	}
	return p
}

/* Run control */

// Run executes the program from line record lp (-1 for the start).
// It implements the error propagation policy: a global ON ERROR resets
// both stacks and resumes at the handler; an unhandled error ends the
// run. Returns the QUIT code and whether QUIT was used.
func (ip *Interp) Run(lp int32) (int, bool, *errs.Error) {
	ip.prepareRun()
	if lp < 0 {
		lp = ip.WS.Start()
	}
	if ip.WS.AtProgEnd(lp) {
		return 0, false, nil
	}
	ip.thisline = lp
	ip.current = ip.WS.FindExec(lp)
	for {
		res := ip.statementLoop(0)
		switch r := res.(type) {
		case nil:
			return 0, false, nil
		case stopRun:
			ip.endRun()
			return r.code, r.quit, nil
		case runRequest:
			ip.prepareRun()
			start := r.lp
			if start < 0 {
				start = ip.WS.Start()
			}
			if ip.WS.AtProgEnd(start) {
				return 0, false, nil
			}
			ip.thisline = start
			ip.current = ip.WS.FindExec(start)
		case *errs.Error:
			if ip.handler.Set {
				// A local handler at depth 0 resumes with the control
				// stack intact; a global handler resets to the baseline.
				if !ip.handler.Local {
					ip.St.Reset()
					ip.errorIsLocal = false
				}
				ip.St.TruncOps(0)
				ip.current = ip.handler.Current
				continue
			}
			ip.endRun()
			return 0, false, r
		}
	}
}

// prepareRun resets the interpreter to the state RUN expects.
func (ip *Interp) prepareRun() {
	ip.Unpatch()
	ip.Syms.Clear()
	ip.Syms.InitStatics()
	ip.Syms.ClearOffheapArrays()
	ip.WS.ClearLibraries()
	ip.St.Clear()
	ip.handler = stack.ErrorBlock{}
	ip.errorIsLocal = false
	ip.datacur = -1
	ip.outOfData = false
	ip.running = true
	ip.printCount = 0
	ip.St.PushFrame(&stack.OpStackFrame{})
}

// endRun tidies up when a program finishes.
func (ip *Interp) endRun() {
	ip.running = false
	ip.Host.ClearEscape()
	ip.St.Clear()
	ip.depth = 0
	if ip.traceHandle != nil {
		ip.traceHandle.Close()
		ip.traceHandle = nil
	}
}

// statementLoop dispatches statements at nesting 'depth' until a panic
// transfers control. The return value is the recovered transfer: a
// stopRun, runRequest or *errs.Error the caller must act on. Errors
// trapped by an ON ERROR LOCAL installed at this depth resume here
// without unwinding further.
func (ip *Interp) statementLoop(depth int) (res interface{}) {
	savedDepth := ip.depth
	ip.depth = depth
	defer func() { ip.depth = savedDepth }()
	opsBase := ip.St.OpDepth()
	frameBase := ip.St.FrameDepth()
	for {
		caught := ip.dispatchUntilError()
		if caught == nil {
			return nil
		}
		ip.noteError(caught)
		if e, ok := caught.(*errs.Error); ok && ip.handler.Set && ip.handler.Local && ip.handler.Depth == depth {
			// ON ERROR LOCAL re-entry: resume at the handler without
			// destroying frames pushed above it.
			_ = e
			ip.St.TruncOps(opsBase)
			if ip.St.FrameDepth() < frameBase {
				errs.Raise(errs.Broken)
			}
			ip.current = ip.handler.Current
			continue
		}
		if depth == 0 {
			return caught
		}
		panic(caught)
	}
}

// dispatchUntilError runs the dispatch loop, translating panics into a
// recovered value. Only interpreter transfers are caught.
func (ip *Interp) dispatchUntilError() (caught interface{}) {
	defer func() {
		if r := recover(); r != nil {
			switch r.(type) {
			case *errs.Error, stopRun, runRequest:
				caught = r
			default:
				panic(r)
			}
		}
	}()
	for {
		if ip.Host.EscapePoll() {
			errs.Raise(errs.Escape)
		}
		ip.statements[ip.mem()[ip.current]]()
	}
}

// noteError records the most recent error for REPORT and ERR.
func (ip *Interp) noteError(caught interface{}) {
	e, ok := caught.(*errs.Error)
	if !ok {
		return
	}
	if lp := ip.WS.FindLineStart(ip.current); lp >= 0 {
		e.Line = ip.WS.LineNo(lp)
	}
	ip.lastError = e
	ip.erl = e.Line
}

// execFnStatements runs a function body until its '=' statement has
// been executed. Expression evaluation re-enters the dispatcher here,
// one loop deeper, so that ON ERROR LOCAL inside the function can
// resume without abandoning the caller's half-built expression.
func (ip *Interp) execFnStatements(lp int32) {
	ip.current = lp
	depth := ip.depth + 1
	savedDepth := ip.depth
	ip.depth = depth
	defer func() { ip.depth = savedDepth }()
	opsBase := ip.St.OpDepth()
	for {
		finished, caught := ip.fnBody()
		if finished {
			return
		}
		ip.noteError(caught)
		if e, ok := caught.(*errs.Error); ok && ip.handler.Set && ip.handler.Local && ip.handler.Depth == depth {
			_ = e
			ip.St.TruncOps(opsBase)
			ip.current = ip.handler.Current
			continue
		}
		panic(caught)
	}
}

func (ip *Interp) fnBody() (finished bool, caught interface{}) {
	defer func() {
		if r := recover(); r != nil {
			switch r.(type) {
			case *errs.Error:
				caught = r
			default:
				panic(r)
			}
		}
	}()
	for {
		t := ip.mem()[ip.current]
		ip.statements[t]()
		if t == '=' {
			return true, nil
		}
	}
}

/* Trace output */

func (ip *Interp) traceText(text string) {
	if ip.traceHandle != nil {
		io.WriteString(ip.traceHandle, text)
		return
	}
	io.WriteString(ip.Out, text)
}

func (ip *Interp) traceLine(lineno int32) {
	ip.traceText(fmt.Sprintf("[%d]", lineno))
}

func (ip *Interp) traceProc(name string, entering bool) {
	what := "FN"
	if name != "" && name[0] == tok.Proc {
		what = "PROC"
	}
	if entering {
		ip.traceText(fmt.Sprintf("==>%s%s ", what, symbols.ProcName(name)))
	} else {
		ip.traceText(fmt.Sprintf("%s%s--> ", what, symbols.ProcName(name)))
	}
}

func (ip *Interp) traceBranch(from, to int32) {
	fromLine := ip.WS.FindLineStart(from)
	toLine := ip.WS.FindLineStart(to)
	if fromLine < 0 || toLine < 0 {
		return
	}
	ip.traceText(fmt.Sprintf("[%d->%d]", ip.WS.LineNo(fromLine), ip.WS.LineNo(toLine)))
}

/* Patching support */

// Unpatch rewrites every resolved token back to its unresolved form so
// that a program can be edited or re-run with a fresh symbol table.
func (ip *Interp) Unpatch() {
	ws := ip.WS
	lp := ws.Start()
	for lp < ws.LibTop {
		if ws.AtProgEnd(lp) {
			lp += ws.LineLen(lp)
			continue
		}
		p := ws.FindExec(lp)
		for ws.Mem[p] != tok.EOL {
			switch ws.Mem[p] {
			case tok.Var:
				ref := ip.vars[tok.Get32(ws.Mem, p+1)]
				ws.Mem[p] = tok.XVar
				tok.Put32(ws.Mem, p+1, p-ref.src)
			case tok.FnProcAll:
				ref := ip.vars[tok.Get32(ws.Mem, p+1)]
				ws.Mem[p] = tok.XFnProcAll
				tok.Put32(ws.Mem, p+1, p-ref.src)
			case tok.LineNum:
				ref := ip.lineRefs[tok.Get32(ws.Mem, p+1)]
				ws.Mem[p] = tok.XLineNum
				tok.Put32(ws.Mem, p+1, ref.lineno)
			case tok.Case:
				ws.Mem[p] = tok.XCase
				tok.Put32(ws.Mem, p+1, 0)
			case tok.BlockIf, tok.SinglIf:
				ws.Mem[p] = tok.XIf
			case tok.Else:
				ws.Mem[p] = tok.XElse
			case tok.LhElse:
				ws.Mem[p] = tok.XLhElse
			case tok.When:
				ws.Mem[p] = tok.XWhen
			case tok.Otherwise:
				ws.Mem[p] = tok.XOtherwise
			case tok.While:
				ws.Mem[p] = tok.XWhile
			}
			p = tok.SkipToken(ws.Mem, p)
		}
		lp += ws.LineLen(lp)
	}
	ip.vars = ip.vars[:0]
	ip.lineRefs = ip.lineRefs[:0]
	ip.caseTables = ip.caseTables[:0]
}

// addVarRef registers a resolved variable reference and returns the
// operand to bake into the token stream.
func (ip *Interp) addVarRef(vp *symbols.Variable, src int32) int32 {
	ip.vars = append(ip.vars, varRef{vp: vp, src: src})
	return int32(len(ip.vars) - 1)
}

// setLineDest resolves an XLINENUM token, filling in the address of the
// first executable token of the destination line.
func (ip *Interp) setLineDest(p int32) int32 {
	mem := ip.mem()
	line := tok.Get32(mem, p+1)
	lp := ip.WS.FindLine(line)
	if ip.WS.LineNo(lp) != line {
		errs.Raise(errs.LineMiss, line)
	}
	dest := ip.WS.FindExec(lp)
	mem[p] = tok.LineNum
	ip.lineRefs = append(ip.lineRefs, lineRef{dest: dest, lineno: line})
	tok.Put32(mem, p+1, int32(len(ip.lineRefs)-1))
	return dest
}

// lineDest reads a resolved LINENUM operand.
func (ip *Interp) lineDest(p int32) int32 {
	return ip.lineRefs[tok.Get32(ip.mem(), p+1)].dest
}

/* Program loading */

// LoadProgram tokenises program text into the workspace. Lines without
// numbers are numbered automatically.
func (ip *Interp) LoadProgram(text string) error {
	ip.vars = ip.vars[:0]
	ip.lineRefs = ip.lineRefs[:0]
	ip.caseTables = ip.caseTables[:0]
	records, err := tokenizeText(text)
	if err != nil {
		return err
	}
	if !ip.WS.SetProgram(records) {
		return fmt.Errorf("program is too large for the workspace")
	}
	ip.Syms.Installed = nil
	ip.Syms.Clear()
	return nil
}

// LoadLibrary tokenises a library image and appends it after the
// program. 'installed' selects the INSTALL list.
func (ip *Interp) LoadLibrary(name, text string, installed bool) error {
	records, err := tokenizeText(text)
	if err != nil {
		return err
	}
	start := ip.WS.AddLibrary(records, installed)
	if start < 0 {
		return fmt.Errorf("library %s does not fit in the workspace", name)
	}
	lib := &symbols.Library{Name: name, Start: start, End: ip.WS.LibTop}
	if installed {
		ip.Syms.Installed = append(ip.Syms.Installed, lib)
	} else {
		ip.Syms.Libraries = append(ip.Syms.Libraries, lib)
	}
	return nil
}

func tokenizeText(text string) ([][]byte, error) {
	var records [][]byte
	auto := int32(10)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		trimmed := strings.TrimLeft(line, " ")
		lineno := int32(-1)
		n := 0
		for n < len(trimmed) && trimmed[n] >= '0' && trimmed[n] <= '9' {
			n++
		}
		if n > 0 {
			v, err := strconv.Atoi(trimmed[:n])
			if err != nil || v > tok.MaxLineNo {
				return nil, fmt.Errorf("bad line number in %q", line)
			}
			lineno = int32(v)
			trimmed = strings.TrimLeft(trimmed[n:], " ")
		} else {
			lineno = auto
		}
		if lineno >= auto {
			auto = lineno + 10
		}
		records = append(records, tok.Tokenize(trimmed, lineno))
	}
	return records, nil
}

// EditLine inserts, replaces or deletes one numbered line.
func (ip *Interp) EditLine(lineno int32, text string) error {
	ip.Unpatch()
	ip.Syms.Clear()
	record := tok.Tokenize(text, lineno)
	if !ip.WS.InsertLine(record) {
		return fmt.Errorf("program is too large for the workspace")
	}
	return nil
}

// ListProgram returns the detokenised program text.
func (ip *Interp) ListProgram() []string {
	var lines []string
	lp := ip.WS.Start()
	for !ip.WS.AtProgEnd(lp) {
		end := lp + ip.WS.LineLen(lp)
		lines = append(lines, tok.List(ip.WS.Mem[lp:end]))
		lp = end
	}
	return lines
}

// Immediate tokenises and executes one command-line statement.
func (ip *Interp) Immediate(text string) (int, bool, *errs.Error) {
	record := tok.Tokenize(text, int32(tok.NoLine))
	if tok.Get16(record, tok.ExecField)+1 == int32(len(record)) {
		return 0, false, nil // nothing to do
	}
	off := ip.WS.WriteScratch(record, 0)
	ip.immediate = true
	defer func() { ip.immediate = false }()
	ip.thisline = off
	ip.current = ip.WS.FindExec(off)
	ip.St.Clear()
	ip.St.PushFrame(&stack.OpStackFrame{})
	ip.datacur = -1
	ip.outOfData = false
	res := ip.statementLoop(0)
	switch r := res.(type) {
	case nil, stopRun:
		if s, ok := r.(stopRun); ok && s.quit {
			return s.code, true, nil
		}
		return 0, false, nil
	case runRequest:
		ip.immediate = false
		return ip.Run(r.lp)
	case *errs.Error:
		return 0, false, r
	}
	return 0, false, nil
}

// LastError returns the most recent error, never nil.
func (ip *Interp) LastError() *errs.Error {
	if ip.lastError == nil {
		return errs.New(errs.None)
	}
	return ip.lastError
}
