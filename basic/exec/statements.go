package exec

/*
 * BasicV - Miscellaneous statements
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
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/rcornwell/BasicV/basic/errs"
	"github.com/rcornwell/BasicV/basic/host"
	"github.com/rcornwell/BasicV/basic/stack"
	"github.com/rcornwell/BasicV/basic/symbols"
	tok "github.com/rcornwell/BasicV/basic/token"
	"github.com/rcornwell/BasicV/basic/value"
)

// execEnd finishes the program. The END=<value> form of the original
// hardware is recognised but has no effect here.
func (ip *Interp) execEnd() {
	ip.current++
	if ip.mem()[ip.current] == '=' {
		ip.current++
		ip.expression()
		ip.checkAtEOL()
		ip.St.PopAnyNum32()
		return
	}
	ip.checkAtEOL()
	panic(stopRun{})
}

func (ip *Interp) execStop() {
	ip.current++
	ip.checkAtEOL()
	errs.Raise(errs.Stop)
}

// execQuit leaves the interpreter, optionally with a return code.
func (ip *Interp) execQuit() {
	ip.current++
	code := 0
	if !ip.isAtEOL(ip.current) {
		code = int(ip.evalInteger())
		ip.checkAtEOL()
	}
	panic(stopRun{quit: true, code: code})
}

// execClear throws away every variable; CLEAR HIMEM releases the
// off-heap allocations instead.
func (ip *Interp) execClear() {
	ip.current++
	if ip.mem()[ip.current] == tok.Himem {
		ip.current++
		ip.execClearHimem()
		return
	}
	ip.checkAtEOL()
	ip.Syms.ClearOffheapArrays()
	ip.Unpatch()
	ip.Syms.Clear()
	ip.WS.ClearLibraries()
	ip.St.Clear()
	ip.St.PushFrame(&stack.OpStackFrame{})
}

// execClearHimem frees one named off-heap array, or all of them.
func (ip *Interp) execClearHimem() {
	if ip.isAtEOL(ip.current) {
		ip.Syms.ClearOffheapArrays()
		return
	}
	lv := ip.getLvalue(false)
	ip.checkAtEOL()
	if lv.Ref != symbols.RefArray || lv.Var.Array == nil || !lv.Var.Array.OffHeap {
		errs.Raise(errs.TypeArray)
	}
	lv.Var.Array = nil
}

// execError raises a user-defined error: ERROR <number>,<text>.
func (ip *Interp) execError() {
	ip.current++
	number := ip.evalInteger()
	if ip.mem()[ip.current] != ',' {
		errs.Raise(errs.CoMiss)
	}
	ip.current++
	text := ip.evalString()
	ip.checkAtEOL()
	errs.RaiseUser(number, text)
}

// execReport prints the text of the most recent error.
func (ip *Interp) execReport() {
	ip.current++
	ip.checkAtEOL()
	ip.write("\n")
	text := ip.LastError().Message()
	ip.write(text)
	ip.printCount += int32(len(text))
}

// execWait idles: plain WAIT pauses briefly, WAIT <n> for n
// centiseconds.
func (ip *Interp) execWait() {
	ip.current++
	if ip.isAtEOL(ip.current) {
		ip.Host.Wait()
		return
	}
	delay := ip.evalInteger()
	ip.checkAtEOL()
	ip.Host.WaitDelay(delay)
}

// execCall would transfer control to machine code; this interpreter
// has none to offer.
func (ip *Interp) execCall() {
	ip.current++
	address := ip.evalInteger()
	ip.checkAtEOL()
	if err := ip.Host.CallNative(int64(address), nil); err != nil {
		errs.Raise(errs.Unsupported)
	}
}

// execOsCmd passes a '*' command to the host.
func (ip *Interp) execOsCmd() {
	mem := ip.mem()
	src := ip.current - tok.Get16(mem, ip.current+1)
	end := src
	for mem[end] != tok.EOL {
		end++
	}
	ip.Host.OSCli(strings.TrimSpace(string(mem[src:end])), false)
	ip.current += 1 + tok.SizeSize
}

// execOscli runs an OS command given by an expression. The TO form
// captures the command output into a string array, with an optional
// count of lines read.
func (ip *Interp) execOscli() {
	mem := ip.mem()
	ip.current++
	ip.expression()
	toFile := mem[ip.current] == tok.To
	var response, linecount symbols.Lvalue
	haveCount := false
	if toFile {
		ip.current++
		response = ip.getLvalue(false)
		if response.Ref != symbols.RefArray || response.Var.Kind != symbols.String {
			errs.Raise(errs.StrArray)
		}
		if mem[ip.current] == ',' {
			ip.current++
			linecount = ip.getLvalue(true)
			haveCount = true
		}
	}
	ip.checkAtEOL()
	command := asString(ip.St.PopValue())
	if !toFile {
		ip.Host.OSCli(command, false)
		return
	}
	path, err := ip.Host.OSCli(command, true)
	if err != nil {
		errs.Raise(errs.OscliFail, err.Error())
	}
	file, err := os.Open(path)
	if err != nil {
		errs.Raise(errs.OscliFail, err.Error())
	}
	ap := response.Var.Array
	if ap == nil {
		errs.Raise(errs.StrArray)
	}
	for n := range ap.Strs {
		ap.Strs[n] = ""
	}
	count := int32(0)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() && count+1 < ap.Size {
		line := strings.TrimRight(scanner.Text(), "\r\n ")
		count++
		ap.Strs[count] = line
	}
	file.Close()
	os.Remove(path)
	if haveCount {
		ip.St.Store(linecount, stack.Value{Kind: value.Int32, Int: int64(count)})
	}
}

// readFileText loads a text file for RUN, CHAIN, LIBRARY and INSTALL.
func readFileText(name string) string {
	data, err := os.ReadFile(name)
	if err != nil {
		errs.Raise(errs.FileMiss, name)
	}
	return string(data)
}

// execChain loads a new program and runs it.
func (ip *Interp) execChain() {
	ip.current++
	name := ip.evalString()
	ip.checkAtEOL()
	if err := ip.LoadProgram(readFileText(name)); err != nil {
		errs.Raise(errs.StackFull)
	}
	panic(runRequest{lp: -1})
}

// execRun restarts the program, optionally at a line or from a file.
func (ip *Interp) execRun() {
	ip.current++
	if ip.isAtEOL(ip.current) {
		panic(runRequest{lp: -1})
	}
	ip.expression()
	v := ip.St.PopValue()
	switch {
	case v.Kind.IsNumeric():
		line := int32(asInt(v))
		if line < 0 || line > tok.MaxLineNo {
			errs.Raise(errs.LineNo)
		}
		lp := ip.WS.FindLine(line)
		if ip.WS.LineNo(lp) != line {
			errs.Raise(errs.LineMiss, line)
		}
		panic(runRequest{lp: lp})
	case v.Kind.IsString():
		ip.checkAtEOL()
		if err := ip.LoadProgram(readFileText(v.Str)); err != nil {
			errs.Raise(errs.StackFull)
		}
		panic(runRequest{lp: -1})
	}
	errs.Raise(errs.BadOper)
}

// execLibrary loads one or more libraries onto the heap.
func (ip *Interp) execLibrary() {
	ip.current++
	if ip.mem()[ip.current] == tok.Local {
		// LIBRARY LOCAL is only meaningful inside a library prologue,
		// where the symbol scanner picks it up
		errs.Raise(errs.NoLibLoc)
	}
	for {
		name := ip.evalString()
		if name != "" {
			if err := ip.LoadLibrary(name, readFileText(name), false); err != nil {
				errs.Raise(errs.StackFull)
			}
		}
		if ip.mem()[ip.current] != ',' {
			break
		}
		ip.current++
	}
	ip.checkAtEOL()
}

// execInstall loads a permanent library.
func (ip *Interp) execInstall() {
	ip.current++
	for {
		name := ip.evalString()
		if name != "" {
			if err := ip.LoadLibrary(name, readFileText(name), true); err != nil {
				errs.Raise(errs.StackFull)
			}
		}
		if ip.mem()[ip.current] != ',' {
			break
		}
		ip.current++
	}
	ip.checkAtEOL()
}

// execTrace handles the TRACE statement forms.
func (ip *Interp) execTrace() {
	mem := ip.mem()
	ip.current++
	switch {
	case mem[ip.current] == tok.On:
		ip.traces.enabled = true
		ip.traces.lines = true
	case mem[ip.current] == tok.Vdu:
		if mem[ip.current+1] == tok.Off {
			ip.current++
			ip.traces.console = false
		} else {
			ip.traces.console = true
		}
	case mem[ip.current] == tok.Off:
		ip.traces = traceFlags{}
	case mem[ip.current] == tok.To:
		ip.current++
		name := ip.evalString()
		ip.checkAtEOL()
		handle, err := ip.Host.OpenOut(name)
		if err != nil {
			errs.Raise(errs.BadTrace)
		}
		ip.traceHandle = handle
		return
	case mem[ip.current] == tok.Close:
		if ip.traceHandle != nil {
			ip.traceHandle.Close()
			ip.traceHandle = nil
		}
	case ip.isAtEOL(ip.current):
		errs.Raise(errs.BadTrace)
	default:
		option := mem[ip.current+1]
		if !tok.AtEOL[option] && option != tok.On && option != tok.Off {
			errs.Raise(errs.BadTrace)
		}
		yes := option != tok.Off
		switch mem[ip.current] {
		case tok.Proc, tok.Fn:
			ip.traces.procs = yes
		case tok.Goto:
			ip.traces.branches = yes
		case tok.Step:
			ip.traces.pause = yes
		case tok.Return:
			ip.traces.backtrace = yes
		default:
			errs.Raise(errs.BadTrace)
		}
		ip.traces.enabled = ip.traces.procs || ip.traces.branches
		if !tok.AtEOL[option] {
			ip.current++
		}
	}
	ip.current++
	ip.checkAtEOL()
}

// execSys gathers the parameters for a SWI call, makes it through the
// host gateway and stores any returned values.
func (ip *Interp) execSys() {
	mem := ip.mem()
	ip.current++
	ip.expression()
	var swino int64
	v := ip.St.PopValue()
	switch {
	case v.Kind.IsNumeric():
		swino = asInt(v)
	case v.Kind.IsString():
		n, ok := ip.Host.SysNum(v.Str)
		if !ok {
			errs.Raise(errs.BadOper)
		}
		swino = n
	default:
		errs.Raise(errs.TypeNum)
	}
	var in [host.MaxSysParms]int64
	var strs [host.MaxSysParms]string
	count := 0
	if mem[ip.current] == ',' {
		ip.current++
	}
	for !ip.isAtEOL(ip.current) && mem[ip.current] != tok.To {
		if count >= host.MaxSysParms {
			errs.Raise(errs.SysCount)
		}
		if mem[ip.current] != ',' {
			ip.expression()
			p := ip.St.PopValue()
			switch {
			case p.Kind.IsNumeric():
				in[count] = asInt(p)
			case p.Kind.IsString():
				strs[count] = p.Str
			default:
				errs.Raise(errs.VarNumStr)
			}
		}
		count++
		if mem[ip.current] == ',' {
			ip.current++
		} else if !ip.isAtEOL(ip.current) && mem[ip.current] != tok.To {
			errs.Raise(errs.Syntax)
		}
	}
	out, flags, err := ip.Host.Sys(swino, in[:count], strs[:count])
	if err != nil {
		errs.Raise(errs.BadOper)
	}
	if ip.isAtEOL(ip.current) {
		return
	}
	ip.current++ // skip TO
	n := 0
	for !ip.isAtEOL(ip.current) && mem[ip.current] != ';' {
		if n >= host.MaxSysParms {
			errs.Raise(errs.SysCount)
		}
		if mem[ip.current] != ',' {
			dest := ip.getLvalue(true)
			ip.St.Store(dest, stack.Value{Kind: value.Int64, Int: out[n]})
		}
		n++
		if mem[ip.current] == ',' {
			ip.current++
		} else if !ip.isAtEOL(ip.current) && mem[ip.current] != ';' {
			errs.Raise(errs.Syntax)
		}
	}
	if mem[ip.current] == ';' {
		ip.current++
		dest := ip.getLvalue(true)
		ip.St.Store(dest, stack.Value{Kind: value.Int64, Int: flags})
	}
	ip.checkAtEOL()
}

// write sends text to the VDU stream.
func (ip *Interp) write(text string) {
	io.WriteString(ip.Out, text)
}
