package exec

/*
 * BasicV - Loops and branches
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
	tok "github.com/rcornwell/BasicV/basic/token"
	"github.com/rcornwell/BasicV/basic/value"
)

/* FOR / NEXT */

// execFor sets up a FOR loop: assign the control variable its initial
// value, then push the loop frame with limit and step. Everything else
// happens at NEXT.
func (ip *Interp) execFor() {
	mem := ip.mem()
	ip.current++
	forvar := ip.getLvalue(true)
	if forvar.Ref == symbols.RefArray {
		errs.Raise(errs.VarNum)
	}
	var kind stack.Item
	switch forvar.Kind() {
	case symbols.Int32, symbols.Uint8:
		kind = stack.IntForItem
	case symbols.Int64:
		kind = stack.Int64ForItem
	case symbols.Float:
		kind = stack.FloatForItem
	default:
		errs.Raise(errs.VarNum)
	}
	if mem[ip.current] != '=' {
		errs.Raise(errs.EqMiss)
	}
	ip.current++
	ip.expression()
	if mem[ip.current] != tok.To {
		errs.Raise(errs.ToMiss)
	}
	ip.current++
	ip.St.Store(forvar, ip.St.PopValue())

	frame := &stack.ForFrame{Kind: kind, Var: forvar}
	ip.expression()
	if kind == stack.FloatForItem {
		frame.FltLimit = ip.St.PopAnyNumFP()
		frame.FltStep = 1
	} else {
		frame.IntLimit = ip.St.PopAnyNum64()
		frame.IntStep = 1
	}
	if mem[ip.current] == tok.Step {
		ip.current++
		ip.expression()
		if kind == stack.FloatForItem {
			frame.FltStep = ip.St.PopAnyNumFP()
			if frame.FltStep == 0 {
				errs.Raise(errs.Silly)
			}
		} else {
			frame.IntStep = ip.St.PopAnyNum64()
			if frame.IntStep == 0 {
				errs.Raise(errs.Silly)
			}
		}
	}
	ip.checkAtEOL()
	ip.current = ip.advanceLine(ip.current)
	frame.Body = ip.current
	frame.Simple = kind == stack.IntForItem && frame.IntStep == 1 &&
		forvar.Ref == symbols.RefScalar && forvar.Var.Kind == symbols.Int32
	ip.St.PushFrame(frame)
}

func (ip *Interp) findFor() *stack.ForFrame {
	fp := ip.St.GetFor()
	if fp == nil {
		errs.Raise(errs.NotFor)
	}
	return fp
}

// execNext increments the control variable of the innermost FOR loop
// (or the one named) and branches back while the limit is not passed.
func (ip *Interp) execNext() {
	if ip.Host.EscapePoll() {
		errs.Raise(errs.Escape)
	}
	mem := ip.mem()
	for {
		fp := ip.findFor()
		ip.current++ // skip NEXT or ','
		if !ip.isAtEOL(ip.current) && mem[ip.current] != ',' {
			nextvar := ip.getLvalue(false)
			for !nextvar.Same(fp.Var) {
				// The top FOR belongs to an inner loop: pop until the
				// frame matching the NEXT variable appears
				ip.St.PopFrame()
				fp = ip.findFor()
			}
		}
		contloop := false
		if fp.Simple {
			fp.Var.Var.Integer++
			if int64(fp.Var.Var.Integer) <= fp.IntLimit {
				if ip.traces.branches {
					ip.traceBranch(ip.current, fp.Body)
				}
				ip.current = fp.Body
				return
			}
		} else {
			switch fp.Kind {
			case stack.IntForItem, stack.Int64ForItem:
				v := asInt(ip.St.Load(fp.Var)) + fp.IntStep
				ip.St.Store(fp.Var, intValue(v))
				if fp.IntStep > 0 {
					contloop = v <= fp.IntLimit
				} else {
					contloop = v >= fp.IntLimit
				}
			case stack.FloatForItem:
				v := asFloat(ip.St.Load(fp.Var)) + fp.FltStep
				ip.St.Store(fp.Var, floatValue(v))
				if fp.FltStep > 0 {
					contloop = v <= fp.FltLimit
				} else {
					contloop = v >= fp.FltLimit
				}
			}
		}
		if contloop {
			if ip.traces.branches {
				ip.traceBranch(ip.current, fp.Body)
			}
			ip.current = fp.Body
			return
		}
		ip.St.PopFrame() // loop finished
		if mem[ip.current] != ',' {
			break
		}
	}
	ip.checkAtEOL()
}

/* REPEAT / UNTIL */

// execRepeat records the start of the loop body.
func (ip *Interp) execRepeat() {
	ip.current++
	ip.current = ip.advanceLine(ip.current)
	ip.St.PushFrame(&stack.RepeatFrame{Body: ip.current})
}

// execUntil evaluates the condition and loops while it is false.
func (ip *Interp) execUntil() {
	var rp *stack.RepeatFrame
	if f, ok := ip.St.TopFrame().(*stack.RepeatFrame); ok {
		rp = f
	} else {
		rp = ip.St.GetRepeat()
	}
	if rp == nil {
		errs.Raise(errs.NotRepeat)
	}
	if ip.Host.EscapePoll() {
		errs.Raise(errs.Escape)
	}
	here := ip.current
	ip.current++
	ip.expression()
	if ip.St.PopAnyNum64() == value.False {
		if ip.traces.branches {
			ip.traceBranch(here, rp.Body)
		}
		ip.current = rp.Body
	} else {
		ip.St.PopFrame()
		ip.checkAtEOL()
	}
}

/* WHILE / ENDWHILE */

// execXWhile is the first execution of a WHILE: the branch target used
// when the condition is false is found and filled in, then the loop is
// entered or skipped.
func (ip *Interp) execXWhile() {
	ip.execWhileCommon(false)
}

// execWhile runs a WHILE whose skip destination is already resolved.
func (ip *Interp) execWhile() {
	ip.execWhileCommon(true)
}

func (ip *Interp) execWhileCommon(resolved bool) {
	mem := ip.mem()
	here := ip.current
	ip.current += 1 + tok.OffSize
	expr := ip.current
	ip.expression()
	if ip.St.PopAnyNum64() != value.False {
		ip.current = ip.advanceLine(ip.current)
		ip.St.PushFrame(&stack.WhileFrame{Expr: expr, Body: ip.current})
		return
	}
	if resolved {
		dest := here + 1 + tok.Get16(mem, here+1)
		if ip.traces.branches {
			ip.traceBranch(here, dest)
		}
		ip.jumpTo(dest)
		return
	}
	// Look for the matching ENDWHILE, counting nested loops
	depth := 1
	for depth > 0 {
		if mem[ip.current] == tok.EOL {
			ip.current++
			if ip.WS.AtProgEnd(ip.current) {
				errs.Raise(errs.EndWhile)
			}
			ip.thisline = ip.current
			ip.current = ip.WS.FindExec(ip.current)
		}
		switch mem[ip.current] {
		case tok.EndWhile:
			depth--
		case tok.While, tok.XWhile:
			depth++
		}
		if depth > 0 {
			ip.current = tok.SkipToken(mem, ip.current)
		}
	}
	ip.current++ // skip the ENDWHILE token
	ip.current = ip.advanceLine(ip.current)
	tok.Put16(mem, here+1, ip.current-here-1)
	mem[here] = tok.While
	if ip.traces.branches {
		ip.traceBranch(here, ip.current)
	}
}

// execEndWhile re-evaluates the loop condition and branches back while
// it holds. An inner loop left unterminated is discarded on the way to
// the WHILE frame, matching the informal nesting the language allows.
func (ip *Interp) execEndWhile() {
	tp := ip.current + 1
	if !ip.isAtEOL(tp) {
		errs.Raise(errs.Syntax)
	}
	var wp *stack.WhileFrame
	if f, ok := ip.St.TopFrame().(*stack.WhileFrame); ok {
		wp = f
	} else {
		wp = ip.St.GetWhile()
	}
	if wp == nil {
		errs.Raise(errs.NotWhile)
	}
	if ip.Host.EscapePoll() {
		errs.Raise(errs.Escape)
	}
	ip.current = wp.Expr
	ip.expression()
	if ip.St.PopAnyNum64() != value.False {
		if ip.traces.branches {
			ip.traceBranch(tp, wp.Body)
		}
		ip.current = wp.Body
	} else {
		ip.St.PopFrame()
		ip.current = ip.advanceLine(tp)
	}
}

/* GOTO / GOSUB / RETURN */

// branchDest reads a line target: a resolved or unresolved line number
// token, or a computed expression.
func (ip *Interp) branchDest() int32 {
	mem := ip.mem()
	switch mem[ip.current] {
	case tok.LineNum:
		dest := ip.lineDest(ip.current)
		ip.current += 1 + tok.LOffSize
		return dest
	case tok.XLineNum:
		dest := ip.setLineDest(ip.current)
		ip.current += 1 + tok.LOffSize
		return dest
	}
	line := ip.evalInteger()
	if line < 0 || line > tok.MaxLineNo {
		errs.Raise(errs.LineNo)
	}
	lp := ip.WS.FindLine(line)
	if ip.WS.LineNo(lp) != line {
		errs.Raise(errs.LineMiss, line)
	}
	return ip.WS.FindExec(lp)
}

func (ip *Interp) execGoto() {
	if ip.Host.EscapePoll() {
		errs.Raise(errs.Escape)
	}
	ip.current++
	dest := ip.branchDest()
	ip.checkAtEOL()
	if ip.traces.branches {
		ip.traceBranch(ip.current, dest)
	}
	ip.jumpTo(dest)
}

func (ip *Interp) execGosub() {
	if ip.Host.EscapePoll() {
		errs.Raise(errs.Escape)
	}
	ip.current++
	dest := ip.branchDest()
	ip.checkAtEOL()
	ip.St.PushFrame(&stack.GosubFrame{Ret: ip.current})
	if ip.traces.branches {
		ip.traceBranch(ip.current, dest)
	}
	ip.jumpTo(dest)
}

// jumpTo transfers control to an executable token, keeping the current
// line in step for source-offset operands.
func (ip *Interp) jumpTo(dest int32) {
	if lp := ip.WS.FindLineStart(dest); lp >= 0 {
		ip.thisline = lp
	}
	ip.current = dest
}

func (ip *Interp) execReturn() {
	ip.current++
	ip.checkAtEOL()
	if ip.St.GosubDepth == 0 {
		errs.Raise(errs.ReturnErr)
	}
	if top := ip.St.TopFrame(); top == nil || top.Tag() != stack.GosubItem {
		ip.St.EmptyStack(stack.GosubItem)
	}
	top := ip.St.TopFrame()
	if top == nil || top.Tag() != stack.GosubItem {
		errs.Raise(errs.ReturnErr)
	}
	f := ip.St.PopFrame().(*stack.GosubFrame)
	if ip.traces.branches {
		ip.traceBranch(ip.current, f.Ret)
	}
	ip.jumpTo(f.Ret)
}

/* ON */

// execOnError handles the ON ERROR family.
func (ip *Interp) execOnError() {
	ip.current++ // skip ERROR
	mem := ip.mem()
	switch mem[ip.current] {
	case tok.Off:
		ip.handler = stack.ErrorBlock{}
		ip.errorIsLocal = false
		ip.current++
		ip.checkAtEOL()
	case tok.Local:
		ip.current++
		ip.St.PushFrame(&stack.ErrorFrame{Handler: ip.handler})
		ip.St.PushFrame(&stack.RestartFrame{Depth: ip.depth})
		ip.handler = stack.ErrorBlock{Current: ip.current, Local: true, Depth: ip.depth, Set: true}
		ip.errorIsLocal = true
		for mem[ip.current] != tok.EOL {
			ip.current = tok.SkipToken(mem, ip.current)
		}
	default:
		if ip.errorIsLocal {
			ip.St.PushFrame(&stack.ErrorFrame{Handler: ip.handler})
			ip.handler = stack.ErrorBlock{Current: ip.current, Local: true, Depth: ip.depth, Set: true}
		} else {
			ip.handler = stack.ErrorBlock{Current: ip.current, Set: true}
		}
		for mem[ip.current] != tok.EOL {
			ip.current = tok.SkipToken(mem, ip.current)
		}
	}
}

// findElse locates the ELSE clause of an ON statement; without one the
// index is out of range.
func (ip *Interp) findElse(tp int32, index int32) {
	mem := ip.mem()
	for !tok.AtEOL[mem[tp]] {
		tp = tok.SkipToken(mem, tp)
	}
	if mem[tp] == tok.XElse || mem[tp] == tok.Else {
		if ip.traces.branches {
			ip.traceBranch(ip.current, tp)
		}
		ip.current = tp + 1 + tok.OffSize
	} else {
		errs.Raise(errs.OnRange, index)
	}
}

// findOnEntry walks to the wanted comma-separated entry of an ON
// statement, balancing any parenthesised expressions on the way.
func (ip *Interp) findOnEntry(tp int32, wanted int32) int32 {
	mem := ip.mem()
	count := int32(1)
	brackets := 0
	for {
		for mem[tp] != tok.Colon && mem[tp] != tok.EOL &&
			mem[tp] != tok.XElse && mem[tp] != tok.Else &&
			(mem[tp] != ',' || brackets != 0) {
			tp = tok.SkipToken(mem, tp)
			if mem[tp] == '(' {
				brackets++
			} else if mem[tp] == ')' {
				brackets--
			}
		}
		if mem[tp] == tok.XElse || mem[tp] == tok.Else {
			break
		}
		if tok.AtEOL[mem[tp]] {
			errs.Raise(errs.OnRange, wanted)
		}
		count++
		if count == wanted {
			break
		}
		if mem[tp] != ',' {
			errs.Raise(errs.CoMiss)
		}
		tp++
	}
	if mem[tp] == ',' {
		tp++
	}
	return tp
}

// execOnBranch handles ON...GOTO, ON...GOSUB and ON...PROC.
func (ip *Interp) execOnBranch() {
	mem := ip.mem()
	index := ip.evalInteger()
	if index < 1 {
		ip.findElse(ip.current, index)
		return
	}
	onwhat := mem[ip.current]
	switch onwhat {
	case tok.Goto, tok.Gosub:
		ip.current++
		if index > 1 {
			ip.current = ip.findOnEntry(ip.current, index)
		}
		if mem[ip.current] == tok.XElse || mem[ip.current] == tok.Else {
			ip.current += 1 + tok.OffSize
			if mem[ip.current] == tok.XLineNum {
				errs.Raise(errs.Syntax) // line number not allowed here
			}
			return
		}
		dest := ip.branchDest()
		if ip.traces.branches {
			ip.traceBranch(ip.current, dest)
		}
		if onwhat == tok.Gosub {
			for mem[ip.current] != tok.Colon && mem[ip.current] != tok.EOL {
				ip.current = tok.SkipToken(mem, ip.current)
			}
			if mem[ip.current] == tok.Colon {
				ip.current++
			}
			ip.St.PushFrame(&stack.GosubFrame{Ret: ip.current})
		}
		ip.jumpTo(dest)
	case tok.XFnProcAll, tok.FnProcAll:
		if index > 1 {
			ip.current = ip.findOnEntry(ip.current, index)
		}
		if mem[ip.current] == tok.XElse || mem[ip.current] == tok.Else {
			ip.current += 1 + tok.OffSize
			if mem[ip.current] == tok.XLineNum {
				errs.Raise(errs.Syntax)
			}
			return
		}
		vp := ip.resolveFnProc(true)
		if vp.Kind != symbols.ProcDef {
			errs.Raise(errs.NotAProc)
		}
		dp := vp.Def
		if mem[ip.current] == '(' {
			ip.pushParameters(dp, vp.Name)
		}
		if ip.traces.enabled {
			if ip.traces.procs {
				ip.traceProc(vp.Name, true)
			}
			if ip.traces.branches {
				ip.traceBranch(ip.current, dp.Addr)
			}
		}
		for mem[ip.current] != tok.Colon && mem[ip.current] != tok.EOL {
			ip.current = tok.SkipToken(mem, ip.current)
		}
		if mem[ip.current] == tok.Colon {
			ip.current++
		}
		ip.St.PushFrame(&stack.ProcFrame{
			Ret:   ip.current,
			Parms: len(dp.Parms),
			Name:  vp.Name,
			Ops:   ip.St.OpDepth(),
		})
		ip.current = dp.Addr
	default:
		errs.Raise(errs.Syntax)
	}
}

// execOn despatches the ON statement forms.
func (ip *Interp) execOn() {
	ip.current++
	if ip.mem()[ip.current] == tok.Error {
		ip.execOnError()
	} else if ip.isAtEOL(ip.current) {
		// Plain ON homes the text cursor on the original hardware;
		// there is nothing useful to do here
		ip.checkAtEOL()
	} else {
		ip.execOnBranch()
	}
}
