package exec

/*
 * BasicV - DATA, READ and RESTORE
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
)

// execData is reached when a DATA statement turns up in normal flow:
// skip it. DATA is always the last statement on its line.
func (ip *Interp) execData() {
	ip.current = tok.SkipToken(ip.mem(), ip.current)
}

// skipBlanks advances over spaces in source text.
func (ip *Interp) skipBlanks(p int32) int32 {
	for ip.mem()[p] == ' ' {
		p++
	}
	return p
}

// findData moves the data cursor to the start of the next field. The
// cursor is either unset (first READ), at a ',' or the DATA keyword of
// the current line, or at the NUL ending the line's source text; in
// the last case the program is searched line by line for the next DATA
// statement.
func (ip *Interp) findData() {
	mem := ip.mem()
	dp := ip.datacur
	if dp >= 0 && (mem[dp] == ',' || mem[dp] == tok.Data) {
		ip.datacur = dp + 1
		return
	}
	if dp < 0 {
		dp = ip.WS.Start()
	} else {
		// At the end of a line's source text: move to the next line
		lp := ip.WS.FindLineStart(dp)
		if lp < 0 {
			errs.Raise(errs.Data)
		}
		dp = lp + ip.WS.LineLen(lp)
	}
	for !ip.WS.AtProgEnd(dp) && mem[ip.WS.FindExec(dp)] != tok.Data {
		dp += ip.WS.LineLen(dp)
	}
	if ip.WS.AtProgEnd(dp) {
		errs.Raise(errs.Data)
	}
	tp := ip.WS.FindExec(dp)
	ip.datacur = tp - tok.Get16(mem, tp+1)
}

// readNumeric re-tokenises the next data field and evaluates it as an
// expression, storing the result in the destination.
func (ip *Interp) readNumeric(dest symbols.Lvalue) {
	mem := ip.mem()
	dp := ip.skipBlanks(ip.datacur)
	start := dp
	for mem[dp] != tok.EOL && mem[dp] != ',' {
		dp++
	}
	if dp == start {
		errs.Raise(errs.BadExpr)
	}
	text := string(mem[start:dp])
	ip.datacur = dp
	record := tok.Tokenize(text, int32(tok.NoLine))
	off := ip.WS.WriteScratch(record, 1)
	savedCur, savedLine := ip.current, ip.thisline
	ip.thisline = off
	ip.current = ip.WS.FindExec(off)
	ip.expression()
	ip.current, ip.thisline = savedCur, savedLine
	ip.St.Store(dest, ip.St.PopValue())
}

// readString takes the next data field literally. Quoted fields may
// embed doubled quotes.
func (ip *Interp) readString(dest symbols.Lvalue) {
	mem := ip.mem()
	cp := ip.skipBlanks(ip.datacur)
	var text []byte
	if mem[cp] == '"' {
		cp++
		for {
			if mem[cp] == tok.EOL {
				errs.Raise(errs.QuoteMiss)
			}
			if mem[cp] == '"' {
				if mem[cp+1] == '"' {
					text = append(text, '"')
					cp += 2
					continue
				}
				cp++
				break
			}
			text = append(text, mem[cp])
			cp++
		}
		for mem[cp] != tok.EOL && mem[cp] != ',' {
			cp++
		}
	} else {
		for mem[cp] != tok.EOL && mem[cp] != ',' {
			text = append(text, mem[cp])
			cp++
		}
	}
	ip.datacur = cp
	ip.St.Store(dest, strTemp(string(text)))
}

// execRead assigns the next data fields to each destination in turn.
func (ip *Interp) execRead() {
	ip.current++
	if ip.isAtEOL(ip.current) {
		return
	}
	if ip.outOfData {
		errs.Raise(errs.Data)
	}
	for {
		dest := ip.getLvalue(true)
		ip.findData()
		if dest.Kind() == symbols.String {
			ip.readString(dest)
		} else {
			ip.readNumeric(dest)
		}
		if ip.mem()[ip.current] != ',' {
			break
		}
		ip.current++
	}
	ip.checkAtEOL()
}

// restoreDataPtr repositions the data cursor for RESTORE, RESTORE
// <line>, RESTORE +<lines> and RESTORE <expression>.
func (ip *Interp) restoreDataPtr() {
	mem := ip.mem()
	ip.outOfData = false
	var dest int32
	switch mem[ip.current] {
	case tok.XLineNum:
		dest = ip.WS.FindLineStart(ip.setLineDest(ip.current))
		ip.current = tok.SkipToken(mem, ip.current)
		ip.checkAtEOL()
	case tok.LineNum:
		dest = ip.WS.FindLineStart(ip.lineDest(ip.current))
		ip.current = tok.SkipToken(mem, ip.current)
		ip.checkAtEOL()
	case '+':
		ip.current++
		count := ip.evalInteger()
		ip.checkAtEOL()
		p := ip.current
		for mem[p] != tok.EOL {
			p = tok.SkipToken(mem, p)
		}
		p++ // start of the next line
		// RESTORE +1 names that next line, and we are already on it
		count--
		for !ip.WS.AtProgEnd(p) && count > 0 {
			p += ip.WS.LineLen(p)
			count--
		}
		if ip.WS.AtProgEnd(p) {
			ip.outOfData = true
			return
		}
		dest = p
	default:
		if ip.isAtEOL(ip.current) {
			dest = ip.WS.Start()
		} else {
			line := ip.evalInteger()
			ip.checkAtEOL()
			dest = ip.WS.FindLine(line)
			if ip.WS.LineNo(dest) != line {
				errs.Raise(errs.LineMiss, line)
			}
		}
	}
	for !ip.WS.AtProgEnd(dest) && mem[ip.WS.FindExec(dest)] != tok.Data {
		dest += ip.WS.LineLen(dest)
	}
	if ip.WS.AtProgEnd(dest) {
		ip.outOfData = true
		return
	}
	// Point one byte before the data text so that 'DATA ,x' keeps its
	// leading empty field
	tp := ip.WS.FindExec(dest)
	ip.datacur = tp - tok.Get16(mem, tp+1) - 1
}

// execRestore handles RESTORE and its ERROR, LOCAL and DATA forms,
// which undo state saved on the control stack.
func (ip *Interp) execRestore() {
	ip.current++
	switch ip.mem()[ip.current] {
	case tok.Error:
		ip.current = tok.SkipToken(ip.mem(), ip.current)
		ip.checkAtEOL()
		f, ok := ip.St.TopFrame().(*stack.ErrorFrame)
		if !ok {
			errs.Raise(errs.ErrNotOp)
		}
		ip.St.PopFrame()
		ip.handler = f.Handler
	case tok.Local:
		ip.current = tok.SkipToken(ip.mem(), ip.current)
		ip.checkAtEOL()
		if ip.St.ProcDepth == 0 {
			errs.Raise(errs.LocalErr)
		}
		if ip.St.UnwindLocal() == stack.ErrorItem {
			f := ip.St.PopFrame().(*stack.ErrorFrame)
			ip.handler = f.Handler
		}
		if top := ip.St.TopFrame(); top != nil && top.Tag() != stack.ProcItem {
			ip.St.EmptyStack(stack.ProcItem)
		}
	case tok.Data:
		ip.current = tok.SkipToken(ip.mem(), ip.current)
		ip.checkAtEOL()
		f, ok := ip.St.TopFrame().(*stack.DataFrame)
		if !ok {
			errs.Raise(errs.DataNotOp)
		}
		ip.St.PopFrame()
		// The out-of-data flag is deliberately not restored
		ip.datacur = f.Cursor
	default:
		ip.restoreDataPtr()
	}
}
