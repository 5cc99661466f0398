package exec

/*
 * BasicV - IF and CASE statements
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
	tok "github.com/rcornwell/BasicV/basic/token"
	"github.com/rcornwell/BasicV/basic/value"
)

// startBlockIf says whether the executable tokens at tp end the line
// with THEN, which is what marks the start of a block IF.
func (ip *Interp) startBlockIf(tp int32) bool {
	mem := ip.mem()
	for mem[tp] != tok.EOL {
		if mem[tp] == tok.Then && mem[tp+1] == tok.EOL {
			return true
		}
		tp = tok.SkipToken(mem, tp)
	}
	return false
}

// execElseWhen branches through a resolved ELSE, WHEN or OTHERWISE
// token: load the offset and jump past the ENDIF or ENDCASE.
func (ip *Interp) execElseWhen() {
	p := ip.current + 1
	dest := p + tok.Get16(ip.mem(), p)
	if ip.traces.enabled {
		if ip.traces.lines {
			if lp := ip.WS.FindLineStart(dest); lp >= 0 {
				ip.traceLine(ip.WS.LineNo(lp))
			}
		}
		if ip.traces.branches {
			ip.traceBranch(ip.current, dest)
		}
	}
	ip.jumpTo(dest)
}

// setDest fills in the short offset of a branch token at p.
func (ip *Interp) setDest(p, dest int32) {
	tok.Put16(ip.mem(), p+1, dest-(p+1))
}

// execXElse resolves an ELSE in a single line IF: the branch runs to
// the start of the next line.
func (ip *Interp) execXElse() {
	mem := ip.mem()
	mem[ip.current] = tok.Else
	p := ip.current + 1 + tok.OffSize
	for mem[p] != tok.EOL {
		p = tok.SkipToken(mem, p)
	}
	p++ // start of the next line
	ip.setDest(ip.current, ip.WS.FindExec(p))
	ip.execElseWhen()
}

// execXLhElse resolves an ELSE belonging to a block IF: find the
// matching ENDIF, allowing for nested block IFs, and branch past it.
func (ip *Interp) execXLhElse() {
	mem := ip.mem()
	lp := ip.WS.FindLineStart(ip.current)
	lp2 := ip.current // ensures the search cannot match at once
	depth := 1
	for {
		if mem[lp2] == tok.EndIf {
			depth--
		}
		if ip.startBlockIf(lp2) {
			depth++
		}
		if depth == 0 {
			break
		}
		lp += ip.WS.LineLen(lp)
		if ip.WS.AtProgEnd(lp) {
			errs.Raise(errs.EndIf)
		}
		lp2 = ip.WS.FindExec(lp)
	}
	lp2++ // skip the ENDIF
	if mem[lp2] == tok.EOL {
		lp2++
		if ip.traces.lines {
			ip.traceLine(ip.WS.LineNo(lp2))
		}
		lp2 = ip.WS.FindExec(lp2)
	}
	mem[ip.current] = tok.LhElse
	ip.setDest(ip.current, lp2)
	ip.execElseWhen()
}

// execEndIfCase is reached when an ENDIF or ENDCASE turns up in
// straight-line execution; both are no-ops there.
func (ip *Interp) execEndIfCase() {
	ip.current++
	if !tok.AtEOL[ip.mem()[ip.current]] {
		errs.Raise(errs.Syntax)
	}
	if ip.mem()[ip.current] == tok.Colon {
		ip.current++
	}
	if ip.mem()[ip.current] == tok.EOL {
		ip.current++
		if ip.traces.lines {
			ip.traceLine(ip.WS.LineNo(ip.current))
		}
		ip.thisline = ip.current
		ip.current = ip.WS.FindExec(ip.current)
	}
}

// execBlockIf runs a resolved block IF:
//   <IF> <THEN offset> <ELSE offset> <expression> ...
func (ip *Interp) execBlockIf() {
	dest := ip.current + 1
	ip.current += 1 + 2*tok.OffSize
	ip.expression()
	if ip.St.PopAnyNum64() == value.False {
		dest += tok.OffSize
	}
	target := dest + tok.Get16(ip.mem(), dest)
	if ip.traces.enabled {
		if ip.traces.lines {
			if lp := ip.WS.FindLineStart(target); lp >= 0 {
				ip.traceLine(ip.WS.LineNo(lp))
			}
		}
		if ip.traces.branches {
			ip.traceBranch(dest, target)
		}
	}
	ip.jumpTo(target)
}

// execSinglIf runs a resolved single line IF. A line number after THEN
// or ELSE is an implied GOTO.
func (ip *Interp) execSinglIf() {
	mem := ip.mem()
	dest := ip.current + 1
	ip.current += 1 + 2*tok.OffSize
	ip.expression()
	if ip.St.PopAnyNum64() == value.False {
		dest += tok.OffSize
	}
	target := dest + tok.Get16(mem, dest)
	if mem[target] == tok.LineNum {
		target = ip.lineDest(target)
	} else if mem[target] == tok.XLineNum {
		target = ip.setLineDest(target)
	}
	if ip.traces.branches {
		ip.traceBranch(ip.current, target)
	}
	ip.jumpTo(target)
}

// execXIf classifies an IF on first execution, fills in the THEN and
// ELSE offsets and carries out the statement. A THEN that ends the
// line opens a block IF; anything else is a single line IF.
func (ip *Interp) execXIf() {
	mem := ip.mem()
	ifplace := ip.current
	thenplace := ifplace + 1
	elseplace := ifplace + 1 + tok.OffSize
	ip.current += 1 + 2*tok.OffSize
	ip.expression()
	result := ip.St.PopAnyNum64()
	single := mem[ip.current] != tok.Then
	var lp2 int32
	if !single {
		lp2 = ip.current + 1
		single = mem[lp2] != tok.EOL
	}
	if single {
		mem[ifplace] = tok.SinglIf
		if mem[ip.current] == tok.XElse || mem[ip.current] == tok.Else {
			// IF <expression> ELSE ... with no THEN part
			lp2 = ip.current + 1 + tok.OffSize
			ip.setDest(ifplace+tok.OffSize, lp2)
			for mem[lp2] != tok.EOL {
				lp2 = tok.SkipToken(mem, lp2)
			}
			lp2++
			ip.setDest(ifplace, ip.WS.FindExec(lp2))
		} else {
			cascade := ip.startBlockIf(ip.current)
			if mem[ip.current] != tok.Then {
				lp2 = ip.current
			}
			ip.setDest(ifplace, lp2)
			if cascade && ip.cascadeIf {
				// A nested block IF on this line: the implicit ELSE
				// target is past the matching ENDIF
				lp3 := lp2
				for mem[lp2] != tok.EOL {
					lp3 = lp2
					lp2 = tok.SkipToken(mem, lp2)
				}
				if mem[lp3] != tok.Then {
					lp2++
					lp2 = ip.WS.FindExec(lp2)
				} else {
					depth := 1
					for depth > 0 {
						if ip.atProgEndToken(lp2) {
							errs.Raise(errs.EndIf)
						}
						switch {
						case mem[lp2] == tok.EndIf:
							depth--
						case mem[lp2] == tok.Then && ip.startBlockIf(lp2):
							depth++
						case depth == 1 && mem[lp2] == tok.XLhElse:
							depth--
						}
						lp2 = tok.SkipToken(mem, lp2)
						if mem[lp2] == tok.EOL {
							lp2++
							lp2 = ip.WS.FindExec(lp2)
						}
					}
				}
				ip.setDest(ifplace+tok.OffSize, lp2)
			} else {
				for mem[lp2] != tok.EOL && mem[lp2] != tok.XElse && mem[lp2] != tok.Else {
					lp2 = tok.SkipToken(mem, lp2)
				}
				if mem[lp2] == tok.XElse || mem[lp2] == tok.Else {
					lp2 += 1 + tok.OffSize
				}
				if mem[lp2] == tok.EOL {
					lp2++
					lp2 = ip.WS.FindExec(lp2)
				}
				ip.setDest(ifplace+tok.OffSize, lp2)
			}
		}
	} else {
		mem[ifplace] = tok.BlockIf
		// lp2 points at the NUL after THEN: the THEN part starts on
		// the next line
		lineStart := lp2 + 1
		ip.setDest(ifplace, ip.WS.FindExec(lineStart))
		depth := 1
		lp := lineStart
		for depth > 0 {
			if ip.WS.AtProgEnd(lp) {
				if result == value.False {
					errs.Raise(errs.EndIf)
				}
				break
			}
			lp2 = ip.WS.FindExec(lp)
			if mem[lp2] == tok.EndIf {
				depth--
			} else if mem[lp2] == tok.XLhElse || mem[lp2] == tok.LhElse {
				if depth == 1 {
					depth = 0
				}
			} else if ip.startBlockIf(lp2) {
				depth++
			}
			if depth > 0 {
				lp += ip.WS.LineLen(lp)
			}
		}
		if ip.WS.AtProgEnd(lp) {
			lp2 = ip.WS.FindExec(lp)
		} else {
			if mem[lp2] == tok.XLhElse || mem[lp2] == tok.LhElse {
				lp2 += 1 + tok.OffSize
			} else {
				lp2++
			}
			if mem[lp2] == tok.EOL {
				lp2++
				lp2 = ip.WS.FindExec(lp2)
			}
		}
		ip.setDest(ifplace+tok.OffSize, lp2)
	}
	// Finally take the branch: the expression has already been
	// evaluated, so the resolved handlers cannot be reused here
	place := thenplace
	if result == value.False {
		place = elseplace
	}
	dest := place + tok.Get16(mem, place)
	if single {
		if mem[dest] == tok.XLineNum {
			dest = ip.setLineDest(dest)
		} else if mem[dest] == tok.LineNum {
			dest = ip.lineDest(dest)
		}
	}
	if ip.traces.branches {
		ip.traceBranch(ifplace, dest)
	}
	ip.jumpTo(dest)
}

// atProgEndToken guards token-by-token scans that may run off the end
// of the program.
func (ip *Interp) atProgEndToken(p int32) bool {
	lp := ip.WS.FindLineStart(p)
	return lp < 0 || ip.WS.AtProgEnd(lp)
}

/* CASE */

// caseTable is built the first time a CASE statement runs: one entry
// per WHEN value list plus the default destination.
type caseTable struct {
	whens   []whenEntry
	defAddr int32
}

type whenEntry struct {
	expr int32 // the WHEN expression list
	addr int32 // the statements to run on a match
}

// execXWhen resolves a WHEN or OTHERWISE met in straight-line flow: it
// marks the end of the previous WHEN's statements, so the branch goes
// past the matching ENDCASE.
func (ip *Interp) execXWhen() {
	mem := ip.mem()
	if mem[ip.current] == tok.XWhen {
		mem[ip.current] = tok.When
	} else {
		mem[ip.current] = tok.Otherwise
	}
	lp := ip.current + 1 + tok.OffSize
	for mem[lp] != tok.EOL {
		lp = tok.SkipToken(mem, lp)
	}
	lp++ // start of the line after the WHEN
	depth := 1
	var lp2 int32
	for {
		if ip.WS.AtProgEnd(lp) {
			errs.Raise(errs.EndCase)
		}
		lp2 = ip.WS.FindExec(lp)
		if mem[lp2] == tok.EndCase {
			depth--
			if depth == 0 {
				break
			}
		} else {
			for mem[lp2] != tok.EOL && mem[lp2] != tok.XCase && mem[lp2] != tok.Case {
				lp2 = tok.SkipToken(mem, lp2)
			}
			if mem[lp2] != tok.EOL {
				depth++ // nested CASE
			}
		}
		lp += ip.WS.LineLen(lp)
	}
	lp2++ // skip ENDCASE
	if mem[lp2] == tok.Colon {
		lp2++
	}
	if mem[lp2] == tok.EOL {
		lp2++
		lp2 = ip.WS.FindExec(lp2)
	}
	ip.setDest(ip.current, lp2)
	ip.execElseWhen()
}

// execXCase builds the case table on first execution: every WHEN and
// the optional OTHERWISE at this nesting depth, in source order.
func (ip *Interp) execXCase() {
	mem := ip.mem()
	lp := ip.current
	tp := lp
	for mem[lp] != tok.EOL {
		tp = lp
		lp = tok.SkipToken(mem, lp)
	}
	if mem[tp] != tok.Of {
		errs.Raise(errs.OfMiss)
	}
	lp++ // start of the line after the CASE
	table := &caseTable{defAddr: -1}
	depth := 1
	for depth > 0 {
		if ip.WS.AtProgEnd(lp) {
			errs.Raise(errs.EndCase)
		}
		tp = ip.WS.FindExec(lp)
		switch mem[tp] {
		case tok.XWhen, tok.When:
			tp += 1 + tok.OffSize
			if depth == 1 {
				if len(table.whens) == MaxWhens {
					errs.Raise(errs.WhenCount)
				}
				entry := whenEntry{expr: tp}
				for mem[tp] != tok.EOL && mem[tp] != tok.Colon {
					tp = tok.SkipToken(mem, tp)
				}
				if mem[tp] == tok.Colon {
					tp++
				}
				if mem[tp] == tok.EOL {
					tp++
					tp = ip.WS.FindExec(tp)
				}
				entry.addr = tp
				table.whens = append(table.whens, entry)
			}
		case tok.XOtherwise, tok.Otherwise:
			if depth == 1 {
				tp += 1 + tok.OffSize
				if mem[tp] == tok.Colon {
					tp++
				}
				if mem[tp] == tok.EOL {
					tp++
					if ip.WS.AtProgEnd(tp) {
						errs.Raise(errs.EndCase)
					}
					tp = ip.WS.FindExec(tp)
				}
				table.defAddr = tp
			}
		case tok.EndCase:
			depth--
			if depth == 0 && table.defAddr < 0 {
				table.defAddr = tp + 1
			}
		}
		// A nested CASE may start anywhere on this line
		if depth > 0 {
			tp = ip.WS.FindExec(lp)
			for mem[tp] != tok.EOL && mem[tp] != tok.XCase && mem[tp] != tok.Case {
				tp = tok.SkipToken(mem, tp)
			}
			if mem[tp] == tok.XCase || mem[tp] == tok.Case {
				depth++
			}
			lp += ip.WS.LineLen(lp)
		}
	}
	ip.caseTables = append(ip.caseTables, table)
	mem[ip.current] = tok.Case
	tok.Put32(mem, ip.current+1, int32(len(ip.caseTables)-1))
	ip.execCase()
}

// execCase evaluates the subject once and scans the table for the
// first WHEN entry with a matching value. Each entry may list several
// comma-separated values. Numbers match by value after widening,
// strings match strings only.
func (ip *Interp) execCase() {
	mem := ip.mem()
	here := ip.current
	table := ip.caseTables[tok.Get32(mem, ip.current+1)]
	ip.current += 1 + tok.LOffSize
	ip.expression()
	subject := ip.St.PopValue()
	if !subject.Kind.IsNumeric() && !subject.Kind.IsString() {
		errs.Raise(errs.VarNumStr)
	}
	found := false
	var target int32
	for _, entry := range table.whens {
		ip.jumpTo(entry.expr)
		if ip.traces.lines {
			if lp := ip.WS.FindLineStart(ip.current); lp >= 0 {
				ip.traceLine(ip.WS.LineNo(lp))
			}
		}
		for {
			ip.expression()
			candidate := ip.St.PopValue()
			if subject.Kind.IsString() {
				if !candidate.Kind.IsString() {
					errs.Raise(errs.TypeStr)
				}
				found = candidate.Str == subject.Str
			} else {
				if !candidate.Kind.IsNumeric() {
					errs.Raise(errs.TypeNum)
				}
				if subject.Kind == value.Float || candidate.Kind == value.Float {
					found = asFloat(candidate) == asFloat(subject)
				} else {
					found = candidate.Int == subject.Int
				}
			}
			if found || mem[ip.current] == tok.Colon || mem[ip.current] == tok.EOL {
				break
			}
			if mem[ip.current] != ',' {
				errs.Raise(errs.Syntax)
			}
			ip.current++
		}
		if found {
			target = entry.addr
			break
		}
	}
	if !found {
		target = table.defAddr
	}
	if ip.traces.branches {
		ip.traceBranch(here, target)
	}
	ip.jumpTo(target)
}
