package exec

/*
 * BasicV - PRINT and INPUT
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
	"strconv"
	"strings"

	"github.com/rcornwell/BasicV/basic/errs"
	"github.com/rcornwell/BasicV/basic/stack"
	"github.com/rcornwell/BasicV/basic/symbols"
	tok "github.com/rcornwell/BasicV/basic/token"
	"github.com/rcornwell/BasicV/basic/value"
)

// fieldWidth is the print field size from the low byte of @%.
func (ip *Interp) fieldWidth() int32 {
	width := ip.Syms.Statics[tok.AtPercent].Integer & 0xff
	if width == 0 {
		width = 10
	}
	return width
}

// formatNumber renders a numeric value the way PRINT and STR$ do:
// integers in full, floats to nine significant figures.
func (ip *Interp) formatNumber(v stack.Value) string {
	if v.Kind.IsInt() {
		return strconv.FormatInt(v.Int, 10)
	}
	return strconv.FormatFloat(v.Float, 'G', 9, 64)
}

// emit writes print output, tracking the column count.
func (ip *Interp) emit(text string) {
	ip.write(text)
	if n := strings.LastIndexByte(text, '\n'); n >= 0 {
		ip.printCount = int32(len(text) - n - 1)
	} else {
		ip.printCount += int32(len(text))
	}
}

// execPrint writes the print items in order. ';' runs items together,
// ',' advances to the next field boundary, the apostrophe takes a new
// line and '~' switches the following numerics to hexadecimal.
func (ip *Interp) execPrint() {
	mem := ip.mem()
	ip.current++
	hex := false
	lastSep := false
	for !ip.isAtEOL(ip.current) {
		switch mem[ip.current] {
		case ';':
			ip.current++
			hex = false
			lastSep = true
		case ',':
			ip.current++
			hex = false
			lastSep = true
			width := ip.fieldWidth()
			pad := width - ip.printCount%width
			ip.emit(strings.Repeat(" ", int(pad)))
		case '\'':
			ip.current++
			ip.emit("\n")
			lastSep = true
		case '~':
			ip.current++
			hex = true
			lastSep = false
		case ' ':
			ip.current++
		default:
			ip.expression()
			v := ip.St.PopValue()
			switch {
			case v.Kind.IsString():
				ip.emit(v.Str)
			case v.Kind.IsNumeric():
				if hex {
					ip.emit(strings.ToUpper(strconv.FormatInt(asInt(v), 16)))
				} else {
					ip.emit(ip.formatNumber(v))
				}
			default:
				errs.Raise(errs.VarNumStr)
			}
			lastSep = false
		}
	}
	if !lastSep {
		ip.emit("\n")
	}
}

// execInput reads values from the keyboard into the listed variables.
// A leading string is the prompt; fields are comma separated and more
// input is requested when a line runs out.
func (ip *Interp) execInput() {
	mem := ip.mem()
	ip.current++
	var fields []string
	prompted := false
	for !ip.isAtEOL(ip.current) {
		switch mem[ip.current] {
		case tok.StringCon:
			length := tok.Get16(mem, ip.current+1)
			start := ip.current + 3
			ip.emit(string(mem[start : start+length]))
			ip.current = start + length
			prompted = true
		case ',', ';':
			if !prompted {
				ip.emit("?")
			}
			ip.current++
		case ' ':
			ip.current++
		default:
			dest := ip.getLvalue(true)
			for len(fields) == 0 {
				if !prompted {
					ip.emit("?")
				}
				prompted = false
				line, err := ip.Host.ReadLine()
				if err != nil {
					errs.Raise(errs.Escape)
				}
				if dest.Kind() == symbols.String {
					fields = []string{line}
				} else {
					fields = strings.Split(line, ",")
				}
			}
			field := strings.TrimSpace(fields[0])
			fields = fields[1:]
			if dest.Kind() == symbols.String {
				ip.St.Store(dest, stack.Value{Kind: value.StrTemp, Str: field})
			} else {
				f, err := strconv.ParseFloat(field, 64)
				if err != nil {
					f = 0
				}
				if f == float64(int64(f)) {
					ip.St.Store(dest, intValue(int64(f)))
				} else {
					ip.St.Store(dest, floatValue(f))
				}
			}
			if mem[ip.current] != ',' {
				ip.checkAtEOL()
				return
			}
			ip.current++
		}
	}
}
