package exec

/*
 * BasicV - Expression evaluation
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
	"math"
	"strconv"
	"strings"

	"github.com/rcornwell/BasicV/basic/errs"
	"github.com/rcornwell/BasicV/basic/stack"
	"github.com/rcornwell/BasicV/basic/symbols"
	tok "github.com/rcornwell/BasicV/basic/token"
	"github.com/rcornwell/BasicV/basic/value"
)

/*
   Operator priorities follow Basic V: functions and brackets bind
   tightest, then '^', then unary '-' '+' NOT (so -2^2 is -4), then
   '*' '/' DIV MOD, then '+' '-', then the
   comparisons and shifts, then AND, then OR and EOR. Values are carried
   through the levels as operand stack entries; the final result of
   expression() is left on the operand stack, which is how a function
   call hands its result back to the factor that invoked it.
*/

// expression evaluates the expression at the current position, leaving
// exactly one value on the operand stack.
func (ip *Interp) expression() {
	ip.St.CheckRoom()
	ip.St.PushValue(ip.exprOrEor())
}

// evalInteger evaluates an expression and pops it as a 32-bit integer.
func (ip *Interp) evalInteger() int32 {
	ip.expression()
	return ip.St.PopAnyNum32()
}

// evalInt64 evaluates an expression and pops it as a 64-bit integer.
func (ip *Interp) evalInt64() int64 {
	ip.expression()
	return ip.St.PopAnyNum64()
}

// evalIntFactor evaluates a single factor as an integer (used by the
// indirection operators, which bind tighter than arithmetic).
func (ip *Interp) evalIntFactor() int64 {
	return asInt(ip.factor())
}

// evalString evaluates an expression that must yield a string.
func (ip *Interp) evalString() string {
	ip.expression()
	v := ip.St.PopValue()
	if !v.Kind.IsString() {
		errs.Raise(errs.TypeStr)
	}
	return v.Str
}

/* Value helpers */

func asInt(v stack.Value) int64 {
	switch {
	case v.Kind.IsInt():
		return v.Int
	case v.Kind == value.Float:
		if math.IsNaN(v.Float) || v.Float >= math.MaxInt64 || v.Float <= math.MinInt64 {
			errs.Raise(errs.Range)
		}
		return int64(v.Float)
	}
	errs.Raise(errs.TypeNum)
	return 0
}

func asFloat(v stack.Value) float64 {
	switch {
	case v.Kind.IsInt():
		return float64(v.Int)
	case v.Kind == value.Float:
		return v.Float
	}
	errs.Raise(errs.TypeNum)
	return 0
}

func asString(v stack.Value) string {
	if !v.Kind.IsString() {
		errs.Raise(errs.TypeStr)
	}
	return v.Str
}

func intValue(v int64) stack.Value {
	if v == int64(int32(v)) {
		return stack.Value{Kind: value.Int32, Int: v}
	}
	return stack.Value{Kind: value.Int64, Int: v}
}

func floatValue(f float64) stack.Value {
	return stack.Value{Kind: value.Float, Float: f}
}

func strTemp(s string) stack.Value {
	return stack.Value{Kind: value.StrTemp, Str: s}
}

func boolValue(b bool) stack.Value {
	if b {
		return stack.Value{Kind: value.Int32, Int: value.True}
	}
	return stack.Value{Kind: value.Int32, Int: value.False}
}

func bothInt(a, b stack.Value) bool {
	return a.Kind.IsInt() && b.Kind.IsInt()
}

/* Precedence levels */

func (ip *Interp) exprOrEor() stack.Value {
	v := ip.exprAnd()
	for {
		switch ip.mem()[ip.current] {
		case tok.Or:
			ip.current++
			v = intValue(asInt(v) | asInt(ip.exprAnd()))
		case tok.Eor:
			ip.current++
			v = intValue(asInt(v) ^ asInt(ip.exprAnd()))
		default:
			return v
		}
	}
}

func (ip *Interp) exprAnd() stack.Value {
	v := ip.exprCompare()
	for ip.mem()[ip.current] == tok.And {
		ip.current++
		v = intValue(asInt(v) & asInt(ip.exprCompare()))
	}
	return v
}

func (ip *Interp) exprCompare() stack.Value {
	v := ip.exprAdd()
	for {
		switch ip.mem()[ip.current] {
		case '=':
			ip.current++
			v = boolValue(compare(v, ip.exprAdd()) == 0)
		case tok.Ne:
			ip.current++
			v = boolValue(compare(v, ip.exprAdd()) != 0)
		case '<':
			ip.current++
			v = boolValue(compare(v, ip.exprAdd()) < 0)
		case '>':
			ip.current++
			v = boolValue(compare(v, ip.exprAdd()) > 0)
		case tok.Le:
			ip.current++
			v = boolValue(compare(v, ip.exprAdd()) <= 0)
		case tok.Ge:
			ip.current++
			v = boolValue(compare(v, ip.exprAdd()) >= 0)
		case tok.Shl:
			ip.current++
			v = intValue(asInt(v) << (uint(asInt(ip.exprAdd())) & 63))
		case tok.Shr:
			ip.current++
			v = intValue(asInt(v) >> (uint(asInt(ip.exprAdd())) & 63))
		case tok.Shrl:
			ip.current++
			v = intValue(int64(uint64(asInt(v)) >> (uint(asInt(ip.exprAdd())) & 63)))
		default:
			return v
		}
	}
}

// compare orders two values: -1, 0 or 1. Strings compare with strings
// only; numbers widen to float when either side is float.
func compare(a, b stack.Value) int {
	if a.Kind.IsString() || b.Kind.IsString() {
		if !a.Kind.IsString() || !b.Kind.IsString() {
			errs.Raise(errs.VarNumStr)
		}
		return strings.Compare(a.Str, b.Str)
	}
	if a.Kind == value.Float || b.Kind == value.Float {
		af, bf := asFloat(a), asFloat(b)
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	}
	ai, bi := asInt(a), asInt(b)
	switch {
	case ai < bi:
		return -1
	case ai > bi:
		return 1
	}
	return 0
}

func (ip *Interp) exprAdd() stack.Value {
	v := ip.exprMul()
	for {
		switch ip.mem()[ip.current] {
		case '+':
			// '+=' belongs to the assignment that called us
			if ip.mem()[ip.current+1] == '=' {
				return v
			}
			ip.current++
			rhs := ip.exprMul()
			if v.Kind.IsString() || rhs.Kind.IsString() {
				v = strTemp(asString(v) + asString(rhs))
			} else if bothInt(v, rhs) {
				v = intValue(v.Int + rhs.Int)
			} else {
				v = floatValue(asFloat(v) + asFloat(rhs))
			}
		case '-':
			if ip.mem()[ip.current+1] == '=' {
				return v
			}
			ip.current++
			rhs := ip.exprMul()
			if bothInt(v, rhs) {
				v = intValue(v.Int - rhs.Int)
			} else {
				v = floatValue(asFloat(v) - asFloat(rhs))
			}
		default:
			return v
		}
	}
}

func (ip *Interp) exprMul() stack.Value {
	v := ip.exprUnary()
	for {
		switch ip.mem()[ip.current] {
		case '*':
			ip.current++
			rhs := ip.exprUnary()
			if bothInt(v, rhs) {
				product := v.Int * rhs.Int
				// promote on overflow
				if v.Int != 0 && product/v.Int != rhs.Int {
					v = floatValue(asFloat(v) * asFloat(rhs))
				} else {
					v = intValue(product)
				}
			} else {
				v = floatValue(asFloat(v) * asFloat(rhs))
			}
		case '/':
			ip.current++
			rhs := ip.exprUnary()
			d := asFloat(rhs)
			if d == 0 {
				errs.Raise(errs.DivZero)
			}
			v = floatValue(asFloat(v) / d)
		case tok.Div:
			ip.current++
			rhs := asInt(ip.exprUnary())
			if rhs == 0 {
				errs.Raise(errs.DivZero)
			}
			v = intValue(asInt(v) / rhs)
		case tok.Mod:
			ip.current++
			rhs := asInt(ip.exprUnary())
			if rhs == 0 {
				errs.Raise(errs.DivZero)
			}
			v = intValue(asInt(v) % rhs)
		default:
			return v
		}
	}
}

func (ip *Interp) exprUnary() stack.Value {
	switch ip.mem()[ip.current] {
	case '-':
		ip.current++
		v := ip.exprUnary()
		if v.Kind.IsInt() {
			return intValue(-v.Int)
		}
		return floatValue(-asFloat(v))
	case '+':
		ip.current++
		return ip.exprUnary()
	case tok.Not:
		ip.current++
		return intValue(^asInt(ip.exprUnary()))
	}
	return ip.exprPow()
}

func (ip *Interp) exprPow() stack.Value {
	v := ip.factor()
	for ip.mem()[ip.current] == '^' {
		ip.current++
		rhs := ip.exprUnary() // right associative, unary binds in the exponent
		f := math.Pow(asFloat(v), asFloat(rhs))
		v = floatValue(f)
	}
	return v
}

/* Factors */

func (ip *Interp) factor() stack.Value {
	mem := ip.mem()
	var v stack.Value
	switch t := mem[ip.current]; t {
	case tok.IntCon:
		v = stack.Value{Kind: value.Int32, Int: int64(tok.Get32(mem, ip.current+1))}
		ip.current += 1 + tok.LOffSize
	case tok.Int64Con:
		v = stack.Value{Kind: value.Int64, Int: tok.Get64(mem, ip.current+1)}
		ip.current += 9
	case tok.FloatCon:
		v = floatValue(math.Float64frombits(uint64(tok.Get64(mem, ip.current+1))))
		ip.current += 9
	case tok.StringCon:
		length := tok.Get16(mem, ip.current+1)
		start := ip.current + 3
		v = stack.Value{Kind: value.String, Str: string(mem[start : start+length])}
		ip.current = start + length
	case '(':
		ip.current++
		v = ip.exprOrEor()
		if mem[ip.current] != ')' {
			errs.Raise(errs.RPMiss)
		}
		ip.current++
	case '?':
		ip.current++
		v = stack.Value{Kind: value.Int32, Int: int64(ip.WS.GetByte(int32(ip.evalIntFactor())))}
	case '!':
		ip.current++
		v = stack.Value{Kind: value.Int32, Int: int64(ip.WS.GetInteger(int32(ip.evalIntFactor())))}
	case '|':
		ip.current++
		v = floatValue(ip.WS.GetFloat(int32(ip.evalIntFactor())))
	case '$':
		ip.current++
		v = stack.Value{Kind: value.String, Str: ip.WS.GetString(int32(ip.evalIntFactor()))}
	case tok.XVar, tok.Var, tok.StaticVar:
		v = ip.loadVariable()
	case tok.XFnProcAll, tok.FnProcAll:
		v = ip.callFn()
	default:
		v = ip.function(t)
	}
	return ip.postfix(v)
}

// postfix applies the binary indirection operators, which bind tighter
// than any arithmetic: base?off and base!off peek relative to base.
func (ip *Interp) postfix(v stack.Value) stack.Value {
	for {
		switch ip.mem()[ip.current] {
		case '?':
			ip.current++
			addr := asInt(v) + ip.evalIntFactor()
			v = stack.Value{Kind: value.Int32, Int: int64(ip.WS.GetByte(int32(addr)))}
		case '!':
			ip.current++
			addr := asInt(v) + ip.evalIntFactor()
			v = stack.Value{Kind: value.Int32, Int: int64(ip.WS.GetInteger(int32(addr)))}
		default:
			return v
		}
	}
}

// loadVariable resolves a variable reference and loads its value. An
// array name is followed either by ')' (the whole array) or by its
// subscripts.
func (ip *Interp) loadVariable() stack.Value {
	vp := ip.resolveVar(false)
	if !vp.IsArray {
		return ip.St.Load(symbols.Lvalue{Ref: symbols.RefScalar, Var: vp})
	}
	if ip.mem()[ip.current] == ')' || ip.mem()[ip.current] == ']' {
		ip.current++
		if vp.Array == nil {
			errs.Raise(errs.VarMiss, displayName(vp.Name))
		}
		return stack.Value{Kind: arrayValueKind(vp.Array.Kind), Arr: vp.Array}
	}
	lv := ip.arrayElement(vp)
	return ip.St.Load(lv)
}

func arrayValueKind(k symbols.Kind) value.Kind {
	switch k {
	case symbols.Int32:
		return value.IntArray
	case symbols.Uint8:
		return value.Uint8Array
	case symbols.Int64:
		return value.Int64Array
	case symbols.Float:
		return value.FloatArray
	case symbols.String:
		return value.StrArray
	}
	return value.Unknown
}

// arrayElement parses subscripts for vp and builds an element lvalue.
func (ip *Interp) arrayElement(vp *symbols.Variable) symbols.Lvalue {
	if vp.Array == nil {
		errs.Raise(errs.VarMiss, displayName(vp.Name))
	}
	var subs []int32
	for {
		subs = append(subs, ip.evalInteger())
		if ip.mem()[ip.current] != ',' {
			break
		}
		ip.current++
	}
	if ip.mem()[ip.current] != ')' && ip.mem()[ip.current] != ']' {
		errs.Raise(errs.RPMiss)
	}
	ip.current++
	return symbols.Lvalue{Ref: symbols.RefElem, Arr: vp.Array, Index: vp.Array.Index(subs)}
}

// displayName trims the marker and bracket for error messages.
func displayName(name string) string {
	name = symbols.ProcName(name)
	return strings.TrimSuffix(name, "(")
}

// resolveVar reads the variable token at the current position,
// resolving and patching an XVAR on first execution, and advances past
// it. Unknown names are created when 'create' (or the make-array flag
// used while binding LOCALs and formal parameters) is set.
func (ip *Interp) resolveVar(create bool) *symbols.Variable {
	mem := ip.mem()
	switch mem[ip.current] {
	case tok.StaticVar:
		vp := &ip.Syms.Statics[mem[ip.current+1]]
		ip.current += 2
		return vp
	case tok.Var:
		vp := ip.vars[tok.Get32(mem, ip.current+1)].vp
		ip.current += 1 + tok.LOffSize
		return vp
	case tok.XVar:
		src := ip.current - tok.Get32(mem, ip.current+1)
		name := ip.Syms.NameAt(src)
		vp := ip.Syms.Find(name, ip.current)
		if vp == nil {
			if !create && !ip.makeArray {
				errs.Raise(errs.VarMiss, displayName(name))
			}
			vp = ip.Syms.Create(name, ip.libPrologue)
		}
		mem[ip.current] = tok.Var
		tok.Put32(mem, ip.current+1, ip.addVarRef(vp, src))
		ip.current += 1 + tok.LOffSize
		return vp
	}
	errs.Raise(errs.NameMiss)
	return nil
}

// getLvalue parses a storage reference: a variable, an array element, a
// whole array, or an indirection target.
func (ip *Interp) getLvalue(create bool) symbols.Lvalue {
	mem := ip.mem()
	switch mem[ip.current] {
	case '?':
		ip.current++
		return symbols.Lvalue{Ref: symbols.RefByte, Offset: int32(ip.evalIntFactor())}
	case '!':
		ip.current++
		return symbols.Lvalue{Ref: symbols.RefWord, Offset: int32(ip.evalIntFactor())}
	case '|':
		ip.current++
		return symbols.Lvalue{Ref: symbols.RefFloatI, Offset: int32(ip.evalIntFactor())}
	case '$':
		ip.current++
		return symbols.Lvalue{Ref: symbols.RefStr, Offset: int32(ip.evalIntFactor())}
	case tok.StaticVar, tok.Var, tok.XVar:
		vp := ip.resolveVar(create)
		if vp.IsArray {
			if mem[ip.current] == ')' || mem[ip.current] == ']' {
				ip.current++
				return symbols.Lvalue{Ref: symbols.RefArray, Var: vp}
			}
			return ip.arrayElement(vp)
		}
		lv := symbols.Lvalue{Ref: symbols.RefScalar, Var: vp}
		// var!off and var?off address relative to the variable's value
		switch mem[ip.current] {
		case '!':
			ip.current++
			base := asInt(ip.St.Load(lv))
			return symbols.Lvalue{Ref: symbols.RefWord, Offset: int32(base + ip.evalIntFactor())}
		case '?':
			ip.current++
			base := asInt(ip.St.Load(lv))
			return symbols.Lvalue{Ref: symbols.RefByte, Offset: int32(base + ip.evalIntFactor())}
		}
		return lv
	}
	errs.Raise(errs.NameMiss)
	return symbols.Lvalue{}
}

/* Built-in functions and pseudo-variables */

// argOpen requires the next token to be '(' (multi-argument functions).
func (ip *Interp) argOpen() {
	if ip.mem()[ip.current] != '(' {
		errs.Raise(errs.Syntax)
	}
	ip.current++
}

func (ip *Interp) argComma() {
	if ip.mem()[ip.current] != ',' {
		errs.Raise(errs.CoMiss)
	}
	ip.current++
}

func (ip *Interp) argClose() {
	if ip.mem()[ip.current] != ')' {
		errs.Raise(errs.RPMiss)
	}
	ip.current++
}

// fnArg evaluates a single function argument: parenthesised or a bare
// factor, as Basic allows LEN"abc".
func (ip *Interp) fnArg() stack.Value {
	if ip.mem()[ip.current] == '(' {
		ip.current++
		v := ip.exprOrEor()
		ip.argClose()
		return v
	}
	return ip.factor()
}

func (ip *Interp) function(t byte) stack.Value {
	ip.current++
	switch t {
	case tok.TrueT:
		return stack.Value{Kind: value.Int32, Int: value.True}
	case tok.FalseT:
		return stack.Value{Kind: value.Int32, Int: value.False}
	case tok.Pi:
		return floatValue(math.Pi)
	case tok.ErrTok:
		if ip.lastError == nil {
			return stack.Value{Kind: value.Int32}
		}
		return stack.Value{Kind: value.Int32, Int: int64(ip.lastError.Kind)}
	case tok.Erl:
		return stack.Value{Kind: value.Int32, Int: int64(ip.erl)}
	case tok.Time:
		return stack.Value{Kind: value.Int32, Int: int64(ip.Host.Monotonic())}
	case tok.Top:
		return stack.Value{Kind: value.Int32, Int: int64(ip.WS.Top)}
	case tok.Himem:
		return stack.Value{Kind: value.Int32, Int: int64(ip.WS.HimemTop)}
	case tok.Abs:
		v := ip.fnArg()
		if v.Kind.IsInt() {
			if v.Int < 0 {
				return intValue(-v.Int)
			}
			return v
		}
		return floatValue(math.Abs(asFloat(v)))
	case tok.Sgn:
		f := asFloat(ip.fnArg())
		switch {
		case f < 0:
			return stack.Value{Kind: value.Int32, Int: -1}
		case f > 0:
			return stack.Value{Kind: value.Int32, Int: 1}
		}
		return stack.Value{Kind: value.Int32}
	case tok.IntFn:
		return intValue(int64(math.Floor(asFloat(ip.fnArg()))))
	case tok.Sqr:
		f := asFloat(ip.fnArg())
		if f < 0 {
			errs.Raise(errs.Range)
		}
		return floatValue(math.Sqrt(f))
	case tok.Len:
		return intValue(int64(len(asString(ip.fnArg()))))
	case tok.Asc:
		s := asString(ip.fnArg())
		if len(s) == 0 {
			return stack.Value{Kind: value.Int32, Int: -1}
		}
		return stack.Value{Kind: value.Int32, Int: int64(s[0])}
	case tok.ChrStr:
		return strTemp(string([]byte{byte(asInt(ip.fnArg()))}))
	case tok.StrStr:
		hex := false
		if ip.mem()[ip.current] == '~' {
			hex = true
			ip.current++
		}
		v := ip.fnArg()
		if hex {
			return strTemp(strings.ToUpper(strconv.FormatInt(asInt(v), 16)))
		}
		return strTemp(ip.formatNumber(v))
	case tok.Val:
		s := strings.TrimLeft(asString(ip.fnArg()), " ")
		end := 0
		for end < len(s) && (s[end] == '-' || s[end] == '+' || s[end] == '.' || (s[end] >= '0' && s[end] <= '9') ||
			s[end] == 'E' || s[end] == 'e') {
			end++
		}
		for end > 0 {
			if f, err := strconv.ParseFloat(s[:end], 64); err == nil {
				if f == math.Trunc(f) && math.Abs(f) < math.MaxInt64 {
					return intValue(int64(f))
				}
				return floatValue(f)
			}
			end--
		}
		return stack.Value{Kind: value.Int32}
	case tok.LeftStr:
		ip.argOpen()
		s := asString(ip.exprOrEor())
		n := int64(len(s)) - 1
		if ip.mem()[ip.current] == ',' {
			ip.current++
			n = asInt(ip.exprOrEor())
		}
		ip.argClose()
		if n < 0 {
			n = 0
		}
		if n > int64(len(s)) {
			n = int64(len(s))
		}
		return strTemp(s[:n])
	case tok.RightSt:
		ip.argOpen()
		s := asString(ip.exprOrEor())
		n := int64(1)
		if ip.mem()[ip.current] == ',' {
			ip.current++
			n = asInt(ip.exprOrEor())
		}
		ip.argClose()
		if n < 0 {
			n = 0
		}
		if n > int64(len(s)) {
			n = int64(len(s))
		}
		return strTemp(s[int64(len(s))-n:])
	case tok.MidStr:
		ip.argOpen()
		s := asString(ip.exprOrEor())
		ip.argComma()
		from := asInt(ip.exprOrEor())
		count := int64(len(s))
		if ip.mem()[ip.current] == ',' {
			ip.current++
			count = asInt(ip.exprOrEor())
		}
		ip.argClose()
		if from < 1 {
			from = 1
		}
		if from > int64(len(s)) {
			return strTemp("")
		}
		rest := s[from-1:]
		if count < 0 {
			count = 0
		}
		if count > int64(len(rest)) {
			count = int64(len(rest))
		}
		return strTemp(rest[:count])
	case tok.StringS:
		ip.argOpen()
		n := asInt(ip.exprOrEor())
		ip.argComma()
		s := asString(ip.exprOrEor())
		ip.argClose()
		if n < 0 {
			n = 0
		}
		return strTemp(strings.Repeat(s, int(n)))
	case tok.Rnd:
		return ip.random()
	}
	errs.Raise(errs.Syntax)
	return stack.Value{}
}

// random implements RND, RND(1), RND(0), RND(-n) and RND(n) with the
// usual xorshift-style generator.
func (ip *Interp) random() stack.Value {
	next := func() uint32 {
		x := ip.rndState
		x ^= x << 13
		x ^= x >> 17
		x ^= x << 5
		ip.rndState = x
		return x
	}
	if ip.mem()[ip.current] != '(' {
		return stack.Value{Kind: value.Int32, Int: int64(int32(next()))}
	}
	ip.current++
	n := asInt(ip.exprOrEor())
	ip.argClose()
	switch {
	case n < 0:
		ip.rndState = uint32(-n) | 1
		return intValue(n)
	case n == 0:
		return floatValue(float64(ip.rndState) / float64(math.MaxUint32))
	case n == 1:
		return floatValue(float64(next()) / float64(math.MaxUint32))
	default:
		return intValue(int64(next()%uint32(n)) + 1)
	}
}
