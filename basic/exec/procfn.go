package exec

/*
 * BasicV - Procedures, functions, LOCAL and DIM
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

// findFnProc resolves a PROC/FN name to its symbol entry, searching the
// program and then the libraries, and fills in the definition details
// on first use.
func (ip *Interp) findFnProc(name string) *symbols.Variable {
	vp := ip.Syms.FindProgram(name)
	if vp == nil {
		vp = ip.Syms.ScanFnProc(name)
	}
	if vp == nil {
		if name[0] == tok.Proc {
			errs.Raise(errs.ProcMiss, symbols.ProcName(name))
		}
		errs.Raise(errs.FnMiss, symbols.ProcName(name))
	}
	if vp.Kind == symbols.Marker {
		ip.scanParmList(vp)
	}
	ip.runPendingDims()
	return vp
}

// runPendingDims executes the DIM statements found in a library
// prologue during its first scan. Their bounds are expressions, so the
// symbol scanner leaves them for the interpreter.
func (ip *Interp) runPendingDims() {
	libs := append(append([]*symbols.Library{}, ip.Syms.Libraries...), ip.Syms.Installed...)
	for _, lib := range libs {
		dims := lib.PendingDims
		if len(dims) == 0 {
			continue
		}
		lib.PendingDims = nil
		savedCur, savedLine, savedOwner := ip.current, ip.thisline, ip.libPrologue
		ip.libPrologue = lib
		for _, addr := range dims {
			ip.current = addr
			ip.thisline = ip.WS.FindLineStart(addr)
			ip.execDim()
		}
		ip.current, ip.thisline, ip.libPrologue = savedCur, savedLine, savedOwner
	}
}

// scanParmList fills in a marker entry: it parses the formal parameter
// list of the definition and finds the body's entry point.
func (ip *Interp) scanParmList(vp *symbols.Variable) {
	savedCur, savedLine := ip.current, ip.thisline
	ip.current = vp.Mark
	ip.thisline = ip.WS.FindLineStart(vp.Mark)
	ip.makeArray = true
	mem := ip.mem()
	ip.current += 1 + tok.LOffSize
	var parms []symbols.FormParm
	if mem[ip.current] == '(' {
		for {
			ip.current++ // skip '(' or ','
			isReturn := mem[ip.current] == tok.Return
			if isReturn {
				ip.current++
			}
			lv := ip.getLvalue(true)
			if lv.Ref != symbols.RefScalar && lv.Ref != symbols.RefArray {
				errs.Raise(errs.Syntax)
			}
			parms = append(parms, symbols.FormParm{Name: lv.Var.Name, Return: isReturn})
			if mem[ip.current] != ',' {
				break
			}
		}
		if mem[ip.current] != ')' {
			errs.Raise(errs.RPMiss)
		}
		ip.current++
	}
	if mem[ip.current] == tok.Colon {
		ip.current++
	}
	for mem[ip.current] == tok.EOL {
		ip.current++
		if ip.WS.AtProgEnd(ip.current) {
			errs.Raise(errs.Syntax) // no body
		}
		ip.thisline = ip.current
		ip.current = ip.WS.FindExec(ip.current)
	}
	def := &symbols.FnProcDef{Addr: ip.current, Parms: parms}
	def.Simple = len(parms) == 1 && !parms[0].Return &&
		symbols.KindFromName(parms[0].Name) == symbols.Int32
	vp.Def = def
	if vp.Name[0] == tok.Proc {
		vp.Kind = symbols.ProcDef
	} else {
		vp.Kind = symbols.FnDef
	}
	ip.makeArray = false
	ip.current, ip.thisline = savedCur, savedLine
}

// resolveFnProc reads the call token, resolving and patching it on
// first execution, and checks the parameter list is present when it
// should be. Leaves the cursor after the token.
func (ip *Interp) resolveFnProc(wantProc bool) *symbols.Variable {
	mem := ip.mem()
	if mem[ip.current] == tok.FnProcAll {
		vp := ip.vars[tok.Get32(mem, ip.current+1)].vp
		ip.current += 1 + tok.LOffSize
		return vp
	}
	src := ip.current - tok.Get32(mem, ip.current+1)
	end := tok.SkipName(mem, src)
	if mem[end-1] == '(' {
		end--
	}
	name := string(mem[src:end])
	if wantProc && name[0] != tok.Proc {
		errs.Raise(errs.NotAProc)
	}
	if !wantProc && name[0] != tok.Fn {
		errs.Raise(errs.Syntax)
	}
	vp := ip.findFnProc(name)
	mem[ip.current] = tok.FnProcAll
	tok.Put32(mem, ip.current+1, ip.addVarRef(vp, src))
	ip.current += 1 + tok.LOffSize
	dp := vp.Def
	if mem[ip.current] != '(' {
		if len(dp.Parms) != 0 {
			errs.Raise(errs.NotEnuff, symbols.ProcName(vp.Name))
		}
	} else if len(dp.Parms) == 0 {
		errs.Raise(errs.TooMany, symbols.ProcName(vp.Name))
	}
	return vp
}

// formalLvalue builds the storage reference for a formal parameter.
func (ip *Interp) formalLvalue(fp symbols.FormParm) symbols.Lvalue {
	vp := ip.Syms.FindProgram(fp.Name)
	if vp == nil {
		vp = ip.Syms.Create(fp.Name, nil)
	}
	if vp.IsArray {
		return symbols.Lvalue{Ref: symbols.RefArray, Var: vp}
	}
	return symbols.Lvalue{Ref: symbols.RefScalar, Var: vp}
}

// pushParameters evaluates the actual parameters and binds them to the
// formals, saving the formals' current values on the control stack.
// Every actual is evaluated before any formal changes, so a call like
// PROCswap(a,b) sees the old values.
func (ip *Interp) pushParameters(dp *symbols.FnProcDef, name string) {
	mem := ip.mem()
	ip.current++ // skip '('
	count := len(dp.Parms)
	type actual struct {
		v  stack.Value
		lv symbols.Lvalue
	}
	actuals := make([]actual, 0, count)
	for {
		if len(actuals) >= count {
			errs.Raise(errs.TooMany, symbols.ProcName(name))
		}
		if dp.Parms[len(actuals)].Return {
			actuals = append(actuals, actual{lv: ip.getLvalue(false)})
		} else {
			ip.expression()
			actuals = append(actuals, actual{v: ip.St.PopValue()})
		}
		if mem[ip.current] != ',' {
			break
		}
		ip.current++
	}
	if mem[ip.current] != ')' {
		errs.Raise(errs.RPMiss)
	}
	ip.current++
	if len(actuals) < count {
		errs.Raise(errs.NotEnuff, symbols.ProcName(name))
	}
	for n, fp := range dp.Parms {
		flv := ip.formalLvalue(fp)
		saved := ip.St.Load(flv)
		if fp.Return {
			ip.St.PushFrame(&stack.RetParmFrame{Target: flv, Ret: actuals[n].lv, Saved: saved})
			ip.St.Store(flv, ip.St.Load(actuals[n].lv))
		} else {
			ip.St.PushFrame(&stack.LocalFrame{Target: flv, Saved: saved})
			ip.St.Store(flv, actuals[n].v)
		}
	}
}

// execProc calls a procedure whose reference is already resolved.
func (ip *Interp) execProc() {
	if ip.Host.EscapePoll() {
		errs.Raise(errs.Escape)
	}
	vp := ip.resolveFnProc(true)
	if vp.Kind != symbols.ProcDef {
		errs.Raise(errs.NotAProc)
	}
	dp := vp.Def
	if ip.mem()[ip.current] == '(' {
		ip.pushParameters(dp, vp.Name)
		if !ip.isAtEOL(ip.current) {
			errs.Raise(errs.Syntax)
		}
	}
	ip.St.PushFrame(&stack.ProcFrame{
		Ret:   ip.current,
		Parms: len(dp.Parms),
		Name:  vp.Name,
		Ops:   ip.St.OpDepth(),
	})
	if ip.traces.enabled {
		if ip.traces.procs {
			ip.traceProc(vp.Name, true)
		}
		if ip.traces.branches {
			ip.traceBranch(ip.current, dp.Addr)
		}
	}
	ip.current = dp.Addr
}

// execXProc is the first call through an unresolved PROC reference.
func (ip *Interp) execXProc() {
	ip.execProc() // resolveFnProc patches on the way
}

// callFn evaluates a function call from inside an expression. The
// function body runs in a nested statement loop until its '='
// statement leaves the result on the operand stack.
func (ip *Interp) callFn() stack.Value {
	if ip.Host.EscapePoll() {
		errs.Raise(errs.Escape)
	}
	vp := ip.resolveFnProc(false)
	if vp.Kind != symbols.FnDef {
		errs.Raise(errs.Syntax)
	}
	dp := vp.Def
	ops := ip.St.OpDepth()
	if ip.mem()[ip.current] == '(' {
		ip.pushParameters(dp, vp.Name)
	}
	ip.St.PushFrame(&stack.FnFrame{
		Ret:   ip.current,
		Parms: len(dp.Parms),
		Name:  vp.Name,
		Ops:   ops,
		Depth: ip.depth,
	})
	ip.St.PushFrame(&stack.OpStackFrame{})
	if ip.traces.enabled {
		if ip.traces.procs {
			ip.traceProc(vp.Name, true)
		}
		if ip.traces.branches {
			ip.traceBranch(ip.current, dp.Addr)
		}
	}
	ip.execFnStatements(dp.Addr)
	return ip.St.PopValue()
}

// execEndProc returns from a procedure, restoring LOCALs and
// parameters and branching to the saved return address.
func (ip *Interp) execEndProc() {
	ip.errorIsLocal = false
	if ip.St.ProcDepth == 0 {
		errs.Raise(errs.EndProcErr)
	}
	if ip.St.UnwindLocal() == stack.ErrorItem {
		f := ip.St.PopFrame().(*stack.ErrorFrame)
		ip.handler = f.Handler
	}
	if top := ip.St.TopFrame(); top == nil || top.Tag() != stack.ProcItem {
		ip.St.EmptyStack(stack.ProcItem)
	}
	top := ip.St.TopFrame()
	if top == nil || top.Tag() != stack.ProcItem {
		errs.Raise(errs.EndProcErr)
	}
	f := ip.St.PopFrame().(*stack.ProcFrame)
	ip.St.TruncOps(f.Ops)
	if f.Parms != 0 {
		ip.St.RestoreParameters(f.Parms)
	}
	if ip.traces.enabled {
		if ip.traces.procs {
			ip.traceProc(f.Name, false)
		}
		if ip.traces.branches {
			ip.traceBranch(ip.current, f.Ret)
		}
	}
	ip.current = f.Ret
}

// execFnReturn handles '=' at statement level: a function return. If
// the result is a string that references variable storage it is copied
// before the locals are unwound.
func (ip *Interp) execFnReturn() {
	ip.errorIsLocal = false
	if ip.St.ProcDepth == 0 {
		errs.Raise(errs.FnReturn)
	}
	ip.current++
	ip.expression()
	result := ip.St.PopValue()
	if result.Kind == value.String {
		// Copy before the local that owns it is destroyed
		result = stack.Value{Kind: value.StrTemp, Str: result.Str}
	} else if !result.Kind.IsNumeric() && result.Kind != value.StrTemp {
		errs.Raise(errs.VarNumStr)
	}
	if ip.St.UnwindLocal() == stack.ErrorItem {
		f := ip.St.PopFrame().(*stack.ErrorFrame)
		ip.handler = f.Handler
	}
	ip.St.EmptyStack(stack.FnItem)
	top := ip.St.TopFrame()
	if top == nil || top.Tag() != stack.FnItem {
		errs.Raise(errs.FnReturn)
	}
	f := ip.St.PopFrame().(*stack.FnFrame)
	ip.St.TruncOps(f.Ops)
	if f.Parms != 0 {
		ip.St.RestoreParameters(f.Parms)
	}
	ip.St.PushValue(result)
	if ip.traces.enabled {
		if ip.traces.procs {
			ip.traceProc(f.Name, false)
		}
		if ip.traces.branches {
			ip.traceBranch(ip.current, f.Ret)
		}
	}
	ip.current = f.Ret
}

/* LOCAL */

// defLocVar creates local variables, saving each current value on the
// control stack and resetting the variable to zero or empty.
func (ip *Interp) defLocVar() {
	if ip.St.ProcDepth == 0 {
		errs.Raise(errs.LocalErr)
	}
	ip.makeArray = true
	defer func() { ip.makeArray = false }()
	for {
		lv := ip.getLvalue(true)
		saved := ip.St.Load(lv)
		ip.St.PushFrame(&stack.LocalFrame{Target: lv, Saved: saved})
		switch lv.Kind() {
		case symbols.String:
			ip.St.Store(lv, stack.Value{Kind: value.String, Str: ""})
		default:
			if lv.Ref == symbols.RefArray {
				ip.St.Store(lv, stack.Value{Kind: value.IntArray, Arr: nil})
			} else {
				ip.St.Store(lv, stack.Value{Kind: value.Int32, Int: 0})
			}
		}
		if ip.mem()[ip.current] != ',' {
			break
		}
		ip.current++
	}
	ip.checkAtEOL()
}

// execLocal handles LOCAL <vars>, LOCAL ERROR and LOCAL DATA.
func (ip *Interp) execLocal() {
	ip.current++
	switch ip.mem()[ip.current] {
	case tok.Error:
		ip.current = tok.SkipToken(ip.mem(), ip.current)
		ip.checkAtEOL()
		ip.St.PushFrame(&stack.ErrorFrame{Handler: ip.handler})
		ip.errorIsLocal = true
	case tok.Data:
		ip.current = tok.SkipToken(ip.mem(), ip.current)
		ip.checkAtEOL()
		ip.St.PushFrame(&stack.DataFrame{Cursor: ip.datacur})
	default:
		ip.defLocVar()
	}
}

/* DIM */

// execDim handles every DIM form: arrays, stack-local arrays, byte
// blocks, indirected byte blocks and the HIMEM variants.
func (ip *Interp) execDim() {
	mem := ip.mem()
	for {
		ip.current++ // skip DIM or ','
		offheap := false
		if mem[ip.current] == tok.Himem {
			offheap = true
			ip.current++
		}
		var vp *symbols.Variable
		existed := true
		blockdef := false
		switch mem[ip.current] {
		case tok.StaticVar:
			vp = &ip.Syms.Statics[mem[ip.current+1]]
			ip.current += 2
			blockdef = true
		case tok.XVar:
			src := ip.current - tok.Get32(mem, ip.current+1)
			name := ip.Syms.NameAt(src)
			existed = ip.Syms.Find(name, ip.current) != nil
			fallthrough
		case tok.Var:
			vp = ip.resolveVar(true)
			blockdef = !vp.IsArray
		default:
			errs.Raise(errs.NameMiss)
		}
		if blockdef {
			if !existed && mem[ip.current] == '!' {
				errs.Raise(errs.VarMiss, displayName(vp.Name))
			}
			ip.defineByteArray(vp, offheap)
		} else {
			islocal := false
			if existed && vp.Array != nil {
				errs.Raise(errs.DuplDim, displayName(vp.Name))
			}
			if existed && vp.Array == nil && ip.libPrologue == nil {
				// Name declared (LOCAL a()) but not yet dimensioned:
				// a stack-local array
				islocal = true
			}
			ip.defineArray(vp, islocal, offheap)
		}
		if mem[ip.current] != ',' {
			break
		}
	}
	ip.checkAtEOL()
}

// defineArray parses the bounds of DIM name(...) and creates the array.
func (ip *Interp) defineArray(vp *symbols.Variable, islocal, offheap bool) {
	mem := ip.mem()
	if vp.Kind == symbols.String && offheap {
		errs.Raise(errs.TypeNum) // numeric array wanted off heap
	}
	var dims []int32
	for {
		high := ip.evalInteger()
		if mem[ip.current] != ',' && mem[ip.current] != ')' && mem[ip.current] != ']' {
			errs.Raise(errs.CoMiss)
		}
		if high < 0 {
			errs.Raise(errs.NegDim, displayName(vp.Name))
		}
		if len(dims) >= symbols.MaxDims {
			errs.Raise(errs.DimCount, displayName(vp.Name))
		}
		dims = append(dims, high+1)
		if mem[ip.current] != ',' {
			break
		}
		ip.current++
	}
	if mem[ip.current] != ')' && mem[ip.current] != ']' {
		errs.Raise(errs.RPMiss)
	}
	if len(dims) == 0 {
		errs.Raise(errs.Syntax)
	}
	ip.current++
	ap := symbols.NewArray(vp.Kind, dims)
	ap.Local = islocal
	ap.OffHeap = offheap
	ap.Parent = vp
	vp.Array = ap
	if islocal {
		elem := int32(4)
		switch vp.Kind {
		case symbols.Uint8:
			elem = 1
		case symbols.Int64, symbols.Float, symbols.String:
			elem = 8
		}
		ip.St.PushFrame(&stack.LocArrayFrame{
			Size:    ap.Size * elem,
			Strings: vp.Kind == symbols.String,
			Offset:  -1,
		})
	}
}

// defineByteArray handles DIM <name> <size>, DIM <name>!<off> <size>
// and their LOCAL and HIMEM forms. The byte block lives in the
// workspace; its base offset is stored in the variable or through the
// indirection.
func (ip *Interp) defineByteArray(vp *symbols.Variable, offheap bool) {
	mem := ip.mem()
	switch vp.Kind {
	case symbols.Int32, symbols.Int64, symbols.Float:
	default:
		errs.Raise(errs.VarNum)
	}
	isind := mem[ip.current] == '!'
	var offset int64
	if isind {
		ip.current++
		base := asInt(ip.St.Load(symbols.Lvalue{Ref: symbols.RefScalar, Var: vp}))
		offset = base + ip.evalIntFactor()
	} else if offheap {
		offset = asInt(ip.St.Load(symbols.Lvalue{Ref: symbols.RefScalar, Var: vp}))
	}
	var ep int32
	if mem[ip.current] == tok.Local {
		if ip.St.ProcDepth == 0 {
			errs.Raise(errs.LocalErr)
		}
		ip.current++
		high := ip.evalInt64()
		if high < -1 {
			errs.Raise(errs.NegByteDim, displayName(vp.Name))
		}
		ep = ip.WS.AllocBytes(int32(high + 1))
		if ep < 0 {
			errs.Raise(errs.BadByteDim, displayName(vp.Name))
		}
		ip.St.PushFrame(&stack.LocArrayFrame{Size: int32(high + 1), Offset: ep})
	} else {
		high := ip.evalInt64()
		if high < -1 {
			errs.Raise(errs.NegByteDim, displayName(vp.Name))
		}
		switch {
		case offheap && high == -1:
			ip.WS.FreeHimem(int32(offset))
			ep = 0
		case offheap:
			ep = ip.WS.AllocHimem(int32(high + 1))
			if ep < 0 {
				errs.Raise(errs.BadByteDim, displayName(vp.Name))
			}
		case high == -1:
			// current heap top, no allocation
			ep = ip.WS.VarTop
		default:
			ep = ip.WS.AllocBytes(int32(high + 1))
			if ep < 0 {
				errs.Raise(errs.BadByteDim, displayName(vp.Name))
			}
		}
	}
	target := symbols.Lvalue{Ref: symbols.RefScalar, Var: vp}
	if isind {
		target = symbols.Lvalue{Ref: symbols.RefWord, Offset: int32(offset)}
	}
	ip.St.Store(target, stack.Value{Kind: value.Int32, Int: int64(ep)})
}
