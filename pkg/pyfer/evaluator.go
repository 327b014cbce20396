package pyfer

import (
	"context"

	"pyfer/pkg/ast"
	"pyfer/pkg/token"
	"pyfer/pkg/types"
)

// evaluator executes statement and expression level dataflow inside one
// scope on behalf of one unit. Malformed or unresolvable expressions
// evaluate to the empty set; nothing here aborts a pass except cancellation.
type evaluator struct {
	unit  *FunctionUnit
	scope *Scope
}

func (ev *evaluator) walkStmts(ctx context.Context, stmts []ast.Stmt) error {
	for _, s := range stmts {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := ev.walkStmt(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func (ev *evaluator) walkStmt(ctx context.Context, s ast.Stmt) error {
	st := ev.unit.state
	switch s := s.(type) {
	case *ast.Assign:
		ev.assign(s.Target, ev.Evaluate(s.Value))
	case *ast.Return:
		if s.Value != nil {
			ev.unit.addReturn(ev.Evaluate(s.Value))
		} else {
			ev.unit.addReturn(types.NewSet(st.builtins.None()))
		}
	case *ast.Yield:
		if s.Value != nil {
			ev.unit.addYield(ev.Evaluate(s.Value))
		} else {
			ev.unit.addYield(types.NewSet(st.builtins.None()))
		}
	case *ast.ExprStmt:
		ev.Evaluate(s.X)
	case *ast.FunctionDef:
		st.sched.Enqueue(st.unitFor(s, ev.unit, ev.scope))
	case *ast.ClassDef:
		return ev.walkClass(ctx, s)
	case *ast.If:
		ev.Evaluate(s.Cond)
		if err := ev.walkStmts(ctx, s.Body); err != nil {
			return err
		}
		return ev.walkStmts(ctx, s.Else)
	case *ast.While:
		ev.Evaluate(s.Cond)
		return ev.walkStmts(ctx, s.Body)
	case *ast.Pass:
	}
	return nil
}

func (ev *evaluator) walkClass(ctx context.Context, s *ast.ClassDef) error {
	st := ev.unit.state
	cls, cscope := st.classFor(s, ev.scope)
	for _, b := range s.Bases {
		ev.Evaluate(b)
	}
	body := &evaluator{unit: ev.unit, scope: cscope}
	if err := body.walkStmts(ctx, s.Body); err != nil {
		return err
	}
	set := types.NewSet(cls)
	ev.scope.DeclareLocated(s.Name, s.NamePos, ev.unit).AddTypes(ev.unit, set, true)
	st.noteSpan(s.NamePos, s.NamePos+token.Pos(len(s.Name)), s.Name, set, s.NamePos)
	return nil
}

func (ev *evaluator) assign(target ast.Expr, ts types.Set) {
	st := ev.unit.state
	switch t := target.(type) {
	case *ast.Name:
		acc := ev.scope.DeclareLocated(t.Ident, t.Pos(), ev.unit)
		acc.AddTypes(ev.unit, ts, true)
		st.noteSpan(t.Pos(), t.End(), t.Ident, acc.Types(), acc.DefinitionPos())
	case *ast.Attribute:
		// instance/class member writes land in the class's namespace
		for _, bt := range ev.Evaluate(t.Value).Types() {
			var cscope *Scope
			switch bt := bt.(type) {
			case *types.Instance:
				cscope = st.classScope(bt.Of)
			case *types.Class:
				cscope = st.classScope(bt)
			}
			if cscope != nil {
				cscope.DeclareLocated(t.Attr, t.Pos(), ev.unit).AddTypes(ev.unit, ts, true)
			}
		}
	}
}

// Evaluate computes the type set an expression can produce. Reads register
// the unit as a dependent of every accumulator consulted.
func (ev *evaluator) Evaluate(e ast.Expr) types.Set {
	if e == nil {
		return types.Empty
	}
	st := ev.unit.state
	switch e := e.(type) {
	case *ast.Name:
		return ev.evalName(e)
	case *ast.Constant:
		return ev.evalConstant(e)
	case *ast.Attribute:
		return ev.evalAttribute(e)
	case *ast.Call:
		return ev.evalCall(e)
	case *ast.BinOp:
		return ev.binOp(ev.Evaluate(e.X), ev.Evaluate(e.Y))
	case *ast.Compare:
		ev.Evaluate(e.X)
		ev.Evaluate(e.Y)
		return types.NewSet(st.builtins.Bool.Instance())
	case *ast.UnaryOp:
		x := ev.Evaluate(e.X)
		if e.Op == token.NOT {
			return types.NewSet(st.builtins.Bool.Instance())
		}
		return x
	case *ast.List:
		for _, el := range e.Elts {
			ev.Evaluate(el)
		}
		return types.NewSet(st.builtins.List.Instance())
	case *ast.Tuple:
		for _, el := range e.Elts {
			ev.Evaluate(el)
		}
		return types.NewSet(st.builtins.Tuple.Instance())
	case *ast.Subscript:
		ev.Evaluate(e.Value)
		for _, ix := range e.Indices {
			ev.Evaluate(ix)
		}
		return types.Empty
	default:
		return types.Empty
	}
}

// binOp approximates an arithmetic result. Two numeric operands collapse to
// a single numeric type, float winning over int; anything else unions.
func (ev *evaluator) binOp(x, y types.Set) types.Set {
	bs := ev.unit.state.builtins
	if isNumeric(x, bs) && isNumeric(y, bs) {
		if x.Contains(bs.Float.Instance()) || y.Contains(bs.Float.Instance()) {
			return types.NewSet(bs.Float.Instance())
		}
		return types.NewSet(bs.Int.Instance())
	}
	return x.Union(y)
}

func isNumeric(ts types.Set, bs *types.Builtins) bool {
	if ts.IsEmpty() {
		return false
	}
	for _, t := range ts.Types() {
		if t != bs.Int.Instance() && t != bs.Float.Instance() {
			return false
		}
	}
	return true
}

func (ev *evaluator) evalName(e *ast.Name) types.Set {
	st := ev.unit.state
	if acc, ok := ev.scope.Lookup(e.Ident); ok {
		acc.AddDependency(ev.unit)
		ts := acc.Types()
		st.noteSpan(e.Pos(), e.End(), e.Ident, ts, acc.DefinitionPos())
		return ts
	}
	if cls := st.builtins.Lookup(e.Ident); cls != nil {
		return types.NewSet(cls)
	}
	// Unresolved: register interest at module scope, so a definition that
	// lands later re-triggers this unit.
	if st.moduleScope != nil {
		acc := st.moduleScope.Declare(e.Ident)
		acc.AddDependency(ev.unit)
	}
	st.noteSpan(e.Pos(), e.End(), e.Ident, types.Empty, token.NoPos)
	return types.Empty
}

func (ev *evaluator) evalConstant(e *ast.Constant) types.Set {
	bs := ev.unit.state.builtins
	switch e.Kind {
	case ast.ConstInt:
		return types.NewSet(bs.Int.Instance())
	case ast.ConstFloat:
		return types.NewSet(bs.Float.Instance())
	case ast.ConstStr:
		return types.NewSet(bs.Str.Instance())
	case ast.ConstBool:
		return types.NewSet(bs.Bool.Instance())
	case ast.ConstNone:
		return types.NewSet(bs.None())
	}
	return types.Empty
}

func (ev *evaluator) evalAttribute(e *ast.Attribute) types.Set {
	st := ev.unit.state
	out := types.Empty
	for _, bt := range ev.Evaluate(e.Value).Types() {
		switch bt := bt.(type) {
		case *types.Instance:
			out = out.Union(ev.memberOf(bt.Of, e.Attr, true))
		case *types.Class:
			out = out.Union(ev.memberOf(bt, e.Attr, false))
		}
	}
	st.noteSpan(e.Pos(), e.End(), e.Attr, out, token.NoPos)
	return out
}

// memberOf resolves attr against a class's namespace. Through an instance, a
// property member yields its return set instead of the callable.
func (ev *evaluator) memberOf(cls *types.Class, attr string, onInstance bool) types.Set {
	st := ev.unit.state
	cscope := st.classScope(cls)
	if cscope == nil {
		return types.Empty
	}
	// Declare-on-read: a member published by a later pass must re-trigger us.
	acc := cscope.Declare(attr)
	acc.AddDependency(ev.unit)
	ts := acc.Types()
	if !onInstance {
		return ts
	}
	out := types.Empty
	for _, t := range ts.Types() {
		if f, ok := t.(*types.Function); ok && f.IsProperty {
			if fu := st.unitOf(f); fu != nil {
				out = out.Union(fu.CallResult(ev.unit))
				continue
			}
		}
		out = out.Add(t)
	}
	return out
}

func (ev *evaluator) evalCall(e *ast.Call) types.Set {
	callee := ev.Evaluate(e.Fun)

	// a method reached through an instance receives the instance as its
	// leading argument
	recv := types.Empty
	if attr, ok := e.Fun.(*ast.Attribute); ok {
		for _, bt := range ev.Evaluate(attr.Value).Types() {
			if inst, ok := bt.(*types.Instance); ok {
				recv = recv.Add(inst)
			}
		}
	}

	args := make(ArgumentSet, 0, len(e.Args))
	for _, a := range e.Args {
		args = append(args, ev.Evaluate(a))
	}
	kws := map[string]types.Set{}
	kwPos := map[string]token.Pos{}
	for _, kw := range e.Keywords {
		kws[kw.Name] = ev.Evaluate(kw.Value)
		kwPos[kw.Name] = kw.Value.Pos()
	}

	out := types.Empty
	for _, ct := range callee.Types() {
		switch ct := ct.(type) {
		case *types.Function:
			out = out.Union(ev.callFunction(e, ct, recv, args, kws, kwPos))
		case *types.Class:
			out = out.Union(ev.callClass(ct, args, kws))
		}
	}
	return out
}

func (ev *evaluator) callFunction(site *ast.Call, f *types.Function, recv types.Set, args ArgumentSet, kws map[string]types.Set, kwPos map[string]token.Pos) types.Set {
	st := ev.unit.state
	fu := st.unitOf(f)
	if fu == nil {
		return types.Empty
	}
	if !recv.IsEmpty() && !f.IsStatic && !f.IsProperty {
		if f.IsClassMethod {
			cls := types.Empty
			for _, r := range recv.Types() {
				if inst, ok := r.(*types.Instance); ok {
					cls = cls.Add(inst.Of)
				}
			}
			args = append(ArgumentSet{cls}, args...)
		} else {
			args = append(ArgumentSet{recv}, args...)
		}
	}
	fu.UpdateParameters(args, true)
	for name, ts := range kws {
		fu.BindKeyword(name, ts)
	}
	if len(kwPos) > 0 {
		fu.AddNamedParameterReferences(ev.unit, kwPos)
	}
	if st.cfg.CallSpecialization {
		ev.specializeNested(site, fu)
	}
	return fu.CallResult(ev.unit)
}

// callClass models constructor application: the result is an instance, and
// the arguments feed __init__ when the class declares one.
func (ev *evaluator) callClass(cls *types.Class, args ArgumentSet, kws map[string]types.Set) types.Set {
	st := ev.unit.state
	inst := types.NewSet(cls.Instance())
	cscope := st.classScope(cls)
	if cscope == nil {
		return inst
	}
	acc := cscope.Declare("__init__")
	acc.AddDependency(ev.unit)
	for _, t := range acc.Types().Types() {
		f, ok := t.(*types.Function)
		if !ok {
			continue
		}
		fu := st.unitOf(f)
		if fu == nil {
			continue
		}
		fu.UpdateParameters(append(ArgumentSet{inst}, args...), true)
		for name, ts := range kws {
			fu.BindKeyword(name, ts)
		}
	}
	return inst
}

// specializeNested builds, once per call site, closure-specialized units for
// the nested definitions of the callee, so their captures are analyzed under
// this instantiation's context. The units are discarded with the state's
// generation.
func (ev *evaluator) specializeNested(site *ast.Call, callee *FunctionUnit) {
	st := ev.unit.state
	if callee.fn == nil {
		return
	}
	for _, s := range callee.fn.Def.Body {
		def, ok := s.(*ast.FunctionDef)
		if !ok {
			continue
		}
		key := specKey{site: site.ID(), def: def.ID()}
		if _, ok := st.specials[key]; ok {
			continue
		}
		inner := st.unitFor(def, callee, callee.scope)
		cu := st.NewClosureUnit(inner)
		st.specials[key] = cu
		st.sched.Enqueue(cu)
	}
}

// EvaluateAnnotation maps an annotation expression to the instance types it
// denotes. Generator[yield, send, return] keeps its element sets so they can
// be merged into a generator body's accumulators.
func (ev *evaluator) EvaluateAnnotation(e ast.Expr) types.Set {
	if e == nil {
		return types.Empty
	}
	st := ev.unit.state
	switch e := e.(type) {
	case *ast.Constant:
		if e.Kind == ast.ConstNone {
			return types.NewSet(st.builtins.None())
		}
	case *ast.Subscript:
		if name, ok := e.Value.(*ast.Name); ok && st.builtins.Lookup(name.Ident) == st.builtins.GeneratorCls {
			g := &types.Generator{}
			if len(e.Indices) > 0 {
				g.Yield = ev.EvaluateAnnotation(e.Indices[0])
			}
			if len(e.Indices) > 1 {
				g.Send = ev.EvaluateAnnotation(e.Indices[1])
			}
			if len(e.Indices) > 2 {
				g.Return = ev.EvaluateAnnotation(e.Indices[2])
			}
			return types.NewSet(g)
		}
		return instancesOf(ev.Evaluate(e.Value))
	}
	return instancesOf(ev.Evaluate(e))
}

// instancesOf converts class identities into their instance identities,
// leaving everything else as-is.
func instancesOf(ts types.Set) types.Set {
	out := types.Empty
	for _, t := range ts.Types() {
		if cls, ok := t.(*types.Class); ok {
			out = out.Add(cls.Instance())
		} else {
			out = out.Add(t)
		}
	}
	return out
}
