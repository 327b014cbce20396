package pyfer

import (
	"pyfer/pkg/ast"
	"pyfer/pkg/token"
	"pyfer/pkg/types"
)

// resolveDecorators computes the function's externally visible type set,
// once per pass. Decorators apply innermost first: the one written closest
// to the definition wraps the raw function, each one above wraps the
// previous result.
//
// The builtin markers do not wrap: property classifies the function and ends
// resolution, staticmethod and classmethod classify and continue. Every
// other decorator is modeled as function application over the current set,
// and only advances the set when custom-decorator processing is enabled.
func (u *FunctionUnit) resolveDecorators() types.Set {
	fn := u.fn
	ts := fn.Callable()
	ev := &evaluator{unit: u, scope: u.declarationScope()}
	expr := u.selfReference()
	bs := u.state.builtins
	decos := fn.Def.DecoratorList
loop:
	for i := len(decos) - 1; i >= 0; i-- {
		d := decos[i]
		dts := ev.Evaluate(d)
		switch {
		case dts.Contains(bs.Property):
			fn.IsProperty = true
			break loop
		case dts.Contains(bs.StaticMethod):
			fn.IsStatic = true
		case dts.Contains(bs.ClassMethod):
			fn.IsClassMethod = true
		default:
			expr = u.decoratorCall(d, expr)
			decorated := u.applyDecorator(dts, ts)
			if u.state.cfg.CustomDecorators && !decorated.IsEmpty() {
				ts = decorated
			}
		}
	}
	u.injectFirstArgument()
	return ts
}

// decoratorCall returns the synthesized application node for d. A decorator
// node maps to exactly one call node for the lifetime of its owning unit, so
// repeated passes see a stable node identity.
func (u *FunctionUnit) decoratorCall(d, expr ast.Expr) *ast.Call {
	if call, ok := u.decoCalls[d.ID()]; ok {
		return call
	}
	call := &ast.Call{
		NodeBase: ast.NewBase(d.Pos(), d.End(), u.state.alloc.Next()),
		Fun:      d,
		Args:     []ast.Expr{expr},
	}
	u.decoCalls[d.ID()] = call
	return call
}

// selfReference is the symbolic reference to the function's own name that
// seeds the decorator application chain.
func (u *FunctionUnit) selfReference() ast.Expr {
	if u.selfRef == nil {
		def := u.fn.Def
		u.selfRef = &ast.Name{
			NodeBase: ast.NewBase(def.NamePos, def.NamePos+token.Pos(len(def.Name)), u.state.alloc.Next()),
			Ident:    def.Name,
		}
	}
	return u.selfRef
}

// applyDecorator calls every candidate the decorator resolved to with ts as
// the sole argument and unions the results. Candidates identical to the
// function under analysis, or to any function owning a scope on the chain
// toward global, are skipped so a self-referential decorator terminates
// instead of recursing.
func (u *FunctionUnit) applyDecorator(candidates, ts types.Set) types.Set {
	decorated := types.Empty
	for _, c := range candidates.Types() {
		switch c := c.(type) {
		case *types.Function:
			if u.skipsCandidate(c) {
				continue
			}
			cu := u.state.unitOf(c)
			if cu == nil {
				continue
			}
			cu.UpdateParameters(ArgumentSet{ts}, true)
			decorated = decorated.Union(cu.CallResult(u))
		case *types.Class:
			// a class used as a decorator produces its instances
			decorated = decorated.Add(c.Instance())
		}
	}
	return decorated
}

func (u *FunctionUnit) skipsCandidate(c *types.Function) bool {
	if c == u.fn {
		return true
	}
	for sc := range u.declarationScope().TowardGlobal() {
		if sc.Owner() == c {
			return true
		}
	}
	return false
}

// injectFirstArgument seeds self/cls, once per pass and additively. Static
// functions get nothing; when a definition carries both the static and the
// classmethod marker, static wins and no injection happens. A classmethod
// without any enclosing class still receives a value of type `type`.
func (u *FunctionUnit) injectFirstArgument() {
	fn := u.fn
	if fn.IsStatic {
		return
	}
	first := firstPositional(fn.Def.Args)
	if first == nil {
		return
	}
	var seed types.Set
	switch {
	case fn.IsClassMethod:
		if cls := u.enclosingClass(); cls != nil {
			seed = types.NewSet(cls)
		} else {
			seed = types.NewSet(u.state.builtins.Type.Instance())
		}
	case u.enclosing != nil && u.enclosing.Kind() == ScopeClass:
		seed = types.NewSet(u.enclosing.Class().Instance())
	default:
		return
	}
	u.scope.Declare(first.Name).AddTypes(u, seed, true)
}

func firstPositional(args []*ast.Arg) *ast.Arg {
	for _, a := range args {
		if a.Kind == ast.ArgPositional {
			return a
		}
	}
	return nil
}

func (u *FunctionUnit) enclosingClass() *types.Class {
	for sc := range u.declarationScope().TowardGlobal() {
		if sc.Kind() == ScopeClass {
			return sc.Class()
		}
	}
	return nil
}
