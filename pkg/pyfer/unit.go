package pyfer

import (
	"context"
	"sort"

	"pyfer/pkg/ast"
	"pyfer/pkg/token"
	"pyfer/pkg/types"
)

// ArgumentSet carries one call site's positional argument type sets.
type ArgumentSet []types.Set

// KeywordRef records one call site that referenced a parameter by name.
type KeywordRef struct {
	Caller *FunctionUnit
	Pos    token.Pos
}

// FunctionUnit is one schedulable, repeatable analysis of a function body
// under one binding context. A standalone unit exists once per (definition,
// enclosing scope) pair; a unit built by NewClosureUnit re-analyzes the same
// definition under one call-site instantiation, with its scope linked to the
// standalone scope. The module body is driven by a unit with no function
// identity.
//
// The decorator memoization map is exclusive to the unit; no other unit ever
// touches it. Classification flags on the function identity follow a
// single-writer discipline: only units analyzing that exact definition write
// them, and rewrites of the same value are idempotent.
type FunctionUnit struct {
	state     *State
	fn        *types.Function // nil for the module unit
	declaring *FunctionUnit   // unit whose body declared this function
	enclosing *Scope          // scope the function name publishes into
	scope     *Scope          // the function's own scope
	inner     *FunctionUnit   // non-nil marks a closure-specialized unit

	ret    *Accumulator
	yields *Accumulator
	sends  *Accumulator

	decoCalls map[ast.NodeID]*ast.Call
	selfRef   *ast.Name
	kwRefs    map[string][]KeywordRef
}

func (u *FunctionUnit) Name() string {
	if u.fn == nil {
		return "<module>"
	}
	return u.fn.Name
}

func (u *FunctionUnit) Function() *types.Function { return u.fn }
func (u *FunctionUnit) Scope() *Scope             { return u.scope }
func (u *FunctionUnit) IsClosure() bool           { return u.inner != nil }

// declarationScope is where definition-time expressions (defaults,
// annotations, decorators) resolve: the scope the def statement appeared in,
// not the function's own scope.
func (u *FunctionUnit) declarationScope() *Scope {
	if u.enclosing != nil {
		return u.enclosing
	}
	if u.declaring != nil {
		return u.declaring.scope
	}
	return u.scope
}

// EnsureParameters backs every formal parameter with an accumulator before
// the body runs, so a reference to an unreached parameter resolves to the
// empty set instead of failing. Closure units install no placeholders: they
// exist only once real call-site context has been observed, and their scope
// link resolves parameter names to the standalone family.
func (u *FunctionUnit) EnsureParameters() {
	if u.fn == nil || u.inner != nil {
		return
	}
	for _, arg := range u.fn.Def.Args {
		u.scope.Declare(arg.Name)
	}
}

// UpdateParameters rebinds formals to one call site's argument types,
// additively. It reports whether any parameter set grew; when one did and
// reenqueue is set, the unit schedules itself for another pass.
func (u *FunctionUnit) UpdateParameters(args ArgumentSet, reenqueue bool) bool {
	if u.fn == nil {
		return false
	}
	changed := false
	i := 0
	for _, arg := range u.fn.Def.Args {
		switch arg.Kind {
		case ast.ArgPositional:
			if i < len(args) {
				if u.bindParam(arg.Name, args[i]) {
					changed = true
				}
				i++
			}
		case ast.ArgVararg:
			for ; i < len(args); i++ {
				if u.bindParam(arg.Name, args[i]) {
					changed = true
				}
			}
		case ast.ArgKwarg:
			// fed by BindKeyword only
		}
	}
	if changed && reenqueue {
		u.state.sched.Enqueue(u)
	}
	return changed
}

func (u *FunctionUnit) bindParam(name string, ts types.Set) bool {
	return u.scope.Declare(name).AddTypes(u, ts, true)
}

// BindKeyword routes one keyword argument to the named formal, or to the
// keyword collector when no formal matches.
func (u *FunctionUnit) BindKeyword(name string, ts types.Set) bool {
	if u.fn == nil {
		return false
	}
	for _, arg := range u.fn.Def.Args {
		if arg.Kind == ast.ArgPositional && arg.Name == name {
			return u.bindParam(name, ts)
		}
	}
	for _, arg := range u.fn.Def.Args {
		if arg.Kind == ast.ArgKwarg {
			return u.bindParam(arg.Name, ts)
		}
	}
	return false
}

// AddNamedParameterReferences records that a call site referenced parameters
// by keyword. Completion and navigation read these back.
func (u *FunctionUnit) AddNamedParameterReferences(caller *FunctionUnit, names map[string]token.Pos) {
	for name, pos := range names {
		u.kwRefs[name] = append(u.kwRefs[name], KeywordRef{Caller: caller, Pos: pos})
	}
}

// KeywordNames lists the parameter names callers have referenced by keyword.
func (u *FunctionUnit) KeywordNames() []string {
	out := make([]string, 0, len(u.kwRefs))
	for name := range u.kwRefs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ReturnValue is the read-only view of the return accumulator.
func (u *FunctionUnit) ReturnValue() *Accumulator { return u.ret }

// YieldValue is the read-only view of the yield accumulator.
func (u *FunctionUnit) YieldValue() *Accumulator { return u.yields }

// SendValue is the read-only view of the send accumulator.
func (u *FunctionUnit) SendValue() *Accumulator { return u.sends }

// CallResult is what a call site observes: the inferred return set, or a
// generator instance for generator bodies. The reading unit registers as a
// dependent so later growth re-schedules it.
func (u *FunctionUnit) CallResult(reader *FunctionUnit) types.Set {
	if u.fn == nil {
		return types.Empty
	}
	u.ret.AddDependency(reader)
	if u.fn.Def.IsGenerator {
		return types.NewSet(u.state.builtins.GeneratorCls.Instance())
	}
	return u.ret.Types()
}

func (u *FunctionUnit) addReturn(ts types.Set) { u.ret.AddTypes(u, ts, false) }
func (u *FunctionUnit) addYield(ts types.Set)  { u.yields.AddTypes(u, ts, false) }

// Analyze runs one pass. Passes are repeatable and idempotent; the scheduler
// re-invokes the unit whenever a set it read has grown. Order:
//
//  1. back the formal parameters with accumulators;
//  2. evaluate defaults and annotations in the declaration scope;
//  3. resolve decorators into the externally visible type set;
//  4. publish the function name into the enclosing scope;
//  5. walk the body in the function's own scope;
//  6. re-apply the resolved set to the name binding.
//
// A cancellation abandons the rest of the pass; everything published before
// it stands, nothing is rolled back.
func (u *FunctionUnit) Analyze(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if u.fn == nil {
		ev := &evaluator{unit: u, scope: u.scope}
		return ev.walkStmts(ctx, u.state.mod.Body)
	}
	u.EnsureParameters()
	u.seedParameters()
	final := u.resolveDecorators()

	def := u.fn.Def
	var acc *Accumulator
	if u.enclosing != nil {
		acc = u.enclosing.DeclareLocated(def.Name, def.NamePos, u)
		acc.AddTypes(u, final, true)
		u.state.noteSpan(def.NamePos, def.NamePos+token.Pos(len(def.Name)), def.Name, final, def.NamePos)
	}

	ev := &evaluator{unit: u, scope: u.scope}
	if err := ev.walkStmts(ctx, def.Body); err != nil {
		return err
	}

	// The body walk may have rebound the name; the decorated type wins.
	if acc != nil {
		acc.AddTypes(u, final, false)
	}
	return nil
}

// seedParameters evaluates parameter defaults and annotations, and the
// return annotation, in the declaration scope. Annotation types and default
// value types are seeded additively into the parameter accumulators; a
// generator-shaped return annotation on a generator body feeds the yield,
// send, and return accumulators instead.
func (u *FunctionUnit) seedParameters() {
	ev := &evaluator{unit: u, scope: u.declarationScope()}
	def := u.fn.Def
	for _, arg := range def.Args {
		acc := u.scope.Declare(arg.Name)
		if arg.Annotation != nil {
			acc.AddTypes(u, ev.EvaluateAnnotation(arg.Annotation), true)
		}
		if arg.Default != nil && arg.Kind == ast.ArgPositional {
			acc.AddTypes(u, ev.Evaluate(arg.Default), true)
		}
		u.state.noteSpan(arg.Pos(), arg.End(), arg.Name, acc.Types(), arg.Pos())
	}
	if def.Returns == nil {
		return
	}
	rts := ev.EvaluateAnnotation(def.Returns)
	if g, ok := generatorShaped(rts); ok && def.IsGenerator {
		u.yields.AddTypes(u, g.Yield, false)
		u.sends.AddTypes(u, g.Send, false)
		u.ret.AddTypes(u, g.Return, false)
		return
	}
	u.ret.AddTypes(u, rts, false)
}

func generatorShaped(ts types.Set) (*types.Generator, bool) {
	for _, t := range ts.Types() {
		if g, ok := t.(*types.Generator); ok {
			return g, true
		}
	}
	return nil, false
}
