package pyfer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"pyfer/pkg/ast"
	"pyfer/pkg/parser"
	"pyfer/pkg/scanner"
	"pyfer/pkg/token"
	"pyfer/pkg/types"
)

// Config carries the analysis mode switches, threaded through every unit.
type Config struct {
	CustomDecorators   bool // apply user decorators instead of treating them as identity
	CallSpecialization bool // build closure units per call-site instantiation
	MaxPasses          int  // safety valve for the fixpoint loop; 0 means default
}

type unitKey struct {
	def   ast.NodeID
	scope Handle
}

type specKey struct {
	site ast.NodeID
	def  ast.NodeID
}

// Info is what tooling reads back for one source span.
type Info struct {
	Pos, End   token.Pos
	Name       string
	Types      types.Set
	Definition token.Pos
}

// State owns one module's analysis: the scope arena, the scheduler, the unit
// table, and everything tooling queries afterwards.
type State struct {
	fset *token.FileSet
	file *token.File
	cfg  Config

	builtins *types.Builtins
	sched    *Scheduler
	tree     *ScopeTree
	reporter Reporter
	alloc    *ast.IDAllocator

	mod         *ast.Module
	moduleScope *Scope
	moduleUnit  *FunctionUnit

	units       map[unitKey]*FunctionUnit
	primary     map[*types.Function]*FunctionUnit
	funcs       map[ast.NodeID]*types.Function
	classes     map[ast.NodeID]*types.Class
	classScopes map[*types.Class]*Scope
	specials    map[specKey]*FunctionUnit

	infos map[token.Pos]Info
	errs  []AnalysisError
}

type Option func(*State)

func WithReporter(r Reporter) Option {
	return func(s *State) { s.reporter = r }
}

func NewState(cfg Config, opts ...Option) *State {
	sched := NewScheduler(cfg.MaxPasses)
	s := &State{
		fset:        token.NewFileSet(),
		cfg:         cfg,
		builtins:    types.NewBuiltins(),
		sched:       sched,
		reporter:    defaultReporter(),
		units:       map[unitKey]*FunctionUnit{},
		primary:     map[*types.Function]*FunctionUnit{},
		funcs:       map[ast.NodeID]*types.Function{},
		classes:     map[ast.NodeID]*types.Class{},
		classScopes: map[*types.Class]*Scope{},
		specials:    map[specKey]*FunctionUnit{},
		infos:       map[token.Pos]Info{},
	}
	s.tree = NewScopeTree(sched)
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *State) Builtins() *types.Builtins { return s.builtins }
func (s *State) Scheduler() *Scheduler     { return s.sched }
func (s *State) ModuleScope() *Scope       { return s.moduleScope }
func (s *State) ModuleUnit() *FunctionUnit { return s.moduleUnit }

// Check parses src and analyzes it to fixpoint, returning positioned
// diagnostics. Parse errors are included; the analysis itself degrades
// instead of erroring, so on a healthy run the slice is empty. On
// cancellation everything published so far stands and the interruption is
// reported as a diagnostic.
func (s *State) Check(ctx context.Context, filename, src string) []AnalysisError {
	mod, alloc, err := parser.ParseModule(s.fset, filename, src)
	if err != nil {
		var list scanner.ErrorList
		if errors.As(err, &list) {
			for _, e := range list {
				s.errs = append(s.errs, AnalysisError{Pos: e.Pos, Err: errors.New(e.Msg)})
			}
		} else {
			s.errs = append(s.errs, AnalysisError{Err: err})
		}
	}
	s.file = s.fset.File(mod.Pos())
	s.alloc = alloc
	s.mod = mod
	s.moduleScope = s.tree.NewScope(nil, ScopeModule)
	s.moduleUnit = s.newModuleUnit()
	s.sched.Enqueue(s.moduleUnit)
	if err := s.sched.Run(ctx); err != nil {
		s.errs = append(s.errs, AnalysisError{Err: err})
	}
	return s.errs
}

// Diagnostics returns the collected positioned errors.
func (s *State) Diagnostics() []AnalysisError { return s.errs }

func (s *State) newUnit(fn *types.Function, declaring *FunctionUnit, enclosing *Scope) *FunctionUnit {
	u := &FunctionUnit{
		state:     s,
		fn:        fn,
		declaring: declaring,
		enclosing: enclosing,
		ret:       newAccumulator("return", s.sched),
		yields:    newAccumulator("yield", s.sched),
		sends:     newAccumulator("send", s.sched),
		decoCalls: map[ast.NodeID]*ast.Call{},
		kwRefs:    map[string][]KeywordRef{},
	}
	u.scope = s.tree.NewScope(enclosing, ScopeFunction)
	u.scope.owner = fn
	s.reporter.UnitCreated(u)
	return u
}

func (s *State) newModuleUnit() *FunctionUnit {
	u := &FunctionUnit{
		state:     s,
		ret:       newAccumulator("return", s.sched),
		yields:    newAccumulator("yield", s.sched),
		sends:     newAccumulator("send", s.sched),
		decoCalls: map[ast.NodeID]*ast.Call{},
		kwRefs:    map[string][]KeywordRef{},
	}
	u.scope = s.moduleScope
	s.reporter.UnitCreated(u)
	return u
}

// unitFor returns the standalone unit for def under enclosing, creating it
// on first sight. One standalone unit exists per (definition, enclosing
// scope) pair.
func (s *State) unitFor(def *ast.FunctionDef, declaring *FunctionUnit, enclosing *Scope) *FunctionUnit {
	assert(enclosing != nil, "standalone unit needs an enclosing scope")
	key := unitKey{def: def.ID(), scope: enclosing.handle}
	if u, ok := s.units[key]; ok {
		return u
	}
	fn := s.functionFor(def)
	u := s.newUnit(fn, declaring, enclosing)
	s.units[key] = u
	if _, ok := s.primary[fn]; !ok {
		s.primary[fn] = u
	}
	return u
}

// NewClosureUnit specializes inner for one call-site instantiation: a fresh
// scope, bidirectionally linked to inner's scope, reusing inner's function
// identity and declaring chain. Destroying either unit leaves the other's
// side of the link valid, both scopes live in the arena.
func (s *State) NewClosureUnit(inner *FunctionUnit) *FunctionUnit {
	assertf(inner.fn != nil, "cannot specialize the module unit")
	u := &FunctionUnit{
		state:     s,
		fn:        inner.fn,
		declaring: inner.declaring,
		enclosing: inner.enclosing,
		inner:     inner,
		ret:       newAccumulator("return", s.sched),
		yields:    newAccumulator("yield", s.sched),
		sends:     newAccumulator("send", s.sched),
		decoCalls: map[ast.NodeID]*ast.Call{},
		kwRefs:    map[string][]KeywordRef{},
	}
	u.scope = s.tree.NewScope(inner.enclosing, ScopeFunction)
	u.scope.owner = inner.fn
	u.scope.Link(inner.scope)
	s.reporter.UnitCreated(u)
	return u
}

func (s *State) functionFor(def *ast.FunctionDef) *types.Function {
	if f, ok := s.funcs[def.ID()]; ok {
		return f
	}
	f := types.NewFunction(def)
	s.funcs[def.ID()] = f
	return f
}

// unitOf resolves a function identity to its primary standalone unit.
func (s *State) unitOf(f *types.Function) *FunctionUnit { return s.primary[f] }

// UnitByName finds a unit by its function's name, first match wins. Tooling
// and tests reach units through it.
func (s *State) UnitByName(name string) *FunctionUnit {
	ids := make([]ast.NodeID, 0, len(s.funcs))
	for id := range s.funcs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		if f := s.funcs[id]; f.Name == name {
			return s.primary[f]
		}
	}
	return nil
}

func (s *State) classFor(def *ast.ClassDef, enclosing *Scope) (*types.Class, *Scope) {
	if cls, ok := s.classes[def.ID()]; ok {
		return cls, s.classScopes[cls]
	}
	cls := types.NewClass(def.Name, def)
	sc := s.tree.NewScope(enclosing, ScopeClass)
	sc.class = cls
	s.classes[def.ID()] = cls
	s.classScopes[cls] = sc
	return cls, sc
}

// classScope returns the namespace scope of a user-defined class, nil for
// builtins.
func (s *State) classScope(cls *types.Class) *Scope { return s.classScopes[cls] }

func (s *State) noteSpan(pos, end token.Pos, name string, ts types.Set, def token.Pos) {
	s.infos[pos] = Info{Pos: pos, End: end, Name: name, Types: ts, Definition: def}
}

// InfoAt returns the recorded info for the narrowest span covering the
// 1-based line/column position.
func (s *State) InfoAt(line, col int) (Info, bool) {
	if s.file == nil {
		return Info{}, false
	}
	start := s.file.LineStart(line)
	if !start.IsValid() {
		return Info{}, false
	}
	p := start + token.Pos(col-1)
	var best Info
	found := false
	for _, info := range s.infos {
		if p < info.Pos || p >= info.End {
			continue
		}
		if !found || info.End-info.Pos < best.End-best.Pos {
			best = info
			found = true
		}
	}
	return best, found
}

// TypeAt returns the inferred type set at the position, or the empty set.
func (s *State) TypeAt(line, col int) types.Set {
	info, ok := s.InfoAt(line, col)
	if !ok {
		return types.Empty
	}
	return info.Types
}

// Position resolves a Pos against the checked file.
func (s *State) Position(p token.Pos) token.Position {
	if s.file == nil {
		return token.Position{}
	}
	return s.file.Position(p)
}

// HoverDump renders every recorded named span as "line:col name -> types",
// sorted by position. The hover CLI command prints it.
func (s *State) HoverDump() string {
	keys := make([]token.Pos, 0, len(s.infos))
	for p := range s.infos {
		keys = append(keys, p)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	var b strings.Builder
	for _, p := range keys {
		info := s.infos[p]
		if info.Name == "" {
			continue
		}
		pos := s.Position(info.Pos)
		fmt.Fprintf(&b, "%d:%d %s -> %s\n", pos.Line, pos.Column, info.Name, info.Types)
	}
	return b.String()
}

// Completions aggregates what the engine can offer at a prompt: module-level
// names, class members, and parameter names callers referenced by keyword.
func (s *State) Completions() []string {
	seen := map[string]struct{}{}
	add := func(names ...string) {
		for _, n := range names {
			seen[n] = struct{}{}
		}
	}
	if s.moduleScope != nil {
		add(s.moduleScope.Names()...)
	}
	for _, sc := range s.classScopes {
		add(sc.Names()...)
	}
	for _, u := range s.units {
		add(u.KeywordNames()...)
	}
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
