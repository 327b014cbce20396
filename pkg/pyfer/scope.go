package pyfer

import (
	"iter"
	"sort"

	"pyfer/pkg/token"
	"pyfer/pkg/types"
)

type ScopeKind int

const (
	ScopeModule ScopeKind = iota
	ScopeClass
	ScopeFunction
)

// Handle indexes a scope in its arena.
type Handle int

// ScopeTree is the arena all scopes live in. Scopes refer to each other by
// handle, never by owning pointer, so linked scopes cannot form ownership
// cycles and neither side of a link can invalidate the other.
type ScopeTree struct {
	scopes []*Scope
	sched  *Scheduler
}

func NewScopeTree(sched *Scheduler) *ScopeTree {
	return &ScopeTree{sched: sched}
}

func (t *ScopeTree) NewScope(parent *Scope, kind ScopeKind) *Scope {
	s := &Scope{
		tree:   t,
		handle: Handle(len(t.scopes)),
		parent: -1,
		kind:   kind,
		vars:   map[string]*Accumulator{},
	}
	if parent != nil {
		s.parent = parent.handle
	}
	t.scopes = append(t.scopes, s)
	return s
}

func (t *ScopeTree) at(h Handle) *Scope {
	if h < 0 || int(h) >= len(t.scopes) {
		return nil
	}
	return t.scopes[h]
}

// Scope is one lexical binding frame. links holds the closure relation:
// handles of scopes whose same-name accumulators share a family with ours.
type Scope struct {
	tree   *ScopeTree
	handle Handle
	parent Handle
	kind   ScopeKind
	owner  *types.Function // for function scopes
	class  *types.Class    // for class scopes
	vars   map[string]*Accumulator
	links  []Handle
}

func (s *Scope) Kind() ScopeKind        { return s.kind }
func (s *Scope) Owner() *types.Function { return s.owner }
func (s *Scope) Class() *types.Class    { return s.class }
func (s *Scope) Parent() *Scope         { return s.tree.at(s.parent) }

// Declare creates or fetches the accumulator for name in this scope. A
// fresh accumulator immediately joins the family of any same-name
// accumulator in a linked peer.
func (s *Scope) Declare(name string) *Accumulator {
	if acc, ok := s.vars[name]; ok {
		return acc
	}
	acc := newAccumulator(name, s.tree.sched)
	s.vars[name] = acc
	for _, h := range s.links {
		if peer := s.tree.at(h); peer != nil {
			if other, ok := peer.vars[name]; ok {
				acc.merge(other)
			}
		}
	}
	return acc
}

// DeclareLocated is Declare plus a recorded write location for navigation.
func (s *Scope) DeclareLocated(name string, pos token.Pos, u *FunctionUnit) *Accumulator {
	acc := s.Declare(name)
	acc.addWrite(pos, u)
	return acc
}

// TryGet resolves name in this scope or a linked peer, without climbing the
// parent chain.
func (s *Scope) TryGet(name string) (*Accumulator, bool) {
	if acc, ok := s.vars[name]; ok {
		return acc, true
	}
	for _, h := range s.links {
		if peer := s.tree.at(h); peer != nil {
			if acc, ok := peer.vars[name]; ok {
				return acc, true
			}
		}
	}
	return nil, false
}

// Lookup resolves name here, in linked peers, then up the parent chain.
func (s *Scope) Lookup(name string) (*Accumulator, bool) {
	for sc := range s.TowardGlobal() {
		if acc, ok := sc.TryGet(name); ok {
			return acc, true
		}
	}
	return nil, false
}

// TowardGlobal yields the enclosing scopes innermost first, starting with s.
// The sequence is finite and restartable.
func (s *Scope) TowardGlobal() iter.Seq[*Scope] {
	return func(yield func(*Scope) bool) {
		for sc := s; sc != nil; sc = sc.Parent() {
			if !yield(sc) {
				return
			}
		}
	}
}

// Link records the closure relation between both scopes and joins the
// families of accumulators they already share a name for. Names declared
// later join through Declare.
func (s *Scope) Link(other *Scope) {
	if other == nil || s == other {
		return
	}
	if !s.linkedTo(other.handle) {
		s.links = append(s.links, other.handle)
	}
	if !other.linkedTo(s.handle) {
		other.links = append(other.links, s.handle)
	}
	for name, acc := range s.vars {
		if peer, ok := other.vars[name]; ok {
			acc.merge(peer)
		}
	}
}

func (s *Scope) linkedTo(h Handle) bool {
	for _, l := range s.links {
		if l == h {
			return true
		}
	}
	return false
}

// Names lists the names declared directly in this scope, sorted.
func (s *Scope) Names() []string {
	out := make([]string, 0, len(s.vars))
	for name := range s.vars {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
