package pyfer

import (
	"pyfer/pkg/token"
	"pyfer/pkg/types"
)

// Write is one recorded write into an accumulator, kept for navigation.
type Write struct {
	Unit *FunctionUnit
	Pos  token.Pos
}

// Accumulator is the monotonic, append-only store of type sets observed for
// one binding. The set only grows; it is never replaced or cleared within a
// build generation.
//
// Accumulators form union-find families: linking two scopes merges their
// same-name accumulators into one family, so a write on either side of a
// closure link is visible from both without any graph traversal per write.
type Accumulator struct {
	name   string
	parent *Accumulator // union-find edge, nil at the family root
	sched  *Scheduler

	set    types.Set
	deps   map[*FunctionUnit]struct{}
	writes []Write
}

func newAccumulator(name string, sched *Scheduler) *Accumulator {
	return &Accumulator{name: name, sched: sched, deps: map[*FunctionUnit]struct{}{}}
}

func (a *Accumulator) Name() string { return a.name }

func (a *Accumulator) root() *Accumulator {
	r := a
	for r.parent != nil {
		r = r.parent
	}
	for a.parent != nil {
		next := a.parent
		a.parent = r
		a = next
	}
	return r
}

// AddTypes unions ts into the family's set and reports whether it grew.
// A growing write re-enqueues every registered dependent except the writer.
// declare marks a declaration-site write rather than a mention.
func (a *Accumulator) AddTypes(u *FunctionUnit, ts types.Set, declare bool) bool {
	r := a.root()
	if r.set.IsSuperset(ts) {
		return false
	}
	r.set = r.set.Union(ts)
	for d := range r.deps {
		if d != u {
			r.sched.Enqueue(d)
		}
	}
	return true
}

// Types is the read-only view of the family's current set.
func (a *Accumulator) Types() types.Set { return a.root().set }

// AddDependency registers u for re-analysis when the set grows.
func (a *Accumulator) AddDependency(u *FunctionUnit) {
	if u == nil {
		return
	}
	a.root().deps[u] = struct{}{}
}

func (a *Accumulator) addWrite(pos token.Pos, u *FunctionUnit) {
	r := a.root()
	r.writes = append(r.writes, Write{Unit: u, Pos: pos})
}

// Writes returns the recorded write locations, oldest first.
func (a *Accumulator) Writes() []Write { return a.root().writes }

// DefinitionPos is the earliest recorded write location, for go-to-definition.
func (a *Accumulator) DefinitionPos() token.Pos {
	if ws := a.root().writes; len(ws) > 0 {
		return ws[0].Pos
	}
	return token.NoPos
}

// merge joins the two families. Types, dependents, and write locations are
// combined at the surviving root.
func (a *Accumulator) merge(b *Accumulator) {
	ra, rb := a.root(), b.root()
	if ra == rb {
		return
	}
	ra.set = ra.set.Union(rb.set)
	for d := range rb.deps {
		ra.deps[d] = struct{}{}
	}
	ra.writes = append(ra.writes, rb.writes...)
	rb.deps = nil
	rb.writes = nil
	rb.parent = ra
}
