package types

import (
	"sort"
	"strings"
)

// Set is an immutable-on-read, union-closed collection of type identities.
// The zero value is the empty set; every degradation path in the engine
// produces it. All operations return new sets, the receiver is never mutated.
type Set struct {
	m map[string]Type
}

var Empty = Set{}

func NewSet(ts ...Type) Set {
	if len(ts) == 0 {
		return Empty
	}
	m := make(map[string]Type, len(ts))
	for _, t := range ts {
		if t != nil {
			m[t.Key()] = t
		}
	}
	return Set{m: m}
}

func (s Set) Len() int { return len(s.m) }

func (s Set) IsEmpty() bool { return len(s.m) == 0 }

func (s Set) Contains(t Type) bool {
	if t == nil || s.m == nil {
		return false
	}
	_, ok := s.m[t.Key()]
	return ok
}

// ContainsKey tests membership by stable identity key.
func (s Set) ContainsKey(key string) bool {
	_, ok := s.m[key]
	return ok
}

// Add returns a set also containing t.
func (s Set) Add(t Type) Set {
	if t == nil || s.Contains(t) {
		return s
	}
	m := make(map[string]Type, len(s.m)+1)
	for k, v := range s.m {
		m[k] = v
	}
	m[t.Key()] = t
	return Set{m: m}
}

// Union returns the union of both sets.
func (s Set) Union(other Set) Set {
	if other.IsEmpty() {
		return s
	}
	if s.IsEmpty() {
		return other
	}
	m := make(map[string]Type, len(s.m)+len(other.m))
	for k, v := range s.m {
		m[k] = v
	}
	for k, v := range other.m {
		m[k] = v
	}
	return Set{m: m}
}

// IsSuperset reports whether every member of other is in s.
func (s Set) IsSuperset(other Set) bool {
	for k := range other.m {
		if _, ok := s.m[k]; !ok {
			return false
		}
	}
	return true
}

// Equals reports set equality by identity keys.
func (s Set) Equals(other Set) bool {
	return len(s.m) == len(other.m) && s.IsSuperset(other)
}

// Types returns the members in deterministic (key-sorted) order.
func (s Set) Types() []Type {
	out := make([]Type, 0, len(s.m))
	for _, v := range s.m {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

func (s Set) key() string {
	keys := make([]string, 0, len(s.m))
	for k := range s.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}

func (s Set) String() string {
	if s.IsEmpty() {
		return "Unknown"
	}
	var parts []string
	for _, t := range s.Types() {
		parts = append(parts, t.String())
	}
	return strings.Join(parts, " | ")
}
