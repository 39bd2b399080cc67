// Package cellset models canonical cell sets and resolves references to them.
package cellset

import (
	"iter"
	"slices"

	"github.com/mohammed-shakir/h3-cellset-analytics/internal/cache/keys"
)

// Cellset is an immutable set of cell ids kept in canonical form:
// sorted ascending with no duplicates. The zero value is the empty set.
type Cellset struct {
	members []string
}

// New canonicalizes members. The input slice is not retained.
func New(members []string) Cellset {
	return Cellset{members: Canonical(members)}
}

// Canonical returns a sorted, de-duplicated copy of members.
func Canonical(members []string) []string {
	out := slices.Clone(members)
	slices.Sort(out)
	return slices.Compact(out)
}

// fromCanonical wraps a slice that is already canonical and owned by the caller.
func fromCanonical(sorted []string) Cellset {
	return Cellset{members: sorted}
}

func (s Cellset) Len() int { return len(s.members) }

func (s Cellset) IsEmpty() bool { return len(s.members) == 0 }

// Members returns an independent copy in canonical order.
func (s Cellset) Members() []string {
	return slices.Clone(s.members)
}

func (s Cellset) All() iter.Seq2[int, string] {
	return slices.All(s.members)
}

func (s Cellset) At(i int) string { return s.members[i] }

func (s Cellset) Contains(id string) bool {
	_, ok := slices.BinarySearch(s.members, id)
	return ok
}

// Handle is the content-addressed cache key for this membership.
func (s Cellset) Handle() string {
	return keys.Handle(s.members)
}

// Intersect returns s ∩ o.
func (s Cellset) Intersect(o Cellset) Cellset {
	out := make([]string, 0, min(len(s.members), len(o.members)))
	merge(s.members, o.members, func(v string, inA, inB bool) {
		if inA && inB {
			out = append(out, v)
		}
	})
	return fromCanonical(out)
}

// Difference returns s − o.
func (s Cellset) Difference(o Cellset) Cellset {
	out := make([]string, 0, len(s.members))
	merge(s.members, o.members, func(v string, inA, inB bool) {
		if inA && !inB {
			out = append(out, v)
		}
	})
	return fromCanonical(out)
}

// Union returns s ∪ o.
func (s Cellset) Union(o Cellset) Cellset {
	out := make([]string, 0, len(s.members)+len(o.members))
	merge(s.members, o.members, func(v string, _, _ bool) {
		out = append(out, v)
	})
	return fromCanonical(out)
}

// merge walks two sorted slices in order, reporting each distinct value once.
func merge(a, b []string, visit func(v string, inA, inB bool)) {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			visit(a[i], true, true)
			i++
			j++
		case a[i] < b[j]:
			visit(a[i], true, false)
			i++
		default:
			visit(b[j], false, true)
			j++
		}
	}
	for ; i < len(a); i++ {
		visit(a[i], true, false)
	}
	for ; j < len(b); j++ {
		visit(b[j], false, true)
	}
}
