package model

import (
	"maps"
	"slices"
)

// IDSet is a set of node IDs.
type IDSet map[string]struct{}

// NewIDSet returns a set holding ids.
func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is in the set. A nil set is empty.
func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Add inserts id.
func (s IDSet) Add(id string) { s[id] = struct{}{} }

// Len returns the number of IDs.
func (s IDSet) Len() int { return len(s) }

// Clone returns an independent copy.
func (s IDSet) Clone() IDSet { return maps.Clone(s) }

// Sorted returns the IDs in lexical order.
func (s IDSet) Sorted() []string { return slices.Sorted(maps.Keys(s)) }
