// Package leveling computes weighted longest-path levels over a DAG.
//
// Levels are used directly as column indices: flow nodes are leveled over
// their sequence and required-gap edges, and chainless data nodes are leveled
// over the data edges among themselves.
//
// [Resolve] assumes acyclic input. Callers that build adjacency from arbitrary
// editor graphs remove back edges first with [BreakCycles].
package leveling

import (
	"container/heap"
	"slices"
)

// Resolve returns, for every id in ids, the longest weighted path length from
// any source: level(n) = max(level(p) + weight(p, n)) over parents p, and 0
// for nodes without parents.
//
// children and parents describe the adjacency; neighbors not in ids are
// ignored. Nodes become ready in Kahn order, and ties between ready nodes are
// broken by the smallest orderKey, so the result is deterministic.
//
// If a cycle slips through, the stranded nodes are resolved last in orderKey
// order from whatever parents already have levels.
func Resolve(
	ids []string,
	children, parents func(string) []string,
	weight func(parent, child string) int,
	orderKey func(string) int,
) map[string]int {
	member := make(map[string]bool, len(ids))
	for _, id := range ids {
		member[id] = true
	}

	indeg := make(map[string]int, len(ids))
	for _, id := range ids {
		for _, p := range uniq(parents(id)) {
			if member[p] && p != id {
				indeg[id]++
			}
		}
	}

	levels := make(map[string]int, len(ids))
	pq := &readyQueue{key: orderKey}
	for _, id := range ids {
		if indeg[id] == 0 {
			heap.Push(pq, id)
		}
	}

	for pq.Len() > 0 {
		id := heap.Pop(pq).(string)
		levels[id] = levelFromParents(id, parents, weight, member, levels)
		for _, c := range uniq(children(id)) {
			if !member[c] || c == id {
				continue
			}
			indeg[c]--
			if indeg[c] == 0 {
				heap.Push(pq, c)
			}
		}
	}

	if len(levels) < len(ids) {
		var stranded []string
		for _, id := range ids {
			if _, ok := levels[id]; !ok {
				stranded = append(stranded, id)
			}
		}
		slices.SortStableFunc(stranded, func(a, b string) int { return orderKey(a) - orderKey(b) })
		for _, id := range stranded {
			levels[id] = levelFromParents(id, parents, weight, member, levels)
		}
	}
	return levels
}

func levelFromParents(
	id string,
	parents func(string) []string,
	weight func(string, string) int,
	member map[string]bool,
	levels map[string]int,
) int {
	level := 0
	for _, p := range parents(id) {
		if !member[p] || p == id {
			continue
		}
		pl, ok := levels[p]
		if !ok {
			continue
		}
		if l := pl + weight(p, id); l > level {
			level = l
		}
	}
	return level
}

// uniq drops repeated neighbors so parallel edges count once toward in-degree.
func uniq(ids []string) []string {
	if len(ids) < 2 {
		return ids
	}
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

type readyQueue struct {
	items []string
	key   func(string) int
}

func (q *readyQueue) Len() int { return len(q.items) }
func (q *readyQueue) Less(i, j int) bool {
	ki, kj := q.key(q.items[i]), q.key(q.items[j])
	if ki != kj {
		return ki < kj
	}
	return q.items[i] < q.items[j]
}
func (q *readyQueue) Swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }
func (q *readyQueue) Push(x any)   { q.items = append(q.items, x.(string)) }
func (q *readyQueue) Pop() any {
	n := len(q.items)
	x := q.items[n-1]
	q.items = q.items[:n-1]
	return x
}
