package leveling

// Arc is a directed adjacency between two node IDs.
type Arc struct {
	From, To string
}

// BreakCycles finds the back edges of a depth-first traversal over ids, in
// ids order, following children restricted to ids. Removing the returned arcs
// leaves the adjacency acyclic. Self loops are always reported.
func BreakCycles(ids []string, children func(string) []string) []Arc {
	const (
		white = iota
		gray
		black
	)

	member := make(map[string]bool, len(ids))
	for _, id := range ids {
		member[id] = true
	}

	color := make(map[string]int, len(ids))
	var back []Arc

	var dfs func(node string)
	dfs = func(node string) {
		color[node] = gray
		for _, child := range children(node) {
			if !member[child] {
				continue
			}
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				back = append(back, Arc{From: node, To: child})
			}
		}
		color[node] = black
	}

	for _, id := range ids {
		if color[id] == white {
			dfs(id)
		}
	}
	return back
}

// Without returns a children function that hides the given arcs.
func Without(children func(string) []string, arcs []Arc) func(string) []string {
	if len(arcs) == 0 {
		return children
	}
	drop := make(map[Arc]bool, len(arcs))
	for _, a := range arcs {
		drop[a] = true
	}
	return func(id string) []string {
		var out []string
		for _, c := range children(id) {
			if !drop[Arc{From: id, To: c}] {
				out = append(out, c)
			}
		}
		return out
	}
}

// Reverse turns a set of arcs into the parent-side view used by [Without]
// when filtering a parents function.
func Reverse(arcs []Arc) []Arc {
	out := make([]Arc, len(arcs))
	for i, a := range arcs {
		out[i] = Arc{From: a.To, To: a.From}
	}
	return out
}
