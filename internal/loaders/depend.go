package loaders

import (
	"sort"

	"taskloom/internal/docs"
)

// LoadDepend reads, parses, and validates the depend document at path.
// A missing file yields an empty map, not an error.
func LoadDepend(path string) (map[string][]string, error) {
	d, err := docs.LoadDepend(path)
	if err != nil {
		return nil, err
	}
	return NormalizeDepend(d)
}

// NormalizeDepend validates a parsed Depend document, reporting self-loops
// and cycles with the offending key before the map ever reaches
// dag.Build (which would otherwise only report a generic file-cycle).
func NormalizeDepend(d docs.Depend) (map[string][]string, error) {
	for k, deps := range d {
		for _, v := range deps {
			if v == k {
				return nil, loadf(ErrSelfLoop, k, "depends on itself")
			}
		}
	}

	if cycle := findDependCycle(d); cycle != "" {
		return nil, loadf(ErrDependCycle, cycle, "cycle in implicit dependency graph")
	}

	out := make(map[string][]string, len(d))
	for k, v := range d {
		out[k] = append([]string(nil), v...)
	}
	return out, nil
}

// findDependCycle runs a deterministic DFS over the "depends on" relation
// and returns the first key found to participate in a cycle, or "" if
// the graph is acyclic.
func findDependCycle(d map[string][]string) string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(d))

	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var found string
	var visit func(node string) bool
	visit = func(node string) bool {
		color[node] = gray
		deps := append([]string(nil), d[node]...)
		sort.Strings(deps)
		for _, dep := range deps {
			switch color[dep] {
			case gray:
				found = dep
				return true
			case white:
				if visit(dep) {
					return true
				}
			}
		}
		color[node] = black
		return false
	}

	for _, k := range keys {
		if color[k] == white {
			if visit(k) {
				return found
			}
		}
	}
	return ""
}
