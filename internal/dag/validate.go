package dag

import "container/heap"

type intMinHeap []int

func (h intMinHeap) Len() int           { return len(h) }
func (h intMinHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h intMinHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *intMinHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *intMinHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// validateAcyclic proves a directed graph given as outgoing/incoming
// adjacency lists (by index) has no cycle, using Kahn's algorithm. name
// labels an index for the error message; kind distinguishes which of the
// graph's two DAGs (task or file) produced the violation.
func validateAcyclic(outgoing, incoming [][]int, name func(int) string, kind error) error {
	order := topoOrderIndices(outgoing, incoming)
	if len(order) == len(outgoing) {
		return nil
	}

	cycle := findCycleDeterministic(outgoing)
	names := make([]string, 0, len(cycle))
	for _, idx := range cycle {
		names = append(names, name(idx))
	}
	return cycleError(kind, names)
}

// topoOrderIndices returns a deterministic topological ordering of node
// indices over the adjacency described by outgoing/incoming. The ready
// queue is a min-heap by index, so ties resolve to the lowest index first.
func topoOrderIndices(outgoing, incoming [][]int) []int {
	indeg := make([]int, len(outgoing))
	for i, preds := range incoming {
		indeg[i] = len(preds)
	}

	ready := &intMinHeap{}
	heap.Init(ready)
	for i := range indeg {
		if indeg[i] == 0 {
			heap.Push(ready, i)
		}
	}

	out := make([]int, 0, len(indeg))
	for ready.Len() > 0 {
		n := heap.Pop(ready).(int)
		out = append(out, n)
		for _, m := range outgoing[n] {
			indeg[m]--
			if indeg[m] == 0 {
				heap.Push(ready, m)
			}
		}
	}
	return out
}

// findCycleDeterministic performs a deterministic DFS over canonical
// indices to extract one cycle witness. It does not enumerate every
// cycle, only a single stable one.
func findCycleDeterministic(outgoing [][]int) []int {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	color := make([]int, len(outgoing))
	parent := make([]int, len(outgoing))
	for i := range parent {
		parent[i] = -1
	}

	var cycle []int

	var dfs func(u int) bool
	dfs = func(u int) bool {
		color[u] = gray
		for _, v := range outgoing[u] { // already sorted
			if color[v] == white {
				parent[v] = u
				if dfs(v) {
					return true
				}
				continue
			}
			if color[v] == gray {
				cycle = append(cycle, v)
				cur := u
				for cur != -1 && cur != v {
					cycle = append(cycle, cur)
					cur = parent[cur]
				}
				cycle = append(cycle, v)
				return true
			}
		}
		color[u] = black
		return false
	}

	for i := 0; i < len(outgoing); i++ {
		if color[i] != white {
			continue
		}
		if dfs(i) {
			break
		}
	}

	if len(cycle) == 0 {
		return nil
	}

	rev := make([]int, len(cycle))
	for i := range cycle {
		rev[i] = cycle[len(cycle)-1-i]
	}
	return rev
}
