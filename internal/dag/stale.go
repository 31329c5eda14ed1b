package dag

import (
	"taskloom/internal/filestat"
	"taskloom/internal/model"
)

// Analyze runs the StaleAnalyzer: a single pass over the task DAG in
// topological order that classifies every task as MustRun or Skip.
//
// A task MustRun if any of its declared outputs is missing on disk, any
// of its declared inputs (or anything in that input's implicit closure)
// has a stat differing from what store last recorded, or any of its
// predecessors in the explicit task DAG MustRun. Staleness is an
// equality test against the stored stat, not a "newer than" comparison:
// a file that moved backward in time (a checkout, a restored backup)
// is just as stale as one that moved forward.
func Analyze(g *Graph, store *filestat.Store) (map[model.TaskID]bool, error) {
	mustRun := make(map[model.TaskID]bool, len(g.taskNodes))
	observedCache := make(map[string]filestat.Stat)
	existsCache := make(map[string]bool)

	observe := func(path string) (filestat.Stat, bool, error) {
		if st, ok := observedCache[path]; ok {
			return st, existsCache[path], nil
		}
		st, exists, err := filestat.Observe(path)
		if err != nil {
			return filestat.Stat{}, false, err
		}
		observedCache[path] = st
		existsCache[path] = exists
		return st, exists, nil
	}

	isStale := func(path string) (bool, error) {
		stat, exists, err := observe(path)
		if err != nil {
			return false, err
		}
		stored, hadStored := store.Get(path)
		if !exists {
			return true, nil
		}
		if !hadStored {
			return true, nil
		}
		return stored != stat, nil
	}

	for _, id := range g.TopologicalOrder() {
		must := false

		for _, pred := range g.Predecessors(id) {
			if mustRun[pred] {
				must = true
				break
			}
		}

		if !must {
			for _, out := range g.Outputs(id) {
				_, exists, err := observe(out)
				if err != nil {
					return nil, err
				}
				if !exists {
					must = true
					break
				}
			}
		}

		if !must {
		inputs:
			for _, in := range g.Inputs(id) {
				stale, err := isStale(in)
				if err != nil {
					return nil, err
				}
				if stale {
					must = true
					break
				}
				for closurePath := range g.ImplicitClosure(in) {
					stale, err := isStale(closurePath)
					if err != nil {
						return nil, err
					}
					if stale {
						must = true
						break inputs
					}
				}
			}
		}

		mustRun[id] = must
	}

	return mustRun, nil
}
