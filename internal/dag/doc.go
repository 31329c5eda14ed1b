// Package dag implements the bipartite task-and-file dependency graph, the
// StaleAnalyzer that classifies tasks as MustRun or Skip, and the Scheduler
// that turns a stale set into a stage-gated, dependency-respecting stream
// of ready task IDs.
//
// The graph fuses two edge kinds: explicit edges (task <-> file,
// declared in the agenda) and implicit edges (file -> file, declared in
// the depend document). Implicit edges never create task-to-task edges
// directly; the StaleAnalyzer resolves them into file reachability.
//
// Every cross-reference inside Graph is an integer index, never a pointer
// or owning handle, so the bipartite node tables stay arena-allocated and
// free of cyclic references even though the domain itself is a graph.
package dag
