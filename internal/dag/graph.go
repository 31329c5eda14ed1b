package dag

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"taskloom/internal/filestat"
	"taskloom/internal/model"
)

// Graph is an immutable, validated bipartite dependency graph over tasks
// and files. It is safe for concurrent read access. Runtime task status is
// not kept here: each Scheduler holds it in its own map.
type Graph struct {
	taskNodes  []*TaskNode
	taskByID   map[model.TaskID]*TaskNode
	fileNodes  []*FileNode
	fileByPath map[string]*FileNode

	// Explicit bipartite edges, recorded per task in file-index terms.
	taskInputFiles  [][]int // by task canonical index
	taskOutputFiles [][]int // by task canonical index

	fileProducer  []int   // by file canonical index; -1 if none
	fileConsumers [][]int // by file canonical index; task indices, sorted

	// Task DAG induced by shared files: outgoing[i] are successor tasks.
	taskOutgoing [][]int
	taskIncoming [][]int

	// Implicit file DAG: outgoing[i] = files whose freshness depends on i.
	fileOutgoing [][]int
	fileIncoming [][]int // incoming[i] = files i depends on

	hash GraphHash
}

// Build validates and constructs a Graph from a normalized task list and
// the depend document's file dependency map (dependent path -> list of
// paths it depends on, exactly as the depend document declares it).
//
// tasks must already carry a resolved Stage (AgendaLoader's job); Build
// re-derives the task DAG from shared files and rejects a stage
// assignment inconsistent with it.
func Build(tasks []model.Task, implicitDeps map[string][]string) (*Graph, error) {
	taskByID := make(map[model.TaskID]*TaskNode, len(tasks))
	taskNodes := make([]*TaskNode, 0, len(tasks))
	for _, t := range tasks {
		id := t.ID()
		if _, exists := taskByID[id]; exists {
			// Same declarative content appearing twice is not itself an
			// error (two identical tasks are indistinguishable and safe
			// to dedupe); skip the duplicate silently by keeping the first.
			continue
		}
		node := &TaskNode{ID: id, Task: t, Status: StatusPending}
		taskByID[id] = node
		taskNodes = append(taskNodes, node)
	}

	sort.Slice(taskNodes, func(i, j int) bool { return taskNodes[i].ID < taskNodes[j].ID })
	for i, n := range taskNodes {
		n.canonicalIndex = i
	}
	taskIndexByID := make(map[model.TaskID]int, len(taskNodes))
	for _, n := range taskNodes {
		taskIndexByID[n.ID] = n.canonicalIndex
	}

	// Collect every file path mentioned anywhere (explicit or implicit).
	filePaths := make(map[string]struct{})
	for _, n := range taskNodes {
		for _, p := range n.Task.Inputs {
			filePaths[p] = struct{}{}
		}
		for _, p := range n.Task.Outputs {
			filePaths[p] = struct{}{}
		}
	}
	for k, vs := range implicitDeps {
		filePaths[k] = struct{}{}
		for _, v := range vs {
			filePaths[v] = struct{}{}
		}
	}

	sortedPaths := make([]string, 0, len(filePaths))
	for p := range filePaths {
		sortedPaths = append(sortedPaths, p)
	}
	sort.Strings(sortedPaths)

	fileByPath := make(map[string]*FileNode, len(sortedPaths))
	fileNodes := make([]*FileNode, 0, len(sortedPaths))
	for i, p := range sortedPaths {
		n := &FileNode{Path: p, Initial: true, canonicalIndex: i}
		fileByPath[p] = n
		fileNodes = append(fileNodes, n)
	}

	fileProducer := make([]int, len(fileNodes))
	for i := range fileProducer {
		fileProducer[i] = -1
	}
	fileConsumers := make([][]int, len(fileNodes))
	taskInputFiles := make([][]int, len(taskNodes))
	taskOutputFiles := make([][]int, len(taskNodes))

	for _, n := range taskNodes {
		ti := n.canonicalIndex
		for _, p := range n.Task.Inputs {
			fi := fileByPath[p].canonicalIndex
			taskInputFiles[ti] = append(taskInputFiles[ti], fi)
			fileConsumers[fi] = append(fileConsumers[fi], ti)
		}
		for _, p := range n.Task.Outputs {
			fi := fileByPath[p].canonicalIndex
			taskOutputFiles[ti] = append(taskOutputFiles[ti], fi)
			if fileProducer[fi] != -1 {
				return nil, wrapf(ErrDuplicateProducer, "%q produced by both %q and %q",
					p, taskNodes[fileProducer[fi]].ID, n.ID)
			}
			fileProducer[fi] = ti
			fileNodes[fi].Initial = false
		}
	}
	for i := range fileConsumers {
		sort.Ints(fileConsumers[i])
	}

	// Task DAG: an edge producer -> consumer for every file passed between tasks.
	taskOutgoing := make([][]int, len(taskNodes))
	taskIncoming := make([][]int, len(taskNodes))
	taskEdgeSeen := make(map[[2]int]struct{})
	for fi, producer := range fileProducer {
		if producer == -1 {
			continue
		}
		for _, consumer := range fileConsumers[fi] {
			if consumer == producer {
				continue
			}
			key := [2]int{producer, consumer}
			if _, ok := taskEdgeSeen[key]; ok {
				continue
			}
			taskEdgeSeen[key] = struct{}{}
			taskOutgoing[producer] = append(taskOutgoing[producer], consumer)
			taskIncoming[consumer] = append(taskIncoming[consumer], producer)
		}
	}
	for i := range taskOutgoing {
		sort.Ints(taskOutgoing[i])
	}
	for i := range taskIncoming {
		sort.Ints(taskIncoming[i])
	}

	// Implicit file DAG: "key depends on values" -> edge value -> key.
	fileOutgoing := make([][]int, len(fileNodes))
	fileIncoming := make([][]int, len(fileNodes))
	implicitSeen := make(map[[2]int]struct{})
	dependentKeys := make([]string, 0, len(implicitDeps))
	for k := range implicitDeps {
		dependentKeys = append(dependentKeys, k)
	}
	sort.Strings(dependentKeys)
	for _, k := range dependentKeys {
		to := fileByPath[k].canonicalIndex
		deps := append([]string(nil), implicitDeps[k]...)
		sort.Strings(deps)
		for _, v := range deps {
			from := fileByPath[v].canonicalIndex
			key := [2]int{from, to}
			if _, ok := implicitSeen[key]; ok {
				continue
			}
			implicitSeen[key] = struct{}{}
			fileOutgoing[from] = append(fileOutgoing[from], to)
			fileIncoming[to] = append(fileIncoming[to], from)
		}
	}
	for i := range fileOutgoing {
		sort.Ints(fileOutgoing[i])
	}
	for i := range fileIncoming {
		sort.Ints(fileIncoming[i])
	}

	g := &Graph{
		taskNodes:       taskNodes,
		taskByID:        taskByID,
		fileNodes:       fileNodes,
		fileByPath:      fileByPath,
		taskInputFiles:  taskInputFiles,
		taskOutputFiles: taskOutputFiles,
		fileProducer:    fileProducer,
		fileConsumers:   fileConsumers,
		taskOutgoing:    taskOutgoing,
		taskIncoming:    taskIncoming,
		fileOutgoing:    fileOutgoing,
		fileIncoming:    fileIncoming,
	}

	if err := validateAcyclic(taskOutgoing, taskIncoming, func(i int) string { return string(taskNodes[i].ID) }, ErrTaskCycle); err != nil {
		return nil, err
	}
	if err := validateAcyclic(fileOutgoing, fileIncoming, func(i int) string { return fileNodes[i].Path }, ErrFileCycle); err != nil {
		return nil, err
	}
	if err := g.validateStageOrder(); err != nil {
		return nil, err
	}

	g.hash = g.computeHash()
	return g, nil
}

// validateStageOrder enforces spec.md §3: if task A's output is task B's
// input then stage(A) <= stage(B).
func (g *Graph) validateStageOrder() error {
	for producer, successors := range g.taskOutgoing {
		for _, consumer := range successors {
			if g.taskNodes[producer].Task.Stage > g.taskNodes[consumer].Task.Stage {
				return wrapf(ErrInvalidGraph, "stage order violated: %q (stage %d) produces input to %q (stage %d)",
					g.taskNodes[producer].ID, g.taskNodes[producer].Task.Stage,
					g.taskNodes[consumer].ID, g.taskNodes[consumer].Task.Stage)
			}
		}
	}
	return nil
}

// Hash returns the graph's stable identity.
func (g *Graph) Hash() GraphHash { return g.hash }

// TaskNodeByID returns a task node by its stable ID.
func (g *Graph) TaskNodeByID(id model.TaskID) (*TaskNode, bool) {
	n, ok := g.taskByID[id]
	return n, ok
}

// Tasks returns every task node in canonical order.
func (g *Graph) Tasks() []*TaskNode {
	out := make([]*TaskNode, len(g.taskNodes))
	copy(out, g.taskNodes)
	return out
}

// TasksConsuming returns the IDs of every task declaring path as an input.
func (g *Graph) TasksConsuming(path string) []model.TaskID {
	fn, ok := g.fileByPath[path]
	if !ok {
		return nil
	}
	out := make([]model.TaskID, 0, len(g.fileConsumers[fn.canonicalIndex]))
	for _, ti := range g.fileConsumers[fn.canonicalIndex] {
		out = append(out, g.taskNodes[ti].ID)
	}
	return out
}

// TaskProducing returns the ID of the task producing path, if any.
func (g *Graph) TaskProducing(path string) (model.TaskID, bool) {
	fn, ok := g.fileByPath[path]
	if !ok {
		return "", false
	}
	ti := g.fileProducer[fn.canonicalIndex]
	if ti == -1 {
		return "", false
	}
	return g.taskNodes[ti].ID, true
}

// Inputs returns the declared input paths of id, in declaration order.
func (g *Graph) Inputs(id model.TaskID) []string {
	n, ok := g.taskByID[id]
	if !ok {
		return nil
	}
	return append([]string(nil), n.Task.Inputs...)
}

// Outputs returns the declared output paths of id, in declaration order.
func (g *Graph) Outputs(id model.TaskID) []string {
	n, ok := g.taskByID[id]
	if !ok {
		return nil
	}
	return append([]string(nil), n.Task.Outputs...)
}

// StageOf returns the stage index of id.
func (g *Graph) StageOf(id model.TaskID) (int, bool) {
	n, ok := g.taskByID[id]
	if !ok {
		return 0, false
	}
	return n.Task.Stage, true
}

// Predecessors returns the task IDs that must complete before id may run,
// per the explicit task DAG.
func (g *Graph) Predecessors(id model.TaskID) []model.TaskID {
	n, ok := g.taskByID[id]
	if !ok {
		return nil
	}
	out := make([]model.TaskID, 0, len(g.taskIncoming[n.canonicalIndex]))
	for _, pi := range g.taskIncoming[n.canonicalIndex] {
		out = append(out, g.taskNodes[pi].ID)
	}
	return out
}

// Successors returns the task IDs that depend on id, per the explicit task DAG.
func (g *Graph) Successors(id model.TaskID) []model.TaskID {
	n, ok := g.taskByID[id]
	if !ok {
		return nil
	}
	out := make([]model.TaskID, 0, len(g.taskOutgoing[n.canonicalIndex]))
	for _, si := range g.taskOutgoing[n.canonicalIndex] {
		out = append(out, g.taskNodes[si].ID)
	}
	return out
}

// ImplicitClosure returns every file transitively reachable from path by
// walking "depends on" relationships declared in the depend document: the
// set of files whose change should be treated as a change to path itself.
func (g *Graph) ImplicitClosure(path string) map[string]struct{} {
	out := make(map[string]struct{})
	fn, ok := g.fileByPath[path]
	if !ok {
		return out
	}

	visited := make([]bool, len(g.fileNodes))
	var stack []int
	stack = append(stack, g.fileIncoming[fn.canonicalIndex]...)
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[i] {
			continue
		}
		visited[i] = true
		out[g.fileNodes[i].Path] = struct{}{}
		stack = append(stack, g.fileIncoming[i]...)
	}
	return out
}

// InputWatchSet returns every path whose stored stat the StaleAnalyzer
// consults when deciding whether id must run: id's declared inputs plus
// the implicit closure of each, deduplicated and sorted. Callers persist
// a baseline stat for every one of these paths once id finishes
// successfully, so the next Analyze pass has something to compare
// against instead of treating them as never-seen.
func (g *Graph) InputWatchSet(id model.TaskID) []string {
	seen := make(map[string]struct{})
	for _, in := range g.Inputs(id) {
		seen[in] = struct{}{}
		for p := range g.ImplicitClosure(in) {
			seen[p] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// FileStatAt returns the file node's stat if its HasStat flag is set.
// Build records no stats on file nodes, so for a freshly built graph this
// reports false.
func (g *Graph) FileStatAt(path string) (filestat.Stat, bool) {
	fn, ok := g.fileByPath[path]
	if !ok || !fn.HasStat {
		return filestat.Stat{}, false
	}
	return fn.Stat, true
}

// WatchPaths returns every path whose edit the reactor should treat as a
// potential source of staleness: every initial file (not produced by any
// task in this graph) plus every file named only in the depend document
// (an implicit-edge endpoint with no task on either side). Task outputs
// are deliberately excluded — the tool itself writes those, and watching
// them would feed every task completion back into the reactor as a
// spurious invalidation of its own output.
func (g *Graph) WatchPaths() []string {
	out := make([]string, 0, len(g.fileNodes))
	for _, n := range g.fileNodes {
		if n.Initial {
			out = append(out, n.Path)
		}
	}
	sort.Strings(out)
	return out
}

// TopologicalOrder returns a deterministic topological ordering of task IDs.
func (g *Graph) TopologicalOrder() []model.TaskID {
	order := topoOrderIndices(g.taskOutgoing, g.taskIncoming)
	out := make([]model.TaskID, 0, len(order))
	for _, i := range order {
		out = append(out, g.taskNodes[i].ID)
	}
	return out
}

func (g *Graph) computeHash() GraphHash {
	h := sha256.New()
	wf := func(data []byte) {
		n := uint64(len(data))
		prefix := []byte{byte(n >> 56), byte(n >> 48), byte(n >> 40), byte(n >> 32), byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)}
		h.Write(prefix)
		h.Write(data)
	}

	wf([]byte{byte(len(g.taskNodes))})
	for _, n := range g.taskNodes {
		wf([]byte(n.ID))
	}
	wf([]byte{byte(len(g.fileNodes))})
	for _, n := range g.fileNodes {
		wf([]byte(n.Path))
	}
	for ti, succs := range g.taskOutgoing {
		for _, si := range succs {
			wf([]byte(g.taskNodes[ti].ID))
			wf([]byte(g.taskNodes[si].ID))
		}
	}
	for fi, succs := range g.fileOutgoing {
		for _, si := range succs {
			wf([]byte(g.fileNodes[fi].Path))
			wf([]byte(g.fileNodes[si].Path))
		}
	}

	return GraphHash(hex.EncodeToString(h.Sum(nil)))
}
