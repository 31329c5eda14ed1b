package reactor

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"taskloom/internal/dag"
	"taskloom/internal/filestat"
	"taskloom/internal/loaders"
	"taskloom/internal/model"
	"taskloom/internal/runner"
	"taskloom/internal/trace"
	"taskloom/internal/watch"
)

// Config bundles everything a Reactor needs to own a run, offline or
// online.
type Config struct {
	AgendaPath string
	DependPath string
	CachePath  string
	WorkDir    string
	Workers    int
	Runner     runner.TaskRunner
	Watch      watch.FileWatch
	Rec        trace.Sink
}

// Reactor is the single-owner driver of spec.md §4.6: it holds the only
// mutable reference to the current Graph, Scheduler, and FileStat store,
// and drives them forward exclusively from the goroutine running Run.
// Worker goroutines never touch this state; they receive argv and a
// working directory and report back an outcome.
type Reactor struct {
	cfg   Config
	store *filestat.Store

	graph      *dag.Graph
	sched      *dag.Scheduler
	procedures map[string]model.Procedure

	watched map[string]bool
	inflight map[model.TaskID]context.CancelFunc

	pending []dispatchJob
}

type dispatchJob struct {
	id   model.TaskID
	ctx  context.Context
	argv []string
	err  error
}

type taskResult struct {
	id      model.TaskID
	outcome outcome
}

// New performs the initial load: agenda and depend documents, FileStat
// cache, Graph build, and the first StaleAnalyzer pass. A load failure
// here is the one case spec.md §7 treats as fatal for the Reactor itself;
// once running, a bad rebuild leaves the previous good graph in force.
func New(cfg Config) (*Reactor, error) {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	store, cacheErr := filestat.Load(cfg.CachePath)
	if cacheErr != nil {
		slog.Warn("filestat cache unusable, starting empty", "path", cfg.CachePath, "err", cacheErr)
	}

	r := &Reactor{
		cfg:      cfg,
		store:    store,
		watched:  make(map[string]bool),
		inflight: make(map[model.TaskID]context.CancelFunc),
	}

	loaded, err := loaders.Load(cfg.AgendaPath, cfg.DependPath)
	if err != nil {
		return nil, fmt.Errorf("initial load: %w", err)
	}
	mustRun, err := dag.Analyze(loaded.Graph, r.store)
	if err != nil {
		return nil, fmt.Errorf("initial stale analysis: %w", err)
	}

	r.graph = loaded.Graph
	r.procedures = loaded.Agenda.Procedures
	r.sched = dag.NewScheduler(loaded.Graph)
	r.sched.Seed(mustRun)

	return r, nil
}

// Run drives the graph to quiescence and, in online mode, keeps looping
// past it: it returns only on ctx cancellation (online) or once drained
// with no pending events (offline).
func (r *Reactor) Run(ctx context.Context, online bool) (*dag.RunResult, error) {
	result := &dag.RunResult{
		GraphHash:      r.graph.Hash(),
		FinalStatus:    make(map[model.TaskID]dag.TaskStatus),
		FailureReasons: make(map[model.TaskID]string),
	}

	for _, n := range r.graph.Tasks() {
		if r.sched.Status(n.ID) == dag.StatusSkipped {
			trace.SafeRecord(r.cfg.Rec, trace.TraceEvent{Kind: trace.EventTaskSkipped, TaskID: n.ID.String(), Reason: "Fresh"})
		}
	}

	jobs := make(chan dispatchJob)
	results := make(chan taskResult)

	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()
	done := make(chan struct{})
	for i := 0; i < r.cfg.Workers; i++ {
		go r.work(workerCtx, jobs, results, done)
	}
	defer func() {
		close(jobs)
		for i := 0; i < r.cfg.Workers; i++ {
			<-done
		}
	}()

	if err := r.registerWatches(); err != nil {
		return nil, fmt.Errorf("registering file watches: %w", err)
	}

	for {
		for {
			id, ok := r.sched.NextReady()
			if !ok {
				break
			}
			result.DispatchOrder = append(result.DispatchOrder, id)
			trace.SafeRecord(r.cfg.Rec, trace.TraceEvent{Kind: trace.EventTaskRunning, TaskID: id.String()})
			r.pending = append(r.pending, r.prepareDispatch(ctx, id))
		}

		if r.sched.Drained() && len(r.inflight) == 0 && len(r.pending) == 0 {
			if err := filestat.Save(r.cfg.CachePath, r.store); err != nil {
				slog.Warn("persisting filestat cache", "path", r.cfg.CachePath, "err", err)
			}
			if !online {
				for _, n := range r.graph.Tasks() {
					result.FinalStatus[n.ID] = r.sched.Status(n.ID)
				}
				return result, nil
			}
		}

		var sendCh chan<- dispatchJob
		var head dispatchJob
		if len(r.pending) > 0 {
			sendCh = jobs
			head = r.pending[0]
		}

		select {
		case <-ctx.Done():
			for _, cancel := range r.inflight {
				cancel()
			}
			for _, n := range r.graph.Tasks() {
				result.FinalStatus[n.ID] = r.sched.Status(n.ID)
			}
			return result, ctx.Err()

		case sendCh <- head:
			r.pending = r.pending[1:]

		case res := <-results:
			r.handleCompletion(result, res)

		case ev, ok := <-r.cfg.Watch.Events():
			if !ok {
				continue
			}
			r.handleEvent(ev)

		case err, ok := <-r.cfg.Watch.Errors():
			if ok {
				slog.Warn("filesystem watch error", "err", err)
			}
		}
	}
}

func (r *Reactor) registerWatches() error {
	want := r.watchSet()
	for p := range want {
		if err := r.cfg.Watch.Add(p); err != nil {
			return err
		}
	}
	r.watched = want
	return nil
}

func (r *Reactor) watchSet() map[string]bool {
	want := make(map[string]bool)
	for _, p := range r.graph.WatchPaths() {
		want[p] = true
	}
	want[r.cfg.AgendaPath] = true
	if r.cfg.DependPath != "" {
		want[r.cfg.DependPath] = true
	}
	return want
}

func (r *Reactor) prepareDispatch(ctx context.Context, id model.TaskID) dispatchJob {
	taskCtx, cancel := context.WithCancel(ctx)
	r.inflight[id] = cancel

	node, _ := r.graph.TaskNodeByID(id)
	proc, ok := r.procedures[node.Task.Proc]
	if !ok {
		return dispatchJob{id: id, ctx: taskCtx, err: fmt.Errorf("undefined procedure %q", node.Task.Proc)}
	}
	argv, err := node.Task.EffectiveCommand(proc)
	if err != nil {
		return dispatchJob{id: id, ctx: taskCtx, err: err}
	}
	return dispatchJob{id: id, ctx: taskCtx, argv: argv}
}

func (r *Reactor) work(ctx context.Context, jobs <-chan dispatchJob, results chan<- taskResult, done chan<- struct{}) {
	defer func() { done <- struct{}{} }()
	for job := range jobs {
		out := r.execute(job)
		select {
		case results <- taskResult{id: job.id, outcome: out}:
		case <-ctx.Done():
			return
		}
	}
}

func (r *Reactor) execute(job dispatchJob) outcome {
	if job.err != nil {
		return outcome{kind: outcomeSpawnError, spawnErrKind: "UnboundParameter"}
	}

	node, ok := r.graph.TaskNodeByID(job.id)
	if !ok {
		// The graph was rebuilt out from under this in-flight job; its
		// result is meaningless and handleCompletion will discard it.
		return outcome{kind: outcomeCancelled}
	}

	res, err := r.cfg.Runner.Run(job.ctx, job.argv, r.cfg.WorkDir)
	if err != nil {
		if job.ctx.Err() != nil {
			return outcome{kind: outcomeCancelled}
		}
		if se, ok := err.(*runner.SpawnError); ok {
			return outcome{kind: outcomeSpawnError, spawnErrKind: string(se.Kind)}
		}
		return outcome{kind: outcomeSpawnError, spawnErrKind: "Other"}
	}
	if res.ExitCode != 0 {
		return outcome{kind: outcomeNonZeroExit, exitCode: res.ExitCode}
	}

	stats := make(map[string]filestat.Stat, len(node.Task.Outputs)+len(node.Task.Inputs))
	for _, out := range node.Task.Outputs {
		path := out
		if !filepath.IsAbs(path) {
			path = filepath.Join(r.cfg.WorkDir, path)
		}
		st, exists, err := filestat.Observe(path)
		if err != nil || !exists {
			return outcome{kind: outcomeMissingOutput, missingPath: out}
		}
		stats[out] = st
	}

	// Also baseline the inputs this task read (and their implicit
	// closure): the StaleAnalyzer treats a path absent from the store as
	// stale, so a task with no recorded input stats would MustRun on
	// every future pass even with nothing changed.
	for _, in := range r.graph.InputWatchSet(node.ID) {
		path := in
		if !filepath.IsAbs(path) {
			path = filepath.Join(r.cfg.WorkDir, path)
		}
		if st, exists, err := filestat.Observe(path); err == nil && exists {
			stats[in] = st
		}
	}

	return outcome{kind: outcomeOk, stats: stats}
}

func (r *Reactor) handleCompletion(result *dag.RunResult, res taskResult) {
	delete(r.inflight, res.id)

	if _, ok := r.graph.TaskNodeByID(res.id); !ok {
		return // belongs to a graph a rebuild has since discarded
	}

	if res.outcome.kind == outcomeCancelled {
		if err := r.sched.CancelRunning(res.id); err != nil {
			slog.Error("cancelling task", "task_id", res.id, "err", err)
			return
		}
		trace.SafeRecord(r.cfg.Rec, trace.TraceEvent{Kind: trace.EventTaskCancelled, TaskID: res.id.String()})
		return
	}

	failed := res.outcome.failed()
	if !failed {
		for path, st := range res.outcome.stats {
			r.store.Put(path, st)
		}
	}

	if err := r.sched.Complete(res.id, failed); err != nil {
		slog.Error("completing task", "task_id", res.id, "err", err)
		return
	}

	if failed {
		reason := res.outcome.reason()
		result.FailureReasons[res.id] = reason
		trace.SafeRecord(r.cfg.Rec, trace.TraceEvent{Kind: trace.EventTaskFailed, TaskID: res.id.String(), Reason: reason})
	} else {
		trace.SafeRecord(r.cfg.Rec, trace.TraceEvent{Kind: trace.EventTaskDone, TaskID: res.id.String()})
	}
}

func (r *Reactor) handleEvent(ev watch.Event) {
	if ev.Path == r.cfg.AgendaPath || (r.cfg.DependPath != "" && ev.Path == r.cfg.DependPath) {
		r.handleDocEdit()
		return
	}
	r.handleFileChange(ev)
}

// handleFileChange is spec.md §4.6 point 2: flip the file's stored stat to
// the Dirty sentinel (or forget it outright if it was removed), re-run the
// StaleAnalyzer, seed newly-MustRun tasks, and cancel any Running task
// whose inputs this invalidates.
func (r *Reactor) handleFileChange(ev watch.Event) {
	if ev.Op == watch.OpRemoved {
		r.store.Forget(ev.Path)
	} else {
		r.store.Put(ev.Path, filestat.Dirty)
	}

	mustRun, err := dag.Analyze(r.graph, r.store)
	if err != nil {
		slog.Error("re-analyzing staleness", "path", ev.Path, "err", err)
		return
	}

	var toReopen []model.TaskID
	for _, n := range r.graph.Tasks() {
		if !mustRun[n.ID] {
			continue
		}
		switch r.sched.Status(n.ID) {
		case dag.StatusSkipped, dag.StatusFailed, dag.StatusCancelled:
			toReopen = append(toReopen, n.ID)
		case dag.StatusRunning:
			if cancel, ok := r.inflight[n.ID]; ok {
				cancel()
			}
		}
	}
	if err := r.sched.Reopen(toReopen); err != nil {
		slog.Error("reopening invalidated tasks", "err", err)
	}
}

// handleDocEdit is spec.md §4.6 point 3: a full graph rebuild. Non-Running
// tasks are reset by the fresh Seed; Running tasks whose identity survives
// the rebuild are adopted into the new Scheduler as still-Running, the
// rest are cancelled (their eventual result is discarded once it arrives,
// since handleCompletion no longer finds their ID in the new graph).
func (r *Reactor) handleDocEdit() {
	loaded, err := loaders.Load(r.cfg.AgendaPath, r.cfg.DependPath)
	if err != nil {
		slog.Error("agenda/depend reload failed, keeping previous graph in force", "err", err)
		return
	}
	mustRun, err := dag.Analyze(loaded.Graph, r.store)
	if err != nil {
		slog.Error("stale analysis after rebuild failed, keeping previous graph in force", "err", err)
		return
	}

	newSched := dag.NewScheduler(loaded.Graph)
	newSched.Seed(mustRun)

	var keepRunning []model.TaskID
	for id, cancel := range r.inflight {
		if _, ok := loaded.Graph.TaskNodeByID(id); ok {
			keepRunning = append(keepRunning, id)
		} else {
			cancel()
		}
	}
	if err := newSched.MarkRunning(keepRunning); err != nil {
		slog.Error("adopting in-flight tasks across rebuild", "err", err)
	}

	r.graph = loaded.Graph
	r.procedures = loaded.Agenda.Procedures
	r.sched = newSched

	want := r.watchSet()
	for p := range r.watched {
		if !want[p] {
			_ = r.cfg.Watch.Remove(p)
		}
	}
	for p := range want {
		if !r.watched[p] {
			_ = r.cfg.Watch.Add(p)
		}
	}
	r.watched = want
}
