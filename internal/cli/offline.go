package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"taskloom/internal/dag"
	"taskloom/internal/filestat"
	"taskloom/internal/loaders"
	"taskloom/internal/model"
	"taskloom/internal/runner"
	"taskloom/internal/trace"
	"taskloom/internal/workerpool"
)

// RunOffline loads the agenda/depend documents, computes the stale set,
// drives the WorkerPool to drain, persists the FileStat store, and maps
// the run's outcome to spec.md §6's exit codes: 0 on a clean drain, 2 if
// any task ended Failed.
func RunOffline(ctx context.Context, f Flags) int {
	loaded, err := loaders.Load(f.AgendaPath, f.DependPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return ExitUserError
	}

	store, cacheErr := filestat.Load(f.CachePath)
	if cacheErr != nil {
		slog.Warn("filestat cache unusable, starting empty", "path", f.CachePath, "err", cacheErr)
	}

	mustRun, err := dag.Analyze(loaded.Graph, store)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return ExitInternalError
	}

	sched := dag.NewScheduler(loaded.Graph)
	sched.Seed(mustRun)

	workDir, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return ExitInternalError
	}

	pool := workerpool.New(f.normalizeWorkers(), runner.NewProcess(), loaded.Agenda.Procedures, workDir)
	rec := trace.NewRecorder()

	result, err := pool.Run(ctx, loaded.Graph, sched, rec)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return ExitInternalError
	}

	recordStats(loaded.Graph, store, result, workDir)
	if err := filestat.Save(f.CachePath, store); err != nil {
		slog.Warn("persisting filestat cache", "path", f.CachePath, "err", err)
	}

	logTrace(rec, result)

	return reportResult(loaded.Graph, loaded.Agenda.Procedures, result)
}

// recordStats observes the outputs and the declared-input watch set of
// every Done task once the run has drained, and records both in store.
// Inputs matter here as much as outputs: the StaleAnalyzer treats a path
// absent from the store as stale (spec.md §4.3 cond. 2), so an input
// nobody ever records a baseline for forces its task to MustRun on every
// future invocation even when nothing actually changed. Unlike the
// reactor (which must commit a task's stats before any successor can be
// declared Ready, per spec.md §5), the offline WorkerPool has no
// successor to race against once it returns: a single post-drain pass is
// sufficient and avoids threading the store through every worker
// goroutine.
func recordStats(g *dag.Graph, store *filestat.Store, result *dag.RunResult, workDir string) {
	resolve := func(path string) (filestat.Stat, bool) {
		abs := path
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(workDir, abs)
		}
		st, exists, err := filestat.Observe(abs)
		return st, err == nil && exists
	}

	for id, status := range result.FinalStatus {
		if status != dag.StatusDone {
			continue
		}
		for _, out := range g.Outputs(id) {
			if st, ok := resolve(out); ok {
				store.Put(out, st)
			}
		}
		for _, in := range g.InputWatchSet(id) {
			if st, ok := resolve(in); ok {
				store.Put(in, st)
			}
		}
	}
}

// logTrace canonicalizes the run's recorded events and logs the resulting
// trace hash. Canonicalization sorts events by task ID and kind, so the
// hash records which transitions the run made, not the order in which
// tasks were dispatched (that order is in RunResult.DispatchOrder).
func logTrace(rec *trace.Recorder, result *dag.RunResult) {
	tr := rec.Trace(string(result.GraphHash))
	hash, err := tr.Hash()
	if err != nil {
		slog.Warn("computing execution trace hash", "err", err)
		return
	}
	slog.Info("execution trace", "graph_hash", result.GraphHash, "trace_hash", hash, "events", len(tr.Events))
}

// reportResult logs one record per failed task (spec.md §7: "every
// failed task emits one log record with task description, exit code or
// failure kind, and command line") plus a single aggregate record for
// the cascaded failures it caused, and returns the run's exit code.
func reportResult(g *dag.Graph, procs map[string]model.Procedure, result *dag.RunResult) int {
	anyFailed := false
	var cascaded []model.TaskID

	for _, n := range g.Tasks() {
		status := result.FinalStatus[n.ID]
		if status != dag.StatusFailed {
			continue
		}
		anyFailed = true
		if reason, ok := result.FailureReasons[n.ID]; ok {
			argv, _ := n.Task.EffectiveCommand(procs[n.Task.Proc])
			slog.Error("task failed", "task_id", n.ID, "stage", n.Task.Stage, "desc", n.Task.Desc, "reason", reason, "command", strings.Join(argv, " "))
		} else {
			cascaded = append(cascaded, n.ID)
		}
	}
	if len(cascaded) > 0 {
		slog.Error("tasks skipped due to upstream failure", "count", len(cascaded), "task_ids", cascaded)
	}

	if anyFailed {
		return ExitTaskFailure
	}
	return ExitSuccess
}
