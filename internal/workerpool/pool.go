package workerpool

import (
	"context"
	"fmt"
	"path/filepath"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"taskloom/internal/dag"
	"taskloom/internal/filestat"
	"taskloom/internal/model"
	"taskloom/internal/runner"
	"taskloom/internal/trace"
)

// Pool executes tasks pulled from a dag.Scheduler using a fixed number of
// worker goroutines and a runner.TaskRunner, bounding the number of
// concurrently in-flight process spawns with a weighted semaphore sized
// to the worker count independent of goroutine scheduling order.
type Pool struct {
	workers    int
	run        runner.TaskRunner
	procedures map[string]model.Procedure
	workDir    string
	sem        *semaphore.Weighted
}

// New builds a Pool with workers concurrent slots.
func New(workers int, run runner.TaskRunner, procedures map[string]model.Procedure, workDir string) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		workers:    workers,
		run:        run,
		procedures: procedures,
		workDir:    workDir,
		sem:        semaphore.NewWeighted(int64(workers)),
	}
}

type taskResult struct {
	id      model.TaskID
	outcome Outcome
}

// Run drives sched to completion against g, reporting initial skips,
// dispatches, and completions to rec, and returns the final per-task
// status and dispatch order. Tasks failed by cascade get no trace event
// of their own.
func (p *Pool) Run(ctx context.Context, g *dag.Graph, sched *dag.Scheduler, rec trace.Sink) (*dag.RunResult, error) {
	result := &dag.RunResult{
		GraphHash:      g.Hash(),
		FinalStatus:    make(map[model.TaskID]dag.TaskStatus),
		FailureReasons: make(map[model.TaskID]string),
	}

	for _, n := range g.Tasks() {
		if sched.Status(n.ID) == dag.StatusSkipped {
			trace.SafeRecord(rec, trace.TraceEvent{Kind: trace.EventTaskSkipped, TaskID: n.ID.String(), Reason: "Fresh"})
		}
	}

	jobs := make(chan model.TaskID)
	results := make(chan taskResult)

	eg, egCtx := errgroup.WithContext(ctx)

	for i := 0; i < p.workers; i++ {
		eg.Go(func() error {
			for {
				select {
				case <-egCtx.Done():
					return egCtx.Err()
				case id, ok := <-jobs:
					if !ok {
						return nil
					}
					out := p.execute(egCtx, g, id)
					select {
					case results <- taskResult{id: id, outcome: out}:
					case <-egCtx.Done():
						return egCtx.Err()
					}
				}
			}
		})
	}

	eg.Go(func() error {
		defer close(jobs)
		for !sched.Drained() {
			id, ok := sched.NextReady()
			if !ok {
				select {
				case r := <-results:
					if err := p.complete(sched, rec, result, r); err != nil {
						return err
					}
				case <-egCtx.Done():
					return egCtx.Err()
				}
				continue
			}

			result.DispatchOrder = append(result.DispatchOrder, id)
			trace.SafeRecord(rec, trace.TraceEvent{Kind: trace.EventTaskRunning, TaskID: id.String()})

			dispatched := false
			for !dispatched {
				select {
				case jobs <- id:
					dispatched = true
				case r := <-results:
					if err := p.complete(sched, rec, result, r); err != nil {
						return err
					}
				case <-egCtx.Done():
					return egCtx.Err()
				}
			}
		}
		return nil
	})

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	for _, n := range g.Tasks() {
		result.FinalStatus[n.ID] = sched.Status(n.ID)
	}
	return result, nil
}

func (p *Pool) complete(sched *dag.Scheduler, rec trace.Sink, result *dag.RunResult, r taskResult) error {
	if err := sched.Complete(r.id, r.outcome.failed()); err != nil {
		return fmt.Errorf("completing %s: %w", r.id, err)
	}
	if r.outcome.failed() {
		reason := r.outcome.reason()
		result.FailureReasons[r.id] = reason
		trace.SafeRecord(rec, trace.TraceEvent{Kind: trace.EventTaskFailed, TaskID: r.id.String(), Reason: reason})
	} else {
		trace.SafeRecord(rec, trace.TraceEvent{Kind: trace.EventTaskDone, TaskID: r.id.String()})
	}
	return nil
}

func (p *Pool) execute(ctx context.Context, g *dag.Graph, id model.TaskID) Outcome {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return Outcome{Kind: OutcomeCancelled}
	}
	defer p.sem.Release(1)

	node, ok := g.TaskNodeByID(id)
	if !ok {
		return Outcome{Kind: OutcomeSpawnError, SpawnErrKind: "UnknownTask"}
	}

	proc, ok := p.procedures[node.Task.Proc]
	if !ok {
		return Outcome{Kind: OutcomeSpawnError, SpawnErrKind: "UndefinedProcedure"}
	}
	argv, err := node.Task.EffectiveCommand(proc)
	if err != nil {
		return Outcome{Kind: OutcomeSpawnError, SpawnErrKind: "UnboundParameter"}
	}

	res, err := p.run.Run(ctx, argv, p.workDir)
	if err != nil {
		if ctx.Err() != nil {
			return Outcome{Kind: OutcomeCancelled}
		}
		if se, ok := err.(*runner.SpawnError); ok {
			return Outcome{Kind: OutcomeSpawnError, SpawnErrKind: string(se.Kind)}
		}
		return Outcome{Kind: OutcomeSpawnError, SpawnErrKind: "Other"}
	}
	if res.ExitCode != 0 {
		return Outcome{Kind: OutcomeNonZeroExit, ExitCode: res.ExitCode}
	}

	for _, out := range node.Task.Outputs {
		path := out
		if !filepath.IsAbs(path) {
			path = filepath.Join(p.workDir, path)
		}
		if _, exists, err := filestat.Observe(path); err == nil && !exists {
			return Outcome{Kind: OutcomeMissingOutput, MissingPath: out}
		}
	}

	return Outcome{Kind: OutcomeOk}
}
