package workerpool

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"taskloom/internal/dag"
	"taskloom/internal/model"
	"taskloom/internal/runner"
	"taskloom/internal/trace"
)

func touchProc(name string) model.Procedure {
	return model.Procedure{Name: name, Words: []model.Word{{Literal: "touch"}, {Param: "out"}}}
}

// touchRunner is a TaskRunner test double that creates the file named by
// argv[1] instead of spawning a real "touch" process.
type touchRunner struct {
	failExitCode int // nonzero to make every invocation fail without writing a file
}

func (r touchRunner) Run(ctx context.Context, argv []string, dir string) (runner.Result, error) {
	if r.failExitCode != 0 {
		return runner.Result{ExitCode: r.failExitCode}, nil
	}
	if len(argv) != 2 {
		return runner.Result{ExitCode: 1}, nil
	}
	if err := os.WriteFile(argv[1], []byte("ok"), 0o644); err != nil {
		return runner.Result{ExitCode: 1}, nil
	}
	return runner.Result{ExitCode: 0}, nil
}

func TestPool_RunsAllTasksSuccessfully(t *testing.T) {
	dir := t.TempDir()
	aOut := filepath.Join(dir, "a.out")
	bOut := filepath.Join(dir, "b.out")

	a := model.Task{Proc: "touch-a", Args: map[string][]string{"out": {aOut}}, Outputs: []string{aOut}, Stage: 0}
	b := model.Task{Proc: "touch-b", Args: map[string][]string{"out": {bOut}}, Inputs: []string{aOut}, Outputs: []string{bOut}, Stage: 0}

	g, err := dag.Build([]model.Task{a, b}, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	procedures := map[string]model.Procedure{"touch-a": touchProc("touch-a"), "touch-b": touchProc("touch-b")}

	sched := dag.NewScheduler(g)
	sched.Seed(map[model.TaskID]bool{a.ID(): true, b.ID(): true})

	pool := New(2, touchRunner{}, procedures, dir)
	rec := trace.NewRecorder()

	result, err := pool.Run(context.Background(), g, sched, rec)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.FinalStatus[a.ID()] != dag.StatusDone || result.FinalStatus[b.ID()] != dag.StatusDone {
		t.Fatalf("expected both tasks Done, got %+v", result.FinalStatus)
	}
	if len(result.DispatchOrder) != 2 {
		t.Fatalf("expected two dispatched tasks, got %v", result.DispatchOrder)
	}
}

func TestPool_NonZeroExitCascadesFailure(t *testing.T) {
	dir := t.TempDir()
	aOut := filepath.Join(dir, "a.out")
	bOut := filepath.Join(dir, "b.out")

	a := model.Task{Proc: "fail", Args: map[string][]string{"out": {aOut}}, Outputs: []string{aOut}, Stage: 0}
	b := model.Task{Proc: "noop", Args: map[string][]string{"out": {bOut}}, Inputs: []string{aOut}, Outputs: []string{bOut}, Stage: 0}

	g, err := dag.Build([]model.Task{a, b}, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	procedures := map[string]model.Procedure{"fail": touchProc("fail"), "noop": touchProc("noop")}

	sched := dag.NewScheduler(g)
	sched.Seed(map[model.TaskID]bool{a.ID(): true, b.ID(): true})

	pool := New(2, touchRunner{failExitCode: 1}, procedures, dir)
	rec := trace.NewRecorder()

	result, err := pool.Run(context.Background(), g, sched, rec)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.FinalStatus[a.ID()] != dag.StatusFailed {
		t.Fatalf("expected a Failed, got %s", result.FinalStatus[a.ID()])
	}
	if result.FinalStatus[b.ID()] != dag.StatusFailed {
		t.Fatalf("expected b Failed, got %s", result.FinalStatus[b.ID()])
	}
}
