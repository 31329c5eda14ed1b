package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"taskloom/internal/dag"
	"taskloom/internal/reactor"
	"taskloom/internal/runner"
	"taskloom/internal/trace"
	"taskloom/internal/watch"
)

// RunOnline starts the Reactor in online mode. It blocks until ctx is
// cancelled (by the caller wiring SIGINT/SIGTERM) and maps the final
// state to an exit code the same way offline mode does.
func RunOnline(ctx context.Context, f Flags) int {
	workDir, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return ExitInternalError
	}

	fw, err := watch.New(0)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return ExitInternalError
	}
	defer fw.Close()

	rec := trace.NewRecorder()
	r, err := reactor.New(reactor.Config{
		AgendaPath: f.AgendaPath,
		DependPath: f.DependPath,
		CachePath:  f.CachePath,
		WorkDir:    workDir,
		Workers:    f.normalizeWorkers(),
		Runner:     runner.NewProcess(),
		Watch:      fw,
		Rec:        rec,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return ExitUserError
	}

	result, err := r.Run(ctx, true)
	if err != nil && ctx.Err() == nil {
		slog.Error("reactor exited", "err", err)
		return ExitInternalError
	}

	logTrace(rec, result)

	anyFailed := false
	for _, status := range result.FinalStatus {
		if status == dag.StatusFailed {
			anyFailed = true
			break
		}
	}
	if anyFailed {
		return ExitTaskFailure
	}
	return ExitSuccess
}
