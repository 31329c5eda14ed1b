package runner

import "context"

// Result is what a TaskRunner returns for a task that was actually
// started: a process that ran to completion, however it exited.
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// SpawnErrorKind classifies a failure to even start a task's command.
type SpawnErrorKind string

const (
	SpawnErrNotFound  SpawnErrorKind = "NotFound"
	SpawnErrPermitted SpawnErrorKind = "PermissionDenied"
	SpawnErrOther     SpawnErrorKind = "Other"
)

// SpawnError reports that a task's command could not be started at all:
// distinct from a non-zero exit, which is a normal Result.
type SpawnError struct {
	Kind SpawnErrorKind
	Err  error
}

func (e *SpawnError) Error() string {
	if e.Err == nil {
		return "spawn error: " + string(e.Kind)
	}
	return "spawn error: " + string(e.Kind) + ": " + e.Err.Error()
}

func (e *SpawnError) Unwrap() error { return e.Err }

// TaskRunner executes a task's effective command (already resolved from
// its procedure and arguments) in dir.
//
// A non-nil, non-SpawnError error means ctx was cancelled mid-run; the
// caller should treat this as Cancelled, not SpawnError or NonZeroExit.
// A *SpawnError means the command never started.
// Otherwise Result.ExitCode is authoritative, including non-zero values.
type TaskRunner interface {
	Run(ctx context.Context, argv []string, dir string) (Result, error)
}
