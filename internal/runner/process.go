package runner

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"syscall"
)

// Process is the real TaskRunner, backed by os/exec.
type Process struct{}

// NewProcess returns the process-backed TaskRunner.
func NewProcess() Process { return Process{} }

func (Process) Run(ctx context.Context, argv []string, dir string) (Result, error) {
	if len(argv) == 0 {
		return Result{}, &SpawnError{Kind: SpawnErrOther, Err: errors.New("empty command")}
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir

	// Put the child in its own process group so cancellation reaches
	// anything it spawns, not just the direct child: a shell wrapper or a
	// Makefile-driven task tree would otherwise survive ctx cancellation.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return Result{ExitCode: 0, Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return Result{ExitCode: exitErr.ExitCode(), Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}, nil
	}

	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}

	var pathErr *exec.Error
	if errors.As(err, &pathErr) {
		if errors.Is(pathErr.Err, exec.ErrNotFound) {
			return Result{}, &SpawnError{Kind: SpawnErrNotFound, Err: err}
		}
	}
	return Result{}, &SpawnError{Kind: SpawnErrOther, Err: err}
}
