package cli_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"taskloom/internal/cli"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })
	return dir
}

const touchAgenda = `
procs:
  touch: ["touch", "$out"]
stages:
  - ["touch"]
tasks:
  - desc: "make out"
    proc: touch
    args:
      out: ["out.txt"]
    outputs: ["out.txt"]
`

func TestRun_OfflineEndToEnd(t *testing.T) {
	dir := chdirTemp(t)
	if err := os.WriteFile(filepath.Join(dir, "agenda.yaml"), []byte(touchAgenda), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	code, err := cli.Run(context.Background(), []string{"offline"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if code != cli.ExitSuccess {
		t.Fatalf("expected exit %d, got %d", cli.ExitSuccess, code)
	}

	if _, err := os.Stat(filepath.Join(dir, "out.txt")); err != nil {
		t.Fatalf("expected out.txt to exist: %v", err)
	}
}

// copyAgenda declares a task with a real input (in.txt), not just an
// output: the scenario that exercises whether the FileStat store ever
// learns an input's baseline stat. Its command also appends a byte to
// runs.log as a side effect observable from outside the package, so the
// test can tell whether the task actually re-executed on a later run
// without reaching into cli's internals.
const copyAgenda = `
procs:
  build: ["sh", "-c", "cp $1 $2 && printf x >> runs.log", "_", "$in", "$out"]
stages:
  - ["build"]
tasks:
  - desc: "copy in to out"
    proc: build
    args:
      in: ["in.txt"]
      out: ["out.txt"]
    inputs: ["in.txt"]
    outputs: ["out.txt"]
`

func TestRun_OfflineSecondRunIsClean(t *testing.T) {
	dir := chdirTemp(t)
	if err := os.WriteFile(filepath.Join(dir, "agenda.yaml"), []byte(copyAgenda), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "in.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if code, err := cli.Run(context.Background(), []string{"offline"}); err != nil || code != cli.ExitSuccess {
		t.Fatalf("first run: code=%d err=%v", code, err)
	}
	afterFirst, err := os.ReadFile(filepath.Join(dir, "runs.log"))
	if err != nil {
		t.Fatalf("reading runs.log after first run: %v", err)
	}
	if len(afterFirst) != 1 {
		t.Fatalf("expected the task to run exactly once, got %d run markers", len(afterFirst))
	}

	if code, err := cli.Run(context.Background(), []string{"offline"}); err != nil || code != cli.ExitSuccess {
		t.Fatalf("second run: code=%d err=%v", code, err)
	}
	afterSecond, err := os.ReadFile(filepath.Join(dir, "runs.log"))
	if err != nil {
		t.Fatalf("reading runs.log after second run: %v", err)
	}
	if len(afterSecond) != len(afterFirst) {
		t.Fatalf("expected zero tasks dispatched on an unchanged second run, but the task re-ran (runs.log grew from %d to %d bytes)", len(afterFirst), len(afterSecond))
	}
}

func TestRun_OfflineMissingAgendaIsUserError(t *testing.T) {
	chdirTemp(t)

	code, err := cli.Run(context.Background(), []string{"offline"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if code != cli.ExitUserError {
		t.Fatalf("expected exit %d, got %d", cli.ExitUserError, code)
	}
}

func TestRun_Clean(t *testing.T) {
	dir := chdirTemp(t)
	if err := os.WriteFile(filepath.Join(dir, "agenda.yaml"), []byte(touchAgenda), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if code, err := cli.Run(context.Background(), []string{"offline"}); err != nil || code != cli.ExitSuccess {
		t.Fatalf("offline run: code=%d err=%v", code, err)
	}
	if _, err := os.Stat(filepath.Join(dir, "out.txt")); err != nil {
		t.Fatalf("expected out.txt to exist before clean: %v", err)
	}

	code, err := cli.Run(context.Background(), []string{"clean"})
	if err != nil {
		t.Fatalf("Run clean: %v", err)
	}
	if code != cli.ExitSuccess {
		t.Fatalf("expected exit %d, got %d", cli.ExitSuccess, code)
	}
	if _, err := os.Stat(filepath.Join(dir, "out.txt")); !os.IsNotExist(err) {
		t.Fatalf("expected out.txt to be removed, got err=%v", err)
	}
}

func TestRun_Version(t *testing.T) {
	code, err := cli.Run(context.Background(), []string{"version"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if code != cli.ExitSuccess {
		t.Fatalf("expected exit %d, got %d", cli.ExitSuccess, code)
	}
}

func TestRun_FailingTaskReportsExitCode2(t *testing.T) {
	dir := chdirTemp(t)
	agenda := `
procs:
  fail: ["false"]
stages:
  - ["fail"]
tasks:
  - desc: "always fails"
    proc: fail
    outputs: ["never.txt"]
`
	if err := os.WriteFile(filepath.Join(dir, "agenda.yaml"), []byte(agenda), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	code, err := cli.Run(context.Background(), []string{"offline"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if code != cli.ExitTaskFailure {
		t.Fatalf("expected exit %d, got %d", cli.ExitTaskFailure, code)
	}
}
