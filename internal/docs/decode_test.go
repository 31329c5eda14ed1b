package docs

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadAgenda_Valid(t *testing.T) {
	path := writeTemp(t, "agenda.yaml", `
procs:
  compile: ["gcc", "-c", "in"]
stages:
  - ["compile"]
tasks:
  - desc: "compile main"
    proc: compile
    args:
      in: ["main.c"]
    inputs: ["main.c"]
    outputs: ["main.o"]
`)
	a, err := LoadAgenda(path)
	if err != nil {
		t.Fatalf("LoadAgenda: %v", err)
	}
	if len(a.Tasks) != 1 || a.Tasks[0].Proc != "compile" {
		t.Fatalf("unexpected agenda: %+v", a)
	}
	if len(a.Stages) != 1 || a.Stages[0][0] != "compile" {
		t.Fatalf("unexpected stages: %+v", a.Stages)
	}
}

func TestLoadAgenda_RejectsUnknownKey(t *testing.T) {
	path := writeTemp(t, "agenda.yaml", `
procs: {}
stages: []
tasks: []
bogus: true
`)
	if _, err := LoadAgenda(path); err == nil {
		t.Fatal("expected error for unknown top-level key")
	}
}

func TestLoadAgenda_RejectsUnknownTaskKey(t *testing.T) {
	path := writeTemp(t, "agenda.yaml", `
procs: {}
stages: []
tasks:
  - desc: "x"
    proc: compile
    unexpected: true
`)
	if _, err := LoadAgenda(path); err == nil {
		t.Fatal("expected error for unknown task key")
	}
}

func TestLoadDepend_MissingFileIsEmpty(t *testing.T) {
	d, err := LoadDepend(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("LoadDepend: %v", err)
	}
	if len(d) != 0 {
		t.Fatalf("expected empty Depend, got %+v", d)
	}
}

func TestLoadDepend_Valid(t *testing.T) {
	path := writeTemp(t, "depend.yaml", `
main.c: ["util.h"]
`)
	d, err := LoadDepend(path)
	if err != nil {
		t.Fatalf("LoadDepend: %v", err)
	}
	if len(d["main.c"]) != 1 || d["main.c"][0] != "util.h" {
		t.Fatalf("unexpected depend: %+v", d)
	}
}
