package loaders

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	agendaPath := filepath.Join(dir, "agenda.yaml")
	dependPath := filepath.Join(dir, "depend.yaml")

	if err := os.WriteFile(agendaPath, []byte(`
procs:
  compile: ["gcc", "-c", "$in", "-o", "$out"]
stages:
  - ["compile"]
tasks:
  - desc: "compile main"
    proc: compile
    args:
      in: ["main.c"]
      out: ["main.o"]
    inputs: ["main.c"]
    outputs: ["main.o"]
`), 0o644); err != nil {
		t.Fatalf("WriteFile agenda: %v", err)
	}

	if err := os.WriteFile(dependPath, []byte(`
main.c: ["util.h"]
`), 0o644); err != nil {
		t.Fatalf("WriteFile depend: %v", err)
	}

	loaded, err := Load(agendaPath, dependPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Graph.Tasks()) != 1 {
		t.Fatalf("expected one task in graph, got %d", len(loaded.Graph.Tasks()))
	}
	closure := loaded.Graph.ImplicitClosure("main.c")
	if _, ok := closure["util.h"]; !ok {
		t.Fatalf("expected main.c's implicit closure to include util.h, got %v", closure)
	}
}

func TestLoad_MissingDependFileIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	agendaPath := filepath.Join(dir, "agenda.yaml")
	if err := os.WriteFile(agendaPath, []byte(`
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
`), 0o644); err != nil {
		t.Fatalf("WriteFile agenda: %v", err)
	}

	_, err := Load(agendaPath, filepath.Join(dir, "no-depend.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
}
