package dag

import (
	"testing"

	"taskloom/internal/model"
)

func mkTask(proc string, stage int, inputs, outputs []string) model.Task {
	return model.Task{
		Proc:    proc,
		Args:    map[string][]string{"x": {proc}},
		Inputs:  inputs,
		Outputs: outputs,
		Stage:   stage,
	}
}

func TestBuild_LinearChain(t *testing.T) {
	compile := mkTask("compile", 0, []string{"main.c"}, []string{"main.o"})
	link := mkTask("link", 1, []string{"main.o"}, []string{"app"})

	g, err := Build([]model.Task{compile, link}, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	succs := g.Successors(compile.ID())
	if len(succs) != 1 || succs[0] != link.ID() {
		t.Fatalf("expected compile -> link edge, got %v", succs)
	}
	preds := g.Predecessors(link.ID())
	if len(preds) != 1 || preds[0] != compile.ID() {
		t.Fatalf("expected link's predecessor to be compile, got %v", preds)
	}
}

func TestBuild_DuplicateProducerRejected(t *testing.T) {
	a := mkTask("a", 0, nil, []string{"out.txt"})
	b := mkTask("b", 0, nil, []string{"out.txt"})

	_, err := Build([]model.Task{a, b}, nil)
	if err == nil {
		t.Fatalf("expected an error for two tasks producing the same file")
	}
	if ge, ok := err.(*GraphError); !ok || ge.Kind != ErrDuplicateProducer {
		t.Fatalf("expected ErrDuplicateProducer, got %v", err)
	}
}

func TestBuild_TaskCycleRejected(t *testing.T) {
	a := mkTask("a", 0, []string{"b.out"}, []string{"a.out"})
	b := mkTask("b", 0, []string{"a.out"}, []string{"b.out"})

	_, err := Build([]model.Task{a, b}, nil)
	if err == nil {
		t.Fatalf("expected a cycle error")
	}
	if ge, ok := err.(*GraphError); !ok || ge.Kind != ErrTaskCycle {
		t.Fatalf("expected ErrTaskCycle, got %v", err)
	}
}

func TestBuild_FileCycleRejected(t *testing.T) {
	_, err := Build(nil, map[string][]string{
		"a.h": {"b.h"},
		"b.h": {"a.h"},
	})
	if err == nil {
		t.Fatalf("expected a cycle error")
	}
	if ge, ok := err.(*GraphError); !ok || ge.Kind != ErrFileCycle {
		t.Fatalf("expected ErrFileCycle, got %v", err)
	}
}

func TestBuild_StageOrderViolationRejected(t *testing.T) {
	producer := mkTask("a", 1, nil, []string{"out.txt"})
	consumer := mkTask("b", 0, []string{"out.txt"}, nil)

	_, err := Build([]model.Task{producer, consumer}, nil)
	if err == nil {
		t.Fatalf("expected a stage-order violation error")
	}
}

func TestImplicitClosure_TransitiveDependency(t *testing.T) {
	compile := mkTask("compile", 0, []string{"main.c"}, []string{"main.o"})
	g, err := Build([]model.Task{compile}, map[string][]string{
		"main.c": {"util.h"},
		"util.h": {"base.h"},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	closure := g.ImplicitClosure("main.c")
	if _, ok := closure["util.h"]; !ok {
		t.Fatalf("expected util.h in main.c's implicit closure: %v", closure)
	}
	if _, ok := closure["base.h"]; !ok {
		t.Fatalf("expected base.h transitively in main.c's implicit closure: %v", closure)
	}
}

func TestInputWatchSet_IncludesDeclaredInputsAndImplicitClosure(t *testing.T) {
	compile := mkTask("compile", 0, []string{"main.c"}, []string{"main.o"})
	g, err := Build([]model.Task{compile}, map[string][]string{
		"main.c": {"util.h"},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	set := g.InputWatchSet(compile.ID())
	want := map[string]bool{"main.c": true, "util.h": true}
	if len(set) != len(want) {
		t.Fatalf("expected %v, got %v", want, set)
	}
	for _, p := range set {
		if !want[p] {
			t.Fatalf("unexpected path %q in watch set %v", p, set)
		}
	}
}

func TestGraphHash_StableUnderInsertionOrder(t *testing.T) {
	a := mkTask("a", 0, nil, []string{"a.out"})
	b := mkTask("b", 0, []string{"a.out"}, []string{"b.out"})

	g1, err := Build([]model.Task{a, b}, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	g2, err := Build([]model.Task{b, a}, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if g1.Hash() != g2.Hash() {
		t.Fatalf("expected identical hash regardless of insertion order: %s vs %s", g1.Hash(), g2.Hash())
	}
}

func TestTasksConsumingAndProducing(t *testing.T) {
	a := mkTask("a", 0, nil, []string{"shared.h"})
	b := mkTask("b", 1, []string{"shared.h"}, []string{"b.out"})
	c := mkTask("c", 1, []string{"shared.h"}, []string{"c.out"})

	g, err := Build([]model.Task{a, b, c}, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	producer, ok := g.TaskProducing("shared.h")
	if !ok || producer != a.ID() {
		t.Fatalf("expected a to produce shared.h, got %v (ok=%v)", producer, ok)
	}

	consumers := g.TasksConsuming("shared.h")
	if len(consumers) != 2 {
		t.Fatalf("expected two consumers of shared.h, got %v", consumers)
	}
}
