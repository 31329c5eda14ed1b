package loaders

import (
	"testing"

	"taskloom/internal/docs"
)

func TestNormalizeAgenda_Valid(t *testing.T) {
	a := &docs.Agenda{
		Procs: map[string][]string{"compile": {"gcc", "-c", "$in"}},
		Stages: [][]string{
			{"compile"},
		},
		Tasks: []docs.AgendaTask{
			{Desc: "compile main", Proc: "compile", Args: map[string][]string{"in": {"main.c"}}, Inputs: []string{"main.c"}, Outputs: []string{"main.o"}},
		},
	}

	res, err := NormalizeAgenda(a)
	if err != nil {
		t.Fatalf("NormalizeAgenda: %v", err)
	}
	if len(res.Tasks) != 1 || res.Tasks[0].Stage != 0 {
		t.Fatalf("unexpected tasks: %+v", res.Tasks)
	}
}

func TestNormalizeAgenda_UndefinedProcedure(t *testing.T) {
	a := &docs.Agenda{
		Procs:  map[string][]string{},
		Stages: [][]string{},
		Tasks:  []docs.AgendaTask{{Desc: "x", Proc: "missing"}},
	}
	_, err := NormalizeAgenda(a)
	if err == nil {
		t.Fatal("expected error for undefined procedure")
	}
}

func TestNormalizeAgenda_UnboundParameter(t *testing.T) {
	a := &docs.Agenda{
		Procs:  map[string][]string{"compile": {"gcc", "-c", "$in"}},
		Stages: [][]string{{"compile"}},
		Tasks: []docs.AgendaTask{
			{Desc: "x", Proc: "compile", Args: map[string][]string{}},
		},
	}
	_, err := NormalizeAgenda(a)
	if err == nil {
		t.Fatal("expected error for unbound parameter")
	}
}

func TestNormalizeAgenda_UnusedArg(t *testing.T) {
	a := &docs.Agenda{
		Procs:  map[string][]string{"compile": {"gcc"}},
		Stages: [][]string{{"compile"}},
		Tasks: []docs.AgendaTask{
			{Desc: "x", Proc: "compile", Args: map[string][]string{"in": {"main.c"}}},
		},
	}
	_, err := NormalizeAgenda(a)
	if err == nil {
		t.Fatal("expected error for unused arg")
	}
}

func TestNormalizeAgenda_NoAdmittingStage(t *testing.T) {
	a := &docs.Agenda{
		Procs:  map[string][]string{"compile": {"gcc"}},
		Stages: [][]string{},
		Tasks: []docs.AgendaTask{
			{Desc: "x", Proc: "compile"},
		},
	}
	_, err := NormalizeAgenda(a)
	if err == nil {
		t.Fatal("expected error for task with no admitting stage")
	}
}

func TestNormalizeAgenda_DuplicateOutput(t *testing.T) {
	a := &docs.Agenda{
		Procs:  map[string][]string{"touch": {"touch"}},
		Stages: [][]string{{"touch"}},
		Tasks: []docs.AgendaTask{
			{Desc: "a", Proc: "touch", Outputs: []string{"out.txt"}},
			{Desc: "b", Proc: "touch", Outputs: []string{"out.txt"}},
		},
	}
	_, err := NormalizeAgenda(a)
	if err == nil {
		t.Fatal("expected error for duplicate output")
	}
}

func TestNormalizeAgenda_EmptyCommand(t *testing.T) {
	a := &docs.Agenda{
		Procs:  map[string][]string{"noop": {}},
		Stages: [][]string{{"noop"}},
		Tasks:  nil,
	}
	_, err := NormalizeAgenda(a)
	if err == nil {
		t.Fatal("expected error for empty command")
	}
}
