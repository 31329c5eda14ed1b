package loaders

import (
	"testing"

	"taskloom/internal/docs"
)

func TestNormalizeDepend_Valid(t *testing.T) {
	d := docs.Depend{"main.o": {"main.c", "util.h"}}
	out, err := NormalizeDepend(d)
	if err != nil {
		t.Fatalf("NormalizeDepend: %v", err)
	}
	if len(out["main.o"]) != 2 {
		t.Fatalf("unexpected result: %+v", out)
	}
}

func TestNormalizeDepend_SelfLoopRejected(t *testing.T) {
	d := docs.Depend{"main.c": {"main.c"}}
	if _, err := NormalizeDepend(d); err == nil {
		t.Fatal("expected error for self-loop")
	}
}

func TestNormalizeDepend_CycleRejected(t *testing.T) {
	d := docs.Depend{
		"a": {"b"},
		"b": {"c"},
		"c": {"a"},
	}
	if _, err := NormalizeDepend(d); err == nil {
		t.Fatal("expected error for cycle")
	}
}
