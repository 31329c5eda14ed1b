package watch

import "testing"

func TestFake_EmitsOnlyForAddedPaths(t *testing.T) {
	f := NewFake()
	f.Emit(Event{Path: "a.txt", Op: OpModified})

	select {
	case ev := <-f.Events():
		t.Fatalf("expected no event for unwatched path, got %+v", ev)
	default:
	}

	if err := f.Add("a.txt"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	f.Emit(Event{Path: "a.txt", Op: OpModified})

	select {
	case ev := <-f.Events():
		if ev.Path != "a.txt" || ev.Op != OpModified {
			t.Fatalf("unexpected event: %+v", ev)
		}
	default:
		t.Fatal("expected an event after adding the path")
	}
}

func TestFake_RemoveStopsDelivery(t *testing.T) {
	f := NewFake()
	_ = f.Add("a.txt")
	_ = f.Remove("a.txt")
	f.Emit(Event{Path: "a.txt", Op: OpRemoved})

	select {
	case ev := <-f.Events():
		t.Fatalf("expected no event after Remove, got %+v", ev)
	default:
	}
}
