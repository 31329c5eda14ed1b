package trace

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ExecutionTrace is the canonical, deterministic record of one evaluation
// pass: the dispatch-order property the scheduler's FIFO tie-break makes
// reproducible is only verifiable if the trace itself never depends on
// wall-clock timing or goroutine scheduling.
//
// Invariants:
//   - Captures GraphHash plus an ordered list of events.
//   - Captures logical status transitions, never timestamps, pointers, or
//     any other runtime-dependent value.
type ExecutionTrace struct {
	GraphHash string
	Events    []TraceEvent
}

// TraceEventKind is the stable, canonical discriminator for TraceEvent.
// These values are part of the trace's canonical bytes; do not rename.
type TraceEventKind string

const (
	EventTaskReady     TraceEventKind = "TaskReady"
	EventTaskRunning   TraceEventKind = "TaskRunning"
	EventTaskDone      TraceEventKind = "TaskDone"
	EventTaskFailed    TraceEventKind = "TaskFailed"
	EventTaskSkipped   TraceEventKind = "TaskSkipped"
	EventTaskCancelled TraceEventKind = "TaskCancelled"
)

// TraceEvent is a single logical status transition.
//
// Determinism constraints: no timestamps, no error strings, nothing
// derived from pointer identity or map iteration order. Optional fields
// are normalized by Canonicalize before serialization.
type TraceEvent struct {
	Kind TraceEventKind

	// TaskID identifies the task this event refers to. Required.
	TaskID string

	// Reason is a stable, logical reason code for the transition, e.g.
	// "MissingOutput", "InputChanged", "UpstreamFailed". The set of values
	// is open; producers must keep whatever they emit stable over time.
	Reason string

	// CauseTaskID records a related upstream task: the failing ancestor
	// that caused a Cancelled event, for example.
	CauseTaskID string

	// Artifacts lists the output paths this event concerns, when relevant.
	Artifacts []string
}

// Validate checks basic structural invariants.
func (t *ExecutionTrace) Validate() error {
	if t == nil {
		return errors.New("trace is nil")
	}
	if t.GraphHash == "" {
		return errors.New("graphHash is required")
	}
	for i := range t.Events {
		e := t.Events[i]
		if e.Kind == "" {
			return fmt.Errorf("events[%d].kind is required", i)
		}
		if e.TaskID == "" {
			return fmt.Errorf("events[%d].taskId is required", i)
		}
		for j, a := range e.Artifacts {
			if a == "" {
				return fmt.Errorf("events[%d].artifacts[%d] is empty", i, j)
			}
		}
	}
	return nil
}

// Canonicalize normalizes and sorts the trace into its canonical form:
// ordering is independent of execution timing or goroutine interleaving,
// imposing a total order by (taskId, kind, reason, causeTaskId, artifacts).
func (t *ExecutionTrace) Canonicalize() {
	if t == nil {
		return
	}
	for i := range t.Events {
		if len(t.Events[i].Artifacts) == 0 {
			t.Events[i].Artifacts = nil
			continue
		}
		art := make([]string, len(t.Events[i].Artifacts))
		copy(art, t.Events[i].Artifacts)
		sort.Strings(art)
		t.Events[i].Artifacts = art
	}

	sort.SliceStable(t.Events, func(i, j int) bool {
		a := t.Events[i]
		b := t.Events[j]

		if a.TaskID != b.TaskID {
			return a.TaskID < b.TaskID
		}
		if kindOrder(a.Kind) != kindOrder(b.Kind) {
			return kindOrder(a.Kind) < kindOrder(b.Kind)
		}
		if a.Reason != b.Reason {
			return a.Reason < b.Reason
		}
		if a.CauseTaskID != b.CauseTaskID {
			return a.CauseTaskID < b.CauseTaskID
		}
		return compareStringSlices(a.Artifacts, b.Artifacts)
	})
}

func kindOrder(k TraceEventKind) int {
	switch k {
	case EventTaskReady:
		return 10
	case EventTaskRunning:
		return 20
	case EventTaskDone:
		return 30
	case EventTaskFailed:
		return 40
	case EventTaskSkipped:
		return 50
	case EventTaskCancelled:
		return 60
	default:
		return 1000
	}
}

func compareStringSlices(a, b []string) bool {
	la, lb := len(a), len(b)
	min := la
	if lb < min {
		min = lb
	}
	for i := 0; i < min; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return la < lb
}

// CanonicalJSON returns the canonical JSON encoding of the trace. It
// canonicalizes a copy to avoid mutating the caller's slices.
func (t ExecutionTrace) CanonicalJSON() ([]byte, error) {
	cp := ExecutionTrace{GraphHash: t.GraphHash}
	cp.Events = make([]TraceEvent, len(t.Events))
	copy(cp.Events, t.Events)
	cp.Canonicalize()
	if err := cp.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(&cp)
}

// Hash returns the deterministic trace hash (sha256 hex) of the canonical
// JSON encoding.
func (t ExecutionTrace) Hash() (string, error) {
	b, err := t.CanonicalJSON()
	if err != nil {
		return "", err
	}
	return ComputeTraceHash(b), nil
}

// MarshalJSON fixes field order and omits absent optional fields.
func (t ExecutionTrace) MarshalJSON() ([]byte, error) {
	if t.GraphHash == "" {
		return nil, errors.New("graphHash is required")
	}
	var buf bytes.Buffer
	buf.WriteByte('{')

	buf.WriteString(`"graphHash":`)
	gh, _ := json.Marshal(t.GraphHash)
	buf.Write(gh)
	buf.WriteByte(',')

	buf.WriteString(`"events":[`)
	for i := range t.Events {
		if i > 0 {
			buf.WriteByte(',')
		}
		eb, err := json.Marshal(t.Events[i])
		if err != nil {
			return nil, err
		}
		buf.Write(eb)
	}
	buf.WriteByte(']')

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalJSON fixes field order and omits empty optional fields.
func (e TraceEvent) MarshalJSON() ([]byte, error) {
	if e.Kind == "" {
		return nil, errors.New("kind is required")
	}
	var artifacts []string
	if len(e.Artifacts) > 0 {
		artifacts = make([]string, len(e.Artifacts))
		copy(artifacts, e.Artifacts)
		sort.Strings(artifacts)
	}

	var buf bytes.Buffer
	buf.WriteByte('{')

	buf.WriteString(`"kind":`)
	kb, _ := json.Marshal(string(e.Kind))
	buf.Write(kb)

	buf.WriteString(`,"taskId":`)
	tb, _ := json.Marshal(e.TaskID)
	buf.Write(tb)

	if e.Reason != "" {
		buf.WriteString(`,"reason":`)
		rb, _ := json.Marshal(e.Reason)
		buf.Write(rb)
	}
	if e.CauseTaskID != "" {
		buf.WriteString(`,"causeTaskId":`)
		cb, _ := json.Marshal(e.CauseTaskID)
		buf.Write(cb)
	}
	if len(artifacts) > 0 {
		buf.WriteString(`,"artifacts":[`)
		for i := range artifacts {
			if i > 0 {
				buf.WriteByte(',')
			}
			ab, _ := json.Marshal(artifacts[i])
			buf.Write(ab)
		}
		buf.WriteByte(']')
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}
