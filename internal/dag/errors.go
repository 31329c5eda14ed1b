package dag

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel kinds for the load-time errors enumerated in spec.md §4.1: a
// Graph build fails with the first violation it finds, wrapping one of
// these.
var (
	ErrInvalidGraph      = errors.New("invalid graph")
	ErrDuplicateProducer = errors.New("file has more than one producer")
	ErrTaskCycle         = errors.New("cycle in explicit task dependency graph")
	ErrFileCycle         = errors.New("cycle in implicit file dependency graph")
	ErrNoStage           = errors.New("task's procedure is not admitted by any stage")
	ErrUndefinedProc     = errors.New("task references an undefined procedure")
	ErrUnboundParam      = errors.New("unbound or unreferenced parameter")
)

// GraphError wraps a deterministic load-time validation failure.
type GraphError struct {
	Kind error
	Msg  string
}

func (e *GraphError) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
}

func (e *GraphError) Unwrap() error { return e.Kind }

func invalidf(format string, args ...any) error {
	return &GraphError{Kind: ErrInvalidGraph, Msg: fmt.Sprintf(format, args...)}
}

func wrapf(kind error, format string, args ...any) error {
	return &GraphError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func cycleError(kind error, path []string) error {
	msg := "cycle"
	if len(path) > 0 {
		msg = "cycle: " + strings.Join(path, " -> ")
	}
	return &GraphError{Kind: kind, Msg: msg}
}
