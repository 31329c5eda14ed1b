package loaders

import (
	"errors"
	"fmt"
)

// Sentinel kinds for the agenda/depend load errors enumerated in
// spec.md §4.7, wrapped the same way internal/dag.GraphError wraps its
// own sentinels.
var (
	ErrLoad = errors.New("invalid document")

	ErrUndefinedProcedure = errors.New("task references an undefined procedure")
	ErrParamMismatch      = errors.New("parameter present in command but absent from args, or vice versa")
	ErrDuplicateOutput    = errors.New("output file declared by more than one task")
	ErrUnknownStageProc   = errors.New("stage references an undefined procedure")
	ErrEmptyCommand       = errors.New("procedure has an empty command")
	ErrNoAdmittingStage   = errors.New("task's procedure is not admitted by any stage")

	ErrSelfLoop    = errors.New("self-loop in implicit dependency graph")
	ErrDependCycle = errors.New("cycle in implicit dependency graph")
)

// LoadError wraps a single structured, first-violation load failure,
// naming the offending key so the CLI can report it directly.
type LoadError struct {
	Kind error
	Key  string
	Msg  string
}

func (e *LoadError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Key)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Key, e.Msg)
}

func (e *LoadError) Unwrap() error { return e.Kind }

func loadf(kind error, key, format string, args ...any) error {
	return &LoadError{Kind: kind, Key: key, Msg: fmt.Sprintf(format, args...)}
}
