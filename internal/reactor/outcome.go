package reactor

import "taskloom/internal/filestat"

// outcomeKind mirrors workerpool's worker-outcome taxonomy (spec.md §4.5);
// the reactor keeps its own copy because its outcomes also carry observed
// file stats back to the single-owner loop. The offline WorkerPool records
// no stats at all; its caller observes them once the run has drained.
type outcomeKind string

const (
	outcomeOk            outcomeKind = "Ok"
	outcomeMissingOutput outcomeKind = "MissingOutput"
	outcomeNonZeroExit   outcomeKind = "NonZeroExit"
	outcomeSpawnError    outcomeKind = "SpawnError"
	outcomeCancelled     outcomeKind = "Cancelled"
)

type outcome struct {
	kind         outcomeKind
	exitCode     int
	spawnErrKind string
	missingPath  string
	// stats holds the observed (path -> stat) pairs for every output and
	// input-watch-set path this task touched, keyed by declared path.
	stats map[string]filestat.Stat
}

func (o outcome) failed() bool { return o.kind != outcomeOk }

func (o outcome) reason() string {
	switch o.kind {
	case outcomeOk:
		return ""
	case outcomeMissingOutput:
		return "MissingOutput:" + o.missingPath
	case outcomeNonZeroExit:
		return "NonZeroExit"
	case outcomeSpawnError:
		return "SpawnError:" + o.spawnErrKind
	case outcomeCancelled:
		return "Cancelled"
	default:
		return string(o.kind)
	}
}
