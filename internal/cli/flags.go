package cli

import "runtime"

// Flags is the canonicalized form of the common flag surface shared by
// the offline and online subcommands (spec.md §6): -w/--workers,
// -a/--agenda, -d/--depend, -c/--cache, -l/--log, --debug.
type Flags struct {
	Debug      bool
	Workers    int
	AgendaPath string
	DependPath string
	CachePath  string
	LogPath    string
}

// DefaultWorkers is the worker-pool size used when --workers is not given
// or is non-positive: logical-core-count minus one (spec.md §4.5), with a
// floor of one so a single-core machine still makes progress.
func DefaultWorkers() int {
	n := runtime.NumCPU() - 1
	if n < 1 {
		return 1
	}
	return n
}

// normalizeWorkers applies DefaultWorkers when Workers is unset.
func (f Flags) normalizeWorkers() int {
	if f.Workers > 0 {
		return f.Workers
	}
	return DefaultWorkers()
}
