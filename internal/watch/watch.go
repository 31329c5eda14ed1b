package watch

// Op classifies a file-change event into the three kinds the reactor
// distinguishes: a created or modified file invalidates its stat, a
// removed file invalidates its stat and its dependents still see it as
// missing until it reappears.
type Op int

const (
	OpCreated Op = iota
	OpModified
	OpRemoved
)

func (o Op) String() string {
	switch o {
	case OpCreated:
		return "created"
	case OpModified:
		return "modified"
	case OpRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Event is one debounced, deduplicated file-change notification.
type Event struct {
	Path string
	Op   Op
}

// FileWatch is the capability the reactor depends on to learn about
// changes to files it cares about. Implementations deliver at most one
// event per path per debounce window, collapsing bursts (e.g. an editor
// writing a file via a temp-file-then-rename) into a single Modified.
type FileWatch interface {
	// Add starts watching path. Adding a path already being watched is a
	// no-op. Adding a path that does not yet exist is not an error: the
	// watcher reports it Created once it appears, if the underlying
	// mechanism supports watching its parent directory.
	Add(path string) error

	// Remove stops watching path. Removing a path not being watched is a
	// no-op.
	Remove(path string) error

	// Events returns the channel of debounced change events. Callers stop
	// reading once Close has been called.
	Events() <-chan Event

	// Errors returns the channel of asynchronous watch errors (e.g. the
	// underlying OS watch mechanism failing).
	Errors() <-chan error

	// Close stops the watcher and releases its resources.
	Close() error
}
