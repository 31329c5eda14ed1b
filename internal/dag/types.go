package dag

import (
	"taskloom/internal/filestat"
	"taskloom/internal/model"
)

// GraphHash is the deterministic identity of a Graph, computed from its
// canonicalized node and edge structure. It is invariant to the insertion
// order of tasks, files, and edges.
type GraphHash string

func (h GraphHash) String() string { return string(h) }

// TaskStatus is the runtime status of a TaskNode. It is orthogonal to the
// immutable Graph structure: the same Graph can be driven through many
// statuses across a single run, and is reset to Pending wholesale at the
// start of the next one.
type TaskStatus string

const (
	StatusPending   TaskStatus = "Pending"
	StatusReady     TaskStatus = "Ready"
	StatusRunning   TaskStatus = "Running"
	StatusDone      TaskStatus = "Done"
	StatusSkipped   TaskStatus = "Skipped"
	StatusFailed    TaskStatus = "Failed"
	StatusCancelled TaskStatus = "Cancelled"
)

// resolved reports whether s is a status the scheduler treats as final for
// the purposes of stage-gating and predecessor readiness: nothing further
// will run for this task until a rebuild reopens it.
func (s TaskStatus) resolved() bool {
	switch s {
	case StatusDone, StatusSkipped, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// satisfiesDependents reports whether s lets a successor task count this
// task as having met its dependency: both an actual run and a skip (the
// file was already fresh) satisfy a consumer.
func (s TaskStatus) satisfiesDependents() bool {
	return s == StatusDone || s == StatusSkipped
}

// TaskNode is a task in the graph plus a Status field. Build sets Status
// to Pending; the Scheduler tracks runtime status in its own map and does
// not update this field.
type TaskNode struct {
	ID     model.TaskID
	Task   model.Task
	Status TaskStatus

	canonicalIndex int
}

// CanonicalIndex returns the node's deterministic position in the graph's
// canonical ordering (sorted by TaskID, the stable content hash).
func (n *TaskNode) CanonicalIndex() int { return n.canonicalIndex }

// FileNode is a file path plus its last-observed stat, if any.
//
// Initial reports whether the file is not produced by any task in the
// graph (i.e., it is an external input the tool does not own).
type FileNode struct {
	Path    string
	Stat    filestat.Stat
	HasStat bool
	Initial bool

	canonicalIndex int
}

func (n *FileNode) CanonicalIndex() int { return n.canonicalIndex }
