package dag

import "taskloom/internal/model"

// RunResult is the deterministic summary of one offline evaluation pass:
// final status per task plus the order tasks were actually dispatched
// (transitioned Ready -> Running), which is the property the scheduler's
// FIFO tie-break makes reproducible across runs of the same graph.
type RunResult struct {
	GraphHash      GraphHash
	FinalStatus    map[model.TaskID]TaskStatus
	DispatchOrder  []model.TaskID
	FailureReasons map[model.TaskID]string
}

func newRunResult(hash GraphHash) *RunResult {
	return &RunResult{
		GraphHash:      hash,
		FinalStatus:    make(map[model.TaskID]TaskStatus),
		FailureReasons: make(map[model.TaskID]string),
	}
}
