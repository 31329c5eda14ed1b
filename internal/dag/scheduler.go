package dag

import (
	"fmt"

	"taskloom/internal/model"
)

// Scheduler turns a MustRun set into a stage-gated, dependency-respecting
// stream of ready task IDs. It is a stateful pull API, not a pure
// function: callers seed it once per run and then alternate NextReady and
// Complete until Drained reports true.
//
// A stage is a hard barrier, stronger than the explicit task DAG: no task
// in stage N+1 becomes ready until every task in stage N has resolved
// (Done, Skipped, Failed, or Cancelled), even if the DAG alone would allow
// it to start earlier.
type Scheduler struct {
	g *Graph

	status      map[model.TaskID]TaskStatus
	predPending map[model.TaskID]int

	maxStage       int
	stageOf        map[model.TaskID]int
	tasksByStage   [][]model.TaskID
	stageRemaining []int
	currentStage   int

	queue     []model.TaskID
	queuedSet map[model.TaskID]bool

	outstanding int
}

// NewScheduler builds a Scheduler bound to g. Call Seed before pulling any
// tasks.
func NewScheduler(g *Graph) *Scheduler {
	maxStage := 0
	for _, n := range g.Tasks() {
		if n.Task.Stage > maxStage {
			maxStage = n.Task.Stage
		}
	}
	return &Scheduler{
		g:            g,
		maxStage:     maxStage,
		stageOf:      make(map[model.TaskID]int),
		tasksByStage: make([][]model.TaskID, maxStage+1),
		queuedSet:    make(map[model.TaskID]bool),
	}
}

// Seed initializes the run: tasks in mustRun start Pending, everything
// else starts Skipped (its existing outputs are reused as-is). It
// populates the initial ready queue with every Pending task of the lowest
// stage that still has Pending tasks, provided all of that task's
// predecessors are already Done or Skipped.
func (s *Scheduler) Seed(mustRun map[model.TaskID]bool) {
	tasks := s.g.Tasks()
	s.status = make(map[model.TaskID]TaskStatus, len(tasks))
	s.predPending = make(map[model.TaskID]int, len(tasks))
	s.stageRemaining = make([]int, s.maxStage+1)
	s.currentStage = 0
	s.queue = nil
	s.queuedSet = make(map[model.TaskID]bool)
	s.outstanding = 0

	for _, n := range tasks {
		s.stageOf[n.ID] = n.Task.Stage
		s.tasksByStage[n.Task.Stage] = append(s.tasksByStage[n.Task.Stage], n.ID)
		if mustRun[n.ID] {
			s.status[n.ID] = StatusPending
			s.stageRemaining[n.Task.Stage]++
			s.outstanding++
		} else {
			s.status[n.ID] = StatusSkipped
		}
	}

	for _, n := range tasks {
		if s.status[n.ID] != StatusPending {
			continue
		}
		pending := 0
		for _, pred := range s.g.Predecessors(n.ID) {
			if !s.status[pred].satisfiesDependents() {
				pending++
			}
		}
		s.predPending[n.ID] = pending
	}

	s.advanceStage()
	for _, id := range s.tasksByStage[s.currentStage] {
		s.maybeEnqueue(id)
	}
}

// NextReady dequeues the next task eligible to run, transitioning it from
// Ready to Running, or reports false if none is currently available.
func (s *Scheduler) NextReady() (model.TaskID, bool) {
	if len(s.queue) == 0 {
		return "", false
	}
	id := s.queue[0]
	s.queue = s.queue[1:]
	delete(s.queuedSet, id)
	if err := transition(s.status, id, StatusReady, StatusRunning); err != nil {
		panic(err) // scheduler invariant: only Ready tasks are ever queued
	}
	return id, true
}

// Complete reports that a running task finished, successfully or not.
// A failure cascades Failed to every transitive successor that has not
// already resolved (spec.md §4.4 "on Failed, mark every transitive
// successor Failed").
func (s *Scheduler) Complete(id model.TaskID, failed bool) error {
	to := StatusDone
	if failed {
		to = StatusFailed
	}
	if err := transition(s.status, id, StatusRunning, to); err != nil {
		return err
	}
	s.resolve(id)
	if failed {
		s.failSuccessors(id)
	} else {
		s.wake(id)
	}
	s.advanceStage()
	for _, tid := range s.tasksByStage[s.currentStage] {
		s.maybeEnqueue(tid)
	}
	return nil
}

// Drained reports whether every task has reached a terminal status
// (Done, Skipped, or Failed).
func (s *Scheduler) Drained() bool { return s.outstanding == 0 }

// Status returns the current status of id.
func (s *Scheduler) Status(id model.TaskID) TaskStatus { return s.status[id] }

// Reopen moves each of ids back to Pending and recomputes its
// readiness, for the online-mode invalidation path of spec.md §7:
// "online mode leaves the failed subgraph Failed until an input change
// invalidates it, at which point those tasks re-enter Pending". The
// caller (the reactor) is responsible for deciding which tasks an
// invalidating change newly classifies MustRun. Only Skipped, Failed, and
// Cancelled tasks are moved; a task that is Pending, Ready, Running, or
// Done is left untouched.
func (s *Scheduler) Reopen(ids []model.TaskID) error {
	for _, id := range ids {
		st, ok := s.status[id]
		if !ok {
			continue
		}
		switch st {
		case StatusPending, StatusReady, StatusRunning:
			continue
		case StatusSkipped, StatusFailed, StatusCancelled:
			if err := transition(s.status, id, st, StatusPending); err != nil {
				return err
			}
			s.outstanding++
			s.stageRemaining[s.stageOf[id]]++
		case StatusDone:
			continue
		}
	}

	for _, id := range ids {
		if s.status[id] != StatusPending {
			continue
		}
		pending := 0
		for _, pred := range s.g.Predecessors(id) {
			if !s.status[pred].satisfiesDependents() {
				pending++
			}
		}
		s.predPending[id] = pending
	}

	s.advanceStage()
	for _, id := range s.tasksByStage[s.currentStage] {
		s.maybeEnqueue(id)
	}
	return nil
}

// CancelRunning aborts a Running task whose inputs were invalidated
// mid-flight (spec.md §4.6 "Tasks currently Running whose inputs have
// been invalidated are cancelled, and their cancellation notification
// re-enters them as Pending on completion"). Unlike Complete(failed:
// true), this never cascades Failed to successors: the task simply
// re-enters Pending with a freshly computed predecessor count and may
// become ready again once its predecessors are resolved.
func (s *Scheduler) CancelRunning(id model.TaskID) error {
	if err := transition(s.status, id, StatusRunning, StatusCancelled); err != nil {
		return err
	}
	if err := transition(s.status, id, StatusCancelled, StatusPending); err != nil {
		return err
	}

	pending := 0
	for _, pred := range s.g.Predecessors(id) {
		if !s.status[pred].satisfiesDependents() {
			pending++
		}
	}
	s.predPending[id] = pending

	s.advanceStage()
	for _, tid := range s.tasksByStage[s.currentStage] {
		s.maybeEnqueue(tid)
	}
	return nil
}

// MarkRunning forces each of ids directly into Running, bypassing the
// ordinary Ready-queue path. It exists for the reactor's agenda/depend
// rebuild handling (spec.md §4.6 point 3): a task whose process is still
// physically executing across a rebuild keeps the Scheduler's bookkeeping
// in sync with reality rather than being re-queued behind its own
// in-flight work. ids must already have been seeded (typically MustRun,
// since a task still running has not yet produced its declared outputs).
func (s *Scheduler) MarkRunning(ids []model.TaskID) error {
	for _, id := range ids {
		st, ok := s.status[id]
		if !ok {
			continue
		}
		switch st {
		case StatusRunning:
			continue
		case StatusReady:
			s.removeFromQueue(id)
			if err := transition(s.status, id, StatusReady, StatusRunning); err != nil {
				return err
			}
		case StatusPending:
			if err := transition(s.status, id, StatusPending, StatusReady); err != nil {
				return err
			}
			if err := transition(s.status, id, StatusReady, StatusRunning); err != nil {
				return err
			}
		default:
			return fmt.Errorf("cannot adopt %v as running from status %s", id, st)
		}
	}
	return nil
}

func (s *Scheduler) resolve(id model.TaskID) {
	s.stageRemaining[s.stageOf[id]]--
	s.outstanding--
}

func (s *Scheduler) wake(id model.TaskID) {
	for _, succ := range s.g.Successors(id) {
		if s.status[succ] != StatusPending {
			continue
		}
		if s.predPending[succ] > 0 {
			s.predPending[succ]--
		}
		if s.predPending[succ] == 0 {
			s.maybeEnqueue(succ)
		}
	}
}

// failSuccessors marks the entire transitive successor closure of id as
// Failed, short-circuiting the ordinary predecessor-countdown path:
// nothing downstream of a failure can ever legitimately run.
func (s *Scheduler) failSuccessors(id model.TaskID) {
	visited := map[model.TaskID]bool{id: true}
	queue := append([]model.TaskID(nil), s.g.Successors(id)...)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if visited[cur] {
			continue
		}
		visited[cur] = true

		switch s.status[cur] {
		case StatusPending:
			_ = transition(s.status, cur, StatusPending, StatusFailed)
			s.resolve(cur)
		case StatusReady:
			s.removeFromQueue(cur)
			_ = transition(s.status, cur, StatusReady, StatusFailed)
			s.resolve(cur)
		default:
			// Already Running, Done, Failed, Skipped, or Cancelled: leave it.
			continue
		}
		queue = append(queue, s.g.Successors(cur)...)
	}
}

func (s *Scheduler) removeFromQueue(id model.TaskID) {
	if !s.queuedSet[id] {
		return
	}
	delete(s.queuedSet, id)
	for i, q := range s.queue {
		if q == id {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			break
		}
	}
}

func (s *Scheduler) maybeEnqueue(id model.TaskID) {
	if s.status[id] != StatusPending {
		return
	}
	if s.stageOf[id] != s.currentStage {
		return
	}
	if s.predPending[id] != 0 {
		return
	}
	if s.queuedSet[id] {
		return
	}
	if err := transition(s.status, id, StatusPending, StatusReady); err != nil {
		panic(err)
	}
	s.queuedSet[id] = true
	s.queue = append(s.queue, id)
}

// advanceStage moves currentStage forward past any stage with nothing
// left to resolve.
func (s *Scheduler) advanceStage() {
	for s.currentStage < s.maxStage && s.stageRemaining[s.currentStage] == 0 {
		s.currentStage++
	}
}
