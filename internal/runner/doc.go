// Package runner defines the TaskRunner capability the WorkerPool depends
// on to actually execute a task's effective command, plus the two
// implementations the rest of the module is built against: an os/exec
// backed Process runner for real invocations, and an in-memory Fake for
// tests that would otherwise have to spawn real processes to exercise
// scheduler and reactor behavior.
package runner
