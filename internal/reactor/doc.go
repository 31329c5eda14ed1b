// Package reactor implements the online-mode driver: a single-owner loop
// that multiplexes worker completions, filesystem change events, and
// agenda/depend edits into the Graph and Scheduler it exclusively owns.
//
// Unlike workerpool.Pool, which drives one dag.Scheduler to drain and
// returns, a Reactor never returns on its own in online mode: quiescence
// (drained, no pending events) only triggers a FileStat persist, not an
// exit. The reactor blocks in exactly one place, the select in its run
// loop; workers block only on their assigned subprocess.
package reactor
