// Package cli wires the external interfaces of spec.md §6 — the
// offline/online/clean/version mode selector and its flags — to the core
// engine: internal/loaders, internal/dag, internal/workerpool, and
// internal/reactor. Nothing in this package implements scheduling or
// staleness logic itself; it only parses invocation, builds the
// collaborators the core needs, and maps their results to the exit-code
// taxonomy of spec.md §6.
package cli
