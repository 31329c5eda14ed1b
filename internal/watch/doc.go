// Package watch defines the FileWatch capability the reactor uses in
// online mode: a source of debounced file-change events for the initial
// input files, their implicit-closure files, and the agenda/depend
// documents themselves.
package watch
