// Package loaders validates the parsed agenda and depend documents and
// normalizes them into the inputs internal/dag.Build expects: a task
// list with resolved stages, and a flat file-to-file dependency map.
//
// Loading is all-or-nothing per spec.md §4.7: the first violation found
// is reported and nothing partial is returned.
package loaders
