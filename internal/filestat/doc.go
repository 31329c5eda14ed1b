// Package filestat implements the FileStat store: a persistent map from
// file path to the last observed (mtime, size) pair, and the CachePersistor
// that loads and atomically saves it across runs.
//
// A Store is intentionally dumb: it knows nothing about tasks, graphs, or
// staleness rules. StaleAnalyzer consults it; nothing in this package
// decides what "stale" means.
package filestat
