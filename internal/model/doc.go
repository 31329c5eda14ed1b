// Package model defines the declarative domain types ingested from the
// agenda and depend documents: procedures, tasks, and stages.
//
// These structures are the normalized form produced by internal/loaders;
// nothing in this package parses YAML or touches the filesystem.
package model
