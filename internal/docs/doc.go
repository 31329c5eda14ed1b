// Package docs defines the on-disk YAML document shapes for the agenda
// and depend files and decodes them strictly: unknown keys at any level
// are a load error rather than being silently ignored.
package docs
