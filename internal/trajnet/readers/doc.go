// Package readers turns raw dataset files into canonical track rows.
//
// Each supported format registers a Format in a Registry under a short
// tag (biwi, crowds, mot, ...). Readers absorb parse failures: a malformed
// line is counted and skipped, never returned as an error. Only failures
// to open or read a file are errors.
//
// Dependency rule: readers may depend on record, ndjson and fsutil, never
// on split, scenes, category or pipeline.
package readers
