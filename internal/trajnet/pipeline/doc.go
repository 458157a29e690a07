// Package pipeline owns the split/category orchestrator.
//
// Responsibilities: split one dataset's rows, window every non-empty
// split and write its scene file, then classify each written split and
// rewrite it, threading the scene-id and track-id counters from one split
// to the next. A Runner fans several datasets out in parallel, isolating
// failures per dataset.
// Key types: Converter, Dataset, Report, Runner, Recorder.
//
// Dependency rule: pipeline may depend on every other trajnet layer.
// Persistence is reached only through the Recorder interface.
package pipeline
