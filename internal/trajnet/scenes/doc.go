// Package scenes owns the scene windower of the conversion engine.
//
// Responsibilities: slide fixed-length observation+prediction windows over
// every track of a split, reject windows with gaps in the primary's
// sampling grid, attach co-present neighbors, apply the minimum-length and
// minimum-neighbor filters, and number retained scenes from a caller
// supplied counter.
// Key types: Windower, Config, Result.
//
// Windowing runs in parallel across tracks; numbering is a single ordered
// pass afterwards, so scene ids are deterministic for a given input.
//
// Dependency rule: scenes may depend on record and config, never on
// category, ndjson or pipeline.
package scenes
