// Package record owns the canonical data model of the conversion engine.
//
// Responsibilities: position rows (TrackRow), scene headers (SceneRow),
// per-pedestrian tracks, in-memory scenes, and the grouping and sorting
// helpers every later layer relies on.
// Key types: TrackRow, SceneRow, Track, Scene, Tag.
//
// Dependency rule: record depends on nothing else in internal/trajnet.
package record
