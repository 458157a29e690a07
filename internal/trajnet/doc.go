// Package trajnet is the root of the scene conversion engine, which turns
// raw pedestrian-tracking recordings into windowed, category-labelled
// scenes for trajectory-prediction benchmarks.
//
// The engine is layered; each layer may only depend on the layers above it
// in this list:
//
//   - record:   position rows, tracks and scenes (no I/O)
//   - ndjson:   scene file encoding and track-row re-reading
//   - readers:  format registry turning raw files into rows
//   - split:    train/val/test frame partitioning
//   - scenes:   sliding-window scene extraction and scene numbering
//   - category: trajectory classification and acceptance sampling
//   - pipeline: per-dataset orchestration across splits
//
// No SQL is allowed below pipeline; run statistics are persisted by
// internal/catalog through the pipeline.Recorder interface.
package trajnet
