// Package category owns the trajectory classifier of the conversion
// engine.
//
// Responsibilities: label each scene's primary trajectory as static,
// linear, non-linear or interacting, detect interaction sub-types against
// neighbors, downsample scenes per category by acceptance ratio, and number
// retained scenes with a chained track id.
// Key types: Category, Interaction, Classifier, Sampler.
//
// Classification runs in parallel across scenes. Acceptance draws and
// track-id numbering happen in one ordered pass.
//
// Dependency rule: category may depend on record and config, never on
// scenes, ndjson or pipeline.
package category
