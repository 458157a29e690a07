// Package split owns the frame splitter of the conversion engine.
//
// Responsibilities: partition the distinct frames of one dataset into
// train, val and test by fractional cut points, with an optional modular
// ordering for dual-session recordings, and filter rows by split.
// Key types: Assignment, Name.
//
// Dependency rule: split may depend on record and config only.
package split
