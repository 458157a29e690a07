// Package catalog persists conversion runs in SQLite: one row per run,
// one per classified split, with category and interaction counts and
// primary path-length statistics. The schema is applied from embedded
// golang-migrate migrations on Open.
package catalog
