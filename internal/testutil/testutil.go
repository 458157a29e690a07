// Package testutil provides shared test helpers and synthetic trajectory
// fixtures for the conversion engine.
package testutil

import (
	"math"
	"testing"

	"github.com/banshee-data/trajnet/internal/trajnet/record"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// Line returns n rows of pedestrian ped moving at constant velocity
// (dx, dy) per observation from (x0, y0), starting at frame start and
// spaced step frames apart.
func Line(ped, start, step, n int, x0, y0, dx, dy float64) []record.TrackRow {
	rows := make([]record.TrackRow, n)
	for i := range rows {
		rows[i] = record.TrackRow{
			Frame:      start + i*step,
			Pedestrian: ped,
			X:          x0 + float64(i)*dx,
			Y:          y0 + float64(i)*dy,
		}
	}
	return rows
}

// Static returns n rows of pedestrian ped standing at (x, y).
func Static(ped, start, step, n int, x, y float64) []record.TrackRow {
	return Line(ped, start, step, n, x, y, 0, 0)
}

// Arc returns n rows of pedestrian ped walking along a circle of the given
// radius around (cx, cy), advancing dtheta radians per observation.
func Arc(ped, start, step, n int, cx, cy, radius, dtheta float64) []record.TrackRow {
	rows := make([]record.TrackRow, n)
	for i := range rows {
		theta := float64(i) * dtheta
		rows[i] = record.TrackRow{
			Frame:      start + i*step,
			Pedestrian: ped,
			X:          cx + radius*math.Cos(theta),
			Y:          cy + radius*math.Sin(theta),
		}
	}
	return rows
}

// Concat joins row slices into one.
func Concat(parts ...[]record.TrackRow) []record.TrackRow {
	var out []record.TrackRow
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// Drop returns rows without the rows of pedestrian ped at the given frames.
func Drop(rows []record.TrackRow, ped int, frames ...int) []record.TrackRow {
	skip := make(map[int]bool, len(frames))
	for _, f := range frames {
		skip[f] = true
	}
	out := make([]record.TrackRow, 0, len(rows))
	for _, r := range rows {
		if r.Pedestrian == ped && skip[r.Frame] {
			continue
		}
		out = append(out, r)
	}
	return out
}
