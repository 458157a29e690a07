package record

import (
	"sort"

	"github.com/golang/geo/r2"
)

// TrackRow is one observation of one pedestrian: the canonical position
// record every reader produces. (Pedestrian, Frame) is unique within a
// dataset.
type TrackRow struct {
	Frame      int
	Pedestrian int
	X          float64
	Y          float64
}

// Point returns the row position as a planar vector.
func (r TrackRow) Point() r2.Point {
	return r2.Point{X: r.X, Y: r.Y}
}

// Tag is a scene category label: Main is the 1-based category index and
// Sub lists interaction sub-types. The zero Tag means "not categorised".
type Tag struct {
	Main int
	Sub  []int
}

// IsZero reports whether the tag carries no category.
func (t Tag) IsZero() bool {
	return t.Main == 0 && len(t.Sub) == 0
}

// SceneRow is the header of a scene as stored in a scene file.
type SceneRow struct {
	Scene      int
	Pedestrian int
	Start      int
	End        int
	FPS        float64
	Tag        Tag
}

// Track is the frame-ordered history of one pedestrian.
type Track struct {
	Pedestrian int
	Rows       []TrackRow
}

// Len returns the number of observations in the track.
func (t Track) Len() int { return len(t.Rows) }

// Frames returns the frame numbers of the track in order.
func (t Track) Frames() []int {
	out := make([]int, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Frame
	}
	return out
}

// Clone returns a deep copy of the track.
func (t Track) Clone() Track {
	return Track{Pedestrian: t.Pedestrian, Rows: append([]TrackRow(nil), t.Rows...)}
}

// Scene is one observation+prediction window of a primary pedestrian plus
// every neighbor present during it. A scene owns copies of its rows.
type Scene struct {
	ID        int
	Primary   Track
	Neighbors []Track
	Start     int
	End       int
	FPS       float64
	Tag       Tag
}

// Header returns the SceneRow describing s.
func (s Scene) Header() SceneRow {
	return SceneRow{
		Scene:      s.ID,
		Pedestrian: s.Primary.Pedestrian,
		Start:      s.Start,
		End:        s.End,
		FPS:        s.FPS,
		Tag:        s.Tag,
	}
}

// Rows returns every row of the scene sorted by frame then pedestrian.
func (s Scene) Rows() []TrackRow {
	n := len(s.Primary.Rows)
	for _, nb := range s.Neighbors {
		n += len(nb.Rows)
	}
	out := make([]TrackRow, 0, n)
	out = append(out, s.Primary.Rows...)
	for _, nb := range s.Neighbors {
		out = append(out, nb.Rows...)
	}
	SortRows(out)
	return out
}

// ObservationEnd returns the last frame of the first obsLen primary rows,
// or End when the primary is shorter than obsLen.
func (s Scene) ObservationEnd(obsLen int) int {
	if obsLen <= 0 || obsLen > len(s.Primary.Rows) {
		return s.End
	}
	return s.Primary.Rows[obsLen-1].Frame
}

// SortRows orders rows by frame, then pedestrian.
func SortRows(rows []TrackRow) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Frame != rows[j].Frame {
			return rows[i].Frame < rows[j].Frame
		}
		return rows[i].Pedestrian < rows[j].Pedestrian
	})
}
