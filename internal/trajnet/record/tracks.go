package record

import (
	"sort"
)

// GroupTracks groups rows by pedestrian into frame-ordered tracks, sorted
// by pedestrian id. Rows repeating an existing (pedestrian, frame) pair are
// dropped, keeping the first occurrence, so frames within a track are
// strictly increasing. The number of dropped duplicates is returned.
func GroupTracks(rows []TrackRow) ([]Track, int) {
	byPed := make(map[int][]TrackRow)
	for _, r := range rows {
		byPed[r.Pedestrian] = append(byPed[r.Pedestrian], r)
	}

	peds := make([]int, 0, len(byPed))
	for p := range byPed {
		peds = append(peds, p)
	}
	sort.Ints(peds)

	dupes := 0
	tracks := make([]Track, 0, len(peds))
	for _, p := range peds {
		path := byPed[p]
		sort.SliceStable(path, func(i, j int) bool { return path[i].Frame < path[j].Frame })
		uniq := path[:0]
		for i, r := range path {
			if i > 0 && r.Frame == uniq[len(uniq)-1].Frame {
				dupes++
				continue
			}
			uniq = append(uniq, r)
		}
		tracks = append(tracks, Track{Pedestrian: p, Rows: uniq})
	}
	return tracks, dupes
}

// DistinctFrames returns the distinct frame values of rows in ascending order.
func DistinctFrames(rows []TrackRow) []int {
	seen := make(map[int]struct{}, len(rows))
	for _, r := range rows {
		seen[r.Frame] = struct{}{}
	}
	out := make([]int, 0, len(seen))
	for f := range seen {
		out = append(out, f)
	}
	sort.Ints(out)
	return out
}

// InferFrameStep returns the native frame spacing of a dataset: the most
// common positive increment between consecutive observations within
// tracks. Ties resolve to the smaller increment. Datasets with no
// increments (every track a single row) return 1.
func InferFrameStep(tracks []Track) int {
	counts := make(map[int]int)
	for _, t := range tracks {
		for i := 1; i < len(t.Rows); i++ {
			if d := t.Rows[i].Frame - t.Rows[i-1].Frame; d > 0 {
				counts[d]++
			}
		}
	}
	best, bestCount := 1, 0
	for d, c := range counts {
		if c > bestCount || (c == bestCount && d < best) {
			best, bestCount = d, c
		}
	}
	return best
}

// PathLength returns the summed Euclidean displacement along rows.
func PathLength(rows []TrackRow) float64 {
	var total float64
	for i := 1; i < len(rows); i++ {
		total += rows[i].Point().Sub(rows[i-1].Point()).Norm()
	}
	return total
}

// Displacement returns the straight-line distance from the first to the
// last row.
func Displacement(rows []TrackRow) float64 {
	if len(rows) < 2 {
		return 0
	}
	return rows[len(rows)-1].Point().Sub(rows[0].Point()).Norm()
}

// FrameIndex answers "who is present between two frames" over an
// immutable, frame-sorted copy of a row set.
type FrameIndex struct {
	rows []TrackRow
}

// NewFrameIndex copies and sorts rows for range lookups.
func NewFrameIndex(rows []TrackRow) *FrameIndex {
	sorted := append([]TrackRow(nil), rows...)
	SortRows(sorted)
	return &FrameIndex{rows: sorted}
}

// Between returns the rows with start <= frame <= end, sorted by frame then
// pedestrian. The returned slice aliases the index and must not be modified.
func (ix *FrameIndex) Between(start, end int) []TrackRow {
	lo := sort.Search(len(ix.rows), func(i int) bool { return ix.rows[i].Frame >= start })
	hi := sort.Search(len(ix.rows), func(i int) bool { return ix.rows[i].Frame > end })
	return ix.rows[lo:hi]
}

// Neighbors returns copies of the tracks, other than exclude's, with at
// least one row in [start, end], restricted to that range and sorted by
// pedestrian id.
func (ix *FrameIndex) Neighbors(start, end, exclude int) []Track {
	var others []TrackRow
	for _, r := range ix.Between(start, end) {
		if r.Pedestrian != exclude {
			others = append(others, r)
		}
	}
	tracks, _ := GroupTracks(others)
	return tracks
}
