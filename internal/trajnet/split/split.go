package split

import (
	"sort"

	"github.com/banshee-data/trajnet/internal/config"
	"github.com/banshee-data/trajnet/internal/trajnet/record"
)

// Name identifies an output split.
type Name string

const (
	Train       Name = "train"
	Val         Name = "val"
	Test        Name = "test"
	TestPrivate Name = "test_private"
)

// All lists every split in processing order.
var All = []Name{Train, Val, Test, TestPrivate}

// sessionModulus interleaves two recording sessions whose raw frame
// numbers both restart near the same epoch boundary.
const sessionModulus = 100000

// Config selects the cut points of a split.
type Config struct {
	TrainFraction float64
	ValFraction   float64
	OrderFrames   bool
}

// ConfigFromConvert extracts the splitter options of a conversion config.
func ConfigFromConvert(cfg *config.ConvertConfig) Config {
	return Config{
		TrainFraction: cfg.GetTrainFraction(),
		ValFraction:   cfg.GetValFraction(),
		OrderFrames:   cfg.GetOrderFrames(),
	}
}

// FrameSet is a set of frame values.
type FrameSet map[int]struct{}

// Contains reports whether frame is in the set.
func (s FrameSet) Contains(frame int) bool {
	_, ok := s[frame]
	return ok
}

// Sorted returns the frames in ascending order.
func (s FrameSet) Sorted() []int {
	out := make([]int, 0, len(s))
	for f := range s {
		out = append(out, f)
	}
	sort.Ints(out)
	return out
}

func newFrameSet(frames []int) FrameSet {
	s := make(FrameSet, len(frames))
	for _, f := range frames {
		s[f] = struct{}{}
	}
	return s
}

// Assignment maps every distinct frame of a dataset to exactly one of
// train, val or test. The private test channel shares the test frames.
type Assignment struct {
	Train FrameSet
	Val   FrameSet
	Test  FrameSet
}

// Frames partitions the distinct frames of rows. With N distinct frames,
// train gets the first floor(N*train) frames and val the next
// floor(N*val); test gets the remainder, which may be empty when the
// fractions sum above one.
func Frames(rows []record.TrackRow, cfg Config) Assignment {
	frames := record.DistinctFrames(rows)
	if cfg.OrderFrames {
		sort.SliceStable(frames, func(i, j int) bool {
			mi, mj := frames[i]%sessionModulus, frames[j]%sessionModulus
			if mi != mj {
				return mi < mj
			}
			return frames[i] < frames[j]
		})
	}

	n := len(frames)
	trainEnd := clamp(int(float64(n)*cfg.TrainFraction), 0, n)
	valEnd := clamp(trainEnd+int(float64(n)*cfg.ValFraction), trainEnd, n)

	return Assignment{
		Train: newFrameSet(frames[:trainEnd]),
		Val:   newFrameSet(frames[trainEnd:valEnd]),
		Test:  newFrameSet(frames[valEnd:]),
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// FrameSet returns the frames assigned to name.
func (a Assignment) FrameSet(name Name) FrameSet {
	switch name {
	case Train:
		return a.Train
	case Val:
		return a.Val
	case Test, TestPrivate:
		return a.Test
	}
	return nil
}

// Count returns the number of frames assigned to name.
func (a Assignment) Count(name Name) int {
	return len(a.FrameSet(name))
}

// Rows returns copies of the rows whose frame belongs to name, in input
// order.
func (a Assignment) Rows(name Name, rows []record.TrackRow) []record.TrackRow {
	set := a.FrameSet(name)
	var out []record.TrackRow
	for _, r := range rows {
		if set.Contains(r.Frame) {
			out = append(out, r)
		}
	}
	return out
}

// Filter returns the rows of every split, keyed by name. The private test
// subset holds its own copy of the test rows.
func (a Assignment) Filter(rows []record.TrackRow) map[Name][]record.TrackRow {
	out := make(map[Name][]record.TrackRow, len(All))
	for _, name := range All {
		out[name] = a.Rows(name, rows)
	}
	return out
}

// Active returns, in processing order, the splits with at least one frame.
// Train-only, test-only and three-way runs all fall out of this one filter.
func (a Assignment) Active() []Name {
	var out []Name
	for _, name := range All {
		if a.Count(name) > 0 {
			out = append(out, name)
		}
	}
	return out
}
