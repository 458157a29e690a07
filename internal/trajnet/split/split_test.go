package split_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/trajnet/internal/config"
	"github.com/banshee-data/trajnet/internal/testutil"
	"github.com/banshee-data/trajnet/internal/trajnet/record"
	"github.com/banshee-data/trajnet/internal/trajnet/split"
)

// rowsAtFrames returns one row per frame for a single pedestrian.
func rowsAtFrames(frames ...int) []record.TrackRow {
	rows := make([]record.TrackRow, len(frames))
	for i, f := range frames {
		rows[i] = record.TrackRow{Frame: f, Pedestrian: 1}
	}
	return rows
}

func TestFrames_Partition(t *testing.T) {
	t.Parallel()

	rows := testutil.Concat(
		testutil.Static(1, 0, 10, 100, 0, 0),
		testutil.Static(2, 0, 10, 100, 1, 1),
	)

	tests := []struct {
		name               string
		train, val         float64
		wantTr, wantV, wTe int
	}{
		{"default", 0.6, 0.2, 60, 20, 20},
		{"train only", 1.0, 0.0, 100, 0, 0},
		{"test only", 0.0, 0.0, 0, 0, 100},
		{"fractions above one leave no test", 0.7, 0.5, 70, 30, 0},
		{"floors cut points", 0.555, 0.111, 55, 11, 34},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			a := split.Frames(rows, split.Config{TrainFraction: tt.train, ValFraction: tt.val})
			assert.Equal(t, tt.wantTr, a.Count(split.Train))
			assert.Equal(t, tt.wantV, a.Count(split.Val))
			assert.Equal(t, tt.wTe, a.Count(split.Test))
			assert.Equal(t, a.Test, a.FrameSet(split.TestPrivate))
		})
	}
}

func TestFrames_DisjointAndExhaustive(t *testing.T) {
	t.Parallel()

	rows := testutil.Concat(
		testutil.Static(1, 3, 7, 40, 0, 0),
		testutil.Static(2, 100, 3, 55, 0, 0),
	)
	all := record.DistinctFrames(rows)
	a := split.Frames(rows, split.Config{TrainFraction: 0.5, ValFraction: 0.3})

	seen := make(map[int]int)
	for _, name := range []split.Name{split.Train, split.Val, split.Test} {
		for f := range a.FrameSet(name) {
			seen[f]++
		}
	}
	require.Len(t, seen, len(all))
	for _, f := range all {
		assert.Equal(t, 1, seen[f], "frame %d", f)
	}

	// Train frames all precede val frames, which precede test frames.
	tr, v, te := a.Train.Sorted(), a.Val.Sorted(), a.Test.Sorted()
	assert.Less(t, tr[len(tr)-1], v[0])
	assert.Less(t, v[len(v)-1], te[0])
}

func TestFrames_TrainMonotonic(t *testing.T) {
	t.Parallel()

	rows := testutil.Static(1, 0, 1, 137, 0, 0)
	prev := -1
	for i := 0; i <= 20; i++ {
		frac := float64(i) / 20 * 0.8
		n := split.Frames(rows, split.Config{TrainFraction: frac, ValFraction: 0.2}).Count(split.Train)
		assert.GreaterOrEqual(t, n, prev, "train_fraction=%v", frac)
		prev = n
	}
}

func TestFrames_OrderFrames(t *testing.T) {
	t.Parallel()

	// Two sessions: 0..3 and 100000..100003.
	rows := rowsAtFrames(0, 1, 2, 3, 100000, 100001, 100002, 100003)
	a := split.Frames(rows, split.Config{TrainFraction: 0.5, ValFraction: 0.25, OrderFrames: true})

	assert.Equal(t, []int{0, 1, 100000, 100001}, a.Train.Sorted())
	assert.Equal(t, []int{2, 100002}, a.Val.Sorted())
	assert.Equal(t, []int{3, 100003}, a.Test.Sorted())

	plain := split.Frames(rows, split.Config{TrainFraction: 0.5, ValFraction: 0.25})
	assert.Equal(t, []int{0, 1, 2, 3}, plain.Train.Sorted())
}

func TestAssignment_RowsAndActive(t *testing.T) {
	t.Parallel()

	rows := testutil.Concat(testutil.Static(1, 0, 1, 10, 0, 0), testutil.Static(2, 5, 1, 10, 0, 0))
	a := split.Frames(rows, split.Config{TrainFraction: 1.0})

	assert.Equal(t, []split.Name{split.Train}, a.Active())
	assert.Len(t, a.Rows(split.Train, rows), len(rows))
	assert.Empty(t, a.Rows(split.Val, rows))

	byName := split.Frames(rows, split.Config{TrainFraction: 0.6, ValFraction: 0.2}).Filter(rows)
	assert.Equal(t, byName[split.Test], byName[split.TestPrivate])
	total := len(byName[split.Train]) + len(byName[split.Val]) + len(byName[split.Test])
	assert.Equal(t, len(rows), total)
}

func TestFrames_Empty(t *testing.T) {
	t.Parallel()
	a := split.Frames(nil, split.Config{TrainFraction: 0.6, ValFraction: 0.2})
	assert.Empty(t, a.Active())
	assert.Zero(t, a.Count(split.Test))
}

func TestConfigFromConvert(t *testing.T) {
	t.Parallel()
	cfg := config.EmptyConvertConfig()
	got := split.ConfigFromConvert(cfg)
	assert.Equal(t, split.Config{TrainFraction: 0.6, ValFraction: 0.2}, got)
}
