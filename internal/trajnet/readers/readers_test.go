package readers_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/trajnet/internal/fsutil"
	"github.com/banshee-data/trajnet/internal/trajnet/ndjson"
	"github.com/banshee-data/trajnet/internal/trajnet/readers"
	"github.com/banshee-data/trajnet/internal/trajnet/record"
)

func memFS(t *testing.T, files map[string]string) *fsutil.MemoryFileSystem {
	t.Helper()
	fsys := fsutil.NewMemoryFileSystem()
	for name, body := range files {
		require.NoError(t, fsys.WriteFile(name, []byte(body), 0644))
	}
	return fsys
}

func read(t *testing.T, fsys fsutil.FileSystem, format, pattern string) readers.Result {
	t.Helper()
	res, err := readers.DefaultRegistry().Read(fsys, format, pattern)
	require.NoError(t, err)
	return res
}

func TestLineFormats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format   string
		body     string
		want     []record.TrackRow
		skipped  int
		filtered int
	}{
		{
			format: "biwi",
			body: "  1.0000000e+00   2.0000000e+00   1.2e+00   0   3.4e+00  0 0 0\n" +
				"garbage\n" +
				"  2 2 1.5 0 3.5 0 0 0\n",
			want:    []record.TrackRow{{Frame: 0, Pedestrian: 2, X: 1.2, Y: 3.4}, {Frame: 1, Pedestrian: 2, X: 1.5, Y: 3.5}},
			skipped: 1,
		},
		{
			format:   "mot",
			body:     "1,1,0,0,0,0,1,2.5,3.5,-1\n2,1,0,0,0,0,1,2.75,3.25,-1\n4,1,0,0\n",
			want:     []record.TrackRow{{Frame: 2, Pedestrian: 1, X: 2.75, Y: 3.25}},
			skipped:  1,
			filtered: 1,
		},
		{
			format: "lcas",
			body:   "0,5,1.0,2.0\n\n1,5,x,2.0\n",
			want:   []record.TrackRow{{Frame: 0, Pedestrian: 5, X: 1, Y: 2}},
			skipped: 1,
		},
		{
			format: "controlled",
			body:   "0, 5, 1.0, 2.0\n1, 5, 1.5, 2.5\n",
			want:   []record.TrackRow{{Frame: 0, Pedestrian: 5, X: 1, Y: 2}, {Frame: 1, Pedestrian: 5, X: 1.5, Y: 2.5}},
		},
		{
			format: "cff",
			body: strings.Join([]string{
				"2012-09-18T07:30:12:445;PIW;17;1234;5678",
				"2012-09-18T17:30:12:445;PIW;18;1000;-2000",
				"2012-09-18T07:30:12:345;PIW;17;1234;5678", // off-grid tick
				"2012-09-18T07:30:12:445;PIE;17;1234;5678", // other area
				"2012-09-18T09:30:12:445;PIW;17;1234;5678", // unknown session
				"2012-09-18T07:30:12;PIW;17;1234;5678",
			}, "\n"),
			want: []record.TrackRow{
				{Frame: 30124, Pedestrian: 17, X: 1.234, Y: 5.678},
				{Frame: 130124, Pedestrian: 18, X: 1, Y: -2},
			},
			skipped:  2,
			filtered: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			t.Parallel()
			fsys := memFS(t, map[string]string{"data/in.txt": tt.body})
			res := read(t, fsys, tt.format, "data/in.txt")
			require.Len(t, res.Rows, len(tt.want))
			for i, w := range tt.want {
				assert.Equal(t, w.Frame, res.Rows[i].Frame)
				assert.Equal(t, w.Pedestrian, res.Rows[i].Pedestrian)
				assert.InDelta(t, w.X, res.Rows[i].X, 1e-9)
				assert.InDelta(t, w.Y, res.Rows[i].Y, 1e-9)
			}
			assert.Equal(t, tt.skipped, res.Skipped, "skipped")
			assert.Equal(t, tt.filtered, res.Filtered, "filtered")
			assert.Equal(t, 1, res.Files)
		})
	}
}

func TestLineFormats_NonIntegralIDs(t *testing.T) {
	t.Parallel()

	body := strings.Join([]string{
		"4.0,5,1.0,2.0",
		"12.7,5,1.0,2.0",
		"NaN,5,1.0,2.0",
		"6,Inf,1.0,2.0",
		"7,-Inf,1.0,2.0",
		"8,5.5,1.0,2.0",
		"1e300,5,1.0,2.0",
	}, "\n")
	fsys := memFS(t, map[string]string{"data/in.csv": body})
	res := read(t, fsys, "lcas", "data/in.csv")

	require.Len(t, res.Rows, 1)
	assert.Equal(t, record.TrackRow{Frame: 4, Pedestrian: 5, X: 1, Y: 2}, res.Rows[0])
	assert.Equal(t, 6, res.Skipped)
	assert.Zero(t, res.Filtered)
}

const crowdsVSP = `2 - the number of splines
3 - Num of control points
0 0 0 1.0 - (2D point, m_id)
720 0 20 1.0
1440 0 40 1.0
6 - Num of control points
0 288 0 0
72 288 10 0
144 288 20 0
216 288 30 0
not a point
288 288 40 0
360 288 50 0
`

func TestCrowds(t *testing.T) {
	t.Parallel()

	fsys := memFS(t, map[string]string{"crowds/students001.vsp": crowdsVSP})
	res := read(t, fsys, "crowds", "crowds/*.vsp")
	assert.Equal(t, 1, res.Skipped)

	byPed, _ := record.GroupTracks(res.Rows)
	require.Len(t, byPed, 2)

	linear := byPed[0]
	assert.Equal(t, []int{10, 20, 30}, linear.Frames())
	for i, want := range []float64{6, 12, 18} {
		assert.InDelta(t, want, linear.Rows[i].X, 1e-9)
		assert.InDelta(t, 0, linear.Rows[i].Y, 1e-9)
	}

	cubic := byPed[1]
	assert.Equal(t, []int{10, 20, 30, 40}, cubic.Frames())
	for i, want := range []float64{1.2, 2.4, 3.6, 4.8} {
		assert.InDelta(t, want, cubic.Rows[i].X, 1e-9)
		assert.InDelta(t, 6, cubic.Rows[i].Y, 1e-9)
	}
}

func TestWildtrack(t *testing.T) {
	t.Parallel()

	fsys := memFS(t, map[string]string{
		"wildtrack/00000010.json": `[{"personID": 3, "positionID": 481, "views": []}, {"personID": 4}]`,
		"wildtrack/00000000.json": `[{"personID": 3, "positionID": 0}]`,
		"wildtrack/00000005.json": `{broken`,
	})
	res := read(t, fsys, "wildtrack", "wildtrack/*.json")

	require.Len(t, res.Rows, 2)
	assert.Equal(t, 3, res.Files)
	assert.Equal(t, 2, res.Skipped)

	first, second := res.Rows[0], res.Rows[1]
	assert.Equal(t, 0, first.Frame)
	assert.InDelta(t, -3.0, first.X, 1e-9)
	assert.InDelta(t, -9.0, first.Y, 1e-9)
	assert.Equal(t, 2, second.Frame)
	assert.Equal(t, 3, second.Pedestrian)
	assert.InDelta(t, -2.975, second.X, 1e-9)
	assert.InDelta(t, -8.975, second.Y, 1e-9)
}

func TestTrajnetRoundTrip(t *testing.T) {
	t.Parallel()

	fsys := fsutil.NewMemoryFileSystem()
	rows := []record.TrackRow{{Frame: 0, Pedestrian: 1, X: 1.5, Y: 2}, {Frame: 1, Pedestrian: 1, X: 1.75, Y: 2}}
	require.NoError(t, ndjson.WriteFile(fsys, "in.ndjson", []record.SceneRow{{Scene: 0, Pedestrian: 1, Start: 0, End: 1}}, rows))

	res := read(t, fsys, "trajnet", "in.ndjson")
	assert.Equal(t, rows, res.Rows)

	require.NoError(t, fsys.WriteFile("bad.ndjson", []byte("nope\n"), 0644))
	_, err := readers.DefaultRegistry().Read(fsys, "trajnet", "bad.ndjson")
	require.ErrorIs(t, err, ndjson.ErrMalformedEntry)
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	reg := readers.DefaultRegistry()
	assert.Equal(t, []string{"biwi", "cff", "controlled", "crowds", "lcas", "mot", "trajnet", "wildtrack"}, reg.Names())

	fsys := memFS(t, map[string]string{
		"lcas/a.csv": "0,1,0,0\n",
		"lcas/b.csv": "0,2,1,1\n",
	})

	_, err := reg.Read(fsys, "nope", "lcas/*.csv")
	require.ErrorIs(t, err, readers.ErrUnknownFormat)

	_, err = reg.Read(fsys, "lcas", "missing/*.csv")
	require.ErrorIs(t, err, readers.ErrNoInput)

	res, err := reg.Read(fsys, "lcas", "lcas/*.csv")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Files)
	assert.Equal(t, []int{1, 2}, []int{res.Rows[0].Pedestrian, res.Rows[1].Pedestrian})

	reg.Register(&readers.Format{Name: "custom", Read: func(fsutil.FileSystem, string) (readers.Result, error) {
		return readers.Result{Rows: []record.TrackRow{{Frame: 9}}, Files: 1}, nil
	}})
	res, err = reg.Read(fsys, "custom", "lcas/a.csv")
	require.NoError(t, err)
	assert.Equal(t, 9, res.Rows[0].Frame)
}
