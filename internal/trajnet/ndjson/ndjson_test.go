package ndjson_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/trajnet/internal/fsutil"
	"github.com/banshee-data/trajnet/internal/testutil"
	"github.com/banshee-data/trajnet/internal/trajnet/ndjson"
	"github.com/banshee-data/trajnet/internal/trajnet/record"
)

func TestEncode_Format(t *testing.T) {
	t.Parallel()

	headers := []record.SceneRow{
		{Scene: 0, Pedestrian: 1, Start: 0, End: 20, FPS: 2.5},
		{Scene: 1, Pedestrian: 2, Start: 4, End: 24, FPS: 2.5, Tag: record.Tag{Main: 4, Sub: []int{1, 3}}},
		{Scene: 2, Pedestrian: 3, Start: 4, End: 24, FPS: 2.5, Tag: record.Tag{Main: 2}},
	}
	rows := []record.TrackRow{
		{Frame: 10, Pedestrian: 2, X: 1.004, Y: -2.456},
		{Frame: 0, Pedestrian: 1, X: 0.5, Y: 0.25},
		{Frame: 10, Pedestrian: 1, X: 3, Y: 4},
		{Frame: 10, Pedestrian: 2, X: 9, Y: 9}, // repeated pair
	}

	var buf bytes.Buffer
	require.NoError(t, ndjson.Encode(&buf, headers, rows))

	want := strings.Join([]string{
		`{"scene":{"id":0,"p":1,"s":0,"e":20,"fps":2.5,"tag":0}}`,
		`{"scene":{"id":1,"p":2,"s":4,"e":24,"fps":2.5,"tag":[4,[1,3]]}}`,
		`{"scene":{"id":2,"p":3,"s":4,"e":24,"fps":2.5,"tag":[2,[]]}}`,
		`{"track":{"f":0,"p":1,"x":0.5,"y":0.25}}`,
		`{"track":{"f":10,"p":1,"x":3,"y":4}}`,
		`{"track":{"f":10,"p":2,"x":1,"y":-2.46}}`,
	}, "\n") + "\n"
	assert.Equal(t, want, buf.String())
}

func TestDecode(t *testing.T) {
	t.Parallel()

	in := strings.Join([]string{
		`{"scene": {"id": 3, "p": 7, "s": 10, "e": 30, "fps": 2.5, "tag": [3, []]}}`,
		``,
		`{"scene": {"id": 4, "p": 8, "s": 10, "e": 30, "fps": 2.5, "tag": 0}}`,
		`{"scene": {"id": 5, "p": 9, "s": 10, "e": 30, "fps": 2.5, "tag": [4, [2]]}}`,
		`{"track": {"f": 10, "p": 7, "x": 1.5, "y": 2.5}}`,
	}, "\n")

	rows, headers, err := ndjson.Decode(strings.NewReader(in))
	require.NoError(t, err)

	want := []record.SceneRow{
		{Scene: 3, Pedestrian: 7, Start: 10, End: 30, FPS: 2.5, Tag: record.Tag{Main: 3}},
		{Scene: 4, Pedestrian: 8, Start: 10, End: 30, FPS: 2.5},
		{Scene: 5, Pedestrian: 9, Start: 10, End: 30, FPS: 2.5, Tag: record.Tag{Main: 4, Sub: []int{2}}},
	}
	if diff := cmp.Diff(want, headers); diff != "" {
		t.Errorf("headers mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []record.TrackRow{{Frame: 10, Pedestrian: 7, X: 1.5, Y: 2.5}}, rows)
}

func TestDecode_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		line string
	}{
		{"not json", "{\"track\": {\"f\": 1, \"p\": 1, \"x\": 0, \"y\": 0}}\nnope", "line 2"},
		{"neither entry", `{"other": {}}`, "line 1"},
		{"both entries", `{"scene": {"id": 1}, "track": {"f": 1}}`, "line 1"},
		{"bad tag", `{"scene": {"id": 1, "tag": [1, 2, 3]}}`, "line 1"},
		{"non-integer frame", `{"track": {"f": "x", "p": 1}}`, "line 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, _, err := ndjson.Decode(strings.NewReader(tt.in))
			require.ErrorIs(t, err, ndjson.ErrMalformedEntry)
			assert.Contains(t, err.Error(), tt.line)
		})
	}
}

func TestWriteScenesAndReadScenes(t *testing.T) {
	t.Parallel()

	fsys := fsutil.NewMemoryFileSystem()
	primary := testutil.Line(1, 0, 1, 21, 0, 0, 0.5, 0)
	neighbor := testutil.Line(2, 10, 1, 15, 0, 1, 0.5, 0)
	all := testutil.Concat(primary, neighbor)
	ix := record.NewFrameIndex(all)

	// Two overlapping scenes of pedestrian 1 sharing most rows.
	scenes := []record.Scene{
		{ID: 0, Primary: record.Track{Pedestrian: 1, Rows: primary[:11]}, Neighbors: ix.Neighbors(0, 10, 1), Start: 0, End: 10, FPS: 2.5},
		{ID: 1, Primary: record.Track{Pedestrian: 1, Rows: primary[5:16]}, Neighbors: ix.Neighbors(5, 15, 1), Start: 5, End: 15, FPS: 2.5, Tag: record.Tag{Main: 3}},
	}

	path := "out/biwi/train/biwi_hotel.ndjson"
	require.NoError(t, ndjson.WriteScenes(fsys, path, scenes))
	assert.True(t, fsys.Exists("out/biwi/train"))

	rows, headers, err := ndjson.ReadRows(fsys, path)
	require.NoError(t, err)
	assert.Len(t, headers, 2)
	// Primary frames 0..15 plus neighbor frames 10..15, each once.
	assert.Len(t, rows, 16+6)

	got, err := ndjson.ReadScenes(fsys, path)
	require.NoError(t, err)
	if diff := cmp.Diff(scenes, got); diff != "" {
		t.Errorf("scene reconstruction mismatch (-want +got):\n%s", diff)
	}
}

func TestReadScenes_MissingPrimary(t *testing.T) {
	t.Parallel()

	fsys := fsutil.NewMemoryFileSystem()
	require.NoError(t, ndjson.WriteFile(fsys, "s.ndjson",
		[]record.SceneRow{{Scene: 0, Pedestrian: 9, Start: 0, End: 5}},
		testutil.Static(1, 0, 1, 6, 0, 0)))

	_, err := ndjson.ReadScenes(fsys, "s.ndjson")
	require.ErrorIs(t, err, ndjson.ErrMalformedEntry)
}

func TestReadRows_MissingFile(t *testing.T) {
	t.Parallel()
	_, _, err := ndjson.ReadRows(fsutil.NewMemoryFileSystem(), "missing.ndjson")
	require.Error(t, err)
}

func TestUniqueRows(t *testing.T) {
	t.Parallel()

	rows := []record.TrackRow{
		{Frame: 2, Pedestrian: 1, X: 1},
		{Frame: 1, Pedestrian: 2},
		{Frame: 2, Pedestrian: 1, X: 5},
		{Frame: 1, Pedestrian: 1},
	}
	got := ndjson.UniqueRows(rows)
	assert.Equal(t, []record.TrackRow{
		{Frame: 1, Pedestrian: 1},
		{Frame: 1, Pedestrian: 2},
		{Frame: 2, Pedestrian: 1, X: 1},
	}, got)
}
