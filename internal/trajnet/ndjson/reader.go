package ndjson

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/banshee-data/trajnet/internal/fsutil"
	"github.com/banshee-data/trajnet/internal/trajnet/record"
)

// ErrMalformedEntry is wrapped by every decode failure. A malformed scene
// file is fatal for the dataset that wrote it.
var ErrMalformedEntry = errors.New("malformed scene file entry")

// maxLineBytes bounds one scene file line.
const maxLineBytes = 1 << 20

// Decode reads every entry of a scene file. Blank lines are skipped.
func Decode(r io.Reader) ([]record.TrackRow, []record.SceneRow, error) {
	var (
		rows    []record.TrackRow
		headers []record.SceneRow
	)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	line := 0
	for sc.Scan() {
		line++
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 {
			continue
		}
		var e entry
		if err := json.Unmarshal(b, &e); err != nil {
			return nil, nil, fmt.Errorf("line %d: %w: %v", line, ErrMalformedEntry, err)
		}
		switch {
		case e.Scene != nil && e.Track != nil:
			return nil, nil, fmt.Errorf("line %d: %w: both scene and track", line, ErrMalformedEntry)
		case e.Scene != nil:
			headers = append(headers, e.Scene.row())
		case e.Track != nil:
			rows = append(rows, e.Track.row())
		default:
			return nil, nil, fmt.Errorf("line %d: %w: neither scene nor track", line, ErrMalformedEntry)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, nil, fmt.Errorf("line %d: %w: %v", line+1, ErrMalformedEntry, err)
	}
	return rows, headers, nil
}

// ReadRows reads the track rows and scene headers of the file at path.
func ReadRows(fsys fsutil.FileSystem, path string) ([]record.TrackRow, []record.SceneRow, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening scene file: %w", err)
	}
	defer f.Close()

	rows, headers, err := Decode(f)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, headers, nil
}

// Reconstruct rebuilds scenes from headers and rows: each scene gets the
// primary's rows within its frame range and every other pedestrian
// present in that range as a neighbor. A header whose primary has no rows
// in range is an ErrMalformedEntry.
func Reconstruct(rows []record.TrackRow, headers []record.SceneRow) ([]record.Scene, error) {
	index := record.NewFrameIndex(rows)
	out := make([]record.Scene, 0, len(headers))
	for _, h := range headers {
		var primary []record.TrackRow
		for _, r := range index.Between(h.Start, h.End) {
			if r.Pedestrian == h.Pedestrian {
				primary = append(primary, r)
			}
		}
		if len(primary) == 0 {
			return nil, fmt.Errorf("scene %d: %w: no rows for primary pedestrian %d", h.Scene, ErrMalformedEntry, h.Pedestrian)
		}
		out = append(out, record.Scene{
			ID:        h.Scene,
			Primary:   record.Track{Pedestrian: h.Pedestrian, Rows: primary},
			Neighbors: index.Neighbors(h.Start, h.End, h.Pedestrian),
			Start:     h.Start,
			End:       h.End,
			FPS:       h.FPS,
			Tag:       h.Tag,
		})
	}
	return out, nil
}

// ReadScenes reads the file at path and reconstructs its scenes.
func ReadScenes(fsys fsutil.FileSystem, path string) ([]record.Scene, error) {
	rows, headers, err := ReadRows(fsys, path)
	if err != nil {
		return nil, err
	}
	scenes, err := Reconstruct(rows, headers)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return scenes, nil
}
