package ndjson

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/banshee-data/trajnet/internal/fsutil"
	"github.com/banshee-data/trajnet/internal/trajnet/record"
)

// Writer encodes scene file entries, one per line.
type Writer struct {
	bw  *bufio.Writer
	enc *json.Encoder
}

// NewWriter returns a Writer buffering into w. Call Flush when done.
func NewWriter(w io.Writer) *Writer {
	bw := bufio.NewWriter(w)
	return &Writer{bw: bw, enc: json.NewEncoder(bw)}
}

// WriteScene writes one scene entry.
func (w *Writer) WriteScene(s record.SceneRow) error {
	return w.enc.Encode(newSceneEntry(s))
}

// WriteTrack writes one track entry with coordinates rounded to
// centimetres.
func (w *Writer) WriteTrack(r record.TrackRow) error {
	return w.enc.Encode(newTrackEntry(r))
}

// Flush writes any buffered entries to the underlying writer.
func (w *Writer) Flush() error {
	return w.bw.Flush()
}

// Encode writes headers followed by rows sorted by frame then pedestrian.
// Rows repeating a (pedestrian, frame) pair are written once.
func Encode(w io.Writer, headers []record.SceneRow, rows []record.TrackRow) error {
	nw := NewWriter(w)
	for _, h := range headers {
		if err := nw.WriteScene(h); err != nil {
			return fmt.Errorf("writing scene %d: %w", h.Scene, err)
		}
	}
	for _, r := range UniqueRows(rows) {
		if err := nw.WriteTrack(r); err != nil {
			return fmt.Errorf("writing track row: %w", err)
		}
	}
	return nw.Flush()
}

// UniqueRows returns rows sorted by frame then pedestrian with repeated
// (pedestrian, frame) pairs removed, keeping the first occurrence.
func UniqueRows(rows []record.TrackRow) []record.TrackRow {
	type key struct{ frame, ped int }
	seen := make(map[key]struct{}, len(rows))
	out := make([]record.TrackRow, 0, len(rows))
	for _, r := range rows {
		k := key{r.Frame, r.Pedestrian}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	record.SortRows(out)
	return out
}

// WriteFile writes headers and rows to path on fsys, creating parent
// directories as needed.
func WriteFile(fsys fsutil.FileSystem, path string, headers []record.SceneRow, rows []record.TrackRow) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := fsys.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("creating scene file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing scene file: %w", cerr)
		}
	}()
	if err := Encode(f, headers, rows); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// WriteScenes writes every scene header and every row covered by scenes.
func WriteScenes(fsys fsutil.FileSystem, path string, scenes []record.Scene) error {
	headers := make([]record.SceneRow, len(scenes))
	var rows []record.TrackRow
	for i, s := range scenes {
		headers[i] = s.Header()
		rows = append(rows, s.Primary.Rows...)
		for _, nb := range s.Neighbors {
			rows = append(rows, nb.Rows...)
		}
	}
	return WriteFile(fsys, path, headers, rows)
}
