package ndjson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/banshee-data/trajnet/internal/trajnet/record"
)

type sceneEntry struct {
	ID         int     `json:"id"`
	Pedestrian int     `json:"p"`
	Start      int     `json:"s"`
	End        int     `json:"e"`
	FPS        float64 `json:"fps"`
	Tag        wireTag `json:"tag"`
}

type trackEntry struct {
	Frame      int     `json:"f"`
	Pedestrian int     `json:"p"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
}

// entry is one line of a scene file. Exactly one field is set.
type entry struct {
	Scene *sceneEntry `json:"scene,omitempty"`
	Track *trackEntry `json:"track,omitempty"`
}

// wireTag encodes a record.Tag as 0 or [main, [sub...]].
type wireTag record.Tag

func (t wireTag) MarshalJSON() ([]byte, error) {
	if record.Tag(t).IsZero() {
		return []byte("0"), nil
	}
	sub := t.Sub
	if sub == nil {
		sub = []int{}
	}
	return json.Marshal([]interface{}{t.Main, sub})
}

func (t *wireTag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = wireTag{}
		return nil
	}
	if data[0] != '[' {
		var main int
		if err := json.Unmarshal(data, &main); err != nil {
			return fmt.Errorf("tag: %w", err)
		}
		*t = wireTag{Main: main}
		return nil
	}

	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("tag: %w", err)
	}
	if len(parts) == 0 || len(parts) > 2 {
		return fmt.Errorf("tag: want [main, [sub...]], got %d elements", len(parts))
	}
	var out wireTag
	if err := json.Unmarshal(parts[0], &out.Main); err != nil {
		return fmt.Errorf("tag main: %w", err)
	}
	if len(parts) == 2 {
		if err := json.Unmarshal(parts[1], &out.Sub); err != nil {
			return fmt.Errorf("tag sub: %w", err)
		}
		if len(out.Sub) == 0 {
			out.Sub = nil
		}
	}
	*t = out
	return nil
}

// roundCoord rounds a coordinate to centimetres.
func roundCoord(v float64) float64 {
	return math.Round(v*100) / 100
}

func newSceneEntry(s record.SceneRow) entry {
	return entry{Scene: &sceneEntry{
		ID:         s.Scene,
		Pedestrian: s.Pedestrian,
		Start:      s.Start,
		End:        s.End,
		FPS:        s.FPS,
		Tag:        wireTag(s.Tag),
	}}
}

func newTrackEntry(r record.TrackRow) entry {
	return entry{Track: &trackEntry{
		Frame:      r.Frame,
		Pedestrian: r.Pedestrian,
		X:          roundCoord(r.X),
		Y:          roundCoord(r.Y),
	}}
}

func (s *sceneEntry) row() record.SceneRow {
	return record.SceneRow{
		Scene:      s.ID,
		Pedestrian: s.Pedestrian,
		Start:      s.Start,
		End:        s.End,
		FPS:        s.FPS,
		Tag:        record.Tag(s.Tag),
	}
}

func (t *trackEntry) row() record.TrackRow {
	return record.TrackRow{Frame: t.Frame, Pedestrian: t.Pedestrian, X: t.X, Y: t.Y}
}
