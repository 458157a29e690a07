package readers

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/banshee-data/trajnet/internal/fsutil"
	"github.com/banshee-data/trajnet/internal/trajnet/record"
)

// WILDTRACK annotates every fifth frame on a 480x1440 ground grid of
// 2.5 cm cells whose origin is at (-3, -9) m.
const (
	wildtrackFrameStep = 5
	wildtrackGridWidth = 480
	wildtrackCell      = 0.025
	wildtrackOriginX   = -3.0
	wildtrackOriginY   = -9.0
)

type wildtrackAnnotation struct {
	PersonID   *int `json:"personID"`
	PositionID *int `json:"positionID"`
}

// readWildtrack reads one annotation file named after its frame number,
// e.g. 00000005.json.
func readWildtrack(fsys fsutil.FileSystem, path string) (Result, error) {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	raw, err := strconv.Atoi(stem)
	if err != nil {
		return Result{}, fmt.Errorf("frame number from %s: %w", path, err)
	}
	frame := raw / wildtrackFrameStep

	data, err := fsys.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("reading %s: %w", path, err)
	}
	res := Result{Files: 1}
	var anns []wildtrackAnnotation
	if err := json.Unmarshal(data, &anns); err != nil {
		res.Skipped++
		return res, nil
	}
	for _, a := range anns {
		if a.PersonID == nil || a.PositionID == nil || *a.PositionID < 0 {
			res.Skipped++
			continue
		}
		pos := *a.PositionID
		res.Rows = append(res.Rows, record.TrackRow{
			Frame:      frame,
			Pedestrian: *a.PersonID,
			X:          wildtrackOriginX + wildtrackCell*float64(pos%wildtrackGridWidth),
			Y:          wildtrackOriginY + wildtrackCell*float64(pos/wildtrackGridWidth),
		})
	}
	return res, nil
}
