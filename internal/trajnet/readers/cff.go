package readers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/banshee-data/trajnet/internal/trajnet/record"
)

// CFF recordings are two sessions per day. Evening frames are offset so
// both sessions share one frame axis.
const (
	cffMorningHour  = "T07"
	cffEveningHour  = "T17"
	cffEveningShift = 100000
	cffArea         = "PIW"
	cffFrameModulus = 4
)

// parseCFF reads "2012-09-18T07:30:12:345;PIW;17;1234;5678". The frame
// counts tenths of a second within the hour: minutes*1000 + seconds*10 +
// tenths. Only the PIW area and every fourth tick are kept; positions are
// millimetres.
func parseCFF(line string) (record.TrackRow, error) {
	cols := fields(line, ";")
	if len(cols) != 5 {
		return record.TrackRow{}, fmt.Errorf("want 5 fields, got %d", len(cols))
	}
	clock := fields(cols[0], ":")
	if len(clock) != 4 {
		return record.TrackRow{}, fmt.Errorf("timestamp %q", cols[0])
	}
	if cols[1] != cffArea {
		return record.TrackRow{}, errFiltered
	}

	var shift int
	switch {
	case strings.HasSuffix(clock[0], cffMorningHour):
	case strings.HasSuffix(clock[0], cffEveningHour):
		shift = cffEveningShift
	default:
		return record.TrackRow{}, fmt.Errorf("timestamp hour %q", clock[0])
	}

	minutes, err := strconv.Atoi(clock[1])
	if err != nil {
		return record.TrackRow{}, fmt.Errorf("minutes: %w", err)
	}
	seconds, err := strconv.Atoi(clock[2])
	if err != nil {
		return record.TrackRow{}, fmt.Errorf("seconds: %w", err)
	}
	tenths, err := strconv.Atoi(clock[3][:1])
	if err != nil {
		return record.TrackRow{}, fmt.Errorf("milliseconds: %w", err)
	}
	frame := minutes*1000 + seconds*10 + tenths
	if frame%cffFrameModulus != 0 {
		return record.TrackRow{}, errFiltered
	}

	ped, err := strconv.Atoi(cols[2])
	if err != nil {
		return record.TrackRow{}, fmt.Errorf("pedestrian: %w", err)
	}
	x, err := strconv.ParseFloat(cols[3], 64)
	if err != nil {
		return record.TrackRow{}, fmt.Errorf("x: %w", err)
	}
	y, err := strconv.ParseFloat(cols[4], 64)
	if err != nil {
		return record.TrackRow{}, fmt.Errorf("y: %w", err)
	}
	return record.TrackRow{Frame: frame + shift, Pedestrian: ped, X: x / 1000, Y: y / 1000}, nil
}
