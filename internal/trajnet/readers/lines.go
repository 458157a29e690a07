package readers

import (
	"bufio"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/banshee-data/trajnet/internal/fsutil"
	"github.com/banshee-data/trajnet/internal/monitoring"
	"github.com/banshee-data/trajnet/internal/trajnet/record"
)

// errFiltered marks a well-formed line the format deliberately drops.
var errFiltered = errors.New("filtered")

// lineFunc parses one line. It returns errFiltered for lines to drop and
// any other error for malformed lines.
type lineFunc func(line string) (record.TrackRow, error)

// lineReader adapts a per-line parser into a ReadFunc. Blank lines are
// ignored.
func lineReader(parse lineFunc) ReadFunc {
	return func(fsys fsutil.FileSystem, path string) (Result, error) {
		f, err := fsys.Open(path)
		if err != nil {
			return Result{}, fmt.Errorf("opening %s: %w", path, err)
		}
		defer f.Close()

		res := Result{Files: 1}
		sc := bufio.NewScanner(f)
		sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
		n := 0
		for sc.Scan() {
			n++
			line := strings.TrimSpace(sc.Text())
			if line == "" {
				continue
			}
			row, err := parse(line)
			switch {
			case errors.Is(err, errFiltered):
				res.Filtered++
			case err != nil:
				res.Skipped++
				monitoring.Debugf("[readers] %s:%d: %v", path, n, err)
			default:
				res.Rows = append(res.Rows, row)
			}
		}
		if err := sc.Err(); err != nil {
			return Result{}, fmt.Errorf("reading %s: %w", path, err)
		}
		return res, nil
	}
}

// fields splits on sep, dropping empty fields.
func fields(line, sep string) []string {
	parts := strings.Split(line, sep)
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// maxExactInt is the largest magnitude a float64 holds without losing
// integer precision.
const maxExactInt = 1 << 53

// parseInt accepts integral values written as floats ("12.0"). Fractional,
// non-finite and out-of-range values are errors.
func parseInt(s string) (int, error) {
	if i, err := strconv.Atoi(s); err == nil {
		return i, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		return 0, fmt.Errorf("%q is not finite", s)
	case v != math.Trunc(v):
		return 0, fmt.Errorf("%q is not an integer", s)
	case math.Abs(v) > maxExactInt:
		return 0, fmt.Errorf("%q is out of range", s)
	}
	return int(v), nil
}

// rowFromColumns builds a row from the given column indices.
func rowFromColumns(cols []string, frame, ped, x, y int) (record.TrackRow, error) {
	need := max(frame, ped, x, y) + 1
	if len(cols) < need {
		return record.TrackRow{}, fmt.Errorf("want at least %d columns, got %d", need, len(cols))
	}
	f, err := parseInt(cols[frame])
	if err != nil {
		return record.TrackRow{}, fmt.Errorf("frame: %w", err)
	}
	p, err := parseInt(cols[ped])
	if err != nil {
		return record.TrackRow{}, fmt.Errorf("pedestrian: %w", err)
	}
	xv, err := strconv.ParseFloat(cols[x], 64)
	if err != nil {
		return record.TrackRow{}, fmt.Errorf("x: %w", err)
	}
	yv, err := strconv.ParseFloat(cols[y], 64)
	if err != nil {
		return record.TrackRow{}, fmt.Errorf("y: %w", err)
	}
	return record.TrackRow{Frame: f, Pedestrian: p, X: xv, Y: yv}, nil
}

// parseBIWI reads an obsmat line. Frames are 1-based in the source.
func parseBIWI(line string) (record.TrackRow, error) {
	row, err := rowFromColumns(strings.Fields(line), 0, 1, 2, 4)
	if err != nil {
		return row, err
	}
	row.Frame--
	return row, nil
}

// parseMOT reads a MOT ground-truth line with world coordinates in
// columns 7 and 8, keeping even frames.
func parseMOT(line string) (record.TrackRow, error) {
	row, err := rowFromColumns(fields(line, ","), 0, 1, 7, 8)
	if err != nil {
		return row, err
	}
	if row.Frame%2 != 0 {
		return row, errFiltered
	}
	return row, nil
}

func parseLCAS(line string) (record.TrackRow, error) {
	return rowFromColumns(fields(line, ","), 0, 1, 2, 3)
}

func parseControlled(line string) (record.TrackRow, error) {
	return rowFromColumns(fields(line, ","), 0, 1, 2, 3)
}
