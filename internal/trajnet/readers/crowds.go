package readers

import (
	"bufio"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/interp"

	"github.com/banshee-data/trajnet/internal/fsutil"
	"github.com/banshee-data/trajnet/internal/monitoring"
	"github.com/banshee-data/trajnet/internal/trajnet/record"
)

// Crowds splines are in pixels of a 720x576 frame covering about 12 m,
// and are resampled every crowdsFrameStep frames.
const (
	crowdsWidthPx        = 720.0
	crowdsHeightPx       = 576.0
	crowdsSceneMetres    = 12.0
	crowdsFrameStep      = 10
	crowdsCubicMinPoints = 6
)

type controlPoint struct {
	x, y  float64
	frame int
}

// readCrowds reads a .vsp file: a list of splines, each a header line
// followed by "x y frame gaze" control points. Each spline is one
// pedestrian, numbered in file order.
func readCrowds(fsys fsutil.FileSystem, path string) (Result, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	res := Result{Files: 1}
	var (
		splines [][]controlPoint
		current []controlPoint
	)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if strings.Contains(line, "- Num of control points") || strings.Contains(line, "- the number of splines") {
			if len(current) > 0 {
				splines = append(splines, current)
			}
			current = nil
			continue
		}
		if i := strings.Index(line, " - "); i >= 0 {
			line = line[:i]
		}
		cols := strings.Fields(line)
		if len(cols) == 0 {
			continue
		}
		if len(cols) != 4 {
			res.Skipped++
			continue
		}
		x, errX := strconv.ParseFloat(cols[0], 64)
		y, errY := strconv.ParseFloat(cols[1], 64)
		frame, errF := parseInt(cols[2])
		if errX != nil || errY != nil || errF != nil {
			res.Skipped++
			continue
		}
		current = append(current, controlPoint{x: x, y: y, frame: frame})
	}
	if err := sc.Err(); err != nil {
		return Result{}, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(current) > 0 {
		splines = append(splines, current)
	}

	for ped, points := range splines {
		rows, err := interpolateSpline(ped, points)
		if err != nil {
			res.Skipped += len(points)
			monitoring.Debugf("[readers] %s: spline %d: %v", path, ped, err)
			continue
		}
		res.Rows = append(res.Rows, rows...)
	}
	return res, nil
}

// interpolateSpline scales control points to metres and samples them at
// every multiple of crowdsFrameStep strictly inside the spline's frame
// range. Splines with more than five points use a not-a-knot cubic,
// shorter ones piecewise linear interpolation.
func interpolateSpline(ped int, points []controlPoint) ([]record.TrackRow, error) {
	var fs, xs, ys []float64
	for _, p := range points {
		f := float64(p.frame)
		if len(fs) > 0 && f <= fs[len(fs)-1] {
			continue
		}
		fs = append(fs, f)
		xs = append(xs, p.x/crowdsWidthPx*crowdsSceneMetres)
		ys = append(ys, p.y/crowdsHeightPx*crowdsSceneMetres)
	}
	if len(fs) < 2 {
		return nil, fmt.Errorf("%d usable control points", len(fs))
	}

	var fx, fy interp.FittablePredictor
	if len(fs) >= crowdsCubicMinPoints {
		fx, fy = &interp.NotAKnotCubic{}, &interp.NotAKnotCubic{}
	} else {
		fx, fy = &interp.PiecewiseLinear{}, &interp.PiecewiseLinear{}
	}
	if err := fx.Fit(fs, xs); err != nil {
		return nil, fmt.Errorf("fitting x: %w", err)
	}
	if err := fy.Fit(fs, ys); err != nil {
		return nil, fmt.Errorf("fitting y: %w", err)
	}

	first := int(math.Floor(fs[0]/crowdsFrameStep))*crowdsFrameStep + crowdsFrameStep
	last := fs[len(fs)-1]
	var rows []record.TrackRow
	for frame := first; float64(frame) < last; frame += crowdsFrameStep {
		f := float64(frame)
		rows = append(rows, record.TrackRow{Frame: frame, Pedestrian: ped, X: fx.Predict(f), Y: fy.Predict(f)})
	}
	return rows, nil
}
