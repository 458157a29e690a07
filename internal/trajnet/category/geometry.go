package category

import (
	"math"

	"github.com/golang/geo/r2"
	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/trajnet/internal/trajnet/record"
)

// ChordDeviation returns the largest perpendicular distance of rows from
// the chord joining the first and last row, relative to the path length.
// A straight path scores 0. A closed loop measures distance from the
// start point instead.
func ChordDeviation(rows []record.TrackRow) float64 {
	if len(rows) < 3 {
		return 0
	}
	length := record.PathLength(rows)
	if length == 0 {
		return 0
	}

	a := rows[0].Point()
	chord := rows[len(rows)-1].Point().Sub(a)
	norm := chord.Norm()
	dev := make([]float64, len(rows))
	for i, r := range rows {
		d := r.Point().Sub(a)
		if norm == 0 {
			dev[i] = d.Norm()
			continue
		}
		dev[i] = math.Abs(chord.Cross(d)) / norm
	}
	return floats.Max(dev) / length
}

// headingDegrees returns the direction of v in degrees.
func headingDegrees(v r2.Point) float64 {
	return math.Atan2(v.Y, v.X) * 180 / math.Pi
}

// angleDiff returns a-b wrapped into (-180, 180].
func angleDiff(a, b float64) float64 {
	d := math.Mod(a-b, 360)
	if d <= -180 {
		d += 360
	} else if d > 180 {
		d -= 360
	}
	return d
}

// withinAngle reports whether angle lies within ±width degrees of centre.
func withinAngle(angle, centre, width float64) bool {
	return math.Abs(angleDiff(angle, centre)) <= width
}
