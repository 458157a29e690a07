package category

import (
	"github.com/golang/geo/r2"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/trajnet/internal/trajnet/record"
)

// velocityStride is the number of observations over which headings and
// velocities are measured.
const velocityStride = 3

// Relative velocity directions of the two directed interaction types.
const (
	followAngle  = 0.0
	avoidAngle   = 180.0
	velAngleSpan = 15.0
)

// aligned is a neighbor track sampled at the primary's frames. Missing
// observations are marked absent.
type aligned struct {
	pos     []r2.Point
	present []bool
}

func alignNeighbor(primary []record.TrackRow, nb record.Track) aligned {
	byFrame := make(map[int]r2.Point, nb.Len())
	for _, r := range nb.Rows {
		byFrame[r.Frame] = r.Point()
	}
	a := aligned{pos: make([]r2.Point, len(primary)), present: make([]bool, len(primary))}
	for i, r := range primary {
		a.pos[i], a.present[i] = byFrame[r.Frame]
	}
	return a
}

// interactionWindow evaluates one neighbor against the prediction part of
// the primary path.
type interactionWindow struct {
	cfg     Config
	primary []record.TrackRow
	from    int // first prediction index
}

func newInteractionWindow(cfg Config, primary []record.TrackRow) interactionWindow {
	from := cfg.ObsLen
	if from < velocityStride {
		from = velocityStride
	}
	return interactionWindow{cfg: cfg, primary: primary, from: from}
}

func (p interactionWindow) primaryVelocity(t int) r2.Point {
	return p.primary[t].Point().Sub(p.primary[t-velocityStride].Point())
}

// heading returns the primary velocity at t, or false when the primary is
// standing still and has no direction.
func (p interactionWindow) heading(t int) (r2.Point, bool) {
	v := p.primaryVelocity(t)
	return v, v.Norm() > 0
}

// inFront reports whether at index t the neighbor is closer than the
// interaction distance and inside the cone around the primary heading.
// Steps where the primary is standing still never count.
func (p interactionWindow) inFront(nb aligned, t int) bool {
	if !nb.present[t] {
		return false
	}
	rel := nb.pos[t].Sub(p.primary[t].Point())
	if rel.Norm() >= p.cfg.InterDistThresh {
		return false
	}
	heading, ok := p.heading(t)
	if !ok {
		return false
	}
	bearing := angleDiff(headingDegrees(rel), headingDegrees(heading))
	return withinAngle(bearing, 0, p.cfg.InterPosRange)
}

// moving reports whether at index t the neighbor's velocity points within
// velAngleSpan of velAngle relative to the primary's velocity.
func (p interactionWindow) moving(nb aligned, t int, velAngle float64) bool {
	if !nb.present[t] || !nb.present[t-velocityStride] {
		return false
	}
	heading, ok := p.heading(t)
	if !ok {
		return false
	}
	nv := nb.pos[t].Sub(nb.pos[t-velocityStride])
	rel := angleDiff(headingDegrees(nv), headingDegrees(heading))
	return withinAngle(rel, velAngle, velAngleSpan)
}

// grouped reports whether the neighbor walks with the primary through the
// whole prediction part: present at every step, mean distance below the
// group distance and population deviation below the group spread.
func (p interactionWindow) grouped(nb aligned) bool {
	if p.from >= len(p.primary) {
		return false
	}
	dist := make([]float64, 0, len(p.primary)-p.from)
	for t := p.from; t < len(p.primary); t++ {
		if !nb.present[t] {
			return false
		}
		dist = append(dist, nb.pos[t].Sub(p.primary[t].Point()).Norm())
	}
	mean, std := stat.PopMeanStdDev(dist, nil)
	return mean < p.cfg.GrpDistThresh && std < p.cfg.GrpStdThresh
}

// DetectInteractions returns the interaction sub-types of a scene, in ascending
// order, or nil when the primary does not interact with any neighbor.
func DetectInteractions(cfg Config, s record.Scene) []Interaction {
	primary := s.Primary.Rows
	win := newInteractionWindow(cfg, primary)
	if win.from >= len(primary) {
		return nil
	}

	var front, follow, avoid, group bool
	for _, nbTrack := range s.Neighbors {
		nb := alignNeighbor(primary, nbTrack)
		for t := win.from; t < len(primary); t++ {
			if !win.inFront(nb, t) {
				continue
			}
			front = true
			if win.moving(nb, t, followAngle) {
				follow = true
			}
			if win.moving(nb, t, avoidAngle) {
				avoid = true
			}
		}
		if win.grouped(nb) {
			group = true
		}
	}

	var out []Interaction
	if follow {
		out = append(out, LeaderFollower)
	}
	if avoid {
		out = append(out, CollisionAvoidance)
	}
	if group {
		out = append(out, Group)
	}
	if front && len(out) == 0 {
		out = append(out, OtherInteraction)
	}
	return out
}
