package category

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/trajnet/internal/trajnet/record"
)

// Constant-velocity filter noise, per observation step.
const (
	kalmanProcessNoise     = 0.05
	kalmanMeasurementNoise = 0.1
)

// cvKalman is a constant-velocity Kalman filter over state
// [x, vx, y, vy] with position-only measurements.
type cvKalman struct {
	x *mat.VecDense
	p *mat.Dense
	f *mat.Dense
	h *mat.Dense
	q *mat.Dense
	r *mat.Dense
}

func newCVKalman(p0, v0 record.TrackRow) *cvKalman {
	return &cvKalman{
		x: mat.NewVecDense(4, []float64{p0.X, v0.X, p0.Y, v0.Y}),
		p: identity(4, 1),
		f: mat.NewDense(4, 4, []float64{
			1, 1, 0, 0,
			0, 1, 0, 0,
			0, 0, 1, 1,
			0, 0, 0, 1,
		}),
		h: mat.NewDense(2, 4, []float64{
			1, 0, 0, 0,
			0, 0, 1, 0,
		}),
		q: identity(4, kalmanProcessNoise),
		r: identity(2, kalmanMeasurementNoise),
	}
}

func identity(n int, scale float64) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, scale)
	}
	return m
}

func (k *cvKalman) predict() {
	var x mat.VecDense
	x.MulVec(k.f, k.x)
	k.x = &x

	var fp, p mat.Dense
	fp.Mul(k.f, k.p)
	p.Mul(&fp, k.f.T())
	p.Add(&p, k.q)
	k.p = &p
}

func (k *cvKalman) update(px, py float64) error {
	var hx, y mat.VecDense
	hx.MulVec(k.h, k.x)
	y.SubVec(mat.NewVecDense(2, []float64{px, py}), &hx)

	var hp, s, sInv mat.Dense
	hp.Mul(k.h, k.p)
	s.Mul(&hp, k.h.T())
	s.Add(&s, k.r)
	if err := sInv.Inverse(&s); err != nil {
		return err
	}

	var pht, gain mat.Dense
	pht.Mul(k.p, k.h.T())
	gain.Mul(&pht, &sInv)

	var ky, x mat.VecDense
	ky.MulVec(&gain, &y)
	x.AddVec(k.x, &ky)
	k.x = &x

	var kh, ikh, p mat.Dense
	kh.Mul(&gain, k.h)
	ikh.Sub(identity(4, 1), &kh)
	p.Mul(&ikh, k.p)
	k.p = &p
	return nil
}

func (k *cvKalman) position() (float64, float64) {
	return k.x.AtVec(0), k.x.AtVec(2)
}

// KalmanFinalError filters the first obsLen rows with a constant-velocity
// Kalman filter, extrapolates to the last row and returns the Euclidean
// error at that final position. Paths too short to split into an
// observation and a prediction part score 0.
func KalmanFinalError(rows []record.TrackRow, obsLen int) float64 {
	if obsLen > len(rows)-1 {
		obsLen = len(rows) - 1
	}
	if obsLen < 2 {
		return 0
	}

	v0 := record.TrackRow{X: rows[1].X - rows[0].X, Y: rows[1].Y - rows[0].Y}
	k := newCVKalman(rows[0], v0)
	for i := 1; i < obsLen; i++ {
		k.predict()
		if err := k.update(rows[i].X, rows[i].Y); err != nil {
			return math.Inf(1)
		}
	}
	for i := obsLen; i < len(rows); i++ {
		k.predict()
	}

	x, y := k.position()
	last := rows[len(rows)-1]
	return math.Hypot(x-last.X, y-last.Y)
}
