package category

import (
	"testing"

	"github.com/golang/geo/r2"
	"github.com/stretchr/testify/assert"
)

func TestAngleDiff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b, want float64
	}{
		{10, 0, 10},
		{0, 10, -10},
		{350, 10, -20},
		{-170, 170, 20},
		{-90, 90, 180},
		{270, 0, -90},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, angleDiff(tt.a, tt.b), 1e-12, "angleDiff(%v, %v)", tt.a, tt.b)
	}
}

func TestWithinAngle(t *testing.T) {
	t.Parallel()

	assert.True(t, withinAngle(14, 0, 15))
	assert.True(t, withinAngle(-15, 0, 15))
	assert.False(t, withinAngle(16, 0, 15))
	assert.True(t, withinAngle(-175, 180, 15))
	assert.False(t, withinAngle(90, 180, 15))
}

func TestHeadingDegrees(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 90, headingDegrees(r2.Point{X: 0, Y: 2}), 1e-12)
	assert.InDelta(t, 180, headingDegrees(r2.Point{X: -1, Y: 0}), 1e-12)
	assert.InDelta(t, -45, headingDegrees(r2.Point{X: 1, Y: -1}), 1e-12)
}
