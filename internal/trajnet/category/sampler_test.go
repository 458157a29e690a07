package category_test

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/trajnet/internal/testutil"
	"github.com/banshee-data/trajnet/internal/trajnet/category"
	"github.com/banshee-data/trajnet/internal/trajnet/record"
)

// population returns static scenes followed by linear scenes, numbered
// from zero.
func population(static, linear int) []record.Scene {
	out := make([]record.Scene, 0, static+linear)
	for i := 0; i < static; i++ {
		out = append(out, scene(testutil.Static(i+1, 0, 1, 21, float64(i), 0)))
	}
	for i := 0; i < linear; i++ {
		out = append(out, scene(testutil.Line(static+i+1, 0, 1, 21, 0, float64(i), 0.5, 0)))
	}
	for i := range out {
		out[i].ID = i
	}
	return out
}

func newSampler(acceptance []float64, seed int64) *category.Sampler {
	cfg := category.DefaultConfig()
	cfg.Acceptance = acceptance
	cfg.Workers = 4
	return category.NewSampler(cfg, rand.New(rand.NewSource(seed)))
}

func TestSampler_RetainsAllWithFullAcceptance(t *testing.T) {
	t.Parallel()

	scenes := population(3, 4)
	res, err := newSampler([]float64{1, 1, 1, 1}, 1).Run(context.Background(), scenes, 100, true)
	require.NoError(t, err)

	require.Len(t, res.Scenes, 7)
	for i, s := range res.Scenes {
		assert.Equal(t, 100+i, s.ID)
		assert.Equal(t, scenes[i].Primary.Pedestrian, s.Primary.Pedestrian)
	}
	assert.Equal(t, record.Tag{Main: int(category.Static)}, res.Scenes[0].Tag)
	assert.Equal(t, record.Tag{Main: int(category.Linear)}, res.Scenes[6].Tag)
	assert.Equal(t, 107, res.NextTrackID)
	assert.Equal(t, 3, res.Stats.Kept[category.Static])
	assert.Equal(t, 4, res.Stats.Classified[category.Linear])

	// Input scenes are left untouched.
	assert.Equal(t, 0, scenes[0].ID)
	assert.True(t, scenes[0].Tag.IsZero())
}

func TestSampler_NoDiscardKeepsEverything(t *testing.T) {
	t.Parallel()

	scenes := population(50, 5)
	res, err := newSampler([]float64{0, 0, 0, 0}, 1).Run(context.Background(), scenes, 0, false)
	require.NoError(t, err)

	assert.Len(t, res.Scenes, 55)
	assert.Equal(t, 55, res.NextTrackID)
	assert.Equal(t, 50, res.Stats.Kept[category.Static])
	for _, s := range res.Scenes {
		assert.False(t, s.Tag.IsZero())
	}
}

func TestSampler_StaticTenPercent(t *testing.T) {
	t.Parallel()

	const n = 2000
	res, err := newSampler([]float64{0.1, 1, 1, 1}, 42).Run(context.Background(), population(n, 0), 0, true)
	require.NoError(t, err)

	// Binomial(2000, 0.1): mean 200, sd ~13.4.
	assert.InDelta(t, 200, res.Stats.Retained, 60)
	assert.Equal(t, n, res.Stats.Classified[category.Static])
	assert.Equal(t, res.Stats.Retained, res.NextTrackID)
}

func TestSampler_ConvergesToAcceptanceWeighting(t *testing.T) {
	t.Parallel()

	const static, linear = 3000, 1000
	res, err := newSampler([]float64{0.25, 1, 1, 1}, 7).Run(context.Background(), population(static, linear), 0, true)
	require.NoError(t, err)

	// Expected mix: 750 static to 1000 linear.
	want := 750.0 / 1750.0
	got := float64(res.Stats.Kept[category.Static]) / float64(res.Stats.Retained)
	assert.InDelta(t, want, got, 0.05)
	assert.Equal(t, linear, res.Stats.Kept[category.Linear])
}

func TestSampler_SeededRunsAreReproducible(t *testing.T) {
	t.Parallel()

	scenes := population(300, 20)
	a, err := newSampler([]float64{0.3, 0.5, 1, 1}, 99).Run(context.Background(), scenes, 5, true)
	require.NoError(t, err)
	b, err := newSampler([]float64{0.3, 0.5, 1, 1}, 99).Run(context.Background(), scenes, 5, true)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSampler_Empty(t *testing.T) {
	t.Parallel()

	res, err := newSampler([]float64{1, 1, 1, 1}, 1).Run(context.Background(), nil, 12, true)
	require.NoError(t, err)
	assert.Empty(t, res.Scenes)
	assert.Equal(t, 12, res.NextTrackID)
}

func TestSampler_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newSampler([]float64{1, 1, 1, 1}, 1).Run(ctx, population(2, 0), 0, true)
	require.ErrorIs(t, err, context.Canceled)
}

func TestSampler_Accept(t *testing.T) {
	t.Parallel()

	s := newSampler([]float64{0, 1, 1, 1}, 3)
	for i := 0; i < 100; i++ {
		assert.False(t, s.Accept(category.Static))
		assert.True(t, s.Accept(category.Linear))
	}
	assert.False(t, s.Accept(category.Category(0)))
}
