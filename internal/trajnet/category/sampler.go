package category

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/trajnet/internal/trajnet/record"
)

// Stats summarises one sampling pass.
type Stats struct {
	Total        int                 // scenes classified
	Retained     int                 // scenes kept
	Classified   map[Category]int    // labels of every scene
	Kept         map[Category]int    // labels of retained scenes
	Interactions map[Interaction]int // sub-types of retained scenes
}

func newStats() Stats {
	return Stats{
		Classified:   make(map[Category]int),
		Kept:         make(map[Category]int),
		Interactions: make(map[Interaction]int),
	}
}

// Result is the output of one sampling pass.
type Result struct {
	Scenes      []record.Scene // retained scenes, tagged and renumbered
	NextTrackID int
	Stats       Stats
}

// Sampler classifies scenes and downsamples them by category.
type Sampler struct {
	classifier *Classifier
	acceptance []float64
	workers    int
	rng        *rand.Rand
}

// NewSampler returns a sampler drawing acceptance decisions from rng. The
// rng is used by one Run at a time.
func NewSampler(cfg Config, rng *rand.Rand) *Sampler {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Sampler{
		classifier: NewClassifier(cfg),
		acceptance: append([]float64(nil), cfg.Acceptance...),
		workers:    workers,
		rng:        rng,
	}
}

// Accept draws the retention decision for a scene labelled c.
func (s *Sampler) Accept(c Category) bool {
	idx := c.Index()
	if idx < 0 || idx >= len(s.acceptance) {
		return false
	}
	return s.rng.Float64() < s.acceptance[idx]
}

// Run labels every scene, then walks them in order. With discard set,
// each scene is retained only if its acceptance draw succeeds; otherwise
// every scene is retained. Retained scenes are tagged and renumbered with
// consecutive track ids starting at startTrackID.
func (s *Sampler) Run(ctx context.Context, scenes []record.Scene, startTrackID int, discard bool) (Result, error) {
	labels := make([]Label, len(scenes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := range scenes {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			labels[i] = s.classifier.Classify(scenes[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, fmt.Errorf("classifying scenes: %w", err)
	}

	res := Result{NextTrackID: startTrackID, Stats: newStats()}
	res.Stats.Total = len(scenes)
	for i, sc := range scenes {
		label := labels[i]
		res.Stats.Classified[label.Category]++
		if discard && !s.Accept(label.Category) {
			continue
		}
		sc.ID = res.NextTrackID
		sc.Tag = label.Tag()
		res.NextTrackID++
		res.Scenes = append(res.Scenes, sc)

		res.Stats.Kept[label.Category]++
		for _, sub := range label.Interactions {
			res.Stats.Interactions[sub]++
		}
	}
	res.Stats.Retained = len(res.Scenes)
	return res, nil
}
