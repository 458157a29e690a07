package category

import (
	"github.com/banshee-data/trajnet/internal/config"
	"github.com/banshee-data/trajnet/internal/trajnet/record"
)

// Classifier labels the primary trajectory of a scene.
type Classifier struct {
	cfg Config
}

// NewClassifier returns a classifier for cfg.
func NewClassifier(cfg Config) *Classifier {
	return &Classifier{cfg: cfg}
}

// Classify labels s. The static test runs first, then the linearity test
// on the full primary path, then interaction detection when enabled.
// Anything left is non-linear.
func (c *Classifier) Classify(s record.Scene) Label {
	primary := s.Primary.Rows
	if record.Displacement(primary) < c.cfg.StaticThreshold {
		return Label{Category: Static}
	}
	if c.isLinear(primary) {
		return Label{Category: Linear}
	}
	if c.cfg.InteractionDetection {
		if sub := DetectInteractions(c.cfg, s); len(sub) > 0 {
			return Label{Category: Interacting, Interactions: sub}
		}
	}
	return Label{Category: NonLinear}
}

func (c *Classifier) isLinear(rows []record.TrackRow) bool {
	if c.cfg.LinearMethod == config.LinearMethodKalman {
		return KalmanFinalError(rows, c.cfg.ObsLen) < c.cfg.LinearThreshold
	}
	return ChordDeviation(rows) < c.cfg.LinearThreshold
}
