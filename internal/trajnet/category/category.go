package category

import (
	"fmt"

	"github.com/banshee-data/trajnet/internal/config"
	"github.com/banshee-data/trajnet/internal/trajnet/record"
)

// Category is the main label of a scene. Values are 1-based and match the
// positions of the acceptance vector.
type Category int

const (
	// Static scenes have negligible net displacement.
	Static Category = iota + 1
	// Linear scenes stay close to a straight line.
	Linear
	// NonLinear scenes turn, accelerate or curve.
	NonLinear
	// Interacting scenes show close-proximity interaction with neighbors.
	Interacting
)

// Categories lists every category in acceptance-vector order.
var Categories = []Category{Static, Linear, NonLinear, Interacting}

func (c Category) String() string {
	switch c {
	case Static:
		return "static"
	case Linear:
		return "linear"
	case NonLinear:
		return "non_linear"
	case Interacting:
		return "interacting"
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// Index returns the zero-based acceptance vector position of c.
func (c Category) Index() int { return int(c) - 1 }

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool { return c >= Static && c <= Interacting }

// Interaction is a sub-type of an interacting scene.
type Interaction int

const (
	LeaderFollower Interaction = iota + 1
	CollisionAvoidance
	Group
	OtherInteraction
)

// Interactions lists every interaction sub-type.
var Interactions = []Interaction{LeaderFollower, CollisionAvoidance, Group, OtherInteraction}

func (i Interaction) String() string {
	switch i {
	case LeaderFollower:
		return "leader_follower"
	case CollisionAvoidance:
		return "collision_avoidance"
	case Group:
		return "group"
	case OtherInteraction:
		return "other"
	}
	return fmt.Sprintf("interaction(%d)", int(i))
}

// Label is the outcome of classifying one scene.
type Label struct {
	Category     Category
	Interactions []Interaction
}

// Tag converts the label into the tag stored with a scene.
func (l Label) Tag() record.Tag {
	t := record.Tag{Main: int(l.Category)}
	for _, i := range l.Interactions {
		t.Sub = append(t.Sub, int(i))
	}
	return t
}

// Config holds the classifier thresholds.
type Config struct {
	ObsLen               int
	PredLen              int
	StaticThreshold      float64 // metres of net displacement
	LinearMethod         string
	LinearThreshold      float64
	InteractionDetection bool
	InterPosRange        float64 // degrees either side of the heading
	InterDistThresh      float64 // metres
	GrpDistThresh        float64 // metres
	GrpStdThresh         float64 // metres
	Acceptance           []float64
	Workers              int
}

// DefaultConfig returns the classifier defaults.
func DefaultConfig() Config {
	return ConfigFromConvert(config.EmptyConvertConfig())
}

// ConfigFromConvert extracts the classifier options of a conversion config.
func ConfigFromConvert(cfg *config.ConvertConfig) Config {
	return Config{
		ObsLen:               cfg.GetObsLen(),
		PredLen:              cfg.GetPredLen(),
		StaticThreshold:      cfg.GetStaticThreshold(),
		LinearMethod:         cfg.GetLinearMethod(),
		LinearThreshold:      cfg.GetLinearThreshold(),
		InteractionDetection: cfg.GetInteractionDetection(),
		InterPosRange:        cfg.GetInterPosRange(),
		InterDistThresh:      cfg.GetInterDistThresh(),
		GrpDistThresh:        cfg.GetGrpDistThresh(),
		GrpStdThresh:         cfg.GetGrpStdThresh(),
		Acceptance:           cfg.GetAcceptance(),
		Workers:              cfg.GetWorkers(),
	}
}
