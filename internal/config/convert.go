package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
)

// DefaultConfigPath is the path to the canonical conversion defaults file.
const DefaultConfigPath = "config/convert.defaults.json"

// ErrInvalidConfig is wrapped by every validation failure so callers can
// fail fast before any windowing begins.
var ErrInvalidConfig = errors.New("invalid configuration")

// CategoryCount is the length of the fixed category list that the
// acceptance vector is indexed by (static, linear, non-linear, interacting).
const CategoryCount = 4

// Linearity tests understood by the classifier.
const (
	LinearMethodChord  = "chord"
	LinearMethodKalman = "kalman"
)

// Minimum-length metrics understood by the windower.
const (
	MinLengthPath     = "path"
	MinLengthEndpoint = "endpoint"
)

// ConvertConfig holds every option of a conversion run. Fields are pointers
// so that a partial JSON document (or a per-dataset override) only replaces
// what it names; Get* accessors supply defaults for the rest.
type ConvertConfig struct {
	// Window composition
	ObsLen      *int `json:"obs_len,omitempty"`
	PredLen     *int `json:"pred_len,omitempty"`
	ChunkStride *int `json:"chunk_stride,omitempty"`

	// Splitting
	TrainFraction *float64 `json:"train_fraction,omitempty"`
	ValFraction   *float64 `json:"val_fraction,omitempty"`
	OrderFrames   *bool    `json:"order_frames,omitempty"`

	// Sampling grid
	FPS          *float64 `json:"fps,omitempty"`
	FrameStep    *int     `json:"frame_step,omitempty"`    // 0 infers the native step from the tracks
	GapTolerance *float64 `json:"gap_tolerance,omitempty"` // multiple of the frame step that counts as a gap

	// Scene filters
	MinLength       *float64 `json:"min_length,omitempty"`
	MinLengthMetric *string  `json:"min_length_metric,omitempty"`
	MinNeighbors    *int     `json:"min_neighbors,omitempty"`

	// Classification
	Acceptance           []float64 `json:"acceptance,omitempty"`
	StaticThreshold      *float64  `json:"static_threshold,omitempty"`
	LinearMethod         *string   `json:"linear_method,omitempty"`
	LinearThreshold      *float64  `json:"linear_threshold,omitempty"`
	InteractionDetection *bool     `json:"interaction_detection,omitempty"`
	InterPosRange        *float64  `json:"inter_pos_range,omitempty"`
	InterDistThresh      *float64  `json:"inter_dist_thresh,omitempty"`
	GrpDistThresh        *float64  `json:"grp_dist_thresh,omitempty"`
	GrpStdThresh         *float64  `json:"grp_std_thresh,omitempty"`
	PrivateDiscard       *bool     `json:"private_discard,omitempty"`

	// Execution
	Workers *int   `json:"workers,omitempty"`
	Seed    *int64 `json:"seed,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }
func ptrInt64(v int64) *int64       { return &v }

// EmptyConvertConfig returns a ConvertConfig with every field unset.
func EmptyConvertConfig() *ConvertConfig {
	return &ConvertConfig{}
}

// DefaultConvertConfig returns a config with every field set to its default.
func DefaultConvertConfig() *ConvertConfig {
	e := EmptyConvertConfig()
	return &ConvertConfig{
		ObsLen:               ptrInt(e.GetObsLen()),
		PredLen:              ptrInt(e.GetPredLen()),
		ChunkStride:          ptrInt(e.GetChunkStride()),
		TrainFraction:        ptrFloat64(e.GetTrainFraction()),
		ValFraction:          ptrFloat64(e.GetValFraction()),
		OrderFrames:          ptrBool(e.GetOrderFrames()),
		FPS:                  ptrFloat64(e.GetFPS()),
		FrameStep:            ptrInt(e.GetFrameStep()),
		GapTolerance:         ptrFloat64(e.GetGapTolerance()),
		MinLength:            ptrFloat64(e.GetMinLength()),
		MinLengthMetric:      ptrString(e.GetMinLengthMetric()),
		MinNeighbors:         ptrInt(e.GetMinNeighbors()),
		Acceptance:           e.GetAcceptance(),
		StaticThreshold:      ptrFloat64(e.GetStaticThreshold()),
		LinearMethod:         ptrString(e.GetLinearMethod()),
		LinearThreshold:      ptrFloat64(e.GetLinearThreshold()),
		InteractionDetection: ptrBool(e.GetInteractionDetection()),
		InterPosRange:        ptrFloat64(e.GetInterPosRange()),
		InterDistThresh:      ptrFloat64(e.GetInterDistThresh()),
		GrpDistThresh:        ptrFloat64(e.GetGrpDistThresh()),
		GrpStdThresh:         ptrFloat64(e.GetGrpStdThresh()),
		PrivateDiscard:       ptrBool(e.GetPrivateDiscard()),
		Workers:              ptrInt(e.GetWorkers()),
		Seed:                 ptrInt64(e.GetSeed()),
	}
}

// readJSONFile validates the path and size of a JSON config file and
// returns its contents.
func readJSONFile(path string) ([]byte, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return data, nil
}

// LoadConvertConfig loads and validates a ConvertConfig from a JSON file.
// Fields omitted from the file fall back to their defaults.
func LoadConvertConfig(path string) (*ConvertConfig, error) {
	data, err := readJSONFile(path)
	if err != nil {
		return nil, err
	}

	cfg := EmptyConvertConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Merge returns a copy of c with every field set in o taking precedence.
// A nil override returns a copy of c unchanged.
func (c *ConvertConfig) Merge(o *ConvertConfig) *ConvertConfig {
	out := *c
	if c.Acceptance != nil {
		out.Acceptance = append([]float64(nil), c.Acceptance...)
	}
	if o == nil {
		return &out
	}
	if o.ObsLen != nil {
		out.ObsLen = o.ObsLen
	}
	if o.PredLen != nil {
		out.PredLen = o.PredLen
	}
	if o.ChunkStride != nil {
		out.ChunkStride = o.ChunkStride
	}
	if o.TrainFraction != nil {
		out.TrainFraction = o.TrainFraction
	}
	if o.ValFraction != nil {
		out.ValFraction = o.ValFraction
	}
	if o.OrderFrames != nil {
		out.OrderFrames = o.OrderFrames
	}
	if o.FPS != nil {
		out.FPS = o.FPS
	}
	if o.FrameStep != nil {
		out.FrameStep = o.FrameStep
	}
	if o.GapTolerance != nil {
		out.GapTolerance = o.GapTolerance
	}
	if o.MinLength != nil {
		out.MinLength = o.MinLength
	}
	if o.MinLengthMetric != nil {
		out.MinLengthMetric = o.MinLengthMetric
	}
	if o.MinNeighbors != nil {
		out.MinNeighbors = o.MinNeighbors
	}
	if o.Acceptance != nil {
		out.Acceptance = append([]float64(nil), o.Acceptance...)
	}
	if o.StaticThreshold != nil {
		out.StaticThreshold = o.StaticThreshold
	}
	if o.LinearMethod != nil {
		out.LinearMethod = o.LinearMethod
	}
	if o.LinearThreshold != nil {
		out.LinearThreshold = o.LinearThreshold
	}
	if o.InteractionDetection != nil {
		out.InteractionDetection = o.InteractionDetection
	}
	if o.InterPosRange != nil {
		out.InterPosRange = o.InterPosRange
	}
	if o.InterDistThresh != nil {
		out.InterDistThresh = o.InterDistThresh
	}
	if o.GrpDistThresh != nil {
		out.GrpDistThresh = o.GrpDistThresh
	}
	if o.GrpStdThresh != nil {
		out.GrpStdThresh = o.GrpStdThresh
	}
	if o.PrivateDiscard != nil {
		out.PrivateDiscard = o.PrivateDiscard
	}
	if o.Workers != nil {
		out.Workers = o.Workers
	}
	if o.Seed != nil {
		out.Seed = o.Seed
	}
	return &out
}

func invalid(format string, v ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, v...))
}

// Validate checks the effective values (after defaults). Fractions that sum
// above 1.0 are accepted; the remainder simply leaves the test split empty.
// Range checks are written so that NaN fails them.
func (c *ConvertConfig) Validate() error {
	if v := c.GetTrainFraction(); !(v >= 0 && v <= 1) {
		return invalid("train_fraction must be between 0 and 1, got %g", v)
	}
	if v := c.GetValFraction(); !(v >= 0 && v <= 1) {
		return invalid("val_fraction must be between 0 and 1, got %g", v)
	}
	if v := c.GetObsLen(); v < 2 {
		return invalid("obs_len must be at least 2, got %d", v)
	}
	if v := c.GetPredLen(); v < 1 {
		return invalid("pred_len must be at least 1, got %d", v)
	}
	if v := c.GetChunkStride(); v < 1 {
		return invalid("chunk_stride must be at least 1, got %d", v)
	}
	if v := c.GetFPS(); !(v > 0) || math.IsInf(v, 1) {
		return invalid("fps must be positive, got %g", v)
	}
	if v := c.GetFrameStep(); v < 0 {
		return invalid("frame_step must be non-negative, got %d", v)
	}
	if v := c.GetGapTolerance(); !(v >= 1) {
		return invalid("gap_tolerance must be at least 1, got %g", v)
	}
	if v := c.GetMinLength(); !(v >= 0) {
		return invalid("min_length must be non-negative, got %g", v)
	}
	switch m := c.GetMinLengthMetric(); m {
	case MinLengthPath, MinLengthEndpoint:
	default:
		return invalid("unknown min_length_metric %q", m)
	}
	if v := c.GetMinNeighbors(); v < 0 {
		return invalid("min_neighbors must be non-negative, got %d", v)
	}

	acc := c.GetAcceptance()
	if len(acc) != CategoryCount {
		return invalid("acceptance must have %d entries (static, linear, non-linear, interacting), got %d", CategoryCount, len(acc))
	}
	for i, a := range acc {
		if !(a >= 0 && a <= 1) {
			return invalid("acceptance[%d] must be between 0 and 1, got %g", i, a)
		}
	}

	if v := c.GetStaticThreshold(); !(v >= 0) {
		return invalid("static_threshold must be non-negative, got %g", v)
	}
	switch m := c.GetLinearMethod(); m {
	case LinearMethodChord, LinearMethodKalman:
	default:
		return invalid("unknown linear_method %q (want %s)", m, strings.Join([]string{LinearMethodChord, LinearMethodKalman}, " or "))
	}
	if v := c.GetLinearThreshold(); !(v > 0) {
		return invalid("linear_threshold must be positive, got %g", v)
	}
	if v := c.GetInterPosRange(); !(v > 0 && v <= 180) {
		return invalid("inter_pos_range must be in (0, 180], got %g", v)
	}
	if v := c.GetInterDistThresh(); !(v > 0) {
		return invalid("inter_dist_thresh must be positive, got %g", v)
	}
	if v := c.GetGrpDistThresh(); !(v >= 0) {
		return invalid("grp_dist_thresh must be non-negative, got %g", v)
	}
	if v := c.GetGrpStdThresh(); !(v >= 0) {
		return invalid("grp_std_thresh must be non-negative, got %g", v)
	}
	if v := c.GetWorkers(); v < 0 {
		return invalid("workers must be non-negative, got %d", v)
	}
	return nil
}

// GetObsLen returns the observation length in frames.
func (c *ConvertConfig) GetObsLen() int {
	if c.ObsLen == nil {
		return 9
	}
	return *c.ObsLen
}

// GetPredLen returns the prediction length in frames.
func (c *ConvertConfig) GetPredLen() int {
	if c.PredLen == nil {
		return 12
	}
	return *c.PredLen
}

// GetWindowLen returns obs_len + pred_len.
func (c *ConvertConfig) GetWindowLen() int {
	return c.GetObsLen() + c.GetPredLen()
}

func (c *ConvertConfig) GetChunkStride() int {
	if c.ChunkStride == nil {
		return 2
	}
	return *c.ChunkStride
}

func (c *ConvertConfig) GetTrainFraction() float64 {
	if c.TrainFraction == nil {
		return 0.6
	}
	return *c.TrainFraction
}

func (c *ConvertConfig) GetValFraction() float64 {
	if c.ValFraction == nil {
		return 0.2
	}
	return *c.ValFraction
}

func (c *ConvertConfig) GetOrderFrames() bool {
	if c.OrderFrames == nil {
		return false
	}
	return *c.OrderFrames
}

func (c *ConvertConfig) GetFPS() float64 {
	if c.FPS == nil {
		return 2.5
	}
	return *c.FPS
}

// GetFrameStep returns the configured native frame step; 0 means infer.
func (c *ConvertConfig) GetFrameStep() int {
	if c.FrameStep == nil {
		return 0
	}
	return *c.FrameStep
}

func (c *ConvertConfig) GetGapTolerance() float64 {
	if c.GapTolerance == nil {
		return 1.5
	}
	return *c.GapTolerance
}

func (c *ConvertConfig) GetMinLength() float64 {
	if c.MinLength == nil {
		return 0
	}
	return *c.MinLength
}

func (c *ConvertConfig) GetMinLengthMetric() string {
	if c.MinLengthMetric == nil || *c.MinLengthMetric == "" {
		return MinLengthPath
	}
	return *c.MinLengthMetric
}

func (c *ConvertConfig) GetMinNeighbors() int {
	if c.MinNeighbors == nil {
		return 0
	}
	return *c.MinNeighbors
}

// GetAcceptance returns a copy of the per-category retention probabilities.
func (c *ConvertConfig) GetAcceptance() []float64 {
	if c.Acceptance == nil {
		return []float64{0.1, 1, 1, 1}
	}
	return append([]float64(nil), c.Acceptance...)
}

// GetStaticThreshold returns the net displacement (metres) below which a
// primary trajectory is static.
func (c *ConvertConfig) GetStaticThreshold() float64 {
	if c.StaticThreshold == nil {
		return 1.0
	}
	return *c.StaticThreshold
}

func (c *ConvertConfig) GetLinearMethod() string {
	if c.LinearMethod == nil || *c.LinearMethod == "" {
		return LinearMethodChord
	}
	return *c.LinearMethod
}

// GetLinearThreshold returns the linearity threshold. Its unit depends on
// the method: relative chord deviation for "chord", metres of final
// displacement error for "kalman". When unset the default follows the method.
func (c *ConvertConfig) GetLinearThreshold() float64 {
	if c.LinearThreshold != nil {
		return *c.LinearThreshold
	}
	if c.GetLinearMethod() == LinearMethodKalman {
		return 1.0
	}
	return 0.1
}

func (c *ConvertConfig) GetInteractionDetection() bool {
	if c.InteractionDetection == nil {
		return true
	}
	return *c.InteractionDetection
}

// GetInterPosRange returns the half-width in degrees of the cone in front
// of the primary pedestrian in which a neighbor counts as interacting.
func (c *ConvertConfig) GetInterPosRange() float64 {
	if c.InterPosRange == nil {
		return 15
	}
	return *c.InterPosRange
}

func (c *ConvertConfig) GetInterDistThresh() float64 {
	if c.InterDistThresh == nil {
		return 5
	}
	return *c.InterDistThresh
}

func (c *ConvertConfig) GetGrpDistThresh() float64 {
	if c.GrpDistThresh == nil {
		return 0.8
	}
	return *c.GrpDistThresh
}

func (c *ConvertConfig) GetGrpStdThresh() float64 {
	if c.GrpStdThresh == nil {
		return 0.2
	}
	return *c.GrpStdThresh
}

func (c *ConvertConfig) GetPrivateDiscard() bool {
	if c.PrivateDiscard == nil {
		return false
	}
	return *c.PrivateDiscard
}

// GetWorkers returns the worker count; 0 means GOMAXPROCS.
func (c *ConvertConfig) GetWorkers() int {
	if c.Workers == nil {
		return 0
	}
	return *c.Workers
}

// GetSeed returns the sampling seed; 0 means seed from the clock.
func (c *ConvertConfig) GetSeed() int64 {
	if c.Seed == nil {
		return 0
	}
	return *c.Seed
}
