package pipeline

import (
	"context"
	"fmt"
	"math/rand"
	"slices"

	"github.com/banshee-data/trajnet/internal/config"
	"github.com/banshee-data/trajnet/internal/fsutil"
	"github.com/banshee-data/trajnet/internal/monitoring"
	"github.com/banshee-data/trajnet/internal/timeutil"
	"github.com/banshee-data/trajnet/internal/trajnet/category"
	"github.com/banshee-data/trajnet/internal/trajnet/ndjson"
	"github.com/banshee-data/trajnet/internal/trajnet/record"
	"github.com/banshee-data/trajnet/internal/trajnet/scenes"
	"github.com/banshee-data/trajnet/internal/trajnet/split"
)

// Dataset is one source dataset with its effective configuration.
type Dataset struct {
	Name   string
	Output string // path pattern containing {split}
	Config *config.ConvertConfig
}

// Path returns the scene file path of split name.
func (d Dataset) Path(name split.Name) string {
	return fsutil.ResolveSplit(d.Output, string(name))
}

// Recorder persists per-split classification results.
type Recorder interface {
	RecordSplit(ctx context.Context, rep SplitReport) error
}

// WindowReport describes the windowing of one split.
type WindowReport struct {
	Split  split.Name
	Path   string
	Frames int
	Rows   int
	Scenes int
	Stats  scenes.Stats
}

// SplitReport describes the classification of one split.
type SplitReport struct {
	Dataset     string
	Split       split.Name
	Path        string
	Frames      int
	Scenes      int // scenes read back from the windowed file
	Retained    int
	FirstID     int
	NextID      int
	Stats       category.Stats
	PathLengths []float64 // primary path length of every retained scene
}

// Report summarises a full conversion of one dataset.
type Report struct {
	Dataset     string
	Windows     []WindowReport
	Splits      []SplitReport
	NextSceneID int
	NextTrackID int
}

// Converter runs the split, window and classify stages for one dataset at
// a time. A Converter is not safe for concurrent use; the Runner creates
// one per dataset.
type Converter struct {
	fsys     fsutil.FileSystem
	recorder Recorder
	rng      *rand.Rand
	clock    timeutil.Clock
}

// Option configures a Converter.
type Option func(*Converter)

// WithRecorder persists every classified split through r.
func WithRecorder(r Recorder) Option {
	return func(c *Converter) { c.recorder = r }
}

// WithRand sets the source of acceptance draws. By default the converter
// seeds from the dataset config, or the clock when the seed is 0.
func WithRand(rng *rand.Rand) Option {
	return func(c *Converter) { c.rng = rng }
}

// WithClock sets the clock that seeds acceptance draws when the configured
// seed is 0.
func WithClock(clock timeutil.Clock) Option {
	return func(c *Converter) { c.clock = clock }
}

// NewConverter returns a Converter writing through fsys.
func NewConverter(fsys fsutil.FileSystem, opts ...Option) *Converter {
	c := &Converter{fsys: fsys, clock: timeutil.RealClock{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Converter) randFor(cfg *config.ConvertConfig) *rand.Rand {
	if c.rng != nil {
		return c.rng
	}
	seed := cfg.GetSeed()
	if seed == 0 {
		seed = c.clock.Now().UnixNano()
	}
	c.rng = rand.New(rand.NewSource(seed))
	return c.rng
}

// Write splits rows and windows train, val and test in that order,
// chaining scene ids, and writes one scene file per split. The private
// test file receives a copy of the test scenes. Splits without frames are
// skipped and get no file.
func (c *Converter) Write(ctx context.Context, ds Dataset, rows []record.TrackRow) ([]WindowReport, int, error) {
	if err := ds.Config.Validate(); err != nil {
		return nil, 0, fmt.Errorf("dataset %s: %w", ds.Name, err)
	}
	assignment := split.Frames(rows, split.ConfigFromConvert(ds.Config))
	windower := scenes.NewWindower(scenes.ConfigFromConvert(ds.Config))

	var reports []WindowReport
	next := 0
	for _, name := range assignment.Active() {
		if name == split.TestPrivate {
			continue
		}
		subset := assignment.Rows(name, rows)
		res, err := windower.Window(ctx, subset, next)
		if err != nil {
			return nil, 0, fmt.Errorf("dataset %s: %s: %w", ds.Name, name, err)
		}
		next = res.NextSceneID

		targets := []split.Name{name}
		if name == split.Test {
			targets = append(targets, split.TestPrivate)
		}
		for _, target := range targets {
			if err := ndjson.WriteScenes(c.fsys, ds.Path(target), res.Scenes); err != nil {
				return nil, 0, fmt.Errorf("dataset %s: %w", ds.Name, err)
			}
			reports = append(reports, WindowReport{
				Split:  target,
				Path:   ds.Path(target),
				Frames: assignment.Count(target),
				Rows:   len(subset),
				Scenes: len(res.Scenes),
				Stats:  res.Stats,
			})
		}
		monitoring.Logf("[windower] dataset=%s split=%s frames=%d rows=%d scenes=%d gaps=%d short=%d",
			ds.Name, name, assignment.Count(name), len(subset), len(res.Scenes),
			res.Stats.GapWindows, res.Stats.ShortScenes)
	}
	return reports, next, nil
}

// Categorize classifies the written splits in train, val, private test
// order, chaining track ids. Train and val are downsampled by acceptance
// ratio and rewritten. The private test split keeps every scene unless
// private_discard is set; it is rewritten with tags, and the public test
// file is rewritten with untagged scenes and observation rows only.
// Only splits listed in only are processed; a nil list selects every split
// whose scene file exists.
func (c *Converter) Categorize(ctx context.Context, ds Dataset, only []split.Name) ([]SplitReport, int, error) {
	return c.categorize(ctx, ds, only, nil)
}

// categorize implements Categorize; frames, when known, fills the frame
// count of each report before it is recorded.
func (c *Converter) categorize(ctx context.Context, ds Dataset, only []split.Name, frames map[split.Name]int) ([]SplitReport, int, error) {
	cfg := ds.Config
	sampler := category.NewSampler(category.ConfigFromConvert(cfg), c.randFor(cfg))

	var reports []SplitReport
	next := 0
	for _, name := range []split.Name{split.Train, split.Val, split.TestPrivate} {
		path := ds.Path(name)
		if only != nil && !slices.Contains(only, name) {
			continue
		}
		if !c.fsys.Exists(path) {
			continue
		}
		input, err := ndjson.ReadScenes(c.fsys, path)
		if err != nil {
			return nil, 0, fmt.Errorf("dataset %s: %s: %w", ds.Name, name, err)
		}

		discard := name != split.TestPrivate || cfg.GetPrivateDiscard()
		res, err := sampler.Run(ctx, input, next, discard)
		if err != nil {
			return nil, 0, fmt.Errorf("dataset %s: %s: %w", ds.Name, name, err)
		}

		if err := ndjson.WriteScenes(c.fsys, path, res.Scenes); err != nil {
			return nil, 0, fmt.Errorf("dataset %s: %w", ds.Name, err)
		}
		if name == split.TestPrivate {
			headers, rows := PublicTest(res.Scenes, cfg.GetObsLen())
			if err := ndjson.WriteFile(c.fsys, ds.Path(split.Test), headers, rows); err != nil {
				return nil, 0, fmt.Errorf("dataset %s: %w", ds.Name, err)
			}
		}

		rep := SplitReport{
			Dataset:     ds.Name,
			Split:       name,
			Path:        path,
			Frames:      frames[name],
			Scenes:      len(input),
			Retained:    len(res.Scenes),
			FirstID:     next,
			NextID:      res.NextTrackID,
			Stats:       res.Stats,
			PathLengths: pathLengths(res.Scenes),
		}
		next = res.NextTrackID
		logSplit(rep)

		if c.recorder != nil {
			if err := c.recorder.RecordSplit(ctx, rep); err != nil {
				return nil, 0, fmt.Errorf("dataset %s: recording %s: %w", ds.Name, name, err)
			}
		}
		reports = append(reports, rep)
	}
	return reports, next, nil
}

// Convert runs Write then Categorize.
func (c *Converter) Convert(ctx context.Context, ds Dataset, rows []record.TrackRow) (Report, error) {
	windows, nextScene, err := c.Write(ctx, ds, rows)
	if err != nil {
		return Report{}, err
	}
	written := make([]split.Name, 0, len(windows))
	frames := make(map[split.Name]int, len(windows))
	for _, w := range windows {
		written = append(written, w.Split)
		frames[w.Split] = w.Frames
	}
	splits, nextTrack, err := c.categorize(ctx, ds, written, frames)
	if err != nil {
		return Report{}, err
	}
	return Report{
		Dataset:     ds.Name,
		Windows:     windows,
		Splits:      splits,
		NextSceneID: nextScene,
		NextTrackID: nextTrack,
	}, nil
}

// PublicTest strips scenes for the public test channel: tags are withheld
// and only rows up to the end of each primary's observation part are kept.
func PublicTest(in []record.Scene, obsLen int) ([]record.SceneRow, []record.TrackRow) {
	headers := make([]record.SceneRow, len(in))
	var rows []record.TrackRow
	for i, s := range in {
		h := s.Header()
		h.Tag = record.Tag{}
		headers[i] = h

		cut := s.ObservationEnd(obsLen)
		for _, r := range s.Rows() {
			if r.Frame <= cut {
				rows = append(rows, r)
			}
		}
	}
	return headers, rows
}

func pathLengths(in []record.Scene) []float64 {
	out := make([]float64, len(in))
	for i, s := range in {
		out[i] = record.PathLength(s.Primary.Rows)
	}
	return out
}

func logSplit(rep SplitReport) {
	monitoring.Logf("[category] dataset=%s split=%s scenes=%d retained=%d track_ids=[%d,%d)",
		rep.Dataset, rep.Split, rep.Scenes, rep.Retained, rep.FirstID, rep.NextID)
	for _, cat := range category.Categories {
		monitoring.Debugf("[category] dataset=%s split=%s %s: classified=%d kept=%d",
			rep.Dataset, rep.Split, cat, rep.Stats.Classified[cat], rep.Stats.Kept[cat])
	}
	for _, sub := range category.Interactions {
		if n := rep.Stats.Interactions[sub]; n > 0 {
			monitoring.Debugf("[category] dataset=%s split=%s interaction %s: %d", rep.Dataset, rep.Split, sub, n)
		}
	}
}
