package scenes

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/trajnet/internal/config"
	"github.com/banshee-data/trajnet/internal/monitoring"
	"github.com/banshee-data/trajnet/internal/trajnet/record"
)

// Config holds the windower options.
type Config struct {
	ObsLen          int
	PredLen         int
	ChunkStride     int
	FPS             float64
	FrameStep       int     // native frame spacing; 0 infers it per call
	GapTolerance    float64 // multiple of FrameStep above which an increment is a gap
	MinLength       float64
	MinLengthMetric string
	MinNeighbors    int
	Workers         int // 0 uses GOMAXPROCS
}

// DefaultConfig returns the windower defaults.
func DefaultConfig() Config {
	return ConfigFromConvert(config.EmptyConvertConfig())
}

// ConfigFromConvert extracts the windower options of a conversion config.
func ConfigFromConvert(cfg *config.ConvertConfig) Config {
	return Config{
		ObsLen:          cfg.GetObsLen(),
		PredLen:         cfg.GetPredLen(),
		ChunkStride:     cfg.GetChunkStride(),
		FPS:             cfg.GetFPS(),
		FrameStep:       cfg.GetFrameStep(),
		GapTolerance:    cfg.GetGapTolerance(),
		MinLength:       cfg.GetMinLength(),
		MinLengthMetric: cfg.GetMinLengthMetric(),
		MinNeighbors:    cfg.GetMinNeighbors(),
		Workers:         cfg.GetWorkers(),
	}
}

// WindowLen is the number of primary observations in one scene.
func (c Config) WindowLen() int { return c.ObsLen + c.PredLen }

// Stats counts what happened to the candidate windows of one call.
type Stats struct {
	Tracks       int // tracks in the input
	ShortTracks  int // tracks shorter than one window
	Duplicates   int // rows dropped for repeating a (pedestrian, frame) pair
	Windows      int // candidate windows visited
	GapWindows   int // windows rejected for a gap in the primary track
	ShortScenes  int // windows rejected by the minimum-length filter
	SparseScenes int // windows rejected by the minimum-neighbor filter
	Retained     int
}

// Result is the output of one Window call.
type Result struct {
	Scenes      []record.Scene
	NextSceneID int
	FrameStep   int
	Stats       Stats
}

// Windower extracts scenes from the rows of one split.
type Windower struct {
	cfg Config
}

// NewWindower returns a windower for cfg. The config is assumed to have
// been validated by the caller.
func NewWindower(cfg Config) *Windower {
	if cfg.ChunkStride < 1 {
		cfg.ChunkStride = 1
	}
	return &Windower{cfg: cfg}
}

// Config returns the windower configuration.
func (w *Windower) Config() Config { return w.cfg }

// trackResult is the per-track output of the parallel phase.
type trackResult struct {
	scenes []record.Scene
	stats  Stats
}

// Window slides windows over every track in rows and returns the retained
// scenes numbered from startSceneID, ordered by primary pedestrian then
// window start. An empty input yields an empty result.
func (w *Windower) Window(ctx context.Context, rows []record.TrackRow, startSceneID int) (Result, error) {
	tracks, dupes := record.GroupTracks(rows)
	step := w.cfg.FrameStep
	if step <= 0 {
		step = record.InferFrameStep(tracks)
	}

	index := record.NewFrameIndex(rows)
	results := make([]trackResult, len(tracks))

	workers := w.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range tracks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = w.windowTrack(tracks[i], index, step)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, fmt.Errorf("windowing tracks: %w", err)
	}

	res := Result{NextSceneID: startSceneID, FrameStep: step}
	res.Stats.Tracks = len(tracks)
	res.Stats.Duplicates = dupes
	for _, tr := range results {
		for _, sc := range tr.scenes {
			sc.ID = res.NextSceneID
			res.NextSceneID++
			res.Scenes = append(res.Scenes, sc)
		}
		res.Stats.add(tr.stats)
	}
	res.Stats.Retained = len(res.Scenes)

	if dupes > 0 {
		monitoring.Logf("[windower] dropped %d duplicate (pedestrian, frame) rows", dupes)
	}
	monitoring.Debugf("[windower] tracks=%d step=%d windows=%d gaps=%d short=%d sparse=%d retained=%d",
		res.Stats.Tracks, step, res.Stats.Windows, res.Stats.GapWindows,
		res.Stats.ShortScenes, res.Stats.SparseScenes, res.Stats.Retained)
	return res, nil
}

func (s *Stats) add(o Stats) {
	s.ShortTracks += o.ShortTracks
	s.Windows += o.Windows
	s.GapWindows += o.GapWindows
	s.ShortScenes += o.ShortScenes
	s.SparseScenes += o.SparseScenes
}

// windowTrack returns the unnumbered scenes of one primary track.
func (w *Windower) windowTrack(track record.Track, index *record.FrameIndex, step int) trackResult {
	var out trackResult
	n := w.cfg.WindowLen()
	if track.Len() < n {
		out.stats.ShortTracks++
		return out
	}

	for off := 0; off+n <= track.Len(); off += w.cfg.ChunkStride {
		out.stats.Windows++
		window := track.Rows[off : off+n]
		if !Contiguous(window, step, w.cfg.GapTolerance) {
			out.stats.GapWindows++
			monitoring.Debugf("[windower] pedestrian=%d start=%d: gap in window", track.Pedestrian, window[0].Frame)
			continue
		}
		if w.primaryLength(window) < w.cfg.MinLength {
			out.stats.ShortScenes++
			continue
		}

		start, end := window[0].Frame, window[n-1].Frame
		neighbors := index.Neighbors(start, end, track.Pedestrian)
		if len(neighbors) < w.cfg.MinNeighbors {
			out.stats.SparseScenes++
			continue
		}

		out.scenes = append(out.scenes, record.Scene{
			Primary:   record.Track{Pedestrian: track.Pedestrian, Rows: append([]record.TrackRow(nil), window...)},
			Neighbors: neighbors,
			Start:     start,
			End:       end,
			FPS:       w.cfg.FPS,
		})
	}
	return out
}

// primaryLength measures a window with the configured metric.
func (w *Windower) primaryLength(window []record.TrackRow) float64 {
	if w.cfg.MinLengthMetric == config.MinLengthEndpoint {
		return record.Displacement(window)
	}
	return record.PathLength(window)
}

// Contiguous reports whether every frame increment in rows is positive and
// at most step*tolerance.
func Contiguous(rows []record.TrackRow, step int, tolerance float64) bool {
	if tolerance < 1 {
		tolerance = 1
	}
	limit := float64(step) * tolerance
	for i := 1; i < len(rows); i++ {
		d := rows[i].Frame - rows[i-1].Frame
		if d <= 0 || float64(d) > limit {
			return false
		}
	}
	return true
}
