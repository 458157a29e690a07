package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/trajnet/internal/timeutil"
	"github.com/banshee-data/trajnet/internal/trajnet/category"
	"github.com/banshee-data/trajnet/internal/trajnet/pipeline"
)

// Run statuses.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA foreign_keys=ON",
}

// Run is one invocation of the converter.
type Run struct {
	RunID      string          `json:"run_id"`
	StartedAt  int64           `json:"started_at"`
	FinishedAt int64           `json:"finished_at,omitempty"`
	Status     string          `json:"status"`
	ConfigJSON json.RawMessage `json:"config_json,omitempty"`
}

// CategoryCount holds the counts of one main category within a split.
type CategoryCount struct {
	Category   category.Category `json:"category"`
	Classified int               `json:"classified"`
	Kept       int               `json:"kept"`
}

// Split is the persisted summary of one classified split file.
type Split struct {
	SplitID        string                       `json:"split_id"`
	RunID          string                       `json:"run_id"`
	Dataset        string                       `json:"dataset"`
	Split          string                       `json:"split"`
	Path           string                       `json:"path"`
	Frames         int                          `json:"frames"`
	Scenes         int                          `json:"scenes"`
	Retained       int                          `json:"retained"`
	FirstTrackID   int                          `json:"first_track_id"`
	NextTrackID    int                          `json:"next_track_id"`
	MeanPathLength float64                      `json:"mean_path_length"`
	StdPathLength  float64                      `json:"std_path_length"`
	Categories     []CategoryCount              `json:"categories"`
	Interactions   map[category.Interaction]int `json:"interactions"`
	CreatedAt      int64                        `json:"created_at"`
}

// Store persists runs and split summaries in a SQLite database.
type Store struct {
	db    *sql.DB
	clock timeutil.Clock
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used for run and split timestamps.
func WithClock(clock timeutil.Clock) Option {
	return func(s *Store) { s.clock = clock }
}

// Open opens (or creates) the catalog at path and applies migrations.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	// PRAGMAs are per connection.
	db.SetMaxOpenConns(1)
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", p, err)
		}
	}
	s := &Store{db: db, clock: timeutil.RealClock{}}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// StartRun inserts a new run in the running state. config is stored
// verbatim and may be nil.
func (s *Store) StartRun(ctx context.Context, config json.RawMessage) (*Run, error) {
	run := &Run{
		RunID:      uuid.New().String(),
		StartedAt:  s.clock.Now().UnixNano(),
		Status:     StatusRunning,
		ConfigJSON: config,
	}
	var cfg interface{}
	if len(config) > 0 {
		cfg = string(config)
	}
	err := retryOnBusy(func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO runs (run_id, started_at, status, config_json) VALUES (?, ?, ?, ?)`,
			run.RunID, run.StartedAt, run.Status, cfg)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// FinishRun stamps the run with its final status.
func (s *Store) FinishRun(ctx context.Context, runID, status string) error {
	var res sql.Result
	err := retryOnBusy(func() error {
		var err error
		res, err = s.db.ExecContext(ctx,
			`UPDATE runs SET finished_at = ?, status = ? WHERE run_id = ?`,
			s.clock.Now().UnixNano(), status, runID)
		return err
	})
	if err != nil {
		return fmt.Errorf("finish run %s: %w", runID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finish run %s: %w", runID, sql.ErrNoRows)
	}
	return nil
}

// GetRun loads one run by id.
func (s *Store) GetRun(ctx context.Context, runID string) (*Run, error) {
	var (
		run      Run
		finished sql.NullInt64
		cfg      sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT run_id, started_at, finished_at, status, config_json FROM runs WHERE run_id = ?`,
		runID).Scan(&run.RunID, &run.StartedAt, &finished, &run.Status, &cfg)
	if err != nil {
		return nil, fmt.Errorf("query run %s: %w", runID, err)
	}
	run.FinishedAt = finished.Int64
	if cfg.Valid {
		run.ConfigJSON = json.RawMessage(cfg.String)
	}
	return &run, nil
}

// ListRuns returns every run, oldest first.
func (s *Store) ListRuns(ctx context.Context) ([]*Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, started_at, finished_at, status, config_json FROM runs ORDER BY started_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []*Run
	for rows.Next() {
		var (
			run      Run
			finished sql.NullInt64
			cfg      sql.NullString
		)
		if err := rows.Scan(&run.RunID, &run.StartedAt, &finished, &run.Status, &cfg); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.FinishedAt = finished.Int64
		if cfg.Valid {
			run.ConfigJSON = json.RawMessage(cfg.String)
		}
		out = append(out, &run)
	}
	return out, rows.Err()
}

// RecordSplit persists rep under runID together with its category and
// interaction counts. It returns the new split id.
func (s *Store) RecordSplit(ctx context.Context, runID string, rep pipeline.SplitReport) (string, error) {
	splitID := uuid.New().String()
	mean, std := pathStats(rep.PathLengths)

	err := retryOnBusy(func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO splits (
				split_id, run_id, dataset, split, path, frames, scenes, retained,
				first_track_id, next_track_id, mean_path_length, std_path_length, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			splitID, runID, rep.Dataset, string(rep.Split), rep.Path, rep.Frames, rep.Scenes,
			rep.Retained, rep.FirstID, rep.NextID, mean, std, s.clock.Now().UnixNano(),
		); err != nil {
			return err
		}
		for _, c := range category.Categories {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO split_categories (split_id, category, name, classified, kept) VALUES (?, ?, ?, ?, ?)`,
				splitID, int(c), c.String(), rep.Stats.Classified[c], rep.Stats.Kept[c],
			); err != nil {
				return err
			}
		}
		for _, it := range category.Interactions {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO split_interactions (split_id, interaction, name, count) VALUES (?, ?, ?, ?)`,
				splitID, int(it), it.String(), rep.Stats.Interactions[it],
			); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return "", fmt.Errorf("record split %s/%s: %w", rep.Dataset, rep.Split, err)
	}
	return splitID, nil
}

// ListSplits returns the splits recorded for runID in insertion order.
func (s *Store) ListSplits(ctx context.Context, runID string) ([]*Split, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT split_id, run_id, dataset, split, path, frames, scenes, retained,
		       first_track_id, next_track_id, mean_path_length, std_path_length, created_at
		FROM splits WHERE run_id = ? ORDER BY created_at, rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("query splits: %w", err)
	}
	defer rows.Close()

	var out []*Split
	for rows.Next() {
		sp, err := scanSplit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate splits: %w", err)
	}
	rows.Close()

	for _, sp := range out {
		if err := s.loadCounts(ctx, sp); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func scanSplit(rows *sql.Rows) (*Split, error) {
	var (
		sp        Split
		mean, std sql.NullFloat64
	)
	if err := rows.Scan(&sp.SplitID, &sp.RunID, &sp.Dataset, &sp.Split, &sp.Path,
		&sp.Frames, &sp.Scenes, &sp.Retained, &sp.FirstTrackID, &sp.NextTrackID,
		&mean, &std, &sp.CreatedAt); err != nil {
		return nil, fmt.Errorf("scan split: %w", err)
	}
	sp.MeanPathLength = mean.Float64
	sp.StdPathLength = std.Float64
	return &sp, nil
}

func (s *Store) loadCounts(ctx context.Context, sp *Split) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT category, classified, kept FROM split_categories WHERE split_id = ? ORDER BY category`,
		sp.SplitID)
	if err != nil {
		return fmt.Errorf("query categories: %w", err)
	}
	for rows.Next() {
		var (
			c  int
			cc CategoryCount
		)
		if err := rows.Scan(&c, &cc.Classified, &cc.Kept); err != nil {
			rows.Close()
			return fmt.Errorf("scan category: %w", err)
		}
		cc.Category = category.Category(c)
		sp.Categories = append(sp.Categories, cc)
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx,
		`SELECT interaction, count FROM split_interactions WHERE split_id = ? ORDER BY interaction`,
		sp.SplitID)
	if err != nil {
		return fmt.Errorf("query interactions: %w", err)
	}
	defer rows.Close()
	sp.Interactions = make(map[category.Interaction]int)
	for rows.Next() {
		var it, n int
		if err := rows.Scan(&it, &n); err != nil {
			return fmt.Errorf("scan interaction: %w", err)
		}
		sp.Interactions[category.Interaction(it)] = n
	}
	return rows.Err()
}

// pathStats returns the population mean and standard deviation of
// lengths, or zeros for an empty slice.
func pathStats(lengths []float64) (float64, float64) {
	if len(lengths) == 0 {
		return 0, 0
	}
	return stat.PopMeanStdDev(lengths, nil)
}

// Recorder returns a pipeline.Recorder that files every split under runID.
func (s *Store) Recorder(runID string) pipeline.Recorder {
	return &runRecorder{store: s, runID: runID}
}

type runRecorder struct {
	store *Store
	runID string
}

func (r *runRecorder) RecordSplit(ctx context.Context, rep pipeline.SplitReport) error {
	_, err := r.store.RecordSplit(ctx, r.runID, rep)
	return err
}
