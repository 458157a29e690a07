// Command trajnet-convert converts raw pedestrian datasets into trajnet
// scene files: it splits every dataset by frame, cuts scenes, classifies
// them and writes train, val, test and test_private files.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/banshee-data/trajnet/internal/catalog"
	"github.com/banshee-data/trajnet/internal/config"
	"github.com/banshee-data/trajnet/internal/fsutil"
	"github.com/banshee-data/trajnet/internal/monitoring"
	"github.com/banshee-data/trajnet/internal/report"
	"github.com/banshee-data/trajnet/internal/trajnet/ndjson"
	"github.com/banshee-data/trajnet/internal/trajnet/pipeline"
	"github.com/banshee-data/trajnet/internal/trajnet/readers"
	"github.com/banshee-data/trajnet/internal/version"
)

var (
	manifestPath = flag.String("manifest", "", "Dataset manifest JSON (required)")
	defaultsPath = flag.String("defaults", "", "Optional base options file, e.g. "+config.DefaultConfigPath)
	catalogPath  = flag.String("catalog", "", "SQLite run catalog to record splits in (disabled if empty)")
	reportDir    = flag.String("report", "", "Directory for category charts and trajectory plots (disabled if empty)")
	only         = flag.String("only", "", "Comma-separated dataset names to convert (default all)")
	parallel     = flag.Int("parallel", 1, "Datasets converted concurrently")
	verbose      = flag.Bool("verbose", false, "Enable debug logging")
	showVersion  = flag.Bool("version", false, "Print version and exit")
)

// Option overrides; only flags given on the command line are applied, see
// overridesFromFlags.
func init() {
	flag.Int("obs-len", 9, "Observation length in frames")
	flag.Int("pred-len", 12, "Prediction length in frames")
	flag.Int("chunk-stride", 2, "Frames between consecutive window starts")
	flag.String("acceptance", "0.1,1,1,1", "Acceptance probability per category (static,linear,non_linear,interacting)")
	flag.Int64("seed", 0, "Sampling seed (0 = time based)")
	flag.Int("workers", 0, "Per-dataset worker goroutines (0 = GOMAXPROCS)")
}

// errDatasetsFailed is returned when at least one dataset failed.
var errDatasetsFailed = errors.New("one or more datasets failed")

type options struct {
	Manifest  string
	Defaults  string
	Catalog   string
	ReportDir string
	Only      []string
	Parallel  int
	Overrides *config.ConvertConfig
}

// parseCSVFloatSlice parses a comma-separated list of floats
func parseCSVFloatSlice(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float '%s': %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// splitList parses a comma-separated list, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// overridesFromFlags returns a config holding only the options set on the
// command line.
func overridesFromFlags(fs *flag.FlagSet) (*config.ConvertConfig, error) {
	out := config.EmptyConvertConfig()
	var err error
	fs.Visit(func(f *flag.Flag) {
		v := f.Value.(flag.Getter).Get()
		switch f.Name {
		case "obs-len":
			n := v.(int)
			out.ObsLen = &n
		case "pred-len":
			n := v.(int)
			out.PredLen = &n
		case "chunk-stride":
			n := v.(int)
			out.ChunkStride = &n
		case "workers":
			n := v.(int)
			out.Workers = &n
		case "seed":
			n := v.(int64)
			out.Seed = &n
		case "acceptance":
			out.Acceptance, err = parseCSVFloatSlice(v.(string))
		}
	})
	return out, err
}

// loadManifest reads the manifest, layers it over the defaults file and
// the command-line overrides over both, and revalidates the result.
func loadManifest(opts options) (*config.Manifest, error) {
	m, err := config.LoadManifest(opts.Manifest)
	if err != nil {
		return nil, err
	}
	if opts.Defaults != "" {
		base, err := config.LoadConvertConfig(opts.Defaults)
		if err != nil {
			return nil, err
		}
		m.ConvertConfig = *base.Merge(&m.ConvertConfig)
	}
	m.ConvertConfig = *m.ConvertConfig.Merge(opts.Overrides)
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func selectJobs(jobs []pipeline.Job, names []string) ([]pipeline.Job, error) {
	if len(names) == 0 {
		return jobs, nil
	}
	byName := make(map[string]pipeline.Job, len(jobs))
	for _, j := range jobs {
		byName[j.Name] = j
	}
	out := make([]pipeline.Job, 0, len(names))
	for _, n := range names {
		j, ok := byName[n]
		if !ok {
			return nil, fmt.Errorf("unknown dataset %q", n)
		}
		out = append(out, j)
	}
	return out, nil
}

// run converts the selected datasets and writes the optional catalog and
// reports. It returns errDatasetsFailed after processing everything if any
// dataset failed.
func run(ctx context.Context, opts options, stdout io.Writer) error {
	m, err := loadManifest(opts)
	if err != nil {
		return err
	}
	jobs, err := selectJobs(pipeline.JobsFromManifest(m), opts.Only)
	if err != nil {
		return err
	}
	fsys := fsutil.OSFileSystem{}

	var (
		store    *catalog.Store
		runID    string
		recorder pipeline.Recorder
	)
	if opts.Catalog != "" {
		store, err = catalog.Open(opts.Catalog)
		if err != nil {
			return err
		}
		defer store.Close()
		cfgJSON, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("encode manifest: %w", err)
		}
		r, err := store.StartRun(ctx, cfgJSON)
		if err != nil {
			return err
		}
		runID = r.RunID
		recorder = store.Recorder(runID)
		monitoring.Logf("[catalog] run=%s path=%s", runID, opts.Catalog)
	}

	results, runErr := pipeline.NewRunner(fsys, readers.DefaultRegistry(), recorder, opts.Parallel).Run(ctx, jobs)
	failed := printSummary(stdout, results)

	if opts.ReportDir != "" {
		if err := writeReports(fsys, opts.ReportDir, results); err != nil {
			monitoring.Logf("[report] %v", err)
			failed++
		}
	}

	if store != nil {
		status := catalog.StatusSucceeded
		if failed > 0 || runErr != nil {
			status = catalog.StatusFailed
		}
		// The run context may already be cancelled.
		if err := store.FinishRun(context.WithoutCancel(ctx), runID, status); err != nil {
			return err
		}
	}

	if runErr != nil {
		return runErr
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d", errDatasetsFailed, failed)
	}
	return nil
}

// printSummary writes one line per dataset and returns the failure count.
func printSummary(w io.Writer, results []pipeline.Result) int {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATASET\tROWS\tSKIPPED\tSCENES\tTRACKS\tTIME\tSTATUS")
	failed := 0
	for _, res := range results {
		status := "ok"
		if res.Err != nil {
			status = res.Err.Error()
			failed++
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%s\t%s\n",
			res.Job.Name, res.Rows, res.Skipped, res.Report.NextSceneID, res.Report.NextTrackID,
			res.Duration.Round(time.Millisecond), status)
	}
	tw.Flush()
	return failed
}

// writeReports renders the category chart for every classified split and
// one trajectory plot per category and split file.
func writeReports(fsys fsutil.FileSystem, dir string, results []pipeline.Result) error {
	var splits []pipeline.SplitReport
	for _, res := range results {
		if res.Err == nil {
			splits = append(splits, res.Report.Splits...)
		}
	}
	if len(splits) == 0 {
		return nil
	}
	if err := report.WriteCategoryChart(fsys, filepath.Join(dir, "categories.html"), splits); err != nil {
		return err
	}
	for _, rep := range splits {
		scenes, err := ndjson.ReadScenes(fsys, rep.Path)
		if err != nil {
			return err
		}
		prefix := fmt.Sprintf("%s_%s", rep.Dataset, rep.Split)
		if _, err := report.PlotCategories(fsys, dir, prefix, scenes); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if *manifestPath == "" {
		log.Fatal("-manifest is required")
	}
	monitoring.SetVerbose(*verbose)

	overrides, err := overridesFromFlags(flag.CommandLine)
	if err != nil {
		log.Fatalf("invalid flags: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = run(ctx, options{
		Manifest:  *manifestPath,
		Defaults:  *defaultsPath,
		Catalog:   *catalogPath,
		ReportDir: *reportDir,
		Only:      splitList(*only),
		Parallel:  *parallel,
		Overrides: overrides,
	}, os.Stdout)
	if err != nil {
		stop()
		log.Fatalf("trajnet-convert: %v", err)
	}
}
