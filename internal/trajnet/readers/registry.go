package readers

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/banshee-data/trajnet/internal/fsutil"
	"github.com/banshee-data/trajnet/internal/monitoring"
	"github.com/banshee-data/trajnet/internal/trajnet/record"
)

// ErrUnknownFormat is returned for a format tag with no registered reader.
var ErrUnknownFormat = errors.New("unknown dataset format")

// ErrNoInput is returned when an input pattern matches no files.
var ErrNoInput = errors.New("no input files")

// Result is the output of reading one or more files.
type Result struct {
	Rows     []record.TrackRow
	Skipped  int // malformed lines
	Filtered int // well-formed lines the format discards (wrong area, off-grid frame)
	Files    int
}

func (r *Result) merge(o Result) {
	r.Rows = append(r.Rows, o.Rows...)
	r.Skipped += o.Skipped
	r.Filtered += o.Filtered
	r.Files += o.Files
}

// ReadFunc reads one file of a format.
type ReadFunc func(fsys fsutil.FileSystem, path string) (Result, error)

// Format describes a registered dataset format.
type Format struct {
	Name        string
	Description string
	Read        ReadFunc
}

// Registry maps format tags to readers.
type Registry struct {
	mu      sync.RWMutex
	formats map[string]*Format
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{formats: make(map[string]*Format)}
}

// Register adds a format, replacing any format with the same name.
func (r *Registry) Register(f *Format) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.formats[f.Name] = f
}

// Get returns the format registered under name.
func (r *Registry) Get(name string) (*Format, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.formats[name]
	return f, ok
}

// Names returns the registered format tags, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.formats))
	for name := range r.formats {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Read expands pattern on fsys and reads every matching file with the
// reader registered for format, concatenating rows in file-name order.
func (r *Registry) Read(fsys fsutil.FileSystem, format, pattern string) (Result, error) {
	f, ok := r.Get(format)
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	paths, err := fsys.Glob(pattern)
	if err != nil {
		return Result{}, fmt.Errorf("expanding %s: %w", pattern, err)
	}
	if len(paths) == 0 {
		return Result{}, fmt.Errorf("%w: %s", ErrNoInput, pattern)
	}

	var res Result
	for _, p := range paths {
		one, err := f.Read(fsys, p)
		if err != nil {
			return Result{}, fmt.Errorf("%s reader: %w", format, err)
		}
		res.merge(one)
	}
	if res.Skipped > 0 {
		monitoring.Logf("[readers] format=%s input=%s skipped %d malformed lines", format, pattern, res.Skipped)
	}
	return res, nil
}

// DefaultRegistry returns a registry pre-loaded with every built-in format.
func DefaultRegistry() *Registry {
	reg := NewRegistry()
	reg.Register(&Format{Name: "biwi", Description: "BIWI obsmat: frame, pedestrian, x, z, y columns", Read: lineReader(parseBIWI)})
	reg.Register(&Format{Name: "crowds", Description: "UCY crowds .vsp splines, interpolated every 10 frames", Read: readCrowds})
	reg.Register(&Format{Name: "mot", Description: "MOT ground truth CSV with world coordinates, even frames only", Read: lineReader(parseMOT)})
	reg.Register(&Format{Name: "lcas", Description: "L-CAS CSV: frame, pedestrian, x, y", Read: lineReader(parseLCAS)})
	reg.Register(&Format{Name: "controlled", Description: "controlled experiments: comma separated frame, pedestrian, x, y", Read: lineReader(parseControlled)})
	reg.Register(&Format{Name: "cff", Description: "CFF station logs, PIW area, 10 Hz clock sampled every 4 ticks", Read: lineReader(parseCFF)})
	reg.Register(&Format{Name: "wildtrack", Description: "WILDTRACK per-frame JSON annotations on the ground grid", Read: readWildtrack})
	reg.Register(&Format{Name: "trajnet", Description: "existing trajnet scene file, track rows only", Read: readTrajnet})
	return reg
}
