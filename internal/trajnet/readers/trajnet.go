package readers

import (
	"fmt"

	"github.com/banshee-data/trajnet/internal/fsutil"
	"github.com/banshee-data/trajnet/internal/trajnet/ndjson"
)

// readTrajnet re-reads the track rows of an existing scene file. Scene
// entries are ignored. Unlike the raw formats, a malformed scene file is
// an error.
func readTrajnet(fsys fsutil.FileSystem, path string) (Result, error) {
	rows, _, err := ndjson.ReadRows(fsys, path)
	if err != nil {
		return Result{}, fmt.Errorf("reading scene file: %w", err)
	}
	return Result{Rows: rows, Files: 1}, nil
}
