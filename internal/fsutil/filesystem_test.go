package fsutil

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOSFileSystem_ReadWriteGlob(t *testing.T) {
	dir := t.TempDir()
	fsys := OSFileSystem{}

	require.NoError(t, fsys.MkdirAll(filepath.Join(dir, "train"), 0755))
	require.NoError(t, fsys.WriteFile(filepath.Join(dir, "train", "a.ndjson"), []byte("a"), 0644))
	require.NoError(t, fsys.WriteFile(filepath.Join(dir, "train", "b.ndjson"), []byte("b"), 0644))

	matches, err := fsys.Glob(filepath.Join(dir, "train", "*.ndjson"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "train", "a.ndjson"),
		filepath.Join(dir, "train", "b.ndjson"),
	}, matches)

	data, err := fsys.ReadFile(matches[1])
	require.NoError(t, err)
	assert.Equal(t, "b", string(data))
	assert.True(t, fsys.Exists(filepath.Join(dir, "train")))
	assert.False(t, fsys.Exists(filepath.Join(dir, "val")))
}

func TestMemoryFileSystem_CreateVisibleOnClose(t *testing.T) {
	mfs := NewMemoryFileSystem()

	w, err := mfs.Create("/out/train/biwi.ndjson")
	require.NoError(t, err)
	_, err = w.Write([]byte(`{"track": {}}`))
	require.NoError(t, err)

	data, err := mfs.ReadFile("/out/train/biwi.ndjson")
	require.NoError(t, err)
	assert.Empty(t, data, "bytes are published on Close")

	require.NoError(t, w.Close())
	data, err = mfs.ReadFile("/out/train/biwi.ndjson")
	require.NoError(t, err)
	assert.Equal(t, `{"track": {}}`, string(data))
}

func TestMemoryFileSystem_Open(t *testing.T) {
	mfs := NewMemoryFileSystem()
	require.NoError(t, mfs.WriteFile("/raw/obsmat.txt", []byte("1 2 3"), 0644))

	f, err := mfs.Open("/raw/../raw/obsmat.txt")
	require.NoError(t, err)
	defer f.Close()

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "1 2 3", string(data))

	info, err := f.Stat()
	require.NoError(t, err)
	assert.Equal(t, "obsmat.txt", info.Name())
	assert.EqualValues(t, 5, info.Size())

	_, err = mfs.Open("/raw/missing.txt")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMemoryFileSystem_DataIsolation(t *testing.T) {
	mfs := NewMemoryFileSystem()
	src := []byte("original")
	require.NoError(t, mfs.WriteFile("/f", src, 0644))
	src[0] = 'X'

	data, err := mfs.ReadFile("/f")
	require.NoError(t, err)
	assert.Equal(t, "original", string(data))

	data[0] = 'Y'
	again, err := mfs.ReadFile("/f")
	require.NoError(t, err)
	assert.Equal(t, "original", string(again))
}

func TestMemoryFileSystem_GlobAndDirs(t *testing.T) {
	mfs := NewMemoryFileSystem()
	require.NoError(t, mfs.WriteFile("/wt/00000005.json", nil, 0644))
	require.NoError(t, mfs.WriteFile("/wt/00000000.json", nil, 0644))
	require.NoError(t, mfs.WriteFile("/wt/readme.txt", nil, 0644))
	require.NoError(t, mfs.MkdirAll("/out/val", 0755))

	matches, err := mfs.Glob("/wt/*.json")
	require.NoError(t, err)
	assert.Equal(t, []string{"/wt/00000000.json", "/wt/00000005.json"}, matches)

	assert.True(t, mfs.Exists("/out"))
	assert.True(t, mfs.Exists("/out/val"))
	assert.Equal(t, []string{"/wt/00000000.json", "/wt/00000005.json", "/wt/readme.txt"}, mfs.Files())
}

func TestResolveSplit(t *testing.T) {
	assert.Equal(t, "output/test_private/biwi_hotel.ndjson",
		ResolveSplit("output/{split}/biwi_hotel.ndjson", "test_private"))
	assert.Equal(t, "flat.ndjson", ResolveSplit("flat.ndjson", "train"))
}
