package scan

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/driftnet/internal/testutil"
	"github.com/leapstack-labs/driftnet/pkg/core"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.py"), "x = 1\n")
	writeFile(t, filepath.Join(dir, "a.py"), "x = 1\n")
	writeFile(t, filepath.Join(dir, "notes.txt"), "nope\n")
	writeFile(t, filepath.Join(dir, "pkg", "c.py"), "x = 1\n")
	writeFile(t, filepath.Join(dir, ".venv", "lib.py"), "x = 1\n")
	writeFile(t, filepath.Join(dir, "__pycache__", "cached.py"), "x = 1\n")
	explicit := filepath.Join(dir, "script.txt")
	writeFile(t, explicit, "x = 1\n")

	files, missing, err := Discover([]string{dir, explicit, filepath.Join(dir, "gone.py"), filepath.Join(dir, "a.py")}, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "a.py"),
		filepath.Join(dir, "b.py"),
		filepath.Join(dir, "pkg", "c.py"),
		explicit,
		filepath.Join(dir, "a.py"),
	}, files)
	assert.Equal(t, []string{filepath.Join(dir, "gone.py")}, missing)
}

func TestDiscover_UnreadablePathSkipped(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.py")
	writeFile(t, file, "df['a']\n")
	// A path below a regular file fails with ENOTDIR, not ENOENT.
	bad := filepath.Join(file, "child.py")

	files, missing, err := Discover([]string{bad, file}, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{file}, files)
	assert.Equal(t, []string{bad}, missing)
}

func TestRun_RepeatedFileMergedTwice(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "job.py")
	writeFile(t, path, "x = 1\ndf['a']\n")

	files, _, err := Discover([]string{path, path}, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, files, 2)

	report, err := New(nil, DefaultOptions(), testutil.NewTestLogger(t)).Run(context.Background(), files)
	require.NoError(t, err)
	df, ok := report.Schema.Get("df")
	require.True(t, ok)
	assert.Equal(t, []int{2, 2}, df.References["a"])
}

func TestDiscover_ExtensionWithoutDot(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.pyi"), "x = 1\n")
	writeFile(t, filepath.Join(dir, "b.py"), "x = 1\n")

	files, _, err := Discover([]string{dir}, Options{Extensions: []string{"pyi"}})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.pyi")}, files)
}

func TestRun_MergesInInputOrder(t *testing.T) {
	dir := t.TempDir()
	var files []string
	for i := range 12 {
		path := filepath.Join(dir, fmt.Sprintf("f%02d.py", i))
		writeFile(t, path, fmt.Sprintf("df['c%02d']\ndf['shared']\n", i))
		files = append(files, path)
	}

	opts := DefaultOptions()
	opts.Workers = 4
	s := New(nil, opts, testutil.NewTestLogger(t))

	report, err := s.Run(context.Background(), files)
	require.NoError(t, err)
	require.Len(t, report.Files, 12)
	assert.Empty(t, report.Failed())

	df, ok := report.Schema.Get("df")
	require.True(t, ok)
	assert.Len(t, df.Columns, 13)
	assert.Equal(t, []int{2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2}, df.References["shared"])
	for i, r := range report.Files {
		assert.Equal(t, files[i], r.Path)
	}

	again, err := s.Run(context.Background(), files)
	require.NoError(t, err)
	assert.True(t, report.Schema.Equal(again.Schema))
}

func TestRun_SkipsBadFiles(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.py")
	bad := filepath.Join(dir, "bad.py")
	writeFile(t, good, "df['a']\n")
	writeFile(t, bad, "def broken(:\n")

	s := New(nil, DefaultOptions(), testutil.NewTestLogger(t))
	report, err := s.Run(context.Background(), []string{good, bad, filepath.Join(dir, "vanished.py")})
	require.NoError(t, err)

	failed := report.Failed()
	require.Len(t, failed, 2)
	var perr *core.ParseError
	assert.True(t, errors.As(failed[0].Err, &perr))
	assert.Equal(t, bad, perr.File)
	assert.ErrorIs(t, failed[1].Err, os.ErrNotExist)

	assert.Equal(t, []string{"df"}, report.Schema.Sources())
}

func TestRun_StrictAbortsOnParseError(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.py")
	writeFile(t, bad, "def broken(:\n")

	opts := DefaultOptions()
	opts.Strict = true
	_, err := New(nil, opts, nil).Run(context.Background(), []string{bad})
	require.Error(t, err)
	var perr *core.ParseError
	assert.True(t, errors.As(err, &perr))
}

func TestRun_Empty(t *testing.T) {
	report, err := New(nil, DefaultOptions(), nil).Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Schema.Len())
}

func TestWatch_RescansOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.py")
	writeFile(t, path, "df['a']\n")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s := New(nil, DefaultOptions(), testutil.NewTestLogger(t))
	reports := make(chan *Report, 4)
	done := make(chan error, 1)
	go func() {
		done <- s.Watch(ctx, []string{dir}, func(r *Report, err error) {
			if err == nil {
				reports <- r
			}
		})
	}()

	// Give the watcher time to register before writing.
	time.Sleep(200 * time.Millisecond)
	writeFile(t, path, "df['a']\ndf['b']\n")

	select {
	case r := <-reports:
		df, ok := r.Schema.Get("df")
		require.True(t, ok)
		assert.Equal(t, []string{"a", "b"}, df.Columns)
	case <-ctx.Done():
		t.Fatal("no rescan after file change")
	}

	cancel()
	assert.NoError(t, <-done)
}
