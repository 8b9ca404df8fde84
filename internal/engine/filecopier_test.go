package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkrahmer/pfcopy/internal/event"
)

func newTestFileCopier(t *testing.T, opts Options, job CopyJob) *fileCopier {
	t.Helper()
	return &fileCopier{
		opts:     opts,
		guards:   newBudgetGuards(opts),
		progress: newFileProgress(),
		observer: event.Discard,
		job:      job,
	}
}

func TestFileCopier_CopiesSmallFileByteForByte(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")
	want := []byte("hello, parallel copying world")
	require.NoError(t, os.WriteFile(src, want, 0o644))

	opts := DefaultOptions()
	opts.UseIncompleteFilename = false
	fc := newTestFileCopier(t, opts, CopyJob{SrcPath: src, DstPath: dst})

	require.NoError(t, fc.run(context.Background()))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFileCopier_UsesIncompleteStagingThenRenames(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.bin")
	dst := filepath.Join(dir, "dst.bin")
	require.NoError(t, os.WriteFile(src, make([]byte, 4096), 0o644))

	opts := DefaultOptions()
	opts.UseIncompleteFilename = true
	fc := newTestFileCopier(t, opts, CopyJob{SrcPath: src, DstPath: dst})

	require.NoError(t, fc.run(context.Background()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".incomplete", "no staging file should remain after a successful copy")
	}
	_, err = os.Stat(dst)
	require.NoError(t, err)
}

func TestFileCopier_SkipsIdenticalDestination(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")
	require.NoError(t, os.WriteFile(src, []byte("same bytes"), 0o644))
	require.NoError(t, os.WriteFile(dst, []byte("same bytes"), 0o644))

	mtime := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(src, mtime, mtime))
	require.NoError(t, os.Chtimes(dst, mtime, mtime))

	opts := DefaultOptions()
	opts.SkipExistingIdentical = true
	fc := newTestFileCopier(t, opts, CopyJob{SrcPath: src, DstPath: dst})

	before, err := os.Stat(dst)
	require.NoError(t, err)

	require.NoError(t, fc.run(context.Background()))

	after, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime(), "skipped file should not have been rewritten")
}

func TestFileCopier_MultipleChunksReassembleCorrectly(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "big.bin")
	dst := filepath.Join(dir, "big-out.bin")

	want := make([]byte, 1<<20)
	for i := range want {
		want[i] = byte(i % 251)
	}
	require.NoError(t, os.WriteFile(src, want, 0o644))

	opts := DefaultOptions()
	opts.BufferSize = 64 * 1024
	opts.MaxThreadsPerFile = 4
	opts.MaxTotalThreads = 4
	opts.MinChunksPerThread = 1
	fc := newTestFileCopier(t, opts, CopyJob{SrcPath: src, DstPath: dst})

	require.NoError(t, fc.run(context.Background()))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFileCopier_NotFoundSource(t *testing.T) {
	dir := t.TempDir()
	fc := newTestFileCopier(t, DefaultOptions(), CopyJob{
		SrcPath: filepath.Join(dir, "missing.txt"),
		DstPath: filepath.Join(dir, "dst.txt"),
	})

	err := fc.run(context.Background())
	require.Error(t, err)
	var engErr *Error
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, KindNotFound, engErr.Kind)
}

func TestFileCopier_CancelledBeforeStartIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))

	fc := newTestFileCopier(t, DefaultOptions(), CopyJob{SrcPath: src, DstPath: filepath.Join(dir, "dst.txt")})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, fc.run(ctx))
}

func TestElectWorkerCount_ClampsToMaxThreadsPerFile(t *testing.T) {
	opts := DefaultOptions()
	opts.BufferSize = 1024
	opts.MinChunksPerThread = 1
	opts.MaxThreadsPerFile = 2

	assert.Equal(t, 2, electWorkerCount(1<<20, opts))
}

func TestElectWorkerCount_SmallFileGetsOneWorker(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, 1, electWorkerCount(10, opts))
}

func TestStagingPath_StripsTrailingDots(t *testing.T) {
	path, err := stagingPath("/dst/name...", true)
	require.NoError(t, err)
	assert.NotContains(t, path, "...incomplete")
	assert.Contains(t, path, ".incomplete")
}

func TestStagingPath_DisabledReturnsDstUnchanged(t *testing.T) {
	path, err := stagingPath("/dst/name", false)
	require.NoError(t, err)
	assert.Equal(t, "/dst/name", path)
}

func TestRewriteIncrementalSourcePath(t *testing.T) {
	prefix := "/mnt/share"
	assert.Equal(t, "/mnt/share/a/b.txt", rewriteIncrementalSourcePath("/mnt/share/a/b.txt", prefix, 0))
	assert.Equal(t, "/mnt/share_2/a/b.txt", rewriteIncrementalSourcePath("/mnt/share/a/b.txt", prefix, 1))
	assert.Equal(t, "/mnt/share_3/a/b.txt", rewriteIncrementalSourcePath("/mnt/share/a/b.txt", prefix, 2))
	assert.Equal(t, "/other/a/b.txt", rewriteIncrementalSourcePath("/other/a/b.txt", prefix, 1))
}
