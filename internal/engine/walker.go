package engine

import (
	"context"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// walker discovers regular files under a source tree and hands each
// one to a CopyJob channel, gated by G_queue so the producer never
// gets more than MaxFileQueueLength files ahead of the files actually
// finishing.
type walker struct {
	opts   Options
	guards *budgetGuards
}

func newWalker(opts Options, guards *budgetGuards) *walker {
	return &walker{opts: opts, guards: guards}
}

// walkTree recursively mirrors srcDir under dstDir, enqueueing every
// regular file it finds. Every directory is visited, and, when
// CopyEmptyDirectories is set, created under dstDir even if it turns
// out to hold no files.
func (w *walker) walkTree(ctx context.Context, srcDir, dstDir string, jobs chan<- CopyJob) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if w.opts.CopyEmptyDirectories {
		if err := os.MkdirAll(dstDir, 0o755); err != nil {
			return newError(KindIoWrite, srcDir, dstDir, err)
		}
	}

	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return newError(KindIoRead, srcDir, dstDir, err)
	}

	var dirs []os.DirEntry
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e)
			continue
		}
		if !e.Type().IsRegular() {
			// Symlinks and special files are not traversed beyond
			// what the filesystem transparently presents.
			continue
		}
		job := CopyJob{
			SrcPath: filepath.Join(srcDir, e.Name()),
			DstPath: filepath.Join(dstDir, e.Name()),
		}
		if err := w.enqueue(ctx, jobs, job); err != nil {
			return err
		}
	}

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(walkerFanout())
	for _, d := range dirs {
		name := d.Name()
		group.Go(func() error {
			return w.walkTree(gctx, filepath.Join(srcDir, name), filepath.Join(dstDir, name), jobs)
		})
	}
	return group.Wait()
}

// walkMasked enqueues every regular file directly under srcDir whose
// name matches mask. It does not recurse: a non-directory source
// argument names exactly one directory's worth of files.
func (w *walker) walkMasked(ctx context.Context, srcDir, mask, dstDir string, jobs chan<- CopyJob) error {
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return newError(KindIoRead, srcDir, dstDir, err)
	}
	for _, e := range entries {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if e.IsDir() || !e.Type().IsRegular() {
			continue
		}
		matched, err := filepath.Match(mask, e.Name())
		if err != nil {
			return newError(KindInvalidArgument, srcDir, dstDir, err)
		}
		if !matched {
			continue
		}
		job := CopyJob{
			SrcPath: filepath.Join(srcDir, e.Name()),
			DstPath: filepath.Join(dstDir, e.Name()),
		}
		if err := w.enqueue(ctx, jobs, job); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) enqueue(ctx context.Context, jobs chan<- CopyJob, job CopyJob) error {
	if err := w.guards.acquireQueue(ctx); err != nil {
		return err
	}
	select {
	case jobs <- job:
		return nil
	case <-ctx.Done():
		w.guards.releaseQueue()
		return ctx.Err()
	}
}
