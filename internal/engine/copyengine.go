// Package engine implements an admission-controlled, multi-stream
// parallel file and directory copier: discovery, chunked per-file
// transfer across three intersecting concurrency budgets, incomplete-
// file staging, metadata preservation, and cancellation/error
// aggregation.
package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dkrahmer/pfcopy/internal/event"
	"github.com/dkrahmer/pfcopy/internal/ui"
)

// CopyEngine copies a single file or an entire directory tree from a
// source path to a destination path, observing the Options it was
// built with. A CopyEngine serializes its own operations: a second
// call to Copy or CopyFile blocks until the first returns.
type CopyEngine struct {
	opts     Options
	observer event.Observer
	guards   *budgetGuards
	progress *fileProgress
	bag      *errorBag
	walker   *walker
	opMu     sync.Mutex
}

// NewCopyEngine validates opts and builds a CopyEngine around it. A
// nil observer is replaced with event.Discard.
func NewCopyEngine(opts Options, observer event.Observer) (*CopyEngine, error) {
	normalized, err := opts.Validate()
	if err != nil {
		return nil, err
	}
	if observer == nil {
		observer = event.Discard
	}
	guards := newBudgetGuards(normalized)
	return &CopyEngine{
		opts:     normalized,
		observer: observer,
		guards:   guards,
		progress: newFileProgress(),
		bag:      newErrorBag(),
		walker:   newWalker(normalized, guards),
	}, nil
}

// Progress returns a snapshot of the most recent (or in-flight)
// operation's counters.
func (e *CopyEngine) Progress() ProgressSnapshot {
	return e.progress.snapshot()
}

// Copy copies src to dst. src may be an existing directory, an
// existing file, a path declared a directory by a trailing
// separator, or a non-existent, non-directory path whose last
// component is read as a filename mask against its parent directory.
func (e *CopyEngine) Copy(ctx context.Context, src, dst string) error {
	e.opMu.Lock()
	defer e.opMu.Unlock()
	e.progress.reset()
	e.bag.reset()
	defer e.emitSummary()

	srcInfo, srcStatErr := os.Lstat(src)
	srcExists := srcStatErr == nil
	srcDeclaredDir := strings.HasSuffix(src, string(filepath.Separator)) || (srcExists && srcInfo.IsDir())

	dstInfo, dstStatErr := os.Lstat(dst)
	dstExists := dstStatErr == nil
	dstIsRegularFile := dstExists && !dstInfo.IsDir()

	switch {
	case srcDeclaredDir:
		if !srcExists {
			return e.finish(ctx, newError(KindNotFound, src, dst, errNotExist(src)))
		}
		if !srcInfo.IsDir() {
			return e.finish(ctx, newErrorf(KindInvalidArgument, src, dst, "%s is declared a directory but is not one", src))
		}
		if dstIsRegularFile {
			return e.finish(ctx, newErrorf(KindInvalidArgument, src, dst, "destination %s is an existing file", dst))
		}
		return e.finish(ctx, e.runWalk(ctx, func(jobs chan<- CopyJob) error {
			return e.walker.walkTree(ctx, src, dst, jobs)
		}))

	case srcExists && !srcInfo.IsDir():
		realDst := dst
		if dstExists && dstInfo.IsDir() {
			realDst = filepath.Join(dst, filepath.Base(src))
		}
		return e.finish(ctx, e.copyOneFile(ctx, src, realDst))

	case !srcExists && !strings.HasSuffix(src, string(filepath.Separator)):
		parent := filepath.Dir(src)
		mask := filepath.Base(src)
		parentInfo, err := os.Lstat(parent)
		if err != nil || !parentInfo.IsDir() {
			return e.finish(ctx, newErrorf(KindNotFound, src, dst, "source directory %s does not exist", parent))
		}
		return e.finish(ctx, e.runWalk(ctx, func(jobs chan<- CopyJob) error {
			return e.walker.walkMasked(ctx, parent, mask, dst, jobs)
		}))

	default:
		return e.finish(ctx, newErrorf(KindNotFound, src, dst, "source %s does not exist", src))
	}
}

// CopyFile copies exactly one file from src to dst without walking,
// returning after the copy (or its cancellation/failure) completes.
func (e *CopyEngine) CopyFile(ctx context.Context, src, dst string) error {
	e.opMu.Lock()
	defer e.opMu.Unlock()
	e.progress.reset()
	e.bag.reset()
	defer e.emitSummary()

	return e.finish(ctx, e.copyOneFile(ctx, src, dst))
}

func (e *CopyEngine) copyOneFile(ctx context.Context, src, dst string) error {
	fc := &fileCopier{
		opts:     e.opts,
		guards:   e.guards,
		progress: e.progress,
		observer: e.observer,
		job:      CopyJob{SrcPath: src, DstPath: dst},
	}
	if err := fc.run(ctx); err != nil {
		e.bag.add(err)
	}
	return nil
}

// runWalk drives a Walker's producer goroutine against a consumer
// that dispatches one fileCopier per discovered job, bounded by
// G_queue (acquired by the walker before enqueueing, released here
// once the corresponding FileCopier has completed).
func (e *CopyEngine) runWalk(ctx context.Context, walk func(chan<- CopyJob) error) error {
	jobs := make(chan CopyJob)

	var walkErr error
	var walkWg sync.WaitGroup
	walkWg.Add(1)
	go func() {
		defer walkWg.Done()
		defer close(jobs)
		walkErr = walk(jobs)
	}()

	var fileWg sync.WaitGroup
	for job := range jobs {
		fileWg.Add(1)
		go func(job CopyJob) {
			defer fileWg.Done()
			defer e.guards.releaseQueue()
			fc := &fileCopier{
				opts:     e.opts,
				guards:   e.guards,
				progress: e.progress,
				observer: e.observer,
				job:      job,
			}
			if err := fc.run(ctx); err != nil {
				e.bag.add(err)
			}
		}(job)
	}
	fileWg.Wait()
	walkWg.Wait()

	if walkErr != nil && !errors.Is(walkErr, context.Canceled) {
		return walkErr
	}
	return nil
}

func (e *CopyEngine) finish(ctx context.Context, walkOrSetupErr error) error {
	if walkOrSetupErr != nil {
		e.bag.add(walkOrSetupErr)
	}
	if err := e.bag.resolve(); err != nil {
		return err
	}
	if ctx.Err() != nil {
		return newError(KindCancelled, "", "", ctx.Err())
	}
	return nil
}

func (e *CopyEngine) emitSummary() {
	snap := e.progress.snapshot()
	e.observer.OnEvent(event.LevelError, func() string {
		return fmt.Sprintf("copied %s files, %s in %s",
			ui.FormatCount(snap.CopiedFiles), ui.FormatBytes(snap.CopiedBytes), ui.FormatDuration(snap.Elapsed))
	})
}

func errNotExist(path string) error {
	_, err := os.Stat(path)
	return err
}
