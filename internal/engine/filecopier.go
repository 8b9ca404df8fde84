package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dkrahmer/pfcopy/internal/event"
	"github.com/dkrahmer/pfcopy/internal/ui"
)

// fileCopier carries out the full admission-controlled copy of a
// single file: gate acquisition, worker-count election, chunked
// transfer, and finalization.
type fileCopier struct {
	opts     Options
	guards   *budgetGuards
	progress *fileProgress
	observer event.Observer
	job      CopyJob
}

func (fc *fileCopier) emit(level event.Level, format string, args ...any) {
	fc.observer.OnEvent(level, func() string { return fmt.Sprintf(format, args...) })
}

// run executes the full FileCopier protocol described by the engine's
// concurrency model. It returns nil on success, nil on cooperative
// cancellation (cancellation is not itself a per-file failure), or a
// *Error describing what went wrong.
func (fc *fileCopier) run(ctx context.Context) error {
	if err := fc.guards.acquireFile(ctx); err != nil {
		return nil
	}
	defer fc.guards.releaseFile()

	fc.guards.threadSafety.Lock()
	threadSafetyHeld := true
	unlockThreadSafety := func() {
		if threadSafetyHeld {
			fc.guards.threadSafety.Unlock()
			threadSafetyHeld = false
		}
	}
	defer unlockThreadSafety()

	srcInfo, err := os.Stat(fc.job.SrcPath)
	if err != nil {
		if os.IsNotExist(err) {
			return newError(KindNotFound, fc.job.SrcPath, fc.job.DstPath, err)
		}
		return newError(KindIoRead, fc.job.SrcPath, fc.job.DstPath, err)
	}

	if fc.opts.SkipExistingIdentical && destinationMatches(fc.job.DstPath, srcInfo) {
		fc.emit(event.LevelVerbose, "skip (identical): %s", fc.job.DstPath)
		return nil
	}

	k := electWorkerCount(srcInfo.Size(), fc.opts)

	if err := fc.guards.acquireThreads(ctx, k); err != nil {
		return nil
	}
	threadsHeld := k
	defer func() {
		if threadsHeld > 0 {
			fc.guards.releaseThreads(threadsHeld)
		}
	}()

	unlockThreadSafety()

	if ctx.Err() != nil {
		return nil
	}

	dstDir := filepath.Dir(fc.job.DstPath)
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return newError(KindIoWrite, fc.job.SrcPath, fc.job.DstPath, err)
	}

	if _, err := os.Lstat(fc.job.DstPath); err == nil {
		if err := os.Remove(fc.job.DstPath); err != nil {
			return newError(KindIoDelete, fc.job.SrcPath, fc.job.DstPath, err)
		}
	}

	stagePath, err := stagingPath(fc.job.DstPath, fc.opts.UseIncompleteFilename)
	if err != nil {
		return newError(KindIoWrite, fc.job.SrcPath, fc.job.DstPath, err)
	}

	stageFd, err := os.OpenFile(stagePath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, srcInfo.Mode().Perm())
	if err != nil {
		return newError(KindIoWrite, fc.job.SrcPath, fc.job.DstPath, err)
	}
	stageFd.Close()

	if err := fc.runChunkWorkers(ctx, stagePath, k); err != nil {
		os.Remove(stagePath)
		return err
	}
	if ctx.Err() != nil {
		os.Remove(stagePath)
		return nil
	}

	if stagePath != fc.job.DstPath {
		if err := os.Rename(stagePath, fc.job.DstPath); err != nil {
			return newError(KindIoRename, fc.job.SrcPath, fc.job.DstPath, err)
		}
	}

	if err := fc.preserveMetadata(fc.job.DstPath, srcInfo); err != nil {
		return err
	}

	fc.progress.addFile()
	fc.emit(event.LevelInfo, "%s -> %s (%s)", fc.job.SrcPath, fc.job.DstPath, ui.FormatBytes(srcInfo.Size()))
	return nil
}

func (fc *fileCopier) runChunkWorkers(ctx context.Context, stagePath string, k int) error {
	cursor := newChunkCursor()
	var resizeGate sync.Mutex

	group, gctx := errgroup.WithContext(ctx)
	for t := range k {
		workerSrc := rewriteIncrementalSourcePath(fc.job.SrcPath, fc.opts.IncrementalSourcePath, t)
		cfg := chunkWorkerConfig{
			srcPath:    workerSrc,
			stagePath:  stagePath,
			bufferSize: fc.opts.BufferSize,
			cursor:     cursor,
			resizeGate: &resizeGate,
			progress:   fc.progress,
		}
		group.Go(func() error {
			return runChunkWorker(gctx, cfg)
		})
	}
	return group.Wait()
}

func (fc *fileCopier) preserveMetadata(dstPath string, srcInfo os.FileInfo) error {
	dstFd, err := os.OpenFile(dstPath, os.O_RDWR, 0)
	if err != nil {
		return newError(KindIoMetadata, fc.job.SrcPath, dstPath, err)
	}
	defer dstFd.Close()

	if err := setFileTimes(dstFd, srcInfo); err != nil {
		return newError(KindIoMetadata, fc.job.SrcPath, dstPath, fmt.Errorf("set times: %w", err))
	}
	if err := setPlatformAttributes(dstFd, srcInfo); err != nil {
		return newError(KindIoMetadata, fc.job.SrcPath, dstPath, fmt.Errorf("set attributes: %w", err))
	}
	return nil
}

// electWorkerCount picks how many ChunkWorkers a file of the given
// size should get: as many as MaxThreadsPerFile allows, but never so
// many that a worker would average fewer than MinChunksPerThread
// chunks of work.
func electWorkerCount(srcSize int64, opts Options) int {
	minBytesPerWorker := int64(opts.BufferSize) * int64(opts.MinChunksPerThread)
	kMax := int(srcSize / minBytesPerWorker)
	if kMax < 1 {
		kMax = 1
	}
	k := opts.MaxThreadsPerFile
	if kMax < k {
		k = kMax
	}
	if k < 1 {
		k = 1
	}
	return k
}

// stagingPath returns the path a FileCopier should write to: dst
// itself, or, when useIncomplete is set, a sibling path with a random
// token and an ".incomplete" suffix, any trailing dots on dst's
// filename stripped first so the staging name never ends up with a
// run of dots before the suffix.
func stagingPath(dst string, useIncomplete bool) (string, error) {
	if !useIncomplete {
		return dst, nil
	}
	token := uuid.New().String()[:8]
	base := strings.TrimRight(dst, ".")
	return fmt.Sprintf("%s.%s.incomplete", base, token), nil
}

// destinationMatches reports whether dst already has the same length
// and UTC last-write time as srcInfo, skipping the copy entirely.
func destinationMatches(dst string, srcInfo os.FileInfo) bool {
	dstInfo, err := os.Stat(dst)
	if err != nil {
		return false
	}
	if dstInfo.Size() != srcInfo.Size() {
		return false
	}
	return dstInfo.ModTime().UTC().Equal(srcInfo.ModTime().UTC())
}

// rewriteIncrementalSourcePath exposes an independent filesystem
// handle per worker by rewriting prefix-matching source paths for
// worker index t>=1 to prefix + "_" + (t+1) + suffix.
func rewriteIncrementalSourcePath(path, prefix string, workerIdx int) string {
	if workerIdx == 0 || prefix == "" {
		return path
	}
	if !strings.HasPrefix(strings.ToLower(path), strings.ToLower(prefix)) {
		return path
	}
	suffix := path[len(prefix):]
	return fmt.Sprintf("%s_%d%s", prefix, workerIdx+1, suffix)
}
