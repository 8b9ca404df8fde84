package engine

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// activeChunkWorkers counts ChunkWorkers currently between
// runChunkWorker's entry and return, across every file the engine is
// copying. It exists so the G_thread budget's "never more than
// MaxTotalThreads chunk workers run at once" invariant can be observed
// from outside the semaphore itself.
var activeChunkWorkers atomic.Int64

// chunkWorkerConfig is everything one ChunkWorker needs to claim and
// copy chunks of a single file independently of its siblings.
type chunkWorkerConfig struct {
	srcPath    string // this worker's own (possibly rewritten) source path
	stagePath  string // shared staging path, same for every worker of this file
	bufferSize int
	cursor     *chunkCursor
	resizeGate *sync.Mutex
	progress   *fileProgress
}

// runChunkWorker claims successive chunk indexes from cursor and
// copies each one with positioned reads and writes until the source
// is exhausted, ctx is cancelled, or an I/O error occurs. Cancellation
// is observed at the top of the loop and around every read/write; it
// ends the worker without an error, since an operation-level
// cancellation is not itself a per-file failure.
func runChunkWorker(ctx context.Context, cfg chunkWorkerConfig) error {
	activeChunkWorkers.Add(1)
	defer activeChunkWorkers.Add(-1)

	srcFd, err := os.Open(cfg.srcPath)
	if err != nil {
		return newError(KindIoRead, cfg.srcPath, cfg.stagePath, err)
	}
	defer srcFd.Close()

	dstFd, err := os.OpenFile(cfg.stagePath, os.O_RDWR, 0)
	if err != nil {
		return newError(KindIoWrite, cfg.srcPath, cfg.stagePath, err)
	}
	defer dstFd.Close()

	buf := make([]byte, cfg.bufferSize)

	for {
		if ctx.Err() != nil {
			return nil
		}

		idx := cfg.cursor.next()
		start := idx * int64(cfg.bufferSize)

		srcInfo, err := srcFd.Stat()
		if err != nil {
			return newError(KindIoRead, cfg.srcPath, cfg.stagePath, err)
		}
		srcLen := srcInfo.Size()
		if start >= srcLen {
			return nil
		}
		length := int64(cfg.bufferSize)
		if start+length > srcLen {
			length = srcLen - start
		}

		if err := growStaging(dstFd, cfg.resizeGate, start+length); err != nil {
			return newError(KindIoWrite, cfg.srcPath, cfg.stagePath, err)
		}

		if ctx.Err() != nil {
			return nil
		}

		n, err := unix.Pread(int(srcFd.Fd()), buf[:length], start)
		if err != nil {
			return newError(KindIoRead, cfg.srcPath, cfg.stagePath, err)
		}
		if n == 0 {
			return nil
		}

		if err := pwriteAll(dstFd, buf[:n], start); err != nil {
			return newError(KindIoWrite, cfg.srcPath, cfg.stagePath, err)
		}

		cfg.progress.addBytes(int64(n))
	}
}

// growStaging extends the staging file to at least length bytes,
// serialized by resizeGate since several workers share the same
// staging file and a shrink-then-grow race would corrupt already
// written bytes.
func growStaging(dstFd *os.File, resizeGate *sync.Mutex, length int64) error {
	resizeGate.Lock()
	defer resizeGate.Unlock()

	info, err := dstFd.Stat()
	if err != nil {
		return err
	}
	if info.Size() >= length {
		return nil
	}
	return dstFd.Truncate(length)
}

func pwriteAll(dstFd *os.File, buf []byte, offset int64) error {
	written := 0
	for written < len(buf) {
		n, err := unix.Pwrite(int(dstFd.Fd()), buf[written:], offset+int64(written))
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("pwrite returned 0 bytes with %d remaining", len(buf)-written)
		}
		written += n
	}
	return nil
}
