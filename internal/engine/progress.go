package engine

import (
	"sync/atomic"
	"time"
)

// fileProgress tracks the running totals for one CopyEngine
// operation. Reset and start happen under the engine's operation
// mutex, so only the hot counters need to be atomic.
type fileProgress struct {
	copiedFiles atomic.Int64
	copiedBytes atomic.Int64
	startedAt   time.Time
}

func newFileProgress() *fileProgress {
	return &fileProgress{}
}

func (p *fileProgress) reset() {
	p.copiedFiles.Store(0)
	p.copiedBytes.Store(0)
	p.startedAt = time.Now()
}

func (p *fileProgress) addFile() {
	p.copiedFiles.Add(1)
}

func (p *fileProgress) addBytes(n int64) {
	p.copiedBytes.Add(n)
}

// ProgressSnapshot is a point-in-time read of an operation's counters.
type ProgressSnapshot struct {
	CopiedFiles int64
	CopiedBytes int64
	Elapsed     time.Duration
}

func (p *fileProgress) snapshot() ProgressSnapshot {
	return ProgressSnapshot{
		CopiedFiles: p.copiedFiles.Load(),
		CopiedBytes: p.copiedBytes.Load(),
		Elapsed:     time.Since(p.startedAt),
	}
}
