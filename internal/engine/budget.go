package engine

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// budgetGuards holds the three intersecting concurrency budgets and
// the mutual-exclusion gate that keeps their acquisition order safe.
//
// Acquisition order is load bearing:
//
//	G_file -> G_thread_safety -> G_thread x k -> release G_thread_safety
//	-> copy -> release G_thread x k, G_file
//
// G_thread_safety is held for the whole G_thread x k acquisition, so
// only one file at a time accumulates G_thread permits and two files
// can never each hold part of the permits they wait for. A FileCopier
// that acquired G_thread_safety before G_file could deadlock against a
// sibling file doing the reverse; every caller in this package
// acquires in the order above.
type budgetGuards struct {
	file         *semaphore.Weighted // G_file: files in flight, engine-wide
	queue        *semaphore.Weighted // G_queue: files enqueued but not finished
	thread       *semaphore.Weighted // G_thread: ChunkWorkers running, engine-wide
	threadSafety sync.Mutex          // G_thread_safety: serializes worker-count election
}

func newBudgetGuards(opts Options) *budgetGuards {
	return &budgetGuards{
		file:   semaphore.NewWeighted(int64(opts.MaxConcurrentFiles)),
		queue:  semaphore.NewWeighted(int64(opts.MaxFileQueueLength)),
		thread: semaphore.NewWeighted(int64(opts.MaxTotalThreads)),
	}
}

func (g *budgetGuards) acquireFile(ctx context.Context) error {
	return g.file.Acquire(ctx, 1)
}

func (g *budgetGuards) releaseFile() {
	g.file.Release(1)
}

func (g *budgetGuards) acquireQueue(ctx context.Context) error {
	return g.queue.Acquire(ctx, 1)
}

func (g *budgetGuards) releaseQueue() {
	g.queue.Release(1)
}

func (g *budgetGuards) acquireThreads(ctx context.Context, k int) error {
	return g.thread.Acquire(ctx, int64(k))
}

func (g *budgetGuards) releaseThreads(k int) {
	g.thread.Release(int64(k))
}
