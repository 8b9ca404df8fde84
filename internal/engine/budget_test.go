package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBudgetGuards_FileBoundsConcurrency(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxConcurrentFiles = 1
	g := newBudgetGuards(opts)
	ctx := context.Background()

	require.NoError(t, g.acquireFile(ctx))

	tryCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	err := g.acquireFile(tryCtx)
	assert.Error(t, err, "a second acquire should block while the budget is exhausted")

	g.releaseFile()
	require.NoError(t, g.acquireFile(ctx))
	g.releaseFile()
}

func TestBudgetGuards_ThreadAcquiresMultiplePermitsAtomically(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxTotalThreads = 4
	g := newBudgetGuards(opts)
	ctx := context.Background()

	require.NoError(t, g.acquireThreads(ctx, 3))

	tryCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	assert.Error(t, g.acquireThreads(tryCtx, 2), "only 1 permit remains")

	g.releaseThreads(3)
	require.NoError(t, g.acquireThreads(ctx, 4))
	g.releaseThreads(4)
}

func TestBudgetGuards_QueueRoundTrips(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxFileQueueLength = 2
	g := newBudgetGuards(opts)
	ctx := context.Background()

	require.NoError(t, g.acquireQueue(ctx))
	require.NoError(t, g.acquireQueue(ctx))

	tryCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	assert.Error(t, g.acquireQueue(tryCtx))

	g.releaseQueue()
	require.NoError(t, g.acquireQueue(ctx))
}
