package engine

import "sync/atomic"

// chunkCursor hands out increasing chunk indexes to every ChunkWorker
// copying the same file, so the set of workers partitions the file
// without any worker needing to know how many siblings it has.
type chunkCursor struct {
	n atomic.Int64
}

func newChunkCursor() *chunkCursor {
	c := &chunkCursor{}
	c.n.Store(-1)
	return c
}

// next returns the next chunk index, starting at 0.
func (c *chunkCursor) next() int64 {
	return c.n.Add(1)
}
