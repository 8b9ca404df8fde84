package engine

import "runtime"

// Options configures a CopyEngine. The zero value is not usable
// directly; build one with DefaultOptions and override fields, or
// call Validate before constructing a CopyEngine.
type Options struct {
	// MaxConcurrentFiles bounds how many files may be open for copying
	// at once, across the whole engine (G_file).
	MaxConcurrentFiles int
	// MaxThreadsPerFile bounds how many ChunkWorkers a single file may
	// use. Clamped to MaxTotalThreads by Validate.
	MaxThreadsPerFile int
	// MaxTotalThreads bounds the sum of ChunkWorkers running across
	// every file at once (G_thread).
	MaxTotalThreads int
	// BufferSize is the size, in bytes, of the per-chunk read/write
	// unit and the size used when electing a chunk worker count.
	BufferSize int
	// MaxFileQueueLength bounds how many files may be enqueued by the
	// Walker but not yet finished copying (G_queue).
	MaxFileQueueLength int
	// UseIncompleteFilename stages each file under a randomized
	// ".<token>.incomplete" name, renamed into place on success.
	UseIncompleteFilename bool
	// CopyEmptyDirectories creates destination directories eagerly,
	// even when they contain no files. When false, directories are
	// created lazily by FileCopier just before the first file lands
	// in them.
	CopyEmptyDirectories bool
	// IncrementalSourcePath, when set, is a path prefix that worker
	// index t>=1 rewrites to prefix + "_" + (t+1) + suffix, exposing
	// independent filesystem handles to a mount that otherwise
	// multiplexes every open over one connection.
	IncrementalSourcePath string
	// MinChunksPerThread is the minimum number of chunks a file must
	// offer before an additional ChunkWorker is elected for it.
	MinChunksPerThread int
	// SkipExistingIdentical skips a file whose destination already
	// has the same length and UTC last-write-time as the source.
	SkipExistingIdentical bool
}

// DefaultOptions returns the engine's baseline configuration.
func DefaultOptions() Options {
	return Options{
		MaxConcurrentFiles:    4,
		MaxThreadsPerFile:     4,
		MaxTotalThreads:       4,
		BufferSize:            131072,
		MaxFileQueueLength:    50,
		UseIncompleteFilename: true,
		CopyEmptyDirectories:  false,
		MinChunksPerThread:    32,
		SkipExistingIdentical: false,
	}
}

// Validate returns a normalized copy of o, clamping
// MaxThreadsPerFile to MaxTotalThreads, or an InvalidArgument error
// if a required field is out of range.
func (o Options) Validate() (Options, error) {
	if o.MaxConcurrentFiles <= 0 {
		return o, newErrorf(KindInvalidArgument, "", "", "max concurrent files must be positive, got %d", o.MaxConcurrentFiles)
	}
	if o.MaxThreadsPerFile <= 0 {
		return o, newErrorf(KindInvalidArgument, "", "", "max threads per file must be positive, got %d", o.MaxThreadsPerFile)
	}
	if o.MaxTotalThreads <= 0 {
		return o, newErrorf(KindInvalidArgument, "", "", "max total threads must be positive, got %d", o.MaxTotalThreads)
	}
	if o.BufferSize <= 0 {
		return o, newErrorf(KindInvalidArgument, "", "", "buffer size must be positive, got %d", o.BufferSize)
	}
	if o.MaxFileQueueLength <= 0 {
		return o, newErrorf(KindInvalidArgument, "", "", "max file queue length must be positive, got %d", o.MaxFileQueueLength)
	}
	if o.MinChunksPerThread <= 0 {
		return o, newErrorf(KindInvalidArgument, "", "", "min chunks per thread must be positive, got %d", o.MinChunksPerThread)
	}

	if o.MaxThreadsPerFile > o.MaxTotalThreads {
		o.MaxThreadsPerFile = o.MaxTotalThreads
	}
	return o, nil
}

// walkerFanout bounds how many subdirectories of any one directory a
// Walker descends into concurrently. Each directory applies the bound
// to its own children, so the total across nested levels is not
// limited by it. It is not user-configurable: it only governs the
// shape of directory discovery, never the copy budgets themselves.
func walkerFanout() int {
	n := runtime.NumCPU()
	if n > 8 {
		n = 8
	}
	if n < 1 {
		n = 1
	}
	return n
}
