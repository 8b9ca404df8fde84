package engine

// CopyJob names a single regular-file copy a Walker has discovered
// and handed to the engine's dispatcher.
type CopyJob struct {
	SrcPath string
	DstPath string
}
