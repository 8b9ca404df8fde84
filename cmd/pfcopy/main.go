// Command pfcopy copies a file or directory tree using multiple
// concurrent files and multiple concurrent read/write streams per
// file.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dkrahmer/pfcopy/internal/config"
	"github.com/dkrahmer/pfcopy/internal/engine"
	"github.com/dkrahmer/pfcopy/internal/event"
	"github.com/dkrahmer/pfcopy/internal/ui"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(exitCodeFor(err))
	}
}

func newRootCmd() *cobra.Command {
	var (
		maxConcurrentFiles    int
		maxThreadsPerFile     int
		maxTotalThreads       int
		bufferSize            int
		maxFileQueueLength    int
		noIncompleteFilename  bool
		copyEmptyDirectories  bool
		incrementalSourcePath string
		minChunksPerThread    int
		skipExistingIdentical bool
		verbose               bool
		quiet                 bool
	)

	cmd := &cobra.Command{
		Use:   "pfcopy <src> <dst>",
		Short: "Copy a file or directory tree using multiple concurrent streams",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := engine.DefaultOptions()
			applyConfigDefaults(&opts, cmd)

			if cmd.Flags().Changed("max-concurrent-files") {
				opts.MaxConcurrentFiles = maxConcurrentFiles
			}
			if cmd.Flags().Changed("max-threads-per-file") {
				opts.MaxThreadsPerFile = maxThreadsPerFile
			}
			if cmd.Flags().Changed("max-total-threads") {
				opts.MaxTotalThreads = maxTotalThreads
			}
			if cmd.Flags().Changed("buffer-size") {
				opts.BufferSize = bufferSize
			}
			if cmd.Flags().Changed("max-queue-length") {
				opts.MaxFileQueueLength = maxFileQueueLength
			}
			if noIncompleteFilename {
				opts.UseIncompleteFilename = false
			}
			if cmd.Flags().Changed("copy-empty-dirs") {
				opts.CopyEmptyDirectories = copyEmptyDirectories
			}
			if cmd.Flags().Changed("incremental-source-path") {
				opts.IncrementalSourcePath = incrementalSourcePath
			}
			if cmd.Flags().Changed("min-chunks-per-thread") {
				opts.MinChunksPerThread = minChunksPerThread
			}
			if cmd.Flags().Changed("skip-existing-identical") {
				opts.SkipExistingIdentical = skipExistingIdentical
			}

			logLevel := slog.LevelInfo
			switch {
			case quiet:
				logLevel = slog.LevelWarn
			case verbose:
				logLevel = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

			observer := observerFor(quiet, verbose, ui.IsTTY(os.Stdout.Fd()))

			eng, err := engine.NewCopyEngine(opts, observer)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := eng.Copy(ctx, args[0], args[1]); err != nil {
				slog.Error("copy failed", "error", err)
				return err
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&maxConcurrentFiles, "max-concurrent-files", 0, "files copied concurrently (default 4)")
	cmd.Flags().IntVar(&maxThreadsPerFile, "max-threads-per-file", 0, "chunk workers per file (default 4)")
	cmd.Flags().IntVar(&maxTotalThreads, "max-total-threads", 0, "chunk workers across all files (default 4)")
	cmd.Flags().IntVar(&bufferSize, "buffer-size", 0, "bytes per chunk (default 131072)")
	cmd.Flags().IntVar(&maxFileQueueLength, "max-queue-length", 0, "files enqueued but not yet finished (default 50)")
	cmd.Flags().BoolVar(&noIncompleteFilename, "no-incomplete-filename", false, "write directly to the destination instead of staging")
	cmd.Flags().BoolVar(&copyEmptyDirectories, "copy-empty-dirs", false, "create destination directories that contain no files")
	cmd.Flags().StringVar(&incrementalSourcePath, "incremental-source-path", "", "source path prefix to rewrite per chunk worker for multi-handle mounts")
	cmd.Flags().IntVar(&minChunksPerThread, "min-chunks-per-thread", 0, "minimum chunks a worker must get before another is elected (default 32)")
	cmd.Flags().BoolVar(&skipExistingIdentical, "skip-existing-identical", false, "skip files whose destination already has the same length and modification time")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "also show files skipped as identical")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "show only the final summary or a fatal error")

	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the pfcopy version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), version)
			return nil
		},
	}
}

// observerFor picks a verbosity the way the engine's level contract
// expects: -q always wins, -v always shows verbose detail, and absent
// either flag a non-interactive stdout (piped to a file, redirected
// into a log) falls back to summary-only output rather than one line
// per file.
func observerFor(quiet, verbose, isTTY bool) event.Observer {
	switch {
	case quiet:
		return ui.NewQuietObserver(os.Stdout)
	case verbose:
		return ui.NewLineObserver(os.Stdout, event.LevelVerbose)
	case isTTY:
		return ui.NewLineObserver(os.Stdout, event.LevelInfo)
	default:
		return ui.NewQuietObserver(os.Stdout)
	}
}

// applyConfigDefaults merges the optional TOML config file's
// defaults into opts, for every field the user did not pass a flag
// for. Flags set on the command line always win.
func applyConfigDefaults(opts *engine.Options, cmd *cobra.Command) {
	cfg, err := config.Load()
	if err != nil {
		slog.Warn("failed to load config file", "path", config.Path(), "error", err)
		return
	}
	d := cfg.Defaults
	if d.MaxConcurrentFiles != nil && !cmd.Flags().Changed("max-concurrent-files") {
		opts.MaxConcurrentFiles = *d.MaxConcurrentFiles
	}
	if d.MaxThreadsPerFile != nil && !cmd.Flags().Changed("max-threads-per-file") {
		opts.MaxThreadsPerFile = *d.MaxThreadsPerFile
	}
	if d.MaxTotalThreads != nil && !cmd.Flags().Changed("max-total-threads") {
		opts.MaxTotalThreads = *d.MaxTotalThreads
	}
	if d.BufferSize != nil && !cmd.Flags().Changed("buffer-size") {
		opts.BufferSize = *d.BufferSize
	}
	if d.MaxFileQueueLength != nil && !cmd.Flags().Changed("max-queue-length") {
		opts.MaxFileQueueLength = *d.MaxFileQueueLength
	}
	if d.UseIncompleteFilename != nil && !cmd.Flags().Changed("no-incomplete-filename") {
		opts.UseIncompleteFilename = *d.UseIncompleteFilename
	}
	if d.CopyEmptyDirectories != nil && !cmd.Flags().Changed("copy-empty-dirs") {
		opts.CopyEmptyDirectories = *d.CopyEmptyDirectories
	}
	if d.IncrementalSourcePath != nil && !cmd.Flags().Changed("incremental-source-path") {
		opts.IncrementalSourcePath = *d.IncrementalSourcePath
	}
	if d.MinChunksPerThread != nil && !cmd.Flags().Changed("min-chunks-per-thread") {
		opts.MinChunksPerThread = *d.MinChunksPerThread
	}
	if d.SkipExistingIdentical != nil && !cmd.Flags().Changed("skip-existing-identical") {
		opts.SkipExistingIdentical = *d.SkipExistingIdentical
	}
}

func exitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	return 1
}
