package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the optional pfcopy configuration file. It only
// ever supplies CLI flag defaults; the engine never reads it itself.
type Config struct {
	Defaults DefaultsConfig `toml:"defaults"`
}

// DefaultsConfig holds persistent flag defaults, one pointer per
// Options field a user might want to override without repeating a
// flag on every invocation. A nil pointer means "not set in the
// file" so the CLI can tell that apart from an explicit zero value.
type DefaultsConfig struct {
	MaxConcurrentFiles    *int    `toml:"max_concurrent_files"`
	MaxThreadsPerFile     *int    `toml:"max_threads_per_file"`
	MaxTotalThreads       *int    `toml:"max_total_threads"`
	BufferSize            *int    `toml:"buffer_size"`
	MaxFileQueueLength    *int    `toml:"max_file_queue_length"`
	UseIncompleteFilename *bool   `toml:"use_incomplete_filename"`
	CopyEmptyDirectories  *bool   `toml:"copy_empty_directories"`
	IncrementalSourcePath *string `toml:"incremental_source_path"`
	MinChunksPerThread    *int    `toml:"min_chunks_per_thread"`
	SkipExistingIdentical *bool   `toml:"skip_existing_identical"`
}

// Path returns the resolved path to the config file.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "pfcopy", "config.toml")
}

// Load reads the config file from the XDG path. Returns a zero Config
// (no error) if the file does not exist. Config is always optional.
func Load() (Config, error) {
	path := Path()
	if path == "" {
		return Config{}, nil
	}

	var cfg Config
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, err
	}
	return cfg, nil
}
