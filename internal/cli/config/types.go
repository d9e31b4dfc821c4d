// Package config provides configuration management for the leapkv CLI.
package config

import "github.com/leapstack-labs/leapkv/internal/kvstore"

// StoreConfig selects and locates the backing store.
type StoreConfig struct {
	Backend string `koanf:"backend"`
	Path    string `koanf:"path"`
}

// JoinConfig holds jointable defaults and strategy selector thresholds.
type JoinConfig struct {
	DefaultLimit         int     `koanf:"default_limit"`
	HashSeed             uint32  `koanf:"hash_seed"`
	CacheBlocks          bool    `koanf:"cache_blocks"`
	SelectivityThreshold float64 `koanf:"selectivity_threshold"`
	SizeRatioMin         float64 `koanf:"size_ratio_min"`
	SizeRatioMax         float64 `koanf:"size_ratio_max"`
}

// Config holds all CLI configuration options.
type Config struct {
	Store        StoreConfig `koanf:"store"`
	OutputFormat string      `koanf:"output"`
	Verbose      bool        `koanf:"verbose"`
	HistoryFile  string      `koanf:"history_file"`
	Join         JoinConfig  `koanf:"join"`

	// ProjectRoot is the directory relative paths resolve against.
	ProjectRoot string `koanf:"-"`
}

// Default configuration values.
const (
	DefaultBackend     = kvstore.BackendSQLite
	DefaultStorePath   = ".leapkv/store.db"
	DefaultHistoryFile = ".leapkv/history"
	DefaultOutput      = "auto" // Auto-detect: TTY=text, non-TTY=markdown

	DefaultJoinLimit            = -1
	DefaultSelectivityThreshold = 2.0
	DefaultSizeRatioMin         = 0.5
	DefaultSizeRatioMax         = 2.0
)

// Default returns the configuration used when nothing is loaded.
func Default() *Config {
	return &Config{
		Store:        StoreConfig{Backend: DefaultBackend, Path: DefaultStorePath},
		OutputFormat: DefaultOutput,
		HistoryFile:  DefaultHistoryFile,
		Join: JoinConfig{
			DefaultLimit:         DefaultJoinLimit,
			SelectivityThreshold: DefaultSelectivityThreshold,
			SizeRatioMin:         DefaultSizeRatioMin,
			SizeRatioMax:         DefaultSizeRatioMax,
		},
	}
}
