package config

import (
	"fmt"
	"slices"

	"github.com/leapstack-labs/leapkv/internal/kvstore"
)

var outputModes = []string{"auto", "text", "markdown", "json", "csv", "yaml"}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case kvstore.BackendMemory, kvstore.BackendSQLite:
	default:
		return fmt.Errorf("store.backend must be %q or %q, got %q",
			kvstore.BackendMemory, kvstore.BackendSQLite, c.Store.Backend)
	}
	if c.Store.Backend == kvstore.BackendSQLite && c.Store.Path == "" {
		return fmt.Errorf("store.path is required for the sqlite backend")
	}
	if !slices.Contains(outputModes, c.OutputFormat) {
		return fmt.Errorf("output must be one of %v, got %q", outputModes, c.OutputFormat)
	}

	j := c.Join
	if j.SelectivityThreshold <= 0 {
		return fmt.Errorf("join.selectivity_threshold must be positive, got %g", j.SelectivityThreshold)
	}
	if j.SizeRatioMin <= 0 || j.SizeRatioMax <= 0 {
		return fmt.Errorf("join.size_ratio_min and join.size_ratio_max must be positive")
	}
	if j.SizeRatioMin > j.SizeRatioMax {
		return fmt.Errorf("join.size_ratio_min (%g) exceeds join.size_ratio_max (%g)", j.SizeRatioMin, j.SizeRatioMax)
	}
	return nil
}
