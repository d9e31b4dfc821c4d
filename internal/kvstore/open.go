package kvstore

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Open creates a store for the named backend. path is ignored by the memory backend.
func Open(backend, path string, logger *slog.Logger) (Store, error) {
	switch strings.ToLower(backend) {
	case BackendMemory:
		return NewMemoryStore(logger), nil
	case BackendSQLite, "":
		if path != ":memory:" {
			if dir := filepath.Dir(path); dir != "." && dir != "" {
				if err := os.MkdirAll(dir, 0750); err != nil {
					return nil, fmt.Errorf("failed to create store directory: %w", err)
				}
			}
		}
		s := NewSQLiteStore(logger)
		if err := s.Open(path); err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q (expected %q or %q)", backend, BackendMemory, BackendSQLite)
	}
}
