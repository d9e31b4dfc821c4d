package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapkv/internal/cli/config"
	"github.com/leapstack-labs/leapkv/internal/cli/output"
	"github.com/leapstack-labs/leapkv/internal/join"
	"github.com/leapstack-labs/leapkv/internal/kvstore"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Store    kvstore.Store
	Joiner   *join.Coordinator
	Renderer *output.Renderer
}

// NewCommandContext opens the configured store and builds a renderer.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cfg := config.GetConfig(cmd.Context())
	logger := config.GetLogger(cmd.Context())

	store, err := kvstore.Open(cfg.Store.Backend, cfg.Store.Path, logger)
	if err != nil {
		return nil, nil, err
	}

	cc := NewCommandContextWithStore(cmd, store)
	cleanup := func() {
		if err := store.Close(); err != nil {
			logger.Warn("failed to close store", "error", err)
		}
	}
	return cc, cleanup, nil
}

// NewCommandContextWithStore builds a CommandContext around an open store.
// The shell uses it so every statement shares one store.
func NewCommandContextWithStore(cmd *cobra.Command, store kvstore.Store) *CommandContext {
	cfg := config.GetConfig(cmd.Context())
	logger := config.GetLogger(cmd.Context())

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Store:    store,
		Joiner:   join.NewCoordinator(store, joinConfig(cfg, logger)),
		Renderer: newRenderer(cmd, cfg),
	}
}

func newRenderer(cmd *cobra.Command, cfg *config.Config) *output.Renderer {
	mode, err := output.ParseMode(cfg.OutputFormat)
	if err != nil {
		mode = output.ModeAuto
	}
	return output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)
}

func joinConfig(cfg *config.Config, logger *slog.Logger) join.Config {
	return join.Config{
		Selector: join.SelectorConfig{
			SizeRatioMin:         cfg.Join.SizeRatioMin,
			SizeRatioMax:         cfg.Join.SizeRatioMax,
			SelectivityThreshold: cfg.Join.SelectivityThreshold,
		},
		HashSeed: cfg.Join.HashSeed,
		Logger:   logger,
	}
}

// joinDefaults is the request template config supplies for omitted options.
func joinDefaults(cfg *config.Config) join.Request {
	return join.Request{
		Limit:       cfg.Join.DefaultLimit,
		CacheBlocks: cfg.Join.CacheBlocks,
	}
}

// withContext runs fn with a CommandContext and closes the store afterwards.
func withContext(cmd *cobra.Command, fn func(ctx context.Context, cc *CommandContext) error) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer cleanup()
	return fn(cmd.Context(), cc)
}
