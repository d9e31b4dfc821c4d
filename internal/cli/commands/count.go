package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapkv/internal/join"
	"github.com/leapstack-labs/leapkv/internal/kvstore"
)

// Count defaults, as in the shell.
const (
	DefaultCountInterval = 1000
	DefaultCountCache    = 10
)

// CountOptions controls a row count.
type CountOptions struct {
	Interval    int
	Cache       int
	CacheBlocks bool
	Filter      *kvstore.Filter
}

// NewCountCommand creates the count command.
func NewCountCommand() *cobra.Command {
	var (
		interval    int
		cache       int
		cacheBlocks string
		filter      string
	)

	cmd := &cobra.Command{
		Use:   "count <table>",
		Short: "Count the rows of a table",
		Long: `Count the rows of a table, printing progress every --interval rows.

--cache sets how many rows each scan round trip fetches.`,
		Example: `  leapkv count orders
  leapkv count orders --interval 100000 --cache 1000 --cache-blocks false`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := CountOptions{Interval: interval, Cache: cache}
			if cmd.Flags().Changed("cache-blocks") {
				b, err := join.ParseBool(join.ParamCacheBlocks, cacheBlocks)
				if err != nil {
					return err
				}
				opts.CacheBlocks = b
			}
			f, err := kvstore.ParseFilter(filter)
			if err != nil {
				return fmt.Errorf("invalid FILTER: %w", err)
			}
			opts.Filter = f

			return withContext(cmd, func(ctx context.Context, cc *CommandContext) error {
				_, err := runCount(ctx, cc, args[0], opts)
				return err
			})
		},
	}

	cmd.Flags().IntVar(&interval, "interval", DefaultCountInterval, "Report progress every N rows")
	cmd.Flags().IntVar(&cache, "cache", DefaultCountCache, "Scanner caching (rows per round trip)")
	cmd.Flags().StringVar(&cacheBlocks, "cache-blocks", "", "Let the scan populate the block cache: true or false")
	cmd.Flags().StringVar(&filter, "filter", "", "Only count rows matching this filter")

	return cmd
}

// runCount scans the table, reporting "Current count: N, row: K" every
// Interval rows, then prints the total.
func runCount(ctx context.Context, cc *CommandContext, table string, opts CountOptions) (int, error) {
	if opts.Interval <= 0 {
		opts.Interval = DefaultCountInterval
	}
	if opts.Cache <= 0 {
		opts.Cache = DefaultCountCache
	}

	r := cc.Renderer
	start := time.Now()
	count := 0
	err := cc.Store.Scan(ctx, table, kvstore.ScanOptions{
		Filter:      opts.Filter,
		CacheBlocks: opts.CacheBlocks,
		Caching:     opts.Cache,
		Limit:       -1,
	}, func(key string, _ kvstore.Row) bool {
		count++
		if count%opts.Interval == 0 {
			r.Info(fmt.Sprintf("Current count: %d, row: %s", count, key))
		}
		return true
	})
	if err != nil {
		return 0, err
	}

	r.Info(fmtFooter(count, time.Since(start)))
	r.Printf("=> %d\n", count)
	return count, nil
}
