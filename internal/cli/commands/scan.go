package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapkv/internal/join"
	"github.com/leapstack-labs/leapkv/internal/kvstore"
)

// scanHeader matches the shell's scan listing.
var scanHeader = []string{"ROW", "COLUMN+CELL"}

// NewScanCommand creates the scan command.
func NewScanCommand() *cobra.Command {
	var (
		filter      string
		limit       int
		cacheBlocks string
	)

	cmd := &cobra.Command{
		Use:   "scan <table>",
		Short: "List the cells of a table",
		Example: `  leapkv scan customers
  leapkv scan customers --filter "cf:name ^= a" --limit 5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := kvstore.DefaultScanOptions()
			opts.Limit = limit
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
				return runScan(ctx, cc, args[0], opts)
			})
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "Row filter, e.g. \"cf:age >= 30\" or \"KEY ^= user\"")
	cmd.Flags().IntVar(&limit, "limit", -1, "Maximum rows (negative for unlimited)")
	cmd.Flags().StringVar(&cacheBlocks, "cache-blocks", "", "Let the scan populate the block cache: true or false")

	return cmd
}

// runScan renders one line per cell. The footer counts rows, not cells.
func runScan(ctx context.Context, cc *CommandContext, table string, opts kvstore.ScanOptions) error {
	start := time.Now()
	var (
		rows  [][]string
		count int
	)
	err := cc.Store.Scan(ctx, table, opts, func(key string, row kvstore.Row) bool {
		count++
		for _, c := range row.Columns() {
			v, _ := row.Get(c)
			rows = append(rows, []string{key, fmt.Sprintf("column=%s, value=%s", c, v)})
		}
		return true
	})
	if err != nil {
		return err
	}
	return cc.Renderer.Table(scanHeader, rows, count, time.Since(start))
}
