package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapkv/internal/cli/output"
	"github.com/leapstack-labs/leapkv/internal/kvstore"
)

func fmtFooter(rows int, elapsed time.Duration) string {
	return output.FormatFooter(rows, elapsed)
}

// NewGetCommand creates the get command.
func NewGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "get <table> <row>",
		Short:   "Show the cells of one row",
		Example: `  leapkv get customers c1`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContext(cmd, func(ctx context.Context, cc *CommandContext) error {
				return runGet(ctx, cc, args[0], args[1])
			})
		},
	}
}

func runGet(ctx context.Context, cc *CommandContext, table, key string) error {
	start := time.Now()
	row, err := cc.Store.FetchRow(ctx, table, key)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, row.Len())
	for _, c := range row.Columns() {
		v, _ := row.Get(c)
		rows = append(rows, []string{c, "value=" + v})
	}
	return cc.Renderer.Table([]string{"COLUMN", "CELL"}, rows, row.Len(), time.Since(start))
}

// NewPutCommand creates the put command.
func NewPutCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "put <table> <row> <column> <value>",
		Short:   "Write one cell",
		Example: `  leapkv put customers c5 cf:name erin`,
		Args:    cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContext(cmd, func(ctx context.Context, cc *CommandContext) error {
				return runPut(ctx, cc, args[0], args[1], args[2], args[3])
			})
		},
	}
}

func runPut(ctx context.Context, cc *CommandContext, table, key, column, value string) error {
	start := time.Now()
	if err := cc.Store.Put(ctx, table, key, column, value); err != nil {
		return err
	}
	cc.Renderer.Success(fmtFooter(0, time.Since(start)))
	return nil
}

// NewCreateCommand creates the create command.
func NewCreateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create <table>",
		Short: "Create an empty table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContext(cmd, func(ctx context.Context, cc *CommandContext) error {
				return runCreate(ctx, cc, args[0])
			})
		},
	}
}

func runCreate(ctx context.Context, cc *CommandContext, table string) error {
	if err := cc.Store.CreateTable(ctx, table); err != nil {
		return err
	}
	cc.Renderer.Success(fmt.Sprintf("Created table %s", table))
	return nil
}

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withContext(cmd, runList)
		},
	}
}

func runList(ctx context.Context, cc *CommandContext) error {
	start := time.Now()
	tables, err := cc.Store.Tables(ctx)
	if err != nil {
		return err
	}
	rows := make([][]string, len(tables))
	for i, t := range tables {
		rows[i] = []string{t}
	}
	return cc.Renderer.Table([]string{"TABLE"}, rows, len(tables), time.Since(start))
}

// NewLoadCommand creates the load command.
func NewLoadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "load <table> <file.csv>",
		Short: "Load a CSV file into a table",
		Long: `Load a CSV file into a table, creating the table if needed.

The header names the columns. The first column holds the row key; empty
cells are skipped.`,
		Example: `  leapkv load customers testdata/customers.csv`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContext(cmd, func(ctx context.Context, cc *CommandContext) error {
				return runLoad(ctx, cc, args[0], args[1])
			})
		},
	}
}

func runLoad(ctx context.Context, cc *CommandContext, table, path string) error {
	n, err := kvstore.LoadCSVFile(ctx, cc.Store, table, path)
	if err != nil {
		return err
	}
	cc.Renderer.Success(fmt.Sprintf("Loaded %d row(s) into %s", n, table))
	return nil
}
