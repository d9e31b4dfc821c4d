package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/leapkv/internal/join"
)

// JoinOptions holds the jointable flags.
type JoinOptions struct {
	On          string
	Filter1     string
	Filter2     string
	Limit       int
	Project     []string
	OrderBy     string
	Reverse     string
	CacheBlocks string
	Strategy    string
}

// NewJoinTableCommand creates the jointable command.
func NewJoinTableCommand() *cobra.Command {
	opts := &JoinOptions{}

	cmd := &cobra.Command{
		Use:   "jointable <left> <right>",
		Short: "Equi-join two tables on a column",
		Long: `Join the rows of two tables whose values in the ON column are equal.

The strategy (hash or nested loop) is chosen by a vote over the table sizes,
the join value types and their duplication, unless --strategy forces one.
Each output row merges both source rows; on a column name clash the right
table's value wins. ROW numbers the output from 1.`,
		Example: `  # Join orders to customers on cf:id
  leapkv jointable customers orders --on cf:id

  # Filter both sides, keep two columns, biggest totals first
  leapkv jointable customers orders --on cf:id \
    --filter1 "cf:name != bob" --filter2 "cf:total >= 10" \
    --project cf:name,cf:total --order-by cf:total --reverse true`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContext(cmd, func(ctx context.Context, cc *CommandContext) error {
				req, err := join.RequestFromOptions(args[0], args[1], opts.toMap(cmd), joinDefaults(cc.Cfg))
				if err != nil {
					return err
				}
				return runJoin(ctx, cc, req)
			})
		},
	}

	cmd.Flags().StringVar(&opts.On, "on", "", "Join column (required)")
	cmd.Flags().StringVar(&opts.Filter1, "filter1", "", "Filter on the left table, e.g. \"cf:age >= 30\"")
	cmd.Flags().StringVar(&opts.Filter2, "filter2", "", "Filter on the right table")
	cmd.Flags().IntVar(&opts.Limit, "limit", -1, "Maximum output rows (negative for unlimited)")
	cmd.Flags().StringSliceVar(&opts.Project, "project", nil, "Columns to keep (ROW is always kept)")
	cmd.Flags().StringVar(&opts.OrderBy, "order-by", "", "Sort column")
	cmd.Flags().StringVar(&opts.Reverse, "reverse", "", "Sort descending: true or false (required with --order-by)")
	cmd.Flags().StringVar(&opts.CacheBlocks, "cache-blocks", "", "Let scans populate the block cache: true or false")
	cmd.Flags().StringVar(&opts.Strategy, "strategy", "", "Force a strategy: hash or nested_loop")
	_ = cmd.MarkFlagRequired("on")

	_ = cmd.RegisterFlagCompletionFunc("strategy", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"hash", "nested_loop"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("reverse", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"true", "false"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// toMap turns the flags that were set into a shell-style option map.
func (o *JoinOptions) toMap(cmd *cobra.Command) map[string]any {
	m := map[string]any{join.ParamOn: o.On}
	set := func(flag, param string, v any) {
		if cmd.Flags().Changed(flag) {
			m[param] = v
		}
	}
	set("filter1", join.ParamFilter1, o.Filter1)
	set("filter2", join.ParamFilter2, o.Filter2)
	set("limit", join.ParamLimit, o.Limit)
	set("project", join.ParamProject, o.Project)
	set("order-by", join.ParamOrderBy, o.OrderBy)
	set("reverse", join.ParamReverse, o.Reverse)
	set("cache-blocks", join.ParamCacheBlocks, o.CacheBlocks)
	set("strategy", join.ParamStrategy, o.Strategy)
	return m
}

// runJoin executes a request and renders it. Empty results and empty
// projections are reported as information, not errors.
func runJoin(ctx context.Context, cc *CommandContext, req join.Request) error {
	r := cc.Renderer

	res, err := cc.Joiner.Join(ctx, req)
	if errors.Is(err, join.ErrEmptyProjection) {
		r.Info("Projection removed every column; nothing to show")
		return nil
	}
	if err != nil {
		return err
	}

	r.Info(fmt.Sprintf("%s Count Rows = %d", req.Left, res.LeftCount))
	r.Info(fmt.Sprintf("%s Count Rows = %d", req.Right, res.RightCount))

	if res.Empty {
		r.Info("Join produced no rows")
		return nil
	}

	r.Info(strategyLine(res.Plan))
	if cc.Cfg.Verbose {
		for _, v := range res.Plan.Votes {
			r.Println(r.Muted(fmt.Sprintf("  %-12s %-12s %s", v.Criterion, strategyLabel(v.Choice), v.Reason)))
		}
	}
	return join.Render(r, res)
}

var titleCaser = cases.Title(language.English)

// strategyLabel renders nested_loop as "Nested Loop".
func strategyLabel(s join.Strategy) string {
	return titleCaser.String(strings.ReplaceAll(s.String(), "_", " "))
}

func strategyLine(p join.Plan) string {
	if p.Forced {
		return fmt.Sprintf("Strategy: %s (forced)", strategyLabel(p.Strategy))
	}
	hash, nl := p.Tally()
	return fmt.Sprintf("Strategy: %s (hash %d, nested loop %d)", strategyLabel(p.Strategy), hash, nl)
}
