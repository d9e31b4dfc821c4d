package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapkv/internal/join"
	"github.com/leapstack-labs/leapkv/internal/kvstore"
)

const shellPrompt = "leapkv> "

// shellCommands are the statements the shell understands.
var shellCommands = []string{"jointable", "count", "scan", "get", "put", "create", "list", "load", "help", "exit"}

// NewShellCommand creates the interactive shell command.
func NewShellCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start the interactive shell",
		Long: `Start an interactive shell over the configured store.

Statements use the shell's argument syntax:

  jointable 'customers', 'orders', ON => 'cf:id', LIMIT => 10
  count 'orders', INTERVAL => 1000, CACHE => 10
  scan 'orders', {FILTER => "cf:total >= 10", LIMIT => 5}

Type help for the full list, exit to leave.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withContext(cmd, func(ctx context.Context, cc *CommandContext) error {
				return runShell(ctx, cmd, cc)
			})
		},
	}
}

func runShell(ctx context.Context, cmd *cobra.Command, cc *CommandContext) error {
	historyFile := cc.Cfg.HistoryFile
	if historyFile != "" {
		if err := os.MkdirAll(filepath.Dir(historyFile), 0o750); err != nil {
			cc.Logger.Warn("history disabled", "path", historyFile, "error", err)
			historyFile = ""
		}
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          shellPrompt,
		HistoryFile:     historyFile,
		AutoComplete:    newShellCompleter(ctx, cc.Store),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdin:           io.NopCloser(cmd.InOrStdin()),
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize shell: %w", err)
	}
	defer func() { _ = rl.Close() }()

	r := cc.Renderer
	r.Printf("leapkv shell (%s store)\n", cc.Cfg.Store.Backend)
	r.Println("Type help for commands, exit to quit")
	r.Println()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		quit, err := execStatement(ctx, cc, line)
		if err != nil {
			r.Error(err.Error())
		}
		if quit {
			return nil
		}
		if strings.TrimSpace(line) != "" {
			r.Println()
		}
	}
}

// execStatement runs one shell line. It reports whether the shell should exit.
func execStatement(ctx context.Context, cc *CommandContext, line string) (bool, error) {
	st, err := ParseStatement(line)
	if err != nil {
		return false, fmt.Errorf("syntax error: %w", err)
	}
	if st == nil {
		return false, nil
	}

	switch st.Command {
	case "exit", "quit":
		return true, nil
	case "help":
		printShellHelp(cc.Renderer.Writer())
		return false, nil
	case "jointable":
		return false, shellJoin(ctx, cc, st)
	case "count":
		return false, shellCount(ctx, cc, st)
	case "scan":
		return false, shellScan(ctx, cc, st)
	case "get":
		if err := st.expectArgs("table", "row"); err != nil {
			return false, err
		}
		table, row := st.Args[0], st.Args[1]
		return false, runGet(ctx, cc, fmt.Sprint(table), fmt.Sprint(row))
	case "put":
		if err := st.expectArgs("table", "row", "column", "value"); err != nil {
			return false, err
		}
		args := make([]string, 4)
		for i := range args {
			args[i] = fmt.Sprint(st.Args[i])
		}
		return false, runPut(ctx, cc, args[0], args[1], args[2], args[3])
	case "create":
		if err := st.expectArgs("table"); err != nil {
			return false, err
		}
		return false, runCreate(ctx, cc, fmt.Sprint(st.Args[0]))
	case "list":
		return false, runList(ctx, cc)
	case "load":
		if err := st.expectArgs("table", "file"); err != nil {
			return false, err
		}
		return false, runLoad(ctx, cc, fmt.Sprint(st.Args[0]), fmt.Sprint(st.Args[1]))
	}
	return false, fmt.Errorf("unknown command %q (type help for commands)", st.Command)
}

func shellJoin(ctx context.Context, cc *CommandContext, st *Statement) error {
	if err := st.expectArgs("left table", "right table"); err != nil {
		return err
	}
	left, err := st.stringArg(0, "left table")
	if err != nil {
		return err
	}
	right, err := st.stringArg(1, "right table")
	if err != nil {
		return err
	}
	req, err := join.RequestFromOptions(left, right, st.Options, joinDefaults(cc.Cfg))
	if err != nil {
		return err
	}
	return runJoin(ctx, cc, req)
}

func shellCount(ctx context.Context, cc *CommandContext, st *Statement) error {
	if err := st.expectArgs("table"); err != nil {
		return err
	}
	if err := st.allowOptions("INTERVAL", "CACHE", join.ParamCacheBlocks, "FILTER"); err != nil {
		return err
	}
	table, err := st.stringArg(0, "table")
	if err != nil {
		return err
	}

	opts := CountOptions{Interval: DefaultCountInterval, Cache: DefaultCountCache}
	if v, ok := st.option("INTERVAL"); ok {
		if opts.Interval, err = positiveInt("INTERVAL", v); err != nil {
			return err
		}
	}
	if v, ok := st.option("CACHE"); ok {
		if opts.Cache, err = positiveInt("CACHE", v); err != nil {
			return err
		}
	}
	if v, ok := st.option(join.ParamCacheBlocks); ok {
		if opts.CacheBlocks, err = join.ParseBool(join.ParamCacheBlocks, v); err != nil {
			return err
		}
	}
	if opts.Filter, err = filterOption(st); err != nil {
		return err
	}

	_, err = runCount(ctx, cc, table, opts)
	return err
}

func shellScan(ctx context.Context, cc *CommandContext, st *Statement) error {
	if err := st.expectArgs("table"); err != nil {
		return err
	}
	if err := st.allowOptions("FILTER", join.ParamLimit, join.ParamCacheBlocks); err != nil {
		return err
	}
	table, err := st.stringArg(0, "table")
	if err != nil {
		return err
	}

	opts := kvstore.DefaultScanOptions()
	if v, ok := st.option(join.ParamLimit); ok {
		if opts.Limit, err = join.ParseLimit(v); err != nil {
			return err
		}
	}
	if v, ok := st.option(join.ParamCacheBlocks); ok {
		if opts.CacheBlocks, err = join.ParseBool(join.ParamCacheBlocks, v); err != nil {
			return err
		}
	}
	if opts.Filter, err = filterOption(st); err != nil {
		return err
	}
	return runScan(ctx, cc, table, opts)
}

func filterOption(st *Statement) (*kvstore.Filter, error) {
	v, ok := st.option("FILTER")
	if !ok {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("invalid FILTER: expected a string, got %v", v)
	}
	f, err := kvstore.ParseFilter(s)
	if err != nil {
		return nil, fmt.Errorf("invalid FILTER: %w", err)
	}
	return f, nil
}

func positiveInt(name string, v any) (int, error) {
	n, ok := v.(int)
	if !ok || n <= 0 {
		return 0, fmt.Errorf("invalid %s: expected a positive integer, got %v", name, v)
	}
	return n, nil
}

func printShellHelp(w io.Writer) {
	help := `
Commands:
  jointable 't1', 't2', ON => 'col' [, FILTER1 => expr] [, FILTER2 => expr]
            [, LIMIT => n] [, PROJECT => ['c1', 'c2']]
            [, ORDER_BY => 'col', REVERSE => true|false]
            [, CACHE_BLOCKS => true|false] [, STRATEGY => 'hash'|'nested_loop']
  count 't' [, INTERVAL => n] [, CACHE => n] [, CACHE_BLOCKS => bool] [, FILTER => expr]
  scan 't' [, FILTER => expr] [, LIMIT => n] [, CACHE_BLOCKS => bool]
  get 't', 'row'
  put 't', 'row', 'column', 'value'
  create 't'
  list
  load 't', 'file.csv'
  help
  exit

Filters read 'column OP value' with OP one of = != < <= > >= ^= (prefix).
KEY addresses the row key, e.g. FILTER => "KEY ^= 'user'".
`
	_, _ = fmt.Fprintln(w, help)
}

// newShellCompleter completes command names and, after them, table names.
func newShellCompleter(ctx context.Context, store kvstore.Store) *readline.PrefixCompleter {
	tables := func(string) []string {
		names, err := store.Tables(ctx)
		if err != nil {
			return nil
		}
		quoted := make([]string, len(names))
		for i, n := range names {
			quoted[i] = "'" + n + "'"
		}
		return quoted
	}

	items := make([]readline.PrefixCompleterInterface, 0, len(shellCommands))
	for _, c := range shellCommands {
		switch c {
		case "list", "help", "exit":
			items = append(items, readline.PcItem(c))
		default:
			items = append(items, readline.PcItem(c, readline.PcItemDynamic(tables)))
		}
	}
	return readline.NewPrefixCompleter(items...)
}
