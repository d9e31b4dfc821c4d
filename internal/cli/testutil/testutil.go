// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapkv/internal/cli/config"
	"github.com/leapstack-labs/leapkv/internal/cli/output"
	"github.com/leapstack-labs/leapkv/internal/testutil"
)

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode and TTY state.
func NewTestRenderer(mode output.Mode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// Output returns the captured stdout.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns the captured stderr.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

// TestConfig returns a config backed by a fresh SQLite file in a temp dir,
// rendering CSV unless mode says otherwise.
func TestConfig(t *testing.T, mode output.Mode) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Store.Path = filepath.Join(dir, "store.db")
	cfg.HistoryFile = filepath.Join(dir, "history")
	cfg.ProjectRoot = dir
	if mode == "" {
		mode = output.ModeCSV
	}
	cfg.OutputFormat = string(mode)
	return cfg
}

// CommandRun holds the captured streams of a command execution.
type CommandRun struct {
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// Stdout returns the captured stdout.
func (r *CommandRun) Stdout() string { return r.Out.String() }

// Stderr returns the captured stderr.
func (r *CommandRun) Stderr() string { return r.ErrOut.String() }

// RunCommand executes cmd with args, config and a test logger in its
// context, and returns the captured output.
func RunCommand(t *testing.T, cfg *config.Config, cmd *cobra.Command, args ...string) (*CommandRun, error) {
	t.Helper()
	run := &CommandRun{Out: &bytes.Buffer{}, ErrOut: &bytes.Buffer{}}

	ctx := context.WithValue(context.Background(), config.ConfigKey(), cfg)
	ctx = context.WithValue(ctx, config.LoggerKey(), testutil.NewTestLogger(t))

	cmd.SetOut(run.Out)
	cmd.SetErr(run.ErrOut)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return run, err
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// CSVLines splits CSV output into trimmed non-empty lines.
func CSVLines(s string) []string {
	var lines []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// GetTestdataDir returns the path to the repository's testdata directory.
func GetTestdataDir(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}

	candidates := []string{
		filepath.Join(wd, "testdata"),
		filepath.Join(wd, "..", "testdata"),
		filepath.Join(wd, "..", "..", "testdata"),
		filepath.Join(wd, "..", "..", "..", "testdata"),
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(filepath.Join(candidate, "customers.csv")); err == nil {
			return candidate
		}
	}

	t.Fatalf("testdata directory not found, tried: %v", candidates)
	return ""
}
