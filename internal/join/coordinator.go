// Package join implements the two-table equi-join behind the shell's jointable
// command: strategy selection, the hash and nested-loop executors, and the
// assembly, ordering and limiting of the joined rows.
//
// A request runs to completion before anything is rendered:
//
//	scan both sides -> count -> vote -> execute -> assemble -> order -> project
package join

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/leapstack-labs/leapkv/internal/kvstore"
)

// Source is the slice of the store the coordinator needs.
type Source interface {
	kvstore.Scanner
	kvstore.RowFetcher
	kvstore.Counter
}

// Config holds coordinator settings.
type Config struct {
	Selector SelectorConfig
	// HashSeed seeds Hash32 in the hash-join executor.
	HashSeed uint32
	// Logger is optional; nil discards.
	Logger *slog.Logger
}

// Timings records how long each phase took.
type Timings struct {
	Scan     time.Duration
	Plan     time.Duration
	Execute  time.Duration
	Assemble time.Duration
	Total    time.Duration
}

// Result is a completed join.
type Result struct {
	ID      string
	Request Request
	Plan    Plan

	// LeftCount and RightCount are the filtered row counts of each table.
	LeftCount  int
	RightCount int

	// Header is the projected column list, ROW first.
	Header []string
	// Universe is the unprojected column list, ROW first.
	Universe []string
	Rows     []OutputRow
	Pairs    []Pair

	// Empty is set when either scan or the join itself produced nothing.
	Empty bool

	Timings Timings
}

// Table returns the rows as value slices aligned to Header.
func (r *Result) Table() [][]string {
	out := make([][]string, len(r.Rows))
	for i, row := range r.Rows {
		out[i] = Values(r.Header, row)
	}
	return out
}

// Coordinator runs join requests against a Source.
type Coordinator struct {
	src      Source
	selector *Selector
	seed     uint32
	logger   *slog.Logger
}

// NewCoordinator creates a coordinator.
func NewCoordinator(src Source, cfg Config) *Coordinator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Coordinator{
		src:      src,
		selector: NewSelector(cfg.Selector),
		seed:     cfg.HashSeed,
		logger:   logger,
	}
}

// Join validates and runs a request. Invalid requests fail with an error
// matching ErrInvalidArgument before the store is touched. A projection that
// removes every column fails with ErrEmptyProjection. No match is not an
// error: the result comes back with Empty set. ORDER_BY is checked against
// the joined columns, so an empty result has nothing to check it against.
func (c *Coordinator) Join(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	f1, f2, _ := req.filters()

	start := time.Now()
	res := &Result{ID: uuid.NewString(), Request: req}
	log := c.logger.With("join_id", res.ID, "left", req.Left, "right", req.Right, "on", req.On)

	leftOpts := kvstore.ScanOptions{Filter: f1, CacheBlocks: req.CacheBlocks, Limit: -1}
	rightOpts := kvstore.ScanOptions{Filter: f2, CacheBlocks: req.CacheBlocks, Limit: -1}

	left, err := c.src.ScanColumnValues(ctx, req.Left, leftOpts, req.On)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", req.Left, err)
	}
	right, err := c.src.ScanColumnValues(ctx, req.Right, rightOpts, req.On)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", req.Right, err)
	}
	if res.LeftCount, err = c.src.CountRows(ctx, req.Left, leftOpts); err != nil {
		return nil, fmt.Errorf("failed to count %s: %w", req.Left, err)
	}
	if res.RightCount, err = c.src.CountRows(ctx, req.Right, rightOpts); err != nil {
		return nil, fmt.Errorf("failed to count %s: %w", req.Right, err)
	}
	res.Timings.Scan = time.Since(start)
	log.Debug("scanned", "left_values", len(left), "right_values", len(right),
		"left_count", res.LeftCount, "right_count", res.RightCount)

	if len(left) == 0 || len(right) == 0 {
		res.Empty = true
		res.Header = []string{RowColumn}
		res.Universe = res.Header
		res.Timings.Total = time.Since(start)
		return res, nil
	}

	mark := time.Now()
	res.Plan = c.selector.Select(Stats{
		LeftCount:  res.LeftCount,
		RightCount: res.RightCount,
		Left:       left,
		Right:      right,
	})
	if req.Strategy != "" {
		forced, _ := ParseStrategy(req.Strategy)
		res.Plan = res.Plan.Force(forced)
	}
	res.Timings.Plan = time.Since(mark)
	for _, v := range res.Plan.Votes {
		log.Debug("vote", "criterion", v.Criterion, "choice", v.Choice, "reason", v.Reason)
	}
	log.Debug("planned", "strategy", res.Plan.Strategy, "forced", res.Plan.Forced)

	mark = time.Now()
	out, err := NewExecutor(res.Plan.Strategy, c.seed).Execute(ctx, Input{
		LeftTable:  req.Left,
		RightTable: req.Right,
		Left:       left,
		Right:      right,
		Fetcher:    c.src,
		Limit:      req.Limit,
	})
	if err != nil {
		return nil, err
	}
	res.Timings.Execute = time.Since(mark)

	mark = time.Now()
	if err := c.assemble(res, out); err != nil {
		return nil, err
	}
	res.Timings.Assemble = time.Since(mark)
	res.Timings.Total = time.Since(start)

	log.Debug("joined", "rows", len(res.Rows), "elapsed", res.Timings.Total)
	return res, nil
}

func (c *Coordinator) assemble(res *Result, out *Output) error {
	res.Pairs = out.Pairs
	res.Rows = out.Rows
	res.Universe = ColumnUniverse(out.Columns)

	if len(res.Rows) == 0 {
		res.Empty = true
		res.Header = res.Universe
		return nil
	}

	if res.Request.OrderBy != "" {
		sorted, err := SortRows(res.Rows, res.Universe, Order{
			Column:     res.Request.OrderBy,
			Descending: *res.Request.Reverse,
		})
		if err != nil {
			return err
		}
		res.Rows = sorted
	}

	header, err := Project(res.Universe, res.Request.Project)
	if err != nil {
		return err
	}
	res.Header = header
	return nil
}
