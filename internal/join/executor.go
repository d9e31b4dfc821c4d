package join

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/leapkv/internal/kvstore"
)

// Pair is a matched (left key, right key) pair.
type Pair struct {
	Left  string
	Right string
}

// OutputRow is one joined row. Index is its 1-based position in the result.
type OutputRow struct {
	Index  int
	Pair   Pair
	Values kvstore.Row
}

// Input is what an executor joins.
type Input struct {
	LeftTable  string
	RightTable string
	Left       kvstore.ScanResult
	Right      kvstore.ScanResult
	Fetcher    kvstore.RowFetcher
	// Limit caps emitted rows; negative means unlimited.
	Limit int
}

// Output is an executor's raw result.
type Output struct {
	Pairs []Pair
	Rows  []OutputRow
	// Columns lists every column name seen, in encounter order, with duplicates.
	Columns []string
}

// Executor runs one join algorithm.
type Executor interface {
	Strategy() Strategy
	Execute(ctx context.Context, in Input) (*Output, error)
}

// NewExecutor returns the executor for a strategy.
func NewExecutor(s Strategy, seed uint32) Executor {
	if s == Hash {
		return NewHashJoin(seed)
	}
	return NewNestedLoopJoin()
}

// emitter turns matched pairs into merged output rows and enforces the limit.
type emitter struct {
	ctx   context.Context
	in    Input
	out   *Output
	left  map[string]kvstore.Row
	right map[string]kvstore.Row
}

func newEmitter(ctx context.Context, in Input) *emitter {
	return &emitter{
		ctx:   ctx,
		in:    in,
		out:   &Output{},
		left:  make(map[string]kvstore.Row),
		right: make(map[string]kvstore.Row),
	}
}

// full reports whether the limit has been reached.
func (e *emitter) full() bool {
	return e.in.Limit >= 0 && len(e.out.Rows) >= e.in.Limit
}

// emit records a match. Right-side values overwrite left-side values on a
// column name collision.
func (e *emitter) emit(leftKey, rightKey string) error {
	l, err := e.fetch(e.left, e.in.LeftTable, leftKey)
	if err != nil {
		return err
	}
	r, err := e.fetch(e.right, e.in.RightTable, rightKey)
	if err != nil {
		return err
	}

	merged := kvstore.NewRow()
	for _, c := range l.Columns() {
		v, _ := l.Get(c)
		merged.Set(c, v)
	}
	for _, c := range r.Columns() {
		v, _ := r.Get(c)
		merged.Set(c, v)
	}

	e.out.Columns = append(e.out.Columns, l.Columns()...)
	e.out.Columns = append(e.out.Columns, r.Columns()...)

	pair := Pair{Left: leftKey, Right: rightKey}
	e.out.Pairs = append(e.out.Pairs, pair)
	e.out.Rows = append(e.out.Rows, OutputRow{
		Index:  len(e.out.Rows) + 1,
		Pair:   pair,
		Values: merged,
	})
	return nil
}

// fetch looks a row up once per key and caches it for later matches.
func (e *emitter) fetch(cache map[string]kvstore.Row, table, key string) (kvstore.Row, error) {
	if row, ok := cache[key]; ok {
		return row, nil
	}
	row, err := e.in.Fetcher.FetchRow(e.ctx, table, key)
	if err != nil {
		return kvstore.Row{}, fmt.Errorf("failed to fetch %s/%s: %w", table, key, err)
	}
	cache[key] = row
	return row, nil
}
