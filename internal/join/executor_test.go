package join

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapkv/internal/kvstore"
)

func executors() []Executor {
	return []Executor{NewNestedLoopJoin(), NewHashJoin(0)}
}

func TestExecutors_SingleMatchScenario(t *testing.T) {
	left := scan("r1", "A", "r2", "B")
	right := scan("x1", "A", "x2", "C")

	for _, ex := range executors() {
		t.Run(ex.Strategy().String(), func(t *testing.T) {
			out, err := ex.Execute(context.Background(), Input{
				LeftTable: "left", RightTable: "right",
				Left: left, Right: right,
				Fetcher: joinValueFetcher(left, right),
				Limit:   Unlimited,
			})
			require.NoError(t, err)
			assert.Equal(t, []Pair{{Left: "r1", Right: "x1"}}, out.Pairs)
			require.Len(t, out.Rows, 1)
			assert.Equal(t, 1, out.Rows[0].Index)
		})
	}
}

func TestExecutors_RightWinsOnCollision(t *testing.T) {
	left := scan("l1", "7")
	right := scan("r1", "7")
	fetcher := fetchFunc(func(table, key string) (kvstore.Row, error) {
		if table == "left" {
			return kvstore.RowOf(map[string]string{"cf:id": "7", "cf:name": "from-left", "cf:only_left": "x"}), nil
		}
		return kvstore.RowOf(map[string]string{"cf:id": "7", "cf:name": "from-right"}), nil
	})

	for _, ex := range executors() {
		t.Run(ex.Strategy().String(), func(t *testing.T) {
			out, err := ex.Execute(context.Background(), Input{
				LeftTable: "left", RightTable: "right",
				Left: left, Right: right, Fetcher: fetcher, Limit: Unlimited,
			})
			require.NoError(t, err)
			require.Len(t, out.Rows, 1)

			name, _ := out.Rows[0].Values.Get("cf:name")
			assert.Equal(t, "from-right", name)
			only, _ := out.Rows[0].Values.Get("cf:only_left")
			assert.Equal(t, "x", only)
			assert.Equal(t, []string{"cf:id", "cf:name", "cf:only_left", "cf:id", "cf:name"}, out.Columns,
				"raw columns keep duplicates for the assembler")
		})
	}
}

func TestExecutors_Limit(t *testing.T) {
	left := scan("l1", "1", "l2", "1", "l3", "2")
	right := scan("r1", "1", "r2", "1", "r3", "2")
	// 2*2 + 1 = 5 matches

	tests := []struct {
		limit int
		want  int
	}{
		{Unlimited, 5},
		{0, 0},
		{1, 1},
		{3, 3},
		{5, 5},
		{50, 5},
	}

	for _, ex := range executors() {
		for _, tt := range tests {
			out, err := ex.Execute(context.Background(), Input{
				LeftTable: "left", RightTable: "right",
				Left: left, Right: right,
				Fetcher: joinValueFetcher(left, right),
				Limit:   tt.limit,
			})
			require.NoError(t, err)
			assert.Len(t, out.Rows, tt.want, "%s limit %d", ex.Strategy(), tt.limit)
			for i, row := range out.Rows {
				assert.Equal(t, i+1, row.Index)
			}
		}
	}
}

func TestNestedLoopJoin_LeftMajorOrder(t *testing.T) {
	left := scan("l1", "a", "l2", "b", "l3", "a")
	right := scan("r1", "b", "r2", "a")

	out, err := NewNestedLoopJoin().Execute(context.Background(), Input{
		LeftTable: "left", RightTable: "right",
		Left: left, Right: right,
		Fetcher: joinValueFetcher(left, right),
		Limit:   Unlimited,
	})
	require.NoError(t, err)
	assert.Equal(t, []Pair{
		{Left: "l1", Right: "r2"},
		{Left: "l2", Right: "r1"},
		{Left: "l3", Right: "r2"},
	}, out.Pairs)
}

func TestHashJoin_RightMajorOrder(t *testing.T) {
	left := scan("l1", "a", "l2", "b", "l3", "a")
	right := scan("r1", "b", "r2", "a")

	out, err := NewHashJoin(0).Execute(context.Background(), Input{
		LeftTable: "left", RightTable: "right",
		Left: left, Right: right,
		Fetcher: joinValueFetcher(left, right),
		Limit:   Unlimited,
	})
	require.NoError(t, err)
	assert.Equal(t, []Pair{
		{Left: "l2", Right: "r1"},
		{Left: "l1", Right: "r2"},
		{Left: "l3", Right: "r2"},
	}, out.Pairs)
}

func TestHashJoin_CollisionsAreNotMatches(t *testing.T) {
	left := scan("l1", "apple", "l2", "banana", "l3", "cherry")
	right := scan("r1", "banana", "r2", "durian")

	// every value lands in the same bucket
	hj := &HashJoin{hash: func([]byte, uint32) uint32 { return 42 }}

	out, err := hj.Execute(context.Background(), Input{
		LeftTable: "left", RightTable: "right",
		Left: left, Right: right,
		Fetcher: joinValueFetcher(left, right),
		Limit:   Unlimited,
	})
	require.NoError(t, err)
	assert.Equal(t, []Pair{{Left: "l2", Right: "r1"}}, out.Pairs)
}

func TestExecutors_FetchErrorPropagates(t *testing.T) {
	errBoom := errors.New("region server unavailable")
	left := scan("l1", "1")
	right := scan("r1", "1")
	fetcher := fetchFunc(func(string, string) (kvstore.Row, error) {
		return kvstore.Row{}, errBoom
	})

	for _, ex := range executors() {
		t.Run(ex.Strategy().String(), func(t *testing.T) {
			_, err := ex.Execute(context.Background(), Input{
				LeftTable: "left", RightTable: "right",
				Left: left, Right: right, Fetcher: fetcher, Limit: Unlimited,
			})
			require.Error(t, err)
			assert.ErrorIs(t, err, errBoom)
			assert.Contains(t, err.Error(), "left/l1")
		})
	}
}

func TestExecutors_FetchOncePerKey(t *testing.T) {
	left := scan("l1", "1")
	right := scan("r1", "1", "r2", "1", "r3", "1")
	calls := map[string]int{}
	fetcher := fetchFunc(func(table, key string) (kvstore.Row, error) {
		calls[table+"/"+key]++
		return kvstore.RowOf(map[string]string{"cf:v": "1"}), nil
	})

	for _, ex := range executors() {
		clear(calls)
		_, err := ex.Execute(context.Background(), Input{
			LeftTable: "left", RightTable: "right",
			Left: left, Right: right, Fetcher: fetcher, Limit: Unlimited,
		})
		require.NoError(t, err)
		assert.Equal(t, 1, calls["left/l1"], ex.Strategy().String())
	}
}
