package join

import (
	"context"
	"fmt"
	"strconv"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/leapstack-labs/leapkv/internal/kvstore"
)

// scanFromValues keys each value by position: l000, l001, ...
func scanFromValues(prefix string, values []int) kvstore.ScanResult {
	out := make(kvstore.ScanResult, len(values))
	for i, v := range values {
		out[i] = kvstore.Cell{Key: fmt.Sprintf("%s%03d", prefix, i), Value: fmt.Sprint(v)}
	}
	return out
}

func runExecutor(ex Executor, left, right kvstore.ScanResult, limit int) (*Output, error) {
	return ex.Execute(context.Background(), Input{
		LeftTable: "left", RightTable: "right",
		Left: left, Right: right,
		Fetcher: joinValueFetcher(left, right),
		Limit:   limit,
	})
}

func TestExecutors_AgreeWithBruteForce(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())
	values := gen.SliceOf(gen.IntRange(0, 6))

	properties.Property("hash and nested loop emit the same pairs", prop.ForAll(
		func(lv, rv []int, seed uint32) bool {
			left, right := scanFromValues("l", lv), scanFromValues("r", rv)
			want := sortedPairs(bruteForcePairs(left, right))

			for _, ex := range []Executor{NewNestedLoopJoin(), NewHashJoin(seed)} {
				out, err := runExecutor(ex, left, right, Unlimited)
				if err != nil {
					return false
				}
				got := sortedPairs(out.Pairs)
				if len(got) != len(want) {
					return false
				}
				for i := range got {
					if got[i] != want[i] {
						return false
					}
				}
			}
			return true
		},
		values, values, gen.UInt32(),
	))

	properties.Property("limit caps output at min(limit, matches)", prop.ForAll(
		func(lv, rv []int, limit int) bool {
			left, right := scanFromValues("l", lv), scanFromValues("r", rv)
			total := len(bruteForcePairs(left, right))

			for _, ex := range []Executor{NewNestedLoopJoin(), NewHashJoin(0)} {
				out, err := runExecutor(ex, left, right, limit)
				if err != nil || len(out.Rows) != min(limit, total) {
					return false
				}
			}
			return true
		},
		values, values, gen.IntRange(0, 20),
	))

	properties.Property("every emitted pair has equal join values", prop.ForAll(
		func(lv, rv []int) bool {
			left, right := scanFromValues("l", lv), scanFromValues("r", rv)
			lByKey := map[string]string{}
			for _, c := range left {
				lByKey[c.Key] = c.Value
			}
			rByKey := map[string]string{}
			for _, c := range right {
				rByKey[c.Key] = c.Value
			}

			out, err := runExecutor(NewHashJoin(0), left, right, Unlimited)
			if err != nil {
				return false
			}
			for _, p := range out.Pairs {
				if lByKey[p.Left] != rByKey[p.Right] {
					return false
				}
			}
			return true
		},
		values, values,
	))

	properties.TestingRun(t)
}

func TestColumnUniverse_Properties(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())
	names := []string{RowColumn, "cf:a", "cf:b", "cf:c", "cf:d"}
	columns := gen.SliceOf(gen.IntRange(0, len(names)-1)).Map(func(idx []int) []string {
		out := make([]string, len(idx))
		for i, n := range idx {
			out[i] = names[n]
		}
		return out
	})

	properties.Property("ROW first, no duplicates, first-seen order", prop.ForAll(
		func(raw []string) bool {
			universe := ColumnUniverse(raw)
			if len(universe) == 0 || universe[0] != RowColumn {
				return false
			}

			var want []string
			seen := map[string]bool{RowColumn: true}
			for _, c := range raw {
				if !seen[c] {
					seen[c] = true
					want = append(want, c)
				}
			}
			if len(universe)-1 != len(want) {
				return false
			}
			for i, c := range want {
				if universe[i+1] != c {
					return false
				}
			}
			return true
		},
		columns,
	))

	properties.TestingRun(t)
}

func TestSortRows_Properties(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("sorted by value, ties keep emission order", prop.ForAll(
		func(values []int, desc bool) bool {
			rows := make([]OutputRow, len(values))
			for i, v := range values {
				row := kvstore.NewRow()
				row.Set("v", strconv.Itoa(v))
				row.Set("pos", strconv.Itoa(i))
				rows[i] = OutputRow{Index: i + 1, Values: row}
			}

			sorted, err := SortRows(rows, []string{RowColumn, "v", "pos"}, Order{Column: "v", Descending: desc})
			if err != nil || len(sorted) != len(rows) {
				return false
			}
			field := func(r OutputRow, c string) int {
				s, _ := r.Values.Get(c)
				n, _ := strconv.Atoi(s)
				return n
			}
			for i, r := range sorted {
				if r.Index != i+1 {
					return false
				}
				if i == 0 {
					continue
				}
				prev, cur := field(sorted[i-1], "v"), field(r, "v")
				if desc {
					prev, cur = cur, prev
				}
				if prev > cur {
					return false
				}
				if prev == cur && field(sorted[i-1], "pos") > field(r, "pos") {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(-5, 5)), gen.Bool(),
	))

	properties.TestingRun(t)
}
