package join

import (
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"
)

// Order is an ORDER BY column with its direction.
type Order struct {
	Column     string
	Descending bool
}

// SortRows stably sorts rows by one column and re-keys them 1..n.
// The column must be in universe. Values compare numerically when every
// non-empty value in the column is a number, byte-wise otherwise. Rows
// lacking the column sort as the empty value. Ties keep emission order in
// both directions.
func SortRows(rows []OutputRow, universe []string, o Order) ([]OutputRow, error) {
	if !slices.Contains(universe, o.Column) {
		return nil, invalid(ParamOrderBy, "one of the result columns ["+strings.Join(universe, ", ")+"]", o.Column)
	}

	keys := make([]string, len(rows))
	for i, r := range rows {
		keys[i] = sortKey(r, o.Column)
	}
	numeric, nums := numericKeys(keys)

	idx := make([]int, len(rows))
	for i := range idx {
		idx[i] = i
	}

	cmp := func(a, b int) int {
		if numeric {
			switch {
			case nums[a] < nums[b]:
				return -1
			case nums[a] > nums[b]:
				return 1
			}
			return 0
		}
		return strings.Compare(keys[a], keys[b])
	}

	sort.SliceStable(idx, func(i, j int) bool {
		c := cmp(idx[i], idx[j])
		if o.Descending {
			return c > 0
		}
		return c < 0
	})

	sorted := make([]OutputRow, len(rows))
	for i, from := range idx {
		sorted[i] = rows[from]
		sorted[i].Index = i + 1
	}
	return sorted, nil
}

func sortKey(r OutputRow, column string) string {
	if column == RowColumn {
		return strconv.Itoa(r.Index)
	}
	v, _ := r.Values.Get(column)
	return v
}

// numericKeys parses keys as floats. Empty keys sort before every number.
// NaN and infinities do not count as numbers, so they force byte-wise order.
func numericKeys(keys []string) (bool, []float64) {
	nums := make([]float64, len(keys))
	sawNumber := false
	for i, k := range keys {
		if k == "" {
			nums[i] = math.Inf(-1)
			continue
		}
		f, err := strconv.ParseFloat(k, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return false, nil
		}
		nums[i] = f
		sawNumber = true
	}
	return sawNumber, nums
}
