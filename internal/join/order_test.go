package join

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapkv/internal/kvstore"
)

func outputRows(column string, values ...string) []OutputRow {
	rows := make([]OutputRow, len(values))
	for i, v := range values {
		row := kvstore.NewRow()
		if v != "<nil>" {
			row.Set(column, v)
		}
		row.Set("tag", string(rune('a'+i)))
		rows[i] = OutputRow{Index: i + 1, Values: row}
	}
	return rows
}

func tags(rows []OutputRow) string {
	var s string
	for _, r := range rows {
		v, _ := r.Values.Get("tag")
		s += v
	}
	return s
}

func TestSortRows(t *testing.T) {
	universe := []string{"ROW", "v", "tag"}

	tests := []struct {
		name   string
		values []string
		desc   bool
		want   string
	}{
		{"numeric ascending", []string{"10", "9", "100"}, false, "bac"},
		{"numeric descending", []string{"10", "9", "100"}, true, "cab"},
		{"lexicographic when any value is text", []string{"10", "9", "x"}, false, "abc"},
		{"stable ascending ties", []string{"2", "1", "2", "1"}, false, "bdac"},
		{"stable descending ties", []string{"2", "1", "2", "1"}, true, "acbd"},
		{"missing values sort first", []string{"5", "<nil>", "1"}, false, "bca"},
		{"missing values sort last descending", []string{"5", "<nil>", "1"}, true, "acb"},
		{"decimals", []string{"1.5", "-2", "1e1"}, false, "bac"},
		{"NaN is not numeric", []string{"3", "NaN", "1", "2"}, false, "cdab"},
		{"infinity is not numeric", []string{"Inf", "2", "10"}, false, "cba"},
		{"negative infinity is not numeric", []string{"5", "-Infinity", "40"}, true, "acb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sorted, err := SortRows(outputRows("v", tt.values...), universe, Order{Column: "v", Descending: tt.desc})
			require.NoError(t, err)
			assert.Equal(t, tt.want, tags(sorted))
			for i, r := range sorted {
				assert.Equal(t, i+1, r.Index)
			}
		})
	}
}

func TestSortRows_ByRowIsIdentity(t *testing.T) {
	rows := outputRows("v", "3", "1", "2")
	sorted, err := SortRows(rows, []string{"ROW", "v", "tag"}, Order{Column: "ROW"})
	require.NoError(t, err)
	assert.Equal(t, "abc", tags(sorted))

	sorted, err = SortRows(rows, []string{"ROW", "v", "tag"}, Order{Column: "ROW", Descending: true})
	require.NoError(t, err)
	assert.Equal(t, "cba", tags(sorted))
}

func TestSortRows_DoesNotMutateInput(t *testing.T) {
	rows := outputRows("v", "2", "1")
	_, err := SortRows(rows, []string{"ROW", "v", "tag"}, Order{Column: "v"})
	require.NoError(t, err)
	assert.Equal(t, "ab", tags(rows))
	assert.Equal(t, 1, rows[0].Index)
}

func TestSortRows_UnknownColumn(t *testing.T) {
	_, err := SortRows(outputRows("v", "1"), []string{"ROW", "v"}, Order{Column: "cf:nope"})
	require.ErrorIs(t, err, ErrInvalidArgument)

	var argErr *ArgumentError
	require.ErrorAs(t, err, &argErr)
	assert.Equal(t, ParamOrderBy, argErr.Param)
	assert.Equal(t, "cf:nope", argErr.Got)
}
