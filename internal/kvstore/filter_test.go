package kvstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		want    *Filter
		wantErr string
	}{
		{name: "empty", expr: "  ", want: nil},
		{name: "equals", expr: "cf:name = alice", want: &Filter{Column: "cf:name", Op: OpEq, Value: "alice"}},
		{name: "no spaces", expr: "cf:age>=30", want: &Filter{Column: "cf:age", Op: OpGe, Value: "30"}},
		{name: "not equal", expr: "a != 'x y'", want: &Filter{Column: "a", Op: OpNe, Value: "x y"}},
		{name: "prefix on key", expr: `KEY ^= "user"`, want: &Filter{Column: KeyColumn, Op: OpPrefix, Value: "user"}},
		{name: "less equal", expr: "a <= 3", want: &Filter{Column: "a", Op: OpLe, Value: "3"}},
		{name: "no operator", expr: "cf:name alice", wantErr: "no operator"},
		{name: "no column", expr: "= alice", wantErr: "missing column"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFilter(tt.expr)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilter_Match(t *testing.T) {
	row := RowOf(map[string]string{"cf:age": "9", "cf:name": "bob"})

	tests := []struct {
		expr string
		want bool
	}{
		{"cf:age < 10", true},
		{"cf:age > 10", false},  // numeric, not byte-wise ("9" > "10")
		{"cf:name > alice", true},
		{"cf:name = bob", true},
		{"cf:name != bob", false},
		{"cf:name ^= bo", true},
		{"cf:missing = x", false},
		{"KEY = k1", true},
		{"KEY ^= k2", false},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			f, err := ParseFilter(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.Match("k1", row))
		})
	}
}

func TestFilter_NilMatchesEverything(t *testing.T) {
	var f *Filter
	assert.True(t, f.Match("any", NewRow()))
	assert.Equal(t, "", f.String())
}
