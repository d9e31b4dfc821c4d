package join

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequest_Validate(t *testing.T) {
	tests := []struct {
		name      string
		req       Request
		wantParam string
	}{
		{"valid", NewRequest("t1", "t2", "cf:id"), ""},
		{"valid with order", NewRequest("t1", "t2", "cf:id").WithOrder("cf:id", true), ""},
		{"missing left", NewRequest("", "t2", "cf:id"), "table"},
		{"missing right", NewRequest("t1", " ", "cf:id"), "table"},
		{"missing on", NewRequest("t1", "t2", ""), ParamOn},
		{"order without reverse", Request{Left: "t1", Right: "t2", On: "cf:id", OrderBy: "cf:id"}, ParamReverse},
		{"bad strategy", Request{Left: "t1", Right: "t2", On: "cf:id", Strategy: "sort_merge"}, ParamStrategy},
		{"bad filter1", Request{Left: "t1", Right: "t2", On: "cf:id", Filter1: "no operator"}, ParamFilter1},
		{"bad filter2", Request{Left: "t1", Right: "t2", On: "cf:id", Filter2: "=5"}, ParamFilter2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantParam == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalidArgument)
			var argErr *ArgumentError
			require.ErrorAs(t, err, &argErr)
			assert.Equal(t, tt.wantParam, argErr.Param)
		})
	}
}

func TestRequestFromOptions(t *testing.T) {
	defaults := NewRequest("", "", "")

	req, err := RequestFromOptions("orders", "customers", map[string]any{
		"ON":       "cf:id",
		"filter1":  "cf:total > 10",
		"LIMIT":    10,
		"PROJECT":  []any{"cf:name", "cf:total"},
		"ORDER BY": "cf:total",
		"REVERSE":  "TRUE",
		"STRATEGY": "hash",
	}, defaults)
	require.NoError(t, err)

	assert.Equal(t, "orders", req.Left)
	assert.Equal(t, "customers", req.Right)
	assert.Equal(t, "cf:id", req.On)
	assert.Equal(t, "cf:total > 10", req.Filter1)
	assert.Empty(t, req.Filter2)
	assert.Equal(t, 10, req.Limit)
	assert.Equal(t, []string{"cf:name", "cf:total"}, req.Project)
	assert.Equal(t, "cf:total", req.OrderBy)
	require.NotNil(t, req.Reverse)
	assert.True(t, *req.Reverse)
	assert.False(t, req.CacheBlocks)
	assert.Equal(t, "hash", req.Strategy)
	require.NoError(t, req.Validate())
}

func TestRequestFromOptions_Defaults(t *testing.T) {
	defaults := Request{Limit: 25, CacheBlocks: true}

	req, err := RequestFromOptions("a", "b", map[string]any{"ON": "k"}, defaults)
	require.NoError(t, err)
	assert.Equal(t, 25, req.Limit)
	assert.True(t, req.CacheBlocks)
	assert.Nil(t, req.Reverse)
	assert.Nil(t, req.Project)
}

func TestRequestFromOptions_Errors(t *testing.T) {
	tests := []struct {
		name      string
		opts      map[string]any
		wantParam string
	}{
		{"unknown key", map[string]any{"ON": "k", "GROUP_BY": "x"}, "GROUP_BY"},
		{"non-string on", map[string]any{"ON": 5}, ParamOn},
		{"limit text", map[string]any{"ON": "k", "LIMIT": "ten"}, ParamLimit},
		{"limit fraction", map[string]any{"ON": "k", "LIMIT": 2.5}, ParamLimit},
		{"reverse word", map[string]any{"ON": "k", "REVERSE": "yes"}, ParamReverse},
		{"cache blocks number", map[string]any{"ON": "k", "CACHE_BLOCKS": 1}, ParamCacheBlocks},
		{"project numbers", map[string]any{"ON": "k", "PROJECT": []any{"a", 2}}, ParamProject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RequestFromOptions("a", "b", tt.opts, NewRequest("", "", ""))
			require.ErrorIs(t, err, ErrInvalidArgument)
			var argErr *ArgumentError
			require.ErrorAs(t, err, &argErr)
			assert.Equal(t, tt.wantParam, argErr.Param)
		})
	}
}

func TestParseBool(t *testing.T) {
	for _, v := range []any{true, "true", "True", " TRUE "} {
		b, err := ParseBool(ParamReverse, v)
		require.NoError(t, err)
		assert.True(t, b)
	}
	for _, v := range []any{false, "false", "FALSE"} {
		b, err := ParseBool(ParamReverse, v)
		require.NoError(t, err)
		assert.False(t, b)
	}

	_, err := ParseBool(ParamCacheBlocks, "maybe")
	require.Error(t, err)
	assert.Equal(t,
		`invalid CACHE_BLOCKS: expected a boolean or the string 'true' or 'false', got "maybe"`,
		err.Error())
}

func TestParseLimit(t *testing.T) {
	tests := []struct {
		in   any
		want int
	}{
		{10, 10},
		{int64(3), 3},
		{float64(4), 4},
		{"7", 7},
		{" 8 ", 8},
		{0, 0},
		{-1, Unlimited},
		{-50, Unlimited},
		{"-3", Unlimited},
	}
	for _, tt := range tests {
		got, err := ParseLimit(tt.in)
		require.NoError(t, err, "%v", tt.in)
		assert.Equal(t, tt.want, got, "%v", tt.in)
	}

	_, err := ParseLimit(true)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestParseProject(t *testing.T) {
	cols, err := parseProject("cf:a, cf:b,,")
	require.NoError(t, err)
	assert.Equal(t, []string{"cf:a", "cf:b"}, cols)

	cols, err = parseProject([]string{"x"})
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, cols)

	_, err = parseProject(42)
	require.ErrorIs(t, err, ErrInvalidArgument)
}
