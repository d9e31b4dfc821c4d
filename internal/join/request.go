package join

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"github.com/leapstack-labs/leapkv/internal/kvstore"
)

// Unlimited disables the output row cap.
const Unlimited = -1

// Request parameter names as spelled in the shell.
const (
	ParamOn          = "ON"
	ParamFilter1     = "FILTER1"
	ParamFilter2     = "FILTER2"
	ParamLimit       = "LIMIT"
	ParamProject     = "PROJECT"
	ParamOrderBy     = "ORDER_BY"
	ParamReverse     = "REVERSE"
	ParamCacheBlocks = "CACHE_BLOCKS"
	ParamStrategy    = "STRATEGY"
)

const boolForm = "a boolean or the string 'true' or 'false'"

// Request is one jointable invocation.
type Request struct {
	// Left and Right name the tables. Left is the hash-join build side.
	Left  string
	Right string

	// On is the join column, required.
	On string

	// Filter1 and Filter2 restrict the left and right scans.
	Filter1 string
	Filter2 string

	// Limit caps emitted output rows. Negative means unlimited.
	Limit int

	// Project is an optional column allow-list. ROW is always kept.
	Project []string

	// OrderBy names the sort column. Reverse must be set whenever OrderBy is.
	OrderBy string
	Reverse *bool

	// CacheBlocks is passed through to the store scans.
	CacheBlocks bool

	// Strategy forces an executor ("hash" or "nested_loop"). Empty means vote.
	Strategy string
}

// NewRequest returns an unlimited request joining left and right on column.
func NewRequest(left, right, on string) Request {
	return Request{Left: left, Right: right, On: on, Limit: Unlimited}
}

// WithOrder sets ORDER BY and REVERSE.
func (r Request) WithOrder(column string, reverse bool) Request {
	r.OrderBy = column
	r.Reverse = &reverse
	return r
}

// Validate checks everything that can be checked without touching the store.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Left) == "" {
		return invalid("table", "a left table name", nil)
	}
	if strings.TrimSpace(r.Right) == "" {
		return invalid("table", "a right table name", nil)
	}
	if strings.TrimSpace(r.On) == "" {
		return invalid(ParamOn, "a join column name, e.g. ON => 'cf:id'", nil)
	}
	if r.OrderBy != "" && r.Reverse == nil {
		return invalid(ParamReverse, boolForm+" whenever ORDER_BY is set", nil)
	}
	if r.Strategy != "" {
		if _, err := ParseStrategy(r.Strategy); err != nil {
			return err
		}
	}
	if _, _, err := r.filters(); err != nil {
		return err
	}
	return nil
}

func (r Request) filters() (*kvstore.Filter, *kvstore.Filter, error) {
	f1, err := kvstore.ParseFilter(r.Filter1)
	if err != nil {
		return nil, nil, invalid(ParamFilter1, "an expression 'column OP value'", err.Error())
	}
	f2, err := kvstore.ParseFilter(r.Filter2)
	if err != nil {
		return nil, nil, invalid(ParamFilter2, "an expression 'column OP value'", err.Error())
	}
	return f1, f2, nil
}


// rawOptions mirrors the shell's string-keyed option map.
type rawOptions struct {
	On          any `mapstructure:"ON"`
	Filter1     any `mapstructure:"FILTER1"`
	Filter2     any `mapstructure:"FILTER2"`
	Limit       any `mapstructure:"LIMIT"`
	Project     any `mapstructure:"PROJECT"`
	OrderBy     any `mapstructure:"ORDER_BY"`
	Reverse     any `mapstructure:"REVERSE"`
	CacheBlocks any `mapstructure:"CACHE_BLOCKS"`
	Strategy    any `mapstructure:"STRATEGY"`
}

var knownParams = []string{
	ParamOn, ParamFilter1, ParamFilter2, ParamLimit, ParamProject,
	ParamOrderBy, ParamReverse, ParamCacheBlocks, ParamStrategy,
}

// RequestFromOptions builds a request from a shell option map such as
// {ON: "cf:id", LIMIT: 10, "ORDER BY": "cf:name", REVERSE: "false"}.
// Keys are case-insensitive and "ORDER BY" is accepted for ORDER_BY.
// defaults supplies values for keys the map omits.
func RequestFromOptions(left, right string, opts map[string]any, defaults Request) (Request, error) {
	normalized := make(map[string]any, len(opts))
	for k, v := range opts {
		key := strings.ToUpper(strings.Join(strings.Fields(k), "_"))
		normalized[key] = v
	}

	var raw rawOptions
	var md mapstructure.Metadata
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:   &raw,
		Metadata: &md,
	})
	if err != nil {
		return Request{}, fmt.Errorf("failed to build option decoder: %w", err)
	}
	if err := dec.Decode(normalized); err != nil {
		return Request{}, fmt.Errorf("failed to decode options: %w", err)
	}
	if len(md.Unused) > 0 {
		sort.Strings(md.Unused)
		return Request{}, invalid(md.Unused[0], "one of "+strings.Join(knownParams, ", "), nil)
	}

	req := defaults
	req.Left, req.Right = left, right

	if req.On, err = optString(ParamOn, raw.On, req.On); err != nil {
		return Request{}, err
	}
	if req.Filter1, err = optString(ParamFilter1, raw.Filter1, req.Filter1); err != nil {
		return Request{}, err
	}
	if req.Filter2, err = optString(ParamFilter2, raw.Filter2, req.Filter2); err != nil {
		return Request{}, err
	}
	if req.OrderBy, err = optString(ParamOrderBy, raw.OrderBy, req.OrderBy); err != nil {
		return Request{}, err
	}
	if req.Strategy, err = optString(ParamStrategy, raw.Strategy, req.Strategy); err != nil {
		return Request{}, err
	}
	if raw.Limit != nil {
		if req.Limit, err = ParseLimit(raw.Limit); err != nil {
			return Request{}, err
		}
	}
	if raw.Project != nil {
		if req.Project, err = parseProject(raw.Project); err != nil {
			return Request{}, err
		}
	}
	if raw.Reverse != nil {
		b, err := ParseBool(ParamReverse, raw.Reverse)
		if err != nil {
			return Request{}, err
		}
		req.Reverse = &b
	}
	if raw.CacheBlocks != nil {
		if req.CacheBlocks, err = ParseBool(ParamCacheBlocks, raw.CacheBlocks); err != nil {
			return Request{}, err
		}
	}

	return req, nil
}

func optString(param string, v any, fallback string) (string, error) {
	if v == nil {
		return fallback, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", invalid(param, "a string", v)
	}
	return s, nil
}

// ParseBool accepts a bool or the strings "true"/"false" in any case.
func ParseBool(param string, v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
	}
	return false, invalid(param, boolForm, v)
}

// ParseLimit accepts an integer or a decimal string. Negative values mean unlimited.
func ParseLimit(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return normalizeLimit(n), nil
	case int64:
		return normalizeLimit(int(n)), nil
	case float64:
		if n == math.Trunc(n) {
			return normalizeLimit(int(n)), nil
		}
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err == nil {
			return normalizeLimit(i), nil
		}
	}
	return 0, invalid(ParamLimit, "an integer", v)
}

func normalizeLimit(n int) int {
	if n < 0 {
		return Unlimited
	}
	return n
}

func parseProject(v any) ([]string, error) {
	switch p := v.(type) {
	case string:
		var cols []string
		for _, c := range strings.Split(p, ",") {
			if c = strings.TrimSpace(c); c != "" {
				cols = append(cols, c)
			}
		}
		return cols, nil
	case []string:
		return p, nil
	case []any:
		cols := make([]string, 0, len(p))
		for _, item := range p {
			s, ok := item.(string)
			if !ok {
				return nil, invalid(ParamProject, "a list of column names", v)
			}
			cols = append(cols, s)
		}
		return cols, nil
	}
	return nil, invalid(ParamProject, "a list of column names", v)
}
