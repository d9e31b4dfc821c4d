package kvstore

import (
	"fmt"
	"strconv"
	"strings"
)

// KeyColumn addresses the row key itself in a filter expression.
const KeyColumn = "KEY"

// Op is a filter comparison operator.
type Op string

// Supported filter operators.
const (
	OpEq     Op = "="
	OpNe     Op = "!="
	OpLt     Op = "<"
	OpLe     Op = "<="
	OpGt     Op = ">"
	OpGe     Op = ">="
	OpPrefix Op = "^="
)

// two-character operators must be tried before their one-character prefixes
var filterOps = []Op{OpNe, OpLe, OpGe, OpPrefix, OpEq, OpLt, OpGt}

// Filter is a single-column predicate of the form `column OP value`.
type Filter struct {
	Column string
	Op     Op
	Value  string
}

// ParseFilter parses an expression such as `cf:age >= 30`, `KEY ^= 'user'`
// or `cf:name = "alice"`. An empty expression yields a nil filter.
func ParseFilter(expr string) (*Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}

	pos, op := -1, Op("")
	for i := 0; i < len(expr) && pos < 0; i++ {
		for _, candidate := range filterOps {
			if strings.HasPrefix(expr[i:], string(candidate)) {
				pos, op = i, candidate
				break
			}
		}
	}
	if pos < 0 {
		return nil, fmt.Errorf("no operator in %q (expected one of = != < <= > >= ^=)", expr)
	}

	column := strings.TrimSpace(expr[:pos])
	if column == "" {
		return nil, fmt.Errorf("missing column before %s in %q", op, expr)
	}
	value := unquote(strings.TrimSpace(expr[pos+len(op):]))

	return &Filter{Column: column, Op: op, Value: value}, nil
}

func unquote(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '\'' || first == '"') && first == last {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// String renders the filter back to its expression form.
func (f *Filter) String() string {
	if f == nil {
		return ""
	}
	return fmt.Sprintf("%s %s '%s'", f.Column, f.Op, f.Value)
}

// Match reports whether a row passes the filter. A row without the
// filtered column never matches.
func (f *Filter) Match(key string, row Row) bool {
	if f == nil {
		return true
	}

	var actual string
	if f.Column == KeyColumn {
		actual = key
	} else {
		v, ok := row.Get(f.Column)
		if !ok {
			return false
		}
		actual = v
	}

	if f.Op == OpPrefix {
		return strings.HasPrefix(actual, f.Value)
	}

	c := compareValues(actual, f.Value)
	switch f.Op {
	case OpEq:
		return c == 0
	case OpNe:
		return c != 0
	case OpLt:
		return c < 0
	case OpLe:
		return c <= 0
	case OpGt:
		return c > 0
	case OpGe:
		return c >= 0
	}
	return false
}

// compareValues compares numerically when both sides are numbers and
// byte-wise otherwise.
func compareValues(a, b string) int {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA == nil && errB == nil {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a, b)
}
