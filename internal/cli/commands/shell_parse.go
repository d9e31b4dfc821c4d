package commands

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Statement is one parsed shell line, e.g.
//
//	jointable 't1', 't2', ON => 'cf:id', PROJECT => ['a', 'b'], LIMIT => 10
//
// Positional values are strings, ints, float64s, bools or []any lists.
// Options may also be wrapped in braces: scan 't1', {LIMIT => 5}.
type Statement struct {
	Command string
	Args    []any
	Options map[string]any
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokWord
	tokString
	tokNumber
	tokArrow
	tokComma
	tokLBracket
	tokRBracket
	tokLBrace
	tokRBrace
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func (t token) String() string {
	if t.kind == tokEOF {
		return "end of line"
	}
	return fmt.Sprintf("%q at column %d", t.text, t.pos+1)
}

func lex(line string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(line) {
		c := line[i]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			i++
		case c == ',':
			toks = append(toks, token{tokComma, ",", i})
			i++
		case c == '[':
			toks = append(toks, token{tokLBracket, "[", i})
			i++
		case c == ']':
			toks = append(toks, token{tokRBracket, "]", i})
			i++
		case c == '{':
			toks = append(toks, token{tokLBrace, "{", i})
			i++
		case c == '}':
			toks = append(toks, token{tokRBrace, "}", i})
			i++
		case c == '=' && i+1 < len(line) && line[i+1] == '>':
			toks = append(toks, token{tokArrow, "=>", i})
			i += 2
		case c == '\'' || c == '"':
			s, n, err := lexString(line[i:])
			if err != nil {
				return nil, fmt.Errorf("%w at column %d", err, i+1)
			}
			toks = append(toks, token{tokString, s, i})
			i += n
		case c == '-' || (c >= '0' && c <= '9'):
			j := i + 1
			for j < len(line) && (line[j] >= '0' && line[j] <= '9' || line[j] == '.') {
				j++
			}
			toks = append(toks, token{tokNumber, line[i:j], i})
			i = j
		case c == '_' || unicode.IsLetter(rune(c)):
			j := i + 1
			for j < len(line) && (line[j] == '_' || line[j] == ':' || line[j] == '.' ||
				unicode.IsLetter(rune(line[j])) || unicode.IsDigit(rune(line[j]))) {
				j++
			}
			toks = append(toks, token{tokWord, line[i:j], i})
			i = j
		default:
			return nil, fmt.Errorf("unexpected character %q at column %d", c, i+1)
		}
	}
	return append(toks, token{kind: tokEOF, pos: len(line)}), nil
}

// lexString reads a quoted string starting at s[0] and returns its value and
// the number of bytes consumed.
func lexString(s string) (string, int, error) {
	quote := s[0]
	var b strings.Builder
	for i := 1; i < len(s); i++ {
		switch c := s[i]; {
		case c == quote:
			return b.String(), i + 1, nil
		case c == '\\' && i+1 < len(s):
			i++
			switch s[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(s[i])
			}
		default:
			b.WriteByte(c)
		}
	}
	return "", 0, fmt.Errorf("unterminated string")
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) peekAt(n int) token {
	if p.pos+n < len(p.toks) {
		return p.toks[p.pos+n]
	}
	return p.toks[len(p.toks)-1]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

// ParseStatement parses one shell line. An empty line yields nil.
func ParseStatement(line string) (*Statement, error) {
	toks, err := lex(line)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	if p.peek().kind == tokEOF {
		return nil, nil
	}

	cmd := p.next()
	if cmd.kind != tokWord {
		return nil, fmt.Errorf("expected a command, got %s", cmd)
	}
	st := &Statement{Command: strings.ToLower(cmd.text), Options: map[string]any{}}

	if p.peek().kind == tokEOF {
		return st, nil
	}
	if err := p.items(st, tokEOF); err != nil {
		return nil, err
	}
	return st, nil
}

// items parses comma-separated arguments and options up to the closing token.
func (p *parser) items(st *Statement, closing tokenKind) error {
	for {
		if p.peek().kind == tokLBrace {
			p.next()
			if err := p.items(st, tokRBrace); err != nil {
				return err
			}
			p.next()
		} else if err := p.item(st); err != nil {
			return err
		}

		switch t := p.peek(); t.kind {
		case tokComma:
			p.next()
		case closing:
			return nil
		default:
			return fmt.Errorf("expected ',' got %s", t)
		}
	}
}

func (p *parser) item(st *Statement) error {
	if key, ok := p.optionKey(); ok {
		v, err := p.value()
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		st.Options[key] = v
		return nil
	}
	v, err := p.value()
	if err != nil {
		return err
	}
	if len(st.Options) > 0 {
		return fmt.Errorf("positional argument %v after options", v)
	}
	st.Args = append(st.Args, v)
	return nil
}

// optionKey consumes `KEY =>`, `'KEY' =>` or a multi-word key such as
// `ORDER BY =>`. It consumes nothing when no arrow follows.
func (p *parser) optionKey() (string, bool) {
	t := p.peek()
	if t.kind == tokString && p.peekAt(1).kind == tokArrow {
		p.pos += 2
		return t.text, true
	}
	if t.kind != tokWord {
		return "", false
	}
	n := 0
	var words []string
	for p.peekAt(n).kind == tokWord {
		words = append(words, p.peekAt(n).text)
		n++
	}
	if p.peekAt(n).kind != tokArrow {
		return "", false
	}
	p.pos += n + 1
	return strings.Join(words, " "), true
}

func (p *parser) value() (any, error) {
	t := p.next()
	switch t.kind {
	case tokString:
		return t.text, nil
	case tokNumber:
		if i, err := strconv.Atoi(t.text); err == nil {
			return i, nil
		}
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, fmt.Errorf("bad number %s", t)
		}
		return f, nil
	case tokWord:
		switch strings.ToLower(t.text) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return t.text, nil
	case tokLBracket:
		list := []any{}
		if p.peek().kind == tokRBracket {
			p.next()
			return list, nil
		}
		for {
			v, err := p.value()
			if err != nil {
				return nil, err
			}
			list = append(list, v)
			switch end := p.next(); end.kind {
			case tokComma:
			case tokRBracket:
				return list, nil
			default:
				return nil, fmt.Errorf("expected ',' or ']' got %s", end)
			}
		}
	}
	return nil, fmt.Errorf("expected a value, got %s", t)
}

// stringArg returns positional argument i as a string.
func (st *Statement) stringArg(i int, name string) (string, error) {
	if i >= len(st.Args) {
		return "", fmt.Errorf("%s: missing %s", st.Command, name)
	}
	switch v := st.Args[i].(type) {
	case string:
		return v, nil
	case int:
		return strconv.Itoa(v), nil
	}
	return "", fmt.Errorf("%s: %s must be a string, got %v", st.Command, name, st.Args[i])
}

// expectArgs checks the positional argument count.
func (st *Statement) expectArgs(names ...string) error {
	if len(st.Args) != len(names) {
		return fmt.Errorf("%s expects %d argument(s): %s", st.Command, len(names), strings.Join(names, ", "))
	}
	return nil
}

// allowOptions rejects option keys outside allowed.
func (st *Statement) allowOptions(allowed ...string) error {
	for k := range st.Options {
		key := strings.ToUpper(strings.Join(strings.Fields(k), "_"))
		ok := false
		for _, a := range allowed {
			if key == a {
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Errorf("%s: unknown option %s (expected one of %s)", st.Command, k, strings.Join(allowed, ", "))
		}
	}
	return nil
}

// option returns an option value by canonical name.
func (st *Statement) option(name string) (any, bool) {
	for k, v := range st.Options {
		if strings.ToUpper(strings.Join(strings.Fields(k), "_")) == name {
			return v, true
		}
	}
	return nil, false
}
