package specparse

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/nodeql/internal/spec"
)

// ParseError reports where parsing stopped. Pos is a byte offset into
// Query, which is the NFC-normalized input.
type ParseError struct {
	Query     string
	Pos       int
	Remainder string
	Reason    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse query at offset %d: %s: %q", e.Pos, e.Reason, e.Remainder)
}

// IsParseError reports whether err is or wraps a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

var boostRe = regexp.MustCompile(`^\^(\d+(?:\.\d+)?)`)

// Parse parses query. Surrounding whitespace is ignored and a blank query
// parses to MatchAll. Combinators with a single member are not built: "a"
// parses to the leaf, not to Or(And(a)).
func Parse(query string) (spec.Specification, error) {
	p := &parser{input: norm.NFC.String(strings.TrimSpace(query))}
	if p.input == "" {
		return spec.MatchAll{}, nil
	}
	s, err := p.query()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.input) {
		return nil, p.errorf("unexpected input")
	}
	return s, nil
}

// MustParse is like Parse but panics on error. For tests and constants.
func MustParse(query string) spec.Specification {
	s, err := Parse(query)
	if err != nil {
		panic(err)
	}
	return s
}

type parser struct {
	input string
	pos   int
}

func (p *parser) rest() string { return p.input[p.pos:] }

func (p *parser) errorf(format string, args ...any) *ParseError {
	return &ParseError{
		Query:     p.input,
		Pos:       p.pos,
		Remainder: p.rest(),
		Reason:    fmt.Sprintf(format, args...),
	}
}

func (p *parser) consume(token string) bool {
	if strings.HasPrefix(p.rest(), token) {
		p.pos += len(token)
		return true
	}
	return false
}

func (p *parser) query() (spec.Specification, error) {
	var terms []spec.Specification
	for {
		t, err := p.term()
		if err != nil {
			return nil, err
		}
		terms = append(terms, t)
		if !p.consume(" OR ") {
			break
		}
	}
	if len(terms) == 1 {
		return terms[0], nil
	}
	return spec.Or{Specs: terms}, nil
}

func (p *parser) term() (spec.Specification, error) {
	var factors []spec.Specification
	for {
		f, err := p.factor()
		if err != nil {
			return nil, err
		}
		factors = append(factors, f)
		if !p.consume(" AND ") {
			break
		}
	}
	if len(factors) == 1 {
		return factors[0], nil
	}
	return spec.And{Specs: factors}, nil
}

func (p *parser) factor() (spec.Specification, error) {
	negate := p.consume("NOT ")
	s, err := p.primary()
	if err != nil {
		return nil, err
	}
	if negate {
		s = spec.Not{Spec: s}
	}
	if m := boostRe.FindStringSubmatch(p.rest()); m != nil {
		f, err := strconv.ParseFloat(m[1], 32)
		if err != nil || f <= 0 {
			return nil, p.errorf("invalid boost %q", m[1])
		}
		p.pos += len(m[0])
		s = spec.Boost{Spec: s, Factor: float32(f)}
	}
	return s, nil
}

func (p *parser) primary() (spec.Specification, error) {
	if p.consume("(") {
		s, err := p.query()
		if err != nil {
			return nil, err
		}
		if !p.consume(")") {
			return nil, p.errorf("expected ')'")
		}
		return s, nil
	}
	return p.clause()
}

func (p *parser) clause() (spec.Specification, error) {
	start := p.pos
	for _, c := range clauses {
		g, n, ok := c.match(p.rest())
		if !ok {
			continue
		}
		p.pos += n
		s, err := c.build(p, g)
		if err != nil {
			var pe *ParseError
			if errors.As(err, &pe) {
				return nil, err
			}
			p.pos = start
			return nil, p.errorf("%s clause: %v", c.name, err)
		}
		return s, nil
	}
	if p.rest() == "" {
		return nil, p.errorf("unexpected end of query")
	}
	return nil, p.errorf("unrecognized clause")
}
