package specparse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/nodeql/internal/domain"
	"github.com/roach88/nodeql/internal/spec"
)

const (
	uuidPattern  = `[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`
	datePattern  = `\d{4}-\d{2}-\d{2}(?:T\d{2}:\d{2}(?::\d{2}(?:\.\d{1,9})?)?)?(?:Z|[+-]\d{2}:\d{2})?`
	valueChars   = `[^\s()^*"]`
	uriPattern   = `[^\s()^]+`
	propPrefix   = `(?:properties|props|p)\.(?P<attr>` + domain.CodePattern + `)(?:\.(?P<lang>` + domain.LangPattern + `))?`
	refPrefix    = `(?:references|refs|r)\.(?P<attr>` + domain.CodePattern + `)`
	lowerBound   = `[^\]]+?`
	upperBound   = `[^\]]+`
	openBound    = "*"
)

// quoted matches a double-quoted value into group name. A backslash escapes
// the next character.
func quoted(name string) string {
	return `"(?P<` + name + `>(?:[^"\\]|\\.)*)"`
}

// unquote removes the escapes quoted allows.
func unquote(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	escaped := false
	for _, r := range s {
		if r == '\\' && !escaped {
			escaped = true
			continue
		}
		escaped = false
		b.WriteRune(r)
	}
	return b.String()
}

// uriValue reads a URI clause matched by uriClause.
func uriValue(g groups) string {
	if v, ok := g["quoted"]; ok {
		return unquote(v)
	}
	return g["uri"]
}

// uriClause matches a quoted or bare URI.
func uriClause(fields string) string {
	return fields + `:(?:` + quoted("quoted") + `|(?P<uri>` + uriPattern + `))`
}

// groups holds the named submatches of one clause match.
type groups map[string]string

// clause is one alternative of the clause list. build turns a match into a
// spec; it may consume more input through p, as reference paths do.
type clause struct {
	name  string
	re    *regexp.Regexp
	build func(p *parser, g groups) (spec.Specification, error)
}

func newClause(name, pattern string, build func(p *parser, g groups) (spec.Specification, error)) clause {
	return clause{name: name, re: regexp.MustCompile(`^(?:` + pattern + `)`), build: build}
}

// clauses is the ordered alternative list. More specific forms come first:
// quoted and ranged string clauses before prefix before exact values.
var clauses []clause

func init() {
	clauses = []clause{
		newClause("id", `(?:node\.id|nodeId|id):(?P<uuid>`+uuidPattern+`)`, func(_ *parser, g groups) (spec.Specification, error) {
			return spec.ByID{ID: uuid.MustParse(g["uuid"])}, nil
		}),
		newClause("urn", `urn:uuid:(?P<uuid>`+uuidPattern+`)`, func(_ *parser, g groups) (spec.Specification, error) {
			return spec.ByID{ID: uuid.MustParse(g["uuid"])}, nil
		}),
		newClause("code", `code:(?P<code>`+domain.CodePattern+`)`, func(_ *parser, g groups) (spec.Specification, error) {
			return spec.ByCode{Code: g["code"]}, nil
		}),
		newClause("uri", uriClause(`uri`), func(_ *parser, g groups) (spec.Specification, error) {
			return spec.ByURI{URI: uriValue(g)}, nil
		}),
		newClause("number range", `(?:number|n):\[(?P<lo>\*|-?\d+) TO (?P<hi>\*|-?\d+)\]`, func(_ *parser, g groups) (spec.Specification, error) {
			lo, err := parseIntBound(g["lo"])
			if err != nil {
				return nil, err
			}
			hi, err := parseIntBound(g["hi"])
			if err != nil {
				return nil, err
			}
			return spec.ByNumberRange{Lower: lo, Upper: hi}, nil
		}),
		newClause("number", `(?:number|n):(?P<n>-?\d+)`, func(_ *parser, g groups) (spec.Specification, error) {
			n, err := strconv.ParseInt(g["n"], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("number %q: %w", g["n"], err)
			}
			return spec.ByNumber{Number: n}, nil
		}),
		newClause("created date", `createdDate:\[(?P<lo>\*|`+datePattern+`) TO (?P<hi>\*|`+datePattern+`)\]`, func(_ *parser, g groups) (spec.Specification, error) {
			lo, hi, err := parseDateBounds(g)
			if err != nil {
				return nil, err
			}
			return spec.ByCreatedDate{Lower: lo, Upper: hi}, nil
		}),
		newClause("last modified date", `lastModifiedDate:\[(?P<lo>\*|`+datePattern+`) TO (?P<hi>\*|`+datePattern+`)\]`, func(_ *parser, g groups) (spec.Specification, error) {
			lo, hi, err := parseDateBounds(g)
			if err != nil {
				return nil, err
			}
			return spec.ByLastModifiedDate{Lower: lo, Upper: hi}, nil
		}),
		newClause("last modified since", `lastModifiedSince:(?P<date>`+datePattern+`)`, func(_ *parser, g groups) (spec.Specification, error) {
			d, err := parseDate(g["date"])
			if err != nil {
				return nil, err
			}
			return spec.LastModifiedSince{Date: d}, nil
		}),
		newClause("graph id", `(?:type\.graph\.id|graph\.id|graphId):(?P<uuid>`+uuidPattern+`)`, func(_ *parser, g groups) (spec.Specification, error) {
			return spec.ByGraphID{Graph: domain.GraphID{ID: uuid.MustParse(g["uuid"])}}, nil
		}),
		newClause("graph code", `(?:type\.graph\.code|graph\.code|graphCode):(?P<code>`+domain.CodePattern+`)`, func(_ *parser, g groups) (spec.Specification, error) {
			return spec.ByGraphCode{Code: g["code"]}, nil
		}),
		newClause("graph uri", uriClause(`(?:type\.graph\.uri|graph\.uri|graphUri)`), func(_ *parser, g groups) (spec.Specification, error) {
			return spec.ByGraphURI{URI: uriValue(g)}, nil
		}),
		newClause("type id", `(?:type\.id|typeId):(?P<code>`+domain.CodePattern+`)`, func(_ *parser, g groups) (spec.Specification, error) {
			return spec.ByTypeID{TypeID: g["code"]}, nil
		}),
		newClause("type uri", uriClause(`(?:type\.uri|typeUri)`), func(_ *parser, g groups) (spec.Specification, error) {
			return spec.ByTypeURI{URI: uriValue(g)}, nil
		}),
		newClause("match all", `\*:\*`, func(_ *parser, _ groups) (spec.Specification, error) {
			return spec.MatchAll{}, nil
		}),
		newClause("property string quoted", propPrefix+`\.string:`+quoted("value"), func(_ *parser, g groups) (spec.Specification, error) {
			return spec.ByPropertyString{Attr: g["attr"], Lang: g["lang"], Value: unquote(g["value"])}, nil
		}),
		newClause("property string range", propPrefix+`\.string:\[(?P<lo>`+lowerBound+`) TO (?P<hi>`+upperBound+`)\]`, func(_ *parser, g groups) (spec.Specification, error) {
			return spec.ByPropertyStringRange{
				Attr:  g["attr"],
				Lang:  g["lang"],
				Lower: stringBound(g["lo"]),
				Upper: stringBound(g["hi"]),
			}, nil
		}),
		newClause("property string prefix", propPrefix+`\.string:(?P<value>`+valueChars+`*)\*`, func(_ *parser, g groups) (spec.Specification, error) {
			return spec.ByPropertyStringPrefix{Attr: g["attr"], Lang: g["lang"], Value: g["value"]}, nil
		}),
		newClause("property string", propPrefix+`\.string:(?P<value>`+valueChars+`+)`, func(_ *parser, g groups) (spec.Specification, error) {
			return spec.ByPropertyString{Attr: g["attr"], Lang: g["lang"], Value: g["value"]}, nil
		}),
		newClause("property phrase", propPrefix+`:`+quoted("value"), func(_ *parser, g groups) (spec.Specification, error) {
			return spec.ByPropertyPhrase{Attr: g["attr"], Lang: g["lang"], Phrase: unquote(g["value"])}, nil
		}),
		newClause("property prefix", propPrefix+`:(?P<value>`+valueChars+`*)\*`, func(_ *parser, g groups) (spec.Specification, error) {
			return spec.ByPropertyPrefix{Attr: g["attr"], Lang: g["lang"], Value: g["value"]}, nil
		}),
		newClause("property", propPrefix+`:(?P<value>`+valueChars+`+)`, func(_ *parser, g groups) (spec.Specification, error) {
			return spec.ByProperty{Attr: g["attr"], Lang: g["lang"], Value: g["value"]}, nil
		}),
		newClause("reference", refPrefix+`\.id:(?P<uuid>`+uuidPattern+`)`, func(_ *parser, g groups) (spec.Specification, error) {
			return spec.ByReference{Attr: g["attr"], Value: uuid.MustParse(g["uuid"])}, nil
		}),
		newClause("reference null", refPrefix+`\.id:null`, func(_ *parser, g groups) (spec.Specification, error) {
			return spec.WithoutReference{Attr: g["attr"]}, nil
		}),
		newClause("referrer null", `(?:referrers|refrs)\.(?P<attr>`+domain.CodePattern+`)\.id:null`, func(_ *parser, g groups) (spec.Specification, error) {
			return spec.WithoutReferrer{Attr: g["attr"]}, nil
		}),
		newClause("reference path", refPrefix+`\.`, func(p *parser, g groups) (spec.Specification, error) {
			value, err := p.primary()
			if err != nil {
				return nil, err
			}
			return spec.ByReferencePath{Attr: g["attr"], Value: value}, nil
		}),
	}
}

// match runs c at the start of s and returns the named groups and the match
// length, or ok=false.
func (c clause) match(s string) (g groups, n int, ok bool) {
	m := c.re.FindStringSubmatchIndex(s)
	if m == nil {
		return nil, 0, false
	}
	g = groups{}
	for i, name := range c.re.SubexpNames() {
		if name == "" || m[2*i] < 0 {
			continue
		}
		g[name] = s[m[2*i]:m[2*i+1]]
	}
	return g, m[1], true
}

func parseIntBound(s string) (*int64, error) {
	if s == openBound {
		return nil, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("number bound %q: %w", s, err)
	}
	return &n, nil
}

func stringBound(s string) *string {
	if s == openBound {
		return nil
	}
	return &s
}

// dateLayouts are tried in order. Layouts without a zone read as UTC.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02Z07:00",
	"2006-01-02",
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

func parseDateBounds(g groups) (lo, hi *time.Time, err error) {
	for _, b := range []struct {
		key string
		dst **time.Time
	}{{"lo", &lo}, {"hi", &hi}} {
		if g[b.key] == openBound {
			continue
		}
		t, err := parseDate(g[b.key])
		if err != nil {
			return nil, nil, err
		}
		*b.dst = &t
	}
	return lo, hi, nil
}
