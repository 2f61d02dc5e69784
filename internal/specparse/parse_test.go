package specparse

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nodeql/internal/domain"
	s "github.com/roach88/nodeql/internal/spec"
)

const (
	idText    = "1b4e28ba-2fa1-11d2-883f-0016d3cca427"
	graphText = "6ba7b810-9dad-11d1-80b4-00c04fd430c8"
)

var (
	id    = uuid.MustParse(idText)
	graph = domain.GraphID{ID: uuid.MustParse(graphText)}
)

func TestParseClauses(t *testing.T) {
	day := time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)
	noon := time.Date(2020, 1, 2, 12, 30, 0, 0, time.UTC)

	tests := []struct {
		query string
		want  s.Specification
	}{
		{"id:" + idText, s.ByID{ID: id}},
		{"node.id:" + idText, s.ByID{ID: id}},
		{"nodeId:" + idText, s.ByID{ID: id}},
		{"urn:uuid:" + idText, s.ByID{ID: id}},
		{"code:PERSON-1", s.ByCode{Code: "PERSON-1"}},
		{"uri:http://example.org/john", s.ByURI{URI: "http://example.org/john"}},
		{`uri:"http://example.org/a(b)"`, s.ByURI{URI: "http://example.org/a(b)"}},
		{"number:42", s.ByNumber{Number: 42}},
		{"n:7", s.ByNumber{Number: 7}},
		{"n:[1 TO *]", s.ByNumberRange{Lower: s.Ptr[int64](1)}},
		{"createdDate:[2020-01-02 TO *]", s.ByCreatedDate{Lower: &day}},
		{"lastModifiedDate:[* TO 2020-01-02T12:30]", s.ByLastModifiedDate{Upper: &noon}},
		{"lastModifiedDate:[2020-01-02T14:30:00+02:00 TO *]", s.ByLastModifiedDate{Lower: &noon}},
		{"lastModifiedSince:2020-01-02T12:30:00Z", s.LastModifiedSince{Date: noon}},
		{"graph.id:" + graphText, s.ByGraphID{Graph: graph}},
		{"type.graph.id:" + graphText, s.ByGraphID{Graph: graph}},
		{"graphCode:acme", s.ByGraphCode{Code: "acme"}},
		{"graph.uri:http://acme.org/", s.ByGraphURI{URI: "http://acme.org/"}},
		{"type.id:Person", s.ByTypeID{TypeID: "Person"}},
		{"typeUri:http://acme.org/Person", s.ByTypeURI{URI: "http://acme.org/Person"}},
		{"*:*", s.MatchAll{}},
		{"p.name:John", s.ByProperty{Attr: "name", Value: "John"}},
		{"props.name.fi:Jussi", s.ByProperty{Attr: "name", Lang: "fi", Value: "Jussi"}},
		{"properties.name:Jo*", s.ByPropertyPrefix{Attr: "name", Value: "Jo"}},
		{"p.name:*", s.ByPropertyPrefix{Attr: "name"}},
		{`p.name.en:"John Smith"`, s.ByPropertyPhrase{Attr: "name", Lang: "en", Phrase: "John Smith"}},
		{`p.name.string:"John Smith"`, s.ByPropertyString{Attr: "name", Value: "John Smith"}},
		{"p.name.fi.string:Jussi", s.ByPropertyString{Attr: "name", Lang: "fi", Value: "Jussi"}},
		{"p.name.string:Ju*", s.ByPropertyStringPrefix{Attr: "name", Value: "Ju"}},
		{"p.name.string:[a TO *]", s.ByPropertyStringRange{Attr: "name", Lower: s.Ptr("a")}},
		{"p.name.string:[John Smith TO Mary Jones]", s.ByPropertyStringRange{Attr: "name", Lower: s.Ptr("John Smith"), Upper: s.Ptr("Mary Jones")}},
		{`p.name.string:"say \"hi\""`, s.ByPropertyString{Attr: "name", Value: `say "hi"`}},
		{`p.name:"a \\ b"`, s.ByPropertyPhrase{Attr: "name", Phrase: `a \ b`}},
		{"r.knows.id:" + idText, s.ByReference{Attr: "knows", Value: id}},
		{"refs.knows.id:null", s.WithoutReference{Attr: "knows"}},
		{"referrers.knows.id:null", s.WithoutReferrer{Attr: "knows"}},
		{"references.knows.p.name:Mary", s.ByReferencePath{Attr: "knows", Value: s.ByProperty{Attr: "name", Value: "Mary"}}},
		{"r.knows.r.knows.code:X", s.ByReferencePath{Attr: "knows", Value: s.ByReferencePath{Attr: "knows", Value: s.ByCode{Code: "X"}}}},
		{"r.knows.(code:X OR code:Y)", s.ByReferencePath{Attr: "knows", Value: s.NewOr(s.ByCode{Code: "X"}, s.ByCode{Code: "Y"})}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := Parse(tt.query)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tt.query, diff)
			}
		})
	}
}

func TestParseCombinators(t *testing.T) {
	x, y, z := s.ByCode{Code: "x"}, s.ByCode{Code: "y"}, s.ByCode{Code: "z"}

	tests := []struct {
		query string
		want  s.Specification
	}{
		{"code:x AND code:y", s.NewAnd(x, y)},
		{"code:x OR code:y AND code:z", s.NewOr(x, s.NewAnd(y, z))},
		{"code:x AND (code:y OR code:z)", s.NewAnd(x, s.NewOr(y, z))},
		{"NOT code:x", s.Not{Spec: x}},
		{"NOT (code:x OR code:y)", s.Not{Spec: s.NewOr(x, y)}},
		{"code:x^2", s.Boost{Spec: x, Factor: 2}},
		{"code:x^0.5 OR code:y", s.NewOr(s.Boost{Spec: x, Factor: 0.5}, y)},
		{"NOT code:x^3", s.Boost{Spec: s.Not{Spec: x}, Factor: 3}},
		{"(code:x)", x},
		{"  code:x  ", x},
		{"", s.MatchAll{}},
		{"NOT *:*", s.Not{Spec: s.MatchAll{}}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := Parse(tt.query)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tt.query, diff)
			}
		})
	}
}

func TestParseQuotedOperators(t *testing.T) {
	got, err := Parse(`p.name:"cats AND dogs" OR code:x`)
	require.NoError(t, err)
	assert.Equal(t, s.NewOr(s.ByPropertyPhrase{Attr: "name", Phrase: "cats AND dogs"}, s.ByCode{Code: "x"}), got)
}

func TestParseNormalizesNFC(t *testing.T) {
	decomposed := "p.name:Seppa\u0308"
	got, err := Parse(decomposed)
	require.NoError(t, err)
	assert.Equal(t, s.ByProperty{Attr: "name", Value: "Seppä"}, got)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		query     string
		pos       int
		remainder string
	}{
		{"foo:bar", 0, "foo:bar"},
		{"code:x AND", 6, " AND"},
		{"code:x AND bogus", 11, "bogus"},
		{"(code:x", 7, ""},
		{"code:x)", 6, ")"},
		{"id:not-a-uuid", 0, "id:not-a-uuid"},
		{"createdDate:[2020-13-45 TO *]", 0, "createdDate:[2020-13-45 TO *]"},
		{"r.knows.nope", 8, "nope"},
		{"code:x^0", 6, "^0"},
		{"code:x OR ", 6, " OR"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			_, err := Parse(tt.query)
			require.Error(t, err)
			assert.True(t, IsParseError(err))

			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.pos, pe.Pos)
			assert.Equal(t, tt.remainder, pe.Remainder)
		})
	}
}

// Printing a parsed tree and parsing the text again yields the same tree.
func TestParseRoundTrip(t *testing.T) {
	for _, q := range []string{
		"p.name:Jo* AND r.knows.p.name:Mary",
		"NOT (code:x OR code:y) AND type.id:Person",
		"code:x^2 OR (NOT code:y)^0.5",
		`p.name.en:"John Smith" OR p.name.string:"John Smith"`,
		"p.name.fi.string:[a TO m] AND n:[* TO 10]",
		"createdDate:[2020-01-02T00:00:00Z TO 2021-01-01T00:00:00Z]",
		"r.knows.(code:a AND NOT code:b) OR referrers.knows.id:null",
		"graph.code:acme AND type.uri:http://acme.org/Person",
		"(code:a OR code:b) AND (code:c OR code:d)",
		"NOT (NOT code:a)",
	} {
		t.Run(q, func(t *testing.T) {
			first, err := Parse(q)
			require.NoError(t, err)
			second, err := Parse(first.String())
			require.NoError(t, err, first.String())
			if diff := cmp.Diff(first, second); diff != "" {
				t.Errorf("round trip via %q mismatch (-first +second):\n%s", first.String(), diff)
			}
		})
	}
}

// Trees built directly, with values the shorthand forms cannot carry, print
// to text that parses back to the same tree.
func TestPrintedTreesParse(t *testing.T) {
	tests := []struct {
		name string
		spec s.Specification
		text string
	}{
		{"quote in string", s.ByPropertyString{Attr: "name", Value: `say "hi"`}, `p.name.string:"say \"hi\""`},
		{"backslash in string", s.ByPropertyString{Attr: "name", Value: `a\b`}, `p.name.string:"a\\b"`},
		{"quote in phrase", s.ByPropertyPhrase{Attr: "name", Phrase: `a "b"`}, `p.name:"a \"b\""`},
		{"spaced lower bound", s.ByPropertyStringRange{Attr: "name", Lower: s.Ptr("John Smith")}, "p.name.string:[John Smith TO *]"},
		{"spaced upper bound", s.ByPropertyStringRange{Attr: "name", Upper: s.Ptr("Mary Jones")}, "p.name.string:[* TO Mary Jones]"},
		{"ranges side by side",
			s.NewAnd(
				s.ByPropertyStringRange{Attr: "name", Lower: s.Ptr("a b"), Upper: s.Ptr("c d")},
				s.ByPropertyStringRange{Attr: "nickname", Lower: s.Ptr("e"), Upper: s.Ptr("f g")},
			),
			"p.name.string:[a b TO c d] AND p.nickname.string:[e TO f g]"},
		{"bare uri", s.ByURI{URI: "http://x/a"}, "uri:http://x/a"},
		{"uri with parentheses", s.ByURI{URI: "http://x/a(b)"}, `uri:"http://x/a(b)"`},
		{"graph uri with space", s.ByGraphURI{URI: "http://x/a b"}, `graph.uri:"http://x/a b"`},
		{"type uri with quote", s.ByTypeURI{URI: `http://x/"q"`}, `type.uri:"http://x/\"q\""`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.text, tt.spec.String())
			got, err := Parse(tt.spec.String())
			require.NoError(t, err)
			if diff := cmp.Diff(tt.spec, got); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tt.spec.String(), diff)
			}
		})
	}
}

func TestParseLongInputIsLinear(t *testing.T) {
	q := "p.name:" + strings.Repeat("a", 100000) + "*"
	got, err := Parse(q)
	require.NoError(t, err)
	assert.Equal(t, s.ByPropertyPrefix{Attr: "name", Value: strings.Repeat("a", 100000)}, got)

	_, err = Parse("p.name:" + strings.Repeat("a(", 1000))
	assert.Error(t, err)
}
