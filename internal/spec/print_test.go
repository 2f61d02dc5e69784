package spec

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	id := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	day := time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		spec Specification
		want string
	}{
		{"and", NewAnd(a, b), "code:a AND code:b"},
		{"or", NewOr(a, b), "code:a OR code:b"},
		{"or in and", NewAnd(a, NewOr(b, c)), "code:a AND (code:b OR code:c)"},
		{"and in or", NewOr(NewAnd(a, b), c), "code:a AND code:b OR code:c"},
		{"and in and", NewAnd(a, NewAnd(b, c)), "code:a AND (code:b AND code:c)"},
		{"not", Not{Spec: a}, "NOT code:a"},
		{"not and", Not{Spec: NewAnd(a, b)}, "NOT (code:a AND code:b)"},
		{"boost", Boost{Spec: a, Factor: 2}, "code:a^2"},
		{"boost fraction", Boost{Spec: a, Factor: 0.5}, "code:a^0.5"},
		{"boost of not", Boost{Spec: Not{Spec: a}, Factor: 3}, "(NOT code:a)^3"},
		{"not of boost", Not{Spec: Boost{Spec: a, Factor: 3}}, "NOT (code:a^3)"},
		{"not of not", Not{Spec: Not{Spec: a}}, "NOT (NOT code:a)"},
		{"match all", MatchAll{}, "*:*"},
		{"match none", MatchNone{}, "NOT *:*"},
		{"empty and", And{}, "*:*"},
		{"empty or in and", NewAnd(a, Or{}), "code:a AND NOT *:*"},
		{"id", ByID{ID: id}, "id:00000000-0000-0000-0000-000000000001"},
		{"number range", ByNumberRange{Upper: Ptr[int64](9)}, "number:[* TO 9]"},
		{"graph code", ByGraphCode{Code: "acme"}, "graph.code:acme"},
		{"type id", ByTypeID{TypeID: "Person"}, "type.id:Person"},
		{"property", ByProperty{Attr: "name", Lang: "en", Value: "john"}, "p.name.en:john"},
		{"prefix", ByPropertyPrefix{Attr: "name", Value: "jo"}, "p.name:jo*"},
		{"phrase", ByPropertyPhrase{Attr: "name", Phrase: "john smith"}, `p.name:"john smith"`},
		{"string", ByPropertyString{Attr: "name", Value: "John Smith"}, `p.name.string:"John Smith"`},
		{"string prefix", ByPropertyStringPrefix{Attr: "name", Lang: "fi", Value: "Ju"}, "p.name.fi.string:Ju*"},
		{"string range", ByPropertyStringRange{Attr: "name", Lower: Ptr("a"), Upper: Ptr("m")}, "p.name.string:[a TO m]"},
		{"reference", ByReference{Attr: "knows", Value: id}, "r.knows.id:00000000-0000-0000-0000-000000000001"},
		{"without reference", WithoutReference{Attr: "knows"}, "r.knows.id:null"},
		{"without referrer", WithoutReferrer{Attr: "knows"}, "referrers.knows.id:null"},
		{"path", ByReferencePath{Attr: "knows", Value: ByPropertyPrefix{Attr: "name", Value: "ma"}}, "r.knows.p.name:ma*"},
		{"path query", ByReferencePath{Attr: "knows", Value: NewOr(a, b)}, "r.knows.(code:a OR code:b)"},
		{"resolved path", ByResolvedReferencePath{Attr: "knows", Value: a}, "r.knows.code:a"},
		{"created", ByCreatedDate{Lower: Ptr(day)}, "createdDate:[2020-01-02T00:00:00Z TO *]"},
		{"modified since", LastModifiedSince{Date: day}, "lastModifiedSince:2020-01-02T00:00:00Z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.spec.String())
		})
	}
}
