package specsearch

import (
	"fmt"
	"slices"
	"time"

	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/roach88/nodeql/internal/domain"
	"github.com/roach88/nodeql/internal/spec"
)

// Target names this compiler in UnsupportedError.
const Target = "search"

// Compile converts s to a bleve query.
//
// And becomes a boolean MUST, Or a boolean SHOULD with at least one match,
// Not a MUST_NOT next to match-all. Boost wraps its member in a boosted
// conjunction. Indirect and unresolved reference path leaves return an
// UnresolvedError.
func Compile(s spec.Specification) (query.Query, error) {
	if s == nil {
		return nil, fmt.Errorf("cannot compile nil specification")
	}
	return compile(s)
}

func compile(s spec.Specification) (query.Query, error) {
	switch v := s.(type) {
	case spec.And:
		if len(v.Specs) == 0 {
			return query.NewMatchAllQuery(), nil
		}
		must, err := compileAll(v.Specs)
		if err != nil {
			return nil, err
		}
		return query.NewBooleanQuery(must, nil, nil), nil
	case spec.Or:
		if len(v.Specs) == 0 {
			return query.NewMatchNoneQuery(), nil
		}
		should, err := compileAll(v.Specs)
		if err != nil {
			return nil, err
		}
		q := query.NewBooleanQuery(nil, should, nil)
		q.SetMinShould(1)
		return q, nil
	case spec.Not:
		inner, err := compile(v.Spec)
		if err != nil {
			return nil, err
		}
		return negate(inner), nil
	case spec.Boost:
		inner, err := compile(v.Spec)
		if err != nil {
			return nil, err
		}
		q := query.NewConjunctionQuery([]query.Query{inner})
		q.SetBoost(float64(v.Factor))
		return q, nil
	case spec.MatchAll:
		return query.NewMatchAllQuery(), nil
	case spec.MatchNone:
		return query.NewMatchNoneQuery(), nil
	case spec.ByID:
		return term(FieldID, v.ID.String()), nil
	case spec.ByCode:
		return term(FieldCode, v.Code), nil
	case spec.ByURI:
		return term(FieldURI, v.URI), nil
	case spec.ByNumber:
		n := float64(v.Number)
		return numericRange(FieldNumber, &n, &n, true), nil
	case spec.ByNumberRange:
		return numericRange(FieldNumber, toFloat(v.Lower), toFloat(v.Upper), true), nil
	case spec.ByGraphID:
		return term(FieldGraphID, v.Graph.String()), nil
	case spec.ByTypeID:
		return term(FieldTypeID, v.TypeID), nil
	case spec.ByCreatedDate:
		return numericRange(FieldCreatedDate, dateMillis(v.Lower), dateMillis(v.Upper), true), nil
	case spec.ByLastModifiedDate:
		return numericRange(FieldLastModifiedDate, dateMillis(v.Lower), dateMillis(v.Upper), true), nil
	case spec.LastModifiedSince:
		return numericRange(FieldLastModifiedDate, dateMillis(&v.Date), nil, false), nil
	case spec.ByProperty:
		tokens := spec.Tokens(v.Value)
		if len(tokens) == 0 {
			return query.NewMatchNoneQuery(), nil
		}
		field := TextField(v.Attr, v.Lang)
		must := make([]query.Query, len(tokens))
		for i, t := range tokens {
			must[i] = term(field, t)
		}
		return query.NewBooleanQuery(must, nil, nil), nil
	case spec.ByPropertyPrefix:
		q := query.NewPrefixQuery(spec.Normalize(v.Value))
		q.SetField(TextField(v.Attr, v.Lang))
		return q, nil
	case spec.ByPropertyPhrase:
		tokens := spec.Tokens(v.Phrase)
		if len(tokens) == 0 {
			return query.NewMatchNoneQuery(), nil
		}
		return query.NewPhraseQuery(tokens, TextField(v.Attr, v.Lang)), nil
	case spec.ByPropertyString:
		return term(StringField(v.Attr, v.Lang), v.Value), nil
	case spec.ByPropertyStringPrefix:
		q := query.NewPrefixQuery(v.Value)
		q.SetField(StringField(v.Attr, v.Lang))
		return q, nil
	case spec.ByPropertyStringRange:
		if v.Lower == nil && v.Upper == nil {
			// Any value at all. An empty prefix has an empty term range.
			q := query.NewWildcardQuery("*")
			q.SetField(StringField(v.Attr, v.Lang))
			return q, nil
		}
		incl := true
		q := query.NewTermRangeInclusiveQuery(deref(v.Lower), deref(v.Upper), &incl, &incl)
		q.SetField(StringField(v.Attr, v.Lang))
		return q, nil
	case spec.ByReference:
		return term(ReferenceField(v.Attr), v.Value.String()), nil
	case spec.WithoutReference:
		return negate(term(FieldReferences, v.Attr)), nil
	case spec.WithoutReferrer:
		return negate(term(FieldReferrers, v.Attr)), nil
	case spec.ByResolvedReferencePath:
		return compileResolvedPath(v), nil
	case spec.ByReferencePath, spec.ByGraphURI, spec.ByGraphCode, spec.ByTypeURI:
		return nil, &spec.UnresolvedError{Spec: s}
	default:
		return nil, fmt.Errorf("unsupported specification type: %T", s)
	}
}

func compileAll(specs []spec.Specification) ([]query.Query, error) {
	out := make([]query.Query, len(specs))
	for i, m := range specs {
		q, err := compile(m)
		if err != nil {
			return nil, err
		}
		out[i] = q
	}
	return out, nil
}

// negate matches every document the inner query does not.
func negate(inner query.Query) query.Query {
	return query.NewBooleanQuery([]query.Query{query.NewMatchAllQuery()}, nil, []query.Query{inner})
}

func term(field, value string) *query.TermQuery {
	q := query.NewTermQuery(value)
	q.SetField(field)
	return q
}

// numericRange builds a range with both bounds inclusive when inclusive is
// set, otherwise both exclusive. A nil bound is open; every document carries
// the numeric fields, so a fully open range is match-all.
func numericRange(field string, lower, upper *float64, inclusive bool) query.Query {
	if lower == nil && upper == nil {
		return query.NewMatchAllQuery()
	}
	q := query.NewNumericRangeInclusiveQuery(lower, upper, &inclusive, &inclusive)
	q.SetField(field)
	return q
}

// compileResolvedPath is a disjunction of terms on the full referenced node
// id. Ids are sorted and deduplicated so equal trees compile to equal
// queries.
func compileResolvedPath(p spec.ByResolvedReferencePath) query.Query {
	if len(p.IDs) == 0 {
		return query.NewMatchNoneQuery()
	}
	ids := slices.Clone(p.IDs)
	slices.SortFunc(ids, domain.CompareNodeIDs)
	ids = slices.CompactFunc(ids, func(a, b domain.NodeID) bool { return a == b })

	field := ReferenceNodeField(p.Attr)
	should := make([]query.Query, len(ids))
	for i, id := range ids {
		should[i] = term(field, id.String())
	}
	q := query.NewBooleanQuery(nil, should, nil)
	q.SetMinShould(1)
	return q
}

func toFloat(n *int64) *float64 {
	if n == nil {
		return nil
	}
	f := float64(*n)
	return &f
}

// dateMillis is the numeric encoding of a date bound.
func dateMillis(t *time.Time) *float64 {
	if t == nil {
		return nil
	}
	f := float64(t.UnixMilli())
	return &f
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
