package resolve

import (
	"github.com/roach88/nodeql/internal/domain"
	"github.com/roach88/nodeql/internal/spec"
)

// TypeFilter keeps only the leaves a viewing type declares. It guards the
// query surface: a caller-supplied query can never test attributes outside
// the viewing type's schema, and probing a hidden attribute yields no
// results rather than an error.
type TypeFilter struct {
	types map[domain.TypeID]domain.Type

	// referrers maps a viewing type to the reference attribute ids that
	// point at it from readable types.
	referrers map[domain.TypeID]map[string]bool
}

// NewTypeFilter builds a filter over the types the caller may read.
func NewTypeFilter(types []domain.Type) *TypeFilter {
	f := &TypeFilter{
		types:     make(map[domain.TypeID]domain.Type, len(types)),
		referrers: map[domain.TypeID]map[string]bool{},
	}
	for _, t := range types {
		f.types[t.ID] = t
		for _, a := range t.ReferenceAttributes {
			if f.referrers[a.Range] == nil {
				f.referrers[a.Range] = map[string]bool{}
			}
			f.referrers[a.Range][a.ID] = true
		}
	}
	return f
}

// Filter returns s as seen from viewing. Allowed leaves are kept unchanged;
// every other leaf becomes MatchNone. A Not whose filtered member is
// MatchNone is itself MatchNone, so dropping a leaf never widens a result.
// Reference paths over declared attributes are filtered against the
// attribute's range type, and their value is restricted to nodes of that
// type. The result is simplified.
//
// An unreadable viewing type filters everything to MatchNone.
func (f *TypeFilter) Filter(viewing domain.TypeID, s spec.Specification) spec.Specification {
	t, ok := f.types[viewing]
	if !ok {
		return spec.MatchNone{}
	}
	return spec.Simplify(f.filter(t, s))
}

func (f *TypeFilter) filter(t domain.Type, s spec.Specification) spec.Specification {
	switch v := s.(type) {
	case spec.And:
		return spec.And{Specs: f.filterAll(t, v.Specs)}
	case spec.Or:
		return spec.Or{Specs: f.filterAll(t, v.Specs)}
	case spec.Not:
		inner := spec.Simplify(f.filter(t, v.Spec))
		if _, none := inner.(spec.MatchNone); none {
			return spec.MatchNone{}
		}
		return spec.Not{Spec: inner}
	case spec.Boost:
		return spec.Boost{Spec: f.filter(t, v.Spec), Factor: v.Factor}
	case spec.MatchAll, spec.MatchNone,
		spec.ByID, spec.ByCode, spec.ByURI, spec.ByNumber, spec.ByNumberRange,
		spec.ByCreatedDate, spec.ByLastModifiedDate, spec.LastModifiedSince:
		return s
	case spec.ByGraphID:
		return allowIf(v.Graph == t.ID.Graph, s)
	case spec.ByTypeID:
		return allowIf(v.TypeID == t.ID.ID, s)
	case spec.ByProperty:
		return f.allowText(t, v.Attr, s)
	case spec.ByPropertyPrefix:
		return f.allowText(t, v.Attr, s)
	case spec.ByPropertyPhrase:
		return f.allowText(t, v.Attr, s)
	case spec.ByPropertyString:
		return f.allowText(t, v.Attr, s)
	case spec.ByPropertyStringPrefix:
		return f.allowText(t, v.Attr, s)
	case spec.ByPropertyStringRange:
		return f.allowText(t, v.Attr, s)
	case spec.ByReference:
		return f.allowReference(t, v.Attr, s)
	case spec.WithoutReference:
		return f.allowReference(t, v.Attr, s)
	case spec.ByResolvedReferencePath:
		return f.allowReference(t, v.Attr, s)
	case spec.WithoutReferrer:
		return allowIf(f.referrers[t.ID][v.Attr], s)
	case spec.ByReferencePath:
		a, ok := t.ReferenceAttribute(v.Attr)
		if !ok {
			return spec.MatchNone{}
		}
		rangeType, ok := f.types[a.Range]
		if !ok {
			return spec.MatchNone{}
		}
		return spec.ByReferencePath{Attr: v.Attr, Value: spec.ForType(rangeType.ID, f.filter(rangeType, v.Value))}
	}
	return spec.MatchNone{}
}

func (f *TypeFilter) filterAll(t domain.Type, specs []spec.Specification) []spec.Specification {
	out := make([]spec.Specification, len(specs))
	for i, s := range specs {
		out[i] = f.filter(t, s)
	}
	return out
}

func (f *TypeFilter) allowText(t domain.Type, attr string, s spec.Specification) spec.Specification {
	_, ok := t.TextAttribute(attr)
	return allowIf(ok, s)
}

func (f *TypeFilter) allowReference(t domain.Type, attr string, s spec.Specification) spec.Specification {
	_, ok := t.ReferenceAttribute(attr)
	return allowIf(ok, s)
}

func allowIf(ok bool, s spec.Specification) spec.Specification {
	if ok {
		return s
	}
	return spec.MatchNone{}
}
