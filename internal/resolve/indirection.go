package resolve

import (
	"github.com/roach88/nodeql/internal/domain"
	"github.com/roach88/nodeql/internal/spec"
)

// IndirectionResolver rewrites indirect leaves using lookup tables built from
// a graph and type snapshot. It is immutable after construction.
type IndirectionResolver struct {
	graphsByURI  map[string][]domain.GraphID
	graphsByCode map[string][]domain.GraphID
	typesByURI   map[string][]domain.TypeID
}

// NewIndirectionResolver builds lookup tables from the snapshot. Uris and
// codes may map to several graphs or types; snapshot order is kept.
func NewIndirectionResolver(graphs []domain.Graph, types []domain.Type) *IndirectionResolver {
	r := &IndirectionResolver{
		graphsByURI:  map[string][]domain.GraphID{},
		graphsByCode: map[string][]domain.GraphID{},
		typesByURI:   map[string][]domain.TypeID{},
	}
	for _, g := range graphs {
		if g.URI != "" {
			r.graphsByURI[g.URI] = append(r.graphsByURI[g.URI], g.ID)
		}
		if g.Code != "" {
			r.graphsByCode[g.Code] = append(r.graphsByCode[g.Code], g.ID)
		}
	}
	for _, t := range types {
		if t.URI != "" {
			r.typesByURI[t.URI] = append(r.typesByURI[t.URI], t.ID)
		}
	}
	return r
}

// Resolve returns s with every indirect leaf replaced by an Or over the
// matching ids. An unmatched name becomes an empty Or. The result is not
// simplified.
func (r *IndirectionResolver) Resolve(s spec.Specification) spec.Specification {
	switch v := s.(type) {
	case spec.And:
		return spec.And{Specs: r.resolveAll(v.Specs)}
	case spec.Or:
		return spec.Or{Specs: r.resolveAll(v.Specs)}
	case spec.Not:
		return spec.Not{Spec: r.Resolve(v.Spec)}
	case spec.Boost:
		return spec.Boost{Spec: r.Resolve(v.Spec), Factor: v.Factor}
	case spec.ByReferencePath:
		return spec.ByReferencePath{Attr: v.Attr, Value: r.Resolve(v.Value)}
	case spec.ByGraphURI:
		return graphsOr(r.graphsByURI[v.URI])
	case spec.ByGraphCode:
		return graphsOr(r.graphsByCode[v.Code])
	case spec.ByTypeURI:
		ids := r.typesByURI[v.URI]
		members := make([]spec.Specification, len(ids))
		for i, id := range ids {
			members[i] = spec.ByType(id)
		}
		return spec.Or{Specs: members}
	}
	return s
}

func (r *IndirectionResolver) resolveAll(specs []spec.Specification) []spec.Specification {
	out := make([]spec.Specification, len(specs))
	for i, s := range specs {
		out[i] = r.Resolve(s)
	}
	return out
}

func graphsOr(ids []domain.GraphID) spec.Specification {
	members := make([]spec.Specification, len(ids))
	for i, id := range ids {
		members[i] = spec.ByGraphID{Graph: id}
	}
	return spec.Or{Specs: members}
}
