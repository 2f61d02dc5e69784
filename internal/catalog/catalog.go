package catalog

import (
	"slices"
	"strings"

	"github.com/roach88/nodeql/internal/domain"
)

// Catalog is an immutable snapshot of graphs and types with lookups.
type Catalog struct {
	graphs      []domain.Graph
	types       []domain.Type
	graphByID   map[domain.GraphID]domain.Graph
	graphByCode map[string]domain.Graph
	typeByID    map[domain.TypeID]domain.Type
}

// New indexes already resolved graphs and types. Types keep the given order.
func New(graphs []domain.Graph, types []domain.Type) *Catalog {
	c := &Catalog{
		graphs:      slices.Clone(graphs),
		types:       slices.Clone(types),
		graphByID:   make(map[domain.GraphID]domain.Graph, len(graphs)),
		graphByCode: make(map[string]domain.Graph, len(graphs)),
		typeByID:    make(map[domain.TypeID]domain.Type, len(types)),
	}
	for _, g := range graphs {
		c.graphByID[g.ID] = g
		if g.Code != "" {
			c.graphByCode[g.Code] = g
		}
	}
	for _, t := range types {
		c.typeByID[t.ID] = t
	}
	return c
}

// Build validates compiled graph specs, resolves reference ranges and returns
// the catalog. All validation errors are returned together.
func Build(specs []GraphSpec) (*Catalog, []ValidationError) {
	if errs := Validate(specs); len(errs) > 0 {
		return nil, errs
	}

	codes := make(map[string]domain.GraphID, len(specs))
	for _, gs := range specs {
		codes[gs.Graph.Code] = gs.Graph.ID
	}

	var (
		graphs []domain.Graph
		types  []domain.Type
	)
	for _, gs := range specs {
		graphs = append(graphs, gs.Graph)
		for _, ts := range gs.Types {
			t := ts.Type
			t.ReferenceAttributes = slices.Clone(t.ReferenceAttributes)
			for i := range t.ReferenceAttributes {
				t.ReferenceAttributes[i].Range, _ = resolveRange(codes, gs.Graph.ID, ts.Ranges[i])
			}
			types = append(types, t)
		}
	}
	return New(graphs, types), nil
}

// resolveRange turns "Type" or "graph.Type" into a type id.
func resolveRange(codes map[string]domain.GraphID, home domain.GraphID, rng string) (domain.TypeID, bool) {
	graphCode, typeID, qualified := strings.Cut(rng, ".")
	if !qualified {
		return domain.TypeID{ID: rng, Graph: home}, true
	}
	g, ok := codes[graphCode]
	if !ok {
		return domain.TypeID{}, false
	}
	return domain.TypeID{ID: typeID, Graph: g}, true
}

// Graphs returns all graphs in declaration order.
func (c *Catalog) Graphs() []domain.Graph { return slices.Clone(c.graphs) }

// Types returns all types in declaration order.
func (c *Catalog) Types() []domain.Type { return slices.Clone(c.types) }

// TypeIDs returns the ids of all types.
func (c *Catalog) TypeIDs() []domain.TypeID {
	ids := make([]domain.TypeID, len(c.types))
	for i, t := range c.types {
		ids[i] = t.ID
	}
	return ids
}

func (c *Catalog) Graph(id domain.GraphID) (domain.Graph, bool) {
	g, ok := c.graphByID[id]
	return g, ok
}

func (c *Catalog) GraphByCode(code string) (domain.Graph, bool) {
	g, ok := c.graphByCode[code]
	return g, ok
}

func (c *Catalog) Type(id domain.TypeID) (domain.Type, bool) {
	t, ok := c.typeByID[id]
	return t, ok
}

// TypeByName finds a type written as "graph.Type".
func (c *Catalog) TypeByName(name string) (domain.Type, bool) {
	graphCode, typeID, ok := strings.Cut(name, ".")
	if !ok {
		return domain.Type{}, false
	}
	g, ok := c.graphByCode[graphCode]
	if !ok {
		return domain.Type{}, false
	}
	return c.Type(domain.TypeID{ID: typeID, Graph: g.ID})
}

// Name is the inverse of TypeByName.
func (c *Catalog) Name(id domain.TypeID) string {
	if g, ok := c.graphByID[id.Graph]; ok && g.Code != "" {
		return g.Code + "." + id.ID
	}
	return id.String()
}
