package catalog

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"github.com/google/uuid"

	"github.com/roach88/nodeql/internal/domain"
)

// GraphSpec is a compiled graph with its types. Reference ranges are kept
// as written until the whole catalog is known.
type GraphSpec struct {
	Graph domain.Graph
	Types []TypeSpec
}

// TypeSpec is a compiled type whose reference ranges are unresolved.
type TypeSpec struct {
	Type   domain.Type
	Ranges []string // per reference attribute, as written
	Pos    token.Pos
}

// CompileGraph parses a CUE value into a GraphSpec.
//
// The CUE value should be the graph struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`graph: acme: { id: "...", type: { ... } }`)
//	spec, err := CompileGraph(v.LookupPath(cue.ParsePath("graph.acme")))
func CompileGraph(v cue.Value) (*GraphSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &GraphSpec{}

	// The graph code is the struct label
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		spec.Graph.Code = labelOf(labels[len(labels)-1])
	}

	idVal := v.LookupPath(cue.ParsePath("id"))
	if !idVal.Exists() {
		return nil, &CompileError{Field: "id", Message: "graph id is required", Pos: v.Pos()}
	}
	idStr, err := idVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, &CompileError{Field: "id", Message: fmt.Sprintf("graph id %q is not a UUID", idStr), Pos: idVal.Pos()}
	}
	spec.Graph.ID = domain.GraphID{ID: id}

	if spec.Graph.URI, err = optionalString(v, "uri"); err != nil {
		return nil, err
	}

	spec.Types, err = parseTypes(v, spec.Graph.ID)
	if err != nil {
		return nil, err
	}

	return spec, nil
}

// parseTypes extracts the type definitions of a graph.
func parseTypes(v cue.Value, graph domain.GraphID) ([]TypeSpec, error) {
	var types []TypeSpec

	typeVal := v.LookupPath(cue.ParsePath("type"))
	if !typeVal.Exists() {
		return types, nil // a graph may declare no types yet
	}

	iter, err := typeVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	for iter.Next() {
		typeValue := iter.Value()
		id := domain.TypeID{ID: labelOf(iter.Selector()), Graph: graph}

		ts := TypeSpec{Type: domain.Type{ID: id}, Pos: typeValue.Pos()}
		if ts.Type.URI, err = optionalString(typeValue, "uri"); err != nil {
			return nil, err
		}

		ts.Type.TextAttributes, err = parseTextAttributes(typeValue, id)
		if err != nil {
			return nil, err
		}

		ts.Type.ReferenceAttributes, ts.Ranges, err = parseReferenceAttributes(typeValue, id)
		if err != nil {
			return nil, err
		}

		types = append(types, ts)
	}

	return types, nil
}

// parseTextAttributes reads the ordered "text" list of a type.
func parseTextAttributes(v cue.Value, domainType domain.TypeID) ([]domain.TextAttribute, error) {
	var attrs []domain.TextAttribute

	listVal := v.LookupPath(cue.ParsePath("text"))
	if !listVal.Exists() {
		return attrs, nil
	}

	iter, err := listVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	for iter.Next() {
		attrVal := iter.Value()
		id, err := requiredString(attrVal, "id", "text attribute id is required")
		if err != nil {
			return nil, err
		}
		attr := domain.TextAttribute{ID: id, Domain: domainType}
		if attr.URI, err = optionalString(attrVal, "uri"); err != nil {
			return nil, err
		}
		if attr.Regex, err = optionalString(attrVal, "regex"); err != nil {
			return nil, err
		}
		attrs = append(attrs, attr)
	}

	return attrs, nil
}

// parseReferenceAttributes reads the ordered "reference" list of a type.
// Ranges are returned as written, parallel to the attributes.
func parseReferenceAttributes(v cue.Value, domainType domain.TypeID) ([]domain.ReferenceAttribute, []string, error) {
	var (
		attrs  []domain.ReferenceAttribute
		ranges []string
	)

	listVal := v.LookupPath(cue.ParsePath("reference"))
	if !listVal.Exists() {
		return attrs, ranges, nil
	}

	iter, err := listVal.List()
	if err != nil {
		return nil, nil, formatCUEError(err)
	}

	for iter.Next() {
		attrVal := iter.Value()
		id, err := requiredString(attrVal, "id", "reference attribute id is required")
		if err != nil {
			return nil, nil, err
		}
		rng, err := requiredString(attrVal, "range", fmt.Sprintf("reference attribute %s: range is required", id))
		if err != nil {
			return nil, nil, err
		}
		attr := domain.ReferenceAttribute{ID: id, Domain: domainType}
		if attr.URI, err = optionalString(attrVal, "uri"); err != nil {
			return nil, nil, err
		}
		attrs = append(attrs, attr)
		ranges = append(ranges, rng)
	}

	return attrs, ranges, nil
}

func requiredString(v cue.Value, field, message string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", &CompileError{Field: "attribute", Message: message, Pos: v.Pos()}
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// labelOf returns the unquoted name of a field label.
func labelOf(sel cue.Selector) string {
	if sel.LabelType() == cue.StringLabel && !sel.IsConstraint() {
		return sel.Unquoted()
	}
	return sel.String()
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
