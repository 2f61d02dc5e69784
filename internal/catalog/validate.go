package catalog

import (
	"fmt"
	"regexp"

	"github.com/roach88/nodeql/internal/domain"
)

// Validation error codes (E100-E199)
const (
	// Graph errors (E101-E109)
	ErrGraphCode      = "E101" // graph code is not a valid code
	ErrDuplicateGraph = "E102" // duplicate graph id or code

	// Type errors (E110-E119)
	ErrTypeCode      = "E110" // type id is not a valid code
	ErrDuplicateType = "E111" // duplicate type id within a graph

	// Attribute errors (E120-E129)
	ErrAttributeCode      = "E120" // attribute id is not a valid code
	ErrDuplicateAttribute = "E121" // duplicate attribute id within a type
	ErrInvalidRegex       = "E122" // text attribute regex does not compile
	ErrUnknownRange       = "E123" // reference range names no declared type
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks compiled graph specs as a whole.
// Returns all errors found (does not fail-fast).
func Validate(specs []GraphSpec) []ValidationError {
	var errs []ValidationError

	codes := make(map[string]domain.GraphID)
	ids := make(map[domain.GraphID]string)
	for _, gs := range specs {
		field := "graph." + gs.Graph.Code
		if !domain.IsCode(gs.Graph.Code) {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("graph code %q must match [A-Za-z0-9_-]+", gs.Graph.Code),
				Code:    ErrGraphCode,
			})
		}
		if _, dup := codes[gs.Graph.Code]; dup {
			errs = append(errs, ValidationError{Field: field, Message: "duplicate graph code", Code: ErrDuplicateGraph})
		}
		if other, dup := ids[gs.Graph.ID]; dup {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("graph id %s already used by %s", gs.Graph.ID, other),
				Code:    ErrDuplicateGraph,
			})
		}
		codes[gs.Graph.Code] = gs.Graph.ID
		ids[gs.Graph.ID] = gs.Graph.Code
	}

	declared := make(map[domain.TypeID]bool)
	for _, gs := range specs {
		for _, ts := range gs.Types {
			declared[ts.Type.ID] = true
		}
	}

	for _, gs := range specs {
		seen := make(map[string]bool)
		for _, ts := range gs.Types {
			errs = append(errs, validateType(gs, ts, seen, codes, declared)...)
		}
	}

	return errs
}

func validateType(gs GraphSpec, ts TypeSpec, seen map[string]bool, codes map[string]domain.GraphID, declared map[domain.TypeID]bool) []ValidationError {
	var errs []ValidationError
	field := fmt.Sprintf("graph.%s.type.%s", gs.Graph.Code, ts.Type.ID.ID)
	line := ts.Pos.Line()

	if !domain.IsCode(ts.Type.ID.ID) {
		errs = append(errs, ValidationError{Field: field, Message: "type id must match [A-Za-z0-9_-]+", Code: ErrTypeCode, Line: line})
	}
	if seen[ts.Type.ID.ID] {
		errs = append(errs, ValidationError{Field: field, Message: "duplicate type id", Code: ErrDuplicateType, Line: line})
	}
	seen[ts.Type.ID.ID] = true

	// Text and reference attributes share one namespace
	attrs := make(map[string]bool)
	checkAttr := func(kind, id string) {
		f := fmt.Sprintf("%s.%s.%s", field, kind, id)
		if !domain.IsCode(id) {
			errs = append(errs, ValidationError{Field: f, Message: "attribute id must match [A-Za-z0-9_-]+", Code: ErrAttributeCode, Line: line})
		}
		if attrs[id] {
			errs = append(errs, ValidationError{Field: f, Message: "duplicate attribute id", Code: ErrDuplicateAttribute, Line: line})
		}
		attrs[id] = true
	}

	for _, a := range ts.Type.TextAttributes {
		checkAttr("text", a.ID)
		if a.Regex == "" {
			continue
		}
		if _, err := regexp.Compile(a.Regex); err != nil {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s.text.%s.regex", field, a.ID),
				Message: err.Error(),
				Code:    ErrInvalidRegex,
				Line:    line,
			})
		}
	}

	for i, a := range ts.Type.ReferenceAttributes {
		checkAttr("reference", a.ID)
		rng, ok := resolveRange(codes, gs.Graph.ID, ts.Ranges[i])
		if !ok || !declared[rng] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s.reference.%s.range", field, a.ID),
				Message: fmt.Sprintf("range %q names no declared type", ts.Ranges[i]),
				Code:    ErrUnknownRange,
				Line:    line,
			})
		}
	}

	return errs
}
