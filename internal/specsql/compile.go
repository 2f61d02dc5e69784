package specsql

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/roach88/nodeql/internal/domain"
	"github.com/roach88/nodeql/internal/spec"
)

// Target names this compiler in UnsupportedError.
const Target = "sql"

// Dialect selects dialect-specific syntax. Placeholders stay "?" in every
// dialect; rewriting them is the caller's job.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

// Value tables.
const (
	TextValueTable      = "node_text_attribute_value"
	ReferenceValueTable = "node_reference_attribute_value"
)

// SQLCompiler compiles spec trees to SQL fragments.
type SQLCompiler struct {
	// Table is the name or alias of the node table in the enclosing query.
	Table string

	// Dialect decides the collation used for string comparisons.
	Dialect Dialect
}

// NewSQLCompiler creates a compiler for SQLite against table "node".
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{Table: "node", Dialect: SQLite}
}

// Compile converts s to a WHERE fragment. Returns (sql, params, error).
//
// Tokenized text leaves return an UnsupportedError; indirect and unresolved
// reference path leaves return an UnresolvedError.
func (c *SQLCompiler) Compile(s spec.Specification) (string, []any, error) {
	if s == nil {
		return "", nil, fmt.Errorf("cannot compile nil specification")
	}
	return c.compile(s)
}

// Compilable reports whether every leaf of s has a SQL form.
func Compilable(s spec.Specification) bool {
	return !spec.Any(s, func(n spec.Specification) bool {
		switch n.(type) {
		case spec.ByProperty, spec.ByPropertyPrefix, spec.ByPropertyPhrase,
			spec.ByReferencePath, spec.ByGraphURI, spec.ByGraphCode, spec.ByTypeURI:
			return true
		}
		return false
	})
}

func (c *SQLCompiler) compile(s spec.Specification) (string, []any, error) {
	switch v := s.(type) {
	case spec.And:
		return c.compileJunction(v.Specs, " AND ", "1 = 1")
	case spec.Or:
		return c.compileJunction(v.Specs, " OR ", "1 = 0")
	case spec.Not:
		sql, params, err := c.compile(v.Spec)
		if err != nil {
			return "", nil, err
		}
		return "NOT (" + sql + ")", params, nil
	case spec.Boost:
		return c.compile(v.Spec)
	case spec.MatchAll:
		return "1 = 1", nil, nil
	case spec.MatchNone:
		return "1 = 0", nil, nil
	case spec.ByID:
		return c.column("id") + " = ?", []any{v.ID.String()}, nil
	case spec.ByCode:
		return c.column("code") + " = ?", []any{v.Code}, nil
	case spec.ByURI:
		return c.column("uri") + " = ?", []any{v.URI}, nil
	case spec.ByNumber:
		return c.column("number") + " = ?", []any{v.Number}, nil
	case spec.ByNumberRange:
		return c.compileRange(c.column("number"), optional(v.Lower), optional(v.Upper))
	case spec.ByGraphID:
		return c.column("graph_id") + " = ?", []any{v.Graph.String()}, nil
	case spec.ByTypeID:
		return c.column("type_id") + " = ?", []any{v.TypeID}, nil
	case spec.ByCreatedDate:
		return c.compileRange(c.column("created_date"), millis(v.Lower), millis(v.Upper))
	case spec.ByLastModifiedDate:
		return c.compileRange(c.column("last_modified_date"), millis(v.Lower), millis(v.Upper))
	case spec.LastModifiedSince:
		return c.column("last_modified_date") + " > ?", []any{v.Date.UnixMilli()}, nil
	case spec.ByPropertyString:
		return c.textValueExists(v.Attr, v.Lang, "v.value"+c.collate()+" = ?", v.Value)
	case spec.ByPropertyStringPrefix:
		return c.textValueExists(v.Attr, v.Lang, "substr(v.value, 1, ?)"+c.collate()+" = ?",
			int64(utf8.RuneCountInString(v.Value)), v.Value)
	case spec.ByPropertyStringRange:
		cond, params, err := c.compileRange("v.value"+c.collate(), optional(v.Lower), optional(v.Upper))
		if err != nil {
			return "", nil, err
		}
		return c.textValueExists(v.Attr, v.Lang, cond, params...)
	case spec.ByReference:
		return c.referenceExists(v.Attr, "r.value_id = ?", v.Value.String())
	case spec.WithoutReference:
		sql, params, err := c.referenceExists(v.Attr, "")
		return "NOT " + sql, params, err
	case spec.WithoutReferrer:
		return "NOT EXISTS (SELECT 1 FROM " + ReferenceValueTable + " r" +
			" WHERE r.value_graph_id = " + c.column("graph_id") +
			" AND r.value_type_id = " + c.column("type_id") +
			" AND r.value_id = " + c.column("id") +
			" AND r.attribute_id = ?)", []any{v.Attr}, nil
	case spec.ByResolvedReferencePath:
		return c.compileResolvedPath(v)
	case spec.ByProperty, spec.ByPropertyPrefix, spec.ByPropertyPhrase:
		return "", nil, &spec.UnsupportedError{Spec: s, Target: Target}
	case spec.ByReferencePath, spec.ByGraphURI, spec.ByGraphCode, spec.ByTypeURI:
		return "", nil, &spec.UnresolvedError{Spec: s}
	default:
		return "", nil, fmt.Errorf("unsupported specification type: %T", s)
	}
}

func (c *SQLCompiler) column(name string) string { return c.Table + "." + name }

func (c *SQLCompiler) collate() string {
	if c.Dialect == Postgres {
		return ` COLLATE "C"`
	}
	return " COLLATE BINARY"
}

// compileJunction joins members with op, parenthesizing each one.
// Parameters are concatenated in member order.
func (c *SQLCompiler) compileJunction(specs []spec.Specification, op, empty string) (string, []any, error) {
	switch len(specs) {
	case 0:
		return empty, nil, nil
	case 1:
		return c.compile(specs[0])
	}
	parts := make([]string, 0, len(specs))
	var params []any
	for _, m := range specs {
		sql, p, err := c.compile(m)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, "("+sql+")")
		params = append(params, p...)
	}
	return strings.Join(parts, op), params, nil
}

// compileRange renders "col >= ? AND col <= ?" for the present bounds.
func (c *SQLCompiler) compileRange(col string, lower, upper any) (string, []any, error) {
	var parts []string
	var params []any
	if lower != nil {
		parts = append(parts, col+" >= ?")
		params = append(params, lower)
	}
	if upper != nil {
		parts = append(parts, col+" <= ?")
		params = append(params, upper)
	}
	if len(parts) == 0 {
		return "1 = 1", nil, nil
	}
	return strings.Join(parts, " AND "), params, nil
}

func (c *SQLCompiler) textValueExists(attr, lang, cond string, params ...any) (string, []any, error) {
	var b strings.Builder
	b.WriteString("EXISTS (SELECT 1 FROM " + TextValueTable + " v")
	b.WriteString(" WHERE v.node_graph_id = " + c.column("graph_id"))
	b.WriteString(" AND v.node_type_id = " + c.column("type_id"))
	b.WriteString(" AND v.node_id = " + c.column("id"))
	b.WriteString(" AND v.attribute_id = ?")
	args := []any{attr}
	if lang != "" {
		b.WriteString(" AND v.lang = ?")
		args = append(args, lang)
	}
	b.WriteString(" AND " + cond + ")")
	return b.String(), append(args, params...), nil
}

// referenceExists renders EXISTS over the node's own reference values for
// attr, narrowed by cond when cond is non-empty.
func (c *SQLCompiler) referenceExists(attr, cond string, params ...any) (string, []any, error) {
	var b strings.Builder
	b.WriteString("EXISTS (SELECT 1 FROM " + ReferenceValueTable + " r")
	b.WriteString(" WHERE r.node_graph_id = " + c.column("graph_id"))
	b.WriteString(" AND r.node_type_id = " + c.column("type_id"))
	b.WriteString(" AND r.node_id = " + c.column("id"))
	b.WriteString(" AND r.attribute_id = ?")
	if cond != "" {
		b.WriteString(" AND " + cond)
	}
	b.WriteString(")")
	return b.String(), append([]any{attr}, params...), nil
}

// compileResolvedPath matches nodes referencing any resolved id. A reference
// matches on its full identity: ids are grouped by graph and type, and each
// group tests the value graph and type before the value id. Ids are sorted
// so equal trees compile to equal fragments.
func (c *SQLCompiler) compileResolvedPath(p spec.ByResolvedReferencePath) (string, []any, error) {
	if len(p.IDs) == 0 {
		return "1 = 0", nil, nil
	}
	ids := slices.Clone(p.IDs)
	slices.SortFunc(ids, domain.CompareNodeIDs)
	ids = slices.CompactFunc(ids, func(a, b domain.NodeID) bool { return a == b })

	var groups []string
	var params []any
	for start := 0; start < len(ids); {
		end := start + 1
		for end < len(ids) && ids[end].Type == ids[start].Type {
			end++
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", end-start), ", ")
		groups = append(groups, "r.value_graph_id = ? AND r.value_type_id = ? AND r.value_id IN ("+placeholders+")")
		params = append(params, ids[start].Type.Graph.String(), ids[start].Type.ID)
		for _, id := range ids[start:end] {
			params = append(params, id.ID.String())
		}
		start = end
	}
	if len(groups) == 1 {
		return c.referenceExists(p.Attr, groups[0], params...)
	}
	return c.referenceExists(p.Attr, "(("+strings.Join(groups, ") OR (")+"))", params...)
}

// optional turns a nil bound into an untyped nil parameter.
func optional[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

// millis converts a date bound to the stored Unix millisecond form.
func millis(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixMilli()
}
