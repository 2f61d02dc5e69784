package specsql

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nodeql/internal/domain"
	"github.com/roach88/nodeql/internal/spec"
)

var (
	graphID  = domain.GraphID{ID: uuid.MustParse("11111111-1111-1111-1111-111111111111")}
	personID = domain.TypeID{ID: "Person", Graph: graphID}
	maryUUID = uuid.MustParse("00000000-0000-0000-0000-000000000002")
	day      = time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)
)

const (
	textExists = "EXISTS (SELECT 1 FROM node_text_attribute_value v WHERE v.node_graph_id = node.graph_id AND v.node_type_id = node.type_id AND v.node_id = node.id AND v.attribute_id = ?"
	refExists  = "EXISTS (SELECT 1 FROM node_reference_attribute_value r WHERE r.node_graph_id = node.graph_id AND r.node_type_id = node.type_id AND r.node_id = node.id AND r.attribute_id = ?"
)

func TestCompileLeaves(t *testing.T) {
	tests := []struct {
		name   string
		spec   spec.Specification
		sql    string
		params []any
	}{
		{"match all", spec.MatchAll{}, "1 = 1", nil},
		{"match none", spec.MatchNone{}, "1 = 0", nil},
		{"id", spec.ByID{ID: maryUUID}, "node.id = ?", []any{maryUUID.String()}},
		{"code", spec.ByCode{Code: "X"}, "node.code = ?", []any{"X"}},
		{"uri", spec.ByURI{URI: "http://x"}, "node.uri = ?", []any{"http://x"}},
		{"number", spec.ByNumber{Number: 3}, "node.number = ?", []any{int64(3)}},
		{"number range", spec.ByNumberRange{Lower: spec.Ptr[int64](1), Upper: spec.Ptr[int64](9)},
			"node.number >= ? AND node.number <= ?", []any{int64(1), int64(9)}},
		{"open number range", spec.ByNumberRange{}, "1 = 1", nil},
		{"graph", spec.ByGraphID{Graph: graphID}, "node.graph_id = ?", []any{graphID.String()}},
		{"type", spec.ByTypeID{TypeID: "Person"}, "node.type_id = ?", []any{"Person"}},
		{"created", spec.ByCreatedDate{Lower: &day}, "node.created_date >= ?", []any{day.UnixMilli()}},
		{"modified", spec.ByLastModifiedDate{Upper: &day}, "node.last_modified_date <= ?", []any{day.UnixMilli()}},
		{"modified since", spec.LastModifiedSince{Date: day}, "node.last_modified_date > ?", []any{day.UnixMilli()}},
		{"property string", spec.ByPropertyString{Attr: "name", Value: "John"},
			textExists + " AND v.value COLLATE BINARY = ?)", []any{"name", "John"}},
		{"property string lang", spec.ByPropertyString{Attr: "name", Lang: "fi", Value: "Jussi"},
			textExists + " AND v.lang = ? AND v.value COLLATE BINARY = ?)", []any{"name", "fi", "Jussi"}},
		{"property string prefix", spec.ByPropertyStringPrefix{Attr: "name", Value: "Sepä"},
			textExists + " AND substr(v.value, 1, ?) COLLATE BINARY = ?)", []any{"name", int64(4), "Sepä"}},
		{"property string range", spec.ByPropertyStringRange{Attr: "name", Lower: spec.Ptr("a"), Upper: spec.Ptr("m")},
			textExists + " AND v.value COLLATE BINARY >= ? AND v.value COLLATE BINARY <= ?)", []any{"name", "a", "m"}},
		{"reference", spec.ByReference{Attr: "knows", Value: maryUUID},
			refExists + " AND r.value_id = ?)", []any{"knows", maryUUID.String()}},
		{"without reference", spec.WithoutReference{Attr: "knows"},
			"NOT " + refExists + ")", []any{"knows"}},
		{"without referrer", spec.WithoutReferrer{Attr: "knows"},
			"NOT EXISTS (SELECT 1 FROM node_reference_attribute_value r WHERE r.value_graph_id = node.graph_id AND r.value_type_id = node.type_id AND r.value_id = node.id AND r.attribute_id = ?)",
			[]any{"knows"}},
		{"resolved path empty", spec.ByResolvedReferencePath{Attr: "knows"}, "1 = 0", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, params, err := NewSQLCompiler().Compile(tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.sql, sql)
			assert.Equal(t, tt.params, params)
		})
	}
}

func TestCompileCombinators(t *testing.T) {
	x, y := spec.ByCode{Code: "x"}, spec.ByCode{Code: "y"}
	tests := []struct {
		name   string
		spec   spec.Specification
		sql    string
		params []any
	}{
		{"empty and", spec.And{}, "1 = 1", nil},
		{"empty or", spec.Or{}, "1 = 0", nil},
		{"single and", spec.NewAnd(x), "node.code = ?", []any{"x"}},
		{"and", spec.NewAnd(x, y), "(node.code = ?) AND (node.code = ?)", []any{"x", "y"}},
		{"or", spec.NewOr(x, y), "(node.code = ?) OR (node.code = ?)", []any{"x", "y"}},
		{"not", spec.Not{Spec: x}, "NOT (node.code = ?)", []any{"x"}},
		{"boost", spec.Boost{Spec: x, Factor: 8}, "node.code = ?", []any{"x"}},
		{"nested", spec.NewAnd(x, spec.NewOr(y, spec.Not{Spec: x})),
			"(node.code = ?) AND ((node.code = ?) OR (NOT (node.code = ?)))", []any{"x", "y", "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, params, err := NewSQLCompiler().Compile(tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.sql, sql)
			assert.Equal(t, tt.params, params)
		})
	}
}

func TestCompileResolvedPath(t *testing.T) {
	a := domain.NodeID{ID: uuid.MustParse("00000000-0000-0000-0000-00000000000a"), Type: personID}
	b := domain.NodeID{ID: uuid.MustParse("00000000-0000-0000-0000-00000000000b"), Type: personID}
	groupID := domain.TypeID{ID: "Group", Graph: personID.Graph}
	g := domain.NodeID{ID: a.ID, Type: groupID}

	tests := []struct {
		name   string
		ids    []domain.NodeID
		cond   string
		params []any
	}{
		{
			name:   "sorted and compacted",
			ids:    []domain.NodeID{b, a, b},
			cond:   " AND r.value_graph_id = ? AND r.value_type_id = ? AND r.value_id IN (?, ?))",
			params: []any{"knows", personID.Graph.String(), "Person", a.ID.String(), b.ID.String()},
		},
		{
			name: "one group per type",
			ids:  []domain.NodeID{a, g},
			cond: " AND ((r.value_graph_id = ? AND r.value_type_id = ? AND r.value_id IN (?))" +
				" OR (r.value_graph_id = ? AND r.value_type_id = ? AND r.value_id IN (?))))",
			params: []any{"knows",
				personID.Graph.String(), "Group", a.ID.String(),
				personID.Graph.String(), "Person", a.ID.String(),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, params, err := NewSQLCompiler().Compile(spec.ByResolvedReferencePath{Attr: "knows", IDs: tt.ids})
			require.NoError(t, err)
			assert.Equal(t, refExists+tt.cond, sql)
			assert.Equal(t, tt.params, params)
		})
	}
}

func TestCompilePostgresCollation(t *testing.T) {
	c := NewSQLCompiler()
	c.Dialect = Postgres
	c.Table = "n"

	sql, _, err := c.Compile(spec.ByPropertyString{Attr: "name", Value: "x"})
	require.NoError(t, err)
	assert.Contains(t, sql, `v.value COLLATE "C" = ?`)
	assert.Contains(t, sql, "v.node_id = n.id")
}

func TestCompileErrors(t *testing.T) {
	unsupported := []spec.Specification{
		spec.ByProperty{Attr: "name", Value: "john"},
		spec.ByPropertyPrefix{Attr: "name", Value: "jo"},
		spec.ByPropertyPhrase{Attr: "name", Phrase: "john smith"},
		spec.NewAnd(spec.ByCode{Code: "x"}, spec.ByProperty{Attr: "name", Value: "john"}),
	}
	for _, s := range unsupported {
		_, _, err := NewSQLCompiler().Compile(s)
		assert.True(t, spec.IsUnsupported(err), s.String())
		assert.False(t, Compilable(s))
	}

	unresolved := []spec.Specification{
		spec.ByGraphCode{Code: "acme"},
		spec.ByGraphURI{URI: "http://acme"},
		spec.ByTypeURI{URI: "http://acme/Person"},
		spec.ByReferencePath{Attr: "knows", Value: spec.MatchAll{}},
	}
	for _, s := range unresolved {
		_, _, err := NewSQLCompiler().Compile(s)
		assert.True(t, spec.IsUnresolved(err), s.String())
		assert.False(t, Compilable(s))
	}

	_, _, err := NewSQLCompiler().Compile(nil)
	assert.Error(t, err)

	assert.True(t, Compilable(spec.NewAnd(spec.ByCode{Code: "x"}, spec.ByResolvedReferencePath{Attr: "knows"})))
}

// golden renders a fragment and its parameters one per line.
func golden(sql string, params []any) []byte {
	var b strings.Builder
	b.WriteString(sql)
	b.WriteString("\n")
	for _, p := range params {
		fmt.Fprintf(&b, "%T %v\n", p, p)
	}
	return []byte(b.String())
}

func TestCompileGolden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	tests := []struct {
		name string
		spec spec.Specification
	}{
		{"person_by_name_and_date", spec.ForType(personID, spec.NewAnd(
			spec.ByPropertyStringPrefix{Attr: "name", Lang: "en", Value: "Jo"},
			spec.ByCreatedDate{Lower: &day},
		))},
		{"person_without_friends_or_referrers", spec.ForType(personID, spec.NewOr(
			spec.WithoutReference{Attr: "knows"},
			spec.Not{Spec: spec.WithoutReferrer{Attr: "knows"}},
		))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, params, err := NewSQLCompiler().Compile(tt.spec)
			require.NoError(t, err)
			g.Assert(t, tt.name, golden(sql, params))
		})
	}
}
