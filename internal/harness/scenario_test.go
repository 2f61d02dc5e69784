package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_People(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/people.yaml")
	require.NoError(t, err)

	assert.Equal(t, "people", s.Name)
	assert.Equal(t, filepath.Join("testdata", "catalog"), s.Catalog)
	assert.Len(t, s.Nodes, 5)
	assert.Len(t, s.Queries, 19)

	mary := s.Nodes[1]
	assert.Equal(t, "PERSON-2", mary.Code)
	require.Len(t, mary.Properties["name"], 2)
	assert.Equal(t, "fi", mary.Properties["name"][1].Lang)
	assert.Equal(t, []string{"acme.Person/00000000-0000-0000-0000-000000000003"}, mary.References["knows"])

	last := s.Queries[len(s.Queries)-1]
	assert.True(t, last.Search)
	assert.True(t, last.Unordered)
	assert.Equal(t, "code in every graph", last.Label())
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("testdata/scenarios/nope.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	_, err := LoadScenario("testdata/broken/typo.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "querys")
}

func TestQueryStep_Label(t *testing.T) {
	assert.Equal(t, "code:A", QueryStep{Where: "code:A"}.Label())
	assert.Equal(t, "named", QueryStep{Name: "named", Where: "code:A"}.Label())
}

func TestParseScenario_Validation(t *testing.T) {
	const header = "name: x\ndescription: y\ncatalog: ../catalog\n"

	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing name",
			yaml: "description: y\ncatalog: ../catalog\nqueries: [{type: acme.Person, where: '*:*', count: 0}]\n",
			want: "name is required",
		},
		{
			name: "missing description",
			yaml: "name: x\ncatalog: ../catalog\nqueries: [{type: acme.Person, where: '*:*', count: 0}]\n",
			want: "description is required",
		},
		{
			name: "missing catalog",
			yaml: "name: x\ndescription: y\nqueries: [{type: acme.Person, where: '*:*', count: 0}]\n",
			want: "catalog is required",
		},
		{
			name: "catalog not found",
			yaml: "name: x\ndescription: y\ncatalog: ../nowhere\nqueries: [{type: acme.Person, where: '*:*', count: 0}]\n",
			want: "catalog directory not found",
		},
		{
			name: "no queries",
			yaml: header,
			want: "queries list is required",
		},
		{
			name: "node without id",
			yaml: header + "nodes: [{code: A}]\nqueries: [{type: acme.Person, where: '*:*', count: 0}]\n",
			want: "nodes[0]: id is required",
		},
		{
			name: "typed query without type",
			yaml: header + "queries: [{where: '*:*', count: 0}]\n",
			want: "queries[0]: type is required",
		},
		{
			name: "search query with type",
			yaml: header + "queries: [{search: true, type: acme.Person, where: '*:*', count: 0}]\n",
			want: "queries[0]: search queries take no type",
		},
		{
			name: "no expectation",
			yaml: header + "queries: [{type: acme.Person, where: '*:*'}]\n",
			want: "exactly one of expect, count or error",
		},
		{
			name: "two expectations",
			yaml: header + "queries: [{type: acme.Person, where: '*:*', count: 0, error: PARSE}]\n",
			want: "exactly one of expect, count or error",
		},
		{
			name: "unknown backend",
			yaml: header + "queries: [{type: acme.Person, where: '*:*', count: 0, backends: [mongo]}]\n",
			want: `unknown backend "mongo"`,
		},
		{
			name: "auto is not a backend",
			yaml: header + "queries: [{type: acme.Person, where: '*:*', count: 0, backends: [auto]}]\n",
			want: `unknown backend "auto"`,
		},
		{
			name: "search query with backends",
			yaml: header + "queries: [{search: true, where: '*:*', count: 0, backends: [sql]}]\n",
			want: "search queries always run on the index",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml), "testdata/scenarios")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseScenario_EmptyExpect(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: x
description: y
catalog: ../catalog
queries:
  - type: acme.Person
    where: "*:*"
    expect: []
`), "testdata/scenarios")
	require.NoError(t, err)
	require.NotNil(t, s.Queries[0].Expect)
	assert.Empty(t, s.Queries[0].Expect)
}
