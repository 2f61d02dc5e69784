package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type compileResponse struct {
	Status string            `json:"status"`
	Data   CompilationResult `json:"data"`
	Error  *CLIError         `json:"error"`
}

func TestCompileCommand_SQLText(t *testing.T) {
	out, err := execute(t, "--catalog", testCatalog, "compile", "acme.Person", "code:PERSON-2")
	require.NoError(t, err)

	assert.Contains(t, out, "graph.id:11111111-1111-1111-1111-111111111111 AND type.id:Person AND code:PERSON-2")
	assert.Contains(t, out, "(node.graph_id = ?) AND (node.type_id = ?) AND (node.code = ?)")
	assert.Contains(t, out, "$3 = PERSON-2")
}

func TestCompileCommand_SQLJSON(t *testing.T) {
	out, err := execute(t, "--catalog", testCatalog, "--format", "json", "compile", "acme.Person", "n:[2 TO *]")
	require.NoError(t, err)

	var resp compileResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, TargetSQL, resp.Data.Target)
	assert.Equal(t, "(node.graph_id = ?) AND (node.type_id = ?) AND (node.number >= ?)", resp.Data.SQL)
	// JSON numbers decode as float64
	assert.Equal(t, []any{"11111111-1111-1111-1111-111111111111", "Person", float64(2)}, resp.Data.Params)
}

func TestCompileCommand_ResolvesAgainstStore(t *testing.T) {
	db := seedStore(t)

	out, err := execute(t, "--catalog", testCatalog, "--sqlite-path", db, "--format", "json",
		"compile", "acme.Person", "r.knows.code:PERSON-3")
	require.NoError(t, err)

	var resp compileResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Contains(t, resp.Data.SQL, "r.value_graph_id = ? AND r.value_type_id = ? AND r.value_id IN (?)")
	acme := "11111111-1111-1111-1111-111111111111"
	assert.Equal(t, []any{acme, "Person", "knows", acme, "Person", "00000000-0000-0000-0000-000000000003"}, resp.Data.Params)
}

func TestCompileCommand_Search(t *testing.T) {
	out, err := execute(t, "--catalog", testCatalog, "--format", "json",
		"compile", "--target", "search", "acme.Person", "p.name:john")
	require.NoError(t, err)

	var resp compileResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, TargetSearch, resp.Data.Target)
	assert.Empty(t, resp.Data.SQL)
	assert.Contains(t, string(resp.Data.Search), "john")
}

func TestCompileCommand_Postgres(t *testing.T) {
	out, err := execute(t, "--catalog", testCatalog, "--format", "json",
		"compile", "--dialect", "postgres", "acme.Person", "p.name.string:Amy")
	require.NoError(t, err)

	var resp compileResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Contains(t, resp.Data.SQL, `COLLATE "C"`)
}

func TestCompileCommand_Errors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode string
		wantExit int
	}{
		{
			name:     "tokenized text has no SQL form",
			args:     []string{"compile", "acme.Person", "p.name:john"},
			wantCode: ErrCodeCompile,
			wantExit: ExitCommandError,
		},
		{
			name:     "unknown type",
			args:     []string{"compile", "acme.Robot", "*:*"},
			wantCode: ErrCodeUnknownType,
			wantExit: ExitCommandError,
		},
		{
			name:     "parse error",
			args:     []string{"compile", "acme.Person", "code:"},
			wantCode: ErrCodeParse,
			wantExit: ExitCommandError,
		},
		{
			name:     "unknown target",
			args:     []string{"compile", "--target", "mongo", "acme.Person", "*:*"},
			wantCode: ErrCodeConfig,
			wantExit: ExitCommandError,
		},
		{
			name:     "unknown dialect",
			args:     []string{"compile", "--dialect", "oracle", "acme.Person", "*:*"},
			wantCode: ErrCodeConfig,
			wantExit: ExitCommandError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--catalog", testCatalog, "--format", "json"}, tt.args...)
			out, err := execute(t, args...)
			require.Error(t, err)
			assert.Equal(t, tt.wantExit, GetExitCode(err))

			var resp compileResponse
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestCompileCommand_NoCatalog(t *testing.T) {
	_, err := execute(t, "compile", "acme.Person", "*:*")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "no catalog configured")
}
