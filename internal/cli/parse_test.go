package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "canonical aliases",
			args: []string{"parse", "properties.name:jo* AND NOT refs.knows.id:null"},
			want: "p.name:jo* AND NOT r.knows.id:null\n",
		},
		{
			name: "precedence",
			args: []string{"parse", "(code:A OR *:*) AND n:3"},
			want: "(code:A OR *:*) AND number:3\n",
		},
		{
			name: "simplified",
			args: []string{"parse", "--simplify", "(code:A OR *:*) AND n:3"},
			want: "number:3\n",
		},
		{
			name: "blank query",
			args: []string{"parse", "  "},
			want: "*:*\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestParseCommand_JSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "parse", "r.knows.code:PERSON-3")
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   ParseResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "r.knows.code:PERSON-3", resp.Data.Canonical)
	assert.Equal(t, "ByReferencePath", resp.Data.Tree["kind"])
	assert.Equal(t, "knows", resp.Data.Tree["attr"])
}

func TestParseCommand_Problems(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		problems []string
	}{
		{"none", "n:[1 TO 5]", nil},
		{"reversed number range", "n:[5 TO 1]", []string{"number range lower 5 exceeds upper 1"}},
		{"reversed string range", "p.name.string:[m TO a]", []string{`string range lower "m" exceeds upper "a"`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, "--format", "json", "parse", tt.query)
			require.NoError(t, err)

			var resp struct {
				Data ParseResult `json:"data"`
			}
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			assert.Equal(t, tt.problems, resp.Data.Problems)
		})
	}
}

func TestParseCommand_Error(t *testing.T) {
	out, err := execute(t, "--format", "json", "parse", "p.name:john smith")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeParse, resp.Error.Code)

	details, ok := resp.Error.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, " smith", details["remainder"])
}

func TestParseCommand_MissingArg(t *testing.T) {
	_, err := execute(t, "parse")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}
