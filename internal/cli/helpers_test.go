package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/nodeql/internal/store"
	"github.com/roach88/nodeql/internal/testutil"
)

const testCatalog = "testdata/catalog"

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

// seedStore writes the people fixture to a SQLite file and returns its path.
func seedStore(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "people.db")
	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()

	require.NoError(t, st.SaveNodes(context.Background(), testutil.NewPeople().Nodes...))
	return path
}
