package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/nodeql/internal/domain"
	"github.com/roach88/nodeql/internal/spec"
	"github.com/roach88/nodeql/internal/testutil"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createPeopleStore creates a store holding the people fixture.
func createPeopleStore(t *testing.T) (*Store, *testutil.People) {
	t.Helper()
	s := createTestStore(t)
	p := testutil.NewPeople()
	require.NoError(t, s.SaveNodes(context.Background(), p.Nodes...))
	return s, p
}

// evaluateCodes returns the codes of fixture nodes matching sp in memory.
func evaluateCodes(t *testing.T, p *testutil.People, sp spec.Specification) []string {
	t.Helper()
	var ids []domain.NodeID
	for i := range p.Nodes {
		ok, err := spec.Evaluate(sp, p.Nodes[i].ID, &p.Nodes[i])
		require.NoError(t, err)
		if ok {
			ids = append(ids, p.Nodes[i].ID)
		}
	}
	return p.Codes(ids)
}
