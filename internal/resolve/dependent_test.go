package resolve

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nodeql/internal/domain"
	"github.com/roach88/nodeql/internal/spec"
	"github.com/roach88/nodeql/internal/specparse"
	"github.com/roach88/nodeql/internal/testutil"
)

// evalRun runs specifications against the fixture in memory.
func evalRun(p *testutil.People) RunFunc {
	return func(_ context.Context, s spec.Specification) ([]domain.NodeID, error) {
		var ids []domain.NodeID
		for i := range p.Nodes {
			n := &p.Nodes[i]
			ok, err := spec.Evaluate(s, n.ID, n)
			if err != nil {
				return nil, err
			}
			if ok {
				ids = append(ids, n.ID)
			}
		}
		return ids, nil
	}
}

func matching(t *testing.T, p *testutil.People, s spec.Specification) []string {
	t.Helper()
	ids, err := evalRun(p)(context.Background(), s)
	require.NoError(t, err)
	return p.Codes(ids)
}

func TestDependentResolveNested(t *testing.T) {
	p := testutil.NewPeople()
	r := NewDependentResolver(evalRun(p))

	got, err := r.Resolve(context.Background(), specparse.MustParse("r.knows.r.knows.code:PERSON-3"))
	require.NoError(t, err)
	assert.False(t, spec.HasDependent(got))

	path, ok := got.(spec.ByResolvedReferencePath)
	require.True(t, ok, "got %T", got)
	assert.Equal(t, "knows", path.Attr)
	assert.Equal(t, []domain.NodeID{p.Mary.ID}, path.IDs)
	assert.Equal(t, []string{"PERSON-1"}, matching(t, p, got))
}

func TestDependentResolveInsideCombinators(t *testing.T) {
	p := testutil.NewPeople()
	r := NewDependentResolver(evalRun(p))

	got, err := r.Resolve(context.Background(),
		specparse.MustParse("NOT r.member.p.name:amy AND (r.knows.code:PERSON-2 OR code:PERSON-3)^2"))
	require.NoError(t, err)
	assert.False(t, spec.HasDependent(got))
	assert.Equal(t, []string{"PERSON-1", "PERSON-3"}, matching(t, p, got))
}

func TestDependentResolveWithoutPaths(t *testing.T) {
	r := NewDependentResolver(func(context.Context, spec.Specification) ([]domain.NodeID, error) {
		t.Fatal("run must not be called")
		return nil, nil
	})
	in := specparse.MustParse("code:PERSON-1 OR p.name:john")

	got, err := r.Resolve(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestDependentResolveSortsAndDeduplicates(t *testing.T) {
	p := testutil.NewPeople()
	r := NewDependentResolver(func(context.Context, spec.Specification) ([]domain.NodeID, error) {
		return []domain.NodeID{p.Amy.ID, p.John.ID, p.Amy.ID, p.Mary.ID, p.John.ID}, nil
	})

	got, err := r.Resolve(context.Background(), spec.ByReferencePath{Attr: "knows", Value: spec.MatchAll{}})
	require.NoError(t, err)
	assert.Equal(t, []domain.NodeID{p.John.ID, p.Mary.ID, p.Amy.ID}, got.(spec.ByResolvedReferencePath).IDs)
}

func TestDependentResolveError(t *testing.T) {
	boom := errors.New("boom")
	r := NewDependentResolver(func(context.Context, spec.Specification) ([]domain.NodeID, error) {
		return nil, boom
	})

	_, err := r.Resolve(context.Background(), specparse.MustParse("code:x AND r.knows.code:y"))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), `"knows"`)
}

func TestDependentResolveCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewDependentResolver(func(context.Context, spec.Specification) ([]domain.NodeID, error) {
		t.Fatal("run must not be called")
		return nil, nil
	})

	_, err := r.Resolve(ctx, specparse.MustParse("r.knows.code:y"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDependentResolveConcurrent(t *testing.T) {
	p := testutil.NewPeople()
	q := specparse.MustParse("r.knows.code:PERSON-2 OR r.knows.code:PERSON-3 OR r.member.code:PERSON-1 OR r.knows.r.knows.code:PERSON-3")

	sequential, err := NewDependentResolver(evalRun(p)).Resolve(context.Background(), q)
	require.NoError(t, err)

	var inFlight, peak atomic.Int32
	run := evalRun(p)
	concurrent, err := NewDependentResolver(func(ctx context.Context, s spec.Specification) ([]domain.NodeID, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		return run(ctx, s)
	}, WithConcurrency(2)).Resolve(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, sequential, concurrent)
	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Equal(t, []string{"PERSON-1", "PERSON-2", "GROUP-1"}, matching(t, p, concurrent))
}

func TestDependentResolveConcurrentError(t *testing.T) {
	boom := errors.New("boom")
	var mu sync.Mutex
	calls := 0
	r := NewDependentResolver(func(ctx context.Context, s spec.Specification) ([]domain.NodeID, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		if s.String() == "code:bad" {
			return nil, boom
		}
		return nil, nil
	}, WithConcurrency(4))

	_, err := r.Resolve(context.Background(), specparse.MustParse("r.knows.code:ok OR r.knows.code:bad OR r.member.code:ok"))
	assert.ErrorIs(t, err, boom)
	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, calls, 1)
}
