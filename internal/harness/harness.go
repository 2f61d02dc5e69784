package harness

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/roach88/nodeql/internal/catalog"
	"github.com/roach88/nodeql/internal/domain"
	"github.com/roach88/nodeql/internal/engine"
	"github.com/roach88/nodeql/internal/index"
	"github.com/roach88/nodeql/internal/specsql"
	"github.com/roach88/nodeql/internal/store"
	"github.com/roach88/nodeql/internal/testutil"
)

// Harness is the test execution engine.
// It runs scenarios with a deterministic clock against isolated backends.
type Harness struct {
	catalog *catalog.Catalog
	engine  *engine.Engine
	clock   *testutil.DeterministicClock
	codes   map[domain.NodeID]string
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database and index for isolation.
//
// Execution flow:
// 1. Load the CUE catalog
// 2. Create in-memory store, index and engine
// 3. Save all nodes in one batch
// 4. Run each query on its backends and check the expectation
// 5. Return result with pass/fail, outcomes, and errors
//
// Setup failures (catalog, nodes) are returned as errors; query mismatches
// are reported in the result.
func Run(scenario *Scenario) (*Result, error) {
	loaded, errs := catalog.Load(scenario.Catalog, catalog.LoadModeCollectAll)
	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to load catalog: %w", errors.Join(errs...))
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	idx, err := index.NewMemOnly()
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory index: %w", err)
	}
	defer idx.Close()

	eng, err := engine.New(loaded.Catalog, st, engine.WithIndex(idx))
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	h := &Harness{
		catalog: loaded.Catalog,
		engine:  eng,
		clock:   testutil.NewDeterministicClock(),
		codes:   make(map[domain.NodeID]string),
	}

	ctx := context.Background()
	if err := h.saveNodes(ctx, scenario.Nodes); err != nil {
		return nil, fmt.Errorf("failed to save nodes: %w", err)
	}

	result := NewResult()
	for _, q := range scenario.Queries {
		for _, outcome := range h.runQuery(ctx, q) {
			result.Outcomes = append(result.Outcomes, outcome)
			if err := checkOutcome(q, outcome); err != nil {
				result.AddError(err.Error())
			}
		}
	}
	return result, nil
}

func (h *Harness) saveNodes(ctx context.Context, steps []NodeStep) error {
	nodes := make([]domain.Node, 0, len(steps))
	for i, step := range steps {
		n, err := h.node(step)
		if err != nil {
			return fmt.Errorf("nodes[%d]: %w", i, err)
		}
		h.codes[n.ID] = n.Code
		nodes = append(nodes, n)
	}
	return h.engine.SaveNodes(ctx, nodes...)
}

func (h *Harness) node(step NodeStep) (domain.Node, error) {
	id, err := h.nodeID(step.ID)
	if err != nil {
		return domain.Node{}, err
	}

	created := h.clock.Next()
	if step.Created != nil {
		created = step.Created.UTC()
	}
	modified := created
	if step.Modified != nil {
		modified = step.Modified.UTC()
	}

	n := domain.Node{
		ID:               id,
		Code:             step.Code,
		URI:              step.URI,
		Number:           step.Number,
		CreatedDate:      created,
		LastModifiedDate: modified,
		Properties:       step.Properties,
	}
	if len(step.References) > 0 {
		n.References = make(map[string][]domain.NodeID, len(step.References))
		for attr, targets := range step.References {
			for _, t := range targets {
				target, err := h.nodeID(t)
				if err != nil {
					return domain.Node{}, fmt.Errorf("reference %s: %w", attr, err)
				}
				n.References[attr] = append(n.References[attr], target)
			}
		}
	}
	return n, nil
}

// nodeID parses "<graph>.<Type>/<uuid>".
func (h *Harness) nodeID(s string) (domain.NodeID, error) {
	typeName, rawID, ok := strings.Cut(s, "/")
	if !ok {
		return domain.NodeID{}, fmt.Errorf("node id %q: want <graph>.<Type>/<uuid>", s)
	}
	t, ok := h.catalog.TypeByName(typeName)
	if !ok {
		return domain.NodeID{}, fmt.Errorf("node id %q: unknown type %s", s, typeName)
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return domain.NodeID{}, fmt.Errorf("node id %q: %w", s, err)
	}
	return domain.NodeID{ID: id, Type: t.ID}, nil
}

// runQuery returns one outcome per backend the query ran on.
func (h *Harness) runQuery(ctx context.Context, q QueryStep) []QueryOutcome {
	if q.Search {
		outcome := QueryOutcome{Name: q.Label(), Backend: string(engine.BackendSearch)}
		hits, err := h.engine.Search(ctx, q.Where, engine.Page{})
		if err != nil {
			outcome.Error = errorCode(err)
			return []QueryOutcome{outcome}
		}
		ids := make([]domain.NodeID, len(hits))
		for i, hit := range hits {
			ids[i] = hit.ID
		}
		outcome.Codes = h.codesOf(ids)
		outcome.Count = len(ids)
		return []QueryOutcome{outcome}
	}

	t, ok := h.catalog.TypeByName(q.Type)
	if !ok {
		return []QueryOutcome{{Name: q.Label(), Error: string(engine.ErrCodeUnknownType)}}
	}

	backends, err := h.backends(ctx, t.ID, q)
	if err != nil {
		return []QueryOutcome{{Name: q.Label(), Error: errorCode(err)}}
	}

	outcomes := make([]QueryOutcome, 0, len(backends))
	for _, backend := range backends {
		outcome := QueryOutcome{Name: q.Label(), Backend: string(backend)}
		res, err := h.engine.Keys(ctx, engine.Request{Type: t.ID, Where: q.Where, Backend: backend})
		if err != nil {
			outcome.Error = errorCode(err)
			outcomes = append(outcomes, outcome)
			continue
		}
		outcome.Codes = h.codesOf(res.IDs)
		outcome.Count = len(res.IDs)
		if backend == engine.BackendSQL {
			outcome.SQL, outcome.Params, _ = specsql.NewSQLCompiler().Compile(res.Spec)
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

// backends lists where a typed query runs: the requested backends, or the
// index plus the store when the resolved tree compiles to SQL.
func (h *Harness) backends(ctx context.Context, viewing domain.TypeID, q QueryStep) ([]engine.Backend, error) {
	if len(q.Backends) > 0 {
		out := make([]engine.Backend, len(q.Backends))
		for i, b := range q.Backends {
			out[i], _ = engine.ParseBackend(b)
		}
		return out, nil
	}

	prepared, err := h.engine.Prepare(viewing, q.Where)
	if err != nil {
		return nil, err
	}
	resolved, err := h.engine.Resolve(ctx, prepared)
	if err != nil {
		return nil, &engine.QueryError{Code: engine.ErrCodeResolution, Message: "reference path resolution failed", Query: q.Where, Err: err}
	}
	if specsql.Compilable(resolved) {
		return []engine.Backend{engine.BackendSQL, engine.BackendSearch}, nil
	}
	return []engine.Backend{engine.BackendSearch}, nil
}

func (h *Harness) codesOf(ids []domain.NodeID) []string {
	codes := make([]string, len(ids))
	for i, id := range ids {
		if code, ok := h.codes[id]; ok {
			codes[i] = code
		} else {
			codes[i] = id.String()
		}
	}
	return codes
}

// errorCode maps err to its QueryError code, or "ERROR" for anything else.
func errorCode(err error) string {
	var qe *engine.QueryError
	if errors.As(err, &qe) {
		return string(qe.Code)
	}
	return "ERROR"
}
