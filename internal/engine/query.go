package engine

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/roach88/nodeql/internal/domain"
	"github.com/roach88/nodeql/internal/index"
	"github.com/roach88/nodeql/internal/spec"
	"github.com/roach88/nodeql/internal/specparse"
)

// Page restricts a result. Offset only applies when Limit is positive.
type Page struct {
	Limit  int
	Offset int
}

// Request is a query for nodes of one type.
type Request struct {
	Type    domain.TypeID
	Where   string
	Backend Backend
	Page    Page
}

// Result is the outcome of a query.
type Result struct {
	// Spec is the tree that ran, with reference paths resolved.
	Spec spec.Specification

	// Backend is where Spec ran.
	Backend Backend

	// IDs are the matching node ids in key order.
	IDs []domain.NodeID

	// Nodes are filled by Query only, parallel to IDs.
	Nodes []domain.Node
}

// Keys runs req and returns the matching ids.
func (e *Engine) Keys(ctx context.Context, req Request) (result *Result, err error) {
	ctx, span := e.startTrace(ctx, "Keys")
	defer span.End()
	span.SetAttributes(attribute.String("type", e.catalog.Name(req.Type)))

	start := time.Now()
	var backend Backend
	defer func() { finish(span, backend, start, err) }()

	prepared, err := e.Prepare(req.Type, req.Where)
	if err != nil {
		return nil, err
	}
	resolved, err := e.Resolve(ctx, prepared)
	if err != nil {
		return nil, newResolutionError(req.Where, err)
	}

	backend = e.choose(resolved, req.Backend)
	e.logger.DebugWithContext(ctx, "executing query",
		zap.String("type", e.catalog.Name(req.Type)),
		zap.String("where", req.Where),
		zap.Stringer("spec", resolved),
		zap.String("backend", string(backend)),
	)

	ids, err := e.keys(ctx, resolved, backend, req.Page)
	if err != nil {
		return nil, newBackendError(backend, req.Where, err)
	}
	span.SetAttributes(attribute.Int("keys", len(ids)))
	return &Result{Spec: resolved, Backend: backend, IDs: ids}, nil
}

// Query runs req and loads the matching nodes from the store.
func (e *Engine) Query(ctx context.Context, req Request) (*Result, error) {
	result, err := e.Keys(ctx, req)
	if err != nil {
		return nil, err
	}
	nodes, err := e.store.Nodes(ctx, result.IDs)
	if err != nil {
		return nil, newBackendError(BackendSQL, req.Where, err)
	}
	byID := make(map[domain.NodeID]domain.Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	// The index may briefly list a node the store no longer has
	ids := result.IDs[:0]
	for _, id := range result.IDs {
		if n, ok := byID[id]; ok {
			ids = append(ids, id)
			result.Nodes = append(result.Nodes, n)
		}
	}
	result.IDs = ids
	return result, nil
}

// Count returns the number of nodes matching req. Paging is ignored.
func (e *Engine) Count(ctx context.Context, req Request) (int, error) {
	req.Page = Page{}
	prepared, err := e.Prepare(req.Type, req.Where)
	if err != nil {
		return 0, err
	}
	resolved, err := e.Resolve(ctx, prepared)
	if err != nil {
		return 0, newResolutionError(req.Where, err)
	}

	backend := e.choose(resolved, req.Backend)
	var n int
	switch backend {
	case BackendSQL:
		n, err = e.store.Count(ctx, resolved)
	case BackendSearch:
		if e.index == nil {
			err = fmt.Errorf("no search index configured")
			break
		}
		n, err = e.index.Count(ctx, resolved)
	default:
		err = fmt.Errorf("unknown backend %q", backend)
	}
	if err != nil {
		return 0, newBackendError(backend, req.Where, err)
	}
	return n, nil
}

// Search applies where to every readable type and returns scored hits from
// the index. Each type sees where through its own filter, so an attribute
// only narrows the types that declare it.
func (e *Engine) Search(ctx context.Context, where string, page Page) (hits []index.Hit, err error) {
	ctx, span := e.startTrace(ctx, "Search")
	defer span.End()

	start := time.Now()
	backend := BackendSearch
	defer func() { finish(span, backend, start, err) }()

	parsed, err := specparse.Parse(where)
	if err != nil {
		return nil, newParseError(where, err)
	}

	types := e.ReadableTypes()
	members := make([]spec.Specification, len(types))
	for i, t := range types {
		members[i] = e.prepare(t.ID, parsed)
	}
	return e.search(ctx, spec.Simplify(spec.Or{Specs: members}), where, page)
}

// Suggest finds nodes of one type whose text attributes start with every
// word of text. Earlier attributes rank higher.
func (e *Engine) Suggest(ctx context.Context, viewing domain.TypeID, text string, page Page) (hits []index.Hit, err error) {
	ctx, span := e.startTrace(ctx, "Suggest")
	defer span.End()

	start := time.Now()
	backend := BackendSearch
	defer func() { finish(span, backend, start, err) }()

	if !e.readable[viewing] {
		return nil, &QueryError{
			Code:    ErrCodeUnknownType,
			Message: fmt.Sprintf("type %s is not readable", e.catalog.Name(viewing)),
			Query:   text,
		}
	}
	t, _ := e.catalog.Type(viewing)
	return e.search(ctx, spec.ByAnyPropertyPrefix(t, text), text, page)
}

func (e *Engine) search(ctx context.Context, s spec.Specification, query string, page Page) ([]index.Hit, error) {
	if e.index == nil {
		return nil, newBackendError(BackendSearch, query, fmt.Errorf("no search index configured"))
	}
	resolved, err := e.Resolve(ctx, s)
	if err != nil {
		return nil, newResolutionError(query, err)
	}
	e.logger.DebugWithContext(ctx, "executing search", zap.Stringer("spec", resolved))

	hits, err := e.index.Search(ctx, resolved, index.Page{Limit: page.Limit, Offset: page.Offset})
	if err != nil {
		return nil, newBackendError(BackendSearch, query, err)
	}
	return hits, nil
}
