package index

import (
	"context"
	"errors"
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search"
	"github.com/blevesearch/bleve/v2/search/query"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/roach88/nodeql/internal/domain"
	"github.com/roach88/nodeql/internal/logger"
	"github.com/roach88/nodeql/internal/spec"
	"github.com/roach88/nodeql/internal/specsearch"
)

// DefaultPageSize is how many hits one search request fetches when a
// query is read to the end.
const DefaultPageSize = 500

var tracer = otel.Tracer("nodeql/internal/index")

func startTrace(ctx context.Context, name string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "index."+name)
}

// keyOrder sorts by the identity fields one by one, as the store does.
// Sorting on the document id would compare "<graph>/<type>/<id>" as a whole
// and put type "A-b" before "A". Fields sort as strings so that no type id
// is taken for a prefix-coded number.
func keyOrder() search.SortOrder {
	fields := []string{specsearch.FieldGraphID, specsearch.FieldTypeID, specsearch.FieldID}
	order := make(search.SortOrder, len(fields))
	for n, f := range fields {
		order[n] = &search.SortField{Field: f, Type: search.SortFieldAsString}
	}
	return order
}

// Index is a full-text node index.
type Index struct {
	index    bleve.Index
	logger   logger.Logger
	pageSize int
}

// Option configures an Index.
type Option func(*Index)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l logger.Logger) Option {
	return func(i *Index) {
		i.logger = l
	}
}

// WithPageSize sets how many hits each underlying search request fetches.
// Values below 1 keep DefaultPageSize.
func WithPageSize(n int) Option {
	return func(i *Index) {
		if n > 0 {
			i.pageSize = n
		}
	}
}

// Page restricts a key query. Offset only applies when Limit is positive.
type Page struct {
	Limit  int
	Offset int
}

// Hit is a scored search result.
type Hit struct {
	ID    domain.NodeID
	Score float64
}

// NewMemOnly creates an index held in memory.
func NewMemOnly(opts ...Option) (*Index, error) {
	m, err := NewMapping()
	if err != nil {
		return nil, err
	}
	idx, err := bleve.NewMemOnly(m)
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	return newIndex(idx, opts), nil
}

// Open opens the index at path, creating it if it does not exist.
func Open(path string, opts ...Option) (*Index, error) {
	idx, err := bleve.Open(path)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		m, merr := NewMapping()
		if merr != nil {
			return nil, merr
		}
		idx, err = bleve.New(path, m)
	}
	if err != nil {
		return nil, fmt.Errorf("open index %s: %w", path, err)
	}
	return newIndex(idx, opts), nil
}

func newIndex(idx bleve.Index, opts []Option) *Index {
	i := &Index{index: idx, logger: logger.NewNoopLogger(), pageSize: DefaultPageSize}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Close releases the index.
func (i *Index) Close() error {
	return i.index.Close()
}

// Save indexes nodes in one batch, replacing earlier versions.
//
// A node's document includes which attributes it is referenced by, so
// callers must also save the targets whose referrers changed.
func (i *Index) Save(ctx context.Context, nodes ...domain.Node) error {
	_, span := startTrace(ctx, "Save")
	defer span.End()
	span.SetAttributes(attribute.Int("nodes", len(nodes)))

	batch := i.index.NewBatch()
	for _, n := range nodes {
		if err := batch.Index(n.ID.String(), Document(n)); err != nil {
			return fmt.Errorf("index node %s: %w", n.ID, err)
		}
	}
	if err := i.index.Batch(batch); err != nil {
		return fmt.Errorf("index batch: %w", err)
	}
	return nil
}

// Delete removes the documents of ids.
func (i *Index) Delete(ctx context.Context, ids ...domain.NodeID) error {
	_, span := startTrace(ctx, "Delete")
	defer span.End()

	batch := i.index.NewBatch()
	for _, id := range ids {
		batch.Delete(id.String())
	}
	if err := i.index.Batch(batch); err != nil {
		return fmt.Errorf("delete batch: %w", err)
	}
	return nil
}

// Keys returns the ids of nodes matching s, in key order.
func (i *Index) Keys(ctx context.Context, s spec.Specification, page Page) ([]domain.NodeID, error) {
	ctx, span := startTrace(ctx, "Keys")
	defer span.End()

	q, err := i.compile(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("keys: %w", err)
	}
	hits, err := i.collect(ctx, q, page, keyOrder())
	if err != nil {
		return nil, fmt.Errorf("keys: %w", err)
	}

	keys := make([]domain.NodeID, len(hits))
	for n, h := range hits {
		keys[n] = h.ID
	}
	span.SetAttributes(attribute.Int("keys", len(keys)))
	return keys, nil
}

// Search returns the hits for s ordered by descending score, ties broken
// by key order.
func (i *Index) Search(ctx context.Context, s spec.Specification, page Page) ([]Hit, error) {
	ctx, span := startTrace(ctx, "Search")
	defer span.End()

	q, err := i.compile(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	hits, err := i.collect(ctx, q, page, append(search.SortOrder{&search.SortScore{Desc: true}}, keyOrder()...))
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	span.SetAttributes(attribute.Int("hits", len(hits)))
	return hits, nil
}

// Count returns the number of nodes matching s.
func (i *Index) Count(ctx context.Context, s spec.Specification) (int, error) {
	ctx, span := startTrace(ctx, "Count")
	defer span.End()

	q, err := i.compile(ctx, s)
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	res, err := i.index.SearchInContext(ctx, bleve.NewSearchRequestOptions(q, 0, 0, false))
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return int(res.Total), nil
}

func (i *Index) compile(ctx context.Context, s spec.Specification) (query.Query, error) {
	q, err := specsearch.Compile(s)
	if err != nil {
		return nil, err
	}
	if v, ok := q.(query.ValidatableQuery); ok {
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("invalid search query: %w", err)
		}
	}
	i.logger.DebugWithContext(ctx, "index query", zap.Stringer("spec", s))
	return q, nil
}

// collect runs q page by page. An unlimited page reads until the results
// are exhausted.
func (i *Index) collect(ctx context.Context, q query.Query, page Page, sort search.SortOrder) ([]Hit, error) {
	from, remaining := 0, -1
	if page.Limit > 0 {
		from, remaining = page.Offset, page.Limit
	}

	var hits []Hit
	for remaining != 0 {
		size := i.pageSize
		if remaining > 0 && remaining < size {
			size = remaining
		}
		req := bleve.NewSearchRequestOptions(q, size, from, false)
		req.SortByCustom(sort.Copy())

		res, err := i.index.SearchInContext(ctx, req)
		if err != nil {
			return nil, err
		}
		for _, dm := range res.Hits {
			id, err := domain.ParseNodeID(dm.ID)
			if err != nil {
				return nil, err
			}
			hits = append(hits, Hit{ID: id, Score: dm.Score})
		}

		if len(res.Hits) < size {
			break
		}
		from += size
		if remaining > 0 {
			remaining -= size
		}
	}
	if hits == nil {
		hits = []Hit{}
	}
	return hits, nil
}
