package engine

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/roach88/nodeql/internal/catalog"
	"github.com/roach88/nodeql/internal/domain"
	"github.com/roach88/nodeql/internal/index"
	"github.com/roach88/nodeql/internal/logger"
	"github.com/roach88/nodeql/internal/resolve"
	"github.com/roach88/nodeql/internal/spec"
	"github.com/roach88/nodeql/internal/specparse"
	"github.com/roach88/nodeql/internal/specsql"
	"github.com/roach88/nodeql/internal/store"
)

var tracer = otel.Tracer("nodeql/internal/engine")

// Backend names where a query runs.
type Backend string

const (
	// BackendAuto picks SQL when the tree compiles to SQL and the index
	// otherwise.
	BackendAuto   Backend = ""
	BackendSQL    Backend = "sql"
	BackendSearch Backend = "search"
)

// ParseBackend accepts "", "auto", "sql" and "search".
func ParseBackend(s string) (Backend, error) {
	switch s {
	case "", "auto":
		return BackendAuto, nil
	case string(BackendSQL):
		return BackendSQL, nil
	case string(BackendSearch):
		return BackendSearch, nil
	}
	return BackendAuto, fmt.Errorf("unknown backend %q", s)
}

// Engine answers where-clause queries for the types of a catalog.
//
// Thread-safety model:
//   - All methods are safe from any goroutine
//   - The catalog snapshot never changes after construction
type Engine struct {
	catalog     *catalog.Catalog
	store       *store.Store
	index       *index.Index
	logger      logger.Logger
	concurrency int

	readable    map[domain.TypeID]bool
	indirection *resolve.IndirectionResolver
	filter      *resolve.TypeFilter
	patterns    map[domain.TextAttributeID]*regexp.Regexp
}

// Option allows configuration of engine parameters.
type Option func(*Engine)

// WithIndex enables full-text search and keeps idx in sync on writes.
func WithIndex(idx *index.Index) Option {
	return func(e *Engine) {
		e.index = idx
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithConcurrency resolves up to n sibling reference paths at once.
//
// Default: 1 (sequential)
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		e.concurrency = n
	}
}

// WithReadableTypes restricts queries to the given types. By default every
// catalog type is readable.
func WithReadableTypes(ids ...domain.TypeID) Option {
	return func(e *Engine) {
		e.readable = make(map[domain.TypeID]bool, len(ids))
		for _, id := range ids {
			e.readable[id] = true
		}
	}
}

// New creates an Engine over the catalog and the store.
//
// Text attribute patterns are compiled once here; an invalid pattern is an
// error.
func New(cat *catalog.Catalog, s *store.Store, opts ...Option) (*Engine, error) {
	e := &Engine{
		catalog:     cat,
		store:       s,
		logger:      logger.NewNoopLogger(),
		concurrency: 1,
		patterns:    map[domain.TextAttributeID]*regexp.Regexp{},
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.readable == nil {
		e.readable = make(map[domain.TypeID]bool)
		for _, id := range cat.TypeIDs() {
			e.readable[id] = true
		}
	}

	var readable []domain.Type
	for _, t := range cat.Types() {
		if e.readable[t.ID] {
			readable = append(readable, t)
		}
		for _, a := range t.TextAttributes {
			if a.Regex == "" {
				continue
			}
			re, err := regexp.Compile(a.Regex)
			if err != nil {
				return nil, fmt.Errorf("attribute %s: %w", a.AttributeID(), err)
			}
			e.patterns[a.AttributeID()] = re
		}
	}

	e.indirection = resolve.NewIndirectionResolver(cat.Graphs(), cat.Types())
	e.filter = resolve.NewTypeFilter(readable)
	return e, nil
}

// Catalog returns the catalog the engine was built with.
func (e *Engine) Catalog() *catalog.Catalog { return e.catalog }

// ReadableTypes returns the readable types in catalog order.
func (e *Engine) ReadableTypes() []domain.Type {
	var out []domain.Type
	for _, t := range e.catalog.Types() {
		if e.readable[t.ID] {
			out = append(out, t)
		}
	}
	return out
}

// Prepare parses where and rewrites it into a tree over the viewing type.
// The result still holds unresolved reference paths.
func (e *Engine) Prepare(viewing domain.TypeID, where string) (spec.Specification, error) {
	parsed, err := specparse.Parse(where)
	if err != nil {
		return nil, newParseError(where, err)
	}
	if !e.readable[viewing] {
		return nil, &QueryError{
			Code:    ErrCodeUnknownType,
			Message: fmt.Sprintf("type %s is not readable", e.catalog.Name(viewing)),
			Query:   where,
		}
	}
	return e.prepare(viewing, parsed), nil
}

func (e *Engine) prepare(viewing domain.TypeID, parsed spec.Specification) spec.Specification {
	s := e.indirection.Resolve(parsed)
	s = e.filter.Filter(viewing, s)
	return spec.ForType(viewing, s)
}

// Resolve runs every reference path in s and inlines the matching ids.
func (e *Engine) Resolve(ctx context.Context, s spec.Specification) (spec.Specification, error) {
	r := resolve.NewDependentResolver(e.runNested, resolve.WithConcurrency(e.concurrency))
	resolved, err := r.Resolve(ctx, s)
	if err != nil {
		return nil, err
	}
	return spec.Simplify(resolved), nil
}

// runNested executes a reference path value on the backend it fits.
func (e *Engine) runNested(ctx context.Context, s spec.Specification) ([]domain.NodeID, error) {
	backend := e.choose(s, BackendAuto)
	resolutionRoundTrips.WithLabelValues(string(backend)).Inc()
	e.logger.DebugWithContext(ctx, "resolving reference path",
		zap.String("backend", string(backend)),
		zap.Stringer("spec", s),
	)
	return e.keys(ctx, s, backend, Page{})
}

// choose decides the backend for a fully resolved tree.
func (e *Engine) choose(s spec.Specification, requested Backend) Backend {
	if requested != BackendAuto {
		return requested
	}
	if e.index == nil || specsql.Compilable(s) {
		return BackendSQL
	}
	return BackendSearch
}

func (e *Engine) keys(ctx context.Context, s spec.Specification, backend Backend, page Page) ([]domain.NodeID, error) {
	switch backend {
	case BackendSQL:
		return e.store.Keys(ctx, s, store.Page{Limit: page.Limit, Offset: page.Offset})
	case BackendSearch:
		if e.index == nil {
			return nil, fmt.Errorf("no search index configured")
		}
		return e.index.Keys(ctx, s, index.Page{Limit: page.Limit, Offset: page.Offset})
	}
	return nil, fmt.Errorf("unknown backend %q", backend)
}

func (e *Engine) startTrace(ctx context.Context, name string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "engine."+name)
}

// finish records metrics and span status for one query.
func finish(span trace.Span, backend Backend, start time.Time, err error) {
	label := string(backend)
	if label == "" {
		label = "none"
	}
	queriesTotal.WithLabelValues(label, outcome(err)).Inc()
	queryDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
	span.SetAttributes(attribute.String("backend", label))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// sortedUnique sorts ids by key and drops duplicates.
func sortedUnique(ids []domain.NodeID) []domain.NodeID {
	slices.SortFunc(ids, domain.CompareNodeIDs)
	return slices.CompactFunc(ids, func(a, b domain.NodeID) bool { return a == b })
}
