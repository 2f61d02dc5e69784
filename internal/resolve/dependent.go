package resolve

import (
	"context"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/nodeql/internal/domain"
	"github.com/roach88/nodeql/internal/spec"
)

// RunFunc executes a fully resolved specification and returns the ids of the
// matching nodes.
type RunFunc func(ctx context.Context, s spec.Specification) ([]domain.NodeID, error)

// DependentResolver replaces reference paths with resolved id sets.
type DependentResolver struct {
	run         RunFunc
	concurrency int
}

// DependentOption configures a DependentResolver.
type DependentOption func(*DependentResolver)

// WithConcurrency resolves up to n sibling branches of an And or Or at once.
// n <= 1 resolves sequentially, which is the default.
func WithConcurrency(n int) DependentOption {
	return func(r *DependentResolver) {
		r.concurrency = n
	}
}

// NewDependentResolver creates a resolver that asks run for nested results.
func NewDependentResolver(run RunFunc, opts ...DependentOption) *DependentResolver {
	r := &DependentResolver{run: run, concurrency: 1}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns s with every ByReferencePath replaced by a
// ByResolvedReferencePath. Nested paths resolve depth-first, so run only
// ever sees resolved trees. Subtrees without paths are returned as is.
// The first error from run aborts resolution.
func (r *DependentResolver) Resolve(ctx context.Context, s spec.Specification) (spec.Specification, error) {
	if !spec.HasDependent(s) {
		return s, nil
	}
	switch v := s.(type) {
	case spec.And:
		members, err := r.resolveAll(ctx, v.Specs)
		if err != nil {
			return nil, err
		}
		return spec.And{Specs: members}, nil
	case spec.Or:
		members, err := r.resolveAll(ctx, v.Specs)
		if err != nil {
			return nil, err
		}
		return spec.Or{Specs: members}, nil
	case spec.Not:
		inner, err := r.Resolve(ctx, v.Spec)
		if err != nil {
			return nil, err
		}
		return spec.Not{Spec: inner}, nil
	case spec.Boost:
		inner, err := r.Resolve(ctx, v.Spec)
		if err != nil {
			return nil, err
		}
		return spec.Boost{Spec: inner, Factor: v.Factor}, nil
	case spec.ByReferencePath:
		return r.resolvePath(ctx, v)
	}
	return s, nil
}

func (r *DependentResolver) resolvePath(ctx context.Context, p spec.ByReferencePath) (spec.Specification, error) {
	value, err := r.Resolve(ctx, p.Value)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ids, err := r.run(ctx, value)
	if err != nil {
		return nil, fmt.Errorf("resolve reference path %q: %w", p.Attr, err)
	}
	ids = slices.Clone(ids)
	slices.SortFunc(ids, domain.CompareNodeIDs)
	ids = slices.CompactFunc(ids, func(a, b domain.NodeID) bool { return a == b })
	return spec.ByResolvedReferencePath{Attr: p.Attr, Value: p.Value, IDs: ids}, nil
}

func (r *DependentResolver) resolveAll(ctx context.Context, specs []spec.Specification) ([]spec.Specification, error) {
	out := make([]spec.Specification, len(specs))
	if r.concurrency <= 1 {
		for i, s := range specs {
			resolved, err := r.Resolve(ctx, s)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, s := range specs {
		if !spec.HasDependent(s) {
			out[i] = s
			continue
		}
		g.Go(func() error {
			resolved, err := r.Resolve(gctx, s)
			if err != nil {
				return err
			}
			out[i] = resolved
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
