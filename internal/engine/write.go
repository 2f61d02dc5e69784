package engine

import (
	"context"
	"fmt"
	"slices"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/roach88/nodeql/internal/domain"
	"github.com/roach88/nodeql/internal/spec"
	"github.com/roach88/nodeql/internal/store"
)

// rebuildChunk bounds the nodes loaded per index batch during Rebuild.
const rebuildChunk = 500

// SaveNodes checks nodes against the catalog, writes them to the store and
// reindexes every node whose document changed.
//
// Referrers on the given nodes are ignored; the store derives them.
func (e *Engine) SaveNodes(ctx context.Context, nodes ...domain.Node) error {
	ctx, span := e.startTrace(ctx, "SaveNodes")
	defer span.End()
	span.SetAttributes(attribute.Int("nodes", len(nodes)))

	for i := range nodes {
		if err := e.check(&nodes[i]); err != nil {
			return err
		}
	}

	ids := make([]domain.NodeID, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}

	// Old references decide which targets lose a referrer
	var previous []domain.Node
	if e.index != nil {
		var err error
		if previous, err = e.store.Nodes(ctx, ids); err != nil {
			return fmt.Errorf("load previous versions: %w", err)
		}
	}

	if err := e.store.SaveNodes(ctx, nodes...); err != nil {
		return err
	}
	if e.index == nil {
		return nil
	}

	affected := append(slices.Clone(ids), targets(previous)...)
	affected = append(affected, targets(nodes)...)
	return e.reindex(ctx, affected)
}

// DeleteNode removes the node from the store and the index. Returns false if
// the node did not exist.
func (e *Engine) DeleteNode(ctx context.Context, id domain.NodeID) (bool, error) {
	ctx, span := e.startTrace(ctx, "DeleteNode")
	defer span.End()

	var previous []domain.Node
	if e.index != nil {
		var err error
		if previous, err = e.store.Nodes(ctx, []domain.NodeID{id}); err != nil {
			return false, fmt.Errorf("load previous version: %w", err)
		}
	}

	deleted, err := e.store.DeleteNode(ctx, id)
	if err != nil || !deleted || e.index == nil {
		return deleted, err
	}
	return true, e.reindex(ctx, append([]domain.NodeID{id}, targets(previous)...))
}

// Rebuild writes every stored node to the index. Documents of nodes that are
// no longer stored are left alone.
func (e *Engine) Rebuild(ctx context.Context) (int, error) {
	if e.index == nil {
		return 0, fmt.Errorf("no search index configured")
	}
	ctx, span := e.startTrace(ctx, "Rebuild")
	defer span.End()

	ids, err := e.store.Keys(ctx, spec.MatchAll{}, store.Page{})
	if err != nil {
		return 0, err
	}
	for chunk := range slices.Chunk(ids, rebuildChunk) {
		if err := e.reindex(ctx, chunk); err != nil {
			return 0, err
		}
	}
	span.SetAttributes(attribute.Int("nodes", len(ids)))
	e.logger.InfoWithContext(ctx, "index rebuilt", zap.Int("nodes", len(ids)))
	return len(ids), nil
}

// reindex reloads ids from the store. Stored nodes are saved to the index and
// missing ones are deleted from it.
func (e *Engine) reindex(ctx context.Context, ids []domain.NodeID) error {
	ids = sortedUnique(slices.Clone(ids))
	nodes, err := e.store.Nodes(ctx, ids)
	if err != nil {
		return fmt.Errorf("reload nodes: %w", err)
	}

	found := make(map[domain.NodeID]bool, len(nodes))
	for _, n := range nodes {
		found[n.ID] = true
	}
	var gone []domain.NodeID
	for _, id := range ids {
		if !found[id] {
			gone = append(gone, id)
		}
	}

	if len(nodes) > 0 {
		if err := e.index.Save(ctx, nodes...); err != nil {
			return fmt.Errorf("index nodes: %w", err)
		}
	}
	if len(gone) > 0 {
		if err := e.index.Delete(ctx, gone...); err != nil {
			return fmt.Errorf("unindex nodes: %w", err)
		}
	}

	reindexedNodes.Add(float64(len(ids)))
	e.logger.DebugWithContext(ctx, "reindexed nodes",
		zap.Int("saved", len(nodes)),
		zap.Int("deleted", len(gone)),
	)
	return nil
}

// targets returns the ids referenced by nodes.
func targets(nodes []domain.Node) []domain.NodeID {
	var out []domain.NodeID
	for _, n := range nodes {
		for _, ids := range n.References {
			out = append(out, ids...)
		}
	}
	return out
}

// check verifies a node against its type.
func (e *Engine) check(n *domain.Node) error {
	t, ok := e.catalog.Type(n.ID.Type)
	if !ok {
		return fmt.Errorf("node %s: unknown type: %w", n.ID, ErrInvalidNode)
	}
	if n.Code != "" && !domain.IsCode(n.Code) {
		return fmt.Errorf("node %s: code %q must match %s: %w", n.ID, n.Code, domain.CodePattern, ErrInvalidNode)
	}

	for attr, values := range n.Properties {
		a, ok := t.TextAttribute(attr)
		if !ok {
			return fmt.Errorf("node %s: %s declares no text attribute %q: %w", n.ID, e.catalog.Name(t.ID), attr, ErrInvalidNode)
		}
		re := e.patterns[a.AttributeID()]
		for _, v := range values {
			if v.Lang != "" && !domain.IsLang(v.Lang) {
				return fmt.Errorf("node %s: %s: bad language tag %q: %w", n.ID, attr, v.Lang, ErrInvalidNode)
			}
			if re != nil && !re.MatchString(v.Value) {
				return fmt.Errorf("node %s: %s: value %q does not match %s: %w", n.ID, attr, v.Value, a.Regex, ErrInvalidNode)
			}
		}
	}

	for attr, ids := range n.References {
		a, ok := t.ReferenceAttribute(attr)
		if !ok {
			return fmt.Errorf("node %s: %s declares no reference attribute %q: %w", n.ID, e.catalog.Name(t.ID), attr, ErrInvalidNode)
		}
		for _, id := range ids {
			if id.Type != a.Range {
				return fmt.Errorf("node %s: %s: %s is not a %s: %w", n.ID, attr, id, e.catalog.Name(a.Range), ErrInvalidNode)
			}
		}
	}
	return nil
}
