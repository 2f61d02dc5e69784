package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	sq "github.com/Masterminds/squirrel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/roach88/nodeql/internal/domain"
	"github.com/roach88/nodeql/internal/spec"
	"github.com/roach88/nodeql/internal/specsql"
)

// ErrNotFound is returned by Node when no node has the requested id.
var ErrNotFound = errors.New("node not found")

// loadChunk bounds the ids per load statement (three parameters each).
const loadChunk = 100

// Page restricts a key query. Offset only applies when Limit is positive.
type Page struct {
	Limit  int
	Offset int
}

// Keys returns the ids of nodes matching sp, in key order.
//
// sp must be SQL-compilable: tokenized text leaves fail with a
// spec.UnsupportedError and unresolved leaves with a spec.UnresolvedError.
func (s *Store) Keys(ctx context.Context, sp spec.Specification, page Page) ([]domain.NodeID, error) {
	ctx, span := s.startTrace(ctx, "Keys")
	defer span.End()

	where, params, err := s.compiler.Compile(sp)
	if err != nil {
		return nil, fmt.Errorf("keys: %w", err)
	}

	b := s.stbl.Select(qualify("node", keyColumns)...).
		From("node").
		Where(where, params...).
		OrderBy(s.keyOrder()...)
	if page.Limit > 0 {
		b = b.Limit(uint64(page.Limit))
		if page.Offset > 0 {
			b = b.Offset(uint64(page.Offset))
		}
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("keys: %w", err)
	}
	s.logQuery(ctx, "keys", query, args)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query keys: %w", err)
	}
	defer rows.Close()

	keys := []domain.NodeID{}
	for rows.Next() {
		id, err := scanKey(rows)
		if err != nil {
			return nil, err
		}
		keys = append(keys, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate keys: %w", err)
	}

	span.SetAttributes(attribute.Int("keys", len(keys)))
	return keys, nil
}

// Count returns the number of nodes matching sp.
func (s *Store) Count(ctx context.Context, sp spec.Specification) (int, error) {
	ctx, span := s.startTrace(ctx, "Count")
	defer span.End()

	where, params, err := s.compiler.Compile(sp)
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	query, args, err := s.stbl.Select("COUNT(*)").From("node").Where(where, params...).ToSql()
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	s.logQuery(ctx, "count", query, args)

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("query count: %w", err)
	}
	return count, nil
}

// Find returns the nodes matching sp, in key order.
func (s *Store) Find(ctx context.Context, sp spec.Specification, page Page) ([]domain.Node, error) {
	keys, err := s.Keys(ctx, sp, page)
	if err != nil {
		return nil, err
	}
	return s.Nodes(ctx, keys)
}

// Node returns the node with the given id, or ErrNotFound.
func (s *Store) Node(ctx context.Context, id domain.NodeID) (domain.Node, error) {
	nodes, err := s.Nodes(ctx, []domain.NodeID{id})
	if err != nil {
		return domain.Node{}, err
	}
	if len(nodes) == 0 {
		return domain.Node{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nodes[0], nil
}

// Nodes loads full nodes, including properties, references and referrers,
// in the order of ids. Unknown ids are skipped.
func (s *Store) Nodes(ctx context.Context, ids []domain.NodeID) ([]domain.Node, error) {
	ctx, span := s.startTrace(ctx, "Nodes")
	defer span.End()
	span.SetAttributes(attribute.Int("ids", len(ids)))

	loaded := make(map[domain.NodeID]*domain.Node, len(ids))
	for chunk := range slices.Chunk(ids, loadChunk) {
		if err := s.loadChunk(ctx, chunk, loaded); err != nil {
			return nil, err
		}
	}

	nodes := make([]domain.Node, 0, len(loaded))
	for _, id := range ids {
		if n, ok := loaded[id]; ok {
			nodes = append(nodes, *n)
		}
	}
	return nodes, nil
}

func (s *Store) loadChunk(ctx context.Context, ids []domain.NodeID, loaded map[domain.NodeID]*domain.Node) error {
	byNode := make(sq.Or, len(ids))
	byTextNode := make(sq.Or, len(ids))
	byTarget := make(sq.Or, len(ids))
	for i, id := range ids {
		byNode[i] = keyEq("", id)
		byTextNode[i] = keyEq("node_", id)
		byTarget[i] = keyEq("value_", id)
	}

	err := s.query(ctx, s.stbl.Select(nodeColumns...).From("node").Where(byNode), func(rows *sql.Rows) error {
		n, err := scanNode(rows)
		if err != nil {
			return err
		}
		loaded[n.ID] = &n
		return nil
	})
	if err != nil {
		return fmt.Errorf("load nodes: %w", err)
	}

	texts := s.stbl.Select(textValueColumns...).
		From(specsql.TextValueTable).
		Where(byTextNode).
		OrderBy("node_graph_id", "node_type_id", "node_id", "attribute_id", "idx")
	err = s.query(ctx, texts, func(rows *sql.Rows) error {
		v, err := scanTextValue(rows)
		if err != nil {
			return err
		}
		n, ok := loaded[v.node]
		if !ok {
			return nil
		}
		if n.Properties == nil {
			n.Properties = map[string][]domain.LangValue{}
		}
		n.Properties[v.attr] = append(n.Properties[v.attr], v.LangValue)
		return nil
	})
	if err != nil {
		return fmt.Errorf("load text values: %w", err)
	}

	refs := s.stbl.Select(referenceValueColumns...).
		From(specsql.ReferenceValueTable).
		Where(byTextNode).
		OrderBy("node_graph_id", "node_type_id", "node_id", "attribute_id", "idx")
	err = s.query(ctx, refs, func(rows *sql.Rows) error {
		v, err := scanReferenceValue(rows)
		if err != nil {
			return err
		}
		n, ok := loaded[v.node]
		if !ok {
			return nil
		}
		if n.References == nil {
			n.References = map[string][]domain.NodeID{}
		}
		n.References[v.attr] = append(n.References[v.attr], v.target)
		return nil
	})
	if err != nil {
		return fmt.Errorf("load references: %w", err)
	}

	referrers := s.stbl.Select(referenceValueColumns...).
		From(specsql.ReferenceValueTable).
		Where(byTarget)
	err = s.query(ctx, referrers, func(rows *sql.Rows) error {
		v, err := scanReferenceValue(rows)
		if err != nil {
			return err
		}
		n, ok := loaded[v.target]
		if !ok {
			return nil
		}
		if n.Referrers == nil {
			n.Referrers = map[string][]domain.NodeID{}
		}
		n.Referrers[v.attr] = append(n.Referrers[v.attr], v.node)
		return nil
	})
	if err != nil {
		return fmt.Errorf("load referrers: %w", err)
	}

	for _, id := range ids {
		if n, ok := loaded[id]; ok {
			for _, from := range n.Referrers {
				slices.SortFunc(from, domain.CompareNodeIDs)
			}
		}
	}
	return nil
}

// query runs b and calls fn for every row.
func (s *Store) query(ctx context.Context, b sq.SelectBuilder, fn func(*sql.Rows) error) error {
	query, args, err := b.ToSql()
	if err != nil {
		return err
	}
	s.logQuery(ctx, "load", query, args)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// keyOrder orders by the identity columns under a byte-wise collation.
func (s *Store) keyOrder() []string {
	collate := " COLLATE BINARY"
	if s.dialect == specsql.Postgres {
		collate = ` COLLATE "C"`
	}
	order := qualify("node", keyColumns)
	for i := range order {
		order[i] += collate
	}
	return order
}
