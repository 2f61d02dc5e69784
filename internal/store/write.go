package store

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/roach88/nodeql/internal/domain"
)

// SaveNodes writes nodes in a single transaction. A node that already
// exists is replaced together with all of its values.
//
// Referrers are not stored: they are read back from the reference rows of
// other nodes.
func (s *Store) SaveNodes(ctx context.Context, nodes ...domain.Node) error {
	ctx, span := s.startTrace(ctx, "SaveNodes")
	defer span.End()
	span.SetAttributes(attribute.Int("nodes", len(nodes)))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save nodes: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	for _, n := range nodes {
		if err := s.deleteNode(ctx, tx, n.ID); err != nil {
			return fmt.Errorf("save node %s: %w", n.ID, err)
		}
		if err := s.insertNode(ctx, tx, n); err != nil {
			return fmt.Errorf("save node %s: %w", n.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save nodes: commit: %w", err)
	}
	return nil
}

// DeleteNode removes a node and its values. It reports whether the node
// existed. Reference rows of other nodes pointing at it are kept.
func (s *Store) DeleteNode(ctx context.Context, id domain.NodeID) (bool, error) {
	ctx, span := s.startTrace(ctx, "DeleteNode")
	defer span.End()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("delete node: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	existed, err := s.exists(ctx, tx, id)
	if err != nil {
		return false, fmt.Errorf("delete node %s: %w", id, err)
	}
	if err := s.deleteNode(ctx, tx, id); err != nil {
		return false, fmt.Errorf("delete node %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("delete node: commit: %w", err)
	}
	return existed, nil
}

func (s *Store) exists(ctx context.Context, tx *sql.Tx, id domain.NodeID) (bool, error) {
	query, args, err := s.stbl.Select("COUNT(*)").From("node").Where(keyEq("", id)).ToSql()
	if err != nil {
		return false, err
	}
	var count int
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// deleteNode removes the node row and its value rows. Value rows are
// deleted explicitly so replacing a node does not depend on cascades.
func (s *Store) deleteNode(ctx context.Context, tx *sql.Tx, id domain.NodeID) error {
	deletes := []sq.DeleteBuilder{
		s.stbl.Delete("node_text_attribute_value").Where(keyEq("node_", id)),
		s.stbl.Delete("node_reference_attribute_value").Where(keyEq("node_", id)),
		s.stbl.Delete("node").Where(keyEq("", id)),
	}
	for _, d := range deletes {
		query, args, err := d.ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("delete: %w", err)
		}
	}
	return nil
}

func (s *Store) insertNode(ctx context.Context, tx *sql.Tx, n domain.Node) error {
	inserts := []sq.InsertBuilder{
		s.stbl.Insert("node").Columns(nodeColumns...).Values(nodeValues(n)...),
	}

	if texts := textValues(n); len(texts) > 0 {
		b := s.stbl.Insert("node_text_attribute_value").Columns(textValueColumns...)
		for _, v := range texts {
			b = b.Values(v.values()...)
		}
		inserts = append(inserts, b)
	}

	if refs := referenceValues(n); len(refs) > 0 {
		b := s.stbl.Insert("node_reference_attribute_value").Columns(referenceValueColumns...)
		for _, v := range refs {
			b = b.Values(v.values()...)
		}
		inserts = append(inserts, b)
	}

	for _, ins := range inserts {
		query, args, err := ins.ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert: %w", err)
		}
	}
	return nil
}

// keyEq matches the identity columns of id, named with prefix ("" for the
// node table, "node_" for value tables).
func keyEq(prefix string, id domain.NodeID) sq.Eq {
	return sq.Eq{
		prefix + "graph_id": id.Type.Graph.String(),
		prefix + "type_id":  id.Type.ID,
		prefix + "id":       id.ID.String(),
	}
}
