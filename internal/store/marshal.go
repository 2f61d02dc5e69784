package store

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/nodeql/internal/domain"
)

// Column lists, in scan order.
var nodeColumns = []string{
	"graph_id", "type_id", "id", "code", "uri", "number",
	"created_by", "created_date", "last_modified_by", "last_modified_date",
}

var keyColumns = []string{"graph_id", "type_id", "id"}

var textValueColumns = []string{
	"node_graph_id", "node_type_id", "node_id", "attribute_id", "idx", "lang", "value",
}

var referenceValueColumns = []string{
	"node_graph_id", "node_type_id", "node_id", "attribute_id", "idx",
	"value_graph_id", "value_type_id", "value_id",
}

// qualify prefixes each column with table.
func qualify(table string, columns []string) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = table + "." + c
	}
	return out
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// nodeValues returns the node row values in nodeColumns order.
func nodeValues(n domain.Node) []any {
	return []any{
		n.ID.Type.Graph.String(), n.ID.Type.ID, n.ID.ID.String(), n.Code, n.URI, n.Number,
		n.CreatedBy, n.CreatedDate.UnixMilli(), n.LastModifiedBy, n.LastModifiedDate.UnixMilli(),
	}
}

// keyValues returns the identity columns of id.
func keyValues(id domain.NodeID) []any {
	return []any{id.Type.Graph.String(), id.Type.ID, id.ID.String()}
}

// parseKey rebuilds a node id from its stored columns.
func parseKey(graph, typ, id string) (domain.NodeID, error) {
	g, err := uuid.Parse(graph)
	if err != nil {
		return domain.NodeID{}, fmt.Errorf("parse graph id %q: %w", graph, err)
	}
	n, err := uuid.Parse(id)
	if err != nil {
		return domain.NodeID{}, fmt.Errorf("parse node id %q: %w", id, err)
	}
	return domain.NodeID{ID: n, Type: domain.TypeID{ID: typ, Graph: domain.GraphID{ID: g}}}, nil
}

func scanKey(row scanner) (domain.NodeID, error) {
	var graph, typ, id string
	if err := row.Scan(&graph, &typ, &id); err != nil {
		return domain.NodeID{}, fmt.Errorf("scan key: %w", err)
	}
	return parseKey(graph, typ, id)
}

func scanNode(row scanner) (domain.Node, error) {
	var (
		graph, typ, id        string
		n                     domain.Node
		created, lastModified int64
	)
	err := row.Scan(&graph, &typ, &id, &n.Code, &n.URI, &n.Number,
		&n.CreatedBy, &created, &n.LastModifiedBy, &lastModified)
	if err != nil {
		return domain.Node{}, fmt.Errorf("scan node: %w", err)
	}
	n.ID, err = parseKey(graph, typ, id)
	if err != nil {
		return domain.Node{}, err
	}
	n.CreatedDate = fromMillis(created)
	n.LastModifiedDate = fromMillis(lastModified)
	return n, nil
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// textValue is one row of node_text_attribute_value.
type textValue struct {
	node domain.NodeID
	attr string
	idx  int
	domain.LangValue
}

// referenceValue is one row of node_reference_attribute_value.
type referenceValue struct {
	node   domain.NodeID
	attr   string
	idx    int
	target domain.NodeID
}

// textValues flattens a node's properties. Attributes are visited in sorted
// order so inserts are deterministic.
func textValues(n domain.Node) []textValue {
	var out []textValue
	for _, attr := range slices.Sorted(maps.Keys(n.Properties)) {
		for i, v := range n.Properties[attr] {
			out = append(out, textValue{node: n.ID, attr: attr, idx: i, LangValue: v})
		}
	}
	return out
}

func referenceValues(n domain.Node) []referenceValue {
	var out []referenceValue
	for _, attr := range slices.Sorted(maps.Keys(n.References)) {
		for i, target := range n.References[attr] {
			out = append(out, referenceValue{node: n.ID, attr: attr, idx: i, target: target})
		}
	}
	return out
}

func (v textValue) values() []any {
	return append(keyValues(v.node), v.attr, v.idx, v.Lang, v.Value)
}

func (v referenceValue) values() []any {
	return append(append(keyValues(v.node), v.attr, v.idx), keyValues(v.target)...)
}

func scanTextValue(row scanner) (textValue, error) {
	var (
		graph, typ, id string
		v              textValue
	)
	if err := row.Scan(&graph, &typ, &id, &v.attr, &v.idx, &v.Lang, &v.Value); err != nil {
		return textValue{}, fmt.Errorf("scan text value: %w", err)
	}
	node, err := parseKey(graph, typ, id)
	if err != nil {
		return textValue{}, err
	}
	v.node = node
	return v, nil
}

func scanReferenceValue(row scanner) (referenceValue, error) {
	var (
		graph, typ, id                 string
		valueGraph, valueType, valueID string
		v                              referenceValue
	)
	if err := row.Scan(&graph, &typ, &id, &v.attr, &v.idx, &valueGraph, &valueType, &valueID); err != nil {
		return referenceValue{}, fmt.Errorf("scan reference value: %w", err)
	}
	node, err := parseKey(graph, typ, id)
	if err != nil {
		return referenceValue{}, err
	}
	target, err := parseKey(valueGraph, valueType, valueID)
	if err != nil {
		return referenceValue{}, err
	}
	v.node, v.target = node, target
	return v, nil
}
