package domain

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// CodePattern is the grammar of type ids, attribute ids and graph codes.
const CodePattern = `[A-Za-z0-9_\-]+`

// LangPattern is the grammar of language tags on property values.
const LangPattern = `[a-z]{2}`

var (
	codeRe = regexp.MustCompile(`^` + CodePattern + `$`)
	langRe = regexp.MustCompile(`^` + LangPattern + `$`)
)

// IsCode reports whether s is a valid code.
func IsCode(s string) bool { return codeRe.MatchString(s) }

// IsLang reports whether s is a valid language tag.
func IsLang(s string) bool { return langRe.MatchString(s) }

// GraphID identifies a graph.
type GraphID struct {
	ID uuid.UUID `json:"id"`
}

func (g GraphID) String() string { return g.ID.String() }

// TypeID identifies a type within a graph.
type TypeID struct {
	ID    string  `json:"id"`
	Graph GraphID `json:"graph"`
}

func (t TypeID) String() string { return t.Graph.String() + "/" + t.ID }

// NodeID identifies a node. The string form is <graph-uuid>/<type-id>/<node-uuid>.
type NodeID struct {
	ID   uuid.UUID `json:"id"`
	Type TypeID    `json:"type"`
}

func (n NodeID) String() string { return n.Type.String() + "/" + n.ID.String() }

// ParseNodeID parses the string form produced by NodeID.String.
func ParseNodeID(s string) (NodeID, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return NodeID{}, fmt.Errorf("malformed node id %q: want <graph>/<type>/<id>", s)
	}
	graph, err := uuid.Parse(parts[0])
	if err != nil {
		return NodeID{}, fmt.Errorf("malformed node id %q: graph: %w", s, err)
	}
	if !IsCode(parts[1]) {
		return NodeID{}, fmt.Errorf("malformed node id %q: type %q is not a code", s, parts[1])
	}
	id, err := uuid.Parse(parts[2])
	if err != nil {
		return NodeID{}, fmt.Errorf("malformed node id %q: id: %w", s, err)
	}
	return NodeID{ID: id, Type: TypeID{ID: parts[1], Graph: GraphID{ID: graph}}}, nil
}

// CompareNodeIDs orders node ids by graph, then type, then id, comparing the
// text form of each part byte-wise. Stores order keys the same way.
func CompareNodeIDs(a, b NodeID) int {
	if c := strings.Compare(a.Type.Graph.String(), b.Type.Graph.String()); c != 0 {
		return c
	}
	if c := strings.Compare(a.Type.ID, b.Type.ID); c != 0 {
		return c
	}
	return strings.Compare(a.ID.String(), b.ID.String())
}

// TextAttributeID identifies a text attribute by its domain type.
type TextAttributeID struct {
	Domain TypeID `json:"domain"`
	ID     string `json:"id"`
}

func (a TextAttributeID) String() string { return a.Domain.String() + "/" + a.ID }

// ReferenceAttributeID identifies a reference attribute by its domain type.
type ReferenceAttributeID struct {
	Domain TypeID `json:"domain"`
	ID     string `json:"id"`
}

func (a ReferenceAttributeID) String() string { return a.Domain.String() + "/" + a.ID }

// RevisionID pairs any identifier with a revision number.
type RevisionID[K comparable] struct {
	ID       K     `json:"id"`
	Revision int64 `json:"revision"`
}

// Revision builds a RevisionID.
func Revision[K comparable](id K, revision int64) RevisionID[K] {
	return RevisionID[K]{ID: id, Revision: revision}
}
