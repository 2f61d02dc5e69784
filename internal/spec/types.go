package spec

import (
	"time"

	"github.com/google/uuid"

	"github.com/roach88/nodeql/internal/domain"
)

// Specification is a predicate over nodes.
//
// This is a sealed interface - only types in this package implement it.
// String renders the tree in the query language; parsing that text yields an
// equivalent tree. Quoted values and URIs escape quotes and backslashes.
// Values the grammar cannot carry do not survive the round trip: a string
// range bound holding "]" or " TO " or equal to "*", and a term or prefix
// value holding whitespace, parentheses, quotes or "^".
type Specification interface {
	specNode() // Marker method - seals interface to this package
	String() string
}

// And matches when every member matches. An empty And matches everything.
type And struct {
	Specs []Specification
}

// Or matches when any member matches. An empty Or matches nothing.
type Or struct {
	Specs []Specification
}

// Not inverts its member.
type Not struct {
	Spec Specification
}

// Boost carries a relevance multiplier for search. It does not change which
// nodes match.
type Boost struct {
	Spec   Specification
	Factor float32
}

// MatchAll matches every node.
type MatchAll struct{}

// MatchNone matches no node.
type MatchNone struct{}

// ByID matches the node with the given UUID.
type ByID struct {
	ID uuid.UUID
}

// ByCode matches nodes by code.
type ByCode struct {
	Code string
}

// ByURI matches nodes by uri.
type ByURI struct {
	URI string
}

// ByNumber matches nodes by their per-type sequence number.
type ByNumber struct {
	Number int64
}

// ByNumberRange matches nodes whose number lies in [Lower, Upper]. A nil
// bound is open.
type ByNumberRange struct {
	Lower, Upper *int64
}

// ByGraphID matches nodes in the graph.
type ByGraphID struct {
	Graph domain.GraphID
}

// ByTypeID matches nodes whose type id equals TypeID, in any graph.
type ByTypeID struct {
	TypeID string
}

// ByGraphURI is an indirect leaf naming graphs by uri.
type ByGraphURI struct {
	URI string
}

// ByGraphCode is an indirect leaf naming graphs by code.
type ByGraphCode struct {
	Code string
}

// ByTypeURI is an indirect leaf naming types by uri.
type ByTypeURI struct {
	URI string
}

// ByProperty matches nodes having a value of Attr (in Lang when set) that
// contains every token of Value.
type ByProperty struct {
	Attr, Lang, Value string
}

// ByPropertyPrefix matches nodes having a value token starting with Value.
type ByPropertyPrefix struct {
	Attr, Lang, Value string
}

// ByPropertyPhrase matches nodes having a value whose tokens contain the
// tokens of Phrase consecutively.
type ByPropertyPhrase struct {
	Attr, Lang, Phrase string
}

// ByPropertyString matches nodes having a value exactly equal to Value.
type ByPropertyString struct {
	Attr, Lang, Value string
}

// ByPropertyStringPrefix matches nodes having a value starting with Value.
type ByPropertyStringPrefix struct {
	Attr, Lang, Value string
}

// ByPropertyStringRange matches nodes having a value in [Lower, Upper] by
// byte order. A nil bound is open.
type ByPropertyStringRange struct {
	Attr, Lang   string
	Lower, Upper *string
}

// ByReference matches nodes whose Attr references a node with UUID Value.
type ByReference struct {
	Attr  string
	Value uuid.UUID
}

// WithoutReference matches nodes with no values for Attr.
type WithoutReference struct {
	Attr string
}

// WithoutReferrer matches nodes that no node references through Attr.
type WithoutReferrer struct {
	Attr string
}

// ByReferencePath matches nodes whose Attr references some node matching
// Value. It must be resolved before evaluation or compilation.
type ByReferencePath struct {
	Attr  string
	Value Specification
}

// ByResolvedReferencePath is ByReferencePath after resolution: IDs holds the
// nodes that matched Value.
type ByResolvedReferencePath struct {
	Attr  string
	Value Specification
	IDs   []domain.NodeID
}

// ByCreatedDate matches nodes created within [Lower, Upper].
type ByCreatedDate struct {
	Lower, Upper *time.Time
}

// ByLastModifiedDate matches nodes last modified within [Lower, Upper].
type ByLastModifiedDate struct {
	Lower, Upper *time.Time
}

// LastModifiedSince matches nodes last modified strictly after Date.
type LastModifiedSince struct {
	Date time.Time
}

func (And) specNode()                     {}
func (Or) specNode()                      {}
func (Not) specNode()                     {}
func (Boost) specNode()                   {}
func (MatchAll) specNode()                {}
func (MatchNone) specNode()               {}
func (ByID) specNode()                    {}
func (ByCode) specNode()                  {}
func (ByURI) specNode()                   {}
func (ByNumber) specNode()                {}
func (ByNumberRange) specNode()           {}
func (ByGraphID) specNode()               {}
func (ByTypeID) specNode()                {}
func (ByGraphURI) specNode()              {}
func (ByGraphCode) specNode()             {}
func (ByTypeURI) specNode()               {}
func (ByProperty) specNode()              {}
func (ByPropertyPrefix) specNode()        {}
func (ByPropertyPhrase) specNode()        {}
func (ByPropertyString) specNode()        {}
func (ByPropertyStringPrefix) specNode()  {}
func (ByPropertyStringRange) specNode()   {}
func (ByReference) specNode()             {}
func (WithoutReference) specNode()        {}
func (WithoutReferrer) specNode()         {}
func (ByReferencePath) specNode()         {}
func (ByResolvedReferencePath) specNode() {}
func (ByCreatedDate) specNode()           {}
func (ByLastModifiedDate) specNode()      {}
func (LastModifiedSince) specNode()       {}

// NewAnd builds an And over specs.
func NewAnd(specs ...Specification) And { return And{Specs: specs} }

// NewOr builds an Or over specs.
func NewOr(specs ...Specification) Or { return Or{Specs: specs} }

// Ptr returns a pointer to v, for range bounds.
func Ptr[T any](v T) *T { return &v }
