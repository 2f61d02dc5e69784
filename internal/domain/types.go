package domain

import "time"

// Graph is a named container of types.
type Graph struct {
	ID   GraphID `json:"id"`
	Code string  `json:"code,omitempty"`
	URI  string  `json:"uri,omitempty"`
}

// TextAttribute declares a multi-valued, language-tagged string property.
type TextAttribute struct {
	ID     string `json:"id"`
	Domain TypeID `json:"domain"`
	URI    string `json:"uri,omitempty"`
	Regex  string `json:"regex,omitempty"`
}

// AttributeID returns the fully qualified id.
func (a TextAttribute) AttributeID() TextAttributeID {
	return TextAttributeID{Domain: a.Domain, ID: a.ID}
}

// ReferenceAttribute declares a multi-valued link to nodes of the Range type.
type ReferenceAttribute struct {
	ID     string `json:"id"`
	Domain TypeID `json:"domain"`
	Range  TypeID `json:"range"`
	URI    string `json:"uri,omitempty"`
}

// AttributeID returns the fully qualified id.
func (a ReferenceAttribute) AttributeID() ReferenceAttributeID {
	return ReferenceAttributeID{Domain: a.Domain, ID: a.ID}
}

// Type is a schema for nodes. Attribute order is declaration order.
type Type struct {
	ID                  TypeID               `json:"id"`
	URI                 string               `json:"uri,omitempty"`
	TextAttributes      []TextAttribute      `json:"text_attributes"`
	ReferenceAttributes []ReferenceAttribute `json:"reference_attributes"`
}

// TextAttribute looks up a declared text attribute.
func (t Type) TextAttribute(id string) (TextAttribute, bool) {
	for _, a := range t.TextAttributes {
		if a.ID == id {
			return a, true
		}
	}
	return TextAttribute{}, false
}

// ReferenceAttribute looks up a declared reference attribute.
func (t Type) ReferenceAttribute(id string) (ReferenceAttribute, bool) {
	for _, a := range t.ReferenceAttributes {
		if a.ID == id {
			return a, true
		}
	}
	return ReferenceAttribute{}, false
}

// LangValue is a property value with an optional language tag.
type LangValue struct {
	Lang  string `json:"lang,omitempty" yaml:"lang,omitempty"`
	Value string `json:"value" yaml:"value"`
}

// Node is an instance of a type.
type Node struct {
	ID               NodeID                 `json:"id"`
	Code             string                 `json:"code,omitempty"`
	URI              string                 `json:"uri,omitempty"`
	Number           int64                  `json:"number"`
	CreatedBy        string                 `json:"created_by,omitempty"`
	CreatedDate      time.Time              `json:"created_date"`
	LastModifiedBy   string                 `json:"last_modified_by,omitempty"`
	LastModifiedDate time.Time              `json:"last_modified_date"`
	Properties       map[string][]LangValue `json:"properties,omitempty"`
	References       map[string][]NodeID    `json:"references,omitempty"`
	Referrers        map[string][]NodeID    `json:"referrers,omitempty"`
}

// PropertyValues returns the values of attr, restricted to lang when lang is
// non-empty.
func (n *Node) PropertyValues(attr, lang string) []string {
	var out []string
	for _, v := range n.Properties[attr] {
		if lang == "" || v.Lang == lang {
			out = append(out, v.Value)
		}
	}
	return out
}
