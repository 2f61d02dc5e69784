// Package catalog loads the graph and type schema from CUE files.
//
// A catalog declares graphs keyed by code. Each graph holds types keyed by
// type id, and each type lists its text and reference attributes in order.
// Attribute order matters: it decides prefix-search boosts.
//
//	graph: acme: {
//		id:  "11111111-1111-1111-1111-111111111111"
//		uri: "http://example.org/acme/"
//		type: Person: {
//			uri: "http://example.org/acme/Person"
//			text: [{id: "name"}, {id: "nickname", regex: "^[A-Za-z]+$"}]
//			reference: [{id: "knows", range: "Person"}]
//		}
//	}
//
// A reference range names a type in the same graph ("Person") or in another
// graph by code ("other.Person").
package catalog
