// Package index keeps a full-text bleve index of nodes and executes
// compiled search queries against it.
//
// Documents follow the specsearch field contract: keyword fields at the
// root, numeric audit dates in Unix milliseconds, and an analyzed "text"
// sub-document. Text is normalized before indexing and split into tokens
// with spec.TokenPattern, the tokenization the evaluator uses. Keys are
// sorted by graph, type and id fields, the order of domain.CompareNodeIDs.
//
// The index stores no field values; full nodes are read from the store.
package index
