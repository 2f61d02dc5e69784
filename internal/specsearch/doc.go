// Package specsearch compiles spec trees to bleve queries and defines the
// field layout of indexed node documents.
//
// Tokenized text leaves run against analyzed "text.*" fields. Exact string
// leaves run against keyword "string.*" fields. Identity, graph, type and
// reference leaves are keyword terms; numbers and dates are numeric ranges
// over Unix milliseconds.
package specsearch
