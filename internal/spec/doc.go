// Package spec provides the Specification AST: a sealed algebra of boolean
// combinators and leaf predicates over graph nodes.
//
// Every tree is immutable once built; transformations (simplify, resolve,
// filter) return new trees. Backends consume trees through exhaustive type
// switches in their own packages (specsql, specsearch) and through Evaluate
// here.
//
// Three kinds of leaves exist:
//   - Direct leaves name concrete ids and values and can be evaluated.
//   - Indirect leaves (ByGraphURI, ByGraphCode, ByTypeURI) must be rewritten
//     by the indirection resolver before evaluation.
//   - Dependent leaves (ByReferencePath) carry a nested value specification
//     and must be replaced by ByResolvedReferencePath before evaluation.
package spec
