// Package engine runs where-clause queries against the node store and the
// full-text index.
//
// ARCHITECTURE:
//
// Request Pipeline:
// Every query passes through the same stages, in order:
// 1. Parse the where clause (specparse)
// 2. Rewrite graph and type names to ids (resolve.IndirectionResolver)
// 3. Drop leaves the viewing type does not declare (resolve.TypeFilter)
// 4. Restrict to the viewing type and simplify (spec.ForType)
// 5. Run nested reference paths and inline their ids (resolve.DependentResolver)
// 6. Execute on the chosen backend
//
// Stages 1-4 are pure and are exposed as Prepare. Stage 5 issues one
// backend round trip per reference path.
//
// Backend Choice:
// A tree without tokenized text leaves runs on the store as SQL. Anything
// else runs on the index. Nested reference paths choose independently.
// Callers may force a backend per request.
//
// Writes:
// SaveNodes and DeleteNode keep the index consistent with the store. Index
// documents carry referrer data, so the targets of old and new references
// are reindexed along with the written nodes.
package engine
