// Package resolve rewrites spec trees between parsing and compilation.
//
// IndirectionResolver replaces graph and type references by uri or code with
// concrete ids. TypeFilter drops every leaf the viewing type does not
// declare. DependentResolver replaces reference paths with the id sets they
// resolve to, asking an injected RunFunc for each nested specification.
//
// The first two are total: they never fail, and unknown names become
// MatchNone. Only the RunFunc may return errors.
package resolve
