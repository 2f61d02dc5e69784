// Package specparse parses the node query language into spec trees.
//
// Grammar:
//
//	query   = term { " OR " term }
//	term    = factor { " AND " factor }
//	factor  = [ "NOT " ] primary [ "^" number ]
//	primary = clause | "(" query ")"
//
// A clause is the first of an ordered list of anchored patterns that matches
// at the current position. Clause patterns are RE2 expressions, so matching
// is linear in the input and hostile input cannot cause backtracking blowup.
// Reference paths nest: "r.<attr>." is followed by another primary.
package specparse
