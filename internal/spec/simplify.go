package spec

// Simplify returns a tree equivalent to s with fewer nodes:
//   - nested combinators of the same kind are flattened into their parent
//   - MatchAll members are dropped from And, MatchNone members from Or
//   - an And containing MatchNone becomes MatchNone, an Or containing
//     MatchAll becomes MatchAll
//   - an empty And becomes MatchAll, an empty Or becomes MatchNone
//   - a single-member And or Or becomes its member
//   - Not over MatchAll or MatchNone becomes the opposite constant
//   - Boost over a constant becomes the constant
//
// Member order is preserved. Reference path values are simplified too.
func Simplify(s Specification) Specification {
	switch v := s.(type) {
	case And:
		return simplifyAnd(v)
	case Or:
		return simplifyOr(v)
	case Not:
		inner := Simplify(v.Spec)
		switch inner.(type) {
		case MatchAll:
			return MatchNone{}
		case MatchNone:
			return MatchAll{}
		}
		return Not{Spec: inner}
	case Boost:
		inner := Simplify(v.Spec)
		switch inner.(type) {
		case MatchAll, MatchNone:
			return inner
		}
		return Boost{Spec: inner, Factor: v.Factor}
	case ByReferencePath:
		return ByReferencePath{Attr: v.Attr, Value: Simplify(v.Value)}
	}
	return s
}

func simplifyAnd(a And) Specification {
	var members []Specification
	for _, m := range flatten(a.Specs, true) {
		switch m.(type) {
		case MatchAll:
			continue
		case MatchNone:
			return MatchNone{}
		}
		members = append(members, m)
	}
	switch len(members) {
	case 0:
		return MatchAll{}
	case 1:
		return members[0]
	}
	return And{Specs: members}
}

func simplifyOr(o Or) Specification {
	var members []Specification
	for _, m := range flatten(o.Specs, false) {
		switch m.(type) {
		case MatchNone:
			continue
		case MatchAll:
			return MatchAll{}
		}
		members = append(members, m)
	}
	switch len(members) {
	case 0:
		return MatchNone{}
	case 1:
		return members[0]
	}
	return Or{Specs: members}
}

// flatten simplifies specs and splices in members of same-kind combinators.
func flatten(specs []Specification, and bool) []Specification {
	out := make([]Specification, 0, len(specs))
	for _, s := range specs {
		s = Simplify(s)
		switch v := s.(type) {
		case And:
			if and {
				out = append(out, v.Specs...)
				continue
			}
		case Or:
			if !and {
				out = append(out, v.Specs...)
				continue
			}
		}
		out = append(out, s)
	}
	return out
}
