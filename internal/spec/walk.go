package spec

// Children returns the direct sub-specifications of s. The value of a
// reference path counts as a child.
func Children(s Specification) []Specification {
	switch v := s.(type) {
	case And:
		return v.Specs
	case Or:
		return v.Specs
	case Not:
		return []Specification{v.Spec}
	case Boost:
		return []Specification{v.Spec}
	case ByReferencePath:
		return []Specification{v.Value}
	}
	return nil
}

// Walk calls fn for s and its descendants in depth-first pre-order. When fn
// returns false the children of that node are skipped. The value of a
// resolved reference path is not visited: its result is already fixed.
func Walk(s Specification, fn func(Specification) bool) {
	if s == nil || !fn(s) {
		return
	}
	for _, c := range Children(s) {
		Walk(c, fn)
	}
}

// Any reports whether some node in s satisfies pred.
func Any(s Specification, pred func(Specification) bool) bool {
	found := false
	Walk(s, func(n Specification) bool {
		if found {
			return false
		}
		if pred(n) {
			found = true
			return false
		}
		return true
	})
	return found
}

// IsIndirect reports whether s is an indirect leaf.
func IsIndirect(s Specification) bool {
	switch s.(type) {
	case ByGraphURI, ByGraphCode, ByTypeURI:
		return true
	}
	return false
}

// HasIndirect reports whether s contains indirect leaves.
func HasIndirect(s Specification) bool { return Any(s, IsIndirect) }

// HasDependent reports whether s contains unresolved reference paths.
func HasDependent(s Specification) bool {
	return Any(s, func(n Specification) bool {
		_, ok := n.(ByReferencePath)
		return ok
	})
}
