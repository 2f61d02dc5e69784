package spec

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/roach88/nodeql/internal/domain"
)

// Evaluate tests node n, stored under key, against s.
//
// key must be n's own id; anything else returns ErrKeyMismatch. Trees that
// still hold indirect leaves or unresolved reference paths return an
// UnresolvedError without evaluating anything. Boost is ignored.
func Evaluate(s Specification, key domain.NodeID, n *domain.Node) (bool, error) {
	if n == nil || key != n.ID {
		return false, fmt.Errorf("%w: key %s", ErrKeyMismatch, key)
	}
	var unresolved Specification
	Walk(s, func(c Specification) bool {
		if unresolved != nil {
			return false
		}
		if _, ok := c.(ByReferencePath); ok || IsIndirect(c) {
			unresolved = c
			return false
		}
		return true
	})
	if unresolved != nil {
		return false, &UnresolvedError{Spec: unresolved}
	}
	return eval(s, n), nil
}

func eval(s Specification, n *domain.Node) bool {
	switch v := s.(type) {
	case And:
		for _, m := range v.Specs {
			if !eval(m, n) {
				return false
			}
		}
		return true
	case Or:
		for _, m := range v.Specs {
			if eval(m, n) {
				return true
			}
		}
		return false
	case Not:
		return !eval(v.Spec, n)
	case Boost:
		return eval(v.Spec, n)
	case MatchAll:
		return true
	case MatchNone:
		return false
	case ByID:
		return n.ID.ID == v.ID
	case ByCode:
		return n.Code == v.Code
	case ByURI:
		return n.URI == v.URI
	case ByNumber:
		return n.Number == v.Number
	case ByNumberRange:
		return inRange(n.Number, v.Lower, v.Upper)
	case ByGraphID:
		return n.ID.Type.Graph == v.Graph
	case ByTypeID:
		return n.ID.Type.ID == v.TypeID
	case ByProperty:
		want := Tokens(v.Value)
		if len(want) == 0 {
			return false
		}
		return anyValue(n, v.Attr, v.Lang, func(value string) bool {
			return containsAll(Tokens(value), want)
		})
	case ByPropertyPrefix:
		prefix := Normalize(v.Value)
		return anyValue(n, v.Attr, v.Lang, func(value string) bool {
			return slices.ContainsFunc(Tokens(value), func(t string) bool {
				return strings.HasPrefix(t, prefix)
			})
		})
	case ByPropertyPhrase:
		run := Tokens(v.Phrase)
		return anyValue(n, v.Attr, v.Lang, func(value string) bool {
			return containsRun(Tokens(value), run)
		})
	case ByPropertyString:
		return anyValue(n, v.Attr, v.Lang, func(value string) bool { return value == v.Value })
	case ByPropertyStringPrefix:
		return anyValue(n, v.Attr, v.Lang, func(value string) bool {
			return strings.HasPrefix(value, v.Value)
		})
	case ByPropertyStringRange:
		return anyValue(n, v.Attr, v.Lang, func(value string) bool {
			return inRange(value, v.Lower, v.Upper)
		})
	case ByReference:
		return slices.ContainsFunc(n.References[v.Attr], func(id domain.NodeID) bool {
			return id.ID == v.Value
		})
	case WithoutReference:
		return len(n.References[v.Attr]) == 0
	case WithoutReferrer:
		return len(n.Referrers[v.Attr]) == 0
	case ByResolvedReferencePath:
		for _, ref := range n.References[v.Attr] {
			if slices.Contains(v.IDs, ref) {
				return true
			}
		}
		return false
	case ByCreatedDate:
		return inDateRange(n.CreatedDate, v.Lower, v.Upper)
	case ByLastModifiedDate:
		return inDateRange(n.LastModifiedDate, v.Lower, v.Upper)
	case LastModifiedSince:
		return n.LastModifiedDate.UnixMilli() > v.Date.UnixMilli()
	}
	// Indirect and unresolved leaves are rejected by Evaluate before eval runs.
	panic(fmt.Sprintf("spec: unexpected %T in eval", s))
}

func anyValue(n *domain.Node, attr, lang string, pred func(string) bool) bool {
	return slices.ContainsFunc(n.PropertyValues(attr, lang), pred)
}

func inRange[T int64 | string](v T, lower, upper *T) bool {
	if lower != nil && v < *lower {
		return false
	}
	if upper != nil && v > *upper {
		return false
	}
	return true
}

func inDateRange(t time.Time, lower, upper *time.Time) bool {
	ms := t.UnixMilli()
	if lower != nil && ms < lower.UnixMilli() {
		return false
	}
	if upper != nil && ms > upper.UnixMilli() {
		return false
	}
	return true
}
