package spec

import (
	"strings"

	"github.com/roach88/nodeql/internal/domain"
)

// ByType matches nodes of type t.
func ByType(t domain.TypeID) Specification {
	return NewAnd(ByGraphID{Graph: t.Graph}, ByTypeID{TypeID: t.ID})
}

// ByTypeAndCode matches the node of type t with the given code.
func ByTypeAndCode(t domain.TypeID, code string) Specification {
	return NewAnd(ByGraphID{Graph: t.Graph}, ByTypeID{TypeID: t.ID}, ByCode{Code: code})
}

// ByAnyType matches nodes of any of the types.
func ByAnyType(types []domain.TypeID) Specification {
	members := make([]Specification, len(types))
	for i, t := range types {
		members[i] = ByType(t)
	}
	return Simplify(Or{Specs: members})
}

// ForType restricts s to nodes of type t and simplifies the result.
func ForType(t domain.TypeID, s Specification) Specification {
	return Simplify(NewAnd(ByGraphID{Graph: t.Graph}, ByTypeID{TypeID: t.ID}, s))
}

// PrefixBoost is the relevance weight of the i-th declared text attribute in
// prefix search: 8, 4, 2, then 1 for the rest.
func PrefixBoost(i int) float32 {
	if i >= 3 {
		return 1
	}
	return float32(int(8) >> i)
}

// ByAnyPropertyPrefix matches nodes of type t where every whitespace
// separated word of text is a token prefix in some text attribute. Earlier
// attributes weigh more. Blank text matches every node of the type.
func ByAnyPropertyPrefix(t domain.Type, text string) Specification {
	words := strings.Fields(text)
	members := make([]Specification, 0, len(words))
	for _, w := range words {
		alternatives := make([]Specification, len(t.TextAttributes))
		for i, a := range t.TextAttributes {
			alternatives[i] = Boost{
				Spec:   ByPropertyPrefix{Attr: a.ID, Value: w},
				Factor: PrefixBoost(i),
			}
		}
		members = append(members, Or{Specs: alternatives})
	}
	return ForType(t.ID, And{Specs: members})
}
