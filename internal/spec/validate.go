package spec

import (
	"fmt"

	"github.com/roach88/nodeql/internal/domain"
)

// ValidationResult lists invariant violations found in a tree.
type ValidationResult struct {
	// Valid is true when Problems is empty.
	Valid bool

	// Problems describes each violation, in tree order.
	Problems []string
}

// Validate checks the structural invariants of s: no nil members, attribute
// ids and codes match CodePattern, languages match LangPattern, range bounds
// are ordered and boosts are positive.
//
// Validate is a pure function with no side effects.
func Validate(s Specification) ValidationResult {
	v := &validator{problems: []string{}}
	v.validate(s)
	return ValidationResult{Valid: len(v.problems) == 0, Problems: v.problems}
}

// validator accumulates problems during traversal.
type validator struct {
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) validate(s Specification) {
	if s == nil {
		v.addProblem("nil specification")
		return
	}
	switch n := s.(type) {
	case And:
		v.members(n.Specs)
	case Or:
		v.members(n.Specs)
	case Not:
		v.validate(n.Spec)
	case Boost:
		if !(n.Factor > 0) {
			v.addProblem("boost factor %v is not positive", n.Factor)
		}
		v.validate(n.Spec)
	case ByNumberRange:
		if n.Lower != nil && n.Upper != nil && *n.Lower > *n.Upper {
			v.addProblem("number range lower %d exceeds upper %d", *n.Lower, *n.Upper)
		}
	case ByTypeID:
		v.code("type id", n.TypeID)
	case ByGraphCode:
		v.code("graph code", n.Code)
	case ByProperty:
		v.property(n.Attr, n.Lang)
	case ByPropertyPrefix:
		v.property(n.Attr, n.Lang)
	case ByPropertyPhrase:
		v.property(n.Attr, n.Lang)
	case ByPropertyString:
		v.property(n.Attr, n.Lang)
	case ByPropertyStringPrefix:
		v.property(n.Attr, n.Lang)
	case ByPropertyStringRange:
		v.property(n.Attr, n.Lang)
		if n.Lower != nil && n.Upper != nil && *n.Lower > *n.Upper {
			v.addProblem("string range lower %q exceeds upper %q", *n.Lower, *n.Upper)
		}
	case ByReference:
		v.code("reference attribute", n.Attr)
	case WithoutReference:
		v.code("reference attribute", n.Attr)
	case WithoutReferrer:
		v.code("reference attribute", n.Attr)
	case ByReferencePath:
		v.code("reference attribute", n.Attr)
		v.validate(n.Value)
	case ByResolvedReferencePath:
		v.code("reference attribute", n.Attr)
	case ByCreatedDate:
		if n.Lower != nil && n.Upper != nil && n.Lower.After(*n.Upper) {
			v.addProblem("created date range lower %s exceeds upper %s", formatDate(*n.Lower), formatDate(*n.Upper))
		}
	case ByLastModifiedDate:
		if n.Lower != nil && n.Upper != nil && n.Lower.After(*n.Upper) {
			v.addProblem("last modified date range lower %s exceeds upper %s", formatDate(*n.Lower), formatDate(*n.Upper))
		}
	}
}

func (v *validator) members(specs []Specification) {
	for _, m := range specs {
		v.validate(m)
	}
}

func (v *validator) code(what, s string) {
	if !domain.IsCode(s) {
		v.addProblem("%s %q is not a valid code", what, s)
	}
}

func (v *validator) property(attr, lang string) {
	v.code("text attribute", attr)
	if lang != "" && !domain.IsLang(lang) {
		v.addProblem("language %q is not a valid language tag", lang)
	}
}
