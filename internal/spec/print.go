package spec

import (
	"strconv"
	"strings"
	"time"
)

// Rendering levels, loosest to tightest binding. A node rendered into a
// context that binds tighter than the node's own form is parenthesized.
const (
	levelQuery = iota
	levelTerm
	levelFactor
	levelPrimary
)

// DateLayout is the layout used to render dates.
const DateLayout = time.RFC3339Nano

func level(s Specification) int {
	switch v := s.(type) {
	case And:
		switch len(v.Specs) {
		case 0:
			return levelPrimary
		case 1:
			return level(v.Specs[0])
		}
		return levelTerm
	case Or:
		switch len(v.Specs) {
		case 0:
			return levelFactor
		case 1:
			return level(v.Specs[0])
		}
		return levelQuery
	case Not, Boost, MatchNone:
		return levelFactor
	}
	return levelPrimary
}

func render(s Specification, ctx int) string {
	if level(s) < ctx {
		return "(" + s.String() + ")"
	}
	return s.String()
}

func join(specs []Specification, sep string, ctx int) string {
	parts := make([]string, len(specs))
	for i, s := range specs {
		parts[i] = render(s, ctx)
	}
	return strings.Join(parts, sep)
}

func (s And) String() string {
	if len(s.Specs) == 0 {
		return MatchAll{}.String()
	}
	return join(s.Specs, " AND ", levelFactor)
}

func (s Or) String() string {
	if len(s.Specs) == 0 {
		return MatchNone{}.String()
	}
	return join(s.Specs, " OR ", levelTerm)
}

func (s Not) String() string { return "NOT " + render(s.Spec, levelPrimary) }

func (s Boost) String() string {
	return render(s.Spec, levelPrimary) + "^" + strconv.FormatFloat(float64(s.Factor), 'f', -1, 32)
}

func (MatchAll) String() string  { return "*:*" }
func (MatchNone) String() string { return "NOT *:*" }

func (s ByID) String() string       { return "id:" + s.ID.String() }
func (s ByCode) String() string     { return "code:" + s.Code }
func (s ByURI) String() string      { return "uri:" + uriText(s.URI) }
func (s ByNumber) String() string   { return "number:" + strconv.FormatInt(s.Number, 10) }
func (s ByGraphID) String() string  { return "graph.id:" + s.Graph.String() }
func (s ByTypeID) String() string   { return "type.id:" + s.TypeID }
func (s ByGraphURI) String() string { return "graph.uri:" + uriText(s.URI) }
func (s ByGraphCode) String() string {
	return "graph.code:" + s.Code
}
func (s ByTypeURI) String() string { return "type.uri:" + uriText(s.URI) }

func (s ByNumberRange) String() string {
	return "number:" + rangeString(s.Lower, s.Upper, func(n int64) string { return strconv.FormatInt(n, 10) })
}

func (s ByProperty) String() string {
	return property(s.Attr, s.Lang, false) + s.Value
}

func (s ByPropertyPrefix) String() string {
	return property(s.Attr, s.Lang, false) + s.Value + "*"
}

func (s ByPropertyPhrase) String() string {
	return property(s.Attr, s.Lang, false) + quote(s.Phrase)
}

func (s ByPropertyString) String() string {
	return property(s.Attr, s.Lang, true) + quote(s.Value)
}

func (s ByPropertyStringPrefix) String() string {
	return property(s.Attr, s.Lang, true) + s.Value + "*"
}

func (s ByPropertyStringRange) String() string {
	return property(s.Attr, s.Lang, true) + rangeString(s.Lower, s.Upper, func(v string) string { return v })
}

func (s ByReference) String() string      { return "r." + s.Attr + ".id:" + s.Value.String() }
func (s WithoutReference) String() string { return "r." + s.Attr + ".id:null" }
func (s WithoutReferrer) String() string  { return "referrers." + s.Attr + ".id:null" }

func (s ByReferencePath) String() string {
	return "r." + s.Attr + "." + render(s.Value, levelPrimary)
}

func (s ByResolvedReferencePath) String() string {
	return ByReferencePath{Attr: s.Attr, Value: s.Value}.String()
}

func (s ByCreatedDate) String() string {
	return "createdDate:" + rangeString(s.Lower, s.Upper, formatDate)
}

func (s ByLastModifiedDate) String() string {
	return "lastModifiedDate:" + rangeString(s.Lower, s.Upper, formatDate)
}

func (s LastModifiedSince) String() string {
	return "lastModifiedSince:" + formatDate(s.Date)
}

func property(attr, lang string, exact bool) string {
	var b strings.Builder
	b.WriteString("p.")
	b.WriteString(attr)
	if lang != "" {
		b.WriteString(".")
		b.WriteString(lang)
	}
	if exact {
		b.WriteString(".string")
	}
	b.WriteString(":")
	return b.String()
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// quote renders s double-quoted, escaping quotes and backslashes.
func quote(s string) string { return `"` + quoteEscaper.Replace(s) + `"` }

// uriText renders u bare when it reads back as one token, else quoted.
func uriText(u string) string {
	if u == "" || strings.ContainsAny(u, " \t\n\r\f\v()^\"") {
		return quote(u)
	}
	return u
}

func rangeString[T any](lower, upper *T, format func(T) string) string {
	lo, hi := "*", "*"
	if lower != nil {
		lo = format(*lower)
	}
	if upper != nil {
		hi = format(*upper)
	}
	return "[" + lo + " TO " + hi + "]"
}

func formatDate(t time.Time) string { return t.UTC().Format(DateLayout) }
