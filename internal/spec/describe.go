package spec

import (
	"reflect"
	"strings"
	"time"
)

// Describe renders s as a JSON-friendly tree: each node is a map with its
// variant name under "kind", its members under "specs" or "spec", and its
// leaf fields in lower camel case. Nil bounds are omitted.
func Describe(s Specification) map[string]any {
	out := map[string]any{"kind": reflect.TypeOf(s).Name()}
	switch v := s.(type) {
	case And:
		out["specs"] = describeAll(v.Specs)
	case Or:
		out["specs"] = describeAll(v.Specs)
	case Not:
		out["spec"] = Describe(v.Spec)
	case Boost:
		out["spec"] = Describe(v.Spec)
		out["factor"] = v.Factor
	case ByReferencePath:
		out["attr"] = v.Attr
		out["value"] = Describe(v.Value)
	case ByResolvedReferencePath:
		out["attr"] = v.Attr
		out["value"] = Describe(v.Value)
		ids := make([]string, len(v.IDs))
		for i, id := range v.IDs {
			ids[i] = id.String()
		}
		out["ids"] = ids
	default:
		rv := reflect.ValueOf(s)
		rt := rv.Type()
		for i := 0; i < rt.NumField(); i++ {
			f := rv.Field(i)
			if f.Kind() == reflect.Pointer {
				if f.IsNil() {
					continue
				}
				f = f.Elem()
			}
			if f.Kind() == reflect.String && f.String() == "" {
				continue
			}
			out[lowerFirst(rt.Field(i).Name)] = fmtField(f)
		}
	}
	return out
}

func describeAll(specs []Specification) []map[string]any {
	out := make([]map[string]any, len(specs))
	for i, s := range specs {
		out[i] = Describe(s)
	}
	return out
}

func fmtField(f reflect.Value) any {
	if t, ok := f.Interface().(time.Time); ok {
		return formatDate(t)
	}
	if s, ok := f.Interface().(interface{ String() string }); ok {
		return s.String()
	}
	return f.Interface()
}

// lowerFirst lower-cases the leading upper-case run of a field name:
// ID -> id, TypeID -> typeID, URI -> uri.
func lowerFirst(s string) string {
	n := 0
	for n < len(s) && s[n] >= 'A' && s[n] <= 'Z' {
		n++
	}
	if n > 1 && n < len(s) {
		n--
	}
	return strings.ToLower(s[:n]) + s[n:]
}
