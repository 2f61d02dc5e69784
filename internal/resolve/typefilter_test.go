package resolve

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/roach88/nodeql/internal/domain"
	"github.com/roach88/nodeql/internal/spec"
	"github.com/roach88/nodeql/internal/specparse"
	"github.com/roach88/nodeql/internal/testutil"
)

func TestTypeFilter(t *testing.T) {
	p := testutil.NewPeople()
	f := NewTypeFilter(p.Types)

	name := spec.ByPropertyPrefix{Attr: "name", Value: "jo"}
	hidden := spec.ByProperty{Attr: "salary", Value: "1"}
	knows := spec.WithoutReference{Attr: "knows"}

	tests := []struct {
		name    string
		viewing domain.TypeID
		in      spec.Specification
		want    spec.Specification
	}{
		{"declared text", p.Person.ID, name, name},
		{"undeclared text", p.Person.ID, hidden, spec.MatchNone{}},
		{"identity leaves", p.Person.ID, spec.NewAnd(spec.ByCode{Code: "x"}, spec.ByNumber{Number: 1}), spec.NewAnd(spec.ByCode{Code: "x"}, spec.ByNumber{Number: 1})},
		{"declared reference", p.Person.ID, knows, knows},
		{"reference of other type", p.Group.ID, knows, spec.MatchNone{}},
		{"own graph", p.Person.ID, spec.ByGraphID{Graph: p.Acme.ID}, spec.ByGraphID{Graph: p.Acme.ID}},
		{"foreign graph", p.Person.ID, spec.ByGraphID{Graph: p.Other.ID}, spec.MatchNone{}},
		{"own type", p.Group.ID, spec.ByTypeID{TypeID: "Group"}, spec.ByTypeID{TypeID: "Group"}},
		{"foreign type", p.Group.ID, spec.ByTypeID{TypeID: "Person"}, spec.MatchNone{}},
		{"and drops to none", p.Person.ID, spec.NewAnd(name, hidden), spec.MatchNone{}},
		{"or keeps allowed", p.Person.ID, spec.NewOr(name, hidden), name},
		{"not of hidden denies", p.Person.ID, spec.Not{Spec: hidden}, spec.MatchNone{}},
		{"not of partly hidden denies", p.Person.ID, spec.Not{Spec: spec.NewAnd(name, hidden)}, spec.MatchNone{}},
		{"not of allowed", p.Person.ID, spec.Not{Spec: name}, spec.Not{Spec: name}},
		{"indirect leaf", p.Person.ID, spec.ByGraphCode{Code: "acme"}, spec.MatchNone{}},
		{"referrer declared elsewhere", p.Person.ID, spec.WithoutReferrer{Attr: "member"}, spec.WithoutReferrer{Attr: "member"}},
		{"referrer unknown", p.Group.ID, spec.WithoutReferrer{Attr: "member"}, spec.MatchNone{}},
		{"path recurses into range", p.Group.ID,
			spec.ByReferencePath{Attr: "member", Value: spec.NewAnd(spec.ByProperty{Attr: "nickname", Value: "x"}, spec.ByCode{Code: "y"})},
			spec.ByReferencePath{Attr: "member", Value: spec.And{Specs: []spec.Specification{
				spec.ByGraphID{Graph: p.Acme.ID},
				spec.ByTypeID{TypeID: "Person"},
				spec.ByProperty{Attr: "nickname", Value: "x"},
				spec.ByCode{Code: "y"},
			}}}},
		{"path restricted to range type", p.Person.ID,
			spec.ByReferencePath{Attr: "knows", Value: spec.MatchAll{}},
			spec.ByReferencePath{Attr: "knows", Value: spec.And{Specs: []spec.Specification{
				spec.ByGraphID{Graph: p.Acme.ID},
				spec.ByTypeID{TypeID: "Person"},
			}}}},
		{"path range hides attribute", p.Group.ID,
			spec.ByReferencePath{Attr: "member", Value: spec.ByProperty{Attr: "salary", Value: "x"}},
			spec.ByReferencePath{Attr: "member", Value: spec.MatchNone{}}},
		{"undeclared path", p.Person.ID, spec.ByReferencePath{Attr: "member", Value: spec.MatchAll{}}, spec.MatchNone{}},
		{"unreadable viewing type", domain.TypeID{ID: "Ghost", Graph: p.Acme.ID}, name, spec.MatchNone{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := f.Filter(tt.viewing, tt.in)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Filter mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// Every leaf that survives the filter names an attribute the viewing type
// (or a path's range type) declares.
func TestTypeFilterContainment(t *testing.T) {
	p := testutil.NewPeople()
	f := NewTypeFilter(p.Types)

	queries := []string{
		"p.name:jo* OR p.salary:1 OR r.knows.p.secret:x",
		"NOT p.secret:x AND p.nickname:johnny",
		"r.knows.(p.name:amy OR p.member:x) AND referrers.member.id:null",
		"r.member.p.name:x OR r.knows.id:00000000-0000-0000-0000-000000000001",
	}
	for _, typ := range p.Types {
		for _, q := range queries {
			got := f.Filter(typ.ID, specparse.MustParse(q))
			assertContained(t, p, typ, got)
		}
	}
}

func assertContained(t *testing.T, p *testutil.People, typ domain.Type, s spec.Specification) {
	t.Helper()
	spec.Walk(s, func(n spec.Specification) bool {
		switch v := n.(type) {
		case spec.ByProperty:
			_, ok := typ.TextAttribute(v.Attr)
			assert.True(t, ok, "%s leaked text attribute %s", typ.ID.ID, v.Attr)
		case spec.ByPropertyPrefix:
			_, ok := typ.TextAttribute(v.Attr)
			assert.True(t, ok, "%s leaked text attribute %s", typ.ID.ID, v.Attr)
		case spec.ByReference:
			_, ok := typ.ReferenceAttribute(v.Attr)
			assert.True(t, ok, "%s leaked reference attribute %s", typ.ID.ID, v.Attr)
		case spec.ByReferencePath:
			a, ok := typ.ReferenceAttribute(v.Attr)
			assert.True(t, ok, "%s leaked reference attribute %s", typ.ID.ID, v.Attr)
			if ok {
				for _, rt := range p.Types {
					if rt.ID == a.Range {
						assertContained(t, p, rt, v.Value)
					}
				}
			}
			return false
		}
		return true
	})
}
