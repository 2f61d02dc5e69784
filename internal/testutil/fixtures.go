package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/roach88/nodeql/internal/domain"
)

// People is a small catalog and data set shared by tests:
//
//	graph acme:  Person{name, nickname; knows -> Person}
//	             Group{name; member -> Person}
//	graph other: Person{name}
//
//	john --knows--> mary --knows--> amy
//	admins --member--> john, amy
type People struct {
	Acme, Other       domain.Graph
	Person, Group     domain.Type
	OtherPerson       domain.Type
	John, Mary, Amy   domain.Node
	Admins, OtherJohn domain.Node
	Graphs            []domain.Graph
	Types             []domain.Type
	Nodes             []domain.Node
	Clock             *DeterministicClock
}

// NewPeople builds the fixture with referrers derived.
func NewPeople() *People {
	p := &People{Clock: NewDeterministicClock()}

	p.Acme = domain.Graph{
		ID:   domain.GraphID{ID: uuid.MustParse("11111111-1111-1111-1111-111111111111")},
		Code: "acme",
		URI:  "http://example.org/acme/",
	}
	p.Other = domain.Graph{
		ID:   domain.GraphID{ID: uuid.MustParse("22222222-2222-2222-2222-222222222222")},
		Code: "other",
		URI:  "http://example.org/other/",
	}

	personID := domain.TypeID{ID: "Person", Graph: p.Acme.ID}
	groupID := domain.TypeID{ID: "Group", Graph: p.Acme.ID}
	otherPersonID := domain.TypeID{ID: "Person", Graph: p.Other.ID}

	p.Person = domain.Type{
		ID:  personID,
		URI: "http://example.org/acme/Person",
		TextAttributes: []domain.TextAttribute{
			{ID: "name", Domain: personID},
			{ID: "nickname", Domain: personID},
		},
		ReferenceAttributes: []domain.ReferenceAttribute{
			{ID: "knows", Domain: personID, Range: personID},
		},
	}
	p.Group = domain.Type{
		ID:             groupID,
		URI:            "http://example.org/acme/Group",
		TextAttributes: []domain.TextAttribute{{ID: "name", Domain: groupID}},
		ReferenceAttributes: []domain.ReferenceAttribute{
			{ID: "member", Domain: groupID, Range: personID},
		},
	}
	p.OtherPerson = domain.Type{
		ID:             otherPersonID,
		URI:            "http://example.org/other/Person",
		TextAttributes: []domain.TextAttribute{{ID: "name", Domain: otherPersonID}},
	}

	p.John = p.node(personID, 1, "PERSON-1", map[string][]domain.LangValue{
		"name":     {{Lang: "en", Value: "John Smith"}},
		"nickname": {{Value: "Johnny"}},
	})
	p.Mary = p.node(personID, 2, "PERSON-2", map[string][]domain.LangValue{
		"name": {{Lang: "en", Value: "Mary Jones"}, {Lang: "fi", Value: "Maija Jääskeläinen"}},
	})
	p.Amy = p.node(personID, 3, "PERSON-3", map[string][]domain.LangValue{
		"name": {{Lang: "en", Value: "Amy Adams"}},
	})
	p.Admins = p.node(groupID, 4, "GROUP-1", map[string][]domain.LangValue{
		"name": {{Value: "Admins"}},
	})
	p.OtherJohn = p.node(otherPersonID, 5, "PERSON-1", map[string][]domain.LangValue{
		"name": {{Value: "John Doe"}},
	})

	p.John.References = map[string][]domain.NodeID{"knows": {p.Mary.ID}}
	p.Mary.References = map[string][]domain.NodeID{"knows": {p.Amy.ID}}
	p.Admins.References = map[string][]domain.NodeID{"member": {p.John.ID, p.Amy.ID}}

	p.Graphs = []domain.Graph{p.Acme, p.Other}
	p.Types = []domain.Type{p.Person, p.Group, p.OtherPerson}
	p.Nodes = []domain.Node{p.John, p.Mary, p.Amy, p.Admins, p.OtherJohn}
	domain.DeriveReferrers(p.Nodes)
	p.John, p.Mary, p.Amy, p.Admins, p.OtherJohn = p.Nodes[0], p.Nodes[1], p.Nodes[2], p.Nodes[3], p.Nodes[4]
	return p
}

func (p *People) node(typ domain.TypeID, n int, code string, props map[string][]domain.LangValue) domain.Node {
	created := p.Clock.Next()
	return domain.Node{
		ID:               domain.NodeID{ID: SeqUUID(n), Type: typ},
		Code:             code,
		URI:              "http://example.org/node/" + code,
		Number:           int64(n),
		CreatedBy:        "admin",
		CreatedDate:      created,
		LastModifiedBy:   "admin",
		LastModifiedDate: created.Add(12 * time.Hour),
		Properties:       props,
	}
}

// Node returns the fixture node with the given id.
func (p *People) Node(id domain.NodeID) (*domain.Node, bool) {
	for i := range p.Nodes {
		if p.Nodes[i].ID == id {
			return &p.Nodes[i], true
		}
	}
	return nil, false
}

// Codes maps ids to node codes, for readable assertions. Codes are not
// unique across graphs, so ids in graph other get an "other:" prefix.
func (p *People) Codes(ids []domain.NodeID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		n, ok := p.Node(id)
		if !ok {
			out = append(out, id.String())
			continue
		}
		if id.Type.Graph == p.Other.ID {
			out = append(out, "other:"+n.Code)
			continue
		}
		out = append(out, n.Code)
	}
	return out
}
