package index

import (
	"maps"
	"slices"

	"github.com/roach88/nodeql/internal/domain"
	"github.com/roach88/nodeql/internal/spec"
	"github.com/roach88/nodeql/internal/specsearch"
)

// Document converts n to the map bleve indexes.
//
// Every text value is indexed twice: verbatim in the keyword string fields
// and normalized in the analyzed text sub-document. Values with a language
// also go to the language-specific fields.
func Document(n domain.Node) map[string]any {
	doc := map[string]any{
		specsearch.FieldID:               n.ID.ID.String(),
		specsearch.FieldCode:             n.Code,
		specsearch.FieldURI:              n.URI,
		specsearch.FieldNumber:           float64(n.Number),
		specsearch.FieldTypeID:           n.ID.Type.ID,
		specsearch.FieldGraphID:          n.ID.Type.Graph.String(),
		specsearch.FieldCreatedDate:      float64(n.CreatedDate.UnixMilli()),
		specsearch.FieldLastModifiedDate: float64(n.LastModifiedDate.UnixMilli()),
	}

	text := map[string]any{}
	for _, attr := range slices.Sorted(maps.Keys(n.Properties)) {
		for _, v := range n.Properties[attr] {
			normalized := spec.Normalize(v.Value)
			appendValue(text, specsearch.TextKey(attr, ""), normalized)
			appendValue(doc, specsearch.StringField(attr, ""), v.Value)
			if v.Lang != "" {
				appendValue(text, specsearch.TextKey(attr, v.Lang), normalized)
				appendValue(doc, specsearch.StringField(attr, v.Lang), v.Value)
			}
		}
	}
	if len(text) > 0 {
		doc[specsearch.TextGroup] = text
	}

	var references []string
	for _, attr := range slices.Sorted(maps.Keys(n.References)) {
		targets := n.References[attr]
		if len(targets) == 0 {
			continue
		}
		references = append(references, attr)
		for _, t := range targets {
			appendValue(doc, specsearch.ReferenceField(attr), t.ID.String())
			appendValue(doc, specsearch.ReferenceNodeField(attr), t.String())
		}
	}
	if len(references) > 0 {
		doc[specsearch.FieldReferences] = references
	}

	var referrers []string
	for _, attr := range slices.Sorted(maps.Keys(n.Referrers)) {
		if len(n.Referrers[attr]) > 0 {
			referrers = append(referrers, attr)
		}
	}
	if len(referrers) > 0 {
		doc[specsearch.FieldReferrers] = referrers
	}

	return doc
}

func appendValue(m map[string]any, key, value string) {
	values, _ := m[key].([]string)
	m[key] = append(values, value)
}
