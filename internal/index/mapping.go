package index

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/datetime/flexible"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/regexp"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/roach88/nodeql/internal/spec"
	"github.com/roach88/nodeql/internal/specsearch"
)

// TextAnalyzer is the analyzer of the text sub-document. Documents carry
// normalized text, so the analyzer only splits it into tokens.
const TextAnalyzer = "nodeql_text"

const textTokenizer = "nodeql_tokens"

// noDates is a date parser that accepts nothing, so dynamic string values
// are never indexed as datetimes.
const noDates = "nodeql_no_dates"

// NewMapping returns the index mapping for node documents.
func NewMapping() (*mapping.IndexMappingImpl, error) {
	im := bleve.NewIndexMapping()

	err := im.AddCustomTokenizer(textTokenizer, map[string]interface{}{
		"type":   regexp.Name,
		"regexp": spec.TokenPattern,
	})
	if err != nil {
		return nil, fmt.Errorf("add text tokenizer: %w", err)
	}

	err = im.AddCustomAnalyzer(TextAnalyzer, map[string]interface{}{
		"type":      custom.Name,
		"tokenizer": textTokenizer,
	})
	if err != nil {
		return nil, fmt.Errorf("add text analyzer: %w", err)
	}

	err = im.AddCustomDateTimeParser(noDates, map[string]interface{}{
		"type":    flexible.Name,
		"layouts": []interface{}{},
	})
	if err != nil {
		return nil, fmt.Errorf("add date parser: %w", err)
	}

	im.DefaultAnalyzer = keyword.Name
	im.DefaultDateTimeParser = noDates
	im.StoreDynamic = false

	text := bleve.NewDocumentMapping()
	text.DefaultAnalyzer = TextAnalyzer
	im.DefaultMapping.AddSubDocumentMapping(specsearch.TextGroup, text)

	return im, nil
}
