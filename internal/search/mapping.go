package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"
)

// tagNameAnalyzer splits names into lowercased words without stemming, so
// fuzzy matching works on what the user typed in any language.
const tagNameAnalyzer = "tag_name"

// buildIndexMapping creates the Bleve index mapping for tag documents.
func buildIndexMapping() (mapping.IndexMapping, error) {
	indexMapping := bleve.NewIndexMapping()

	err := indexMapping.AddCustomAnalyzer(tagNameAnalyzer, map[string]any{
		"type":          custom.Name,
		"tokenizer":     unicode.Name,
		"token_filters": []string{lowercase.Name},
	})
	if err != nil {
		return nil, err
	}
	indexMapping.DefaultAnalyzer = tagNameAnalyzer

	docMapping := bleve.NewDocumentMapping()

	// Name words: match and fuzzy queries.
	nameFieldMapping := bleve.NewTextFieldMapping()
	nameFieldMapping.Analyzer = tagNameAnalyzer
	nameFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("name", nameFieldMapping)

	// Whole lowercased name: exact and prefix queries.
	exactFieldMapping := bleve.NewTextFieldMapping()
	exactFieldMapping.Analyzer = keyword.Name
	exactFieldMapping.Store = false
	docMapping.AddFieldMappingsAt("name_exact", exactFieldMapping)

	// Owner scope, exact match only.
	ownerFieldMapping := bleve.NewTextFieldMapping()
	ownerFieldMapping.Analyzer = keyword.Name
	ownerFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("owner_id", ownerFieldMapping)

	idFieldMapping := bleve.NewTextFieldMapping()
	idFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("id", idFieldMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping, nil
}
