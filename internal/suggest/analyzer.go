package suggest

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/analysis/lang/ru"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
)

const (
	// keywordAnalyzer drops English and Russian stop words.
	keywordAnalyzer = "suggest_keywords"
	// rawAnalyzer keeps every word; it feeds the fallback candidates.
	rawAnalyzer = "suggest_raw"
)

// analyzers holds the two token pipelines used by the engine.
type analyzers struct {
	keywords analysis.Analyzer
	raw      analysis.Analyzer
}

func newAnalyzers() (*analyzers, error) {
	m := bleve.NewIndexMapping()

	defs := map[string][]string{
		keywordAnalyzer: {lowercase.Name, en.StopName, ru.StopName},
		rawAnalyzer:     {lowercase.Name},
	}
	for name, filters := range defs {
		err := m.AddCustomAnalyzer(name, map[string]any{
			"type":          custom.Name,
			"tokenizer":     unicode.Name,
			"token_filters": filters,
		})
		if err != nil {
			return nil, fmt.Errorf("register analyzer %s: %w", name, err)
		}
	}

	a := &analyzers{
		keywords: m.AnalyzerNamed(keywordAnalyzer),
		raw:      m.AnalyzerNamed(rawAnalyzer),
	}
	if a.keywords == nil || a.raw == nil {
		return nil, fmt.Errorf("analyzers not available")
	}
	return a, nil
}
