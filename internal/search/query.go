package search

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Hit is a single closest-tag match.
type Hit struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// Closest returns up to limit of the owner's tags whose names look like name,
// best match first. Exact names outrank prefixes, which outrank typos.
func (s *TagIndex) Closest(ctx context.Context, ownerID, name string, limit int) ([]Hit, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || limit < 1 {
		return []Hit{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(buildClosestQuery(ownerID, name), limit, 0, false)
	req.Fields = []string{"name"}
	req.SortBy([]string{"-_score", "name_exact"})

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hit := Hit{ID: h.ID, Score: h.Score}
		if n, ok := h.Fields["name"].(string); ok {
			hit.Name = n
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// buildClosestQuery scopes to the owner and ORs the similarity strategies.
func buildClosestQuery(ownerID, name string) query.Query {
	owner := bleve.NewTermQuery(ownerID)
	owner.SetField("owner_id")

	exact := bleve.NewTermQuery(name)
	exact.SetField("name_exact")
	exact.SetBoost(10)

	prefix := bleve.NewPrefixQuery(name)
	prefix.SetField("name_exact")
	prefix.SetBoost(4)

	words := bleve.NewMatchQuery(name)
	words.SetField("name")
	words.SetBoost(2)

	similar := []query.Query{exact, prefix, words}

	// Typo tolerance per word. Very short words only allow one edit.
	for _, w := range strings.Fields(name) {
		fuzzy := bleve.NewFuzzyQuery(w)
		fuzzy.SetField("name")
		fuzzy.SetFuzziness(fuzzinessFor(w))
		similar = append(similar, fuzzy)
	}

	return bleve.NewConjunctionQuery(owner, bleve.NewDisjunctionQuery(similar...))
}

func fuzzinessFor(word string) int {
	if utf8.RuneCountInString(word) <= 4 {
		return 1
	}
	return 2
}
