// Package search maintains a Bleve index of tag names. It answers
// "which of my tags look like this name" with exact, prefix and fuzzy
// matching scoped to a single owner.
package search

import (
	"strings"

	"github.com/archipelago/notes-api/internal/domain"
)

// TagDocument is the indexed form of a tag.
type TagDocument struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner_id"`
	Name    string `json:"name"`
}

// NewTagDocument converts a tag into its index document.
func NewTagDocument(t *domain.Tag) *TagDocument {
	return &TagDocument{
		ID:      t.ID,
		OwnerID: t.OwnerID,
		Name:    t.Name,
	}
}

// ToMap converts the document to the field layout declared in the mapping.
// name_exact holds the whole lowercased name for prefix and exact matches.
func (d *TagDocument) ToMap() map[string]any {
	return map[string]any{
		"id":         d.ID,
		"owner_id":   d.OwnerID,
		"name":       d.Name,
		"name_exact": strings.ToLower(d.Name),
	}
}
