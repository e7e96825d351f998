package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/archipelago/notes-api/internal/domain"
	"github.com/archipelago/notes-api/internal/search"
	"github.com/archipelago/notes-api/internal/store"
)

// SearchService keeps the tag name index in step with the store and
// answers closest-name queries. The store stays the source of truth:
// hits are re-read from it, so a stale index entry is skipped rather
// than returned.
type SearchService struct {
	index  *search.TagIndex
	store  store.Store
	logger *slog.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(index *search.TagIndex, store store.Store, logger *slog.Logger) *SearchService {
	return &SearchService{
		index:  index,
		store:  store,
		logger: logger,
	}
}

// IndexTag adds or replaces a tag in the index.
func (s *SearchService) IndexTag(_ context.Context, tag *domain.Tag) error {
	if err := s.index.IndexTag(search.NewTagDocument(tag)); err != nil {
		return fmt.Errorf("index tag: %w", err)
	}
	s.logger.Debug("indexed tag", "tag_id", tag.ID, "name", tag.Name)
	return nil
}

// DeleteTag removes a tag from the index.
func (s *SearchService) DeleteTag(_ context.Context, tagID string) error {
	if err := s.index.DeleteTag(tagID); err != nil {
		return fmt.Errorf("delete tag from index: %w", err)
	}
	return nil
}

// ClosestTags returns up to limit of the owner's tags ranked by name
// similarity to name.
func (s *SearchService) ClosestTags(ctx context.Context, ownerID, name string, limit int) ([]*domain.Tag, error) {
	hits, err := s.index.Closest(ctx, ownerID, name, limit)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}

	tags := make([]*domain.Tag, 0, len(hits))
	for _, hit := range hits {
		tag, err := s.store.GetTag(ctx, hit.ID)
		if errors.Is(err, store.ErrNotFound) {
			s.logger.Debug("skipping stale index entry", "tag_id", hit.ID)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load tag %s: %w", hit.ID, err)
		}
		if !tag.IsOwnedBy(ownerID) {
			continue
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

// DocumentCount returns the number of indexed tags.
func (s *SearchService) DocumentCount() (uint64, error) {
	return s.index.DocumentCount()
}

// ReindexAll rebuilds the index from every tag in the store.
// This is a heavy operation - use sparingly.
func (s *SearchService) ReindexAll(ctx context.Context) error {
	s.logger.Info("starting full tag reindex")

	tags, err := s.store.ListAllTags(ctx)
	if err != nil {
		return fmt.Errorf("list tags: %w", err)
	}

	docs := make([]*search.TagDocument, 0, len(tags))
	for _, tag := range tags {
		docs = append(docs, search.NewTagDocument(tag))
	}

	if err := s.index.Rebuild(docs); err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}

	total, _ := s.index.DocumentCount()
	s.logger.Info("full tag reindex complete", "total_documents", total)
	return nil
}
