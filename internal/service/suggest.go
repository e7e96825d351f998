package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/archipelago/notes-api/internal/cache"
	domainerrors "github.com/archipelago/notes-api/internal/errors"
	"github.com/archipelago/notes-api/internal/suggest"
)

// maxSuggestTextLength bounds the input the engine will analyze.
const maxSuggestTextLength = 100_000

// SuggestService proposes tags for free text. Results are memoised in a
// cache keyed by text and count.
type SuggestService struct {
	engine *suggest.Engine
	cache  cache.SuggestionCache
	logger *slog.Logger
}

// NewSuggestService creates a suggestion service. A nil cache disables
// memoisation.
func NewSuggestService(engine *suggest.Engine, c cache.SuggestionCache, logger *slog.Logger) *SuggestService {
	if c == nil {
		c = cache.Noop{}
	}
	return &SuggestService{
		engine: engine,
		cache:  c,
		logger: logger,
	}
}

// SuggestRequest carries the text to analyze and an optional tag count.
type SuggestRequest struct {
	Text    string `json:"text"`
	TagsNum *int   `json:"tags_num,omitempty"`
}

// Suggest returns between one and the requested number of tags for text.
func (s *SuggestService) Suggest(ctx context.Context, req SuggestRequest) ([]string, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, domainerrors.ValidationWithDetails("text is required",
			map[string]string{"text": "is required"})
	}
	if len(req.Text) > maxSuggestTextLength {
		return nil, domainerrors.Validationf("text must be at most %d bytes", maxSuggestTextLength)
	}

	count, err := s.engine.ResolveCount(req.TagsNum)
	if err != nil {
		return nil, translateSuggestError(err)
	}

	if tags, ok := s.cache.Get(ctx, req.Text, count); ok {
		return tags, nil
	}

	tags, err := s.engine.Suggest(req.Text, count)
	if err != nil {
		return nil, translateSuggestError(err)
	}

	if err := s.cache.Put(ctx, req.Text, count, tags); err != nil {
		s.logger.Warn("failed to cache suggestions", "error", err)
	}

	s.logger.Debug("suggested tags", "count", len(tags), "requested", count)
	return tags, nil
}

func translateSuggestError(err error) error {
	switch {
	case errors.Is(err, suggest.ErrEmptyText):
		return domainerrors.Validation("text is required").WithCause(err)
	case errors.Is(err, suggest.ErrInvalidCount):
		return domainerrors.ValidationWithDetails("tags_num must be at least 1",
			map[string]string{"tags_num": "must be at least 1"}).WithCause(err)
	default:
		return err
	}
}
