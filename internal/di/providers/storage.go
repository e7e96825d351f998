package providers

import (
	"github.com/samber/do/v2"

	"github.com/archipelago/notes-api/internal/cache"
	"github.com/archipelago/notes-api/internal/config"
	"github.com/archipelago/notes-api/internal/logger"
	"github.com/archipelago/notes-api/internal/suggest"
)

// SuggestionCacheHandle wraps the suggestion cache with shutdown capability.
type SuggestionCacheHandle struct {
	cache.SuggestionCache
}

// Shutdown implements do.Shutdownable.
func (h *SuggestionCacheHandle) Shutdown() error {
	return h.Close()
}

// ProvideSuggestionCache provides the Badger-backed suggestion cache, or a
// no-op cache when caching is disabled.
func ProvideSuggestionCache(i do.Injector) (*SuggestionCacheHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Suggest.CacheEnabled {
		log.Info("Suggestion cache disabled by configuration")
		return &SuggestionCacheHandle{SuggestionCache: cache.Noop{}}, nil
	}

	c, err := cache.Open(cache.Options{
		Path:   cfg.Storage.CachePath(),
		TTL:    cfg.Suggest.CacheTTL,
		Logger: log.Logger,
	})
	if err != nil {
		return nil, err
	}

	return &SuggestionCacheHandle{SuggestionCache: c}, nil
}

// ProvideSuggestEngine provides the tag suggestion engine.
func ProvideSuggestEngine(i do.Injector) (*suggest.Engine, error) {
	cfg := do.MustInvoke[*config.Config](i)

	return suggest.NewEngine(suggest.Config{
		DefaultTags: cfg.Suggest.DefaultTags,
		MaxTags:     cfg.Suggest.MaxTags,
	})
}
