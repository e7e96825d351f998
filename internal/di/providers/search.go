package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/archipelago/notes-api/internal/config"
	"github.com/archipelago/notes-api/internal/logger"
	"github.com/archipelago/notes-api/internal/search"
	"github.com/archipelago/notes-api/internal/service"
)

// SearchIndexHandle wraps the tag index with shutdown capability.
type SearchIndexHandle struct {
	*search.TagIndex
	// created is set when the index was built from scratch on this start.
	created bool
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve tag index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	index, created, err := search.NewTagIndex(search.Options{
		DataPath: cfg.Storage.IndexPath(),
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.DocumentCount()
	log.Info("Tag index initialized", "documents", docCount, "created", created)

	return &SearchIndexHandle{TagIndex: index, created: created}, nil
}

// ProvideSearchService provides the tag search service.
func ProvideSearchService(i do.Injector) (*service.SearchService, error) {
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSearchService(indexHandle.TagIndex, storeHandle.Store, log.Logger), nil
}

// TriggerSearchReindexIfNeeded rebuilds the tag index from the store when
// it was just created or is empty while tags exist. Runs in the background;
// closest-tag queries return fewer results until it finishes.
func TriggerSearchReindexIfNeeded(i do.Injector) {
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	searchService := do.MustInvoke[*service.SearchService](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx := context.Background()

	if !indexHandle.created {
		docCount, _ := searchService.DocumentCount()
		if docCount > 0 {
			return
		}
	}

	tags, err := storeHandle.ListAllTags(ctx)
	if err != nil || len(tags) == 0 {
		return
	}

	log.Info("Tag index needs filling, triggering reindex", "tag_count", len(tags))

	go func() {
		if err := searchService.ReindexAll(ctx); err != nil {
			log.Error("Initial tag reindex failed", "error", err)
			return
		}
		count, _ := searchService.DocumentCount()
		log.Info("Initial tag reindex completed", "documents", count)
	}()
}
