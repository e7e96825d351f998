package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/archipelago/notes-api/internal/cache"
	"github.com/archipelago/notes-api/internal/logger"
)

// CacheGCJob periodically reclaims space held by expired suggestions.
type CacheGCJob struct {
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (j *CacheGCJob) Shutdown() error {
	j.cancel()
	return nil
}

// ProvideCacheGCJob provides the periodic suggestion cache GC job.
// Nothing runs when caching is disabled.
func ProvideCacheGCJob(i do.Injector) (*CacheGCJob, error) {
	cacheHandle := do.MustInvoke[*SuggestionCacheHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithCancel(context.Background())

	badgerCache, ok := cacheHandle.SuggestionCache.(*cache.BadgerCache)
	if !ok {
		return &CacheGCJob{cancel: cancel}, nil
	}

	go func() {
		ticker := time.NewTicker(cacheGCInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				start := time.Now()
				if err := badgerCache.RunGC(); err != nil {
					log.Warn("Suggestion cache GC failed", "error", err)
				} else {
					log.Debug("Suggestion cache GC completed", "duration", time.Since(start))
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info("Suggestion cache GC job started", "interval", cacheGCInterval)

	return &CacheGCJob{cancel: cancel}, nil
}
