package providers

import (
	"github.com/samber/do/v2"

	"github.com/archipelago/notes-api/internal/auth"
	"github.com/archipelago/notes-api/internal/config"
	"github.com/archipelago/notes-api/internal/logger"
	"github.com/archipelago/notes-api/internal/service"
	"github.com/archipelago/notes-api/internal/suggest"
)

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	hasher := do.MustInvoke[*auth.PasswordHasher](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokenService, hasher, log.Logger), nil
}

// TagServiceHandle wraps the tag service so shutdown waits for pending
// index updates before the index is closed.
type TagServiceHandle struct {
	*service.TagService
}

// Shutdown implements do.Shutdownable.
func (h *TagServiceHandle) Shutdown() error {
	h.WaitForIndexing()
	return nil
}

// ProvideTagService provides the tag service.
func ProvideTagService(i do.Injector) (*TagServiceHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	searchService := do.MustInvoke[*service.SearchService](i)
	log := do.MustInvoke[*logger.Logger](i)

	svc := service.NewTagService(storeHandle.Store, searchService, cfg.Tags, log.Logger)
	return &TagServiceHandle{TagService: svc}, nil
}

// ProvideNoteService provides the note service.
func ProvideNoteService(i do.Injector) (*service.NoteService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewNoteService(storeHandle.Store, log.Logger), nil
}

// ProvideSuggestService provides the tag suggestion service.
func ProvideSuggestService(i do.Injector) (*service.SuggestService, error) {
	engine := do.MustInvoke[*suggest.Engine](i)
	cacheHandle := do.MustInvoke[*SuggestionCacheHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSuggestService(engine, cacheHandle.SuggestionCache, log.Logger), nil
}
