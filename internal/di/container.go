// Package di provides dependency injection configuration for the notes API.
package di

import (
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/archipelago/notes-api/internal/auth"
	"github.com/archipelago/notes-api/internal/config"
	"github.com/archipelago/notes-api/internal/di/providers"
	"github.com/archipelago/notes-api/internal/logger"
	"github.com/archipelago/notes-api/internal/service"
	"github.com/archipelago/notes-api/internal/suggest"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideSlogLogger)
	do.Provide(injector, providers.ProvideAuthKey)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideSuggestionCache)

	// Search layer
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideSearchService)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)
	do.Provide(injector, providers.ProvidePasswordHasher)

	// Business services
	do.Provide(injector, providers.ProvideSuggestEngine)
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideTagService)
	do.Provide(injector, providers.ProvideNoteService)
	do.Provide(injector, providers.ProvideSuggestService)

	// Workers
	do.Provide(injector, providers.ProvideCacheGCJob)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and starts the HTTP server.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	steps := []func(do.Injector) error{
		// Core infrastructure
		invoke[*config.Config],
		invoke[*logger.Logger],
		invoke[*slog.Logger],
		invoke[providers.AuthKey],
		invoke[*providers.StoreHandle],
		invoke[*providers.SuggestionCacheHandle],
		invoke[*providers.SearchIndexHandle],
		invoke[*service.SearchService],
		invoke[*auth.TokenService],
		invoke[*auth.PasswordHasher],

		// Business services
		invoke[*suggest.Engine],
		invoke[*service.AuthService],
		invoke[*providers.TagServiceHandle],
		invoke[*service.NoteService],
		invoke[*service.SuggestService],

		// Workers
		invoke[*providers.CacheGCJob],
	}
	for _, step := range steps {
		if err := step(injector); err != nil {
			return err
		}
	}

	// Fill the tag index before accepting traffic on a fresh start.
	providers.TriggerSearchReindexIfNeeded(injector)

	return invoke[*providers.HTTPServerHandle](injector)
}

func invoke[T any](injector do.Injector) error {
	_, err := do.Invoke[T](injector)
	return err
}
