package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/archipelago/notes-api/internal/api"
	"github.com/archipelago/notes-api/internal/config"
	"github.com/archipelago/notes-api/internal/logger"
	"github.com/archipelago/notes-api/internal/service"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	handler *api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := h.Server.Shutdown(ctx)
	h.handler.Close()
	return err
}

// ProvideHTTPServer provides the HTTP server and starts listening.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	authService := do.MustInvoke[*service.AuthService](i)
	tagHandle := do.MustInvoke[*TagServiceHandle](i)
	noteService := do.MustInvoke[*service.NoteService](i)
	suggestService := do.MustInvoke[*service.SuggestService](i)
	searchService := do.MustInvoke[*service.SearchService](i)

	services := &api.Services{
		Auth:    authService,
		Tag:     tagHandle.TagService,
		Note:    noteService,
		Suggest: suggestService,
		Search:  searchService,
		Store:   storeHandle.Store,
	}

	handler := api.NewServer(services, authService, cfg, log)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv, handler: handler}, nil
}
