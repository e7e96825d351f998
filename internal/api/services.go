package api

import (
	"github.com/archipelago/notes-api/internal/service"
	"github.com/archipelago/notes-api/internal/store"
)

// Services groups the business logic used by the API server.
type Services struct {
	Auth    *service.AuthService
	Tag     *service.TagService
	Note    *service.NoteService
	Suggest *service.SuggestService
	Search  *service.SearchService // optional, health reporting only
	Store   store.Store            // health reporting only
}
