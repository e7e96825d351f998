package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archipelago/notes-api/internal/auth"
	"github.com/archipelago/notes-api/internal/cache"
	"github.com/archipelago/notes-api/internal/config"
	"github.com/archipelago/notes-api/internal/domain"
	"github.com/archipelago/notes-api/internal/id"
	"github.com/archipelago/notes-api/internal/logger"
	"github.com/archipelago/notes-api/internal/search"
	"github.com/archipelago/notes-api/internal/service"
	"github.com/archipelago/notes-api/internal/store/sqlite"
	"github.com/archipelago/notes-api/internal/suggest"
)

// testServer wraps the API server with the pieces tests reach into.
type testServer struct {
	*Server
	api    humatest.TestAPI
	store  *sqlite.Store
	tokens *auth.TokenService
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Environment: "development"},
		Auth: config.AuthConfig{
			AccessTokenDuration: 15 * time.Minute,
			TrustUserHeader:     true,
			RateLimit:           600,
			RateBurst:           100,
		},
		Tags: config.TagsConfig{
			MaxNameLength:  64,
			NoteRenameMode: config.RenameModeRelink,
			DeleteOrphans:  true,
		},
		Suggest: config.SuggestConfig{
			DefaultTags: 3,
			MaxTags:     100,
			RateLimit:   600,
			RateBurst:   100,
		},
	}
}

func newTestServer(t *testing.T, opts ...func(*config.Config)) *testServer {
	t.Helper()

	cfg := testConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	log := logger.Discard()
	slogger := slog.New(slog.DiscardHandler)
	dataDir := t.TempDir()

	st, err := sqlite.Open(filepath.Join(dataDir, "notes.db"), slogger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	index, _, err := search.NewTagIndex(search.Options{InMemory: true, Logger: slogger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	key, err := auth.LoadOrGenerateKey(dataDir)
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(key, cfg.Auth.AccessTokenDuration)
	require.NoError(t, err)

	engine, err := suggest.NewEngine(suggest.Config{
		DefaultTags: cfg.Suggest.DefaultTags,
		MaxTags:     cfg.Suggest.MaxTags,
	})
	require.NoError(t, err)

	searchSvc := service.NewSearchService(index, st, slogger)
	tagSvc := service.NewTagService(st, searchSvc, cfg.Tags, slogger)
	t.Cleanup(tagSvc.WaitForIndexing)

	authSvc := service.NewAuthService(st, tokens, auth.NewPasswordHasher(), slogger)
	services := &Services{
		Auth:    authSvc,
		Tag:     tagSvc,
		Note:    service.NewNoteService(st, slogger),
		Suggest: service.NewSuggestService(engine, cache.Noop{}, slogger),
		Search:  searchSvc,
		Store:   st,
	}

	server := NewServer(services, authSvc, cfg, log)
	t.Cleanup(server.Close)

	return &testServer{
		Server: server,
		api:    humatest.Wrap(t, server.API()),
		store:  st,
		tokens: tokens,
	}
}

// tokenFor issues an access token without going through registration.
func (ts *testServer) tokenFor(t *testing.T, userID string) string {
	t.Helper()
	issued, err := ts.tokens.GenerateAccessToken(&domain.User{
		Entity: domain.Entity{ID: userID},
		Email:  userID + "@example.com",
	})
	require.NoError(t, err)
	return issued.Token
}

// newCaller returns a fresh user ID with its bearer header.
func (ts *testServer) newCaller(t *testing.T) (userID, header string) {
	t.Helper()
	userID = id.New()
	return userID, bearer(ts.tokenFor(t, userID))
}

func bearer(token string) string {
	return "Authorization: Bearer " + token
}

func (ts *testServer) createNote(t *testing.T, header string) string {
	t.Helper()
	resp := ts.api.Post("/api/notes", header, map[string]any{"title": "note"})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return decode[NoteResponse](t, resp.Body.Bytes()).ID
}

func (ts *testServer) createTag(t *testing.T, header, noteID, name string) TagRef {
	t.Helper()
	resp := ts.api.Post("/api/tags/create", header, map[string]any{"name": name, "note_id": noteID})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return decode[TagRef](t, resp.Body.Bytes())
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v), string(body))
	return v
}

func TestServer_UnknownRoute(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.api.Get("/api/nope")

	assert.Equal(t, http.StatusNotFound, resp.Code)
	body := decode[APIError](t, resp.Body.Bytes())
	assert.Equal(t, "NOT_FOUND", body.Code)
}

func TestServer_ErrorBodyShape(t *testing.T) {
	ts := newTestServer(t)
	_, header := ts.newCaller(t)

	resp := ts.api.Get("/api/notes/"+id.New(), header)

	require.Equal(t, http.StatusNotFound, resp.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "NOT_FOUND", body["code"])
	assert.NotEmpty(t, body["message"])
	assert.NotContains(t, body, "$schema")
}

func TestServer_SchemaViolationIsBadRequest(t *testing.T) {
	ts := newTestServer(t)
	_, header := ts.newCaller(t)

	resp := ts.api.Post("/api/tags/create", header, map[string]any{"name": "x"})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	body := decode[APIError](t, resp.Body.Bytes())
	assert.Equal(t, "VALIDATION", body.Code)
	assert.NotNil(t, body.Details)
}

func TestServer_OpenAPIListsTagOperations(t *testing.T) {
	ts := newTestServer(t)

	paths := ts.API().OpenAPI().Paths
	for _, path := range []string{
		"/api/tags/create",
		"/api/tags/note/{note_id}",
		"/api/tags/notes/{note_id}",
		"/api/tags/{tag_id}/link/{note_id}",
		"/auth-service/registration",
		"/health",
	} {
		assert.Contains(t, paths, path)
	}
}

func TestServer_CloseIsIdempotent(t *testing.T) {
	ts := newTestServer(t)

	assert.NotPanics(t, func() {
		ts.Close()
		ts.Close()
	})
}
