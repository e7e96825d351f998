package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archipelago/notes-api/internal/config"
	"github.com/archipelago/notes-api/internal/id"
)

func tagIDs(refs []TagRef) []string {
	ids := make([]string, len(refs))
	for i, r := range refs {
		ids[i] = r.TagID
	}
	return ids
}

func TestCreateTag_Scenario(t *testing.T) {
	ts := newTestServer(t)
	_, header := ts.newCaller(t)
	noteID := ts.createNote(t, header)
	body := map[string]any{"name": "x", "note_id": noteID}

	first := ts.api.Post("/api/tags/create", header, body)
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	created := decode[TagRef](t, first.Body.Bytes())
	assert.NotEmpty(t, created.TagID)
	assert.Equal(t, "x", created.Name)

	repeat := ts.api.Post("/api/tags/create", header, body)
	assert.Equal(t, http.StatusConflict, repeat.Code)

	list := ts.api.Get("/api/tags/note/"+noteID, header)
	require.Equal(t, http.StatusOK, list.Code)
	assert.Equal(t, []TagRef{created}, decode[[]TagRef](t, list.Body.Bytes()))

	alias := ts.api.Get("/api/tags/notes/"+noteID, header)
	require.Equal(t, http.StatusOK, alias.Code)
	assert.JSONEq(t, list.Body.String(), alias.Body.String())
}

func TestCreateTag_SharedPerOwner(t *testing.T) {
	ts := newTestServer(t)
	_, alice := ts.newCaller(t)
	_, bob := ts.newCaller(t)

	n1 := ts.createNote(t, alice)
	n2 := ts.createNote(t, alice)
	bobNote := ts.createNote(t, bob)

	a1 := ts.createTag(t, alice, n1, "work")
	a2 := ts.createTag(t, alice, n2, "work")
	b := ts.createTag(t, bob, bobNote, "work")

	assert.Equal(t, a1.TagID, a2.TagID)
	assert.NotEqual(t, a1.TagID, b.TagID)

	for _, n := range []string{n1, n2} {
		resp := ts.api.Get("/api/tags/note/"+n, alice)
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, []string{a1.TagID}, tagIDs(decode[[]TagRef](t, resp.Body.Bytes())))
	}

	notes := ts.api.Get("/api/tags/"+a1.TagID+"/notes", alice)
	require.Equal(t, http.StatusOK, notes.Code)
	assert.Len(t, decode[[]NoteResponse](t, notes.Body.Bytes()), 2)
}

func TestCreateTag_Errors(t *testing.T) {
	ts := newTestServer(t)
	_, alice := ts.newCaller(t)
	_, bob := ts.newCaller(t)
	bobNote := ts.createNote(t, bob)

	tests := []struct {
		name   string
		body   map[string]any
		status int
	}{
		{"foreign note", map[string]any{"name": "x", "note_id": bobNote}, http.StatusForbidden},
		{"absent note", map[string]any{"name": "x", "note_id": id.New()}, http.StatusNotFound},
		{"malformed note id", map[string]any{"name": "x", "note_id": "abc"}, http.StatusBadRequest},
		{"blank name", map[string]any{"name": "   ", "note_id": bobNote}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Post("/api/tags/create", alice, tt.body)
			assert.Equal(t, tt.status, resp.Code, resp.Body.String())
		})
	}
}

func TestUnlinkTag_Scenario(t *testing.T) {
	ts := newTestServer(t)
	_, header := ts.newCaller(t)
	noteID := ts.createNote(t, header)
	tag := ts.createTag(t, header, noteID, "t")
	body := map[string]any{"tag_id": tag.TagID, "note_id": noteID}

	first := ts.api.Post("/api/tags/unlink", header, body)
	assert.Equal(t, http.StatusOK, first.Code, first.Body.String())

	second := ts.api.Post("/api/tags/unlink", header, body)
	assert.Equal(t, http.StatusNotFound, second.Code)

	// The orphaned tag is gone.
	notes := ts.api.Get("/api/tags/"+tag.TagID+"/notes", header)
	assert.Equal(t, http.StatusNotFound, notes.Code)
}

func TestLinkExistingTag(t *testing.T) {
	ts := newTestServer(t)
	_, alice := ts.newCaller(t)
	_, bob := ts.newCaller(t)

	n1 := ts.createNote(t, alice)
	n2 := ts.createNote(t, alice)
	tag := ts.createTag(t, alice, n1, "shared")

	t.Run("own note", func(t *testing.T) {
		resp := ts.api.Post(fmt.Sprintf("/api/tags/%s/link/%s", tag.TagID, n2), alice)
		assert.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	})

	t.Run("already linked", func(t *testing.T) {
		resp := ts.api.Post(fmt.Sprintf("/api/tags/%s/link/%s", tag.TagID, n2), alice)
		assert.Equal(t, http.StatusConflict, resp.Code)
	})

	t.Run("foreign tag", func(t *testing.T) {
		bobNote := ts.createNote(t, bob)
		resp := ts.api.Post(fmt.Sprintf("/api/tags/%s/link/%s", tag.TagID, bobNote), bob)
		assert.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("malformed tag id", func(t *testing.T) {
		resp := ts.api.Post(fmt.Sprintf("/api/tags/%s/link/%s", "nope", n2), alice)
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})
}

func TestUpdateTag(t *testing.T) {
	ts := newTestServer(t)
	_, header := ts.newCaller(t)
	noteID := ts.createNote(t, header)
	tag := ts.createTag(t, header, noteID, "draft")

	resp := ts.api.Put("/api/tags", header, map[string]any{"tag_id": tag.TagID, "name": "final"})

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, TagRef{TagID: tag.TagID, Name: "final"}, decode[TagRef](t, resp.Body.Bytes()))

	list := ts.api.Get("/api/tags/note/"+noteID, header)
	assert.Equal(t, []TagRef{{TagID: tag.TagID, Name: "final"}}, decode[[]TagRef](t, list.Body.Bytes()))
}

func TestUpdateTagForNote_Relink(t *testing.T) {
	ts := newTestServer(t)
	_, header := ts.newCaller(t)
	n1 := ts.createNote(t, header)
	n2 := ts.createNote(t, header)
	tag := ts.createTag(t, header, n1, "shared")
	ts.createTag(t, header, n2, "shared")

	resp := ts.api.Put("/api/tags/note", header, map[string]any{
		"tag_id": tag.TagID, "note_id": n1, "name": "renamed",
	})

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	renamed := decode[TagRef](t, resp.Body.Bytes())
	assert.Equal(t, "renamed", renamed.Name)
	assert.NotEqual(t, tag.TagID, renamed.TagID)

	onN1 := decode[[]TagRef](t, ts.api.Get("/api/tags/note/"+n1, header).Body.Bytes())
	onN2 := decode[[]TagRef](t, ts.api.Get("/api/tags/note/"+n2, header).Body.Bytes())
	assert.Equal(t, []TagRef{renamed}, onN1)
	assert.Equal(t, []TagRef{tag}, onN2)
}

func TestUpdateTagForNote_Global(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) { c.Tags.NoteRenameMode = config.RenameModeGlobal })
	_, header := ts.newCaller(t)
	n1 := ts.createNote(t, header)
	n2 := ts.createNote(t, header)
	tag := ts.createTag(t, header, n1, "shared")
	ts.createTag(t, header, n2, "shared")

	resp := ts.api.Put("/api/tags/note", header, map[string]any{
		"tag_id": tag.TagID, "note_id": n1, "name": "renamed",
	})

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	onN2 := decode[[]TagRef](t, ts.api.Get("/api/tags/note/"+n2, header).Body.Bytes())
	assert.Equal(t, []TagRef{{TagID: tag.TagID, Name: "renamed"}}, onN2)
}

func TestTagLinks(t *testing.T) {
	ts := newTestServer(t)
	_, header := ts.newCaller(t)
	noteID := ts.createNote(t, header)
	t1 := ts.createTag(t, header, noteID, "go")
	t2 := ts.createTag(t, header, noteID, "golang")
	pair := map[string]any{"tag1_id": t1.TagID, "tag2_id": t2.TagID}

	link := ts.api.Post("/api/tags/link", header, pair)
	require.Equal(t, http.StatusOK, link.Code, link.Body.String())

	again := ts.api.Post("/api/tags/link", header, map[string]any{"tag1_id": t2.TagID, "tag2_id": t1.TagID})
	assert.Equal(t, http.StatusConflict, again.Code)

	linked1 := decode[[]TagRef](t, ts.api.Get("/api/tags/"+t1.TagID+"/linked", header).Body.Bytes())
	linked2 := decode[[]TagRef](t, ts.api.Get("/api/tags/"+t2.TagID+"/linked", header).Body.Bytes())
	assert.Equal(t, []string{t2.TagID}, tagIDs(linked1))
	assert.Equal(t, []string{t1.TagID}, tagIDs(linked2))

	self := ts.api.Post("/api/tags/link", header, map[string]any{"tag1_id": t1.TagID, "tag2_id": t1.TagID})
	assert.Equal(t, http.StatusBadRequest, self.Code)

	unlink := ts.api.Post("/api/tags/unlink-tags", header, pair)
	require.Equal(t, http.StatusOK, unlink.Code)
	assert.JSONEq(t, `[]`, ts.api.Get("/api/tags/"+t1.TagID+"/linked", header).Body.String())

	missing := ts.api.Post("/api/tags/unlink-tags", header, pair)
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestDeleteTag_Cascades(t *testing.T) {
	ts := newTestServer(t)
	_, header := ts.newCaller(t)
	n1 := ts.createNote(t, header)
	n2 := ts.createNote(t, header)
	doomed := ts.createTag(t, header, n1, "doomed")
	ts.createTag(t, header, n2, "doomed")
	keeper := ts.createTag(t, header, n1, "keeper")
	require.Equal(t, http.StatusOK, ts.api.Post("/api/tags/link", header, map[string]any{
		"tag1_id": doomed.TagID, "tag2_id": keeper.TagID,
	}).Code)

	resp := ts.api.Post("/api/tags/delete", header, map[string]any{"tag_id": doomed.TagID})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	assert.Equal(t, http.StatusNotFound, ts.api.Get("/api/tags/"+doomed.TagID+"/notes", header).Code)
	assert.Equal(t, []TagRef{keeper}, decode[[]TagRef](t, ts.api.Get("/api/tags/note/"+n1, header).Body.Bytes()))
	assert.JSONEq(t, `[]`, ts.api.Get("/api/tags/note/"+n2, header).Body.String())
	assert.JSONEq(t, `[]`, ts.api.Get("/api/tags/"+keeper.TagID+"/linked", header).Body.String())
}

func TestDeleteTag_Ownership(t *testing.T) {
	ts := newTestServer(t)
	_, alice := ts.newCaller(t)
	_, bob := ts.newCaller(t)
	tag := ts.createTag(t, alice, ts.createNote(t, alice), "mine")

	foreign := ts.api.Post("/api/tags/delete", bob, map[string]any{"tag_id": tag.TagID})
	assert.Equal(t, http.StatusForbidden, foreign.Code)

	absent := ts.api.Post("/api/tags/delete", bob, map[string]any{"tag_id": id.New()})
	assert.Equal(t, http.StatusNotFound, absent.Code)
}

func TestListTags_OnlyOwn(t *testing.T) {
	ts := newTestServer(t)
	_, alice := ts.newCaller(t)
	_, bob := ts.newCaller(t)
	noteID := ts.createNote(t, alice)
	ts.createTag(t, alice, noteID, "beta")
	ts.createTag(t, alice, noteID, "alpha")
	ts.createTag(t, bob, ts.createNote(t, bob), "gamma")

	resp := ts.api.Get("/api/tags", alice)

	require.Equal(t, http.StatusOK, resp.Code)
	refs := decode[[]TagRef](t, resp.Body.Bytes())
	names := make([]string, len(refs))
	for i, r := range refs {
		names[i] = r.Name
	}
	assert.ElementsMatch(t, []string{"alpha", "beta"}, names)
}

func TestClosestTags(t *testing.T) {
	ts := newTestServer(t)
	_, alice := ts.newCaller(t)
	_, bob := ts.newCaller(t)
	noteID := ts.createNote(t, alice)
	golang := ts.createTag(t, alice, noteID, "golang")
	ts.createTag(t, alice, noteID, "cooking")
	ts.createTag(t, bob, ts.createNote(t, bob), "golang")
	ts.services.Tag.WaitForIndexing()

	resp := ts.api.Post("/api/tags/closest", alice, map[string]any{"name": "golang", "limit": 1})

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, []TagRef{golang}, decode[[]TagRef](t, resp.Body.Bytes()))
}

func TestSuggestTags(t *testing.T) {
	ts := newTestServer(t)
	_, header := ts.newCaller(t)
	text := "Goroutines and channels make concurrency in Go approachable. " +
		"Channels connect goroutines, and select multiplexes channels."

	t.Run("exact count", func(t *testing.T) {
		resp := ts.api.Post("/api/tags/suggest", header, map[string]any{"text": text, "tags_num": 3})
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		assert.Len(t, decode[SuggestResponse](t, resp.Body.Bytes()).Tags, 3)
	})

	t.Run("large count", func(t *testing.T) {
		resp := ts.api.Post("/api/tags/suggest", header, map[string]any{"text": text, "tags_num": 100})
		require.Equal(t, http.StatusOK, resp.Code)
		tags := decode[SuggestResponse](t, resp.Body.Bytes()).Tags
		assert.NotEmpty(t, tags)
		assert.LessOrEqual(t, len(tags), 100)
	})

	t.Run("empty text", func(t *testing.T) {
		resp := ts.api.Post("/api/tags/suggest", header, map[string]any{"text": ""})
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("anonymous", func(t *testing.T) {
		resp := ts.api.Post("/api/tags/suggest", map[string]any{"text": text})
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})
}

func TestSuggestTags_RateLimitedPerUser(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) {
		c.Suggest.RateLimit = 1
		c.Suggest.RateBurst = 1
	})
	_, alice := ts.newCaller(t)
	_, bob := ts.newCaller(t)
	body := map[string]any{"text": "rate limited suggestions"}

	assert.Equal(t, http.StatusOK, ts.api.Post("/api/tags/suggest", alice, body).Code)
	assert.Equal(t, http.StatusTooManyRequests, ts.api.Post("/api/tags/suggest", alice, body).Code)
	assert.Equal(t, http.StatusOK, ts.api.Post("/api/tags/suggest", bob, body).Code)
}
