package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/archipelago/notes-api/internal/errors"
	"github.com/archipelago/notes-api/internal/id"
)

func TestNoteService_CreateAndGet(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := newUserID()
	dir := id.New()

	note, err := env.notes.CreateNote(ctx, owner, CreateNoteRequest{Title: "  Groceries ", DirID: dir})
	require.NoError(t, err)
	assert.Equal(t, "Groceries", note.Title)
	assert.Equal(t, dir, note.DirID)
	assert.Equal(t, owner, note.OwnerID)

	got, err := env.notes.GetNote(ctx, owner, note.ID)
	require.NoError(t, err)
	assert.Equal(t, note.ID, got.ID)

	_, err = env.notes.GetNote(ctx, newUserID(), note.ID)
	assertCode(t, err, domainerrors.CodeForbidden)

	_, err = env.notes.GetNote(ctx, owner, id.New())
	assertCode(t, err, domainerrors.CodeNotFound)

	_, err = env.notes.GetNote(ctx, owner, "nope")
	assertCode(t, err, domainerrors.CodeValidation)
}

func TestNoteService_CreateRejectsBadDirID(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.notes.CreateNote(context.Background(), newUserID(), CreateNoteRequest{DirID: "folder-1"})
	assertCode(t, err, domainerrors.CodeValidation)
}

func TestNoteService_ListNotesIsScoped(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := newUserID()
	env.createNote(t, owner)
	env.createNote(t, owner)
	env.createNote(t, newUserID())

	notes, err := env.notes.ListNotes(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, notes, 2)
}

func TestNoteService_DeleteNote(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := newUserID()
	note := env.createNote(t, owner)
	tag := env.createTag(t, owner, note.ID, "work")

	assertCode(t, env.notes.DeleteNote(ctx, newUserID(), note.ID), domainerrors.CodeForbidden)

	require.NoError(t, env.notes.DeleteNote(ctx, owner, note.ID))

	notes, err := env.tags.ListNotesForTag(ctx, owner, tag.ID)
	require.NoError(t, err)
	assert.Empty(t, notes)

	assertCode(t, env.notes.DeleteNote(ctx, owner, note.ID), domainerrors.CodeNotFound)
}
