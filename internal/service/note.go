package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/archipelago/notes-api/internal/domain"
	domainerrors "github.com/archipelago/notes-api/internal/errors"
	"github.com/archipelago/notes-api/internal/id"
	"github.com/archipelago/notes-api/internal/store"
	"github.com/archipelago/notes-api/internal/validation"
)

// NoteService manages the notes tags attach to. Notes are owned by the
// user who created them.
type NoteService struct {
	store     store.Store
	validator *validation.Validator
	logger    *slog.Logger
}

// NewNoteService creates a new note service.
func NewNoteService(store store.Store, logger *slog.Logger) *NoteService {
	return &NoteService{
		store:     store,
		validator: validation.New(),
		logger:    logger,
	}
}

// CreateNoteRequest contains the fields of a new note.
type CreateNoteRequest struct {
	Title string `json:"title" validate:"max=512"`
	DirID string `json:"dir_id,omitempty" validate:"omitempty,uuid"`
}

// CreateNote creates a note owned by the caller.
func (s *NoteService) CreateNote(ctx context.Context, callerID string, req CreateNoteRequest) (*domain.Note, error) {
	if err := requireCaller(callerID); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	note := &domain.Note{
		Entity:  domain.Entity{ID: id.New()},
		OwnerID: callerID,
		DirID:   req.DirID,
		Title:   strings.TrimSpace(req.Title),
	}
	note.InitTimestamps()

	if err := s.store.CreateNote(ctx, note); err != nil {
		return nil, fromStore(err)
	}

	s.logger.Info("note created", "note_id", note.ID, "user_id", callerID)
	return note, nil
}

// GetNote returns one of the caller's notes.
func (s *NoteService) GetNote(ctx context.Context, callerID, noteID string) (*domain.Note, error) {
	if err := requireCaller(callerID); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(noteIDRequest{NoteID: noteID}); err != nil {
		return nil, err
	}

	note, err := s.store.GetNote(ctx, noteID)
	if err != nil {
		return nil, fromStore(err)
	}
	if !note.IsOwnedBy(callerID) {
		return nil, domainerrors.Forbidden("note belongs to another user")
	}
	return note, nil
}

// ListNotes returns the caller's notes, oldest first.
func (s *NoteService) ListNotes(ctx context.Context, callerID string) ([]*domain.Note, error) {
	if err := requireCaller(callerID); err != nil {
		return nil, err
	}
	return s.store.ListNotesForOwner(ctx, callerID)
}

// DeleteNote removes one of the caller's notes and its tag links.
// Tags stay, even when the note was their last one.
func (s *NoteService) DeleteNote(ctx context.Context, callerID, noteID string) error {
	if _, err := s.GetNote(ctx, callerID, noteID); err != nil {
		return err
	}

	if err := s.store.DeleteNote(ctx, noteID); err != nil {
		return fromStore(err)
	}

	s.logger.Info("note deleted", "note_id", noteID, "user_id", callerID)
	return nil
}
