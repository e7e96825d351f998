package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/archipelago/notes-api/internal/domain"
	"github.com/archipelago/notes-api/internal/service"
)

func (s *Server) registerNoteRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createNote",
		Method:        http.MethodPost,
		Path:          "/api/notes",
		Summary:       "Create note",
		Description:   "Creates a note owned by the caller",
		Tags:          []string{"Notes"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleCreateNote)

	huma.Register(s.api, huma.Operation{
		OperationID: "listNotes",
		Method:      http.MethodGet,
		Path:        "/api/notes",
		Summary:     "List notes",
		Description: "Lists every note owned by the caller",
		Tags:        []string{"Notes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListNotes)

	huma.Register(s.api, huma.Operation{
		OperationID: "getNote",
		Method:      http.MethodGet,
		Path:        "/api/notes/{note_id}",
		Summary:     "Get note",
		Tags:        []string{"Notes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetNote)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteNote",
		Method:      http.MethodDelete,
		Path:        "/api/notes/{note_id}",
		Summary:     "Delete note",
		Description: "Deletes a note and its tag links. The tags themselves are kept.",
		Tags:        []string{"Notes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteNote)
}

// === DTOs ===

// CreateNoteRequest is the request body for creating a note.
type CreateNoteRequest struct {
	Title string `json:"title,omitempty" doc:"Note title"`
	DirID string `json:"dir_id,omitempty" doc:"Directory the note lives in"`
}

// CreateNoteInput wraps the create note request for Huma.
type CreateNoteInput struct {
	Body CreateNoteRequest
}

// NoteIDInput contains a note ID path parameter.
type NoteIDInput struct {
	NoteID string `path:"note_id" doc:"Note ID"`
}

// NoteResponse contains note data in API responses.
type NoteResponse struct {
	ID        string    `json:"id" doc:"Note ID"`
	OwnerID   string    `json:"owner_id" doc:"Owning user ID"`
	DirID     *string   `json:"dir_id" doc:"Directory ID, null when the note is at the root"`
	Title     string    `json:"title" doc:"Note title"`
	CreatedAt time.Time `json:"created_at" doc:"Creation time"`
	UpdatedAt time.Time `json:"updated_at" doc:"Last update time"`
}

// NoteOutput wraps a single note for Huma.
type NoteOutput struct {
	Body NoteResponse
}

// NoteListOutput wraps a list of notes for Huma.
type NoteListOutput struct {
	Body []NoteResponse
}

// === Handlers ===

func (s *Server) handleCreateNote(ctx context.Context, input *CreateNoteInput) (*NoteOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	note, err := s.services.Note.CreateNote(ctx, userID, service.CreateNoteRequest{
		Title: input.Body.Title,
		DirID: input.Body.DirID,
	})
	if err != nil {
		return nil, err
	}

	return &NoteOutput{Body: toNoteResponse(note)}, nil
}

func (s *Server) handleListNotes(ctx context.Context, _ *struct{}) (*NoteListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	notes, err := s.services.Note.ListNotes(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &NoteListOutput{Body: toNoteResponses(notes)}, nil
}

func (s *Server) handleGetNote(ctx context.Context, input *NoteIDInput) (*NoteOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	note, err := s.services.Note.GetNote(ctx, userID, input.NoteID)
	if err != nil {
		return nil, err
	}

	return &NoteOutput{Body: toNoteResponse(note)}, nil
}

func (s *Server) handleDeleteNote(ctx context.Context, input *NoteIDInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Note.DeleteNote(ctx, userID, input.NoteID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Note deleted"}}, nil
}

// === Mappers ===

func toNoteResponse(n *domain.Note) NoteResponse {
	resp := NoteResponse{
		ID:        n.ID,
		OwnerID:   n.OwnerID,
		Title:     n.Title,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
	if n.DirID != "" {
		resp.DirID = &n.DirID
	}
	return resp
}

func toNoteResponses(notes []*domain.Note) []NoteResponse {
	resp := make([]NoteResponse, len(notes))
	for i, n := range notes {
		resp[i] = toNoteResponse(n)
	}
	return resp
}
