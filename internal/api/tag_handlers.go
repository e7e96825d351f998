package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/archipelago/notes-api/internal/domain"
	"github.com/archipelago/notes-api/internal/service"
)

func (s *Server) registerTagRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createTag",
		Method:        http.MethodPost,
		Path:          "/api/tags/create",
		Summary:       "Create and link tag",
		Description:   "Links the caller's tag with this name to the note, creating the tag if needed",
		Tags:          []string{"Tags"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleCreateTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "unlinkTag",
		Method:      http.MethodPost,
		Path:        "/api/tags/unlink",
		Summary:     "Unlink tag from note",
		Description: "Removes the link. The tag is deleted when it has no notes left and orphan cleanup is on.",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUnlinkTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateTag",
		Method:      http.MethodPut,
		Path:        "/api/tags",
		Summary:     "Rename tag",
		Description: "Renames the tag everywhere. Merges into an existing tag with the new name.",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateTagForNote",
		Method:      http.MethodPut,
		Path:        "/api/tags/note",
		Summary:     "Rename tag on one note",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateTagForNote)

	huma.Register(s.api, huma.Operation{
		OperationID: "listNotesForTag",
		Method:      http.MethodGet,
		Path:        "/api/tags/{tag_id}/notes",
		Summary:     "List notes with tag",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListNotesForTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "listTagsForNote",
		Method:      http.MethodGet,
		Path:        "/api/tags/note/{note_id}",
		Summary:     "List tags on note",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListTagsForNote)

	huma.Register(s.api, huma.Operation{
		OperationID: "listTagsForNoteAlias",
		Method:      http.MethodGet,
		Path:        "/api/tags/notes/{note_id}",
		Summary:     "List tags on note",
		Description: "Alias of /api/tags/note/{note_id}",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListTagsForNote)

	huma.Register(s.api, huma.Operation{
		OperationID: "linkTags",
		Method:      http.MethodPost,
		Path:        "/api/tags/link",
		Summary:     "Link two tags",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleLinkTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "unlinkTags",
		Method:      http.MethodPost,
		Path:        "/api/tags/unlink-tags",
		Summary:     "Unlink two tags",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUnlinkTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "listLinkedTags",
		Method:      http.MethodGet,
		Path:        "/api/tags/{tag_id}/linked",
		Summary:     "List linked tags",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListLinkedTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteTag",
		Method:      http.MethodPost,
		Path:        "/api/tags/delete",
		Summary:     "Delete tag",
		Description: "Deletes the tag with all of its note and tag links",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteTag)

	huma.Register(s.api, huma.Operation{
		OperationID:   "linkExistingTag",
		Method:        http.MethodPost,
		Path:          "/api/tags/{tag_id}/link/{note_id}",
		Summary:       "Link existing tag to note",
		Tags:          []string{"Tags"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleLinkExistingTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "suggestTags",
		Method:      http.MethodPost,
		Path:        "/api/tags/suggest",
		Summary:     "Suggest tags",
		Description: "Suggests tag names for free text",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSuggestTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "listTags",
		Method:      http.MethodGet,
		Path:        "/api/tags",
		Summary:     "List tags",
		Description: "Returns all tags for the current user",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "closestTags",
		Method:      http.MethodPost,
		Path:        "/api/tags/closest",
		Summary:     "Closest tags",
		Description: "Returns the caller's tags whose names best match the query",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleClosestTags)
}

// === DTOs ===

// TagRef identifies a tag in API responses.
type TagRef struct {
	TagID string `json:"tag_id" doc:"Tag ID"`
	Name  string `json:"name" doc:"Tag name"`
}

// TagOutput wraps a single tag for Huma.
type TagOutput struct {
	Body TagRef
}

// TagListOutput wraps a list of tags for Huma.
type TagListOutput struct {
	Body []TagRef
}

// CreateTagInput wraps the create tag request for Huma.
type CreateTagInput struct {
	Body struct {
		Name   string `json:"name" doc:"Tag name"`
		NoteID string `json:"note_id" doc:"Note to tag"`
	}
}

// NoteTagInput names a tag and a note.
type NoteTagInput struct {
	Body struct {
		TagID  string `json:"tag_id" doc:"Tag ID"`
		NoteID string `json:"note_id" doc:"Note ID"`
	}
}

// UpdateTagInput wraps the rename request for Huma.
type UpdateTagInput struct {
	Body struct {
		TagID string `json:"tag_id" doc:"Tag ID"`
		Name  string `json:"name" doc:"New tag name"`
	}
}

// UpdateTagForNoteInput wraps the note-scoped rename request for Huma.
type UpdateTagForNoteInput struct {
	Body struct {
		TagID  string `json:"tag_id" doc:"Tag ID"`
		NoteID string `json:"note_id" doc:"Note ID"`
		Name   string `json:"name" doc:"New tag name"`
	}
}

// TagPairInput names two tags to link or unlink.
type TagPairInput struct {
	Body struct {
		Tag1ID string `json:"tag1_id" doc:"First tag ID"`
		Tag2ID string `json:"tag2_id" doc:"Second tag ID"`
	}
}

// DeleteTagInput wraps the delete request for Huma.
type DeleteTagInput struct {
	Body struct {
		TagID string `json:"tag_id" doc:"Tag ID"`
	}
}

// TagIDPathInput contains a tag ID path parameter.
type TagIDPathInput struct {
	TagID string `path:"tag_id" doc:"Tag ID"`
}

// NoteIDPathInput contains a note ID path parameter.
type NoteIDPathInput struct {
	NoteID string `path:"note_id" doc:"Note ID"`
}

// LinkExistingTagInput contains the tag and note path parameters.
type LinkExistingTagInput struct {
	TagID  string `path:"tag_id" doc:"Tag ID"`
	NoteID string `path:"note_id" doc:"Note ID"`
}

// SuggestInput wraps the suggest request for Huma.
type SuggestInput struct {
	Body struct {
		Text    string `json:"text" doc:"Text to suggest tags for"`
		TagsNum *int   `json:"tags_num,omitempty" doc:"Number of tags to return, default 3"`
	}
}

// SuggestResponse lists suggested tag names.
type SuggestResponse struct {
	Tags []string `json:"tags" doc:"Suggested tag names"`
}

// SuggestOutput wraps the suggest response for Huma.
type SuggestOutput struct {
	Body SuggestResponse
}

// ClosestTagsInput wraps the closest tags request for Huma.
type ClosestTagsInput struct {
	Body struct {
		Name  string `json:"name" doc:"Name to match"`
		Limit *int   `json:"limit,omitempty" doc:"Maximum results, default 3"`
	}
}

// === Handlers ===

func (s *Server) handleCreateTag(ctx context.Context, input *CreateTagInput) (*TagOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	tag, err := s.services.Tag.CreateTag(ctx, userID, service.CreateTagRequest{
		Name:   input.Body.Name,
		NoteID: input.Body.NoteID,
	})
	if err != nil {
		return nil, err
	}

	return &TagOutput{Body: toTagRef(tag)}, nil
}

func (s *Server) handleUnlinkTag(ctx context.Context, input *NoteTagInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Tag.UnlinkTag(ctx, userID, service.NoteTagRequest{
		TagID:  input.Body.TagID,
		NoteID: input.Body.NoteID,
	}); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Tag unlinked"}}, nil
}

func (s *Server) handleUpdateTag(ctx context.Context, input *UpdateTagInput) (*TagOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	tag, err := s.services.Tag.UpdateTag(ctx, userID, service.UpdateTagRequest{
		TagID: input.Body.TagID,
		Name:  input.Body.Name,
	})
	if err != nil {
		return nil, err
	}

	return &TagOutput{Body: toTagRef(tag)}, nil
}

func (s *Server) handleUpdateTagForNote(ctx context.Context, input *UpdateTagForNoteInput) (*TagOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	tag, err := s.services.Tag.UpdateTagForNote(ctx, userID, service.UpdateTagForNoteRequest{
		TagID:  input.Body.TagID,
		NoteID: input.Body.NoteID,
		Name:   input.Body.Name,
	})
	if err != nil {
		return nil, err
	}

	return &TagOutput{Body: toTagRef(tag)}, nil
}

func (s *Server) handleListNotesForTag(ctx context.Context, input *TagIDPathInput) (*NoteListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	notes, err := s.services.Tag.ListNotesForTag(ctx, userID, input.TagID)
	if err != nil {
		return nil, err
	}

	return &NoteListOutput{Body: toNoteResponses(notes)}, nil
}

func (s *Server) handleListTagsForNote(ctx context.Context, input *NoteIDPathInput) (*TagListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	tags, err := s.services.Tag.ListTagsForNote(ctx, userID, input.NoteID)
	if err != nil {
		return nil, err
	}

	return &TagListOutput{Body: toTagRefs(tags)}, nil
}

func (s *Server) handleLinkTags(ctx context.Context, input *TagPairInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Tag.LinkTags(ctx, userID, service.TagPairRequest{
		Tag1ID: input.Body.Tag1ID,
		Tag2ID: input.Body.Tag2ID,
	}); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Tags linked"}}, nil
}

func (s *Server) handleUnlinkTags(ctx context.Context, input *TagPairInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Tag.UnlinkTags(ctx, userID, service.TagPairRequest{
		Tag1ID: input.Body.Tag1ID,
		Tag2ID: input.Body.Tag2ID,
	}); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Tags unlinked"}}, nil
}

func (s *Server) handleListLinkedTags(ctx context.Context, input *TagIDPathInput) (*TagListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	tags, err := s.services.Tag.ListLinkedTags(ctx, userID, input.TagID)
	if err != nil {
		return nil, err
	}

	return &TagListOutput{Body: toTagRefs(tags)}, nil
}

func (s *Server) handleDeleteTag(ctx context.Context, input *DeleteTagInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Tag.DeleteTag(ctx, userID, input.Body.TagID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Tag deleted"}}, nil
}

func (s *Server) handleLinkExistingTag(ctx context.Context, input *LinkExistingTagInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Tag.LinkExistingTag(ctx, userID, input.TagID, input.NoteID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Tag linked"}}, nil
}

func (s *Server) handleSuggestTags(ctx context.Context, input *SuggestInput) (*SuggestOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.checkRateLimit(ctx, s.suggestRateLimiter, "suggest", userID); err != nil {
		return nil, err
	}

	tags, err := s.services.Suggest.Suggest(ctx, service.SuggestRequest{
		Text:    input.Body.Text,
		TagsNum: input.Body.TagsNum,
	})
	if err != nil {
		return nil, err
	}

	return &SuggestOutput{Body: SuggestResponse{Tags: tags}}, nil
}

func (s *Server) handleListTags(ctx context.Context, _ *struct{}) (*TagListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	tags, err := s.services.Tag.ListTags(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &TagListOutput{Body: toTagRefs(tags)}, nil
}

func (s *Server) handleClosestTags(ctx context.Context, input *ClosestTagsInput) (*TagListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	tags, err := s.services.Tag.ClosestTags(ctx, userID, service.ClosestTagsRequest{
		Name:  input.Body.Name,
		Limit: input.Body.Limit,
	})
	if err != nil {
		return nil, err
	}

	return &TagListOutput{Body: toTagRefs(tags)}, nil
}

// === Mappers ===

func toTagRef(t *domain.Tag) TagRef {
	return TagRef{TagID: t.ID, Name: t.Name}
}

func toTagRefs(tags []*domain.Tag) []TagRef {
	refs := make([]TagRef, len(tags))
	for i, t := range tags {
		refs[i] = toTagRef(t)
	}
	return refs
}
