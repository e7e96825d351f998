package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/archipelago/notes-api/internal/config"
	"github.com/archipelago/notes-api/internal/domain"
	domainerrors "github.com/archipelago/notes-api/internal/errors"
	"github.com/archipelago/notes-api/internal/store"
	"github.com/archipelago/notes-api/internal/util"
	"github.com/archipelago/notes-api/internal/validation"
)

const (
	defaultClosestLimit = 3
	maxClosestLimit     = 50
)

// TagService orchestrates per-user tag operations.
// Every tag belongs to one user. A caller may only see and change their
// own tags, and may only attach them to their own notes.
type TagService struct {
	store     store.Store
	search    *SearchService
	validator *validation.Validator
	cfg       config.TagsConfig
	logger    *slog.Logger

	indexing sync.WaitGroup
}

// NewTagService creates a new tag service. search may be nil, in which
// case the index is not maintained and ClosestTags returns nothing.
func NewTagService(store store.Store, search *SearchService, cfg config.TagsConfig, logger *slog.Logger) *TagService {
	return &TagService{
		store:     store,
		search:    search,
		validator: validation.New(),
		cfg:       cfg,
		logger:    logger,
	}
}

// CreateTagRequest names a tag to create (or reuse) on a note.
type CreateTagRequest struct {
	Name   string `json:"name" validate:"notblank"`
	NoteID string `json:"note_id" validate:"required,uuid"`
}

// UpdateTagRequest renames a tag everywhere it is used.
type UpdateTagRequest struct {
	TagID string `json:"tag_id" validate:"required,uuid"`
	Name  string `json:"name" validate:"notblank"`
}

// UpdateTagForNoteRequest renames a tag as seen from one note.
type UpdateTagForNoteRequest struct {
	TagID  string `json:"tag_id" validate:"required,uuid"`
	NoteID string `json:"note_id" validate:"required,uuid"`
	Name   string `json:"name" validate:"notblank"`
}

// NoteTagRequest identifies a single tag/note link.
type NoteTagRequest struct {
	TagID  string `json:"tag_id" validate:"required,uuid"`
	NoteID string `json:"note_id" validate:"required,uuid"`
}

// TagPairRequest identifies two tags to link or unlink.
type TagPairRequest struct {
	Tag1ID string `json:"tag1_id" validate:"required,uuid"`
	Tag2ID string `json:"tag2_id" validate:"required,uuid"`
}

// ClosestTagsRequest asks for the caller's tags closest to Name.
type ClosestTagsRequest struct {
	Name  string `json:"name" validate:"notblank"`
	Limit *int   `json:"limit,omitempty" validate:"omitempty,gte=1,lte=50"`
}

type tagIDRequest struct {
	TagID string `json:"tag_id" validate:"required,uuid"`
}

type noteIDRequest struct {
	NoteID string `json:"note_id" validate:"required,uuid"`
}

// CreateTag attaches the caller's tag named req.Name to a note, creating
// the tag on first use. A name already on the note is a conflict.
func (s *TagService) CreateTag(ctx context.Context, callerID string, req CreateTagRequest) (*domain.Tag, error) {
	if err := requireCaller(callerID); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	name, err := s.normalizeName(req.Name)
	if err != nil {
		return nil, err
	}

	if _, err := s.ownedNote(ctx, callerID, req.NoteID); err != nil {
		return nil, err
	}

	tag, created, err := s.store.CreateAndLinkTag(ctx, callerID, name, req.NoteID)
	if errors.Is(err, store.ErrLinkExists) {
		return nil, domainerrors.Conflict("tag with this name is already on the note")
	}
	if err != nil {
		return nil, fromStore(err)
	}

	if created {
		s.indexTag(ctx, tag)
	}

	s.logger.Info("tag added to note",
		"tag_id", tag.ID,
		"note_id", req.NoteID,
		"user_id", callerID,
		"created", created,
	)

	return tag, nil
}

// LinkExistingTag attaches one of the caller's tags to one of their notes.
func (s *TagService) LinkExistingTag(ctx context.Context, callerID, tagID, noteID string) error {
	if err := requireCaller(callerID); err != nil {
		return err
	}
	if err := s.validator.Validate(NoteTagRequest{TagID: tagID, NoteID: noteID}); err != nil {
		return err
	}

	tag, err := s.ownedTag(ctx, callerID, tagID)
	if err != nil {
		return err
	}

	note, err := s.store.GetNote(ctx, noteID)
	if err != nil {
		return fromStore(err)
	}
	if note.OwnerID != tag.OwnerID {
		return domainerrors.Forbidden("note belongs to another user")
	}

	if err := s.store.LinkNote(ctx, tagID, noteID); err != nil {
		return fromStore(err)
	}

	s.logger.Info("existing tag linked to note",
		"tag_id", tagID,
		"note_id", noteID,
		"user_id", callerID,
	)
	return nil
}

// UnlinkTag removes a tag from a note. Every lookup failure, including a
// tag owned by someone else, is reported as not found so callers cannot
// probe for other users' tags. With orphan deletion enabled, a tag left
// without notes is removed.
func (s *TagService) UnlinkTag(ctx context.Context, callerID string, req NoteTagRequest) error {
	if err := requireCaller(callerID); err != nil {
		return err
	}
	if err := s.validator.Validate(req); err != nil {
		return err
	}

	notLinked := domainerrors.NotFound("tag is not linked to this note")

	tag, err := s.store.GetTag(ctx, req.TagID)
	if errors.Is(err, store.ErrNotFound) {
		return notLinked
	}
	if err != nil {
		return err
	}
	if !tag.IsOwnedBy(callerID) {
		return notLinked
	}

	orphaned, err := s.store.UnlinkNote(ctx, req.TagID, req.NoteID, s.cfg.DeleteOrphans)
	if errors.Is(err, store.ErrNotFound) {
		return notLinked
	}
	if err != nil {
		return err
	}

	if orphaned {
		s.deleteFromIndex(ctx, req.TagID)
	}

	s.logger.Info("tag removed from note",
		"tag_id", req.TagID,
		"note_id", req.NoteID,
		"user_id", callerID,
		"tag_deleted", orphaned,
	)
	return nil
}

// UpdateTag renames a tag for every note it is on.
func (s *TagService) UpdateTag(ctx context.Context, callerID string, req UpdateTagRequest) (*domain.Tag, error) {
	if err := requireCaller(callerID); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	name, err := s.normalizeName(req.Name)
	if err != nil {
		return nil, err
	}

	tag, err := s.ownedTag(ctx, callerID, req.TagID)
	if err != nil {
		return nil, err
	}
	return s.rename(ctx, callerID, tag, name)
}

// UpdateTagForNote renames a tag as seen from one note. In relink mode
// only that note moves to the tag named req.Name (created if needed) and
// other notes keep the old tag. In global mode it behaves like UpdateTag.
// Either way the tag must currently be on the note.
func (s *TagService) UpdateTagForNote(ctx context.Context, callerID string, req UpdateTagForNoteRequest) (*domain.Tag, error) {
	if err := requireCaller(callerID); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	name, err := s.normalizeName(req.Name)
	if err != nil {
		return nil, err
	}

	tag, err := s.ownedTag(ctx, callerID, req.TagID)
	if err != nil {
		return nil, err
	}

	linked, err := s.store.IsNoteLinked(ctx, req.TagID, req.NoteID)
	if err != nil {
		return nil, err
	}
	if !linked {
		return nil, domainerrors.NotFound("tag is not linked to this note")
	}

	if s.cfg.NoteRenameMode == config.RenameModeGlobal {
		return s.rename(ctx, callerID, tag, name)
	}

	if name == tag.Name {
		return tag, nil
	}

	result, err := s.store.RelinkNoteTag(ctx, callerID, req.TagID, req.NoteID, name, s.cfg.DeleteOrphans)
	if err != nil {
		return nil, fromStore(err)
	}

	if result.Created {
		s.indexTag(ctx, result.Tag)
	}
	if result.OldDeleted {
		s.deleteFromIndex(ctx, req.TagID)
	}

	s.logger.Info("tag relinked on note",
		"old_tag_id", req.TagID,
		"tag_id", result.Tag.ID,
		"note_id", req.NoteID,
		"user_id", callerID,
		"created", result.Created,
		"old_deleted", result.OldDeleted,
	)

	return result.Tag, nil
}

// DeleteTag removes a tag along with all of its note and tag links.
func (s *TagService) DeleteTag(ctx context.Context, callerID, tagID string) error {
	if err := requireCaller(callerID); err != nil {
		return err
	}
	if err := s.validator.Validate(tagIDRequest{TagID: tagID}); err != nil {
		return err
	}

	if _, err := s.ownedTag(ctx, callerID, tagID); err != nil {
		return err
	}

	if err := s.store.DeleteTag(ctx, tagID); err != nil {
		return fromStore(err)
	}

	s.deleteFromIndex(ctx, tagID)

	s.logger.Info("tag deleted", "tag_id", tagID, "user_id", callerID)
	return nil
}

// ListTags returns all of the caller's tags sorted by name.
func (s *TagService) ListTags(ctx context.Context, callerID string) ([]*domain.Tag, error) {
	if err := requireCaller(callerID); err != nil {
		return nil, err
	}
	return s.store.ListTagsForOwner(ctx, callerID)
}

// ListTagsForNote returns the tags on one of the caller's notes.
func (s *TagService) ListTagsForNote(ctx context.Context, callerID, noteID string) ([]*domain.Tag, error) {
	if err := requireCaller(callerID); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(noteIDRequest{NoteID: noteID}); err != nil {
		return nil, err
	}

	if _, err := s.ownedNote(ctx, callerID, noteID); err != nil {
		return nil, err
	}
	return s.store.ListTagsForNote(ctx, noteID)
}

// ListNotesForTag returns the notes carrying one of the caller's tags.
func (s *TagService) ListNotesForTag(ctx context.Context, callerID, tagID string) ([]*domain.Note, error) {
	if err := requireCaller(callerID); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(tagIDRequest{TagID: tagID}); err != nil {
		return nil, err
	}

	if _, err := s.ownedTag(ctx, callerID, tagID); err != nil {
		return nil, err
	}

	notes, err := s.store.ListNotesForTag(ctx, tagID)
	if err != nil {
		return nil, fromStore(err)
	}
	return notes, nil
}

// LinkTags associates two of the caller's tags. The pair is unordered.
func (s *TagService) LinkTags(ctx context.Context, callerID string, req TagPairRequest) error {
	if err := s.checkPair(ctx, callerID, req); err != nil {
		return err
	}

	if err := s.store.LinkTags(ctx, req.Tag1ID, req.Tag2ID); err != nil {
		return fromStore(err)
	}

	s.logger.Info("tags linked",
		"tag1_id", req.Tag1ID,
		"tag2_id", req.Tag2ID,
		"user_id", callerID,
	)
	return nil
}

// UnlinkTags removes the association between two of the caller's tags.
func (s *TagService) UnlinkTags(ctx context.Context, callerID string, req TagPairRequest) error {
	if err := s.checkPair(ctx, callerID, req); err != nil {
		return err
	}

	if err := s.store.UnlinkTags(ctx, req.Tag1ID, req.Tag2ID); err != nil {
		return fromStore(err)
	}

	s.logger.Info("tags unlinked",
		"tag1_id", req.Tag1ID,
		"tag2_id", req.Tag2ID,
		"user_id", callerID,
	)
	return nil
}

// ListLinkedTags returns the tags linked to one of the caller's tags.
func (s *TagService) ListLinkedTags(ctx context.Context, callerID, tagID string) ([]*domain.Tag, error) {
	if err := requireCaller(callerID); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(tagIDRequest{TagID: tagID}); err != nil {
		return nil, err
	}

	if _, err := s.ownedTag(ctx, callerID, tagID); err != nil {
		return nil, err
	}

	tags, err := s.store.ListLinkedTags(ctx, tagID)
	if err != nil {
		return nil, fromStore(err)
	}
	return tags, nil
}

// ClosestTags returns the caller's tags whose names best match req.Name.
func (s *TagService) ClosestTags(ctx context.Context, callerID string, req ClosestTagsRequest) ([]*domain.Tag, error) {
	if err := requireCaller(callerID); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	name := util.NormalizeTagName(req.Name)
	limit := defaultClosestLimit
	if req.Limit != nil {
		limit = min(*req.Limit, maxClosestLimit)
	}

	if s.search == nil {
		return []*domain.Tag{}, nil
	}
	return s.search.ClosestTags(ctx, callerID, name, limit)
}

// WaitForIndexing blocks until background index updates have finished.
func (s *TagService) WaitForIndexing() {
	s.indexing.Wait()
}

func (s *TagService) rename(ctx context.Context, callerID string, tag *domain.Tag, name string) (*domain.Tag, error) {
	if name == tag.Name {
		return tag, nil
	}

	updated, err := s.store.RenameTag(ctx, tag.ID, name)
	if errors.Is(err, store.ErrAlreadyExists) {
		return nil, domainerrors.Conflict("you already have a tag with this name")
	}
	if err != nil {
		return nil, fromStore(err)
	}

	s.indexTag(ctx, updated)

	s.logger.Info("tag renamed",
		"tag_id", tag.ID,
		"old_name", tag.Name,
		"name", updated.Name,
		"user_id", callerID,
	)
	return updated, nil
}

func (s *TagService) checkPair(ctx context.Context, callerID string, req TagPairRequest) error {
	if err := requireCaller(callerID); err != nil {
		return err
	}
	if err := s.validator.Validate(req); err != nil {
		return err
	}
	if req.Tag1ID == req.Tag2ID {
		return domainerrors.Validation("a tag cannot be linked to itself")
	}

	if _, err := s.ownedTag(ctx, callerID, req.Tag1ID); err != nil {
		return err
	}
	if _, err := s.ownedTag(ctx, callerID, req.Tag2ID); err != nil {
		return err
	}
	return nil
}

// ownedTag loads a tag and checks the caller owns it.
// Absent is 404, someone else's is 403.
func (s *TagService) ownedTag(ctx context.Context, callerID, tagID string) (*domain.Tag, error) {
	tag, err := s.store.GetTag(ctx, tagID)
	if err != nil {
		return nil, fromStore(err)
	}
	if !tag.IsOwnedBy(callerID) {
		return nil, domainerrors.Forbidden("tag belongs to another user")
	}
	return tag, nil
}

func (s *TagService) ownedNote(ctx context.Context, callerID, noteID string) (*domain.Note, error) {
	note, err := s.store.GetNote(ctx, noteID)
	if err != nil {
		return nil, fromStore(err)
	}
	if !note.IsOwnedBy(callerID) {
		return nil, domainerrors.Forbidden("note belongs to another user")
	}
	return note, nil
}

func (s *TagService) normalizeName(raw string) (string, error) {
	name := util.NormalizeTagName(raw)
	if name == "" {
		return "", domainerrors.ValidationWithDetails("name is required",
			map[string]string{"name": "is required"})
	}
	if util.NameLength(name) > s.cfg.MaxNameLength {
		return "", domainerrors.Validationf("name must be at most %d characters", s.cfg.MaxNameLength).
			WithDetails(map[string]string{"name": "is too long"})
	}
	return name, nil
}

// indexTag updates the search index in the background. The index is
// best-effort, so failures are logged and never reach the caller.
func (s *TagService) indexTag(ctx context.Context, tag *domain.Tag) {
	if s.search == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	snapshot := *tag

	s.indexing.Go(func() {
		if err := s.search.IndexTag(ctx, &snapshot); err != nil {
			s.logger.Warn("failed to index tag", "tag_id", snapshot.ID, "error", err)
		}
	})
}

func (s *TagService) deleteFromIndex(ctx context.Context, tagID string) {
	if s.search == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)

	s.indexing.Go(func() {
		if err := s.search.DeleteTag(ctx, tagID); err != nil {
			s.logger.Warn("failed to remove tag from index", "tag_id", tagID, "error", err)
		}
	})
}
