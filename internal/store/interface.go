// Package store defines the persistence interface for the notes API.
package store

import (
	"context"
	"time"

	"github.com/archipelago/notes-api/internal/domain"
)

// Store defines the interface for all persistence operations.
//
// Errors are *Error values (see errors.go). Implementations report what
// happened to the rows; ownership and authorization are decided by the
// service layer.
type Store interface {
	// Lifecycle
	Close() error
	Ping(ctx context.Context) error

	// Users
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	TouchUserLogin(ctx context.Context, id string, at time.Time) error

	// Notes
	CreateNote(ctx context.Context, note *domain.Note) error
	GetNote(ctx context.Context, id string) (*domain.Note, error)
	ListNotesForOwner(ctx context.Context, ownerID string) ([]*domain.Note, error)
	// DeleteNote removes the note and its tag links in one transaction.
	DeleteNote(ctx context.Context, id string) error

	// Tags
	GetTag(ctx context.Context, id string) (*domain.Tag, error)
	GetTagByName(ctx context.Context, ownerID, name string) (*domain.Tag, error)
	// FindOrCreateTag returns the owner's tag with this name, creating it
	// when absent. Concurrent callers converge on the same row.
	FindOrCreateTag(ctx context.Context, ownerID, name string) (tag *domain.Tag, created bool, err error)
	// CreateAndLinkTag runs FindOrCreateTag and LinkNote in one transaction.
	CreateAndLinkTag(ctx context.Context, ownerID, name, noteID string) (tag *domain.Tag, created bool, err error)
	RenameTag(ctx context.Context, tagID, newName string) (*domain.Tag, error)
	// DeleteTag removes the tag together with its note and tag links.
	DeleteTag(ctx context.Context, tagID string) error
	ListTagsForOwner(ctx context.Context, ownerID string) ([]*domain.Tag, error)
	// ListAllTags returns every tag of every owner, for index rebuilds.
	ListAllTags(ctx context.Context) ([]*domain.Tag, error)

	// Note links
	LinkNote(ctx context.Context, tagID, noteID string) error
	// UnlinkNote removes one link. With deleteOrphan set, a tag left without
	// notes is removed in the same transaction and orphaned reports it.
	UnlinkNote(ctx context.Context, tagID, noteID string, deleteOrphan bool) (orphaned bool, err error)
	// RelinkNoteTag moves the note's link from tagID to the owner's tag named
	// newName, creating that tag when needed.
	RelinkNoteTag(ctx context.Context, ownerID, tagID, noteID, newName string, deleteOrphan bool) (*RelinkResult, error)
	IsNoteLinked(ctx context.Context, tagID, noteID string) (bool, error)
	ListTagsForNote(ctx context.Context, noteID string) ([]*domain.Tag, error)
	ListNotesForTag(ctx context.Context, tagID string) ([]*domain.Note, error)

	// Tag links
	LinkTags(ctx context.Context, tag1ID, tag2ID string) error
	UnlinkTags(ctx context.Context, tag1ID, tag2ID string) error
	ListLinkedTags(ctx context.Context, tagID string) ([]*domain.Tag, error)
}

// RelinkResult describes the outcome of RelinkNoteTag.
type RelinkResult struct {
	Tag        *domain.Tag // tag now linked to the note
	Created    bool        // Tag was created by this call
	OldDeleted bool        // the previous tag was an orphan and got removed
}
