package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/archipelago/notes-api/internal/domain"
	"github.com/archipelago/notes-api/internal/store"
)

func linkNote(ctx context.Context, q querier, tagID, noteID string) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO note_tags (note_id, tag_id, created_at)
		VALUES (?, ?, ?)`,
		noteID,
		tagID,
		formatTime(time.Now()),
	)
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err):
		return store.ErrLinkExists
	case isForeignKeyViolation(err):
		return store.ErrNotFound.WithMessage("tag or note not found").WithCause(err)
	default:
		return fmt.Errorf("insert note_tag: %w", err)
	}
}

// LinkNote attaches an existing tag to a note.
// Returns store.ErrLinkExists if the pair is already linked.
func (s *Store) LinkNote(ctx context.Context, tagID, noteID string) error {
	return linkNote(ctx, s.db, tagID, noteID)
}

func unlinkNote(ctx context.Context, tx *sql.Tx, tagID, noteID string) error {
	res, err := tx.ExecContext(ctx,
		`DELETE FROM note_tags WHERE tag_id = ? AND note_id = ?`, tagID, noteID)
	if err != nil {
		return fmt.Errorf("delete note_tag: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrLinkNotFound
	}
	return nil
}

// UnlinkNote detaches a tag from a note.
// Returns store.ErrLinkNotFound if the pair is not linked.
func (s *Store) UnlinkNote(ctx context.Context, tagID, noteID string, deleteOrphan bool) (bool, error) {
	var orphaned bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := unlinkNote(ctx, tx, tagID, noteID); err != nil {
			return err
		}
		if !deleteOrphan {
			return nil
		}
		var err error
		orphaned, err = deleteIfOrphan(ctx, tx, tagID)
		return err
	})
	if err != nil {
		return false, err
	}
	if orphaned {
		s.logger.Debug("orphan tag removed", "tag_id", tagID)
	}
	return orphaned, nil
}

// RelinkNoteTag renames a tag for a single note. The note drops its link to
// tagID and links to the owner's tag called newName instead. Other notes keep
// the old tag.
func (s *Store) RelinkNoteTag(ctx context.Context, ownerID, tagID, noteID, newName string, deleteOrphan bool) (*store.RelinkResult, error) {
	result := &store.RelinkResult{}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := unlinkNote(ctx, tx, tagID, noteID); err != nil {
			return err
		}

		target, created, err := findOrCreateTag(ctx, tx, ownerID, newName)
		if err != nil {
			return err
		}
		result.Tag = target
		result.Created = created

		// The note may already carry the target tag; the links merge.
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO note_tags (note_id, tag_id, created_at)
			VALUES (?, ?, ?)
			ON CONFLICT (note_id, tag_id) DO NOTHING`,
			noteID, target.ID, formatTime(time.Now())); err != nil {
			return fmt.Errorf("insert note_tag: %w", err)
		}

		if target.ID == tagID || !deleteOrphan {
			return nil
		}
		result.OldDeleted, err = deleteIfOrphan(ctx, tx, tagID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// IsNoteLinked reports whether the tag is attached to the note.
func (s *Store) IsNoteLinked(ctx context.Context, tagID, noteID string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM note_tags WHERE tag_id = ? AND note_id = ?)`,
		tagID, noteID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query note_tag: %w", err)
	}
	return exists == 1, nil
}

// ListTagsForNote returns the tags attached to a note ordered by name.
// An unknown note yields an empty slice.
func (s *Store) ListTagsForNote(ctx context.Context, noteID string) ([]*domain.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.owner_id, t.name, t.created_at, t.updated_at
		FROM tags t
		JOIN note_tags nt ON nt.tag_id = t.id
		WHERE nt.note_id = ?
		ORDER BY t.name ASC`, noteID)
	if err != nil {
		return nil, fmt.Errorf("query tags for note: %w", err)
	}
	return collectTags(rows)
}

// ListNotesForTag returns the notes carrying a tag.
// Returns store.ErrTagNotFound if the tag does not exist.
func (s *Store) ListNotesForTag(ctx context.Context, tagID string) ([]*domain.Note, error) {
	if _, err := s.GetTag(ctx, tagID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT n.id, n.owner_id, n.dir_id, n.title, n.created_at, n.updated_at
		FROM notes n
		JOIN note_tags nt ON nt.note_id = n.id
		WHERE nt.tag_id = ?
		ORDER BY n.created_at ASC, n.id ASC`, tagID)
	if err != nil {
		return nil, fmt.Errorf("query notes for tag: %w", err)
	}
	return collectNotes(rows)
}
