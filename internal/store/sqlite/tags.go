package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/archipelago/notes-api/internal/domain"
	"github.com/archipelago/notes-api/internal/id"
	"github.com/archipelago/notes-api/internal/store"
)

// tagColumns is the ordered list of columns selected in tag queries.
// Must match the scan order in scanTag.
const tagColumns = `id, owner_id, name, created_at, updated_at`

// scanTag scans a sql.Row (or sql.Rows via its Scan method) into a domain.Tag.
func scanTag(scanner interface{ Scan(dest ...any) error }) (*domain.Tag, error) {
	var t domain.Tag

	var (
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(
		&t.ID,
		&t.OwnerID,
		&t.Name,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	t.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &t, nil
}

// collectTags drains rows into a non-nil slice.
func collectTags(rows *sql.Rows) ([]*domain.Tag, error) {
	defer rows.Close()

	tags := []*domain.Tag{}
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return tags, nil
}

func getTag(ctx context.Context, q querier, tagID string) (*domain.Tag, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE id = ?`, tagID)

	t, err := scanTag(row)
	if isNoRows(err) {
		return nil, store.ErrTagNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// GetTag retrieves a tag by its ID.
// Returns store.ErrTagNotFound if the tag does not exist.
func (s *Store) GetTag(ctx context.Context, tagID string) (*domain.Tag, error) {
	return getTag(ctx, s.db, tagID)
}

// GetTagByName retrieves the owner's tag with the exact name.
func (s *Store) GetTagByName(ctx context.Context, ownerID, name string) (*domain.Tag, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE owner_id = ? AND name = ?`, ownerID, name)

	t, err := scanTag(row)
	if isNoRows(err) {
		return nil, store.ErrTagNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ListTagsForOwner returns all of the owner's tags ordered by name.
func (s *Store) ListTagsForOwner(ctx context.Context, ownerID string) ([]*domain.Tag, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE owner_id = ? ORDER BY name ASC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	return collectTags(rows)
}

func (s *Store) ListAllTags(ctx context.Context) ([]*domain.Tag, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+tagColumns+` FROM tags ORDER BY owner_id, name`)
	if err != nil {
		return nil, fmt.Errorf("query all tags: %w", err)
	}
	return collectTags(rows)
}

// findOrCreateTag inserts the tag unless (owner_id, name) already exists and
// then reads the surviving row. The INSERT takes the write lock first, so the
// follow-up SELECT sees whichever writer won.
func findOrCreateTag(ctx context.Context, q querier, ownerID, name string) (*domain.Tag, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false, store.ErrEmptyTagName
	}

	now := formatTime(time.Now())
	res, err := q.ExecContext(ctx, `
		INSERT INTO tags (id, owner_id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (owner_id, name) DO NOTHING`,
		id.New(),
		ownerID,
		name,
		now,
		now,
	)
	if err != nil {
		return nil, false, fmt.Errorf("insert tag: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, err
	}

	row := q.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE owner_id = ? AND name = ?`, ownerID, name)
	t, err := scanTag(row)
	if err != nil {
		return nil, false, fmt.Errorf("read tag after insert: %w", err)
	}
	return t, n == 1, nil
}

// FindOrCreateTag finds the owner's tag by name or creates a new one.
// Returns (tag, created, error) where created is true if a new tag was made.
func (s *Store) FindOrCreateTag(ctx context.Context, ownerID, name string) (*domain.Tag, bool, error) {
	var (
		tag     *domain.Tag
		created bool
	)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		tag, created, err = findOrCreateTag(ctx, tx, ownerID, name)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return tag, created, nil
}

// CreateAndLinkTag finds or creates the owner's tag and links it to the note.
// A failed link rolls back the creation, so no dangling tag is left.
func (s *Store) CreateAndLinkTag(ctx context.Context, ownerID, name, noteID string) (*domain.Tag, bool, error) {
	var (
		tag     *domain.Tag
		created bool
	)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		tag, created, err = findOrCreateTag(ctx, tx, ownerID, name)
		if err != nil {
			return err
		}
		return linkNote(ctx, tx, tag.ID, noteID)
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		s.logger.Debug("tag created", "tag_id", tag.ID, "owner_id", ownerID)
	}
	return tag, created, nil
}

// RenameTag changes the tag name everywhere it is used.
// Returns store.ErrTagNameExists if the owner already has a tag with that name.
func (s *Store) RenameTag(ctx context.Context, tagID, newName string) (*domain.Tag, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return nil, store.ErrEmptyTagName
	}

	var tag *domain.Tag
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE tags SET name = ?, updated_at = ? WHERE id = ?`,
			newName, formatTime(time.Now()), tagID)
		if err != nil {
			if isUniqueViolation(err) {
				return store.ErrTagNameExists
			}
			return fmt.Errorf("update tag: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return store.ErrTagNotFound
		}

		tag, err = getTag(ctx, tx, tagID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tag, nil
}

// deleteTag removes the tag row and every link referencing it.
func deleteTag(ctx context.Context, tx *sql.Tx, tagID string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM note_tags WHERE tag_id = ?`, tagID); err != nil {
		return fmt.Errorf("delete note_tags: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM tag_links WHERE tag1_id = ? OR tag2_id = ?`, tagID, tagID); err != nil {
		return fmt.Errorf("delete tag_links: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, tagID)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrTagNotFound
	}
	return nil
}

// DeleteTag removes a tag with all its note links and tag links.
func (s *Store) DeleteTag(ctx context.Context, tagID string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return deleteTag(ctx, tx, tagID)
	})
}

// deleteIfOrphan removes the tag when no note references it any more.
func deleteIfOrphan(ctx context.Context, tx *sql.Tx, tagID string) (bool, error) {
	var remaining int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM note_tags WHERE tag_id = ?`, tagID).Scan(&remaining)
	if err != nil {
		return false, fmt.Errorf("count note_tags: %w", err)
	}
	if remaining > 0 {
		return false, nil
	}
	if err := deleteTag(ctx, tx, tagID); err != nil {
		return false, err
	}
	return true, nil
}
