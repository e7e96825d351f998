package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/archipelago/notes-api/internal/domain"
	"github.com/archipelago/notes-api/internal/store"
)

// LinkTags associates two distinct tags. The pair is unordered.
// Returns store.ErrTagLinkExists if the tags are already linked in either order.
func (s *Store) LinkTags(ctx context.Context, tag1ID, tag2ID string) error {
	if tag1ID == tag2ID {
		return store.ErrSelfLink
	}
	link := domain.NewTagLink(tag1ID, tag2ID)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tag_links (tag1_id, tag2_id, created_at)
		VALUES (?, ?, ?)`,
		link.Tag1ID,
		link.Tag2ID,
		formatTime(time.Now()),
	)
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err):
		return store.ErrTagLinkExists
	case isForeignKeyViolation(err):
		return store.ErrTagNotFound.WithCause(err)
	default:
		return fmt.Errorf("insert tag_link: %w", err)
	}
}

// UnlinkTags removes the association between two tags.
// Returns store.ErrTagLinkNotFound if they are not linked.
func (s *Store) UnlinkTags(ctx context.Context, tag1ID, tag2ID string) error {
	link := domain.NewTagLink(tag1ID, tag2ID)

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM tag_links WHERE tag1_id = ? AND tag2_id = ?`, link.Tag1ID, link.Tag2ID)
	if err != nil {
		return fmt.Errorf("delete tag_link: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrTagLinkNotFound
	}
	return nil
}

// ListLinkedTags returns the tags linked to tagID ordered by name.
// Returns store.ErrTagNotFound if the tag does not exist.
func (s *Store) ListLinkedTags(ctx context.Context, tagID string) ([]*domain.Tag, error) {
	if _, err := s.GetTag(ctx, tagID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.owner_id, t.name, t.created_at, t.updated_at
		FROM tag_links l
		JOIN tags t ON t.id = CASE WHEN l.tag1_id = ? THEN l.tag2_id ELSE l.tag1_id END
		WHERE l.tag1_id = ? OR l.tag2_id = ?
		ORDER BY t.name ASC`, tagID, tagID, tagID)
	if err != nil {
		return nil, fmt.Errorf("query linked tags: %w", err)
	}
	return collectTags(rows)
}
