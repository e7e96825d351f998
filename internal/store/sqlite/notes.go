package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/archipelago/notes-api/internal/domain"
	"github.com/archipelago/notes-api/internal/store"
)

// noteColumns must match the scan order in scanNote.
const noteColumns = `id, owner_id, dir_id, title, created_at, updated_at`

func scanNote(scanner interface{ Scan(dest ...any) error }) (*domain.Note, error) {
	var n domain.Note

	var (
		dirID     sql.NullString
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(
		&n.ID,
		&n.OwnerID,
		&dirID,
		&n.Title,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	n.DirID = dirID.String
	n.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	n.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &n, nil
}

func collectNotes(rows *sql.Rows) ([]*domain.Note, error) {
	defer rows.Close()

	notes := []*domain.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return notes, nil
}

// CreateNote inserts a new note.
func (s *Store) CreateNote(ctx context.Context, n *domain.Note) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notes (id, owner_id, dir_id, title, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		n.ID,
		n.OwnerID,
		nullString(n.DirID),
		n.Title,
		formatTime(n.CreatedAt),
		formatTime(n.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		return fmt.Errorf("insert note: %w", err)
	}
	return nil
}

// GetNote retrieves a note by its ID.
// Returns store.ErrNoteNotFound if the note does not exist.
func (s *Store) GetNote(ctx context.Context, noteID string) (*domain.Note, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE id = ?`, noteID)

	n, err := scanNote(row)
	if isNoRows(err) {
		return nil, store.ErrNoteNotFound
	}
	if err != nil {
		return nil, err
	}
	return n, nil
}

// ListNotesForOwner returns the owner's notes, oldest first.
func (s *Store) ListNotesForOwner(ctx context.Context, ownerID string) ([]*domain.Note, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE owner_id = ? ORDER BY created_at ASC, id ASC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}
	return collectNotes(rows)
}

// DeleteNote removes a note and its tag links. Tags themselves are kept.
func (s *Store) DeleteNote(ctx context.Context, noteID string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM note_tags WHERE note_id = ?`, noteID); err != nil {
			return fmt.Errorf("delete note_tags: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, noteID)
		if err != nil {
			return fmt.Errorf("delete note: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return store.ErrNoteNotFound
		}
		return nil
	})
}
