package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/stickit/internal/apperr"
	"github.com/starford/stickit/internal/checksum"
	"github.com/starford/stickit/internal/models"
)

// DefaultListLimit applies when ListOptions.Limit is not positive.
const DefaultListLimit = 50

// ListOptions controls List pagination and filtering.
type ListOptions struct {
	Limit      int
	Offset     int
	PinnedOnly bool
}

// SearchResult represents one search hit.
type SearchResult struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Snippet string `json:"snippet"`
}

const noteColumns = `id, name, content, color, pinned, last_modified`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(r rowScanner) (*models.Note, error) {
	var (
		n  models.Note
		ts time.Time
	)
	if err := r.Scan(&n.ID, &n.Name, &n.Content, &n.Color, &n.Pinned, &ts); err != nil {
		return nil, err
	}
	n.LastModified = ts.UTC()
	return &n, nil
}

// Insert stores a new note. It fails with apperr.ErrAlreadyExists when the ID is taken.
func (db *DB) Insert(n models.Note) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`INSERT INTO notes (`+noteColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		n.ID, n.Name, n.Content, n.Color, n.Pinned, n.LastModified.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("store: insert %s: %w", n.ID, apperr.ErrAlreadyExists)
		}
		return fmt.Errorf("store: insert note: %w", err)
	}
	if err := ftsUpsert(tx, n.ID, n.Name, n.Content); err != nil {
		return err
	}
	return tx.Commit()
}

// Update replaces every field of an existing note. It fails with
// apperr.ErrNotFound when no note has the ID.
func (db *DB) Update(n models.Note) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.Exec(`
		UPDATE notes
		SET name = ?, content = ?, color = ?, pinned = ?, last_modified = ?
		WHERE id = ?
	`, n.Name, n.Content, n.Color, n.Pinned, n.LastModified.UTC(), n.ID)
	if err != nil {
		return fmt.Errorf("store: update note: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return fmt.Errorf("store: update %s: %w", n.ID, apperr.ErrNotFound)
	}
	if err := ftsUpsert(tx, n.ID, n.Name, n.Content); err != nil {
		return err
	}
	return tx.Commit()
}

// Upsert inserts or replaces a note. Used when importing vault files.
func (db *DB) Upsert(n models.Note) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.Exec(`
		INSERT INTO notes (`+noteColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name          = excluded.name,
			content       = excluded.content,
			color         = excluded.color,
			pinned        = excluded.pinned,
			last_modified = excluded.last_modified
	`, n.ID, n.Name, n.Content, n.Color, n.Pinned, n.LastModified.UTC())
	if err != nil {
		return fmt.Errorf("store: upsert note: %w", err)
	}
	if err := ftsUpsert(tx, n.ID, n.Name, n.Content); err != nil {
		return err
	}
	return tx.Commit()
}

// Get returns the note with the given ID or apperr.ErrNotFound.
func (db *DB) Get(id string) (*models.Note, error) {
	n, err := scanNote(db.conn.QueryRow(`SELECT `+noteColumns+` FROM notes WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: get %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get note: %w", err)
	}
	return n, nil
}

// Delete removes a note and its FTS entry.
func (db *DB) Delete(id string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, id)
	res, err := tx.Exec(`DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete note: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return fmt.Errorf("store: delete %s: %w", id, apperr.ErrNotFound)
	}
	return tx.Commit()
}

// List returns a page of notes, pinned first and then most recently
// modified, together with the total number of matching notes.
func (db *DB) List(opts ListOptions) ([]models.Note, int, error) {
	if opts.Limit <= 0 {
		opts.Limit = DefaultListLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}

	where := ""
	if opts.PinnedOnly {
		where = ` WHERE pinned = 1`
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM notes` + where).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("store: count notes: %w", err)
	}

	rows, err := db.conn.Query(`SELECT `+noteColumns+` FROM notes`+where+`
		ORDER BY pinned DESC, last_modified DESC, id
		LIMIT ? OFFSET ?`, opts.Limit, opts.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("store: list notes: %w", err)
	}
	defer rows.Close()

	out := make([]models.Note, 0, opts.Limit)
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("store: scan note: %w", err)
		}
		out = append(out, *n)
	}
	return out, total, rows.Err()
}

// AllChecksums maps every note ID to the checksum of its content.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT id, content FROM notes`)
	if err != nil {
		return nil, fmt.Errorf("store: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var id, content string
		if err := rows.Scan(&id, &content); err != nil {
			return nil, err
		}
		out[id] = checksum.String(content)
	}
	return out, rows.Err()
}
