//go:build !sqlite_fts5

package store

import (
	"database/sql"
	"fmt"
	"strings"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; search uses LIKE on the notes table.
	return nil
}

func ftsUpsert(_ *sql.Tx, _, _, _ string) error { return nil }

func ftsDelete(_ *sql.Tx, _ string) {}

// Search performs a case-insensitive substring search over names and content
// (fallback when FTS5 is not compiled in).
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + escapeLike(query) + "%"
	rows, err := db.conn.Query(`
		SELECT id, name, substr(content, 1, 200)
		FROM notes
		WHERE name LIKE ? ESCAPE '\' OR content LIKE ? ESCAPE '\'
		ORDER BY pinned DESC, last_modified DESC
		LIMIT ?
	`, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("store: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.ID, &r.Name, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// escapeLike makes query match literally inside a LIKE pattern.
func escapeLike(query string) string {
	return likeEscaper.Replace(query)
}
