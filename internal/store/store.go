package store

import "github.com/starford/stickit/internal/models"

// NoteStore defines the persistence operations the note service relies on.
// Consumers should depend on this interface rather than the concrete *DB type.
type NoteStore interface {
	Insert(n models.Note) error
	Update(n models.Note) error
	Upsert(n models.Note) error
	Get(id string) (*models.Note, error)
	Delete(id string) error
	List(opts ListOptions) ([]models.Note, int, error)
	Search(query string, limit int) ([]SearchResult, error)
	AllChecksums() (map[string]string, error)
	Close() error
}

// Verify *DB satisfies NoteStore at compile time.
var _ NoteStore = (*DB)(nil)
