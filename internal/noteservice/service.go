// Package noteservice coordinates the note store, the vault mirror and change
// notification. Every mutation of a note goes through it.
package noteservice

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/stickit/internal/apperr"
	"github.com/starford/stickit/internal/checksum"
	"github.com/starford/stickit/internal/markdown"
	"github.com/starford/stickit/internal/models"
	"github.com/starford/stickit/internal/render"
	"github.com/starford/stickit/internal/store"
	"github.com/starford/stickit/internal/vault"
)

// Change event kinds.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

// EventCallback is called after a note was created, updated or deleted.
type EventCallback func(kind, id string)

// NotePatch carries the metadata fields a partial update may change.
type NotePatch struct {
	Name   *string
	Color  *string
	Pinned *bool
}

// Service implements note operations on top of a store and an optional vault.
type Service struct {
	store   store.NoteStore
	vault   vault.Provider
	logger  *slog.Logger
	onEvent EventCallback
	now     func() time.Time

	// mu makes read-check-write sequences atomic within the process.
	mu sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithVault mirrors every note into v.
func WithVault(v vault.Provider) Option {
	return func(s *Service) {
		s.vault = v
	}
}

// WithEventCallback registers the change notification callback.
func WithEventCallback(cb EventCallback) Option {
	return func(s *Service) {
		s.onEvent = cb
	}
}

// WithLogger sets the logger used for mirror failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New creates a note service.
func New(st store.NoteStore, opts ...Option) *Service {
	s := &Service{
		store:  st,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetEventCallback replaces the change notification callback.
func (s *Service) SetEventCallback(cb EventCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onEvent = cb
}

// CreateNote validates and stores a new note. An empty colour means the
// default colour.
func (s *Service) CreateNote(_ context.Context, name, content, color string) (*models.Note, error) {
	if color == "" {
		color = models.DefaultColor
	}
	n := models.Note{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(name),
		Content:      markdown.NormalizeNewlines(content),
		Color:        color,
		LastModified: s.timestamp(),
	}
	if err := n.Validate(); err != nil {
		return nil, invalid("create", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Insert(n); err != nil {
		return nil, fmt.Errorf("noteservice: create: %w", err)
	}
	s.mirror(n)
	s.emit(EventCreated, n.ID)
	return &n, nil
}

// GetNote returns a note or apperr.ErrNotFound.
func (s *Service) GetNote(_ context.Context, id string) (*models.Note, error) {
	return s.store.Get(id)
}

// ListNotes returns a page of notes, pinned first, and the total count.
func (s *Service) ListNotes(_ context.Context, limit, offset int, pinnedOnly bool) ([]models.Note, int, error) {
	return s.store.List(store.ListOptions{Limit: limit, Offset: offset, PinnedOnly: pinnedOnly})
}

// UpdateContent replaces the body of a note. A non-empty ifMatch must equal
// the checksum of the stored content, otherwise apperr.ErrConflict.
func (s *Service) UpdateContent(_ context.Context, id, content, ifMatch string) (*models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateContentLocked(id, content, ifMatch)
}

func (s *Service) updateContentLocked(id, content, ifMatch string) (*models.Note, error) {
	n, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	if ifMatch != "" && ifMatch != n.Checksum() {
		return nil, fmt.Errorf("noteservice: update %s: %w", id, apperr.ErrConflict)
	}
	n.Content = markdown.NormalizeNewlines(content)
	n.LastModified = s.timestamp()
	if err := s.store.Update(*n); err != nil {
		return nil, fmt.Errorf("noteservice: update: %w", err)
	}
	s.mirror(*n)
	s.emit(EventUpdated, id)
	return n, nil
}

// Rename changes the title of a note.
func (s *Service) Rename(ctx context.Context, id, name string) (*models.Note, error) {
	return s.Patch(ctx, id, NotePatch{Name: &name})
}

// SetColor changes the colour of a note.
func (s *Service) SetColor(ctx context.Context, id, color string) (*models.Note, error) {
	return s.Patch(ctx, id, NotePatch{Color: &color})
}

// TogglePin flips the pinned flag of a note.
func (s *Service) TogglePin(_ context.Context, id string) (*models.Note, error) {
	return s.mutate(id, func(n *models.Note) {
		n.Pinned = !n.Pinned
	})
}

// Patch applies the non-nil fields of p.
func (s *Service) Patch(_ context.Context, id string, p NotePatch) (*models.Note, error) {
	return s.mutate(id, func(n *models.Note) {
		if p.Name != nil {
			n.Name = strings.TrimSpace(*p.Name)
		}
		if p.Color != nil {
			n.Color = *p.Color
		}
		if p.Pinned != nil {
			n.Pinned = *p.Pinned
		}
	})
}

func (s *Service) mutate(id string, fn func(*models.Note)) (*models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	fn(n)
	if err := n.Validate(); err != nil {
		return nil, invalid("update", err)
	}
	n.LastModified = s.timestamp()
	if err := s.store.Update(*n); err != nil {
		return nil, fmt.Errorf("noteservice: update: %w", err)
	}
	s.mirror(*n)
	s.emit(EventUpdated, id)
	return n, nil
}

// DeleteNote removes a note from the store and the vault.
func (s *Service) DeleteNote(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(id); err != nil {
		return err
	}
	if s.vault != nil {
		if err := s.vault.Delete(vault.FileName(id)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("mirror delete failed", slog.String("id", id), slog.String("error", err.Error()))
		}
	}
	s.emit(EventDeleted, id)
	return nil
}

// Search finds notes whose name or content contains query.
func (s *Service) Search(_ context.Context, query string, limit int) ([]store.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("noteservice: search: empty query: %w", apperr.ErrInvalid)
	}
	return s.store.Search(query, limit)
}

// Document parses a note into its node sequence.
func (s *Service) Document(ctx context.Context, id string) (*models.Note, []markdown.Node, error) {
	n, err := s.GetNote(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return n, markdown.Parse(n.Content), nil
}

// Session returns a render session for a note whose toggles are committed
// through ToggleCheckbox semantics. The session is bound to the content it
// was built from; a commit after a concurrent edit fails with
// apperr.ErrConflict.
func (s *Service) Session(ctx context.Context, id string) (*models.Note, *render.Session, error) {
	n, err := s.GetNote(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	parsed := n.Checksum()
	commit := func(text string) error {
		_, err := s.UpdateContent(ctx, id, text, parsed)
		if err == nil {
			parsed = checksum.String(text)
		}
		return err
	}
	return n, render.NewSession(n.Content, commit), nil
}

// ToggleCheckbox flips the checkbox at node index and stores the result.
// The commit is checked against the content the nodes were parsed from, and
// against ifMatch when given.
func (s *Service) ToggleCheckbox(_ context.Context, id string, index int, ifMatch string) (*models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	if ifMatch != "" && ifMatch != n.Checksum() {
		return nil, fmt.Errorf("noteservice: toggle %s: %w", id, apperr.ErrConflict)
	}

	parsed := n.Checksum()
	var updated *models.Note
	session := render.NewSession(n.Content, func(text string) error {
		u, err := s.updateContentLocked(id, text, parsed)
		updated = u
		return err
	})
	if err := session.Toggle(index); err != nil {
		return nil, fmt.Errorf("noteservice: toggle %s: %w", id, err)
	}
	return updated, nil
}

func (s *Service) timestamp() time.Time {
	return s.now().UTC()
}

func (s *Service) emit(kind, id string) {
	if s.onEvent != nil {
		s.onEvent(kind, id)
	}
}

// mirror writes n to the vault. Mirror failures are logged, the store stays
// authoritative and the next sync repairs the file.
func (s *Service) mirror(n models.Note) {
	if s.vault == nil {
		return
	}
	data, err := vault.Encode(n)
	if err == nil {
		err = s.vault.Write(vault.FileName(n.ID), data)
	}
	if err != nil {
		s.logger.Warn("mirror write failed", slog.String("id", n.ID), slog.String("error", err.Error()))
	}
}

func invalid(op string, err error) error {
	return fmt.Errorf("noteservice: %s: %s: %w", op, err.Error(), apperr.ErrInvalid)
}
