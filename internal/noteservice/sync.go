package noteservice

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/starford/stickit/internal/apperr"
	"github.com/starford/stickit/internal/models"
	"github.com/starford/stickit/internal/vault"
)

var _ vault.Sink = (*Service)(nil)

type importOutcome int

const (
	importUnchanged importOutcome = iota
	importApplied
	// importStale means the file predates the stored note and was rewritten
	// from the store.
	importStale
)

// ImportFile decodes a vault file and upserts the note when it differs from
// the stored one. It reports whether the store changed.
func (s *Service) ImportFile(_ context.Context, path string, data []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out, err := s.importLocked(path, data)
	return out == importApplied, err
}

// importLocked applies a vault file to the store. A file whose last_modified
// is strictly older than the stored note lost a mirror write; the store wins
// and the file is rewritten. Equal or missing timestamps import, since
// editors change the body without touching the frontmatter.
func (s *Service) importLocked(path string, data []byte) (importOutcome, error) {
	n := vault.Decode(path, data)
	if !models.ValidColor(n.Color) {
		n.Color = models.DefaultColor
	}
	if err := n.Validate(); err != nil {
		return importUnchanged, invalid("import "+path, err)
	}

	existing, err := s.store.Get(n.ID)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		if n.LastModified.IsZero() {
			n.LastModified = s.timestamp()
		}
		if err := s.store.Insert(n); err != nil {
			return importUnchanged, fmt.Errorf("noteservice: import %s: %w", path, err)
		}
		s.mirrorIfDiffers(n, data)
		s.emit(EventCreated, n.ID)
		return importApplied, nil
	case err != nil:
		return importUnchanged, err
	}

	if sameNote(existing, &n) {
		return importUnchanged, nil
	}
	if !n.LastModified.IsZero() && n.LastModified.Before(existing.LastModified) {
		s.mirror(*existing)
		return importStale, nil
	}
	n.LastModified = s.timestamp()
	if err := s.store.Upsert(n); err != nil {
		return importUnchanged, fmt.Errorf("noteservice: import %s: %w", path, err)
	}
	s.mirrorIfDiffers(n, data)
	s.emit(EventUpdated, n.ID)
	return importApplied, nil
}

// FileChanged imports the current bytes of a vault file.
func (s *Service) FileChanged(_ context.Context, path string) error {
	if s.vault == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.vault.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	_, err = s.importLocked(path, data)
	return err
}

// FileRemoved deletes the note a removed vault file stood for.
func (s *Service) FileRemoved(_ context.Context, path string) error {
	id := vault.IDFromPath(path)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.vault != nil {
		// Renamed back or rewritten in the meantime.
		if _, err := s.vault.Read(path); err == nil {
			return nil
		}
	}
	err := s.store.Delete(id)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	s.emit(EventDeleted, id)
	return nil
}

// SyncResult summarises a SyncVault pass.
type SyncResult struct {
	Imported int `json:"imported"`
	Exported int `json:"exported"`
	Failed   int `json:"failed"`
}

// SyncVault imports every vault file and exports every note that has no
// file yet. Per-file failures are logged and counted, not returned.
func (s *Service) SyncVault(_ context.Context) (SyncResult, error) {
	var res SyncResult
	if s.vault == nil {
		return res, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	metas, err := s.vault.List()
	if err != nil {
		return res, err
	}
	onDisk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		onDisk[vault.IDFromPath(m.Path)] = struct{}{}

		data, err := s.vault.Read(m.Path)
		if err != nil {
			s.logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			res.Failed++
			continue
		}
		out, err := s.importLocked(m.Path, data)
		if err != nil {
			s.logger.Warn("sync: import failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			res.Failed++
			continue
		}
		switch out {
		case importApplied:
			s.logger.Debug("sync: imported", slog.String("path", m.Path))
			res.Imported++
		case importStale:
			s.logger.Info("sync: stale file rewritten from store", slog.String("path", m.Path))
			res.Exported++
		}
	}

	checksums, err := s.store.AllChecksums()
	if err != nil {
		return res, err
	}
	for id := range checksums {
		if _, ok := onDisk[id]; ok {
			continue
		}
		n, err := s.store.Get(id)
		if err != nil {
			res.Failed++
			continue
		}
		s.mirror(*n)
		res.Exported++
	}
	return res, nil
}

func (s *Service) mirrorIfDiffers(n models.Note, data []byte) {
	if encoded, err := vault.Encode(n); err == nil && string(encoded) == string(data) {
		return
	}
	s.mirror(n)
}

func sameNote(a, b *models.Note) bool {
	return a.Name == b.Name && a.Content == b.Content && a.Color == b.Color && a.Pinned == b.Pinned
}
