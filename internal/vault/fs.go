package vault

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/stickit/internal/checksum"
)

// FS implements Provider backed by the local file system.
type FS struct {
	root string // absolute path to vault directory
}

var _ Provider = (*FS)(nil)

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("vault: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("vault: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("vault: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute vault directory.
func (f *FS) Root() string {
	return f.root
}

// safePath resolves a file name against the vault root and rejects anything
// that is not a plain file name directly inside it.
func (f *FS) safePath(name string) (string, error) {
	if name == "" || name == "." || name == ".." {
		return "", fmt.Errorf("vault: invalid file name %q", name)
	}
	if filepath.IsAbs(name) || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("vault: path escapes vault root: %s", name)
	}
	return filepath.Join(f.root, name), nil
}

// List returns metadata for every .md file directly inside the vault root.
func (f *FS) List() ([]FileMeta, error) {
	entries, err := os.ReadDir(f.root)
	if err != nil {
		return nil, fmt.Errorf("vault: list: %w", err)
	}
	var out []FileMeta
	for _, e := range entries {
		if e.IsDir() || !IsNoteFile(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("vault: stat %s: %w", e.Name(), err)
		}
		data, err := os.ReadFile(filepath.Join(f.root, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("vault: read %s: %w", e.Name(), err)
		}
		out = append(out, FileMeta{
			Path:     e.Name(),
			Checksum: checksum.Sum(data),
			ModTime:  info.ModTime(),
		})
	}
	return out, nil
}

// Read returns the raw bytes of a vault file.
func (f *FS) Read(path string) ([]byte, error) {
	abs, err := f.safePath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("vault: read %s: %w", path, err)
	}
	return data, nil
}

// Write atomically writes content: tmp file → fsync → rename.
func (f *FS) Write(path string, content []byte) error {
	abs, err := f.safePath(path)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.root, ".stickit-tmp-*")
	if err != nil {
		return fmt.Errorf("vault: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("vault: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("vault: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("vault: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("vault: rename: %w", err)
	}
	success = true
	return nil
}

// Delete removes a file from the vault.
func (f *FS) Delete(path string) error {
	abs, err := f.safePath(path)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		return fmt.Errorf("vault: delete %s: %w", path, err)
	}
	return nil
}

// IsNoteFile reports whether name looks like a mirrored note.
func IsNoteFile(name string) bool {
	return strings.HasSuffix(name, Ext) && !strings.HasPrefix(name, ".")
}

// FileName returns the vault file name for a note ID.
func FileName(id string) string {
	return id + Ext
}

// IDFromPath returns the note ID a vault file name stands for.
func IDFromPath(path string) string {
	return strings.TrimSuffix(filepath.Base(path), Ext)
}
