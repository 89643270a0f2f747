// Package vault mirrors notes as markdown files with YAML frontmatter and
// watches the directory for external edits.
package vault

import "time"

// Ext is the file extension of mirrored notes.
const Ext = ".md"

// FileMeta describes one note file in the vault.
type FileMeta struct {
	Path     string
	Checksum string
	ModTime  time.Time
}

// Provider is the interface for vault file operations. Paths are file names
// relative to the vault root; the vault is flat.
type Provider interface {
	// List returns metadata for every note file in the vault.
	List() ([]FileMeta, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Root returns the absolute vault directory.
	Root() string
}
