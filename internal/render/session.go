// Package render displays parsed notes and relays checkbox toggles back into
// note text.
package render

import (
	"errors"
	"fmt"

	"github.com/starford/stickit/internal/apperr"
	"github.com/starford/stickit/internal/markdown"
)

// errStop ends a Visit early without reporting a failure.
var errStop = errors.New("render: stop")

// CommitFunc receives the full serialized text after a toggle. The owner of
// the note (persistence, last-modified, change notification) implements it.
type CommitFunc func(text string) error

// Presenter is called once per node in document order. toggle is non-nil
// only for checkbox nodes.
type Presenter interface {
	Present(index int, node markdown.Node, toggle func() error) error
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(index int, node markdown.Node, toggle func() error) error

// Present calls f.
func (f PresenterFunc) Present(index int, node markdown.Node, toggle func() error) error {
	return f(index, node, toggle)
}

// Session is the in-memory node sequence of one note together with the
// callback that stores edits. A Session is not safe for concurrent use.
type Session struct {
	nodes  []markdown.Node
	commit CommitFunc
}

// NewSession parses text and binds it to commit. commit may be nil for
// read-only rendering; toggling then fails.
func NewSession(text string, commit CommitFunc) *Session {
	return &Session{
		nodes:  markdown.Parse(text),
		commit: commit,
	}
}

// Nodes returns the current node sequence. Callers must not modify it.
func (s *Session) Nodes() []markdown.Node {
	return s.nodes
}

// Text serializes the current node sequence.
func (s *Session) Text() string {
	return markdown.Serialize(s.nodes)
}

// Visit hands every node to p and stops at the first error.
func (s *Session) Visit(p Presenter) error {
	for i := range s.nodes {
		var toggle func() error
		if s.nodes[i].IsCheckbox() && s.commit != nil {
			idx := i
			toggle = func() error { return s.Toggle(idx) }
		}
		if err := p.Present(i, s.nodes[i], toggle); err != nil {
			return err
		}
	}
	return nil
}

// Toggle flips the checkbox at index, serializes the whole sequence and
// passes the text to the commit callback. When the commit fails the node is
// flipped back so the session keeps matching the stored text.
func (s *Session) Toggle(index int) error {
	if index < 0 || index >= len(s.nodes) {
		return fmt.Errorf("render: node %d out of range [0,%d): %w", index, len(s.nodes), apperr.ErrInvalid)
	}
	if s.commit == nil {
		return fmt.Errorf("render: session is read-only: %w", apperr.ErrInvalid)
	}
	node := &s.nodes[index]
	if !node.Toggle() {
		return fmt.Errorf("render: node %d is a %s, not a checkbox: %w", index, node.Kind.Name(), apperr.ErrInvalid)
	}
	if err := s.commit(s.Text()); err != nil {
		node.Toggle()
		return err
	}
	return nil
}
