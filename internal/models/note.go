// Package models defines the domain types for StickIt.
package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/stickit/internal/checksum"
)

// Palette colours a note can take.
const (
	ColorRed    = "red"
	ColorOrange = "orange"
	ColorYellow = "yellow"
	ColorGreen  = "green"
	ColorBlue   = "blue"
	ColorIndigo = "indigo"
	ColorPurple = "purple"
	ColorPink   = "pink"
	ColorBrown  = "brown"
	ColorCyan   = "cyan"
	ColorMint   = "mint"
	ColorTeal   = "teal"
)

// DefaultColor is assigned to notes created without a colour.
const DefaultColor = ColorBlue

// Palette lists the colours in display order.
var Palette = []string{
	ColorRed, ColorOrange, ColorYellow, ColorGreen, ColorBlue, ColorIndigo,
	ColorPurple, ColorPink, ColorBrown, ColorCyan, ColorMint, ColorTeal,
}

// Note is a single sticky note.
type Note struct {
	ID           string    `json:"id" yaml:"id"`
	Name         string    `json:"name" yaml:"name"`
	Content      string    `json:"content" yaml:"-"`
	Color        string    `json:"color" yaml:"color"`
	Pinned       bool      `json:"pinned" yaml:"pinned"`
	LastModified time.Time `json:"last_modified" yaml:"last_modified"`
}

// Checksum returns the digest of the note content, used as ETag.
func (n *Note) Checksum() string {
	return checksum.String(n.Content)
}

// Validate checks the fields a stored note must have.
func (n *Note) Validate() error {
	return validation.ValidateStruct(n,
		validation.Field(&n.ID, validation.Required),
		validation.Field(&n.Name, validation.Required),
		validation.Field(&n.Color, validation.Required, validation.In(paletteValues()...)),
	)
}

// ValidColor reports whether c belongs to the palette.
func ValidColor(c string) bool {
	for _, p := range Palette {
		if p == c {
			return true
		}
	}
	return false
}

func paletteValues() []interface{} {
	out := make([]interface{}, len(Palette))
	for i, c := range Palette {
		out[i] = c
	}
	return out
}
