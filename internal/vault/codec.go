package vault

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/stickit/internal/markdown"
	"github.com/starford/stickit/internal/models"
)

const delim = "---"

// Encode renders a note as a vault file: YAML frontmatter holding the note
// fields followed by the content verbatim.
func Encode(n models.Note) ([]byte, error) {
	fm, err := yaml.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("vault: encode %s: %w", n.ID, err)
	}
	var b bytes.Buffer
	b.Grow(len(fm) + len(n.Content) + 2*len(delim) + 2)
	b.WriteString(delim + "\n")
	b.Write(fm)
	b.WriteString(delim + "\n")
	b.WriteString(n.Content)
	return b.Bytes(), nil
}

// Decode reads a vault file. The file name is the note identity; a file
// without usable frontmatter becomes a note whose content is the whole file
// and whose name is its first header, or the file stem.
func Decode(path string, data []byte) models.Note {
	text := markdown.NormalizeNewlines(string(data))
	n, body, ok := splitFrontmatter(text)
	if !ok {
		n = models.Note{}
		body = text
	}
	n.ID = IDFromPath(path)
	n.Content = body
	if strings.TrimSpace(n.Name) == "" {
		n.Name = deriveName(body, n.ID)
	}
	if n.Color == "" {
		n.Color = models.DefaultColor
	}
	if !n.LastModified.IsZero() {
		n.LastModified = n.LastModified.UTC()
	}
	return n
}

// splitFrontmatter separates the leading --- delimited YAML block from the
// body. The body starts right after the closing delimiter line so leading
// blank lines in the content survive.
func splitFrontmatter(text string) (models.Note, string, bool) {
	var n models.Note
	if !strings.HasPrefix(text, delim+"\n") {
		return n, "", false
	}
	rest := text[len(delim)+1:]

	var yamlBlock, body string
	switch {
	case strings.HasPrefix(rest, delim+"\n"):
		body = rest[len(delim)+1:]
	case rest == delim:
	default:
		idx := strings.Index(rest, "\n"+delim+"\n")
		if idx < 0 {
			if !strings.HasSuffix(rest, "\n"+delim) {
				return n, "", false
			}
			idx = len(rest) - len(delim) - 1
			yamlBlock = rest[:idx]
		} else {
			yamlBlock = rest[:idx]
			body = rest[idx+len(delim)+2:]
		}
	}

	if err := yaml.Unmarshal([]byte(yamlBlock), &n); err != nil {
		return models.Note{}, "", false
	}
	return n, body, true
}

// deriveName returns the text of the first header, otherwise fallback.
func deriveName(body, fallback string) string {
	for _, node := range markdown.Parse(body) {
		if h, ok := node.Kind.(markdown.Header); ok && h.Text != "" {
			return h.Text
		}
	}
	return fallback
}
