package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/starford/stickit/internal/markdown"
)

// Palette.
const (
	colorTitle   = "#FF6188"
	colorAccent  = "#FFD866"
	colorLink    = "#AB9DF2"
	colorDone    = "#A9DC76"
	colorComment = "#727072"
)

// Checkbox glyphs.
const (
	glyphUnchecked = "☐"
	glyphChecked   = "☑"
)

// TerminalRenderer renders a session for an ANSI terminal.
type TerminalRenderer struct {
	tiers    [MaxTier + 1]lipgloss.Style
	task     lipgloss.Style
	taskDone lipgloss.Style
	link     lipgloss.Style
	code     lipgloss.Style
	limit    int
}

// NewTerminalRenderer creates a terminal renderer.
func NewTerminalRenderer(opts ...Option) *TerminalRenderer {
	o := applyOptions(opts)
	r := &TerminalRenderer{
		task:     lipgloss.NewStyle(),
		taskDone: lipgloss.NewStyle().Foreground(lipgloss.Color(colorDone)).Strikethrough(true),
		link:     lipgloss.NewStyle().Foreground(lipgloss.Color(colorLink)).Underline(true),
		code:     lipgloss.NewStyle().Foreground(lipgloss.Color(colorComment)),
		limit:    o.limit,
	}
	r.tiers[DefaultTier] = lipgloss.NewStyle().Bold(true)
	r.tiers[1] = lipgloss.NewStyle().Bold(true).Underline(true).Foreground(lipgloss.Color(colorTitle))
	r.tiers[2] = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorTitle))
	r.tiers[3] = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorAccent))
	r.tiers[4] = lipgloss.NewStyle().Foreground(lipgloss.Color(colorAccent))
	r.tiers[5] = lipgloss.NewStyle().Bold(true).Italic(true)
	r.tiers[6] = lipgloss.NewStyle().Italic(true)
	return r
}

// Render returns the session as terminal text, one node per line (code
// blocks span several).
func (r *TerminalRenderer) Render(s *Session) string {
	var lines []string
	_ = s.Visit(PresenterFunc(func(i int, n markdown.Node, _ func() error) error {
		if r.limit > 0 && i >= r.limit {
			return errStop
		}
		lines = append(lines, r.node(n))
		return nil
	}))
	return strings.Join(lines, "\n")
}

func (r *TerminalRenderer) node(n markdown.Node) string {
	switch k := n.Kind.(type) {
	case markdown.Header:
		return r.tiers[Tier(k.Level)].Render(k.Text)
	case markdown.Checkbox:
		if k.Checked {
			return glyphChecked + " " + r.taskDone.Render(k.Label)
		}
		return glyphUnchecked + " " + r.task.Render(k.Label)
	case markdown.Link:
		href, err := NormalizeURL(k.URL)
		if err != nil {
			return n.Source
		}
		return r.link.Render(k.Text) + " <" + href + ">"
	case markdown.CodeBlock:
		code := strings.Split(k.Code, "\n")
		for i, line := range code {
			code[i] = "  " + r.code.Render(line)
		}
		return strings.Join(code, "\n")
	default:
		return n.Source
	}
}
