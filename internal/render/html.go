package render

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/starford/stickit/internal/markdown"
)

// HTMLRenderer turns a session into a sanitized HTML fragment. Checkboxes
// carry a data-index attribute so a client can post the toggle back.
type HTMLRenderer struct {
	sanitizer *bluemonday.Policy
	limit     int
}

// Option configures a renderer.
type Option func(*options)

type options struct {
	limit int
}

// WithLimit renders only the first n nodes (card and widget previews).
// n <= 0 renders everything.
func WithLimit(n int) Option {
	return func(o *options) {
		o.limit = n
	}
}

func applyOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewHTMLRenderer creates an HTML renderer.
func NewHTMLRenderer(opts ...Option) *HTMLRenderer {
	o := applyOptions(opts)
	return &HTMLRenderer{
		sanitizer: newSanitizerPolicy(),
		limit:     o.limit,
	}
}

func newSanitizerPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("input", "label")
	p.AllowAttrs("type").Matching(regexp.MustCompile(`^checkbox$`)).OnElements("input")
	p.AllowAttrs("checked", "disabled").OnElements("input")
	p.AllowDataAttributes()
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^(task|heading)$`)).OnElements("label", "p")
	return p
}

// Render returns the HTML for the session's nodes.
func (r *HTMLRenderer) Render(s *Session) string {
	var b strings.Builder
	_ = s.Visit(PresenterFunc(func(i int, n markdown.Node, toggle func() error) error {
		if r.limit > 0 && i >= r.limit {
			return errStop
		}
		writeHTMLNode(&b, i, n, toggle != nil)
		b.WriteByte('\n')
		return nil
	}))
	return r.sanitizer.Sanitize(b.String())
}

func writeHTMLNode(b *strings.Builder, index int, n markdown.Node, interactive bool) {
	switch k := n.Kind.(type) {
	case markdown.Header:
		if t := Tier(k.Level); t != DefaultTier {
			fmt.Fprintf(b, "<h%d>%s</h%d>", t, html.EscapeString(k.Text), t)
		} else {
			fmt.Fprintf(b, `<p class="heading">%s</p>`, html.EscapeString(k.Text))
		}
	case markdown.Checkbox:
		b.WriteString(`<label class="task"><input type="checkbox"`)
		fmt.Fprintf(b, ` data-index="%d"`, index)
		if k.Checked {
			b.WriteString(" checked")
		}
		if !interactive {
			b.WriteString(" disabled")
		}
		fmt.Fprintf(b, "> %s</label>", html.EscapeString(k.Label))
	case markdown.Link:
		href, err := NormalizeURL(k.URL)
		if err != nil {
			fmt.Fprintf(b, "<p>%s</p>", html.EscapeString(n.Source))
			return
		}
		fmt.Fprintf(b, `<p><a href="%s">%s</a></p>`, html.EscapeString(href), html.EscapeString(k.Text))
	case markdown.CodeBlock:
		if k.Lang != "" {
			fmt.Fprintf(b, `<pre><code class="language-%s">`, html.EscapeString(k.Lang))
		} else {
			b.WriteString("<pre><code>")
		}
		b.WriteString(html.EscapeString(k.Code))
		b.WriteString("</code></pre>")
	default:
		if n.Source == "" {
			b.WriteString("<br>")
			return
		}
		fmt.Fprintf(b, "<p>%s</p>", html.EscapeString(n.Source))
	}
}
