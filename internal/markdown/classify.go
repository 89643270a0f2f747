package markdown

import (
	"regexp"
	"strings"
	"unicode"
)

// Fence is the code block delimiter.
const Fence = "```"

var (
	headerRe   = regexp.MustCompile(`^(#+)\s+`)
	checkboxRe = regexp.MustCompile(`^\[( |x)\]\s*(.*)$`)
	linkRe     = regexp.MustCompile(`\[(.*?)\]\((.*?)\)`)
)

// Classifier turns lines into nodes one at a time. The only state carried
// between lines is the fenced block being accumulated.
// The zero value is ready to use.
type Classifier struct {
	inCode  bool
	pending []string
}

// InCodeBlock reports whether an opening fence has been seen without its
// closing fence.
func (c *Classifier) InCodeBlock() bool {
	return c.inCode
}

// Feed classifies one line. It returns ok=false while the line was absorbed
// into an open code block.
func (c *Classifier) Feed(line string) (Node, bool) {
	if c.inCode {
		c.pending = append(c.pending, line)
		if strings.Contains(line, Fence) {
			return c.flush(true), true
		}
		return Node{}, false
	}

	if strings.HasPrefix(line, Fence) {
		if code, ok := singleLineCode(line); ok {
			return Node{Kind: CodeBlock{Code: code}, Source: line}, true
		}
		c.inCode = true
		c.pending = []string{line}
		return Node{}, false
	}

	return Node{Kind: classifyLine(line), Source: line}, true
}

// Flush emits whatever an unterminated code block has accumulated so far.
func (c *Classifier) Flush() (Node, bool) {
	if !c.inCode {
		return Node{}, false
	}
	return c.flush(false), true
}

func (c *Classifier) flush(closed bool) Node {
	lines := c.pending
	c.inCode = false
	c.pending = nil

	opening := lines[0]
	inner := make([]string, 0, len(lines))
	inner = append(inner, lines[1:]...)
	if closed {
		closing := inner[len(inner)-1]
		inner = inner[:len(inner)-1]
		if before := closing[:strings.Index(closing, Fence)]; strings.TrimSpace(before) != "" {
			inner = append(inner, before)
		}
	}

	return Node{
		Kind: CodeBlock{
			Lang: strings.TrimSpace(opening[len(Fence):]),
			Code: strings.Join(inner, "\n"),
		},
		Source: strings.Join(lines, "\n"),
	}
}

// singleLineCode returns the interior of a line that opens and closes a
// fence on its own, e.g. "```let x = 1```".
func singleLineCode(line string) (string, bool) {
	trimmed := strings.TrimRightFunc(line, unicode.IsSpace)
	if len(trimmed) < 2*len(Fence) || !strings.HasSuffix(trimmed, Fence) {
		return "", false
	}
	return trimmed[len(Fence) : len(trimmed)-len(Fence)], true
}

// classifyLine applies the header, checkbox and link rules to a line that is
// outside any code block. Anything else is a paragraph.
func classifyLine(line string) LineKind {
	if m := headerRe.FindStringSubmatch(line); m != nil {
		return Header{
			Level: len(m[1]),
			Text:  strings.TrimSpace(line[len(m[0]):]),
		}
	}
	if cb, ok := parseCheckbox(line); ok {
		return cb
	}
	if m := linkRe.FindStringSubmatch(line); m != nil {
		return Link{Text: m[1], URL: m[2]}
	}
	return Paragraph{}
}

func parseCheckbox(line string) (Checkbox, bool) {
	m := checkboxRe.FindStringSubmatch(line)
	if m == nil {
		return Checkbox{}, false
	}
	return Checkbox{
		Checked: m[1] == "x",
		Label:   strings.TrimSpace(m[2]),
	}, true
}
