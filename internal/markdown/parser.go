package markdown

import "strings"

// Parse splits text on '\n' and classifies every line. Lines belonging to a
// fenced block collapse into a single CodeBlock node; an unterminated block
// is flushed at the end of input. The result is in document order and is
// identical for identical input.
func Parse(text string) []Node {
	lines := strings.Split(text, "\n")
	nodes := make([]Node, 0, len(lines))

	var c Classifier
	for _, line := range lines {
		if n, ok := c.Feed(line); ok {
			nodes = append(nodes, n)
		}
	}
	if n, ok := c.Flush(); ok {
		nodes = append(nodes, n)
	}
	return nodes
}

// NormalizeNewlines rewrites "\r\n" and lone "\r" as "\n".
func NormalizeNewlines(text string) string {
	if !strings.ContainsRune(text, '\r') {
		return text
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

// LineEnding reports the line break text uses: "\r\n" when every break is
// CRLF, "\n" otherwise. ok is false when the breaks are mixed or include a
// lone "\r", since such a file cannot be written back byte for byte.
func LineEnding(text string) (eol string, ok bool) {
	cr := strings.Count(text, "\r")
	if cr == 0 {
		return "\n", true
	}
	crlf := strings.Count(text, "\r\n")
	if cr == crlf && strings.Count(text, "\n") == crlf {
		return "\r\n", true
	}
	return "\n", false
}

// RestoreLineEndings turns the "\n" breaks of normalised text back into eol.
func RestoreLineEndings(text, eol string) string {
	if eol == "\n" {
		return text
	}
	return strings.ReplaceAll(text, "\n", eol)
}

// TaskStats counts checkbox nodes and how many of them are checked.
func TaskStats(nodes []Node) (total, completed int) {
	for _, n := range nodes {
		if cb, ok := n.Kind.(Checkbox); ok {
			total++
			if cb.Checked {
				completed++
			}
		}
	}
	return total, completed
}
