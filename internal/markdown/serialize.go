package markdown

import "strings"

// Serialize joins the text form of every node with a single '\n'.
// For a sequence returned by Parse and left untouched the result equals the
// parsed input.
func Serialize(nodes []Node) string {
	var b strings.Builder
	for i := range nodes {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(nodes[i].Text())
	}
	return b.String()
}

// Text returns the serialized form of the node. Checkboxes are written from
// their current state: the source is reused while it still describes that
// state, otherwise the canonical "[x] label" / "[ ] label" form is emitted.
func (n *Node) Text() string {
	cb, ok := n.Kind.(Checkbox)
	if !ok {
		return n.Source
	}
	if parsed, ok := parseCheckbox(n.Source); ok && parsed == cb {
		return n.Source
	}
	return canonicalCheckbox(cb)
}
