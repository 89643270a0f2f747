package markdown

// Node is one classified unit of a document.
//
// Source is the original line, or for code blocks the whole fenced region
// including both fences. It is what the serializer writes back for every
// node that was not edited.
type Node struct {
	Kind   LineKind
	Source string
}

// IsCheckbox reports whether the node is a checkbox.
func (n *Node) IsCheckbox() bool {
	_, ok := n.Kind.(Checkbox)
	return ok
}

// Toggle flips a checkbox node's state. Only the marker character inside
// Source changes; the label and any spacing are kept byte for byte.
// It reports false and leaves the node alone for every other kind.
func (n *Node) Toggle() bool {
	cb, ok := n.Kind.(Checkbox)
	if !ok {
		return false
	}
	cb.Checked = !cb.Checked
	n.Kind = cb

	if sourceMatches(n.Source, cb.Checked) {
		return true
	}
	if len(n.Source) >= 3 && n.Source[0] == '[' && n.Source[2] == ']' {
		n.Source = n.Source[:1] + string(marker(cb.Checked)) + n.Source[2:]
	} else {
		n.Source = canonicalCheckbox(cb)
	}
	return true
}

// sourceMatches reports whether src carries the marker for checked.
func sourceMatches(src string, checked bool) bool {
	return len(src) >= 3 && src[0] == '[' && src[1] == marker(checked) && src[2] == ']'
}

func marker(checked bool) byte {
	if checked {
		return 'x'
	}
	return ' '
}

func canonicalCheckbox(cb Checkbox) string {
	if cb.Checked {
		return "[x] " + cb.Label
	}
	return "[ ] " + cb.Label
}
