// Package markdown implements the line-oriented markdown dialect used in note
// bodies: a single-pass classifier that turns text into typed nodes and a
// serializer that turns (possibly edited) nodes back into text.
package markdown

// LineKind is the classification of one node. The concrete types are
// Header, Checkbox, CodeBlock, Link and Paragraph; consumers switch on them.
type LineKind interface {
	lineKind()
	// Name is a stable lowercase identifier used by JSON and tool output.
	Name() string
}

// Header is one or more leading '#' followed by whitespace.
type Header struct {
	Level int
	Text  string
}

// Checkbox is a "[ ]" or "[x]" task line.
type Checkbox struct {
	Checked bool
	Label   string
}

// CodeBlock is a fenced region. Code holds the text between the fences.
// Lang is whatever followed the opening fence of a multi-line block.
type CodeBlock struct {
	Lang string
	Code string
}

// Link is the first [text](url) found on a line. URL is stored as written.
type Link struct {
	Text string
	URL  string
}

// Paragraph is any line no other rule matched. Its content is the node source.
type Paragraph struct{}

func (Header) lineKind()    {}
func (Checkbox) lineKind()  {}
func (CodeBlock) lineKind() {}
func (Link) lineKind()      {}
func (Paragraph) lineKind() {}

// Kind names.
const (
	KindHeader    = "header"
	KindCheckbox  = "checkbox"
	KindCodeBlock = "code_block"
	KindLink      = "link"
	KindParagraph = "paragraph"
)

func (Header) Name() string    { return KindHeader }
func (Checkbox) Name() string  { return KindCheckbox }
func (CodeBlock) Name() string { return KindCodeBlock }
func (Link) Name() string      { return KindLink }
func (Paragraph) Name() string { return KindParagraph }
