package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Header(t *testing.T) {
	nodes := Parse("# Header 1")
	require.Len(t, nodes, 1)
	assert.Equal(t, Header{Level: 1, Text: "Header 1"}, nodes[0].Kind)
	assert.Equal(t, "# Header 1", nodes[0].Source)
}

func TestParse_HeaderLevels(t *testing.T) {
	for k := 1; k <= 12; k++ {
		line := strings.Repeat("#", k) + " rest of line"
		nodes := Parse(line)
		require.Len(t, nodes, 1, "level %d", k)
		assert.Equal(t, Header{Level: k, Text: "rest of line"}, nodes[0].Kind, "level %d", k)
	}
}

func TestParse_HeaderNeedsWhitespace(t *testing.T) {
	nodes := Parse("#hashtag")
	require.Len(t, nodes, 1)
	assert.Equal(t, Paragraph{}, nodes[0].Kind)
}

func TestParse_CheckboxUnchecked(t *testing.T) {
	nodes := Parse("[ ] Task not done")
	require.Len(t, nodes, 1)
	assert.Equal(t, Checkbox{Checked: false, Label: "Task not done"}, nodes[0].Kind)
}

func TestParse_CheckboxChecked(t *testing.T) {
	nodes := Parse("[x] Task completed")
	require.Len(t, nodes, 1)
	assert.Equal(t, Checkbox{Checked: true, Label: "Task completed"}, nodes[0].Kind)
}

func TestParse_CheckboxLabelTrimmed(t *testing.T) {
	nodes := Parse("[x]   spaced out   ")
	require.Len(t, nodes, 1)
	assert.Equal(t, Checkbox{Checked: true, Label: "spaced out"}, nodes[0].Kind)

	nodes = Parse("[ ]")
	require.Len(t, nodes, 1)
	assert.Equal(t, Checkbox{Checked: false, Label: ""}, nodes[0].Kind)
}

func TestParse_CheckboxBeatsLink(t *testing.T) {
	nodes := Parse("[ ] read [the docs](https://go.dev)")
	require.Len(t, nodes, 1)
	assert.Equal(t, Checkbox{Label: "read [the docs](https://go.dev)"}, nodes[0].Kind)
}

func TestParse_CodeBlockMultiLine(t *testing.T) {
	input := "```\nlet x = 1\nlet y = 2\n```"
	nodes := Parse(input)
	require.Len(t, nodes, 1)

	cb, ok := nodes[0].Kind.(CodeBlock)
	require.True(t, ok, "kind = %T", nodes[0].Kind)
	assert.Contains(t, cb.Code, "let x = 1")
	assert.Contains(t, cb.Code, "let y = 2")
	assert.Equal(t, "let x = 1\nlet y = 2", cb.Code)
	assert.Equal(t, input, nodes[0].Source)
}

func TestParse_CodeBlockSingleLine(t *testing.T) {
	nodes := Parse("```let x = 1```")
	require.Len(t, nodes, 1)
	assert.Equal(t, CodeBlock{Code: "let x = 1"}, nodes[0].Kind)
}

func TestParse_CodeBlockLangAndContent(t *testing.T) {
	nodes := Parse("```go\n# not a header\n[ ] not a task\n```")
	require.Len(t, nodes, 1)
	assert.Equal(t, CodeBlock{Lang: "go", Code: "# not a header\n[ ] not a task"}, nodes[0].Kind)
}

func TestParse_CodeBlockClosingFenceAfterText(t *testing.T) {
	nodes := Parse("```\nfirst\nlast```")
	require.Len(t, nodes, 1)
	assert.Equal(t, CodeBlock{Code: "first\nlast"}, nodes[0].Kind)
}

func TestParse_UnterminatedFenceKeepsContent(t *testing.T) {
	input := "```\nline one\nline two\n\nline four"
	nodes := Parse(input)
	require.Len(t, nodes, 1)
	assert.Equal(t, CodeBlock{Code: "line one\nline two\n\nline four"}, nodes[0].Kind)
	assert.Equal(t, input, nodes[0].Source)
}

func TestParse_FenceOnly(t *testing.T) {
	nodes := Parse("```")
	require.Len(t, nodes, 1)
	assert.Equal(t, CodeBlock{}, nodes[0].Kind)

	nodes = Parse("``````")
	require.Len(t, nodes, 1)
	assert.Equal(t, CodeBlock{}, nodes[0].Kind)
}

func TestParse_InlineFenceIsParagraph(t *testing.T) {
	nodes := Parse("run ```make``` first")
	require.Len(t, nodes, 1)
	assert.Equal(t, Paragraph{}, nodes[0].Kind)
}

func TestParse_Link(t *testing.T) {
	input := "[Google](https://google.com)"
	nodes := Parse(input)
	require.Len(t, nodes, 1)
	assert.Equal(t, Link{Text: "Google", URL: "https://google.com"}, nodes[0].Kind)
	assert.Equal(t, input, nodes[0].Source)
}

func TestParse_LinkKeepsURLVerbatim(t *testing.T) {
	nodes := Parse("see [docs](go.dev/doc) and [more](x)")
	require.Len(t, nodes, 1)
	assert.Equal(t, Link{Text: "docs", URL: "go.dev/doc"}, nodes[0].Kind)
}

func TestParse_Paragraph(t *testing.T) {
	input := "Just a plain paragraph."
	nodes := Parse(input)
	require.Len(t, nodes, 1)
	assert.Equal(t, Paragraph{}, nodes[0].Kind)
	assert.Equal(t, input, nodes[0].Source)
}

func TestParse_MalformedFallsBackToParagraph(t *testing.T) {
	for _, line := range []string{
		"",
		"[y] not a checkbox",
		"[x",
		" [x] indented",
		"[broken](",
		"](nothing)[",
		"####",
	} {
		nodes := Parse(line)
		require.Len(t, nodes, 1, "input %q", line)
		assert.Equal(t, Paragraph{}, nodes[0].Kind, "input %q", line)
		assert.Equal(t, line, nodes[0].Source)
	}
}

func TestParse_BlankLinesPreserved(t *testing.T) {
	nodes := Parse("a\n\n\nb\n")
	require.Len(t, nodes, 5)
	for i, want := range []string{"a", "", "", "b", ""} {
		assert.Equal(t, Paragraph{}, nodes[i].Kind)
		assert.Equal(t, want, nodes[i].Source)
	}
}

func TestParse_MultipleLines(t *testing.T) {
	input := strings.Join([]string{
		"# Header",
		"[ ] Unchecked",
		"[x] Checked",
		"[GitHub](https://github.com)",
		"```",
		"code",
		"block",
		"```",
		"Regular text",
	}, "\n")

	nodes := Parse(input)
	require.Len(t, nodes, 6)
	assert.Equal(t, Header{Level: 1, Text: "Header"}, nodes[0].Kind)
	assert.Equal(t, Checkbox{Checked: false, Label: "Unchecked"}, nodes[1].Kind)
	assert.Equal(t, Checkbox{Checked: true, Label: "Checked"}, nodes[2].Kind)
	assert.Equal(t, Link{Text: "GitHub", URL: "https://github.com"}, nodes[3].Kind)
	assert.Equal(t, CodeBlock{Code: "code\nblock"}, nodes[4].Kind)
	assert.Equal(t, Paragraph{}, nodes[5].Kind)
}

func TestParse_Deterministic(t *testing.T) {
	input := "# a\n[x] b\n```\nc\n"
	assert.Equal(t, Parse(input), Parse(input))
}

func TestClassifier_State(t *testing.T) {
	var c Classifier
	_, ok := c.Feed("```sh")
	assert.False(t, ok)
	assert.True(t, c.InCodeBlock())

	_, ok = c.Feed("echo hi")
	assert.False(t, ok)

	n, ok := c.Feed("```")
	require.True(t, ok)
	assert.False(t, c.InCodeBlock())
	assert.Equal(t, CodeBlock{Lang: "sh", Code: "echo hi"}, n.Kind)

	_, ok = c.Flush()
	assert.False(t, ok)
}

func TestNormalizeNewlines(t *testing.T) {
	assert.Equal(t, "a\nb\nc", NormalizeNewlines("a\r\nb\rc"))
	assert.Equal(t, "plain", NormalizeNewlines("plain"))
}

func TestLineEnding(t *testing.T) {
	tests := []struct {
		name string
		in   string
		eol  string
		ok   bool
	}{
		{"empty", "", "\n", true},
		{"lf", "[ ] a\n[x] b\n", "\n", true},
		{"crlf", "[ ] a\r\n[x] b\r\n", "\r\n", true},
		{"mixed", "[ ] a\r\n[x] b\n", "\n", false},
		{"lone cr", "[ ] a\r[x] b", "\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eol, ok := LineEnding(tt.in)
			assert.Equal(t, tt.eol, eol)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestToggleKeepsCRLF(t *testing.T) {
	raw := "# List\r\n[ ] milk\r\n[x] eggs\r\n"
	eol, ok := LineEnding(raw)
	require.True(t, ok)

	nodes := Parse(NormalizeNewlines(raw))
	require.True(t, nodes[1].Toggle())
	got := RestoreLineEndings(Serialize(nodes), eol)
	assert.Equal(t, "# List\r\n[x] milk\r\n[x] eggs\r\n", got)
}

func TestTaskStats(t *testing.T) {
	total, done := TaskStats(Parse("[ ] a\n[x] b\n[x] c\ntext"))
	assert.Equal(t, 3, total)
	assert.Equal(t, 2, done)
}
