package mcpserver

// MarkdownFormatContract describes the line-oriented markdown dialect notes
// are written in. LLM consumers should follow it when creating or updating
// notes.
const MarkdownFormatContract = `# StickIt Markdown Format

A note body is plain text split on newlines. Each line is classified on its
own; the only multi-line construct is the fenced code block. Anything that
does not match a rule below is a plain paragraph line and is kept verbatim.

## Rules

1. **Header**: one or more ` + "`#`" + ` followed by whitespace, then the text.
   ` + "`# Title`" + ` is level 1, ` + "`### Section`" + ` level 3. Levels 1-6 render with
   their own size; deeper levels render like body text.
2. **Checkbox**: the line starts with ` + "`[ ]`" + ` (open) or ` + "`[x]`" + ` (done), followed
   by the label. Only a lowercase ` + "`x`" + ` counts as done. No list marker before it.
3. **Link**: a line containing ` + "`[text](url)`" + `. The first pair on the line wins.
   URLs without a scheme get ` + "`https://`" + ` when rendered.
4. **Code block**: a line starting with three backticks opens a block; the
   next line containing three backticks closes it. The text after the
   opening fence is the language. A line that starts and ends with three
   backticks is a one-line block. An unclosed block runs to the end of the note.
5. Headers win over checkboxes, checkboxes over links.

## Editing

- Toggle checkboxes with the ` + "`toggle_checkbox`" + ` tool rather than rewriting the
  whole note; it changes a single character.
- Pass the checksum from ` + "`read_note`" + ` as ` + "`if_match`" + ` to ` + "`update_note`" + ` so a
  concurrent edit is detected instead of overwritten.
- Node indexes come from ` + "`get_note_nodes`" + `; a code block is one node no
  matter how many lines it spans.

## Example

` + "```" + `markdown
# Weekend
[ ] buy milk
[x] call the plumber
[Recipe](example.com/pancakes)
` + "```" + `
`
