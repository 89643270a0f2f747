package markdown

import "encoding/json"

type nodeJSON struct {
	Kind    string `json:"kind"`
	Source  string `json:"source"`
	Level   int    `json:"level,omitempty"`
	Text    string `json:"text,omitempty"`
	Checked *bool  `json:"checked,omitempty"`
	Label   string `json:"label,omitempty"`
	Lang    string `json:"lang,omitempty"`
	Code    string `json:"code,omitempty"`
	URL     string `json:"url,omitempty"`
}

// MarshalJSON flattens the node kind into a tagged object.
func (n Node) MarshalJSON() ([]byte, error) {
	out := nodeJSON{Kind: KindParagraph, Source: n.Source}
	if n.Kind != nil {
		out.Kind = n.Kind.Name()
	}
	switch k := n.Kind.(type) {
	case Header:
		out.Level, out.Text = k.Level, k.Text
	case Checkbox:
		checked := k.Checked
		out.Checked, out.Label = &checked, k.Label
	case CodeBlock:
		out.Lang, out.Code = k.Lang, k.Code
	case Link:
		out.Text, out.URL = k.Text, k.URL
	}
	return json.Marshal(out)
}
