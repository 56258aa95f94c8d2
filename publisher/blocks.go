package publisher

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// The content store renders a typed block tree, not markdown. The conversion
// is a two-level parse: a line-oriented state machine classifies blocks, then
// an inline pass splits each block's text into plain/bold span runs.

// Block is one node of the structured body.
type Block struct {
	Key      string `json:"_key"`
	Type     string `json:"_type"`
	Style    string `json:"style"`
	ListItem string `json:"listItem,omitempty"`
	Level    int    `json:"level,omitempty"`
	Children []Span `json:"children"`
	MarkDefs []any  `json:"markDefs"`
}

// Span is one inline run inside a block. Bold runs carry the "strong" mark.
type Span struct {
	Key   string   `json:"_key"`
	Type  string   `json:"_type"`
	Text  string   `json:"text"`
	Marks []string `json:"marks"`
}

var inlineBoldRe = regexp.MustCompile(`\*\*([^*]+)\*\*`)

func newKey() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// BlocksFromMarkdown converts the cleaned body into the block tree. A blank
// line flushes the paragraph buffer; consecutive non-blank lines are joined
// with spaces into one paragraph. Classification order matters: headings,
// bullets, quotes and FAQ lines are checked before plain paragraph text.
func BlocksFromMarkdown(body string) []Block {
	var blocks []Block
	var paragraph []string

	flush := func() {
		if len(paragraph) == 0 {
			return
		}
		blocks = append(blocks, textBlock("normal", strings.Join(paragraph, " ")))
		paragraph = nil
	}

	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			flush()

		case strings.HasPrefix(trimmed, "## "):
			flush()
			blocks = append(blocks, textBlock("h2", strings.TrimSpace(trimmed[3:])))

		case strings.HasPrefix(trimmed, "### "):
			flush()
			blocks = append(blocks, textBlock("h3", strings.TrimSpace(trimmed[4:])))

		case strings.HasPrefix(trimmed, "- "):
			flush()
			item := textBlock("normal", strings.TrimSpace(trimmed[2:]))
			item.ListItem = "bullet"
			item.Level = 1
			blocks = append(blocks, item)

		case len(trimmed) >= 2 && strings.HasPrefix(trimmed, `"`) && strings.HasSuffix(trimmed, `"`):
			flush()
			blocks = append(blocks, textBlock("blockquote", trimmed[1:len(trimmed)-1]))

		case strings.HasPrefix(trimmed, "**Q:") && strings.Contains(trimmed, "?**"):
			// FAQ question: the whole line becomes one bold span.
			flush()
			question := strings.TrimSuffix(strings.TrimPrefix(trimmed, "**"), "**")
			blocks = append(blocks, Block{
				Key:      newKey(),
				Type:     "block",
				Style:    "normal",
				Children: []Span{{Key: newKey(), Type: "span", Text: question, Marks: []string{"strong"}}},
				MarkDefs: []any{},
			})

		case strings.HasPrefix(trimmed, "A: "):
			flush()
			blocks = append(blocks, textBlock("normal", trimmed))

		default:
			paragraph = append(paragraph, trimmed)
		}
	}
	flush()

	return blocks
}

func textBlock(style, text string) Block {
	return Block{
		Key:      newKey(),
		Type:     "block",
		Style:    style,
		Children: splitSpans(text),
		MarkDefs: []any{},
	}
}

// splitSpans finds every **bold** span and splits the text into alternating
// plain/bold runs, one span per run. Text without bold markers yields a
// single plain span.
func splitSpans(text string) []Span {
	matches := inlineBoldRe.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return []Span{plainSpan(text)}
	}

	var spans []Span
	last := 0
	for _, m := range matches {
		if m[0] > last {
			spans = append(spans, plainSpan(text[last:m[0]]))
		}
		spans = append(spans, Span{
			Key:   newKey(),
			Type:  "span",
			Text:  text[m[2]:m[3]],
			Marks: []string{"strong"},
		})
		last = m[1]
	}
	if last < len(text) {
		spans = append(spans, plainSpan(text[last:]))
	}
	return spans
}

func plainSpan(text string) Span {
	return Span{Key: newKey(), Type: "span", Text: text, Marks: []string{}}
}
