package notion

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RichTextToMarkdown flattens a rich text array into markdown, applying
// bold/italic/strikethrough/code annotations and links.
func RichTextToMarkdown(spans []RichText) string {
	var b strings.Builder
	for _, span := range spans {
		text := span.PlainText
		if text == "" && span.Text != nil {
			text = span.Text.Content
		}

		if truthy(span.Annotations, "bold") {
			text = "**" + text + "**"
		}
		if truthy(span.Annotations, "italic") {
			text = "*" + text + "*"
		}
		if truthy(span.Annotations, "strikethrough") {
			text = "~~" + text + "~~"
		}
		if truthy(span.Annotations, "code") {
			text = "`" + text + "`"
		}
		if span.Href != "" {
			text = fmt.Sprintf("[%s](%s)", text, span.Href)
		}

		b.WriteString(text)
	}
	return b.String()
}

// BlockToMarkdown renders a single block as markdown. Unknown block types
// degrade to their plain text.
func BlockToMarkdown(block Block) string {
	content, text := blockText(block)

	switch block.Type {
	case "paragraph":
		return text + "\n\n"
	case "heading_1":
		return "# " + text + "\n\n"
	case "heading_2":
		return "## " + text + "\n\n"
	case "heading_3":
		return "### " + text + "\n\n"
	case "bulleted_list_item":
		return "* " + text + "\n"
	case "numbered_list_item":
		return "1. " + text + "\n"
	case "to_do":
		checkbox := "[ ]"
		if truthy(content, "checked") {
			checkbox = "[x]"
		}
		return checkbox + " " + text + "\n"
	case "code":
		language, _ := content["language"].(string)
		return "```" + language + "\n" + text + "\n```\n\n"
	case "quote":
		return "> " + text + "\n\n"
	case "divider":
		return "---\n\n"
	default:
		return text + "\n\n"
	}
}

// BlocksToMarkdown renders a sequence of blocks.
func BlocksToMarkdown(blocks []Block) string {
	var b strings.Builder
	for _, block := range blocks {
		b.WriteString(BlockToMarkdown(block))
	}
	return b.String()
}

// blockText decodes the type-specific payload and extracts its rich text.
func blockText(block Block) (map[string]interface{}, string) {
	raw, ok := block.Content[block.Type]
	if !ok {
		return nil, ""
	}

	var content struct {
		RichText []RichText `json:"rich_text"`
	}
	if err := json.Unmarshal(raw, &content); err != nil {
		return nil, ""
	}

	var generic map[string]interface{}
	_ = json.Unmarshal(raw, &generic)

	return generic, RichTextToMarkdown(content.RichText)
}

func truthy(m map[string]interface{}, key string) bool {
	if m == nil {
		return false
	}
	v, _ := m[key].(bool)
	return v
}
