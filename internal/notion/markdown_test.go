package notion

import (
	"encoding/json"
	"strings"
	"testing"
)

func textBlock(blockType, content string) Block {
	rich, _ := json.Marshal(map[string]interface{}{
		"rich_text": NewRichText(content),
	})
	return Block{
		Object: ObjectBlock,
		Type:   blockType,
		Content: map[string]json.RawMessage{
			blockType: rich,
		},
	}
}

func TestRichTextToMarkdownAnnotations(t *testing.T) {
	tests := []struct {
		name       string
		annotation string
		want       string
	}{
		{"bold", "bold", "**note**"},
		{"italic", "italic", "*note*"},
		{"strikethrough", "strikethrough", "~~note~~"},
		{"code", "code", "`note`"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rich := NewRichText("note")
			rich[0].Annotations = map[string]interface{}{tt.annotation: true}
			if got := RichTextToMarkdown(rich); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestRichTextToMarkdownLink(t *testing.T) {
	rich := NewRichText("docs")
	rich[0].Href = "https://example.com"
	if got := RichTextToMarkdown(rich); got != "[docs](https://example.com)" {
		t.Errorf("Unexpected link rendering: %q", got)
	}
}

func TestRichTextToMarkdownPlainTextFallback(t *testing.T) {
	rich := []RichText{{Type: "mention", PlainText: "@someone"}}
	if got := RichTextToMarkdown(rich); got != "@someone" {
		t.Errorf("Expected plain text fallback, got %q", got)
	}
}

func TestBlockToMarkdownByType(t *testing.T) {
	tests := []struct {
		blockType string
		want      string
	}{
		{"paragraph", "hello\n\n"},
		{"heading_1", "# hello\n\n"},
		{"heading_2", "## hello\n\n"},
		{"heading_3", "### hello\n\n"},
		{"bulleted_list_item", "* hello\n"},
		{"numbered_list_item", "1. hello\n"},
		{"quote", "> hello\n\n"},
	}

	for _, tt := range tests {
		t.Run(tt.blockType, func(t *testing.T) {
			got := BlockToMarkdown(textBlock(tt.blockType, "hello"))
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestBlockToMarkdownToDo(t *testing.T) {
	block := textBlock("to_do", "ship it")
	if got := BlockToMarkdown(block); got != "[ ] ship it\n" {
		t.Errorf("Expected unchecked item, got %q", got)
	}

	var payload map[string]interface{}
	_ = json.Unmarshal(block.Content["to_do"], &payload)
	payload["checked"] = true
	raw, _ := json.Marshal(payload)
	block.Content["to_do"] = raw

	if got := BlockToMarkdown(block); got != "[x] ship it\n" {
		t.Errorf("Expected checked item, got %q", got)
	}
}

func TestBlockToMarkdownCode(t *testing.T) {
	payload, _ := json.Marshal(map[string]interface{}{
		"rich_text": NewRichText(`fmt.Println("hi")`),
		"language":  "go",
	})
	block := Block{
		Object:  ObjectBlock,
		Type:    "code",
		Content: map[string]json.RawMessage{"code": payload},
	}

	got := BlockToMarkdown(block)
	if !strings.HasPrefix(got, "```go\n") || !strings.HasSuffix(got, "\n```\n\n") {
		t.Errorf("Expected fenced code block, got %q", got)
	}
	if !strings.Contains(got, `fmt.Println("hi")`) {
		t.Errorf("Expected code content preserved, got %q", got)
	}
}

func TestBlockToMarkdownDivider(t *testing.T) {
	block := Block{Object: ObjectBlock, Type: "divider"}
	if got := BlockToMarkdown(block); got != "---\n\n" {
		t.Errorf("Expected divider, got %q", got)
	}
}

func TestBlockToMarkdownUnknownType(t *testing.T) {
	got := BlockToMarkdown(textBlock("callout", "heads up"))
	if !strings.Contains(got, "heads up") {
		t.Errorf("Expected unknown types to still surface their text, got %q", got)
	}
}

func TestBlocksToMarkdownConcatenates(t *testing.T) {
	blocks := []Block{
		textBlock("heading_1", "Title"),
		textBlock("paragraph", "Body"),
	}
	got := BlocksToMarkdown(blocks)
	if got != "# Title\n\nBody\n\n" {
		t.Errorf("Unexpected document rendering: %q", got)
	}
}

func TestBlocksToMarkdownEmpty(t *testing.T) {
	if got := BlocksToMarkdown(nil); got != "" {
		t.Errorf("Expected empty string for no blocks, got %q", got)
	}
}
