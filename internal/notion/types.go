package notion

import "encoding/json"

// Object type discriminators used by the Notion API.
const (
	ObjectPage     = "page"
	ObjectDatabase = "database"
	ObjectBlock    = "block"
	ObjectList     = "list"
	ObjectError    = "error"
)

// RichText is a single rich text span with optional annotations.
type RichText struct {
	Type        string                 `json:"type,omitempty"`
	Text        *TextContent           `json:"text,omitempty"`
	Annotations map[string]interface{} `json:"annotations,omitempty"`
	PlainText   string                 `json:"plain_text,omitempty"`
	Href        string                 `json:"href,omitempty"`
}

// TextContent is the literal text inside a rich text span.
type TextContent struct {
	Content string                 `json:"content"`
	Link    map[string]interface{} `json:"link,omitempty"`
}

// NewRichText builds a single-span rich text array from plain text, the
// form the API expects for titles and descriptions.
func NewRichText(content string) []RichText {
	return []RichText{{
		Type: "text",
		Text: &TextContent{Content: content},
	}}
}

// PropertyValue is a typed property value on a page. Only the field
// matching Type is populated; everything else passes through untouched.
type PropertyValue struct {
	ID          string                   `json:"id,omitempty"`
	Type        string                   `json:"type,omitempty"`
	Title       []RichText               `json:"title,omitempty"`
	RichText    []RichText               `json:"rich_text,omitempty"`
	Select      map[string]interface{}   `json:"select,omitempty"`
	MultiSelect []map[string]interface{} `json:"multi_select,omitempty"`
	Number      *float64                 `json:"number,omitempty"`
	Checkbox    *bool                    `json:"checkbox,omitempty"`
	Date        map[string]interface{}   `json:"date,omitempty"`
	URL         string                   `json:"url,omitempty"`
	Relation    []map[string]interface{} `json:"relation,omitempty"`
}

// Page is a Notion page: metadata plus its typed property values.
type Page struct {
	Object         string                   `json:"object"`
	ID             string                   `json:"id"`
	CreatedTime    string                   `json:"created_time,omitempty"`
	LastEditedTime string                   `json:"last_edited_time,omitempty"`
	URL            string                   `json:"url,omitempty"`
	PublicURL      string                   `json:"public_url,omitempty"`
	Parent         map[string]interface{}   `json:"parent,omitempty"`
	Archived       bool                     `json:"archived"`
	Properties     map[string]PropertyValue `json:"properties,omitempty"`
}

// Database is a Notion database: metadata plus its property schema.
// Property configurations are remote-owned; they pass through as raw JSON.
type Database struct {
	Object         string                     `json:"object"`
	ID             string                     `json:"id"`
	CreatedTime    string                     `json:"created_time,omitempty"`
	LastEditedTime string                     `json:"last_edited_time,omitempty"`
	URL            string                     `json:"url,omitempty"`
	Title          []RichText                 `json:"title,omitempty"`
	Description    []RichText                 `json:"description,omitempty"`
	Parent         map[string]interface{}     `json:"parent,omitempty"`
	Archived       bool                       `json:"archived"`
	Properties     map[string]json.RawMessage `json:"properties,omitempty"`
}

// Block is a typed content unit. The type-specific payload stays raw so
// every block type the API grows is carried through unmodified.
type Block struct {
	Object         string                     `json:"object"`
	ID             string                     `json:"id"`
	Type           string                     `json:"type,omitempty"`
	CreatedTime    string                     `json:"created_time,omitempty"`
	LastEditedTime string                     `json:"last_edited_time,omitempty"`
	HasChildren    bool                       `json:"has_children,omitempty"`
	Archived       bool                       `json:"archived"`
	Content        map[string]json.RawMessage `json:"-"`
}

// blockAlias avoids recursion in the custom (un)marshalers.
type blockAlias Block

// UnmarshalJSON captures the type-specific payload alongside the fixed fields.
func (b *Block) UnmarshalJSON(data []byte) error {
	var alias blockAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, known := range []string{
		"object", "id", "type", "created_time", "last_edited_time",
		"has_children", "archived", "created_by", "last_edited_by", "parent",
	} {
		delete(raw, known)
	}
	alias.Content = raw
	*b = Block(alias)
	return nil
}

// MarshalJSON re-inlines the type-specific payload.
func (b Block) MarshalJSON() ([]byte, error) {
	fixed, err := json.Marshal(blockAlias(b))
	if err != nil {
		return nil, err
	}
	if len(b.Content) == 0 {
		return fixed, nil
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(fixed, &merged); err != nil {
		return nil, err
	}
	for k, v := range b.Content {
		merged[k] = v
	}
	return json.Marshal(merged)
}

// List is the API's paginated list envelope. Results keep their raw form;
// cursors are opaque and never interpreted locally.
type List struct {
	Object     string            `json:"object"`
	Results    []json.RawMessage `json:"results"`
	NextCursor string            `json:"next_cursor,omitempty"`
	HasMore    bool              `json:"has_more"`
}

// BlockList is a paginated page of content blocks.
type BlockList struct {
	Object     string  `json:"object"`
	Results    []Block `json:"results"`
	NextCursor string  `json:"next_cursor,omitempty"`
	HasMore    bool    `json:"has_more"`
}

// SearchResults splits a search page into its pages and databases.
type SearchResults struct {
	Object     string     `json:"object"`
	Pages      []Page     `json:"pages"`
	Databases  []Database `json:"databases"`
	NextCursor string     `json:"next_cursor,omitempty"`
	HasMore    bool       `json:"has_more"`
}

// apiError is the error body the Notion API returns alongside 4xx/5xx.
type apiError struct {
	Object  string `json:"object"`
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
