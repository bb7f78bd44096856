// Package tools defines the tool names, argument schemas, and response
// shapes for the Notion MCP adapter.
package tools

import (
	"encoding/json"
	"fmt"

	"github.com/localrivet/notionmcp/internal/errortypes"
	"github.com/localrivet/notionmcp/internal/notion"
)

const (
	// ToolListDatabases is the name of the list_databases MCP tool
	ToolListDatabases = "list_databases"

	// ToolQueryDatabase is the name of the query_database MCP tool
	ToolQueryDatabase = "query_database"

	// ToolCreateDatabase is the name of the create_database MCP tool
	ToolCreateDatabase = "create_database"

	// ToolUpdateDatabase is the name of the update_database MCP tool
	ToolUpdateDatabase = "update_database"

	// ToolCreatePage is the name of the create_page MCP tool
	ToolCreatePage = "create_page"

	// ToolUpdatePage is the name of the update_page MCP tool
	ToolUpdatePage = "update_page"

	// ToolGetPage is the name of the get_page MCP tool
	ToolGetPage = "get_page"

	// ToolGetPageContent is the name of the get_page_content MCP tool
	ToolGetPageContent = "get_page_content"

	// ToolAppendPageContent is the name of the append_page_content MCP tool
	ToolAppendPageContent = "append_page_content"

	// ToolGetBlock is the name of the get_block MCP tool
	ToolGetBlock = "get_block"

	// ToolUpdateBlock is the name of the update_block MCP tool
	ToolUpdateBlock = "update_block"

	// ToolSearch is the name of the search MCP tool
	ToolSearch = "search"

	// MaxAppendBlocks is the most blocks a single append call may carry.
	MaxAppendBlocks = 100
)

// Sort directions accepted wherever a direction enum appears.
const (
	SortAscending  = "ascending"
	SortDescending = "descending"
)

// Search filter object types.
const (
	FilterPage     = "page"
	FilterDatabase = "database"
)

// Names returns the names of all supported tools in registration order.
func Names() []string {
	return []string{
		ToolListDatabases,
		ToolQueryDatabase,
		ToolCreateDatabase,
		ToolUpdateDatabase,
		ToolCreatePage,
		ToolUpdatePage,
		ToolGetPage,
		ToolGetPageContent,
		ToolAppendPageContent,
		ToolGetBlock,
		ToolUpdateBlock,
		ToolSearch,
	}
}

// IsSupported reports whether name is one of the declared tools.
func IsSupported(name string) bool {
	for _, n := range Names() {
		if n == name {
			return true
		}
	}
	return false
}

// missingField builds the validation error every missing required
// argument produces: no network call, offending field named.
func missingField(tool, field string) error {
	return errortypes.ValidationError(
		fmt.Errorf("%s is required", field),
		"invalid arguments for "+tool,
	).WithField("field", field)
}

func invalidEnum(tool, field, got string, allowed ...string) error {
	return errortypes.ValidationError(
		fmt.Errorf("%s must be one of %v, got %q", field, allowed, got),
		"invalid arguments for "+tool,
	).WithField("field", field)
}

// ListDatabasesRequest defines the input schema for list_databases.
type ListDatabasesRequest struct {
	// Cursor is an opaque continuation token from a previous page.
	Cursor string `json:"cursor,omitempty"`
}

// Validate checks the request arguments.
func (r *ListDatabasesRequest) Validate() error {
	return nil
}

// ListDatabasesResponse defines the output schema for list_databases.
type ListDatabasesResponse struct {
	Status     string            `json:"status"`
	Databases  []notion.Database `json:"databases,omitempty"`
	NextCursor string            `json:"next_cursor,omitempty"`
	HasMore    bool              `json:"has_more,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// QueryDatabaseRequest defines the input schema for query_database.
type QueryDatabaseRequest struct {
	// DatabaseID identifies the database to query (with or without dashes).
	DatabaseID string `json:"database_id"`

	// Filter is forwarded verbatim to the Notion API.
	Filter json.RawMessage `json:"filter,omitempty"`

	// Sorts is forwarded verbatim to the Notion API.
	Sorts json.RawMessage `json:"sorts,omitempty"`

	// PageSize caps the result page (max 100).
	PageSize int `json:"page_size,omitempty"`

	// Cursor is an opaque continuation token from a previous page.
	Cursor string `json:"cursor,omitempty"`
}

// Validate checks the request arguments.
func (r *QueryDatabaseRequest) Validate() error {
	if r.DatabaseID == "" {
		return missingField(ToolQueryDatabase, "database_id")
	}
	if err := validateSortDirections(ToolQueryDatabase, r.Sorts); err != nil {
		return err
	}
	return nil
}

// QueryDatabaseResponse defines the output schema for query_database.
// Results are remote-shaped items passed through unmodified.
type QueryDatabaseResponse struct {
	Status     string            `json:"status"`
	Results    []json.RawMessage `json:"results,omitempty"`
	NextCursor string            `json:"next_cursor,omitempty"`
	HasMore    bool              `json:"has_more,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// CreateDatabaseRequest defines the input schema for create_database.
type CreateDatabaseRequest struct {
	// ParentID is the page the database is created under.
	ParentID string `json:"parent_id"`

	// Title is the database title as plain text.
	Title string `json:"title"`

	// Properties is the schema definition, forwarded verbatim. Must
	// include at least one title property per remote validation.
	Properties json.RawMessage `json:"properties"`

	// Icon optionally sets the database icon.
	Icon map[string]interface{} `json:"icon,omitempty"`

	// Cover optionally sets the database cover image.
	Cover map[string]interface{} `json:"cover,omitempty"`
}

// Validate checks the request arguments.
func (r *CreateDatabaseRequest) Validate() error {
	if r.ParentID == "" {
		return missingField(ToolCreateDatabase, "parent_id")
	}
	if r.Title == "" {
		return missingField(ToolCreateDatabase, "title")
	}
	if len(r.Properties) == 0 {
		return missingField(ToolCreateDatabase, "properties")
	}
	return nil
}

// DatabaseResponse is the output schema for tools returning one database.
type DatabaseResponse struct {
	Status   string           `json:"status"`
	Database *notion.Database `json:"database,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// UpdateDatabaseRequest defines the input schema for update_database.
// Only supplied fields are sent to the remote API.
type UpdateDatabaseRequest struct {
	DatabaseID  string          `json:"database_id"`
	Title       string          `json:"title,omitempty"`
	Description string          `json:"description,omitempty"`
	Properties  json.RawMessage `json:"properties,omitempty"`
}

// Validate checks the request arguments.
func (r *UpdateDatabaseRequest) Validate() error {
	if r.DatabaseID == "" {
		return missingField(ToolUpdateDatabase, "database_id")
	}
	return nil
}

// CreatePageRequest defines the input schema for create_page.
type CreatePageRequest struct {
	// DatabaseID is the database the page is created in.
	DatabaseID string `json:"database_id"`

	// Properties are typed property values matching the database schema.
	Properties json.RawMessage `json:"properties"`

	// Children optionally seeds the page with content blocks.
	Children json.RawMessage `json:"children,omitempty"`
}

// Validate checks the request arguments.
func (r *CreatePageRequest) Validate() error {
	if r.DatabaseID == "" {
		return missingField(ToolCreatePage, "database_id")
	}
	if len(r.Properties) == 0 {
		return missingField(ToolCreatePage, "properties")
	}
	return nil
}

// PageResponse is the output schema for tools returning one page.
type PageResponse struct {
	Status string       `json:"status"`
	Page   *notion.Page `json:"page,omitempty"`
	Error  string       `json:"error,omitempty"`
}

// UpdatePageRequest defines the input schema for update_page. At least
// one of properties/archived must be supplied.
type UpdatePageRequest struct {
	PageID     string          `json:"page_id"`
	Properties json.RawMessage `json:"properties,omitempty"`
	Archived   *bool           `json:"archived,omitempty"`
}

// Validate checks the request arguments.
func (r *UpdatePageRequest) Validate() error {
	if r.PageID == "" {
		return missingField(ToolUpdatePage, "page_id")
	}
	if len(r.Properties) == 0 && r.Archived == nil {
		return errortypes.ValidationError(
			fmt.Errorf("at least one of properties or archived is required"),
			"invalid arguments for "+ToolUpdatePage,
		).WithField("field", "properties")
	}
	return nil
}

// GetPageRequest defines the input schema for get_page.
type GetPageRequest struct {
	PageID string `json:"page_id"`
}

// Validate checks the request arguments.
func (r *GetPageRequest) Validate() error {
	if r.PageID == "" {
		return missingField(ToolGetPage, "page_id")
	}
	return nil
}

// GetPageContentRequest defines the input schema for get_page_content.
type GetPageContentRequest struct {
	PageID   string `json:"page_id"`
	Cursor   string `json:"cursor,omitempty"`
	PageSize int    `json:"page_size,omitempty"`
}

// Validate checks the request arguments.
func (r *GetPageContentRequest) Validate() error {
	if r.PageID == "" {
		return missingField(ToolGetPageContent, "page_id")
	}
	return nil
}

// PageContentResponse is the output schema for get_page_content.
type PageContentResponse struct {
	Status     string         `json:"status"`
	Blocks     []notion.Block `json:"blocks,omitempty"`
	Markdown   string         `json:"markdown,omitempty"`
	NextCursor string         `json:"next_cursor,omitempty"`
	HasMore    bool           `json:"has_more,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// AppendPageContentRequest defines the input schema for append_page_content.
type AppendPageContentRequest struct {
	// BlockID is the page or block the children are appended under.
	BlockID string `json:"block_id"`

	// Children is the block array to append, forwarded verbatim.
	// Each call appends; repeating a call appends again.
	Children json.RawMessage `json:"children"`

	// After optionally anchors the append after an existing block.
	After string `json:"after,omitempty"`
}

// Validate checks the request arguments, including the per-call block cap.
func (r *AppendPageContentRequest) Validate() error {
	if r.BlockID == "" {
		return missingField(ToolAppendPageContent, "block_id")
	}
	if len(r.Children) == 0 {
		return missingField(ToolAppendPageContent, "children")
	}
	var children []json.RawMessage
	if err := json.Unmarshal(r.Children, &children); err != nil {
		return errortypes.ValidationError(
			fmt.Errorf("children must be an array of block objects: %w", err),
			"invalid arguments for "+ToolAppendPageContent,
		).WithField("field", "children")
	}
	if len(children) == 0 {
		return missingField(ToolAppendPageContent, "children")
	}
	if len(children) > MaxAppendBlocks {
		return errortypes.ValidationError(
			fmt.Errorf("children holds %d blocks, maximum is %d per call", len(children), MaxAppendBlocks),
			"invalid arguments for "+ToolAppendPageContent,
		).WithField("field", "children")
	}
	return nil
}

// AppendPageContentResponse is the output schema for append_page_content.
type AppendPageContentResponse struct {
	Status   string         `json:"status"`
	Appended int            `json:"appended,omitempty"`
	Blocks   []notion.Block `json:"blocks,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// GetBlockRequest defines the input schema for get_block.
type GetBlockRequest struct {
	BlockID string `json:"block_id"`
}

// Validate checks the request arguments.
func (r *GetBlockRequest) Validate() error {
	if r.BlockID == "" {
		return missingField(ToolGetBlock, "block_id")
	}
	return nil
}

// BlockResponse is the output schema for tools returning one block.
type BlockResponse struct {
	Status   string        `json:"status"`
	Block    *notion.Block `json:"block,omitempty"`
	Markdown string        `json:"markdown,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// UpdateBlockRequest defines the input schema for update_block. Supplying
// content requires block_type; archive-only updates need neither.
type UpdateBlockRequest struct {
	BlockID string `json:"block_id"`

	// BlockType is the block's type (paragraph, heading_1, to_do, ...).
	BlockType string `json:"block_type,omitempty"`

	// Content is the type-specific payload, forwarded verbatim.
	Content json.RawMessage `json:"content,omitempty"`

	// Archived toggles archival when set.
	Archived *bool `json:"archived,omitempty"`
}

// Validate checks the request arguments.
func (r *UpdateBlockRequest) Validate() error {
	if r.BlockID == "" {
		return missingField(ToolUpdateBlock, "block_id")
	}
	if len(r.Content) > 0 && r.BlockType == "" {
		return errortypes.ValidationError(
			fmt.Errorf("block_type is required when content is supplied"),
			"invalid arguments for "+ToolUpdateBlock,
		).WithField("field", "block_type")
	}
	if len(r.Content) == 0 && r.Archived == nil {
		return errortypes.ValidationError(
			fmt.Errorf("at least one of content or archived is required"),
			"invalid arguments for "+ToolUpdateBlock,
		).WithField("field", "content")
	}
	return nil
}

// SearchRequest defines the input schema for search.
type SearchRequest struct {
	// Query is the full-text query over titles and content.
	Query string `json:"query"`

	// FilterType optionally scopes results to "page" or "database".
	FilterType string `json:"filter_type,omitempty"`

	// Sort is forwarded verbatim to the Notion API.
	Sort json.RawMessage `json:"sort,omitempty"`

	// Cursor is an opaque continuation token from a previous page.
	Cursor string `json:"cursor,omitempty"`

	// PageSize caps the result page (max 100).
	PageSize int `json:"page_size,omitempty"`
}

// Validate checks the request arguments.
func (r *SearchRequest) Validate() error {
	if r.Query == "" {
		return missingField(ToolSearch, "query")
	}
	if r.FilterType != "" && r.FilterType != FilterPage && r.FilterType != FilterDatabase {
		return invalidEnum(ToolSearch, "filter_type", r.FilterType, FilterPage, FilterDatabase)
	}
	if err := validateSortDirection(ToolSearch, "sort", r.Sort); err != nil {
		return err
	}
	return nil
}

// SearchResponse is the output schema for search and list_databases-style
// tools that split results by object type.
type SearchResponse struct {
	Status     string            `json:"status"`
	Pages      []notion.Page     `json:"pages,omitempty"`
	Databases  []notion.Database `json:"databases,omitempty"`
	NextCursor string            `json:"next_cursor,omitempty"`
	HasMore    bool              `json:"has_more,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// validateSortDirections checks the direction enum inside a sorts array
// without otherwise interpreting the expression.
func validateSortDirections(tool string, sorts json.RawMessage) error {
	if len(sorts) == 0 {
		return nil
	}
	var parsed []struct {
		Direction string `json:"direction"`
	}
	if err := json.Unmarshal(sorts, &parsed); err != nil {
		return errortypes.ValidationError(
			fmt.Errorf("sorts must be an array of sort objects: %w", err),
			"invalid arguments for "+tool,
		).WithField("field", "sorts")
	}
	for _, s := range parsed {
		if s.Direction != "" && s.Direction != SortAscending && s.Direction != SortDescending {
			return invalidEnum(tool, "sorts.direction", s.Direction, SortAscending, SortDescending)
		}
	}
	return nil
}

// validateSortDirection checks the direction enum inside a single sort object.
func validateSortDirection(tool, field string, sort json.RawMessage) error {
	if len(sort) == 0 {
		return nil
	}
	var parsed struct {
		Direction string `json:"direction"`
	}
	if err := json.Unmarshal(sort, &parsed); err != nil {
		return errortypes.ValidationError(
			fmt.Errorf("%s must be a sort object: %w", field, err),
			"invalid arguments for "+tool,
		).WithField("field", field)
	}
	if parsed.Direction != "" && parsed.Direction != SortAscending && parsed.Direction != SortDescending {
		return invalidEnum(tool, field+".direction", parsed.Direction, SortAscending, SortDescending)
	}
	return nil
}
