// Package notion provides the HTTP client for the Notion REST API and the
// typed request/response models the adapter passes through it.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/localrivet/notionmcp/internal/errortypes"
	"github.com/localrivet/notionmcp/internal/telemetry"
)

const (
	// DefaultBaseURL is the versioned Notion API root.
	DefaultBaseURL = "https://api.notion.com/v1"

	// DefaultVersion is the Notion-Version header value the adapter speaks.
	DefaultVersion = "2022-06-28"

	// DefaultTimeout bounds each API call.
	DefaultTimeout = 30 * time.Second

	// DefaultPageSize is used when a paginated call does not specify one.
	DefaultPageSize = 100
)

// Config holds everything a Client needs. It is constructed explicitly and
// passed in, so tests can run independently configured instances.
type Config struct {
	APIKey  string
	BaseURL string
	Version string
	Timeout time.Duration
}

// Client issues one authenticated Notion API call per operation. It keeps
// no state across calls beyond the credential and never retries.
type Client struct {
	cfg        Config
	httpClient *http.Client
	metrics    *telemetry.MetricsCollector
	logger     *slog.Logger
}

// API is the operation surface the tool dispatcher depends on. The
// concrete Client implements it; tests substitute mocks.
type API interface {
	ListDatabases(ctx context.Context, cursor string) (*SearchResults, error)
	QueryDatabase(ctx context.Context, p QueryDatabaseParams) (*List, error)
	CreateDatabase(ctx context.Context, p CreateDatabaseParams) (*Database, error)
	UpdateDatabase(ctx context.Context, p UpdateDatabaseParams) (*Database, error)
	CreatePage(ctx context.Context, p CreatePageParams) (*Page, error)
	UpdatePage(ctx context.Context, p UpdatePageParams) (*Page, error)
	GetPage(ctx context.Context, pageID string) (*Page, error)
	GetPageContent(ctx context.Context, pageID, cursor string, pageSize int) (*BlockList, error)
	AppendPageContent(ctx context.Context, p AppendParams) (*BlockList, error)
	GetBlock(ctx context.Context, blockID string) (*Block, error)
	UpdateBlock(ctx context.Context, p UpdateBlockParams) (*Block, error)
	Search(ctx context.Context, p SearchParams) (*SearchResults, error)
}

// Option configures optional Client collaborators.
type Option func(*Client)

// WithMetrics wires a metrics collector into the client.
func WithMetrics(m *telemetry.MetricsCollector) Option {
	return func(c *Client) { c.metrics = m }
}

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger substitutes the client logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a Client from the given configuration. Empty fields
// fall back to defaults; the API key is required.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errortypes.ConfigError(errors.New("api key is empty"), "notion client requires an integration token")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Version == "" {
		cfg.Version = DefaultVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NormalizeID strips dashes from a workspace object ID. The API accepts
// both forms; stripping keeps request paths canonical.
func NormalizeID(id string) string {
	return strings.ReplaceAll(id, "-", "")
}

// QueryDatabaseParams are the inputs for QueryDatabase. Filter and Sorts
// are forwarded verbatim.
type QueryDatabaseParams struct {
	DatabaseID string
	Filter     json.RawMessage
	Sorts      json.RawMessage
	PageSize   int
	Cursor     string
}

// CreateDatabaseParams are the inputs for CreateDatabase.
type CreateDatabaseParams struct {
	ParentPageID string
	Title        string
	Properties   json.RawMessage
	Icon         map[string]interface{}
	Cover        map[string]interface{}
}

// UpdateDatabaseParams are the inputs for UpdateDatabase. Only non-zero
// fields are sent.
type UpdateDatabaseParams struct {
	DatabaseID  string
	Title       string
	Description string
	Properties  json.RawMessage
}

// CreatePageParams are the inputs for CreatePage.
type CreatePageParams struct {
	DatabaseID string
	Properties json.RawMessage
	Children   json.RawMessage
}

// UpdatePageParams are the inputs for UpdatePage.
type UpdatePageParams struct {
	PageID     string
	Properties json.RawMessage
	Archived   *bool
}

// AppendParams are the inputs for AppendPageContent.
type AppendParams struct {
	BlockID  string
	Children json.RawMessage
	After    string
}

// UpdateBlockParams are the inputs for UpdateBlock.
type UpdateBlockParams struct {
	BlockID   string
	BlockType string
	Content   json.RawMessage
	Archived  *bool
}

// SearchParams are the inputs for Search.
type SearchParams struct {
	Query      string
	FilterType string // "page", "database", or empty for both
	Sort       json.RawMessage
	Cursor     string
	PageSize   int
}

// ListDatabases enumerates databases visible to the credential, one page
// per call. It rides the search endpoint filtered to database objects.
func (c *Client) ListDatabases(ctx context.Context, cursor string) (*SearchResults, error) {
	body := map[string]interface{}{
		"filter":    map[string]string{"property": "object", "value": ObjectDatabase},
		"page_size": DefaultPageSize,
		"sort":      map[string]string{"direction": "descending", "timestamp": "last_edited_time"},
	}
	if cursor != "" {
		body["start_cursor"] = cursor
	}

	var list List
	if err := c.do(ctx, "list_databases", http.MethodPost, "/search", nil, body, &list); err != nil {
		return nil, err
	}
	return splitSearchResults(&list)
}

// QueryDatabase returns one page of items matching the filter, plus the
// continuation cursor when more exist.
func (c *Client) QueryDatabase(ctx context.Context, p QueryDatabaseParams) (*List, error) {
	pageSize := p.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	body := map[string]interface{}{"page_size": pageSize}
	if len(p.Filter) > 0 {
		body["filter"] = p.Filter
	}
	if len(p.Sorts) > 0 {
		body["sorts"] = p.Sorts
	}
	if p.Cursor != "" {
		body["start_cursor"] = p.Cursor
	}

	var list List
	path := "/databases/" + NormalizeID(p.DatabaseID) + "/query"
	if err := c.do(ctx, "query_database", http.MethodPost, path, nil, body, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// CreateDatabase constructs a new database under a parent page.
func (c *Client) CreateDatabase(ctx context.Context, p CreateDatabaseParams) (*Database, error) {
	body := map[string]interface{}{
		"parent": map[string]string{
			"type":    "page_id",
			"page_id": NormalizeID(p.ParentPageID),
		},
		"title":      NewRichText(p.Title),
		"properties": p.Properties,
	}
	if icon := normalizeIcon(p.Icon); icon != nil {
		body["icon"] = icon
	}
	if p.Cover != nil {
		body["cover"] = p.Cover
	}

	var db Database
	if err := c.do(ctx, "create_database", http.MethodPost, "/databases", nil, body, &db); err != nil {
		return nil, err
	}
	return &db, nil
}

// UpdateDatabase sends a partial update; only supplied fields go on the wire.
func (c *Client) UpdateDatabase(ctx context.Context, p UpdateDatabaseParams) (*Database, error) {
	body := map[string]interface{}{}
	if p.Title != "" {
		body["title"] = NewRichText(p.Title)
	}
	if p.Description != "" {
		body["description"] = NewRichText(p.Description)
	}
	if len(p.Properties) > 0 {
		body["properties"] = p.Properties
	}

	var db Database
	path := "/databases/" + NormalizeID(p.DatabaseID)
	if err := c.do(ctx, "update_database", http.MethodPatch, path, nil, body, &db); err != nil {
		return nil, err
	}
	return &db, nil
}

// CreatePage creates a page under a database, optionally with initial content.
func (c *Client) CreatePage(ctx context.Context, p CreatePageParams) (*Page, error) {
	body := map[string]interface{}{
		"parent":     map[string]string{"database_id": NormalizeID(p.DatabaseID)},
		"properties": p.Properties,
	}
	if len(p.Children) > 0 {
		body["children"] = p.Children
	}

	var page Page
	if err := c.do(ctx, "create_page", http.MethodPost, "/pages", nil, body, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// UpdatePage applies a partial property update or toggles archival.
func (c *Client) UpdatePage(ctx context.Context, p UpdatePageParams) (*Page, error) {
	body := map[string]interface{}{}
	if len(p.Properties) > 0 {
		body["properties"] = p.Properties
	}
	if p.Archived != nil {
		body["archived"] = *p.Archived
	}

	var page Page
	path := "/pages/" + NormalizeID(p.PageID)
	if err := c.do(ctx, "update_page", http.MethodPatch, path, nil, body, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetPage retrieves page metadata and properties.
func (c *Client) GetPage(ctx context.Context, pageID string) (*Page, error) {
	var page Page
	path := "/pages/" + NormalizeID(pageID)
	if err := c.do(ctx, "get_page", http.MethodGet, path, nil, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetPageContent retrieves one page of the page's content blocks.
func (c *Client) GetPageContent(ctx context.Context, pageID, cursor string, pageSize int) (*BlockList, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	query := url.Values{"page_size": {strconv.Itoa(pageSize)}}
	if cursor != "" {
		query.Set("start_cursor", cursor)
	}

	var blocks BlockList
	path := "/blocks/" + NormalizeID(pageID) + "/children"
	if err := c.do(ctx, "get_page_content", http.MethodGet, path, query, nil, &blocks); err != nil {
		return nil, err
	}
	return &blocks, nil
}

// AppendPageContent appends blocks under a page or block. Each call
// appends once; repeating a call appends again.
func (c *Client) AppendPageContent(ctx context.Context, p AppendParams) (*BlockList, error) {
	body := map[string]interface{}{"children": p.Children}
	if p.After != "" {
		body["after"] = NormalizeID(p.After)
	}

	var blocks BlockList
	path := "/blocks/" + NormalizeID(p.BlockID) + "/children"
	if err := c.do(ctx, "append_page_content", http.MethodPatch, path, nil, body, &blocks); err != nil {
		return nil, err
	}
	return &blocks, nil
}

// GetBlock retrieves a single block.
func (c *Client) GetBlock(ctx context.Context, blockID string) (*Block, error) {
	var block Block
	path := "/blocks/" + NormalizeID(blockID)
	if err := c.do(ctx, "get_block", http.MethodGet, path, nil, nil, &block); err != nil {
		return nil, err
	}
	return &block, nil
}

// UpdateBlock rewrites a block's type-specific content or toggles archival.
func (c *Client) UpdateBlock(ctx context.Context, p UpdateBlockParams) (*Block, error) {
	body := map[string]interface{}{}
	if len(p.Content) > 0 {
		body[p.BlockType] = p.Content
	}
	if p.Archived != nil {
		body["archived"] = *p.Archived
	}

	var block Block
	path := "/blocks/" + NormalizeID(p.BlockID)
	if err := c.do(ctx, "update_block", http.MethodPatch, path, nil, body, &block); err != nil {
		return nil, err
	}
	return &block, nil
}

// Search runs a full-text search over titles, optionally scoped to pages
// or databases.
func (c *Client) Search(ctx context.Context, p SearchParams) (*SearchResults, error) {
	pageSize := p.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	body := map[string]interface{}{
		"query":     p.Query,
		"page_size": pageSize,
	}
	if p.FilterType != "" {
		body["filter"] = map[string]string{"property": "object", "value": p.FilterType}
	}
	if len(p.Sort) > 0 {
		body["sort"] = p.Sort
	}
	if p.Cursor != "" {
		body["start_cursor"] = p.Cursor
	}

	var list List
	if err := c.do(ctx, "search", http.MethodPost, "/search", nil, body, &list); err != nil {
		return nil, err
	}
	return splitSearchResults(&list)
}

// do issues a single API call and decodes the response into out. All
// error translation happens here.
func (c *Client) do(ctx context.Context, operation, method, path string, query url.Values, body, out interface{}) error {
	start := time.Now()
	err := c.doOnce(ctx, method, path, query, body, out)
	c.record(operation, time.Since(start), err)
	if err != nil {
		errortypes.LogError(c.logger, err)
	}
	return err
}

func (c *Client) doOnce(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	reqURL := c.cfg.BaseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errortypes.InternalError(err, "failed to encode request body")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return errortypes.InternalError(err, "failed to build request")
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Notion-Version", c.cfg.Version)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errortypes.UpstreamError(err, "notion api unreachable").
			WithField("url", reqURL)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errortypes.UpstreamError(err, "failed to read notion api response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return translateStatus(resp.StatusCode, respBody)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return errortypes.UpstreamError(err, "notion api returned malformed json").
				WithRemote(resp.StatusCode, "")
		}
	}
	return nil
}

// translateStatus maps a remote error response onto the adapter taxonomy.
func translateStatus(status int, body []byte) error {
	var remote apiError
	_ = json.Unmarshal(body, &remote) // tolerate non-JSON error bodies

	msg := remote.Message
	if msg == "" {
		msg = http.StatusText(status)
	}
	cause := fmt.Errorf("notion api status %d: %s", status, msg)

	switch {
	case status == http.StatusUnauthorized:
		return errortypes.UnauthorizedError(cause, "integration token rejected").
			WithRemote(status, remote.Code)
	case status >= 400 && status < 500:
		return errortypes.RejectedError(cause, "notion api rejected the request").
			WithRemote(status, remote.Code)
	default:
		return errortypes.UpstreamError(cause, "notion api unavailable").
			WithRemote(status, remote.Code)
	}
}

// splitSearchResults sorts a raw search page into pages and databases.
func splitSearchResults(list *List) (*SearchResults, error) {
	out := &SearchResults{
		Object:     ObjectList,
		Pages:      []Page{},
		Databases:  []Database{},
		NextCursor: list.NextCursor,
		HasMore:    list.HasMore,
	}
	for _, raw := range list.Results {
		var probe struct {
			Object string `json:"object"`
		}
		if err := json.Unmarshal(raw, &probe); err != nil {
			return nil, errortypes.UpstreamError(err, "notion api returned malformed search result")
		}
		switch probe.Object {
		case ObjectPage:
			var page Page
			if err := json.Unmarshal(raw, &page); err != nil {
				return nil, errortypes.UpstreamError(err, "notion api returned malformed page")
			}
			out.Pages = append(out.Pages, page)
		case ObjectDatabase:
			var db Database
			if err := json.Unmarshal(raw, &db); err != nil {
				return nil, errortypes.UpstreamError(err, "notion api returned malformed database")
			}
			out.Databases = append(out.Databases, db)
		}
	}
	return out, nil
}

// normalizeIcon fills in a default emoji when an emoji icon arrives empty,
// matching what the API requires.
func normalizeIcon(icon map[string]interface{}) map[string]interface{} {
	if icon == nil {
		return nil
	}
	if icon["type"] == "emoji" {
		if emoji, _ := icon["emoji"].(string); emoji == "" {
			icon["emoji"] = "📄"
		}
	}
	return icon
}

func (c *Client) record(operation string, elapsed time.Duration, err error) {
	if c.metrics == nil {
		return
	}
	c.metrics.IncrementCounter(telemetry.MetricAPICallPrefix+operation, 1)
	if err != nil {
		c.metrics.IncrementCounter(telemetry.MetricAPICallsFailure, 1)
	} else {
		c.metrics.IncrementCounter(telemetry.MetricAPICallsSuccess, 1)
	}
	c.metrics.RecordTimer(telemetry.MetricResponseTimePrefix+operation, elapsed)
}
