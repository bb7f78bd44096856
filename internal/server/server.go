package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	gomcpserver "github.com/localrivet/gomcp/server"
	"github.com/localrivet/notionmcp/internal/errortypes"
	"github.com/localrivet/notionmcp/internal/notion"
	"github.com/localrivet/notionmcp/internal/telemetry"
	"github.com/localrivet/notionmcp/internal/tools"
)

// Common server error types
var (
	ErrServerNotInitialized = errors.New("server not initialized")
	ErrMissingClient        = errors.New("notion client is nil")
)

// NotionToolServer implements the WorkspaceToolServer interface, exposing
// the Notion workspace operations as MCP tools. Per invocation the flow is
// strictly linear: validate arguments, delegate to the client, format the
// envelope. No state is kept between calls.
type NotionToolServer struct {
	client    notion.API
	metrics   *telemetry.MetricsCollector
	mcpServer gomcpserver.Server
	dispatch  map[string]func(ctx context.Context, args json.RawMessage) (interface{}, error)
}

// NewNotionToolServer creates a new NotionToolServer instance. The metrics
// collector may be nil.
func NewNotionToolServer(client notion.API, metrics *telemetry.MetricsCollector) *NotionToolServer {
	return &NotionToolServer{
		client:  client,
		metrics: metrics,
	}
}

// Initialize registers the twelve workspace tools with the MCP server and
// builds the dispatch table.
func (s *NotionToolServer) Initialize() error {
	slog.Info("Initializing Notion MCP Tool Server")

	if s.client == nil {
		return errortypes.ConfigError(ErrMissingClient, "server initialization failed")
	}

	srv := gomcpserver.NewServer("notionmcp")

	srv = srv.Tool(tools.ToolListDatabases, "List all Notion databases the integration has access to",
		func(ctx *gomcpserver.Context, req tools.ListDatabasesRequest) (tools.ListDatabasesResponse, error) {
			return s.handleListDatabases(context.Background(), req), nil
		})

	srv = srv.Tool(tools.ToolQueryDatabase, "Query items from a Notion database with optional filtering and sorting",
		func(ctx *gomcpserver.Context, req tools.QueryDatabaseRequest) (tools.QueryDatabaseResponse, error) {
			return s.handleQueryDatabase(context.Background(), req), nil
		})

	srv = srv.Tool(tools.ToolCreateDatabase, "Create a new Notion database with a custom property schema",
		func(ctx *gomcpserver.Context, req tools.CreateDatabaseRequest) (tools.DatabaseResponse, error) {
			return s.handleCreateDatabase(context.Background(), req), nil
		})

	srv = srv.Tool(tools.ToolUpdateDatabase, "Update a Notion database's title, description, or schema",
		func(ctx *gomcpserver.Context, req tools.UpdateDatabaseRequest) (tools.DatabaseResponse, error) {
			return s.handleUpdateDatabase(context.Background(), req), nil
		})

	srv = srv.Tool(tools.ToolCreatePage, "Create a new page in a Notion database with properties and optional content",
		func(ctx *gomcpserver.Context, req tools.CreatePageRequest) (tools.PageResponse, error) {
			return s.handleCreatePage(context.Background(), req), nil
		})

	srv = srv.Tool(tools.ToolUpdatePage, "Update properties of an existing Notion page or archive it",
		func(ctx *gomcpserver.Context, req tools.UpdatePageRequest) (tools.PageResponse, error) {
			return s.handleUpdatePage(context.Background(), req), nil
		})

	srv = srv.Tool(tools.ToolGetPage, "Retrieve a specific Notion page by its ID",
		func(ctx *gomcpserver.Context, req tools.GetPageRequest) (tools.PageResponse, error) {
			return s.handleGetPage(context.Background(), req), nil
		})

	srv = srv.Tool(tools.ToolGetPageContent, "Retrieve the content blocks of a Notion page",
		func(ctx *gomcpserver.Context, req tools.GetPageContentRequest) (tools.PageContentResponse, error) {
			return s.handleGetPageContent(context.Background(), req), nil
		})

	srv = srv.Tool(tools.ToolAppendPageContent, "Add content blocks to a Notion page or block",
		func(ctx *gomcpserver.Context, req tools.AppendPageContentRequest) (tools.AppendPageContentResponse, error) {
			return s.handleAppendPageContent(context.Background(), req), nil
		})

	srv = srv.Tool(tools.ToolGetBlock, "Retrieve a specific block by its ID",
		func(ctx *gomcpserver.Context, req tools.GetBlockRequest) (tools.BlockResponse, error) {
			return s.handleGetBlock(context.Background(), req), nil
		})

	srv = srv.Tool(tools.ToolUpdateBlock, "Update the content of a specific block or archive/restore it",
		func(ctx *gomcpserver.Context, req tools.UpdateBlockRequest) (tools.BlockResponse, error) {
			return s.handleUpdateBlock(context.Background(), req), nil
		})

	srv = srv.Tool(tools.ToolSearch, "Search for pages or databases in Notion by title",
		func(ctx *gomcpserver.Context, req tools.SearchRequest) (tools.SearchResponse, error) {
			return s.handleSearch(context.Background(), req), nil
		})

	s.mcpServer = srv
	s.buildDispatch()

	slog.Info("Notion MCP Tool Server initialized successfully", "tool_count", len(tools.Names()))
	return nil
}

// buildDispatch mirrors the gomcp registrations into a by-name table so
// embedding hosts and tests invoke the same code path.
func (s *NotionToolServer) buildDispatch() {
	s.dispatch = map[string]func(ctx context.Context, args json.RawMessage) (interface{}, error){
		tools.ToolListDatabases: func(ctx context.Context, args json.RawMessage) (interface{}, error) {
			var req tools.ListDatabasesRequest
			if err := decodeArgs(args, &req); err != nil {
				return nil, err
			}
			return s.handleListDatabases(ctx, req), nil
		},
		tools.ToolQueryDatabase: func(ctx context.Context, args json.RawMessage) (interface{}, error) {
			var req tools.QueryDatabaseRequest
			if err := decodeArgs(args, &req); err != nil {
				return nil, err
			}
			return s.handleQueryDatabase(ctx, req), nil
		},
		tools.ToolCreateDatabase: func(ctx context.Context, args json.RawMessage) (interface{}, error) {
			var req tools.CreateDatabaseRequest
			if err := decodeArgs(args, &req); err != nil {
				return nil, err
			}
			return s.handleCreateDatabase(ctx, req), nil
		},
		tools.ToolUpdateDatabase: func(ctx context.Context, args json.RawMessage) (interface{}, error) {
			var req tools.UpdateDatabaseRequest
			if err := decodeArgs(args, &req); err != nil {
				return nil, err
			}
			return s.handleUpdateDatabase(ctx, req), nil
		},
		tools.ToolCreatePage: func(ctx context.Context, args json.RawMessage) (interface{}, error) {
			var req tools.CreatePageRequest
			if err := decodeArgs(args, &req); err != nil {
				return nil, err
			}
			return s.handleCreatePage(ctx, req), nil
		},
		tools.ToolUpdatePage: func(ctx context.Context, args json.RawMessage) (interface{}, error) {
			var req tools.UpdatePageRequest
			if err := decodeArgs(args, &req); err != nil {
				return nil, err
			}
			return s.handleUpdatePage(ctx, req), nil
		},
		tools.ToolGetPage: func(ctx context.Context, args json.RawMessage) (interface{}, error) {
			var req tools.GetPageRequest
			if err := decodeArgs(args, &req); err != nil {
				return nil, err
			}
			return s.handleGetPage(ctx, req), nil
		},
		tools.ToolGetPageContent: func(ctx context.Context, args json.RawMessage) (interface{}, error) {
			var req tools.GetPageContentRequest
			if err := decodeArgs(args, &req); err != nil {
				return nil, err
			}
			return s.handleGetPageContent(ctx, req), nil
		},
		tools.ToolAppendPageContent: func(ctx context.Context, args json.RawMessage) (interface{}, error) {
			var req tools.AppendPageContentRequest
			if err := decodeArgs(args, &req); err != nil {
				return nil, err
			}
			return s.handleAppendPageContent(ctx, req), nil
		},
		tools.ToolGetBlock: func(ctx context.Context, args json.RawMessage) (interface{}, error) {
			var req tools.GetBlockRequest
			if err := decodeArgs(args, &req); err != nil {
				return nil, err
			}
			return s.handleGetBlock(ctx, req), nil
		},
		tools.ToolUpdateBlock: func(ctx context.Context, args json.RawMessage) (interface{}, error) {
			var req tools.UpdateBlockRequest
			if err := decodeArgs(args, &req); err != nil {
				return nil, err
			}
			return s.handleUpdateBlock(ctx, req), nil
		},
		tools.ToolSearch: func(ctx context.Context, args json.RawMessage) (interface{}, error) {
			var req tools.SearchRequest
			if err := decodeArgs(args, &req); err != nil {
				return nil, err
			}
			return s.handleSearch(ctx, req), nil
		},
	}
}

// decodeArgs unmarshals raw tool arguments, classifying malformed input
// as a validation failure so no client call is made.
func decodeArgs(args json.RawMessage, out interface{}) error {
	if len(args) == 0 {
		return nil
	}
	if err := json.Unmarshal(args, out); err != nil {
		return errortypes.ValidationError(err, "tool arguments are not a valid JSON object")
	}
	return nil
}

// CallTool dispatches a tool invocation by name. Unknown names yield an
// unsupported-tool error without touching the client.
func (s *NotionToolServer) CallTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	if s.dispatch == nil {
		return nil, errortypes.ConfigError(ErrServerNotInitialized, "cannot dispatch tool call")
	}

	s.count(telemetry.MetricToolCalls)

	handler, ok := s.dispatch[name]
	if !ok {
		s.count(telemetry.MetricToolCallsUnknown)
		err := errortypes.UnsupportedError(
			fmt.Errorf("unknown tool %q", name),
			"unsupported tool",
		).WithField("tool", name)
		errortypes.LogError(nil, err)
		return nil, err
	}
	return handler(ctx, args)
}

// Start starts the MCP server on the stdio transport.
func (s *NotionToolServer) Start() error {
	if s.mcpServer == nil {
		return errortypes.ConfigError(ErrServerNotInitialized, "cannot start server")
	}

	slog.Info("Starting Notion MCP Tool Server")

	stdioServer := s.mcpServer.AsStdio()
	return stdioServer.Run()
}

// Stop gracefully shuts down the MCP server.
func (s *NotionToolServer) Stop() error {
	slog.Info("Stopping Notion MCP Tool Server")
	if s.metrics != nil {
		slog.Info("Final metrics", "snapshot", s.metrics.Snapshot())
	}
	// The server exits when stdin is closed.
	return nil
}

// fail stamps the envelope fields shared by every error response and
// counts the rejection.
func (s *NotionToolServer) fail(operation string, err error) (string, string) {
	if errortypes.IsValidationError(err) {
		errortypes.LogError(nil, err)
	}
	s.count(telemetry.MetricToolCallsRejected)
	return StatusError, toolErrorMessage(operation, err)
}

func (s *NotionToolServer) count(name string) {
	if s.metrics != nil {
		s.metrics.IncrementCounter(name, 1)
	}
}

// handleListDatabases handles the list_databases MCP tool call.
func (s *NotionToolServer) handleListDatabases(ctx context.Context, req tools.ListDatabasesRequest) tools.ListDatabasesResponse {
	slog.Info("Processing list_databases request")

	response := tools.ListDatabasesResponse{Status: StatusSuccess}

	if err := req.Validate(); err != nil {
		response.Status, response.Error = s.fail(tools.ToolListDatabases, err)
		return response
	}

	results, err := s.client.ListDatabases(ctx, req.Cursor)
	if err != nil {
		response.Status, response.Error = s.fail(tools.ToolListDatabases, err)
		return response
	}

	response.Databases = results.Databases
	response.NextCursor = results.NextCursor
	response.HasMore = results.HasMore
	s.count(telemetry.MetricToolCallsSuccessful)
	slog.Info("Successfully listed databases", "count", len(results.Databases))
	return response
}

// handleQueryDatabase handles the query_database MCP tool call.
func (s *NotionToolServer) handleQueryDatabase(ctx context.Context, req tools.QueryDatabaseRequest) tools.QueryDatabaseResponse {
	slog.Info("Processing query_database request", "database_id", req.DatabaseID)

	response := tools.QueryDatabaseResponse{Status: StatusSuccess}

	if err := req.Validate(); err != nil {
		response.Status, response.Error = s.fail(tools.ToolQueryDatabase, err)
		return response
	}

	list, err := s.client.QueryDatabase(ctx, notion.QueryDatabaseParams{
		DatabaseID: req.DatabaseID,
		Filter:     req.Filter,
		Sorts:      req.Sorts,
		PageSize:   req.PageSize,
		Cursor:     req.Cursor,
	})
	if err != nil {
		response.Status, response.Error = s.fail(tools.ToolQueryDatabase, err)
		return response
	}

	response.Results = list.Results
	response.NextCursor = list.NextCursor
	response.HasMore = list.HasMore
	s.count(telemetry.MetricToolCallsSuccessful)
	slog.Info("Successfully queried database", "count", len(list.Results), "has_more", list.HasMore)
	return response
}

// handleCreateDatabase handles the create_database MCP tool call.
func (s *NotionToolServer) handleCreateDatabase(ctx context.Context, req tools.CreateDatabaseRequest) tools.DatabaseResponse {
	slog.Info("Processing create_database request", "parent_id", req.ParentID, "title", req.Title)

	response := tools.DatabaseResponse{Status: StatusSuccess}

	if err := req.Validate(); err != nil {
		response.Status, response.Error = s.fail(tools.ToolCreateDatabase, err)
		return response
	}

	db, err := s.client.CreateDatabase(ctx, notion.CreateDatabaseParams{
		ParentPageID: req.ParentID,
		Title:        req.Title,
		Properties:   req.Properties,
		Icon:         req.Icon,
		Cover:        req.Cover,
	})
	if err != nil {
		response.Status, response.Error = s.fail(tools.ToolCreateDatabase, err)
		return response
	}

	response.Database = db
	s.count(telemetry.MetricToolCallsSuccessful)
	slog.Info("Successfully created database", "id", db.ID)
	return response
}

// handleUpdateDatabase handles the update_database MCP tool call.
func (s *NotionToolServer) handleUpdateDatabase(ctx context.Context, req tools.UpdateDatabaseRequest) tools.DatabaseResponse {
	slog.Info("Processing update_database request", "database_id", req.DatabaseID)

	response := tools.DatabaseResponse{Status: StatusSuccess}

	if err := req.Validate(); err != nil {
		response.Status, response.Error = s.fail(tools.ToolUpdateDatabase, err)
		return response
	}

	db, err := s.client.UpdateDatabase(ctx, notion.UpdateDatabaseParams{
		DatabaseID:  req.DatabaseID,
		Title:       req.Title,
		Description: req.Description,
		Properties:  req.Properties,
	})
	if err != nil {
		response.Status, response.Error = s.fail(tools.ToolUpdateDatabase, err)
		return response
	}

	response.Database = db
	s.count(telemetry.MetricToolCallsSuccessful)
	slog.Info("Successfully updated database", "id", db.ID)
	return response
}

// handleCreatePage handles the create_page MCP tool call.
func (s *NotionToolServer) handleCreatePage(ctx context.Context, req tools.CreatePageRequest) tools.PageResponse {
	slog.Info("Processing create_page request", "database_id", req.DatabaseID)

	response := tools.PageResponse{Status: StatusSuccess}

	if err := req.Validate(); err != nil {
		response.Status, response.Error = s.fail(tools.ToolCreatePage, err)
		return response
	}

	page, err := s.client.CreatePage(ctx, notion.CreatePageParams{
		DatabaseID: req.DatabaseID,
		Properties: req.Properties,
		Children:   req.Children,
	})
	if err != nil {
		response.Status, response.Error = s.fail(tools.ToolCreatePage, err)
		return response
	}

	response.Page = page
	s.count(telemetry.MetricToolCallsSuccessful)
	slog.Info("Successfully created page", "id", page.ID)
	return response
}

// handleUpdatePage handles the update_page MCP tool call.
func (s *NotionToolServer) handleUpdatePage(ctx context.Context, req tools.UpdatePageRequest) tools.PageResponse {
	slog.Info("Processing update_page request", "page_id", req.PageID)

	response := tools.PageResponse{Status: StatusSuccess}

	if err := req.Validate(); err != nil {
		response.Status, response.Error = s.fail(tools.ToolUpdatePage, err)
		return response
	}

	page, err := s.client.UpdatePage(ctx, notion.UpdatePageParams{
		PageID:     req.PageID,
		Properties: req.Properties,
		Archived:   req.Archived,
	})
	if err != nil {
		response.Status, response.Error = s.fail(tools.ToolUpdatePage, err)
		return response
	}

	response.Page = page
	s.count(telemetry.MetricToolCallsSuccessful)
	slog.Info("Successfully updated page", "id", page.ID)
	return response
}

// handleGetPage handles the get_page MCP tool call.
func (s *NotionToolServer) handleGetPage(ctx context.Context, req tools.GetPageRequest) tools.PageResponse {
	slog.Info("Processing get_page request", "page_id", req.PageID)

	response := tools.PageResponse{Status: StatusSuccess}

	if err := req.Validate(); err != nil {
		response.Status, response.Error = s.fail(tools.ToolGetPage, err)
		return response
	}

	page, err := s.client.GetPage(ctx, req.PageID)
	if err != nil {
		response.Status, response.Error = s.fail(tools.ToolGetPage, err)
		return response
	}

	response.Page = page
	s.count(telemetry.MetricToolCallsSuccessful)
	return response
}

// handleGetPageContent handles the get_page_content MCP tool call.
func (s *NotionToolServer) handleGetPageContent(ctx context.Context, req tools.GetPageContentRequest) tools.PageContentResponse {
	slog.Info("Processing get_page_content request", "page_id", req.PageID)

	response := tools.PageContentResponse{Status: StatusSuccess}

	if err := req.Validate(); err != nil {
		response.Status, response.Error = s.fail(tools.ToolGetPageContent, err)
		return response
	}

	blocks, err := s.client.GetPageContent(ctx, req.PageID, req.Cursor, req.PageSize)
	if err != nil {
		response.Status, response.Error = s.fail(tools.ToolGetPageContent, err)
		return response
	}

	response.Blocks = blocks.Results
	response.Markdown = notion.BlocksToMarkdown(blocks.Results)
	response.NextCursor = blocks.NextCursor
	response.HasMore = blocks.HasMore
	s.count(telemetry.MetricToolCallsSuccessful)
	slog.Info("Successfully retrieved page content", "count", len(blocks.Results), "has_more", blocks.HasMore)
	return response
}

// handleAppendPageContent handles the append_page_content MCP tool call.
// Appending is not idempotent: calling twice with the same children
// appends them twice.
func (s *NotionToolServer) handleAppendPageContent(ctx context.Context, req tools.AppendPageContentRequest) tools.AppendPageContentResponse {
	slog.Info("Processing append_page_content request", "block_id", req.BlockID)

	response := tools.AppendPageContentResponse{Status: StatusSuccess}

	if err := req.Validate(); err != nil {
		response.Status, response.Error = s.fail(tools.ToolAppendPageContent, err)
		return response
	}

	blocks, err := s.client.AppendPageContent(ctx, notion.AppendParams{
		BlockID:  req.BlockID,
		Children: req.Children,
		After:    req.After,
	})
	if err != nil {
		response.Status, response.Error = s.fail(tools.ToolAppendPageContent, err)
		return response
	}

	response.Blocks = blocks.Results
	response.Appended = len(blocks.Results)
	s.count(telemetry.MetricToolCallsSuccessful)
	slog.Info("Successfully appended content", "block_id", req.BlockID, "appended", response.Appended)
	return response
}

// handleGetBlock handles the get_block MCP tool call.
func (s *NotionToolServer) handleGetBlock(ctx context.Context, req tools.GetBlockRequest) tools.BlockResponse {
	slog.Info("Processing get_block request", "block_id", req.BlockID)

	response := tools.BlockResponse{Status: StatusSuccess}

	if err := req.Validate(); err != nil {
		response.Status, response.Error = s.fail(tools.ToolGetBlock, err)
		return response
	}

	block, err := s.client.GetBlock(ctx, req.BlockID)
	if err != nil {
		response.Status, response.Error = s.fail(tools.ToolGetBlock, err)
		return response
	}

	response.Block = block
	response.Markdown = notion.BlockToMarkdown(*block)
	s.count(telemetry.MetricToolCallsSuccessful)
	return response
}

// handleUpdateBlock handles the update_block MCP tool call.
func (s *NotionToolServer) handleUpdateBlock(ctx context.Context, req tools.UpdateBlockRequest) tools.BlockResponse {
	slog.Info("Processing update_block request", "block_id", req.BlockID, "block_type", req.BlockType)

	response := tools.BlockResponse{Status: StatusSuccess}

	if err := req.Validate(); err != nil {
		response.Status, response.Error = s.fail(tools.ToolUpdateBlock, err)
		return response
	}

	block, err := s.client.UpdateBlock(ctx, notion.UpdateBlockParams{
		BlockID:   req.BlockID,
		BlockType: req.BlockType,
		Content:   req.Content,
		Archived:  req.Archived,
	})
	if err != nil {
		response.Status, response.Error = s.fail(tools.ToolUpdateBlock, err)
		return response
	}

	response.Block = block
	s.count(telemetry.MetricToolCallsSuccessful)
	slog.Info("Successfully updated block", "id", block.ID)
	return response
}

// handleSearch handles the search MCP tool call.
func (s *NotionToolServer) handleSearch(ctx context.Context, req tools.SearchRequest) tools.SearchResponse {
	slog.Info("Processing search request", "query", req.Query, "filter_type", req.FilterType)

	response := tools.SearchResponse{Status: StatusSuccess}

	if err := req.Validate(); err != nil {
		response.Status, response.Error = s.fail(tools.ToolSearch, err)
		return response
	}

	results, err := s.client.Search(ctx, notion.SearchParams{
		Query:      req.Query,
		FilterType: req.FilterType,
		Sort:       req.Sort,
		Cursor:     req.Cursor,
		PageSize:   req.PageSize,
	})
	if err != nil {
		response.Status, response.Error = s.fail(tools.ToolSearch, err)
		return response
	}

	response.Pages = results.Pages
	response.Databases = results.Databases
	response.NextCursor = results.NextCursor
	response.HasMore = results.HasMore
	s.count(telemetry.MetricToolCallsSuccessful)
	slog.Info("Successfully searched workspace", "pages", len(results.Pages), "databases", len(results.Databases))
	return response
}
