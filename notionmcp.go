// Package notionmcp exposes Notion workspace operations (databases, pages,
// blocks, search) as MCP tools for an AI assistant.
package notionmcp

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/localrivet/notionmcp/internal/config"
	"github.com/localrivet/notionmcp/internal/errortypes"
	"github.com/localrivet/notionmcp/internal/notion"
	"github.com/localrivet/notionmcp/internal/server"
	"github.com/localrivet/notionmcp/internal/telemetry"
)

// Config represents the configuration for the Notion MCP adapter.
type Config = config.Config

// Server represents the Notion MCP adapter service.
type Server struct {
	config     *config.Config
	client     *notion.Client
	metrics    *telemetry.MetricsCollector
	toolServer server.WorkspaceToolServer
	logger     *slog.Logger
}

// ServerOptions defines the options for creating a new Server.
type ServerOptions struct {
	Config     *Config      // Pre-filled config. If nil, ConfigPath is used.
	ConfigPath string       // Path to config file. Used if Config is nil. If both are empty, the default path is searched.
	Logger     *slog.Logger // External logger. If nil, slog.Default() is used.
}

// NewServer creates a new Notion MCP Server with the given options.
// Configuration must include the integration token; a missing token fails
// construction rather than surfacing later per call.
func NewServer(opts ServerOptions) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var cfg *Config
	var err error

	if opts.Config != nil {
		cfg = opts.Config
	} else if opts.ConfigPath != "" {
		logger.Info("Loading configuration for server initialization", "path", opts.ConfigPath)
		cfg, err = config.LoadConfigWithPath(opts.ConfigPath)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		errortypes.LogError(logger, err)
		return nil, err
	}

	metrics := telemetry.NewMetricsCollector()

	client, err := notion.NewClient(notion.Config{
		APIKey:  cfg.Notion.APIKey,
		BaseURL: cfg.Notion.BaseURL,
		Version: cfg.Notion.Version,
		Timeout: cfg.Timeout(),
	}, notion.WithMetrics(metrics), notion.WithLogger(logger))
	if err != nil {
		errortypes.LogError(logger, err)
		return nil, err
	}

	toolServer := server.NewNotionToolServer(client, metrics)
	if err := toolServer.Initialize(); err != nil {
		logger.Error("Failed to initialize MCP tool server", "error", err)
		return nil, errortypes.ConfigError(err, "failed to initialize MCP tool server")
	}

	logger.Info("Notion MCP server successfully initialized")
	return &Server{
		config:     cfg,
		client:     client,
		metrics:    metrics,
		toolServer: toolServer,
		logger:     logger,
	}, nil
}

// DefaultConfig returns the default configuration for the adapter. The
// API key is left empty and must be supplied before use.
func DefaultConfig() *Config {
	return config.NewConfig()
}

// Run serves MCP over stdio until the transport closes.
func (s *Server) Run() error {
	return s.toolServer.Start()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	return s.toolServer.Stop()
}

// CallTool invokes a tool by name with raw JSON arguments, for hosts that
// embed the adapter instead of speaking MCP to it.
func (s *Server) CallTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	return s.toolServer.CallTool(ctx, name, args)
}

// Client returns the underlying Notion API client for direct use.
func (s *Server) Client() *notion.Client {
	return s.client
}

// Metrics returns the server's metrics collector.
func (s *Server) Metrics() *telemetry.MetricsCollector {
	return s.metrics
}
