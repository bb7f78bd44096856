package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/localrivet/notionmcp/internal/config"
	"github.com/localrivet/notionmcp/internal/errortypes"
	"github.com/localrivet/notionmcp/internal/logger"
	"github.com/localrivet/notionmcp/internal/notion"
	"github.com/localrivet/notionmcp/internal/server"
	"github.com/localrivet/notionmcp/internal/telemetry"
)

func main() {
	// Initialize logging first thing
	appLogger := setupLogging()

	appLogger.Info("Notion MCP Server - Starting...")

	// Load configuration: defaults, optional config file, environment.
	cfg, err := config.LoadConfig()
	if err != nil {
		errortypes.LogError(nil, err)
		appLogger.Fatal("Failed to load configuration")
	}

	// Configure logging based on config
	if cfg.Logging.Level != "" {
		appLogger.SetLevel(logger.ParseLevel(cfg.Logging.Level))
		appLogger.Info("Log level set to %s", cfg.Logging.Level)
	}
	if cfg.Logging.Format == "json" {
		appLogger.SetFormat(logger.JSON)
		appLogger.Info("Log format set to JSON")
	}
	setupSlog(cfg)

	// A missing token is a startup failure, never a per-call error.
	if err := cfg.Validate(); err != nil {
		errortypes.LogError(nil, err)
		appLogger.Fatal("Configuration invalid: set NOTION_API_KEY to the integration token")
	}

	// Initialize the Notion client
	metrics := telemetry.NewMetricsCollector()
	client, err := notion.NewClient(notion.Config{
		APIKey:  cfg.Notion.APIKey,
		BaseURL: cfg.Notion.BaseURL,
		Version: cfg.Notion.Version,
		Timeout: cfg.Timeout(),
	}, notion.WithMetrics(metrics))
	if err != nil {
		errortypes.LogError(nil, err)
		appLogger.Fatal("Failed to initialize Notion client")
	}
	clientLogger := appLogger.WithContext("notion")
	clientLogger.Info("Notion client initialized")

	// Initialize the MCP server
	srv := server.NewNotionToolServer(client, metrics)
	srvLogger := appLogger.WithContext("server")

	if err := srv.Initialize(); err != nil {
		errortypes.LogError(nil, err)
		appLogger.Fatal("Failed to initialize MCP server")
	}
	srvLogger.Info("MCP server initialized")

	// Handle graceful shutdown
	setupSignalHandler(srv, appLogger)

	// Start the MCP server (this blocks until the transport closes).
	srvLogger.Info("Starting MCP server...")
	if err := srv.Start(); err != nil {
		errortypes.LogError(nil, err)
		appLogger.Fatal("MCP server failed")
	}
}

// setupLogging configures and returns the application logger
func setupLogging() *logger.Logger {
	cfg := logger.DefaultConfig()

	if levelStr := os.Getenv("LOG_LEVEL"); levelStr != "" {
		cfg.Level = logger.ParseLevel(levelStr)
	}

	appLogger := logger.New(cfg)
	logger.SetDefaultLogger(appLogger)

	return appLogger
}

// setupSlog points the library packages' slog default at stderr with the
// configured level and format.
func setupSlog(cfg *config.Config) {
	var level slog.Level
	switch logger.ParseLevel(cfg.Logging.Level) {
	case logger.DEBUG:
		level = slog.LevelDebug
	case logger.WARN:
		level = slog.LevelWarn
	case logger.ERROR, logger.FATAL:
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// setupSignalHandler sets up a signal handler for graceful shutdown.
func setupSignalHandler(srv server.WorkspaceToolServer, log *logger.Logger) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Info("Received shutdown signal, terminating gracefully...")

		if err := srv.Stop(); err != nil {
			errortypes.LogError(nil, err)
		}

		log.Info("Shutdown complete")
		os.Exit(0)
	}()
}
