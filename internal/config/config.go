package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/localrivet/configurator"
	"github.com/localrivet/notionmcp/internal/errortypes"
)

// Config represents the Notion MCP adapter configuration. A populated
// Config is passed explicitly into the client and server, so tests can
// run multiple independently configured instances.
type Config struct {
	// Notion contains remote API configuration.
	Notion struct {
		// APIKey is the integration token. Required; its absence is a
		// fatal startup error, never a per-call error. Validate() is the
		// gate rather than a provider-level required tag, so loading can
		// finish and the plain NOTION_API_KEY fallback below gets a chance
		// to fill the field.
		APIKey string `json:"api_key" env:"NOTION_API_KEY"`

		// BaseURL overrides the API root, mainly for tests.
		BaseURL string `json:"base_url" env:"NOTION_BASE_URL"`

		// Version is the Notion-Version header value.
		Version string `json:"version" env:"NOTION_VERSION"`

		// TimeoutSeconds bounds each API call.
		TimeoutSeconds int `json:"timeout_seconds" env:"NOTION_TIMEOUT_SECONDS" validate:"min:1"`
	} `json:"notion"`

	// Logging contains logging-related configuration.
	Logging struct {
		// Level is the minimum log level ("debug", "info", "warn", "error").
		Level string `json:"level" env:"LOG_LEVEL" validate:"required"`

		// Format is the log format to use ("text", "json").
		Format string `json:"format" env:"LOG_FORMAT"`
	} `json:"logging"`

	configPath string `json:"-"`
}

// Default configuration values
const (
	DefaultConfigFilename = ".notionmcpconfig"
	DefaultVersion        = "2022-06-28"
	DefaultTimeoutSeconds = 30
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
)

// NewConfig creates a new Config instance with default values. The API
// key stays empty; it must come from the environment or a config file.
func NewConfig() *Config {
	config := &Config{}
	config.Notion.Version = DefaultVersion
	config.Notion.TimeoutSeconds = DefaultTimeoutSeconds
	config.Logging.Level = DefaultLogLevel
	config.Logging.Format = DefaultLogFormat
	return config
}

// Timeout returns the per-call timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Notion.TimeoutSeconds) * time.Second
}

// Validate checks that the configuration is complete enough to start.
func (c *Config) Validate() error {
	if c.Notion.APIKey == "" {
		return errortypes.ConfigError(
			errors.New("NOTION_API_KEY is not set"),
			"notion integration token is required",
		)
	}
	if c.Notion.TimeoutSeconds <= 0 {
		return errortypes.ConfigError(
			fmt.Errorf("timeout_seconds must be positive, got %d", c.Notion.TimeoutSeconds),
			"invalid timeout configuration",
		)
	}
	return nil
}

// LoadConfig loads the configuration from the default path
func LoadConfig() (*Config, error) {
	return LoadConfigWithPath(DefaultConfigFilename)
}

// LoadConfigWithPath loads the configuration from a specific path,
// layering defaults, the optional config file, and the environment.
func LoadConfigWithPath(configPath string) (*Config, error) {
	// Logs go to stderr; stdout carries the MCP stdio framing.
	stdLogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg := NewConfig()

	// Try to find config file if path is default
	if configPath == DefaultConfigFilename {
		foundPath, err := configurator.FindConfigFile(configPath)
		if err == nil {
			configPath = foundPath
			stdLogger.Debug("Found config file at " + foundPath)
		}
	}

	providers := []configurator.Provider{configurator.NewDefaultProvider()}
	if _, err := os.Stat(configPath); err == nil {
		stdLogger.Info("Loading configuration", "path", configPath)
		providers = append(providers, configurator.NewFileProvider(configPath))
	} else {
		stdLogger.Info("Config file not found, using environment and defaults", "path", configPath)
	}
	providers = append(providers, configurator.NewEnvProvider("NOTIONMCP"))

	config := configurator.New(stdLogger).
		WithValidator(configurator.NewDefaultValidator())
	for _, p := range providers {
		config = config.WithProvider(p)
	}

	ctx := context.Background()
	if err := config.Load(ctx, cfg); err != nil {
		return nil, errortypes.ConfigError(err, "failed to load configuration")
	}

	// The token also arrives via the plain NOTION_API_KEY variable, the
	// name the Notion integration docs use.
	if cfg.Notion.APIKey == "" {
		cfg.Notion.APIKey = os.Getenv("NOTION_API_KEY")
	}

	cfg.configPath = configPath
	return cfg, nil
}
