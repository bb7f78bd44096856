package config

import (
	"testing"
	"time"

	"github.com/localrivet/notionmcp/internal/errortypes"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()

	if cfg.Notion.Version != DefaultVersion {
		t.Errorf("Expected default version %q, got %q", DefaultVersion, cfg.Notion.Version)
	}
	if cfg.Notion.TimeoutSeconds != DefaultTimeoutSeconds {
		t.Errorf("Expected default timeout %d, got %d", DefaultTimeoutSeconds, cfg.Notion.TimeoutSeconds)
	}
	if cfg.Notion.APIKey != "" {
		t.Errorf("Expected empty API key by default, got %q", cfg.Notion.APIKey)
	}
	if cfg.Logging.Level != DefaultLogLevel {
		t.Errorf("Expected default log level %q, got %q", DefaultLogLevel, cfg.Logging.Level)
	}
	if cfg.Logging.Format != DefaultLogFormat {
		t.Errorf("Expected default log format %q, got %q", DefaultLogFormat, cfg.Logging.Format)
	}
}

func TestValidateRequiresAPIKey(t *testing.T) {
	cfg := NewConfig()

	err := cfg.Validate()
	if !errortypes.IsConfigError(err) {
		t.Fatalf("Expected config error for missing API key, got %v", err)
	}

	cfg.Notion.APIKey = "secret-token"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected valid config, got %v", err)
	}
}

func TestValidateRejectsNonPositiveTimeout(t *testing.T) {
	cfg := NewConfig()
	cfg.Notion.APIKey = "secret-token"
	cfg.Notion.TimeoutSeconds = 0

	if err := cfg.Validate(); !errortypes.IsConfigError(err) {
		t.Errorf("Expected config error for zero timeout, got %v", err)
	}
}

func TestTimeoutConversion(t *testing.T) {
	cfg := NewConfig()
	cfg.Notion.TimeoutSeconds = 45

	if got := cfg.Timeout(); got != 45*time.Second {
		t.Errorf("Expected 45s timeout, got %s", got)
	}
}

func TestLoadConfigWithoutTokenDefersToValidate(t *testing.T) {
	t.Setenv("NOTION_API_KEY", "")
	t.Setenv("NOTIONMCP_NOTION_API_KEY", "")

	// Loading must not fail on a missing token; Validate is the startup
	// gate so the process can report the problem itself.
	cfg, err := LoadConfigWithPath("does-not-exist.json")
	if err != nil {
		t.Fatalf("LoadConfigWithPath failed without a token: %v", err)
	}
	if err := cfg.Validate(); !errortypes.IsConfigError(err) {
		t.Errorf("Expected config error from Validate, got %v", err)
	}
}

func TestLoadConfigPicksUpEnvironmentToken(t *testing.T) {
	t.Setenv("NOTION_API_KEY", "env-token")

	cfg, err := LoadConfigWithPath("does-not-exist.json")
	if err != nil {
		t.Fatalf("LoadConfigWithPath failed: %v", err)
	}
	if cfg.Notion.APIKey != "env-token" {
		t.Errorf("Expected token from environment, got %q", cfg.Notion.APIKey)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected loaded config to validate, got %v", err)
	}
}
