package app

import (
	"errors"
	"fmt"
	"strings"
)

// Config holds everything an App instance needs to run.
type Config struct {
	// StorePath is the SQLite file backing the registry. Empty means an
	// in-memory store that forgets everything on exit.
	StorePath string
	// CatalogDir is the directory of shipped .hcl widget catalogs. Empty
	// means no shipped widgets.
	CatalogDir string
	// WatchCatalog reloads the catalog directory on file changes.
	WatchCatalog bool

	// ListenAddr is the console's HTTP listen address.
	ListenAddr string

	LogFormat string
	LogLevel  string

	// Bypass ids always render their native component.
	Bypass []string
	// ForceTemplate ids ignore saved custom code.
	ForceTemplate []string
	// ShowRawErrors puts raw error text into fallback panels.
	ShowRawErrors bool

	// QuietFunctions are scope keys excluded from editor call logging, on
	// top of the always-quiet render-tree constructors.
	QuietFunctions []string
}

// NewConfig validates a config. Log level and format are normalized to
// lowercase and checked here, so the logger never sees an invalid string.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ListenAddr == "" {
		return nil, errors.New("ListenAddr is a required configuration field and cannot be empty")
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log level %q: must be 'debug', 'info', 'warn' or 'error'", cfg.LogLevel)
	}

	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("invalid log format %q: must be 'text' or 'json'", cfg.LogFormat)
	}
	return &cfg, nil
}
