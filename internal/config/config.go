package config

import (
	"fmt"
	"time"

	config_pkg "github.com/kumarabd/gokit/config"
	"github.com/kumarabd/log-archiver/internal/metrics"
	"github.com/kumarabd/log-archiver/pkg/cache"
	"github.com/kumarabd/log-archiver/pkg/export"
	"github.com/kumarabd/log-archiver/pkg/page"
	"github.com/kumarabd/log-archiver/pkg/query"
	"github.com/kumarabd/log-archiver/pkg/scheduler"
	"github.com/kumarabd/log-archiver/pkg/server"
	"github.com/kumarabd/log-archiver/pkg/storage"
)

var (
	ApplicationName    = "log-archiver"
	ApplicationVersion = "dev"
)

type Config struct {
	Server    *server.Config    `json:"server,omitempty" yaml:"server,omitempty"`
	Query     *query.Config     `json:"query" yaml:"query"`
	Storage   *storage.Config   `json:"storage" yaml:"storage"`
	Export    *export.Config    `json:"export" yaml:"export"`
	Page      *page.Config      `json:"page" yaml:"page"`
	Cache     *cache.Config     `json:"cache" yaml:"cache"`
	Scheduler *scheduler.Config `json:"scheduler" yaml:"scheduler"`
	Metrics   *metrics.Options  `json:"metrics,omitempty" yaml:"metrics,omitempty"`
}

// Default returns the configuration used when nothing is overridden
func Default() *Config {
	return &Config{
		Server: &server.Config{
			HTTP: &server.HTTPConfig{
				Host:         "0.0.0.0",
				Port:         "8080",
				ReadTimeout:  30 * time.Second,
				WriteTimeout: 5 * time.Minute, // a manual trigger waits for the whole export
				IdleTimeout:  60 * time.Second,
			},
			Admin: &server.AdminConfig{
				Host: "0.0.0.0",
				Port: "9090",
			},
		},
		Query: &query.Config{
			Endpoint: "http://localhost:8123/sql",
			Dataset:  "logs",
			Timeout:  60 * time.Second,
		},
		Storage: &storage.Config{
			Type: storage.TypeGCS,
			Dir:  "./archive",
		},
		Export: &export.Config{
			MaxAgeMonths: 1,
		},
		Page: &page.Config{
			DocumentURL: "https://raw.githubusercontent.com/kumarabd/log-archiver/main/README.md",
			Title:       "Log Archiver",
			Timeout:     10 * time.Second,
		},
		Cache: &cache.Config{
			CleanupInterval: 10 * time.Minute,
		},
		Scheduler: &scheduler.Config{
			Enabled:  false,
			Schedule: "0 1 * * *", // 01:00 UTC, after the previous day has closed
		},
		Metrics: &metrics.Options{},
	}
}

// New creates a new config instance
func New() (*Config, error) {
	configObject := Default()

	// Load config using gokit config package
	finalConfig, err := config_pkg.New(configObject)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Safe type assertion
	if finalConfig == nil {
		return nil, fmt.Errorf("config is nil")
	}

	cfg, ok := finalConfig.(*Config)
	if !ok {
		return nil, fmt.Errorf("config type assertion failed: expected *Config, got %T", finalConfig)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that every section is present
func (c *Config) Validate() error {
	switch {
	case c.Server == nil || c.Server.HTTP == nil:
		return fmt.Errorf("server.http config is required")
	case c.Query == nil:
		return fmt.Errorf("query config is required")
	case c.Storage == nil:
		return fmt.Errorf("storage config is required")
	case c.Export == nil:
		return fmt.Errorf("export config is required")
	case c.Page == nil:
		return fmt.Errorf("page config is required")
	case c.Cache == nil:
		return fmt.Errorf("cache config is required")
	case c.Scheduler == nil:
		return fmt.Errorf("scheduler config is required")
	}
	return nil
}
