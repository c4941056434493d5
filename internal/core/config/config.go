package config

import (
	"time"

	"github.com/ecash-community/metachronik/internal/chronik"
	redisclient "github.com/ecash-community/metachronik/internal/infra/redis"
	"github.com/ecash-community/metachronik/internal/infra/storage/postgres"
	"github.com/ecash-community/metachronik/internal/pricefeed"
	"github.com/ecash-community/metachronik/internal/reconcile"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server    ServerConfig       `yaml:"server"`
	Chronik   chronik.Config     `yaml:"chronik"`
	Database  postgres.Config    `yaml:"database"`
	Redis     redisclient.Config `yaml:"redis"`
	Pricefeed pricefeed.Config   `yaml:"pricefeed"`
	Reconcile reconcile.Config   `yaml:"reconcile"`
	Indexing  IndexingConfig     `yaml:"indexing"`
	Logging   LoggingConfig      `yaml:"logging"`
}

// ServerConfig holds health/metrics HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// IndexingConfig holds pipeline cadence settings.
type IndexingConfig struct {
	// RetryInterval is how often the failed-height queue is drained.
	RetryInterval time.Duration `yaml:"retry_interval"`

	// ReconcileInterval is the cadence of periodic safety-net
	// reconciliations on top of gap-triggered ones. 0 disables them.
	ReconcileInterval time.Duration `yaml:"reconcile_interval"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}
