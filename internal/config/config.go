// Package config defines all configuration structures for fieldplan. No I/O
// or parsing logic lives here, only plain data types and validation.
package config

import (
	"fmt"
	"time"

	"github.com/turtacn/fieldplan/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/fieldplan/pkg/types/plan"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// PlannerConfig holds the field search tunables.
type PlannerConfig struct {
	TimeBudget  time.Duration `mapstructure:"time_budget" yaml:"time_budget"`
	MaxRestarts int           `mapstructure:"max_restarts" yaml:"max_restarts"`
	Workers     int           `mapstructure:"workers" yaml:"workers"` // 0 = GOMAXPROCS
	TopK        int           `mapstructure:"top_k" yaml:"top_k"`
	Seed        int64         `mapstructure:"seed" yaml:"seed"`
	Capacity    int           `mapstructure:"capacity" yaml:"capacity"`
}

// PartitionConfig holds multi-agent split parameters.
type PartitionConfig struct {
	APWeight      float64 `mapstructure:"ap_weight"`
	BalanceRounds int     `mapstructure:"balance_rounds"`
}

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// MaxInFlight caps concurrent plan computations; further requests get 429.
	MaxInFlight int `mapstructure:"max_in_flight"`
}

// Address returns host:port.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RedisConfig holds plan cache connection parameters.
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Addrs        []string      `mapstructure:"addrs"` // cluster mode when set
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	TTL          time.Duration `mapstructure:"ttl"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// HistoryConfig holds the local run history database settings.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// MinIOConfig holds S3-compatible object storage parameters.
type MinIOConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// ExportConfig controls where plan files are written.
type ExportConfig struct {
	Dir      string      `mapstructure:"dir"`
	Compress bool        `mapstructure:"compress"`
	MinIO    MinIOConfig `mapstructure:"minio"`
}

// MetricsConfig controls the Prometheus collector.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure. Every component reads its
// settings from the relevant sub-struct.
type Config struct {
	Planner   PlannerConfig     `mapstructure:"planner"`
	Rewards   plan.Rewards      `mapstructure:"rewards"`
	Partition PartitionConfig   `mapstructure:"partition"`
	Log       logging.LogConfig `mapstructure:"log"`
	Server    ServerConfig      `mapstructure:"server"`
	Redis     RedisConfig       `mapstructure:"redis"`
	History   HistoryConfig     `mapstructure:"history"`
	Export    ExportConfig      `mapstructure:"export"`
	Metrics   MetricsConfig     `mapstructure:"metrics"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered.
func (c *Config) Validate() error {
	// Planner
	if c.Planner.TimeBudget < 0 {
		return fmt.Errorf("config: planner.time_budget must be ≥ 0, got %s", c.Planner.TimeBudget)
	}
	if c.Planner.MaxRestarts < 1 {
		return fmt.Errorf("config: planner.max_restarts must be ≥ 1, got %d", c.Planner.MaxRestarts)
	}
	if c.Planner.Workers < 0 {
		return fmt.Errorf("config: planner.workers must be ≥ 0, got %d", c.Planner.Workers)
	}
	if c.Planner.TopK < 1 {
		return fmt.Errorf("config: planner.top_k must be ≥ 1, got %d", c.Planner.TopK)
	}
	if c.Planner.Capacity < 0 {
		return fmt.Errorf("config: planner.capacity must be ≥ 0, got %d", c.Planner.Capacity)
	}

	// Rewards
	if c.Rewards.LinkAP < 0 || c.Rewards.FieldAP < 0 || c.Rewards.DepthBonus < 0 {
		return fmt.Errorf("config: rewards must be non-negative, got link_ap=%d field_ap=%d depth_bonus=%d",
			c.Rewards.LinkAP, c.Rewards.FieldAP, c.Rewards.DepthBonus)
	}

	// Partition
	if c.Partition.APWeight < 0 {
		return fmt.Errorf("config: partition.ap_weight must be ≥ 0, got %g", c.Partition.APWeight)
	}

	// Server
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}

	if c.Server.MaxInFlight < 0 {
		return fmt.Errorf("config: server.max_in_flight must be ≥ 0, got %d", c.Server.MaxInFlight)
	}

	// Redis
	if c.Redis.Enabled && c.Redis.Addr == "" && len(c.Redis.Addrs) == 0 {
		return fmt.Errorf("config: redis.addr is required when redis is enabled")
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("config: redis.db must be ≥ 0, got %d", c.Redis.DB)
	}

	// History
	if c.History.Enabled && c.History.Path == "" {
		return fmt.Errorf("config: history.path is required when history is enabled")
	}

	// Export
	if c.Export.MinIO.Enabled {
		if c.Export.MinIO.Endpoint == "" {
			return fmt.Errorf("config: export.minio.endpoint is required when minio is enabled")
		}
		if c.Export.MinIO.Bucket == "" {
			return fmt.Errorf("config: export.minio.bucket is required when minio is enabled")
		}
	}

	// Log
	switch c.Log.Level {
	case logging.LevelDebug, logging.LevelInfo, logging.LevelWarn, logging.LevelError:
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}

//Personal.AI order the ending
