// Package config provides configuration loading, defaults, and validation for
// fieldplan.
package config

import (
	"time"

	"github.com/turtacn/fieldplan/internal/planning/maximizer"
	"github.com/turtacn/fieldplan/internal/planning/partition"
	"github.com/turtacn/fieldplan/pkg/types/plan"
)

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultTimeBudget  = 10 * time.Second
	DefaultMaxRestarts = maximizer.DefaultMaxRestarts
	DefaultTopK        = maximizer.DefaultTopK
	DefaultCapacity    = maximizer.DefaultCapacity

	DefaultServerHost      = "0.0.0.0"
	DefaultServerPort      = 8080
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultShutdownTimeout = 15 * time.Second
	DefaultMaxBodySize     = 4 << 20
	DefaultMaxInFlight     = 4

	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisTTL       = 24 * time.Hour
	DefaultRedisKeyPrefix = "fieldplan:"
	DefaultRedisPoolSize  = 10

	DefaultHistoryPath = "fieldplan.db"
	DefaultExportDir   = "plans"
	DefaultBucket      = "fieldplan"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMetricsNamespace = "fieldplan"
)

// ─────────────────────────────────────────────────────────────────────────────
// ApplyDefaults fills zero-value fields in cfg with well-known defaults.
// It must be called after unmarshalling raw config data and before Validate()
// so that optional-but-defaulted fields are never seen as missing.
// ─────────────────────────────────────────────────────────────────────────────

// ApplyDefaults fills every zero-value field in cfg with its default.
// Explicitly set fields are left unchanged.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Planner ───────────────────────────────────────────────────────────────
	if cfg.Planner.TimeBudget == 0 {
		cfg.Planner.TimeBudget = DefaultTimeBudget
	}
	if cfg.Planner.MaxRestarts == 0 {
		cfg.Planner.MaxRestarts = DefaultMaxRestarts
	}
	if cfg.Planner.TopK == 0 {
		cfg.Planner.TopK = DefaultTopK
	}
	if cfg.Planner.Capacity == 0 {
		cfg.Planner.Capacity = DefaultCapacity
	}

	// ── Rewards ───────────────────────────────────────────────────────────────
	if cfg.Rewards.LinkAP == 0 {
		cfg.Rewards.LinkAP = plan.DefaultLinkAP
	}
	if cfg.Rewards.FieldAP == 0 {
		cfg.Rewards.FieldAP = plan.DefaultFieldAP
	}

	// ── Partition ─────────────────────────────────────────────────────────────
	if cfg.Partition.APWeight == 0 {
		cfg.Partition.APWeight = partition.DefaultAPWeight
	}
	if cfg.Partition.BalanceRounds == 0 {
		cfg.Partition.BalanceRounds = partition.DefaultBalanceRounds
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Host == "" {
		cfg.Server.Host = DefaultServerHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = DefaultMaxBodySize
	}
	if cfg.Server.MaxInFlight == 0 {
		cfg.Server.MaxInFlight = DefaultMaxInFlight
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.Addr == "" && len(cfg.Redis.Addrs) == 0 {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.TTL == 0 {
		cfg.Redis.TTL = DefaultRedisTTL
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = DefaultRedisPoolSize
	}
	// DB is an int; 0 is a valid explicit value and also the default.

	// ── History ───────────────────────────────────────────────────────────────
	if cfg.History.Path == "" {
		cfg.History.Path = DefaultHistoryPath
	}

	// ── Export ────────────────────────────────────────────────────────────────
	if cfg.Export.Dir == "" {
		cfg.Export.Dir = DefaultExportDir
	}
	if cfg.Export.MinIO.Bucket == "" {
		cfg.Export.MinIO.Bucket = DefaultBucket
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
}

// Default returns a Config with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

//Personal.AI order the ending
