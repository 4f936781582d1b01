package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/turtacn/fieldplan/pkg/types/plan"
)

// envPrefix is the environment variable prefix used by all settings.
const envPrefix = "FIELDPLAN"

// Sentinel errors returned by Load.
var (
	ErrConfigFileNotFound = errors.New("config: file not found")
	ErrConfigParseError   = errors.New("config: parse error")
	ErrConfigInvalid      = errors.New("config: validation failed")
)

// LoadOption customises Load.
type LoadOption func(*loadOptions)

type loadOptions struct {
	path string
}

// WithConfigPath reads the YAML file at path before environment overrides.
func WithConfigPath(path string) LoadOption {
	return func(o *loadOptions) { o.path = path }
}

// newViper builds a pre-configured Viper instance: YAML file type, FIELDPLAN_
// env prefix, automatic env binding, and a key replacer that maps "." → "_"
// so that "redis.addr" resolves to "FIELDPLAN_REDIS_ADDR".
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	bindEnvKeys(v)
	return v
}

// bindEnvKeys registers every known key so AutomaticEnv can override keys
// that are absent from the file.
func bindEnvKeys(v *viper.Viper) {
	for _, k := range []string{
		"planner.time_budget", "planner.max_restarts", "planner.workers", "planner.top_k",
		"planner.seed", "planner.capacity",
		"rewards.link_ap", "rewards.field_ap", "rewards.depth_bonus", "rewards.tiered_links",
		"partition.ap_weight", "partition.balance_rounds",
		"log.level", "log.format",
		"server.host", "server.port", "server.read_timeout", "server.write_timeout",
		"server.max_body_size", "server.shutdown_timeout", "server.max_in_flight",
		"redis.enabled", "redis.addr", "redis.password", "redis.db", "redis.ttl", "redis.key_prefix",
		"history.enabled", "history.path",
		"export.dir", "export.compress",
		"export.minio.enabled", "export.minio.endpoint", "export.minio.access_key",
		"export.minio.secret_key", "export.minio.bucket", "export.minio.use_ssl",
		"metrics.enabled", "metrics.namespace",
	} {
		_ = v.BindEnv(k)
	}
}

// Load builds a Config from an optional YAML file plus FIELDPLAN_* environment
// overrides, applies defaults for unset fields, and validates the result.
func Load(opts ...LoadOption) (*Config, error) {
	o := &loadOptions{}
	for _, opt := range opts {
		opt(o)
	}

	v := newViper()
	if o.path != "" {
		if _, err := os.Stat(o.path); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrConfigFileNotFound, o.path)
		}
		v.SetConfigFile(o.path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrConfigParseError, o.path, err)
		}
	}
	return unmarshalAndFinalize(v)
}

// unmarshalAndFinalize unmarshals viper state into a Config struct, applies
// defaults, and validates the result.
func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParseError, err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigInvalid, err)
	}
	return cfg, nil
}

// Watch monitors configPath and invokes onChange with the newly parsed Config
// whenever the file changes on disk. Changes that fail to parse or validate
// are passed to onError, if set, and otherwise ignored. Watch is non-blocking.
func Watch(configPath string, onChange func(*Config), onError func(error)) error {
	v := newViper()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrConfigParseError, configPath, err)
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}

// MustLoad wraps Load and panics on any error. It is intended for main().
func MustLoad(opts ...LoadOption) *Config {
	cfg, err := Load(opts...)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}

// ─────────────────────────────────────────────────────────────────────────────
// Tuning profiles
// ─────────────────────────────────────────────────────────────────────────────

// Profile is a named set of planner and reward overrides kept in its own YAML
// file, e.g. "wide-area" with a larger time budget and tiered link rewards.
type Profile struct {
	Name    string         `yaml:"name"`
	Planner *PlannerConfig `yaml:"planner,omitempty"`
	Rewards *plan.Rewards  `yaml:"rewards,omitempty"`
}

// LoadProfile reads a tuning profile from path.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrConfigFileNotFound, path)
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigParseError, path, err)
	}
	return &p, nil
}

// Apply overlays the profile's non-zero settings onto cfg and revalidates.
func (p *Profile) Apply(cfg *Config) error {
	if p.Planner != nil {
		o := p.Planner
		if o.TimeBudget != 0 {
			cfg.Planner.TimeBudget = o.TimeBudget
		}
		if o.MaxRestarts != 0 {
			cfg.Planner.MaxRestarts = o.MaxRestarts
		}
		if o.Workers != 0 {
			cfg.Planner.Workers = o.Workers
		}
		if o.TopK != 0 {
			cfg.Planner.TopK = o.TopK
		}
		if o.Seed != 0 {
			cfg.Planner.Seed = o.Seed
		}
		if o.Capacity != 0 {
			cfg.Planner.Capacity = o.Capacity
		}
	}
	if p.Rewards != nil {
		cfg.Rewards = *p.Rewards
	}
	ApplyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: profile %q: %v", ErrConfigInvalid, p.Name, err)
	}
	return nil
}

//Personal.AI order the ending
