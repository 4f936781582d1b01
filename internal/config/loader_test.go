package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfigYAML = `
planner:
  time_budget: 5s
  max_restarts: 16
  workers: 2
  seed: 42
rewards:
  link_ap: 313
  field_ap: 1250
  depth_bonus: 50
  tiered_links: true
partition:
  ap_weight: 0.2
server:
  host: "127.0.0.1"
  port: 8181
redis:
  enabled: true
  addr: "redis:6379"
  ttl: 1h
history:
  enabled: true
  path: "/tmp/fieldplan.db"
export:
  dir: "out"
  compress: true
log:
  level: debug
  format: console
metrics:
  enabled: true
`

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_FromFile_ValidConfig(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	cfg, err := Load(WithConfigPath(path))
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.Planner.TimeBudget)
	assert.Equal(t, 16, cfg.Planner.MaxRestarts)
	assert.Equal(t, int64(42), cfg.Planner.Seed)
	assert.Equal(t, DefaultTopK, cfg.Planner.TopK)
	assert.Equal(t, 50, cfg.Rewards.DepthBonus)
	assert.True(t, cfg.Rewards.TieredLinks)
	assert.Equal(t, 0.2, cfg.Partition.APWeight)
	assert.Equal(t, "127.0.0.1:8181", cfg.Server.Address())
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, time.Hour, cfg.Redis.TTL)
	assert.True(t, cfg.Export.Compress)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoad_FromFile_FileNotFound(t *testing.T) {
	_, err := Load(WithConfigPath(filepath.Join(t.TempDir(), "missing.yaml")))
	assert.ErrorIs(t, err, ErrConfigFileNotFound)
}

func TestLoad_FromFile_InvalidYAML(t *testing.T) {
	path := createTempConfigFile(t, "planner: [")
	_, err := Load(WithConfigPath(path))
	assert.ErrorIs(t, err, ErrConfigParseError)
}

func TestLoad_FromFile_ValidationFailure(t *testing.T) {
	path := createTempConfigFile(t, "server:\n  port: 70000\n")
	_, err := Load(WithConfigPath(path))
	assert.ErrorIs(t, err, ErrConfigInvalid)
	assert.Contains(t, err.Error(), "server.port")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("FIELDPLAN_SERVER_PORT", "9191")
	t.Setenv("FIELDPLAN_PLANNER_MAX_RESTARTS", "3")
	t.Setenv("FIELDPLAN_REWARDS_TIERED_LINKS", "true")

	path := createTempConfigFile(t, validConfigYAML)
	cfg, err := Load(WithConfigPath(path))
	require.NoError(t, err)
	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Planner.MaxRestarts)
	assert.True(t, cfg.Rewards.TieredLinks)
}

func TestLoad_EnvOnly(t *testing.T) {
	t.Setenv("FIELDPLAN_LOG_LEVEL", "warn")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
}

func TestMustLoad_Panics(t *testing.T) {
	assert.Panics(t, func() { MustLoad(WithConfigPath("does-not-exist.yaml")) })
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	changed := make(chan *Config, 4)
	require.NoError(t, Watch(path, func(c *Config) { changed <- c }, nil))

	updated := strings.Replace(validConfigYAML, "max_restarts: 16", "max_restarts: 24", 1)
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))

	select {
	case cfg := <-changed:
		assert.Equal(t, 24, cfg.Planner.MaxRestarts)
	case <-time.After(5 * time.Second):
		t.Fatal("config change not observed")
	}
}

func TestWatch_MissingFile(t *testing.T) {
	err := Watch(filepath.Join(t.TempDir(), "missing.yaml"), func(*Config) {}, nil)
	assert.ErrorIs(t, err, ErrConfigParseError)
}

func TestLoadProfile(t *testing.T) {
	path := createTempConfigFile(t, `
name: wide-area
planner:
  time_budget: 30s
  max_restarts: 256
rewards:
  link_ap: 313
  field_ap: 1250
  tiered_links: true
`)
	p, err := LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, "wide-area", p.Name)
	require.NotNil(t, p.Planner)
	assert.Equal(t, 30*time.Second, p.Planner.TimeBudget)

	cfg := Default()
	require.NoError(t, p.Apply(cfg))
	assert.Equal(t, 256, cfg.Planner.MaxRestarts)
	assert.Equal(t, DefaultTopK, cfg.Planner.TopK)
	assert.True(t, cfg.Rewards.TieredLinks)

	_, err = LoadProfile(filepath.Join(t.TempDir(), "none.yaml"))
	assert.ErrorIs(t, err, ErrConfigFileNotFound)
}

func TestProfile_ApplyRejectsInvalid(t *testing.T) {
	p := &Profile{Name: "bad", Planner: &PlannerConfig{TopK: -1}}
	err := p.Apply(Default())
	assert.ErrorIs(t, err, ErrConfigInvalid)
}

//Personal.AI order the ending
