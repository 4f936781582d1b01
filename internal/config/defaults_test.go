package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/turtacn/fieldplan/pkg/types/plan"
)

func TestApplyDefaults_EmptyConfig(t *testing.T) {
	t.Parallel()
	cfg := &Config{}
	ApplyDefaults(cfg)

	assert.Equal(t, DefaultTimeBudget, cfg.Planner.TimeBudget)
	assert.Equal(t, DefaultMaxRestarts, cfg.Planner.MaxRestarts)
	assert.Equal(t, DefaultCapacity, cfg.Planner.Capacity)
	assert.Equal(t, plan.DefaultRewards(), cfg.Rewards)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, DefaultRedisKeyPrefix, cfg.Redis.KeyPrefix)
	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
	assert.Equal(t, DefaultMetricsNamespace, cfg.Metrics.Namespace)
	assert.NoError(t, cfg.Validate())
}

func TestApplyDefaults_PreserveExistingValues(t *testing.T) {
	t.Parallel()
	cfg := &Config{}
	cfg.Server.Port = 9999
	cfg.Planner.MaxRestarts = 5
	cfg.Rewards.DepthBonus = 100
	ApplyDefaults(cfg)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Planner.MaxRestarts)
	assert.Equal(t, 100, cfg.Rewards.DepthBonus)
	assert.Equal(t, plan.DefaultLinkAP, cfg.Rewards.LinkAP)
}

func TestApplyDefaults_Nil(t *testing.T) {
	t.Parallel()
	assert.NotPanics(t, func() { ApplyDefaults(nil) })
}

//Personal.AI order the ending
