package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/fieldplan/internal/application/planning"
	"github.com/turtacn/fieldplan/internal/config"
	"github.com/turtacn/fieldplan/internal/testutil"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Planner.TimeBudget = 2 * time.Second
	cfg.Planner.MaxRestarts = 4
	cfg.Redis.Enabled = false
	cfg.Export.MinIO.Enabled = false
	cfg.History.Enabled = true
	cfg.History.Path = filepath.Join(t.TempDir(), "history.db")
	cfg.Metrics.Enabled = true
	cfg.Metrics.Namespace = "app_test"
	return cfg
}

func TestBuild_WithHistoryAndMetrics(t *testing.T) {
	t.Parallel()
	c, err := Build(context.Background(), testConfig(t), nil)
	require.NoError(t, err)
	defer c.Close()

	require.Len(t, c.HealthCheckers(), 1)
	assert.Equal(t, "history", c.HealthCheckers()[0].Name())
	assert.NoError(t, c.Service.Ping(context.Background()))

	resp, err := c.Service.Plan(context.Background(), &planning.PlanRequest{Portals: testutil.Triangle()})
	require.NoError(t, err)
	assert.Len(t, resp.Plan.Fields, 1)

	recs, err := c.Service.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, resp.Plan.ID, recs[0].ID)
}

func TestBuild_NothingEnabled(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	cfg.History.Enabled = false
	cfg.Metrics.Enabled = false

	c, err := Build(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer c.Close()

	assert.Empty(t, c.HealthCheckers())
	w := httptest.NewRecorder()
	c.Handler("test").ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestComponents_HandlerServesPlans(t *testing.T) {
	t.Parallel()
	c, err := Build(context.Background(), testConfig(t), nil)
	require.NoError(t, err)
	defer c.Close()
	h := c.Handler("test")

	body := testutil.PortalText(testutil.Ring(6, 0.01))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/plans?format=txt&seed=3", strings.NewReader(body))
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Input-Hash"))

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(), `app_test_plans_total{status="ok"} 1`)
}

func TestComponents_CloseTwice(t *testing.T) {
	t.Parallel()
	c, err := Build(context.Background(), testConfig(t), nil)
	require.NoError(t, err)
	c.Close()
	assert.NotPanics(t, c.Close)
}

//Personal.AI order the ending
