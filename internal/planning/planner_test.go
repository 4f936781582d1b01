package planning

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/fieldplan/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/fieldplan/pkg/errors"
	"github.com/turtacn/fieldplan/pkg/types/plan"
)

func randomPortals(seed int64, n int) []plan.Portal {
	rng := rand.New(rand.NewSource(seed))
	out := make([]plan.Portal, n)
	for i := range out {
		out[i] = plan.Portal{Lat: 51.5 + rng.Float64()*0.01, Lon: -0.12 + rng.Float64()*0.015}
	}
	return out
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.TimeBudget = 0
	opts.MaxRestarts = 8
	opts.Workers = 2
	return opts
}

func newTestPlanner() *Planner {
	return NewPlanner(logging.NewNopLogger())
}

func TestPlanner_Triangle(t *testing.T) {
	t.Parallel()

	portals := []plan.Portal{
		{Name: "Clock Tower", Lat: 51.5007, Lon: -0.1246},
		{Name: "Abbey", Lat: 51.4994, Lon: -0.1273},
		{Name: "Bridge", Lat: 51.5009, Lon: -0.1220},
	}
	p, err := newTestPlanner().Plan(context.Background(), portals, testOptions())
	require.NoError(t, err)

	assert.Len(t, p.Links, 3)
	assert.Len(t, p.Fields, 1)
	assert.Equal(t, 3*plan.DefaultLinkAP+plan.DefaultFieldAP, p.TotalAP)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Clock Tower", p.Portals[0].Name)
	require.NoError(t, Validate(p))
}

func TestPlanner_CollinearPortals(t *testing.T) {
	t.Parallel()

	portals := []plan.Portal{
		{Lat: 0, Lon: 0.003}, {Lat: 0, Lon: 0}, {Lat: 0, Lon: 0.002}, {Lat: 0, Lon: 0.001},
	}
	p, err := newTestPlanner().Plan(context.Background(), portals, testOptions())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDegenerateGeometry))
	require.NotNil(t, p)

	assert.Empty(t, p.Fields)
	assert.Len(t, p.Links, 3)
	assert.Equal(t, 3*plan.DefaultLinkAP, p.TotalAP)
	require.NoError(t, Validate(p))
	require.NotEmpty(t, p.Warnings)
	assert.Equal(t, string(errors.ErrCodeDegenerateGeometry), p.Warnings[len(p.Warnings)-1].Code)
}

func TestPlanner_CrowdedTriangleRespectsCapacity(t *testing.T) {
	t.Parallel()

	// Outer triangle with nine portals packed inside it.
	portals := []plan.Portal{
		{Lat: 51.500, Lon: -0.130},
		{Lat: 51.500, Lon: -0.110},
		{Lat: 51.515, Lon: -0.120},
	}
	rng := rand.New(rand.NewSource(42))
	for len(portals) < 12 {
		u, v := rng.Float64(), rng.Float64()
		if u+v >= 0.9 || u < 0.05 || v < 0.05 {
			continue
		}
		portals = append(portals, plan.Portal{
			Lat: 51.500 + v*0.015,
			Lon: -0.130 + u*0.020 + v*0.010,
		})
	}

	p, err := newTestPlanner().Plan(context.Background(), portals, testOptions())
	require.NoError(t, err)
	require.NoError(t, Validate(p))

	// Fully nested: 3n-2h-2 fields with a triangular hull.
	assert.Len(t, p.Fields, 3*12-2*3-2)
	assert.Equal(t, len(p.Links)*plan.DefaultLinkAP+len(p.Fields)*plan.DefaultFieldAP, p.TotalAP)
}

func TestPlanner_SeedIsReproducible(t *testing.T) {
	t.Parallel()

	portals := randomPortals(7, 40)
	opts := testOptions()
	opts.Seed = 99

	a, err := newTestPlanner().Plan(context.Background(), portals, opts)
	require.NoError(t, err)
	b, err := newTestPlanner().Plan(context.Background(), portals, opts)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, len(a.Fields), len(b.Fields))
	assert.Equal(t, a.TotalAP, b.TotalAP)
	assert.Equal(t, a.Links, b.Links)
	assert.Equal(t, a.Stats.BestRestart, b.Stats.BestRestart)
}

func TestPlanner_InsufficientPoints(t *testing.T) {
	t.Parallel()

	portals := []plan.Portal{{Lat: 1, Lon: 1}, {Lat: 1, Lon: 1}, {Lat: 2, Lon: 2}}
	p, err := newTestPlanner().Plan(context.Background(), portals, testOptions())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInsufficientPoints))
	require.NotNil(t, p)
	assert.Len(t, p.Portals, 2)
	assert.Empty(t, p.Links)
	require.Len(t, p.Warnings, 1)
	assert.Equal(t, string(errors.ErrCodeDuplicateCoordinate), p.Warnings[0].Code)
}

func TestPlanner_InvalidCoordinates(t *testing.T) {
	t.Parallel()

	portals := []plan.Portal{{Lat: 1, Lon: 1}, {Lat: 95, Lon: 1}, {Lat: 2, Lon: 2}}
	p, err := newTestPlanner().Plan(context.Background(), portals, testOptions())
	assert.Nil(t, p)
	assert.True(t, errors.IsCode(err, errors.ErrCodeCoordinateRange))
}

func TestPlanner_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p, err := newTestPlanner().Plan(ctx, randomPortals(3, 20), testOptions())
	assert.Nil(t, p)
	assert.True(t, errors.IsCode(err, errors.ErrCodeTimeout))
}

func TestPlanner_StartPortal(t *testing.T) {
	t.Parallel()

	portals := randomPortals(5, 10)
	portals[6].Name = "Fountain"
	opts := testOptions()
	opts.StartPortal = "fountain"

	p, err := newTestPlanner().Plan(context.Background(), portals, opts)
	require.NoError(t, err)
	require.NotEmpty(t, p.Actions)
	assert.Equal(t, 6, p.Actions[0].Origin)

	opts.StartPortal = "nowhere"
	_, err = newTestPlanner().Plan(context.Background(), portals, opts)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
}

func TestPlanner_PlanAgents(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		n    int
		k    int
	}{
		{name: "two agents", n: 20, k: 2},
		{name: "four agents", n: 45, k: 4},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			p, err := newTestPlanner().PlanAgents(context.Background(), randomPortals(int64(tc.n), tc.n), tc.k, testOptions())
			require.NoError(t, err)
			require.Len(t, p.Agents, tc.k)
			require.NoError(t, Validate(p))

			total := 0
			links := 0
			for _, ag := range p.Agents {
				total += ag.TotalAP
				links += len(ag.Links)
			}
			assert.Equal(t, p.TotalAP, total)
			assert.Equal(t, len(p.Links), links)
			assert.Equal(t, tc.k, p.Summarize().Agents)
		})
	}
}

func TestPlanner_PlanAgentsRejectsZero(t *testing.T) {
	t.Parallel()
	_, err := newTestPlanner().PlanAgents(context.Background(), randomPortals(1, 5), 0, testOptions())
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidAgentCount))
}

func TestPlanner_TieredRewards(t *testing.T) {
	t.Parallel()

	// Roughly 2.2 km sides.
	portals := []plan.Portal{{Lat: 51.50, Lon: -0.12}, {Lat: 51.52, Lon: -0.12}, {Lat: 51.51, Lon: -0.09}}
	opts := testOptions()
	opts.Rewards = plan.Rewards{LinkAP: 313, FieldAP: 1250, TieredLinks: true}

	p, err := newTestPlanner().Plan(context.Background(), portals, opts)
	require.NoError(t, err)
	assert.Equal(t, 3*625+1250, p.TotalAP)
	require.NoError(t, Validate(p))
}

//Personal.AI order the ending
