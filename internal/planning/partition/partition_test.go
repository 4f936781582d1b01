package partition

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/fieldplan/internal/planning/candidate"
	"github.com/turtacn/fieldplan/internal/planning/geometry"
	"github.com/turtacn/fieldplan/internal/planning/maximizer"
	"github.com/turtacn/fieldplan/internal/planning/scheduler"
	"github.com/turtacn/fieldplan/pkg/errors"
	"github.com/turtacn/fieldplan/pkg/types/plan"
)

type euclid []geometry.Vec

func (e euclid) Distance(i, j int) float64 { return geometry.Dist(e[i], e[j]) }

func randomPoints(seed int64, n int) []geometry.Vec {
	rng := rand.New(rand.NewSource(seed))
	pts := make([]geometry.Vec, n)
	for i := range pts {
		pts[i] = geometry.Vec{X: rng.Float64() * 2000, Y: rng.Float64() * 2000}
	}
	return pts
}

func buildPlan(t *testing.T, pts []geometry.Vec) *plan.Plan {
	t.Helper()
	g, err := candidate.Build(pts)
	require.NoError(t, err)
	res, err := maximizer.Maximize(context.Background(), pts, g, maximizer.Options{MaxRestarts: 1, Workers: 1})
	require.NoError(t, err)
	sched, err := scheduler.Schedule(euclid(pts), res.Best.Links, res.Best.Fields, scheduler.DefaultOptions())
	require.NoError(t, err)
	return &plan.Plan{
		Links:       res.Best.Links,
		Fields:      res.Best.Fields,
		Actions:     sched.Actions,
		Rewards:     plan.DefaultRewards(),
		TotalAP:     sched.TotalAP,
		TotalMeters: sched.TotalMeters,
	}
}

func assertPartitioned(t *testing.T, p *plan.Plan, agents []plan.AgentPlan) {
	t.Helper()
	owner := make([]int, len(p.Links))
	for i := range owner {
		owner[i] = -1
	}
	fieldOwner := make([]int, len(p.Fields))
	for i := range fieldOwner {
		fieldOwner[i] = -1
	}
	ap := 0
	for a, ag := range agents {
		assert.Equal(t, a, ag.Agent)
		for _, li := range ag.Links {
			require.Equal(t, -1, owner[li], "link %d assigned twice", li)
			owner[li] = a
		}
		for _, fi := range ag.Fields {
			require.Equal(t, -1, fieldOwner[fi], "field %d credited twice", fi)
			fieldOwner[fi] = a
		}
		ap += ag.TotalAP
	}
	for li, a := range owner {
		assert.NotEqual(t, -1, a, "link %d unassigned", li)
	}
	for fi, a := range fieldOwner {
		assert.NotEqual(t, -1, a, "field %d never credited", fi)
	}
	assert.Equal(t, p.TotalAP, ap)

	for _, ag := range agents {
		visited := map[int]bool{}
		drawn := 0
		for _, act := range ag.Actions {
			if act.Kind == plan.ActionLink {
				assert.Equal(t, ag.Agent, owner[act.LinkIndex])
				assert.True(t, visited[act.Dest], "agent %d links to %d without its key", ag.Agent, act.Dest)
				drawn++
			}
			visited[act.Origin] = true
		}
		assert.Equal(t, len(ag.Links), drawn)
	}
}

func TestPartition_InvalidAgentCount(t *testing.T) {
	t.Parallel()
	_, err := Partition(&plan.Plan{}, euclid(nil), nil, 0, Options{})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidAgentCount))
}

func TestPartition_SingleAgentIsWholePlan(t *testing.T) {
	t.Parallel()
	pts := randomPoints(3, 12)
	p := buildPlan(t, pts)

	agents, err := Partition(p, euclid(pts), pts, 1, Options{})
	require.NoError(t, err)
	require.Len(t, agents, 1)
	assert.Equal(t, p.Actions, agents[0].Actions)
	assert.Equal(t, p.TotalAP, agents[0].TotalAP)
	assert.Len(t, agents[0].Links, len(p.Links))
	assert.Len(t, agents[0].Fields, len(p.Fields))
}

func TestPartition_CoversPlan(t *testing.T) {
	t.Parallel()
	cases := []struct {
		seed int64
		n    int
		k    int
	}{
		{seed: 1, n: 20, k: 2},
		{seed: 2, n: 30, k: 3},
		{seed: 5, n: 40, k: 4},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(fmt.Sprintf("n%d_k%d", tc.n, tc.k), func(t *testing.T) {
			t.Parallel()
			pts := randomPoints(tc.seed, tc.n)
			p := buildPlan(t, pts)

			agents, err := Partition(p, euclid(pts), pts, tc.k, Options{})
			require.NoError(t, err)
			require.Len(t, agents, tc.k)
			assertPartitioned(t, p, agents)
		})
	}
}

func TestPartition_MoreAgentsThanLinks(t *testing.T) {
	t.Parallel()
	pts := []geometry.Vec{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 50, Y: 80}}
	p := buildPlan(t, pts)
	require.Len(t, p.Links, 3)

	agents, err := Partition(p, euclid(pts), pts, 5, Options{})
	require.NoError(t, err)
	require.Len(t, agents, 5)
	assertPartitioned(t, p, agents)
	empty := 0
	for _, ag := range agents {
		if len(ag.Links) == 0 {
			empty++
			assert.Empty(t, ag.Actions)
		}
	}
	assert.GreaterOrEqual(t, empty, 2)
}

func TestPartition_AgentsAreConnected(t *testing.T) {
	t.Parallel()
	pts := randomPoints(9, 35)
	p := buildPlan(t, pts)

	pt := &partitioner{p: p, metric: euclid(pts), k: 3, opts: Options{}.withDefaults(), assign: make([]int, len(p.Links))}
	pt.mids = make([]geometry.Vec, len(p.Links))
	for i, l := range p.Links {
		pt.mids[i] = geometry.Midpoint(pts[l.A], pts[l.B])
	}
	// Scatter links so the repair pass has work to do.
	for i := range pt.assign {
		pt.assign[i] = i % 3
	}
	pt.repair()
	for a := 0; a < 3; a++ {
		assert.LessOrEqual(t, len(pt.components(a)), 1, "agent %d split", a)
	}
}

func TestPartition_Deterministic(t *testing.T) {
	t.Parallel()
	pts := randomPoints(11, 25)
	p := buildPlan(t, pts)

	first, err := Partition(p, euclid(pts), pts, 3, Options{})
	require.NoError(t, err)
	second, err := Partition(p, euclid(pts), pts, 3, Options{})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestFarthestFirst(t *testing.T) {
	t.Parallel()
	pts := []geometry.Vec{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 10, Y: 0}, {X: 0, Y: 1}}
	seeds := farthestFirst(pts, 2)
	require.Len(t, seeds, 2)
	assert.Equal(t, geometry.Vec{X: 10, Y: 0}, seeds[0])
	assert.Equal(t, geometry.Vec{X: 0, Y: 1}, seeds[1])

	assert.Len(t, farthestFirst(pts, 9), len(pts))
}

//Personal.AI order the ending
