package planning

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/fieldplan/pkg/errors"
	"github.com/turtacn/fieldplan/pkg/types/plan"
)

func square() []plan.Portal {
	return []plan.Portal{
		{ID: 0, Name: "SW", Lat: 51.500, Lon: -0.120},
		{ID: 1, Name: "SE", Lat: 51.500, Lon: -0.110},
		{ID: 2, Name: "NE", Lat: 51.506, Lon: -0.110},
		{ID: 3, Name: "NW", Lat: 51.506, Lon: -0.120},
	}
}

func TestValidate_Rejects(t *testing.T) {
	t.Parallel()

	base, err := newTestPlanner().Plan(context.Background(), randomPortals(17, 15), testOptions())
	require.NoError(t, err)
	require.NoError(t, Validate(base))

	cases := []struct {
		name   string
		mutate func(p *plan.Plan)
	}{
		{
			name: "crossing diagonals",
			mutate: func(p *plan.Plan) {
				p.Portals = square()
				p.Links = []plan.Link{plan.NewLink(0, 2), plan.NewLink(1, 3)}
				p.Fields = nil
				p.Actions = nil
				p.TotalAP = 0
			},
		},
		{
			name: "field without edge",
			mutate: func(p *plan.Plan) {
				p.Portals = square()
				p.Links = []plan.Link{plan.NewLink(0, 1), plan.NewLink(1, 2)}
				p.Fields = []plan.Field{plan.NewField(0, 1, 2, 0)}
				p.Actions = nil
			},
		},
		{
			name:   "total AP off by one",
			mutate: func(p *plan.Plan) { p.TotalAP++ },
		},
		{
			name: "link drawn before any endpoint is visited",
			mutate: func(p *plan.Plan) {
				p.Portals = square()
				p.Links = []plan.Link{plan.NewLink(0, 1), plan.NewLink(2, 3)}
				p.Fields = nil
				p.Actions = []plan.Action{
					{Kind: plan.ActionLink, Origin: 0, Dest: 1, LinkIndex: 0},
					{Kind: plan.ActionLink, Origin: 2, Dest: 3, LinkIndex: 1},
				}
			},
		},
		{
			name: "missing link action",
			mutate: func(p *plan.Plan) {
				p.Actions = p.Actions[:len(p.Actions)-1]
			},
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			p := clonePlan(base)
			tc.mutate(p)
			err := Validate(p)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrCodeValidationFailed), err.Error())
		})
	}
}

func TestValidate_CapacityExceeded(t *testing.T) {
	t.Parallel()

	// A lone outer field with nine unabsorbed portals inside it.
	portals := []plan.Portal{
		{Lat: 51.500, Lon: -0.130},
		{Lat: 51.500, Lon: -0.110},
		{Lat: 51.515, Lon: -0.120},
	}
	for i := 0; i < 9; i++ {
		portals = append(portals, plan.Portal{Lat: 51.503 + float64(i%3)*0.002, Lon: -0.122 + float64(i/3)*0.002})
	}
	for i := range portals {
		portals[i].ID = i
	}
	p := &plan.Plan{
		Portals: portals,
		Links:   []plan.Link{plan.NewLink(0, 1), plan.NewLink(1, 2), plan.NewLink(0, 2)},
		Fields:  []plan.Field{plan.NewField(0, 1, 2, 0)},
		Rewards: plan.DefaultRewards(),
	}
	err := Validate(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "capacity")
}

func TestValidate_AgentsMustCoverLinks(t *testing.T) {
	t.Parallel()

	p, err := newTestPlanner().PlanAgents(context.Background(), randomPortals(23, 18), 2, testOptions())
	require.NoError(t, err)
	require.NoError(t, Validate(p))

	broken := clonePlan(p)
	broken.Agents[0].Links = broken.Agents[0].Links[:0]
	assert.True(t, errors.IsCode(Validate(broken), errors.ErrCodeValidationFailed))
}

func clonePlan(p *plan.Plan) *plan.Plan {
	c := *p
	c.Portals = append([]plan.Portal(nil), p.Portals...)
	c.Links = append([]plan.Link(nil), p.Links...)
	c.Fields = append([]plan.Field(nil), p.Fields...)
	c.Actions = append([]plan.Action(nil), p.Actions...)
	c.Agents = nil
	for _, ag := range p.Agents {
		ag.Links = append([]int(nil), ag.Links...)
		ag.Actions = append([]plan.Action(nil), ag.Actions...)
		c.Agents = append(c.Agents, ag)
	}
	return &c
}

//Personal.AI order the ending
