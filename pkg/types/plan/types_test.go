package plan

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLink_Canonical(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Link{A: 2, B: 7}, NewLink(7, 2))
	assert.Equal(t, NewLink(1, 3), NewLink(3, 1))

	l := NewLink(4, 9)
	assert.True(t, l.Has(4))
	assert.False(t, l.Has(5))
	assert.Equal(t, 9, l.Other(4))
	assert.Equal(t, 4, l.Other(9))
}

func TestNewField_CornersAndEdges(t *testing.T) {
	t.Parallel()

	f := NewField(5, 1, 3, 2)
	assert.Equal(t, [3]int{1, 3, 5}, f.Corners())
	assert.Equal(t, 2, f.Depth)
	assert.ElementsMatch(t, []Link{{1, 3}, {3, 5}, {1, 5}}, f.Edges())
	assert.True(t, f.HasCorner(3))
	assert.False(t, f.HasCorner(2))
}

func TestRewards(t *testing.T) {
	t.Parallel()

	r := DefaultRewards()
	assert.Equal(t, 313, r.LinkReward(50_000))
	assert.Equal(t, 1250, r.FieldReward(NewField(0, 1, 2, 3)))

	r.DepthBonus = 100
	assert.Equal(t, 1550, r.FieldReward(NewField(0, 1, 2, 3)))

	r.TieredLinks = true
	assert.Equal(t, 625, r.LinkReward(1_500))
}

func TestLinkTierAP(t *testing.T) {
	t.Parallel()

	cases := []struct {
		meters float64
		want   int
	}{
		{0, 313},
		{999, 313},
		{1_000, 625},
		{19_999, 1250},
		{300_000, 2500},
		{1_279_999, 3125},
		{2_000_000, 5000},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, LinkTierAP(tc.meters), "meters=%v", tc.meters)
	}
}

func TestPlan_Summarize(t *testing.T) {
	t.Parallel()

	p := &Plan{
		ID:      "p1",
		Portals: make([]Portal, 4),
		Links:   make([]Link, 6),
		Fields:  make([]Field, 3),
		TotalAP: 6*313 + 3*1250,
		Stats:   Stats{Seed: 42},
	}
	s := p.Summarize()
	assert.Equal(t, 4, s.Portals)
	assert.Equal(t, 1, s.Agents)
	assert.Equal(t, int64(42), s.Seed)

	p.Agents = make([]AgentPlan, 3)
	assert.Equal(t, 3, p.Summarize().Agents)

	assert.Equal(t, "#9", p.PortalName(9))
	p.AddWarning("PLAN_003", "dropped", 1, 2)
	assert.Len(t, p.Warnings, 1)
	assert.Equal(t, []int{1, 2}, p.Warnings[0].Portals)
}

func TestPortal_KeyAndValidity(t *testing.T) {
	t.Parallel()

	a := Portal{Lat: 51.50000001, Lon: -0.12}
	b := Portal{Lat: 51.50000004, Lon: -0.12}
	c := Portal{Lat: 51.5000003, Lon: -0.12}
	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())

	cases := []struct {
		p    Portal
		want bool
	}{
		{Portal{Lat: 0, Lon: 0}, true},
		{Portal{Lat: 90, Lon: 180}, true},
		{Portal{Lat: 90.1, Lon: 0}, false},
		{Portal{Lat: 0, Lon: -180.5}, false},
		{Portal{Lat: math.NaN(), Lon: 0}, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.p.ValidCoordinates(), "%+v", tc.p)
	}
}

//Personal.AI order the ending
