package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/fieldplan/pkg/types/plan"
)

func TestOrientation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		a, b, c Vec
		want    Orient
	}{
		{"ccw", Vec{0, 0}, Vec{10, 0}, Vec{0, 10}, CCW},
		{"cw", Vec{0, 0}, Vec{0, 10}, Vec{10, 0}, CW},
		{"collinear", Vec{0, 0}, Vec{5, 5}, Vec{10, 10}, Collinear},
		{"near collinear", Vec{0, 0}, Vec{1000, 0}, Vec{2000, 1e-9}, Collinear},
		{"coincident", Vec{1, 1}, Vec{1, 1}, Vec{3, 4}, Collinear},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, Orientation(tc.a, tc.b, tc.c))
		})
	}
}

func TestSegmentsCross(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name           string
		p1, p2, p3, p4 Vec
		want           bool
	}{
		{"proper crossing", Vec{0, 0}, Vec{10, 10}, Vec{0, 10}, Vec{10, 0}, true},
		{"disjoint", Vec{0, 0}, Vec{1, 1}, Vec{5, 0}, Vec{6, 1}, false},
		{"shared endpoint", Vec{0, 0}, Vec{10, 0}, Vec{10, 0}, Vec{10, 10}, false},
		{"t junction", Vec{0, 0}, Vec{10, 0}, Vec{5, 0}, Vec{5, 10}, false},
		{"parallel", Vec{0, 0}, Vec{10, 0}, Vec{0, 1}, Vec{10, 1}, false},
		{"collinear overlap", Vec{0, 0}, Vec{10, 0}, Vec{5, 0}, Vec{15, 0}, true},
		{"collinear touching", Vec{0, 0}, Vec{10, 0}, Vec{10, 0}, Vec{15, 0}, false},
		{"collinear apart", Vec{0, 0}, Vec{4, 0}, Vec{6, 0}, Vec{9, 0}, false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, SegmentsCross(tc.p1, tc.p2, tc.p3, tc.p4))
			assert.Equal(t, tc.want, SegmentsCross(tc.p3, tc.p4, tc.p1, tc.p2), "symmetry")
		})
	}
}

func TestPointInTriangle(t *testing.T) {
	t.Parallel()

	a, b, c := Vec{0, 0}, Vec{10, 0}, Vec{0, 10}

	assert.True(t, PointInTriangle(Vec{2, 2}, a, b, c))
	assert.True(t, PointInTriangle(Vec{5, 0}, a, b, c), "edge counts as inside")
	assert.True(t, PointInTriangle(a, a, b, c), "corner counts as inside")
	assert.False(t, PointInTriangle(Vec{8, 8}, a, b, c))
	assert.True(t, PointInTriangle(Vec{2, 2}, a, c, b), "winding does not matter")

	assert.True(t, StrictlyInside(Vec{2, 2}, a, b, c))
	assert.False(t, StrictlyInside(Vec{5, 0}, a, b, c))
	assert.False(t, StrictlyInside(Vec{8, 8}, a, b, c))
}

func TestOnSegmentInterior(t *testing.T) {
	t.Parallel()

	a, b := Vec{0, 0}, Vec{10, 10}
	assert.True(t, OnSegmentInterior(Vec{5, 5}, a, b))
	assert.False(t, OnSegmentInterior(a, a, b))
	assert.False(t, OnSegmentInterior(Vec{11, 11}, a, b))
	assert.False(t, OnSegmentInterior(Vec{5, 6}, a, b))
	assert.True(t, OnSegment(b, a, b))
}

func TestTriangleArea(t *testing.T) {
	t.Parallel()
	assert.InDelta(t, 50.0, TriangleArea(Vec{0, 0}, Vec{10, 0}, Vec{0, 10}), 1e-9)
	assert.True(t, Degenerate(Vec{0, 0}, Vec{1, 1}, Vec{2, 2}))
}

func TestConvexHull_KeepsBoundaryPoints(t *testing.T) {
	t.Parallel()

	pts := []Vec{
		{0, 0}, {10, 0}, {10, 10}, {0, 10}, // square
		{5, 0},  // on bottom edge
		{5, 5},  // interior
		{0, 5},  // on left edge
		{10, 3}, // on right edge
	}
	hull := ConvexHull(pts)
	require.Len(t, hull, 7)
	assert.NotContains(t, hull, 5)

	// Counter-clockwise with no reflex turns.
	for i := range hull {
		a, b, c := pts[hull[i]], pts[hull[(i+1)%len(hull)]], pts[hull[(i+2)%len(hull)]]
		assert.NotEqual(t, CW, Orientation(a, b, c))
	}
	// Bottom edge is split by its midpoint.
	pos := map[int]int{}
	for i, k := range hull {
		pos[k] = i
	}
	assert.Equal(t, (pos[0]+1)%len(hull), pos[4])
	assert.Equal(t, (pos[4]+1)%len(hull), pos[1])
}

func TestConvexHull_Collinear(t *testing.T) {
	t.Parallel()
	assert.Nil(t, ConvexHull([]Vec{{0, 0}, {1, 1}, {2, 2}, {3, 3}}))
	assert.True(t, AllCollinear([]Vec{{0, 0}, {1, 1}, {2, 2}}))
	assert.False(t, AllCollinear([]Vec{{0, 0}, {1, 1}, {2, 0}}))
}

func TestOrderAlongLine(t *testing.T) {
	t.Parallel()
	pts := []Vec{{2, 2}, {0, 0}, {3, 3}, {1, 1}}
	assert.Equal(t, []int{1, 3, 0, 2}, OrderAlongLine(pts))
}

func TestProject(t *testing.T) {
	t.Parallel()

	portals := []plan.Portal{
		{Lat: 51.5000, Lon: -0.1200},
		{Lat: 51.5010, Lon: -0.1200},
		{Lat: 51.5000, Lon: -0.1180},
	}
	v := Project(portals)
	require.Len(t, v, 3)

	// Projected lengths agree with great-circle distances at this scale.
	for _, pair := range [][2]int{{0, 1}, {0, 2}, {1, 2}} {
		planar := Dist(v[pair[0]], v[pair[1]])
		gc := PlanarDistance(portals[pair[0]], portals[pair[1]])
		assert.InEpsilon(t, gc, planar, 0.002)
	}
	assert.Nil(t, Project(nil))
}

func TestPlanarDistance(t *testing.T) {
	t.Parallel()

	a := plan.Portal{Lat: 0, Lon: 0}
	b := plan.Portal{Lat: 1, Lon: 0}
	assert.InDelta(t, 111319.5, PlanarDistance(a, b), 1.0)
	assert.Zero(t, PlanarDistance(a, a))
}

func TestDistanceMatrix(t *testing.T) {
	t.Parallel()

	portals := []plan.Portal{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 0.01}, {Lat: 0.01, Lon: 0}}
	m := NewDistanceMatrix(portals)
	assert.Equal(t, 3, m.Len())
	assert.Zero(t, m.Distance(1, 1))
	assert.Equal(t, m.Distance(0, 2), m.Distance(2, 0))
	assert.InDelta(t, PlanarDistance(portals[1], portals[2]), m.Distance(1, 2), 1e-9)
}

//Personal.AI order the ending
