package candidate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/fieldplan/internal/planning/geometry"
	"github.com/turtacn/fieldplan/pkg/errors"
)

func TestBuild_Square(t *testing.T) {
	t.Parallel()

	pts := []geometry.Vec{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}, {X: 4, Y: 6}}
	g, err := Build(pts)
	require.NoError(t, err)

	// n=5, hull=4: a triangulation has 3n-h-3 edges and 2n-h-2 triangles.
	assert.Equal(t, 8, g.EdgeCount())
	assert.Len(t, g.Triangles(), 4)
	assert.Equal(t, 5, g.Size())

	// The interior point is connected to every corner.
	assert.Equal(t, 4, g.Degree(4))
	for i := 0; i < 4; i++ {
		assert.True(t, g.HasEdge(i, 4))
		assert.True(t, g.HasEdge(4, i))
	}
	// Hull edges are always Delaunay edges.
	assert.True(t, g.HasEdge(0, 1))
	assert.True(t, g.HasEdge(3, 0))
	assert.Equal(t, []int{0, 1, 2, 3}, g.Neighbors(4))
}

func TestBuild_Degenerate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		pts  []geometry.Vec
	}{
		{"two points", []geometry.Vec{{X: 0, Y: 0}, {X: 1, Y: 1}}},
		{"collinear", []geometry.Vec{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}, {X: 3, Y: 3}}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			g, err := Build(tc.pts)
			assert.Nil(t, g)
			assert.True(t, errors.IsCode(err, errors.ErrCodeDegenerateGeometry))
		})
	}
}

func TestNilGraph(t *testing.T) {
	t.Parallel()

	var g *Graph
	assert.False(t, g.HasEdge(0, 1))
	assert.Zero(t, g.EdgeCount())
	assert.Zero(t, g.Degree(3))
	assert.Nil(t, g.Neighbors(0))
	assert.Nil(t, g.Triangles())
	assert.Zero(t, g.Size())
}

//Personal.AI order the ending
