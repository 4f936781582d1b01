// Package candidate builds the Delaunay candidate graph that the field
// maximizer uses to rank splits and ears. The graph prioritises choices; it
// never forbids a non-Delaunay triangle.
package candidate

import (
	"sort"

	"github.com/fogleman/delaunay"

	"github.com/turtacn/fieldplan/internal/planning/geometry"
	"github.com/turtacn/fieldplan/pkg/errors"
	"github.com/turtacn/fieldplan/pkg/types/plan"
)

// Graph is an immutable Delaunay triangulation of the projected portals.
type Graph struct {
	n         int
	edges     map[plan.Link]struct{}
	neighbors [][]int
	triangles [][3]int
}

// Build triangulates pts. Collinear or too-small inputs yield a
// DegenerateGeometry error because no triangle exists.
func Build(pts []geometry.Vec) (*Graph, error) {
	if len(pts) < 3 {
		return nil, errors.Newf(errors.ErrCodeDegenerateGeometry, "triangulation needs 3 points, got %d", len(pts))
	}
	if geometry.AllCollinear(pts) {
		return nil, errors.New(errors.ErrCodeDegenerateGeometry, "all points are collinear")
	}

	in := make([]delaunay.Point, len(pts))
	for i, p := range pts {
		in[i] = delaunay.Point{X: p.X, Y: p.Y}
	}
	tri, err := delaunay.Triangulate(in)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDegenerateGeometry, "delaunay triangulation failed")
	}

	g := &Graph{
		n:         len(pts),
		edges:     make(map[plan.Link]struct{}, len(tri.Triangles)),
		neighbors: make([][]int, len(pts)),
	}
	for t := 0; t+2 < len(tri.Triangles); t += 3 {
		a, b, c := tri.Triangles[t], tri.Triangles[t+1], tri.Triangles[t+2]
		g.triangles = append(g.triangles, [3]int{a, b, c})
		g.addEdge(a, b)
		g.addEdge(b, c)
		g.addEdge(c, a)
	}
	for i := range g.neighbors {
		sort.Ints(g.neighbors[i])
	}
	return g, nil
}

func (g *Graph) addEdge(a, b int) {
	l := plan.NewLink(a, b)
	if _, ok := g.edges[l]; ok {
		return
	}
	g.edges[l] = struct{}{}
	g.neighbors[a] = append(g.neighbors[a], b)
	g.neighbors[b] = append(g.neighbors[b], a)
}

// HasEdge reports whether i–j is a Delaunay edge. A nil graph has no edges.
func (g *Graph) HasEdge(i, j int) bool {
	if g == nil {
		return false
	}
	_, ok := g.edges[plan.NewLink(i, j)]
	return ok
}

// EdgeCount returns the number of Delaunay edges.
func (g *Graph) EdgeCount() int {
	if g == nil {
		return 0
	}
	return len(g.edges)
}

// Degree returns the number of Delaunay neighbours of i.
func (g *Graph) Degree(i int) int {
	if g == nil {
		return 0
	}
	return len(g.neighbors[i])
}

// Neighbors returns the sorted Delaunay neighbours of i.
func (g *Graph) Neighbors(i int) []int {
	if g == nil {
		return nil
	}
	return g.neighbors[i]
}

// Triangles returns the Delaunay triangles as index triples.
func (g *Graph) Triangles() [][3]int {
	if g == nil {
		return nil
	}
	return g.triangles
}

// Size returns the number of vertices.
func (g *Graph) Size() int {
	if g == nil {
		return 0
	}
	return g.n
}

//Personal.AI order the ending
