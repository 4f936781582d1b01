// Package geometry implements the planar predicates used by the planner.
//
// Portals arrive as latitude/longitude pairs. Every predicate in this package
// works on a local equirectangular projection (metres, centred on the
// centroid of the input), which is accurate to well under a metre across the
// few-kilometre extents the planner targets. Distances between portals are
// great-circle distances and do not use the projection.
package geometry

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"github.com/turtacn/fieldplan/pkg/types/plan"
)

// earthRadius matches the radius used by orb/geo so projected lengths and
// great-circle distances agree.
const earthRadius = orb.EarthRadius

// collinearEps is the tolerance on the sine of the angle between two vectors
// below which three points are treated as collinear.
const collinearEps = 1e-9

// coincidentEps is the squared distance in square metres below which two
// projected points are treated as the same point.
const coincidentEps = 1e-6

// Vec is a projected point in metres.
type Vec struct {
	X float64
	Y float64
}

// Sub returns v - o.
func (v Vec) Sub(o Vec) Vec { return Vec{v.X - o.X, v.Y - o.Y} }

// Add returns v + o.
func (v Vec) Add(o Vec) Vec { return Vec{v.X + o.X, v.Y + o.Y} }

// Scale returns v scaled by s.
func (v Vec) Scale(s float64) Vec { return Vec{v.X * s, v.Y * s} }

// Cross returns the z component of v × o.
func (v Vec) Cross(o Vec) float64 { return v.X*o.Y - v.Y*o.X }

// Dot returns v · o.
func (v Vec) Dot(o Vec) float64 { return v.X*o.X + v.Y*o.Y }

// Norm2 returns |v|².
func (v Vec) Norm2() float64 { return v.X*v.X + v.Y*v.Y }

// Dist returns the Euclidean distance between a and b.
func Dist(a, b Vec) float64 { return math.Sqrt(b.Sub(a).Norm2()) }

// Midpoint returns the midpoint of a and b.
func Midpoint(a, b Vec) Vec { return Vec{(a.X + b.X) / 2, (a.Y + b.Y) / 2} }

// Same reports whether a and b are coincident within tolerance.
func Same(a, b Vec) bool { return b.Sub(a).Norm2() <= coincidentEps }

// Project maps portals onto a local tangent plane centred on their centroid.
func Project(portals []plan.Portal) []Vec {
	if len(portals) == 0 {
		return nil
	}
	var lat0, lon0 float64
	for _, p := range portals {
		lat0 += p.Lat
		lon0 += p.Lon
	}
	lat0 /= float64(len(portals))
	lon0 /= float64(len(portals))

	k := math.Pi / 180 * earthRadius
	cosLat := math.Cos(lat0 * math.Pi / 180)
	out := make([]Vec, len(portals))
	for i, p := range portals {
		out[i] = Vec{
			X: (p.Lon - lon0) * k * cosLat,
			Y: (p.Lat - lat0) * k,
		}
	}
	return out
}

// PlanarDistance returns the great-circle distance between two portals in
// metres.
func PlanarDistance(a, b plan.Portal) float64 {
	return geo.DistanceHaversine(orb.Point{a.Lon, a.Lat}, orb.Point{b.Lon, b.Lat})
}

// ─────────────────────────────────────────────────────────────────────────────
// Predicates
// ─────────────────────────────────────────────────────────────────────────────

// Orient is the turn direction of an ordered point triple.
type Orient int

const (
	Collinear Orient = iota
	CCW
	CW
)

func (o Orient) String() string {
	switch o {
	case CCW:
		return "ccw"
	case CW:
		return "cw"
	default:
		return "collinear"
	}
}

// Orientation classifies the turn a → b → c. Near-zero cross products,
// measured relative to the lengths of the two edges, are Collinear.
func Orientation(a, b, c Vec) Orient {
	ab := b.Sub(a)
	ac := c.Sub(a)
	cross := ab.Cross(ac)
	tol := collinearEps * math.Sqrt(ab.Norm2()*ac.Norm2())
	switch {
	case cross > tol:
		return CCW
	case cross < -tol:
		return CW
	default:
		return Collinear
	}
}

// OnSegment reports whether p lies on the closed segment a–b.
func OnSegment(p, a, b Vec) bool {
	if Same(p, a) || Same(p, b) {
		return true
	}
	return OnSegmentInterior(p, a, b)
}

// OnSegmentInterior reports whether p lies on segment a–b, excluding the
// endpoints.
func OnSegmentInterior(p, a, b Vec) bool {
	if Same(p, a) || Same(p, b) {
		return false
	}
	if Orientation(a, b, p) != Collinear {
		return false
	}
	ab := b.Sub(a)
	t := p.Sub(a).Dot(ab)
	return t > 0 && t < ab.Norm2()
}

// SegmentsCross reports whether segments p1–p2 and p3–p4 cross. Proper
// crossings and collinear overlaps of positive length count; touching at a
// shared endpoint, or an endpoint resting on the other segment, does not.
func SegmentsCross(p1, p2, p3, p4 Vec) bool {
	o1 := Orientation(p1, p2, p3)
	o2 := Orientation(p1, p2, p4)
	if o1 == Collinear && o2 == Collinear {
		return collinearOverlap(p1, p2, p3, p4)
	}
	o3 := Orientation(p3, p4, p1)
	o4 := Orientation(p3, p4, p2)
	if o1 == Collinear || o2 == Collinear || o3 == Collinear || o4 == Collinear {
		return false
	}
	return o1 != o2 && o3 != o4
}

func collinearOverlap(p1, p2, p3, p4 Vec) bool {
	d := p2.Sub(p1)
	if d.Norm2() <= coincidentEps {
		return false
	}
	param := func(p Vec) float64 { return p.Sub(p1).Dot(d) / d.Norm2() }
	a0, a1 := 0.0, 1.0
	b0, b1 := param(p3), param(p4)
	if b0 > b1 {
		b0, b1 = b1, b0
	}
	lo := math.Max(a0, b0)
	hi := math.Min(a1, b1)
	return (hi-lo)*math.Sqrt(d.Norm2()) > math.Sqrt(coincidentEps)
}

// PointInTriangle reports whether p lies inside triangle a, b, c or on its
// boundary.
func PointInTriangle(p, a, b, c Vec) bool {
	o1 := Orientation(a, b, p)
	o2 := Orientation(b, c, p)
	o3 := Orientation(c, a, p)
	hasCW := o1 == CW || o2 == CW || o3 == CW
	hasCCW := o1 == CCW || o2 == CCW || o3 == CCW
	return !(hasCW && hasCCW)
}

// StrictlyInside reports whether p lies in the open interior of triangle
// a, b, c.
func StrictlyInside(p, a, b, c Vec) bool {
	o1 := Orientation(a, b, p)
	if o1 == Collinear {
		return false
	}
	return Orientation(b, c, p) == o1 && Orientation(c, a, p) == o1
}

// TriangleArea returns the unsigned area of triangle a, b, c in m².
func TriangleArea(a, b, c Vec) float64 {
	return math.Abs(b.Sub(a).Cross(c.Sub(a))) / 2
}

// Degenerate reports whether a, b, c do not span a triangle.
func Degenerate(a, b, c Vec) bool {
	return Orientation(a, b, c) == Collinear
}

// AllCollinear reports whether every point of pts lies on one line. Fewer than
// three points are trivially collinear.
func AllCollinear(pts []Vec) bool {
	if len(pts) < 3 {
		return true
	}
	i, j := farthestPair(pts)
	if Same(pts[i], pts[j]) {
		return true
	}
	for k := range pts {
		if Orientation(pts[i], pts[j], pts[k]) != Collinear {
			return false
		}
	}
	return true
}

// farthestPair returns the extreme points along the dominant axis.
func farthestPair(pts []Vec) (int, int) {
	minX, maxX, minY, maxY := 0, 0, 0, 0
	for k, p := range pts {
		if p.X < pts[minX].X {
			minX = k
		}
		if p.X > pts[maxX].X {
			maxX = k
		}
		if p.Y < pts[minY].Y {
			minY = k
		}
		if p.Y > pts[maxY].Y {
			maxY = k
		}
	}
	if pts[maxX].X-pts[minX].X >= pts[maxY].Y-pts[minY].Y {
		return minX, maxX
	}
	return minY, maxY
}

// OrderAlongLine returns the indices of pts sorted along their dominant axis.
// It is meant for collinear inputs.
func OrderAlongLine(pts []Vec) []int {
	idx := make([]int, len(pts))
	for i := range idx {
		idx[i] = i
	}
	if len(pts) < 2 {
		return idx
	}
	i, j := farthestPair(pts)
	d := pts[j].Sub(pts[i])
	sort.SliceStable(idx, func(x, y int) bool {
		return pts[idx[x]].Sub(pts[i]).Dot(d) < pts[idx[y]].Sub(pts[i]).Dot(d)
	})
	return idx
}

// ─────────────────────────────────────────────────────────────────────────────
// Convex hull
// ─────────────────────────────────────────────────────────────────────────────

// ConvexHull returns the indices of the hull of pts in counter-clockwise
// order. Points lying on a hull edge are kept as hull vertices so that no
// hull edge passes through a portal. It returns nil for collinear input.
func ConvexHull(pts []Vec) []int {
	if AllCollinear(pts) {
		return nil
	}
	idx := make([]int, len(pts))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		pa, pb := pts[idx[a]], pts[idx[b]]
		if pa.X != pb.X {
			return pa.X < pb.X
		}
		return pa.Y < pb.Y
	})

	chain := func(order []int) []int {
		var h []int
		for _, k := range order {
			for len(h) >= 2 && Orientation(pts[h[len(h)-2]], pts[h[len(h)-1]], pts[k]) != CCW {
				h = h[:len(h)-1]
			}
			h = append(h, k)
		}
		return h
	}
	lower := chain(idx)
	rev := make([]int, len(idx))
	for i, k := range idx {
		rev[len(idx)-1-i] = k
	}
	upper := chain(rev)
	strict := append(lower[:len(lower)-1], upper[:len(upper)-1]...)

	onHull := make(map[int]bool, len(strict))
	for _, k := range strict {
		onHull[k] = true
	}
	var hull []int
	for e := range strict {
		a, b := strict[e], strict[(e+1)%len(strict)]
		hull = append(hull, a)
		var between []int
		for k := range pts {
			if !onHull[k] && OnSegmentInterior(pts[k], pts[a], pts[b]) {
				between = append(between, k)
			}
		}
		d := pts[b].Sub(pts[a])
		sort.Slice(between, func(x, y int) bool {
			return pts[between[x]].Sub(pts[a]).Dot(d) < pts[between[y]].Sub(pts[a]).Dot(d)
		})
		for _, k := range between {
			onHull[k] = true
		}
		hull = append(hull, between...)
	}
	return hull
}

// ─────────────────────────────────────────────────────────────────────────────
// Distances
// ─────────────────────────────────────────────────────────────────────────────

// DistanceMatrix caches great-circle distances between every pair of portals.
// It is read-only after construction and safe for concurrent use.
type DistanceMatrix struct {
	n int
	d []float64
}

// NewDistanceMatrix computes all pairwise distances for portals.
func NewDistanceMatrix(portals []plan.Portal) *DistanceMatrix {
	n := len(portals)
	m := &DistanceMatrix{n: n, d: make([]float64, n*n)}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			v := PlanarDistance(portals[i], portals[j])
			m.d[i*n+j] = v
			m.d[j*n+i] = v
		}
	}
	return m
}

// Len returns the number of portals covered.
func (m *DistanceMatrix) Len() int { return m.n }

// Distance returns the distance in metres between portals i and j.
func (m *DistanceMatrix) Distance(i, j int) float64 {
	return m.d[i*m.n+j]
}

//Personal.AI order the ending
