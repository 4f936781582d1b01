package maximizer

import (
	"context"
	"math/rand"
	"sort"

	"github.com/turtacn/fieldplan/internal/planning/candidate"
	"github.com/turtacn/fieldplan/internal/planning/geometry"
	"github.com/turtacn/fieldplan/pkg/types/plan"
)

// Drop reasons.
const (
	ReasonOverCapacity = "field would hold more unabsorbed portals than capacity"
	ReasonNoEar        = "hull region has no valid triangulation"
)

// node is a candidate field in the decomposition tree.
type node struct {
	a, b, c  int
	depth    int
	parent   int
	interior []int // portals strictly inside at creation time
	split    int   // -1 for a leaf
	children []int
}

// frame is one unit of pending work. Polygon frames carry poly; triangle
// frames carry a node index.
type frame struct {
	poly     []int
	interior []int
	node     int
}

type builder struct {
	ctx      context.Context
	pts      []geometry.Vec
	cand     *candidate.Graph
	rng      *rand.Rand
	topK     int
	capacity int
	restart  int

	linkSet map[plan.Link]struct{}
	links   []plan.Link
	nodes   []node
	dropped []Drop
}

func newBuilder(ctx context.Context, pts []geometry.Vec, cand *candidate.Graph, opts Options, restart int) *builder {
	b := &builder{
		ctx:      ctx,
		pts:      pts,
		cand:     cand,
		topK:     opts.TopK,
		capacity: opts.Capacity,
		restart:  restart,
		linkSet:  make(map[plan.Link]struct{}, 3*len(pts)),
	}
	if restart > 0 {
		b.rng = rand.New(rand.NewSource(opts.Seed + int64(restart)))
	}
	return b
}

func (b *builder) addLink(i, j int) {
	l := plan.NewLink(i, j)
	if _, ok := b.linkSet[l]; ok {
		return
	}
	b.linkSet[l] = struct{}{}
	b.links = append(b.links, l)
}

// pick returns the index of the ranked choice to try first.
func (b *builder) pick(n int) int {
	if b.rng == nil || n <= 1 {
		return 0
	}
	k := b.topK
	if k > n {
		k = n
	}
	return b.rng.Intn(k)
}

func (b *builder) run() (*Decomposition, error) {
	hull := geometry.ConvexHull(b.pts)
	onHull := make(map[int]bool, len(hull))
	for i, v := range hull {
		onHull[v] = true
		b.addLink(v, hull[(i+1)%len(hull)])
	}
	interior := make([]int, 0, len(b.pts)-len(hull))
	for i := range b.pts {
		if !onHull[i] {
			interior = append(interior, i)
		}
	}

	stack := []frame{{poly: hull, interior: interior, node: -1}}
	for len(stack) > 0 {
		if err := b.ctx.Err(); err != nil {
			return nil, err
		}
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.node >= 0 {
			stack = append(stack, b.splitTriangle(f.node)...)
		} else {
			stack = append(stack, b.clipPolygon(f)...)
		}
	}

	fields, drops := b.enforceCapacity()
	return &Decomposition{
		Restart: b.restart,
		Links:   b.links,
		Fields:  fields,
		Dropped: append(b.dropped, drops...),
	}, nil
}

// newTriangle registers a field node and returns its frame.
func (b *builder) newTriangle(x, y, z, depth, parent int, interior []int) frame {
	b.nodes = append(b.nodes, node{
		a: x, b: y, c: z,
		depth:    depth,
		parent:   parent,
		interior: interior,
		split:    -1,
	})
	return frame{node: len(b.nodes) - 1}
}

// ─────────────────────────────────────────────────────────────────────────────
// Hull polygon
// ─────────────────────────────────────────────────────────────────────────────

type ear struct {
	at       int // position in poly
	delaunay bool
	length   float64
}

func (b *builder) clipPolygon(f frame) []frame {
	poly := f.poly
	m := len(poly)
	if m == 3 {
		if geometry.Degenerate(b.pts[poly[0]], b.pts[poly[1]], b.pts[poly[2]]) {
			b.dropped = append(b.dropped, Drop{Corners: poly, Points: f.interior, Reason: ReasonNoEar})
			return nil
		}
		return []frame{b.newTriangle(poly[0], poly[1], poly[2], 0, -1, f.interior)}
	}

	var ears []ear
	for i := 0; i < m; i++ {
		prev, cur, next := poly[(i+m-1)%m], poly[i], poly[(i+1)%m]
		if geometry.Orientation(b.pts[prev], b.pts[cur], b.pts[next]) != geometry.CCW {
			continue
		}
		if b.blocked(prev, next, f.interior) || b.blocked(prev, next, poly) {
			continue
		}
		ears = append(ears, ear{
			at:       i,
			delaunay: b.cand.HasEdge(prev, next),
			length:   geometry.Dist(b.pts[prev], b.pts[next]),
		})
	}

	if len(ears) > 0 {
		sort.SliceStable(ears, func(x, y int) bool {
			if ears[x].delaunay != ears[y].delaunay {
				return ears[x].delaunay
			}
			return ears[x].length < ears[y].length
		})
		order := b.tryOrder(len(ears))
		chosen := ears[order[0]]
		for _, k := range order {
			e := ears[k]
			prev, cur, next := poly[(e.at+m-1)%m], poly[e.at], poly[(e.at+1)%m]
			if b.viable(prev, cur, next, b.inside(prev, cur, next, f.interior)) {
				chosen = e
				break
			}
		}
		return b.cutEar(f, chosen.at)
	}

	for i := 0; i < m; i++ {
		if out, ok := b.fanAt(f, i); ok {
			return out
		}
	}
	b.dropped = append(b.dropped, Drop{Corners: poly, Points: f.interior, Reason: ReasonNoEar})
	return nil
}

func (b *builder) cutEar(f frame, at int) []frame {
	poly := f.poly
	m := len(poly)
	prev, cur, next := poly[(at+m-1)%m], poly[at], poly[(at+1)%m]
	b.addLink(prev, next)

	var earPts, rest []int
	for _, q := range f.interior {
		if geometry.StrictlyInside(b.pts[q], b.pts[prev], b.pts[cur], b.pts[next]) {
			earPts = append(earPts, q)
		} else {
			rest = append(rest, q)
		}
	}
	remaining := make([]int, 0, m-1)
	remaining = append(remaining, poly[:at]...)
	remaining = append(remaining, poly[at+1:]...)

	return []frame{
		{poly: remaining, interior: rest, node: -1},
		b.newTriangle(prev, cur, next, 0, -1, earPts),
	}
}

// fanAt replaces the convex vertex at position i by the interior portals that
// block its diagonal, fanning triangles from the vertex to each of them.
func (b *builder) fanAt(f frame, i int) ([]frame, bool) {
	poly := f.poly
	m := len(poly)
	prev, cur, next := poly[(i+m-1)%m], poly[i], poly[(i+1)%m]
	if geometry.Orientation(b.pts[prev], b.pts[cur], b.pts[next]) != geometry.CCW {
		return nil, false
	}

	var onDiag []int
	for _, q := range f.interior {
		if geometry.OnSegmentInterior(b.pts[q], b.pts[prev], b.pts[next]) {
			onDiag = append(onDiag, q)
		}
	}
	if len(onDiag) == 0 || b.blocked(prev, next, poly) {
		return nil, false
	}
	d := b.pts[next].Sub(b.pts[prev])
	sort.Slice(onDiag, func(x, y int) bool {
		return b.pts[onDiag[x]].Sub(b.pts[prev]).Dot(d) < b.pts[onDiag[y]].Sub(b.pts[prev]).Dot(d)
	})
	for _, q := range onDiag {
		if b.blocked(cur, q, f.interior) {
			return nil, false
		}
	}

	chain := append([]int{prev}, onDiag...)
	chain = append(chain, next)
	diag := make(map[int]bool, len(onDiag))
	for _, q := range onDiag {
		diag[q] = true
	}

	var out []frame
	assigned := make(map[int]bool)
	for k := 0; k+1 < len(chain); k++ {
		x, y := chain[k], chain[k+1]
		b.addLink(x, y)
		b.addLink(cur, y)
		var inner []int
		for _, q := range f.interior {
			if !diag[q] && !assigned[q] && geometry.StrictlyInside(b.pts[q], b.pts[cur], b.pts[x], b.pts[y]) {
				inner = append(inner, q)
				assigned[q] = true
			}
		}
		out = append(out, b.newTriangle(x, cur, y, 0, -1, inner))
	}

	var rest []int
	for _, q := range f.interior {
		if !diag[q] && !assigned[q] {
			rest = append(rest, q)
		}
	}
	remaining := make([]int, 0, m-1+len(onDiag))
	for k := 0; k < m; k++ {
		if k == i {
			remaining = append(remaining, onDiag...)
			continue
		}
		remaining = append(remaining, poly[k])
	}
	return append(out, frame{poly: remaining, interior: rest, node: -1}), true
}

// ─────────────────────────────────────────────────────────────────────────────
// Triangle splitting
// ─────────────────────────────────────────────────────────────────────────────

type split struct {
	p        int
	delaunay int
	largest  int
	length   float64
	parts    [3][]int
	orphans  []int
}

func (b *builder) splitTriangle(idx int) []frame {
	n := b.nodes[idx]
	if len(n.interior) == 0 {
		return nil
	}

	var cands []split
	for _, p := range n.interior {
		if b.blocked(p, n.a, n.interior) || b.blocked(p, n.b, n.interior) || b.blocked(p, n.c, n.interior) {
			continue
		}
		s := b.partition(n, p)
		s.delaunay = boolInt(b.cand.HasEdge(p, n.a)) + boolInt(b.cand.HasEdge(p, n.b)) + boolInt(b.cand.HasEdge(p, n.c))
		s.length = geometry.Dist(b.pts[p], b.pts[n.a]) + geometry.Dist(b.pts[p], b.pts[n.b]) + geometry.Dist(b.pts[p], b.pts[n.c])
		cands = append(cands, s)
	}
	if len(cands) == 0 {
		return nil
	}

	sort.SliceStable(cands, func(x, y int) bool {
		cx, cy := cands[x], cands[y]
		if cx.delaunay != cy.delaunay {
			return cx.delaunay > cy.delaunay
		}
		if cx.largest != cy.largest {
			return cx.largest < cy.largest
		}
		return cx.length < cy.length
	})

	order := b.tryOrder(len(cands))
	chosen := cands[order[0]]
	for _, k := range order {
		s := cands[k]
		if b.viable(n.a, n.b, s.p, s.parts[0]) && b.viable(n.b, n.c, s.p, s.parts[1]) && b.viable(n.c, n.a, s.p, s.parts[2]) {
			chosen = s
			break
		}
	}

	p := chosen.p
	b.addLink(p, n.a)
	b.addLink(p, n.b)
	b.addLink(p, n.c)

	corners := [3][2]int{{n.a, n.b}, {n.b, n.c}, {n.c, n.a}}
	out := make([]frame, 0, 3)
	children := make([]int, 0, 3)
	for k, e := range corners {
		f := b.newTriangle(e[0], e[1], p, n.depth+1, idx, chosen.parts[k])
		children = append(children, f.node)
		out = append(out, f)
	}
	// b.nodes may have been reallocated by newTriangle. Orphans stay in the
	// parent's interior and are counted as unabsorbed there.
	b.nodes[idx].split = p
	b.nodes[idx].children = children
	return out
}

// partition distributes the interior of n (minus p) over the three children
// created by splitting at p. Points no child claims because of numeric
// tolerance are reported as orphans and stay unabsorbed in n.
func (b *builder) partition(n node, p int) split {
	s := split{p: p}
	a, bb, c, pp := b.pts[n.a], b.pts[n.b], b.pts[n.c], b.pts[p]
	for _, q := range n.interior {
		if q == p {
			continue
		}
		v := b.pts[q]
		switch {
		case geometry.StrictlyInside(v, a, bb, pp):
			s.parts[0] = append(s.parts[0], q)
		case geometry.StrictlyInside(v, bb, c, pp):
			s.parts[1] = append(s.parts[1], q)
		case geometry.StrictlyInside(v, c, a, pp):
			s.parts[2] = append(s.parts[2], q)
		default:
			s.orphans = append(s.orphans, q)
		}
	}
	for _, part := range s.parts {
		if len(part) > s.largest {
			s.largest = len(part)
		}
	}
	return s
}

// viable reports whether a triangle holding pts can stay within capacity:
// either it is small enough already or some interior point can split it.
func (b *builder) viable(x, y, z int, pts []int) bool {
	if len(pts) <= b.capacity {
		return true
	}
	for _, p := range pts {
		if !b.blocked(p, x, pts) && !b.blocked(p, y, pts) && !b.blocked(p, z, pts) {
			return true
		}
	}
	return false
}

// blocked reports whether any portal of among lies strictly inside segment i–j.
func (b *builder) blocked(i, j int, among []int) bool {
	pi, pj := b.pts[i], b.pts[j]
	for _, q := range among {
		if q == i || q == j {
			continue
		}
		if geometry.OnSegmentInterior(b.pts[q], pi, pj) {
			return true
		}
	}
	return false
}

// inside returns the portals of among strictly inside triangle x, y, z.
func (b *builder) inside(x, y, z int, among []int) []int {
	var out []int
	for _, q := range among {
		if geometry.StrictlyInside(b.pts[q], b.pts[x], b.pts[y], b.pts[z]) {
			out = append(out, q)
		}
	}
	return out
}

// tryOrder returns candidate positions 0..n-1 with the randomly picked choice
// moved to the front.
func (b *builder) tryOrder(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	if k := b.pick(n); k > 0 {
		order[0], order[k] = order[k], order[0]
	}
	return order
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

// ─────────────────────────────────────────────────────────────────────────────
// Capacity
// ─────────────────────────────────────────────────────────────────────────────

// enforceCapacity walks the field tree bottom-up. A field keeps its place when
// the portals inside it that no kept descendant covers number at most
// capacity; otherwise it is dropped and its parent inherits the uncovered
// portals.
func (b *builder) enforceCapacity() ([]plan.Field, []Drop) {
	kept := make([]bool, len(b.nodes))
	covered := make([]map[int]struct{}, len(b.nodes))
	var drops []Drop

	for i := len(b.nodes) - 1; i >= 0; i-- {
		n := b.nodes[i]
		fromChildren := make(map[int]struct{})
		for _, c := range n.children {
			for q := range covered[c] {
				fromChildren[q] = struct{}{}
			}
			covered[c] = nil
		}
		var loose []int
		for _, q := range n.interior {
			if _, ok := fromChildren[q]; !ok {
				loose = append(loose, q)
			}
		}
		if len(loose) <= b.capacity {
			kept[i] = true
			all := make(map[int]struct{}, len(n.interior)+3)
			for _, q := range n.interior {
				all[q] = struct{}{}
			}
			all[n.a], all[n.b], all[n.c] = struct{}{}, struct{}{}, struct{}{}
			covered[i] = all
		} else {
			covered[i] = fromChildren
			drops = append(drops, Drop{Corners: []int{n.a, n.b, n.c}, Points: loose, Reason: ReasonOverCapacity})
		}
	}

	depth := make([]int, len(b.nodes))
	var fields []plan.Field
	for i, n := range b.nodes {
		if n.parent >= 0 {
			depth[i] = depth[n.parent] + boolInt(kept[n.parent])
		}
		if kept[i] {
			fields = append(fields, plan.NewField(n.a, n.b, n.c, depth[i]))
		}
	}
	return fields, drops
}

//Personal.AI order the ending
