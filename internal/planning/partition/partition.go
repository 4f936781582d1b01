// Package partition splits a finished plan across several operators.
//
// Links are clustered by midpoint (farthest-first seeds refined by a few Lloyd
// rounds), then boundary links are moved greedily from the most loaded agent
// to a lighter neighbour while that lowers the maximum load. A final repair
// pass hands every link component an agent cannot reach from its own main
// component to the neighbouring agent that already visits its portals, so no
// agent depends on a key another agent holds. Each agent is then scheduled on
// its own and every field is credited to the agent drawing its last edge.
package partition

import (
	"math"
	"sort"

	"github.com/turtacn/fieldplan/internal/planning/geometry"
	"github.com/turtacn/fieldplan/internal/planning/scheduler"
	"github.com/turtacn/fieldplan/pkg/errors"
	"github.com/turtacn/fieldplan/pkg/types/plan"
)

// Defaults.
const (
	DefaultAPWeight      = 0.1
	DefaultBalanceRounds = 32
	DefaultLloydRounds   = 8
)

// Options tunes the partitioner.
type Options struct {
	// APWeight converts AP into metres when comparing agent loads.
	APWeight      float64
	BalanceRounds int
	LloydRounds   int
	Rewards       plan.Rewards
}

func (o Options) withDefaults() Options {
	if o.APWeight < 0 {
		o.APWeight = 0
	} else if o.APWeight == 0 {
		o.APWeight = DefaultAPWeight
	}
	if o.BalanceRounds <= 0 {
		o.BalanceRounds = DefaultBalanceRounds
	}
	if o.LloydRounds <= 0 {
		o.LloydRounds = DefaultLloydRounds
	}
	if o.Rewards == (plan.Rewards{}) {
		o.Rewards = plan.DefaultRewards()
	}
	return o
}

type partitioner struct {
	p      *plan.Plan
	metric scheduler.Metric
	mids   []geometry.Vec
	k      int
	opts   Options
	assign []int
}

// Partition divides p among k agents. pts are the projected portal positions.
func Partition(p *plan.Plan, metric scheduler.Metric, pts []geometry.Vec, k int, opts Options) ([]plan.AgentPlan, error) {
	if k < 1 {
		return nil, errors.Newf(errors.ErrCodeInvalidAgentCount, "agent count must be at least 1, got %d", k)
	}
	opts = opts.withDefaults()
	if k == 1 {
		return []plan.AgentPlan{whole(p)}, nil
	}

	pt := &partitioner{p: p, metric: metric, k: k, opts: opts, assign: make([]int, len(p.Links))}
	pt.mids = make([]geometry.Vec, len(p.Links))
	for i, l := range p.Links {
		pt.mids[i] = geometry.Midpoint(pts[l.A], pts[l.B])
	}

	if len(p.Links) > 0 {
		pt.cluster()
		pt.repair()
		if err := pt.balance(); err != nil {
			return nil, err
		}
		pt.repair()
	}
	return pt.finish()
}

func whole(p *plan.Plan) plan.AgentPlan {
	ap := plan.AgentPlan{
		Agent:       0,
		Links:       make([]int, len(p.Links)),
		Fields:      make([]int, len(p.Fields)),
		Actions:     p.Actions,
		TotalAP:     p.TotalAP,
		TotalMeters: p.TotalMeters,
	}
	for i := range ap.Links {
		ap.Links[i] = i
	}
	for i := range ap.Fields {
		ap.Fields[i] = i
	}
	return ap
}

// ─────────────────────────────────────────────────────────────────────────────
// Clustering
// ─────────────────────────────────────────────────────────────────────────────

func (pt *partitioner) cluster() {
	centers := farthestFirst(pt.mids, pt.k)
	for i, m := range pt.mids {
		pt.assign[i] = nearest(centers, m)
	}
	for round := 0; round < pt.opts.LloydRounds; round++ {
		sums := make([]geometry.Vec, len(centers))
		counts := make([]int, len(centers))
		for i, m := range pt.mids {
			sums[pt.assign[i]] = sums[pt.assign[i]].Add(m)
			counts[pt.assign[i]]++
		}
		for c := range centers {
			if counts[c] > 0 {
				centers[c] = sums[c].Scale(1 / float64(counts[c]))
			}
		}
		changed := false
		for i, m := range pt.mids {
			if c := nearest(centers, m); c != pt.assign[i] {
				pt.assign[i] = c
				changed = true
			}
		}
		if !changed {
			break
		}
	}
}

// farthestFirst picks up to k seeds, starting from the point farthest from
// the centroid.
func farthestFirst(pts []geometry.Vec, k int) []geometry.Vec {
	if k > len(pts) {
		k = len(pts)
	}
	var centroid geometry.Vec
	for _, p := range pts {
		centroid = centroid.Add(p)
	}
	centroid = centroid.Scale(1 / float64(len(pts)))

	first, far := 0, -1.0
	for i, p := range pts {
		if d := geometry.Dist(p, centroid); d > far {
			first, far = i, d
		}
	}
	seeds := []geometry.Vec{pts[first]}
	minD := make([]float64, len(pts))
	for i, p := range pts {
		minD[i] = geometry.Dist(p, pts[first])
	}
	for len(seeds) < k {
		next, far := -1, -1.0
		for i, d := range minD {
			if d > far {
				next, far = i, d
			}
		}
		seeds = append(seeds, pts[next])
		for i, p := range pts {
			minD[i] = math.Min(minD[i], geometry.Dist(p, pts[next]))
		}
	}
	return seeds
}

func nearest(centers []geometry.Vec, p geometry.Vec) int {
	best, bestD := 0, math.Inf(1)
	for c, v := range centers {
		if d := geometry.Dist(p, v); d < bestD {
			best, bestD = c, d
		}
	}
	return best
}

// ─────────────────────────────────────────────────────────────────────────────
// Balancing
// ─────────────────────────────────────────────────────────────────────────────

func (pt *partitioner) linksOf(agent int) []int {
	var out []int
	for i, a := range pt.assign {
		if a == agent {
			out = append(out, i)
		}
	}
	return out
}

// load schedules one agent and returns its balancing cost.
func (pt *partitioner) load(agent int) (float64, error) {
	idx := pt.linksOf(agent)
	links, fields, _, _ := pt.subset(idx)
	res, err := scheduler.Schedule(pt.metric, links, fields, scheduler.Options{Start: -1, Rewards: pt.opts.Rewards})
	if err != nil {
		return 0, err
	}
	return res.TotalMeters + pt.opts.APWeight*float64(res.TotalAP), nil
}

func (pt *partitioner) balance() error {
	loads := make([]float64, pt.k)
	for a := range loads {
		l, err := pt.load(a)
		if err != nil {
			return err
		}
		loads[a] = l
	}

	for round := 0; round < pt.opts.BalanceRounds; round++ {
		heavy := argmax(loads)
		li, target := pt.boundaryMove(heavy, loads)
		if li < 0 {
			return nil
		}
		pt.assign[li] = target
		lh, err := pt.load(heavy)
		if err != nil {
			return err
		}
		lt, err := pt.load(target)
		if err != nil {
			return err
		}
		if math.Max(lh, lt) >= loads[heavy] {
			pt.assign[li] = heavy
			return nil
		}
		loads[heavy], loads[target] = lh, lt
	}
	return nil
}

// boundaryMove picks a link of agent heavy that touches the lightest
// neighbouring agent, preferring the link farthest from heavy's centre.
func (pt *partitioner) boundaryMove(heavy int, loads []float64) (link, target int) {
	owners := pt.portalOwners()
	mine := pt.linksOf(heavy)
	if len(mine) <= 1 {
		return -1, -1
	}
	var centre geometry.Vec
	for _, li := range mine {
		centre = centre.Add(pt.mids[li])
	}
	centre = centre.Scale(1 / float64(len(mine)))

	link, target = -1, -1
	bestLoad, bestDist := math.Inf(1), -1.0
	for _, li := range mine {
		l := pt.p.Links[li]
		for _, p := range [2]int{l.A, l.B} {
			for _, other := range owners[p] {
				if other == heavy {
					continue
				}
				d := geometry.Dist(pt.mids[li], centre)
				if loads[other] < bestLoad || (loads[other] == bestLoad && d > bestDist) {
					link, target, bestLoad, bestDist = li, other, loads[other], d
				}
			}
		}
	}
	return link, target
}

// portalOwners maps each portal to the sorted agents with a link touching it.
func (pt *partitioner) portalOwners() map[int][]int {
	seen := make(map[int]map[int]bool)
	for li, a := range pt.assign {
		l := pt.p.Links[li]
		for _, p := range [2]int{l.A, l.B} {
			if seen[p] == nil {
				seen[p] = make(map[int]bool)
			}
			seen[p][a] = true
		}
	}
	out := make(map[int][]int, len(seen))
	for p, agents := range seen {
		for a := range agents {
			out[p] = append(out[p], a)
		}
		sort.Ints(out[p])
	}
	return out
}

func argmax(v []float64) int {
	best := 0
	for i := range v {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}

// ─────────────────────────────────────────────────────────────────────────────
// Connectivity repair
// ─────────────────────────────────────────────────────────────────────────────

// components returns the connected link components of agent, largest first.
func (pt *partitioner) components(agent int) [][]int {
	idx := pt.linksOf(agent)
	parent := make(map[int]int)
	var find func(int) int
	find = func(x int) int {
		if _, ok := parent[x]; !ok {
			parent[x] = x
		}
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	for _, li := range idx {
		l := pt.p.Links[li]
		ra, rb := find(l.A), find(l.B)
		if ra != rb {
			if ra < rb {
				parent[rb] = ra
			} else {
				parent[ra] = rb
			}
		}
	}
	groups := make(map[int][]int)
	var roots []int
	for _, li := range idx {
		r := find(pt.p.Links[li].A)
		if _, ok := groups[r]; !ok {
			roots = append(roots, r)
		}
		groups[r] = append(groups[r], li)
	}
	out := make([][]int, 0, len(roots))
	for _, r := range roots {
		out = append(out, groups[r])
	}
	sort.SliceStable(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return out
}

func (pt *partitioner) repair() {
	for iter := 0; iter < len(pt.p.Links); iter++ {
		moved := false
		for a := 0; a < pt.k; a++ {
			comps := pt.components(a)
			if len(comps) < 2 {
				continue
			}
			owners := pt.portalOwners()
			for _, comp := range comps[1:] {
				if t := pt.adoptive(comp, a, owners); t >= 0 {
					for _, li := range comp {
						pt.assign[li] = t
					}
					moved = true
				}
			}
		}
		if !moved {
			return
		}
	}
}

// adoptive returns the agent other than from sharing the most portals with
// comp, or -1.
func (pt *partitioner) adoptive(comp []int, from int, owners map[int][]int) int {
	votes := make(map[int]int)
	for _, li := range comp {
		l := pt.p.Links[li]
		for _, p := range [2]int{l.A, l.B} {
			for _, a := range owners[p] {
				if a != from {
					votes[a]++
				}
			}
		}
	}
	best, bestVotes := -1, 0
	for a, v := range votes {
		if v > bestVotes || (v == bestVotes && a < best) {
			best, bestVotes = a, v
		}
	}
	return best
}

// ─────────────────────────────────────────────────────────────────────────────
// Final schedules
// ─────────────────────────────────────────────────────────────────────────────

// subset returns the links of idx, the fields fully inside them, and the maps
// from local to global indices.
func (pt *partitioner) subset(idx []int) ([]plan.Link, []plan.Field, []int, []int) {
	links := make([]plan.Link, len(idx))
	have := make(map[plan.Link]bool, len(idx))
	for i, li := range idx {
		links[i] = pt.p.Links[li]
		have[links[i]] = true
	}
	var fields []plan.Field
	var fieldIdx []int
	for fi, f := range pt.p.Fields {
		e := f.Edges()
		if have[e[0]] && have[e[1]] && have[e[2]] {
			fields = append(fields, f)
			fieldIdx = append(fieldIdx, fi)
		}
	}
	return links, fields, idx, fieldIdx
}

type drawRef struct {
	agent  int
	action int
	meters float64
}

func (pt *partitioner) finish() ([]plan.AgentPlan, error) {
	agents := make([]plan.AgentPlan, pt.k)
	drawnBy := make(map[int]drawRef, len(pt.p.Links))

	for a := 0; a < pt.k; a++ {
		idx := pt.linksOf(a)
		links, fields, linkIdx, _ := pt.subset(idx)
		res, err := scheduler.Schedule(pt.metric, links, fields, scheduler.Options{Start: -1, Rewards: pt.opts.Rewards})
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeUnknown, "schedule agent")
		}
		for i := range res.Actions {
			act := &res.Actions[i]
			act.FieldsCompleted = nil
			if act.LinkIndex >= 0 {
				act.LinkIndex = linkIdx[act.LinkIndex]
				drawnBy[act.LinkIndex] = drawRef{agent: a, action: i, meters: act.CumulativeMeters}
			}
		}
		agents[a] = plan.AgentPlan{Agent: a, Links: idx, Actions: res.Actions}
		if agents[a].Links == nil {
			agents[a].Links = []int{}
		}
	}

	index := make(map[plan.Link]int, len(pt.p.Links))
	for i, l := range pt.p.Links {
		index[l] = i
	}
	for fi, f := range pt.p.Fields {
		var last drawRef
		found := 0
		for _, e := range f.Edges() {
			li, ok := index[e]
			if !ok {
				break
			}
			ref, ok := drawnBy[li]
			if !ok {
				break
			}
			found++
			if found == 1 || ref.meters > last.meters ||
				(ref.meters == last.meters && ref.agent < last.agent) ||
				(ref.meters == last.meters && ref.agent == last.agent && ref.action > last.action) {
				last = ref
			}
		}
		if found < 3 {
			continue
		}
		act := &agents[last.agent].Actions[last.action]
		act.FieldsCompleted = append(act.FieldsCompleted, fi)
		agents[last.agent].Fields = append(agents[last.agent].Fields, fi)
	}

	for a := range agents {
		agents[a].TotalAP, agents[a].TotalMeters = scheduler.Recredit(agents[a].Actions, pt.p.Fields, pt.opts.Rewards)
		if agents[a].Fields == nil {
			agents[a].Fields = []int{}
		}
	}
	return agents, nil
}

//Personal.AI order the ending
