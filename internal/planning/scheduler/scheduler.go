// Package scheduler orders a finished set of links into a walkable build
// sequence.
//
// An operator draws a link u→v while standing at u and holding v's key; a key
// is collected by visiting its portal. Link u→v is therefore eligible as soon
// as v has been visited. The eligible set is maintained incrementally: every
// newly visited portal adds its undrawn links. Each step takes the eligible
// action with the shortest walk from the current position, preferring actions
// that complete more fields and then the lowest link index. When nothing is
// eligible the operator walks to the nearest portal that still has undrawn
// links to collect its key.
package scheduler

import (
	"math"
	"sort"

	"github.com/turtacn/fieldplan/pkg/errors"
	"github.com/turtacn/fieldplan/pkg/types/plan"
)

// Metric returns the walking distance in metres between two portals.
type Metric interface {
	Distance(i, j int) float64
}

// Options controls a scheduling run.
type Options struct {
	// Start is the portal the operator begins at; negative picks the medoid of
	// the portals touched by links.
	Start   int
	Rewards plan.Rewards
}

// DefaultOptions starts at the medoid with default rewards.
func DefaultOptions() Options {
	return Options{Start: -1, Rewards: plan.DefaultRewards()}
}

// Result is an ordered build sequence.
type Result struct {
	Actions     []plan.Action
	TotalAP     int
	TotalMeters float64
}

// tieEps is the walking distance difference, in metres, treated as a tie.
const tieEps = 1e-6

type state struct {
	metric  Metric
	links   []plan.Link
	fields  []plan.Field
	rewards plan.Rewards

	incident  map[int][]int // portal -> link indices
	portals   []int         // linked portals, ascending
	fieldsOf  [][]int       // link -> field indices
	remaining []int         // field -> undrawn edges
	drawn     []bool
	visited   map[int]bool
	eligible  []int
	inElig    []bool
	left      int

	cur     int
	actions []plan.Action
	ap      int
	meters  float64
}

// Schedule orders links into a build sequence. fields are credited at the
// action that draws their last edge; a field whose edges are not all in links
// is never credited.
func Schedule(metric Metric, links []plan.Link, fields []plan.Field, opts Options) (*Result, error) {
	s := newState(metric, links, fields, opts.Rewards)
	if len(links) == 0 {
		return &Result{}, nil
	}

	start := opts.Start
	if start < 0 {
		start = s.medoid()
	}
	s.cur = start
	s.keyVisit(start)

	maxSteps := 2*len(links) + len(s.incident) + 2
	for steps := 0; s.left > 0; steps++ {
		if steps > maxSteps {
			return nil, errors.Newf(errors.ErrCodeSchedulingDeadlock,
				"no progress after %d steps with %d links left", steps, s.left)
		}
		if li, origin, ok := s.bestAction(); ok {
			s.draw(li, origin)
			continue
		}
		next, ok := s.nearestPending()
		if !ok {
			return nil, errors.Newf(errors.ErrCodeSchedulingDeadlock,
				"%d links left but no portal to visit", s.left)
		}
		s.keyVisit(next)
	}

	return &Result{Actions: s.actions, TotalAP: s.ap, TotalMeters: s.meters}, nil
}

func newState(metric Metric, links []plan.Link, fields []plan.Field, rewards plan.Rewards) *state {
	s := &state{
		metric:    metric,
		links:     links,
		fields:    fields,
		rewards:   rewards,
		incident:  make(map[int][]int),
		fieldsOf:  make([][]int, len(links)),
		remaining: make([]int, len(fields)),
		drawn:     make([]bool, len(links)),
		visited:   make(map[int]bool),
		inElig:    make([]bool, len(links)),
		left:      len(links),
		cur:       -1,
	}
	index := make(map[plan.Link]int, len(links))
	for i, l := range links {
		index[l] = i
		s.incident[l.A] = append(s.incident[l.A], i)
		s.incident[l.B] = append(s.incident[l.B], i)
	}
	for p := range s.incident {
		s.portals = append(s.portals, p)
	}
	sort.Ints(s.portals)
	for fi, f := range fields {
		edges := f.Edges()
		ids := make([]int, 0, 3)
		for _, e := range edges {
			if li, ok := index[e]; ok {
				ids = append(ids, li)
			}
		}
		if len(ids) < 3 {
			s.remaining[fi] = -1
			continue
		}
		s.remaining[fi] = 3
		for _, li := range ids {
			s.fieldsOf[li] = append(s.fieldsOf[li], fi)
		}
	}
	return s
}

// medoid is the linked portal with the smallest total distance to every other
// linked portal.
func (s *state) medoid() int {
	best, bestSum := -1, math.Inf(1)
	for _, p := range s.portals {
		var sum float64
		for _, q := range s.portals {
			if p != q {
				sum += s.metric.Distance(p, q)
			}
		}
		if sum < bestSum {
			best, bestSum = p, sum
		}
	}
	return best
}

func (s *state) walk(to int) float64 {
	if s.cur < 0 || s.cur == to {
		return 0
	}
	return s.metric.Distance(s.cur, to)
}

func (s *state) visit(p int) {
	if s.visited[p] {
		return
	}
	s.visited[p] = true
	for _, li := range s.incident[p] {
		if !s.drawn[li] && !s.inElig[li] {
			s.inElig[li] = true
			s.eligible = append(s.eligible, li)
		}
	}
}

func (s *state) keyVisit(p int) {
	w := s.walk(p)
	s.meters += w
	s.cur = p
	s.visit(p)
	s.actions = append(s.actions, plan.Action{
		Kind:             plan.ActionKey,
		Origin:           p,
		Dest:             p,
		LinkIndex:        -1,
		WalkMeters:       w,
		CumulativeAP:     s.ap,
		CumulativeMeters: s.meters,
	})
}

// completes counts the fields drawing li would finish.
func (s *state) completes(li int) int {
	n := 0
	for _, fi := range s.fieldsOf[li] {
		if s.remaining[fi] == 1 {
			n++
		}
	}
	return n
}

// bestAction scans the eligible set for the cheapest directed action.
func (s *state) bestAction() (link, origin int, ok bool) {
	bestWalk := math.Inf(1)
	bestDone := -1
	link, origin = -1, -1
	for _, li := range s.eligible {
		l := s.links[li]
		done := s.completes(li)
		for _, o := range [2]int{l.A, l.B} {
			if !s.visited[l.Other(o)] {
				continue
			}
			w := s.walk(o)
			better := false
			switch {
			case link < 0:
				better = true
			case w < bestWalk-tieEps:
				better = true
			case w > bestWalk+tieEps:
			case done != bestDone:
				better = done > bestDone
			case li != link:
				better = li < link
			default:
				better = o < origin
			}
			if better {
				bestWalk, bestDone, link, origin = w, done, li, o
			}
		}
	}
	return link, origin, link >= 0
}

func (s *state) draw(li, origin int) {
	l := s.links[li]
	dest := l.Other(origin)
	w := s.walk(origin)
	s.meters += w
	s.cur = origin
	s.drawn[li] = true
	s.left--
	s.removeEligible(li)
	s.visit(origin)

	linkAP := s.rewards.LinkReward(s.metric.Distance(l.A, l.B))
	s.ap += linkAP

	var completed []int
	fieldAP := 0
	for _, fi := range s.fieldsOf[li] {
		s.remaining[fi]--
		if s.remaining[fi] == 0 {
			completed = append(completed, fi)
			fieldAP += s.rewards.FieldReward(s.fields[fi])
		}
	}
	s.ap += fieldAP

	s.actions = append(s.actions, plan.Action{
		Kind:             plan.ActionLink,
		Origin:           origin,
		Dest:             dest,
		LinkIndex:        li,
		LinkAP:           linkAP,
		FieldsCompleted:  completed,
		FieldAP:          fieldAP,
		WalkMeters:       w,
		CumulativeAP:     s.ap,
		CumulativeMeters: s.meters,
	})
}

func (s *state) removeEligible(li int) {
	if !s.inElig[li] {
		return
	}
	s.inElig[li] = false
	for i, x := range s.eligible {
		if x == li {
			last := len(s.eligible) - 1
			s.eligible[i] = s.eligible[last]
			s.eligible = s.eligible[:last]
			return
		}
	}
}

// nearestPending returns the closest portal that still has undrawn links.
func (s *state) nearestPending() (int, bool) {
	best, bestD := -1, math.Inf(1)
	for li, l := range s.links {
		if s.drawn[li] {
			continue
		}
		for _, p := range [2]int{l.A, l.B} {
			d := s.walk(p)
			if d < bestD-tieEps || (math.Abs(d-bestD) <= tieEps && p < best) {
				best, bestD = p, d
			}
		}
	}
	return best, best >= 0
}

// Recredit recomputes per-action AP after fields were reassigned to actions,
// e.g. by the partitioner. Link AP on each action is kept.
func Recredit(actions []plan.Action, fields []plan.Field, rewards plan.Rewards) (totalAP int, totalMeters float64) {
	for i := range actions {
		a := &actions[i]
		a.FieldAP = 0
		for _, fi := range a.FieldsCompleted {
			a.FieldAP += rewards.FieldReward(fields[fi])
		}
		totalAP += a.LinkAP + a.FieldAP
		totalMeters += a.WalkMeters
		a.CumulativeAP = totalAP
		a.CumulativeMeters = totalMeters
	}
	return totalAP, totalMeters
}

//Personal.AI order the ending
