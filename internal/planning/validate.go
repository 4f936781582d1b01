package planning

import (
	"fmt"

	"github.com/turtacn/fieldplan/internal/planning/geometry"
	"github.com/turtacn/fieldplan/internal/planning/maximizer"
	"github.com/turtacn/fieldplan/pkg/errors"
	"github.com/turtacn/fieldplan/pkg/types/plan"
)

// Validate checks every structural invariant of a plan: links never cross,
// fields are closed and within capacity, the build order only links toward
// portals already visited, and the AP totals add up. Agent splits, when
// present, must cover every link exactly once.
func Validate(p *plan.Plan) error {
	if err := validate(p, maximizer.DefaultCapacity); err != nil {
		return err
	}
	if len(p.Agents) > 0 {
		return validateAgents(p)
	}
	return nil
}

func invalid(format string, args ...interface{}) error {
	return errors.New(errors.ErrCodeValidationFailed, "plan failed validation").
		WithDetail(fmt.Sprintf(format, args...))
}

func validate(p *plan.Plan, capacity int) error {
	n := len(p.Portals)
	pts := geometry.Project(p.Portals)

	index := make(map[plan.Link]int, len(p.Links))
	for i, l := range p.Links {
		if l.A < 0 || l.B >= n || l.A >= l.B {
			return invalid("link %d %v is not a canonical portal pair", i, l)
		}
		if _, dup := index[l]; dup {
			return invalid("link %v appears twice", l)
		}
		index[l] = i
	}

	for i := 0; i < len(p.Links); i++ {
		a := p.Links[i]
		for j := i + 1; j < len(p.Links); j++ {
			b := p.Links[j]
			if geometry.SegmentsCross(pts[a.A], pts[a.B], pts[b.A], pts[b.B]) {
				return invalid("links %s-%s and %s-%s cross",
					p.PortalName(a.A), p.PortalName(a.B), p.PortalName(b.A), p.PortalName(b.B))
			}
		}
	}

	for i, f := range p.Fields {
		if f.A < 0 || f.C >= n || f.A >= f.B || f.B >= f.C {
			return invalid("field %d %v is not a canonical portal triple", i, f)
		}
		for _, e := range f.Edges() {
			if _, ok := index[e]; !ok {
				return invalid("field %d is missing edge %v", i, e)
			}
		}
	}
	if err := validateCapacity(p, pts, capacity); err != nil {
		return err
	}
	if err := validateOrder(p, p.Actions, index); err != nil {
		return err
	}

	want := 0
	for _, l := range p.Links {
		want += p.Rewards.LinkReward(geometry.PlanarDistance(p.Portals[l.A], p.Portals[l.B]))
	}
	for _, f := range p.Fields {
		want += p.Rewards.FieldReward(f)
	}
	if want != p.TotalAP {
		return invalid("total AP is %d, links and fields are worth %d", p.TotalAP, want)
	}
	got := 0
	for _, a := range p.Actions {
		got += a.LinkAP + a.FieldAP
	}
	if got != p.TotalAP {
		return invalid("actions credit %d AP, plan total is %d", got, p.TotalAP)
	}
	return nil
}

// validateCapacity counts, for each field, the portals inside it that no
// nested field absorbs.
func validateCapacity(p *plan.Plan, pts []geometry.Vec, capacity int) error {
	contains := func(f plan.Field, q int) bool {
		return geometry.PointInTriangle(pts[q], pts[f.A], pts[f.B], pts[f.C])
	}
	for i, f := range p.Fields {
		var nested []plan.Field
		for j, g := range p.Fields {
			if j != i && contains(f, g.A) && contains(f, g.B) && contains(f, g.C) {
				nested = append(nested, g)
			}
		}
		loose := 0
		for q := range pts {
			if f.HasCorner(q) || !contains(f, q) {
				continue
			}
			absorbed := false
			for _, g := range nested {
				if contains(g, q) {
					absorbed = true
					break
				}
			}
			if !absorbed {
				loose++
			}
		}
		if loose > capacity {
			return invalid("field %d holds %d unabsorbed portals, capacity is %d", i, loose, capacity)
		}
	}
	return nil
}

// validateOrder checks that every link action targets a portal already
// visited and that each expected link is drawn exactly once.
func validateOrder(p *plan.Plan, actions []plan.Action, index map[plan.Link]int) error {
	visited := make(map[int]bool)
	drawn := make(map[int]bool)
	for i, a := range actions {
		switch a.Kind {
		case plan.ActionKey:
		case plan.ActionLink:
			if a.LinkIndex < 0 || a.LinkIndex >= len(p.Links) {
				return invalid("action %d references link %d", i, a.LinkIndex)
			}
			if p.Links[a.LinkIndex] != plan.NewLink(a.Origin, a.Dest) || a.Origin == a.Dest {
				return invalid("action %d does not draw link %d", i, a.LinkIndex)
			}
			if drawn[a.LinkIndex] {
				return invalid("link %d is drawn twice", a.LinkIndex)
			}
			if i > 0 && !visited[a.Origin] && !visited[a.Dest] {
				return invalid("action %d links %s to %s before either was visited",
					i, p.PortalName(a.Origin), p.PortalName(a.Dest))
			}
			drawn[a.LinkIndex] = true
		default:
			return invalid("action %d has unknown kind %q", i, a.Kind)
		}
		visited[a.Origin] = true
	}
	if index != nil && len(drawn) != len(index) {
		return invalid("%d of %d links are drawn", len(drawn), len(index))
	}
	return nil
}

func validateAgents(p *plan.Plan) error {
	owner := make(map[int]int, len(p.Links))
	ap := 0
	for _, ag := range p.Agents {
		for _, li := range ag.Links {
			if li < 0 || li >= len(p.Links) {
				return invalid("agent %d owns unknown link %d", ag.Agent, li)
			}
			if prev, dup := owner[li]; dup {
				return invalid("link %d is owned by agents %d and %d", li, prev, ag.Agent)
			}
			owner[li] = ag.Agent
		}
		for i, a := range ag.Actions {
			if a.Kind != plan.ActionLink {
				continue
			}
			if o, ok := owner[a.LinkIndex]; !ok || o != ag.Agent {
				return invalid("agent %d action %d draws a link it does not own", ag.Agent, i)
			}
		}
		if err := validateOrder(p, ag.Actions, nil); err != nil {
			return err
		}
		ap += ag.TotalAP
	}
	if len(owner) != len(p.Links) {
		return invalid("agents own %d of %d links", len(owner), len(p.Links))
	}
	if ap != p.TotalAP {
		return invalid("agents earn %d AP, plan total is %d", ap, p.TotalAP)
	}
	return nil
}

//Personal.AI order the ending
