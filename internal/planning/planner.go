// Package planning runs the full field planning pipeline: normalise portals,
// project them, build the candidate graph, search for the best nested field
// decomposition, order the build, validate the result and optionally split it
// across several agents.
package planning

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/fieldplan/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/fieldplan/internal/planning/candidate"
	"github.com/turtacn/fieldplan/internal/planning/geometry"
	"github.com/turtacn/fieldplan/internal/planning/maximizer"
	"github.com/turtacn/fieldplan/internal/planning/partition"
	"github.com/turtacn/fieldplan/internal/planning/scheduler"
	"github.com/turtacn/fieldplan/pkg/errors"
	"github.com/turtacn/fieldplan/pkg/types/plan"
)

// Options controls one planning run. Zero values fall back to defaults.
type Options struct {
	TimeBudget  time.Duration
	MaxRestarts int
	Workers     int
	TopK        int
	Seed        int64
	Capacity    int
	Rewards     plan.Rewards

	// StartPortal names the portal the build starts at. Empty starts at the
	// medoid of the linked portals.
	StartPortal string

	// Agents splits the plan when greater than one.
	Agents    int
	Partition partition.Options
}

// DefaultOptions mirrors the CLI defaults.
func DefaultOptions() Options {
	return Options{
		TimeBudget:  10 * time.Second,
		MaxRestarts: maximizer.DefaultMaxRestarts,
		TopK:        maximizer.DefaultTopK,
		Capacity:    maximizer.DefaultCapacity,
		Rewards:     plan.DefaultRewards(),
		Agents:      1,
	}
}

func (o Options) withDefaults() Options {
	if o.Capacity <= 0 {
		o.Capacity = maximizer.DefaultCapacity
	}
	if o.Rewards == (plan.Rewards{}) {
		o.Rewards = plan.DefaultRewards()
	}
	if o.Agents <= 0 {
		o.Agents = 1
	}
	o.Partition.Rewards = o.Rewards
	return o
}

// Planner runs the pipeline. It holds no per-run state and is safe for
// concurrent use.
type Planner struct {
	logger logging.Logger
	now    func() time.Time
	newID  func() string
}

// NewPlanner creates a Planner. A nil logger discards output.
func NewPlanner(logger logging.Logger) *Planner {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Planner{
		logger: logger.Named("planner"),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return uuid.New().String() },
	}
}

// Plan builds a single-agent plan. Degenerate input still yields a usable
// plan together with an InsufficientPoints or DegenerateGeometry error; the
// returned plan is nil only when the run was cancelled or failed outright.
func (p *Planner) Plan(ctx context.Context, portals []plan.Portal, opts Options) (*plan.Plan, error) {
	opts = opts.withDefaults()
	started := time.Now()

	norm, warnings, err := Normalize(portals)
	if err != nil {
		return nil, err
	}
	out := &plan.Plan{
		ID:        p.newID(),
		CreatedAt: p.now(),
		Portals:   norm,
		Links:     []plan.Link{},
		Fields:    []plan.Field{},
		Actions:   []plan.Action{},
		Rewards:   opts.Rewards,
		Warnings:  warnings,
		Stats:     plan.Stats{Seed: opts.Seed},
	}
	for _, w := range warnings {
		p.logger.Warn("portal dropped", logging.String("code", w.Code), logging.String("detail", w.Message))
	}

	if len(norm) < 3 {
		return out, errors.Newf(errors.ErrCodeInsufficientPoints, "need at least 3 distinct portals, got %d", len(norm))
	}

	sopts := scheduler.Options{Start: -1, Rewards: opts.Rewards}
	if opts.StartPortal != "" {
		idx, ok := FindPortal(norm, opts.StartPortal)
		if !ok {
			return nil, errors.InvalidParam("unknown start portal").WithDetail(opts.StartPortal)
		}
		sopts.Start = idx
	}

	pts := geometry.Project(norm)
	metric := geometry.NewDistanceMatrix(norm)

	cand, err := candidate.Build(pts)
	if err != nil && !errors.IsCode(err, errors.ErrCodeDegenerateGeometry) {
		return nil, errors.Wrap(err, errors.CodeUnknown, "build candidate graph")
	}
	if cand != nil {
		out.Stats.CandidateEdges = cand.EdgeCount()
	}

	res, searchErr := maximizer.Maximize(ctx, pts, cand, maximizer.Options{
		MaxRestarts: opts.MaxRestarts,
		TimeBudget:  opts.TimeBudget,
		Workers:     opts.Workers,
		TopK:        opts.TopK,
		Seed:        opts.Seed,
		Capacity:    opts.Capacity,
		Evaluate: func(d *maximizer.Decomposition) (float64, error) {
			s, err := scheduler.Schedule(metric, d.Links, d.Fields, sopts)
			if err != nil {
				return 0, err
			}
			return s.TotalMeters, nil
		},
		Logger: p.logger,
	})
	var partial error
	switch {
	case searchErr == nil:
	case errors.IsCode(searchErr, errors.ErrCodeDegenerateGeometry):
		partial = searchErr
		out.AddWarning(string(errors.ErrCodeDegenerateGeometry), "portals are collinear; no field is possible")
	default:
		return nil, searchErr
	}

	best := res.Best
	sched, err := scheduler.Schedule(metric, best.Links, best.Fields, sopts)
	if err != nil {
		return nil, err
	}

	out.Links = best.Links
	out.Fields = best.Fields
	out.Actions = sched.Actions
	out.TotalAP = sched.TotalAP
	out.TotalMeters = sched.TotalMeters
	out.Stats.Restarts = res.Restarts
	out.Stats.BestRestart = best.Restart
	out.Stats.Workers = res.Workers
	if out.Links == nil {
		out.Links = []plan.Link{}
	}
	if out.Fields == nil {
		out.Fields = []plan.Field{}
	}
	if out.Actions == nil {
		out.Actions = []plan.Action{}
	}

	for _, d := range best.Dropped {
		ids := append(append([]int(nil), d.Corners...), d.Points...)
		out.AddWarning(string(errors.ErrCodeInfeasibleDecomposition), d.Reason, ids...)
		p.logger.Warn("region left unfielded",
			logging.String("reason", d.Reason),
			logging.Int("portals", len(d.Points)))
	}

	if err := validate(out, opts.Capacity); err != nil {
		return out, err
	}

	if opts.Agents > 1 {
		agents, err := partition.Partition(out, metric, pts, opts.Agents, opts.Partition)
		if err != nil {
			return nil, err
		}
		out.Agents = agents
		if err := validateAgents(out); err != nil {
			return out, err
		}
	}

	out.Stats.Elapsed = time.Since(started)
	p.logger.Info("plan built",
		logging.String("id", out.ID),
		logging.Int("portals", len(out.Portals)),
		logging.Int("links", len(out.Links)),
		logging.Int("fields", len(out.Fields)),
		logging.Int("total_ap", out.TotalAP),
		logging.Float64("total_m", out.TotalMeters),
		logging.Int("agents", opts.Agents),
		logging.Duration("elapsed", out.Stats.Elapsed),
	)
	return out, partial
}

// PlanAgents builds a plan and splits it across k agents.
func (p *Planner) PlanAgents(ctx context.Context, portals []plan.Portal, k int, opts Options) (*plan.Plan, error) {
	if k < 1 {
		return nil, errors.Newf(errors.ErrCodeInvalidAgentCount, "agent count must be at least 1, got %d", k)
	}
	opts.Agents = k
	return p.Plan(ctx, portals, opts)
}

//Personal.AI order the ending
