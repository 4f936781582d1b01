// Package maximizer searches for a nested field decomposition of a point set
// that maximises the number of fields.
//
// A single restart triangulates the convex hull by ear clipping and then
// repeatedly splits every triangle at an interior point, producing three
// nested children. Both steps run on an explicit work-list of frames. When
// collinear points block every split of a triangle, the triangle keeps its
// remaining points; if that exceeds the field capacity the field is dropped.
//
// Restart 0 is fully greedy. Later restarts pick randomly among the top ranked
// choices with a per-restart seed, so a fixed Options.Seed reproduces the same
// result. Restarts run on a worker pool and report immutable snapshots to a
// single accumulator.
package maximizer

import (
	"context"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/fieldplan/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/fieldplan/internal/planning/candidate"
	"github.com/turtacn/fieldplan/internal/planning/geometry"
	"github.com/turtacn/fieldplan/pkg/errors"
	"github.com/turtacn/fieldplan/pkg/types/plan"
)

// Defaults applied by Options when a field is zero.
const (
	DefaultMaxRestarts = 64
	DefaultTopK        = 3
	DefaultCapacity    = 8
)

// Options controls the restart search.
type Options struct {
	// MaxRestarts bounds the number of restarts. Restart 0 always runs.
	MaxRestarts int
	// TimeBudget stops dispatching new restarts once exceeded. Zero means no
	// time limit.
	TimeBudget time.Duration
	// Workers is the size of the restart pool. Defaults to GOMAXPROCS.
	Workers int
	// TopK is how many ranked choices a randomised restart picks from.
	TopK int
	// Seed is the base seed; restart r uses Seed+r.
	Seed int64
	// Capacity is the most unabsorbed portals a field may hold.
	Capacity int
	// Evaluate returns the walking cost of a decomposition. Lower cost wins
	// among decompositions with equal field counts. Defaults to total link
	// length.
	Evaluate func(*Decomposition) (float64, error)
	Logger   logging.Logger
}

func (o Options) withDefaults(pts []geometry.Vec) Options {
	if o.MaxRestarts <= 0 {
		o.MaxRestarts = DefaultMaxRestarts
	}
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.Workers > o.MaxRestarts {
		o.Workers = o.MaxRestarts
	}
	if o.TopK <= 0 {
		o.TopK = DefaultTopK
	}
	if o.Capacity <= 0 {
		o.Capacity = DefaultCapacity
	}
	if o.Evaluate == nil {
		o.Evaluate = func(d *Decomposition) (float64, error) {
			return linkLength(pts, d.Links), nil
		}
	}
	if o.Logger == nil {
		o.Logger = logging.NewNopLogger()
	}
	return o
}

// Drop records a region the decomposition had to give up on.
type Drop struct {
	Corners []int
	Points  []int
	Reason  string
}

// Decomposition is the immutable outcome of one restart.
type Decomposition struct {
	Restart int
	Links   []plan.Link
	Fields  []plan.Field
	Dropped []Drop
	Cost    float64
}

// Result is the best decomposition found plus search statistics.
type Result struct {
	Best     *Decomposition
	Restarts int
	Workers  int
	Elapsed  time.Duration
}

// better orders decompositions: more fields, then lower cost, then earlier
// restart.
func better(a, b *Decomposition) bool {
	if len(a.Fields) != len(b.Fields) {
		return len(a.Fields) > len(b.Fields)
	}
	if a.Cost != b.Cost {
		return a.Cost < b.Cost
	}
	return a.Restart < b.Restart
}

type accumulator struct {
	mu    sync.Mutex
	best  *Decomposition
	count int
}

func (a *accumulator) offer(d *Decomposition) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.count++
	if a.best == nil || better(d, a.best) {
		a.best = d
	}
}

func (a *accumulator) snapshot() (*Decomposition, int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.best, a.count
}

// Maximize runs the restart search over pts. Fewer than three points yield an
// empty decomposition and InsufficientPoints; collinear input yields a
// non-crossing chain of links with no fields and DegenerateGeometry. In both
// cases the returned Result is usable.
func Maximize(ctx context.Context, pts []geometry.Vec, cand *candidate.Graph, opts Options) (*Result, error) {
	opts = opts.withDefaults(pts)
	start := time.Now()

	if len(pts) < 3 {
		return &Result{Best: &Decomposition{}, Elapsed: time.Since(start)},
			errors.Newf(errors.ErrCodeInsufficientPoints, "need at least 3 portals, got %d", len(pts))
	}
	if geometry.AllCollinear(pts) {
		dec := collinearChain(pts)
		cost, err := opts.Evaluate(dec)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeUnknown, "evaluate collinear chain")
		}
		dec.Cost = cost
		return &Result{Best: dec, Restarts: 1, Workers: 1, Elapsed: time.Since(start)},
			errors.Newf(errors.ErrCodeDegenerateGeometry, "all %d portals are collinear", len(pts))
	}

	var deadline time.Time
	if opts.TimeBudget > 0 {
		deadline = start.Add(opts.TimeBudget)
	}

	acc := &accumulator{}
	jobs := make(chan int)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(jobs)
		for r := 0; r < opts.MaxRestarts; r++ {
			if r > 0 && !deadline.IsZero() && time.Now().After(deadline) {
				opts.Logger.Debug("time budget reached", logging.Int("dispatched", r))
				return nil
			}
			select {
			case jobs <- r:
			case <-gctx.Done():
				return nil
			}
		}
		return nil
	})

	for w := 0; w < opts.Workers; w++ {
		g.Go(func() error {
			for r := range jobs {
				dec, err := runRestart(gctx, pts, cand, opts, r)
				if err != nil {
					return err
				}
				acc.offer(dec)
			}
			return nil
		})
	}

	err := g.Wait()
	best, count := acc.snapshot()
	res := &Result{Best: best, Restarts: count, Workers: opts.Workers, Elapsed: time.Since(start)}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, errors.Wrap(ctxErr, errors.ErrCodeTimeout, "field search interrupted")
	}
	if err != nil {
		return res, errors.Wrap(err, errors.CodeUnknown, "field search failed")
	}
	if best == nil {
		return res, errors.Internal("field search produced no decomposition")
	}

	opts.Logger.Debug("field search finished",
		logging.Int("restarts", count),
		logging.Int("best_restart", best.Restart),
		logging.Int("fields", len(best.Fields)),
		logging.Float64("cost_m", best.Cost),
		logging.Duration("elapsed", res.Elapsed),
	)
	return res, nil
}

func runRestart(ctx context.Context, pts []geometry.Vec, cand *candidate.Graph, opts Options, r int) (*Decomposition, error) {
	b := newBuilder(ctx, pts, cand, opts, r)
	dec, err := b.run()
	if err != nil {
		return nil, err
	}
	cost, err := opts.Evaluate(dec)
	if err != nil {
		return nil, err
	}
	dec.Cost = cost
	return dec, nil
}

func collinearChain(pts []geometry.Vec) *Decomposition {
	order := geometry.OrderAlongLine(pts)
	dec := &Decomposition{}
	for i := 1; i < len(order); i++ {
		dec.Links = append(dec.Links, plan.NewLink(order[i-1], order[i]))
	}
	return dec
}

func linkLength(pts []geometry.Vec, links []plan.Link) float64 {
	var total float64
	for _, l := range links {
		total += geometry.Dist(pts[l.A], pts[l.B])
	}
	return total
}

//Personal.AI order the ending
