// Package planning provides the application-level planning service. It sits
// between the CLI, HTTP and Lambda surfaces and the planning core, adding the
// plan cache, run history, plan export and metrics.
package planning

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	stderrors "errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/turtacn/fieldplan/internal/config"
	"github.com/turtacn/fieldplan/internal/infrastructure/database/sqlite"
	"github.com/turtacn/fieldplan/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/fieldplan/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/fieldplan/internal/infrastructure/storage/planfile"
	core "github.com/turtacn/fieldplan/internal/planning"
	"github.com/turtacn/fieldplan/internal/planning/partition"
	"github.com/turtacn/fieldplan/pkg/errors"
	"github.com/turtacn/fieldplan/pkg/types/plan"
)

// ─────────────────────────────────────────────────────────────────────────────
// Collaborators
// ─────────────────────────────────────────────────────────────────────────────

// Planner computes plans. *core.Planner satisfies it.
type Planner interface {
	Plan(ctx context.Context, portals []plan.Portal, opts core.Options) (*plan.Plan, error)
}

// PlanCache stores computed plans by input hash. *redis.PlanCache satisfies it.
type PlanCache interface {
	GetOrCompute(ctx context.Context, key string, ttl time.Duration,
		compute func(ctx context.Context) (*plan.Plan, error)) (*plan.Plan, bool, error)
	GetByID(ctx context.Context, id string) (*plan.Plan, error)
	Ping(ctx context.Context) error
}

// HistoryStore records every computed plan. *sqlite.Store satisfies it.
type HistoryStore interface {
	Save(ctx context.Context, p *plan.Plan, meta sqlite.Meta) error
	Get(ctx context.Context, id string) (*plan.Plan, error)
	List(ctx context.Context, limit int) ([]sqlite.Record, error)
	Ping(ctx context.Context) error
}

// Archive uploads exported plan files. *minio.PlanArchive satisfies it.
type Archive interface {
	Upload(ctx context.Context, id string, data []byte, compressed bool) (string, error)
}

// ─────────────────────────────────────────────────────────────────────────────
// DTOs
// ─────────────────────────────────────────────────────────────────────────────

// PlanRequest asks for a plan. Zero-valued tunables fall back to the service
// configuration.
type PlanRequest struct {
	Portals     []plan.Portal `json:"portals"`
	Agents      int           `json:"agents,omitempty"`
	Seed        *int64        `json:"seed,omitempty"`
	TimeBudget  time.Duration `json:"-"`
	MaxRestarts int           `json:"max_restarts,omitempty"`
	Workers     int           `json:"workers,omitempty"`
	StartPortal string        `json:"start,omitempty"`
	// NoCache bypasses the plan cache for both lookup and store.
	NoCache bool `json:"no_cache,omitempty"`
}

// PlanResponse is a computed or cached plan.
type PlanResponse struct {
	Plan      *plan.Plan `json:"plan"`
	Cached    bool       `json:"cached"`
	InputHash string     `json:"input_hash"`
}

// ExportOptions controls Export.
type ExportOptions struct {
	// Dir receives the plan file. Empty skips the local write.
	Dir      string
	Compress bool
	Upload   bool
}

// ExportResult reports where a plan was written.
type ExportResult struct {
	Path      string `json:"path,omitempty"`
	ObjectKey string `json:"object_key,omitempty"`
}

// Config carries the service defaults.
type Config struct {
	Planner   config.PlannerConfig
	Rewards   plan.Rewards
	Partition config.PartitionConfig
	CacheTTL  time.Duration
}

// ConfigFrom extracts the service configuration from the root config.
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		Planner:   cfg.Planner,
		Rewards:   cfg.Rewards,
		Partition: cfg.Partition,
		CacheTTL:  cfg.Redis.TTL,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Service
// ─────────────────────────────────────────────────────────────────────────────

// Service defines the planning application operations.
type Service interface {
	Plan(ctx context.Context, req *PlanRequest) (*PlanResponse, error)
	Get(ctx context.Context, id string) (*plan.Plan, error)
	List(ctx context.Context, limit int) ([]sqlite.Record, error)
	Export(ctx context.Context, p *plan.Plan, opts ExportOptions) (*ExportResult, error)
	// UpdateTuning swaps the planner tunables and rewards used by later
	// requests.
	UpdateTuning(planner config.PlannerConfig, rewards plan.Rewards)
	// Ping checks every configured backend.
	Ping(ctx context.Context) error
}

// Option configures optional collaborators.
type Option func(*serviceImpl)

func WithCache(c PlanCache) Option { return func(s *serviceImpl) { s.cache = c } }
func WithHistory(h HistoryStore) Option { return func(s *serviceImpl) { s.history = h } }
func WithArchive(a Archive) Option { return func(s *serviceImpl) { s.archive = a } }
func WithMetrics(m *prometheus.AppMetrics) Option {
	return func(s *serviceImpl) {
		if m != nil {
			s.metrics = m
		}
	}
}

type serviceImpl struct {
	planner Planner
	cache   PlanCache
	history HistoryStore
	archive Archive
	metrics *prometheus.AppMetrics
	logger  logging.Logger
	group   singleflight.Group

	mu  sync.RWMutex
	cfg Config
}

// NewService creates the planning service.
func NewService(planner Planner, cfg Config, logger logging.Logger, opts ...Option) Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if cfg.Rewards == (plan.Rewards{}) {
		cfg.Rewards = plan.DefaultRewards()
	}
	s := &serviceImpl{
		planner: planner,
		metrics: prometheus.NewNoopAppMetrics(),
		logger:  logger.Named("service"),
		cfg:     cfg,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *serviceImpl) UpdateTuning(planner config.PlannerConfig, rewards plan.Rewards) {
	s.mu.Lock()
	s.cfg.Planner = planner
	s.cfg.Rewards = rewards
	s.mu.Unlock()
	s.logger.Info("planner tuning updated",
		logging.Duration("time_budget", planner.TimeBudget),
		logging.Int("max_restarts", planner.MaxRestarts),
		logging.Bool("tiered_links", rewards.TieredLinks))
}

func (s *serviceImpl) config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// options merges req over the current configuration.
func (s *serviceImpl) options(req *PlanRequest) core.Options {
	cfg := s.config()
	opts := core.Options{
		TimeBudget:  cfg.Planner.TimeBudget,
		MaxRestarts: cfg.Planner.MaxRestarts,
		Workers:     cfg.Planner.Workers,
		TopK:        cfg.Planner.TopK,
		Seed:        cfg.Planner.Seed,
		Capacity:    cfg.Planner.Capacity,
		Rewards:     cfg.Rewards,
		StartPortal: req.StartPortal,
		Agents:      req.Agents,
		Partition: partition.Options{
			APWeight:      cfg.Partition.APWeight,
			BalanceRounds: cfg.Partition.BalanceRounds,
		},
	}
	if req.TimeBudget > 0 {
		opts.TimeBudget = req.TimeBudget
	}
	if req.MaxRestarts > 0 {
		opts.MaxRestarts = req.MaxRestarts
	}
	if req.Workers > 0 {
		opts.Workers = req.Workers
	}
	if req.Seed != nil {
		opts.Seed = *req.Seed
	}
	return opts
}

// partialPlan carries a usable plan through the cache and singleflight
// layers together with the error that kept it from being cached.
type partialPlan struct {
	plan *plan.Plan
	err  error
}

func (p *partialPlan) Error() string { return p.err.Error() }
func (p *partialPlan) Unwrap() error { return p.err }

// Plan returns the plan for req. Identical concurrent requests share one
// computation. A degenerate input yields both a plan and an error; such plans
// are never cached.
func (s *serviceImpl) Plan(ctx context.Context, req *PlanRequest) (*PlanResponse, error) {
	if req == nil {
		return nil, errors.InvalidParam("plan request is required")
	}
	if req.Agents < 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidAgentCount, "agent count must be at least 1, got %d", req.Agents)
	}
	opts := s.options(req)
	norm, _, err := core.Normalize(req.Portals)
	if err != nil {
		s.recordPlan(prometheus.StatusError, nil, 0)
		return nil, err
	}
	key := InputHash(norm, opts)

	compute := func(ctx context.Context) (*plan.Plan, error) {
		started := time.Now()
		p, err := s.planner.Plan(ctx, req.Portals, opts)
		d := time.Since(started)
		switch {
		case err == nil:
			s.recordPlan(prometheus.StatusOK, p, d)
			s.saveHistory(ctx, p, key)
			return p, nil
		case p != nil:
			s.recordPlan(prometheus.StatusPartial, p, d)
			s.saveHistory(ctx, p, key)
			return nil, &partialPlan{plan: p, err: err}
		default:
			s.recordPlan(prometheus.StatusError, nil, d)
			return nil, err
		}
	}

	var (
		p   *plan.Plan
		hit bool
	)
	if s.cache != nil && !req.NoCache {
		ttl := s.config().CacheTTL
		p, hit, err = s.cache.GetOrCompute(ctx, key, ttl, compute)
		prometheus.RecordCacheAccess(s.metrics, hit)
		if hit {
			s.metrics.PlansTotal.WithLabelValues(prometheus.StatusCached).Inc()
		}
	} else {
		var v interface{}
		v, err, _ = s.group.Do(key, func() (interface{}, error) { return compute(ctx) })
		if err == nil {
			p = v.(*plan.Plan)
		}
	}

	var pp *partialPlan
	if stderrors.As(err, &pp) {
		return &PlanResponse{Plan: pp.plan, InputHash: key}, pp.err
	}
	if err != nil {
		return nil, err
	}
	s.logger.Debug("plan served",
		logging.String("id", p.ID),
		logging.String("input_hash", key),
		logging.Bool("cached", hit))
	return &PlanResponse{Plan: p, Cached: hit, InputHash: key}, nil
}

func (s *serviceImpl) recordPlan(status string, p *plan.Plan, d time.Duration) {
	fields, restarts := 0, 0
	if p != nil {
		fields, restarts = len(p.Fields), p.Stats.Restarts
	}
	prometheus.RecordPlan(s.metrics, status, d, fields, restarts)
}

// saveHistory records p. Failures are logged; history never fails a request.
func (s *serviceImpl) saveHistory(ctx context.Context, p *plan.Plan, key string) {
	if s.history == nil {
		return
	}
	if err := s.history.Save(ctx, p, sqlite.Meta{InputHash: key}); err != nil {
		s.logger.Warn("failed to record plan history", logging.String("id", p.ID), logging.Err(err))
	}
}

// Get looks a plan up by ID in the cache, then in history.
func (s *serviceImpl) Get(ctx context.Context, id string) (*plan.Plan, error) {
	if id == "" {
		return nil, errors.InvalidParam("plan id is required")
	}
	if s.cache != nil {
		p, err := s.cache.GetByID(ctx, id)
		if err == nil {
			return p, nil
		}
		if !errors.IsNotFound(err) {
			s.logger.Warn("plan cache lookup failed", logging.String("id", id), logging.Err(err))
		}
	}
	if s.history != nil {
		return s.history.Get(ctx, id)
	}
	return nil, errors.New(errors.ErrCodePlanNotFound, "plan not found").WithDetail(id)
}

// List returns the newest history records.
func (s *serviceImpl) List(ctx context.Context, limit int) ([]sqlite.Record, error) {
	if s.history == nil {
		return nil, errors.New(errors.ErrCodeFeatureDisabled, "plan history is disabled")
	}
	return s.history.List(ctx, limit)
}

// Export writes p to opts.Dir and, when requested, uploads it to the archive.
func (s *serviceImpl) Export(ctx context.Context, p *plan.Plan, opts ExportOptions) (*ExportResult, error) {
	if p == nil {
		return nil, errors.InvalidParam("plan is required")
	}
	if opts.Upload && s.archive == nil {
		return nil, errors.New(errors.ErrCodeFeatureDisabled, "object storage upload is disabled")
	}

	res := &ExportResult{}
	if opts.Dir != "" {
		path, err := planfile.WriteFile(opts.Dir, p, opts.Compress)
		if err != nil {
			return nil, err
		}
		res.Path = path
	}
	if opts.Upload {
		data, err := planfile.Marshal(p, opts.Compress)
		if err != nil {
			return nil, err
		}
		key, err := s.archive.Upload(ctx, p.ID, data, opts.Compress)
		if err != nil {
			return res, err
		}
		res.ObjectKey = key
	}
	s.logger.Info("plan exported",
		logging.String("id", p.ID),
		logging.String("path", res.Path),
		logging.String("object_key", res.ObjectKey))
	return res, nil
}

func (s *serviceImpl) Ping(ctx context.Context) error {
	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			return errors.Wrap(err, errors.ErrCodeServiceUnavailable, "plan cache unavailable")
		}
	}
	if s.history != nil {
		if err := s.history.Ping(ctx); err != nil {
			return errors.Wrap(err, errors.ErrCodeServiceUnavailable, "plan history unavailable")
		}
	}
	return nil
}

// hashInput is the canonical form hashed by InputHash.
type hashInput struct {
	Portals     [][3]interface{} `json:"portals"`
	MaxRestarts int              `json:"max_restarts"`
	TopK        int              `json:"top_k"`
	Seed        int64            `json:"seed"`
	Capacity    int              `json:"capacity"`
	Rewards     plan.Rewards     `json:"rewards"`
	StartPortal string           `json:"start"`
	Agents      int              `json:"agents"`
	APWeight    float64          `json:"ap_weight"`
}

// InputHash identifies a planning request: the hex SHA-256 of the normalised
// portals and every option that changes the result. Time budget and worker
// count are left out.
func InputHash(portals []plan.Portal, opts core.Options) string {
	in := hashInput{
		Portals:     make([][3]interface{}, len(portals)),
		MaxRestarts: opts.MaxRestarts,
		TopK:        opts.TopK,
		Seed:        opts.Seed,
		Capacity:    opts.Capacity,
		Rewards:     opts.Rewards,
		StartPortal: opts.StartPortal,
		Agents:      opts.Agents,
		APWeight:    opts.Partition.APWeight,
	}
	if in.Agents < 1 {
		in.Agents = 1
	}
	for i, p := range portals {
		k := p.Key()
		in.Portals[i] = [3]interface{}{k[0], k[1], p.Name}
	}
	data, _ := json.Marshal(in)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

//Personal.AI order the ending
