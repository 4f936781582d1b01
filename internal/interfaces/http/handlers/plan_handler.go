package handlers

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/fieldplan/internal/application/planning"
	"github.com/turtacn/fieldplan/internal/infrastructure/database/sqlite"
	"github.com/turtacn/fieldplan/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/fieldplan/internal/infrastructure/portalio"
	"github.com/turtacn/fieldplan/internal/infrastructure/storage/planfile"
	"github.com/turtacn/fieldplan/pkg/errors"
	"github.com/turtacn/fieldplan/pkg/types/plan"
)

const (
	defaultMaxBodySize = 4 << 20
	defaultListLimit   = 50
	maxListLimit       = 500
)

// PlanHandler serves the /api/v1/plans resource.
type PlanHandler struct {
	svc         planning.Service
	logger      logging.Logger
	maxBodySize int64
}

// NewPlanHandler creates a PlanHandler. maxBodySize ≤ 0 uses 4 MiB.
func NewPlanHandler(svc planning.Service, logger logging.Logger, maxBodySize int64) *PlanHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if maxBodySize <= 0 {
		maxBodySize = defaultMaxBodySize
	}
	return &PlanHandler{svc: svc, logger: logger, maxBodySize: maxBodySize}
}

// CreatePlanRequest is the JSON body of POST /api/v1/plans.
type CreatePlanRequest struct {
	Portals      []plan.Portal `json:"portals"`
	Agents       int           `json:"agents,omitempty"`
	Seed         *int64        `json:"seed,omitempty"`
	TimeBudgetMS int64         `json:"time_budget_ms,omitempty"`
	MaxRestarts  int           `json:"max_restarts,omitempty"`
	Workers      int           `json:"workers,omitempty"`
	Start        string        `json:"start,omitempty"`
	NoCache      bool          `json:"no_cache,omitempty"`
}

// ServiceRequest converts the body into a service request.
func (c *CreatePlanRequest) ServiceRequest() *planning.PlanRequest {
	return &planning.PlanRequest{
		Portals:     c.Portals,
		Agents:      c.Agents,
		Seed:        c.Seed,
		TimeBudget:  time.Duration(c.TimeBudgetMS) * time.Millisecond,
		MaxRestarts: c.MaxRestarts,
		Workers:     c.Workers,
		StartPortal: c.Start,
		NoCache:     c.NoCache,
	}
}

// PlanListResponse is the body of GET /api/v1/plans.
type PlanListResponse struct {
	Plans []sqlite.Record `json:"plans"`
}

// Create handles POST /api/v1/plans.
//
// A JSON body carries the portals and tunables. Any other content type is
// read as a portal list (text, CSV, YAML or IITC) with the tunables taken
// from the query string.
func (h *PlanHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodySize))
	if err != nil {
		writeAppError(w, errors.New(errors.ErrCodeBadRequest, "request body too large or unreadable").WithCause(err))
		return
	}

	var req *CreatePlanRequest
	if isJSON(r) {
		req, err = decodePlanJSON(body)
	} else {
		req, err = decodePlanList(r, body)
	}
	if err != nil {
		writeAppError(w, err)
		return
	}

	resp, err := h.svc.Plan(r.Context(), req.ServiceRequest())
	if err != nil && (resp == nil || resp.Plan == nil) {
		writeAppError(w, err)
		return
	}
	if err != nil {
		h.logger.Info("partial plan returned",
			logging.String("code", string(errors.GetCode(err))),
			logging.Int("portals", len(req.Portals)))
	}

	w.Header().Set("X-Input-Hash", resp.InputHash)
	w.Header().Set("X-Plan-Cached", strconv.FormatBool(resp.Cached))
	status := http.StatusCreated
	if resp.Cached || err != nil {
		status = http.StatusOK
	}
	writeJSON(w, status, resp.Plan)
}

// List handles GET /api/v1/plans?limit=N.
func (h *PlanHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultListLimit)
	if limit > maxListLimit {
		limit = maxListLimit
	}
	records, err := h.svc.List(r.Context(), limit)
	if err != nil {
		writeAppError(w, err)
		return
	}
	if records == nil {
		records = []sqlite.Record{}
	}
	writeJSON(w, http.StatusOK, PlanListResponse{Plans: records})
}

// Get handles GET /api/v1/plans/{id}. ?format=text renders the step list.
func (h *PlanHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeAppError(w, err)
		return
	}

	switch r.URL.Query().Get("format") {
	case "", "json":
		writeJSON(w, http.StatusOK, p)
	case "text":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if err := planfile.FormatText(w, p); err != nil {
			h.logger.Warn("render plan text failed", logging.String("id", id), logging.Err(err))
		}
	default:
		writeAppError(w, errors.InvalidParam("unsupported format").WithDetail(r.URL.Query().Get("format")))
	}
}

func isJSON(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return true
	}
	mt, _, err := mime.ParseMediaType(ct)
	return err == nil && mt == "application/json"
}

func decodePlanJSON(body []byte) (*CreatePlanRequest, error) {
	var req CreatePlanRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, errors.New(errors.ErrCodeInputParse, "invalid request body").WithCause(err)
	}
	if req.TimeBudgetMS < 0 {
		return nil, errors.InvalidParam("time_budget_ms must not be negative")
	}
	return &req, nil
}

func decodePlanList(r *http.Request, body []byte) (*CreatePlanRequest, error) {
	q := r.URL.Query()
	format, err := portalio.ParseFormat(q.Get("format"))
	if err != nil {
		return nil, err
	}
	res, err := portalio.ParseBytes(body, format)
	if err != nil {
		return nil, err
	}

	req := &CreatePlanRequest{
		Portals: res.Portals(),
		Start:   q.Get("start"),
		NoCache: q.Get("no_cache") == "true",
	}
	req.Agents = queryInt(r, "agents", 0)
	req.MaxRestarts = queryInt(r, "max_restarts", 0)
	req.Workers = queryInt(r, "workers", 0)
	req.TimeBudgetMS = int64(queryInt(r, "time_budget_ms", 0))
	if v := q.Get("seed"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, errors.InvalidParam("seed must be an integer").WithDetail(v)
		}
		req.Seed = &seed
	}
	return req, nil
}

//Personal.AI order the ending
