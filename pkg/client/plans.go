package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/turtacn/fieldplan/pkg/errors"
	"github.com/turtacn/fieldplan/pkg/types/plan"
)

const plansPath = "/api/v1/plans"

// PlansClient covers plan creation and lookup.
type PlansClient struct {
	client *Client
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

// ListParams are the tunables sent with a raw portal list.
type ListParams struct {
	// Format is the list format (txt, csv, yaml, iitc). Empty sniffs it.
	Format      string
	Agents      int
	Seed        *int64
	TimeBudget  time.Duration
	MaxRestarts int
	Workers     int
	Start       string
	NoCache     bool
}

func (p ListParams) values() url.Values {
	q := url.Values{}
	setInt := func(name string, v int) {
		if v > 0 {
			q.Set(name, strconv.Itoa(v))
		}
	}
	if p.Format != "" {
		q.Set("format", p.Format)
	}
	setInt("agents", p.Agents)
	setInt("max_restarts", p.MaxRestarts)
	setInt("workers", p.Workers)
	setInt("time_budget_ms", int(p.TimeBudget/time.Millisecond))
	if p.Seed != nil {
		q.Set("seed", strconv.FormatInt(*p.Seed, 10))
	}
	if p.Start != "" {
		q.Set("start", p.Start)
	}
	if p.NoCache {
		q.Set("no_cache", "true")
	}
	return q
}

// PlanResult is a plan returned by Create.
type PlanResult struct {
	Plan      *plan.Plan
	Cached    bool
	InputHash string
	// Created is false for cached plans and for partial plans the server
	// could only build in part (see Plan.Warnings).
	Created bool
}

// PlanRecord is one entry of the plan history.
type PlanRecord struct {
	plan.Summary
	InputHash string `json:"input_hash"`
}

// Create plans req on the server.
func (p *PlansClient) Create(ctx context.Context, req *CreatePlanRequest) (*PlanResult, error) {
	if req == nil || len(req.Portals) == 0 {
		return nil, errors.InvalidParam("no portals in request")
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return p.create(ctx, request{method: http.MethodPost, path: plansPath, body: body})
}

// CreateFromList uploads a portal list file as-is and lets the server parse it.
func (p *PlansClient) CreateFromList(ctx context.Context, data []byte, params ListParams) (*PlanResult, error) {
	if len(data) == 0 {
		return nil, errors.InvalidParam("empty portal list")
	}
	return p.create(ctx, request{
		method:      http.MethodPost,
		path:        plansPath,
		query:       params.values(),
		body:        data,
		contentType: "text/plain; charset=utf-8",
	})
}

func (p *PlansClient) create(ctx context.Context, r request) (*PlanResult, error) {
	resp, err := p.client.do(ctx, r)
	if err != nil {
		return nil, err
	}
	var out plan.Plan
	if err := json.Unmarshal(resp.body, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan: %w", err)
	}
	cached, _ := strconv.ParseBool(resp.header.Get("X-Plan-Cached"))
	return &PlanResult{
		Plan:      &out,
		Cached:    cached,
		InputHash: resp.header.Get("X-Input-Hash"),
		Created:   resp.status == http.StatusCreated,
	}, nil
}

// Get fetches a stored plan by ID.
func (p *PlansClient) Get(ctx context.Context, id string) (*plan.Plan, error) {
	if id == "" {
		return nil, errors.InvalidParam("empty plan id")
	}
	var out plan.Plan
	if _, err := p.client.getJSON(ctx, plansPath+"/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetText fetches a stored plan rendered as a numbered step list.
func (p *PlansClient) GetText(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", errors.InvalidParam("empty plan id")
	}
	resp, err := p.client.do(ctx, request{
		method: http.MethodGet,
		path:   plansPath + "/" + url.PathEscape(id),
		query:  url.Values{"format": {"text"}},
		accept: "text/plain",
	})
	if err != nil {
		return "", err
	}
	return string(resp.body), nil
}

// List returns up to limit history records, newest first. limit ≤ 0 uses
// the server default.
func (p *PlansClient) List(ctx context.Context, limit int) ([]PlanRecord, error) {
	var q url.Values
	if limit > 0 {
		q = url.Values{"limit": {strconv.Itoa(limit)}}
	}
	var out struct {
		Plans []PlanRecord `json:"plans"`
	}
	if _, err := p.client.getJSON(ctx, plansPath, q, &out); err != nil {
		return nil, err
	}
	return out.Plans, nil
}

// Health is the liveness answer of a server.
type Health struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// Health calls the liveness endpoint.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	if _, err := c.getJSON(ctx, "/healthz", nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

//Personal.AI order the ending
