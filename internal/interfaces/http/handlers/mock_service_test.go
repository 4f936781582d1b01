package handlers

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/turtacn/fieldplan/internal/application/planning"
	"github.com/turtacn/fieldplan/internal/config"
	"github.com/turtacn/fieldplan/internal/infrastructure/database/sqlite"
	"github.com/turtacn/fieldplan/pkg/types/plan"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) Plan(ctx context.Context, req *planning.PlanRequest) (*planning.PlanResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*planning.PlanResponse)
	return resp, args.Error(1)
}

func (m *mockService) Get(ctx context.Context, id string) (*plan.Plan, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*plan.Plan)
	return p, args.Error(1)
}

func (m *mockService) List(ctx context.Context, limit int) ([]sqlite.Record, error) {
	args := m.Called(ctx, limit)
	recs, _ := args.Get(0).([]sqlite.Record)
	return recs, args.Error(1)
}

func (m *mockService) Export(ctx context.Context, p *plan.Plan, opts planning.ExportOptions) (*planning.ExportResult, error) {
	args := m.Called(ctx, p, opts)
	res, _ := args.Get(0).(*planning.ExportResult)
	return res, args.Error(1)
}

func (m *mockService) UpdateTuning(planner config.PlannerConfig, rewards plan.Rewards) {
	m.Called(planner, rewards)
}

func (m *mockService) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

//Personal.AI order the ending
