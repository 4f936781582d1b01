package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/fieldplan/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/fieldplan/pkg/errors"
	"github.com/turtacn/fieldplan/pkg/types/plan"
)

type CacheTestSuite struct {
	suite.Suite
	mock  redismock.ClientMock
	cache *PlanCache
}

func (s *CacheTestSuite) SetupTest() {
	db, mock := redismock.NewClientMock()
	s.mock = mock
	client := NewClientFromUniversal(db, logging.NewNopLogger())
	s.cache = NewPlanCache(client, logging.NewNopLogger(), WithPrefix("test:"), WithJitter(0), WithDefaultTTL(time.Hour))
}

func (s *CacheTestSuite) TearDownTest() {
	assert.NoError(s.T(), s.mock.ExpectationsWereMet())
}

func samplePlan() *plan.Plan {
	return &plan.Plan{
		ID:      "7f1c",
		Portals: []plan.Portal{{ID: 0, Name: "A"}, {ID: 1, Name: "B"}, {ID: 2, Name: "C"}},
		Links:   []plan.Link{plan.NewLink(0, 1), plan.NewLink(1, 2), plan.NewLink(0, 2)},
		Fields:  []plan.Field{plan.NewField(0, 1, 2, 0)},
		TotalAP: 3*313 + 1250,
	}
}

func (s *CacheTestSuite) TestGet_Hit() {
	p := samplePlan()
	data, _ := json.Marshal(p)
	s.mock.ExpectGet("test:plan:k1").SetVal(string(data))

	got, err := s.cache.Get(context.Background(), "k1")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), p.ID, got.ID)
	assert.Equal(s.T(), p.Links, got.Links)
	assert.Equal(s.T(), p.TotalAP, got.TotalAP)
}

func (s *CacheTestSuite) TestGet_Miss() {
	s.mock.ExpectGet("test:plan:k1").RedisNil()

	_, err := s.cache.Get(context.Background(), "k1")
	assert.Equal(s.T(), ErrCacheMiss, err)
	assert.True(s.T(), pkgerrors.IsNotFound(err))
}

func (s *CacheTestSuite) TestGet_Error() {
	s.mock.ExpectGet("test:plan:k1").SetErr(fmt.Errorf("connection reset"))

	_, err := s.cache.Get(context.Background(), "k1")
	assert.True(s.T(), pkgerrors.IsCode(err, pkgerrors.ErrCodeCacheError))
}

func (s *CacheTestSuite) TestGet_Corrupt() {
	s.mock.ExpectGet("test:plan:k1").SetVal("{not json")

	_, err := s.cache.Get(context.Background(), "k1")
	assert.True(s.T(), pkgerrors.IsCode(err, pkgerrors.ErrCodeSerialization))
}

func (s *CacheTestSuite) TestSet_WritesPlanAndIndex() {
	p := samplePlan()
	data, _ := json.Marshal(p)
	s.mock.ExpectSet("test:plan:k1", data, time.Hour).SetVal("OK")
	s.mock.ExpectSet("test:plan:id:7f1c", "k1", time.Hour).SetVal("OK")

	assert.NoError(s.T(), s.cache.Set(context.Background(), "k1", p, 0))
}

func (s *CacheTestSuite) TestGetByID() {
	p := samplePlan()
	data, _ := json.Marshal(p)
	s.mock.ExpectGet("test:plan:id:7f1c").SetVal("k1")
	s.mock.ExpectGet("test:plan:k1").SetVal(string(data))

	got, err := s.cache.GetByID(context.Background(), "7f1c")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "7f1c", got.ID)
}

func (s *CacheTestSuite) TestGetByID_Miss() {
	s.mock.ExpectGet("test:plan:id:nope").RedisNil()

	_, err := s.cache.GetByID(context.Background(), "nope")
	assert.Equal(s.T(), ErrCacheMiss, err)
}

func (s *CacheTestSuite) TestDelete() {
	s.mock.ExpectDel("test:plan:k1", "test:plan:id:7f1c").SetVal(2)

	assert.NoError(s.T(), s.cache.Delete(context.Background(), "k1", "7f1c"))
}

func (s *CacheTestSuite) TestGetOrCompute_Hit() {
	p := samplePlan()
	data, _ := json.Marshal(p)
	s.mock.ExpectGet("test:plan:k1").SetVal(string(data))

	var calls int32
	got, hit, err := s.cache.GetOrCompute(context.Background(), "k1", 0, func(context.Context) (*plan.Plan, error) {
		atomic.AddInt32(&calls, 1)
		return p, nil
	})
	require.NoError(s.T(), err)
	assert.True(s.T(), hit)
	assert.Equal(s.T(), p.ID, got.ID)
	assert.Zero(s.T(), atomic.LoadInt32(&calls))
}

func (s *CacheTestSuite) TestGetOrCompute_MissComputesAndStores() {
	p := samplePlan()
	data, _ := json.Marshal(p)
	s.mock.ExpectGet("test:plan:k1").RedisNil()
	s.mock.ExpectSet("test:plan:k1", data, time.Minute).SetVal("OK")
	s.mock.ExpectSet("test:plan:id:7f1c", "k1", time.Minute).SetVal("OK")

	got, hit, err := s.cache.GetOrCompute(context.Background(), "k1", time.Minute, func(context.Context) (*plan.Plan, error) {
		return p, nil
	})
	require.NoError(s.T(), err)
	assert.False(s.T(), hit)
	assert.Same(s.T(), p, got)
}

func (s *CacheTestSuite) TestGetOrCompute_ComputeError() {
	s.mock.ExpectGet("test:plan:k1").RedisNil()

	_, _, err := s.cache.GetOrCompute(context.Background(), "k1", 0, func(context.Context) (*plan.Plan, error) {
		return nil, pkgerrors.New(pkgerrors.ErrCodeInsufficientPoints, "too few")
	})
	assert.True(s.T(), pkgerrors.IsCode(err, pkgerrors.ErrCodeInsufficientPoints))
}

func (s *CacheTestSuite) TestGetOrCompute_WriteFailureStillReturnsPlan() {
	p := samplePlan()
	data, _ := json.Marshal(p)
	s.mock.ExpectGet("test:plan:k1").RedisNil()
	s.mock.ExpectSet("test:plan:k1", data, time.Hour).SetErr(fmt.Errorf("OOM"))

	got, hit, err := s.cache.GetOrCompute(context.Background(), "k1", 0, func(context.Context) (*plan.Plan, error) {
		return p, nil
	})
	require.NoError(s.T(), err)
	assert.False(s.T(), hit)
	assert.Equal(s.T(), p.ID, got.ID)
}

func TestCacheSuite(t *testing.T) {
	suite.Run(t, new(CacheTestSuite))
}

func TestJitterTTL(t *testing.T) {
	t.Parallel()

	c := NewPlanCache(nil, nil, WithJitter(0.1))
	for i := 0; i < 50; i++ {
		ttl := c.jitterTTL(time.Hour)
		assert.GreaterOrEqual(t, ttl, 54*time.Minute)
		assert.LessOrEqual(t, ttl, 66*time.Minute)
	}
	assert.Equal(t, time.Duration(0), c.jitterTTL(0))
	assert.Equal(t, time.Hour, NewPlanCache(nil, nil, WithJitter(0)).jitterTTL(time.Hour))
}

//Personal.AI order the ending
