package redis

import (
	"context"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/fieldplan/internal/config"
	"github.com/turtacn/fieldplan/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/fieldplan/pkg/errors"
)

func TestNewClient_ConnectionFailed(t *testing.T) {
	t.Parallel()

	cfg := config.RedisConfig{Addr: "127.0.0.1:1"}
	client, err := NewClient(cfg, logging.NewNopLogger())
	assert.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeServiceUnavailable))
	assert.Nil(t, client)
}

func TestClient_Operations(t *testing.T) {
	t.Parallel()

	db, mock := redismock.NewClientMock()
	client := NewClientFromUniversal(db, nil)
	ctx := context.Background()

	mock.ExpectPing().SetVal("PONG")
	mock.ExpectSet("foo", "bar", 0).SetVal("OK")
	mock.ExpectGet("foo").SetVal("bar")
	mock.ExpectDel("foo").SetVal(1)
	mock.ExpectExists("foo").SetVal(0)

	require.NoError(t, client.Ping(ctx))
	require.NoError(t, client.Set(ctx, "foo", "bar", 0).Err())
	val, err := client.Get(ctx, "foo").Result()
	require.NoError(t, err)
	assert.Equal(t, "bar", val)
	deleted, err := client.Del(ctx, "foo").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	exists, err := client.Exists(ctx, "foo").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), exists)
	assert.False(t, client.IsCluster())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClient_Close(t *testing.T) {
	t.Parallel()

	db, _ := redismock.NewClientMock()
	client := NewClientFromUniversal(db, nil)

	assert.NoError(t, client.Close())
	assert.NoError(t, client.Close())
	assert.Equal(t, ErrClientClosed, client.Get(context.Background(), "foo").Err())
	assert.Equal(t, ErrClientClosed, client.Ping(context.Background()))
	assert.Equal(t, ErrClientClosed, client.Set(context.Background(), "k", "v", 0).Err())
}

//Personal.AI order the ending
