package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vogiaan1904/ticketbottle-concert/config"
	"github.com/vogiaan1904/ticketbottle-concert/pkg/logger"
)

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()
	l := logger.NewNopLogger()

	cli, err := Connect(ctx, config.RedisConfig{Addr: mr.Addr(), PoolSize: 2}, l)
	require.NoError(t, err)
	assert.NoError(t, cli.Set(ctx, "k", "v", 0).Err())

	Disconnect(ctx, cli, l)
	Disconnect(ctx, nil, l)
}

func TestConnect_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := Connect(context.Background(), config.RedisConfig{Addr: addr}, logger.NewNopLogger())
	assert.Error(t, err)
}
