package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockflow-api/internal/infrastructure/cache"
	"github.com/jhoicas/stockflow-api/pkg/config"
)

func TestConnect_SinAddrDeshabilita(t *testing.T) {
	rdb, err := cache.Connect(context.Background(), config.RedisConfig{})
	require.NoError(t, err)
	assert.Nil(t, rdb)
}

func TestRedisCache_DeshabilitadaEsNoOp(t *testing.T) {
	c := cache.NewRedisCache(nil, "", nil)
	ctx := context.Background()

	assert.False(t, c.Enabled())
	c.Set(ctx, "stats:dashboard", map[string]int{"a": 1}, time.Minute)

	var dest map[string]int
	assert.False(t, c.Get(ctx, "stats:dashboard", &dest))
	assert.Nil(t, dest)
	assert.NotPanics(t, func() { c.Invalidate(ctx) })
}
