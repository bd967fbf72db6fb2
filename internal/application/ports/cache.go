package ports

import (
	"context"
	"time"
)

// StatsCache caché de lecturas agregadas (tablero). Get devuelve false si no hay valor.
// Invalidate se llama tras cada commit del ledger.
type StatsCache interface {
	Get(ctx context.Context, key string, dest any) bool
	Set(ctx context.Context, key string, value any, ttl time.Duration)
	Invalidate(ctx context.Context)
}

// NopCache caché deshabilitada.
type NopCache struct{}

func (NopCache) Get(context.Context, string, any) bool           { return false }
func (NopCache) Set(context.Context, string, any, time.Duration) {}
func (NopCache) Invalidate(context.Context)                      {}
