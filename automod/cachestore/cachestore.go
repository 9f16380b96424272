package cachestore

import (
	"context"
	"time"
)

// Expiring key-value cache. The engine keeps post-action cooldown markers
// here.
type CacheStore interface {
	Get(ctx context.Context, name, key string) (string, error)
	Set(ctx context.Context, name, key string, val string) error
	Purge(ctx context.Context, name, key string) error
}

// Default TTL used by service wiring when none is configured.
const DefaultTTL = 30 * time.Minute
