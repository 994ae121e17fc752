// Package plancache caches the (sql text, tenant) -> Request translation
// in Redis, so a script or REPL history replaying the same statement skips
// the parse+translate pipeline, per SPEC_FULL.md §5. Grounded on the
// teacher's own WrapRedis/queryRedis client path: here Redis holds the
// translator's plan cache instead of being a target query dialect.
package plancache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mongosql-go/mongosql/internal/query"
	"github.com/redis/go-redis/v9"
)

// DefaultTTL bounds how long a cached plan survives before a fresh
// translation is forced, so a schema or translator-logic change is picked
// up within a bounded window without requiring an explicit cache flush.
const DefaultTTL = 10 * time.Minute

// Cache wraps a *redis.Client scoped to one tenant's plan entries.
type Cache struct {
	rdb      *redis.Client
	tenantID string
	ttl      time.Duration
}

// New wraps an existing Redis client connection, mirroring the teacher's
// WrapRedis constructor shape.
func New(rdb *redis.Client, tenantID string) *Cache {
	return &Cache{rdb: rdb, tenantID: tenantID, ttl: DefaultTTL}
}

func (c *Cache) key(sql string) string {
	return "mongosql:plan:" + c.tenantID + ":" + sql
}

// Get returns the cached Request for sql, if present and still valid.
func (c *Cache) Get(ctx context.Context, sql string) (*query.Request, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	data, err := c.rdb.Get(ctx, c.key(sql)).Bytes()
	if err != nil {
		return nil, false
	}
	var req query.Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, false
	}
	return &req, true
}

// Put stores req under sql, overwriting any prior entry and resetting its
// TTL.
func (c *Cache) Put(ctx context.Context, sql string, req *query.Request) {
	if c == nil || c.rdb == nil || req == nil {
		return
	}
	data, err := json.Marshal(req)
	if err != nil {
		return
	}
	c.rdb.Set(ctx, c.key(sql), data, c.ttl)
}

// Invalidate drops sql's cached plan, e.g. after a DDL-shaped statement
// that could change collection shape (out of this engine's scope, but a
// caller integrating one externally can still call this).
func (c *Cache) Invalidate(ctx context.Context, sql string) {
	if c == nil || c.rdb == nil {
		return
	}
	c.rdb.Del(ctx, c.key(sql))
}
