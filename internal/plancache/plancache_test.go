package plancache

import (
	"context"
	"testing"

	"github.com/mongosql-go/mongosql/internal/query"
	"github.com/stretchr/testify/require"
)

func TestKeyIsNamespacedByTenant(t *testing.T) {
	c := &Cache{tenantID: "acme"}
	require.Equal(t, "mongosql:plan:acme:SELECT 1", c.key("SELECT 1"))
}

func TestNilCacheGetPutAreNoops(t *testing.T) {
	var c *Cache
	_, ok := c.Get(context.Background(), "SELECT 1")
	require.False(t, ok)

	// Put/Invalidate on a nil cache must not panic.
	c.Put(context.Background(), "SELECT 1", &query.Request{Kind: query.ReqFind})
	c.Invalidate(context.Background(), "SELECT 1")
}

func TestCacheWithNoRedisClientGetIsMiss(t *testing.T) {
	c := New(nil, "acme")
	_, ok := c.Get(context.Background(), "SELECT 1")
	require.False(t, ok)
}
