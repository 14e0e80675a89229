package sqlite

import (
	"context"
	"testing"
)

// newTestPool opens an in-memory database with the schema applied.
func newTestPool(t *testing.T) *ConnectionPool {
	t.Helper()

	ctx := context.Background()
	pool, err := NewConnectionPool(ctx, ":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		pool.Close()
	})

	if err := pool.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	return pool
}
