package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mapaction/mapimporter/pkg/mapimporter"
)

// PoolAdapter adapts *pgxpool.Pool to implement the mapimporter.DBConnection
// interface, so catalog code never sees pgx pool types.
//
// Thread-Safety: Safe for concurrent use (pgxpool.Pool is thread-safe).
type PoolAdapter struct {
	pool *pgxpool.Pool
}

// NewPoolAdapter creates a new PoolAdapter wrapping the given pool.
func NewPoolAdapter(pool *pgxpool.Pool) *PoolAdapter {
	return &PoolAdapter{pool: pool}
}

// Exec executes a query without returning any rows.
func (p *PoolAdapter) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return p.pool.Exec(ctx, sql, args...)
}

// Query executes a query returning rows.
func (p *PoolAdapter) Query(ctx context.Context, sql string, args ...any) (mapimporter.Rows, error) {
	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// QueryRow executes a query that is expected to return at most one row.
func (p *PoolAdapter) QueryRow(ctx context.Context, sql string, args ...any) mapimporter.Row {
	return p.pool.QueryRow(ctx, sql, args...)
}

// Ping checks that the database is reachable.
func (p *PoolAdapter) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close closes every connection in the pool.
func (p *PoolAdapter) Close() {
	p.pool.Close()
}

var _ mapimporter.DBConnection = (*PoolAdapter)(nil)
