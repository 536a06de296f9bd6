package storage

import "github.com/jackc/pgx/v5/pgxpool"

// GetPool returns the underlying connection pool.
// This is used by tests to query the database directly.
func (pgr *PostgresRepo) GetPool() *pgxpool.Pool {
	return pgr.pool
}

var WrapErr = wrapErr
