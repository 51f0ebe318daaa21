// Package db provides PostgreSQL access for applicants, grade records, assignments and decisions.
package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/recruit-grader/internal/store"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
	q    querier
}

var _ store.RecordStore = (*DB)(nil)

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool, q: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// InTx runs fn inside a transaction. Nested calls become savepoints.
func (db *DB) InTx(ctx context.Context, fn func(tx store.RecordStore) error) error {
	return pgx.BeginFunc(ctx, db.q, func(tx pgx.Tx) error {
		return fn(&DB{pool: db.pool, q: tx})
	})
}

// atomically runs fn in a transaction (or savepoint when already inside one).
func (db *DB) atomically(ctx context.Context, fn func(q querier) error) error {
	return pgx.BeginFunc(ctx, db.q, func(tx pgx.Tx) error {
		return fn(tx)
	})
}

// parseID converts a typed string ID to a UUID parameter.
func parseID[T ~string](id T) (uuid.UUID, error) {
	u, err := uuid.Parse(string(id))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q: %w", string(id), err)
	}
	return u, nil
}

// parseIDs converts typed string IDs to a UUID array parameter for = ANY($1).
func parseIDs[T ~string](ids []T) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		u, err := parseID(id)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}
