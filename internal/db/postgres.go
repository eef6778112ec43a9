// Package db is the Postgres persistence layer backing every Repository
// interface defined by the domain packages (secretstore, verification,
// handover, trust, claims, auth, matching). One *Store satisfies all of
// them: a pgxpool-backed struct, Connect/Close/InitSchema, and
// per-operation methods that take a transaction when a state change must
// be atomic with another write.
package db

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var SchemaSQL string

// Store wraps a pgx connection pool and implements every domain
// Repository interface Byaboneka+ Core depends on.
type Store struct {
	pool *pgxpool.Pool
}

// Connect opens a pooled connection to Postgres and verifies reachability.
// maxConns bounds the pool size; 0 leaves pgxpool's own default in place.
func Connect(ctx context.Context, connStr string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("invalid database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping failed: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// InitSchema applies schema.sql. Safe to call on every boot: every
// statement is CREATE ... IF NOT EXISTS.
func (s *Store) InitSchema(ctx context.Context, schemaSQL string) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
