package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSchema creates the review tables. The UNIQUE pair constraint is the
// storage-level guard against duplicate decisions; its name is matched by the
// repository when classifying errors.
const PostgresSchema = `
CREATE TABLE IF NOT EXISTS documents (
	id          text PRIMARY KEY,
	title       text NOT NULL,
	content     text NOT NULL,
	status      text NOT NULL DEFAULT 'draft'
	            CHECK (status IN ('draft', 'pending', 'approved', 'rejected')),
	creator_id  text NOT NULL,
	version     bigint NOT NULL DEFAULT 1,
	created_at  timestamptz NOT NULL DEFAULT now(),
	updated_at  timestamptz NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_documents_creator ON documents (creator_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_documents_status ON documents (status, created_at DESC);

CREATE TABLE IF NOT EXISTS approvals (
	id           text PRIMARY KEY,
	document_id  text NOT NULL REFERENCES documents (id) ON DELETE CASCADE,
	approver_id  text NOT NULL,
	action       text NOT NULL CHECK (action IN ('approved', 'rejected')),
	comment      text,
	created_at   timestamptz NOT NULL DEFAULT now(),
	CONSTRAINT uq_approvals_document_approver UNIQUE (document_id, approver_id)
);

CREATE INDEX IF NOT EXISTS idx_approvals_approver ON approvals (approver_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_approvals_created ON approvals (created_at DESC);

CREATE TABLE IF NOT EXISTS users (
	id          text PRIMARY KEY,
	name        text NOT NULL DEFAULT '',
	email       text NOT NULL DEFAULT '',
	role        text NOT NULL DEFAULT 'user',
	created_at  timestamptz NOT NULL DEFAULT now(),
	updated_at  timestamptz NOT NULL DEFAULT now()
);
`

// ConnectPostgres opens a pool and verifies it. Caller should call pool.Close().
func ConnectPostgres(ctx context.Context, dsn string, maxConns int32, timeout time.Duration) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres config: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return pool, nil
}

// MigratePostgres applies PostgresSchema. Statements are idempotent.
func MigratePostgres(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, PostgresSchema); err != nil {
		return fmt.Errorf("postgres migrate: %w", err)
	}
	return nil
}
