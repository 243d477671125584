package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGConfig configures the PostgreSQL pool.
type PGConfig struct {
	URL      string
	MaxConns int32
}

var newPool = pgxpool.NewWithConfig

// OpenPostgres opens a pgx pool and makes sure the schema exists.
func OpenPostgres(ctx context.Context, cfg PGConfig) (*pgxpool.Pool, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres url: %w", err)
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	pool, err := newPool(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("opening postgres pool: %w", err)
	}
	if _, err := pool.Exec(ctx, PostgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("applying postgres schema: %w", err)
	}
	return pool, nil
}

// PostgresSchema mirrors the SQLite schema.
const PostgresSchema = `
CREATE TABLE IF NOT EXISTS brands (
    id BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS products (
    id BIGSERIAL PRIMARY KEY,
    code TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    name_folded TEXT NOT NULL,
    brand_id BIGINT REFERENCES brands(id),
    unit_price DOUBLE PRECISION NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_products_name_folded ON products(name_folded);

CREATE TABLE IF NOT EXISTS inventory (
    product_id BIGINT PRIMARY KEY REFERENCES products(id) ON DELETE CASCADE,
    current_stock DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK(current_stock >= 0),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS conversation_orders (
    id TEXT PRIMARY KEY,
    customer_id TEXT NOT NULL,
    product_id BIGINT NOT NULL REFERENCES products(id),
    quantity INTEGER NOT NULL CHECK(quantity > 0),
    unit_price DOUBLE PRECISION NOT NULL DEFAULT 0,
    total_price DOUBLE PRECISION NOT NULL DEFAULT 0,
    conversation_context JSONB NOT NULL DEFAULT '{}',
    order_status TEXT NOT NULL DEFAULT 'confirmed',
    user_query TEXT NOT NULL DEFAULT '',
    ai_response TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS chat_sessions (
    id TEXT PRIMARY KEY,
    snapshot JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`
