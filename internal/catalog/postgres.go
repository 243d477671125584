package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ziadkadry99/pneumabot/internal/textnorm"
)

// PostgresSource reads and writes the catalogue in PostgreSQL.
type PostgresSource struct {
	pool *pgxpool.Pool
}

// NewPostgresSource creates a source over pool.
func NewPostgresSource(pool *pgxpool.Pool) *PostgresSource {
	return &PostgresSource{pool: pool}
}

var (
	_ Source = (*PostgresSource)(nil)
	_ Writer = (*PostgresSource)(nil)
)

func pgPlaceholder(n int) string { return "$" + strconv.Itoa(n) }

func (s *PostgresSource) Find(ctx context.Context, q Query) ([]ProductRef, error) {
	query, args := buildFind(q, pgPlaceholder)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying products: %w", err)
	}
	defer rows.Close()

	var out []ProductRef
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresSource) ByCode(ctx context.Context, code string) (*ProductRef, error) {
	p, err := scanProduct(s.pool.QueryRow(ctx, fmt.Sprintf(selectByCode, "$1"), code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying product %s: %w", code, err)
	}
	return &p, nil
}

func (s *PostgresSource) Stock(ctx context.Context, productID int64) (float64, error) {
	var n float64
	err := s.pool.QueryRow(ctx, fmt.Sprintf(selectStock, "$1"), productID).Scan(&n)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("querying stock of %d: %w", productID, err)
	}
	return n, nil
}

// Upsert writes rows by code in a single transaction.
func (s *PostgresSource) Upsert(ctx context.Context, rows []Row) (int, error) {
	n := 0
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for _, r := range rows {
			code := strings.TrimSpace(r.Code)
			if code == "" {
				continue
			}

			var brandID *int64
			if brand := strings.TrimSpace(r.Brand); brand != "" {
				var id int64
				err := tx.QueryRow(ctx, `
INSERT INTO brands (name) VALUES ($1)
ON CONFLICT (name) DO UPDATE SET name = excluded.name
RETURNING id`, brand).Scan(&id)
				if err != nil {
					return fmt.Errorf("upserting brand %s: %w", brand, err)
				}
				brandID = &id
			}

			var productID int64
			err := tx.QueryRow(ctx, `
INSERT INTO products (code, name, name_folded, brand_id, unit_price)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (code) DO UPDATE SET
    name = excluded.name,
    name_folded = excluded.name_folded,
    brand_id = excluded.brand_id,
    unit_price = excluded.unit_price
RETURNING id`, code, r.Name, textnorm.Fold(r.Name), brandID, r.UnitPrice).Scan(&productID)
			if err != nil {
				return fmt.Errorf("upserting product %s: %w", code, err)
			}

			stock := r.Stock
			if stock < 0 {
				stock = 0
			}
			if _, err := tx.Exec(ctx, `
INSERT INTO inventory (product_id, current_stock, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (product_id) DO UPDATE SET
    current_stock = excluded.current_stock,
    updated_at = excluded.updated_at`, productID, stock); err != nil {
				return fmt.Errorf("upserting stock of %s: %w", code, err)
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}
