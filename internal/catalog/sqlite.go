package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/ziadkadry99/pneumabot/internal/db"
	"github.com/ziadkadry99/pneumabot/internal/textnorm"
)

// SQLiteSource reads and writes the catalogue in the SQLite database.
type SQLiteSource struct {
	db *db.DB
}

// NewSQLiteSource creates a source over d.
func NewSQLiteSource(d *db.DB) *SQLiteSource {
	return &SQLiteSource{db: d}
}

var (
	_ Source = (*SQLiteSource)(nil)
	_ Writer = (*SQLiteSource)(nil)
)

func sqlitePlaceholder(int) string { return "?" }

func (s *SQLiteSource) Find(ctx context.Context, q Query) ([]ProductRef, error) {
	query, args := buildFind(q, sqlitePlaceholder)
	rows, err := s.db.QueryContext(ctx, query, args...)
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

func (s *SQLiteSource) ByCode(ctx context.Context, code string) (*ProductRef, error) {
	p, err := scanProduct(s.db.QueryRowContext(ctx, fmt.Sprintf(selectByCode, "?"), code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying product %s: %w", code, err)
	}
	return &p, nil
}

func (s *SQLiteSource) Stock(ctx context.Context, productID int64) (float64, error) {
	var n float64
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(selectStock, "?"), productID).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("querying stock of %d: %w", productID, err)
	}
	return n, nil
}

// Upsert writes rows by code in a single transaction.
func (s *SQLiteSource) Upsert(ctx context.Context, rows []Row) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning import transaction: %w", err)
	}
	defer tx.Rollback()

	brandIDs := map[string]int64{}
	n := 0
	for _, r := range rows {
		code := strings.TrimSpace(r.Code)
		if code == "" {
			continue
		}

		var brandID sql.NullInt64
		if brand := strings.TrimSpace(r.Brand); brand != "" {
			id, ok := brandIDs[brand]
			if !ok {
				if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO brands (name) VALUES (?)`, brand); err != nil {
					return n, fmt.Errorf("inserting brand %s: %w", brand, err)
				}
				if err := tx.QueryRowContext(ctx, `SELECT id FROM brands WHERE name = ?`, brand).Scan(&id); err != nil {
					return n, fmt.Errorf("reading brand %s: %w", brand, err)
				}
				brandIDs[brand] = id
			}
			brandID = sql.NullInt64{Int64: id, Valid: true}
		}

		var productID int64
		err := tx.QueryRowContext(ctx, `
INSERT INTO products (code, name, name_folded, brand_id, unit_price)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(code) DO UPDATE SET
    name = excluded.name,
    name_folded = excluded.name_folded,
    brand_id = excluded.brand_id,
    unit_price = excluded.unit_price
RETURNING id`, code, r.Name, textnorm.Fold(r.Name), brandID, r.UnitPrice).Scan(&productID)
		if err != nil {
			return n, fmt.Errorf("upserting product %s: %w", code, err)
		}

		stock := r.Stock
		if stock < 0 {
			stock = 0
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO inventory (product_id, current_stock, updated_at)
VALUES (?, ?, datetime('now'))
ON CONFLICT(product_id) DO UPDATE SET
    current_stock = excluded.current_stock,
    updated_at = excluded.updated_at`, productID, stock); err != nil {
			return n, fmt.Errorf("upserting stock of %s: %w", code, err)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing import: %w", err)
	}
	return n, nil
}
