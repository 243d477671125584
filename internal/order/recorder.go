package order

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ziadkadry99/pneumabot/internal/db"
)

// StatusConfirmed is the status of an order the customer accepted.
const StatusConfirmed = "confirmed"

// Record is a confirmed order as persisted.
type Record struct {
	ID         string
	CustomerID string
	ProductID  int64
	Quantity   int
	UnitPrice  float64
	TotalPrice float64
	// Snapshot is the JSON session state at confirmation time.
	Snapshot  []byte
	Status    string
	UserQuery string
	Reply     string
	CreatedAt time.Time
}

// Recorder persists confirmed orders.
type Recorder interface {
	Record(ctx context.Context, r Record) error
}

const insertOrder = `INSERT INTO conversation_orders
    (id, customer_id, product_id, quantity, unit_price, total_price,
     conversation_context, order_status, user_query, ai_response, created_at)
VALUES (%s)`

// SQLiteRecorder writes orders to the conversation_orders table.
type SQLiteRecorder struct {
	db *db.DB
}

// NewSQLiteRecorder creates a recorder over d.
func NewSQLiteRecorder(d *db.DB) *SQLiteRecorder {
	return &SQLiteRecorder{db: d}
}

func (s *SQLiteRecorder) Record(ctx context.Context, r Record) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(insertOrder, "?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?"),
		r.ID, r.CustomerID, r.ProductID, r.Quantity, r.UnitPrice, r.TotalPrice,
		string(r.Snapshot), r.Status, r.UserQuery, r.Reply, r.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting order %s: %w", r.ID, err)
	}
	return nil
}

// PostgresRecorder writes orders through a pgx pool.
type PostgresRecorder struct {
	pool *pgxpool.Pool
}

// NewPostgresRecorder creates a recorder over pool.
func NewPostgresRecorder(pool *pgxpool.Pool) *PostgresRecorder {
	return &PostgresRecorder{pool: pool}
}

func (p *PostgresRecorder) Record(ctx context.Context, r Record) error {
	_, err := p.pool.Exec(ctx, fmt.Sprintf(insertOrder, "$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11"),
		r.ID, r.CustomerID, r.ProductID, r.Quantity, r.UnitPrice, r.TotalPrice,
		string(r.Snapshot), r.Status, r.UserQuery, r.Reply, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting order %s: %w", r.ID, err)
	}
	return nil
}
