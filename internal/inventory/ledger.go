package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopstack/orderflow/internal/models"
)

// ErrNotFound is returned by reads and absolute sets when a product
// has no inventory row. TryReduce deliberately does NOT return it —
// see the comment there.
var ErrNotFound = errors.New("inventory: record not found")

// Ledger is the durable per-product stock counter. All checkout-path
// mutation goes through TryReduce; Initialize and SetQuantity are
// admin-only operations outside the checkout path.
type Ledger struct {
	DB *sql.DB
}

// NewLedger returns a Ledger over the given connection pool.
func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{DB: db}
}

// TryReduce attempts to deduct quantity from the product's stock as a
// single atomic conditional update:
//
//	UPDATE inventory SET quantity = quantity - n WHERE ... AND quantity >= n
//
// The database serializes concurrent callers on this row, so no more
// than the available stock is ever granted no matter how many checkout
// instances race. ok=false covers both "not enough stock" and "no
// inventory row at all" — the caller handles both the same way.
func (l *Ledger) TryReduce(ctx context.Context, productID int64, quantity int) (ok bool, remaining int, err error) {
	if quantity <= 0 {
		return false, 0, fmt.Errorf("inventory: invalid reduce quantity %d", quantity)
	}

	res, err := l.DB.ExecContext(ctx,
		`UPDATE inventory
		 SET quantity = quantity - ?
		 WHERE product_id = ? AND quantity >= ?`,
		quantity, productID, quantity)
	if err != nil {
		return false, 0, fmt.Errorf("inventory: reduce: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, 0, fmt.Errorf("inventory: reduce result: %w", err)
	}

	// Re-read the counter for the caller's response. A missing row
	// reads as zero remaining.
	var current int
	err = l.DB.QueryRowContext(ctx,
		"SELECT quantity FROM inventory WHERE product_id = ?", productID).Scan(&current)
	if err != nil && err != sql.ErrNoRows {
		return false, 0, fmt.Errorf("inventory: read after reduce: %w", err)
	}

	return affected > 0, current, nil
}

// Restore adds quantity back to the product's stock. It is the
// compensation for a TryReduce that has to be undone when a later line
// of the same order fails; it is called exactly once per applied
// decrement, never speculatively.
func (l *Ledger) Restore(ctx context.Context, productID int64, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("inventory: invalid restore quantity %d", quantity)
	}

	res, err := l.DB.ExecContext(ctx,
		"UPDATE inventory SET quantity = quantity + ? WHERE product_id = ?",
		quantity, productID)
	if err != nil {
		return fmt.Errorf("inventory: restore: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("inventory: restore result: %w", err)
	}
	if affected == 0 {
		// The row we just decremented cannot vanish; if it did,
		// something outside this service deleted it.
		return ErrNotFound
	}
	return nil
}

// Initialize provisions the inventory row for a product with upsert
// semantics: re-initializing an existing product overwrites its count.
func (l *Ledger) Initialize(ctx context.Context, productID int64, quantity int) (models.InventoryRecord, error) {
	if quantity < 0 {
		return models.InventoryRecord{}, fmt.Errorf("inventory: invalid initial quantity %d", quantity)
	}

	_, err := l.DB.ExecContext(ctx,
		`INSERT INTO inventory (product_id, quantity)
		 VALUES (?, ?)
		 ON DUPLICATE KEY UPDATE quantity = VALUES(quantity)`,
		productID, quantity)
	if err != nil {
		return models.InventoryRecord{}, fmt.Errorf("inventory: initialize: %w", err)
	}

	return l.Get(ctx, productID)
}

// SetQuantity overwrites the stock count for an already-provisioned
// product (admin restock / correction).
func (l *Ledger) SetQuantity(ctx context.Context, productID int64, quantity int) error {
	if quantity < 0 {
		return fmt.Errorf("inventory: invalid quantity %d", quantity)
	}

	res, err := l.DB.ExecContext(ctx,
		"UPDATE inventory SET quantity = ? WHERE product_id = ?",
		quantity, productID)
	if err != nil {
		return fmt.Errorf("inventory: set quantity: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("inventory: set quantity result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Get returns the inventory record for a product.
func (l *Ledger) Get(ctx context.Context, productID int64) (models.InventoryRecord, error) {
	var rec models.InventoryRecord
	err := l.DB.QueryRowContext(ctx,
		`SELECT id, product_id, quantity, low_stock_threshold, created_at, updated_at
		 FROM inventory WHERE product_id = ?`, productID).
		Scan(&rec.ID, &rec.ProductID, &rec.Quantity, &rec.LowStockThreshold,
			&rec.CreatedAt, &rec.UpdatedAt)
	if err == sql.ErrNoRows {
		return rec, ErrNotFound
	}
	if err != nil {
		return rec, fmt.Errorf("inventory: get: %w", err)
	}
	return rec, nil
}

// ListLow returns every record at or below its low-stock threshold,
// for the restock dashboard.
func (l *Ledger) ListLow(ctx context.Context) ([]models.InventoryRecord, error) {
	rows, err := l.DB.QueryContext(ctx,
		`SELECT id, product_id, quantity, low_stock_threshold, created_at, updated_at
		 FROM inventory
		 WHERE quantity <= low_stock_threshold
		 ORDER BY quantity ASC`)
	if err != nil {
		return nil, fmt.Errorf("inventory: list low: %w", err)
	}
	defer rows.Close()

	records := []models.InventoryRecord{}
	for rows.Next() {
		var rec models.InventoryRecord
		if err := rows.Scan(&rec.ID, &rec.ProductID, &rec.Quantity,
			&rec.LowStockThreshold, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("inventory: scan low record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
