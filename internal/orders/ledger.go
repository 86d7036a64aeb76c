package orders

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shopstack/orderflow/internal/models"
)

// ErrNotFound is returned when an order id does not exist (or is still
// pending and therefore invisible to readers).
var ErrNotFound = errors.New("orders: order not found")

// Ledger is the durable append-create store for orders and their line
// items. Placement writes go through a PlacementTx so that the pending
// row, its items and the final total land all-or-nothing; readers can
// never observe a partial item list.
type Ledger struct {
	DB *sql.DB
}

// NewLedger returns a Ledger over the given connection pool.
func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{DB: db}
}

// PlacementTx is the write scope for one order placement. Rollback is
// the abort path: a pending order that never finalizes simply never
// becomes visible.
type PlacementTx struct {
	tx *sql.Tx
}

// Begin opens the placement transaction scope.
func (l *Ledger) Begin(ctx context.Context) (*PlacementTx, error) {
	tx, err := l.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("orders: begin: %w", err)
	}
	return &PlacementTx{tx: tx}, nil
}

// CreatePending inserts the order shell: status=pending, total=0. The
// shipping address is embedded as a JSON snapshot, not a reference.
func (t *PlacementTx) CreatePending(ctx context.Context, userID int64, addr models.ShippingAddress, notes string) (int64, error) {
	addrJSON, err := json.Marshal(addr)
	if err != nil {
		return 0, fmt.Errorf("orders: encode address: %w", err)
	}

	var notesVal sql.NullString
	if notes != "" {
		notesVal = sql.NullString{String: notes, Valid: true}
	}

	now := time.Now()
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO orders (user_id, status, total_amount, shipping_address, notes, created_at, updated_at)
		 VALUES (?, ?, 0, ?, ?, ?, ?)`,
		userID, models.OrderStatusPending, addrJSON, notesVal, now, now)
	if err != nil {
		return 0, fmt.Errorf("orders: create pending: %w", err)
	}

	orderID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("orders: new order id: %w", err)
	}
	return orderID, nil
}

// AppendItem writes one frozen line-item snapshot for the order.
func (t *PlacementTx) AppendItem(ctx context.Context, orderID int64, item models.OrderItem) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO order_items (order_id, product_id, product_name, unit_price, quantity, subtotal, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		orderID, item.ProductID, item.ProductName, item.UnitPrice.String(),
		item.Quantity, item.Subtotal.String(), time.Now())
	if err != nil {
		return fmt.Errorf("orders: append item: %w", err)
	}
	return nil
}

// Finalize fixes the total and flips the order to confirmed. Until
// this runs (and the scope commits) the order is not a purchase.
func (t *PlacementTx) Finalize(ctx context.Context, orderID int64, total decimal.Decimal) error {
	res, err := t.tx.ExecContext(ctx,
		"UPDATE orders SET status = ?, total_amount = ?, updated_at = ? WHERE id = ?",
		models.OrderStatusConfirmed, total.String(), time.Now(), orderID)
	if err != nil {
		return fmt.Errorf("orders: finalize: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("orders: finalize result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Commit makes the order durable. After this the order is never rolled
// back, whatever happens to the post-commit cart clear.
func (t *PlacementTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("orders: commit: %w", err)
	}
	return nil
}

// Rollback aborts the placement. Safe to call after Commit (no-op), so
// callers can keep it in a defer as a safety net.
func (t *PlacementTx) Rollback() error {
	err := t.tx.Rollback()
	if err != nil && err != sql.ErrTxDone {
		return fmt.Errorf("orders: rollback: %w", err)
	}
	return nil
}

const orderColumns = "id, user_id, status, total_amount, shipping_address, notes, created_at, updated_at"

// GetByID returns one confirmed (or cancelled) order with its items.
// Pending rows are hidden: a mid-flight placement must not leak.
func (l *Ledger) GetByID(ctx context.Context, orderID int64) (models.Order, error) {
	row := l.DB.QueryRowContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE id = ? AND status != ?",
		orderID, models.OrderStatusPending)

	o, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return models.Order{}, ErrNotFound
	}
	if err != nil {
		return models.Order{}, fmt.Errorf("orders: get: %w", err)
	}

	items, err := l.itemsFor(ctx, o.ID)
	if err != nil {
		return models.Order{}, err
	}
	o.Items = items
	return o, nil
}

// ListByUser returns the user's non-pending orders, newest first.
func (l *Ledger) ListByUser(ctx context.Context, userID int64) ([]models.Order, error) {
	rows, err := l.DB.QueryContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE user_id = ? AND status != ? ORDER BY created_at DESC",
		userID, models.OrderStatusPending)
	if err != nil {
		return nil, fmt.Errorf("orders: list: %w", err)
	}
	defer rows.Close()

	list := []models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("orders: scan: %w", err)
		}
		items, err := l.itemsFor(ctx, o.ID)
		if err != nil {
			return nil, err
		}
		o.Items = items
		list = append(list, o)
	}
	return list, rows.Err()
}

// PurgeStalePending hard-deletes pending rows older than the cutoff.
// Normal aborts roll back and leave nothing; this is the backstop for
// rows orphaned by a coordinator that died mid-commit.
func (l *Ledger) PurgeStalePending(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	res, err := l.DB.ExecContext(ctx,
		"DELETE FROM orders WHERE status = ? AND created_at < ?",
		models.OrderStatusPending, cutoff)
	if err != nil {
		return 0, fmt.Errorf("orders: purge stale pending: %w", err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (models.Order, error) {
	var (
		o        models.Order
		addrJSON []byte
	)
	err := row.Scan(&o.ID, &o.UserID, &o.Status, &o.TotalAmount,
		&addrJSON, &o.Notes, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return o, err
	}
	if err := json.Unmarshal(addrJSON, &o.ShippingAddress); err != nil {
		return o, fmt.Errorf("orders: decode address: %w", err)
	}
	return o, nil
}

func (l *Ledger) itemsFor(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	rows, err := l.DB.QueryContext(ctx,
		`SELECT id, order_id, product_id, product_name, unit_price, quantity, subtotal, created_at
		 FROM order_items WHERE order_id = ? ORDER BY id ASC`, orderID)
	if err != nil {
		return nil, fmt.Errorf("orders: items: %w", err)
	}
	defer rows.Close()

	items := []models.OrderItem{}
	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName,
			&it.UnitPrice, &it.Quantity, &it.Subtotal, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("orders: scan item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
