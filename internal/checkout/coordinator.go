package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	"github.com/shopstack/orderflow/internal/catalog"
	"github.com/shopstack/orderflow/internal/inventory"
	"github.com/shopstack/orderflow/internal/models"
	"github.com/shopstack/orderflow/internal/orders"
)

// The coordinator talks to its collaborators only through these
// narrow contracts; main wires the real clients, tests wire fakes.

// CartStore is the slice of the cart contract checkout needs.
type CartStore interface {
	Get(ctx context.Context, customerID int64) (models.Cart, error)
	Clear(ctx context.Context, customerID int64) error
}

// InventoryLedger is the stock counter contract. TryReduce is the
// concurrency anchor: it must be atomic on the storage side.
type InventoryLedger interface {
	Get(ctx context.Context, productID int64) (models.InventoryRecord, error)
	TryReduce(ctx context.Context, productID int64, quantity int) (ok bool, remaining int, err error)
	Restore(ctx context.Context, productID int64, quantity int) error
}

// PlacementTx is one all-or-nothing order write scope.
type PlacementTx interface {
	CreatePending(ctx context.Context, userID int64, addr models.ShippingAddress, notes string) (int64, error)
	AppendItem(ctx context.Context, orderID int64, item models.OrderItem) error
	Finalize(ctx context.Context, orderID int64, total decimal.Decimal) error
	Commit() error
	Rollback() error
}

// OrderLedger opens placement scopes and reads back committed orders.
type OrderLedger interface {
	Begin(ctx context.Context) (PlacementTx, error)
	GetByID(ctx context.Context, orderID int64) (models.Order, error)
}

// sqlOrderLedger adapts *orders.Ledger (whose Begin returns the
// concrete tx type) to the OrderLedger contract.
type sqlOrderLedger struct {
	ledger *orders.Ledger
}

func (s sqlOrderLedger) Begin(ctx context.Context) (PlacementTx, error) {
	tx, err := s.ledger.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

func (s sqlOrderLedger) GetByID(ctx context.Context, orderID int64) (models.Order, error) {
	return s.ledger.GetByID(ctx, orderID)
}

// WrapOrderLedger exposes a SQL order ledger through the coordinator's
// contract.
func WrapOrderLedger(l *orders.Ledger) OrderLedger {
	return sqlOrderLedger{ledger: l}
}

// Coordinator turns an ephemeral cart into a durable order while
// deducting finite inventory, without a cross-service transaction.
// One PlaceOrder call is one independent unit of work; instances share
// no state and rely on the inventory ledger's conditional decrement
// for correctness under concurrency.
type Coordinator struct {
	Carts     CartStore
	Catalog   catalog.Lookup
	Inventory InventoryLedger
	Orders    OrderLedger
	Idem      *IdempotencyStore // optional
}

// PlaceOrderInput is one checkout request. IdempotencyKey is optional;
// without it a retried request gets no duplicate protection.
type PlaceOrderInput struct {
	CustomerID      int64
	ShippingAddress models.ShippingAddress
	Notes           string
	IdempotencyKey  string
}

// PlaceOrder runs the placement sequence:
//
//  1. fetch the cart (EmptyCart if no lines)
//  2. snapshot pass: price and name per line from the catalog
//  3. validation pass: check every line's stock before touching any
//  4. placement scope: pending order + item snapshots
//  5. decrement pass: conditional decrements in cart order
//  6. finalize + commit
//  7. best-effort: record idempotency result, clear the cart
//
// Validate-then-decrement means a failed checkout normally mutates
// nothing. The narrow race between passes 3 and 5 is closed by the
// conditional decrement itself: a pass-5 loss restores the decrements
// applied earlier in the same pass and aborts.
func (co *Coordinator) PlaceOrder(ctx context.Context, in PlaceOrderInput) (models.Order, error) {
	// 0. --- Idempotency claim ---
	claimed := false
	if co.Idem != nil && in.IdempotencyKey != "" {
		orderID, state, err := co.Idem.Claim(ctx, in.IdempotencyKey)
		if err != nil {
			return models.Order{}, err
		}
		switch state {
		case StateDone:
			return co.Orders.GetByID(ctx, orderID)
		case StateInFlight:
			return models.Order{}, ErrCheckoutInProgress
		}
		claimed = true
	}

	order, err := co.place(ctx, in)

	if claimed {
		if err != nil {
			if relErr := co.Idem.Release(ctx, in.IdempotencyKey); relErr != nil {
				log.Printf("checkout: failed to release idempotency key %q: %v", in.IdempotencyKey, relErr)
			}
		} else {
			if remErr := co.Idem.Complete(ctx, in.IdempotencyKey, order.ID); remErr != nil {
				log.Printf("checkout: failed to record idempotency key %q: %v", in.IdempotencyKey, remErr)
			}
		}
	}

	return order, err
}

func (co *Coordinator) place(ctx context.Context, in PlaceOrderInput) (models.Order, error) {
	// 1. --- Fetch cart ---
	crt, err := co.Carts.Get(ctx, in.CustomerID)
	if err != nil {
		return models.Order{}, fmt.Errorf("checkout: read cart: %w", err)
	}
	if crt.IsEmpty() {
		return models.Order{}, ErrEmptyCart
	}

	// 2. --- Snapshot pass ---
	// Prices and names are captured now; the order items stay frozen
	// even if the catalog changes a second later.
	lines := make([]models.OrderItem, 0, len(crt.Items))
	total := decimal.Zero
	for _, item := range crt.Items {
		product, err := co.Catalog.GetProduct(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, catalog.ErrProductNotFound) {
				return models.Order{}, &ProductUnavailableError{ProductID: item.ProductID}
			}
			return models.Order{}, fmt.Errorf("checkout: catalog lookup: %w", err)
		}

		subtotal := product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(subtotal)
		lines = append(lines, models.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			UnitPrice:   product.Price,
			Quantity:    item.Quantity,
			Subtotal:    subtotal,
		})
	}

	// 3. --- Validation pass ---
	// Check every line's availability before decrementing anything, so
	// the common failure (plain out-of-stock) mutates nothing at all.
	for _, line := range lines {
		rec, err := co.Inventory.Get(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, inventory.ErrNotFound) {
				// No inventory row reads the same as zero stock.
				return models.Order{}, &InsufficientStockError{
					ProductID: line.ProductID, Requested: line.Quantity, Available: 0,
				}
			}
			return models.Order{}, fmt.Errorf("checkout: validate stock: %w", err)
		}
		if rec.Quantity < line.Quantity {
			return models.Order{}, &InsufficientStockError{
				ProductID: line.ProductID, Requested: line.Quantity, Available: rec.Quantity,
			}
		}
	}

	// 4. --- Placement scope ---
	tx, err := co.Orders.Begin(ctx)
	if err != nil {
		return models.Order{}, fmt.Errorf("checkout: open placement: %w", err)
	}
	defer tx.Rollback() // Safety net; no-op once committed.

	orderID, err := tx.CreatePending(ctx, in.CustomerID, in.ShippingAddress, in.Notes)
	if err != nil {
		return models.Order{}, fmt.Errorf("checkout: create pending order: %w", err)
	}

	for _, line := range lines {
		if err := tx.AppendItem(ctx, orderID, line); err != nil {
			return models.Order{}, fmt.Errorf("checkout: append item: %w", err)
		}
	}

	// 5. --- Decrement pass ---
	// Strictly in cart order. Each success is remembered so a later
	// loss can be compensated before aborting.
	applied := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		ok, remaining, err := co.Inventory.TryReduce(ctx, line.ProductID, line.Quantity)
		if err != nil {
			co.restore(applied)
			return models.Order{}, fmt.Errorf("checkout: reduce stock: %w", err)
		}
		if !ok {
			// Lost the race between validation and decrement.
			co.restore(applied)
			return models.Order{}, &InsufficientStockError{
				ProductID: line.ProductID, Requested: line.Quantity, Available: remaining,
			}
		}
		applied = append(applied, line)
	}

	// 6. --- Finalize and commit ---
	if err := tx.Finalize(ctx, orderID, total); err != nil {
		co.restore(applied)
		return models.Order{}, fmt.Errorf("checkout: finalize order: %w", err)
	}
	if err := tx.Commit(); err != nil {
		co.restore(applied)
		return models.Order{}, fmt.Errorf("checkout: commit order: %w", err)
	}

	// 7. --- Post-commit, best effort ---
	// The order is durable now. A failed cart clear is logged and left
	// to the cart's TTL; failing the checkout here would risk the far
	// worse outcome of a duplicate order.
	if err := co.Carts.Clear(ctx, in.CustomerID); err != nil {
		log.Printf("checkout: order %d committed but cart clear failed for customer %d: %v",
			orderID, in.CustomerID, err)
	}

	order, err := co.Orders.GetByID(ctx, orderID)
	if err != nil {
		// Committed but unreadable right now; respond from the
		// snapshots rather than failing a completed purchase.
		log.Printf("checkout: order %d committed but read-back failed: %v", orderID, err)
		return models.Order{
			ID:              orderID,
			UserID:          in.CustomerID,
			Status:          models.OrderStatusConfirmed,
			TotalAmount:     total,
			ShippingAddress: in.ShippingAddress,
			Items:           lines,
		}, nil
	}
	return order, nil
}

// restore undoes already-applied decrements after a mid-sequence
// failure. It runs on a fresh context: the compensation must go
// through even when the caller's deadline has expired.
func (co *Coordinator) restore(applied []models.OrderItem) {
	if len(applied) == 0 {
		return
	}
	ctx := context.Background()
	for _, line := range applied {
		if err := co.Inventory.Restore(ctx, line.ProductID, line.Quantity); err != nil {
			log.Printf("checkout: failed to restore %d units of product %d: %v",
				line.Quantity, line.ProductID, err)
		}
	}
}
