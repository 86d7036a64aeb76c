package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockLedger(t *testing.T) (*Ledger, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewLedger(db), mock
}

func TestTryReduceSuccess(t *testing.T) {
	ledger, mock := newMockLedger(t)

	mock.ExpectExec(`UPDATE inventory SET quantity = quantity - \? WHERE product_id = \? AND quantity >= \?`).
		WithArgs(2, int64(7), 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT quantity FROM inventory WHERE product_id = \?`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"quantity"}).AddRow(3))

	ok, remaining, err := ledger.TryReduce(context.Background(), 7, 2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, remaining)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTryReduceInsufficientStock(t *testing.T) {
	ledger, mock := newMockLedger(t)

	// The conditional update matches no row when stock is short.
	mock.ExpectExec(`UPDATE inventory SET quantity = quantity - \?`).
		WithArgs(10, int64(7), 10).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT quantity FROM inventory WHERE product_id = \?`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"quantity"}).AddRow(3))

	ok, remaining, err := ledger.TryReduce(context.Background(), 7, 10)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 3, remaining)
}

func TestTryReduceMissingRowReadsAsNoStock(t *testing.T) {
	ledger, mock := newMockLedger(t)

	mock.ExpectExec(`UPDATE inventory SET quantity = quantity - \?`).
		WithArgs(1, int64(99), 1).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT quantity FROM inventory WHERE product_id = \?`).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"quantity"}))

	// Unprovisioned product: same ok=false as short stock, zero left.
	ok, remaining, err := ledger.TryReduce(context.Background(), 99, 1)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, remaining)
}

func TestTryReduceRejectsNonPositiveQuantity(t *testing.T) {
	ledger, _ := newMockLedger(t)

	_, _, err := ledger.TryReduce(context.Background(), 7, 0)
	assert.Error(t, err)
	_, _, err = ledger.TryReduce(context.Background(), 7, -3)
	assert.Error(t, err)
}

func TestRestore(t *testing.T) {
	ledger, mock := newMockLedger(t)

	mock.ExpectExec(`UPDATE inventory SET quantity = quantity \+ \? WHERE product_id = \?`).
		WithArgs(2, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, ledger.Restore(context.Background(), 7, 2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRestoreMissingRow(t *testing.T) {
	ledger, mock := newMockLedger(t)

	mock.ExpectExec(`UPDATE inventory SET quantity = quantity \+ \?`).
		WithArgs(2, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := ledger.Restore(context.Background(), 7, 2)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInitializeUpserts(t *testing.T) {
	ledger, mock := newMockLedger(t)
	now := time.Now()

	mock.ExpectExec(`INSERT INTO inventory \(product_id, quantity\) VALUES \(\?, \?\) ON DUPLICATE KEY UPDATE quantity = VALUES\(quantity\)`).
		WithArgs(int64(7), 50).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(`SELECT id, product_id, quantity, low_stock_threshold, created_at, updated_at FROM inventory WHERE product_id = \?`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "product_id", "quantity", "low_stock_threshold", "created_at", "updated_at"}).
			AddRow(1, 7, 50, 10, now, now))

	rec, err := ledger.Initialize(context.Background(), 7, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(7), rec.ProductID)
	assert.Equal(t, 50, rec.Quantity)
}

func TestSetQuantityNotFound(t *testing.T) {
	ledger, mock := newMockLedger(t)

	mock.ExpectExec(`UPDATE inventory SET quantity = \? WHERE product_id = \?`).
		WithArgs(5, int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := ledger.SetQuantity(context.Background(), 99, 5)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetNotFound(t *testing.T) {
	ledger, mock := newMockLedger(t)

	mock.ExpectQuery(`SELECT id, product_id, quantity, low_stock_threshold, created_at, updated_at FROM inventory WHERE product_id = \?`).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "product_id", "quantity", "low_stock_threshold", "created_at", "updated_at"}))

	_, err := ledger.Get(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListLow(t *testing.T) {
	ledger, mock := newMockLedger(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT id, product_id, quantity, low_stock_threshold, created_at, updated_at FROM inventory WHERE quantity <= low_stock_threshold ORDER BY quantity ASC`).
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "product_id", "quantity", "low_stock_threshold", "created_at", "updated_at"}).
			AddRow(1, 7, 0, 10, now, now).
			AddRow(2, 8, 4, 10, now, now))

	records, err := ledger.ListLow(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, int64(7), records[0].ProductID)
	assert.Equal(t, 4, records[1].Quantity)
}
