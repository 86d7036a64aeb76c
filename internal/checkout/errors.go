package checkout

import (
	"errors"
	"fmt"
)

// ErrEmptyCart means there was nothing to order. User-correctable.
var ErrEmptyCart = errors.New("checkout: cart is empty")

// ErrCheckoutInProgress means another attempt carrying the same
// idempotency key has claimed the checkout and has not finished yet.
var ErrCheckoutInProgress = errors.New("checkout: a checkout with this idempotency key is already in progress")

// ProductUnavailableError reports a cart line whose product no longer
// exists in the catalog. The cart keeps the line; the client must
// remove it before retrying.
type ProductUnavailableError struct {
	ProductID int64
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("checkout: product %d is no longer available", e.ProductID)
}

// InsufficientStockError reports the line whose conditional decrement
// (or pre-validation) found too little stock. Retryable by reducing
// the quantity.
type InsufficientStockError struct {
	ProductID int64
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("checkout: insufficient stock for product %d (requested %d, available %d)",
		e.ProductID, e.Requested, e.Available)
}
