package models

import "github.com/shopspring/decimal"

// Product is the read-only view of a catalog entry, as returned by the
// product service. Only the fields checkout cares about are decoded.
type Product struct {
	ID    int64           `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}
