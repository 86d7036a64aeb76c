package models

import "time"

// InventoryRecord is the model for the 'inventory' table: one durable
// counter per product. The quantity is only ever mutated through the
// ledger's conditional decrement (checkout) or absolute set (admin).
type InventoryRecord struct {
	ID                int64     `json:"id" db:"id"`
	ProductID         int64     `json:"productId" db:"product_id"`
	Quantity          int       `json:"quantity" db:"quantity"`
	LowStockThreshold int       `json:"lowStockThreshold" db:"low_stock_threshold"`
	CreatedAt         time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time `json:"updatedAt" db:"updated_at"`
}
