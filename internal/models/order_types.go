package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Order lifecycle statuses. An order is created 'pending' inside the
// placement transaction and becomes 'confirmed' only once its total is
// finalized; a pending order that never finalizes is rolled back and
// has no customer-visible existence.
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusCancelled = "cancelled"
)

// ShippingAddress is embedded into the order as a snapshot, not a
// reference — the customer's address book can change after shipping.
type ShippingAddress struct {
	FullName   string `json:"fullName" binding:"required"`
	Line1      string `json:"line1" binding:"required"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city" binding:"required"`
	PostalCode string `json:"postalCode" binding:"required"`
	Country    string `json:"country" binding:"required"`
	Phone      string `json:"phone,omitempty"`
}

// Order is the model for the 'orders' table.
type Order struct {
	ID              int64           `json:"id" db:"id"`
	UserID          int64           `json:"userId" db:"user_id"`
	Status          string          `json:"status" db:"status"`
	TotalAmount     decimal.Decimal `json:"totalAmount" db:"total_amount"`
	ShippingAddress ShippingAddress `json:"shippingAddress" db:"shipping_address"`
	Notes           sql.NullString  `json:"notes,omitempty" db:"notes"`
	CreatedAt       time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time       `json:"updatedAt" db:"updated_at"`
	Items           []OrderItem     `json:"items"`
}

// OrderItem is the model for the 'order_items' table. Every field is a
// frozen snapshot captured at checkout; later catalog edits never
// touch these rows.
type OrderItem struct {
	ID          int64           `json:"id" db:"id"`
	OrderID     int64           `json:"orderId" db:"order_id"`
	ProductID   int64           `json:"productId" db:"product_id"`
	ProductName string          `json:"productName" db:"product_name"`
	UnitPrice   decimal.Decimal `json:"unitPrice" db:"unit_price"`
	Quantity    int             `json:"quantity" db:"quantity"`
	Subtotal    decimal.Decimal `json:"subtotal" db:"subtotal"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
}
