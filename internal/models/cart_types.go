package models

// Cart is the transient, per-customer shopping cart held in Redis.
// It stores no prices — pricing is resolved against the catalog at
// read and checkout time so a cart can never quote a stale price.
type Cart struct {
	CustomerID int64      `json:"customerId"`
	Items      []CartItem `json:"items"`
}

// CartItem is one line of a cart, unique per product.
type CartItem struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Find returns a pointer to the line for productID, or nil if the cart
// has no such line.
func (c *Cart) Find(productID int64) *CartItem {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i]
		}
	}
	return nil
}
