package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shopstack/orderflow/internal/models"
)

// DefaultTTL is the cart's sliding expiry window. Every mutation
// refreshes it; a week of inactivity and the cart is gone.
const DefaultTTL = 7 * 24 * time.Hour

// ErrItemNotFound is returned when a quantity update targets a line
// that is not in the cart.
var ErrItemNotFound = errors.New("cart: item not found")

// ErrInvalidQuantity is returned for quantity values below 1.
var ErrInvalidQuantity = errors.New("cart: quantity must be at least 1")

// Store keeps one cart per customer as a JSON blob in Redis under
// cart:<customerId>. It knows nothing about prices.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStore returns a Store with the default 7-day sliding expiry.
func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb, ttl: DefaultTTL}
}

// NewStoreTTL returns a Store with a custom expiry window (tests).
func NewStoreTTL(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func cartKey(customerID int64) string {
	return fmt.Sprintf("cart:%d", customerID)
}

// Get returns the customer's cart. A customer with no stored cart gets
// an empty cart, not an error. Reads do not refresh the expiry.
func (s *Store) Get(ctx context.Context, customerID int64) (models.Cart, error) {
	empty := models.Cart{CustomerID: customerID, Items: []models.CartItem{}}

	data, err := s.rdb.Get(ctx, cartKey(customerID)).Bytes()
	if err == redis.Nil {
		return empty, nil
	}
	if err != nil {
		return empty, fmt.Errorf("cart: get: %w", err)
	}

	var c models.Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return empty, fmt.Errorf("cart: decode: %w", err)
	}
	c.CustomerID = customerID
	if c.Items == nil {
		c.Items = []models.CartItem{}
	}
	return c, nil
}

// AddItem increments an existing line by quantity, or appends a new
// line. New lines keep insertion order, which checkout later relies on
// as its stable processing order.
func (s *Store) AddItem(ctx context.Context, customerID, productID int64, quantity int) (models.Cart, error) {
	if quantity < 1 {
		return models.Cart{}, ErrInvalidQuantity
	}

	c, err := s.Get(ctx, customerID)
	if err != nil {
		return c, err
	}

	if line := c.Find(productID); line != nil {
		line.Quantity += quantity
	} else {
		c.Items = append(c.Items, models.CartItem{ProductID: productID, Quantity: quantity})
	}

	return c, s.save(ctx, c)
}

// SetItemQuantity replaces the quantity of an existing line. It fails
// with ErrItemNotFound if the line does not exist and rejects
// quantities below 1 (removal is RemoveItem's job).
func (s *Store) SetItemQuantity(ctx context.Context, customerID, productID int64, quantity int) (models.Cart, error) {
	if quantity < 1 {
		return models.Cart{}, ErrInvalidQuantity
	}

	c, err := s.Get(ctx, customerID)
	if err != nil {
		return c, err
	}

	line := c.Find(productID)
	if line == nil {
		return c, ErrItemNotFound
	}
	line.Quantity = quantity

	return c, s.save(ctx, c)
}

// RemoveItem deletes a line. Removing an absent line succeeds silently.
func (s *Store) RemoveItem(ctx context.Context, customerID, productID int64) (models.Cart, error) {
	c, err := s.Get(ctx, customerID)
	if err != nil {
		return c, err
	}

	kept := c.Items[:0]
	for _, line := range c.Items {
		if line.ProductID != productID {
			kept = append(kept, line)
		}
	}
	c.Items = kept

	return c, s.save(ctx, c)
}

// Clear drops the customer's cart entirely. Clearing an empty or
// missing cart succeeds silently.
func (s *Store) Clear(ctx context.Context, customerID int64) error {
	if err := s.rdb.Del(ctx, cartKey(customerID)).Err(); err != nil {
		return fmt.Errorf("cart: clear: %w", err)
	}
	return nil
}

// save writes the whole cart back and refreshes the sliding expiry.
func (s *Store) save(ctx context.Context, c models.Cart) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("cart: encode: %w", err)
	}
	if err := s.rdb.Set(ctx, cartKey(c.CustomerID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("cart: save: %w", err)
	}
	return nil
}
