package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/shopstack/orderflow/internal/checkout"
	"github.com/shopstack/orderflow/internal/models"
)

// PlaceOrderInput defines the JSON body for POST /v1/orders.
type PlaceOrderInput struct {
	UserID          int64                  `json:"userId" binding:"required"`
	ShippingAddress models.ShippingAddress `json:"shippingAddress" binding:"required"`
	Notes           string                 `json:"notes"`
}

// PlaceOrder is the handler for POST /v1/orders — the coordinator's
// transport entry point. An optional Idempotency-Key header makes the
// request safe to retry after a timeout.
func (h *Handlers) PlaceOrder(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var input PlaceOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	// 2. --- Run the placement ---
	order, err := h.Checkout.PlaceOrder(c.Request.Context(), checkout.PlaceOrderInput{
		CustomerID:      input.UserID,
		ShippingAddress: input.ShippingAddress,
		Notes:           input.Notes,
		IdempotencyKey:  c.GetHeader("Idempotency-Key"),
	})

	// 3. --- Map the failure taxonomy to transport statuses ---
	if err != nil {
		var unavailable *checkout.ProductUnavailableError
		var short *checkout.InsufficientStockError

		switch {
		case errors.Is(err, checkout.ErrEmptyCart):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Cart is empty"})
		case errors.As(err, &unavailable):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":     "Product is no longer available",
				"productId": unavailable.ProductID,
			})
		case errors.As(err, &short):
			c.JSON(http.StatusConflict, gin.H{
				"error":     "Insufficient stock",
				"productId": short.ProductID,
				"requested": short.Requested,
				"available": short.Available,
			})
		case errors.Is(err, checkout.ErrCheckoutInProgress):
			c.JSON(http.StatusConflict, gin.H{"error": "Checkout already in progress"})
		default:
			// Storage-level failures are never echoed verbatim.
			log.Printf("checkout failed for user %d: %v", input.UserID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to place order"})
		}
		return
	}

	// 4. --- Success ---
	c.JSON(http.StatusCreated, order)
}

// NewIdempotencyKey is the handler for POST /v1/checkout/keys. Clients
// that want retry safety fetch a key here and replay it on retries.
func (h *Handlers) NewIdempotencyKey(c *gin.Context) {
	c.JSON(http.StatusCreated, gin.H{"key": uuid.NewString()})
}
