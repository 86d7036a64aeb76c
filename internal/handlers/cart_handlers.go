package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/shopstack/orderflow/internal/cart"
	"github.com/shopstack/orderflow/internal/catalog"
	"github.com/shopstack/orderflow/internal/models"
)

// PricedCartItem is a cart line joined with its current catalog entry.
// Product is null when the catalog no longer knows the id; the line is
// kept so the client can show it and let the user remove it.
type PricedCartItem struct {
	ProductID int64           `json:"productId"`
	Quantity  int             `json:"quantity"`
	Product   *models.Product `json:"product"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// GetCart is the handler for GET /v1/cart/:userId. The cart stores no
// prices, so the view is priced against the catalog on every read.
func (h *Handlers) GetCart(c *gin.Context) {
	customerID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	crt, err := h.Carts.Get(c.Request.Context(), customerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read cart"})
		return
	}

	items := make([]PricedCartItem, 0, len(crt.Items))
	total := decimal.Zero
	for _, line := range crt.Items {
		priced := PricedCartItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			LineTotal: decimal.Zero,
		}

		product, err := h.Catalog.GetProduct(c.Request.Context(), line.ProductID)
		switch {
		case err == nil:
			p := product
			priced.Product = &p
			priced.LineTotal = product.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
			total = total.Add(priced.LineTotal)
		case errors.Is(err, catalog.ErrProductNotFound):
			// Stale line; priced at zero until the user removes it.
		default:
			log.Printf("cart view: failed to fetch product %d: %v", line.ProductID, err)
		}

		items = append(items, priced)
	}

	c.JSON(http.StatusOK, gin.H{"items": items, "total": total})
}

// AddCartItemInput defines the JSON for adding an item to the cart.
type AddCartItemInput struct {
	ProductID int64 `json:"productId" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required,gt=0"`
}

// AddCartItem is the handler for POST /v1/cart/:userId/items.
func (h *Handlers) AddCartItem(c *gin.Context) {
	customerID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	var input AddCartItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	// The product must exist right now; it can still vanish before
	// checkout, which checkout handles on its own.
	if _, err := h.Catalog.GetProduct(c.Request.Context(), input.ProductID); err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check product"})
		return
	}

	crt, err := h.Carts.AddItem(c.Request.Context(), customerID, input.ProductID, input.Quantity)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart"})
		return
	}

	c.JSON(http.StatusCreated, crt)
}

// UpdateCartItemInput defines the JSON for replacing a line's quantity.
type UpdateCartItemInput struct {
	Quantity int `json:"quantity" binding:"required,gt=0"`
}

// UpdateCartItem is the handler for PUT /v1/cart/:userId/items/:productId.
func (h *Handlers) UpdateCartItem(c *gin.Context) {
	customerID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	productID, ok := pathID(c, "productId")
	if !ok {
		return
	}

	var input UpdateCartItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Quantity must be at least 1"})
		return
	}

	crt, err := h.Carts.SetItemQuantity(c.Request.Context(), customerID, productID, input.Quantity)
	if err != nil {
		if errors.Is(err, cart.ErrItemNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Item not found in cart"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart"})
		return
	}

	c.JSON(http.StatusOK, crt)
}

// RemoveCartItem is the handler for DELETE /v1/cart/:userId/items/:productId.
// Removing a line that is not there still succeeds.
func (h *Handlers) RemoveCartItem(c *gin.Context) {
	customerID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	productID, ok := pathID(c, "productId")
	if !ok {
		return
	}

	crt, err := h.Carts.RemoveItem(c.Request.Context(), customerID, productID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart"})
		return
	}

	c.JSON(http.StatusOK, crt)
}

// ClearCart is the handler for DELETE /v1/cart/:userId. Idempotent.
func (h *Handlers) ClearCart(c *gin.Context) {
	customerID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	if err := h.Carts.Clear(c.Request.Context(), customerID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear cart"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}

// pathID parses a numeric path parameter, answering 400 itself on bad
// input.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}
