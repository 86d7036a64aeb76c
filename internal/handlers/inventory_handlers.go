package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shopstack/orderflow/internal/inventory"
)

//
// --- Admin inventory handlers (JWT-guarded, outside the checkout path) ---
//

// InitInventoryInput defines the JSON for provisioning a product's
// stock counter.
type InitInventoryInput struct {
	ProductID int64 `json:"productId" binding:"required"`
	Quantity  *int  `json:"quantity" binding:"required,gte=0"`
}

// InitInventory is the handler for POST /v1/admin/inventory/init.
// Upsert semantics: re-initializing overwrites the count.
func (h *Handlers) InitInventory(c *gin.Context) {
	var input InitInventoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "productId and quantity required"})
		return
	}

	rec, err := h.Inventory.Initialize(c.Request.Context(), input.ProductID, *input.Quantity)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to initialize inventory"})
		return
	}

	c.JSON(http.StatusCreated, rec)
}

// SetInventoryInput defines the JSON for an absolute restock.
type SetInventoryInput struct {
	Quantity *int `json:"quantity" binding:"required,gte=0"`
}

// SetInventory is the handler for PUT /v1/admin/inventory/:productId.
func (h *Handlers) SetInventory(c *gin.Context) {
	productID, ok := pathID(c, "productId")
	if !ok {
		return
	}

	var input SetInventoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quantity required"})
		return
	}

	if err := h.Inventory.SetQuantity(c.Request.Context(), productID, *input.Quantity); err != nil {
		if errors.Is(err, inventory.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Inventory not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update inventory"})
		return
	}

	rec, err := h.Inventory.Get(c.Request.Context(), productID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read inventory"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

// GetInventory is the handler for GET /v1/admin/inventory/:productId.
func (h *Handlers) GetInventory(c *gin.Context) {
	productID, ok := pathID(c, "productId")
	if !ok {
		return
	}

	rec, err := h.Inventory.Get(c.Request.Context(), productID)
	if err != nil {
		if errors.Is(err, inventory.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Inventory not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read inventory"})
		return
	}

	c.JSON(http.StatusOK, rec)
}

// GetLowStock is the handler for GET /v1/admin/inventory/low — the
// restock dashboard feed.
func (h *Handlers) GetLowStock(c *gin.Context) {
	records, err := h.Inventory.ListLow(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read inventory"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"records": records})
}
