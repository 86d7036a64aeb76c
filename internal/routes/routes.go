package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shopstack/orderflow/internal/handlers"
	"github.com/shopstack/orderflow/internal/middleware"
)

// CORSMiddleware allows the storefront frontend to talk to this API
// directly during development.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "http://localhost:5173")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, Idempotency-Key, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// SetupRouter wires every route group to the injected handlers.
func SetupRouter(h *handlers.Handlers, jwtSecret []byte) *gin.Engine {
	router := gin.Default()
	router.Use(CORSMiddleware())

	v1 := router.Group("/v1")
	{
		v1.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "pong!"})
		})

		// --- Cart Routes ---
		v1.GET("/cart/:userId", h.GetCart)
		v1.POST("/cart/:userId/items", h.AddCartItem)
		v1.PUT("/cart/:userId/items/:productId", h.UpdateCartItem)
		v1.DELETE("/cart/:userId/items/:productId", h.RemoveCartItem)
		v1.DELETE("/cart/:userId", h.ClearCart)

		// --- Checkout / Order Routes ---
		v1.POST("/orders", h.PlaceOrder)
		v1.POST("/checkout/keys", h.NewIdempotencyKey)
		v1.GET("/orders/:id", h.GetOrder)
		v1.GET("/orders/user/:userId", h.GetUserOrders)

		// --- Admin Inventory Routes (JWT-guarded) ---
		admin := v1.Group("/admin")
		admin.Use(middleware.AdminAuth(jwtSecret))
		{
			admin.POST("/inventory/init", h.InitInventory)
			admin.GET("/inventory/low", h.GetLowStock)
			admin.GET("/inventory/:productId", h.GetInventory)
			admin.PUT("/inventory/:productId", h.SetInventory)
		}
	}

	return router
}
