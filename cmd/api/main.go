package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/shopstack/orderflow/internal/cache"
	"github.com/shopstack/orderflow/internal/cart"
	"github.com/shopstack/orderflow/internal/catalog"
	"github.com/shopstack/orderflow/internal/checkout"
	"github.com/shopstack/orderflow/internal/config"
	"github.com/shopstack/orderflow/internal/database"
	"github.com/shopstack/orderflow/internal/handlers"
	"github.com/shopstack/orderflow/internal/inventory"
	"github.com/shopstack/orderflow/internal/orders"
	"github.com/shopstack/orderflow/internal/routes"
)

func main() {
	// 0. --- Load Environment Variables (.env) ---
	if err := godotenv.Load(); err != nil {
		log.Println("WARNING: Could not find or load .env file. Relying on system environment variables.")
	}
	cfg := config.Load()

	if cfg.JWTSecret == "" {
		log.Fatal("CRITICAL ERROR: JWT_SECRET environment variable is not set.")
	}

	// 1. --- Durable Storage (MySQL: inventory + orders) ---
	db, err := database.Open(cfg.DBDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// 2. --- Cart Storage (Redis) ---
	rdb, err := cache.OpenRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer rdb.Close()

	// 3. --- Wire the Coordinator and its collaborators ---
	cartStore := cart.NewStore(rdb)
	catalogClient := catalog.NewHTTPClient(cfg.ProductServiceURL)
	inventoryLedger := inventory.NewLedger(db)
	orderLedger := orders.NewLedger(db)

	coordinator := &checkout.Coordinator{
		Carts:     cartStore,
		Catalog:   catalogClient,
		Inventory: inventoryLedger,
		Orders:    checkout.WrapOrderLedger(orderLedger),
		Idem:      checkout.NewIdempotencyStore(rdb),
	}

	app := &handlers.Handlers{
		Carts:     cartStore,
		Catalog:   catalogClient,
		Inventory: inventoryLedger,
		Orders:    orderLedger,
		Checkout:  coordinator,
	}

	// 4. --- Background Worker ---
	// Pending orders normally vanish with their transaction; this
	// sweep catches rows orphaned by a coordinator that died with its
	// connection mid-commit.
	go func() {
		ticker := time.NewTicker(15 * time.Minute)
		defer ticker.Stop()

		log.Println("Background worker started: sweeping stale pending orders")

		for range ticker.C {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			purged, err := orderLedger.PurgeStalePending(ctx, time.Hour)
			cancel()
			if err != nil {
				log.Printf("Stale pending sweep failed: %v", err)
				continue
			}
			if purged > 0 {
				log.Printf("Purged %d stale pending order(s)", purged)
			}
		}
	}()

	// 5. --- Router & Server ---
	router := routes.SetupRouter(app, []byte(cfg.JWTSecret))

	log.Printf("Starting order coordinator API on port %s...", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
