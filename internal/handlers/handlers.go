package handlers

import (
	"github.com/shopstack/orderflow/internal/cart"
	"github.com/shopstack/orderflow/internal/catalog"
	"github.com/shopstack/orderflow/internal/checkout"
	"github.com/shopstack/orderflow/internal/inventory"
	"github.com/shopstack/orderflow/internal/orders"
)

// Handlers holds every dependency the HTTP layer needs. All of them
// are injected in main; nothing here reaches for process-wide state.
type Handlers struct {
	Carts     *cart.Store
	Catalog   catalog.Lookup
	Inventory *inventory.Ledger
	Orders    *orders.Ledger
	Checkout  *checkout.Coordinator
}
