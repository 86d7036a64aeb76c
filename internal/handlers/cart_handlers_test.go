package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopstack/orderflow/internal/cart"
	"github.com/shopstack/orderflow/internal/handlers"
	"github.com/shopstack/orderflow/internal/models"
)

type cartFixture struct {
	catalog *stubCatalog
	router  *gin.Engine
}

func setupCartRouter(t *testing.T) *cartFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	f := &cartFixture{
		catalog: &stubCatalog{products: make(map[int64]models.Product)},
	}

	h := &handlers.Handlers{
		Carts:   cart.NewStore(rdb),
		Catalog: f.catalog,
	}

	f.router = gin.New()
	f.router.GET("/v1/cart/:userId", h.GetCart)
	f.router.POST("/v1/cart/:userId/items", h.AddCartItem)
	f.router.PUT("/v1/cart/:userId/items/:productId", h.UpdateCartItem)
	f.router.DELETE("/v1/cart/:userId/items/:productId", h.RemoveCartItem)
	f.router.DELETE("/v1/cart/:userId", h.ClearCart)
	return f
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		data, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewBuffer(data))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGetCartPricedView(t *testing.T) {
	f := setupCartRouter(t)
	f.catalog.products[1] = models.Product{ID: 1, Name: "Keyboard", Price: decimal.RequireFromString("19.99")}

	w := doJSON(f.router, http.MethodPost, "/v1/cart/10/items", gin.H{"productId": 1, "quantity": 2})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(f.router, http.MethodGet, "/v1/cart/10", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Items []struct {
			ProductID int64  `json:"productId"`
			Quantity  int    `json:"quantity"`
			LineTotal string `json:"lineTotal"`
			Product   *struct {
				Name string `json:"name"`
			} `json:"product"`
		} `json:"items"`
		Total string `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	require.Len(t, resp.Items, 1)
	assert.Equal(t, "39.98", resp.Items[0].LineTotal)
	require.NotNil(t, resp.Items[0].Product)
	assert.Equal(t, "Keyboard", resp.Items[0].Product.Name)
	assert.Equal(t, "39.98", resp.Total)
}

func TestGetCartMissingIsEmpty(t *testing.T) {
	f := setupCartRouter(t)

	w := doJSON(f.router, http.MethodGet, "/v1/cart/77", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"items":[]`)
}

func TestGetCartStaleLinePricedAtZero(t *testing.T) {
	f := setupCartRouter(t)
	f.catalog.products[1] = models.Product{ID: 1, Name: "Keyboard", Price: decimal.RequireFromString("19.99")}

	w := doJSON(f.router, http.MethodPost, "/v1/cart/10/items", gin.H{"productId": 1, "quantity": 1})
	require.Equal(t, http.StatusCreated, w.Code)

	// The product disappears from the catalog after the add.
	delete(f.catalog.products, 1)

	w = doJSON(f.router, http.MethodGet, "/v1/cart/10", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Items []struct {
			Product *json.RawMessage `json:"product"`
		} `json:"items"`
		Total string `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Nil(t, resp.Items[0].Product)
	assert.Equal(t, "0", resp.Total)
}

func TestAddCartItemUnknownProduct(t *testing.T) {
	f := setupCartRouter(t)

	w := doJSON(f.router, http.MethodPost, "/v1/cart/10/items", gin.H{"productId": 9, "quantity": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAddCartItemRejectsZeroQuantity(t *testing.T) {
	f := setupCartRouter(t)
	f.catalog.products[1] = models.Product{ID: 1, Name: "Keyboard", Price: decimal.RequireFromString("19.99")}

	w := doJSON(f.router, http.MethodPost, "/v1/cart/10/items", gin.H{"productId": 1, "quantity": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateCartItemNotInCart(t *testing.T) {
	f := setupCartRouter(t)
	f.catalog.products[1] = models.Product{ID: 1, Name: "Keyboard", Price: decimal.RequireFromString("19.99")}

	w := doJSON(f.router, http.MethodPut, "/v1/cart/10/items/1", gin.H{"quantity": 2})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRemoveAndClearAreIdempotent(t *testing.T) {
	f := setupCartRouter(t)

	// Removing a line that was never added.
	w := doJSON(f.router, http.MethodDelete, "/v1/cart/10/items/1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Clearing a cart that does not exist.
	w = doJSON(f.router, http.MethodDelete, "/v1/cart/10", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = doJSON(f.router, http.MethodDelete, "/v1/cart/10", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCartBadUserIDParam(t *testing.T) {
	f := setupCartRouter(t)

	w := doJSON(f.router, http.MethodGet, "/v1/cart/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
