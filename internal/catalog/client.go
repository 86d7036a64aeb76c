package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopstack/orderflow/internal/models"
)

// ErrProductNotFound is returned when the product service has no entry
// for the requested id. Checkout treats this as fatal for the cart line
// that referenced it: a cart can hold a product deleted after the add.
var ErrProductNotFound = errors.New("catalog: product not found")

// Lookup is the read-only contract checkout has on the catalog.
type Lookup interface {
	GetProduct(ctx context.Context, productID int64) (models.Product, error)
}

// HTTPClient resolves products against the external product service.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient returns a catalog client for the given base URL
// (e.g. http://product-service:3002).
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// GetProduct fetches GET {base}/api/products/{id} and decodes the
// fields checkout snapshots (id, name, price).
func (c *HTTPClient) GetProduct(ctx context.Context, productID int64) (models.Product, error) {
	url := fmt.Sprintf("%s/api/products/%d", c.baseURL, productID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.Product{}, fmt.Errorf("catalog: build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return models.Product{}, fmt.Errorf("catalog: product service unreachable: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return models.Product{}, ErrProductNotFound
	case resp.StatusCode != http.StatusOK:
		return models.Product{}, fmt.Errorf("catalog: product service returned %d", resp.StatusCode)
	}

	var p models.Product
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return models.Product{}, fmt.Errorf("catalog: decode product: %w", err)
	}
	if p.ID == 0 {
		// Some deployments answer 200 with an empty body for unknown ids.
		return models.Product{}, ErrProductNotFound
	}
	return p, nil
}
