package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ordersvc/internal/apperrors"

	"github.com/shopspring/decimal"
)

// Product is the authoritative catalog record for a product id.
type Product struct {
	ID    uint            `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Image string          `json:"image"`
	Stock int             `json:"stock"`
}

// CatalogClient resolves a set of product ids to their catalog records. The
// caller is responsible for checking that every requested id was resolved.
type CatalogClient interface {
	ResolveProducts(ctx context.Context, productIDs []uint, bearerToken string) ([]Product, error)
}

// HTTPCatalogClient calls the products service over HTTP.
type HTTPCatalogClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPCatalogClient creates a catalog client for the given base URL.
func NewHTTPCatalogClient(baseURL string, timeout time.Duration) *HTTPCatalogClient {
	return &HTTPCatalogClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// ResolveProducts fetches the catalog records for the given ids in one batch
// call, propagating the caller's credential for downstream authorization.
func (c *HTTPCatalogClient) ResolveProducts(ctx context.Context, productIDs []uint, bearerToken string) ([]Product, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}

	idsParam := make([]string, 0, len(productIDs))
	for _, id := range productIDs {
		idsParam = append(idsParam, strconv.FormatUint(uint64(id), 10))
	}
	uri := c.baseURL + "/api/products/batch?ids=" + strings.Join(idsParam, ",")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("build products request: %w", err)
	}
	req.Header.Set("Authorization", ensureBearer(bearerToken))

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: products service: %v", apperrors.ErrDependencyUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var products []Product
		if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
			return nil, fmt.Errorf("%w: products service: decode response: %v", apperrors.ErrDependencyUnavailable, err)
		}
		return products, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		log.Printf("Products service rejected batch lookup with status %d (ids: %s)", resp.StatusCode, strings.Join(idsParam, ","))
		return nil, fmt.Errorf("%w: products could not be resolved", apperrors.ErrInvalidRequest)
	default:
		return nil, fmt.Errorf("%w: products service returned status %d", apperrors.ErrDependencyUnavailable, resp.StatusCode)
	}
}
