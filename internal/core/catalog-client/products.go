// internal/core/catalog-client/products.go
package catalogclient

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"unicode/utf8"

	commonerrors "shopping-assistant/internal/common/errors"
	"shopping-assistant/internal/models"
)

// ListProducts fetches GET /products. params are passed through unchanged,
// e.g. {"limit": "8", "featured": "true"} for the home page.
func (c *Client) ListProducts(ctx context.Context, params ListParams) ([]models.Product, error) {
	query := url.Values{}
	for k, v := range params {
		if v != "" {
			query.Set(k, v)
		}
	}

	payload, err := c.send(ctx, request{op: "list_products", method: http.MethodGet, path: "/products", query: query})
	if err != nil {
		return nil, err
	}

	products := []models.Product{}
	if err := decodeList("list_products", payload, &products, "products", "items"); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *Client) GetProduct(ctx context.Context, id models.ProductID) (*models.Product, error) {
	var product models.Product
	err := c.getJSON(ctx, request{
		op:     "get_product",
		method: http.MethodGet,
		path:   "/products/" + url.PathEscape(id.String()),
	}, &product)
	if err != nil {
		if commonerrors.CodeOf(err) == commonerrors.ErrCodeNotFound {
			return nil, commonerrors.NewNotFoundError("product", id.String())
		}
		return nil, err
	}
	if product.ID == "" {
		product.ID = id
	}
	return &product, nil
}

// Search fetches GET /search. query must be non-empty after trimming; filters
// are flattened with multi-valued fields comma-joined and empty fields omitted.
func (c *Client) Search(ctx context.Context, query string, filters models.FilterCriteria) ([]models.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, commonerrors.NewInvalidQueryError("query is empty")
	}
	if err := filters.Validate(); err != nil {
		return nil, commonerrors.NewInvalidFilterError(err.Error())
	}

	values := filters.Values()
	values.Set("query", query)

	payload, err := c.send(ctx, request{op: "search", method: http.MethodGet, path: "/search", query: values})
	if err != nil {
		return nil, err
	}

	products := []models.Product{}
	if err := decodeList("search", payload, &products, "products", "results", "items"); err != nil {
		return nil, err
	}
	return products, nil
}

// GetSuggestions returns an empty slice without a network call for queries
// shorter than the configured minimum.
func (c *Client) GetSuggestions(ctx context.Context, query string) ([]models.ProductSummary, error) {
	if utf8.RuneCountInString(query) < c.config.MinSuggestionChars {
		return []models.ProductSummary{}, nil
	}

	payload, err := c.send(ctx, request{
		op:     "get_suggestions",
		method: http.MethodGet,
		path:   "/search/suggestions",
		query:  url.Values{"query": []string{query}},
	})
	if err != nil {
		return nil, err
	}

	suggestions := []models.ProductSummary{}
	if err := decodeList("get_suggestions", payload, &suggestions, "suggestions", "products"); err != nil {
		return nil, err
	}
	return suggestions, nil
}

// GetPriceHistory returns the price points sorted by date ascending.
func (c *Client) GetPriceHistory(ctx context.Context, id models.ProductID) ([]models.PricePoint, error) {
	payload, err := c.send(ctx, request{
		op:     "get_price_history",
		method: http.MethodGet,
		path:   "/products/" + url.PathEscape(id.String()) + "/price-history",
	})
	if err != nil {
		return nil, err
	}

	history := []models.PricePoint{}
	if err := decodeList("get_price_history", payload, &history, "history", "priceHistory"); err != nil {
		return nil, err
	}
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].Date.Before(history[j].Date)
	})
	return history, nil
}
