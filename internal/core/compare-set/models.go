// internal/core/compare-set/models.go
package compareset

import (
	"context"

	"shopping-assistant/internal/models"
)

// ProductFetcher resolves one id into a full product. *catalogclient.Client satisfies it.
type ProductFetcher interface {
	GetProduct(ctx context.Context, id models.ProductID) (*models.Product, error)
}

// Resolved is the outcome of fetching one member of the set. Exactly one of
// Product and Err is set.
type Resolved struct {
	ID      models.ProductID
	Product *models.Product
	Err     error
}

// recordSchema describes the persisted record: an array of unique ids. The
// web client stored numeric ids as JSON numbers, so both are accepted.
func recordSchema(capacity int) map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"maxItems":    capacity,
		"uniqueItems": true,
		"items": map[string]interface{}{
			"type":      []string{"string", "integer"},
			"minLength": 1,
		},
	}
}
