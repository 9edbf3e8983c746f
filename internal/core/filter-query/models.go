// internal/core/filter-query/models.go
package filterquery

import (
	"context"

	catalogclient "shopping-assistant/internal/core/catalog-client"
	"shopping-assistant/internal/models"
)

// ParamQuery is the location parameter holding the free-text query.
const ParamQuery = "q"

// Options offered by the filter sidebar.
var (
	BrandOptions   = []string{"Apple", "Samsung", "OnePlus", "Xiaomi", "Realme", "Oppo", "Vivo"}
	StorageOptions = []string{"64GB", "128GB", "256GB", "512GB", "1TB"}
	RAMOptions     = []string{"4GB", "6GB", "8GB", "12GB", "16GB"}
)

// Fetcher is the part of the catalog client the coordinator routes to.
type Fetcher interface {
	ListProducts(ctx context.Context, params catalogclient.ListParams) ([]models.Product, error)
	Search(ctx context.Context, query string, filters models.FilterCriteria) ([]models.Product, error)
}

type Route string

const (
	RouteNone   Route = ""
	RouteSearch Route = "search"
	RouteList   Route = "list"
)

// Snapshot is the visible state of the product listing.
type Snapshot struct {
	Query    string
	Filters  models.FilterCriteria
	Route    Route
	Seq      uint64
	Loading  bool
	Products []models.Product
	// Err is the failure behind an empty result, if any. It is informational;
	// the listing simply shows no results.
	Err error
}

// NoResults reports whether the "no products found" state should be shown.
func (s Snapshot) NoResults() bool {
	return !s.Loading && s.Route != RouteNone && len(s.Products) == 0
}
