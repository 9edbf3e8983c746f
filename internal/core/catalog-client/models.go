// internal/core/catalog-client/models.go
package catalogclient

type favoriteStatus struct {
	IsFavorite bool `json:"isFavorite"`
}

// ListParams are passed through to GET /products as query parameters.
type ListParams map[string]string
