// internal/core/favorites/models.go
package favorites

import (
	"context"

	"shopping-assistant/internal/models"
)

// Client is the favorites part of the catalog client.
type Client interface {
	ListFavorites(ctx context.Context) ([]models.Product, error)
	AddFavorite(ctx context.Context, id models.ProductID) error
	RemoveFavorite(ctx context.Context, id models.ProductID) error
	CheckFavorite(ctx context.Context, id models.ProductID) (bool, error)
}

// Authenticator reports whether a credential is held. *auth.Session satisfies it.
type Authenticator interface {
	IsAuthenticated(ctx context.Context) bool
}

// RedirectFunc sends the user to the login entry point.
type RedirectFunc func(entryPoint string)
