// internal/core/catalog-client/favorites.go
package catalogclient

import (
	"context"
	"net/http"
	"net/url"

	"shopping-assistant/internal/models"
)

func favoritePath(id models.ProductID) string {
	return "/favorites/" + url.PathEscape(id.String())
}

func (c *Client) ListFavorites(ctx context.Context) ([]models.Product, error) {
	payload, err := c.send(ctx, request{op: "list_favorites", method: http.MethodGet, path: "/favorites"})
	if err != nil {
		return nil, err
	}

	products := []models.Product{}
	if err := decodeList("list_favorites", payload, &products, "favorites", "products"); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *Client) AddFavorite(ctx context.Context, id models.ProductID) error {
	_, err := c.send(ctx, request{op: "add_favorite", method: http.MethodPost, path: favoritePath(id)})
	return err
}

func (c *Client) RemoveFavorite(ctx context.Context, id models.ProductID) error {
	_, err := c.send(ctx, request{op: "remove_favorite", method: http.MethodDelete, path: favoritePath(id)})
	return err
}

// CheckFavorite reads {"isFavorite": bool} from GET /favorites/{id}/check.
func (c *Client) CheckFavorite(ctx context.Context, id models.ProductID) (bool, error) {
	var status favoriteStatus
	err := c.getJSON(ctx, request{
		op:     "check_favorite",
		method: http.MethodGet,
		path:   favoritePath(id) + "/check",
	}, &status)
	if err != nil {
		return false, err
	}
	return status.IsFavorite, nil
}
