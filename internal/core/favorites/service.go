// internal/core/favorites/service.go
package favorites

import (
	"context"
	"errors"
	"sync"

	commonerrors "shopping-assistant/internal/common/errors"
	"shopping-assistant/internal/common/logger"
	"shopping-assistant/internal/models"

	"golang.org/x/sync/errgroup"
)

const statusConcurrency = 4

// Service answers the favorite status product cards render and performs
// toggles. Cards only receive booleans; they never call the API themselves.
type Service struct {
	client     Client
	auth       Authenticator
	logger     logger.Logger
	redirect   RedirectFunc
	entryPoint string
}

func NewService(client Client, auth Authenticator, log logger.Logger, redirect RedirectFunc, entryPoint string) *Service {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	if entryPoint == "" {
		entryPoint = "/login"
	}
	return &Service{
		client:     client,
		auth:       auth,
		logger:     log.Named("favorites"),
		redirect:   redirect,
		entryPoint: entryPoint,
	}
}

// requireAuth redirects to login when no credential is held.
func (s *Service) requireAuth(ctx context.Context) error {
	if s.auth.IsAuthenticated(ctx) {
		return nil
	}
	if s.redirect != nil {
		s.redirect(s.entryPoint)
	}
	return commonerrors.NewUnauthenticatedError("favorites require a signed-in user")
}

// Status reports whether id is a favorite. Anonymous users and failed checks
// both yield false.
func (s *Service) Status(ctx context.Context, id models.ProductID) bool {
	if !s.auth.IsAuthenticated(ctx) {
		return false
	}
	fav, err := s.client.CheckFavorite(ctx, id)
	if err != nil {
		s.logger.Warn("favorite check failed", map[string]interface{}{
			"productId": id,
			"error":     err,
		})
		return false
	}
	return fav
}

// Statuses checks several cards at once.
func (s *Service) Statuses(ctx context.Context, ids []models.ProductID) map[models.ProductID]bool {
	out := make(map[models.ProductID]bool, len(ids))
	if len(ids) == 0 || !s.auth.IsAuthenticated(ctx) {
		for _, id := range ids {
			out[id] = false
		}
		return out
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(statusConcurrency)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			fav := s.Status(gctx, id)
			mu.Lock()
			out[id] = fav
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Toggle flips the favorite state the card currently shows and returns the
// new state. On failure the current state is returned with the error.
func (s *Service) Toggle(ctx context.Context, id models.ProductID, current bool) (bool, error) {
	if err := s.requireAuth(ctx); err != nil {
		return current, err
	}

	var err error
	if current {
		err = s.client.RemoveFavorite(ctx, id)
	} else {
		err = s.client.AddFavorite(ctx, id)
	}
	if err != nil {
		// A 401 has already triggered the redirect in the catalog client.
		if !errors.Is(err, commonerrors.ErrUnauthenticated) {
			s.logger.Error("favorite toggle failed", map[string]interface{}{
				"productId": id,
				"remove":    current,
				"error":     err,
			})
		}
		return current, err
	}
	return !current, nil
}

// List returns the user's favorites, redirecting anonymous users to login.
func (s *Service) List(ctx context.Context) ([]models.Product, error) {
	if err := s.requireAuth(ctx); err != nil {
		return nil, err
	}
	products, err := s.client.ListFavorites(ctx)
	if err != nil {
		s.logger.Warn("failed to load favorites", map[string]interface{}{
			"error": err,
		})
		return nil, err
	}
	return products, nil
}

// Remove drops id from the favorites list.
func (s *Service) Remove(ctx context.Context, id models.ProductID) error {
	if err := s.requireAuth(ctx); err != nil {
		return err
	}
	return s.client.RemoveFavorite(ctx, id)
}
