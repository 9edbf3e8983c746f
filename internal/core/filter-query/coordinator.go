// internal/core/filter-query/coordinator.go
package filterquery

import (
	"context"
	"net/url"
	"strings"
	"sync"

	commonerrors "shopping-assistant/internal/common/errors"
	"shopping-assistant/internal/common/logger"
	"shopping-assistant/internal/common/metrics"
	"shopping-assistant/internal/common/sequence"
	"shopping-assistant/internal/models"
)

type Option func(*Coordinator)

// WithOnChange registers a callback invoked after every visible state change.
func WithOnChange(fn func(Snapshot)) Option {
	return func(c *Coordinator) { c.onChange = fn }
}

// Coordinator owns the committed query and filter criteria of the product
// listing. Every committed change issues exactly one fetch and only the
// newest fetch may update the listing.
type Coordinator struct {
	fetcher  Fetcher
	logger   logger.Logger
	onChange func(Snapshot)
	seq      sequence.Sequencer
	sidebar  *Sidebar

	mu     sync.Mutex
	state  Snapshot
	cancel context.CancelFunc
}

func NewCoordinator(fetcher Fetcher, log logger.Logger, opts ...Option) *Coordinator {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	c := &Coordinator{
		fetcher: fetcher,
		logger:  log.Named("filter-query"),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.sidebar = newSidebar(c)
	return c
}

// Sidebar returns the working copy editor bound to this coordinator.
func (c *Coordinator) Sidebar() *Sidebar { return c.sidebar }

func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copyLocked()
}

func (c *Coordinator) copyLocked() Snapshot {
	s := c.state
	s.Filters = s.Filters.Clone()
	s.Products = append([]models.Product(nil), s.Products...)
	return s
}

// SetQuery commits a new free-text query and refetches.
func (c *Coordinator) SetQuery(ctx context.Context, query string) Snapshot {
	query = strings.TrimSpace(query)
	return c.commit(ctx, func(s *Snapshot) { s.Query = query })
}

// ApplyFilters commits filters and refetches. Invalid criteria are rejected
// without touching the committed state.
func (c *Coordinator) ApplyFilters(ctx context.Context, filters models.FilterCriteria) (Snapshot, error) {
	if err := filters.Validate(); err != nil {
		return c.Snapshot(), commonerrors.NewInvalidFilterError(err.Error())
	}
	filters = filters.Clone()
	c.sidebar.load(filters)
	snap := c.commit(ctx, func(s *Snapshot) { s.Filters = filters })
	return snap, nil
}

// Reset commits an all-absent criteria and refetches immediately.
func (c *Coordinator) Reset(ctx context.Context) Snapshot {
	c.sidebar.load(models.FilterCriteria{})
	return c.commit(ctx, func(s *Snapshot) { s.Filters = models.FilterCriteria{} })
}

// Refresh refetches the current state, e.g. on first display.
func (c *Coordinator) Refresh(ctx context.Context) Snapshot {
	return c.commit(ctx, func(*Snapshot) {})
}

// FromLocation restores query and filters from location parameters and
// issues a single fetch. Unparseable filter values are dropped and logged.
func (c *Coordinator) FromLocation(ctx context.Context, values url.Values) Snapshot {
	filters, err := models.ParseFilterValues(values)
	if err != nil {
		c.logger.Warn("ignoring invalid filter parameters", map[string]interface{}{
			"error": err,
		})
	}
	query := strings.TrimSpace(values.Get(ParamQuery))

	c.sidebar.load(filters)
	return c.commit(ctx, func(s *Snapshot) {
		s.Query = query
		s.Filters = filters
	})
}

// Location renders the committed query and filters as location parameters,
// the inverse of FromLocation.
func (c *Coordinator) Location() url.Values {
	c.mu.Lock()
	defer c.mu.Unlock()

	values := c.state.Filters.Values()
	if c.state.Query != "" {
		values.Set(ParamQuery, c.state.Query)
	}
	return values
}

// commit applies mutate to the committed state, then fetches for it.
func (c *Coordinator) commit(ctx context.Context, mutate func(*Snapshot)) Snapshot {
	c.mu.Lock()
	mutate(&c.state)
	if c.cancel != nil {
		c.cancel()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	seq := c.seq.Next()
	query := c.state.Query
	filters := c.state.Filters.Clone()
	route := RouteList
	if query != "" {
		route = RouteSearch
	}
	c.state.Seq = seq
	c.state.Route = route
	c.state.Loading = true
	c.state.Err = nil
	loading := c.copyLocked()
	c.mu.Unlock()

	c.notify(loading)

	products, err := c.fetch(fetchCtx, route, query, filters)
	cancel()

	c.mu.Lock()
	if !c.seq.IsLatest(seq) {
		snap := c.copyLocked()
		c.mu.Unlock()
		metrics.CoordinatorFetches.WithLabelValues(string(route), "superseded").Inc()
		c.logger.Debug("discarding stale product list", map[string]interface{}{
			"seq":   seq,
			"route": route,
		})
		return snap
	}

	result := "applied"
	if err != nil {
		result = "failed"
		c.logger.Warn("product fetch failed, showing no results", map[string]interface{}{
			"route": route,
			"query": query,
			"error": err,
		})
		products = nil
	}
	metrics.CoordinatorFetches.WithLabelValues(string(route), result).Inc()

	c.state.Loading = false
	c.state.Products = products
	c.state.Err = err
	c.cancel = nil
	snap := c.copyLocked()
	c.mu.Unlock()

	c.notify(snap)
	return snap
}

func (c *Coordinator) fetch(ctx context.Context, route Route, query string, filters models.FilterCriteria) ([]models.Product, error) {
	if route == RouteSearch {
		return c.fetcher.Search(ctx, query, filters)
	}
	if !filters.IsEmpty() {
		// The list endpoint takes no filters; they apply again once a query is set.
		c.logger.Debug("filters ignored without a search query", map[string]interface{}{
			"filters": filters.Params(),
		})
	}
	return c.fetcher.ListProducts(ctx, nil)
}

func (c *Coordinator) notify(snap Snapshot) {
	if c.onChange != nil {
		c.onChange(snap)
	}
}
