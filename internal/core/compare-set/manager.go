// internal/core/compare-set/manager.go
package compareset

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	commonerrors "shopping-assistant/internal/common/errors"
	"shopping-assistant/internal/common/logger"
	"shopping-assistant/internal/common/metrics"
	"shopping-assistant/internal/common/storage"
	"shopping-assistant/internal/common/validation"
	"shopping-assistant/internal/models"

	"golang.org/x/sync/errgroup"
)

// Manager owns the bounded, deduplicated list of product ids selected for
// comparison. Every mutation runs load-modify-persist under one lock, and the
// in-memory set only changes once the new record has been stored.
type Manager struct {
	config *Config
	store  storage.Store
	schema *validation.Schema
	logger logger.Logger

	mu     sync.Mutex
	loaded bool
	ids    []models.ProductID
}

func NewManager(cfg *Config, store storage.Store, log logger.Logger) (*Manager, error) {
	cfg = defaultConfig(cfg)
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	schema, err := validation.Compile("compare-set", recordSchema(cfg.Capacity))
	if err != nil {
		return nil, err
	}
	return &Manager{
		config: cfg,
		store:  store,
		schema: schema,
		logger: log.Named("compare-set").WithFields(map[string]interface{}{"key": cfg.Key}),
	}, nil
}

func (m *Manager) Capacity() int { return m.config.Capacity }

// ensureLoaded reads the persisted record on first access. Must hold m.mu.
func (m *Manager) ensureLoaded(ctx context.Context) error {
	if m.loaded {
		return nil
	}

	raw, err := m.store.Get(ctx, m.config.Key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		m.ids, m.loaded = nil, true
		return nil
	case err != nil:
		return commonerrors.NewStorageFailedError(m.config.Key, err)
	}

	ids, err := m.decode(raw)
	if err != nil {
		m.logger.Warn("discarding corrupt compare set record", map[string]interface{}{
			"error": err,
		})
		ids = nil
	}
	m.ids, m.loaded = ids, true
	metrics.CompareSetSize.Set(float64(len(m.ids)))
	return nil
}

func (m *Manager) decode(raw string) ([]models.ProductID, error) {
	if err := m.schema.ValidateJSON(raw); err != nil {
		return nil, err
	}
	var ids []models.ProductID
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, err
	}

	// 1 and "1" are distinct JSON values but the same id.
	seen := make(map[models.ProductID]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}

// persist stores next and then adopts it. Must hold m.mu.
func (m *Manager) persist(ctx context.Context, next []models.ProductID) error {
	var err error
	if len(next) == 0 {
		err = m.store.Del(ctx, m.config.Key)
	} else {
		var raw []byte
		raw, err = json.Marshal(next)
		if err == nil {
			err = m.store.Set(ctx, m.config.Key, string(raw))
		}
	}
	if err != nil {
		return commonerrors.NewStorageFailedError(m.config.Key, err)
	}

	m.ids = next
	metrics.CompareSetSize.Set(float64(len(next)))
	return nil
}

func (m *Manager) indexOf(id models.ProductID) int {
	for i, existing := range m.ids {
		if existing == id {
			return i
		}
	}
	return -1
}

func (m *Manager) snapshot() []models.ProductID {
	return append([]models.ProductID{}, m.ids...)
}

func (m *Manager) record(op string, err error) {
	outcome := "success"
	if err != nil {
		outcome = strings.ToLower(string(commonerrors.CodeOf(err)))
		if outcome == "" {
			outcome = "error"
		}
	}
	metrics.CompareMutations.WithLabelValues(op, outcome).Inc()
}

// Add appends id. It fails with CapacityExceeded when the set is full and
// AlreadyPresent when id is a member; the capacity check comes first.
func (m *Manager) Add(ctx context.Context, id models.ProductID) (ids []models.ProductID, err error) {
	defer func() { m.record("add", err) }()

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	if len(m.ids) >= m.config.Capacity {
		return nil, commonerrors.NewCapacityExceededError(m.config.Capacity)
	}
	if m.indexOf(id) >= 0 {
		return nil, commonerrors.NewAlreadyPresentError(id.String())
	}

	next := append(m.snapshot(), id)
	if err := m.persist(ctx, next); err != nil {
		return nil, err
	}
	m.logger.Info("added product to compare set", map[string]interface{}{
		"productId": id,
		"size":      len(next),
	})
	return m.snapshot(), nil
}

// Remove drops id. Removing a non-member is a no-op and touches no storage.
func (m *Manager) Remove(ctx context.Context, id models.ProductID) (ids []models.ProductID, err error) {
	defer func() { m.record("remove", err) }()

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	i := m.indexOf(id)
	if i < 0 {
		return m.snapshot(), nil
	}

	next := append(m.snapshot()[:i:i], m.ids[i+1:]...)
	if err := m.persist(ctx, next); err != nil {
		return nil, err
	}
	return m.snapshot(), nil
}

// Clear empties the set and deletes the persisted record.
func (m *Manager) Clear(ctx context.Context) (err error) {
	defer func() { m.record("clear", err) }()

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.persist(ctx, nil); err != nil {
		return err
	}
	m.loaded = true
	return nil
}

// List returns the ids in insertion order.
func (m *Manager) List(ctx context.Context) ([]models.ProductID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return m.snapshot(), nil
}

func (m *Manager) Contains(ctx context.Context, id models.ProductID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureLoaded(ctx); err != nil {
		return false, err
	}
	return m.indexOf(id) >= 0, nil
}

// Resolve fetches every member concurrently. Results follow set order and a
// failed fetch only marks its own entry.
func (m *Manager) Resolve(ctx context.Context, fetcher ProductFetcher) ([]Resolved, error) {
	ids, err := m.List(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]Resolved, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.config.ResolveConcurrency)

	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			product, err := fetcher.GetProduct(gctx, id)
			if err != nil {
				m.logger.Warn("failed to resolve compare set member", map[string]interface{}{
					"productId": id,
					"error":     err,
				})
				results[i] = Resolved{ID: id, Err: err}
				return nil
			}
			results[i] = Resolved{ID: id, Product: product}
			return nil
		})
	}
	_ = g.Wait()

	return results, nil
}
