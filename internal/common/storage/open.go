package storage

import (
	"context"
	"fmt"

	"shopping-assistant/internal/common/config"
)

// Open builds the store selected by cfg.Driver. The returned close function is
// never nil.
func Open(ctx context.Context, cfg config.StorageConfig) (Store, func() error, error) {
	var (
		store   Store
		closeFn = func() error { return nil }
	)

	switch cfg.Driver {
	case "memory":
		store = NewMemoryStore()
	case "file", "":
		fs, err := NewFileStore(cfg.FilePath)
		if err != nil {
			return nil, closeFn, err
		}
		store = fs
	case "redis":
		rs := NewRedis(cfg.Redis)
		if err := rs.Ping(ctx); err != nil {
			rs.Close()
			return nil, closeFn, err
		}
		store, closeFn = rs, rs.Close
	default:
		return nil, closeFn, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}

	if cfg.KeyPrefix != "" {
		store = Prefixed{Store: store, Prefix: cfg.KeyPrefix}
	}
	return store, closeFn, nil
}
