package storage

import (
	"context"
	"fmt"
	"leetfresh/internal/providers"
	"leetfresh/internal/structures"
)

// Store is the persistence collaborator: an asynchronous key-value store.
// Set writes all entries or none of them.
type Store interface {
	Get(ctx context.Context, keys []string) (map[string][]byte, error)
	Set(ctx context.Context, entries map[string][]byte) error
	Close() error
}

func NewStore(conf *structures.Config, compressor CompressorInterface, logger providers.Logger) (Store, error) {
	switch conf.Persistence.Driver {
	case "", "file":
		logger.Infof(providers.TypeApp, "Using file store at %s", conf.Persistence.FilePath)
		return NewFileStore(conf.Persistence.FilePath, compressor), nil
	case "sqlite":
		logger.Infof(providers.TypeApp, "Using sqlite store at %s", conf.Persistence.FilePath)
		return NewSQLiteStore(conf.Persistence.FilePath)
	default:
		return nil, fmt.Errorf("unknown persistence driver %q", conf.Persistence.Driver)
	}
}
