// internal/store/open.go
package store

import (
	"context"
	"fmt"

	"loan-journey/internal/common/config"
	"loan-journey/internal/common/database"
	"loan-journey/internal/common/logger"

	"github.com/spf13/afero"
)

// Open builds the store selected by cfg.Storage. The returned close func
// releases whatever connections were opened.
func Open(ctx context.Context, cfg *config.Config, log logger.Logger) (Store, func() error, error) {
	var (
		s       Store
		closers []func() error
	)
	closeAll := func() error {
		var first error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil && first == nil {
				first = err
			}
		}
		return first
	}

	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		pg, err := database.NewPostgres(ctx, cfg.Database.Postgres)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, pg.Close)

		ps := NewPostgresStore(pg.DB, log)
		if err := ps.EnsureSchema(ctx); err != nil {
			closeAll()
			return nil, nil, err
		}
		s = ps

	case config.BackendRedis:
		rc, err := database.NewRedis(ctx, cfg.Database.Redis)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, rc.Close)
		s = NewRedisStore(rc.Client, cfg.Storage.RedisKey, log)

	case config.BackendFile:
		fs, err := NewFileStore(afero.NewOsFs(), cfg.Storage.FilePath, log)
		if err != nil {
			return nil, nil, err
		}
		s = fs

	case config.BackendMemory, "":
		s = NewMemoryStore()

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	if cfg.Storage.Index.Enabled {
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		if err := es.EnsureIndex(ctx, cfg.Storage.Index.Name, IndexMapping); err != nil {
			closeAll()
			return nil, nil, err
		}
		s = NewIndexedStore(s, es.Client, cfg.Storage.Index.Name, log)
	}

	log.Info("application store ready", map[string]interface{}{
		"backend": cfg.Storage.Backend,
		"indexed": cfg.Storage.Index.Enabled,
	})
	return s, closeAll, nil
}
