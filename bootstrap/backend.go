package bootstrap

import (
	"context"
	"fmt"

	"github.com/artpar/scoreapi/adapters/memory"
	"github.com/artpar/scoreapi/adapters/postgres"
	"github.com/artpar/scoreapi/adapters/redis"
	"github.com/artpar/scoreapi/adapters/sqlite"
	"github.com/artpar/scoreapi/config"
	"github.com/artpar/scoreapi/ports"
	"github.com/rs/zerolog"
)

// OpenBackend creates the key-value backend selected by cfg.Backend.
// The returned close function releases its connections.
//
// SQL backends are migrated before use and fail fast when the database
// cannot be opened; the Redis client connects lazily.
func OpenBackend(ctx context.Context, cfg config.StoreConfig, clock ports.Clock, logger zerolog.Logger) (ports.KeyValueBackend, func() error, error) {
	switch cfg.Backend {
	case config.BackendMemory, "":
		logger.Info().Msg("using in-memory store; data is lost on restart")
		return memory.NewKVStore(clock), noClose, nil

	case config.BackendRedis:
		store := redis.New(redis.Options{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
			PoolSize:     cfg.Redis.PoolSize,
		})
		logger.Info().Str("addr", cfg.Redis.Addr).Int("db", cfg.Redis.DB).Msg("using redis store")
		return store, store.Close, nil

	case config.BackendSQLite:
		db, err := sqlite.Open(cfg.SQLite.DSN)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		logger.Info().Str("dsn", cfg.SQLite.DSN).Msg("using sqlite store")
		return sqlite.NewKVStore(db, clock), db.Close, nil

	case config.BackendPostgres:
		db, err := postgres.Open(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		logger.Info().Msg("using postgres store")
		return postgres.NewKVStore(db, clock), db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

func noClose() error { return nil }
