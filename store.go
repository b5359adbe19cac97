package retract

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/viant/retract/service/dao/deletion"
	dfs "github.com/viant/retract/service/dao/deletion/fs"
	"github.com/viant/retract/service/dao/deletion/memory"
	"github.com/viant/retract/service/dao/deletion/pg"
	dredis "github.com/viant/retract/service/dao/deletion/redis"
	dsql "github.com/viant/retract/service/dao/deletion/sql"
	_ "modernc.org/sqlite"
)

// newStore opens the configured request store; closer releases its connections.
func (s *Service) newStore(ctx context.Context) (store deletion.Service, closer func(), err error) {
	cfg := s.config.Store
	switch cfg.Vendor {
	case StoreMemory:
		return memory.New(), nil, nil
	case StoreFS:
		store, err = dfs.New(ctx, s.fs, cfg.BaseURL, s.logger)
		return store, nil, err
	case StoreSQLite:
		db, err := sql.Open("sqlite", cfg.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite %v: %w", cfg.DSN, err)
		}
		db.SetMaxOpenConns(1)
		if store, err = dsql.New(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return store, func() { _ = db.Close() }, nil
	case StorePostgres:
		pool, err := pgxpool.New(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		pgStore := pg.New(pool, s.logger)
		if err = pgStore.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return pgStore, pool.Close, nil
	case StoreRedis:
		options, err := redis.ParseURL(cfg.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid redis dsn: %w", err)
		}
		client := redis.NewClient(options)
		if err = client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return dredis.New(client, cfg.Prefix), func() { _ = client.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unsupported store vendor: %q", cfg.Vendor)
}
