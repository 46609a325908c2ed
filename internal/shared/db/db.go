package db

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bidstation/engine/internal/shared/config"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	dbPool *pgxpool.Pool
	once   sync.Once
)

// GetPostgresDBPool returns a singleton *pgxpool.Pool built from the loaded
// configuration. The pool is pinged before being handed out.
func GetPostgresDBPool(ctx context.Context, cfg config.Config) (*pgxpool.Pool, error) {
	var err error
	once.Do(func() {
		poolCfg, configErr := pgxpool.ParseConfig(cfg.PostgresDSN())
		if configErr != nil {
			err = fmt.Errorf("failed to parse database config: %w", configErr)
			return
		}

		// pool sizing left at pgx defaults, tune here when needed
		// poolCfg.MaxConns = 10
		// poolCfg.HealthCheckPeriod = time.Minute

		pool, connectErr := pgxpool.NewWithConfig(ctx, poolCfg)
		if connectErr != nil {
			err = fmt.Errorf("unable to connect to DB: %w", connectErr)
			return
		}
		dbPool = pool
	})

	if err != nil {
		return nil, err
	}
	if dbPool == nil {
		return nil, errors.New("database pool was not initialized")
	}
	if pingErr := dbPool.Ping(ctx); pingErr != nil {
		return nil, fmt.Errorf("database pool ping failed: %w", pingErr)
	}

	return dbPool, nil
}
