package main

import (
	"context"
	"fmt"

	"github.com/docflow/review-service/internal/config"
	"github.com/docflow/review-service/internal/database"
	"github.com/docflow/review-service/internal/document/repository"
	"github.com/docflow/review-service/internal/users"
	"github.com/docflow/review-service/pkg/logger"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
)

// backend is the storage for one configured store: the review tables and
// the profiles of the actors that touched them.
type backend struct {
	store repository.Store
	users users.UserRepository
	close func()
}

// openStore connects the configured backend. With migrate set, the schema
// or indexes are applied before the store is returned.
func openStore(ctx context.Context, cfg *config.Config, migrate bool) (*backend, error) {
	switch cfg.Store.Backend {
	case config.BackendPostgres:
		pool, err := database.Retry(ctx, "postgres", cfg.Store.ConnectAttempts, func(ctx context.Context) (*pgxpool.Pool, error) {
			return database.ConnectPostgres(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns, cfg.Postgres.Timeout)
		})
		if err != nil {
			return nil, err
		}
		if migrate {
			if err := database.MigratePostgres(ctx, pool); err != nil {
				pool.Close()
				return nil, err
			}
			logger.Infof("postgres schema applied")
		}
		return &backend{store: repository.NewPostgresRepo(pool), users: users.NewPostgresUserRepository(pool), close: pool.Close}, nil

	case config.BackendMongo:
		client, err := database.Retry(ctx, "mongodb", cfg.Store.ConnectAttempts, func(ctx context.Context) (*mongo.Client, error) {
			return database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
		})
		if err != nil {
			return nil, err
		}
		closeFn := func() { _ = client.Disconnect(context.Background()) }
		db := client.Database(cfg.MongoDB.Database)
		repo := repository.NewMongoRepo(db)
		if migrate {
			if err := repo.EnsureIndexes(ctx); err != nil {
				closeFn()
				return nil, err
			}
			logger.Infof("mongodb indexes ensured")
		}
		return &backend{store: repo, users: users.NewMongoUserRepository(db.Collection("users")), close: closeFn}, nil

	case config.BackendMemory:
		logger.Warnf("using the in-memory store; data is lost on restart")
		return &backend{store: repository.NewMemoryRepo(), users: users.NewMemoryUserRepository(), close: func() {}}, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}
