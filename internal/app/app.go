// Package app builds the collaborators shared by the binaries.
package app

import (
	"context"
	"fmt"

	"booknotes/internal/book"
	"booknotes/internal/config"
	"booknotes/internal/cover"
	"booknotes/internal/platform/openlibrary"
	"booknotes/internal/platform/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// OpenDB connects to Postgres using the resolved DSN and pool size.
func OpenDB(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	dsn, err := cfg.Database.DSN()
	if err != nil {
		return nil, err
	}
	return postgres.Open(ctx, dsn, cfg.Database.MaxConns)
}

// NewCoverResolver returns the Open Library resolver, wrapped in the Redis
// cache when REDIS_ADDR is set. The returned func releases the cache client.
func NewCoverResolver(ctx context.Context, cfg *config.Config, logger *zap.Logger) (book.CoverResolver, func(), error) {
	client := openlibrary.NewClient(openlibrary.Options{
		BaseURL:    cfg.OpenLibrary.BaseURL,
		CoversURL:  cfg.OpenLibrary.CoversURL,
		UserAgent:  cfg.OpenLibrary.UserAgent,
		RPS:        cfg.OpenLibrary.RPS,
		MaxRetries: cfg.OpenLibrary.MaxRetries,
		Timeout:    cfg.OpenLibrary.HTTPTimeout,
	})
	resolver := cover.NewResolver(client, logger, cfg.OpenLibrary.LookupTimeout)

	if cfg.Redis.Addr == "" {
		return resolver, func() {}, nil
	}

	rdb, err := cover.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("connect cover cache: %w", err)
	}
	cached := cover.NewCachedResolver(resolver, cover.NewRedisCache(rdb), cfg.Redis.CoverTTL, logger)
	return cached, func() { _ = rdb.Close() }, nil
}

// NewBookService wires the repository and cover resolver into the service.
func NewBookService(pool *pgxpool.Pool, covers book.CoverResolver, cfg *config.Config, logger *zap.Logger) (*book.Service, *book.PostgresRepo) {
	repo := book.NewPostgresRepo(pool, cfg.Database.QueryTimeout)
	return book.NewService(repo, covers, logger.Named("book")), repo
}
