// Package driver holds the raw collaborator access: postgres queries and
// HTTP clients for the external extractor, summarizer and renderer services.
// The repository layer wraps the database side with interfaces and logging.
package driver

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"harvester/config"
)

// Init opens the connection pool and verifies it with a ping. A failure here
// is the one fatal startup condition.
func Init(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	connString := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=%d",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode, cfg.MaxConns)

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}
