package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/solmirror/tradescope/pkg/retry"
	"github.com/solmirror/tradescope/pkg/utils"
)

// Client wraps a PostgreSQL connection pool for the relational entities
// (trading parameters, alerts).
type Client struct {
	Logger *zap.Logger
	Pool   *pgxpool.Pool
}

// New initializes a PostgreSQL client from POSTGRES_URL with a bounded
// connect retry.
func New(ctx context.Context, logger *zap.Logger) (*Client, error) {
	connCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	dbURL := utils.Env("POSTGRES_URL", "postgres://localhost:5432/tradescope")
	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse POSTGRES_URL: %w", err)
	}
	config.MaxConns = int32(utils.EnvInt("POSTGRES_MAX_CONNS", 10))
	config.MaxConnLifetime = utils.EnvDuration("POSTGRES_CONN_MAX_LIFETIME", time.Hour)

	client := &Client{Logger: logger}
	connErr := retry.WithBackoff(connCtx, retry.DefaultConfig(), logger, "postgres_connection", func() error {
		pool, err := pgxpool.NewWithConfig(connCtx, config)
		if err != nil {
			return fmt.Errorf("failed to create postgres pool: %w", err)
		}
		if err := pool.Ping(connCtx); err != nil {
			pool.Close()
			return fmt.Errorf("failed to ping postgres: %w", err)
		}
		client.Pool = pool
		return nil
	})
	if connErr != nil {
		return nil, connErr
	}

	logger.Info("PostgreSQL connection pool configured",
		zap.Int("max_conns", int(config.MaxConns)))

	return client, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.Pool.Ping(ctx)
}

func (c *Client) Close() {
	c.Pool.Close()
}
