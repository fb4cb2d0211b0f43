package clickhouse

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"

	"github.com/solmirror/tradescope/pkg/retry"
	"github.com/solmirror/tradescope/pkg/utils"
)

// Client wraps a ClickHouse connection pool for one target database.
type Client struct {
	Logger *zap.Logger
	Db     driver.Conn
	Name   string
}

// New initializes a ClickHouse client with connection pooling and a bounded
// connect retry. The DSN comes from CLICKHOUSE_ADDR.
func New(ctx context.Context, logger *zap.Logger, dbName string) (*Client, error) {
	connCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	dsn := utils.Env("CLICKHOUSE_ADDR", "clickhouse://localhost:9000?sslmode=disable")
	username, password, addrs, err := parseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse clickhouse dsn: %w", err)
	}

	options := &clickhouse.Options{
		Addr: addrs,
		Auth: clickhouse.Auth{
			Database: "default", // the target database is created on init
			Username: username,
			Password: password,
		},
		DialTimeout:     30 * time.Second,
		MaxOpenConns:    utils.EnvInt("CLICKHOUSE_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    utils.EnvInt("CLICKHOUSE_MAX_IDLE_CONNS", 25),
		ConnMaxLifetime: utils.EnvDuration("CLICKHOUSE_CONN_MAX_LIFETIME", time.Hour),
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
		Settings: clickhouse.Settings{
			"prefer_column_name_to_alias": 1,
		},
	}

	client := &Client{Logger: logger, Name: dbName}
	connErr := retry.WithBackoff(connCtx, retry.DefaultConfig(), logger, "clickhouse_connection", func() error {
		conn, err := clickhouse.Open(options)
		if err != nil {
			return fmt.Errorf("failed to open clickhouse connection: %w", err)
		}
		if err := conn.Ping(connCtx); err != nil {
			return fmt.Errorf("failed to ping clickhouse: %w", err)
		}
		client.Db = conn
		return nil
	})
	if connErr != nil {
		return nil, connErr
	}

	if err := client.Db.Exec(ctx, fmt.Sprintf(`CREATE DATABASE IF NOT EXISTS "%s"`, dbName)); err != nil {
		return nil, fmt.Errorf("create database %s: %w", dbName, err)
	}

	logger.Info("ClickHouse connection pool configured",
		zap.String("database", dbName),
		zap.Strings("addrs", addrs))

	return client, nil
}

func (c *Client) Exec(ctx context.Context, query string, args ...any) error {
	return c.Db.Exec(ctx, query, args...)
}

func (c *Client) Select(ctx context.Context, dest any, query string, args ...any) error {
	return c.Db.Select(ctx, dest, query, args...)
}

func (c *Client) PrepareBatch(ctx context.Context, query string) (driver.Batch, error) {
	return c.Db.PrepareBatch(ctx, query)
}

func (c *Client) Ping(ctx context.Context) error {
	return c.Db.Ping(ctx)
}

func (c *Client) Close() error {
	return c.Db.Close()
}

// parseDSN extracts credentials and host list from a clickhouse:// DSN.
// Multiple comma-separated hosts are supported for failover.
func parseDSN(dsn string) (username, password string, addrs []string, err error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", "", nil, err
	}
	username = "default"
	if u.User != nil {
		if name := u.User.Username(); name != "" {
			username = name
		}
		password, _ = u.User.Password()
	}
	for _, h := range strings.Split(u.Host, ",") {
		if h = strings.TrimSpace(h); h != "" {
			addrs = append(addrs, h)
		}
	}
	if len(addrs) == 0 {
		addrs = []string{"localhost:9000"}
	}
	return username, password, addrs, nil
}
