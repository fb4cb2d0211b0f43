package types

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/solmirror/tradescope/pkg/activity"
	"github.com/solmirror/tradescope/pkg/cache"
	"github.com/solmirror/tradescope/pkg/db"
	"github.com/solmirror/tradescope/pkg/db/postgres"
	"github.com/solmirror/tradescope/pkg/redis"
)

type App struct {
	// Zap Logger
	Logger *zap.Logger
	// Activity aggregation service behind the main endpoint.
	Activity activity.Reporter
	// Trade history store (ClickHouse).
	Trades *db.TradeStore
	// Relational stores (Postgres).
	Params *postgres.ParamsStore
	Alerts *postgres.AlertStore
	// RedisClient carries live trades for the WebSocket feed; nil when disabled.
	RedisClient *redis.Client
	// History is the snapshot cache refresher; nil when disabled.
	History *cache.History
	// Server represents the HTTP server instance used to handle incoming client requests and manage HTTP routes.
	Server *http.Server
}

// Start starts the application and blocks until the context is cancelled.
func (a *App) Start(ctx context.Context) {
	go func() { _ = a.Server.ListenAndServe() }()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if a.History != nil {
		a.History.Stop()
	}

	if err := a.Trades.Close(); err != nil {
		a.Logger.Error("Failed to close trade store", zap.Error(err))
	}
	if a.Params != nil {
		a.Params.Close()
	}
	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			a.Logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	_ = a.Server.Shutdown(shutdownCtx)
	time.Sleep(200 * time.Millisecond)
	a.Logger.Info("Bye!")
}
