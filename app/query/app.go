package query

import (
	"context"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/solmirror/tradescope/app/query/types"
	"github.com/solmirror/tradescope/pkg/activity"
	"github.com/solmirror/tradescope/pkg/cache"
	"github.com/solmirror/tradescope/pkg/db"
	"github.com/solmirror/tradescope/pkg/db/postgres"
	"github.com/solmirror/tradescope/pkg/logging"
	"github.com/solmirror/tradescope/pkg/redis"
	"github.com/solmirror/tradescope/pkg/rpc"
	"github.com/solmirror/tradescope/pkg/utils"
)

// Initialize initializes the application.
func Initialize(ctx context.Context) *types.App {
	_ = godotenv.Load()

	logger, err := logging.New()
	if err != nil {
		// nothing else to do here, we'll just log to stderr
		panic(err)
	}

	trades, err := db.NewTradeStore(ctx, logger)
	if err != nil {
		logger.Fatal("Unable to initialize trade store", zap.Error(err))
	}

	pgClient, err := postgres.New(ctx, logger)
	if err != nil {
		logger.Fatal("Unable to initialize postgres", zap.Error(err))
	}
	params, err := postgres.NewParamsStore(ctx, pgClient)
	if err != nil {
		logger.Fatal("Unable to initialize trading params store", zap.Error(err))
	}
	alerts, err := postgres.NewAlertStore(ctx, pgClient)
	if err != nil {
		logger.Fatal("Unable to initialize alert store", zap.Error(err))
	}

	// Redis is optional; without it the WebSocket feed is disabled.
	var redisClient *redis.Client
	if utils.Env("REDIS_ENABLED", "true") == "true" {
		redisClient, err = redis.NewClient(ctx, logger)
		if err != nil {
			logger.Warn("Failed to initialize Redis client - live trade feed will be disabled",
				zap.Error(err))
			redisClient = nil
		}
	} else {
		logger.Info("Redis disabled - live trade feed will not be available")
	}

	// The chain RPC is the authoritative classifier backend.
	rpcClient := rpc.NewFromEnv(logger)
	classifier := activity.NewClassifier(logger, rpcClient)

	// First-seen falls back to the chain when the store has no history yet.
	var source activity.HistorySource = rpc.NewFirstSeenBackfill(logger, trades, rpcClient)
	var history *cache.History
	if utils.Env("HISTORY_CACHE_ENABLED", "true") == "true" {
		history = cache.NewHistory(logger, source, utils.EnvDuration("HISTORY_CACHE_WINDOW", time.Hour))
		if err := history.Start(); err != nil {
			logger.Fatal("Unable to start history cache refresher", zap.Error(err))
		}
		source = history
	}

	service := activity.NewService(logger, source, classifier, activity.Opts{
		MaxChunks:   utils.EnvInt("ACTIVITY_MAX_CHUNKS", 8),
		CallTimeout: utils.EnvDuration("ACTIVITY_CALL_TIMEOUT", 8*time.Second),
	})

	return &types.App{
		Logger:      logger,
		Activity:    service,
		Trades:      trades,
		Params:      params,
		Alerts:      alerts,
		RedisClient: redisClient,
		History:     history,
	}
}
