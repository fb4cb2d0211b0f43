package collector

import (
	"context"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/solmirror/tradescope/pkg/db"
	"github.com/solmirror/tradescope/pkg/db/postgres"
	"github.com/solmirror/tradescope/pkg/logging"
	"github.com/solmirror/tradescope/pkg/redis"
	"github.com/solmirror/tradescope/pkg/utils"
)

// TradeTopic is the Kafka topic carrying executed trade events.
const TradeTopic = "trade-events"

type App struct {
	Logger *zap.Logger
	Trades *db.TradeStore
	Params *postgres.ParamsStore
	Alerts *postgres.AlertStore
	Redis  *redis.Client
	Reader *kafka.Reader

	batchSize     int
	flushInterval time.Duration
}

// Initialize initializes the collector application.
func Initialize(ctx context.Context) *App {
	_ = godotenv.Load()

	logger, err := logging.New()
	if err != nil {
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

	var redisClient *redis.Client
	if utils.Env("REDIS_ENABLED", "true") == "true" {
		redisClient, err = redis.NewClient(ctx, logger)
		if err != nil {
			logger.Warn("Failed to initialize Redis client - live fan-out will be disabled",
				zap.Error(err))
			redisClient = nil
		}
	}

	brokers := strings.Split(utils.Env("KAFKA_BROKERS", "localhost:9092"), ",")
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  utils.Env("KAFKA_GROUP_ID", "tradescope-collector"),
		Topic:    TradeTopic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})

	logger.Info("Collector initialized",
		zap.Strings("brokers", brokers),
		zap.String("topic", TradeTopic))

	return &App{
		Logger:        logger,
		Trades:        trades,
		Params:        params,
		Alerts:        alerts,
		Redis:         redisClient,
		Reader:        reader,
		batchSize:     utils.EnvInt("COLLECTOR_BATCH_SIZE", 500),
		flushInterval: utils.EnvDuration("COLLECTOR_FLUSH_INTERVAL", 2*time.Second),
	}
}

// Close releases the collector's connections.
func (a *App) Close() {
	if err := a.Reader.Close(); err != nil {
		a.Logger.Error("Failed to close kafka reader", zap.Error(err))
	}
	if err := a.Trades.Close(); err != nil {
		a.Logger.Error("Failed to close trade store", zap.Error(err))
	}
	if a.Params != nil {
		a.Params.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Error("Failed to close redis client", zap.Error(err))
		}
	}
}
