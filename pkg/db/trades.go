package db

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"

	"github.com/solmirror/tradescope/pkg/activity"
	"github.com/solmirror/tradescope/pkg/db/clickhouse"
	"github.com/solmirror/tradescope/pkg/db/models"
	"github.com/solmirror/tradescope/pkg/utils"
)

// TradeStore persists and queries the trade history. It implements
// activity.HistorySource for the aggregation service.
type TradeStore struct {
	*clickhouse.Client
}

// NewTradeStore connects to ClickHouse and ensures the trades table exists.
func NewTradeStore(ctx context.Context, logger *zap.Logger) (*TradeStore, error) {
	client, err := clickhouse.New(ctx, logger, utils.Env("CLICKHOUSE_DB", "tradescope"))
	if err != nil {
		return nil, err
	}

	store := &TradeStore{Client: client}
	if err := store.initTrades(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// initTrades creates the trades table. ReplacingMergeTree on the signature
// makes collector replays idempotent.
func (s *TradeStore) initTrades(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."%s" (
			time DateTime64(6),
			signature String,
			wallet String,
			token_address String,
			token_symbol LowCardinality(String),
			side LowCardinality(String),
			counterparty Nullable(String),
			amount Float64,
			price_usd Float64,
			profit_loss Float64,
			INDEX idx_wallet wallet TYPE bloom_filter GRANULARITY 4,
			INDEX idx_token token_address TYPE bloom_filter GRANULARITY 4
		) ENGINE = ReplacingMergeTree
		ORDER BY (time, signature)
	`, s.Name, models.TradesTableName)

	if err := s.Exec(ctx, query); err != nil {
		return fmt.Errorf("create %s: %w", models.TradesTableName, err)
	}
	return nil
}

// InsertTrades persists a batch of trades.
func (s *TradeStore) InsertTrades(ctx context.Context, trades []models.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	query := fmt.Sprintf(`INSERT INTO "%s"."%s" (
		time, signature, wallet, token_address, token_symbol, side,
		counterparty, amount, price_usd, profit_loss
	) VALUES`, s.Name, models.TradesTableName)

	batch, err := s.PrepareBatch(ctx, query)
	if err != nil {
		return err
	}
	defer func(batch driver.Batch) {
		_ = batch.Abort()
	}(batch)

	for _, t := range trades {
		err = batch.Append(
			t.Time,
			t.Signature,
			t.Wallet,
			t.TokenAddress,
			t.TokenSymbol,
			t.Side,
			t.Counterparty,
			t.Amount,
			t.PriceUsd,
			t.ProfitLoss,
		)
		if err != nil {
			return err
		}
	}

	return batch.Send()
}

// FirstSeen implements activity.HistorySource. Returns the zero time when the
// address has no recorded history.
func (s *TradeStore) FirstSeen(ctx context.Context, class activity.Classification) (time.Time, error) {
	query := fmt.Sprintf(`
		SELECT min(time) AS first, toUInt64(count()) AS total
		FROM "%s"."%s" FINAL
		WHERE %s = ?
	`, s.Name, models.TradesTableName, addressColumn(class.Kind))

	var rows []struct {
		First time.Time `ch:"first"`
		Total uint64    `ch:"total"`
	}
	if err := s.Select(ctx, &rows, query, class.Address); err != nil {
		return time.Time{}, fmt.Errorf("query first seen failed: %w", err)
	}
	if len(rows) == 0 || rows[0].Total == 0 {
		return time.Time{}, nil
	}
	return rows[0].First, nil
}

// Trades implements activity.HistorySource: all trades for the classified
// address in [start, end). Token queries filter on the mint column, wallet
// queries on the wallet column; that filter is what upholds the wallet/token
// symmetry invariant in responses.
func (s *TradeStore) Trades(ctx context.Context, class activity.Classification, start, end time.Time) ([]activity.RawTrade, error) {
	query := fmt.Sprintf(`
		SELECT time, signature, wallet, token_address, token_symbol, side,
		       counterparty, amount, price_usd, profit_loss
		FROM "%s"."%s" FINAL
		WHERE %s = ? AND time >= ? AND time < ?
		ORDER BY time ASC
	`, s.Name, models.TradesTableName, addressColumn(class.Kind))

	var rows []models.Trade
	if err := s.Select(ctx, &rows, query, class.Address, start, end); err != nil {
		return nil, fmt.Errorf("query trades failed: %w", err)
	}

	out := make([]activity.RawTrade, 0, len(rows))
	for _, t := range rows {
		out = append(out, toRawTrade(t, class.Kind))
	}
	return out, nil
}

func addressColumn(kind activity.Kind) string {
	if kind == activity.KindToken {
		return "token_address"
	}
	return "wallet"
}

// toRawTrade maps a stored row to the aggregation input shape. For token
// queries the counterparty is the trading wallet; for wallet queries it is
// whatever the collector recorded (pool or taker).
func toRawTrade(t models.Trade, kind activity.Kind) activity.RawTrade {
	counterparty := t.Counterparty
	if kind == activity.KindToken {
		wallet := t.Wallet
		counterparty = &wallet
	}
	return activity.RawTrade{
		Signature:    t.Signature,
		Time:         t.Time,
		Wallet:       t.Wallet,
		TokenAddress: t.TokenAddress,
		TokenSymbol:  t.TokenSymbol,
		Counterparty: counterparty,
		Side:         t.Side,
		Amount:       t.Amount,
		PriceUsd:     t.PriceUsd,
		ProfitLoss:   t.ProfitLoss,
	}
}
