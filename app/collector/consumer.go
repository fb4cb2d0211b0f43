package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/solmirror/tradescope/pkg/db/models"
	"github.com/solmirror/tradescope/pkg/db/postgres"
)

// TradeMessage is the wire shape of one trade event on the ingest topic.
type TradeMessage struct {
	Signature    string  `json:"signature"`
	Time         int64   `json:"time"` // unix seconds
	Wallet       string  `json:"wallet"`
	TokenAddress string  `json:"token_address"`
	TokenSymbol  string  `json:"token_symbol"`
	Side         string  `json:"side"`
	Counterparty *string `json:"counterparty,omitempty"`
	Amount       float64 `json:"amount"`
	PriceUsd     float64 `json:"price_usd"`
	ProfitLoss   float64 `json:"profit_loss"`
}

func (m TradeMessage) toModel() models.Trade {
	return models.Trade{
		Time:         time.Unix(m.Time, 0).UTC(),
		Signature:    m.Signature,
		Wallet:       m.Wallet,
		TokenAddress: m.TokenAddress,
		TokenSymbol:  m.TokenSymbol,
		Side:         m.Side,
		Counterparty: m.Counterparty,
		Amount:       m.Amount,
		PriceUsd:     m.PriceUsd,
		ProfitLoss:   m.ProfitLoss,
	}
}

// Run consumes trade events until the context is cancelled. Messages are
// batched for the ClickHouse insert; each trade is also fanned out over Redis
// immediately so the live feed does not wait on the batch.
func (a *App) Run(ctx context.Context) {
	batch := make([]models.Trade, 0, a.batchSize)
	// During a store outage the batch is retained for the next flush; past
	// this mark the oldest trades are shed so memory stays bounded.
	maxRetained := a.batchSize * 10
	ticker := time.NewTicker(a.flushInterval)
	defer ticker.Stop()

	params, err := a.Params.Get(ctx)
	if err != nil {
		a.Logger.Warn("Failed to load trading params, watch alerts disabled until reload", zap.Error(err))
	}
	paramsRefresh := time.NewTicker(30 * time.Second)
	defer paramsRefresh.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		flushCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := a.Trades.InsertTrades(flushCtx, batch); err != nil {
			// The reader offset has already advanced; losing a batch is worse
			// than re-inserting, and the table dedupes on signature.
			a.Logger.Error("Failed to flush trade batch",
				zap.Int("size", len(batch)),
				zap.Error(err))
			return
		}
		a.Logger.Debug("Flushed trade batch", zap.Int("size", len(batch)))
		batch = batch[:0]
	}
	defer flush()

	messages := make(chan []byte)
	go a.readLoop(ctx, messages)

	for {
		select {
		case <-ctx.Done():
			a.Logger.Info("Collector stopping")
			return
		case <-ticker.C:
			flush()
		case <-paramsRefresh.C:
			if p, err := a.Params.Get(ctx); err == nil {
				params = p
			} else {
				a.Logger.Warn("Failed to reload trading params", zap.Error(err))
			}
		case value, ok := <-messages:
			if !ok {
				return
			}
			var msg TradeMessage
			if err := json.Unmarshal(value, &msg); err != nil {
				a.Logger.Warn("Failed to parse trade message",
					zap.ByteString("payload", value),
					zap.Error(err))
				continue
			}
			trade := msg.toModel()

			if a.Redis != nil {
				a.Redis.PublishTrade(ctx, trade)
			}
			a.maybeAlert(ctx, params, trade)

			var shed int
			batch, shed = appendBounded(batch, trade, maxRetained)
			if shed > 0 {
				a.Logger.Warn("Trade batch over capacity, shedding oldest",
					zap.Int("shed", shed),
					zap.Int("retained", len(batch)))
			}
			if len(batch) >= a.batchSize {
				flush()
			}
		}
	}
}

// appendBounded appends t to batch, shedding the oldest entries when the
// retained batch would exceed max. Returns the new batch and the shed count.
func appendBounded(batch []models.Trade, t models.Trade, max int) ([]models.Trade, int) {
	batch = append(batch, t)
	if max <= 0 || len(batch) <= max {
		return batch, 0
	}
	shed := len(batch) - max
	batch = append(batch[:0], batch[shed:]...)
	return batch, shed
}

// maybeAlert raises a watch alert when a trade's notional crosses the
// configured threshold. Best-effort: a failed insert never stalls ingest.
func (a *App) maybeAlert(ctx context.Context, params *postgres.TradingParams, trade models.Trade) {
	if params == nil || params.WatchThreshold <= 0 {
		return
	}
	notional := trade.Amount * trade.PriceUsd
	if notional < params.WatchThreshold {
		return
	}

	insertCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := a.Alerts.Insert(insertCtx, trade.Wallet, "watch_threshold",
		fmt.Sprintf("%s %s %.2f USD of %s", trade.Wallet, trade.Side, notional, trade.TokenSymbol))
	if err != nil {
		a.Logger.Warn("Failed to insert watch alert",
			zap.String("wallet", trade.Wallet),
			zap.Error(err))
	}
}

// readLoop pulls raw messages off Kafka onto the channel so batching and
// flushing stay on one goroutine.
func (a *App) readLoop(ctx context.Context, out chan<- []byte) {
	defer close(out)
	for {
		m, err := a.Reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			a.Logger.Warn("Error reading kafka message", zap.Error(err))
			continue
		}
		select {
		case out <- m.Value:
		case <-ctx.Done():
			return
		}
	}
}
