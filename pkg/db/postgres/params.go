package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ErrVersionConflict is returned when an update targets a stale version of
// the trading parameters.
var ErrVersionConflict = errors.New("trading params version conflict")

// TradingParams is the versioned trading configuration record. Every field is
// part of the recognized-options schema; there is no loose JSON column.
// Updates use optimistic concurrency on Version.
type TradingParams struct {
	ID                   int64     `json:"id"`
	Version              int64     `json:"version"`
	WatchThreshold       float64   `json:"watch_threshold"`
	BuyTrigger           float64   `json:"buy_trigger"`
	BuyPrice             float64   `json:"buy_price"`
	TakeProfitMultiplier float64   `json:"take_profit_multiplier"`
	StopLossPercent      float64   `json:"stop_loss_percent"`
	MaxAgeSeconds        int64     `json:"max_age_seconds"`
	PositionSize         float64   `json:"position_size"`
	DexSources           []string  `json:"dex_sources"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// Validate rejects values an execution engine could never act on.
func (p *TradingParams) Validate() error {
	if p.WatchThreshold < 0 || p.BuyTrigger < 0 || p.BuyPrice < 0 || p.PositionSize < 0 {
		return fmt.Errorf("trading params must be non-negative")
	}
	if p.TakeProfitMultiplier < 1 {
		return fmt.Errorf("take_profit_multiplier must be >= 1")
	}
	if p.StopLossPercent < 0 || p.StopLossPercent > 100 {
		return fmt.Errorf("stop_loss_percent must be within [0, 100]")
	}
	if p.MaxAgeSeconds < 0 {
		return fmt.Errorf("max_age_seconds must be non-negative")
	}
	return nil
}

// ParamsStore persists the single versioned trading-parameters row.
type ParamsStore struct {
	*Client
}

func NewParamsStore(ctx context.Context, client *Client) (*ParamsStore, error) {
	s := &ParamsStore{Client: client}
	if err := s.init(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ParamsStore) init(ctx context.Context) error {
	_, err := s.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS trading_params (
			id BIGINT PRIMARY KEY,
			version BIGINT NOT NULL DEFAULT 1,
			watch_threshold DOUBLE PRECISION NOT NULL,
			buy_trigger DOUBLE PRECISION NOT NULL,
			buy_price DOUBLE PRECISION NOT NULL,
			take_profit_multiplier DOUBLE PRECISION NOT NULL,
			stop_loss_percent DOUBLE PRECISION NOT NULL,
			max_age_seconds BIGINT NOT NULL,
			position_size DOUBLE PRECISION NOT NULL,
			dex_sources TEXT[] NOT NULL DEFAULT '{}',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("create trading_params: %w", err)
	}

	// Seed the singleton row so Get never has a missing-row path.
	_, err = s.Pool.Exec(ctx, `
		INSERT INTO trading_params (
			id, watch_threshold, buy_trigger, buy_price, take_profit_multiplier,
			stop_loss_percent, max_age_seconds, position_size, dex_sources
		) VALUES (1, 10000, 0.05, 0, 2.0, 20, 3600, 0.5, '{"raydium","orca"}')
		ON CONFLICT (id) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("seed trading_params: %w", err)
	}
	return nil
}

const paramsColumns = `id, version, watch_threshold, buy_trigger, buy_price,
	take_profit_multiplier, stop_loss_percent, max_age_seconds, position_size,
	dex_sources, updated_at`

func (s *ParamsStore) Get(ctx context.Context) (*TradingParams, error) {
	row := s.Pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM trading_params WHERE id = 1`, paramsColumns))
	return scanParams(row)
}

// Update applies p with optimistic concurrency: it only succeeds when
// p.Version matches the stored version, and bumps it. Safe across multiple
// server instances.
func (s *ParamsStore) Update(ctx context.Context, p TradingParams) (*TradingParams, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	row := s.Pool.QueryRow(ctx, fmt.Sprintf(`
		UPDATE trading_params SET
			version = version + 1,
			watch_threshold = $2,
			buy_trigger = $3,
			buy_price = $4,
			take_profit_multiplier = $5,
			stop_loss_percent = $6,
			max_age_seconds = $7,
			position_size = $8,
			dex_sources = $9,
			updated_at = now()
		WHERE id = 1 AND version = $1
		RETURNING %s`, paramsColumns),
		p.Version, p.WatchThreshold, p.BuyTrigger, p.BuyPrice,
		p.TakeProfitMultiplier, p.StopLossPercent, p.MaxAgeSeconds,
		p.PositionSize, p.DexSources)

	updated, err := scanParams(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrVersionConflict
	}
	return updated, err
}

func scanParams(row pgx.Row) (*TradingParams, error) {
	var p TradingParams
	err := row.Scan(&p.ID, &p.Version, &p.WatchThreshold, &p.BuyTrigger,
		&p.BuyPrice, &p.TakeProfitMultiplier, &p.StopLossPercent,
		&p.MaxAgeSeconds, &p.PositionSize, &p.DexSources, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
