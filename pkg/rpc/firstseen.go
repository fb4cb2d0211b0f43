package rpc

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/solmirror/tradescope/pkg/activity"
)

// FirstSeenBackfill decorates a history source with a chain fallback: when the
// store has no record of the address yet, first-seen is resolved from the
// address's earliest on-chain signature instead. Trades always come from the
// store; the chain cannot reconstruct parsed trade rows.
type FirstSeenBackfill struct {
	logger *zap.Logger
	inner  activity.HistorySource
	client *Client
}

func NewFirstSeenBackfill(logger *zap.Logger, inner activity.HistorySource, client *Client) *FirstSeenBackfill {
	return &FirstSeenBackfill{logger: logger, inner: inner, client: client}
}

func (f *FirstSeenBackfill) FirstSeen(ctx context.Context, class activity.Classification) (time.Time, error) {
	first, err := f.inner.FirstSeen(ctx, class)
	if err != nil || !first.IsZero() {
		return first, err
	}

	sig, err := f.client.EarliestSignature(ctx, class.Address)
	if err != nil {
		// The store answered; a failed backfill degrades to the trailing
		// window rather than failing the request.
		f.logger.Warn("First-seen chain backfill failed",
			zap.String("address", class.Address),
			zap.Error(err))
		return time.Time{}, nil
	}
	if sig == nil || sig.BlockTime == nil {
		return time.Time{}, nil
	}
	return time.Unix(*sig.BlockTime, 0).UTC(), nil
}

func (f *FirstSeenBackfill) Trades(ctx context.Context, class activity.Classification, start, end time.Time) ([]activity.RawTrade, error) {
	return f.inner.Trades(ctx, class, start, end)
}
