package cache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/solmirror/tradescope/pkg/activity"
)

// snapshot is an immutable view of recent history for the tracked addresses.
// Readers only ever see a fully built snapshot; the refresher replaces the
// pointer wholesale.
type snapshot struct {
	start  time.Time
	end    time.Time
	trades map[string][]activity.RawTrade
}

type tracked struct {
	class      activity.Classification
	lastAccess time.Time
}

// History caches recent transaction history in front of an
// activity.HistorySource. Single-writer-many-reader: request handlers read
// copy-on-write snapshots, the cron refresher is the only writer.
type History struct {
	logger  *zap.Logger
	inner   activity.HistorySource
	window  time.Duration
	maxIdle time.Duration

	addrs *xsync.Map[string, tracked]
	snap  atomic.Pointer[snapshot]
	cron  *cron.Cron
	now   func() time.Time
}

// NewHistory wraps inner with a snapshot cache covering the trailing window.
func NewHistory(logger *zap.Logger, inner activity.HistorySource, window time.Duration) *History {
	if window <= 0 {
		window = time.Hour
	}
	return &History{
		logger:  logger,
		inner:   inner,
		window:  window,
		maxIdle: 10 * time.Minute,
		addrs:   xsync.NewMap[string, tracked](),
		cron:    cron.New(),
		now:     time.Now,
	}
}

// Start schedules the background refresher.
func (h *History) Start() error {
	if _, err := h.cron.AddFunc("@every 30s", h.Refresh); err != nil {
		return err
	}
	h.cron.Start()
	return nil
}

// Stop halts the refresher; in-flight refreshes complete.
func (h *History) Stop() {
	ctx := h.cron.Stop()
	<-ctx.Done()
}

// FirstSeen delegates; first-seen never changes, the store query is cheap.
func (h *History) FirstSeen(ctx context.Context, class activity.Classification) (time.Time, error) {
	return h.inner.FirstSeen(ctx, class)
}

// Trades serves from the current snapshot when it fully covers [start, end)
// for a tracked address, and falls through to the inner source otherwise.
func (h *History) Trades(ctx context.Context, class activity.Classification, start, end time.Time) ([]activity.RawTrade, error) {
	h.addrs.Store(class.Address, tracked{class: class, lastAccess: h.now()})

	if s := h.snap.Load(); s != nil && !start.Before(s.start) && !end.After(s.end) {
		if cached, ok := s.trades[class.Address]; ok {
			out := make([]activity.RawTrade, 0, len(cached))
			for _, t := range cached {
				if !t.Time.Before(start) && t.Time.Before(end) {
					out = append(out, t)
				}
			}
			return out, nil
		}
	}

	return h.inner.Trades(ctx, class, start, end)
}

// Refresh rebuilds the snapshot for every recently accessed address. It is
// the single writer: the new snapshot is assembled off to the side and
// swapped in atomically.
func (h *History) Refresh() {
	now := h.now()
	next := &snapshot{
		start:  now.Add(-h.window),
		end:    now,
		trades: make(map[string][]activity.RawTrade),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()

	h.addrs.Range(func(addr string, t tracked) bool {
		if now.Sub(t.lastAccess) > h.maxIdle {
			h.addrs.Delete(addr)
			return true
		}
		trades, err := h.inner.Trades(ctx, t.class, next.start, next.end)
		if err != nil {
			// Leave the address out; requests fall through to the source.
			h.logger.Warn("History cache refresh failed for address",
				zap.String("address", addr),
				zap.Error(err))
			return true
		}
		next.trades[addr] = trades
		return true
	})

	h.snap.Store(next)
}
