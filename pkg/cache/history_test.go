package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/solmirror/tradescope/pkg/activity"
)

type countingSource struct {
	mu     sync.Mutex
	trades []activity.RawTrade
	calls  int
}

func (s *countingSource) FirstSeen(ctx context.Context, class activity.Classification) (time.Time, error) {
	return time.Time{}, nil
}

func (s *countingSource) Trades(ctx context.Context, class activity.Classification, start, end time.Time) ([]activity.RawTrade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	var out []activity.RawTrade
	for _, tr := range s.trades {
		if !tr.Time.Before(start) && tr.Time.Before(end) {
			out = append(out, tr)
		}
	}
	return out, nil
}

func (s *countingSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestHistoryServesFromSnapshot(t *testing.T) {
	now := time.Now()
	class := activity.Classification{Address: "addr", Kind: activity.KindWallet}
	source := &countingSource{trades: []activity.RawTrade{
		{Signature: "a", Time: now.Add(-8 * time.Minute)},
		{Signature: "b", Time: now.Add(-6 * time.Minute)},
		{Signature: "c", Time: now.Add(-2 * time.Minute)},
	}}
	h := NewHistory(zap.NewNop(), source, time.Hour)

	start, end := now.Add(-10*time.Minute), now.Add(-5*time.Minute)

	// Cold: falls through and registers the address for the refresher.
	trades, err := h.Trades(context.Background(), class, start, end)
	require.NoError(t, err)
	assert.Len(t, trades, 2)
	assert.Equal(t, 1, source.callCount())

	h.Refresh()
	refreshCalls := source.callCount()

	// Warm: the covered window is served from the snapshot.
	trades, err = h.Trades(context.Background(), class, start, end)
	require.NoError(t, err)
	assert.Len(t, trades, 2)
	assert.Equal(t, refreshCalls, source.callCount())
}

func TestHistoryFallsThroughOutsideSnapshot(t *testing.T) {
	now := time.Now()
	class := activity.Classification{Address: "addr", Kind: activity.KindWallet}
	source := &countingSource{}
	h := NewHistory(zap.NewNop(), source, time.Hour)

	_, err := h.Trades(context.Background(), class, now.Add(-10*time.Minute), now.Add(-5*time.Minute))
	require.NoError(t, err)
	h.Refresh()
	before := source.callCount()

	// A window starting before the snapshot cannot be served from it.
	_, err = h.Trades(context.Background(), class, now.Add(-2*time.Hour), now)
	require.NoError(t, err)
	assert.Equal(t, before+1, source.callCount())
}

func TestHistoryUntrackedAddressFallsThrough(t *testing.T) {
	now := time.Now()
	source := &countingSource{}
	h := NewHistory(zap.NewNop(), source, time.Hour)
	h.Refresh() // empty snapshot

	_, err := h.Trades(context.Background(),
		activity.Classification{Address: "new", Kind: activity.KindToken},
		now.Add(-10*time.Minute), now.Add(-5*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, source.callCount())
}
