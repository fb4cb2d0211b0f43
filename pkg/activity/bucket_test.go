package activity

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testWindow(start time.Time, buckets int, interval time.Duration) TimeWindow {
	return TimeWindow{
		Start:           start,
		End:             start.Add(time.Duration(buckets) * interval),
		Granularity:     GranularityHours,
		Effective:       GranularityHours,
		Interval:        interval,
		IntervalSeconds: int64(interval / time.Second),
		Buckets:         buckets,
	}
}

func TestAggregatePartitionsTrades(t *testing.T) {
	start := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	win := testWindow(start, 4, time.Hour)

	chunks := []HistoryChunk{
		{Start: start, End: win.End, Trades: []RawTrade{
			{Signature: sig("1"), Time: start.Add(10 * time.Minute), Amount: 2, PriceUsd: 3, ProfitLoss: 1},
			{Signature: sig("2"), Time: start.Add(20 * time.Minute), Amount: 1, PriceUsd: 5, ProfitLoss: -2},
			{Signature: sig("3"), Time: start.Add(2*time.Hour + time.Minute), Amount: 4, PriceUsd: 1, ProfitLoss: 0.5},
		}},
	}

	buckets, warnings := Aggregate(zap.NewNop(), win, chunks)
	require.Len(t, buckets, 4)
	assert.Empty(t, warnings)

	assert.Equal(t, 2, buckets[0].TransactionCount)
	assert.InDelta(t, 11.0, buckets[0].Volume, 1e-9) // 2*3 + 1*5
	assert.InDelta(t, -1.0, buckets[0].ProfitLoss, 1e-9)

	// Empty interval is a real zero bucket, not an omission.
	assert.Equal(t, 0, buckets[1].TransactionCount)
	assert.NotNil(t, buckets[1].Transactions)
	assert.False(t, buckets[1].Partial)

	assert.Equal(t, 1, buckets[2].TransactionCount)
	assert.Equal(t, 0, buckets[3].TransactionCount)

	for i, b := range buckets {
		assert.Equal(t, start.Add(time.Duration(i)*time.Hour), b.Timestamp)
	}
}

func TestAggregateMarksFailedChunksPartial(t *testing.T) {
	start := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	win := testWindow(start, 4, time.Hour)

	chunks := []HistoryChunk{
		{Start: start, End: start.Add(2 * time.Hour), Trades: []RawTrade{
			{Signature: sig("1"), Time: start.Add(30 * time.Minute), Amount: 1, PriceUsd: 1},
		}},
		{Start: start.Add(2 * time.Hour), End: win.End, Err: errors.New("upstream 429")},
	}

	buckets, warnings := Aggregate(zap.NewNop(), win, chunks)
	require.Len(t, buckets, 4)

	assert.False(t, buckets[0].Partial)
	assert.False(t, buckets[1].Partial)
	assert.True(t, buckets[2].Partial)
	assert.True(t, buckets[3].Partial)

	require.Len(t, warnings, 2)
	assert.Equal(t, buckets[2].Timestamp, warnings[0].Bucket)
	assert.Equal(t, buckets[3].Timestamp, warnings[1].Bucket)

	// The surviving chunk still aggregates normally.
	assert.Equal(t, 1, buckets[0].TransactionCount)
}

func TestAggregateAllEmpty(t *testing.T) {
	start := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	win := testWindow(start, 3, time.Hour)

	buckets, warnings := Aggregate(zap.NewNop(), win, []HistoryChunk{
		{Start: start, End: win.End},
	})

	require.Len(t, buckets, 3)
	assert.Empty(t, warnings)
	for _, b := range buckets {
		assert.Zero(t, b.TransactionCount)
		assert.Zero(t, b.Volume)
		assert.NotNil(t, b.Transactions)
	}
}
