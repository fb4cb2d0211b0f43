package activity

import (
	"time"

	"go.uber.org/zap"
)

// HistoryChunk is one slice of the window as fetched from the source. A chunk
// either carries trades or the fetch error for its span, never both.
type HistoryChunk struct {
	Start  time.Time
	End    time.Time
	Trades []RawTrade
	Err    error
}

// Aggregate walks the window and produces one bucket per interval, ascending
// by timestamp. Trades from failed chunks are not silently zeroed: every
// bucket overlapping a failed chunk is marked partial and reported in the
// returned warnings. Empty intervals are valid zero buckets.
func Aggregate(logger *zap.Logger, win TimeWindow, chunks []HistoryChunk) ([]Bucket, []Warning) {
	buckets := make([]Bucket, win.Buckets)
	for i := range buckets {
		buckets[i] = Bucket{
			Timestamp:    win.Start.Add(time.Duration(i) * win.Interval),
			Transactions: []TransactionRecord{},
		}
	}

	var warnings []Warning
	var raw []RawTrade
	for _, ch := range chunks {
		if ch.Err != nil {
			warnings = append(warnings, markPartial(buckets, win, ch)...)
			continue
		}
		raw = append(raw, ch.Trades...)
	}

	for _, rec := range BuildLedger(logger, raw) {
		if rec.Timestamp.Before(win.Start) || !rec.Timestamp.Before(win.End) {
			continue
		}
		i := int(rec.Timestamp.Sub(win.Start) / win.Interval)
		if i < 0 || i >= len(buckets) {
			continue
		}
		b := &buckets[i]
		b.Transactions = append(b.Transactions, rec)
		b.TransactionCount++
		b.Volume += rec.Amount * rec.PriceUsd
		b.ProfitLoss += rec.ProfitLoss
	}

	return buckets, warnings
}

// markPartial flags every bucket overlapping the failed chunk, once.
func markPartial(buckets []Bucket, win TimeWindow, ch HistoryChunk) []Warning {
	reason := "history unavailable for interval"
	if ch.Err != nil {
		reason = ch.Err.Error()
	}

	var warnings []Warning
	for i := range buckets {
		start := buckets[i].Timestamp
		end := start.Add(win.Interval)
		if start.Before(ch.End) && end.After(ch.Start) && !buckets[i].Partial {
			buckets[i].Partial = true
			warnings = append(warnings, Warning{Bucket: start, Reason: reason})
		}
	}
	return warnings
}
