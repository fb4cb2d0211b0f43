package activity

import (
	"context"
	"errors"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/solmirror/tradescope/pkg/retry"
)

// Opts tunes the aggregation service. Zero values fall back to defaults.
type Opts struct {
	// MaxChunks bounds how many concurrent fetches one request may issue.
	MaxChunks int
	// CallTimeout bounds each individual call to the history source.
	CallTimeout time.Duration
	// Retry governs per-chunk retry behavior against a flaky source.
	Retry retry.Config
	// Now is injectable for deterministic tests.
	Now func() time.Time
}

func (o *Opts) defaults() {
	if o.MaxChunks <= 0 {
		o.MaxChunks = 8
	}
	if o.CallTimeout <= 0 {
		o.CallTimeout = 8 * time.Second
	}
	if o.Retry.MaxRetries <= 0 {
		o.Retry = retry.RequestConfig()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// Service turns an (address, granularity, range) request into an activity
// report. Request-scoped and stateless: every call derives its buckets fresh
// and shares nothing mutable with concurrent calls.
type Service struct {
	logger     *zap.Logger
	source     HistorySource
	classifier *Classifier
	pool       pond.Pool
	opts       Opts
}

func NewService(logger *zap.Logger, source HistorySource, classifier *Classifier, opts Opts) *Service {
	opts.defaults()
	return &Service{
		logger:     logger,
		source:     source,
		classifier: classifier,
		// Shared across requests so total upstream concurrency stays bounded.
		pool: pond.NewPool(opts.MaxChunks * 4),
		opts: opts,
	}
}

// Report implements Reporter.
func (s *Service) Report(ctx context.Context, address string, g Granularity, rangeDays int) (*Report, error) {
	class, err := s.classifier.Classify(ctx, address)
	if err != nil {
		return nil, err
	}

	now := s.opts.Now()
	var firstSeen time.Time
	if rangeDays > 0 {
		firstSeen, err = s.firstSeen(ctx, class)
		if err != nil {
			return nil, err
		}
	}

	win, err := ResolveWindow(g, rangeDays, now, firstSeen)
	if err != nil {
		return nil, err
	}

	chunks := s.fetch(ctx, class, win)
	if err := allChunksFailed(chunks); err != nil {
		return nil, err
	}

	buckets, warnings := Aggregate(s.logger, win, chunks)
	summary := Summarize(buckets)

	return &Report{
		Address:          class.Address,
		Type:             class.Kind,
		Granularity:      g,
		Range:            rangeDays,
		RangeDescription: DescribeRange(rangeDays),
		DataPoints:       buckets,
		TotalActivity:    summary.TotalActivity,
		Summary:          summary,
		Timespan:         win,
		Warnings:         warnings,
	}, nil
}

func (s *Service) firstSeen(ctx context.Context, class Classification) (time.Time, error) {
	var first time.Time
	err := retry.WithBackoff(ctx, s.opts.Retry, s.logger, "first_seen", func() error {
		cctx, cancel := context.WithTimeout(ctx, s.opts.CallTimeout)
		defer cancel()
		var err error
		first, err = s.source.FirstSeen(cctx, class)
		return err
	})
	if err != nil {
		return time.Time{}, sourceError(err, "first-seen lookup failed")
	}
	return first, nil
}

// fetch splits the window into interval-aligned chunks and fetches them
// concurrently. Chunk failures are captured in the chunk, not returned: the
// aggregator turns them into partial buckets.
func (s *Service) fetch(ctx context.Context, class Classification, win TimeWindow) []HistoryChunk {
	n := s.opts.MaxChunks
	if win.Buckets < n {
		n = win.Buckets
	}
	if n < 1 {
		n = 1
	}
	perChunk := (win.Buckets + n - 1) / n
	chunkDur := time.Duration(perChunk) * win.Interval

	chunks := make([]HistoryChunk, 0, n)
	for start := win.Start; start.Before(win.End); start = start.Add(chunkDur) {
		end := start.Add(chunkDur)
		if end.After(win.End) {
			end = win.End
		}
		chunks = append(chunks, HistoryChunk{Start: start, End: end})
	}

	group := s.pool.NewGroup()
	for i := range chunks {
		ch := &chunks[i]
		group.Submit(func() {
			ch.Trades, ch.Err = s.fetchChunk(ctx, class, ch.Start, ch.End)
		})
	}
	_ = group.Wait()

	return chunks
}

func (s *Service) fetchChunk(ctx context.Context, class Classification, start, end time.Time) ([]RawTrade, error) {
	var trades []RawTrade
	err := retry.WithBackoff(ctx, s.opts.Retry, s.logger, "history_fetch", func() error {
		cctx, cancel := context.WithTimeout(ctx, s.opts.CallTimeout)
		defer cancel()
		var err error
		trades, err = s.source.Trades(cctx, class, start, end)
		return err
	})
	if err != nil {
		s.logger.Warn("History chunk fetch failed",
			zap.String("address", class.Address),
			zap.Time("start", start),
			zap.Time("end", end),
			zap.Error(err))
		return nil, err
	}
	return trades, nil
}

// allChunksFailed promotes a total source outage to a request-level error.
// Any surviving chunk means a partial result is still served.
func allChunksFailed(chunks []HistoryChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	timedOut := true
	for _, ch := range chunks {
		if ch.Err == nil {
			return nil
		}
		if !errors.Is(ch.Err, context.DeadlineExceeded) {
			timedOut = false
		}
	}
	if timedOut {
		return newError(CodeDataSourceTimeout, "history source timed out for every interval")
	}
	return newError(CodeDataSourceUnavailable, "history source returned no data for any interval")
}

func sourceError(err error, msg string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return wrapError(CodeDataSourceTimeout, err, "%s", msg)
	}
	return wrapError(CodeDataSourceUnavailable, err, "%s", msg)
}
