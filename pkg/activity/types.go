package activity

import (
	"context"
	"time"
)

// Kind discriminates what an address denotes on chain.
type Kind string

const (
	KindWallet Kind = "wallet"
	KindToken  Kind = "token"
)

// Classification is the resolved kind for a request address. Immutable once
// produced for a given request.
type Classification struct {
	Address    string  `json:"address"`
	Kind       Kind    `json:"kind"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"` // "lookup" or "heuristic"
}

// RawTrade is one trade event as returned by a history source, before ledger
// validation.
type RawTrade struct {
	Signature    string
	Time         time.Time
	Wallet       string
	TokenAddress string
	TokenSymbol  string
	Counterparty *string
	Side         string // "buy" or "sell"
	Amount       float64
	PriceUsd     float64
	ProfitLoss   float64
}

// TransactionRecord is one validated trade event attached to a bucket.
// Uniquely identified by Signature.
type TransactionRecord struct {
	Timestamp    time.Time `json:"timestamp"`
	Action       string    `json:"action"`
	TokenSymbol  string    `json:"token_symbol"`
	TokenAddress string    `json:"token_address"`
	Counterparty *string   `json:"counterparty,omitempty"`
	Amount       float64   `json:"amount"`
	PriceUsd     float64   `json:"price_usd"`
	Signature    string    `json:"signature"`
	ProfitLoss   float64   `json:"profit_loss"`
}

// Bucket is one interval's aggregate. Never mutated after aggregation.
type Bucket struct {
	Timestamp        time.Time           `json:"timestamp"`
	TransactionCount int                 `json:"transaction_count"`
	Volume           float64             `json:"volume"`
	ProfitLoss       float64             `json:"profit_loss"`
	Partial          bool                `json:"partial,omitempty"`
	Transactions     []TransactionRecord `json:"transaction_details"`
}

// Distribution is the 4-bin histogram of per-bucket activity.
type Distribution struct {
	High   int `json:"high"`   // 21+
	Medium int `json:"medium"` // 6-20
	Low    int `json:"low"`    // 1-5
	None   int `json:"none"`   // 0
}

// Summary is the read-only reduction over the full bucket sequence.
type Summary struct {
	TotalPeriods    int          `json:"total_periods"`
	TotalActivity   int          `json:"total_activity"`
	AverageActivity float64      `json:"average_activity"`
	PeakActivity    int          `json:"peak_activity"`
	QuietPeriods    int          `json:"quiet_periods"`
	Distribution    Distribution `json:"activity_distribution"`
}

// Warning names a bucket whose data is incomplete and why.
type Warning struct {
	Bucket time.Time `json:"bucket"`
	Reason string    `json:"reason"`
}

// Report is the full response payload for one activity query.
type Report struct {
	Address          string      `json:"address"`
	Type             Kind        `json:"type"`
	Granularity      Granularity `json:"granularity"`
	Range            int         `json:"range"`
	RangeDescription string      `json:"rangeDescription"`
	DataPoints       []Bucket    `json:"dataPoints"`
	TotalActivity    int         `json:"totalActivity"`
	Summary          Summary     `json:"summary"`
	Timespan         TimeWindow  `json:"timespan"`
	Warnings         []Warning   `json:"warnings,omitempty"`
}

// HistorySource provides real transaction history for a classified address.
// For wallets it returns the wallet's trades across all tokens; for tokens,
// all trades against the one mint.
type HistorySource interface {
	// FirstSeen returns the timestamp of the address's first observed trade,
	// or the zero time when the address has no history.
	FirstSeen(ctx context.Context, class Classification) (time.Time, error)
	// Trades returns all trades for the address in [start, end), ordered or
	// unordered; callers must not rely on ordering.
	Trades(ctx context.Context, class Classification, start, end time.Time) ([]RawTrade, error)
}

// Reporter is the query-side contract implemented by Service.
type Reporter interface {
	Report(ctx context.Context, address string, g Granularity, rangeDays int) (*Report, error)
}
