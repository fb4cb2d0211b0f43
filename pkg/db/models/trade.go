package models

import "time"

const TradesTableName = "trades"

// Trade is one executed swap as stored in ClickHouse. Rows are append-only;
// the signature deduplicates replayed ingest batches.
type Trade struct {
	Time         time.Time `ch:"time" json:"time"`
	Signature    string    `ch:"signature" json:"signature"`
	Wallet       string    `ch:"wallet" json:"wallet"`
	TokenAddress string    `ch:"token_address" json:"token_address"`
	TokenSymbol  string    `ch:"token_symbol" json:"token_symbol"`
	Side         string    `ch:"side" json:"side"` // "buy" or "sell"
	Counterparty *string   `ch:"counterparty" json:"counterparty,omitempty"`
	Amount       float64   `ch:"amount" json:"amount"`
	PriceUsd     float64   `ch:"price_usd" json:"price_usd"`
	ProfitLoss   float64   `ch:"profit_loss" json:"profit_loss"`
}
