package activity

import (
	"sort"

	"go.uber.org/zap"
)

// BuildLedger converts raw source trades into ordered transaction records.
// A record with a malformed signature is dropped with a warning; it never
// aborts the bucket it belongs to.
func BuildLedger(logger *zap.Logger, raw []RawTrade) []TransactionRecord {
	records := make([]TransactionRecord, 0, len(raw))
	for _, t := range raw {
		if !ValidSignature(t.Signature) {
			logger.Warn("Dropping trade with malformed signature",
				zap.String("error_code", string(CodeMalformedRecord)),
				zap.String("signature", t.Signature),
				zap.Time("time", t.Time))
			continue
		}
		records = append(records, TransactionRecord{
			Timestamp:    t.Time,
			Action:       t.Side,
			TokenSymbol:  t.TokenSymbol,
			TokenAddress: t.TokenAddress,
			Counterparty: t.Counterparty,
			Amount:       t.Amount,
			PriceUsd:     t.PriceUsd,
			Signature:    t.Signature,
			ProfitLoss:   t.ProfitLoss,
		})
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})
	return records
}
