package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validParams() TradingParams {
	return TradingParams{
		WatchThreshold:       10_000,
		BuyTrigger:           0.05,
		BuyPrice:             0,
		TakeProfitMultiplier: 2,
		StopLossPercent:      20,
		MaxAgeSeconds:        3600,
		PositionSize:         0.5,
		DexSources:           []string{"raydium", "orca"},
	}
}

func TestTradingParamsValidate(t *testing.T) {
	p := validParams()
	assert.NoError(t, p.Validate())

	p = validParams()
	p.BuyTrigger = -1
	assert.Error(t, p.Validate())

	p = validParams()
	p.TakeProfitMultiplier = 0.9
	assert.Error(t, p.Validate())

	p = validParams()
	p.StopLossPercent = 120
	assert.Error(t, p.Validate())

	p = validParams()
	p.MaxAgeSeconds = -5
	assert.Error(t, p.Validate())
}
