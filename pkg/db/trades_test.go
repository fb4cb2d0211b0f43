package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solmirror/tradescope/pkg/activity"
	"github.com/solmirror/tradescope/pkg/db/models"
)

func TestAddressColumn(t *testing.T) {
	assert.Equal(t, "token_address", addressColumn(activity.KindToken))
	assert.Equal(t, "wallet", addressColumn(activity.KindWallet))
	// Anything unclassified queries as a wallet.
	assert.Equal(t, "wallet", addressColumn(activity.Kind("")))
}

func TestToRawTradeCounterpartyByKind(t *testing.T) {
	pool := "poolPDA"
	row := models.Trade{
		Signature:    "sig",
		Wallet:       "walletA",
		TokenAddress: "mintB",
		TokenSymbol:  "BONK",
		Side:         "buy",
		Counterparty: &pool,
		Amount:       3,
		PriceUsd:     2,
	}

	// Token query: the counterparty is the trading wallet, the mint is the
	// queried address.
	raw := toRawTrade(row, activity.KindToken)
	require.NotNil(t, raw.Counterparty)
	assert.Equal(t, "walletA", *raw.Counterparty)
	assert.Equal(t, "mintB", raw.TokenAddress)

	// Wallet query: the counterparty stays whatever the collector recorded.
	raw = toRawTrade(row, activity.KindWallet)
	require.NotNil(t, raw.Counterparty)
	assert.Equal(t, "poolPDA", *raw.Counterparty)
	assert.Equal(t, "mintB", raw.TokenAddress)
}
