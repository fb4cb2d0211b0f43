package collector

import (
	"encoding/json"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solmirror/tradescope/pkg/db/models"
)

func TestTradeMessageToModel(t *testing.T) {
	payload := []byte(`{
		"signature": "5sig",
		"time": 1767225600,
		"wallet": "walletA",
		"token_address": "mintB",
		"token_symbol": "BONK",
		"side": "buy",
		"amount": 1500.5,
		"price_usd": 0.000021,
		"profit_loss": 0
	}`)

	var msg TradeMessage
	require.NoError(t, json.Unmarshal(payload, &msg))

	trade := msg.toModel()
	assert.Equal(t, "5sig", trade.Signature)
	assert.Equal(t, time.Unix(1767225600, 0).UTC(), trade.Time)
	assert.Equal(t, "walletA", trade.Wallet)
	assert.Equal(t, "mintB", trade.TokenAddress)
	assert.Equal(t, "buy", trade.Side)
	assert.Nil(t, trade.Counterparty)
	assert.InDelta(t, 1500.5, trade.Amount, 1e-9)
}

func TestAppendBoundedShedsOldest(t *testing.T) {
	var batch []models.Trade
	var shed int
	for i := 0; i < 5; i++ {
		batch, shed = appendBounded(batch, models.Trade{Signature: strconv.Itoa(i)}, 3)
	}

	// Each append past the cap sheds exactly one, oldest first.
	assert.Equal(t, 1, shed)
	require.Len(t, batch, 3)
	assert.Equal(t, "2", batch[0].Signature)
	assert.Equal(t, "3", batch[1].Signature)
	assert.Equal(t, "4", batch[2].Signature)
}

func TestAppendBoundedUnderCap(t *testing.T) {
	batch, shed := appendBounded(nil, models.Trade{Signature: "a"}, 3)
	assert.Zero(t, shed)
	assert.Len(t, batch, 1)
}

func TestTradeMessageCounterparty(t *testing.T) {
	cp := "walletB"
	msg := TradeMessage{Signature: "s", Counterparty: &cp}

	trade := msg.toModel()
	require.NotNil(t, trade.Counterparty)
	assert.Equal(t, "walletB", *trade.Counterparty)
}
