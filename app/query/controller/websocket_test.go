package controller

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/solmirror/tradescope/pkg/db/models"
)

func TestClientSubscriptionsMatching(t *testing.T) {
	subs := newClientSubscriptions()
	trade := models.Trade{
		Wallet:       "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T",
		TokenAddress: wsolMint,
	}

	assert.False(t, subs.Matches(trade))

	subs.Subscribe(trade.Wallet)
	assert.True(t, subs.Matches(trade))

	subs.Unsubscribe(trade.Wallet)
	assert.False(t, subs.Matches(trade))

	// Token-side subscriptions match too.
	subs.Subscribe(trade.TokenAddress)
	assert.True(t, subs.Matches(trade))
}

func TestClientSubscriptionsWildcard(t *testing.T) {
	subs := newClientSubscriptions()
	subs.Subscribe("*")

	assert.True(t, subs.Matches(models.Trade{Wallet: "anything"}))

	subs.Unsubscribe("*")
	assert.False(t, subs.Matches(models.Trade{Wallet: "anything"}))
}
