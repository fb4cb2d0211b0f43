package rpc

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/solmirror/tradescope/pkg/activity"
	"github.com/solmirror/tradescope/pkg/utils"
)

// Client exposes the Solana JSON-RPC methods the analytics service needs:
// account classification and signature backfill.
type Client struct {
	logger *zap.Logger
	http   *HTTPClient
}

// NewFromEnv builds a client from RPC_ENDPOINTS (comma-separated) and the
// usual rate-limit knobs.
func NewFromEnv(logger *zap.Logger) *Client {
	endpoints := strings.Split(utils.Env("RPC_ENDPOINTS", "https://api.mainnet-beta.solana.com"), ",")
	return New(logger, Opts{
		Endpoints: endpoints,
		Timeout:   utils.EnvDuration("RPC_TIMEOUT", 10*time.Second),
		RPS:       utils.EnvInt("RPC_RPS", 20),
		Burst:     utils.EnvInt("RPC_BURST", 40),
	})
}

func New(logger *zap.Logger, opts Opts) *Client {
	return &Client{
		logger: logger,
		http:   NewHTTPWithOpts(opts),
	}
}

// AccountKind implements activity.KindLookup: mint accounts are owned by one
// of the token programs, everything else is treated as a wallet. A missing
// account is a wallet too (possibly never funded).
func (c *Client) AccountKind(ctx context.Context, address string) (activity.Kind, error) {
	var res accountInfoResult
	params := []any{address, map[string]any{"encoding": "base64"}}
	if err := c.http.Call(ctx, "getAccountInfo", params, &res); err != nil {
		return "", err
	}
	if res.Value == nil {
		return activity.KindWallet, nil
	}
	switch res.Value.Owner {
	case TokenProgramID, Token2022ProgramID:
		return activity.KindToken, nil
	default:
		return activity.KindWallet, nil
	}
}

// Signatures pages through getSignaturesForAddress, oldest last. before is
// exclusive; pass "" for the newest page.
func (c *Client) Signatures(ctx context.Context, address, before string, limit int) ([]SignatureInfo, error) {
	if limit <= 0 || limit > 1000 {
		limit = 1000
	}
	cfg := map[string]any{"limit": limit}
	if before != "" {
		cfg["before"] = before
	}

	var res []SignatureInfo
	if err := c.http.Call(ctx, "getSignaturesForAddress", []any{address, cfg}, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// EarliestSignature walks signature pages back to the address's first
// transaction. Used to backfill first-seen when the trades store has no
// history for the address yet.
func (c *Client) EarliestSignature(ctx context.Context, address string) (*SignatureInfo, error) {
	var last *SignatureInfo
	before := ""
	for {
		page, err := c.Signatures(ctx, address, before, 1000)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			return last, nil
		}
		last = &page[len(page)-1]
		before = last.Signature

		if len(page) < 1000 {
			return last, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
}
