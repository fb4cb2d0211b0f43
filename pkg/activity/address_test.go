package activity

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	wsolMint   = "So11111111111111111111111111111111111111112"
	testWallet = "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T"
)

func TestValidateAddress(t *testing.T) {
	assert.NoError(t, ValidateAddress(wsolMint))
	assert.NoError(t, ValidateAddress(testWallet))

	tests := []string{
		"abc",                            // far too short
		"",                               // empty
		strings.Repeat("1", 45),          // too long
		strings.Repeat("1", 31) + "0",    // 0 is not base58
		strings.Repeat("1", 31) + "l",    // l is not base58
		strings.Repeat("1", 31) + "!",    // punctuation
	}
	for _, addr := range tests {
		err := ValidateAddress(addr)
		require.Error(t, err, addr)
		code, ok := CodeOf(err)
		require.True(t, ok)
		assert.Equal(t, CodeInvalidAddress, code)
	}
}

func TestValidSignature(t *testing.T) {
	assert.True(t, ValidSignature(strings.Repeat("5", 64)))
	assert.True(t, ValidSignature(strings.Repeat("x", 88)))

	assert.False(t, ValidSignature(""))
	assert.False(t, ValidSignature("tooshort"))
	assert.False(t, ValidSignature(strings.Repeat("5", 89)))
	assert.False(t, ValidSignature(strings.Repeat("5", 63)+"O"))
}

type fakeLookup struct {
	kind  Kind
	err   error
	calls int
}

func (f *fakeLookup) AccountKind(ctx context.Context, address string) (Kind, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.kind, nil
}

func TestClassifyRejectsInvalidAddress(t *testing.T) {
	c := NewClassifier(zap.NewNop(), &fakeLookup{kind: KindWallet})

	_, err := c.Classify(context.Background(), "abc")
	code, ok := CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, CodeInvalidAddress, code)
}

func TestClassifyUsesLookupAndCaches(t *testing.T) {
	lookup := &fakeLookup{kind: KindToken}
	c := NewClassifier(zap.NewNop(), lookup)

	class, err := c.Classify(context.Background(), wsolMint)
	require.NoError(t, err)
	assert.Equal(t, KindToken, class.Kind)
	assert.Equal(t, 1.0, class.Confidence)
	assert.Equal(t, "lookup", class.Source)

	// Second call is served from the cache.
	_, err = c.Classify(context.Background(), wsolMint)
	require.NoError(t, err)
	assert.Equal(t, 1, lookup.calls)
}

func TestClassifyFallsBackToHeuristic(t *testing.T) {
	lookup := &fakeLookup{err: errors.New("rpc down")}
	c := NewClassifier(zap.NewNop(), lookup)

	class, err := c.Classify(context.Background(), testWallet)
	require.NoError(t, err)
	assert.Equal(t, KindWallet, class.Kind)
	assert.Equal(t, 0.5, class.Confidence)
	assert.Equal(t, "heuristic", class.Source)

	// Heuristic answers are not cached; the lookup gets another chance.
	_, err = c.Classify(context.Background(), testWallet)
	require.NoError(t, err)
	assert.Equal(t, 2, lookup.calls)
}
