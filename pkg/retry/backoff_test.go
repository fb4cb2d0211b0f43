package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func fastConfig(retries int) Config {
	return Config{
		MaxRetries:   retries,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2,
	}
}

func TestWithBackoffSucceedsAfterRetries(t *testing.T) {
	calls := 0
	err := WithBackoff(context.Background(), fastConfig(5), zap.NewNop(), "test", func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithBackoffExhaustsRetries(t *testing.T) {
	calls := 0
	sentinel := errors.New("permanent")
	err := WithBackoff(context.Background(), fastConfig(3), zap.NewNop(), "test", func() error {
		calls++
		return sentinel
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 3, calls)
}

func TestWithBackoffRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithBackoff(ctx, fastConfig(3), zap.NewNop(), "test", func() error {
		return errors.New("should not matter")
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCalculateBackoffCapsAtMaxDelay(t *testing.T) {
	cfg := Config{
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   10,
	}

	assert.Equal(t, 100*time.Millisecond, calculateBackoff(cfg, 1))
	assert.Equal(t, time.Second, calculateBackoff(cfg, 2))
	assert.Equal(t, time.Second, calculateBackoff(cfg, 5))
}

func TestCalculateBackoffJitterStaysBounded(t *testing.T) {
	cfg := Config{
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      time.Minute,
		Multiplier:    2,
		JitterEnabled: true,
	}

	for i := 0; i < 100; i++ {
		d := calculateBackoff(cfg, 1)
		assert.GreaterOrEqual(t, d, 85*time.Millisecond)
		assert.LessOrEqual(t, d, 115*time.Millisecond)
	}
}
