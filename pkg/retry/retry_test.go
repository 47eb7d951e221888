package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/dot-do/iceberg-sub003/pkg/retry"
)

func TestDoSucceedsAfterRetries(t *testing.T) {
	cfg := retry.Config{MaxAttempts: 5, BaseDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond, Jitter: 0}
	calls := 0
	err := retry.Do(context.Background(), cfg, zerolog.Nop(), func(ctx context.Context, attempt int) error {
		calls++
		if calls < 3 {
			return errors.New("conflict")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoExhaustsAttempts(t *testing.T) {
	cfg := retry.Config{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Jitter: 0}
	calls := 0
	err := retry.Do(context.Background(), cfg, zerolog.Nop(), func(ctx context.Context, attempt int) error {
		calls++
		return errors.New("always fails")
	})
	assert.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnPermanentError(t *testing.T) {
	cfg := retry.Config{MaxAttempts: 5, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Jitter: 0}
	calls := 0
	err := retry.Do(context.Background(), cfg, zerolog.Nop(), func(ctx context.Context, attempt int) error {
		calls++
		return retry.Permanent(errors.New("fatal"))
	})
	assert.EqualError(t, err, "fatal")
	assert.Equal(t, 1, calls)
}

func TestDoRespectsContextCancellation(t *testing.T) {
	cfg := retry.Config{MaxAttempts: 5, BaseDelay: 50 * time.Millisecond, MaxDelay: 50 * time.Millisecond, Jitter: 0}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := retry.Do(ctx, cfg, zerolog.Nop(), func(ctx context.Context, attempt int) error {
		return errors.New("boom")
	})
	assert.ErrorIs(t, err, context.Canceled)
}
