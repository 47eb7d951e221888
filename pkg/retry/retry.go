// Package retry implements jittered exponential backoff for operations that
// race against a concurrent writer, generalizing the commit engine's §4.6
// retry schedule beyond a single caller.
package retry

import (
	"context"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	pkgerrors "github.com/dot-do/iceberg-sub003/pkg/errors"
)

var codeExhausted = pkgerrors.MustNewCode("retry.exhausted")

// Config parameterizes the backoff schedule: delay_k = min(MaxDelay,
// BaseDelay*2^k) * (1 +/- Jitter).
type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      float64
}

// DefaultCommitConfig matches the atomic commit engine's retry schedule.
func DefaultCommitConfig() Config {
	return Config{
		MaxAttempts: 5,
		BaseDelay:   100 * time.Millisecond,
		MaxDelay:    5 * time.Second,
		Jitter:      0.2,
	}
}

// Operation is a unit of work that may fail transiently. Returning a
// non-retriable error via Permanent stops the loop immediately.
type Operation func(ctx context.Context, attempt int) error

type permanentError struct{ err error }

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent wraps err so Do does not retry it.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Do runs op up to cfg.MaxAttempts times, sleeping a jittered exponential
// backoff between attempts. Attempts are 1-indexed in the logged fields and
// passed to op so callers can re-read current state before retrying (the
// commit engine uses this to reload the table pointer on each attempt).
func Do(ctx context.Context, cfg Config, logger zerolog.Logger, op Operation) error {
	delay := cfg.BaseDelay
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := op(ctx, attempt)
		if err == nil {
			return nil
		}
		if pe, ok := err.(*permanentError); ok {
			return pe.err
		}

		lastErr = err
		if attempt == cfg.MaxAttempts {
			break
		}

		logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("max_attempts", cfg.MaxAttempts).
			Dur("delay", delay).
			Msg("operation failed, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(jittered(delay, cfg.Jitter)):
		}

		delay = delay * 2
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	return pkgerrors.Wrap(codeExhausted, pkgerrors.KindConflict, "operation did not succeed within max attempts", lastErr).
		AddContext("max_attempts", cfg.MaxAttempts)
}

func jittered(d time.Duration, jitter float64) time.Duration {
	if jitter <= 0 {
		return d
	}
	span := float64(d) * jitter
	offset := (rand.Float64()*2 - 1) * span
	result := float64(d) + offset
	if result < 0 {
		return 0
	}
	return time.Duration(result)
}
