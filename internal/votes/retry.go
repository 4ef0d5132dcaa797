package votes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/rickgao/reqvest/internal/model"
)

// RetryConfig holds backoff settings for Retrying.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// Retrying wraps a Recorder and retries failed calls with jittered
// exponential backoff. Every Recorder operation is idempotent.
type Retrying struct {
	next   Recorder
	cfg    RetryConfig
	logger *slog.Logger
}

// NewRetrying wraps next.
func NewRetrying(next Recorder, cfg RetryConfig, logger *slog.Logger) *Retrying {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 100 * time.Millisecond
	}
	if cfg.MaxDelay < cfg.BaseDelay {
		cfg.MaxDelay = cfg.BaseDelay
	}
	return &Retrying{next: next, cfg: cfg, logger: logger}
}

func (r *Retrying) RecordVote(ctx context.Context, namespace, userID, displayName string, tickers []string) error {
	return r.do(ctx, "record votes", func() error {
		return r.next.RecordVote(ctx, namespace, userID, displayName, tickers)
	})
}

func (r *Retrying) CountVotes(ctx context.Context, namespace string) ([]model.Tally, error) {
	var tally []model.Tally
	err := r.do(ctx, "count votes", func() error {
		var err error
		tally, err = r.next.CountVotes(ctx, namespace)
		return err
	})
	return tally, err
}

func (r *Retrying) ResetVotes(ctx context.Context, namespace string) error {
	return r.do(ctx, "reset votes", func() error {
		return r.next.ResetVotes(ctx, namespace)
	})
}

// do runs fn until it succeeds, the context ends, or retries are exhausted.
func (r *Retrying) do(ctx context.Context, op string, fn func() error) error {
	var lastErr error
	backoff := r.cfg.BaseDelay

	for attempt := 0; attempt <= r.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			// Add jitter: backoff * (0.5 to 1.5)
			jitter := backoff/2 + time.Duration(rand.Int64N(int64(backoff)))
			r.logger.Warn("retrying vote store call",
				"op", op,
				"attempt", attempt,
				"backoff", jitter,
				"error", lastErr,
			)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(jitter):
			}

			backoff = min(backoff*2, r.cfg.MaxDelay)
		}

		err := fn()
		if err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		lastErr = err
	}

	return fmt.Errorf("%s: max retries exceeded: %w", op, lastErr)
}
