// internal/retry/retry.go
package retry

import (
	"context"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

const (
	DefaultDelayIncrement = 200 * time.Millisecond
	DefaultMaxDelay       = 5 * time.Second
	DefaultMaxRetries     = 3
)

var retryAttempts = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ledger_retry_attempts_total",
		Help: "Total number of retried ledger operations",
	},
	[]string{"operation"},
)

// Policy is a bounded retry with linearly growing delay.
// Retry n waits min(n*DelayIncrement, MaxDelay).
type Policy struct {
	DelayIncrement time.Duration
	MaxDelay       time.Duration
	MaxRetries     int

	clock  clock.Clock
	logger *zap.Logger
}

// NewPolicy returns the ledger retry policy: 0.2s increment, 5s cap, 3 retries
func NewPolicy(clk clock.Clock, logger *zap.Logger) *Policy {
	if clk == nil {
		clk = clock.NewDefaultClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Policy{
		DelayIncrement: DefaultDelayIncrement,
		MaxDelay:       DefaultMaxDelay,
		MaxRetries:     DefaultMaxRetries,
		clock:          clk,
		logger:         logger,
	}
}

// Delay returns the wait before the given retry (1-based)
func (p *Policy) Delay(retry int) time.Duration {
	delay := time.Duration(retry) * p.DelayIncrement
	if delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}

// Do runs op until it succeeds, fails with an error isRetryable rejects, or the
// retry budget is spent. The last error is returned unchanged. Cancelling ctx
// while waiting returns ctx.Err() without calling op again.
func Do[T any](
	ctx context.Context,
	p *Policy,
	operation string,
	isRetryable func(error) bool,
	op func(ctx context.Context) (T, error),
) (T, error) {
	var zero T

	for retry := 0; ; retry++ {
		value, err := op(ctx)
		if err == nil {
			return value, nil
		}

		if ctx.Err() != nil || !isRetryable(err) || retry >= p.MaxRetries {
			return zero, err
		}

		delay := p.Delay(retry + 1)
		retryAttempts.WithLabelValues(operation).Inc()
		p.logger.Warn("Retrying ledger operation",
			zap.String("operation", operation),
			zap.Int("retry", retry+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-p.clock.TickAfter(delay):
		}
	}
}
