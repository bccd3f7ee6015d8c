package observability

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// DefaultWarnInterval bounds how often a store outage is logged.
const DefaultWarnInterval = 30 * time.Second

// StoreWarner logs counter store failures at warn, at most once per interval.
// Suppressed occurrences are counted and reported with the next emitted line.
type StoreWarner struct {
	logger     *slog.Logger
	sometimes  *rate.Sometimes
	suppressed atomic.Int64
}

func NewStoreWarner(logger *slog.Logger, interval time.Duration) *StoreWarner {
	if interval <= 0 {
		interval = DefaultWarnInterval
	}
	return &StoreWarner{
		logger:    logger,
		sometimes: &rate.Sometimes{First: 1, Interval: interval},
	}
}

// Warn logs err unless a line was already emitted within the interval.
func (w *StoreWarner) Warn(ctx context.Context, op string, err error, attrs ...any) {
	if w == nil || w.logger == nil {
		return
	}
	emitted := false
	w.sometimes.Do(func() {
		emitted = true
		args := withRequestID(ctx, attrs)
		args = append(args,
			"op", op,
			"error", err,
			"suppressed", w.suppressed.Swap(0),
			"event", "ratelimit_store_unavailable",
		)
		w.logger.WarnContext(ctx, "rate limit store unavailable, allowing request", args...)
	})
	if !emitted {
		w.suppressed.Add(1)
	}
}
