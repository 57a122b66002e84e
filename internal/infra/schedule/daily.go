// Package schedule provides a cooperative daily trigger for background jobs.
package schedule

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Daily runs fn once per day at the given local hour. It blocks until ctx is
// cancelled; fn errors are logged and the schedule keeps going.
type Daily struct {
	hour   int
	fn     func(context.Context) error
	logger *zap.Logger
	now    func() time.Time
}

// NewDaily creates the trigger. hour is 0-23 local time.
func NewDaily(hour int, fn func(context.Context) error, logger *zap.Logger) *Daily {
	return NewDailyWithClock(hour, fn, logger, time.Now)
}

// NewDailyWithClock injects the clock (tests).
func NewDailyWithClock(hour int, fn func(context.Context) error, logger *zap.Logger, now func() time.Time) *Daily {
	return &Daily{hour: hour, fn: fn, logger: logger, now: now}
}

// Run blocks, firing fn at the next occurrence of the configured hour and
// every 24h after that.
func (d *Daily) Run(ctx context.Context) error {
	for {
		wait := d.untilNext()
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if err := d.fn(ctx); err != nil && ctx.Err() == nil {
			d.logger.Error("execução agendada falhou", zap.Error(err))
		}
	}
}

func (d *Daily) untilNext() time.Duration {
	now := d.now()
	next := time.Date(now.Year(), now.Month(), now.Day(), d.hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next.Sub(now)
}
