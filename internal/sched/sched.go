// Package sched runs a job once per day at a fixed local wall-clock time.
package sched

import (
	"context"
	"fmt"
	"time"

	"github.com/alpenbrief/alpnews/internal/logger"
)

// Loop blocks and fires job every day at "HH:MM" in loc until ctx is
// cancelled. Runs never overlap: the next fire time is computed after the
// previous job returns. Job errors are logged, the loop keeps going.
func Loop(ctx context.Context, at string, loc *time.Location, job func(context.Context, time.Time) error) error {
	fireAt, err := time.Parse("15:04", at)
	if err != nil {
		return fmt.Errorf("invalid schedule time %q: %w", at, err)
	}

	for {
		next := nextFire(time.Now().In(loc), fireAt.Hour(), fireAt.Minute())
		logger.Info("next scheduled run", "at", next.Format(time.RFC3339))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case now := <-timer.C:
			if err := job(ctx, now.In(loc)); err != nil {
				logger.Error("scheduled run failed", "error", err)
			}
		}
	}
}

// nextFire is the next occurrence of hour:minute strictly after now,
// in now's location.
func nextFire(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
