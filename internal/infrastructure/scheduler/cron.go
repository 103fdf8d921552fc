// Package scheduler drives the recurring sync runs from a daily cron
// expression.
package scheduler

import (
	"context"
	"strconv"
	"strings"
	"time"

	"ProspectPulse/internal/ports"
)

// CronScheduler fires a job once per day at the configured time. It
// understands the daily subset of cron ("MIN HOUR * * *"), evaluated in the
// configured timezone; anything else falls back to a 24h cadence from start.
type CronScheduler struct {
	spec string
	loc  *time.Location
	stop chan struct{}
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler from a cron expression and timezone.
func NewCronScheduler(spec string, loc *time.Location) *CronScheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &CronScheduler{spec: spec, loc: loc}
}

// Start runs the job immediately, then on every scheduled boundary until the
// context is cancelled or Stop is called.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	if c.stop != nil {
		return nil
	}

	c.stop = make(chan struct{})
	go func() {
		job(time.Now().In(c.loc))

		timer := time.NewTimer(time.Until(c.nextRun(time.Now().In(c.loc))))
		defer timer.Stop()
		for {
			select {
			case t := <-timer.C:
				job(t.In(c.loc))
				timer.Reset(time.Until(c.nextRun(time.Now().In(c.loc))))
			case <-ctx.Done():
				return
			case <-c.stop:
				return
			}
		}
	}()

	return nil
}

// Stop halts the schedule goroutine.
func (c *CronScheduler) Stop(ctx context.Context) error {
	if c.stop == nil {
		return nil
	}
	close(c.stop)
	c.stop = nil
	return nil
}

// nextRun computes the next firing after now in the scheduler's timezone.
func (c *CronScheduler) nextRun(now time.Time) time.Time {
	minute, hour, ok := parseDaily(c.spec)
	if !ok {
		return now.Add(24 * time.Hour)
	}

	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, c.loc)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// parseDaily accepts the "MIN HOUR * * *" subset of cron.
func parseDaily(spec string) (minute, hour int, ok bool) {
	fields := strings.Fields(spec)
	if len(fields) != 5 || fields[2] != "*" || fields[3] != "*" || fields[4] != "*" {
		return 0, 0, false
	}

	minute, err := strconv.Atoi(fields[0])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, false
	}
	hour, err = strconv.Atoi(fields[1])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, false
	}
	return minute, hour, true
}
