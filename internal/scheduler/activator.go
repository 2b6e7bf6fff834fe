package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// cronParser accepts standard five-field expressions and the six-field form
// with a leading seconds field.
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
)

// Activator installs the dispatch job at startup. It evaluates the operator's
// cron expression exactly once, collapses it into a fixed-rate interval, and
// schedules the job under a single identity so the hot path never touches
// cron syntax again.
type Activator struct {
	sched    Scheduler
	fallback time.Duration
	logger   *zap.Logger
}

// NewActivator constructs an activator. fallback is the interval used when
// the cron expression does not parse.
func NewActivator(sched Scheduler, fallback time.Duration, logger *zap.Logger) *Activator {
	return &Activator{sched: sched, fallback: fallback, logger: logger}
}

// Activate schedules job under identity at the interval derived from cronExpr.
//
// The interval is the difference, in whole seconds, between the expression's
// first two fire times after now. A schedule with irregular gaps (say,
// business hours only) therefore degrades to the gap between its first two
// fires; that is a documented trade for never re-parsing cron on the hot path.
//
// Any job already installed under the same identity is removed first, which
// keeps activation idempotent when several cluster nodes boot against a
// shared job store. A cron parse failure falls back to the configured default
// interval and is logged; it never aborts startup.
//
// The installed interval is returned for observability.
func (a *Activator) Activate(
	cronExpr string,
	identity JobIdentity,
	job func(ctx context.Context),
) (time.Duration, error) {
	interval, err := IntervalFromExpression(cronExpr, time.Now())
	if err != nil {
		a.logger.Error("failed to parse dispatch cron expression, using fallback interval",
			zap.String("cron", cronExpr),
			zap.Duration("fallback", a.fallback),
			zap.Error(err),
		)
		interval = a.fallback
	}

	if a.sched.Exists(identity) {
		a.logger.Info("replacing previously scheduled job", zap.String("job", identity.String()))
		if err := a.sched.Delete(identity); err != nil {
			return 0, fmt.Errorf("delete existing job %s: %w", identity, err)
		}
	}

	if err := a.sched.ScheduleRepeating(identity, interval, job); err != nil {
		return 0, fmt.Errorf("schedule job %s: %w", identity, err)
	}

	a.logger.Info("dispatch schedule activated",
		zap.String("job", identity.String()),
		zap.String("cron", cronExpr),
		zap.Duration("interval", interval),
	)
	return interval, nil
}

// IntervalFromExpression evaluates the cron expression's first two fire times
// after now and returns their difference truncated to whole seconds.
func IntervalFromExpression(cronExpr string, now time.Time) (time.Duration, error) {
	schedule, err := cronParser.Parse(cronExpr)
	if err != nil {
		return 0, fmt.Errorf("parse cron expression %q: %w", cronExpr, err)
	}
	return intervalBetweenFires(schedule, now), nil
}

func intervalBetweenFires(schedule cron.Schedule, now time.Time) time.Duration {
	first := schedule.Next(now)
	second := schedule.Next(first)
	return second.Sub(first).Truncate(time.Second)
}
