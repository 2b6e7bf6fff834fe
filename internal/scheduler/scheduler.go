// Package scheduler provides the repeating-job scheduler the dispatch job
// runs under, and the activator that converts a cron expression into the
// job's fixed firing interval.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// JobIdentity names a logical job. Activation dedupes on the full identity,
// so every node of a deployment must boot with the same group and name.
type JobIdentity struct {
	Group string
	Name  string
}

func (id JobIdentity) String() string {
	return id.Group + "." + id.Name
}

// Scheduler installs repeating jobs. Implementations guarantee disallow-
// concurrent execution: no two runs of the same job identity are ever active
// at once. IntervalScheduler below covers a single process; multi-node
// deployments back this interface with a shared job store that extends the
// same guarantee across the cluster.
type Scheduler interface {
	ScheduleRepeating(identity JobIdentity, interval time.Duration, job func(ctx context.Context)) error
	Exists(identity JobIdentity) bool
	Delete(identity JobIdentity) error
}

// IntervalScheduler runs each installed job on its own ticker goroutine.
// The job is invoked synchronously on that goroutine, so a run always
// finishes before the next tick is handled; ticks that fire during a slow
// run are dropped, never queued.
//
// Constructed once at process start and injected; Stop tears it down.
type IntervalScheduler struct {
	mu     sync.Mutex
	jobs   map[JobIdentity]*scheduledJob
	logger *zap.Logger
}

type scheduledJob struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func NewIntervalScheduler(logger *zap.Logger) *IntervalScheduler {
	return &IntervalScheduler{
		jobs:   make(map[JobIdentity]*scheduledJob),
		logger: logger,
	}
}

// ScheduleRepeating installs a forever-repeating trigger for the job. The
// trigger never expires; it stops only via Delete or Stop. Installing an
// identity that is already scheduled is an error — callers delete first.
func (s *IntervalScheduler) ScheduleRepeating(
	identity JobIdentity,
	interval time.Duration,
	job func(ctx context.Context),
) error {
	if interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", interval)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[identity]; ok {
		return fmt.Errorf("job %s is already scheduled", identity)
	}

	ctx, cancel := context.WithCancel(context.Background())
	sj := &scheduledJob{cancel: cancel, done: make(chan struct{})}
	s.jobs[identity] = sj

	go func() {
		defer close(sj.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		s.logger.Info("job scheduled",
			zap.String("job", identity.String()),
			zap.Duration("interval", interval),
		)

		for {
			select {
			case <-ctx.Done():
				s.logger.Info("job trigger removed", zap.String("job", identity.String()))
				return
			case <-ticker.C:
				job(ctx)
			}
		}
	}()

	return nil
}

// Exists reports whether a job is currently scheduled under the identity.
func (s *IntervalScheduler) Exists(identity JobIdentity) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.jobs[identity]
	return ok
}

// Delete removes the job's trigger and waits for an in-flight run to finish.
// Deleting an unknown identity is a no-op.
func (s *IntervalScheduler) Delete(identity JobIdentity) error {
	s.mu.Lock()
	sj, ok := s.jobs[identity]
	if ok {
		delete(s.jobs, identity)
	}
	s.mu.Unlock()

	if !ok {
		return nil
	}
	sj.cancel()
	<-sj.done
	return nil
}

// Stop removes all triggers, waiting up to the context deadline for in-flight
// runs to join.
func (s *IntervalScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	jobs := make([]*scheduledJob, 0, len(s.jobs))
	for id, sj := range s.jobs {
		sj.cancel()
		jobs = append(jobs, sj)
		delete(s.jobs, id)
	}
	s.mu.Unlock()

	for _, sj := range jobs {
		select {
		case <-sj.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// compile-time check that IntervalScheduler implements Scheduler
var _ Scheduler = (*IntervalScheduler)(nil)
