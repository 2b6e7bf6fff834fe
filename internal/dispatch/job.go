// Package dispatch implements the periodic push-delivery job: drain a batch
// from the realtime queue, size an ephemeral worker pool to that batch, POST
// each item to its callback URL, join the pool, return.
package dispatch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/notifyhub/event-notifications/internal/domain"
	"github.com/notifyhub/event-notifications/internal/queue"
)

// MetricHooks carries the metric callback functions injected by main.
// Using a struct keeps the job constructor signature clean.
type MetricHooks struct {
	OnBatch  func(size int)
	OnSent   func(latency time.Duration)
	OnFailed func()
}

// Job is the dispatch job the scheduler fires. One Job instance exists per
// process; each Run builds and fully joins its own throwaway worker pool, so
// no pool state survives between runs.
type Job struct {
	q            *queue.RealtimeQueue
	sender       Sender
	buildPayload PayloadBuilder
	poolSize     int
	slotWait     time.Duration
	logger       *zap.Logger
	hooks        MetricHooks

	// running guards against overlapping runs inside one process. The
	// scheduler's disallow-concurrent contract covers the cluster; this flag
	// makes a locally misconfigured double-fire a logged no-op instead of a
	// double delivery.
	running atomic.Bool
}

// NewJob constructs the dispatch job. poolSize bounds both the drain batch
// and the worker pool; hooks entries are optional (nil = no-op).
func NewJob(
	q *queue.RealtimeQueue,
	sender Sender,
	buildPayload PayloadBuilder,
	poolSize int,
	slotWait time.Duration,
	logger *zap.Logger,
	hooks MetricHooks,
) *Job {
	if buildPayload == nil {
		buildPayload = DefaultPayload
	}
	if hooks.OnBatch == nil {
		hooks.OnBatch = func(int) {}
	}
	if hooks.OnSent == nil {
		hooks.OnSent = func(time.Duration) {}
	}
	if hooks.OnFailed == nil {
		hooks.OnFailed = func() {}
	}
	return &Job{
		q:            q,
		sender:       sender,
		buildPayload: buildPayload,
		poolSize:     poolSize,
		slotWait:     slotWait,
		logger:       logger,
		hooks:        hooks,
	}
}

// WorkerCount sizes the ephemeral pool for a batch of n items under the
// configured ceiling: max(2, min(n, ceiling)). Never fewer than 2 workers, so
// a single slow callback cannot serialize the whole batch against the next
// timer tick; never more workers than the ceiling allows.
func WorkerCount(n, ceiling int) int {
	w := n
	if w > ceiling {
		w = ceiling
	}
	if w < 2 {
		w = 2
	}
	return w
}

// Run executes one dispatch cycle. It returns only after every worker of this
// run has finished, so two runs never send concurrently even when the timer
// interval is shorter than a slow run.
func (j *Job) Run(ctx context.Context) {
	if !j.running.CompareAndSwap(false, true) {
		j.logger.Warn("dispatch run still in progress, skipping fire")
		return
	}
	defer j.running.Store(false)

	batch := j.q.Drain(j.poolSize, j.slotWait)
	n := len(batch)
	if n == 0 {
		return
	}

	w := WorkerCount(n, j.poolSize)
	j.hooks.OnBatch(n)
	j.logger.Info("dispatching batch",
		zap.Int("items", n),
		zap.Int("workers", w),
	)

	items := make(chan domain.PushableNotification)
	var wg sync.WaitGroup
	for i := 0; i < w; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for item := range items {
				j.deliver(ctx, workerID, item)
			}
		}(i)
	}

	for _, item := range batch {
		items <- item
	}
	close(items)
	wg.Wait()
}

// deliver sends one notification. Failures are logged and counted but never
// retried or re-enqueued, and never affect sibling items.
func (j *Job) deliver(ctx context.Context, workerID int, item domain.PushableNotification) {
	log := j.logger.With(
		zap.Int("worker_id", workerID),
		zap.String("notification_id", item.NotificationID),
	)

	body, err := j.buildPayload(item.SecurityEventToken, item.NotificationID)
	if err != nil {
		log.Error("failed to build delivery payload", zap.Error(err))
		j.hooks.OnFailed()
		return
	}

	start := time.Now()
	if err := j.sender.Send(ctx, item.CallbackURL, body); err != nil {
		log.Warn("push delivery failed", zap.Error(err))
		j.hooks.OnFailed()
		return
	}

	elapsed := time.Since(start)
	j.hooks.OnSent(elapsed)
	log.Info("push delivery sent", zap.Duration("latency", elapsed))
}
