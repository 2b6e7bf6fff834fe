// Package queue holds the in-memory realtime delivery queue.
//
// The queue is deliberately non-durable: a process restart loses whatever is
// still queued. Push delivery is best-effort; the durable notification store
// remains the source of truth and the polling path the catch-up mechanism.
package queue

import (
	"sync"
	"time"

	"github.com/notifyhub/event-notifications/internal/domain"
)

// RealtimeQueue is a process-wide, unbounded, thread-safe FIFO of pending
// push notifications. The producer enqueues whenever a qualifying state
// change occurs; the dispatch job drains a bounded batch on each timer fire.
//
// Constructed once at process start and injected; never a package-level
// singleton.
type RealtimeQueue struct {
	mu    sync.Mutex
	items []domain.PushableNotification

	// wakeup has capacity 1 and carries at most one pending signal.
	// A single consumer (the dispatch job) waits on it in Take.
	wakeup chan struct{}
}

func New() *RealtimeQueue {
	return &RealtimeQueue{wakeup: make(chan struct{}, 1)}
}

// Enqueue appends an item to the tail. It is non-blocking and always
// succeeds; the queue grows without bound.
func (q *RealtimeQueue) Enqueue(n domain.PushableNotification) {
	q.mu.Lock()
	q.items = append(q.items, n)
	q.mu.Unlock()

	select {
	case q.wakeup <- struct{}{}:
	default:
	}
}

// Take removes and returns the head item, waiting up to maxWait if the queue
// is momentarily empty. Returns false if nothing arrived within maxWait.
func (q *RealtimeQueue) Take(maxWait time.Duration) (domain.PushableNotification, bool) {
	if n, ok := q.pop(); ok {
		return n, true
	}
	if maxWait <= 0 {
		return domain.PushableNotification{}, false
	}

	timer := time.NewTimer(maxWait)
	defer timer.Stop()

	for {
		select {
		case <-q.wakeup:
			if n, ok := q.pop(); ok {
				return n, true
			}
		case <-timer.C:
			return domain.PushableNotification{}, false
		}
	}
}

// Drain removes and returns up to maxItems items. Each empty slot waits at
// most slotWait, so the attempt count is bounded by maxItems and an empty
// queue yields a short batch, never an error. Drain does not wait for the
// queue to fill up to maxItems.
func (q *RealtimeQueue) Drain(maxItems int, slotWait time.Duration) []domain.PushableNotification {
	if maxItems <= 0 {
		return nil
	}

	batch := make([]domain.PushableNotification, 0, maxItems)
	for i := 0; i < maxItems; i++ {
		n, ok := q.Take(slotWait)
		if !ok {
			break
		}
		batch = append(batch, n)
	}
	return batch
}

// Len reports the current queue depth. Used by the metrics snapshot.
func (q *RealtimeQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *RealtimeQueue) pop() (domain.PushableNotification, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return domain.PushableNotification{}, false
	}
	n := q.items[0]
	q.items = q.items[1:]
	return n, true
}
