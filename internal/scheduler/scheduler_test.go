package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestIntervalScheduler_JobFiresRepeatedly(t *testing.T) {
	s := NewIntervalScheduler(zap.NewNop())
	defer s.Stop(context.Background())

	var runs atomic.Int32
	id := JobIdentity{Group: "g", Name: "fires"}
	err := s.ScheduleRepeating(id, 10*time.Millisecond, func(context.Context) {
		runs.Add(1)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for runs.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("expected at least 3 runs, got %d", runs.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

// TestIntervalScheduler_RunsNeverOverlap schedules a job slower than its
// interval and verifies the second run starts only after the first finished.
func TestIntervalScheduler_RunsNeverOverlap(t *testing.T) {
	s := NewIntervalScheduler(zap.NewNop())
	defer s.Stop(context.Background())

	var inFlight atomic.Int32
	var overlapped atomic.Bool
	var runs atomic.Int32

	id := JobIdentity{Group: "g", Name: "slow"}
	err := s.ScheduleRepeating(id, 5*time.Millisecond, func(context.Context) {
		if inFlight.Add(1) > 1 {
			overlapped.Store(true)
		}
		time.Sleep(30 * time.Millisecond) // slower than the interval
		inFlight.Add(-1)
		runs.Add(1)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for runs.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("expected at least 3 runs, got %d", runs.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}

	if overlapped.Load() {
		t.Fatal("two runs of the same job were active concurrently")
	}
}

func TestIntervalScheduler_ExistsAndDelete(t *testing.T) {
	s := NewIntervalScheduler(zap.NewNop())
	defer s.Stop(context.Background())

	id := JobIdentity{Group: "g", Name: "lifecycle"}
	if s.Exists(id) {
		t.Fatal("job must not exist before scheduling")
	}

	if err := s.ScheduleRepeating(id, time.Hour, func(context.Context) {}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.Exists(id) {
		t.Fatal("job should exist after scheduling")
	}

	if err := s.Delete(id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Exists(id) {
		t.Fatal("job should not exist after delete")
	}

	// Deleting an unknown identity is a no-op.
	if err := s.Delete(id); err != nil {
		t.Fatalf("second delete should be a no-op, got %v", err)
	}
}

func TestIntervalScheduler_DuplicateIdentityRejected(t *testing.T) {
	s := NewIntervalScheduler(zap.NewNop())
	defer s.Stop(context.Background())

	id := JobIdentity{Group: "g", Name: "dup"}
	if err := s.ScheduleRepeating(id, time.Hour, func(context.Context) {}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.ScheduleRepeating(id, time.Hour, func(context.Context) {}); err == nil {
		t.Fatal("expected error when scheduling a duplicate identity")
	}
}

func TestIntervalScheduler_RejectsNonPositiveInterval(t *testing.T) {
	s := NewIntervalScheduler(zap.NewNop())
	id := JobIdentity{Group: "g", Name: "zero"}
	if err := s.ScheduleRepeating(id, 0, func(context.Context) {}); err == nil {
		t.Fatal("expected error for zero interval")
	}
}

// TestIntervalScheduler_StopJoinsInFlightRun verifies Stop waits for a run
// that is currently executing instead of abandoning it.
func TestIntervalScheduler_StopJoinsInFlightRun(t *testing.T) {
	s := NewIntervalScheduler(zap.NewNop())

	started := make(chan struct{})
	var finished atomic.Bool

	id := JobIdentity{Group: "g", Name: "joining"}
	err := s.ScheduleRepeating(id, 5*time.Millisecond, func(context.Context) {
		select {
		case started <- struct{}{}:
		default:
		}
		time.Sleep(30 * time.Millisecond)
		finished.Store(true)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("job never started")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("stop error: %v", err)
	}
	if !finished.Load() {
		t.Fatal("Stop returned before the in-flight run finished")
	}
}
