package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestQueueProcessesJobs(t *testing.T) {
	var mu sync.Mutex
	processed := make(map[string]int)
	done := make(chan struct{}, 2)

	handler := func(ctx context.Context, job Job) error {
		mu.Lock()
		processed[job.ID]++
		mu.Unlock()
		done <- struct{}{}
		return nil
	}

	queue := NewQueue("test", handler, QueueConfig{Workers: 2})
	queue.Start(context.Background())
	defer queue.Stop()

	if err := queue.Enqueue(Job{ID: "j1", Type: "t"}); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}
	if err := queue.Enqueue(Job{ID: "j2", Type: "t"}); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for jobs")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if processed["j1"] != 1 || processed["j2"] != 1 {
		t.Fatalf("unexpected processing counts: %v", processed)
	}
}

func TestQueueRetriesFailedJobs(t *testing.T) {
	var mu sync.Mutex
	attempts := 0
	succeeded := make(chan struct{})

	handler := func(ctx context.Context, job Job) error {
		mu.Lock()
		attempts++
		current := attempts
		mu.Unlock()
		if current < 2 {
			return errors.New("transient failure")
		}
		close(succeeded)
		return nil
	}

	queue := NewQueue("retry", handler, QueueConfig{Workers: 1, MaxRetries: 3, RetryDelay: 10 * time.Millisecond})
	queue.Start(context.Background())
	defer queue.Stop()

	if err := queue.Enqueue(Job{ID: "j1", Type: "t"}); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	select {
	case <-succeeded:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not retried to success")
	}
}

func TestQueueEnqueueBeforeStart(t *testing.T) {
	queue := NewQueue("idle", func(ctx context.Context, job Job) error { return nil }, QueueConfig{})
	if err := queue.Enqueue(Job{ID: "j1"}); err == nil {
		t.Fatal("expected error when enqueueing before start")
	}
}
