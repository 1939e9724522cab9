package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MeKo-Tech/stylizer/internal/pipeline"
)

// mockTransformer simulates style transforms for testing
type mockTransformer struct {
	delay     time.Duration
	failFiles map[string]bool // inputs that should fail
	callCount atomic.Int32
}

func (m *mockTransformer) RunNamed(ctx context.Context, style, in, out string) (pipeline.Result, error) {
	m.callCount.Add(1)

	select {
	case <-ctx.Done():
		return pipeline.Result{}, ctx.Err()
	case <-time.After(m.delay):
	}

	if m.failFiles != nil && m.failFiles[in] {
		return pipeline.Result{}, errors.New("simulated failure")
	}

	return pipeline.Result{Style: style, Input: in, Output: out, Width: 64, Height: 48}, nil
}

func tasksFor(n int) []Task {
	tasks := make([]Task, n)
	for i := range tasks {
		tasks[i] = Task{Style: "comic", Input: "in" + string(rune('a'+i)) + ".jpg", Output: "out" + string(rune('a'+i)) + ".png"}
	}
	return tasks
}

func TestPool_BasicExecution(t *testing.T) {
	tr := &mockTransformer{delay: 10 * time.Millisecond}

	pool := New(Config{
		Workers:     2,
		Transformer: tr,
	})

	tasks := tasksFor(3)
	results := pool.Run(context.Background(), tasks)

	if len(results) != len(tasks) {
		t.Errorf("Expected %d results, got %d", len(tasks), len(results))
	}

	for _, r := range results {
		if r.Err != nil {
			t.Errorf("Unexpected error for %s: %v", r.Task.Input, r.Err)
		}
		if r.Path != r.Task.Output {
			t.Errorf("Expected path %s, got %q", r.Task.Output, r.Path)
		}
		if r.Width != 64 || r.Height != 48 {
			t.Errorf("Unexpected size %dx%d", r.Width, r.Height)
		}
	}

	if tr.callCount.Load() != int32(len(tasks)) {
		t.Errorf("Expected %d transformer calls, got %d", len(tasks), tr.callCount.Load())
	}
}

func TestPool_Parallelism(t *testing.T) {
	tr := &mockTransformer{delay: 50 * time.Millisecond}

	pool := New(Config{
		Workers:     4,
		Transformer: tr,
	})

	tasks := tasksFor(8)

	start := time.Now()
	results := pool.Run(context.Background(), tasks)
	elapsed := time.Since(start)

	// With 4 workers and 8 tasks at 50ms each, should take ~100ms (2 batches)
	maxExpected := 300 * time.Millisecond
	if elapsed > maxExpected {
		t.Errorf("Expected parallel execution in ~100ms, took %v", elapsed)
	}

	if len(results) != len(tasks) {
		t.Errorf("Expected %d results, got %d", len(tasks), len(results))
	}
}

func TestPool_ErrorHandling(t *testing.T) {
	tasks := tasksFor(3)
	failInput := tasks[1].Input
	tr := &mockTransformer{
		delay:     10 * time.Millisecond,
		failFiles: map[string]bool{failInput: true},
	}

	pool := New(Config{
		Workers:     2,
		Transformer: tr,
	})

	results := pool.Run(context.Background(), tasks)

	if len(results) != len(tasks) {
		t.Errorf("Expected %d results, got %d", len(tasks), len(results))
	}

	var successCount, failCount int
	for _, r := range results {
		if r.Err != nil {
			failCount++
			if r.Task.Input != failInput {
				t.Errorf("Unexpected failure for %s", r.Task.Input)
			}
			if r.Path != "" {
				t.Errorf("Failed task should have no path, got %s", r.Path)
			}
		} else {
			successCount++
		}
	}

	if successCount != 2 {
		t.Errorf("Expected 2 successes, got %d", successCount)
	}
	if failCount != 1 {
		t.Errorf("Expected 1 failure, got %d", failCount)
	}
}

func TestPool_Cancellation(t *testing.T) {
	tr := &mockTransformer{delay: 100 * time.Millisecond}

	pool := New(Config{
		Workers:     2,
		Transformer: tr,
	})

	tasks := tasksFor(10)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	results := pool.Run(ctx, tasks)
	elapsed := time.Since(start)

	if elapsed > 300*time.Millisecond {
		t.Errorf("Expected early cancellation, took %v", elapsed)
	}

	var cancelledCount int
	for _, r := range results {
		if r.Err != nil && errors.Is(r.Err, context.Canceled) {
			cancelledCount++
		}
	}
	if cancelledCount == 0 {
		t.Error("Expected at least one cancelled result")
	}
}

func TestPool_ProgressCallback(t *testing.T) {
	tr := &mockTransformer{delay: 10 * time.Millisecond}

	var progressCalls atomic.Int32
	var lastCompleted, lastTotal int

	pool := New(Config{
		Workers:     2,
		Transformer: tr,
		OnProgress: func(completed, total, failed int) {
			progressCalls.Add(1)
			lastCompleted = completed
			lastTotal = total
		},
	})

	tasks := tasksFor(3)
	pool.Run(context.Background(), tasks)

	if progressCalls.Load() != int32(len(tasks)) {
		t.Errorf("Expected %d progress callbacks, got %d", len(tasks), progressCalls.Load())
	}
	if lastCompleted != len(tasks) {
		t.Errorf("Expected lastCompleted=%d, got %d", len(tasks), lastCompleted)
	}
	if lastTotal != len(tasks) {
		t.Errorf("Expected lastTotal=%d, got %d", len(tasks), lastTotal)
	}
}

func TestPool_EmptyTasks(t *testing.T) {
	tr := &mockTransformer{}

	pool := New(Config{
		Workers:     2,
		Transformer: tr,
	})

	results := pool.Run(context.Background(), nil)

	if len(results) != 0 {
		t.Errorf("Expected 0 results for empty tasks, got %d", len(results))
	}
	if tr.callCount.Load() != 0 {
		t.Errorf("Expected 0 transformer calls for empty tasks, got %d", tr.callCount.Load())
	}
}
