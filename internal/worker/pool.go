// Package worker runs style transforms in parallel for batch jobs.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/MeKo-Tech/stylizer/internal/pipeline"
)

// Transformer is the interface for running one style over one file.
// This matches the signature of pipeline.Runner.RunNamed.
type Transformer interface {
	RunNamed(ctx context.Context, style, in, out string) (pipeline.Result, error)
}

// Task represents a single transform.
type Task struct {
	Style  string
	Input  string
	Output string
}

// Result represents the outcome of a task.
type Result struct {
	Task    Task
	Path    string
	Width   int
	Height  int
	Err     error
	Elapsed time.Duration
}

// ProgressFunc is called after each task completes.
type ProgressFunc func(completed, total, failed int)

// Config configures the worker pool.
type Config struct {
	Workers     int
	Transformer Transformer
	OnProgress  ProgressFunc
}

// Pool manages parallel transforms. Every task owns its buffers, so workers
// share nothing but the transformer.
type Pool struct {
	workers     int
	transformer Transformer
	onProgress  ProgressFunc
}

// New creates a new worker pool.
func New(cfg Config) *Pool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	return &Pool{
		workers:     workers,
		transformer: cfg.Transformer,
		onProgress:  cfg.OnProgress,
	}
}

// Run executes all tasks and returns one result per task that was started.
// The function blocks until all tasks complete or the context is cancelled;
// tasks not yet handed to a worker at cancellation are dropped.
func (p *Pool) Run(ctx context.Context, tasks []Task) []Result {
	if len(tasks) == 0 {
		return nil
	}

	taskCh := make(chan Task, len(tasks))
	resultCh := make(chan Result, len(tasks))

	var (
		completed int
		failed    int
		mu        sync.Mutex
	)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.worker(ctx, taskCh, resultCh)
		}()
	}

	go func() {
		defer close(taskCh)
		for _, task := range tasks {
			select {
			case taskCh <- task:
			case <-ctx.Done():
				return
			}
		}
	}()

	results := make([]Result, 0, len(tasks))
	done := make(chan struct{})

	go func() {
		for result := range resultCh {
			results = append(results, result)

			mu.Lock()
			completed++
			if result.Err != nil {
				failed++
			}
			c, f := completed, failed
			mu.Unlock()

			if p.onProgress != nil {
				p.onProgress(c, len(tasks), f)
			}
		}
		close(done)
	}()

	wg.Wait()
	close(resultCh)
	<-done

	return results
}

// worker processes tasks from the task channel and sends results to the result channel.
func (p *Pool) worker(ctx context.Context, tasks <-chan Task, results chan<- Result) {
	for task := range tasks {
		select {
		case <-ctx.Done():
			results <- Result{
				Task: task,
				Err:  ctx.Err(),
			}
			continue
		default:
		}

		start := time.Now()
		res, err := p.transformer.RunNamed(ctx, task.Style, task.Input, task.Output)
		elapsed := time.Since(start)

		r := Result{
			Task:    task,
			Err:     err,
			Elapsed: elapsed,
		}
		if err == nil {
			r.Path = res.Output
			r.Width, r.Height = res.Width, res.Height
		}
		results <- r
	}
}
