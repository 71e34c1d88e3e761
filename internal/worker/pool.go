// Package worker provides a parallel image export worker pool.
package worker

import (
	"context"
	"sync"
	"time"
)

// Exporter writes the image for a single task.
type Exporter interface {
	Export(ctx context.Context, task Task) (path string, err error)
}

// Task is one image to export.
type Task struct {
	Name     string
	Index    int
	GridSize int
	Combined bool
}

// Result is the outcome of an export task.
type Result struct {
	Task    Task
	Path    string
	Err     error
	Elapsed time.Duration
}

// ProgressFunc is called after each task completes.
type ProgressFunc func(completed, total, failed int)

// Config configures the worker pool.
type Config struct {
	Workers    int
	Exporter   Exporter
	OnProgress ProgressFunc
}

// Pool runs export tasks in parallel.
type Pool struct {
	workers    int
	exporter   Exporter
	onProgress ProgressFunc
}

// New creates a new worker pool.
func New(cfg Config) *Pool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	return &Pool{
		workers:    workers,
		exporter:   cfg.Exporter,
		onProgress: cfg.OnProgress,
	}
}

// Run executes all tasks and returns their results in task order.
// It blocks until every task has finished or been cancelled.
func (p *Pool) Run(ctx context.Context, tasks []Task) []Result {
	if len(tasks) == 0 {
		return nil
	}

	taskCh := make(chan int, len(tasks))
	for i := range tasks {
		taskCh <- i
	}
	close(taskCh)

	results := make([]Result, len(tasks))

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
			for idx := range taskCh {
				res := p.run(ctx, tasks[idx])
				results[idx] = res

				mu.Lock()
				completed++
				if res.Err != nil {
					failed++
				}
				c, f := completed, failed
				if p.onProgress != nil {
					p.onProgress(c, len(tasks), f)
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	return results
}

func (p *Pool) run(ctx context.Context, task Task) Result {
	if err := ctx.Err(); err != nil {
		return Result{Task: task, Err: err}
	}

	start := time.Now()
	path, err := p.exporter.Export(ctx, task)
	return Result{
		Task:    task,
		Path:    path,
		Err:     err,
		Elapsed: time.Since(start),
	}
}
