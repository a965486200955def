package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const JobBatchCalculation = "batch_net_to_gross"

// Task handles the item at index. It must only touch state owned by that index.
type Task func(ctx context.Context, index int) error

type Pool struct {
	workers int
}

func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{workers: workers}
}

func (p *Pool) Workers() int {
	return p.workers
}

// Run executes task for every index in [0, n) and waits for the workers to
// drain. The first task error cancels the remaining work and is returned.
func (p *Pool) Run(ctx context.Context, jobType string, n int, task Task) error {
	if n <= 0 {
		return ctx.Err()
	}
	started := time.Now()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	queue := make(chan int)
	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for w := 0; w < min(p.workers, n); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range queue {
				if err := task(ctx, index); err != nil {
					fail(err)
				}
			}
		}()
	}

dispatch:
	for index := 0; index < n; index++ {
		select {
		case <-ctx.Done():
			break dispatch
		case queue <- index:
		}
	}
	close(queue)
	wg.Wait()

	if firstErr == nil {
		firstErr = ctx.Err()
	}
	status := "completed"
	if firstErr != nil {
		status = "failed"
	}
	slog.Info("job run finished",
		"jobType", jobType,
		"items", n,
		"workers", p.workers,
		"status", status,
		"durationMs", time.Since(started).Milliseconds(),
	)
	return firstErr
}
