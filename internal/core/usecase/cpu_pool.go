package usecase

import (
	"context"
	"runtime"

	"golang.org/x/sync/semaphore"
)

// CPUPool bounds how many CPU-heavy steps (k-means, distance scans) run at
// once so they cannot starve request goroutines waiting on gateways.
type CPUPool struct {
	sem *semaphore.Weighted
}

func NewCPUPool(workers int) *CPUPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &CPUPool{sem: semaphore.NewWeighted(int64(workers))}
}

// Run waits for a slot, then calls fn on the caller's goroutine.
func (p *CPUPool) Run(ctx context.Context, fn func() error) error {
	if p == nil {
		return fn()
	}
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.sem.Release(1)
	return fn()
}
