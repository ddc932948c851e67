package usecase

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// pool bounds how many CPU-bound comparisons run at once.
type pool struct {
	sem *semaphore.Weighted
}

func newPool(workers int) *pool {
	if workers < 1 {
		workers = 1
	}
	return &pool{sem: semaphore.NewWeighted(int64(workers))}
}

// run waits for a free slot and executes fn. Once fn starts it runs to
// completion; ctx only bounds the wait.
func (p *pool) run(ctx context.Context, fn func()) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.sem.Release(1)
	fn()
	return nil
}
