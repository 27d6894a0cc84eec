package image

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Limited caps how many upstream calls run at once across all callers.
type Limited struct {
	next Generator
	sem  *semaphore.Weighted
}

func NewLimited(next Generator, max int) *Limited {
	if max < 1 {
		max = 1
	}
	return &Limited{next: next, sem: semaphore.NewWeighted(int64(max))}
}

// Share returns a generator for next that draws from the same slots as l.
func (l *Limited) Share(next Generator) *Limited {
	return &Limited{next: next, sem: l.sem}
}

func (l *Limited) Generate(ctx context.Context, req Request) Result {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return Result{Seed: req.Seed, Err: err}
	}
	defer l.sem.Release(1)
	return l.next.Generate(ctx, req)
}

var _ Generator = (*Limited)(nil)
