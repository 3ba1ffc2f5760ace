package resilience

import (
	"context"

	"golang.org/x/sync/semaphore"

	"github.com/m2ux/concept-rag-sub002/internal/errs"
)

// Bulkhead bounds the concurrency of one kind of external call and rejects
// outright once both the active slots and the wait queue are full, rather
// than letting callers queue unboundedly behind a slow collaborator.
type Bulkhead struct {
	name    string
	active  *semaphore.Weighted
	waiting *semaphore.Weighted
}

// NewBulkhead builds a bulkhead allowing maxConcurrent calls to run at once
// and up to queueSize callers to wait for a slot before new callers are
// rejected with errs.CodeResBulkheadRejected.
func NewBulkhead(name string, maxConcurrent, queueSize int) *Bulkhead {
	return &Bulkhead{
		name:    name,
		active:  semaphore.NewWeighted(int64(maxConcurrent)),
		waiting: semaphore.NewWeighted(int64(maxConcurrent + queueSize)),
	}
}

// Execute runs fn once a slot is available. It returns immediately with a
// resilience error if the active+queue capacity is already exhausted.
func (b *Bulkhead) Execute(ctx context.Context, fn func() error) error {
	if !b.waiting.TryAcquire(1) {
		return errs.Resilience(errs.CodeResBulkheadRejected, "bulkhead "+b.name+" is at capacity").
			WithDetail("bulkhead", b.name)
	}
	defer b.waiting.Release(1)

	if err := b.active.Acquire(ctx, 1); err != nil {
		return err
	}
	defer b.active.Release(1)

	return fn()
}
