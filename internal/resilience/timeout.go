package resilience

import (
	"context"
	"time"

	"github.com/m2ux/concept-rag-sub002/internal/errs"
)

// WithTimeout runs fn with ctx bounded to d, translating a deadline
// exceeded into a resilience error callers can inspect for Retryable.
func WithTimeout(ctx context.Context, d time.Duration, fn func(context.Context) error) error {
	tctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- fn(tctx) }()

	select {
	case err := <-done:
		return err
	case <-tctx.Done():
		return errs.Resilience(errs.CodeResTimeout, "operation exceeded timeout").
			WithDetail("timeout", d.String())
	}
}
