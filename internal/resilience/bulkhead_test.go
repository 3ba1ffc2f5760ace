package resilience

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBulkheadLimitsConcurrency(t *testing.T) {
	b := NewBulkhead("test", 2, 0)

	var mu sync.Mutex
	active, maxActive := 0, 0
	var wg sync.WaitGroup

	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = b.Execute(context.Background(), func() error {
				mu.Lock()
				active++
				if active > maxActive {
					maxActive = active
				}
				mu.Unlock()
				time.Sleep(20 * time.Millisecond)
				mu.Lock()
				active--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, maxActive, 2)
}

func TestBulkheadRejectsWhenQueueFull(t *testing.T) {
	b := NewBulkhead("test", 1, 0)

	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = b.Execute(context.Background(), func() error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	err := b.Execute(context.Background(), func() error { return nil })
	require.Error(t, err)

	close(release)
}
