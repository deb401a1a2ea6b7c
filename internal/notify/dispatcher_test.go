package notify

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDispatcherBoundsConcurrency(t *testing.T) {
	d := NewDispatcher(2, time.Second, zap.NewNop().Sugar())

	var running, peak int32
	var mu sync.Mutex

	for i := 0; i < 10; i++ {
		d.Go("task", func(ctx context.Context) error {
			n := atomic.AddInt32(&running, 1)
			mu.Lock()
			if n > peak {
				peak = n
			}
			mu.Unlock()
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt32(&running, -1)
			return nil
		}, nil)
	}
	d.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, peak, int32(2))
}

func TestDispatcherDoReturnsTaskError(t *testing.T) {
	d := NewDispatcher(1, time.Second, zap.NewNop().Sugar())
	boom := fmt.Errorf("boom")

	err := d.Do(context.Background(), "failing", func(ctx context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)

	err = d.Do(context.Background(), "ok", func(ctx context.Context) error {
		return nil
	})
	assert.NoError(t, err)
}

func TestDispatcherGoReportsOutcome(t *testing.T) {
	d := NewDispatcher(1, time.Second, zap.NewNop().Sugar())

	done := make(chan error, 1)
	d.Go("task", func(ctx context.Context) error {
		return fmt.Errorf("delivery failed")
	}, func(err error) {
		done <- err
	})

	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("callback never fired")
	}
	d.Close()
}

func TestDispatcherDoRespectsCancellation(t *testing.T) {
	d := NewDispatcher(1, time.Second, zap.NewNop().Sugar())

	// Occupy the only slot.
	release := make(chan struct{})
	d.Go("blocker", func(ctx context.Context) error {
		<-release
		return nil
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := d.Do(ctx, "queued", func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	d.Close()
}
