package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Dispatcher runs notification tasks with bounded concurrency. A task's
// outcome only ever influences user messaging; nothing waits on it to
// commit state.
type Dispatcher struct {
	sem     chan struct{}
	timeout time.Duration
	logger  *zap.SugaredLogger
	wg      sync.WaitGroup
}

// NewDispatcher creates a dispatcher allowing maxConcurrent tasks at once.
func NewDispatcher(maxConcurrent int, timeout time.Duration, logger *zap.SugaredLogger) *Dispatcher {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Dispatcher{
		sem:     make(chan struct{}, maxConcurrent),
		timeout: timeout,
		logger:  logger,
	}
}

// Do runs the task and waits for its outcome, for callers whose flash
// message depends on whether the notification went out.
func (d *Dispatcher) Do(ctx context.Context, name string, task func(ctx context.Context) error) error {
	select {
	case d.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-d.sem }()

	taskCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := task(taskCtx); err != nil {
		d.logger.Warnw("notification failed", "task", name, "error", err)
		return err
	}
	return nil
}

// Go runs the task in the background, detached from the request. onDone, if
// set, receives the outcome.
func (d *Dispatcher) Go(name string, task func(ctx context.Context) error, onDone func(error)) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		d.sem <- struct{}{}
		defer func() { <-d.sem }()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		err := task(ctx)
		if err != nil {
			d.logger.Warnw("notification failed", "task", name, "error", err)
		}
		if onDone != nil {
			onDone(err)
		}
	}()
}

// Close waits for background tasks to finish. Called on shutdown.
func (d *Dispatcher) Close() {
	d.wg.Wait()
}
