package game

import (
	"context"
	"sync"
	"time"
)

// Driver invokes step at a fixed interval until stopped. Implementations must
// never run two steps concurrently and must not block in Stop, because a step
// may stop its own driver.
type Driver interface {
	Start(interval time.Duration, step func())
	Stop()
}

// TickerDriver runs steps on a dedicated goroutine driven by a time.Ticker.
type TickerDriver struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewTickerDriver() *TickerDriver {
	return &TickerDriver{}
}

// Start is a no-op while the driver is already running.
func (d *TickerDriver) Start(interval time.Duration, step func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cancel != nil {
		return
	}
	if interval <= 0 {
		interval = TickInterval
	}

	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.done = make(chan struct{})

	go d.run(ctx, interval, step, d.done)
}

func (d *TickerDriver) run(ctx context.Context, interval time.Duration, step func(), done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			step()
		}
	}
}

// Stop cancels pending ticks. It may be called from inside a step and any number of times.
func (d *TickerDriver) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cancel != nil {
		d.cancel()
	}
}

// Done is closed once the driver goroutine has exited. It is nil before Start.
func (d *TickerDriver) Done() <-chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.done
}
