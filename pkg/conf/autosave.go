package conf

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultAutoSaveInterval is the default flush period.
const DefaultAutoSaveInterval = 30 * time.Second

// AutoSaver periodically persists the configuration when it has changed.
// Attach it via Config.SetUpdateHook (or call MarkDirty directly); each tick
// with pending changes runs one Write pass.
//
// AutoSaver drives Config.Write from its own goroutine. Deployments that
// also serve protocol commands must set Exclusive to the dispatcher's
// exclusion primitive (command.Manager.Exclusive) so a flush never overlaps
// an in-flight command.
type AutoSaver struct {
	cfg      *Config
	interval time.Duration

	dirty atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	// OnError is invoked when a flush fails. Optional.
	OnError func(error)

	// Exclusive, when set, brackets every flush. Use the command
	// dispatcher's exclusion primitive when commands may be in flight.
	Exclusive func(func())
}

// NewAutoSaver creates an AutoSaver flushing at the given interval.
// A non-positive interval uses DefaultAutoSaveInterval.
func NewAutoSaver(cfg *Config, interval time.Duration) *AutoSaver {
	if interval <= 0 {
		interval = DefaultAutoSaveInterval
	}
	return &AutoSaver{cfg: cfg, interval: interval}
}

// MarkDirty schedules a flush on the next tick.
func (a *AutoSaver) MarkDirty() {
	a.dirty.Store(true)
}

// Start begins the periodic flush loop. It returns immediately; the loop
// stops when ctx is cancelled or Stop is called.
func (a *AutoSaver) Start(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cancel != nil {
		return
	}

	ctx, a.cancel = context.WithCancel(ctx)
	a.done = make(chan struct{})

	go a.run(ctx)
}

// Stop halts the flush loop and waits for it to exit. Pending changes are
// flushed one final time.
func (a *AutoSaver) Stop() {
	a.mu.Lock()
	cancel, done := a.cancel, a.done
	a.cancel = nil
	a.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (a *AutoSaver) run(ctx context.Context) {
	defer close(a.done)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.flush()
		case <-ctx.Done():
			a.flush()
			return
		}
	}
}

func (a *AutoSaver) flush() {
	if !a.dirty.Swap(false) {
		return
	}

	write := func() {
		if err := a.cfg.Write(); err != nil {
			// Leave dirty so the next tick retries.
			a.dirty.Store(true)
			if a.OnError != nil {
				a.OnError(err)
			}
		}
	}

	if a.Exclusive != nil {
		a.Exclusive(write)
		return
	}
	write()
}
