package gameserver

import (
	"context"
	"sort"
	"sync"
	"time"
)

// TickFunc is invoked once per tick with the tick's wall-clock time.
type TickFunc func(ctx context.Context, now time.Time)

// TickLoop runs a periodic tick for each registered callback.
// Callbacks run sequentially on the loop's goroutine in name order.
//
// Invariant: all callbacks are invoked at most once per tick interval.
type TickLoop struct {
	interval time.Duration
	mu       sync.Mutex
	ticks    map[string]TickFunc
}

// NewTickLoop returns a loop that fires ticks every interval.
//
// Precondition: interval must be > 0.
func NewTickLoop(interval time.Duration) *TickLoop {
	if interval <= 0 {
		panic("gameserver.NewTickLoop: interval must be > 0")
	}
	return &TickLoop{
		interval: interval,
		ticks:    make(map[string]TickFunc),
	}
}

// Interval returns the tick period.
func (l *TickLoop) Interval() time.Duration { return l.interval }

// RegisterTick registers fn under name. Replaces any existing callback.
func (l *TickLoop) RegisterTick(name string, fn TickFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ticks[name] = fn
}

// Unregister removes the callback registered under name.
func (l *TickLoop) Unregister(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.ticks, name)
}

// Fire invokes every registered callback once with now.
func (l *TickLoop) Fire(ctx context.Context, now time.Time) {
	l.mu.Lock()
	names := make([]string, 0, len(l.ticks))
	for name := range l.ticks {
		names = append(names, name)
	}
	sort.Strings(names)
	callbacks := make([]TickFunc, 0, len(names))
	for _, name := range names {
		callbacks = append(callbacks, l.ticks[name])
	}
	l.mu.Unlock()

	for _, fn := range callbacks {
		fn(ctx, now)
	}
}

// Start begins the tick loop on a new goroutine. Runs until ctx is cancelled.
//
// Postcondition: all registered callbacks are invoked once per interval.
func (l *TickLoop) Start(ctx context.Context) {
	go l.Run(ctx)
}

// Run drives the tick loop on the calling goroutine until ctx is cancelled.
//
// Postcondition: Returns ctx.Err().
func (l *TickLoop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			l.Fire(ctx, now)
		}
	}
}
