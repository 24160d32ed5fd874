package server

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// stopLog records the order services were stopped in.
type stopLog struct {
	mu    sync.Mutex
	names []string
}

func (l *stopLog) add(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.names = append(l.names, name)
}

func (l *stopLog) get() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.names...)
}

// loopService stands in for the tick loop. ready closes after its first tick.
func loopService(name string, log *stopLog) (svc *ContextService, ready <-chan struct{}) {
	ch := make(chan struct{})
	var once sync.Once
	svc = NewContextService(func(ctx context.Context) error {
		defer log.add(name)
		ticker := time.NewTicker(time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				once.Do(func() { close(ch) })
			}
		}
	})
	return svc, ch
}

func waitReady(t *testing.T, chans ...<-chan struct{}) {
	t.Helper()
	for _, ch := range chans {
		select {
		case <-ch:
		case <-time.After(2 * time.Second):
			t.Fatal("service did not start in time")
		}
	}
}

func TestLifecycle_StopsInReverseOrder(t *testing.T) {
	lc := NewLifecycle(zaptest.NewLogger(t))
	var log stopLog
	db, dbReady := loopService("postgres", &log)
	tick, tickReady := loopService("tick", &log)
	lc.Add("postgres", db)
	lc.Add("tick", tick)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- lc.Run(ctx) }()
	waitReady(t, dbReady, tickReady)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("lifecycle did not shut down in time")
	}
	assert.Equal(t, []string{"tick", "postgres"}, log.get())
}

func TestContextService_StopCancelsRun(t *testing.T) {
	started := make(chan struct{})
	svc := NewContextService(func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})

	done := make(chan error, 1)
	go func() { done <- svc.Start() }()
	<-started

	svc.Stop()
	select {
	case err := <-done:
		assert.NoError(t, err, "cancellation through Stop is a clean exit")
	case <-time.After(time.Second):
		t.Fatal("service did not stop")
	}
}

func TestContextService_StopBeforeStartSkipsRun(t *testing.T) {
	var ran atomic.Bool
	svc := NewContextService(func(ctx context.Context) error {
		ran.Store(true)
		return nil
	})
	svc.Stop()
	require.NoError(t, svc.Start())
	assert.False(t, ran.Load())
}

func TestLifecycle_ReturnsServiceFailure(t *testing.T) {
	lc := NewLifecycle(zaptest.NewLogger(t))
	var log stopLog
	boom := errors.New("database gone")
	tick, tickReady := loopService("tick", &log)
	lc.Add("tick", tick)
	lc.Add("postgres", NewContextService(func(ctx context.Context) error {
		<-tickReady
		return boom
	}))

	err := lc.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"tick"}, log.get())
}
