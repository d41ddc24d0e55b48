// Package scheduler runs periodic background jobs: Homepage imports and
// stats collection.
package scheduler

import (
	"context"
	"sync"
	"time"
)

// loop runs fn on every tick and on every manual trigger until stopped.
type loop struct {
	interval time.Duration
	trigger  <-chan struct{}
	stopCh   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func newLoop(interval time.Duration, trigger <-chan struct{}) *loop {
	return &loop{
		interval: interval,
		trigger:  trigger,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// start launches the goroutine. onTick gets manual=true for triggered runs.
func (l *loop) start(ctx context.Context, onTick func(ctx context.Context, manual bool)) {
	ticker := time.NewTicker(l.interval)
	go func() {
		defer close(l.done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				onTick(ctx, false)
			case <-l.trigger:
				onTick(ctx, true)
			case <-l.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// stop ends the goroutine and waits for the current run to finish.
// It is safe to call more than once, and before start only closes the channel.
func (l *loop) stop(started bool) {
	l.stopOnce.Do(func() { close(l.stopCh) })
	if started {
		<-l.done
	}
}
