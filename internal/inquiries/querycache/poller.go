package querycache

import (
	"context"
	"sync"
	"time"

	"inquiry_desk/platform/logger"
)

// Poller calls tick on a fixed interval until stopped. A failed tick is
// logged and the next one runs on schedule; there is no backoff.
type Poller struct {
	name     string
	interval time.Duration
	tick     func(ctx context.Context) error
	log      *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPoller creates a stopped poller.
func NewPoller(name string, interval time.Duration, tick func(ctx context.Context) error, log *logger.Logger) *Poller {
	if interval <= 0 {
		interval = defaultStaleAfter
	}
	return &Poller{name: name, interval: interval, tick: tick, log: log}
}

// Start launches the loop. Calling Start on a running poller is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.run(ctx, p.done)
}

// Stop ends the loop and waits for an in-flight tick to return.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the loop is active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

func (p *Poller) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tickCtx, cancel := context.WithTimeout(ctx, p.interval)
			if err := p.tick(tickCtx); err != nil && ctx.Err() == nil {
				p.log.Warn("poll tick failed", "poller", p.name, "error", err)
			}
			cancel()
		}
	}
}
