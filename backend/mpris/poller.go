package mpris

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/b0bbywan/go-odio-lyrics/config"
	"github.com/b0bbywan/go-odio-lyrics/logger"
)

// refresher is what the poller drives on each tick
type refresher interface {
	Status() PlaybackStatus
	Play() error
}

// Poller periodically nudges a playing player so that it keeps emitting
// property changes. It ticks fast for a while after each change batch,
// then falls back to the slow interval.
type Poller struct {
	target refresher
	name   string
	fast   time.Duration
	slow   time.Duration
	step   int64

	burst atomic.Int64

	mu      sync.Mutex
	cancel  context.CancelFunc
	started bool
	stopped bool
	done    chan struct{}
}

func NewPoller(target refresher, name string, cfg config.PollConfig) *Poller {
	return &Poller{
		target: target,
		name:   name,
		fast:   cfg.Fast,
		slow:   cfg.Slow,
		step:   cfg.Burst,
		done:   make(chan struct{}),
	}
}

// Bump grants another burst of fast ticks. Safe from any goroutine.
func (p *Poller) Bump() {
	p.burst.Add(p.step)
}

// Burst returns the number of fast ticks left
func (p *Poller) Burst() int64 {
	return p.burst.Load()
}

// Start launches the loop. Calling it again, or after Stop, does nothing.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started || p.stopped {
		return
	}
	p.started = true

	ctx, p.cancel = context.WithCancel(ctx)
	go p.run(ctx)
}

// Stop ends the loop. Done is closed once the loop has returned.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}
	p.stopped = true

	if p.cancel != nil {
		p.cancel()
		return
	}
	// never started
	close(p.done)
}

// Done is closed when the loop has exited
func (p *Poller) Done() <-chan struct{} {
	return p.done
}

// nextInterval consumes one fast tick if any are left
func (p *Poller) nextInterval() time.Duration {
	for {
		n := p.burst.Load()
		if n <= 0 {
			return p.slow
		}
		if p.burst.CompareAndSwap(n, n-1) {
			return p.fast
		}
	}
}

func (p *Poller) run(ctx context.Context) {
	defer func() {
		close(p.done)
		logger.Debug("[mpris] poller for %s stopped", p.name)
	}()

	logger.Debug("[mpris] poller for %s started", p.name)

	timer := time.NewTimer(p.nextInterval())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			p.refresh()
			timer.Reset(p.nextInterval())
		}
	}
}

// refresh re-sends Play to a playing player. Some players only emit
// Position-related updates when poked; failures are expected and ignored.
func (p *Poller) refresh() {
	if p.target.Status() != StatusPlaying {
		return
	}
	if err := p.target.Play(); err != nil {
		logger.Debug("[mpris] poll refresh of %s failed: %v", p.name, err)
	}
}
