package backend

import (
	"context"
	"sync"

	"github.com/b0bbywan/go-odio-lyrics/events"
	"github.com/b0bbywan/go-odio-lyrics/logger"
)

const clientBuffer = 32

// Broadcaster fans events from any number of sources out to subscribers.
// Once ctx is cancelled every subscriber channel is closed.
type Broadcaster struct {
	mu      sync.RWMutex
	clients map[chan events.Event]func(events.Event) bool
	closed  bool
}

// NewBroadcaster starts one reader per source. Nil sources are skipped.
func NewBroadcaster(ctx context.Context, sources ...<-chan events.Event) *Broadcaster {
	b := &Broadcaster{
		clients: make(map[chan events.Event]func(events.Event) bool),
	}

	var wg sync.WaitGroup
	for _, src := range sources {
		if src == nil {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.drain(ctx, src)
		}()
	}
	go func() {
		<-ctx.Done()
		wg.Wait()
		b.close()
	}()
	return b
}

// Subscribe registers a subscriber receiving every event
func (b *Broadcaster) Subscribe() chan events.Event {
	return b.SubscribeFunc(nil)
}

// SubscribeFunc is Subscribe with a filter. A nil filter passes everything.
// The returned channel is already closed when the broadcaster has stopped.
func (b *Broadcaster) SubscribeFunc(filter func(events.Event) bool) chan events.Event {
	ch := make(chan events.Event, clientBuffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.clients[ch] = filter
	return ch
}

// Unsubscribe removes a subscriber and closes its channel. Unknown or
// already closed channels are ignored.
func (b *Broadcaster) Unsubscribe(ch chan events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.clients[ch]; !ok {
		return
	}
	delete(b.clients, ch)
	close(ch)
}

// Subscribers returns the number of live subscribers
func (b *Broadcaster) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

func (b *Broadcaster) broadcast(e events.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch, filter := range b.clients {
		if filter != nil && !filter(e) {
			continue
		}
		select {
		case ch <- e:
		default:
			logger.Warn("[sse] client channel full, dropping %s event", e.Type)
		}
	}
}

func (b *Broadcaster) drain(ctx context.Context, src <-chan events.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-src:
			if !ok {
				return
			}
			b.broadcast(e)
		}
	}
}

func (b *Broadcaster) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for ch := range b.clients {
		close(ch)
		delete(b.clients, ch)
	}
	logger.Debug("[sse] broadcaster stopped")
}

// newBroadcasterFromBackend wires the event channels of every enabled
// sub-backend into a single Broadcaster.
func newBroadcasterFromBackend(ctx context.Context, b *Backend) *Broadcaster {
	var srcs []<-chan events.Event
	if b.MPRIS != nil {
		srcs = append(srcs, b.MPRIS.Events())
	}
	if b.Lyrics != nil {
		srcs = append(srcs, b.Lyrics.Events())
	}
	return NewBroadcaster(ctx, srcs...)
}
