package mpris

import "sync"

// dispatcher fans player notifications out to registered handlers.
// Handlers run synchronously, in registration order, on the goroutine
// that emitted the event.
type dispatcher struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	any      []Handler
}

func newDispatcher() *dispatcher {
	return &dispatcher{handlers: make(map[EventType][]Handler)}
}

func (d *dispatcher) on(t EventType, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[t] = append(d.handlers[t], h)
}

func (d *dispatcher) onAny(h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.any = append(d.any, h)
}

func (d *dispatcher) emit(e PlayerEvent) {
	d.mu.RLock()
	handlers := append([]Handler(nil), d.handlers[e.Type]...)
	handlers = append(handlers, d.any...)
	d.mu.RUnlock()

	for _, h := range handlers {
		h(e)
	}
}
