package mpris

import (
	"context"
	"sort"

	idbus "github.com/b0bbywan/go-odio-lyrics/backend/internal/dbus"
	"github.com/b0bbywan/go-odio-lyrics/config"
	"github.com/b0bbywan/go-odio-lyrics/events"
	"github.com/b0bbywan/go-odio-lyrics/logger"
)

var eventTypes = map[EventType]string{
	EventStatusChanged:   events.TypePlayerStatus,
	EventTrackChanged:    events.TypePlayerTrack,
	EventShuffleChanged:  events.TypePlayerShuffle,
	EventRepeatChanged:   events.TypePlayerRepeat,
	EventCapsChanged:     events.TypePlayerCaps,
	EventPositionChanged: events.TypePlayerPosition,
	EventDisconnected:    events.TypePlayerDisconnected,
}

// New connects to the session bus and returns a Proxy.
// Returns nil when MPRIS is disabled.
func New(ctx context.Context, cfg *config.MPRISConfig) (*Proxy, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}
	if cfg.Timeout > 0 {
		idbus.DefaultTimeout = cfg.Timeout
	}

	bus, err := NewSessionBus(ctx)
	if err != nil {
		return nil, err
	}
	return NewWithBus(ctx, bus, cfg), nil
}

// NewWithBus builds a Proxy on an existing Bus.
func NewWithBus(ctx context.Context, bus Bus, cfg *config.MPRISConfig) *Proxy {
	ctx, cancel := context.WithCancel(ctx)
	return &Proxy{
		ctx:    ctx,
		cancel: cancel,
		config: cfg,
		bus:    bus,
		dir:    NewDirectory(bus, cfg.SelfName),
		conns:  make(map[string]*Connection),
		events: make(chan events.Event, 64),
	}
}

// ListActive returns the players currently on the bus
func (p *Proxy) ListActive() ([]PlayerInfo, error) {
	return p.dir.ListActive()
}

// ListActivatable returns the players the bus can start
func (p *Proxy) ListActivatable() ([]PlayerInfo, error) {
	return p.dir.ListActivatable()
}

// Connect returns a live connection to the named player, reusing an
// existing one.
func (p *Proxy) Connect(name string) (*Connection, error) {
	if err := validatePlayerName(name); err != nil {
		return nil, err
	}

	p.connectMu.Lock()
	defer p.connectMu.Unlock()

	p.mu.RLock()
	existing, ok := p.conns[name]
	p.mu.RUnlock()
	if ok && existing.State() == StateConnected {
		return existing, nil
	}

	c := newConnection(p.bus, name, p.config)
	c.OnAny(p.forward)
	c.onClose = p.release
	if err := c.open(p.ctx); err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.conns[name] = c
	p.mu.Unlock()

	// the name may have vanished right after open
	if c.State() != StateConnected {
		p.release(c)
		return nil, &PlayerNotFoundError{Name: c.BusName}
	}

	p.notify(events.Event{Type: events.TypePlayerConnected, Data: PlayerEvent{Player: name}})
	return c, nil
}

// Player returns the live connection to name
func (p *Proxy) Player(name string) (*Connection, error) {
	if err := validatePlayerName(name); err != nil {
		return nil, err
	}
	p.mu.RLock()
	c, ok := p.conns[name]
	p.mu.RUnlock()
	if !ok {
		return nil, &PlayerNotFoundError{Name: busNameFor(name), Err: ErrNotConnected}
	}
	return c, nil
}

// Players lists connected players, sorted by name
func (p *Proxy) Players() []PlayerInfo {
	p.mu.RLock()
	players := make([]PlayerInfo, 0, len(p.conns))
	for name := range p.conns {
		players = append(players, PlayerInfo{Name: name})
	}
	p.mu.RUnlock()

	sort.Slice(players, func(i, j int) bool { return players[i].Name < players[j].Name })
	return players
}

// Disconnect closes the connection to name
func (p *Proxy) Disconnect(name string) error {
	c, err := p.Player(name)
	if err != nil {
		return err
	}
	c.Disconnect()
	return nil
}

// Events returns the channel of player notifications
func (p *Proxy) Events() <-chan events.Event {
	return p.events
}

// Close disconnects every player and releases the bus
func (p *Proxy) Close() {
	p.mu.RLock()
	conns := make([]*Connection, 0, len(p.conns))
	for _, c := range p.conns {
		conns = append(conns, c)
	}
	p.mu.RUnlock()

	for _, c := range conns {
		c.Disconnect()
	}
	p.cancel()
	if err := p.bus.Close(); err != nil {
		logger.Warn("[mpris] failed to close bus: %v", err)
	}
	logger.Debug("[mpris] proxy closed")
}

// release drops c from the registry unless it has been replaced already
func (p *Proxy) release(c *Connection) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conns[c.Name] == c {
		delete(p.conns, c.Name)
	}
}

func (p *Proxy) forward(e PlayerEvent) {
	typ, ok := eventTypes[e.Type]
	if !ok {
		return
	}
	p.notify(events.Event{Type: typ, Data: e})
}

func (p *Proxy) notify(e events.Event) {
	select {
	case p.events <- e:
	default:
		logger.Warn("[mpris] event channel full, dropping %s event", e.Type)
	}
}
