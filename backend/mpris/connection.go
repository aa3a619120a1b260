package mpris

import (
	"context"
	"fmt"

	"github.com/b0bbywan/go-odio-lyrics/config"
	"github.com/b0bbywan/go-odio-lyrics/logger"
)

func newConnection(bus Bus, name string, cfg *config.MPRISConfig) *Connection {
	c := &Connection{
		Name:       name,
		BusName:    busNameFor(name),
		bus:        bus,
		dispatcher: newDispatcher(),
		state:      StateConnecting,
	}
	c.poller = NewPoller(c, name, cfg.Poll)
	return c
}

// open acquires handles and subscriptions, then starts the poller.
// On any failure everything acquired so far is released and the
// connection ends up Disconnected.
func (c *Connection) open(ctx context.Context) error {
	if err := c.acquire(); err != nil {
		logger.Warn("[mpris] failed to connect to %s: %v", c.Name, err)
		c.Disconnect()
		return err
	}

	c.mu.Lock()
	if c.state != StateConnecting {
		// torn down right after the last subscription, which
		// Disconnect has already cancelled
		c.mu.Unlock()
		return c.aborted()
	}
	c.state = StateConnected
	c.mu.Unlock()

	c.poller.Start(ctx)
	logger.Info("[mpris] connected to %s", c.Name)
	return nil
}

func (c *Connection) acquire() error {
	control, err := c.bus.Control(c.BusName)
	if err != nil {
		return fmt.Errorf("control interface: %w", err)
	}
	if !c.hold(func() { c.control = control }) {
		return c.aborted()
	}

	props, err := c.bus.Properties(c.BusName)
	if err != nil {
		return fmt.Errorf("properties interface: %w", err)
	}
	if !c.hold(func() { c.props = props }) {
		return c.aborted()
	}

	propsSub, err := c.bus.SubscribeProperties(c.BusName, c.onPropertiesChanged)
	if err != nil {
		return fmt.Errorf("subscribe PropertiesChanged: %w", err)
	}
	if !c.hold(func() { c.propsSub = propsSub }) {
		propsSub.Cancel()
		return c.aborted()
	}

	seekedSub, err := c.bus.SubscribeSeeked(c.BusName, c.onSeeked)
	if err != nil {
		return fmt.Errorf("subscribe Seeked: %w", err)
	}
	if !c.hold(func() { c.seekedSub = seekedSub }) {
		seekedSub.Cancel()
		return c.aborted()
	}

	// the watch is live before WatchNameOwner returns, so a vanishing
	// name may already have disconnected us
	ownerWatch, err := c.bus.WatchNameOwner(c.BusName, c.onNameOwnerChanged)
	if err != nil {
		return fmt.Errorf("watch name owner: %w", err)
	}
	if !c.hold(func() { c.ownerWatch = ownerWatch }) {
		ownerWatch.Cancel()
		return c.aborted()
	}

	return nil
}

// hold runs set under the lock, only while the connection is still
// Connecting.
func (c *Connection) hold(set func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateConnecting {
		return false
	}
	set()
	return true
}

func (c *Connection) aborted() error {
	return &PlayerNotFoundError{Name: c.BusName, Err: ErrNotConnected}
}

func (c *Connection) onNameOwnerChanged(newOwner string) {
	if newOwner != "" {
		logger.Debug("[mpris] %s changed owner to %s", c.Name, newOwner)
		return
	}
	logger.Info("[mpris] player %s vanished from the bus", c.Name)
	c.Disconnect()
}

// Disconnect tears the connection down. It is idempotent and safe from
// any goroutine, including signal handlers.
func (c *Connection) Disconnect() {
	c.mu.Lock()
	if c.state == StateDisconnected {
		c.mu.Unlock()
		return
	}
	wasConnected := c.state == StateConnected
	c.state = StateDisconnected
	subs := []Subscription{c.propsSub, c.seekedSub, c.ownerWatch}
	c.propsSub, c.seekedSub, c.ownerWatch = nil, nil, nil
	c.mu.Unlock()

	c.poller.Stop()
	for _, s := range subs {
		if s != nil {
			s.Cancel()
		}
	}

	// handles go last: the poller may still be finishing a tick
	c.mu.Lock()
	c.control = nil
	c.props = nil
	c.mu.Unlock()

	if wasConnected {
		logger.Info("[mpris] disconnected from %s", c.Name)
		c.emit(EventDisconnected, 0)
	}
	if c.onClose != nil {
		c.onClose(c)
	}
}

// State returns the lifecycle state
func (c *Connection) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Stopped is closed once the poller loop has exited
func (c *Connection) Stopped() <-chan struct{} {
	return c.poller.Done()
}

// On registers a handler for one notification type
func (c *Connection) On(t EventType, h Handler) {
	c.dispatcher.on(t, h)
}

// OnAny registers a handler for every notification
func (c *Connection) OnAny(h Handler) {
	c.dispatcher.onAny(h)
}

func (c *Connection) emit(t EventType, position int64) {
	c.dispatcher.emit(PlayerEvent{Player: c.Name, Type: t, Position: position})
}
