package mpris

import (
	"context"
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"

	idbus "github.com/b0bbywan/go-odio-lyrics/backend/internal/dbus"
	"github.com/b0bbywan/go-odio-lyrics/logger"
)

// SessionBus implements Bus on top of the user session bus.
// A single goroutine routes incoming signals to subscriptions.
type SessionBus struct {
	conn    *dbus.Conn
	ctx     context.Context
	cancel  context.CancelFunc
	signals chan *dbus.Signal

	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]*subscription
	closed bool
}

type subscription struct {
	bus    *SessionBus
	id     uint64
	rule   string
	match  func(*dbus.Signal) bool
	handle func(*dbus.Signal)
	once   sync.Once
}

func (s *subscription) Cancel() {
	s.once.Do(func() { s.bus.unsubscribe(s) })
}

type controlHandle struct {
	obj dbus.BusObject
}

func (h *controlHandle) Call(method string, args ...interface{}) error {
	return idbus.CallMethod(h.obj, method, args...)
}

type propertiesHandle struct {
	obj dbus.BusObject
}

func (h *propertiesHandle) Get(iface, prop string) (dbus.Variant, error) {
	return idbus.GetProperty(h.obj, iface, prop)
}

func (h *propertiesHandle) Set(iface, prop string, value interface{}) error {
	return idbus.SetProperty(h.obj, iface, prop, value)
}

// NewSessionBus connects to the session bus and starts routing signals.
func NewSessionBus(ctx context.Context) (*SessionBus, error) {
	addr := idbus.SessionBusAddress()
	conn, err := dbus.Connect(addr)
	if err != nil {
		return nil, fmt.Errorf("session bus %s: %w", addr, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	b := &SessionBus{
		conn:    conn,
		ctx:     ctx,
		cancel:  cancel,
		signals: make(chan *dbus.Signal, 64),
		subs:    make(map[uint64]*subscription),
	}
	conn.Signal(b.signals)
	go b.listen()

	logger.Debug("[mpris] connected to session bus")
	return b, nil
}

func (b *SessionBus) ListNames() ([]string, error) {
	return idbus.ListNames(b.conn)
}

func (b *SessionBus) ListActivatableNames() ([]string, error) {
	return idbus.ListActivatableNames(b.conn)
}

// object resolves busName to a remote object, failing if nobody owns it.
func (b *SessionBus) object(busName string) (dbus.BusObject, error) {
	if _, err := idbus.GetNameOwner(b.conn, busName); err != nil {
		return nil, &PlayerNotFoundError{Name: busName, Err: err}
	}
	return idbus.GetObject(b.conn, busName, MPRIS_PATH), nil
}

func (b *SessionBus) Control(busName string) (Control, error) {
	obj, err := b.object(busName)
	if err != nil {
		return nil, err
	}
	return &controlHandle{obj: obj}, nil
}

func (b *SessionBus) Properties(busName string) (Properties, error) {
	obj, err := b.object(busName)
	if err != nil {
		return nil, err
	}
	return &propertiesHandle{obj: obj}, nil
}

func (b *SessionBus) SubscribeProperties(busName string, fn func(string, map[string]dbus.Variant, []string)) (Subscription, error) {
	owner, err := idbus.GetNameOwner(b.conn, busName)
	if err != nil {
		return nil, &PlayerNotFoundError{Name: busName, Err: err}
	}
	rule := idbus.Match{
		Sender:    busName,
		Path:      MPRIS_PATH,
		Interface: idbus.DBUS_PROP_IFACE,
		Member:    "PropertiesChanged",
	}
	return b.subscribe(rule.String(), matchProperties(busName, owner), propertiesHandler(busName, fn))
}

func (b *SessionBus) SubscribeSeeked(busName string, fn func(int64)) (Subscription, error) {
	owner, err := idbus.GetNameOwner(b.conn, busName)
	if err != nil {
		return nil, &PlayerNotFoundError{Name: busName, Err: err}
	}
	rule := idbus.Match{
		Sender:    busName,
		Path:      MPRIS_PATH,
		Interface: MPRIS_PLAYER_IFACE,
		Member:    "Seeked",
	}
	return b.subscribe(rule.String(), matchSeeked(busName, owner), seekedHandler(busName, fn))
}

func (b *SessionBus) WatchNameOwner(busName string, fn func(string)) (Subscription, error) {
	rule := idbus.Match{
		Sender:    idbus.DBUS_SERVICE,
		Interface: idbus.DBUS_INTERFACE,
		Member:    "NameOwnerChanged",
		Arg0:      busName,
	}
	return b.subscribe(rule.String(), matchNameOwner(busName), ownerHandler(fn))
}

func (b *SessionBus) subscribe(rule string, match func(*dbus.Signal) bool, handle func(*dbus.Signal)) (Subscription, error) {
	if err := idbus.AddMatchRule(b.conn, rule); err != nil {
		return nil, fmt.Errorf("add match %s: %w", rule, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	s := &subscription{
		bus:    b,
		id:     b.nextID,
		rule:   rule,
		match:  match,
		handle: handle,
	}
	b.subs[s.id] = s
	logger.Debug("[mpris] subscribed: %s", rule)
	return s, nil
}

func (b *SessionBus) unsubscribe(s *subscription) {
	b.mu.Lock()
	delete(b.subs, s.id)
	closed := b.closed
	b.mu.Unlock()

	if closed {
		return
	}
	if err := idbus.RemoveMatchRule(b.conn, s.rule); err != nil {
		logger.Warn("[mpris] failed to remove match %s: %v", s.rule, err)
	}
}

// Close drops every subscription and closes the connection.
func (b *SessionBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.subs = make(map[uint64]*subscription)
	b.mu.Unlock()

	b.cancel()
	b.conn.RemoveSignal(b.signals)
	return b.conn.Close()
}
