package mpris

import (
	"errors"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/b0bbywan/go-odio-lyrics/config"
)

var errBoom = errors.New("boom")

func testConfig() *config.MPRISConfig {
	return &config.MPRISConfig{
		Enabled:  true,
		Timeout:  time.Second,
		SelfName: config.DefaultSelfName,
		Poll: config.PollConfig{
			Fast:  time.Hour,
			Slow:  time.Hour,
			Burst: 10,
		},
	}
}

type fakeCall struct {
	method string
	args   []interface{}
}

type fakeSet struct {
	prop  string
	value interface{}
}

// fakePlayer implements Control and Properties
type fakePlayer struct {
	mu      sync.Mutex
	props   map[string]dbus.Variant
	getErr  map[string]error
	setErr  error
	callErr map[string]error
	calls   []fakeCall
	sets    []fakeSet
}

func newFakePlayer() *fakePlayer {
	return &fakePlayer{
		props:   make(map[string]dbus.Variant),
		getErr:  make(map[string]error),
		callErr: make(map[string]error),
	}
}

func (p *fakePlayer) set(prop string, value interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.props[prop] = dbus.MakeVariant(value)
}

func (p *fakePlayer) Call(method string, args ...interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, fakeCall{method: method, args: args})
	return p.callErr[method]
}

func (p *fakePlayer) Get(iface, prop string) (dbus.Variant, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.getErr[prop]; err != nil {
		return dbus.Variant{}, err
	}
	v, ok := p.props[prop]
	if !ok {
		return dbus.Variant{}, errors.New("no such property: " + prop)
	}
	return v, nil
}

func (p *fakePlayer) Set(iface, prop string, value interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sets = append(p.sets, fakeSet{prop: prop, value: value})
	if p.setErr != nil {
		return p.setErr
	}
	p.props[prop] = dbus.MakeVariant(value)
	return nil
}

func (p *fakePlayer) callsTo(method string) []fakeCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []fakeCall
	for _, c := range p.calls {
		if c.method == method {
			out = append(out, c)
		}
	}
	return out
}

func (p *fakePlayer) setsOf(prop string) []fakeSet {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []fakeSet
	for _, s := range p.sets {
		if s.prop == prop {
			out = append(out, s)
		}
	}
	return out
}

type fakeSub struct {
	bus       *fakeBus
	cancelled bool
}

func (s *fakeSub) Cancel() {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	if s.cancelled {
		return
	}
	s.cancelled = true
	s.bus.live--
}

// fakeBus implements Bus for a set of players keyed by bus name.
// Each step of a connection can be made to fail.
type fakeBus struct {
	mu          sync.Mutex
	names       []string
	activatable []string
	listErr     error

	players map[string]*fakePlayer

	controlErr    error
	propertiesErr error
	propsSubErr   error
	seekedSubErr  error
	watchErr      error

	// afterSubscribe runs once a subscription is live, before the
	// Subscribe call returns, with the bus unlocked
	afterSubscribe func(step string)

	live     int
	propsFn  map[string]func(string, map[string]dbus.Variant, []string)
	seekedFn map[string]func(int64)
	ownerFn  map[string]func(string)
	closed   bool
}

func newFakeBus() *fakeBus {
	return &fakeBus{
		players:  make(map[string]*fakePlayer),
		propsFn:  make(map[string]func(string, map[string]dbus.Variant, []string)),
		seekedFn: make(map[string]func(int64)),
		ownerFn:  make(map[string]func(string)),
	}
}

// addPlayer registers a player under its short name
func (b *fakeBus) addPlayer(name string) *fakePlayer {
	p := newFakePlayer()
	p.set(PROP_PLAYBACK_STATUS, "Playing")
	b.mu.Lock()
	defer b.mu.Unlock()
	b.players[busNameFor(name)] = p
	b.names = append(b.names, busNameFor(name))
	return p
}

func (b *fakeBus) ListNames() ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.names...), b.listErr
}

func (b *fakeBus) ListActivatableNames() ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.activatable...), b.listErr
}

func (b *fakeBus) player(busName string) (*fakePlayer, error) {
	p, ok := b.players[busName]
	if !ok {
		return nil, &PlayerNotFoundError{Name: busName}
	}
	return p, nil
}

func (b *fakeBus) Control(busName string) (Control, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.controlErr != nil {
		return nil, b.controlErr
	}
	p, err := b.player(busName)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (b *fakeBus) Properties(busName string) (Properties, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.propertiesErr != nil {
		return nil, b.propertiesErr
	}
	p, err := b.player(busName)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (b *fakeBus) newSub() *fakeSub {
	b.live++
	return &fakeSub{bus: b}
}

func (b *fakeBus) SubscribeProperties(busName string, fn func(string, map[string]dbus.Variant, []string)) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.propsSubErr != nil {
		return nil, b.propsSubErr
	}
	b.propsFn[busName] = fn
	sub := b.newSub()
	b.mu.Unlock()
	b.subscribed("properties")
	b.mu.Lock()
	return sub, nil
}

func (b *fakeBus) SubscribeSeeked(busName string, fn func(int64)) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.seekedSubErr != nil {
		return nil, b.seekedSubErr
	}
	b.seekedFn[busName] = fn
	sub := b.newSub()
	b.mu.Unlock()
	b.subscribed("seeked")
	b.mu.Lock()
	return sub, nil
}

func (b *fakeBus) WatchNameOwner(busName string, fn func(string)) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.watchErr != nil {
		return nil, b.watchErr
	}
	b.ownerFn[busName] = fn
	sub := b.newSub()
	b.mu.Unlock()
	b.subscribed("owner")
	b.mu.Lock()
	return sub, nil
}

func (b *fakeBus) subscribed(step string) {
	if b.afterSubscribe != nil {
		b.afterSubscribe(step)
	}
}

func (b *fakeBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

func (b *fakeBus) liveSubs() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.live
}

// emitProperties simulates a PropertiesChanged signal from busName
func (b *fakeBus) emitProperties(busName string, changed map[string]dbus.Variant) {
	b.mu.Lock()
	fn := b.propsFn[busName]
	b.mu.Unlock()
	fn(MPRIS_PLAYER_IFACE, changed, nil)
}

func (b *fakeBus) emitSeeked(busName string, position int64) {
	b.mu.Lock()
	fn := b.seekedFn[busName]
	b.mu.Unlock()
	fn(position)
}

func (b *fakeBus) emitOwner(busName, owner string) {
	b.mu.Lock()
	fn := b.ownerFn[busName]
	b.mu.Unlock()
	fn(owner)
}

// recorder collects notifications from a Connection
type recorder struct {
	mu     sync.Mutex
	events []PlayerEvent
}

func (r *recorder) handle(e PlayerEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func (r *recorder) count(t EventType) int {
	n := 0
	for _, typ := range r.types() {
		if typ == t {
			n++
		}
	}
	return n
}
