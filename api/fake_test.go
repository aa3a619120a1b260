package api

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/b0bbywan/go-odio-lyrics/backend/lyrics"
	"github.com/b0bbywan/go-odio-lyrics/backend/mpris"
	"github.com/b0bbywan/go-odio-lyrics/config"
)

const testPrefix = "org.mpris.MediaPlayer2."

// fakePlayer records method calls and serves properties from a map
type fakePlayer struct {
	mu    sync.Mutex
	props map[string]dbus.Variant
	calls []string
	sets  map[string]interface{}
}

func newFakePlayer() *fakePlayer {
	return &fakePlayer{
		props: map[string]dbus.Variant{
			"PlaybackStatus": dbus.MakeVariant("Paused"),
			"LoopStatus":     dbus.MakeVariant("None"),
			"Shuffle":        dbus.MakeVariant(false),
			"Volume":         dbus.MakeVariant(0.5),
			"Position":       dbus.MakeVariant(int64(42000000)),
			"CanPlay":        dbus.MakeVariant(true),
			"CanPause":       dbus.MakeVariant(true),
			"Metadata": dbus.MakeVariant(map[string]dbus.Variant{
				"mpris:trackid": dbus.MakeVariant(dbus.ObjectPath("/track/1")),
				"xesam:title":   dbus.MakeVariant("Yesterday"),
				"xesam:artist":  dbus.MakeVariant([]string{"The Beatles"}),
			}),
		},
		sets: make(map[string]interface{}),
	}
}

func (p *fakePlayer) Call(method string, args ...interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, method)
	return nil
}

func (p *fakePlayer) Get(iface, prop string) (dbus.Variant, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.props[prop]
	if !ok {
		return dbus.Variant{}, errors.New("no such property: " + prop)
	}
	return v, nil
}

func (p *fakePlayer) Set(iface, prop string, value interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sets[prop] = value
	return nil
}

func (p *fakePlayer) lastCall() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.calls) == 0 {
		return ""
	}
	return p.calls[len(p.calls)-1]
}

func (p *fakePlayer) setValue(prop string) (interface{}, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.sets[prop]
	return v, ok
}

type nopSubscription struct{}

func (nopSubscription) Cancel() {}

// fakeBus serves a fixed set of players
type fakeBus struct {
	players     map[string]*fakePlayer
	activatable []string
}

func newFakeBus(names ...string) *fakeBus {
	b := &fakeBus{players: make(map[string]*fakePlayer)}
	for _, name := range names {
		b.players[testPrefix+name] = newFakePlayer()
	}
	return b
}

func (b *fakeBus) ListNames() ([]string, error) {
	names := []string{"org.freedesktop.DBus"}
	for busName := range b.players {
		names = append(names, busName)
	}
	return names, nil
}

func (b *fakeBus) ListActivatableNames() ([]string, error) {
	return b.activatable, nil
}

func (b *fakeBus) lookup(busName string) (*fakePlayer, error) {
	p, ok := b.players[busName]
	if !ok {
		return nil, &mpris.PlayerNotFoundError{Name: busName}
	}
	return p, nil
}

func (b *fakeBus) Control(busName string) (mpris.Control, error) {
	p, err := b.lookup(busName)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (b *fakeBus) Properties(busName string) (mpris.Properties, error) {
	p, err := b.lookup(busName)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (b *fakeBus) SubscribeProperties(busName string, fn func(string, map[string]dbus.Variant, []string)) (mpris.Subscription, error) {
	return nopSubscription{}, nil
}

func (b *fakeBus) SubscribeSeeked(busName string, fn func(int64)) (mpris.Subscription, error) {
	return nopSubscription{}, nil
}

func (b *fakeBus) WatchNameOwner(busName string, fn func(string)) (mpris.Subscription, error) {
	return nopSubscription{}, nil
}

func (b *fakeBus) Close() error { return nil }

func newTestProxy(t *testing.T, bus mpris.Bus) *mpris.Proxy {
	t.Helper()
	p := mpris.NewWithBus(context.Background(), bus, &config.MPRISConfig{
		Enabled:  true,
		Timeout:  time.Second,
		SelfName: config.DefaultSelfName,
		Poll:     config.PollConfig{Fast: time.Hour, Slow: time.Hour},
	})
	t.Cleanup(p.Close)
	return p
}

// fakeSource is an in-memory lyric source
type fakeSource struct {
	id      string
	results []lyrics.Result
	lyrics  map[string]string
	err     error

	mu       sync.Mutex
	searched []string
}

func (s *fakeSource) ID() string   { return s.id }
func (s *fakeSource) Name() string { return "Fake " + s.id }

func (s *fakeSource) Search(ctx context.Context, title, artist string) ([]lyrics.Result, error) {
	s.mu.Lock()
	s.searched = append(s.searched, title+"|"+artist)
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

func (s *fakeSource) Download(ctx context.Context, token string) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	text, ok := s.lyrics[token]
	if !ok {
		return nil, &lyrics.InvalidTokenError{Token: token}
	}
	return []byte(text), nil
}

func (s *fakeSource) lastSearch() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.searched) == 0 {
		return ""
	}
	return s.searched[len(s.searched)-1]
}
