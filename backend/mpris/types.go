package mpris

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/b0bbywan/go-odio-lyrics/config"
	"github.com/b0bbywan/go-odio-lyrics/events"
)

// PlaybackStatus represents the current playback state
type PlaybackStatus string

// RepeatMode represents the current loop/repeat state
type RepeatMode string

// Capability is a single action a player may support
type Capability uint8

// Caps is a set of capabilities
type Caps uint8

// State is the lifecycle state of a Connection
type State int

// EventType identifies a notification emitted by a Connection
type EventType string

// Bus is the session message bus as seen by the proxy.
type Bus interface {
	ListNames() ([]string, error)
	ListActivatableNames() ([]string, error)

	// Control returns a handle on the player control interface.
	Control(busName string) (Control, error)
	// Properties returns a handle on the standard properties interface.
	Properties(busName string) (Properties, error)

	SubscribeProperties(busName string, fn func(iface string, changed map[string]dbus.Variant, invalidated []string)) (Subscription, error)
	SubscribeSeeked(busName string, fn func(position int64)) (Subscription, error)
	// WatchNameOwner reports ownership changes of busName. An empty owner
	// means the name has vanished.
	WatchNameOwner(busName string, fn func(newOwner string)) (Subscription, error)

	Close() error
}

// Control invokes player methods
type Control interface {
	Call(method string, args ...interface{}) error
}

// Properties reads and writes player properties
type Properties interface {
	Get(iface, prop string) (dbus.Variant, error)
	Set(iface, prop string, value interface{}) error
}

// Subscription is a live signal subscription. Cancel is idempotent.
type Subscription interface {
	Cancel()
}

// Handler receives player notifications
type Handler func(PlayerEvent)

// PlayerInfo identifies a player by its short name
type PlayerInfo struct {
	Name string `json:"name"`
}

// PlayerEvent is the payload of every notification. Position is only
// set for EventPositionChanged, in milliseconds.
type PlayerEvent struct {
	Player   string    `json:"player"`
	Type     EventType `json:"-"`
	Position int64     `json:"position,omitempty"`
}

// Proxy owns every live Connection, keyed by player name
type Proxy struct {
	ctx    context.Context
	cancel context.CancelFunc
	config *config.MPRISConfig

	bus Bus
	dir *Directory

	// serializes Connect so two callers never race on the same name
	connectMu sync.Mutex

	mu    sync.RWMutex
	conns map[string]*Connection

	events chan events.Event
}

// Connection is a live session with a single player
type Connection struct {
	Name    string
	BusName string

	bus        Bus
	poller     *Poller
	dispatcher *dispatcher
	onClose    func(*Connection)

	// guards state, handles and subscriptions
	mu         sync.RWMutex
	state      State
	control    Control
	props      Properties
	propsSub   Subscription
	seekedSub  Subscription
	ownerWatch Subscription
}

// Snapshot is a point-in-time view of a connected player
type Snapshot struct {
	Name     string         `json:"name"`
	BusName  string         `json:"bus_name"`
	State    string         `json:"state"`
	Status   PlaybackStatus `json:"status"`
	Repeat   RepeatMode     `json:"repeat"`
	Shuffle  bool           `json:"shuffle"`
	Caps     Caps           `json:"caps"`
	Metadata *Metadata      `json:"metadata,omitempty"`
	Volume   *float64       `json:"volume,omitempty"`
	Position *int64         `json:"position,omitempty"`
}

// Request types for the API

type PositionRequest struct {
	Position int64 `json:"position"`
}

type VolumeRequest struct {
	Volume float64 `json:"volume"`
}

type RepeatRequest struct {
	Repeat string `json:"repeat"`
}

type ShuffleRequest struct {
	Shuffle bool `json:"shuffle"`
}

var capNames = []struct {
	cap  Capability
	name string
}{
	{CapNext, "next"},
	{CapPrev, "prev"},
	{CapPlay, "play"},
	{CapPause, "pause"},
	{CapSeek, "seek"},
}

func (c Capability) String() string {
	for _, cn := range capNames {
		if cn.cap == c {
			return cn.name
		}
	}
	return "unknown"
}

// Has reports whether the set contains cap
func (c Caps) Has(cap Capability) bool {
	return uint8(c)&uint8(cap) != 0
}

// With returns the set extended with cap
func (c Caps) With(cap Capability) Caps {
	return Caps(uint8(c) | uint8(cap))
}

// List returns capability names in a stable order
func (c Caps) List() []string {
	names := []string{}
	for _, cn := range capNames {
		if c.Has(cn.cap) {
			names = append(names, cn.name)
		}
	}
	return names
}

func (c Caps) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.List())
}

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// ParseRepeatMode accepts the local names (none, track, all)
func ParseRepeatMode(s string) (RepeatMode, bool) {
	mode := RepeatMode(s)
	_, ok := repeatToMPRIS[mode]
	return mode, ok
}
