package mpris

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"reflect"
	"testing"

	"github.com/godbus/dbus/v5"

	"github.com/b0bbywan/go-odio-lyrics/logger"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		err   error
		want  PlaybackStatus
	}{
		{"playing", "Playing", nil, StatusPlaying},
		{"paused", "Paused", nil, StatusPaused},
		{"stopped", "Stopped", nil, StatusStopped},
		{"unknown value", "Buffering", nil, StatusPlaying},
		{"wrong type", int32(1), nil, StatusPlaying},
		{"read failure", "Paused", errBoom, StatusPlaying},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := newFakeBus()
			p := bus.addPlayer("vlc")
			p.set(PROP_PLAYBACK_STATUS, tt.value)
			p.getErr[PROP_PLAYBACK_STATUS] = tt.err
			c, _ := openTestConnection(t, bus, "vlc")

			if got := c.Status(); got != tt.want {
				t.Errorf("Status() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStatusFailureQuietAtInfo(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	prev := logger.GetLevel()
	logger.SetLevel(logger.INFO)
	t.Cleanup(func() {
		logger.SetOutput(os.Stderr)
		logger.SetLevel(prev)
	})

	bus := newFakeBus()
	p := bus.addPlayer("vlc")
	c, _ := openTestConnection(t, bus, "vlc")
	buf.Reset()

	p.getErr[PROP_PLAYBACK_STATUS] = errBoom
	for i := 0; i < 5; i++ {
		c.Status()
	}
	delete(p.getErr, PROP_PLAYBACK_STATUS)
	p.set(PROP_PLAYBACK_STATUS, "Buffering")
	c.Status()

	if buf.Len() != 0 {
		t.Errorf("Status() logged at info level:\n%s", buf.String())
	}
}

func TestRepeat(t *testing.T) {
	tests := []struct {
		value string
		err   error
		want  RepeatMode
	}{
		{"None", nil, RepeatNone},
		{"Track", nil, RepeatTrack},
		{"Playlist", nil, RepeatAll},
		{"Bogus", nil, RepeatNone},
		{"Track", errBoom, RepeatNone},
	}

	for _, tt := range tests {
		bus := newFakeBus()
		p := bus.addPlayer("vlc")
		p.set(PROP_LOOP_STATUS, tt.value)
		p.getErr[PROP_LOOP_STATUS] = tt.err
		c, _ := openTestConnection(t, bus, "vlc")

		if got := c.Repeat(); got != tt.want {
			t.Errorf("Repeat() with %q (err %v) = %q, want %q", tt.value, tt.err, got, tt.want)
		}
	}
}

func TestSetRepeat(t *testing.T) {
	tests := []struct {
		mode RepeatMode
		want string
	}{
		{RepeatNone, "None"},
		{RepeatTrack, "Track"},
		{RepeatAll, "Playlist"},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			bus := newFakeBus()
			p := bus.addPlayer("vlc")
			c, _ := openTestConnection(t, bus, "vlc")

			c.SetRepeat(tt.mode)

			sets := p.setsOf(PROP_LOOP_STATUS)
			if len(sets) != 1 || sets[0].value != tt.want {
				t.Errorf("sets = %+v, want one write of %q", sets, tt.want)
			}
		})
	}
}

func TestSetRepeatSwallowsErrors(t *testing.T) {
	bus := newFakeBus()
	p := bus.addPlayer("vlc")
	p.setErr = errBoom
	c, _ := openTestConnection(t, bus, "vlc")

	c.SetRepeat(RepeatTrack)
	c.SetShuffle(true)
	c.SetRepeat("sideways")

	if n := len(p.setsOf(PROP_LOOP_STATUS)); n != 1 {
		t.Errorf("LoopStatus writes = %d, want 1", n)
	}
	if n := len(p.setsOf(PROP_SHUFFLE)); n != 1 {
		t.Errorf("Shuffle writes = %d, want 1", n)
	}
}

func TestShuffle(t *testing.T) {
	bus := newFakeBus()
	p := bus.addPlayer("vlc")
	c, _ := openTestConnection(t, bus, "vlc")

	if c.Shuffle() {
		t.Error("Shuffle() should default to false when unsupported")
	}

	c.SetShuffle(true)
	if !c.Shuffle() {
		t.Error("Shuffle() = false after SetShuffle(true)")
	}
	if sets := p.setsOf(PROP_SHUFFLE); len(sets) != 1 || sets[0].value != true {
		t.Errorf("sets = %+v", sets)
	}
}

func TestCommands(t *testing.T) {
	tests := []struct {
		method string
		fn     func(*Connection) error
	}{
		{MPRIS_METHOD_PLAY, (*Connection).Play},
		{MPRIS_METHOD_PAUSE, (*Connection).Pause},
		{MPRIS_METHOD_STOP, (*Connection).Stop},
		{MPRIS_METHOD_NEXT, (*Connection).Next},
		{MPRIS_METHOD_PREVIOUS, (*Connection).Previous},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			bus := newFakeBus()
			p := bus.addPlayer("vlc")
			c, _ := openTestConnection(t, bus, "vlc")

			if err := tt.fn(c); err != nil {
				t.Fatalf("%s error: %v", tt.method, err)
			}
			if n := len(p.callsTo(tt.method)); n != 1 {
				t.Errorf("%s called %d times, want 1", tt.method, n)
			}

			p.callErr[tt.method] = errBoom
			if err := tt.fn(c); !errors.Is(err, errBoom) {
				t.Errorf("%s error = %v, want %v", tt.method, err, errBoom)
			}
		})
	}
}

func TestCaps(t *testing.T) {
	bus := newFakeBus()
	p := bus.addPlayer("vlc")
	p.set(PROP_CAN_PLAY, true)
	p.set(PROP_CAN_PAUSE, true)
	p.getErr[PROP_CAN_PAUSE] = errBoom
	p.set(PROP_CAN_SEEK, true)
	p.set(PROP_CAN_GO_NEXT, false)
	c, _ := openTestConnection(t, bus, "vlc")

	caps := c.Caps()

	want := Caps(0).With(CapPlay).With(CapSeek)
	if caps != want {
		t.Errorf("Caps() = %v, want %v", caps.List(), want.List())
	}

	data, err := json.Marshal(caps)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	if string(data) != `["play","seek"]` {
		t.Errorf("Marshal() = %s", data)
	}
}

func TestMetadata(t *testing.T) {
	bus := newFakeBus()
	p := bus.addPlayer("vlc")
	p.set(PROP_METADATA, map[string]dbus.Variant{
		META_TRACK_ID: dbus.MakeVariant(dbus.ObjectPath("/org/vlc/track/3")),
		META_TITLE:    dbus.MakeVariant("Heroes"),
		META_ARTIST:   dbus.MakeVariant([]string{"David Bowie", "Brian Eno"}),
		META_ALBUM:    dbus.MakeVariant("Heroes"),
		META_LENGTH:   dbus.MakeVariant(int64(371_000_000)),
	})
	c, _ := openTestConnection(t, bus, "vlc")

	md, err := c.Metadata()
	if err != nil {
		t.Fatalf("Metadata() error: %v", err)
	}
	want := Metadata{
		TrackID: "/org/vlc/track/3",
		Title:   "Heroes",
		Artists: []string{"David Bowie", "Brian Eno"},
		Album:   "Heroes",
		Length:  371_000,
	}
	if !reflect.DeepEqual(md, want) {
		t.Errorf("Metadata() = %+v, want %+v", md, want)
	}
	if md.Artist() != "David Bowie, Brian Eno" {
		t.Errorf("Artist() = %q", md.Artist())
	}

	p.set(PROP_METADATA, "garbage")
	var typeErr *PropertyTypeError
	if _, err := c.Metadata(); !errors.As(err, &typeErr) {
		t.Errorf("Metadata() error = %v, want *PropertyTypeError", err)
	}
}

func TestSetPosition(t *testing.T) {
	t.Run("with track id", func(t *testing.T) {
		bus := newFakeBus()
		p := bus.addPlayer("vlc")
		p.set(PROP_METADATA, map[string]dbus.Variant{
			META_TRACK_ID: dbus.MakeVariant(dbus.ObjectPath("/org/vlc/track/3")),
		})
		c, _ := openTestConnection(t, bus, "vlc")

		if err := c.SetPosition(42_000); err != nil {
			t.Fatalf("SetPosition() error: %v", err)
		}
		calls := p.callsTo(MPRIS_METHOD_SET_POSITION)
		if len(calls) != 1 {
			t.Fatalf("SetPosition calls = %d, want 1", len(calls))
		}
		want := []interface{}{dbus.ObjectPath("/org/vlc/track/3"), int64(42_000_000)}
		if !reflect.DeepEqual(calls[0].args, want) {
			t.Errorf("args = %v, want %v", calls[0].args, want)
		}
	})

	t.Run("no track falls back to seek", func(t *testing.T) {
		bus := newFakeBus()
		p := bus.addPlayer("vlc")
		p.set(PROP_METADATA, map[string]dbus.Variant{
			META_TRACK_ID: dbus.MakeVariant(dbus.ObjectPath(MPRIS_NO_TRACK)),
		})
		p.set(PROP_POSITION, int64(10_000_000))
		c, _ := openTestConnection(t, bus, "vlc")

		if err := c.SetPosition(4_000); err != nil {
			t.Fatalf("SetPosition() error: %v", err)
		}
		calls := p.callsTo(MPRIS_METHOD_SEEK)
		if len(calls) != 1 {
			t.Fatalf("Seek calls = %d, want 1", len(calls))
		}
		if !reflect.DeepEqual(calls[0].args, []interface{}{int64(-6_000_000)}) {
			t.Errorf("Seek args = %v", calls[0].args)
		}
	})

	t.Run("negative", func(t *testing.T) {
		bus := newFakeBus()
		bus.addPlayer("vlc")
		c, _ := openTestConnection(t, bus, "vlc")

		var valErr *ValidationError
		if err := c.SetPosition(-1); !errors.As(err, &valErr) {
			t.Errorf("SetPosition(-1) error = %v, want *ValidationError", err)
		}
	})
}

func TestPositionAndVolume(t *testing.T) {
	bus := newFakeBus()
	p := bus.addPlayer("vlc")
	p.set(PROP_POSITION, int64(61_234_567))
	p.set(PROP_VOLUME, 0.75)
	c, _ := openTestConnection(t, bus, "vlc")

	pos, err := c.Position()
	if err != nil || pos != 61_234 {
		t.Errorf("Position() = (%d, %v), want 61234", pos, err)
	}

	vol, err := c.Volume()
	if err != nil || vol != 0.75 {
		t.Errorf("Volume() = (%v, %v), want 0.75", vol, err)
	}

	// no clamping
	if err := c.SetVolume(1.5); err != nil {
		t.Fatalf("SetVolume() error: %v", err)
	}
	if vol, _ := c.Volume(); vol != 1.5 {
		t.Errorf("Volume() = %v after SetVolume(1.5)", vol)
	}
}

func TestSnapshot(t *testing.T) {
	bus := newFakeBus()
	p := bus.addPlayer("vlc")
	p.set(PROP_PLAYBACK_STATUS, "Paused")
	p.set(PROP_CAN_PLAY, true)
	p.set(PROP_VOLUME, 0.5)
	c, _ := openTestConnection(t, bus, "vlc")

	s := c.Snapshot()

	if s.Name != "vlc" || s.State != "connected" || s.Status != StatusPaused {
		t.Errorf("Snapshot() = %+v", s)
	}
	if s.Repeat != RepeatNone || s.Shuffle {
		t.Errorf("defaults not applied: %+v", s)
	}
	if s.Volume == nil || *s.Volume != 0.5 {
		t.Errorf("Volume = %v", s.Volume)
	}
	if s.Metadata != nil || s.Position != nil {
		t.Errorf("unsupported values should be omitted: %+v", s)
	}
	if !s.Caps.Has(CapPlay) || s.Caps.Has(CapPause) {
		t.Errorf("Caps = %v", s.Caps.List())
	}
}
