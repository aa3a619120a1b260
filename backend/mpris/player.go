package mpris

import (
	"github.com/godbus/dbus/v5"

	idbus "github.com/b0bbywan/go-odio-lyrics/backend/internal/dbus"
	"github.com/b0bbywan/go-odio-lyrics/logger"
)

func (c *Connection) controlHandle() (Control, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.control == nil {
		return nil, ErrNotConnected
	}
	return c.control, nil
}

func (c *Connection) propertiesHandle() (Properties, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.props == nil {
		return nil, ErrNotConnected
	}
	return c.props, nil
}

// call invokes a player method
func (c *Connection) call(method string, args ...interface{}) error {
	control, err := c.controlHandle()
	if err != nil {
		return err
	}
	return control.Call(method, args...)
}

// getProperty reads a Player interface property
func (c *Connection) getProperty(prop string) (dbus.Variant, error) {
	props, err := c.propertiesHandle()
	if err != nil {
		return dbus.Variant{}, err
	}
	return props.Get(MPRIS_PLAYER_IFACE, prop)
}

// setProperty writes a Player interface property
func (c *Connection) setProperty(prop string, value interface{}) error {
	props, err := c.propertiesHandle()
	if err != nil {
		return err
	}
	return props.Set(MPRIS_PLAYER_IFACE, prop, value)
}

func (c *Connection) Play() error {
	return c.call(MPRIS_METHOD_PLAY)
}

func (c *Connection) Pause() error {
	return c.call(MPRIS_METHOD_PAUSE)
}

func (c *Connection) Stop() error {
	return c.call(MPRIS_METHOD_STOP)
}

func (c *Connection) Next() error {
	return c.call(MPRIS_METHOD_NEXT)
}

func (c *Connection) Previous() error {
	return c.call(MPRIS_METHOD_PREVIOUS)
}

// Status returns the playback status. Players that fail to answer are
// reported as playing, so the poller keeps nudging them.
// The poller reads it on every tick, so failures only log at debug.
func (c *Connection) Status() PlaybackStatus {
	v, err := c.getProperty(PROP_PLAYBACK_STATUS)
	if err != nil {
		logger.Debug("[mpris] failed to get status of %s: %v", c.Name, err)
		return StatusPlaying
	}
	s, _ := idbus.ExtractString(v)
	status, ok := statusFromMPRIS[s]
	if !ok {
		logger.Debug("[mpris] unknown status %q from %s", s, c.Name)
		return StatusPlaying
	}
	return status
}

// Repeat returns the loop mode, none when unknown
func (c *Connection) Repeat() RepeatMode {
	v, err := c.getProperty(PROP_LOOP_STATUS)
	if err != nil {
		logger.Debug("[mpris] failed to get repeat of %s: %v", c.Name, err)
		return RepeatNone
	}
	s, _ := idbus.ExtractString(v)
	mode, ok := repeatFromMPRIS[s]
	if !ok {
		return RepeatNone
	}
	return mode
}

// SetRepeat is best effort: many players don't support LoopStatus.
func (c *Connection) SetRepeat(mode RepeatMode) {
	value, ok := repeatToMPRIS[mode]
	if !ok {
		logger.Warn("[mpris] unknown repeat mode %q for %s", mode, c.Name)
		return
	}
	if err := c.setProperty(PROP_LOOP_STATUS, value); err != nil {
		logger.Warn("[mpris] failed to set repeat of %s: %v", c.Name, err)
	}
}

// Shuffle returns the shuffle flag, false when unknown
func (c *Connection) Shuffle() bool {
	v, err := c.getProperty(PROP_SHUFFLE)
	if err != nil {
		logger.Debug("[mpris] failed to get shuffle of %s: %v", c.Name, err)
		return false
	}
	shuffle, _ := idbus.ExtractBool(v)
	return shuffle
}

// SetShuffle is best effort, like SetRepeat.
func (c *Connection) SetShuffle(shuffle bool) {
	if err := c.setProperty(PROP_SHUFFLE, shuffle); err != nil {
		logger.Warn("[mpris] failed to set shuffle of %s: %v", c.Name, err)
	}
}

func (c *Connection) Metadata() (Metadata, error) {
	v, err := c.getProperty(PROP_METADATA)
	if err != nil {
		return Metadata{}, err
	}
	props, ok := idbus.ExtractVariantMap(v)
	if !ok {
		return Metadata{}, &PropertyTypeError{Property: PROP_METADATA, Value: v.Value()}
	}
	return MetadataFromMPRIS(props), nil
}

// Caps reads each capability independently. A property that cannot be
// read counts as unsupported.
func (c *Connection) Caps() Caps {
	var caps Caps
	for _, cp := range capsProperties {
		v, err := c.getProperty(cp.prop)
		if err != nil {
			logger.Debug("[mpris] failed to get %s of %s: %v", cp.prop, c.Name, err)
			continue
		}
		if ok, _ := idbus.ExtractBool(v); ok {
			caps = caps.With(cp.cap)
		}
	}
	return caps
}

func (c *Connection) Volume() (float64, error) {
	v, err := c.getProperty(PROP_VOLUME)
	if err != nil {
		return 0, err
	}
	volume, ok := idbus.ExtractFloat64(v)
	if !ok {
		return 0, &PropertyTypeError{Property: PROP_VOLUME, Value: v.Value()}
	}
	return volume, nil
}

// SetVolume passes the value through; clamping is left to the player.
func (c *Connection) SetVolume(volume float64) error {
	return c.setProperty(PROP_VOLUME, volume)
}

func (c *Connection) positionMicros() (int64, error) {
	v, err := c.getProperty(PROP_POSITION)
	if err != nil {
		return 0, err
	}
	position, ok := idbus.ExtractInt64(v)
	if !ok {
		return 0, &PropertyTypeError{Property: PROP_POSITION, Value: v.Value()}
	}
	return position, nil
}

// Position returns the playback position in milliseconds
func (c *Connection) Position() (int64, error) {
	position, err := c.positionMicros()
	if err != nil {
		return 0, err
	}
	return position / 1000, nil
}

// SetPosition moves to an absolute position in milliseconds. Without a
// usable track ID it falls back to a relative Seek.
func (c *Connection) SetPosition(ms int64) error {
	if ms < 0 {
		return &ValidationError{Field: "position", Message: "must not be negative"}
	}
	md, err := c.Metadata()
	if err != nil {
		return err
	}
	target := ms * 1000
	if !md.HasTrack() {
		current, err := c.positionMicros()
		if err != nil {
			return err
		}
		return c.call(MPRIS_METHOD_SEEK, target-current)
	}
	return c.call(MPRIS_METHOD_SET_POSITION, dbus.ObjectPath(md.TrackID), target)
}

// Snapshot gathers the current player state. Optional values the player
// fails to report are left out.
func (c *Connection) Snapshot() Snapshot {
	s := Snapshot{
		Name:    c.Name,
		BusName: c.BusName,
		State:   c.State().String(),
		Status:  c.Status(),
		Repeat:  c.Repeat(),
		Shuffle: c.Shuffle(),
		Caps:    c.Caps(),
	}
	if md, err := c.Metadata(); err == nil {
		s.Metadata = &md
	}
	if volume, err := c.Volume(); err == nil {
		s.Volume = &volume
	}
	if position, err := c.Position(); err == nil {
		s.Position = &position
	}
	return s
}
