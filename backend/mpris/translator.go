package mpris

import (
	"github.com/godbus/dbus/v5"

	idbus "github.com/b0bbywan/go-odio-lyrics/backend/internal/dbus"
	"github.com/b0bbywan/go-odio-lyrics/logger"
)

// onPropertiesChanged turns one change batch into notifications: at most
// one caps_changed, then one event per tracked property present.
// Invalidated names are not treated as changes.
func (c *Connection) onPropertiesChanged(iface string, changed map[string]dbus.Variant, invalidated []string) {
	c.poller.Bump()
	logger.Debug("[mpris] %s changed on %s: %v (invalidated %v)", c.Name, iface, idbus.Keys(changed), invalidated)

	for _, cp := range capsProperties {
		if _, ok := changed[cp.prop]; ok {
			c.emit(EventCapsChanged, 0)
			break
		}
	}

	for _, pe := range propertyEvents {
		if _, ok := changed[pe.prop]; ok {
			c.emit(pe.event, 0)
		}
	}
}

// onSeeked converts the reported position from microseconds to milliseconds
func (c *Connection) onSeeked(position int64) {
	c.emit(EventPositionChanged, position/1000)
}
