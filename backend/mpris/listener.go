package mpris

import (
	"sync/atomic"

	"github.com/godbus/dbus/v5"

	idbus "github.com/b0bbywan/go-odio-lyrics/backend/internal/dbus"
	"github.com/b0bbywan/go-odio-lyrics/logger"
)

// listen continuously routes D-Bus signals to subscriptions
func (b *SessionBus) listen() {
	for {
		select {
		case <-b.ctx.Done():
			return
		case sig, ok := <-b.signals:
			if !ok {
				return
			}
			logger.Debug("[mpris] received signal: %s from %s", sig.Name, sig.Sender)
			b.dispatch(sig)
		}
	}
}

// dispatch runs matching handlers outside the lock, so a handler may
// cancel its own subscription.
func (b *SessionBus) dispatch(sig *dbus.Signal) {
	b.mu.Lock()
	var matched []*subscription
	for _, s := range b.subs {
		if s.match(sig) {
			matched = append(matched, s)
		}
	}
	b.mu.Unlock()

	for _, s := range matched {
		s.handle(sig)
	}
}

// ownerTracker follows the unique name (:1.107) owning a player's bus
// name. Signals carry that unique name as sender, and it changes when
// another process takes the name over.
type ownerTracker struct {
	busName string
	owner   atomic.Value
}

func newOwnerTracker(busName, owner string) *ownerTracker {
	t := &ownerTracker{busName: busName}
	t.owner.Store(owner)
	return t
}

// fromPlayer reports whether sig was sent by the current owner. A
// NameOwnerChanged for the player moves the owner and never matches.
func (t *ownerTracker) fromPlayer(sig *dbus.Signal) bool {
	if newOwner, ok := ownerChange(sig, t.busName); ok {
		if newOwner != "" {
			t.owner.Store(newOwner)
		}
		return false
	}
	owner, _ := t.owner.Load().(string)
	return sig.Path == MPRIS_PATH && (sig.Sender == owner || sig.Sender == t.busName)
}

func matchProperties(busName, owner string) func(*dbus.Signal) bool {
	t := newOwnerTracker(busName, owner)
	return func(sig *dbus.Signal) bool {
		return t.fromPlayer(sig) && sig.Name == idbus.SIGNAL_PROPERTIES_CHANGED
	}
}

func matchSeeked(busName, owner string) func(*dbus.Signal) bool {
	t := newOwnerTracker(busName, owner)
	return func(sig *dbus.Signal) bool {
		return t.fromPlayer(sig) && sig.Name == MPRIS_SEEKED_SIGNAL
	}
}

// ownerChange extracts the new owner from a NameOwnerChanged about busName.
// Body[0] = bus name, Body[1] = old owner, Body[2] = new owner
func ownerChange(sig *dbus.Signal, busName string) (string, bool) {
	if sig.Name != idbus.SIGNAL_NAME_OWNER_CHANGED || len(sig.Body) < 3 {
		return "", false
	}
	if name, _ := sig.Body[0].(string); name != busName {
		return "", false
	}
	newOwner, _ := sig.Body[2].(string)
	return newOwner, true
}

func matchNameOwner(busName string) func(*dbus.Signal) bool {
	return func(sig *dbus.Signal) bool {
		_, ok := ownerChange(sig, busName)
		return ok
	}
}

func propertiesHandler(busName string, fn func(string, map[string]dbus.Variant, []string)) func(*dbus.Signal) {
	return func(sig *dbus.Signal) {
		changed, iface, invalidated, err := idbus.FilterSignal(sig)
		if err != nil {
			logger.Debug("[mpris] ignoring PropertiesChanged from %s: %v", busName, err)
			return
		}
		fn(iface, changed, invalidated)
	}
}

func seekedHandler(busName string, fn func(int64)) func(*dbus.Signal) {
	return func(sig *dbus.Signal) {
		if len(sig.Body) < 1 {
			return
		}
		position, ok := idbus.ExtractInt64(dbus.MakeVariant(sig.Body[0]))
		if !ok {
			logger.Debug("[mpris] ignoring Seeked from %s: body is %T", busName, sig.Body[0])
			return
		}
		fn(position)
	}
}

func ownerHandler(fn func(string)) func(*dbus.Signal) {
	return func(sig *dbus.Signal) {
		newOwner, _ := sig.Body[2].(string)
		fn(newOwner)
	}
}
