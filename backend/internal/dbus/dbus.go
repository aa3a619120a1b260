package dbus

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"
)

// DefaultTimeout is the timeout used for all D-Bus calls.
// Set it once at startup, before any call is issued.
var DefaultTimeout = 5 * time.Second

// Call issues a method call bounded by DefaultTimeout.
// A call that runs past the deadline carries a *TimeoutError.
func Call(obj dbus.BusObject, method string, args ...interface{}) *dbus.Call {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	defer cancel()
	call := obj.CallWithContext(ctx, method, 0, args...)
	if call.Err != nil && errors.Is(call.Err, context.DeadlineExceeded) {
		call.Err = &TimeoutError{Method: method}
	}
	return call
}

// CallMethod calls a method on a D-Bus object with the default timeout.
func CallMethod(obj dbus.BusObject, method string, args ...interface{}) error {
	return Call(obj, method, args...).Err
}

// GetProperty retrieves a single property from a D-Bus object.
func GetProperty(obj dbus.BusObject, iface, prop string) (dbus.Variant, error) {
	var v dbus.Variant
	call := Call(obj, PROP_GET, iface, prop)
	if call.Err != nil {
		return dbus.Variant{}, call.Err
	}
	if err := call.Store(&v); err != nil {
		return dbus.Variant{}, err
	}
	return v, nil
}

// SetProperty sets a single property on a D-Bus object.
func SetProperty(obj dbus.BusObject, iface, prop string, value interface{}) error {
	return CallMethod(obj, PROP_SET, iface, prop, dbus.MakeVariant(value))
}

// GetObject returns a D-Bus object for the given service and object path.
func GetObject(conn *dbus.Conn, service, path string) dbus.BusObject {
	return conn.Object(service, dbus.ObjectPath(path))
}

// ListNames returns the names currently owned on the bus.
func ListNames(conn *dbus.Conn) ([]string, error) {
	return storeStrings(conn, BUS_LIST_NAMES)
}

// ListActivatableNames returns the names the bus can start on demand.
func ListActivatableNames(conn *dbus.Conn) ([]string, error) {
	return storeStrings(conn, BUS_LIST_ACTIVATABLE_NAMES)
}

func storeStrings(conn *dbus.Conn, method string) ([]string, error) {
	var names []string
	call := Call(conn.BusObject(), method)
	if call.Err != nil {
		return nil, call.Err
	}
	if err := call.Store(&names); err != nil {
		return nil, err
	}
	return names, nil
}

// GetNameOwner returns the unique connection name owning a well-known name.
func GetNameOwner(conn *dbus.Conn, name string) (string, error) {
	var owner string
	call := Call(conn.BusObject(), BUS_GET_NAME_OWNER, name)
	if call.Err != nil {
		return "", call.Err
	}
	if err := call.Store(&owner); err != nil {
		return "", err
	}
	return owner, nil
}

// AddMatchRule subscribes to a D-Bus signal via a match rule.
func AddMatchRule(conn *dbus.Conn, rule string) error {
	return CallMethod(conn.BusObject(), BUS_ADD_MATCH, rule)
}

// RemoveMatchRule unsubscribes from a D-Bus signal match rule.
func RemoveMatchRule(conn *dbus.Conn, rule string) error {
	return CallMethod(conn.BusObject(), BUS_REMOVE_MATCH, rule)
}

// Match describes a signal match rule. Empty fields are left out.
type Match struct {
	Sender    string
	Path      string
	Interface string
	Member    string
	Arg0      string
}

// String renders the rule in the bus daemon's syntax.
func (m Match) String() string {
	parts := []string{"type='signal'"}
	add := func(key, val string) {
		if val != "" {
			parts = append(parts, key+"='"+val+"'")
		}
	}
	add("sender", m.Sender)
	add("path", m.Path)
	add("interface", m.Interface)
	add("member", m.Member)
	add("arg0", m.Arg0)
	return strings.Join(parts, ",")
}

// FilterSignal parses a PropertiesChanged D-Bus signal body.
// Returns changed properties, interface name and invalidated properties,
// or an error if malformed.
func FilterSignal(sig *dbus.Signal) (map[string]dbus.Variant, string, []string, error) {
	if sig == nil {
		return nil, "", nil, &SignalError{Reason: "channel closed"}
	}
	if len(sig.Body) < 2 {
		return nil, "", nil, &SignalError{Reason: "body too short"}
	}
	iface, ok := sig.Body[0].(string)
	if !ok {
		return nil, "", nil, &SignalError{Reason: "failed to parse interface name"}
	}
	changed, ok := sig.Body[1].(map[string]dbus.Variant)
	if !ok {
		return nil, "", nil, &SignalError{Reason: "body[1] is not map[string]Variant"}
	}
	var invalidated []string
	if len(sig.Body) > 2 {
		invalidated, _ = sig.Body[2].([]string)
	}
	return changed, iface, invalidated, nil
}

// --- Variant extraction helpers ---

// ExtractString extracts a string from a dbus.Variant.
// Object paths are returned as their string form.
func ExtractString(v dbus.Variant) (string, bool) {
	switch val := v.Value().(type) {
	case string:
		return val, true
	case dbus.ObjectPath:
		return string(val), true
	default:
		return "", false
	}
}

// ExtractBool extracts a bool from a dbus.Variant.
func ExtractBool(v dbus.Variant) (bool, bool) {
	val, ok := v.Value().(bool)
	return val, ok
}

// ExtractInt64 extracts an integer of any D-Bus width from a dbus.Variant.
// Players disagree on the type of mpris:length, so every integer is accepted.
func ExtractInt64(v dbus.Variant) (int64, bool) {
	switch val := v.Value().(type) {
	case int64:
		return val, true
	case int32:
		return int64(val), true
	case int16:
		return int64(val), true
	case uint64:
		return int64(val), true
	case uint32:
		return int64(val), true
	case uint16:
		return int64(val), true
	case byte:
		return int64(val), true
	case float64:
		return int64(val), true
	default:
		return 0, false
	}
}

// ExtractFloat64 extracts a float64 from a dbus.Variant.
func ExtractFloat64(v dbus.Variant) (float64, bool) {
	val, ok := v.Value().(float64)
	return val, ok
}

// ExtractStrings extracts a string list from a dbus.Variant.
// A single string is returned as a one element list.
func ExtractStrings(v dbus.Variant) ([]string, bool) {
	switch val := v.Value().(type) {
	case []string:
		return val, true
	case string:
		return []string{val}, true
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out, true
	default:
		return nil, false
	}
}

// ExtractVariantMap extracts a map[string]dbus.Variant from a dbus.Variant.
func ExtractVariantMap(v dbus.Variant) (map[string]dbus.Variant, bool) {
	val, ok := v.Value().(map[string]dbus.Variant)
	return val, ok
}

// --- Map helpers (props map[string]dbus.Variant) ---

// MapString extracts a string from a props map by key.
func MapString(props map[string]dbus.Variant, key string) string {
	if v, ok := props[key]; ok {
		s, _ := ExtractString(v)
		return s
	}
	return ""
}

// MapStrings extracts a string list from a props map by key.
func MapStrings(props map[string]dbus.Variant, key string) []string {
	if v, ok := props[key]; ok {
		s, _ := ExtractStrings(v)
		return s
	}
	return nil
}

// MapInt64 extracts an integer from a props map by key.
func MapInt64(props map[string]dbus.Variant, key string) int64 {
	if v, ok := props[key]; ok {
		n, _ := ExtractInt64(v)
		return n
	}
	return 0
}

// Keys returns the keys of a props map (useful for debug logging).
func Keys(props map[string]dbus.Variant) []string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	return keys
}
