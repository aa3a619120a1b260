package events

const (
	TypeServerInfo         = "server.info"
	TypePlayerConnected    = "player.connected"
	TypePlayerDisconnected = "player.disconnected"
	TypePlayerStatus       = "player.status"
	TypePlayerTrack        = "player.track"
	TypePlayerShuffle      = "player.shuffle"
	TypePlayerRepeat       = "player.repeat"
	TypePlayerCaps         = "player.caps"
	TypePlayerPosition     = "player.position"
	TypeLyricsDownloaded   = "lyrics.downloaded"
)

type Event struct {
	Type string
	Data any
}

// BackendTypes maps a backend name to the event types it emits.
var BackendTypes = map[string][]string{
	"mpris": {
		TypePlayerConnected, TypePlayerDisconnected, TypePlayerStatus, TypePlayerTrack,
		TypePlayerShuffle, TypePlayerRepeat, TypePlayerCaps, TypePlayerPosition,
	},
	"lyrics": {TypeLyricsDownloaded},
}

// FilterTypes returns a filter passing only the given types, or nil (pass-all)
// when types is empty.
func FilterTypes(types []string) func(Event) bool {
	return NewFilter(types, nil)
}

// FilterBackend returns a filter passing the types of the named backends.
// Unknown names are ignored; nil is returned when nothing is left.
func FilterBackend(names []string) func(Event) bool {
	var include []string
	for _, name := range names {
		include = append(include, BackendTypes[name]...)
	}
	return FilterTypes(include)
}

// NewFilter combines include and exclude lists. An empty include list means
// every type not excluded passes. Returns nil when both lists are empty.
func NewFilter(include, exclude []string) func(Event) bool {
	if len(include) == 0 && len(exclude) == 0 {
		return nil
	}
	inc := toSet(include)
	exc := toSet(exclude)
	return func(e Event) bool {
		if _, blocked := exc[e.Type]; blocked {
			return false
		}
		if len(inc) == 0 {
			return true
		}
		_, ok := inc[e.Type]
		return ok
	}
}

func toSet(types []string) map[string]struct{} {
	set := make(map[string]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	return set
}
