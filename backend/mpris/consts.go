package mpris

const (
	// MPRIS D-Bus constants
	MPRIS_PREFIX       = "org.mpris.MediaPlayer2"
	MPRIS_PATH         = "/org/mpris/MediaPlayer2"
	MPRIS_INTERFACE    = "org.mpris.MediaPlayer2"
	MPRIS_PLAYER_IFACE = "org.mpris.MediaPlayer2.Player"

	// playerPrefix is stripped from bus names to get player identifiers
	playerPrefix = MPRIS_PREFIX + "."

	// D-Bus signal names
	MPRIS_SEEKED_SIGNAL = MPRIS_PLAYER_IFACE + ".Seeked"

	// MPRIS Player methods
	MPRIS_METHOD_PLAY         = MPRIS_PLAYER_IFACE + ".Play"
	MPRIS_METHOD_PAUSE        = MPRIS_PLAYER_IFACE + ".Pause"
	MPRIS_METHOD_STOP         = MPRIS_PLAYER_IFACE + ".Stop"
	MPRIS_METHOD_NEXT         = MPRIS_PLAYER_IFACE + ".Next"
	MPRIS_METHOD_PREVIOUS     = MPRIS_PLAYER_IFACE + ".Previous"
	MPRIS_METHOD_SEEK         = MPRIS_PLAYER_IFACE + ".Seek"
	MPRIS_METHOD_SET_POSITION = MPRIS_PLAYER_IFACE + ".SetPosition"
)

// MPRIS Player properties
const (
	PROP_PLAYBACK_STATUS = "PlaybackStatus"
	PROP_LOOP_STATUS     = "LoopStatus"
	PROP_SHUFFLE         = "Shuffle"
	PROP_METADATA        = "Metadata"
	PROP_VOLUME          = "Volume"
	PROP_POSITION        = "Position"

	PROP_CAN_GO_NEXT     = "CanGoNext"
	PROP_CAN_GO_PREVIOUS = "CanGoPrevious"
	PROP_CAN_PLAY        = "CanPlay"
	PROP_CAN_PAUSE       = "CanPause"
	PROP_CAN_SEEK        = "CanSeek"
)

// Metadata keys
const (
	META_TRACK_ID     = "mpris:trackid"
	META_LENGTH       = "mpris:length"
	META_ART_URL      = "mpris:artUrl"
	META_TITLE        = "xesam:title"
	META_ARTIST       = "xesam:artist"
	META_ALBUM        = "xesam:album"
	META_URL          = "xesam:url"
	META_TRACK_NUMBER = "xesam:trackNumber"
)

// MPRIS_NO_TRACK is the well-known track ID meaning "no current track".
// SetPosition is a no-op for this value, so we fall back to relative Seek.
const MPRIS_NO_TRACK = "/org/mpris/MediaPlayer2/TrackList/NoTrack"

const (
	StatusPlaying PlaybackStatus = "playing"
	StatusPaused  PlaybackStatus = "paused"
	StatusStopped PlaybackStatus = "stopped"
)

const (
	RepeatNone  RepeatMode = "none"
	RepeatTrack RepeatMode = "track"
	RepeatAll   RepeatMode = "all"
)

const (
	CapNext Capability = 1 << iota
	CapPrev
	CapPlay
	CapPause
	CapSeek
)

const (
	StateConnecting State = iota
	StateConnected
	StateDisconnected
)

const (
	EventStatusChanged   EventType = "status_changed"
	EventTrackChanged    EventType = "track_changed"
	EventShuffleChanged  EventType = "shuffle_changed"
	EventRepeatChanged   EventType = "repeat_changed"
	EventCapsChanged     EventType = "caps_changed"
	EventPositionChanged EventType = "position_changed"
	EventDisconnected    EventType = "disconnected"
)

// Remote PlaybackStatus values
var statusFromMPRIS = map[string]PlaybackStatus{
	"Playing": StatusPlaying,
	"Paused":  StatusPaused,
	"Stopped": StatusStopped,
}

// Remote LoopStatus values
var repeatFromMPRIS = map[string]RepeatMode{
	"None":     RepeatNone,
	"Track":    RepeatTrack,
	"Playlist": RepeatAll,
}

var repeatToMPRIS = map[RepeatMode]string{
	RepeatNone:  "None",
	RepeatTrack: "Track",
	RepeatAll:   "Playlist",
}

// capsProperties lists the boolean properties backing each capability,
// in the order they are read.
var capsProperties = []struct {
	prop string
	cap  Capability
}{
	{PROP_CAN_GO_NEXT, CapNext},
	{PROP_CAN_GO_PREVIOUS, CapPrev},
	{PROP_CAN_PLAY, CapPlay},
	{PROP_CAN_PAUSE, CapPause},
	{PROP_CAN_SEEK, CapSeek},
}

// propertyEvents maps tracked properties to the notification they trigger.
var propertyEvents = []struct {
	prop  string
	event EventType
}{
	{PROP_PLAYBACK_STATUS, EventStatusChanged},
	{PROP_LOOP_STATUS, EventRepeatChanged},
	{PROP_SHUFFLE, EventShuffleChanged},
	{PROP_METADATA, EventTrackChanged},
}
