package mpris

import (
	"strings"

	"github.com/godbus/dbus/v5"

	idbus "github.com/b0bbywan/go-odio-lyrics/backend/internal/dbus"
)

// Metadata describes the current track. Length is in milliseconds.
type Metadata struct {
	TrackID     string   `json:"track_id,omitempty"`
	Title       string   `json:"title,omitempty"`
	Artists     []string `json:"artists,omitempty"`
	Album       string   `json:"album,omitempty"`
	ArtURL      string   `json:"art_url,omitempty"`
	URL         string   `json:"url,omitempty"`
	TrackNumber int64    `json:"track_number,omitempty"`
	Length      int64    `json:"length,omitempty"`
}

// MetadataFromMPRIS builds Metadata from an MPRIS Metadata dictionary.
// Unknown keys are ignored, missing ones stay zero.
func MetadataFromMPRIS(props map[string]dbus.Variant) Metadata {
	return Metadata{
		TrackID:     idbus.MapString(props, META_TRACK_ID),
		Title:       idbus.MapString(props, META_TITLE),
		Artists:     idbus.MapStrings(props, META_ARTIST),
		Album:       idbus.MapString(props, META_ALBUM),
		ArtURL:      idbus.MapString(props, META_ART_URL),
		URL:         idbus.MapString(props, META_URL),
		TrackNumber: idbus.MapInt64(props, META_TRACK_NUMBER),
		Length:      idbus.MapInt64(props, META_LENGTH) / 1000,
	}
}

// Artist joins every artist name
func (m Metadata) Artist() string {
	return strings.Join(m.Artists, ", ")
}

// HasTrack reports whether the metadata names a real track
func (m Metadata) HasTrack() bool {
	return m.TrackID != "" && m.TrackID != MPRIS_NO_TRACK
}
