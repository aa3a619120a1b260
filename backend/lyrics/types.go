package lyrics

import (
	"context"

	"github.com/b0bbywan/go-odio-lyrics/events"
)

// Source searches a remote catalog and downloads lyric text
type Source interface {
	ID() string
	Name() string
	// Search returns candidates, exact title matches first.
	Search(ctx context.Context, title, artist string) ([]Result, error)
	// Download returns the lyric text behind a Result's token.
	Download(ctx context.Context, token string) ([]byte, error)
}

// Result is a single search candidate
type Result struct {
	Title         string `json:"title"`
	Artist        string `json:"artist"`
	Album         string `json:"album"`
	SourceID      string `json:"source_id"`
	DownloadToken string `json:"download_token"`
}

// SourceInfo describes an enabled source
type SourceInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DownloadedData is the payload of a lyrics.downloaded event
type DownloadedData struct {
	Source string `json:"source"`
	Token  string `json:"token"`
	Size   int    `json:"size"`
}

// Backend owns the enabled lyric sources, keyed by id.
// Sources are fixed at construction.
type Backend struct {
	sources map[string]Source
	order   []string

	events chan events.Event
}

// Request types for the API

type DownloadRequest struct {
	Token string `json:"token"`
}
