package lyrics

import (
	"context"
	"fmt"

	"github.com/b0bbywan/go-odio-lyrics/config"
	"github.com/b0bbywan/go-odio-lyrics/events"
	"github.com/b0bbywan/go-odio-lyrics/logger"
)

// New builds the enabled sources. Returns nil when lyrics are disabled.
func New(cfg *config.LyricsConfig) (*Backend, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}

	var sources []Source
	if cfg.Netease != nil && cfg.Netease.Enabled {
		netease, err := NewNetease(cfg)
		if err != nil {
			return nil, err
		}
		sources = append(sources, netease)
	}

	b := NewWithSources(sources...)
	logger.Info("[lyrics] %d source(s) enabled", len(b.order))
	return b, nil
}

// NewWithSources builds a Backend from already constructed sources
func NewWithSources(sources ...Source) *Backend {
	b := &Backend{
		sources: make(map[string]Source, len(sources)),
		events:  make(chan events.Event, 16),
	}
	for _, s := range sources {
		if _, dup := b.sources[s.ID()]; dup {
			logger.Warn("[lyrics] duplicate source %s ignored", s.ID())
			continue
		}
		b.sources[s.ID()] = s
		b.order = append(b.order, s.ID())
	}
	return b
}

// Sources lists the enabled sources in registration order
func (b *Backend) Sources() []SourceInfo {
	infos := make([]SourceInfo, 0, len(b.order))
	for _, id := range b.order {
		infos = append(infos, SourceInfo{ID: id, Name: b.sources[id].Name()})
	}
	return infos
}

// Source returns the source registered under id
func (b *Backend) Source(id string) (Source, error) {
	s, ok := b.sources[id]
	if !ok {
		return nil, &SourceNotFoundError{ID: id}
	}
	return s, nil
}

func (b *Backend) Search(ctx context.Context, id, title, artist string) ([]Result, error) {
	s, err := b.Source(id)
	if err != nil {
		return nil, err
	}
	results, err := s.Search(ctx, title, artist)
	if err != nil {
		return nil, fmt.Errorf("%s search: %w", id, err)
	}
	return results, nil
}

func (b *Backend) Download(ctx context.Context, id, token string) ([]byte, error) {
	s, err := b.Source(id)
	if err != nil {
		return nil, err
	}
	data, err := s.Download(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%s download: %w", id, err)
	}
	b.notify(DownloadedData{Source: id, Token: token, Size: len(data)})
	return data, nil
}

// Events returns the channel of lyrics notifications
func (b *Backend) Events() <-chan events.Event {
	return b.events
}

func (b *Backend) notify(data DownloadedData) {
	e := events.Event{Type: events.TypeLyricsDownloaded, Data: data}
	select {
	case b.events <- e:
	default:
		logger.Warn("[lyrics] event channel full, dropping %s event", events.TypeLyricsDownloaded)
	}
}
