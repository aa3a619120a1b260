package backend

import (
	"context"
	"strings"

	"github.com/b0bbywan/go-odio-lyrics/backend/lyrics"
	"github.com/b0bbywan/go-odio-lyrics/backend/mpris"
	"github.com/b0bbywan/go-odio-lyrics/backend/zeroconf"
	"github.com/b0bbywan/go-odio-lyrics/config"
	"github.com/b0bbywan/go-odio-lyrics/logger"
)

type Backend struct {
	MPRIS    *mpris.Proxy
	Lyrics   *lyrics.Backend
	Zeroconf *zeroconf.Announcer

	events *Broadcaster
}

func New(ctx context.Context, cfg *config.Config) (*Backend, error) {
	var backend Backend

	m, err := mpris.New(ctx, cfg.MPRIS)
	if err != nil {
		return nil, err
	}
	backend.MPRIS = m

	l, err := lyrics.New(cfg.Lyrics)
	if err != nil {
		backend.Close()
		return nil, err
	}
	backend.Lyrics = l

	z, err := zeroconf.New(ctx, cfg.Zeroconf, backend.txtRecords()...)
	if err != nil {
		backend.Close()
		return nil, err
	}
	backend.Zeroconf = z

	backend.events = newBroadcasterFromBackend(ctx, &backend)
	return &backend, nil
}

// NewWithBackends assembles a Backend from already built parts.
// Either part may be nil.
func NewWithBackends(ctx context.Context, m *mpris.Proxy, l *lyrics.Backend) *Backend {
	b := &Backend{MPRIS: m, Lyrics: l}
	b.events = newBroadcasterFromBackend(ctx, b)
	return b
}

// txtRecords advertises the enabled backends to mDNS browsers
func (b *Backend) txtRecords() []string {
	var txt []string
	if b.MPRIS != nil {
		txt = append(txt, "mpris=1")
	}
	if b.Lyrics != nil {
		var ids []string
		for _, s := range b.Lyrics.Sources() {
			ids = append(ids, s.ID)
		}
		txt = append(txt, "lyrics="+strings.Join(ids, ","))
	}
	return txt
}

// Start publishes the service once the API is about to listen
func (b *Backend) Start() error {
	if b.Zeroconf != nil {
		if err := b.Zeroconf.Start(); err != nil {
			return err
		}
	}
	return nil
}

// Events returns the broadcaster merging every backend's events
func (b *Backend) Events() *Broadcaster {
	return b.events
}

func (b *Backend) Close() {
	if b.Zeroconf != nil {
		b.Zeroconf.Close()
	}
	if b.MPRIS != nil {
		b.MPRIS.Close()
	}
	logger.Debug("[backend] closed")
}
