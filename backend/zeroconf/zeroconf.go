package zeroconf

import (
	"context"
	"errors"
	"sync"

	"github.com/grandcat/zeroconf"

	"github.com/b0bbywan/go-odio-lyrics/config"
	"github.com/b0bbywan/go-odio-lyrics/logger"
)

var ErrAlreadyPublished = errors.New("zeroconf service already published")

// Announcer publishes the HTTP API over mDNS
type Announcer struct {
	config *config.ZeroConfig
	txt    []string

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	server *zeroconf.Server
}

// New returns an Announcer ready to publish, with extra appended to the
// configured TXT records. The service is only announced on the interfaces
// the API listens on, so a loopback-only API gets nil.
func New(ctx context.Context, cfg *config.ZeroConfig, extra ...string) (*Announcer, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}
	if len(cfg.Listen) == 0 {
		logger.Info("[zeroconf] API not reachable from the network, not announcing")
		return nil, nil
	}

	txt := make([]string, 0, len(cfg.TxtRecords)+len(extra))
	txt = append(txt, cfg.TxtRecords...)
	txt = append(txt, extra...)

	ctx, cancel := context.WithCancel(ctx)
	return &Announcer{
		config: cfg,
		txt:    txt,
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Text returns the TXT records the service is published with
func (a *Announcer) Text() []string {
	return a.txt
}

// Start publishes the service until the context is cancelled or Close is called
func (a *Announcer) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		return ErrAlreadyPublished
	}
	if a.ctx.Err() != nil {
		return a.ctx.Err()
	}

	server, err := zeroconf.Register(
		a.config.InstanceName,
		a.config.ServiceType,
		a.config.Domain,
		a.config.Port,
		a.txt,
		a.config.Listen,
	)
	if err != nil {
		return err
	}
	a.server = server
	logger.Info("[zeroconf] %s published as %s on port %d", a.config.InstanceName, a.config.ServiceType, a.config.Port)

	go func() {
		<-a.ctx.Done()
		a.Close()
	}()
	return nil
}

// Close withdraws the service. Safe to call more than once.
func (a *Announcer) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
		logger.Debug("[zeroconf] %s withdrawn", a.config.InstanceName)
	}
	if a.cancel != nil {
		a.cancel()
	}
}
