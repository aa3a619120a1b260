package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/v22/daemon"

	"github.com/b0bbywan/go-odio-lyrics/api"
	"github.com/b0bbywan/go-odio-lyrics/backend"
	"github.com/b0bbywan/go-odio-lyrics/config"
	"github.com/b0bbywan/go-odio-lyrics/logger"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		logger.Fatal("[%s] Failed to load config: %v", config.AppName, err)
	}
	config.ApplyLogLevels(cfg)

	// Only log levels are applied live, everything else needs a restart
	config.Watch(func(next *config.Config) {
		config.ApplyLogLevels(next)
		logger.Info("[%s] log levels reloaded", config.AppName)
	})

	// Global context for the entire application
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b, err := backend.New(ctx, cfg)
	if err != nil {
		logger.Fatal("[%s] Backend initialization failed: %v", config.AppName, err)
	}

	if err := b.Start(); err != nil {
		logger.Fatal("[%s] Backend start failed: %v", config.AppName, err)
	}

	server := api.NewServer(cfg.Api, b)

	// Channel to synchronize shutdown
	shutdownDone := make(chan struct{})
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		logger.Info("[%s] Shutdown signal received, stopping server...", config.AppName)
		notify(daemon.SdNotifyStopping)

		// stops the http listeners and every player poller
		cancel()
		b.Close()

		close(shutdownDone)
	}()

	notify(daemon.SdNotifyReady)
	logger.Info("[%s] started", config.AppName)
	if server != nil {
		if err := server.Run(ctx); err != nil && err != http.ErrServerClosed {
			logger.Error("[%s] http server error: %v", config.AppName, err)
		}
	}

	<-shutdownDone
	logger.Info("[%s] stopped", config.AppName)
}

// notify reports state to systemd when running as a notify unit
func notify(state string) {
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		logger.Warn("[%s] sd_notify %s failed: %v", config.AppName, state, err)
		return
	}
	if sent {
		logger.Debug("[%s] sd_notify %s", config.AppName, state)
	}
}
