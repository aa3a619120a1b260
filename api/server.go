package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/b0bbywan/go-odio-lyrics/backend"
	"github.com/b0bbywan/go-odio-lyrics/config"
	"github.com/b0bbywan/go-odio-lyrics/logger"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	mux         *http.ServeMux
	config      *config.ApiConfig
	sse         bool
	broadcaster *backend.Broadcaster
}

func NewServer(cfg *config.ApiConfig, b *backend.Backend) *Server {
	if cfg == nil || !cfg.Enabled {
		return nil
	}

	var broadcaster *backend.Broadcaster
	if b != nil {
		broadcaster = b.Events()
	}

	server := &Server{
		mux:         http.NewServeMux(),
		config:      cfg,
		sse:         cfg.SSE && broadcaster != nil,
		broadcaster: broadcaster,
	}
	server.register(b)
	return server
}

// Handler returns the routes wrapped in the configured middlewares
func (s *Server) Handler() http.Handler {
	var handler http.Handler = s.mux
	if s.config.CORS != nil && len(s.config.CORS.Origins) > 0 {
		handler = corsMiddleware(s.config.CORS)(handler)
	}
	return handler
}

// Run serves every configured listen address until ctx is cancelled.
// Request contexts derive from ctx, so SSE streams end on shutdown.
func (s *Server) Run(ctx context.Context) error {
	handler := s.Handler()
	servers := make([]*http.Server, 0, len(s.config.Listens))
	for _, addr := range s.config.Listens {
		servers = append(servers, &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			BaseContext:       func(net.Listener) context.Context { return ctx },
		})
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Info("[api] %s shutdown: %v", srv.Addr, err)
			}
		}
	}()

	errCh := make(chan error, len(servers))
	var wg sync.WaitGroup
	for _, srv := range servers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Info("[api] listening on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
	}
	wg.Wait()
	close(errCh)

	// first failure wins
	return <-errCh
}

func (s *Server) register(b *backend.Backend) {
	if b == nil {
		return
	}

	// 404 on root and every unmatched path
	s.mux.HandleFunc("/", http.NotFound)

	s.registerServerRoutes(b)

	if b.MPRIS != nil {
		s.registerMPRISRoutes(b.MPRIS)
	}
	if b.Lyrics != nil {
		s.registerLyricsRoutes(b.Lyrics)
	}
	if b.MPRIS != nil && b.Lyrics != nil {
		s.mux.HandleFunc(
			"GET /players/{player}/lyrics",
			PlayerLyricsHandler(b.MPRIS, b.Lyrics),
		)
	}
}

// corsMiddleware answers preflight requests itself and sets the allow
// origin header for listed origins. "*" allows any origin.
func corsMiddleware(cfg *config.CORSConfig) func(http.Handler) http.Handler {
	wildcard := slices.Contains(cfg.Origins, "*")
	logger.Info("[api] CORS enabled for %v", cfg.Origins)

	allowOrigin := func(h http.Header, origin string) {
		switch {
		case origin == "":
		case wildcard:
			h.Set("Access-Control-Allow-Origin", "*")
		case slices.Contains(cfg.Origins, origin):
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowOrigin(w.Header(), r.Header.Get("Origin"))
			if r.Method != http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Set("Access-Control-Max-Age", "600")
			w.WriteHeader(http.StatusNoContent)
		})
	}
}
