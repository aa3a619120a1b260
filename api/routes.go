package api

import (
	"net/http"

	"github.com/b0bbywan/go-odio-lyrics/backend"
	"github.com/b0bbywan/go-odio-lyrics/backend/lyrics"
	"github.com/b0bbywan/go-odio-lyrics/backend/mpris"
	"github.com/b0bbywan/go-odio-lyrics/logger"
)

func (s *Server) registerServerRoutes(b *backend.Backend) {
	s.mux.HandleFunc(
		"GET /server",
		JSONHandler(func(w http.ResponseWriter, r *http.Request) (any, error) {
			return b.Info(), nil
		}),
	)

	// SSE event stream
	if s.sse {
		s.mux.HandleFunc("GET /events", sseHandler(s.broadcaster, b.MPRIS))
		logger.Info("[api] SSE route registered at /events")
	}
}

func (s *Server) registerMPRISRoutes(p *mpris.Proxy) {
	s.mux.HandleFunc(
		"GET /players",
		ListPlayersHandler(p),
	)
	s.mux.HandleFunc(
		"GET /players/activatable",
		ListActivatableHandler(p),
	)
	s.mux.HandleFunc(
		"GET /players/connected",
		ConnectedPlayersHandler(p),
	)
	s.mux.HandleFunc(
		"GET /players/{player}",
		PlayerHandler(p),
	)
	s.mux.HandleFunc(
		"POST /players/{player}/connect",
		ConnectHandler(p),
	)
	s.mux.HandleFunc(
		"POST /players/{player}/disconnect",
		DisconnectHandler(p),
	)
	s.mux.HandleFunc(
		"POST /players/{player}/play",
		PlayHandler(p),
	)
	s.mux.HandleFunc(
		"POST /players/{player}/pause",
		PauseHandler(p),
	)
	s.mux.HandleFunc(
		"POST /players/{player}/stop",
		StopHandler(p),
	)
	s.mux.HandleFunc(
		"POST /players/{player}/next",
		NextHandler(p),
	)
	s.mux.HandleFunc(
		"POST /players/{player}/previous",
		PreviousHandler(p),
	)
	s.mux.HandleFunc(
		"POST /players/{player}/repeat",
		SetRepeatHandler(p),
	)
	s.mux.HandleFunc(
		"POST /players/{player}/shuffle",
		SetShuffleHandler(p),
	)
	s.mux.HandleFunc(
		"POST /players/{player}/volume",
		SetVolumeHandler(p),
	)
	s.mux.HandleFunc(
		"POST /players/{player}/position",
		SetPositionHandler(p),
	)
}

func (s *Server) registerLyricsRoutes(l *lyrics.Backend) {
	s.mux.HandleFunc(
		"GET /lyrics",
		ListSourcesHandler(l),
	)
	s.mux.HandleFunc(
		"GET /lyrics/{source}/search",
		SearchLyricsHandler(l),
	)
	s.mux.HandleFunc(
		"POST /lyrics/{source}/download",
		DownloadLyricsHandler(l),
	)
}
