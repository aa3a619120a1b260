package api

import (
	"encoding/json"
	"net/http"

	"github.com/b0bbywan/go-odio-lyrics/backend/lyrics"
	"github.com/b0bbywan/go-odio-lyrics/backend/mpris"
)

func ListPlayersHandler(p *mpris.Proxy) http.HandlerFunc {
	return JSONHandler(func(w http.ResponseWriter, r *http.Request) (any, error) {
		return p.ListActive()
	})
}

func ListActivatableHandler(p *mpris.Proxy) http.HandlerFunc {
	return JSONHandler(func(w http.ResponseWriter, r *http.Request) (any, error) {
		return p.ListActivatable()
	})
}

func ConnectedPlayersHandler(p *mpris.Proxy) http.HandlerFunc {
	return JSONHandler(func(w http.ResponseWriter, r *http.Request) (any, error) {
		return p.Players(), nil
	})
}

// withPlayer extracts the player name and calls next
func withPlayer(
	next func(w http.ResponseWriter, r *http.Request, name string),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		next(w, r, r.PathValue("player"))
	}
}

// withConnection resolves a connected player and calls next
func withConnection(
	p *mpris.Proxy,
	next func(w http.ResponseWriter, r *http.Request, c *mpris.Connection),
) http.HandlerFunc {
	return withPlayer(func(w http.ResponseWriter, r *http.Request, name string) {
		c, err := p.Player(name)
		if err != nil {
			writeError(w, err)
			return
		}
		next(w, r, c)
	})
}

// withBody parses and validates the JSON body, then calls next
func withBody[T any](
	validate func(*T) error,
	next func(w http.ResponseWriter, r *http.Request, req *T),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		var req T
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid JSON payload", http.StatusBadRequest)
			return
		}

		if validate != nil {
			if err := validate(&req); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
		}

		next(w, r, &req)
	}
}

// handleMPRISError answers 202 on success, or the mapped error status
func handleMPRISError(w http.ResponseWriter, err error) {
	if err == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	writeError(w, err)
}

func ConnectHandler(p *mpris.Proxy) http.HandlerFunc {
	return JSONHandler(func(w http.ResponseWriter, r *http.Request) (any, error) {
		c, err := p.Connect(r.PathValue("player"))
		if err != nil {
			return nil, err
		}
		return c.Snapshot(), nil
	})
}

func DisconnectHandler(p *mpris.Proxy) http.HandlerFunc {
	return withPlayer(func(w http.ResponseWriter, r *http.Request, name string) {
		handleMPRISError(w, p.Disconnect(name))
	})
}

func PlayerHandler(p *mpris.Proxy) http.HandlerFunc {
	return JSONHandler(func(w http.ResponseWriter, r *http.Request) (any, error) {
		c, err := p.Player(r.PathValue("player"))
		if err != nil {
			return nil, err
		}
		return c.Snapshot(), nil
	})
}

func PlayHandler(p *mpris.Proxy) http.HandlerFunc {
	return withConnection(p, func(w http.ResponseWriter, r *http.Request, c *mpris.Connection) {
		handleMPRISError(w, c.Play())
	})
}

func PauseHandler(p *mpris.Proxy) http.HandlerFunc {
	return withConnection(p, func(w http.ResponseWriter, r *http.Request, c *mpris.Connection) {
		handleMPRISError(w, c.Pause())
	})
}

func StopHandler(p *mpris.Proxy) http.HandlerFunc {
	return withConnection(p, func(w http.ResponseWriter, r *http.Request, c *mpris.Connection) {
		handleMPRISError(w, c.Stop())
	})
}

func NextHandler(p *mpris.Proxy) http.HandlerFunc {
	return withConnection(p, func(w http.ResponseWriter, r *http.Request, c *mpris.Connection) {
		handleMPRISError(w, c.Next())
	})
}

func PreviousHandler(p *mpris.Proxy) http.HandlerFunc {
	return withConnection(p, func(w http.ResponseWriter, r *http.Request, c *mpris.Connection) {
		handleMPRISError(w, c.Previous())
	})
}

func validateRepeat(req *mpris.RepeatRequest) error {
	if _, ok := mpris.ParseRepeatMode(req.Repeat); !ok {
		return &validationError{"repeat must be one of none, track, all"}
	}
	return nil
}

func validateVolume(req *mpris.VolumeRequest) error {
	if req.Volume < 0 {
		return &validationError{"volume must not be negative"}
	}
	return nil
}

// SetRepeatHandler and SetShuffleHandler always answer 202: the facade
// logs failed writes instead of returning them.
func SetRepeatHandler(p *mpris.Proxy) http.HandlerFunc {
	return withConnection(p, func(w http.ResponseWriter, r *http.Request, c *mpris.Connection) {
		withBody(validateRepeat, func(w http.ResponseWriter, r *http.Request, req *mpris.RepeatRequest) {
			mode, _ := mpris.ParseRepeatMode(req.Repeat)
			c.SetRepeat(mode)
			w.WriteHeader(http.StatusAccepted)
		})(w, r)
	})
}

func SetShuffleHandler(p *mpris.Proxy) http.HandlerFunc {
	return withConnection(p, func(w http.ResponseWriter, r *http.Request, c *mpris.Connection) {
		withBody(nil, func(w http.ResponseWriter, r *http.Request, req *mpris.ShuffleRequest) {
			c.SetShuffle(req.Shuffle)
			w.WriteHeader(http.StatusAccepted)
		})(w, r)
	})
}

func SetVolumeHandler(p *mpris.Proxy) http.HandlerFunc {
	return withConnection(p, func(w http.ResponseWriter, r *http.Request, c *mpris.Connection) {
		withBody(validateVolume, func(w http.ResponseWriter, r *http.Request, req *mpris.VolumeRequest) {
			handleMPRISError(w, c.SetVolume(req.Volume))
		})(w, r)
	})
}

func SetPositionHandler(p *mpris.Proxy) http.HandlerFunc {
	return withConnection(p, func(w http.ResponseWriter, r *http.Request, c *mpris.Connection) {
		withBody(nil, func(w http.ResponseWriter, r *http.Request, req *mpris.PositionRequest) {
			handleMPRISError(w, c.SetPosition(req.Position))
		})(w, r)
	})
}

// PlayerLyricsHandler searches lyrics for the track currently loaded in a
// connected player. The source defaults to the first enabled one.
func PlayerLyricsHandler(p *mpris.Proxy, l *lyrics.Backend) http.HandlerFunc {
	return JSONHandler(func(w http.ResponseWriter, r *http.Request) (any, error) {
		c, err := p.Player(r.PathValue("player"))
		if err != nil {
			return nil, err
		}
		meta, err := c.Metadata()
		if err != nil {
			return nil, err
		}
		if meta.Title == "" {
			return nil, lyrics.ErrNoLyrics
		}

		source := r.URL.Query().Get("source")
		if source == "" {
			sources := l.Sources()
			if len(sources) == 0 {
				return nil, &lyrics.SourceNotFoundError{}
			}
			source = sources[0].ID
		}
		return l.Search(r.Context(), source, meta.Title, meta.Artist())
	})
}
