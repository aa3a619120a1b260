package api

import (
	"net/http"
	"strings"

	"github.com/b0bbywan/go-odio-lyrics/backend/lyrics"
	"github.com/b0bbywan/go-odio-lyrics/logger"
)

func ListSourcesHandler(l *lyrics.Backend) http.HandlerFunc {
	return JSONHandler(func(w http.ResponseWriter, r *http.Request) (any, error) {
		return l.Sources(), nil
	})
}

func SearchLyricsHandler(l *lyrics.Backend) http.HandlerFunc {
	return JSONHandler(func(w http.ResponseWriter, r *http.Request) (any, error) {
		q := r.URL.Query()
		title := strings.TrimSpace(q.Get("title"))
		if title == "" {
			return nil, &validationError{"missing title"}
		}
		return l.Search(r.Context(), r.PathValue("source"), title, strings.TrimSpace(q.Get("artist")))
	})
}

func validateToken(req *lyrics.DownloadRequest) error {
	if req.Token == "" {
		return &validationError{"missing token"}
	}
	return nil
}

// DownloadLyricsHandler answers the raw lyric text
func DownloadLyricsHandler(l *lyrics.Backend) http.HandlerFunc {
	return withBody(validateToken, func(w http.ResponseWriter, r *http.Request, req *lyrics.DownloadRequest) {
		data, err := l.Download(r.Context(), r.PathValue("source"), req.Token)
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if _, err := w.Write(data); err != nil {
			logger.Warn("[api] failed to write lyrics: %v", err)
		}
	})
}
