package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/b0bbywan/go-odio-lyrics/backend/lyrics"
	"github.com/b0bbywan/go-odio-lyrics/backend/mpris"
)

func JSONHandler(h func(http.ResponseWriter, *http.Request) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := h(w, r)
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(data); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

func writeError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), errorStatus(err))
}

// errorStatus maps backend errors to an HTTP status code
func errorStatus(err error) int {
	var (
		invalidName    *mpris.InvalidPlayerNameError
		invalidParam   *mpris.ValidationError
		invalidRequest *validationError
		invalidToken   *lyrics.InvalidTokenError
		playerNotFound *mpris.PlayerNotFoundError
		sourceNotFound *lyrics.SourceNotFoundError
		upstream       *lyrics.HTTPStatusError
	)

	switch {
	case errors.As(err, &invalidName),
		errors.As(err, &invalidParam),
		errors.As(err, &invalidRequest),
		errors.As(err, &invalidToken):
		return http.StatusBadRequest
	case errors.As(err, &playerNotFound),
		errors.Is(err, mpris.ErrNotConnected),
		errors.As(err, &sourceNotFound),
		errors.Is(err, lyrics.ErrNoLyrics):
		return http.StatusNotFound
	case errors.As(err, &upstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type validationError struct {
	message string
}

func (e *validationError) Error() string {
	return e.message
}
