package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/b0bbywan/go-odio-lyrics/backend/lyrics"
	"github.com/b0bbywan/go-odio-lyrics/backend/mpris"
)

func TestJSONHandler(t *testing.T) {
	tests := []struct {
		name     string
		data     any
		err      error
		wantCode int
		wantBody string
	}{
		{"payload", []mpris.PlayerInfo{{Name: "vlc"}}, nil, http.StatusOK, `[{"name":"vlc"}]`},
		{"empty list", []lyrics.SourceInfo{}, nil, http.StatusOK, `[]`},
		{"error", nil, &mpris.PlayerNotFoundError{Name: "org.mpris.MediaPlayer2.vlc"}, http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := JSONHandler(func(http.ResponseWriter, *http.Request) (any, error) {
				return tt.data, tt.err
			})
			w := httptest.NewRecorder()
			h(w, httptest.NewRequest(http.MethodGet, "/players", nil))

			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantCode)
			}
			if tt.err != nil {
				return
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}
			if got := strings.TrimSpace(w.Body.String()); got != tt.wantBody {
				t.Errorf("body = %s, want %s", got, tt.wantBody)
			}
		})
	}
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		wantStatusCode int
		wantBodyMatch  string
	}{
		{
			name:           "invalid player name",
			err:            &mpris.InvalidPlayerNameError{Name: "1x", Reason: "element starts with a digit"},
			wantStatusCode: http.StatusBadRequest,
			wantBodyMatch:  "invalid player name",
		},
		{
			name:           "facade validation",
			err:            &mpris.ValidationError{Field: "position", Message: "must not be negative"},
			wantStatusCode: http.StatusBadRequest,
			wantBodyMatch:  "position: must not be negative",
		},
		{
			name:           "request validation",
			err:            &validationError{"missing title"},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "foreign download token",
			err:            fmt.Errorf("netease download: %w", &lyrics.InvalidTokenError{Token: "http://evil"}),
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "player not on the bus",
			err:            fmt.Errorf("control interface: %w", &mpris.PlayerNotFoundError{Name: "org.mpris.MediaPlayer2.vlc"}),
			wantStatusCode: http.StatusNotFound,
			wantBodyMatch:  "player not found",
		},
		{
			name:           "player released",
			err:            mpris.ErrNotConnected,
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:           "unknown lyric source",
			err:            &lyrics.SourceNotFoundError{ID: "nope"},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:           "no lyrics",
			err:            fmt.Errorf("netease download: %w", lyrics.ErrNoLyrics),
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:           "upstream failure",
			err:            fmt.Errorf("netease search: %w", &lyrics.HTTPStatusError{Code: 503}),
			wantStatusCode: http.StatusBadGateway,
			wantBodyMatch:  "503",
		},
		{
			name:           "anything else",
			err:            errors.New("boom"),
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeError(w, tt.err)

			if w.Code != tt.wantStatusCode {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatusCode)
			}
			if tt.wantBodyMatch != "" && !strings.Contains(w.Body.String(), tt.wantBodyMatch) {
				t.Errorf("body = %q, want to contain %q", w.Body.String(), tt.wantBodyMatch)
			}
		})
	}
}

func TestHandleMPRISErrorAccepted(t *testing.T) {
	w := httptest.NewRecorder()
	handleMPRISError(w, nil)
	if w.Code != http.StatusAccepted {
		t.Errorf("status = %d, want 202", w.Code)
	}
}
