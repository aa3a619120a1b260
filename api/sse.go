package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/b0bbywan/go-odio-lyrics/backend"
	"github.com/b0bbywan/go-odio-lyrics/backend/mpris"
	"github.com/b0bbywan/go-odio-lyrics/events"
	"github.com/b0bbywan/go-odio-lyrics/logger"
)

const (
	defaultKeepAlive = 30 * time.Second
	minKeepAlive     = 10
	maxKeepAlive     = 120
)

// sseHandler streams broadcaster events to the client. Players already
// connected when the stream opens are announced first, so a late client
// sees the same state as one that was listening all along. p may be nil.
func sseHandler(b *backend.Broadcaster, p *mpris.Proxy) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := parseFilter(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		keepAliveDuration, err := parseKeepAlive(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")

		// subscribe before the replay so nothing falls in between
		ch := b.SubscribeFunc(filter)
		defer b.Unsubscribe(ch)

		if err := sendServerInfo(flusher, w, "connected"); err != nil {
			return
		}
		for _, e := range connectedEvents(p) {
			if filter != nil && !filter(e) {
				continue
			}
			if err := sendEvent(flusher, w, e); err != nil {
				return
			}
		}

		keepAlive := time.NewTimer(keepAliveDuration)
		defer keepAlive.Stop()

		for {
			select {
			case <-r.Context().Done():
				if err := sendServerInfo(flusher, w, "bye"); err != nil {
					logger.Debug("[sse] failed to say bye: %v", err)
				}
				return
			case <-keepAlive.C:
				if err := sendServerInfo(flusher, w, "love"); err != nil {
					logger.Warn("[sse] keepalive failed, closing: %v", err)
					return
				}
				keepAlive.Reset(keepAliveDuration)
			case e, ok := <-ch:
				if !ok {
					return
				}
				if err := sendEvent(flusher, w, e); err != nil {
					return
				}
				keepAlive.Reset(keepAliveDuration)
			}
		}
	}
}

func connectedEvents(p *mpris.Proxy) []events.Event {
	if p == nil {
		return nil
	}
	players := p.Players()
	out := make([]events.Event, 0, len(players))
	for _, info := range players {
		out = append(out, events.Event{
			Type: events.TypePlayerConnected,
			Data: mpris.PlayerEvent{Player: info.Name},
		})
	}
	return out
}

func sendServerInfo(flusher http.Flusher, w http.ResponseWriter, message string) error {
	return sendEvent(flusher, w, events.Event{Type: events.TypeServerInfo, Data: message})
}

func sendEvent(flusher http.Flusher, w http.ResponseWriter, e events.Event) error {
	data, err := json.Marshal(e.Data)
	if err != nil {
		logger.Warn("[sse] failed to marshal %s event: %v", e.Type, err)
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Type, data); err != nil {
		logger.Debug("[sse] write failed: %v", err)
		return err
	}
	flusher.Flush()
	return nil
}

// parseKeepAlive reads the optional ?keepalive=<seconds> query parameter.
// Default: 30s. Min: 10s. Max: 120s.
func parseKeepAlive(r *http.Request) (time.Duration, error) {
	raw := r.URL.Query().Get("keepalive")
	if raw == "" {
		return defaultKeepAlive, nil
	}
	secs, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("keepalive must be an integer (seconds)")
	}
	if secs < minKeepAlive || secs > maxKeepAlive {
		return 0, fmt.Errorf("keepalive must be between %d and %d seconds", minKeepAlive, maxKeepAlive)
	}
	return time.Duration(secs) * time.Second, nil
}

// parseFilter builds an event filter from the query:
//   - ?types=player.track,player.status  types to include
//   - ?backend=mpris,lyrics              backends to include, see events.BackendTypes
//   - ?exclude=player.position           types to exclude
//
// server.info always passes. Excluding it is an error.
func parseFilter(r *http.Request) (func(events.Event) bool, error) {
	q := r.URL.Query()

	include := splitList(q.Get("types"))
	for _, name := range splitList(q.Get("backend")) {
		include = append(include, events.BackendTypes[name]...)
	}
	if len(include) > 0 && !slices.Contains(include, events.TypeServerInfo) {
		include = append(include, events.TypeServerInfo)
	}

	exclude := splitList(q.Get("exclude"))
	if slices.Contains(exclude, events.TypeServerInfo) {
		return nil, errors.New("server.info cannot be excluded")
	}

	return events.NewFilter(include, exclude), nil
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
