package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// sseField names one of the five pollable fields: one SSE task runs
// per subscribed field per client.
type sseField int

const (
	fieldCode sseField = iota
	fieldInput
	fieldOutput
	fieldSpeed
	fieldState
)

// pollInterval is how often an SSE task checks its field's
// change-timestamp.
const pollInterval = 40 * time.Millisecond

func (s *Server) sse(field sseField) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		// A zero-value last-sent is strictly before any stored
		// change-stamp, so the first poll always emits.
		var lastSent time.Time
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()

		ctx := r.Context()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stamp, value, ok := s.snapshot(field)
				if !ok || !stamp.After(lastSent) {
					continue
				}
				lastSent = time.Now()
				if err := writeSSEEvent(w, value); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}

func (s *Server) snapshot(field sseField) (stamp time.Time, value any, ok bool) {
	switch field {
	case fieldCode:
		return s.global.Changed.Code(), s.global.Code(), true
	case fieldInput:
		return s.global.Changed.Input(), s.global.Input(), true
	case fieldOutput:
		return s.global.Changed.Output(), s.global.Output(), true
	case fieldSpeed:
		return s.global.Changed.Speed(), s.global.Speed(), true
	case fieldState:
		return s.global.Changed.State(), s.global.GetState(), true
	default:
		return time.Time{}, nil, false
	}
}

func writeSSEEvent(w http.ResponseWriter, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", b)
	return err
}
