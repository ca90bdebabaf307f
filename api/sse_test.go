package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSSECodeStreamEmitsOnChange(t *testing.T) {
	s := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	r := httptest.NewRequest(http.MethodGet, "/sse/code", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		s.ServeHTTP(w, r)
		close(done)
	}()

	// Give the stream time to emit its first (always-fires) poll, then
	// mutate code and give it time to observe the new stamp.
	time.Sleep(3 * pollInterval)
	if err := s.global.ChangeCode("+"); err != nil {
		t.Fatalf("ChangeCode: %v", err)
	}
	time.Sleep(3 * pollInterval)
	cancel()
	<-done

	if w.Header().Get("Content-Type") != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", w.Header().Get("Content-Type"))
	}
	body := w.Body.String()
	if strings.Count(body, "data: ") < 2 {
		t.Errorf("expected at least 2 SSE events (initial + change), got body %q", body)
	}
}

func TestSSEStopsOnContextCancel(t *testing.T) {
	s := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	r := httptest.NewRequest(http.MethodGet, "/sse/state", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		s.ServeHTTP(w, r)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("SSE handler did not return after context cancellation")
	}
}
