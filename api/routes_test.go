package api

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/niklas-simon/brainfuck-processing-unit/itp"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "examples.json")
	if err := os.WriteFile(path, []byte(`[{"name":"cat","code":",.","description":"echo"}]`), 0o644); err != nil {
		t.Fatalf("writing example file: %v", err)
	}
	return NewServer(itp.NewGlobal(), path)
}

func doReq(s *Server, method, path, body string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	s.ServeHTTP(w, r)
	return w
}

func TestPutCodeThenGetCode(t *testing.T) {
	s := newTestServer(t)

	w := doReq(s, http.MethodPut, "/run/code", "++.")
	if w.Code != http.StatusOK {
		t.Fatalf("PUT /run/code: status = %d, want 200", w.Code)
	}

	w = doReq(s, http.MethodGet, "/run/code", "")
	if w.Code != http.StatusOK || w.Body.String() != "++." {
		t.Fatalf("GET /run/code: status=%d body=%q", w.Code, w.Body.String())
	}
}

func TestPutCodeRejectsBadNesting(t *testing.T) {
	s := newTestServer(t)
	w := doReq(s, http.MethodPut, "/run/code", "[[")
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("PUT /run/code with bad nesting: status = %d, want 422", w.Code)
	}
}

func TestPutSpeedOutOfRange(t *testing.T) {
	s := newTestServer(t)
	w := doReq(s, http.MethodPut, "/run/speed", "0")
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("PUT /run/speed(0): status = %d, want 422", w.Code)
	}

	w = doReq(s, http.MethodPut, "/run/speed", "42")
	if w.Code != http.StatusOK {
		t.Fatalf("PUT /run/speed(42): status = %d, want 200", w.Code)
	}
	w = doReq(s, http.MethodGet, "/run/speed", "")
	if strings.TrimSpace(w.Body.String()) != "42" {
		t.Fatalf("GET /run/speed = %q, want 42", w.Body.String())
	}
}

func TestPauseWithoutRunningFails(t *testing.T) {
	s := newTestServer(t)
	w := doReq(s, http.MethodPost, "/ctrl/pause", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("POST /ctrl/pause from idle: status = %d, want 400", w.Code)
	}
}

func TestStartFromIdleSucceeds(t *testing.T) {
	s := newTestServer(t)
	w := doReq(s, http.MethodPost, "/ctrl/start", "")
	if w.Code != http.StatusOK {
		t.Fatalf("POST /ctrl/start from idle: status = %d, want 200", w.Code)
	}
}

func TestGetStateIdleShape(t *testing.T) {
	s := newTestServer(t)
	w := doReq(s, http.MethodGet, "/run/state", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /run/state: status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"control_state":"idle"`) {
		t.Errorf("GET /run/state body = %s, want control_state idle", w.Body.String())
	}
}

func TestExamplesServedVerbatim(t *testing.T) {
	s := newTestServer(t)
	w := doReq(s, http.MethodGet, "/examples", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /examples: status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"cat"`) {
		t.Errorf("GET /examples body = %s, want catalogue contents", w.Body.String())
	}
}
