package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/niklas-simon/brainfuck-processing-unit/itp"
)

// Server wires itp.Global into an http.Handler. It holds no state of
// its own beyond the path to the static example catalogue — every
// mutation goes through Global.
type Server struct {
	global      *itp.Global
	examplePath string
	mux         *http.ServeMux
}

// NewServer builds the full route table. examplePath is the file
// served verbatim at GET /api/examples.
func NewServer(g *itp.Global, examplePath string) *Server {
	s := &Server{global: g, examplePath: examplePath, mux: http.NewServeMux()}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /run/code", s.getCode)
	s.mux.HandleFunc("PUT /run/code", s.putCode)
	s.mux.HandleFunc("GET /run/input", s.getInput)
	s.mux.HandleFunc("PUT /run/input", s.putInput)
	s.mux.HandleFunc("GET /run/output", s.getOutput)
	s.mux.HandleFunc("GET /run/state", s.getState)
	s.mux.HandleFunc("GET /run/speed", s.getSpeed)
	s.mux.HandleFunc("PUT /run/speed", s.putSpeed)

	s.mux.HandleFunc("PUT /ctrl", s.enableControl)
	s.mux.HandleFunc("DELETE /ctrl", s.disableControl)
	s.mux.HandleFunc("POST /ctrl/start", s.start)
	s.mux.HandleFunc("POST /ctrl/pause", s.pause)
	s.mux.HandleFunc("POST /ctrl/step", s.step)
	s.mux.HandleFunc("POST /ctrl/reset", s.reset)

	s.mux.HandleFunc("GET /sse/code", s.sse(fieldCode))
	s.mux.HandleFunc("GET /sse/input", s.sse(fieldInput))
	s.mux.HandleFunc("GET /sse/output", s.sse(fieldOutput))
	s.mux.HandleFunc("GET /sse/speed", s.sse(fieldSpeed))
	s.mux.HandleFunc("GET /sse/state", s.sse(fieldState))

	s.mux.HandleFunc("GET /examples", s.examples)
}

func (s *Server) getCode(w http.ResponseWriter, r *http.Request) {
	io.WriteString(w, s.global.Code())
}

func (s *Server) putCode(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.global.ChangeCode(string(body)); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) getInput(w http.ResponseWriter, r *http.Request) {
	io.WriteString(w, s.global.Input())
}

func (s *Server) putInput(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.global.ChangeInput(string(body)); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) getOutput(w http.ResponseWriter, r *http.Request) {
	io.WriteString(w, s.global.Output())
}

func (s *Server) getState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.global.GetState())
}

func (s *Server) getSpeed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.global.Speed())
}

func (s *Server) putSpeed(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	n, err := strconv.Atoi(string(body))
	if err != nil {
		writeErr(w, itp.ErrInvalidSpeed)
		return
	}
	if err := s.global.SetSpeed(n); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) enableControl(w http.ResponseWriter, r *http.Request) {
	s.global.EnableControl()
	w.WriteHeader(http.StatusOK)
}

func (s *Server) disableControl(w http.ResponseWriter, r *http.Request) {
	s.global.DisableControl()
	w.WriteHeader(http.StatusOK)
}

func (s *Server) start(w http.ResponseWriter, r *http.Request) {
	if err := s.global.Start(); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) pause(w http.ResponseWriter, r *http.Request) {
	if err := s.global.Pause(); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) step(w http.ResponseWriter, r *http.Request) {
	n := 1
	body, _ := io.ReadAll(r.Body)
	if len(body) > 0 {
		v, err := strconv.Atoi(string(body))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		n = v
	}
	if err := s.global.Step(n); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	if err := s.global.Reset(); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) examples(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, s.examplePath)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
