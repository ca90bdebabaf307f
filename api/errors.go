// Package api is the thin HTTP/SSE façade over itp.Global: request
// routing, body (de)serialisation and error-kind-to-status mapping
// only. No core semantics live here.
package api

import (
	"errors"
	"net/http"

	"github.com/niklas-simon/brainfuck-processing-unit/itp"
)

// statusFor maps a core error to the fixed HTTP status the façade
// replies with. Unknown errors are a server bug, not a client error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, itp.ErrInvalidNesting),
		errors.Is(err, itp.ErrCodeChanged),
		errors.Is(err, itp.ErrInputChanged),
		errors.Is(err, itp.ErrInvalidSpeed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, itp.ErrUncontrolled),
		errors.Is(err, itp.ErrRunning),
		errors.Is(err, itp.ErrNotRunning),
		errors.Is(err, itp.ErrStillStarting),
		errors.Is(err, itp.ErrMissingCode):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeErr(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), statusFor(err))
}
