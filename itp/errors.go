package itp

import "errors"

// Error kinds surfaced to API clients, per the fixed plain-text
// message / status-code mapping the façade applies.
var (
	ErrInvalidNesting = errors.New("invalid nesting")
	ErrCodeChanged    = errors.New("code cannot be changed while running")
	ErrInputChanged   = errors.New("input change is not consistent with bytes already consumed")
	ErrUncontrolled   = errors.New("interpreter is uncontrolled")
	ErrRunning        = errors.New("interpreter is already running")
	ErrNotRunning     = errors.New("interpreter is not running")
	ErrStillStarting  = errors.New("interpreter is still starting")
	ErrMissingCode    = errors.New("no code loaded")
	ErrInvalidSpeed   = errors.New("speed must be an integer between 1 and 100")
)
