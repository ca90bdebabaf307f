package itp

import (
	"sync"
	"time"
)

// HWState reflects what the physical interpreter is currently
// signalling on its I/O lines. Used only for the UI.
type HWState int

const (
	Regular HWState = iota
	WaitInput
	OutputReady
)

func (s HWState) String() string {
	switch s {
	case WaitInput:
		return "wait_input"
	case OutputReady:
		return "output_ready"
	default:
		return "default"
	}
}

// ControlState is the four-mode control state machine.
type ControlState int

const (
	CtrlIdle ControlState = iota
	CtrlStartup
	CtrlRunning
	CtrlUncontrolled
)

func (c ControlState) String() string {
	switch c {
	case CtrlStartup:
		return "startup"
	case CtrlRunning:
		return "running"
	case CtrlUncontrolled:
		return "uncontrolled"
	default:
		return "idle"
	}
}

// ItpState is the tagged value a Global holds for its control state:
// a Run and paused flag when Running, an input counter when
// Uncontrolled, nothing otherwise.
type ItpState struct {
	Control ControlState

	Run    *Run
	Paused bool

	UncontrolledIC int
}

// ChangeTimes holds one last-mutation instant per mutable public
// field, each behind its own lock so readers of one field never
// block on writers of another.
type ChangeTimes struct {
	speedMu sync.RWMutex
	speed   time.Time

	codeMu sync.RWMutex
	code   time.Time

	inputMu sync.RWMutex
	input   time.Time

	outputMu sync.RWMutex
	output   time.Time

	stateMu sync.RWMutex
	state   time.Time
}

// newChangeTimes stamps all five fields to the current instant, so an
// SSE subscriber that connects before any mutation still observes the
// field's current value on its first poll (a zero-value stamp would
// never be after a client's zero-value lastSent).
func newChangeTimes() ChangeTimes {
	t := now()
	return ChangeTimes{
		speed:  t,
		code:   t,
		input:  t,
		output: t,
		state:  t,
	}
}

func (c *ChangeTimes) stampSpeed()  { c.speedMu.Lock(); c.speed = now(); c.speedMu.Unlock() }
func (c *ChangeTimes) stampCode()   { c.codeMu.Lock(); c.code = now(); c.codeMu.Unlock() }
func (c *ChangeTimes) stampInput()  { c.inputMu.Lock(); c.input = now(); c.inputMu.Unlock() }
func (c *ChangeTimes) stampOutput() { c.outputMu.Lock(); c.output = now(); c.outputMu.Unlock() }
func (c *ChangeTimes) stampState()  { c.stateMu.Lock(); c.state = now(); c.stateMu.Unlock() }

func (c *ChangeTimes) Speed() time.Time { c.speedMu.RLock(); defer c.speedMu.RUnlock(); return c.speed }
func (c *ChangeTimes) Code() time.Time  { c.codeMu.RLock(); defer c.codeMu.RUnlock(); return c.code }
func (c *ChangeTimes) Input() time.Time { c.inputMu.RLock(); defer c.inputMu.RUnlock(); return c.input }
func (c *ChangeTimes) Output() time.Time {
	c.outputMu.RLock()
	defer c.outputMu.RUnlock()
	return c.output
}
func (c *ChangeTimes) State() time.Time { c.stateMu.RLock(); defer c.stateMu.RUnlock(); return c.state }

func now() time.Time { return time.Now() }

// Global is the process-wide coordination record. One instance is
// created at process start and lives until exit.
type Global struct {
	speedMu sync.RWMutex
	speed   int

	codeMu sync.RWMutex
	code   string

	inputMu sync.RWMutex
	input   string

	outputMu sync.RWMutex
	output   string

	hwStateMu sync.RWMutex
	hwState   HWState

	stateMu sync.RWMutex
	state   ItpState

	Changed ChangeTimes

	hwCmds chan HWCmd
}

// NewGlobal returns an idle Global with speed 50, empty code/input,
// and a buffered HWCmd channel ready for a HWExec to drain.
func NewGlobal() *Global {
	g := &Global{
		speed:   50,
		hwCmds:  make(chan HWCmd, 64),
		Changed: newChangeTimes(),
	}
	g.state = ItpState{Control: CtrlIdle}
	return g
}

// Commands returns the channel HWExec reads from. Posts from the API
// layer are fire-and-forget.
func (g *Global) Commands() <-chan HWCmd { return g.hwCmds }

func (g *Global) post(cmd HWCmd) { g.hwCmds <- cmd }

// ChangeCode validates and stores new source text.
func (g *Global) ChangeCode(text string) error {
	g.stateMu.Lock()
	ctrl := g.state.Control
	g.stateMu.Unlock()

	switch ctrl {
	case CtrlStartup, CtrlRunning:
		return ErrCodeChanged
	}

	if !IsNestingCorrect(text) {
		return ErrInvalidNesting
	}

	g.codeMu.Lock()
	g.code = text
	g.codeMu.Unlock()
	g.Changed.stampCode()

	if ctrl == CtrlUncontrolled {
		g.post(HWCmd{Kind: CmdProgram, Code: text})
	}
	return nil
}

func (g *Global) Code() string {
	g.codeMu.RLock()
	defer g.codeMu.RUnlock()
	return g.code
}

// ChangeInput replaces the stored input text. While Running, the new
// text must agree byte-for-byte with the current text up to the
// twin's input counter and be at least that long.
func (g *Global) ChangeInput(text string) error {
	g.stateMu.Lock()
	defer g.stateMu.Unlock()

	if g.state.Control == CtrlRunning && g.state.Run != nil {
		ic := g.state.Run.IC()
		cur := g.Input()
		if len(text) < ic || text[:ic] != cur[:ic] {
			return ErrInputChanged
		}
		g.state.Run.SetInput([]byte(text))
	}

	g.inputMu.Lock()
	g.input = text
	g.inputMu.Unlock()
	g.Changed.stampInput()
	return nil
}

func (g *Global) Input() string {
	g.inputMu.RLock()
	defer g.inputMu.RUnlock()
	return g.input
}

func (g *Global) Output() string {
	g.outputMu.RLock()
	defer g.outputMu.RUnlock()
	return g.output
}

func (g *Global) setOutput(b []byte) {
	g.outputMu.Lock()
	g.output = string(b)
	g.outputMu.Unlock()
	g.Changed.stampOutput()
}

// SetSpeed accepts only integers 1..=100.
func (g *Global) SetSpeed(n int) error {
	if n < 1 || n > 100 {
		return ErrInvalidSpeed
	}
	g.speedMu.Lock()
	g.speed = n
	g.speedMu.Unlock()
	g.Changed.stampSpeed()
	return nil
}

func (g *Global) Speed() int {
	g.speedMu.RLock()
	defer g.speedMu.RUnlock()
	return g.speed
}

func (g *Global) HWState() HWState {
	g.hwStateMu.RLock()
	defer g.hwStateMu.RUnlock()
	return g.hwState
}

func (g *Global) setHWState(s HWState) {
	g.hwStateMu.Lock()
	g.hwState = s
	g.hwStateMu.Unlock()
}

// GetState assembles the view the API layer serialises: the control
// label, the run label, and (when Running) the twin's RunView.
func (g *Global) GetState() RunView {
	g.stateMu.RLock()
	st := g.state
	g.stateMu.RUnlock()

	runLabel := "default"
	switch g.HWState() {
	case WaitInput:
		runLabel = "wait_input"
	case OutputReady:
		runLabel = "output_ready"
	}

	if st.Control != CtrlRunning || st.Run == nil {
		return RunView{ControlState: st.Control.String(), RunState: runLabel}
	}
	return st.Run.View(st.Control.String(), runLabel)
}

// EnableControl posts StartControl to the hardware thread.
func (g *Global) EnableControl() { g.post(HWCmd{Kind: CmdStartControl}) }

// DisableControl posts EndControl to the hardware thread.
func (g *Global) DisableControl() { g.post(HWCmd{Kind: CmdEndControl}) }

// Start implements the `start` operation.
func (g *Global) Start() error {
	g.stateMu.Lock()
	ctrl := g.state.Control
	paused := g.state.Paused
	if ctrl == CtrlRunning && paused {
		g.state.Paused = false
	}
	g.stateMu.Unlock()

	switch ctrl {
	case CtrlIdle:
		g.post(HWCmd{Kind: CmdStartRun, Paused: false})
		return nil
	case CtrlRunning:
		if paused {
			g.Changed.stampState()
			return nil
		}
		return ErrRunning
	case CtrlStartup:
		return ErrStillStarting
	default:
		return ErrUncontrolled
	}
}

// Pause implements the `pause` operation.
func (g *Global) Pause() error {
	g.stateMu.Lock()
	defer g.stateMu.Unlock()

	switch g.state.Control {
	case CtrlRunning:
		if g.state.Paused {
			return ErrNotRunning
		}
		g.state.Paused = true
		g.Changed.stampState()
		return nil
	case CtrlUncontrolled:
		return ErrUncontrolled
	default:
		return ErrNotRunning
	}
}

// Step implements the `step(n)` operation; n defaults to 1.
func (g *Global) Step(n int) error {
	if n <= 0 {
		n = 1
	}
	g.stateMu.Lock()
	ctrl := g.state.Control
	paused := g.state.Paused
	g.stateMu.Unlock()

	switch ctrl {
	case CtrlIdle:
		g.post(HWCmd{Kind: CmdStartRun, Paused: true})
		for i := 0; i < n; i++ {
			g.post(HWCmd{Kind: CmdExecStep, Count: 1, IncPC: true})
		}
		return nil
	case CtrlRunning:
		if !paused {
			return ErrRunning
		}
		for i := 0; i < n; i++ {
			g.post(HWCmd{Kind: CmdExecStep, Count: 1, IncPC: true})
		}
		return nil
	case CtrlStartup:
		return ErrStillStarting
	default:
		return ErrUncontrolled
	}
}

// Reset implements the `reset` operation.
func (g *Global) Reset() error {
	g.stateMu.RLock()
	ctrl := g.state.Control
	g.stateMu.RUnlock()

	switch ctrl {
	case CtrlIdle:
		return nil
	case CtrlRunning:
		g.post(HWCmd{Kind: CmdReset})
		return nil
	case CtrlStartup:
		return ErrStillStarting
	default:
		return ErrUncontrolled
	}
}

// setControlState is used only by HWExec (the sole writer of
// control-state transitions outside of the request-thread fast paths
// above) to move the state machine and stamp the change.
func (g *Global) setControlState(s ItpState) {
	g.stateMu.Lock()
	g.state = s
	g.stateMu.Unlock()
	g.Changed.stampState()
}

func (g *Global) controlState() ItpState {
	g.stateMu.RLock()
	defer g.stateMu.RUnlock()
	return g.state
}
