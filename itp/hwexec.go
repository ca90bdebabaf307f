package itp

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/niklas-simon/brainfuck-processing-unit/hw"
)

// HWCmdKind tags the variant of a command posted to the hardware
// thread.
type HWCmdKind int

const (
	CmdStartControl HWCmdKind = iota
	CmdEndControl
	CmdProgram
	CmdStartRun
	CmdExecStep
	CmdReset
)

// HWCmd is the single message type flowing over Global's FIFO command
// channel into HWExec. Fields are interpreted per Kind: Code for
// CmdProgram, Paused for CmdStartRun, Count/IncPC for CmdExecStep.
type HWCmd struct {
	Kind   HWCmdKind
	Code   string
	Paused bool
	Count  int
	IncPC  bool
}

// idlePoll is how long the hardware thread rests when there is
// nothing to clock and no uncontrolled I/O to service.
const idlePoll = 40 * time.Millisecond

// startupSettle is the arbitrary hardware settle delay after flashing
// a program and pulsing reset, before a run begins.
const startupSettle = 3 * time.Second

// tickDuration implements tick(speed) = 0.5 / 1e6^((speed-1)/99)
// seconds.
func tickDuration(speed int) time.Duration {
	exp := (float64(speed) - 1) / 99
	secs := 0.5 / math.Pow(1_000_000, exp)
	return time.Duration(secs * float64(time.Second))
}

// HWExec is the single dedicated worker that owns Ports and drains
// Global's HWCmd channel, clocking the hardware (and the twin in
// lock-step) while a run is active.
type HWExec struct {
	global *Global
	ports  hw.Ports
	sleep  func(time.Duration)
}

// NewHWExec wires a Global to the Ports it drives. No other goroutine
// may touch ports once Run is started.
func NewHWExec(g *Global, ports hw.Ports) *HWExec {
	return &HWExec{global: g, ports: ports, sleep: time.Sleep}
}

// Run is the hardware thread's main loop. It returns only
// when ctx is cancelled.
func (e *HWExec) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

	drain:
		for {
			select {
			case cmd := <-e.global.hwCmds:
				e.handle(cmd)
			default:
				break drain
			}
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		st := e.global.controlState()
		switch {
		case st.Control == CtrlRunning && !st.Paused && st.Run != nil:
			e.runningTick()
		case st.Control == CtrlUncontrolled:
			e.serviceUncontrolled(st)
		default:
			e.sleep(idlePoll)
		}
	}
}

// runningTick performs one cadence-driven clock step: execute the
// instruction effects, sleep a tick, then (if the run is still active)
// bump pc and stamp the state change, and sleep a second tick. This is
// "ExecStep(1, inc_pc=false)" plus the outer loop's delayed bump.
func (e *HWExec) runningTick() {
	st := e.global.controlState()
	run := st.Run
	if run == nil {
		return
	}

	e.clockOnce(run)
	tick := tickDuration(e.global.Speed())
	e.sleep(tick)

	st = e.global.controlState()
	if st.Control != CtrlRunning || st.Run != run {
		return
	}
	e.global.stateMu.Lock()
	finished := run.advancePC()
	e.global.stateMu.Unlock()
	e.syncOutput(run)
	e.global.Changed.stampState()
	if finished {
		e.finishRun()
	}
	e.sleep(tick)
}

// clockOnce peeks the current instruction to set HWState, services any
// I/O it demands, pulses the hardware clock, and advances the twin's
// side effects without moving pc. The twin mutation itself is done
// under state's write lock, briefly — readers of state
// (GetState/View) never observe a half-executed step.
func (e *HWExec) clockOnce(run *Run) {
	if instr, ok := run.CurrentInstr(); ok {
		e.global.setHWState(hwStateFor(instr))
		e.serviceIO(run, instr)
	} else {
		e.global.setHWState(Regular)
	}
	e.ports.Control.Step()
	e.global.stateMu.Lock()
	run.execute()
	e.global.stateMu.Unlock()
}

func hwStateFor(instr Instr) HWState {
	switch instr {
	case In:
		return WaitInput
	case Out:
		return OutputReady
	default:
		return Regular
	}
}

// serviceIO drives the I/O port for the instruction the twin is about
// to execute: `,` needs a byte supplied from input, `.` needs the
// device's emitted byte (mirrored here by the twin's own output, since
// the twin is the source of truth for I/O content in-process — the
// real hardware's bus transaction is still driven for physical
// fidelity).
func (e *HWExec) serviceIO(run *Run, instr Instr) {
	switch instr {
	case In:
		e.ports.IO.HandleIO(func() byte {
			ic := run.IC()
			inp := run.inp
			if ic < len(inp) {
				return inp[ic]
			}
			return 0
		})
	case Out:
		e.ports.IO.HandleIO(func() byte { return 0 })
	}
}

func (e *HWExec) syncOutput(run *Run) {
	e.global.setOutput(run.Out())
}

func (e *HWExec) finishRun() {
	e.global.setHWState(Regular)
	e.global.setControlState(ItpState{Control: CtrlIdle})
}

// serviceUncontrolled handles one external-driver I/O transaction:
// feed input[ic] (or 0 past end) on a write request, append any
// emitted byte to output, and advance ic modulo len(input)+1.
func (e *HWExec) serviceUncontrolled(st ItpState) {
	ic := st.UncontrolledIC
	input := []byte(e.global.Input())

	out, gotOut, wrote := e.ports.IO.HandleIO(func() byte {
		if ic < len(input) {
			return input[ic]
		}
		return 0
	})

	if wrote || gotOut {
		next := ic
		if wrote {
			next = (ic + 1) % (len(input) + 1)
		}
		e.global.stateMu.Lock()
		if e.global.state.Control == CtrlUncontrolled {
			e.global.state.UncontrolledIC = next
		}
		e.global.stateMu.Unlock()
		e.global.Changed.stampState()

		if gotOut {
			cur := []byte(e.global.Output())
			cur = append(cur, out)
			e.global.setOutput(cur)
		}
	} else {
		e.sleep(idlePoll)
	}
}

func (e *HWExec) handle(cmd HWCmd) {
	switch cmd.Kind {
	case CmdStartControl:
		e.ports.Control.SetControl(true)
		e.global.setHWState(Regular)
		e.global.setControlState(ItpState{Control: CtrlIdle})
	case CmdEndControl:
		e.ports.Control.SetControl(false)
		e.global.setHWState(Regular)
		e.global.setControlState(ItpState{Control: CtrlUncontrolled, UncontrolledIC: 0})
	case CmdProgram:
		e.ports.Control.SetControl(false)
		e.ports.Program.WriteProgram(cmd.Code)
		e.ports.Control.SetControl(true)
	case CmdStartRun:
		e.startRun(cmd.Paused)
	case CmdExecStep:
		count := cmd.Count
		if count <= 0 {
			count = 1
		}
		e.execStepBatch(count, cmd.IncPC)
	case CmdReset:
		e.global.setControlState(ItpState{Control: CtrlIdle})
	default:
		panic(fmt.Sprintf("itp: unhandled HWCmd kind %d", cmd.Kind))
	}
}

func (e *HWExec) startRun(paused bool) {
	code := e.global.Code()
	input := e.global.Input()

	e.ports.Control.SetControl(false)
	e.ports.Program.WriteProgram(code)
	e.ports.Control.SetControl(true)
	e.ports.Control.Reset()

	e.global.setControlState(ItpState{Control: CtrlStartup})
	e.sleep(startupSettle)

	run, err := NewRun(code, input)
	if err != nil {
		// Code was validated on the way in; a failure here means the
		// stored code and the run request disagree, which cannot
		// happen through the public API.
		e.global.setControlState(ItpState{Control: CtrlIdle})
		return
	}

	e.global.setOutput(nil)
	e.global.setControlState(ItpState{Control: CtrlRunning, Run: run, Paused: paused})
}

// execStepBatch drives up to count manual steps. pc is bumped after
// every iteration except possibly the last, which is bumped only if
// incPC is set — mirroring the single cadence-driven ExecStep(1,
// inc_pc=false) call when count==1 and incPC==false.
func (e *HWExec) execStepBatch(count int, incPC bool) {
	for i := 0; i < count; i++ {
		st := e.global.controlState()
		if st.Control != CtrlRunning || st.Run == nil {
			return
		}
		run := st.Run

		e.clockOnce(run)
		e.syncOutput(run)

		last := i == count-1
		if !last || incPC {
			e.global.stateMu.Lock()
			finished := run.advancePC()
			e.global.stateMu.Unlock()
			e.global.Changed.stampState()
			if finished {
				e.finishRun()
				return
			}
		} else {
			e.global.Changed.stampState()
		}
	}
}
