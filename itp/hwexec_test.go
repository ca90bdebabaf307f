package itp

import (
	"testing"
	"time"

	"github.com/niklas-simon/brainfuck-processing-unit/hw"
)

func newTestExec(g *Global) (*HWExec, *hw.Mock) {
	mock := hw.NewMock()
	e := NewHWExec(g, mock.Ports())
	e.sleep = func(time.Duration) {}
	return e, mock
}

func TestTickDurationBounds(t *testing.T) {
	if got, want := tickDuration(1), 500*time.Millisecond; got != want {
		t.Errorf("tickDuration(1) = %v, want %v", got, want)
	}
	if got, want := tickDuration(100), 500*time.Nanosecond; got != want {
		t.Errorf("tickDuration(100) = %v, want %v", got, want)
	}
}

func TestHandleStartControl(t *testing.T) {
	g := NewGlobal()
	e, mock := newTestExec(g)
	e.handle(HWCmd{Kind: CmdStartControl})
	if !mock.Snapshot().Control {
		t.Error("expected CONTROL pin high after StartControl")
	}
	if g.controlState().Control != CtrlIdle {
		t.Errorf("control state = %v, want Idle", g.controlState().Control)
	}
}

func TestHandleEndControl(t *testing.T) {
	g := NewGlobal()
	e, mock := newTestExec(g)
	e.handle(HWCmd{Kind: CmdEndControl})
	if mock.Snapshot().Control {
		t.Error("expected CONTROL pin low after EndControl")
	}
	st := g.controlState()
	if st.Control != CtrlUncontrolled || st.UncontrolledIC != 0 {
		t.Errorf("state = %+v, want Uncontrolled(0)", st)
	}
}

func TestHandleProgramFlashesCode(t *testing.T) {
	g := NewGlobal()
	e, mock := newTestExec(g)
	e.handle(HWCmd{Kind: CmdProgram, Code: "+-[]junk"})
	if got, want := mock.Snapshot().Program, "+-[]"; got != want {
		t.Errorf("flashed program = %q, want %q", got, want)
	}
}

func TestHandleStartRunBuildsTwinAndClearsOutput(t *testing.T) {
	g := NewGlobal()
	e, _ := newTestExec(g)
	if err := g.ChangeCode("++."); err != nil {
		t.Fatalf("ChangeCode: %v", err)
	}
	g.setOutput([]byte("stale"))
	e.handle(HWCmd{Kind: CmdStartRun, Paused: true})

	st := g.controlState()
	if st.Control != CtrlRunning || st.Run == nil {
		t.Fatalf("state = %+v, want Running with a twin", st)
	}
	if !st.Paused {
		t.Error("expected Paused to be true")
	}
	if g.Output() != "" {
		t.Errorf("Output() = %q, want empty after StartRun", g.Output())
	}
}

func TestHandleResetReturnsToIdle(t *testing.T) {
	g := NewGlobal()
	e, _ := newTestExec(g)
	g.setControlState(ItpState{Control: CtrlRunning})
	e.handle(HWCmd{Kind: CmdReset})
	if g.controlState().Control != CtrlIdle {
		t.Errorf("control state = %v, want Idle", g.controlState().Control)
	}
}

func TestExecStepBatchAdvancesAndStops(t *testing.T) {
	g := NewGlobal()
	e, _ := newTestExec(g)
	run, err := NewRun("++.", "")
	if err != nil {
		t.Fatalf("NewRun: %v", err)
	}
	g.setControlState(ItpState{Control: CtrlRunning, Run: run, Paused: true})

	e.execStepBatch(3, true)

	if run.PC() != 3 {
		t.Errorf("pc = %d, want 3 (program finished)", run.PC())
	}
	if g.controlState().Control != CtrlIdle {
		t.Errorf("control state = %v, want Idle after the program finished", g.controlState().Control)
	}
	if g.Output() != "\x02" {
		t.Errorf("Output() = %q, want a single 0x02 byte", g.Output())
	}
}

func TestExecStepBatchDelaysFinalPCWhenIncPCFalse(t *testing.T) {
	g := NewGlobal()
	e, _ := newTestExec(g)
	run, err := NewRun("+++", "")
	if err != nil {
		t.Fatalf("NewRun: %v", err)
	}
	g.setControlState(ItpState{Control: CtrlRunning, Run: run, Paused: false})

	e.execStepBatch(1, false)

	if run.PC() != 0 {
		t.Errorf("pc = %d, want 0 (bump deferred)", run.PC())
	}
	if run.tape[0] != 1 {
		t.Errorf("tape[0] = %d, want 1 (instruction effect already applied)", run.tape[0])
	}
}

func TestServiceUncontrolledAdvancesICOnWrite(t *testing.T) {
	g := NewGlobal()
	e, mock := newTestExec(g)
	if err := g.ChangeInput("AB"); err != nil {
		t.Fatalf("ChangeInput: %v", err)
	}
	g.setControlState(ItpState{Control: CtrlUncontrolled, UncontrolledIC: 0})
	mock.RequestWrite()

	e.serviceUncontrolled(g.controlState())

	if g.controlState().UncontrolledIC != 1 {
		t.Errorf("UncontrolledIC = %d, want 1", g.controlState().UncontrolledIC)
	}
}
