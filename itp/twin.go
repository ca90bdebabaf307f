package itp

// TapeLen is the fixed, wrapping tape size of the digital twin.
const TapeLen = 32768

// viewRadius is V: the view window holds 2V+1 cells/instructions.
const viewRadius = 3

// Run is a single-stepping Brainfuck machine mirroring the physical
// interpreter's state: tape, head, program counter, input/output
// buffers and the jumping sub-machine.
type Run struct {
	tape    [TapeLen]byte
	head    int
	pc      int
	ic      int
	code    []Instr
	inp     []byte
	out     []byte
	jumping int // 0 means "not jumping"; a positive value is the nesting depth
	stack   []int
	cycles  int
}

// NewRun parses code (failing on bad nesting) and builds a fresh twin
// over the given input bytes.
func NewRun(code, input string) (*Run, error) {
	prog, err := Parse(code)
	if err != nil {
		return nil, err
	}
	return &Run{
		code: prog,
		inp:  []byte(input),
	}, nil
}

// Cycles reports the number of steps executed so far.
func (r *Run) Cycles() int { return r.cycles }

// IC reports the input counter (bytes consumed so far).
func (r *Run) IC() int { return r.ic }

// Out returns the output accumulated so far.
func (r *Run) Out() []byte { return r.out }

// SetInput replaces the input buffer in place, used by change_input
// while Running (the caller has already validated the byte-identical
// prefix invariant).
func (r *Run) SetInput(input []byte) {
	r.inp = input
}

func wrap(i int) int {
	i %= TapeLen
	if i < 0 {
		i += TapeLen
	}
	return i
}

// PC reports the program counter.
func (r *Run) PC() int { return r.pc }

// CurrentInstr reports the instruction pc currently points at, used by
// the hardware thread to decide what I/O to service before clocking.
// The second return is false once the program has finished.
func (r *Run) CurrentInstr() (Instr, bool) {
	if r.pc >= len(r.code) {
		return 0, false
	}
	return r.code[r.pc], true
}

// Step advances the twin by one instruction (or one jumping-skip step)
// and reports whether the program has now finished.
func (r *Run) Step() (finished bool) {
	if r.execute() {
		return true
	}
	return r.advancePC()
}

// execute performs one step's side effects (tape/head/io/jump-depth
// mutation) without moving pc. Returns true if the twin was already
// finished on entry, in which case advancePC must not be called.
func (r *Run) execute() (alreadyFinished bool) {
	if r.pc >= len(r.code) {
		return true
	}

	r.cycles++

	if r.jumping > 0 {
		switch r.code[r.pc] {
		case LoopStart:
			r.jumping++
		case LoopEnd:
			r.jumping--
		}
		return false
	}

	switch r.code[r.pc] {
	case Inc:
		r.tape[r.head]++
	case Dec:
		r.tape[r.head]--
	case Left:
		r.head = wrap(r.head - 1)
	case Right:
		r.head = wrap(r.head + 1)
	case In:
		if r.ic < len(r.inp) {
			r.tape[r.head] = r.inp[r.ic]
			r.ic++
		} else {
			r.tape[r.head] = 0
		}
	case Out:
		r.out = append(r.out, r.tape[r.head])
	case LoopStart:
		if r.tape[r.head] == 0 {
			r.jumping = 1
		} else {
			r.stack = append(r.stack, r.pc)
		}
	case LoopEnd:
		// Defensive: an empty stack here would mean parse let through a
		// malformed program, which cannot happen. Falls back to pc 0.
		var top int
		if n := len(r.stack); n > 0 {
			top = r.stack[n-1]
		}
		if r.tape[r.head] != 0 {
			r.pc = top
		} else if n := len(r.stack); n > 0 {
			r.stack = r.stack[:n-1]
		}
	}

	return false
}

// advancePC performs the unconditional post-step pc bump and reports
// whether the program has now finished. Split from execute so the
// hardware thread can delay it by a tick (the UI must
// be able to observe pc at the just-executed instruction before it
// advances).
func (r *Run) advancePC() (finished bool) {
	r.pc++
	return r.pc == len(r.code)
}

// CodeView is a windowed fragment of the program centred on pc.
type CodeView struct {
	PC       int    `json:"pc"`
	Offset   int    `json:"offset"`
	Fragment string `json:"fragment"`
}

func (r *Run) codeView() CodeView {
	start := r.pc - viewRadius
	if start < 0 {
		start = 0
	}
	end := r.pc + viewRadius + 1
	if end > len(r.code) {
		end = len(r.code)
	}
	return CodeView{
		PC:       r.pc,
		Offset:   start,
		Fragment: viewCode(r.code[start:end]),
	}
}

// RunView is the serialisable snapshot of a twin in progress.
type RunView struct {
	Tape         []byte   `json:"tape"`
	Head         int      `json:"head"`
	IC           int      `json:"ic"`
	Jumping      *int     `json:"jumping"`
	Stack        []int    `json:"stack"`
	Cycles       int      `json:"cycles"`
	Code         CodeView `json:"code"`
	ControlState string   `json:"control_state"`
	RunState     string   `json:"run_state"`
}

// View produces a RunView snapshot. runState is replaced by "jumping"
// whenever the twin is in a forward skip, regardless of what the
// caller passed in.
func (r *Run) View(controlState, runState string) RunView {
	tape := make([]byte, 2*viewRadius+1)
	for i := -viewRadius; i <= viewRadius; i++ {
		tape[i+viewRadius] = r.tape[wrap(r.head+i)]
	}
	stack := make([]int, len(r.stack))
	copy(stack, r.stack)

	var jumping *int
	if r.jumping > 0 {
		d := r.jumping
		jumping = &d
		runState = "jumping"
	}

	return RunView{
		Tape:         tape,
		Head:         r.head,
		IC:           r.ic,
		Jumping:      jumping,
		Stack:        stack,
		Cycles:       r.cycles,
		Code:         r.codeView(),
		ControlState: controlState,
		RunState:     runState,
	}
}
