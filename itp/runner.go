package itp

// Prog is a parsed-and-optimised program ready to run non-interactively,
// used only by the skill scorer and by cmd/bfskill.
type Prog struct {
	Opt      []OptInstr
	HasInput bool
	Len      int
}

// NewProg parses and optimises code. Len is the length of the
// unoptimised instruction sequence, used by the skill formula.
func NewProg(code string) (*Prog, error) {
	parsed, err := Parse(code)
	if err != nil {
		return nil, err
	}
	hasInput := false
	for _, ins := range parsed {
		if ins == In {
			hasInput = true
			break
		}
	}
	return &Prog{
		Opt:      Optimise(parsed),
		HasInput: hasInput,
		Len:      len(parsed),
	}, nil
}

// Run executes the optimised program against inp and returns the real
// (unfolded-equivalent) cycle count and the output bytes.
func (p *Prog) Run(inp string) (realCycles int, out []byte) {
	return runOptimised(inp, p.Opt)
}

// runOptimised builds a jump table in a single linear scan, then
// executes the optimised program. Folded ops charge the cycle cost
// they would have taken unfolded, so real_cycles is comparable across
// optimisation levels.
func runOptimised(inp string, prog []OptInstr) (int, []byte) {
	jmp := make([]int, len(prog))
	var stack []int
	for i, op := range prog {
		switch op.Kind {
		case OLoopStart:
			stack = append(stack, i)
		case OLoopEnd:
			n := len(stack) - 1
			other := stack[n]
			stack = stack[:n]
			jmp[other] = i
			jmp[i] = other
		}
	}

	inBytes := []byte(inp)
	ic := 0
	var out []byte
	var tape [TapeLen]byte
	pc := 0
	head := 0
	realCycles := 0

	for pc < len(prog) {
		realCycles++
		op := prog[pc]
		switch op.Kind {
		case OInc:
			tape[head] += byte(op.N)
			realCycles += op.N
		case ODec:
			tape[head] -= byte(op.N)
			realCycles += op.N
		case OLeft:
			head = wrap(head - op.N)
			realCycles += op.N
		case ORight:
			head = wrap(head + op.N)
			realCycles += op.N
		case OIn:
			if ic < len(inBytes) {
				tape[head] = inBytes[ic]
				ic++
			} else {
				tape[head] = 0
			}
		case OOut:
			out = append(out, tape[head])
		case OLoopStart:
			if tape[head] == 0 {
				pc = jmp[pc]
			}
		case OLoopEnd:
			if tape[head] != 0 {
				pc = jmp[pc]
			}
		case OSetZero:
			realCycles += 2 * int(tape[head])
			tape[head] = 0
		case OArithLoop:
			realCycles += op.ArithCycles * int(tape[head])
			v := tape[head]
			for _, part := range op.Parts {
				idx := wrap(head + part.Offset)
				tape[idx] += part.Mult * v
			}
			tape[head] = 0
		}
		pc++
	}
	return realCycles, out
}
