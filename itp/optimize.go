package itp

import "fmt"

// OptKind distinguishes the optimised instruction variants.
type OptKind int

const (
	OInc OptKind = iota
	ODec
	OLeft
	ORight
	OIn
	OOut
	OLoopStart
	OLoopEnd
	OSetZero
	OArithLoop
)

// ArithPart is one (offset, multiplier) touch of an arithmetic loop,
// applied as tape[head+offset] += multiplier * tape[head].
type ArithPart struct {
	Offset int
	Mult   byte
}

// OptInstr is a single optimised-program instruction. Only the fields
// relevant to Kind are populated: N for the run-length forms, Parts
// and ArithCycles for ArithLoop.
type OptInstr struct {
	Kind       OptKind
	N          int
	Parts      []ArithPart
	ArithCycles int
}

func (o OptInstr) String() string {
	switch o.Kind {
	case OInc:
		return repeat('+', o.N)
	case ODec:
		return repeat('-', o.N)
	case OLeft:
		return repeat('<', o.N)
	case ORight:
		return repeat('>', o.N)
	case OIn:
		return ","
	case OOut:
		return "."
	case OLoopStart:
		return "["
	case OLoopEnd:
		return "]"
	case OSetZero:
		return "{_}"
	case OArithLoop:
		s := "{["
		for i, p := range o.Parts {
			if i > 0 {
				s += ", "
			}
			s += fmt.Sprintf("(%d, %d)", p.Offset, p.Mult)
		}
		return fmt.Sprintf("%s], %d}", s, o.ArithCycles)
	}
	return "?"
}

func repeat(c byte, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = c
	}
	return string(b)
}

func fromInstr(i Instr) OptInstr {
	switch i {
	case Inc:
		return OptInstr{Kind: OInc, N: 1}
	case Dec:
		return OptInstr{Kind: ODec, N: 1}
	case Left:
		return OptInstr{Kind: OLeft, N: 1}
	case Right:
		return OptInstr{Kind: ORight, N: 1}
	case In:
		return OptInstr{Kind: OIn}
	case Out:
		return OptInstr{Kind: OOut}
	case LoopStart:
		return OptInstr{Kind: OLoopStart}
	case LoopEnd:
		return OptInstr{Kind: OLoopEnd}
	}
	panic(fmt.Sprintf("itp: unreachable instruction %q", byte(i)))
}

// Optimise folds run-length value/move ops, and attempts to collapse
// every top-level balanced loop into SetZero or ArithLoop via
// arithmeticLoop. A nested '[' inside the loop body disables folding
// of that particular loop (its own inner loop is still optimised and
// may itself fold).
func Optimise(code []Instr) []OptInstr {
	res := make([]OptInstr, 0, len(code))
	i := 0
	for i < len(code) {
		cmd := code[i]
		switch cmd {
		case Inc, Dec, Left, Right:
			j := i + 1
			for j < len(code) && code[j] == cmd {
				j++
			}
			res = append(res, runLength(cmd, j-i))
			i = j
		case LoopStart:
			// Collect the balanced top-level body: stop at the first
			// subsequent ']' at depth 0, but bail (no folding attempt)
			// if a nested '[' appears before it closes.
			j := i + 1
			nested := false
			closed := false
			for j < len(code) {
				switch code[j] {
				case LoopEnd:
					closed = true
				case LoopStart:
					nested = true
				}
				if closed || nested {
					break
				}
				j++
			}
			if closed && !nested {
				inner := Optimise(code[i+1 : j])
				if folded, ok := arithmeticLoop(inner); ok {
					res = append(res, folded)
					i = j + 1
					continue
				}
				res = append(res, OptInstr{Kind: OLoopStart})
				res = append(res, inner...)
				i = j
				continue
			}
			// Not a simple balanced top-level body (nested loop inside,
			// or unterminated): emit LoopStart and keep walking normally;
			// the matching LoopEnd will be emitted when we reach it.
			res = append(res, OptInstr{Kind: OLoopStart})
			i++
		case LoopEnd:
			res = append(res, OptInstr{Kind: OLoopEnd})
			i++
		case In:
			res = append(res, OptInstr{Kind: OIn})
			i++
		case Out:
			res = append(res, OptInstr{Kind: OOut})
			i++
		}
	}
	return res
}

func runLength(cmd Instr, n int) OptInstr {
	switch cmd {
	case Inc:
		return OptInstr{Kind: OInc, N: n}
	case Dec:
		return OptInstr{Kind: ODec, N: n}
	case Left:
		return OptInstr{Kind: OLeft, N: n}
	case Right:
		return OptInstr{Kind: ORight, N: n}
	}
	panic("itp: runLength called with non-run op")
}

// arithmeticLoop attempts to fold a loop body (already optimised, and
// already known to contain no nested LoopStart) into a constant-time
// cell-arithmetic loop. Only value ops and moves are allowed; any
// other op fails the attempt. The cycles counter starts at 1 (the
// convention that makes "[-]" cost 2 and fold to SetZero), matching
// the net-zero '-' on the induction cell which is removed once found.
func arithmeticLoop(body []OptInstr) (OptInstr, bool) {
	idx := 0
	type part struct {
		offset int
		value  byte
	}
	var parts []part
	cycles := 1

	find := func(offset int) *part {
		for k := range parts {
			if parts[k].offset == offset {
				return &parts[k]
			}
		}
		return nil
	}

	for _, op := range body {
		switch op.Kind {
		case OInc:
			by := byte(op.N)
			if p := find(idx); p != nil {
				p.value += by
			} else {
				parts = append(parts, part{idx, by})
			}
			cycles += op.N
		case ODec:
			by := byte(op.N)
			if p := find(idx); p != nil {
				p.value -= by
			} else {
				parts = append(parts, part{idx, byte(0) - by})
			}
			cycles += op.N
		case OLeft:
			idx -= op.N
			cycles += op.N
		case ORight:
			idx += op.N
			cycles += op.N
		default:
			return OptInstr{}, false
		}
	}
	if idx != 0 {
		return OptInstr{}, false
	}

	oldLen := len(parts)
	filtered := parts[:0:0]
	foundInduction := false
	for _, p := range parts {
		if p.offset == 0 && p.value == 0xFF {
			foundInduction = true
			continue
		}
		filtered = append(filtered, p)
	}
	if !foundInduction || oldLen != len(filtered)+1 {
		return OptInstr{}, false
	}

	if len(filtered) == 0 && cycles == 2 {
		return OptInstr{Kind: OSetZero}, true
	}
	outParts := make([]ArithPart, len(filtered))
	for i, p := range filtered {
		outParts[i] = ArithPart{Offset: p.offset, Mult: p.value}
	}
	return OptInstr{Kind: OArithLoop, Parts: outParts, ArithCycles: cycles}, true
}
