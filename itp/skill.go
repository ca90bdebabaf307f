package itp

import (
	"math"
	"math/rand/v2"
)

const (
	codeLenWeight = 8.0
	cyclesWeight  = 1.0
)

// skillValue is the 8*ln(len) + 1*ln(cycles) scoring formula shared by
// the optimised-program score and the naive-baseline score.
func skillValue(codeLen, cycles int) float64 {
	return math.Log(float64(codeLen))*codeLenWeight + math.Log(float64(cycles))*cyclesWeight
}

// defaultLen is the length of the naive program that prints target one
// character at a time by stepping a single cell from the previous
// character's value: len(target) + sum of |delta| between consecutive
// characters, with an implicit leading zero.
func defaultLen(target string) int {
	total := 0
	prev := rune(0)
	for _, c := range target {
		total++
		d := int(prev) - int(c)
		if d < 0 {
			d = -d
		}
		total += d
		prev = c
	}
	return total
}

// Skill compares code's optimised output against target and scores it
// by ln(length) and ln(cycles) relative to the naive baseline program.
// Returns 0 if code does not produce target exactly. Positive means
// better than naive, negative means worse.
func Skill(code, target string) float64 {
	prog, err := NewProg(code)
	if err != nil {
		return 0
	}
	cycles, out := prog.Run("")
	if string(out) != target {
		return 0
	}
	res := skillValue(prog.Len, cycles)
	d := defaultLen(target)
	base := skillValue(d, d)
	return 100 * (base - res) / base
}

const (
	targetMinLen = 10
	targetMaxLen = 19
	printableLo  = '!'
	printableHi  = '~'
)

// GenerateTarget produces a random ASCII string of length 10-19
// inclusive, each character uniformly in the printable range '!'..'~'.
func GenerateTarget() string {
	n := targetMinLen + rand.IntN(targetMaxLen-targetMinLen+1)
	b := make([]byte, n)
	span := int(printableHi - printableLo + 1)
	for i := range b {
		b[i] = byte(printableLo + rand.IntN(span))
	}
	return string(b)
}
