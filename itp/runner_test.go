package itp

import "testing"

func TestRunnerArithLoopCellZeroed(t *testing.T) {
	prog, err := NewProg("++[-]")
	if err != nil {
		t.Fatalf("NewProg: %v", err)
	}
	cycles, out := prog.Run("")
	if len(out) != 0 {
		t.Errorf("out = %v, want empty", out)
	}
	// Inc(2) charges 2 extra on top of its own dispatch (total 3),
	// SetZero charges 2*2=4 on top of its dispatch (total 5): 3+5=8,
	// matching the worked example exactly.
	if cycles != 8 {
		t.Errorf("real_cycles = %d, want 8", cycles)
	}
}

func TestRunnerHelloWorldOutput(t *testing.T) {
	code := `+++++++++++[>++++++>+++++++++>++++++++>++++>+++>+<<<<<<-]>++++++.>++.+++++++..+++.>>.>-.<<-.<.+++.------.--------.>>>+.>-.`
	prog, err := NewProg(code)
	if err != nil {
		t.Fatalf("NewProg: %v", err)
	}
	_, out := prog.Run("")
	if string(out) != "Hello, World!\n" {
		t.Fatalf("out = %q, want %q", out, "Hello, World!\n")
	}
}

func TestRunnerMatchesTwinOutputWithoutInput(t *testing.T) {
	programs := []string{
		"+++[>++<-]>.",
		"[->>+++<<<+>]+++.",
		"++++[->++++++<]>.",
		"+[-]+++.",
	}
	for _, code := range programs {
		twin := runToCompletion(t, code, "")
		prog, err := NewProg(code)
		if err != nil {
			t.Fatalf("NewProg(%q): %v", code, err)
		}
		_, out := prog.Run("")
		if string(out) != string(twin.Out()) {
			t.Errorf("program %q: optimised out = %v, twin out = %v", code, out, twin.Out())
		}
	}
}

func TestRunnerHandlesInput(t *testing.T) {
	prog, err := NewProg(",.")
	if err != nil {
		t.Fatalf("NewProg: %v", err)
	}
	_, out := prog.Run("Z")
	if string(out) != "Z" {
		t.Fatalf("out = %q, want %q", out, "Z")
	}
}
