package hw

import "testing"

func TestMockWriteProgramDropsNonBFChars(t *testing.T) {
	m := NewMock()
	m.WriteProgram("+-hello[]world.,junk")
	if got, want := m.Snapshot().Program, "+-[].,"; got != want {
		t.Errorf("Program = %q, want %q", got, want)
	}
}

func TestMockControlAndResetTracking(t *testing.T) {
	m := NewMock()
	m.SetControl(true)
	m.Reset()
	m.Reset()
	m.Step()
	snap := m.Snapshot()
	if !snap.Control {
		t.Error("Control = false, want true")
	}
	if snap.Resets != 2 {
		t.Errorf("Resets = %d, want 2", snap.Resets)
	}
	if snap.Steps != 1 {
		t.Errorf("Steps = %d, want 1", snap.Steps)
	}
}

func TestMockHandleIOWriteThenRead(t *testing.T) {
	m := NewMock()
	m.RequestWrite()
	out, gotOut, wrote := m.HandleIO(func() byte { return 42 })
	if !wrote || gotOut {
		t.Fatalf("write transaction: wrote=%v gotOut=%v, want wrote=true gotOut=false", wrote, gotOut)
	}

	m.RequestRead()
	out, gotOut, wrote = m.HandleIO(func() byte { return 0 })
	if wrote || !gotOut || out != 42 {
		t.Fatalf("read transaction: out=%d gotOut=%v wrote=%v, want out=42 gotOut=true wrote=false", out, gotOut, wrote)
	}
}

func TestMockHandleIONoopWithoutRequest(t *testing.T) {
	m := NewMock()
	out, gotOut, wrote := m.HandleIO(func() byte { return 7 })
	if gotOut || wrote || out != 0 {
		t.Fatalf("idle HandleIO should be a no-op, got out=%d gotOut=%v wrote=%v", out, gotOut, wrote)
	}
}

func TestBitsRoundTripLSBFirst(t *testing.T) {
	for v := 0; v < 256; v++ {
		b := byte(v)
		if got := byteFromBits(bits(b)); got != b {
			t.Fatalf("byteFromBits(bits(%d)) = %d, want %d", b, got, b)
		}
	}
}

func TestMSBBitsOrder(t *testing.T) {
	got := msbBits(0b10000001)
	want := [8]bool{true, false, false, false, false, false, false, true}
	if got != want {
		t.Errorf("msbBits(0b10000001) = %v, want %v", got, want)
	}
}
