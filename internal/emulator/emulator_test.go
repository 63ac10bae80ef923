package emulator

import "testing"

// buildROM returns a minimal one-bank NROM image with prg written at $8000
// and the reset vector pointed at $8000.
func buildROM(prg ...uint8) []byte {
	header := []uint8{'N', 'E', 'S', 0x1A, 1, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	data := make([]uint8, 16384+8192)
	copy(data, prg)
	data[0x3FFC] = 0x00
	data[0x3FFD] = 0x80
	return append(header, data...)
}

func TestAttachRejectsBadMagic(t *testing.T) {
	e := New()
	if err := e.Attach([]byte{0, 0, 0, 0}); err == nil {
		t.Fatalf("expected Attach to reject a malformed header")
	}
}

func TestAttachThenStepFrameProducesAFullBuffer(t *testing.T) {
	e := New()
	if err := e.Attach(buildROM(0x4C, 0x00, 0x80)); err != nil { // JMP $8000
		t.Fatalf("Attach: %v", err)
	}
	frame, _ := e.StepFrame()
	if len(frame) != 256*240 {
		t.Fatalf("expected a full frame, got %d pixels", len(frame))
	}
}

func TestSetControllerReachesInputState(t *testing.T) {
	e := New()
	if err := e.Attach(buildROM(0xEA)); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	e.SetController(0, 0x01) // A pressed
	e.bus.Write(0x4016, 1)   // strobe latches the live buttons
	if v := e.bus.Input.Controller1.Read(); v&1 == 0 {
		t.Errorf("expected controller port 0 to report button A pressed")
	}
}

func TestPeekDisassemblyReportsDecodedText(t *testing.T) {
	e := New()
	if err := e.Attach(buildROM(0xA9, 0x10, 0xEA)); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	out := e.PeekDisassembly(0x8000, 0x8002)
	if out[0x8000] != "$8000: LDA #$10" {
		t.Errorf("expected decoded LDA at $8000, got %q", out[0x8000])
	}
}

func TestSaveStateThenLoadStateRestoresRegisters(t *testing.T) {
	e := New()
	if err := e.Attach(buildROM(0xA9, 0x7F, 0x8D, 0x00, 0x02, 0xEA)); err != nil { // LDA #$7F; STA $0200; NOP
		t.Fatalf("Attach: %v", err)
	}
	for i := 0; i < 10; i++ {
		e.bus.Tick()
	}
	data, err := e.SaveState()
	if err != nil {
		t.Fatalf("SaveState: %v", err)
	}
	savedA := e.bus.CPU.A

	for i := 0; i < 50; i++ {
		e.bus.Tick()
	}
	if e.bus.CPU.A == savedA && e.bus.CPU.PC == 0x8000 {
		t.Fatalf("test setup didn't actually advance state before reload")
	}

	if err := e.LoadState(data); err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if e.bus.CPU.A != savedA {
		t.Errorf("expected A to be restored to %#x, got %#x", savedA, e.bus.CPU.A)
	}
}

func TestLoadStateRejectsMismatchedCartridge(t *testing.T) {
	e := New()
	if err := e.Attach(buildROM(0xEA)); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	data, err := e.SaveState()
	if err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	other := New()
	if err := other.Attach(buildROM(0xEA)); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	other.cart = nil // simulate no cartridge attached
	if err := other.LoadState(data); err == nil {
		t.Errorf("expected LoadState to fail with no cartridge attached")
	}
}
