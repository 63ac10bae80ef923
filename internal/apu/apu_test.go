package apu

import "testing"

func TestNewDefaults(t *testing.T) {
	a := New()
	if a.frameMode {
		t.Errorf("expected 4-step frame mode by default")
	}
	if !a.frameIRQEnable {
		t.Errorf("expected frame IRQ enabled by default")
	}
	if a.noise.shiftRegister != 1 {
		t.Errorf("expected noise LFSR seeded to 1, got %d", a.noise.shiftRegister)
	}
}

func TestResetClearsChannels(t *testing.T) {
	a := New()
	a.pulse1.lengthCounter = 20
	a.channelEnable[0] = true
	a.frameIRQFlag = true

	a.Reset()

	if a.pulse1.lengthCounter != 0 {
		t.Errorf("expected pulse1 length counter cleared after reset")
	}
	if a.channelEnable[0] {
		t.Errorf("expected channel enables cleared after reset")
	}
	if a.frameIRQFlag {
		t.Errorf("expected frame IRQ flag cleared after reset")
	}
	if a.noise.shiftRegister != 1 {
		t.Errorf("expected noise LFSR reseeded to 1 after reset")
	}
}

func TestPulseTimerHighLoadsLengthAndRestartsEnvelope(t *testing.T) {
	a := New()
	a.writePulseTimerHigh(&a.pulse1, 0x08) // length index 1 -> 254
	if a.pulse1.lengthCounter != lengthTable[1] {
		t.Fatalf("expected length counter from table, got %d", a.pulse1.lengthCounter)
	}
	if !a.pulse1.envelopeStart {
		t.Fatalf("expected envelope restart flag set")
	}
}

func TestWriteChannelEnableClearsDisabledLengthCounters(t *testing.T) {
	a := New()
	a.pulse1.lengthCounter = 10
	a.noise.lengthCounter = 5
	a.writeChannelEnable(0x00) // disable all channels
	if a.pulse1.lengthCounter != 0 || a.noise.lengthCounter != 0 {
		t.Fatalf("expected length counters cleared for disabled channels")
	}
}

func TestWriteChannelEnableStartsDMCSample(t *testing.T) {
	a := New()
	a.writeDMCSampleAddress(0x00) // sampleAddress = 0xC000
	a.writeDMCSampleLength(0x00)  // sampleLength = 1
	a.writeChannelEnable(0x10)    // enable DMC only
	if a.dmc.currentAddress != 0xC000 {
		t.Fatalf("expected DMC current address seeded from sample address, got %#x", a.dmc.currentAddress)
	}
	if a.dmc.bytesRemaining != 1 {
		t.Fatalf("expected DMC bytesRemaining seeded from sample length, got %d", a.dmc.bytesRemaining)
	}
}

func TestFrameCounterFourStepSetsIRQAndWraps(t *testing.T) {
	a := New()
	a.channelEnable = [5]bool{}
	fired := false
	a.SetIRQCallback(func() { fired = true })

	for i := 0; i < 29829; i++ {
		a.stepFrameCounter()
	}
	if !fired {
		t.Fatalf("expected frame IRQ callback to fire at cycle 29829 in 4-step mode")
	}
	if !a.frameIRQFlag {
		t.Fatalf("expected frame IRQ flag set at cycle 29829")
	}

	a.stepFrameCounter() // cycle 29830: wraps
	if a.frameCounter != 0 {
		t.Fatalf("expected frame counter to wrap to 0 at cycle 29830, got %d", a.frameCounter)
	}
}

func TestFrameCounterFourStepIRQSuppressedWhenDisabled(t *testing.T) {
	a := New()
	a.frameIRQEnable = false
	for i := 0; i < 29829; i++ {
		a.stepFrameCounter()
	}
	if a.frameIRQFlag {
		t.Fatalf("expected frame IRQ flag to stay clear when IRQ disabled")
	}
}

func TestFrameCounterFiveStepNeverSetsIRQ(t *testing.T) {
	a := New()
	a.frameMode = true
	for i := 0; i < 37281; i++ {
		a.stepFrameCounter()
	}
	if a.frameIRQFlag {
		t.Fatalf("expected 5-step mode to never raise the frame IRQ flag")
	}
	if a.frameCounter != 0 {
		t.Fatalf("expected frame counter to wrap to 0 at cycle 37281, got %d", a.frameCounter)
	}
}

func TestReadStatusClearsFrameIRQFlagOnly(t *testing.T) {
	a := New()
	a.frameIRQFlag = true
	a.dmc.irqFlag = true
	a.pulse1.lengthCounter = 1

	status := a.ReadStatus()
	if status&0x01 == 0 {
		t.Fatalf("expected pulse1 length-counter-active bit set")
	}
	if status&0x40 == 0 {
		t.Fatalf("expected frame IRQ bit set in returned status")
	}
	if status&0x80 == 0 {
		t.Fatalf("expected DMC IRQ bit set in returned status")
	}
	if a.frameIRQFlag {
		t.Fatalf("expected frame IRQ flag cleared by reading $4015")
	}
	if !a.dmc.irqFlag {
		t.Fatalf("expected DMC IRQ flag untouched by reading $4015")
	}
}

func TestDMCFetchesSampleViaMemoryReader(t *testing.T) {
	a := New()
	mem := map[uint16]uint8{0xC000: 0xF0}
	a.SetMemoryReader(func(addr uint16) uint8 { return mem[addr] })

	stalls := 0
	a.SetStallCallback(func(cycles int) { stalls += cycles })

	a.writeDMCSampleAddress(0x00) // 0xC000
	a.writeDMCSampleLength(0x00)  // length 1
	a.writeChannelEnable(0x10)

	a.dmc.rateIndex = 0
	a.dmc.timerCounter = 0
	a.stepDMCTimer(&a.dmc)

	if a.dmc.sampleBuffer != 0xF0 {
		t.Fatalf("expected sample buffer loaded from memory reader, got %#x", a.dmc.sampleBuffer)
	}
	if stalls != 4 {
		t.Fatalf("expected a 4-cycle stall reported for the sample fetch, got %d", stalls)
	}
}

func TestMixChannelsSilenceIsMinusOne(t *testing.T) {
	a := New()
	out := a.mixChannels(0, 0, 0, 0, 0)
	if out != -1.0 {
		t.Fatalf("expected silence to mix to -1.0 (centered/scaled), got %v", out)
	}
}

func TestIRQLineReflectsBothSources(t *testing.T) {
	a := New()
	if a.IRQLine() {
		t.Fatalf("expected IRQLine false initially")
	}
	a.frameIRQFlag = true
	if !a.IRQLine() {
		t.Fatalf("expected IRQLine true when frame IRQ flag set")
	}
}
