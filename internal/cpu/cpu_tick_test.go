package cpu

import "testing"

// TestTickSpreadsInstructionOverItsCycleCount checks that a 2-cycle NOP
// only becomes visible (PC advances) after exactly 2 Tick calls, and that
// no further instruction is fetched on the Ticks in between.
func TestTickSpreadsInstructionOverItsCycleCount(t *testing.T) {
	helper := NewCPUTestHelper()
	helper.SetupResetVector(0x8000)
	helper.LoadProgram(0x8000, 0xEA, 0xEA) // NOP, NOP

	startPC := helper.CPU.PC
	helper.CPU.Tick()
	if helper.CPU.PC != startPC+1 {
		t.Fatalf("expected PC to advance on the fetching tick, got %#x", helper.CPU.PC)
	}

	helper.CPU.Tick() // second cycle of the first NOP, no new fetch
	if helper.CPU.PC != startPC+1 {
		t.Fatalf("expected PC unchanged during the instruction's remaining cycles, got %#x", helper.CPU.PC)
	}

	helper.CPU.Tick() // first cycle of the second NOP
	if helper.CPU.PC != startPC+2 {
		t.Fatalf("expected PC to advance to the second NOP, got %#x", helper.CPU.PC)
	}
}

// TestTickAccumulatesSameCyclesAsStep checks that driving the CPU one Tick
// at a time for an instruction's full cycle count ends up with the same
// cpu.cycles total as calling Step directly would.
func TestTickAccumulatesSameCyclesAsStep(t *testing.T) {
	helper := NewCPUTestHelper()
	helper.SetupResetVector(0x8000)
	helper.LoadProgram(0x8000, 0xEA) // NOP, 2 cycles
	before := helper.CPU.cycles

	helper.CPU.Tick()
	helper.CPU.Tick()

	if got := helper.CPU.cycles - before; got != 2 {
		t.Fatalf("expected 2 cycles charged across the Tick sequence, got %d", got)
	}
}

// TestTickServicesPendingNMIBeforeNextInstruction verifies that Tick, once
// the in-flight instruction drains, services a pending NMI instead of
// fetching the next opcode.
func TestTickServicesPendingNMIBeforeNextInstruction(t *testing.T) {
	helper := NewCPUTestHelper()
	helper.SetupResetVector(0x8000)
	helper.Memory.SetBytes(0xFFFA, 0x00, 0x90) // NMI vector -> 0x9000
	helper.LoadProgram(0x8000, 0xEA)           // NOP
	helper.CPU.SP = 0xFF

	helper.CPU.Tick() // fetch the NOP; one of its 2 cycles is still owed
	helper.CPU.TriggerNMI()
	helper.CPU.Tick() // drain the NOP's second cycle
	for i := 0; i < 7; i++ { // drain the NMI sequence's 7 cycles
		helper.CPU.Tick()
	}

	if helper.CPU.PC != 0x9000 {
		t.Fatalf("expected PC at NMI vector after servicing, got %#x", helper.CPU.PC)
	}
}

// TestStallHoldsOffFetchAndDoesNotChargeCycles checks that a bus-requested
// stall (OAM DMA, DMC refill) delays the next fetch without itself bumping
// cpu.cycles, matching real hardware where a stalled CPU still advances the
// master clock but performs no bus activity of its own.
func TestStallHoldsOffFetchAndDoesNotChargeCycles(t *testing.T) {
	helper := NewCPUTestHelper()
	helper.SetupResetVector(0x8000)
	helper.LoadProgram(0x8000, 0xEA) // NOP

	helper.CPU.Stall(4)
	before := helper.CPU.cycles
	startPC := helper.CPU.PC

	for i := 0; i < 4; i++ {
		helper.CPU.Tick()
	}
	if helper.CPU.PC != startPC {
		t.Fatalf("expected PC unchanged while stalled, got %#x", helper.CPU.PC)
	}
	if helper.CPU.cycles != before {
		t.Fatalf("expected no cycles charged during a stall, got delta %d", helper.CPU.cycles-before)
	}

	helper.CPU.Tick() // stall released, NOP now fetches
	if helper.CPU.PC != startPC+1 {
		t.Fatalf("expected the NOP to fetch once the stall drains, got %#x", helper.CPU.PC)
	}
}
