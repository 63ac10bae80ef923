// Package emulator is the host-boundary Emu API (spec.md §6): the one type
// external collaborators (cmd/gones, tests, debug tooling) use to drive the
// NES core. It owns a *bus.Bus and the currently loaded cartridge, and
// never imports anything beyond the core packages and the standard library.
package emulator

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"gones/internal/bus"
	"gones/internal/cartridge"
	"gones/internal/cpu"
)

// Error wraps a failure from one of Emu's operations with the component and
// operation that produced it, mirroring the teacher's ApplicationError.
type Error struct {
	Component string
	Operation string
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("emulator: %s error during %s: %v", e.Component, e.Operation, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Emu is the host-facing NES emulator: attach a ROM, feed it controller
// input, and step it one frame at a time.
type Emu struct {
	bus     *bus.Bus
	cart    *cartridge.Cartridge
	romPath string
}

// New creates an Emu with no cartridge attached; call Attach before
// StepFrame.
func New() *Emu {
	return &Emu{bus: bus.New()}
}

// Attach parses romBytes as an iNES ROM image, attaches it to the bus, and
// resets the system. A malformed header or unsupported mapper is fatal and
// reported to the host, per spec.md §7's MalformedROM/UnsupportedMapper
// error kinds.
func (e *Emu) Attach(romBytes []byte) error {
	cart, err := cartridge.Load(romBytes)
	if err != nil {
		return &Error{Component: "cartridge", Operation: "attach", Err: err}
	}
	e.cart = cart
	e.bus.Attach(cart)
	e.bus.Reset()
	return nil
}

// Reset reinitializes the whole machine to its power-up/reset state,
// leaving the currently attached cartridge in place.
func (e *Emu) Reset() {
	e.bus.Reset()
}

// SetController sets the bit-packed button state for controller port 0 or
// 1 (spec.md §6's set_controller; bit0=A ... bit7=Right).
func (e *Emu) SetController(port int, buttons uint8) {
	e.bus.Input.SetController(port, buttons)
}

// StepFrame runs the machine until the PPU completes one frame and returns
// that frame's buffer alongside the APU samples generated while producing
// it, draining the sample queue (spec.md §6's step_frame).
func (e *Emu) StepFrame() (frame [256 * 240]uint32, samples []float32) {
	frame = e.bus.StepFrame()
	samples = e.bus.AudioSamples()
	return frame, samples
}

// PeekDisassembly decodes the instructions occupying [start, end] of CPU
// address space without altering any emulator state, for debug tooling
// (spec.md §6's optional peek_disassembly).
func (e *Emu) PeekDisassembly(start, end uint16) map[uint16]string {
	out := make(map[uint16]string)
	for _, inst := range cpu.Disassemble(e.bus, start, end) {
		out[inst.Address] = inst.Text
	}
	return out
}

// CycleCount returns the number of master cycles executed since the last Reset.
func (e *Emu) CycleCount() uint64 {
	return e.bus.CycleCount()
}

// Bus exposes the underlying bus for callers (debug tooling, tests) that
// need component-level access beyond the Emu surface.
func (e *Emu) Bus() *bus.Bus { return e.bus }

// snapshot is the gob-encoded form of SaveState/LoadState: the whole
// machine's state plus enough cartridge identity to sanity-check LoadState
// against a mismatched ROM.
type snapshot struct {
	Bus      bus.State
	MapperID uint8
	PRGSize  int
}

// SaveState serializes the entire machine (CPU, PPU, APU, RAM, cartridge
// RAM) to a byte slice, the way the teacher's internal/app/states.go saves
// slots, generalized per SPEC_FULL.md §4: gob instead of JSON, since the
// core has no use for the teacher's screenshot/slot/metadata wrapping.
func (e *Emu) SaveState() ([]byte, error) {
	if e.cart == nil {
		return nil, &Error{Component: "emulator", Operation: "save state", Err: fmt.Errorf("no cartridge attached")}
	}
	snap := snapshot{
		Bus:      e.bus.State(),
		MapperID: e.cart.MapperID(),
		PRGSize:  len(e.cart.PRGRAM()),
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(snap); err != nil {
		return nil, &Error{Component: "emulator", Operation: "save state", Err: err}
	}
	return buf.Bytes(), nil
}

// LoadState restores a snapshot previously produced by SaveState. The same
// ROM (or at least the same mapper and PRG-RAM size) must already be
// attached via Attach.
func (e *Emu) LoadState(data []byte) error {
	if e.cart == nil {
		return &Error{Component: "emulator", Operation: "load state", Err: fmt.Errorf("no cartridge attached")}
	}
	var snap snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&snap); err != nil {
		return &Error{Component: "emulator", Operation: "load state", Err: err}
	}
	if snap.MapperID != e.cart.MapperID() || snap.PRGSize != len(e.cart.PRGRAM()) {
		return &Error{Component: "emulator", Operation: "load state", Err: fmt.Errorf("state does not match the attached cartridge")}
	}
	e.bus.SetState(snap.Bus)
	return nil
}
