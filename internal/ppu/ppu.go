// Package ppu implements the NES Picture Processing Unit (2C02): the
// scanline/dot rendering pipeline, background fetch shifters, sprite
// evaluation, and sprite-0 hit detection.
package ppu

import "gones/internal/cartridge"

const (
	ctrlNametableMask   = 0x03
	ctrlIncrement32     = 0x04
	ctrlSpritePattern   = 0x08
	ctrlBgPattern       = 0x10
	ctrlSpriteSize8x16  = 0x20
	ctrlGenerateNMI     = 0x80
	maskGreyscale       = 0x01
	maskShowBgLeft      = 0x02
	maskShowSpLeft      = 0x04
	maskShowBg          = 0x08
	maskShowSp          = 0x10
	statusSpriteOverfl  = 0x20
	statusSprite0Hit    = 0x40
	statusVBlank        = 0x80
)

// spriteSlot holds the per-sprite state used during the shift phase of the
// sprite pipeline, one per evaluated sprite on the current scanline.
type spriteSlot struct {
	x            uint8
	y            uint8
	tileID       uint8
	attr         uint8
	patternLo    uint8
	patternHi    uint8
	isSpriteZero bool
}

// PPU is the NES Picture Processing Unit.
type PPU struct {
	cart *cartridge.Cartridge

	ctrl   uint8
	mask   uint8
	status uint8

	oamAddr uint8
	oam     [256]uint8

	v, t uint16
	x    uint8
	w    bool

	readBuffer uint8

	nametables [2][1024]uint8
	palette    [32]uint8

	scanline int
	cycle    int
	oddFrame bool

	frameComplete bool
	frameBuffer   [256 * 240]uint32

	bgNextTileID  uint8
	bgNextAttrib  uint8
	bgNextLSB     uint8
	bgNextMSB     uint8
	bgShiftLo     uint16
	bgShiftHi     uint16
	bgAttrShiftLo uint16
	bgAttrShiftHi uint16

	secondaryOAM    []spriteSlot
	spriteCount     int
	sprite0Rendered bool

	nmiCallback           func()
	frameCompleteCallback func()
}

// New creates a PPU with no cartridge attached; call AttachCartridge before use.
func New() *PPU {
	p := &PPU{scanline: -1}
	p.Reset()
	return p
}

// AttachCartridge wires the cartridge whose mapper backs CHR reads/writes
// and nametable mirroring.
func (p *PPU) AttachCartridge(c *cartridge.Cartridge) {
	p.cart = c
}

// SetNMICallback installs the callback invoked when vblank sets with
// generate-NMI enabled in PPUCTRL.
func (p *PPU) SetNMICallback(cb func()) { p.nmiCallback = cb }

// SetFrameCompleteCallback installs the callback invoked once per completed frame.
func (p *PPU) SetFrameCompleteCallback(cb func()) { p.frameCompleteCallback = cb }

// Reset restores power-up register state and clears OAM. Nametable and
// palette RAM keep their contents.
func (p *PPU) Reset() {
	p.ctrl = 0
	p.mask = 0
	p.status = 0
	p.oamAddr = 0
	p.v, p.t, p.x = 0, 0, 0
	p.w = false
	p.readBuffer = 0
	p.scanline = -1
	p.cycle = 0
	p.oddFrame = false
	p.frameComplete = false
	p.bgShiftLo, p.bgShiftHi = 0, 0
	p.bgAttrShiftLo, p.bgAttrShiftHi = 0, 0
	p.secondaryOAM = nil
	p.spriteCount = 0
	p.sprite0Rendered = false
	for i := range p.oam {
		p.oam[i] = 0
	}
}

// FrameBuffer returns the last fully rendered 256x240 RGB frame.
func (p *PPU) FrameBuffer() [256 * 240]uint32 { return p.frameBuffer }

// FrameComplete reports whether a frame finished since the last call and
// clears the flag (one-shot, consumed by the bus's step_frame loop).
func (p *PPU) FrameComplete() bool {
	done := p.frameComplete
	p.frameComplete = false
	return done
}

// ---- CPU register interface ($2000-$2007, mirrored through $3FFF) ----

// ReadRegister services a CPU read of a PPU register, $2000-$2007 mirrored.
func (p *PPU) ReadRegister(addr uint16) uint8 {
	switch addr & 7 {
	case 2: // PPUSTATUS
		value := (p.status & 0xE0) | (p.readBuffer & 0x1F)
		p.status &^= statusVBlank
		p.w = false
		return value
	case 4: // OAMDATA
		return p.oam[p.oamAddr]
	case 7: // PPUDATA
		value := p.readBuffer
		p.readBuffer = p.readVRAM(p.v & 0x3FFF)
		if p.v&0x3FFF >= 0x3F00 {
			value = p.readBuffer
		}
		p.incrementVRAMAddr()
		return value
	default:
		return 0
	}
}

// WriteRegister services a CPU write to a PPU register, $2000-$2007 mirrored.
func (p *PPU) WriteRegister(addr uint16, value uint8) {
	switch addr & 7 {
	case 0: // PPUCTRL
		p.ctrl = value
		p.t = (p.t &^ 0x0C00) | (uint16(value&ctrlNametableMask) << 10)
	case 1: // PPUMASK
		p.mask = value
	case 3: // OAMADDR
		p.oamAddr = value
	case 4: // OAMDATA
		p.oam[p.oamAddr] = value
		p.oamAddr++
	case 5: // PPUSCROLL
		if !p.w {
			p.x = value & 0x07
			p.t = (p.t &^ 0x001F) | uint16(value>>3)
		} else {
			p.t = (p.t &^ 0x73E0) | (uint16(value&0x07) << 12) | (uint16(value&0xF8) << 2)
		}
		p.w = !p.w
	case 6: // PPUADDR
		if !p.w {
			p.t = (p.t & 0x00FF) | (uint16(value&0x3F) << 8)
		} else {
			p.t = (p.t & 0xFF00) | uint16(value)
			p.v = p.t
		}
		p.w = !p.w
	case 7: // PPUDATA
		p.writeVRAM(p.v&0x3FFF, value)
		p.incrementVRAMAddr()
	}
}

func (p *PPU) incrementVRAMAddr() {
	if p.ctrl&ctrlIncrement32 != 0 {
		p.v += 32
	} else {
		p.v++
	}
	p.v &= 0x7FFF
}

// OAMDMAWrite writes one byte into OAM at the current OAMADDR, advancing it,
// as used by the bus's OAM DMA engine.
func (p *PPU) OAMDMAWrite(value uint8) {
	p.oam[p.oamAddr] = value
	p.oamAddr++
}

// OAMAddr exposes the current OAMADDR for the DMA engine's destination base.
func (p *PPU) OAMAddr() uint8 { return p.oamAddr }

// State is a flat snapshot of everything needed to resume rendering
// mid-frame, used by internal/emulator's save-state support.
type State struct {
	Ctrl, Mask, Status, OAMAddr uint8
	OAM                         [256]uint8
	V, T                        uint16
	X                           uint8
	W                           bool
	ReadBuffer                  uint8
	Nametables                  [2][1024]uint8
	Palette                     [32]uint8
	Scanline, Cycle             int
	OddFrame                    bool
	FrameBuffer                 [256 * 240]uint32
}

// State captures the PPU's current register and memory contents.
func (p *PPU) State() State {
	return State{
		Ctrl: p.ctrl, Mask: p.mask, Status: p.status, OAMAddr: p.oamAddr,
		OAM: p.oam,
		V:   p.v, T: p.t, X: p.x, W: p.w,
		ReadBuffer:  p.readBuffer,
		Nametables:  p.nametables,
		Palette:     p.palette,
		Scanline:    p.scanline, Cycle: p.cycle, OddFrame: p.oddFrame,
		FrameBuffer: p.frameBuffer,
	}
}

// SetState restores a previously captured State.
func (p *PPU) SetState(s State) {
	p.ctrl, p.mask, p.status, p.oamAddr = s.Ctrl, s.Mask, s.Status, s.OAMAddr
	p.oam = s.OAM
	p.v, p.t, p.x, p.w = s.V, s.T, s.X, s.W
	p.readBuffer = s.ReadBuffer
	p.nametables = s.Nametables
	p.palette = s.Palette
	p.scanline, p.cycle, p.oddFrame = s.Scanline, s.Cycle, s.OddFrame
	p.frameBuffer = s.FrameBuffer
}

// ---- internal VRAM space: pattern tables (cartridge), nametables, palette ----

func (p *PPU) readVRAM(addr uint16) uint8 {
	switch {
	case addr < 0x2000:
		return p.cart.ReadPPU(addr)
	case addr < 0x3F00:
		return p.nametables[p.nametableBank(addr)][addr&0x03FF]
	default:
		return p.readPalette(addr)
	}
}

func (p *PPU) writeVRAM(addr uint16, value uint8) {
	switch {
	case addr < 0x2000:
		p.cart.WritePPU(addr, value)
	case addr < 0x3F00:
		p.nametables[p.nametableBank(addr)][addr&0x03FF] = value
	default:
		p.writePalette(addr, value)
	}
}

// nametableBank resolves a $2000-$3EFF nametable address to one of the two
// physical 1KB banks, applying the cartridge's mirroring policy.
func (p *PPU) nametableBank(addr uint16) int {
	table := (addr >> 10) & 0x03 // which of the four logical 1KB slots
	switch p.cart.Mirroring() {
	case cartridge.MirrorVertical:
		return int(table & 0x01)
	case cartridge.MirrorSingleLow:
		return 0
	case cartridge.MirrorSingleHigh:
		return 1
	default: // Horizontal
		return int(table >> 1)
	}
}

func (p *PPU) readPalette(addr uint16) uint8 {
	return p.palette[paletteIndex(addr)]
}

func (p *PPU) writePalette(addr uint16, value uint8) {
	p.palette[paletteIndex(addr)] = value & 0x3F
}

func paletteIndex(addr uint16) uint16 {
	idx := addr & 0x1F
	if idx == 0x10 || idx == 0x14 || idx == 0x18 || idx == 0x1C {
		idx &= 0x0F
	}
	return idx
}

func (p *PPU) renderingEnabled() bool {
	return p.mask&(maskShowBg|maskShowSp) != 0
}
