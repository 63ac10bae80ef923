package cartridge

// mapper2 implements UxROM: a single switchable 16KB PRG bank at $8000-$BFFF
// selected by any write to $8000-$FFFF, with the last bank fixed at
// $C000-$FFFF. CHR is not banked: it is the cartridge's CHR buffer, writable
// only when the header declares no CHR banks (8KB RAM). Supplements spec.md's two documented
// mappers per SPEC_FULL.md, grounded on original_source/src/Mappers/mapper_2.rs.
type mapper2 struct {
	cart       *Cartridge
	prgBanks16 int
	selected   uint8
}

func newMapper2(cart *Cartridge) *mapper2 {
	return &mapper2{cart: cart, prgBanks16: len(cart.prg) / prgBankSize}
}

func (m *mapper2) Reset() {
	m.selected = 0
}

func (m *mapper2) CPUMapRead(addr uint16) (int, bool) {
	if addr < 0x8000 {
		return 0, false
	}
	if addr < 0xC000 {
		return int(m.selected)*prgBankSize + int(addr-0x8000), true
	}
	last := m.prgBanks16 - 1
	return last*prgBankSize + int(addr-0xC000), true
}

func (m *mapper2) CPUMapWrite(addr uint16, value uint8) {
	if addr < 0x8000 {
		return
	}
	m.selected = value & 0x0F
}

func (m *mapper2) PPUMapRead(addr uint16) (int, bool) {
	if addr >= 0x2000 {
		return 0, false
	}
	return int(addr), true
}

func (m *mapper2) PPUMapWrite(addr uint16) (int, bool) {
	if addr >= 0x2000 || !m.cart.chrIsRAM {
		return 0, false
	}
	return int(addr), true
}

func (m *mapper2) Mirroring() Mirroring { return MirrorHardwareDefer }
