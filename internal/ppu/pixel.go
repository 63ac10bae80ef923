package ppu

// producePixel resolves the background/sprite multiplex for the current dot
// (p.scanline, p.cycle-1), writes it into the frame buffer, detects sprite-0
// hit, and advances the sprite shifters.
func (p *PPU) producePixel() {
	x := p.cycle - 1

	bgPixel, bgPalette := p.backgroundPixelAt()
	spPixel, spPalette, spBehindBG, spIsZero, spAny := p.spritePixelAt()

	var finalPixel, finalPalette uint8
	switch {
	case bgPixel == 0 && !spAny:
		finalPixel, finalPalette = 0, 0
	case bgPixel == 0 && spAny:
		finalPixel, finalPalette = spPixel, spPalette
	case bgPixel != 0 && !spAny:
		finalPixel, finalPalette = bgPixel, bgPalette
	default: // both opaque
		if spIsZero && x != 255 && p.mask&maskShowBg != 0 && p.mask&maskShowSp != 0 {
			p.status |= statusSprite0Hit
		}
		if spBehindBG {
			finalPixel, finalPalette = bgPixel, bgPalette
		} else {
			finalPixel, finalPalette = spPixel, spPalette
		}
	}

	var addr uint16 = 0x3F00
	if finalPixel != 0 {
		addr += uint16(finalPalette)<<2 | uint16(finalPixel)
	}
	color := SystemPalette[p.readPalette(addr)&0x3F]
	p.frameBuffer[p.scanline*256+x] = color

	p.tickSprites()
}

// backgroundPixelAt reads the current 2-bit pixel and 2-bit palette selector
// out of the background shift registers at the current fine-x offset.
func (p *PPU) backgroundPixelAt() (pixel, palette uint8) {
	if p.mask&maskShowBg == 0 {
		return 0, 0
	}
	shift := uint(15 - p.x)
	lo := (p.bgShiftLo >> shift) & 1
	hi := (p.bgShiftHi >> shift) & 1
	pixel = uint8((hi << 1) | lo)
	alo := (p.bgAttrShiftLo >> shift) & 1
	ahi := (p.bgAttrShiftHi >> shift) & 1
	palette = uint8((ahi << 1) | alo)
	return pixel, palette
}
