package cpu

import "fmt"

// DisassembledInstruction is one decoded instruction from a Disassemble walk:
// its address, the raw bytes it occupies, and a human-readable mnemonic line.
type DisassembledInstruction struct {
	Address uint16
	Bytes   []uint8
	Text    string
}

var disassemblerTable = New(nil).instructions

// Disassemble walks mem from start to end (inclusive) decoding one
// instruction at a time, the way the original's debug tooling and
// spec.md §6's peek_disassembly do. It never writes to mem or touches any
// CPU state; unrecognized opcodes are emitted as a single-byte ".byte" line
// so the walk can't desync on illegal/undocumented opcodes.
func Disassemble(mem MemoryInterface, start, end uint16) []DisassembledInstruction {
	var out []DisassembledInstruction
	addr := start
	for addr <= end {
		opcode := mem.Read(addr)
		inst := disassemblerTable[opcode]
		if inst == nil {
			out = append(out, DisassembledInstruction{
				Address: addr,
				Bytes:   []uint8{opcode},
				Text:    fmt.Sprintf("$%04X: .byte $%02X", addr, opcode),
			})
			if addr == end {
				break
			}
			addr++
			continue
		}

		length := uint16(inst.Bytes)
		if length == 0 {
			length = 1
		}
		raw := make([]uint8, 0, length)
		for i := uint16(0); i < length; i++ {
			raw = append(raw, mem.Read(addr+i))
		}

		out = append(out, DisassembledInstruction{
			Address: addr,
			Bytes:   raw,
			Text:    formatOperand(addr, inst, raw),
		})

		if end-addr < length {
			break
		}
		addr += length
		if length == 0 {
			break
		}
	}
	return out
}

// formatOperand renders one decoded instruction as "$ADDR: MNEMONIC OPERAND",
// using the conventional 6502 disassembly operand syntax for each mode.
func formatOperand(addr uint16, inst *Instruction, raw []uint8) string {
	operand := ""
	switch inst.Mode {
	case Implied:
		operand = ""
	case Accumulator:
		operand = "A"
	case Immediate:
		operand = fmt.Sprintf("#$%02X", raw[1])
	case ZeroPage:
		operand = fmt.Sprintf("$%02X", raw[1])
	case ZeroPageX:
		operand = fmt.Sprintf("$%02X,X", raw[1])
	case ZeroPageY:
		operand = fmt.Sprintf("$%02X,Y", raw[1])
	case Relative:
		target := uint16(int32(addr+2) + int32(int8(raw[1])))
		operand = fmt.Sprintf("$%04X", target)
	case Absolute:
		operand = fmt.Sprintf("$%04X", uint16(raw[1])|uint16(raw[2])<<8)
	case AbsoluteX:
		operand = fmt.Sprintf("$%04X,X", uint16(raw[1])|uint16(raw[2])<<8)
	case AbsoluteY:
		operand = fmt.Sprintf("$%04X,Y", uint16(raw[1])|uint16(raw[2])<<8)
	case Indirect:
		operand = fmt.Sprintf("($%04X)", uint16(raw[1])|uint16(raw[2])<<8)
	case IndexedIndirect:
		operand = fmt.Sprintf("($%02X,X)", raw[1])
	case IndirectIndexed:
		operand = fmt.Sprintf("($%02X),Y", raw[1])
	}
	if operand == "" {
		return fmt.Sprintf("$%04X: %s", addr, inst.Name)
	}
	return fmt.Sprintf("$%04X: %s %s", addr, inst.Name, operand)
}
