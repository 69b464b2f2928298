// machine.go - 8086 virtual machine state
//
// This implements the register file and memory of the simulated machine:
// - AX/BX/CX/DX with AL/AH style byte aliases
// - SP/BP/SI/DI without byte aliases
// - ES/CS/SS/DS segment registers (stored, never composed into addresses)
// - Flags register using the x86 bit positions
// - Flat 64KB byte-addressable memory
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later

package cpu8086

import (
	"fmt"
	"strings"
)

// MemorySize is the flat address space reachable with 16-bit offsets.
const MemorySize = 64 * 1024

// Flag bit positions
const (
	FlagCF uint16 = 1 << 0  // Carry Flag
	FlagPF uint16 = 1 << 2  // Parity Flag
	FlagAF uint16 = 1 << 4  // Auxiliary Carry Flag
	FlagZF uint16 = 1 << 6  // Zero Flag
	FlagSF uint16 = 1 << 7  // Sign Flag
	FlagTF uint16 = 1 << 8  // Trap Flag
	FlagIF uint16 = 1 << 9  // Interrupt Enable Flag
	FlagDF uint16 = 1 << 10 // Direction Flag
	FlagOF uint16 = 1 << 11 // Overflow Flag
)

type namedFlag struct {
	bit    uint16
	letter byte
}

// flagOrder is the order flags are listed in state strings.
var flagOrder = [...]namedFlag{
	{FlagCF, 'C'}, {FlagPF, 'P'}, {FlagAF, 'A'}, {FlagZF, 'Z'}, {FlagSF, 'S'},
	{FlagTF, 'T'}, {FlagIF, 'I'}, {FlagDF, 'D'}, {FlagOF, 'O'},
}

// FlagByName maps a flag letter or two-letter name ("z", "zf") to its bit.
func FlagByName(name string) (uint16, bool) {
	name = strings.ToUpper(strings.TrimSuffix(strings.ToLower(name), "f"))
	if len(name) != 1 {
		return 0, false
	}
	for _, f := range flagOrder {
		if f.letter == name[0] {
			return f.bit, true
		}
	}
	return 0, false
}

// FlagsString lists the set flags, e.g. "PZ".
func FlagsString(flags uint16) string {
	var sb strings.Builder
	for _, f := range flagOrder {
		if flags&f.bit != 0 {
			sb.WriteByte(f.letter)
		}
	}
	return sb.String()
}

// Machine is the complete simulated machine state. It is created zeroed
// and owned by one Executor.
type Machine struct {
	AX, BX, CX, DX uint16
	SP, BP, SI, DI uint16

	ES, CS, SS, DS uint16

	Flags uint16

	Memory []byte

	IP     int    // index of the next instruction in the program
	Clocks uint64 // running clock total
}

// NewMachine returns a zeroed machine with a full 64KB memory.
func NewMachine() *Machine {
	return &Machine{Memory: make([]byte, MemorySize)}
}

// Reset zeroes registers, flags, memory and counters.
func (m *Machine) Reset() {
	mem := m.Memory
	clear(mem)
	*m = Machine{Memory: mem}
}

// -----------------------------------------------------------------------------
// Register Access Helpers
// -----------------------------------------------------------------------------

func (m *Machine) word(r Register) *uint16 {
	switch r.Parent() {
	case RegAX:
		return &m.AX
	case RegCX:
		return &m.CX
	case RegDX:
		return &m.DX
	case RegBX:
		return &m.BX
	case RegSP:
		return &m.SP
	case RegBP:
		return &m.BP
	case RegSI:
		return &m.SI
	case RegDI:
		return &m.DI
	}
	panic(fmt.Sprintf("cpu8086: invalid register %d", uint8(r)))
}

// Reg returns the value of r; byte registers read their half of the parent.
func (m *Machine) Reg(r Register) uint16 {
	w := *m.word(r)
	switch {
	case r.Wide():
		return w
	case r >= RegAH:
		return w >> 8
	default:
		return w & 0xFF
	}
}

// SetReg writes r. Byte registers only replace their half of the parent.
func (m *Machine) SetReg(r Register, v uint16) {
	p := m.word(r)
	switch {
	case r.Wide():
		*p = v
	case r >= RegAH:
		*p = (*p & 0x00FF) | (v&0xFF)<<8
	default:
		*p = (*p & 0xFF00) | v&0xFF
	}
}

// Seg returns a segment register value.
func (m *Machine) Seg(s SegmentRegister) uint16 {
	return *m.seg(s)
}

// SetSeg writes a segment register.
func (m *Machine) SetSeg(s SegmentRegister, v uint16) {
	*m.seg(s) = v
}

func (m *Machine) seg(s SegmentRegister) *uint16 {
	switch s {
	case SegES:
		return &m.ES
	case SegCS:
		return &m.CS
	case SegSS:
		return &m.SS
	case SegDS:
		return &m.DS
	}
	panic(fmt.Sprintf("cpu8086: invalid segment register %d", uint8(s)))
}

// -----------------------------------------------------------------------------
// Flag Helpers
// -----------------------------------------------------------------------------

// Flag returns true if the flag bit is set.
func (m *Machine) Flag(flag uint16) bool {
	return m.Flags&flag != 0
}

// SetFlag sets or clears a flag bit.
func (m *Machine) SetFlag(flag uint16, set bool) {
	if set {
		m.Flags |= flag
	} else {
		m.Flags &^= flag
	}
}

// parity returns the parity of the low byte (true = even, false = odd)
func parity(v byte) bool {
	v ^= v >> 4
	v ^= v >> 2
	v ^= v >> 1
	return (v & 1) == 0
}

// setFlagsArith sets flags after an add or subtract of b into a at the
// given width. result is the unmasked wide result.
func (m *Machine) setFlagsArith(word bool, result uint32, a, b uint16, sub bool) {
	mask, sign := uint32(0xFF), uint16(0x80)
	if word {
		mask, sign = 0xFFFF, 0x8000
	}
	r := uint16(result & mask)
	m.SetFlag(FlagCF, result > mask)
	m.SetFlag(FlagZF, r == 0)
	m.SetFlag(FlagSF, r&sign != 0)
	m.SetFlag(FlagPF, parity(byte(r)))

	if sub {
		m.SetFlag(FlagOF, (a^b)&(a^r)&sign != 0)
		m.SetFlag(FlagAF, (a&0x0F) < (b&0x0F))
	} else {
		m.SetFlag(FlagOF, (^(a^b))&(a^r)&sign != 0)
		m.SetFlag(FlagAF, (a&0x0F)+(b&0x0F) > 0x0F)
	}
}

// Arith computes a+b or a-b at the given width, updates the arithmetic
// flags and returns the masked result.
func (m *Machine) Arith(word bool, a, b uint16, sub bool) uint16 {
	if !word {
		a, b = a&0xFF, b&0xFF
	}
	var result uint32
	if sub {
		result = uint32(a) - uint32(b)
	} else {
		result = uint32(a) + uint32(b)
	}
	m.setFlagsArith(word, result, a, b, sub)
	if word {
		return uint16(result)
	}
	return uint16(result & 0xFF)
}

// -----------------------------------------------------------------------------
// Memory Access
// -----------------------------------------------------------------------------

// Read reads a byte or little-endian word; word reads wrap at 0xFFFF.
func (m *Machine) Read(addr uint16, word bool) uint16 {
	lo := uint16(m.Memory[addr])
	if !word {
		return lo
	}
	return lo | uint16(m.Memory[addr+1])<<8
}

// Write stores a byte or little-endian word.
func (m *Machine) Write(addr uint16, v uint16, word bool) {
	m.Memory[addr] = byte(v)
	if word {
		m.Memory[addr+1] = byte(v >> 8)
	}
}

// MemoryRange returns a copy of size bytes starting at offset, clipped to
// the address space.
func (m *Machine) MemoryRange(offset, size int) []byte {
	if offset < 0 || offset >= len(m.Memory) || size <= 0 {
		return nil
	}
	end := min(offset+size, len(m.Memory))
	return append([]byte(nil), m.Memory[offset:end]...)
}

// EffectiveAddress computes base + displacement with 16-bit wraparound.
func (m *Machine) EffectiveAddress(base EffectiveAddress, disp int16) uint16 {
	var ea uint16
	switch base {
	case EABXSI:
		ea = m.BX + m.SI
	case EABXDI:
		ea = m.BX + m.DI
	case EABPSI:
		ea = m.BP + m.SI
	case EABPDI:
		ea = m.BP + m.DI
	case EASI:
		ea = m.SI
	case EADI:
		ea = m.DI
	case EABP:
		ea = m.BP
	case EABX:
		ea = m.BX
	case EADirect:
	default:
		panic(fmt.Sprintf("cpu8086: invalid effective address %d", uint8(base)))
	}
	return ea + uint16(disp)
}
