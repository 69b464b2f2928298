// registers.go - Register, segment and effective-address enumerations
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later

package cpu8086

import "fmt"

// Register indexes the 8086 register file as (w << 3) | reg.
type Register uint8

const (
	RegAL Register = iota
	RegCL
	RegDL
	RegBL
	RegAH
	RegCH
	RegDH
	RegBH
	RegAX
	RegCX
	RegDX
	RegBX
	RegSP
	RegBP
	RegSI
	RegDI
	registerCount
)

var registerNames = [registerCount]string{
	"al", "cl", "dl", "bl", "ah", "ch", "dh", "bh",
	"ax", "cx", "dx", "bx", "sp", "bp", "si", "di",
}

// registerParent maps every register to the 16-bit register owning it.
var registerParent = [registerCount]Register{
	RegAX, RegCX, RegDX, RegBX, RegAX, RegCX, RegDX, RegBX,
	RegAX, RegCX, RegDX, RegBX, RegSP, RegBP, RegSI, RegDI,
}

// RegisterFor builds a register from the 3-bit reg field and the w flag.
func RegisterFor(reg byte, w byte) Register {
	return Register((w&1)<<3 | reg&0b111)
}

// RegisterByName looks up a register by its lower-case assembler name.
func RegisterByName(name string) (Register, bool) {
	for i, n := range registerNames {
		if n == name {
			return Register(i), true
		}
	}
	return 0, false
}

func (r Register) String() string {
	if r < registerCount {
		return registerNames[r]
	}
	return fmt.Sprintf("Register(%d)", uint8(r))
}

// Wide reports whether the register is 16 bits.
func (r Register) Wide() bool {
	return r >= RegAX
}

// Parent returns the 16-bit register that owns r.
func (r Register) Parent() Register {
	return registerParent[r]
}

// SegmentRegister indexes ES, CS, SS, DS in encoding order.
type SegmentRegister uint8

const (
	SegES SegmentRegister = iota
	SegCS
	SegSS
	SegDS
	segmentCount
)

var segmentNames = [segmentCount]string{"es", "cs", "ss", "ds"}

// SegmentByName looks up a segment register by its lower-case name.
func SegmentByName(name string) (SegmentRegister, bool) {
	for i, n := range segmentNames {
		if n == name {
			return SegmentRegister(i), true
		}
	}
	return 0, false
}

func (s SegmentRegister) String() string {
	if s < segmentCount {
		return segmentNames[s]
	}
	return fmt.Sprintf("SegmentRegister(%d)", uint8(s))
}

// EffectiveAddress is the base expression of a memory operand, indexed by
// the rgm field. EADirect marks the mod=00 rgm=110 direct address form.
type EffectiveAddress uint8

const (
	EABXSI EffectiveAddress = iota
	EABXDI
	EABPSI
	EABPDI
	EASI
	EADI
	EABP
	EABX
	EADirect
)

var effectiveAddressNames = [...]string{
	"bx + si", "bx + di", "bp + si", "bp + di", "si", "di", "bp", "bx", "",
}

func (ea EffectiveAddress) String() string {
	if int(ea) < len(effectiveAddressNames) {
		return effectiveAddressNames[ea]
	}
	return fmt.Sprintf("EffectiveAddress(%d)", uint8(ea))
}
