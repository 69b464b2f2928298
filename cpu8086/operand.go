// operand.go - Typed instruction operands
//
// Operand is a closed sum type: only the six concrete types in this file
// implement it. Each carries its display text, built once at decode time.
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later

package cpu8086

import "fmt"

// OperandKind classifies an operand for clock lookup and execution.
type OperandKind uint8

const (
	OperandNone OperandKind = iota
	OperandRegister
	OperandSegment
	OperandMemory
	OperandImmediate
	OperandAbsolute
	OperandJump
)

var operandKindNames = [...]string{"NOOP", "REG", "SRG", "DISP", "DATA", "ADDR", "INC8"}

func (k OperandKind) String() string {
	if int(k) < len(operandKindNames) {
		return operandKindNames[k]
	}
	return fmt.Sprintf("OperandKind(%d)", uint8(k))
}

// Operand is one side of a decoded instruction.
type Operand interface {
	Kind() OperandKind
	String() string
	// SizePrefixed reports whether the display text carries "byte"/"word".
	SizePrefixed() bool
	isOperand()
}

// KindOf returns the kind of op, or OperandNone for a missing operand.
func KindOf(op Operand) OperandKind {
	if op == nil {
		return OperandNone
	}
	return op.Kind()
}

func sizePrefix(word bool) string {
	if word {
		return "word "
	}
	return "byte "
}

// RegisterOperand names a general register.
type RegisterOperand struct {
	Reg    Register
	Prefix bool
	text   string
}

func newRegisterOperand(reg Register, prefix bool) *RegisterOperand {
	text := reg.String()
	if prefix {
		text = sizePrefix(reg.Wide()) + text
	}
	return &RegisterOperand{Reg: reg, Prefix: prefix, text: text}
}

func (o *RegisterOperand) Kind() OperandKind  { return OperandRegister }
func (o *RegisterOperand) String() string     { return o.text }
func (o *RegisterOperand) SizePrefixed() bool { return o.Prefix }
func (o *RegisterOperand) isOperand()         {}

// SegmentOperand names a segment register.
type SegmentOperand struct {
	Seg  SegmentRegister
	text string
}

func newSegmentOperand(seg SegmentRegister) *SegmentOperand {
	return &SegmentOperand{Seg: seg, text: seg.String()}
}

func (o *SegmentOperand) Kind() OperandKind  { return OperandSegment }
func (o *SegmentOperand) String() string     { return o.text }
func (o *SegmentOperand) SizePrefixed() bool { return false }
func (o *SegmentOperand) isOperand()         {}

// MemoryOperand is an effective-address reference. For EADirect the
// displacement holds the raw 16-bit address.
type MemoryOperand struct {
	Base   EffectiveAddress
	Disp   int16
	Word   bool
	Prefix bool
	text   string
}

func newMemoryOperand(base EffectiveAddress, disp int16, word, prefix bool) *MemoryOperand {
	text := ""
	if prefix {
		text = sizePrefix(word)
	}
	if base == EADirect {
		text += fmt.Sprintf("[%d]", uint16(disp))
	} else {
		text += "[" + base.String()
		if disp > 0 {
			text += fmt.Sprintf(" + %d", disp)
		} else if disp < 0 {
			text += fmt.Sprintf(" - %d", -int(disp))
		}
		text += "]"
	}
	return &MemoryOperand{Base: base, Disp: disp, Word: word, Prefix: prefix, text: text}
}

func (o *MemoryOperand) Kind() OperandKind  { return OperandMemory }
func (o *MemoryOperand) String() string     { return o.text }
func (o *MemoryOperand) SizePrefixed() bool { return o.Prefix }
func (o *MemoryOperand) isOperand()         {}

// Direct reports whether the operand addresses a constant location.
func (o *MemoryOperand) Direct() bool {
	return o.Base == EADirect
}

// ImmediateOperand is literal data. Byte immediates are stored sign
// extended; consumers truncate to the instruction width.
type ImmediateOperand struct {
	Value  uint16
	Word   bool
	Prefix bool
	text   string
}

func newImmediateOperand(value uint16, word, prefix bool) *ImmediateOperand {
	text := ""
	if prefix {
		text = sizePrefix(word)
	}
	if word {
		text += fmt.Sprintf("%d", int16(value))
	} else {
		text += fmt.Sprintf("%d", int8(value))
	}
	return &ImmediateOperand{Value: value, Word: word, Prefix: prefix, text: text}
}

func (o *ImmediateOperand) Kind() OperandKind  { return OperandImmediate }
func (o *ImmediateOperand) String() string     { return o.text }
func (o *ImmediateOperand) SizePrefixed() bool { return o.Prefix }
func (o *ImmediateOperand) isOperand()         {}

// AbsoluteOperand is the 16-bit address of the accumulator move forms.
type AbsoluteOperand struct {
	Addr uint16
	text string
}

func newAbsoluteOperand(addr uint16) *AbsoluteOperand {
	return &AbsoluteOperand{Addr: addr, text: fmt.Sprintf("[%d]", addr)}
}

func (o *AbsoluteOperand) Kind() OperandKind  { return OperandAbsolute }
func (o *AbsoluteOperand) String() string     { return o.text }
func (o *AbsoluteOperand) SizePrefixed() bool { return false }
func (o *AbsoluteOperand) isOperand()         {}

// JumpOperand is a short branch target relative to the end of the branch.
type JumpOperand struct {
	Inc  int8
	Size int // byte length of the branch instruction
	text string
}

func newJumpOperand(inc int8, size int) *JumpOperand {
	return &JumpOperand{Inc: inc, Size: size, text: fmt.Sprintf("($+%d)%+d", size, inc)}
}

func (o *JumpOperand) Kind() OperandKind  { return OperandJump }
func (o *JumpOperand) String() string     { return o.text }
func (o *JumpOperand) SizePrefixed() bool { return false }
func (o *JumpOperand) isOperand()         {}
