// catalog.go - Declarative instruction descriptor table for the 8086 subset
//
// Each descriptor maps an instruction identity to its opcode match
// predicate(s), the bit layout of its fields and a handful of behaviour
// flags. The decoder never switches on opcodes; it reads the layout from
// here and detects the operand shape from which fields are present.
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later

package cpu8086

import "fmt"

// InstructionID identifies one catalog entry.
type InstructionID uint8

const (
	InstMovRgmReg InstructionID = iota
	InstMovImmRgm
	InstMovImmReg
	InstMovMemAcc
	InstMovAccMem
	InstMovSrgRgm
	InstAddRgmReg
	InstAddImmRgm
	InstAddImmAcc
	InstSubRgmReg
	InstSubImmRgm
	InstSubImmAcc
	InstCmpRgmReg
	InstCmpImmRgm
	InstCmpImmAcc
	InstJz
	InstJnz
	InstJl
	InstJnl
	InstJg
	InstJng
	InstJb
	InstJnb
	InstJa
	InstJna
	InstJp
	InstJnp
	InstJo
	InstJno
	InstJs
	InstJns
	InstJcxz
	InstLoop
	InstLoopz
	InstLoopnz
	instructionIDCount
)

var instructionIDNames = [instructionIDCount]string{
	"MOV_RGM_REG", "MOV_IMM_RGM", "MOV_IMM_REG", "MOV_MEM_ACC", "MOV_ACC_MEM", "MOV_SRG_RGM",
	"ADD_RGM_REG", "ADD_IMM_RGM", "ADD_IMM_ACC",
	"SUB_RGM_REG", "SUB_IMM_RGM", "SUB_IMM_ACC",
	"CMP_RGM_REG", "CMP_IMM_RGM", "CMP_IMM_ACC",
	"JMP_JZ", "JMP_JNZ", "JMP_JL", "JMP_JNL", "JMP_JG", "JMP_JNG", "JMP_JB", "JMP_JNB",
	"JMP_JA", "JMP_JNA", "JMP_JP", "JMP_JNP", "JMP_JO", "JMP_JNO", "JMP_JS", "JMP_JNS",
	"JMP_JCXZ", "JMP_LOOP", "JMP_LOOPZ", "JMP_LOOPNZ",
}

func (id InstructionID) String() string {
	if id < instructionIDCount {
		return instructionIDNames[id]
	}
	return fmt.Sprintf("InstructionID(%d)", uint8(id))
}

// Action is the behaviour class the executor dispatches on.
type Action uint8

const (
	ActionMove Action = iota
	ActionAdd
	ActionSub
	ActionCmp
	ActionJump
)

var actionNames = [...]string{"MOV", "ADD", "SUB", "CMP", "JMP"}

func (a Action) String() string {
	if int(a) < len(actionNames) {
		return actionNames[a]
	}
	return fmt.Sprintf("Action(%d)", uint8(a))
}

// OpcodeMatch is satisfied when the bits at Where equal Value.
type OpcodeMatch struct {
	Where BitField
	Value byte
}

func (m OpcodeMatch) declared() bool {
	return m.Where.present()
}

func (m OpcodeMatch) matches(data []byte) bool {
	return m.Where.Extract(data) == m.Value
}

// Descriptor describes one instruction encoding.
type Descriptor struct {
	ID        InstructionID
	Mnemonic  string
	Action    Action
	Primary   OpcodeMatch
	Secondary OpcodeMatch
	Fields    [fieldKindCount]BitField

	AccSource     bool // accumulator is the source operand
	AccDest       bool // accumulator is the destination operand
	ForceDestSize bool // memory destinations carry the byte/word prefix
}

// Field returns the declared layout for kind, or a FieldNone field.
func (d *Descriptor) Field(kind FieldKind) BitField {
	return d.Fields[kind]
}

// Has reports whether the descriptor declares kind.
func (d *Descriptor) Has(kind FieldKind) bool {
	return d.Fields[kind].present()
}

func lit(value, at, shr, and byte) OpcodeMatch {
	return OpcodeMatch{Where: BitField{Kind: FieldLiteral, Byte: at, Shift: shr, Mask: and}, Value: value}
}

// sub3 matches the three sub-opcode bits of the second byte.
func sub3(value byte) OpcodeMatch {
	return lit(value, 1, 3, 0b111)
}

func fld(kind FieldKind, at, shr, and byte) BitField {
	return BitField{Kind: kind, Byte: at, Shift: shr, Mask: and}
}

func layout(fields ...BitField) [fieldKindCount]BitField {
	var out [fieldKindCount]BitField
	for _, f := range fields {
		out[f.Kind] = f
	}
	return out
}

var (
	fDisp = fld(FieldDisp, 0, 0, 0)
	fData = fld(FieldData, 0, 0, 0)
	fAddr = fld(FieldAddr, 0, 0, 0)
	fInc8 = fld(FieldInc8, 0, 0, 0)

	fMod = fld(FieldMod, 1, 6, 0b11)
	fReg = fld(FieldReg, 1, 3, 0b111)
	fRgm = fld(FieldRgm, 1, 0, 0b111)
)

func rgmReg(id InstructionID, mnemonic string, action Action, opcode byte) Descriptor {
	return Descriptor{
		ID: id, Mnemonic: mnemonic, Action: action,
		Primary: lit(opcode, 0, 2, 0b111111),
		Fields:  layout(fld(FieldDirection, 0, 1, 1), fld(FieldWord, 0, 0, 1), fMod, fReg, fRgm, fDisp),
	}
}

func immRgm(id InstructionID, mnemonic string, action Action, subOp byte) Descriptor {
	return Descriptor{
		ID: id, Mnemonic: mnemonic, Action: action,
		Primary:       lit(0b100000, 0, 2, 0b111111),
		Secondary:     sub3(subOp),
		Fields:        layout(fld(FieldSign, 0, 1, 1), fld(FieldWord, 0, 0, 1), fMod, fRgm, fDisp, fData),
		ForceDestSize: true,
	}
}

func immAcc(id InstructionID, mnemonic string, action Action, opcode byte) Descriptor {
	return Descriptor{
		ID: id, Mnemonic: mnemonic, Action: action,
		Primary: lit(opcode, 0, 1, 0b1111111),
		Fields:  layout(fld(FieldWord, 0, 0, 1), fData),
		AccDest: true,
	}
}

func shortJump(id InstructionID, mnemonic string, opcode byte) Descriptor {
	return Descriptor{
		ID: id, Mnemonic: mnemonic, Action: ActionJump,
		Primary: lit(opcode, 0, 0, 0xFF),
		Fields:  layout(fInc8),
	}
}

// catalog is scanned in order by the matcher. Entries sharing a primary
// opcode (the 100000sw immediate group) are split by their secondary match.
var catalog = [...]Descriptor{
	rgmReg(InstMovRgmReg, "mov", ActionMove, 0b100010),
	{
		ID: InstMovImmRgm, Mnemonic: "mov", Action: ActionMove,
		Primary:   lit(0b1100011, 0, 1, 0b1111111),
		Secondary: sub3(0b000),
		Fields:    layout(fld(FieldWord, 0, 0, 1), fMod, fRgm, fDisp, fData),
	},
	{
		ID: InstMovImmReg, Mnemonic: "mov", Action: ActionMove,
		Primary: lit(0b1011, 0, 4, 0b1111),
		Fields:  layout(fld(FieldWord, 0, 3, 1), fld(FieldReg, 0, 0, 0b111), fData),
	},
	{
		ID: InstMovMemAcc, Mnemonic: "mov", Action: ActionMove,
		Primary: lit(0b1010000, 0, 1, 0b1111111),
		Fields:  layout(fld(FieldWord, 0, 0, 1), fAddr),
		AccDest: true,
	},
	{
		ID: InstMovAccMem, Mnemonic: "mov", Action: ActionMove,
		Primary:   lit(0b1010001, 0, 1, 0b1111111),
		Fields:    layout(fld(FieldWord, 0, 0, 1), fAddr),
		AccSource: true,
	},
	{
		// 100011d0: 8C stores a segment register, 8E loads one.
		ID: InstMovSrgRgm, Mnemonic: "mov", Action: ActionMove,
		Primary:   lit(0b100011, 0, 2, 0b111111),
		Secondary: lit(0, 0, 0, 1),
		Fields:    layout(fld(FieldDirection, 0, 1, 1), fMod, fld(FieldSegment, 1, 3, 0b11), fRgm, fDisp),
	},

	rgmReg(InstAddRgmReg, "add", ActionAdd, 0b000000),
	immRgm(InstAddImmRgm, "add", ActionAdd, 0b000),
	immAcc(InstAddImmAcc, "add", ActionAdd, 0b0000010),

	rgmReg(InstSubRgmReg, "sub", ActionSub, 0b001010),
	immRgm(InstSubImmRgm, "sub", ActionSub, 0b101),
	immAcc(InstSubImmAcc, "sub", ActionSub, 0b0010110),

	rgmReg(InstCmpRgmReg, "cmp", ActionCmp, 0b001110),
	immRgm(InstCmpImmRgm, "cmp", ActionCmp, 0b111),
	immAcc(InstCmpImmAcc, "cmp", ActionCmp, 0b0011110),

	shortJump(InstJo, "jo", 0x70),
	shortJump(InstJno, "jno", 0x71),
	shortJump(InstJb, "jb", 0x72),
	shortJump(InstJnb, "jnb", 0x73),
	shortJump(InstJz, "jz", 0x74),
	shortJump(InstJnz, "jnz", 0x75),
	shortJump(InstJna, "jna", 0x76),
	shortJump(InstJa, "ja", 0x77),
	shortJump(InstJs, "js", 0x78),
	shortJump(InstJns, "jns", 0x79),
	shortJump(InstJp, "jp", 0x7A),
	shortJump(InstJnp, "jnp", 0x7B),
	shortJump(InstJl, "jl", 0x7C),
	shortJump(InstJnl, "jnl", 0x7D),
	shortJump(InstJng, "jng", 0x7E),
	shortJump(InstJg, "jg", 0x7F),
	shortJump(InstLoopnz, "loopnz", 0xE0),
	shortJump(InstLoopz, "loopz", 0xE1),
	shortJump(InstLoop, "loop", 0xE2),
	shortJump(InstJcxz, "jcxz", 0xE3),
}

// Catalog returns a copy of the descriptor table in match order.
func Catalog() []Descriptor {
	out := make([]Descriptor, len(catalog))
	copy(out, catalog[:])
	return out
}

// DescriptorFor returns the catalog entry for id.
func DescriptorFor(id InstructionID) (*Descriptor, bool) {
	for i := range catalog {
		if catalog[i].ID == id {
			return &catalog[i], true
		}
	}
	return nil, false
}
