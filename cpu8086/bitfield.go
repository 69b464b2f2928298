// bitfield.go - Bit run extraction for 8086 instruction bytes
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later

package cpu8086

import "fmt"

// FieldKind identifies what a BitField describes inside an instruction.
type FieldKind uint8

const (
	FieldNone FieldKind = iota
	FieldLiteral
	FieldSign
	FieldWord
	FieldDirection
	FieldMod
	FieldReg
	FieldSegment
	FieldRgm
	FieldDisp
	FieldData
	FieldAddr
	FieldInc8
	fieldKindCount
)

var fieldKindNames = [fieldKindCount]string{
	"none", "lit", "s", "w", "d", "mod", "reg", "sr", "rgm", "disp", "data", "addr", "inc8",
}

func (k FieldKind) String() string {
	if k < fieldKindCount {
		return fieldKindNames[k]
	}
	return fmt.Sprintf("FieldKind(%d)", uint8(k))
}

// extension reports whether the field only marks trailing bytes that the
// decoder reads after the opcode bytes.
func (k FieldKind) extension() bool {
	return k == FieldDisp || k == FieldData || k == FieldAddr || k == FieldInc8
}

// BitField locates a run of bits: (data[Byte] >> Shift) & Mask.
type BitField struct {
	Kind  FieldKind
	Byte  uint8
	Shift uint8
	Mask  uint8
}

func (b BitField) String() string {
	return fmt.Sprintf("%s(byte=%d shr=%d and=0b%b)", b.Kind, b.Byte, b.Shift, b.Mask)
}

// Extract reads the field out of data. A FieldNone field means the catalog
// and decoder disagree about an instruction layout, so it panics.
func (b BitField) Extract(data []byte) byte {
	if b.Kind == FieldNone || b.Kind >= fieldKindCount {
		panic(fmt.Sprintf("cpu8086: extract of invalid bit field %s", b))
	}
	return (data[b.Byte] >> b.Shift) & b.Mask
}

// present reports whether the descriptor declares this field.
func (b BitField) present() bool {
	return b.Kind != FieldNone
}
