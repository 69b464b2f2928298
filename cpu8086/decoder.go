// decoder.go - Instruction decoder driven by catalog bit layouts
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later

package cpu8086

import (
	"github.com/sirupsen/logrus"
)

// DefaultMaxInstructions bounds the decoded program size.
const DefaultMaxInstructions = 4096

// Fields holds the raw values extracted for one instruction.
type Fields struct {
	S, W, D        byte
	Mod, Reg, Rgm  byte
	Seg            byte
	DispLo, DispHi byte
	DataLo, DataHi byte
	AddrLo, AddrHi byte
	Inc8           byte
}

func (f *Fields) disp16() uint16 {
	return uint16(f.DispHi)<<8 | uint16(f.DispLo)
}

func (f *Fields) data16() uint16 {
	return uint16(f.DataHi)<<8 | uint16(f.DataLo)
}

func (f *Fields) addr16() uint16 {
	return uint16(f.AddrHi)<<8 | uint16(f.AddrLo)
}

// Clocks is the estimated cost of one instruction.
type Clocks struct {
	Base  int
	EA    int
	Align int
}

// Total sums the three components.
func (c Clocks) Total() int {
	return c.Base + c.EA + c.Align
}

// Instruction is one decoded instruction record.
type Instruction struct {
	ID       InstructionID
	Mnemonic string
	Action   Action
	Size     int // encoded byte length
	Word     bool
	Fields   Fields
	Src      Operand // nil for branches
	Dst      Operand
	Clocks   Clocks
}

// String renders the instruction in NASM syntax.
func (inst *Instruction) String() string {
	if inst.Src == nil {
		return inst.Mnemonic + " " + inst.Dst.String()
	}
	return inst.Mnemonic + " " + inst.Dst.String() + ", " + inst.Src.String()
}

// Decoder turns raw bytes into a Program.
type Decoder struct {
	MaxInstructions int
	Logger          logrus.FieldLogger
}

// NewDecoder returns a decoder with the default capacity and no logging.
func NewDecoder() *Decoder {
	return &Decoder{MaxInstructions: DefaultMaxInstructions}
}

// DecodeProgram decodes data from offset 0 until it is exhausted. The
// first structural failure stops decoding and is returned as a
// *DecodeError; nothing is skipped.
func (d *Decoder) DecodeProgram(data []byte) (*Program, error) {
	limit := d.MaxInstructions
	if limit <= 0 {
		limit = DefaultMaxInstructions
	}
	prog := &Program{offsets: []int{0}}
	for offset := 0; offset < len(data); {
		index := len(prog.Instructions)
		if index >= limit {
			return prog, d.fail(data, offset, index, ErrProgramFull)
		}
		inst, err := Decode(data[offset:])
		if err != nil {
			return prog, d.fail(data, offset, index, err)
		}
		if d.Logger != nil {
			d.Logger.WithFields(logrus.Fields{
				"index":  index,
				"offset": offset,
				"size":   inst.Size,
				"inst":   inst.String(),
			}).Debug("decoded")
		}
		offset += inst.Size
		prog.append(inst)
	}
	return prog, nil
}

func (d *Decoder) fail(data []byte, offset, index int, err error) error {
	end := min(offset+6, len(data))
	derr := &DecodeError{Offset: offset, Index: index, Bytes: append([]byte(nil), data[offset:end]...), Err: err}
	if d.Logger != nil {
		d.Logger.WithFields(logrus.Fields{
			"index":  index,
			"offset": offset,
			"bytes":  HexString(derr.Bytes),
		}).Debug(err)
	}
	return derr
}

// Decode decodes the single instruction at the start of data.
func Decode(data []byte) (*Instruction, error) {
	desc, err := Match(data)
	if err != nil {
		return nil, err
	}
	return decodeWith(desc, data)
}

func decodeWith(desc *Descriptor, data []byte) (*Instruction, error) {
	inst := &Instruction{ID: desc.ID, Mnemonic: desc.Mnemonic, Action: desc.Action}
	f := &inst.Fields

	count := int(desc.Primary.Where.Byte) + 1
	if desc.Secondary.declared() {
		count = max(count, int(desc.Secondary.Where.Byte)+1)
	}
	for _, field := range desc.Fields {
		if field.present() && !field.Kind.extension() {
			count = max(count, int(field.Byte)+1)
		}
	}
	if count > len(data) {
		return nil, ErrTruncated
	}

	for _, field := range desc.Fields {
		if !field.present() || field.Kind.extension() {
			continue
		}
		v := field.Extract(data)
		switch field.Kind {
		case FieldSign:
			f.S = v
		case FieldWord:
			f.W = v
		case FieldDirection:
			f.D = v
		case FieldMod:
			f.Mod = v
		case FieldReg:
			f.Reg = v
		case FieldSegment:
			f.Seg = v
		case FieldRgm:
			f.Rgm = v
		}
	}

	r := reader{data: data, pos: count}
	if desc.Has(FieldDisp) {
		switch {
		case f.Mod == 0b01:
			f.DispLo = r.next()
			f.DispHi = byte(int16(int8(f.DispLo)) >> 8)
		case f.Mod == 0b10 || (f.Mod == 0b00 && f.Rgm == 0b110):
			f.DispLo = r.next()
			f.DispHi = r.next()
		}
	}
	if desc.Has(FieldData) {
		f.DataLo = r.next()
		switch {
		case f.W == 1 && f.S == 0:
			f.DataHi = r.next()
		default:
			f.DataHi = byte(int16(int8(f.DataLo)) >> 8)
		}
	}
	if desc.Has(FieldAddr) {
		f.AddrLo = r.next()
		f.AddrHi = r.next()
	}
	if desc.Has(FieldInc8) {
		f.Inc8 = r.next()
	}
	if r.short {
		return nil, ErrTruncated
	}
	inst.Size = r.pos
	inst.Word = f.W == 1 || desc.Has(FieldSegment)

	if err := buildOperands(desc, inst); err != nil {
		return nil, err
	}
	clocks, err := EstimateClocks(inst)
	if err != nil {
		return nil, err
	}
	inst.Clocks = clocks
	return inst, nil
}

type reader struct {
	data  []byte
	pos   int
	short bool
}

func (r *reader) next() byte {
	if r.pos >= len(r.data) {
		r.short = true
		r.pos++
		return 0
	}
	b := r.data[r.pos]
	r.pos++
	return b
}

func buildOperands(desc *Descriptor, inst *Instruction) error {
	f := &inst.Fields
	hasReg := desc.Has(FieldReg)
	hasRgm := desc.Has(FieldRgm)
	hasDisp := desc.Has(FieldDisp)
	hasData := desc.Has(FieldData)
	if desc.AccSource || desc.AccDest {
		f.Reg = 0
		hasReg = true
	}

	switch {
	case desc.Has(FieldInc8):
		inst.Dst = newJumpOperand(int8(f.Inc8), inst.Size)

	case desc.Has(FieldAddr):
		acc := newRegisterOperand(RegisterFor(f.Reg, f.W), false)
		addr := newAbsoluteOperand(f.addr16())
		if desc.AccSource {
			inst.Src, inst.Dst = acc, addr
		} else {
			inst.Src, inst.Dst = addr, acc
		}

	case desc.Has(FieldSegment) && hasRgm:
		seg := newSegmentOperand(SegmentRegister(f.Seg))
		rm := rgmOperand(f, 1, false)
		if f.D == 0 {
			inst.Src, inst.Dst = seg, rm
		} else {
			inst.Src, inst.Dst = rm, seg
		}

	case hasReg && hasRgm:
		reg := newRegisterOperand(RegisterFor(f.Reg, f.W), false)
		rm := rgmOperand(f, f.W, false)
		if f.D == 0 {
			inst.Src, inst.Dst = reg, rm
		} else {
			inst.Src, inst.Dst = rm, reg
		}

	case hasData && hasDisp:
		memory := f.Mod != 0b11
		dstSize := desc.ForceDestSize && memory
		srcSize := !dstSize && memory
		inst.Src = newImmediateOperand(f.data16(), f.W == 1, srcSize)
		inst.Dst = rgmOperand(f, f.W, dstSize)

	case hasData && hasReg:
		inst.Src = newImmediateOperand(f.data16(), f.W == 1, false)
		inst.Dst = newRegisterOperand(RegisterFor(f.Reg, f.W), false)

	default:
		return ErrNoOperandShape
	}
	return nil
}

// rgmOperand builds the register-or-memory side from mod/rgm and the
// displacement bytes.
func rgmOperand(f *Fields, w byte, prefix bool) Operand {
	word := w == 1
	switch {
	case f.Mod == 0b11:
		return newRegisterOperand(RegisterFor(f.Rgm, w), prefix)
	case f.Mod == 0b00 && f.Rgm == 0b110:
		return newMemoryOperand(EADirect, int16(f.disp16()), word, prefix)
	case f.Mod == 0b00:
		return newMemoryOperand(EffectiveAddress(f.Rgm), 0, word, prefix)
	default:
		return newMemoryOperand(EffectiveAddress(f.Rgm), int16(f.disp16()), word, prefix)
	}
}
