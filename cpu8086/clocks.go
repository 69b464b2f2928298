// clocks.go - 8086 clock estimation
//
// Base costs follow the 8086 instruction timing tables; effective address
// costs follow table 2-20 of the 8086 family user's manual.
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later

package cpu8086

// OddAlignPenalty is added for each word memory operand at an odd address.
const OddAlignPenalty = 4

type timingRow struct {
	id       InstructionID
	src, dst OperandKind
	base     int
	needsEA  bool
}

const (
	opNone = OperandNone
	opReg  = OperandRegister
	opSeg  = OperandSegment
	opMem  = OperandMemory
	opImm  = OperandImmediate
	opAbs  = OperandAbsolute
	opJmp  = OperandJump
)

var timingTable = buildTimingTable()

func buildTimingTable() []timingRow {
	rows := []timingRow{
		{InstMovRgmReg, opReg, opReg, 2, false},
		{InstMovRgmReg, opMem, opReg, 8, true},
		{InstMovRgmReg, opReg, opMem, 9, true},
		{InstMovImmRgm, opImm, opReg, 4, false},
		{InstMovImmRgm, opImm, opMem, 10, true},
		{InstMovImmReg, opImm, opReg, 4, false},
		{InstMovMemAcc, opAbs, opReg, 10, false},
		{InstMovAccMem, opReg, opAbs, 10, false},
		{InstMovSrgRgm, opReg, opSeg, 2, false},
		{InstMovSrgRgm, opMem, opSeg, 8, true},
		{InstMovSrgRgm, opSeg, opReg, 2, false},
		{InstMovSrgRgm, opSeg, opMem, 9, true},

		{InstCmpRgmReg, opReg, opReg, 3, false},
		{InstCmpRgmReg, opMem, opReg, 9, true},
		{InstCmpRgmReg, opReg, opMem, 9, true},
		{InstCmpImmRgm, opImm, opReg, 4, false},
		{InstCmpImmRgm, opImm, opMem, 10, true},
		{InstCmpImmAcc, opImm, opReg, 4, false},
	}
	for _, ids := range [][3]InstructionID{
		{InstAddRgmReg, InstAddImmRgm, InstAddImmAcc},
		{InstSubRgmReg, InstSubImmRgm, InstSubImmAcc},
	} {
		rows = append(rows,
			timingRow{ids[0], opReg, opReg, 3, false},
			timingRow{ids[0], opMem, opReg, 9, true},
			timingRow{ids[0], opReg, opMem, 16, true},
			timingRow{ids[1], opImm, opReg, 4, false},
			timingRow{ids[1], opImm, opMem, 17, true},
			timingRow{ids[2], opImm, opReg, 4, false},
		)
	}

	// Conditional branches are costed as taken.
	for id := InstJz; id <= InstJns; id++ {
		rows = append(rows, timingRow{id, opNone, opJmp, 16, false})
	}
	rows = append(rows,
		timingRow{InstJcxz, opNone, opJmp, 18, false},
		timingRow{InstLoop, opNone, opJmp, 17, false},
		timingRow{InstLoopz, opNone, opJmp, 18, false},
		timingRow{InstLoopnz, opNone, opJmp, 19, false},
	)
	return rows
}

// eaClockTable is indexed by (mod << 3) | rgm for mod 0..2.
var eaClockTable = [24]int{
	// mod=00
	7, 8, 8, 7, 5, 5, 6, 5,
	// mod=01, 8-bit displacement
	11, 12, 12, 11, 9, 9, 9, 9,
	// mod=10, 16-bit displacement
	11, 12, 12, 11, 9, 9, 9, 9,
}

// EAClocks returns the effective address cost for mod/rgm. [bp] can only
// be encoded as bp+d8, so a zero 8-bit displacement costs as plain [bp].
func EAClocks(mod, rgm byte, dispLo, dispHi byte) int {
	if mod > 0b10 {
		return 0
	}
	if mod == 0b01 && rgm == 0b110 && dispLo == 0 && dispHi == 0 {
		return 5
	}
	return eaClockTable[int(mod&0b11)<<3|int(rgm&0b111)]
}

// EstimateClocks looks up the base cost of inst and adds effective address
// and constant-address alignment costs. Register-indirect alignment is only
// known at execution time.
func EstimateClocks(inst *Instruction) (Clocks, error) {
	src, dst := KindOf(inst.Src), KindOf(inst.Dst)
	for _, row := range timingTable {
		if row.id != inst.ID || row.src != src || row.dst != dst {
			continue
		}
		c := Clocks{Base: row.base}
		if row.needsEA {
			f := &inst.Fields
			c.EA = EAClocks(f.Mod, f.Rgm, f.DispLo, f.DispHi)
		}
		if inst.Word {
			c.Align = constantAlign(inst.Src) + constantAlign(inst.Dst)
		}
		return c, nil
	}
	return Clocks{}, ErrNoTiming
}

func constantAlign(op Operand) int {
	switch o := op.(type) {
	case *AbsoluteOperand:
		return oddPenalty(o.Addr)
	case *MemoryOperand:
		if o.Direct() {
			return oddPenalty(uint16(o.Disp))
		}
	}
	return 0
}

func oddPenalty(addr uint16) int {
	if addr&1 == 1 {
		return OddAlignPenalty
	}
	return 0
}
