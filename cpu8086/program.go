// program.go - Decoded instruction stream with byte offsets
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later

package cpu8086

// Program is the append-only result of a decode pass. After decoding only
// the alignment clocks of its instructions change.
type Program struct {
	Instructions []Instruction
	offsets      []int // offsets[i] is the start of instruction i; last entry is the total size
}

func (p *Program) append(inst *Instruction) {
	p.Instructions = append(p.Instructions, *inst)
	p.offsets = append(p.offsets, p.offsets[len(p.offsets)-1]+inst.Size)
}

// Len returns the number of decoded instructions.
func (p *Program) Len() int {
	return len(p.Instructions)
}

// At returns instruction idx for in-place inspection.
func (p *Program) At(idx int) *Instruction {
	return &p.Instructions[idx]
}

// Offset returns the byte offset where instruction idx starts. Offset(Len())
// is the total byte length.
func (p *Program) Offset(idx int) int {
	if len(p.offsets) == 0 {
		return 0
	}
	return p.offsets[idx]
}

// Size returns the total encoded length of the program.
func (p *Program) Size() int {
	return p.Offset(p.Len())
}

// IndexAt returns the index of the instruction starting at offset. The
// end of the program maps to Len().
func (p *Program) IndexAt(offset int) (int, bool) {
	lo, hi := 0, len(p.offsets)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		switch {
		case p.offsets[mid] == offset:
			return mid, true
		case p.offsets[mid] < offset:
			lo = mid + 1
		default:
			hi = mid - 1
		}
	}
	return 0, false
}
