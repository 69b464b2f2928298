// listing_printer.go - Text output for disassembly, execution trace and final state
//
// Disassembly lines are valid NASM with the decode details in a trailing
// comment, so a listing can be reassembled and compared byte for byte.
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/intuitionamiga/sim8086/cpu8086"
)

var (
	finalRegisters = [...]cpu8086.Register{
		cpu8086.RegAX, cpu8086.RegBX, cpu8086.RegCX, cpu8086.RegDX,
		cpu8086.RegSP, cpu8086.RegBP, cpu8086.RegSI, cpu8086.RegDI,
	}
	finalSegments = [...]cpu8086.SegmentRegister{
		cpu8086.SegES, cpu8086.SegCS, cpu8086.SegSS, cpu8086.SegDS,
	}
)

type listingPrinter struct {
	w          io.Writer
	style      terminalStyle
	showClocks bool
}

func newListingPrinter(w io.Writer, style terminalStyle, showClocks bool) *listingPrinter {
	return &listingPrinter{w: w, style: style, showClocks: showClocks}
}

func (p *listingPrinter) preamble(file string) {
	fmt.Fprintf(p.w, "%s\n", p.style.paint(colorHeading, ";;;; Disassembly of "+file))
	fmt.Fprintf(p.w, "bits 16\n\n")
}

func (p *listingPrinter) disasmLine(prog *cpu8086.Program, idx int) {
	inst := prog.At(idx)
	c := inst.Clocks
	fmt.Fprintf(p.w, "%-30s; [0x%03x:%02d] [size %d] [%2d clocks (base=%d, ea=%d, align=%d)]\n",
		inst.String(), prog.Offset(idx), idx, inst.Size, c.Total(), c.Base, c.EA, c.Align)
}

func (p *listingPrinter) execHeader(file string, afterDisasm bool) {
	lead := ""
	if afterDisasm {
		lead = "\n\n"
	}
	fmt.Fprintf(p.w, "%s%s\n", lead, p.style.paint(colorHeading, ":::: Execution of "+file))
}

// step prints one executed instruction with the machine state after it.
func (p *listingPrinter) step(tr *cpu8086.StepTrace, m *cpu8086.Machine) {
	fmt.Fprintf(p.w, "%-30s ; %s    %s\n", tr.Instruction.String(), p.status(tr, m), p.notes(tr))
}

func (p *listingPrinter) status(tr *cpu8086.StepTrace, m *cpu8086.Machine) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "ip[0x%02x:%02d] ", tr.IPAfter, m.IP)
	if p.showClocks {
		c := tr.Instruction.Clocks
		fmt.Fprintf(&sb, "Clocks %3d [%2d clocks (base=%2d, ea=%2d, align=%2d)]; ", m.Clocks, c.Total(), c.Base, c.EA, c.Align)
	}
	fmt.Fprintf(&sb, "[%04x %04x %04x %04x %04x %04x %04x %04x] ",
		m.AX, m.BX, m.CX, m.DX, m.SP, m.BP, m.SI, m.DI)
	return sb.String()
}

func (p *listingPrinter) notes(tr *cpu8086.StepTrace) string {
	var sb strings.Builder
	for _, ch := range tr.Changes {
		sb.WriteString(p.style.paint(colorChange, fmt.Sprintf("%s:0x%04x->0x%04x", ch.Name, ch.Old, ch.New)))
		sb.WriteByte(' ')
	}
	if tr.Compared {
		op := "!="
		if tr.FlagsAfter&cpu8086.FlagZF != 0 {
			op = "=="
		}
		sb.WriteString(p.style.paint(colorCompare, fmt.Sprintf("0x%04x%s0x%04x", tr.CompareA, op, tr.CompareB)))
		sb.WriteByte(' ')
	}
	if tr.Branch {
		inc := 0
		if j, ok := tr.Instruction.Dst.(*cpu8086.JumpOperand); ok {
			inc = int(j.Inc)
		}
		if tr.BranchTaken {
			sb.WriteString(p.style.paint(colorTaken, fmt.Sprintf("taking jmp %d", inc)))
		} else {
			sb.WriteString(p.style.paint(colorSkipped, fmt.Sprintf("not taking jmp %d", inc)))
		}
		sb.WriteByte(' ')
	}
	if tr.FlagsBefore != tr.FlagsAfter {
		fmt.Fprintf(&sb, "flags:%s->%s ", cpu8086.FlagsString(tr.FlagsBefore), cpu8086.FlagsString(tr.FlagsAfter))
	}
	return sb.String()
}

func (p *listingPrinter) finalState(m *cpu8086.Machine, prog *cpu8086.Program) {
	fmt.Fprintf(p.w, "\nFinal registers:\n")
	for _, r := range finalRegisters {
		v := m.Reg(r)
		fmt.Fprintf(p.w, "    %s: 0x%04x (%d)\n", r, v, v)
	}
	fmt.Fprintf(p.w, "    ----\n")
	for _, s := range finalSegments {
		v := m.Seg(s)
		fmt.Fprintf(p.w, "    %s: 0x%04x (%d)\n", s, v, v)
	}
	fmt.Fprintf(p.w, "    ----\n")
	offset := prog.Offset(m.IP)
	fmt.Fprintf(p.w, "    ip: 0x%04x (%03d) idx=%d\n", offset, offset, m.IP)
	fmt.Fprintf(p.w, " flags: %s\n", cpu8086.FlagsString(m.Flags))
	if p.showClocks {
		fmt.Fprintf(p.w, "clocks: %d\n", m.Clocks)
	}
}

func (p *listingPrinter) dumpNotice(offset, size int, path string) {
	fmt.Fprintf(p.w, "Memory dumped: offset=0x%04x, size=%d bytes, filename=%s\n", offset, size, path)
}

// finalReport renders the final state without colour, for the clipboard.
func finalReport(m *cpu8086.Machine, prog *cpu8086.Program, showClocks bool) string {
	var sb strings.Builder
	newListingPrinter(&sb, terminalStyle{}, showClocks).finalState(m, prog)
	return strings.TrimPrefix(sb.String(), "\n")
}
