// executor.go - Single-threaded executor for decoded 8086 programs
//
// The executor owns a Machine and walks a decoded Program by instruction
// index. The byte offset of the instruction pointer is always derived from
// the program's cumulative offsets, never stored separately.
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later

package cpu8086

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// RunState is the lifecycle of an execution run.
type RunState uint8

const (
	StateNotStarted RunState = iota
	StateRunning
	StateHalted
	StateAborted
)

var runStateNames = [...]string{"not-started", "running", "halted", "aborted"}

func (s RunState) String() string {
	if int(s) < len(runStateNames) {
		return runStateNames[s]
	}
	return fmt.Sprintf("RunState(%d)", uint8(s))
}

// Change records one destination written by a step.
type Change struct {
	Name     string
	Old, New uint16
}

// StepTrace describes what one step did.
type StepTrace struct {
	Index       int
	Instruction *Instruction
	IPBefore    int // byte offsets
	IPAfter     int
	Changes     []Change
	FlagsBefore uint16
	FlagsAfter  uint16

	// Comparison operands, set for cmp.
	Compared    bool
	CompareA    uint16
	CompareB    uint16
	Branch      bool
	BranchTaken bool
}

// Executor runs a Program against a Machine.
type Executor struct {
	Machine *Machine
	Program *Program
	Logger  logrus.FieldLogger

	state RunState
	err   error
}

// NewExecutor prepares prog for execution on m. A nil machine gets a fresh
// zeroed one.
func NewExecutor(prog *Program, m *Machine) *Executor {
	if m == nil {
		m = NewMachine()
	}
	e := &Executor{Machine: m, Program: prog}
	if prog.Len() == 0 {
		e.state = StateHalted
	}
	return e
}

// State returns the lifecycle state.
func (e *Executor) State() RunState {
	return e.state
}

// Err returns the error that aborted the run, if any.
func (e *Executor) Err() error {
	return e.err
}

// IPOffset returns the byte offset of the next instruction.
func (e *Executor) IPOffset() int {
	return e.Program.Offset(e.Machine.IP)
}

// Run steps until the program halts or a step fails. onStep, if not nil,
// sees every completed step.
func (e *Executor) Run(onStep func(*StepTrace)) error {
	for e.state == StateNotStarted || e.state == StateRunning {
		trace, err := e.Step()
		if err != nil {
			return err
		}
		if onStep != nil {
			onStep(trace)
		}
	}
	return e.err
}

// Step executes exactly one instruction.
func (e *Executor) Step() (*StepTrace, error) {
	if e.state == StateHalted || e.state == StateAborted {
		return nil, ErrHalted
	}
	m := e.Machine
	if m.IP < 0 || m.IP >= e.Program.Len() {
		e.state = StateHalted
		return nil, ErrHalted
	}
	e.state = StateRunning

	idx := m.IP
	inst := e.Program.At(idx)
	trace := &StepTrace{
		Index:       idx,
		Instruction: inst,
		IPBefore:    e.Program.Offset(idx),
		FlagsBefore: m.Flags,
	}
	if e.Logger != nil {
		e.Logger.WithFields(logrus.Fields{
			"index":  idx,
			"offset": trace.IPBefore,
			"size":   inst.Size,
			"inst":   inst.String(),
		}).Debug("CPU Step")
	}

	next := idx + 1
	align := 0

	src, srcAlign := e.locate(inst, inst.Src)
	align += srcAlign
	srcValue := e.load(src)

	switch inst.Action {
	case ActionMove:
		dst, dstAlign := e.locate(inst, inst.Dst)
		align += dstAlign
		e.store(dst, srcValue, trace)

	case ActionAdd, ActionSub:
		dst, dstAlign := e.locate(inst, inst.Dst)
		align += dstAlign
		e.requireArithmetic(inst, dst)
		result := m.Arith(dst.word, e.load(dst), srcValue, inst.Action == ActionSub)
		e.store(dst, result, trace)

	case ActionCmp:
		dst, dstAlign := e.locate(inst, inst.Dst)
		align += dstAlign
		e.requireArithmetic(inst, dst)
		a := e.load(dst)
		m.Arith(dst.word, a, srcValue, true)
		trace.Compared, trace.CompareA, trace.CompareB = true, a, srcValue

	case ActionJump:
		target, err := e.branch(inst, next, trace)
		if err != nil {
			e.state = StateAborted
			e.err = err
			if e.Logger != nil {
				e.Logger.WithFields(logrus.Fields{"index": idx, "offset": trace.IPBefore}).Debug(err)
			}
			return nil, err
		}
		next = target

	default:
		panic(fmt.Sprintf("cpu8086: unhandled action %s for %s", inst.Action, inst.ID))
	}

	m.IP = next
	inst.Clocks.Align = align
	m.Clocks += uint64(inst.Clocks.Total())

	trace.IPAfter = e.Program.Offset(next)
	trace.FlagsAfter = m.Flags
	if m.IP >= e.Program.Len() {
		e.state = StateHalted
	}
	return trace, nil
}

// location is a resolved operand: where to read or write it and at what width.
type location struct {
	kind  OperandKind
	reg   Register
	seg   SegmentRegister
	addr  uint16
	value uint16
	word  bool
}

// locate resolves op for inst and returns its odd-address penalty.
func (e *Executor) locate(inst *Instruction, op Operand) (location, int) {
	switch o := op.(type) {
	case nil:
		return location{kind: OperandNone}, 0
	case *RegisterOperand:
		return location{kind: OperandRegister, reg: o.Reg, word: o.Reg.Wide()}, 0
	case *SegmentOperand:
		return location{kind: OperandSegment, seg: o.Seg, word: true}, 0
	case *MemoryOperand:
		addr := e.Machine.EffectiveAddress(o.Base, o.Disp)
		return location{kind: OperandMemory, addr: addr, word: inst.Word}, alignPenalty(inst.Word, addr)
	case *AbsoluteOperand:
		return location{kind: OperandMemory, addr: o.Addr, word: inst.Word}, alignPenalty(inst.Word, o.Addr)
	case *ImmediateOperand:
		return location{kind: OperandImmediate, value: o.Value, word: o.Word}, 0
	case *JumpOperand:
		return location{kind: OperandJump, value: uint16(int16(o.Inc)), word: true}, 0
	}
	panic(fmt.Sprintf("cpu8086: unhandled operand %T in %s", op, inst.ID))
}

func alignPenalty(word bool, addr uint16) int {
	if !word {
		return 0
	}
	return oddPenalty(addr)
}

func (e *Executor) load(loc location) uint16 {
	m := e.Machine
	switch loc.kind {
	case OperandRegister:
		return m.Reg(loc.reg)
	case OperandSegment:
		return m.Seg(loc.seg)
	case OperandMemory:
		return m.Read(loc.addr, loc.word)
	case OperandImmediate, OperandJump:
		if loc.word {
			return loc.value
		}
		return loc.value & 0xFF
	}
	return 0
}

func (e *Executor) store(loc location, v uint16, trace *StepTrace) {
	m := e.Machine
	switch loc.kind {
	case OperandRegister:
		parent := loc.reg.Parent()
		old := m.Reg(parent)
		m.SetReg(loc.reg, v)
		trace.Changes = append(trace.Changes, Change{Name: parent.String(), Old: old, New: m.Reg(parent)})
	case OperandSegment:
		old := m.Seg(loc.seg)
		m.SetSeg(loc.seg, v)
		trace.Changes = append(trace.Changes, Change{Name: loc.seg.String(), Old: old, New: v})
	case OperandMemory:
		old := m.Read(loc.addr, loc.word)
		m.Write(loc.addr, v, loc.word)
		trace.Changes = append(trace.Changes, Change{Name: fmt.Sprintf("[%d]", loc.addr), Old: old, New: m.Read(loc.addr, loc.word)})
	default:
		panic(fmt.Sprintf("cpu8086: cannot store to %s operand", loc.kind))
	}
}

func (e *Executor) requireArithmetic(inst *Instruction, dst location) {
	if dst.kind != OperandRegister && dst.kind != OperandMemory {
		panic(fmt.Sprintf("cpu8086: %s destination %s is not a register or memory", inst.ID, dst.kind))
	}
}

// branch evaluates a conditional jump or loop and returns the index of the
// next instruction. Loop forms count CX down before testing it; CX is only
// committed once the target is known to be valid.
func (e *Executor) branch(inst *Instruction, next int, trace *StepTrace) (int, error) {
	m := e.Machine
	jmp, ok := inst.Dst.(*JumpOperand)
	if !ok {
		panic(fmt.Sprintf("cpu8086: %s destination is %s, want INC8", inst.ID, KindOf(inst.Dst)))
	}
	trace.Branch = true

	cx := m.CX
	loop := inst.ID == InstLoop || inst.ID == InstLoopz || inst.ID == InstLoopnz
	if loop {
		cx--
	}

	target := next
	if branchTaken(inst.ID, m.Flags, cx) {
		var err error
		target, err = e.walk(inst, next, int(jmp.Inc))
		if err != nil {
			return 0, err
		}
		trace.BranchTaken = true
	}
	if loop {
		trace.Changes = append(trace.Changes, Change{Name: RegCX.String(), Old: m.CX, New: cx})
		m.CX = cx
	}
	return target, nil
}

// walk moves from instruction index start across whole instructions in the
// direction of inc until exactly |inc| bytes have been covered.
func (e *Executor) walk(inst *Instruction, start, inc int) (int, error) {
	need, dir := inc, 1
	if inc < 0 {
		need, dir = -inc, -1
	}
	target, walked := start, 0
	for walked < need {
		if dir > 0 {
			if target >= e.Program.Len() {
				break
			}
			walked += e.Program.At(target).Size
			target++
		} else {
			if target <= 0 {
				break
			}
			target--
			walked += e.Program.At(target).Size
		}
	}
	if walked != need {
		return 0, &JumpTargetError{Instruction: inst.String(), Delta: inc, Walked: walked}
	}
	return target, nil
}

// branchTaken evaluates the condition of a short branch.
func branchTaken(id InstructionID, flags uint16, cx uint16) bool {
	cf := flags&FlagCF != 0
	zf := flags&FlagZF != 0
	sf := flags&FlagSF != 0
	of := flags&FlagOF != 0
	pf := flags&FlagPF != 0

	switch id {
	case InstJz:
		return zf
	case InstJnz:
		return !zf
	case InstJl:
		return sf != of
	case InstJnl:
		return sf == of
	case InstJg:
		return !zf && sf == of
	case InstJng:
		return zf || sf != of
	case InstJb:
		return cf
	case InstJnb:
		return !cf
	case InstJa:
		return !cf && !zf
	case InstJna:
		return cf || zf
	case InstJp:
		return pf
	case InstJnp:
		return !pf
	case InstJo:
		return of
	case InstJno:
		return !of
	case InstJs:
		return sf
	case InstJns:
		return !sf
	case InstJcxz:
		return cx == 0
	case InstLoop:
		return cx != 0
	case InstLoopz:
		return cx != 0 && zf
	case InstLoopnz:
		return cx != 0 && !zf
	}
	panic(fmt.Sprintf("cpu8086: %s is not a branch", id))
}
