// errors.go - Decode and execution error types
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later

package cpu8086

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownOpcode  = errors.New("cpu8086: no catalog entry matches opcode")
	ErrNoOperandShape = errors.New("cpu8086: descriptor fields match no operand shape")
	ErrNoTiming       = errors.New("cpu8086: no clock table row for instruction")
	ErrTruncated      = errors.New("cpu8086: instruction runs past end of input")
	ErrProgramFull    = errors.New("cpu8086: program exceeds instruction capacity")
	ErrHalted         = errors.New("cpu8086: machine is not runnable")
)

// DecodeError reports a structural decode failure at a byte offset.
type DecodeError struct {
	Offset int    // byte offset of the failing instruction
	Index  int    // instruction index it would have had
	Bytes  []byte // up to six leading bytes at Offset
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode instruction %d at 0x%04X [%s]: %v", e.Index, e.Offset, BinaryString(e.Bytes), e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// JumpTargetError reports a taken branch that does not land on an
// instruction boundary inside the program.
type JumpTargetError struct {
	Instruction string // display text of the branch
	Delta       int    // signed byte increment encoded in the branch
	Walked      int    // bytes accumulated before the walk gave up
}

func (e *JumpTargetError) Error() string {
	return fmt.Sprintf("jump target of '%s' misses instruction boundary: delta %+d, walked %d bytes", e.Instruction, e.Delta, e.Walked)
}

// BinaryString renders bytes as space separated 8-bit binary groups.
func BinaryString(data []byte) string {
	parts := make([]string, len(data))
	for i, b := range data {
		parts[i] = fmt.Sprintf("%08b", b)
	}
	return strings.Join(parts, " ")
}

// HexString renders bytes as space separated upper-case hex pairs.
func HexString(data []byte) string {
	parts := make([]string, len(data))
	for i, b := range data {
		parts[i] = fmt.Sprintf("%02X", b)
	}
	return strings.Join(parts, " ")
}
