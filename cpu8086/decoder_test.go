// decoder_test.go - Catalog, matcher and decoder tests
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later

package cpu8086

import (
	"errors"
	"reflect"
	"testing"

	"github.com/davecgh/go-spew/spew"
)

func mustDecode(t *testing.T, data []byte) *Program {
	t.Helper()
	prog, err := NewDecoder().DecodeProgram(data)
	if err != nil {
		t.Fatalf("DecodeProgram(% X): %v", data, err)
	}
	return prog
}

// =============================================================================
// Bit Field Tests
// =============================================================================

func TestBitField_Extract(t *testing.T) {
	data := []byte{0b10001011, 0b01010110}

	tests := []struct {
		field BitField
		want  byte
	}{
		{fld(FieldWord, 0, 0, 1), 1},
		{fld(FieldDirection, 0, 1, 1), 1},
		{fld(FieldMod, 1, 6, 0b11), 0b01},
		{fld(FieldReg, 1, 3, 0b111), 0b010},
		{fld(FieldRgm, 1, 0, 0b111), 0b110},
		{fld(FieldLiteral, 0, 2, 0b111111), 0b100010},
	}
	for _, tt := range tests {
		if got := tt.field.Extract(data); got != tt.want {
			t.Errorf("%s: got 0b%b, want 0b%b", tt.field, got, tt.want)
		}
	}
}

func TestBitField_ExtractNonePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Extract of a none field should panic")
		}
	}()
	BitField{}.Extract([]byte{0xFF})
}

// =============================================================================
// Catalog and Matcher Tests
// =============================================================================

func TestCatalog_NoOverlappingEncodings(t *testing.T) {
	entries := Catalog()
	for b0 := 0; b0 < 256; b0++ {
		for b1 := 0; b1 < 256; b1++ {
			data := []byte{byte(b0), byte(b1)}
			var hits []InstructionID
			for i := range entries {
				d := &entries[i]
				if !d.Primary.matches(data) {
					continue
				}
				if d.Secondary.declared() && !d.Secondary.matches(data) {
					continue
				}
				hits = append(hits, d.ID)
			}
			if len(hits) > 1 {
				t.Fatalf("bytes %02X %02X match %v", b0, b1, hits)
			}
		}
	}
}

func TestCatalog_EveryIDPresent(t *testing.T) {
	for id := InstructionID(0); id < instructionIDCount; id++ {
		d, ok := DescriptorFor(id)
		if !ok {
			t.Errorf("%s: no descriptor", id)
			continue
		}
		if d.ID != id {
			t.Errorf("%s: descriptor has ID %s", id, d.ID)
		}
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		data []byte
		want InstructionID
	}{
		{[]byte{0x89, 0xD9}, InstMovRgmReg},
		{[]byte{0xC7, 0x06}, InstMovImmRgm},
		{[]byte{0xB9}, InstMovImmReg},
		{[]byte{0xA1}, InstMovMemAcc},
		{[]byte{0xA3}, InstMovAccMem},
		{[]byte{0x8E, 0xD8}, InstMovSrgRgm},
		{[]byte{0x8C, 0xDB}, InstMovSrgRgm},
		{[]byte{0x03, 0x18}, InstAddRgmReg},
		{[]byte{0x83, 0xC6}, InstAddImmRgm},
		{[]byte{0x05}, InstAddImmAcc},
		{[]byte{0x29, 0xD8}, InstSubRgmReg},
		{[]byte{0x83, 0xEE}, InstSubImmRgm},
		{[]byte{0x2C}, InstSubImmAcc},
		{[]byte{0x39, 0xD8}, InstCmpRgmReg},
		{[]byte{0x83, 0xFE}, InstCmpImmRgm},
		{[]byte{0x3D}, InstCmpImmAcc},
		{[]byte{0x74}, InstJz},
		{[]byte{0x7F}, InstJg},
		{[]byte{0xE0}, InstLoopnz},
		{[]byte{0xE3}, InstJcxz},
	}
	for _, tt := range tests {
		d, err := Match(tt.data)
		if err != nil {
			t.Errorf("Match(% X): %v", tt.data, err)
			continue
		}
		if d.ID != tt.want {
			t.Errorf("Match(% X): got %s, want %s", tt.data, d.ID, tt.want)
		}
	}
}

func TestMatch_Errors(t *testing.T) {
	if _, err := Match([]byte{0x0F, 0x00}); !errors.Is(err, ErrUnknownOpcode) {
		t.Errorf("0F: got %v, want ErrUnknownOpcode", err)
	}
	// 8F and 8D share the segment move primary but fail its secondary.
	if _, err := Match([]byte{0x8F, 0xC0}); !errors.Is(err, ErrUnknownOpcode) {
		t.Errorf("8F: got %v, want ErrUnknownOpcode", err)
	}
	// Segment moves with reg 1xx name no segment register.
	for _, data := range [][]byte{{0x8E, 0xF8}, {0x8E, 0xE0}, {0x8C, 0x36, 0x00, 0x10}} {
		if _, err := Match(data); !errors.Is(err, ErrUnknownOpcode) {
			t.Errorf("% X: got %v, want ErrUnknownOpcode", data, err)
		}
	}
	if _, err := Match([]byte{0x8E}); !errors.Is(err, ErrTruncated) {
		t.Errorf("8E alone: got %v, want ErrTruncated", err)
	}
	if _, err := Match([]byte{0x80}); !errors.Is(err, ErrTruncated) {
		t.Errorf("80 alone: got %v, want ErrTruncated", err)
	}
	if _, err := Match(nil); !errors.Is(err, ErrTruncated) {
		t.Errorf("empty: got %v, want ErrTruncated", err)
	}
}

// =============================================================================
// Decoder Tests
// =============================================================================

func TestDecode_Display(t *testing.T) {
	tests := []struct {
		data []byte
		text string
		size int
	}{
		{[]byte{0x89, 0xD9}, "mov cx, bx", 2},
		{[]byte{0x88, 0xE5}, "mov ch, ah", 2},
		{[]byte{0x8B, 0x56, 0x00}, "mov dx, [bp]", 3},
		{[]byte{0x8A, 0x60, 0x04}, "mov ah, [bx + si + 4]", 3},
		{[]byte{0x8B, 0x41, 0xDB}, "mov ax, [bx + di - 37]", 3},
		{[]byte{0x89, 0x8C, 0xD4, 0xFE}, "mov [si - 300], cx", 4},
		{[]byte{0x8B, 0x1E, 0x82, 0x0D}, "mov bx, [3458]", 4},
		{[]byte{0xB9, 0x0C, 0x00}, "mov cx, 12", 3},
		{[]byte{0xB1, 0xF4}, "mov cl, -12", 2},
		{[]byte{0xC6, 0x03, 0x07}, "mov [bp + di], byte 7", 3},
		{[]byte{0xC7, 0x47, 0x04, 0x0A, 0x00}, "mov [bx + 4], word 10", 5},
		{[]byte{0xA1, 0xFB, 0x09}, "mov ax, [2555]", 3},
		{[]byte{0xA3, 0x0F, 0x00}, "mov [15], ax", 3},
		{[]byte{0x8E, 0xD0}, "mov ss, ax", 2},
		{[]byte{0x8C, 0xDB}, "mov bx, ds", 2},
		{[]byte{0x03, 0x18}, "add bx, [bx + si]", 2},
		{[]byte{0x83, 0xC6, 0x02}, "add si, 2", 3},
		{[]byte{0x05, 0xE8, 0x03}, "add ax, 1000", 3},
		{[]byte{0x80, 0x07, 0x22}, "add byte [bx], 34", 3},
		{[]byte{0x29, 0x07}, "sub [bx], ax", 2},
		{[]byte{0x2C, 0x09}, "sub al, 9", 2},
		{[]byte{0x80, 0x3E, 0xE2, 0x12, 0x14}, "cmp byte [4834], 20", 5},
		{[]byte{0x3C, 0xE2}, "cmp al, -30", 2},
		{[]byte{0x75, 0x02}, "jnz ($+2)+2", 2},
		{[]byte{0xE2, 0xFC}, "loop ($+2)-4", 2},
	}
	for _, tt := range tests {
		inst, err := Decode(tt.data)
		if err != nil {
			t.Errorf("Decode(% X): %v", tt.data, err)
			continue
		}
		if got := inst.String(); got != tt.text {
			t.Errorf("Decode(% X): got %q, want %q", tt.data, got, tt.text)
		}
		if inst.Size != tt.size {
			t.Errorf("Decode(% X) size: got %d, want %d\n%s", tt.data, inst.Size, tt.size, spew.Sdump(inst))
		}
	}
}

func TestDecode_Operands(t *testing.T) {
	inst, err := Decode([]byte{0xC7, 0x47, 0x04, 0x0A, 0x00})
	if err != nil {
		t.Fatal(err)
	}
	mem, ok := inst.Dst.(*MemoryOperand)
	if !ok {
		t.Fatalf("destination is %T, want *MemoryOperand", inst.Dst)
	}
	if mem.Base != EABX || mem.Disp != 4 || !mem.Word {
		t.Errorf("destination: %s", spew.Sdump(mem))
	}
	imm, ok := inst.Src.(*ImmediateOperand)
	if !ok {
		t.Fatalf("source is %T, want *ImmediateOperand", inst.Src)
	}
	if imm.Value != 10 || !imm.SizePrefixed() {
		t.Errorf("source: %s", spew.Sdump(imm))
	}
	if !inst.Word {
		t.Error("word form should be marked wide")
	}
}

func TestDecode_SignExtendedImmediate(t *testing.T) {
	inst, err := Decode([]byte{0x83, 0xEE, 0xFE})
	if err != nil {
		t.Fatal(err)
	}
	if got := inst.String(); got != "sub si, -2" {
		t.Errorf("got %q, want %q", got, "sub si, -2")
	}
	if v := inst.Src.(*ImmediateOperand).Value; v != 0xFFFE {
		t.Errorf("immediate: got 0x%04X, want 0xFFFE", v)
	}
}

func TestDecodeProgram_ConservesBytes(t *testing.T) {
	data := []byte{
		0xB9, 0x03, 0x00, // mov cx, 3
		0x8B, 0x56, 0x00, // mov dx, [bp]
		0xC7, 0x47, 0x04, 0x0A, 0x00, // mov [bx + 4], word 10
		0x83, 0xC3, 0x02, // add bx, 2
		0xE2, 0xF9, // loop
	}
	prog := mustDecode(t, data)
	if prog.Len() != 5 {
		t.Fatalf("Len: got %d, want 5", prog.Len())
	}
	sum := 0
	for i := range prog.Instructions {
		if prog.Offset(i) != sum {
			t.Errorf("Offset(%d): got %d, want %d", i, prog.Offset(i), sum)
		}
		sum += prog.At(i).Size
	}
	if sum != len(data) || prog.Size() != len(data) {
		t.Errorf("sizes: sum %d, Size() %d, want %d", sum, prog.Size(), len(data))
	}
	if idx, ok := prog.IndexAt(11); !ok || idx != 3 {
		t.Errorf("IndexAt(11): got %d,%v want 3,true", idx, ok)
	}
	if idx, ok := prog.IndexAt(len(data)); !ok || idx != prog.Len() {
		t.Errorf("IndexAt(end): got %d,%v want %d,true", idx, ok, prog.Len())
	}
	if _, ok := prog.IndexAt(1); ok {
		t.Error("IndexAt(1) should not land on a boundary")
	}
}

func TestDecodeProgram_Deterministic(t *testing.T) {
	data := []byte{0x89, 0xD9, 0x80, 0x3E, 0xE2, 0x12, 0x14, 0x75, 0xF9}
	a := mustDecode(t, data)
	b := mustDecode(t, data)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("two decodes differ:\n%s\n%s", spew.Sdump(a), spew.Sdump(b))
	}
}

func TestDecodeProgram_UnknownOpcode(t *testing.T) {
	prog, err := NewDecoder().DecodeProgram([]byte{0x89, 0xD9, 0x0F, 0x0B})
	var derr *DecodeError
	if !errors.As(err, &derr) {
		t.Fatalf("got %v, want *DecodeError", err)
	}
	if !errors.Is(err, ErrUnknownOpcode) {
		t.Errorf("got %v, want ErrUnknownOpcode", derr.Err)
	}
	if derr.Offset != 2 || derr.Index != 1 {
		t.Errorf("position: got offset %d index %d, want 2 and 1", derr.Offset, derr.Index)
	}
	if prog.Len() != 1 {
		t.Errorf("partial program: got %d instructions, want 1", prog.Len())
	}
}

func TestDecodeProgram_UndefinedSegmentRegister(t *testing.T) {
	// mov ax, 1 / 8E F8 (reg 111)
	prog, err := NewDecoder().DecodeProgram([]byte{0xB8, 0x01, 0x00, 0x8E, 0xF8})
	var derr *DecodeError
	if !errors.As(err, &derr) || !errors.Is(err, ErrUnknownOpcode) {
		t.Fatalf("got %v, want DecodeError wrapping ErrUnknownOpcode\n%s", err, spew.Sdump(prog))
	}
	if derr.Offset != 3 || prog.Len() != 1 {
		t.Errorf("got offset %d with %d instructions, want 3 and 1", derr.Offset, prog.Len())
	}
}

func TestDecodeProgram_Truncated(t *testing.T) {
	_, err := NewDecoder().DecodeProgram([]byte{0xB9, 0x0C})
	if !errors.Is(err, ErrTruncated) {
		t.Errorf("got %v, want ErrTruncated", err)
	}
}

func TestDecodeProgram_Capacity(t *testing.T) {
	d := &Decoder{MaxInstructions: 2}
	prog, err := d.DecodeProgram([]byte{0x89, 0xD9, 0x89, 0xD9, 0x89, 0xD9})
	if !errors.Is(err, ErrProgramFull) {
		t.Errorf("got %v, want ErrProgramFull", err)
	}
	if prog.Len() != 2 {
		t.Errorf("Len: got %d, want 2", prog.Len())
	}
}
