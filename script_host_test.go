// script_host_test.go - Lua script host tests
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later

package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/intuitionamiga/sim8086/cpu8086"
)

func writeScript(t *testing.T, src string) string {
	t.Helper()
	return writeListing(t, "script.lua", []byte(src))
}

func TestScriptHost_SeedsMachine(t *testing.T) {
	m := cpu8086.NewMachine()
	prog, err := cpu8086.NewDecoder().DecodeProgram(loopListing)
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	h := newScriptHost(context.Background(), m, prog, &out)
	defer h.Close()

	err = h.Load(writeScript(t, `
set_reg("ax", 0x1234)
set_reg("bl", 0x56)
set_reg("ds", 0x2000)
poke(1000, 0xBEEF, true)
poke(0xFFFF, 7)
set_flag("zf", true)
print("seeded", reg("ah"), peek(1001))
`))
	if err != nil {
		t.Fatal(err)
	}
	if m.AX != 0x1234 || m.BX != 0x0056 || m.DS != 0x2000 {
		t.Errorf("registers: AX 0x%04X BX 0x%04X DS 0x%04X", m.AX, m.BX, m.DS)
	}
	if m.Read(1000, true) != 0xBEEF || m.Memory[0xFFFF] != 7 {
		t.Errorf("memory: 0x%04X, 0x%02X", m.Read(1000, true), m.Memory[0xFFFF])
	}
	if !m.Flag(cpu8086.FlagZF) {
		t.Error("ZF should be set")
	}
	if got := out.String(); got != "seeded\t18\t190\n" {
		t.Errorf("print: got %q", got)
	}
}

func TestScriptHost_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown register", `reg("eax")`},
		{"unknown flag", `set_flag("q", true)`},
		{"address range", `poke(70000, 1)`},
		{"syntax", `set_reg("ax",`},
	}
	for _, tt := range tests {
		m := cpu8086.NewMachine()
		prog, _ := cpu8086.NewDecoder().DecodeProgram(loopListing)
		h := newScriptHost(context.Background(), m, prog, &bytes.Buffer{})
		if err := h.Load(writeScript(t, tt.src)); err == nil {
			t.Errorf("%s: expected an error", tt.name)
		}
		h.Close()
	}
}

func TestRunListing_Script(t *testing.T) {
	// add bx, 2 / loop back to the add
	path := writeListing(t, "loop.bin", []byte{0x83, 0xC3, 0x02, 0xE2, 0xFB})
	cfg := testConfig(path)
	cfg.disasm = false
	cfg.scriptPath = writeScript(t, `
set_reg("cx", 2)
function after_run()
  local idx, off = ip()
  print("bx", reg("bx"), "clocks", clocks(), "ip", idx, off)
  return reg("bx") == 4 and not flag("z")
end
`)
	res, err := runListing(context.Background(), cfg, path, quietLogger(), terminalStyle{})
	if err != nil {
		t.Fatal(err)
	}
	// 2 * (4 + 17)
	if !strings.Contains(res.out.String(), "bx\t4\tclocks\t42\tip\t2\t5\n") {
		t.Errorf("after_run output missing:\n%s", res.out.String())
	}
}

func TestRunListing_ScriptRejects(t *testing.T) {
	path := writeListing(t, "loop.bin", loopListing)
	cfg := testConfig(path)
	cfg.scriptPath = writeScript(t, `function after_run() return reg("bx") == 7 end`)
	_, err := runListing(context.Background(), cfg, path, quietLogger(), terminalStyle{})
	if !errors.Is(err, errScriptRejected) {
		t.Errorf("got %v, want errScriptRejected", err)
	}
}
