// main_test.go - Command line parsing tests
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later

package main

import (
	"errors"
	"flag"
	"testing"
)

func TestParseFlags_Defaults(t *testing.T) {
	cfg, err := parseFlags("sim8086", []string{"-exec", "-clocks", "listing.bin"})
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.exec || !cfg.clocks || cfg.disasm {
		t.Fatalf("modes: exec=%v clocks=%v disasm=%v", cfg.exec, cfg.clocks, cfg.disasm)
	}
	if cfg.dumpOffset != 256 || cfg.dumpSize != 16384 {
		t.Fatalf("dump range: got 0x%04X+%d, want 0x0100+16384", cfg.dumpOffset, cfg.dumpSize)
	}
	if cfg.color != colorAuto || cfg.jobs != 1 {
		t.Fatalf("color %d jobs %d", cfg.color, cfg.jobs)
	}
	if len(cfg.files) != 1 || cfg.files[0] != "listing.bin" {
		t.Fatalf("files: %v", cfg.files)
	}
}

func TestParseFlags_DumpRange(t *testing.T) {
	cfg, err := parseFlags("sim8086", []string{"-exec", "-dump", "out.data", "-dump-offset", "0x100", "-dump-size", "0x10", "a", "b"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.dumpOffset != 0x100 || cfg.dumpSize != 0x10 {
		t.Fatalf("dump range: got 0x%04X+%d", cfg.dumpOffset, cfg.dumpSize)
	}
	if len(cfg.files) != 2 {
		t.Fatalf("files: %v", cfg.files)
	}
}

func TestParseFlags_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no input", []string{"-disasm"}},
		{"dump without exec", []string{"-disasm", "-dump", "x", "f"}},
		{"view without exec", []string{"-disasm", "-view", "f"}},
		{"range past end", []string{"-exec", "-dump-offset", "0xFFFF", "-dump-size", "2", "f"}},
		{"zero size", []string{"-exec", "-dump-size", "0", "f"}},
		{"bad offset", []string{"-exec", "-dump-offset", "0x10000", "f"}},
		{"bad color", []string{"-exec", "-color", "blue", "f"}},
		{"bad jobs", []string{"-exec", "-jobs", "0", "f"}},
		{"unknown flag", []string{"-exec", "-bogus", "f"}},
	}
	for _, tt := range tests {
		if _, err := parseFlags("sim8086", tt.args); err == nil {
			t.Errorf("%s: expected an error", tt.name)
		}
	}
}

func TestParseFlags_Usage(t *testing.T) {
	if _, err := parseFlags("sim8086", nil); !errors.Is(err, errUsage) {
		t.Errorf("no mode: got %v, want errUsage", err)
	}
	if _, err := parseFlags("sim8086", []string{"-h"}); !errors.Is(err, flag.ErrHelp) {
		t.Errorf("-h: got %v, want flag.ErrHelp", err)
	}
}

func TestParseUint16Flag(t *testing.T) {
	tests := []struct {
		in   string
		want uint16
		ok   bool
	}{
		{"0x0600", 0x0600, true},
		{"256", 256, true},
		{"0xFFFF", 0xFFFF, true},
		{"0x10000", 0, false},
		{"-1", 0, false},
		{"zz", 0, false},
	}
	for _, tt := range tests {
		got, err := parseUint16Flag(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("%s: err %v, want ok=%v", tt.in, err, tt.ok)
			continue
		}
		if got != tt.want {
			t.Errorf("%s: got 0x%04X, want 0x%04X", tt.in, got, tt.want)
		}
	}
}

func TestParseSizeFlag(t *testing.T) {
	if n, err := parseSizeFlag("0x10000"); err != nil || n != 65536 {
		t.Errorf("full space: got %d, %v", n, err)
	}
	if _, err := parseSizeFlag("65537"); err == nil {
		t.Error("65537 should be rejected")
	}
}

func TestParseColorMode(t *testing.T) {
	tests := []struct {
		name string
		want colorMode
	}{
		{"", colorAuto},
		{"auto", colorAuto},
		{"always", colorAlways},
		{"never", colorNever},
	}
	for _, tt := range tests {
		got, err := parseColorMode(tt.name)
		if err != nil || got != tt.want {
			t.Errorf("parseColorMode(%q): got %d, %v, want %d", tt.name, got, err, tt.want)
		}
	}
	if _, err := parseColorMode("rainbow"); err == nil {
		t.Error("parseColorMode(rainbow): expected an error")
	}

	if !newTerminalStyle(colorAlways, nil).enabled {
		t.Error("always should enable colour")
	}
	if newTerminalStyle(colorNever, nil).enabled || newTerminalStyle(colorAuto, nil).enabled {
		t.Error("never, or auto without a terminal, should disable colour")
	}
}
