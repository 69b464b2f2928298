// terminal_style.go - ANSI colouring of listing output
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later

package main

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

type colorMode int

const (
	colorAuto colorMode = iota
	colorAlways
	colorNever
)

func parseColorMode(name string) (colorMode, error) {
	switch name {
	case "auto", "":
		return colorAuto, nil
	case "always":
		return colorAlways, nil
	case "never":
		return colorNever, nil
	}
	return colorAuto, fmt.Errorf("invalid -color %q: want auto, always or never", name)
}

// Note colours, 24-bit like the banner.
var (
	colorChange  = [3]uint8{255, 20, 147}
	colorTaken   = [3]uint8{0, 220, 90}
	colorSkipped = [3]uint8{120, 120, 120}
	colorCompare = [3]uint8{190, 190, 190}
	colorHeading = [3]uint8{255, 170, 147}
)

// terminalStyle decides whether listing notes carry colour escapes.
type terminalStyle struct {
	enabled bool
}

// newTerminalStyle resolves mode against out; auto colours only when out
// is an interactive terminal.
func newTerminalStyle(mode colorMode, out *os.File) terminalStyle {
	switch mode {
	case colorAlways:
		return terminalStyle{enabled: true}
	case colorNever:
		return terminalStyle{}
	}
	return terminalStyle{enabled: out != nil && term.IsTerminal(int(out.Fd()))}
}

func (s terminalStyle) paint(c [3]uint8, text string) string {
	if !s.enabled || text == "" {
		return text
	}
	return fmt.Sprintf("\033[38;2;%d;%d;%dm%s\033[0m", c[0], c[1], c[2], text)
}
