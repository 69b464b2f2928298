// main.go - Main entry point for the sim8086 decoder and simulator

/*
      _           ___   ___  ___   __
  ___(_)_ __ ___ ( _ ) / _ \( _ ) / /_
 / __| | '_ ` _ \/ _ \| | | / _ \| '_ \
 \__ \ | | | | | | (_) | |_| | (_) | (_) |
 |___/_|_| |_| |_|\___/ \___/ \___/ \___/

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/sim8086
License: GPLv3 or later
*/

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/intuitionamiga/sim8086/cpu8086"
	"github.com/sirupsen/logrus"
)

const (
	defaultDumpOffset = 64 * 4
	defaultDumpSize   = 64 * 64 * 4
)

func boilerPlate(w io.Writer) {
	fmt.Fprintln(w, "\n\033[38;2;255;20;147msim8086\033[0m - 8086 subset decoder, clock estimator and simulator")
	fmt.Fprintln(w, "(c) 2024 - 2026 Zayn Otley")
	fmt.Fprintln(w, "License: GPLv3 or later")
}

// runConfig is everything the command line selects for one invocation.
type runConfig struct {
	disasm bool
	exec   bool
	clocks bool

	dumpPath   string
	dumpOffset int
	dumpSize   int
	imagePath  string
	view       bool

	scriptPath string
	color      colorMode
	debug      bool
	jobs       int

	files []string
}

var errUsage = errors.New("usage")

func parseFlags(progName string, args []string) (*runConfig, error) {
	var (
		cfg        runConfig
		dumpOffset string
		dumpSize   string
		colorName  string
	)

	flagSet := flag.NewFlagSet(progName, flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.BoolVar(&cfg.disasm, "disasm", false, "Print disassembly")
	flagSet.BoolVar(&cfg.exec, "exec", false, "Execute program")
	flagSet.BoolVar(&cfg.clocks, "clocks", false, "Print clock cycles (requires -disasm or -exec)")
	flagSet.StringVar(&cfg.dumpPath, "dump", "", "Dump memory contents to `file` after execution")
	flagSet.StringVar(&dumpOffset, "dump-offset", strconv.Itoa(defaultDumpOffset), "First dumped address (hex or decimal)")
	flagSet.StringVar(&dumpSize, "dump-size", strconv.Itoa(defaultDumpSize), "Dumped byte count (hex or decimal)")
	flagSet.StringVar(&cfg.imagePath, "dump-image", "", "Write the dumped range as a 64 pixel wide RGBA `bmp`")
	flagSet.BoolVar(&cfg.view, "view", false, "Show the dumped range in a window after execution")
	flagSet.StringVar(&cfg.scriptPath, "script", "", "Lua `file` run before execution; its after_run() runs after")
	flagSet.StringVar(&colorName, "color", "auto", "Colour execution notes: auto, always or never")
	flagSet.BoolVar(&cfg.debug, "debug", false, "Log every decoded and executed instruction to stderr")
	flagSet.IntVar(&cfg.jobs, "jobs", 1, "Listings processed concurrently")

	if err := flagSet.Parse(args); err != nil {
		return nil, err
	}
	cfg.files = flagSet.Args()

	if !cfg.disasm && !cfg.exec {
		return nil, errUsage
	}
	if len(cfg.files) == 0 {
		return nil, errors.New("no input file given")
	}
	if !cfg.exec && (cfg.dumpPath != "" || cfg.imagePath != "" || cfg.view || cfg.scriptPath != "") {
		return nil, errors.New("-dump, -dump-image, -view and -script require -exec")
	}
	if cfg.jobs < 1 {
		return nil, fmt.Errorf("invalid -jobs %d", cfg.jobs)
	}

	offset, err := parseUint16Flag(dumpOffset)
	if err != nil {
		return nil, fmt.Errorf("invalid -dump-offset: %w", err)
	}
	size, err := parseSizeFlag(dumpSize)
	if err != nil {
		return nil, fmt.Errorf("invalid -dump-size: %w", err)
	}
	if int(offset)+size > cpu8086.MemorySize {
		return nil, fmt.Errorf("dump range 0x%04X+%d runs past the 64KB address space", offset, size)
	}
	cfg.dumpOffset, cfg.dumpSize = int(offset), size

	if cfg.color, err = parseColorMode(colorName); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func usage(w io.Writer, progName string) {
	boilerPlate(w)
	fmt.Fprintf(w, "\nUsage: %s (-disasm|-exec) [-clocks] [-dump <dumpFilename>] [filename...]\n", progName)
	fmt.Fprintln(w, "  -disasm        Print disassembly")
	fmt.Fprintln(w, "  -exec          Execute program")
	fmt.Fprintln(w, "  -clocks        Print clock cycles (requires -disasm or -exec)")
	fmt.Fprintln(w, "  -dump          Dump memory contents to <dumpFilename>")
	fmt.Fprintf(w, "  -dump-offset   First dumped address (default 0x%04x)\n", defaultDumpOffset)
	fmt.Fprintf(w, "  -dump-size     Dumped byte count (default %d)\n", defaultDumpSize)
	fmt.Fprintln(w, "  -dump-image    Write the dumped range as a 64 pixel wide BMP")
	fmt.Fprintln(w, "  -view          Show the dumped range in a window")
	fmt.Fprintln(w, "  -script        Lua script run around execution")
	fmt.Fprintln(w, "  -color         auto|always|never")
	fmt.Fprintln(w, "  -debug         Trace decode and execution to stderr")
	fmt.Fprintln(w, "  -jobs          Listings processed concurrently (default 1)")
	fmt.Fprintln(w, "  filename       Raw 8086 machine code")
}

func newLogger(debug bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	log.SetLevel(logrus.InfoLevel)
	if debug {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

func main() {
	progName := filepath.Base(os.Args[0])

	cfg, err := parseFlags(progName, os.Args[1:])
	if err != nil {
		switch {
		case errors.Is(err, flag.ErrHelp):
			usage(os.Stdout, progName)
			os.Exit(0)
		case errors.Is(err, errUsage):
			usage(os.Stdout, progName)
		default:
			fmt.Printf("Error: %v\n", err)
		}
		os.Exit(1)
	}

	log := newLogger(cfg.debug)
	style := newTerminalStyle(cfg.color, os.Stdout)

	results, err := runBatch(context.Background(), cfg, log, style)
	for _, res := range results {
		if res == nil {
			continue
		}
		if _, werr := os.Stdout.Write(res.out.Bytes()); werr != nil {
			log.WithError(werr).Error("write listing output")
			os.Exit(1)
		}
	}
	if err != nil {
		reportFailure(log, err)
		os.Exit(1)
	}

	if cfg.view {
		pages := make([]viewerPage, 0, len(results))
		for _, res := range results {
			pages = append(pages, res.page(cfg))
		}
		if err := showMemoryViewer(pages); err != nil {
			log.WithError(err).Error("memory viewer")
			os.Exit(1)
		}
	}
}

// reportFailure logs the first listing failure with whatever position
// information the error carries.
func reportFailure(log logrus.FieldLogger, err error) {
	fields := logrus.Fields{}
	var lerr *listingError
	if errors.As(err, &lerr) {
		fields["file"] = lerr.file
	}
	var derr *cpu8086.DecodeError
	if errors.As(err, &derr) {
		fields["offset"] = fmt.Sprintf("0x%04x", derr.Offset)
		fields["index"] = derr.Index
		fields["bytes"] = cpu8086.BinaryString(derr.Bytes)
	}
	var jerr *cpu8086.JumpTargetError
	if errors.As(err, &jerr) {
		fields["delta"] = jerr.Delta
	}
	log.WithFields(fields).Error(err)
}

func parseUint16Flag(value string) (uint16, error) {
	parsed, err := strconv.ParseUint(value, 0, 16)
	if err != nil {
		return 0, err
	}
	if parsed > 0xFFFF {
		return 0, fmt.Errorf("value out of range: 0x%X", parsed)
	}
	return uint16(parsed), nil
}

// parseSizeFlag accepts a byte count up to the full 64KB address space.
func parseSizeFlag(value string) (int, error) {
	parsed, err := strconv.ParseUint(value, 0, 32)
	if err != nil {
		return 0, err
	}
	if parsed == 0 || parsed > cpu8086.MemorySize {
		return 0, fmt.Errorf("value out of range: %d", parsed)
	}
	return int(parsed), nil
}
