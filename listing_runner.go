// listing_runner.go - Decode, disassemble and execute one listing
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/intuitionamiga/sim8086/cpu8086"
	"github.com/sirupsen/logrus"
)

// maxListingSize caps the raw instruction bytes read from one file.
const maxListingSize = 100 * 1024

var (
	errListingEmpty    = errors.New("listing is empty")
	errListingTooLarge = fmt.Errorf("listing exceeds %d bytes", maxListingSize)
)

// listingError ties a failure to the file it came from.
type listingError struct {
	file string
	err  error
}

func (e *listingError) Error() string {
	return fmt.Sprintf("%s: %v", e.file, e.err)
}

func (e *listingError) Unwrap() error {
	return e.err
}

// listingResult is the buffered output and final state of one listing.
type listingResult struct {
	file    string
	out     bytes.Buffer
	program *cpu8086.Program
	machine *cpu8086.Machine
	report  string
}

// readListing loads raw machine code, refusing empty or oversized input.
func readListing(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxListingSize+1))
	if err != nil {
		return nil, err
	}
	switch {
	case len(data) == 0:
		return nil, errListingEmpty
	case len(data) > maxListingSize:
		return nil, errListingTooLarge
	}
	return data, nil
}

// runListing processes one file according to cfg. Output is written to the
// result buffer so concurrent listings can be emitted in order. On failure
// the result still holds everything printed before the failing point.
func runListing(ctx context.Context, cfg *runConfig, file string, log logrus.FieldLogger, style terminalStyle) (*listingResult, error) {
	res := &listingResult{file: file}
	fail := func(err error) (*listingResult, error) {
		return res, &listingError{file: file, err: err}
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	flog := log.WithField("file", file)

	data, err := readListing(file)
	if err != nil {
		return fail(err)
	}

	p := newListingPrinter(&res.out, style, cfg.clocks)
	if cfg.disasm {
		p.preamble(file)
	}

	decoder := cpu8086.NewDecoder()
	decoder.Logger = flog
	prog, decodeErr := decoder.DecodeProgram(data)
	res.program = prog
	if cfg.disasm {
		for i := range prog.Instructions {
			p.disasmLine(prog, i)
		}
	}
	if decodeErr != nil {
		return fail(decodeErr)
	}
	if !cfg.exec {
		return res, nil
	}

	p.execHeader(file, cfg.disasm)

	m := cpu8086.NewMachine()
	res.machine = m
	var script *scriptHost
	if cfg.scriptPath != "" {
		script = newScriptHost(ctx, m, prog, &res.out)
		defer script.Close()
		if err := script.Load(cfg.scriptPath); err != nil {
			return fail(err)
		}
	}

	exec := cpu8086.NewExecutor(prog, m)
	exec.Logger = flog
	if err := exec.Run(func(tr *cpu8086.StepTrace) { p.step(tr, m) }); err != nil {
		return fail(err)
	}

	p.finalState(m, prog)
	res.report = finalReport(m, prog, cfg.clocks)

	if script != nil {
		if err := script.AfterRun(); err != nil {
			return fail(err)
		}
	}

	region := m.MemoryRange(cfg.dumpOffset, cfg.dumpSize)
	multi := len(cfg.files) > 1
	if cfg.dumpPath != "" {
		path := dumpPathFor(cfg.dumpPath, file, multi)
		if err := writeRawDump(path, region); err != nil {
			return fail(err)
		}
		p.dumpNotice(cfg.dumpOffset, len(region), path)
	}
	if cfg.imagePath != "" {
		path := dumpPathFor(cfg.imagePath, file, multi)
		if err := writeImageDump(path, region, dumpImageWidth); err != nil {
			return fail(err)
		}
		p.dumpNotice(cfg.dumpOffset, len(region), path)
	}
	return res, nil
}

// page captures what the memory viewer shows for this listing.
func (r *listingResult) page(cfg *runConfig) viewerPage {
	page := viewerPage{title: r.file, offset: cfg.dumpOffset, report: r.report}
	if r.machine != nil {
		page.pixels = r.machine.MemoryRange(cfg.dumpOffset, cfg.dumpSize)
	}
	return page
}
