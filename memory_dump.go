// memory_dump.go - Raw and BMP dumps of simulated memory
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later

package main

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
)

// dumpImageWidth is the pixel width the dumped range is drawn at; the
// listings that draw into memory lay out 64x64 RGBA frames.
const dumpImageWidth = 64

func writeRawDump(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write memory dump: %w", err)
	}
	return nil
}

// dumpImage interprets data as RGBA rows of width pixels. A trailing
// partial row is dropped. Alpha is forced opaque so frames written without
// an alpha channel still show.
func dumpImage(data []byte, width int) *image.RGBA {
	rows := len(data) / (width * 4)
	img := image.NewRGBA(image.Rect(0, 0, width, rows))
	copy(img.Pix, data[:rows*width*4])
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xFF
	}
	return img
}

func writeImageDump(path string, data []byte, width int) error {
	img := dumpImage(data, width)
	if img.Rect.Empty() {
		return fmt.Errorf("write image dump: %d bytes is less than one %d pixel row", len(data), width)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write image dump: %w", err)
	}
	if err := bmp.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("write image dump: %w", err)
	}
	return f.Close()
}

// dumpPathFor returns the dump path for one listing. With several listings
// the listing's base name is inserted before the extension so dumps do not
// overwrite each other.
func dumpPathFor(path, listing string, multi bool) string {
	if !multi {
		return path
	}
	ext := filepath.Ext(path)
	base := filepath.Base(listing)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.TrimSuffix(path, ext) + "." + base + ext
}

// viewerPage is one listing's dumped range as shown by the memory viewer.
type viewerPage struct {
	title  string
	offset int
	pixels []byte
	report string
}
