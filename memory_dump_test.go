// memory_dump_test.go - Raw and image dump tests
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later

package main

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"
)

func TestDumpImage(t *testing.T) {
	data := make([]byte, dumpImageWidth*4*2+10)
	data[0], data[1], data[2], data[3] = 0x10, 0x20, 0x30, 0x00

	img := dumpImage(data, dumpImageWidth)
	if img.Rect.Dx() != dumpImageWidth || img.Rect.Dy() != 2 {
		t.Fatalf("bounds: got %v, want 64x2", img.Rect)
	}
	got := img.RGBAAt(0, 0)
	if got != (color.RGBA{0x10, 0x20, 0x30, 0xFF}) {
		t.Errorf("pixel 0: got %v", got)
	}
}

func TestWriteImageDump(t *testing.T) {
	data := make([]byte, dumpImageWidth*4*4)
	data[4*dumpImageWidth+0] = 0xFF // red at (0,1)
	path := filepath.Join(t.TempDir(), "mem.bmp")
	if err := writeImageDump(path, data, dumpImageWidth); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := bmp.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != dumpImageWidth || img.Bounds().Dy() != 4 {
		t.Fatalf("bounds: got %v", img.Bounds())
	}
	c := color.RGBAModel.Convert(img.At(0, 1)).(color.RGBA)
	if c.R != 0xFF || c.G != 0 || c.B != 0 {
		t.Errorf("pixel (0,1): got %v, want red", c)
	}
}

func TestWriteImageDump_TooSmall(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mem.bmp")
	if err := writeImageDump(path, make([]byte, 16), dumpImageWidth); err == nil {
		t.Error("expected an error for less than one row")
	}
}

func TestDumpPathFor(t *testing.T) {
	tests := []struct {
		path, listing string
		multi         bool
		want          string
	}{
		{"out.data", "listings/listing_0054", false, "out.data"},
		{"out.data", "listings/listing_0054", true, "out.listing_0054.data"},
		{"dumps/mem.bmp", "a/b.bin", true, "dumps/mem.b.bmp"},
		{"mem", "a/b.bin", true, "mem.b"},
	}
	for _, tt := range tests {
		if got := dumpPathFor(tt.path, tt.listing, tt.multi); got != tt.want {
			t.Errorf("dumpPathFor(%q, %q, %v): got %q, want %q", tt.path, tt.listing, tt.multi, got, tt.want)
		}
	}
}
