//go:build !headless

// memory_viewer_ebiten.go - Ebiten window showing dumped memory as pixels
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later

package main

import (
	"fmt"
	"image/color"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.design/x/clipboard"
	"golang.org/x/image/font/basicfont"
)

const (
	viewerScale      = 8
	viewerStatusBarH = 44
)

type memoryViewer struct {
	pages   []viewerPage
	current int
	rows    int

	frame    *ebiten.Image
	frameFor int

	clipboardOnce sync.Once
	clipboardOK   bool
	message       string
}

func newMemoryViewer(pages []viewerPage) *memoryViewer {
	v := &memoryViewer{pages: pages, frameFor: -1, rows: 1}
	for _, p := range pages {
		v.rows = max(v.rows, len(p.pixels)/(dumpImageWidth*4))
	}
	return v
}

func showMemoryViewer(pages []viewerPage) error {
	if len(pages) == 0 {
		return nil
	}
	v := newMemoryViewer(pages)
	w, h := v.Layout(0, 0)
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowTitle("sim8086 memory (c) 2024 - 2026 Zayn Otley")
	ebiten.SetWindowResizable(true)
	if err := ebiten.RunGame(v); err != nil {
		return fmt.Errorf("ebiten: %w", err)
	}
	return nil
}

func (v *memoryViewer) Update() error {
	if ebiten.IsWindowBeingClosed() {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowRight) {
		v.current = (v.current + 1) % len(v.pages)
		v.message = ""
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowLeft) {
		v.current = (v.current + len(v.pages) - 1) % len(v.pages)
		v.message = ""
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		v.copyReport()
	}
	return nil
}

func (v *memoryViewer) copyReport() {
	v.clipboardOnce.Do(func() {
		v.clipboardOK = clipboard.Init() == nil
	})
	if !v.clipboardOK {
		v.message = "clipboard unavailable"
		return
	}
	clipboard.Write(clipboard.FmtText, []byte(v.pages[v.current].report))
	v.message = "final state copied"
}

func (v *memoryViewer) Draw(screen *ebiten.Image) {
	page := v.pages[v.current]
	if v.frame == nil {
		v.frame = ebiten.NewImage(dumpImageWidth, v.rows)
	}
	if v.frameFor != v.current {
		img := dumpImage(page.pixels, dumpImageWidth)
		pix := make([]byte, dumpImageWidth*v.rows*4)
		copy(pix, img.Pix)
		v.frame.WritePixels(pix)
		v.frameFor = v.current
	}

	opts := &ebiten.DrawImageOptions{}
	opts.GeoM.Scale(viewerScale, viewerScale)
	screen.DrawImage(v.frame, opts)
	v.drawStatusBar(screen, page)
}

func (v *memoryViewer) drawStatusBar(screen *ebiten.Image, page viewerPage) {
	face := basicfont.Face7x13
	labelColor := color.RGBA{190, 190, 190, 255}
	legendColor := color.RGBA{160, 160, 160, 255}
	onColor := color.RGBA{0, 220, 90, 255}

	y := v.rows * viewerScale
	label := fmt.Sprintf("%s  [0x%04x +%d]  %d/%d", page.title, page.offset, len(page.pixels), v.current+1, len(v.pages))
	text.Draw(screen, label, face, 6, y+16, labelColor)
	if v.message != "" {
		text.Draw(screen, v.message, face, 6, y+34, onColor)
		return
	}
	text.Draw(screen, "Left/Right Listing  C Copy State  Esc Quit", face, 6, y+34, legendColor)
}

func (v *memoryViewer) Layout(_, _ int) (int, int) {
	return dumpImageWidth * viewerScale, v.rows*viewerScale + viewerStatusBarH
}
