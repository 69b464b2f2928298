//go:build headless

// memory_viewer_headless.go - Memory viewer stub for headless builds
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later

package main

import "errors"

var errViewerHeadless = errors.New("memory viewer is not available in headless builds")

func showMemoryViewer(pages []viewerPage) error {
	if len(pages) == 0 {
		return nil
	}
	return errViewerHeadless
}
