// listing_batch.go - Concurrent processing of several listings
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later

package main

import (
	"context"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// runBatch runs every listing in cfg.files with at most cfg.jobs in flight.
// Each listing owns its program and machine. Results come back in argument
// order. A failure only stops listings after it: those not yet started are
// skipped, while every listing before it runs to completion. Results stop
// at the earliest failing listing.
func runBatch(ctx context.Context, cfg *runConfig, log logrus.FieldLogger, style terminalStyle) ([]*listingResult, error) {
	results := make([]*listingResult, len(cfg.files))
	errs := make([]error, len(cfg.files))

	var firstFailed atomic.Int64
	firstFailed.Store(int64(len(cfg.files)))

	var g errgroup.Group
	g.SetLimit(max(cfg.jobs, 1))
	for i, file := range cfg.files {
		i, file := i, file
		g.Go(func() error {
			if int64(i) > firstFailed.Load() {
				return nil
			}
			results[i], errs[i] = runListing(ctx, cfg, file, log, style)
			if errs[i] != nil {
				lowerTo(&firstFailed, int64(i))
			}
			return errs[i]
		})
	}
	if err := g.Wait(); err == nil {
		return results, nil
	}

	for i, err := range errs {
		if err != nil {
			return results[:i+1], err
		}
	}
	return results, nil
}

// lowerTo stores v in a if it is below the current value.
func lowerTo(a *atomic.Int64, v int64) {
	for {
		cur := a.Load()
		if v >= cur || a.CompareAndSwap(cur, v) {
			return
		}
	}
}
