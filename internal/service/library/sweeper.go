package library

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"docshelf/internal/blobstore"

	"golang.org/x/sync/errgroup"
)

const DefaultSweepInterval = time.Hour

// StartOrphanSweeper runs SweepOrphans on a timer until ctx is done.
// Deletion drops the object before the row, so a failure between the two
// leaves a row with no object behind; the sweeper reclaims those.
func (s *Service) StartOrphanSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	go s.sweepLoop(ctx, interval)
}

func (s *Service) sweepLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := s.SweepOrphans(ctx)
			if err != nil {
				slog.Warn("orphan sweep failed", "error", err)
				continue
			}
			if removed > 0 {
				slog.Info("orphan sweep removed rows", "count", removed)
			}
		}
	}
}

// SweepOrphans deletes metadata rows whose object no longer exists and
// reports how many were removed. The object listing and the path listing
// load concurrently.
func (s *Service) SweepOrphans(ctx context.Context) (int, error) {
	var (
		objects []blobstore.ObjectInfo
		paths   []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		objects, err = s.blobs.List(gctx, uploadPrefix)
		if err != nil {
			return fmt.Errorf("list objects: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		paths, err = s.meta.ListPaths(gctx)
		if err != nil {
			return fmt.Errorf("list metadata paths: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return 0, err
	}

	live := make(map[string]struct{}, len(objects))
	for _, obj := range objects {
		live[obj.Path] = struct{}{}
	}
	removed := 0
	for _, p := range paths {
		// rows outside the upload prefix are not covered by the listing
		if !strings.HasPrefix(p, uploadPrefix) {
			continue
		}
		if _, ok := live[p]; ok {
			continue
		}
		if err := s.meta.DeleteByPath(ctx, p); err != nil {
			return removed, fmt.Errorf("delete orphan row %s: %w", p, err)
		}
		removed++
	}
	return removed, nil
}
