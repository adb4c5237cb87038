package library

import (
	"context"
	"testing"

	"docshelf/internal/models"
)

func TestSweepOrphansRemovesRowsWithoutObjects(t *testing.T) {
	svc, blobs, store := newTestService(t, nil)
	ctx := context.Background()

	if err := blobs.Put(ctx, "uploads/live.pdf", []byte("x"), "application/pdf"); err != nil {
		t.Fatalf("put: %v", err)
	}
	for _, path := range []string{"uploads/live.pdf", "uploads/gone.pdf", "archive/keep.pdf"} {
		if _, err := store.Insert(ctx, &models.Metadata{
			DocumentName: path,
			StoragePath:  path,
			CreatedAt:    testTime,
			UpdatedAt:    testTime,
		}); err != nil {
			t.Fatalf("insert %s: %v", path, err)
		}
	}

	removed, err := svc.SweepOrphans(ctx)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removal, got %d", removed)
	}

	if row, _ := store.SelectByPath(ctx, "uploads/gone.pdf"); row != nil {
		t.Fatal("orphan row survived the sweep")
	}
	if row, _ := store.SelectByPath(ctx, "uploads/live.pdf"); row == nil {
		t.Fatal("live row was swept")
	}
	// rows outside the upload prefix are not covered by the listing
	if row, _ := store.SelectByPath(ctx, "archive/keep.pdf"); row == nil {
		t.Fatal("row outside the prefix was swept")
	}
}

func TestSweepOrphansCleanView(t *testing.T) {
	svc, blobs, _ := newTestService(t, nil)
	ctx := context.Background()

	if err := blobs.Put(ctx, "uploads/a.pdf", []byte("x"), "application/pdf"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, _, err := svc.Upload(ctx, UploadInput{Filename: "b.pdf", Data: []byte("y")}); err != nil {
		t.Fatalf("upload: %v", err)
	}

	removed, err := svc.SweepOrphans(ctx)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if removed != 0 {
		t.Fatalf("sweep removed %d rows from a clean view", removed)
	}
}
