package blobstore

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestMemoryPutRejectsExistingPath(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	if err := store.Put(ctx, "uploads/report.pdf", []byte("one"), "application/pdf"); err != nil {
		t.Fatalf("first put failed: %v", err)
	}
	err := store.Put(ctx, "uploads/report.pdf", []byte("two"), "application/pdf")
	if !errors.Is(err, ErrObjectExists) {
		t.Fatalf("expected ErrObjectExists, got %v", err)
	}

	data, contentType, ok := store.Object("uploads/report.pdf")
	if !ok {
		t.Fatal("object missing after failed overwrite")
	}
	if string(data) != "one" {
		t.Fatalf("object content changed: %q", data)
	}
	if contentType != "application/pdf" {
		t.Fatalf("unexpected content type %q", contentType)
	}
}

func TestMemoryListNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	for _, name := range []string{"uploads/a.pdf", "uploads/b.pdf", "uploads/c.pdf"} {
		if err := store.Put(ctx, name, []byte(name), "application/pdf"); err != nil {
			t.Fatalf("put %s: %v", name, err)
		}
	}
	if err := store.Put(ctx, "other/d.pdf", []byte("d"), "application/pdf"); err != nil {
		t.Fatalf("put other/d.pdf: %v", err)
	}

	objects, err := store.List(ctx, "uploads/")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(objects) != 3 {
		t.Fatalf("expected 3 objects, got %d", len(objects))
	}
	want := []string{"uploads/c.pdf", "uploads/b.pdf", "uploads/a.pdf"}
	for i, obj := range objects {
		if obj.Path != want[i] {
			t.Fatalf("position %d: got %s, want %s", i, obj.Path, want[i])
		}
	}
	if objects[0].Size != int64(len("uploads/c.pdf")) {
		t.Fatalf("unexpected size %d", objects[0].Size)
	}
}

func TestMemorySignedURLRequiresObject(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	_, err := store.SignedURL(ctx, "uploads/missing.pdf", time.Minute)
	if !errors.Is(err, ErrObjectNotExist) {
		t.Fatalf("expected ErrObjectNotExist, got %v", err)
	}

	if err := store.Put(ctx, "uploads/report.pdf", []byte("pdf"), "application/pdf"); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	url, err := store.SignedURL(ctx, "uploads/report.pdf", time.Minute)
	if err != nil {
		t.Fatalf("signed url failed: %v", err)
	}
	if !strings.Contains(url, "uploads/report.pdf") {
		t.Fatalf("url does not reference object: %s", url)
	}

	store.URLFor = func(path string, ttl time.Duration) (string, error) {
		return "http://127.0.0.1:9/" + path, nil
	}
	url, err = store.SignedURL(ctx, "uploads/report.pdf", time.Minute)
	if err != nil {
		t.Fatalf("signed url with hook failed: %v", err)
	}
	if url != "http://127.0.0.1:9/uploads/report.pdf" {
		t.Fatalf("hook not used: %s", url)
	}
}

func TestMemoryRemove(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	if err := store.Put(ctx, "uploads/report.pdf", []byte("pdf"), "application/pdf"); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if err := store.Remove(ctx, "uploads/report.pdf"); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if err := store.Remove(ctx, "uploads/report.pdf"); !errors.Is(err, ErrObjectNotExist) {
		t.Fatalf("expected ErrObjectNotExist on repeat remove, got %v", err)
	}
	if _, _, ok := store.Object("uploads/report.pdf"); ok {
		t.Fatal("object still present after remove")
	}
}
