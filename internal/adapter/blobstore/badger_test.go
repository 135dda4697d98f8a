package blobstore

import (
	"context"
	"errors"
	"testing"

	"checksheet-backend/internal/domain/blob"
	"checksheet-backend/internal/infrastructure/kv"
)

func newStore(t *testing.T) *BadgerStore {
	t.Helper()
	db, err := kv.OpenBadger("")
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewBadgerStore(db, "/photos")
}

func TestBadgerStore_UploadOpenDelete(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	ref, err := s.Upload(ctx, "rec-1/photo/1767225600000.jpg", []byte("jpeg"), "image/jpeg")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if ref != "/photos/rec-1/photo/1767225600000.jpg" {
		t.Fatalf("ref = %s", ref)
	}

	data, ct, err := s.Open(ctx, ref)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if string(data) != "jpeg" || ct != "image/jpeg" {
		t.Fatalf("got %q %q", data, ct)
	}

	if err := s.Delete(ctx, ref); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, _, err := s.Open(ctx, ref); !errors.Is(err, blob.ErrNotFound) {
		t.Fatalf("want ErrNotFound after delete, got %v", err)
	}
}

func TestBadgerStore_ForeignRefs(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	if err := s.Delete(ctx, "https://elsewhere/x.jpg"); err != nil {
		t.Fatalf("foreign ref delete must be a no-op, got %v", err)
	}
	if _, _, err := s.Open(ctx, "/photos/../secret"); !errors.Is(err, blob.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if _, err := s.Upload(ctx, "", []byte("x"), "image/jpeg"); err == nil {
		t.Fatalf("empty path must fail")
	}
}
