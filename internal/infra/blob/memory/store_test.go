package memory

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"clientcore/internal/blob/core"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()
	if s.Driver() != core.DriverMemory {
		t.Fatalf("unexpected driver %s", s.Driver())
	}
	if _, err := s.Put(ctx, "a/1", bytes.NewReader([]byte("x")), core.PutOptions{Metadata: map[string]string{"k": "v"}}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := s.Put(ctx, "a/1", bytes.NewReader([]byte("xyz")), core.PutOptions{}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	info, rc, err := s.Get(ctx, "a/1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, _ := io.ReadAll(rc)
	if string(data) != "xyz" || info.Size != 3 {
		t.Fatalf("unexpected content %q %+v", data, info)
	}
	if _, err := s.Put(ctx, "b/2", bytes.NewReader(nil), core.PutOptions{}); err != nil {
		t.Fatalf("put b: %v", err)
	}
	all, _ := s.List(ctx, "")
	only, _ := s.List(ctx, "a/")
	if len(all) != 2 || len(only) != 1 || all[0].Key != "a/1" {
		t.Fatalf("unexpected listings %+v %+v", all, only)
	}
	if ok, _ := s.Delete(ctx, "a/1"); !ok {
		t.Fatalf("expected delete to report existing")
	}
	if _, err := s.Head(ctx, "a/1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, _, err := s.Get(ctx, "a/1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.PresignURL(ctx, "b/2", core.SignedURLOptions{}); !errors.Is(err, core.ErrUnsupported) {
		t.Fatalf("expected unsupported, got %v", err)
	}
}
