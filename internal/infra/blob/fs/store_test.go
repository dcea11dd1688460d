package fs

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"clientcore/internal/blob/core"
)

func newTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return store
}

func TestStore_PutGetHeadListDelete(t *testing.T) {
	ctx := context.Background()
	store := newTempStore(t)
	if store.Driver() != core.DriverFilesystem {
		t.Fatalf("unexpected driver %s", store.Driver())
	}
	info, err := store.Put(ctx, "snapshots/clients.json", bytes.NewReader([]byte(`{"clients":[]}`)), core.PutOptions{ContentType: "application/json", Metadata: map[string]string{"k": "v"}})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Key != "snapshots/clients.json" || info.Size != 14 || info.ETag == "" {
		t.Fatalf("unexpected info %+v", info)
	}
	h, err := store.Head(ctx, "snapshots/clients.json")
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if h.ContentType != "application/json" || h.Metadata["k"] != "v" {
		t.Fatalf("unexpected head %+v", h)
	}
	g, rc, err := store.Get(ctx, "snapshots/clients.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	b, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(b) != `{"clients":[]}` || g.ETag != h.ETag {
		t.Fatalf("unexpected get artifacts")
	}
	list, err := store.List(ctx, "snapshots/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Key != "snapshots/clients.json" {
		t.Fatalf("unexpected list %+v", list)
	}
	if other, _ := store.List(ctx, "exports/"); len(other) != 0 {
		t.Fatalf("prefix filter failed: %+v", other)
	}
	ok, err := store.Delete(ctx, "snapshots/clients.json")
	if err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	ok, err = store.Delete(ctx, "snapshots/clients.json")
	if err != nil || ok {
		t.Fatalf("second delete should report false: %v %v", ok, err)
	}
}

func TestStore_PutReplacesExisting(t *testing.T) {
	ctx := context.Background()
	store := newTempStore(t)
	first, err := store.Put(ctx, "k.json", bytes.NewReader([]byte("one")), core.PutOptions{})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	second, err := store.Put(ctx, "k.json", bytes.NewReader([]byte("three")), core.PutOptions{})
	if err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if first.ETag == second.ETag || second.Size != 5 {
		t.Fatalf("expected new etag and size, got %+v", second)
	}
	entries, _ := os.ReadDir(store.root)
	for _, e := range entries {
		if filepath.Ext(e.Name()) != ".json" && filepath.Ext(e.Name()) != ".meta" {
			t.Fatalf("stray file %s", e.Name())
		}
	}
}

func TestStore_MissingKeys(t *testing.T) {
	ctx := context.Background()
	store := newTempStore(t)
	if _, _, err := store.Get(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from get, got %v", err)
	}
	if _, err := store.Head(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from head, got %v", err)
	}
}

func TestStore_RejectsUnsafeKeys(t *testing.T) {
	ctx := context.Background()
	store := newTempStore(t)
	for _, key := range []string{"", "  ", "../escape", "/abs", "x.meta"} {
		if _, err := store.Put(ctx, key, bytes.NewReader(nil), core.PutOptions{}); err == nil {
			t.Fatalf("expected key %q to be rejected", key)
		}
	}
}

func TestStore_PresignURL(t *testing.T) {
	store := newTempStore(t)
	url, err := store.PresignURL(context.Background(), "a/b.json", core.SignedURLOptions{})
	if err != nil || url != "http://local.blob/a/b.json" {
		t.Fatalf("unexpected url %q err %v", url, err)
	}
	if _, err := store.PresignURL(context.Background(), "a", core.SignedURLOptions{Method: "PUT"}); !errors.Is(err, core.ErrUnsupported) {
		t.Fatalf("expected unsupported, got %v", err)
	}
}
