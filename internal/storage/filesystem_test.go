package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestDirStorePut(t *testing.T) {
	store, err := NewDirStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDirStore: %v", err)
	}
	key, err := store.Put(context.Background(), "/sess/abc/../t4_standard.png", []byte("png"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if key != "sess/t4_standard.png" {
		t.Fatalf("unexpected key %q", key)
	}
	data, err := os.ReadFile(filepath.Join(store.Root(), "sess", "t4_standard.png"))
	if err != nil || string(data) != "png" {
		t.Fatalf("file not written: %v %q", err, data)
	}
}

func TestDirStoreRejectsEscapes(t *testing.T) {
	store, err := NewDirStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"", "..", "../outside.png", "a/../../b.png"} {
		if _, err := store.Put(context.Background(), key, []byte("x")); err == nil {
			t.Fatalf("expected error for key %q", key)
		}
	}
}

func TestDirStoreHonorsContext(t *testing.T) {
	store, _ := NewDirStore(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.Put(ctx, "a.png", nil); err == nil {
		t.Fatal("expected cancelled context error")
	}
}

func TestNewDirStoreRequiresRoot(t *testing.T) {
	if _, err := NewDirStore("  "); err == nil {
		t.Fatal("expected error for empty root")
	}
}
