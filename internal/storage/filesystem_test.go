package storage

import (
	"context"
	"errors"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()

	if _, err := store.Read(ctx, "missing.json"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Read missing = %v, want ErrNotFound", err)
	}
	key, err := store.Write(ctx, "./nested//value.json", []byte("one"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if key != "nested/value.json" {
		t.Fatalf("key = %q", key)
	}
	if _, err := store.Write(ctx, key, []byte("two")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := store.Read(ctx, key)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "two" {
		t.Fatalf("Read = %q, want two", got)
	}
	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete twice: %v", err)
	}
}

func TestSanitizeKeyRejectsTraversal(t *testing.T) {
	for _, key := range []string{"", "  ", "../x", "a/../../x", ".", ".."} {
		if _, err := sanitizeKey(key); err == nil {
			t.Fatalf("sanitizeKey(%q) expected error", key)
		}
	}
	if got, err := sanitizeKey(`\a\b.json`); err != nil || got != "a/b.json" {
		t.Fatalf("sanitizeKey backslashes = %q, %v", got, err)
	}
}
