package fsutil

import (
	"path/filepath"
	"testing"
)

func TestSyncLockBlocksSecondAcquire(t *testing.T) {
	dir := t.TempDir()

	lock, err := AcquireSyncLock(dir)
	if err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}

	if _, err := AcquireSyncLock(dir); err == nil {
		t.Fatal("expected second acquire to fail while lock held")
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("release failed: %v", err)
	}

	relock, err := AcquireSyncLock(dir)
	if err != nil {
		t.Fatalf("acquire after release failed: %v", err)
	}
	_ = relock.Release()
}

func TestSyncLockRequiresDirectory(t *testing.T) {
	if _, err := AcquireSyncLock("   "); err == nil {
		t.Fatal("expected error for empty output directory")
	}
}

func TestWriteJSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")

	in := map[string]int{"a": 1, "b": 2}
	if err := WriteJSON(path, in); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	var out map[string]int
	if err := ReadJSON(path, &out); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if out["a"] != 1 || out["b"] != 2 {
		t.Fatalf("round trip mismatch: %v", out)
	}
}
