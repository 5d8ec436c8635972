package store

import (
	"errors"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGetMissingKey(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Get("nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSetGetRoundtrip(t *testing.T) {
	s := openTestStore(t)

	if err := s.Set(KeyState, `{"version":2}`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, err := s.Get(KeyState)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v != `{"version":2}` {
		t.Fatalf("unexpected value %q", v)
	}
}

func TestSetOverwrites(t *testing.T) {
	s := openTestStore(t)

	if err := s.Set("k", "one"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set("k", "two"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, _ := s.Get("k")
	if v != "two" {
		t.Fatalf("expected overwrite, got %q", v)
	}
}

func TestRemoveAbsentKey(t *testing.T) {
	s := openTestStore(t)

	if err := s.Remove("ghost"); err != nil {
		t.Fatalf("Remove of absent key should not error, got %v", err)
	}
}

func TestPersistenceAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Set("k", "durable"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	s.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	v, err := s2.Get("k")
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if v != "durable" {
		t.Fatalf("expected value to survive reopen, got %q", v)
	}
}

func TestDegradedModeKeepsWorking(t *testing.T) {
	s := openTestStore(t)

	// Close the database underneath the store; the next write must flip it
	// to memory mode instead of failing every call afterwards.
	s.db.Close()

	if err := s.Set("k", "v"); err == nil {
		t.Fatal("expected an error from the failed write")
	}
	if !s.Degraded() {
		t.Fatal("store should be degraded after a non-quota write failure")
	}

	if err := s.Set("k2", "v2"); err != nil {
		t.Fatalf("degraded write should succeed in memory, got %v", err)
	}
	v, err := s.Get("k2")
	if err != nil || v != "v2" {
		t.Fatalf("degraded read: got %q, %v", v, err)
	}
}

func TestIsQuotaErr(t *testing.T) {
	if !isQuotaErr(errors.New("database or disk is full")) {
		t.Fatal("disk-full error should classify as quota")
	}
	if !isQuotaErr(errors.New("write failed: no space left on device")) {
		t.Fatal("no-space error should classify as quota")
	}
	if isQuotaErr(errors.New("database is locked")) {
		t.Fatal("locked error must not classify as quota")
	}
}
