package syncer

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/minhng/focusgarden/internal/model"
	"github.com/minhng/focusgarden/internal/state"
	"github.com/minhng/focusgarden/internal/store"
)

func newTestAutoSync(t *testing.T, canSync bool) (*AutoSync, *fakeRemote, chan Result) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	remote := newFakeRemote()
	rec := NewReconciler(state.NewContainer(s), s, remote)

	done := make(chan Result, 8)
	rec.SetOnDone(func(r Result) { done <- r })

	a := NewAutoSync(rec, func() bool { return canSync })
	a.debounceTime = 20 * time.Millisecond
	t.Cleanup(a.Stop)
	return a, remote, done
}

func TestTriggerDebouncesIntoOnePass(t *testing.T) {
	a, _, done := newTestAutoSync(t, true)

	// Rapid edits re-arm the timer; only the last one fires.
	a.Trigger()
	a.Trigger()
	a.Trigger()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("debounced pass never fired")
	}

	select {
	case <-done:
		t.Fatal("coalesced triggers must produce a single pass")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestTriggerNoopWhenSignedOut(t *testing.T) {
	a, _, done := newTestAutoSync(t, false)

	a.Trigger()

	select {
	case <-done:
		t.Fatal("no pass should run while signed out")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestFlushFiresArmedTimerImmediately(t *testing.T) {
	a, _, done := newTestAutoSync(t, true)
	a.debounceTime = time.Hour // never fires on its own

	a.Trigger()
	a.Flush(context.Background())

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("flush should run the armed pass immediately")
	}
}

func TestFlushWithoutArmedTimerIsNoop(t *testing.T) {
	a, _, done := newTestAutoSync(t, true)

	a.Flush(context.Background())

	select {
	case <-done:
		t.Fatal("flush without an armed timer should do nothing")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSyncNowBypassesDebounce(t *testing.T) {
	a, _, _ := newTestAutoSync(t, true)
	a.debounceTime = time.Hour

	if _, ran := a.SyncNow(context.Background()); !ran {
		t.Fatal("SyncNow should run a pass immediately")
	}
}

func TestSessionDeletedQueuesTombstoneEvenBeforeFire(t *testing.T) {
	a, _, _ := newTestAutoSync(t, true)
	a.debounceTime = time.Hour

	a.SessionDeleted("c1")
	a.LabelDeleted("l1")

	lbl, sess := a.rec.PendingTombstones()
	if lbl != 1 || sess != 1 {
		t.Fatalf("tombstones must be durable before the debounce fires, got %d/%d", lbl, sess)
	}
}

func TestRestoreSchedulesForcePushPass(t *testing.T) {
	a, remote, done := newTestAutoSync(t, true)
	a.debounceTime = time.Hour

	remote.sessions["stale"] = SessionRow{ClientID: "stale", DurationSec: 600}
	a.rec.st.Mutate(func(st *state.State) {
		st.Sessions = []model.Session{localSession("fresh", 1000)}
	})

	// The restore flow arms the force-push one-shot AND the debounce; the
	// end-of-command flush then has a timer to fire. Without the explicit
	// trigger the flush would find nothing armed and the push would never
	// happen.
	a.rec.ForcePushOnce()
	a.Trigger()
	a.Flush(context.Background())

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("flush after restore should run the pass")
	}

	a.rec.st.View(func(st *state.State) {
		for _, s := range st.Sessions {
			if s.ClientID == "stale" {
				t.Fatal("restore pass must not pull stale remote rows")
			}
		}
	})
	remote.mu.Lock()
	_, pushed := remote.sessions["fresh"]
	remote.mu.Unlock()
	if !pushed {
		t.Error("restored session not pushed")
	}
}

func TestStopPreventsFire(t *testing.T) {
	a, _, done := newTestAutoSync(t, true)

	a.Trigger()
	a.Stop()

	select {
	case <-done:
		t.Fatal("no pass should fire after Stop")
	case <-time.After(100 * time.Millisecond):
	}
}
