package syncer

import (
	"context"
	"sync"
	"time"
)

// AutoSync coalesces rapid local edits into a single debounced
// reconciliation pass. Each trigger re-arms the timer; the reconciler's own
// pending flag covers edits that land while a pass is in flight.
type AutoSync struct {
	rec          *Reconciler
	canSync      func() bool
	debounceTime time.Duration

	mu     sync.Mutex
	timer  *time.Timer
	stopCh chan struct{}
}

// NewAutoSync returns a scheduler over rec. canSync gates on a signed-in
// remote identity.
func NewAutoSync(rec *Reconciler, canSync func() bool) *AutoSync {
	return &AutoSync{
		rec:          rec,
		canSync:      canSync,
		debounceTime: 5 * time.Second,
		stopCh:       make(chan struct{}),
	}
}

// Trigger schedules a reconciliation after the idle debounce. Timers are
// explicitly stopped and re-armed, never left to double-fire.
func (a *AutoSync) Trigger() {
	if !a.canSync() {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.debounceTime, a.fire)
}

func (a *AutoSync) fire() {
	select {
	case <-a.stopCh:
		return
	default:
	}
	a.rec.Reconcile(context.Background())
}

// SyncNow runs a pass immediately, bypassing the debounce. Used at sign-in
// and app start.
func (a *AutoSync) SyncNow(ctx context.Context) (Result, bool) {
	if !a.canSync() {
		return Result{}, false
	}
	return a.rec.Reconcile(ctx)
}

// Flush runs a pass immediately if a debounce timer is armed, so pending
// edits are not lost on process exit.
func (a *AutoSync) Flush(ctx context.Context) {
	a.mu.Lock()
	armed := a.timer != nil && a.timer.Stop()
	a.mu.Unlock()
	if armed && a.canSync() {
		a.rec.Reconcile(ctx)
	}
}

// Stop cancels any armed timer and prevents further fires. Safe to call
// more than once.
func (a *AutoSync) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	select {
	case <-a.stopCh:
	default:
		close(a.stopCh)
	}
}

// LabelDeleted forwards the tombstone and arms the debounce.
func (a *AutoSync) LabelDeleted(localID string) {
	a.rec.LabelDeleted(localID)
	a.Trigger()
}

// SessionDeleted forwards the tombstone and arms the debounce.
func (a *AutoSync) SessionDeleted(clientID string) {
	a.rec.SessionDeleted(clientID)
	a.Trigger()
}

// LedgerChanged arms the debounce after any local mutation that should
// propagate.
func (a *AutoSync) LedgerChanged() {
	a.Trigger()
}
