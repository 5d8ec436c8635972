package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/minhng/focusgarden/internal/config"
	"github.com/minhng/focusgarden/internal/display"
	"github.com/minhng/focusgarden/internal/label"
	"github.com/minhng/focusgarden/internal/ledger"
	"github.com/minhng/focusgarden/internal/progression"
	"github.com/minhng/focusgarden/internal/state"
	"github.com/minhng/focusgarden/internal/store"
	"github.com/minhng/focusgarden/internal/syncer"
)

// app bundles the opened store, the state container and the services over
// it. Every command opens one app, mutates through it and closes it.
type app struct {
	cfg    *config.Config
	store  *store.Store
	state  *state.Container
	ledger *ledger.Service
	labels *label.Registry
	garden *progression.Service
	client *syncer.Client
	rec    *syncer.Reconciler
	auto   *syncer.AutoSync
}

// openApp wires the full service graph. The AutoSync wrapper is always the
// delete notifier so tombstones are queued durably even while offline; the
// debounce itself is gated on a signed-in identity.
func openApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.DefaultConfig()
	}

	s, err := store.OpenDefault()
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	client, err := syncer.NewClient()
	if err != nil {
		s.Close()
		return nil, err
	}

	st := state.NewContainer(s)
	rec := syncer.NewReconciler(st, s, client)
	auto := syncer.NewAutoSync(rec, func() bool {
		return cfg.AutoSync && client.SignedIn()
	})

	// Catch up after a while away; the end-of-command flush fires it.
	last := rec.LastSyncMs()
	if last == 0 || time.Since(time.UnixMilli(last)) > 15*time.Minute {
		auto.Trigger()
	}

	return &app{
		cfg:    cfg,
		store:  s,
		state:  st,
		ledger: ledger.NewService(st, auto),
		labels: label.NewRegistry(st, auto),
		garden: progression.NewService(st),
		client: client,
		rec:    rec,
		auto:   auto,
	}, nil
}

// syncAfterChange flushes any debounce armed by the command's mutations so
// a short-lived CLI process does not exit with the pass still pending.
func (a *app) syncAfterChange() {
	if !a.cfg.AutoSync || !a.client.SignedIn() {
		return
	}
	a.auto.Flush(context.Background())
	if lbl, sess := a.rec.PendingTombstones(); lbl+sess > 0 {
		fmt.Println(display.Warning(fmt.Sprintf("%d deletions still queued for sync", lbl+sess)))
	}
}

func (a *app) close() {
	a.auto.Stop()
	_ = a.store.Close()
}
