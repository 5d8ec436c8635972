package syncer

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/minhng/focusgarden/internal/logger"
	"github.com/minhng/focusgarden/internal/model"
	"github.com/minhng/focusgarden/internal/state"
	"github.com/minhng/focusgarden/internal/store"
)

// Status is the reconciler's explicit state machine.
type Status int

const (
	StatusIdle Status = iota
	StatusSyncing
)

// Reconciler runs the pull-merge-push protocol against a RemoteStore. At
// most one pass runs at a time; a request arriving mid-pass sets the
// pending flag, which is checked on the transition back to idle.
type Reconciler struct {
	st     *state.Container
	store  *store.Store
	remote RemoteStore

	mu      sync.Mutex
	meta    *Meta
	status  Status
	pending bool
	onDone  func(Result)
}

// Result summarizes one reconciliation pass. Warnings carry the per-call
// remote failures that did not abort the pass.
type Result struct {
	PulledLabels   int
	PulledSessions int
	PushedLabels   int
	PushedSessions int
	Warnings       []string
}

// NewReconciler loads persisted sync metadata from s and returns a
// reconciler over the container.
func NewReconciler(st *state.Container, s *store.Store, remote RemoteStore) *Reconciler {
	return &Reconciler{
		st:     st,
		store:  s,
		remote: remote,
		meta:   loadMeta(s),
	}
}

// SetOnDone registers a callback invoked after each completed pass.
func (r *Reconciler) SetOnDone(fn func(Result)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onDone = fn
}

// Status returns the current state machine position.
func (r *Reconciler) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// LastSyncMs returns the timestamp of the last completed pass.
func (r *Reconciler) LastSyncMs() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.meta.LastSyncMs
}

// LabelDeleted enqueues a label tombstone. Implements label.DeleteNotifier.
func (r *Reconciler) LabelDeleted(localID string) {
	r.mu.Lock()
	r.meta.DeletedLabelIDs = enqueue(r.meta.DeletedLabelIDs, localID)
	saveMeta(r.store, r.meta)
	r.mu.Unlock()
}

// SessionDeleted enqueues a session tombstone. Implements
// ledger.DeleteNotifier.
func (r *Reconciler) SessionDeleted(clientID string) {
	r.mu.Lock()
	r.meta.DeletedSessionIDs = enqueue(r.meta.DeletedSessionIDs, clientID)
	saveMeta(r.store, r.meta)
	r.mu.Unlock()
}

// LedgerChanged is a no-op hook here; the AutoSync wrapper overrides it to
// arm the debounce timer.
func (r *Reconciler) LedgerChanged() {}

// ForcePushOnce arms the one-shot mode: the next pass skips the pull phase
// and pushes local truth. Set after a full-state import.
func (r *Reconciler) ForcePushOnce() {
	r.mu.Lock()
	r.meta.ForcePushOnce = true
	saveMeta(r.store, r.meta)
	r.mu.Unlock()
}

// PendingTombstones returns the queued label and session deletion counts.
func (r *Reconciler) PendingTombstones() (labels, sessions int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.meta.DeletedLabelIDs), len(r.meta.DeletedSessionIDs)
}

// Reconcile runs one full pass. Returns false without running when a pass
// is already in flight (the pending flag is set instead). Remote errors are
// collected as warnings; they never abort the remaining steps and never
// discard local state.
func (r *Reconciler) Reconcile(ctx context.Context) (Result, bool) {
	r.mu.Lock()
	if r.status == StatusSyncing {
		r.pending = true
		r.mu.Unlock()
		return Result{}, false
	}
	r.status = StatusSyncing
	forcePush := r.meta.ForcePushOnce
	r.mu.Unlock()

	res := r.runPass(ctx, forcePush)

	r.mu.Lock()
	r.status = StatusIdle
	r.meta.LastSyncMs = time.Now().UnixMilli()
	saveMeta(r.store, r.meta)
	rearm := r.pending
	r.pending = false
	done := r.onDone
	r.mu.Unlock()

	if err := r.st.Save(); err != nil {
		logger.Warn("Post-sync state persist failed", logger.F("error", err))
	}
	if done != nil {
		done(res)
	}
	if rearm {
		// Local edits arrived mid-pass; run again so nothing accumulated
		// since the last push is left behind.
		go func() {
			r.Reconcile(context.Background())
		}()
	}
	return res, true
}

func (r *Reconciler) runPass(ctx context.Context, forcePush bool) (res Result) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("Reconciliation pass panicked", logger.F("panic", rec))
			res.Warnings = append(res.Warnings, "sync pass aborted unexpectedly")
		}
	}()

	r.flushTombstones(ctx, &res)

	if forcePush {
		logger.Info("Force-push set, skipping pull phase")
	} else {
		r.pullPhase(ctx, &res)
	}

	// Consume the one-shot regardless of push outcome.
	r.mu.Lock()
	if r.meta.ForcePushOnce {
		r.meta.ForcePushOnce = false
		saveMeta(r.store, r.meta)
	}
	r.mu.Unlock()

	r.pushPhase(ctx, &res)
	return res
}

// flushTombstones issues remote bulk-deletes for the queued ids. The queue
// is cleared only on confirmed success; failures leave it intact for the
// next pass.
func (r *Reconciler) flushTombstones(ctx context.Context, res *Result) {
	r.mu.Lock()
	labels := append([]string(nil), r.meta.DeletedLabelIDs...)
	sessions := append([]string(nil), r.meta.DeletedSessionIDs...)
	r.mu.Unlock()

	if len(labels) > 0 {
		if err := r.remote.DeleteLabels(ctx, labels); err != nil {
			logger.Warn("Label tombstone flush failed", logger.F("error", err))
			res.Warnings = append(res.Warnings, "label deletions not yet synced")
		} else {
			r.mu.Lock()
			r.meta.DeletedLabelIDs = remove(r.meta.DeletedLabelIDs, labels)
			saveMeta(r.store, r.meta)
			r.mu.Unlock()
		}
	}

	if len(sessions) > 0 {
		if err := r.remote.DeleteSessions(ctx, sessions); err != nil {
			logger.Warn("Session tombstone flush failed", logger.F("error", err))
			res.Warnings = append(res.Warnings, "session deletions not yet synced")
		} else {
			r.mu.Lock()
			r.meta.DeletedSessionIDs = remove(r.meta.DeletedSessionIDs, sessions)
			saveMeta(r.store, r.meta)
			r.mu.Unlock()
		}
	}
}

// pullPhase fetches remote rows and merges them into local state. Local
// state is only ever added to or overwritten field-by-field; it is never
// discarded on error.
func (r *Reconciler) pullPhase(ctx context.Context, res *Result) {
	if profile, err := r.remote.FetchProfile(ctx); err != nil {
		logger.Warn("Profile pull failed", logger.F("error", err))
		res.Warnings = append(res.Warnings, "profile pull failed")
	} else if profile != nil {
		r.mergeProfile(*profile)
	}

	if rows, err := r.remote.FetchLabels(ctx); err != nil {
		logger.Warn("Label pull failed", logger.F("error", err))
		res.Warnings = append(res.Warnings, "label pull failed")
	} else {
		res.PulledLabels = r.mergeLabels(rows)
	}

	if rows, err := r.remote.FetchSessions(ctx); err != nil {
		logger.Warn("Session pull failed", logger.F("error", err))
		res.Warnings = append(res.Warnings, "session pull failed")
	} else {
		res.PulledSessions = r.mergeSessions(rows)
	}
}

// mergeProfile applies remote-wins semantics: the single profile row makes
// last-writer-wins safe across devices without per-field timestamps.
func (r *Reconciler) mergeProfile(row ProfileRow) {
	_ = r.st.Mutate(func(st *state.State) {
		p := &st.Profile
		p.DisplayName = row.DisplayName
		p.WeeklyGoalMin = row.WeeklyGoalMin
		p.Theme = row.Theme
		p.StopwatchCapMin = row.StopwatchCapMin
		p.AmbientSound = row.AmbientSound
		p.IslandXPSec = row.IslandXPSec
		p.GardenGrowthSec = row.GardenGrowthSec
		if model.ValidTreeKind(model.TreeKind(row.TreeType)) {
			p.TreeType = model.TreeKind(row.TreeType)
		}
		p.HarvestedOnTree = row.HarvestedOnTree
		if row.FruitCollection != nil {
			fc := make(map[model.TreeKind]int, len(row.FruitCollection))
			for k, v := range row.FruitCollection {
				if model.ValidTreeKind(model.TreeKind(k)) {
					fc[model.TreeKind(k)] = v
				}
			}
			p.FruitCollection = fc
		}
		p.UpdatedMs = row.UpdatedMs
		state.Normalize(st)
	})
}

// mergeLabels overwrites local labels with same-id remote rows and adds
// unknown ones. Rows whose id still sits on the tombstone queue are
// filtered out so an in-flight deletion is not undone by the very pull
// that precedes its removal.
func (r *Reconciler) mergeLabels(rows []LabelRow) int {
	r.mu.Lock()
	tombstoned := append([]string(nil), r.meta.DeletedLabelIDs...)
	r.mu.Unlock()

	merged := 0
	_ = r.st.Mutate(func(st *state.State) {
		for _, row := range rows {
			if contains(tombstoned, row.LocalID) {
				continue
			}
			l := model.Label{
				ID:        row.LocalID,
				LocalID:   row.LocalID,
				Name:      row.Name,
				Color:     row.Color,
				Favorite:  row.Favorite,
				CreatedTs: row.CreatedMs,
			}
			replaced := false
			for i := range st.Labels {
				if st.Labels[i].LocalID == row.LocalID {
					l.ID = st.Labels[i].ID
					st.Labels[i] = l
					replaced = true
					break
				}
			}
			if !replaced {
				st.Labels = append(st.Labels, l)
			}
			merged++
		}
	})
	return merged
}

// mergeSessions adds remote rows whose clientId is unknown locally. Local
// wins on collision: a suspended pull must not clobber a session the user
// recorded while the fetch was in flight.
func (r *Reconciler) mergeSessions(rows []SessionRow) int {
	r.mu.Lock()
	tombstoned := append([]string(nil), r.meta.DeletedSessionIDs...)
	r.mu.Unlock()

	added := 0
	_ = r.st.Mutate(func(st *state.State) {
		known := make(map[string]struct{}, len(st.Sessions))
		for _, s := range st.Sessions {
			known[s.ClientID] = struct{}{}
		}
		for _, row := range rows {
			if contains(tombstoned, row.ClientID) {
				continue
			}
			if _, ok := known[row.ClientID]; ok {
				continue
			}
			s := model.Session{
				ID:          row.ClientID,
				ClientID:    row.ClientID,
				StartTs:     row.StartedMs,
				EndTs:       row.EndedMs,
				DurationSec: row.DurationSec,
				Method:      model.Method(row.Method),
				RewardMode:  model.RewardMode(row.RewardMode),
				Label:       row.Label,
			}
			if !model.ValidMethod(s.Method) {
				s.Method = model.MethodManual
			}
			if !model.ValidRewardMode(s.RewardMode) {
				s.RewardMode = model.ModeIsland
			}
			st.Sessions = append(st.Sessions, s)
			known[s.ClientID] = struct{}{}
			added++
		}
		sort.SliceStable(st.Sessions, func(i, j int) bool {
			return st.Sessions[i].EndTs > st.Sessions[j].EndTs
		})
	})
	return added
}

// pushPhase upserts the full local profile, labels and sessions. The three
// upserts are independent; one failing does not block the others.
func (r *Reconciler) pushPhase(ctx context.Context, res *Result) {
	var profile ProfileRow
	var labels []LabelRow
	var sessions []SessionRow

	r.st.View(func(st *state.State) {
		profile = profileRow(st.Profile)
		for _, l := range st.Labels {
			labels = append(labels, LabelRow{
				LocalID:   l.LocalID,
				Name:      l.Name,
				Color:     l.Color,
				Favorite:  l.Favorite,
				CreatedMs: l.CreatedTs,
				UpdatedMs: time.Now().UnixMilli(),
			})
		}
		for _, s := range st.Sessions {
			sessions = append(sessions, SessionRow{
				ClientID:    s.ClientID,
				StartedMs:   s.StartTs,
				EndedMs:     s.EndTs,
				DurationSec: s.DurationSec,
				Label:       s.Label,
				Method:      string(s.Method),
				RewardMode:  string(s.RewardMode),
				UpdatedMs:   time.Now().UnixMilli(),
			})
		}
	})

	if err := r.remote.UpsertProfile(ctx, profile); err != nil {
		logger.Warn("Profile push failed", logger.F("error", err))
		res.Warnings = append(res.Warnings, "profile push failed")
	}
	if len(labels) > 0 {
		if err := r.remote.UpsertLabels(ctx, labels); err != nil {
			logger.Warn("Label push failed", logger.F("error", err))
			res.Warnings = append(res.Warnings, "label push failed")
		} else {
			res.PushedLabels = len(labels)
		}
	}
	if len(sessions) > 0 {
		if err := r.remote.UpsertSessions(ctx, sessions); err != nil {
			logger.Warn("Session push failed", logger.F("error", err))
			res.Warnings = append(res.Warnings, "session push failed")
		} else {
			res.PushedSessions = len(sessions)
		}
	}
}

func profileRow(p model.Profile) ProfileRow {
	fc := make(map[string]int, len(p.FruitCollection))
	for k, v := range p.FruitCollection {
		fc[string(k)] = v
	}
	return ProfileRow{
		DisplayName:     p.DisplayName,
		WeeklyGoalMin:   p.WeeklyGoalMin,
		Theme:           p.Theme,
		StopwatchCapMin: p.StopwatchCapMin,
		AmbientSound:    p.AmbientSound,
		IslandXPSec:     p.IslandXPSec,
		GardenGrowthSec: p.GardenGrowthSec,
		TreeType:        string(p.TreeType),
		HarvestedOnTree: p.HarvestedOnTree,
		FruitCollection: fc,
		UpdatedMs:       time.Now().UnixMilli(),
	}
}

// remove drops every id in gone from ids, preserving order.
func remove(ids, gone []string) []string {
	out := ids[:0]
	for _, v := range ids {
		if !contains(gone, v) {
			out = append(out, v)
		}
	}
	return out
}
