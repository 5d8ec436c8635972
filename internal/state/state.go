// Package state owns the single in-memory aggregate and its persistence.
// All mutation funnels through Container.Mutate, which ends in exactly one
// persist call.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/minhng/focusgarden/internal/logger"
	"github.com/minhng/focusgarden/internal/model"
	"github.com/minhng/focusgarden/internal/store"
)

// CurrentVersion is the schema version written by Save.
const CurrentVersion = 2

// Task is a lightweight local to-do riding along in the aggregate. Tasks
// are not synced to the remote store.
type Task struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Done      bool   `json:"done"`
	CreatedTs int64  `json:"created_ts"`
}

// UIPrefs holds view preferences.
type UIPrefs struct {
	// LastMode is the progression view last shown to the user.
	LastMode model.RewardMode `json:"last_mode"`
}

// State is the full aggregate: profile and progression, the session ledger,
// labels, the task list and UI preferences.
type State struct {
	Version  int             `json:"version"`
	Profile  model.Profile   `json:"profile"`
	Sessions []model.Session `json:"sessions"` // most-recent-first by EndTs
	Labels   []model.Label   `json:"labels"`
	Tasks    []Task          `json:"tasks"`
	UI       *UIPrefs        `json:"ui,omitempty"`

	// DefaultView is the legacy pre-v2 view flag. Retained only so old
	// blobs can be migrated into UI.LastMode on load.
	DefaultView string `json:"default_view,omitempty"`
}

// Container wraps the aggregate with its durable store. It is safe for use
// from the CLI flow and the background reconciler at the same time.
type Container struct {
	mu    sync.Mutex
	st    *State
	store *store.Store

	warnedUnavailable bool
}

// NewContainer loads persisted state from s, falling back to defaults on
// missing or corrupt data.
func NewContainer(s *store.Store) *Container {
	c := &Container{store: s}
	c.st = load(s)
	checkDrift(c.st)
	return c
}

// load reads the persisted blob and merges it with defaults. Any decode
// failure yields a fresh default state rather than an error.
func load(s *store.Store) *State {
	raw, err := s.Get(store.KeyState)
	if errors.Is(err, store.ErrNotFound) {
		return Defaults()
	}
	if err != nil {
		logger.Warn("Failed to read state, using defaults", logger.F("error", err))
		return Defaults()
	}

	st := &State{}
	if err := json.Unmarshal([]byte(raw), st); err != nil {
		logger.Warn("Corrupt state blob, using defaults", logger.F("error", err))
		return Defaults()
	}

	Normalize(st)
	return st
}

// checkDrift recomputes the island counter from the ledger and logs any
// discrepancy. The counters are stored rather than derived because
// RestartTree zeroes garden growth independently of session history.
func checkDrift(st *State) {
	var sum int64
	for _, s := range st.Sessions {
		sum += int64(s.DurationSec)
	}
	if st.Profile.IslandXPSec != sum {
		logger.Warn("Progression counter drift detected",
			logger.F("islandXpSec", st.Profile.IslandXPSec),
			logger.F("ledgerSum", sum))
	}
}

// View runs fn with the aggregate under lock, for read-only access.
func (c *Container) View(fn func(st *State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c.st)
}

// Mutate runs fn with the aggregate under lock and persists afterwards.
// The persist error (if any) is returned but the in-memory mutation always
// stands: local state is the source of truth even when storage misbehaves.
func (c *Container) Mutate(fn func(st *State)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c.st)
	return c.persistLocked()
}

// SetLastMode records the progression view last shown to the user.
func (c *Container) SetLastMode(mode model.RewardMode) error {
	return c.Mutate(func(st *State) {
		st.UI.LastMode = mode
	})
}

// Save persists the current aggregate without mutating it.
func (c *Container) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.persistLocked()
}

// Replace swaps the entire aggregate (normalized) and persists. Used by
// backup import.
func (c *Container) Replace(st *State) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	Normalize(st)
	c.st = st
	return c.persistLocked()
}

func (c *Container) persistLocked() error {
	c.st.Version = CurrentVersion
	data, err := json.Marshal(c.st)
	if err != nil {
		return fmt.Errorf("failed to serialize state: %w", err)
	}

	err = c.store.Set(store.KeyState, string(data))
	if err == nil {
		return nil
	}
	if errors.Is(err, store.ErrQuota) {
		// Recoverable: log and keep the store healthy for smaller writes.
		logger.Warn("State write hit storage quota", logger.F("bytes", len(data)))
		return err
	}
	if !c.warnedUnavailable {
		c.warnedUnavailable = true
		logger.Error("Storage unavailable, running in memory", logger.F("error", err))
	}
	return err
}
