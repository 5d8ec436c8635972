// Package syncer reconciles the local state container with the remote row
// store: pull, merge, push, with durable tombstones for deletions and a
// one-shot force-push mode after a full import.
package syncer

import "context"

// ProfileRow mirrors the profile + progression fragment of local state as
// stored remotely. One row per user; last writer wins across devices.
type ProfileRow struct {
	DisplayName     string         `json:"display_name"`
	WeeklyGoalMin   int            `json:"weekly_goal_min"`
	Theme           string         `json:"theme"`
	StopwatchCapMin int            `json:"stopwatch_cap_min"`
	AmbientSound    string         `json:"ambient_sound"`
	IslandXPSec     int64          `json:"island_xp_sec"`
	GardenGrowthSec int64          `json:"garden_growth_sec"`
	TreeType        string         `json:"tree_type"`
	HarvestedOnTree int64          `json:"harvested_on_tree"`
	FruitCollection map[string]int `json:"fruit_collection"`
	UpdatedMs       int64          `json:"updated_ms"`
}

// LabelRow is a remote label keyed by (user, LocalID).
type LabelRow struct {
	LocalID   string `json:"local_id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	Favorite  bool   `json:"favorite"`
	CreatedMs int64  `json:"created_ms"`
	UpdatedMs int64  `json:"updated_ms"`
}

// SessionRow is a remote study session keyed by (user, ClientID).
type SessionRow struct {
	ClientID    string `json:"client_id"`
	StartedMs   int64  `json:"started_ms"`
	EndedMs     int64  `json:"ended_ms"`
	DurationSec int    `json:"duration_sec"`
	Label       string `json:"label"`
	Method      string `json:"method"`
	RewardMode  string `json:"reward_mode"`
	UpdatedMs   int64  `json:"updated_ms"`
}

// RemoteStore is the opaque row store consumed by the reconciler. The HTTP
// client implements it against the sync server; tests substitute an
// in-memory fake.
type RemoteStore interface {
	FetchProfile(ctx context.Context) (*ProfileRow, error) // nil when no row exists yet
	FetchLabels(ctx context.Context) ([]LabelRow, error)
	FetchSessions(ctx context.Context) ([]SessionRow, error)

	UpsertProfile(ctx context.Context, row ProfileRow) error
	UpsertLabels(ctx context.Context, rows []LabelRow) error
	UpsertSessions(ctx context.Context, rows []SessionRow) error

	DeleteLabels(ctx context.Context, localIDs []string) error
	DeleteSessions(ctx context.Context, clientIDs []string) error
}
