package state

import (
	"encoding/json"
	"path/filepath"
	"reflect"
	"testing"
	"unicode/utf8"

	"github.com/minhng/focusgarden/internal/model"
	"github.com/minhng/focusgarden/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestFreshContainerHasDefaults(t *testing.T) {
	c := NewContainer(openTestStore(t))

	c.View(func(st *State) {
		if st.Profile.WeeklyGoalMin != 300 {
			t.Errorf("WeeklyGoalMin = %d, want 300", st.Profile.WeeklyGoalMin)
		}
		if st.Profile.Theme != "dusk" {
			t.Errorf("Theme = %q, want dusk", st.Profile.Theme)
		}
		if st.Profile.TreeType != model.TreeApple {
			t.Errorf("TreeType = %q, want apple", st.Profile.TreeType)
		}
		if st.UI == nil || st.UI.LastMode != model.ModeIsland {
			t.Errorf("UI.LastMode should default to island")
		}
		if st.Sessions == nil || st.Labels == nil || st.Tasks == nil {
			t.Error("collections must be non-nil")
		}
	})
}

func TestCorruptBlobFallsBackToDefaults(t *testing.T) {
	s := openTestStore(t)
	if err := s.Set(store.KeyState, "{not json"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	c := NewContainer(s)
	c.View(func(st *State) {
		if st.Profile.WeeklyGoalMin != 300 {
			t.Errorf("corrupt blob should yield defaults, got WeeklyGoalMin=%d", st.Profile.WeeklyGoalMin)
		}
	})
}

func TestMutatePersistsAcrossReload(t *testing.T) {
	s := openTestStore(t)
	c := NewContainer(s)

	err := c.Mutate(func(st *State) {
		st.Profile.DisplayName = "Minh"
		st.Profile.IslandXPSec = 4000
	})
	if err != nil {
		t.Fatalf("Mutate: %v", err)
	}

	c2 := NewContainer(s)
	c2.View(func(st *State) {
		if st.Profile.DisplayName != "Minh" {
			t.Errorf("DisplayName = %q, want Minh", st.Profile.DisplayName)
		}
		if st.Profile.IslandXPSec != 4000 {
			t.Errorf("IslandXPSec = %d, want 4000", st.Profile.IslandXPSec)
		}
	})
}

func TestNormalizeDropsInvalidSessions(t *testing.T) {
	st := &State{
		Sessions: []model.Session{
			{ClientID: "a", DurationSec: 120, Method: model.MethodTimer, RewardMode: model.ModeIsland},
			{ClientID: "b", DurationSec: 30},  // below the minute floor
			{ClientID: "", DurationSec: 600}, // no dedup key
		},
	}
	Normalize(st)

	if len(st.Sessions) != 1 || st.Sessions[0].ClientID != "a" {
		t.Fatalf("expected only session a to survive, got %+v", st.Sessions)
	}
}

func TestNormalizeFixesEnumsAndClampsCounters(t *testing.T) {
	st := &State{
		Profile: model.Profile{
			WeeklyGoalMin:   -5,
			IslandXPSec:     -100,
			GardenGrowthSec: -1,
			TreeType:        "cactus",
		},
		Sessions: []model.Session{
			{ClientID: "a", DurationSec: 90, Method: "warp", RewardMode: "void"},
		},
	}
	Normalize(st)

	if st.Profile.WeeklyGoalMin != 300 {
		t.Errorf("negative goal should fall back, got %d", st.Profile.WeeklyGoalMin)
	}
	if st.Profile.IslandXPSec != 0 || st.Profile.GardenGrowthSec != 0 {
		t.Error("negative counters should clamp to zero")
	}
	if st.Profile.TreeType != model.TreeApple {
		t.Errorf("unknown tree kind should fall back, got %q", st.Profile.TreeType)
	}
	if st.Sessions[0].Method != model.MethodManual {
		t.Errorf("unknown method should become manual, got %q", st.Sessions[0].Method)
	}
	if st.Sessions[0].RewardMode != model.ModeIsland {
		t.Errorf("unknown reward mode should become island, got %q", st.Sessions[0].RewardMode)
	}
}

func TestNormalizeTruncatesLongLabelNames(t *testing.T) {
	long := "abcdefghijklmnopqrstuvwxyz" // 26 chars
	st := &State{
		Labels:   []model.Label{{LocalID: "l1", Name: long}},
		Sessions: []model.Session{{ClientID: "a", DurationSec: 90, Label: long}},
	}
	Normalize(st)

	if len(st.Labels[0].Name) != model.MaxLabelLen {
		t.Errorf("label name not truncated: %d chars", len(st.Labels[0].Name))
	}
	if len(st.Sessions[0].Label) != model.MaxLabelLen {
		t.Errorf("session label not truncated: %d chars", len(st.Sessions[0].Label))
	}
}

func TestNormalizeTruncatesMultiByteLabelOnRuneBoundary(t *testing.T) {
	// 23 ASCII chars plus two multi-byte chars: 25 runes. Byte slicing would
	// cut the 24th rune in half; rune truncation keeps it whole.
	long := "abcdefghijklmnopqrstuvw" + "日本"
	st := &State{
		Labels:   []model.Label{{LocalID: "l1", Name: long}},
		Sessions: []model.Session{{ClientID: "a", DurationSec: 90, Label: long}},
	}
	Normalize(st)

	for _, s := range []string{st.Labels[0].Name, st.Sessions[0].Label} {
		if !utf8.ValidString(s) {
			t.Fatalf("truncation produced invalid UTF-8: %q", s)
		}
		if got := utf8.RuneCountInString(s); got != model.MaxLabelLen {
			t.Fatalf("rune count = %d, want %d", got, model.MaxLabelLen)
		}
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	st := &State{
		Profile: model.Profile{WeeklyGoalMin: -1, TreeType: "bonsai"},
		Sessions: []model.Session{
			{ClientID: "a", DurationSec: 45},
			{ClientID: "b", DurationSec: 3600, Method: model.MethodPomodoro, RewardMode: model.ModeGarden},
		},
		DefaultView: "garden",
	}
	Normalize(st)

	snap, err := json.Marshal(st)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	Normalize(st)
	again, _ := json.Marshal(st)
	if !reflect.DeepEqual(snap, again) {
		t.Fatalf("second Normalize changed state:\nfirst:  %s\nsecond: %s", snap, again)
	}
}

func TestLegacyViewMigration(t *testing.T) {
	st := &State{DefaultView: "garden"}
	Normalize(st)

	if st.UI == nil || st.UI.LastMode != model.ModeGarden {
		t.Fatal("default_view=garden should migrate into UI.LastMode")
	}
	if st.DefaultView != "" {
		t.Error("legacy flag should be cleared after migration")
	}
}

func TestLegacyViewDoesNotOverrideExistingUI(t *testing.T) {
	st := &State{
		UI:          &UIPrefs{LastMode: model.ModeIsland},
		DefaultView: "garden",
	}
	Normalize(st)

	if st.UI.LastMode != model.ModeIsland {
		t.Fatal("an existing UI section must win over the legacy flag")
	}
}

func TestSetLastModePersists(t *testing.T) {
	s := openTestStore(t)
	c := NewContainer(s)

	if err := c.SetLastMode(model.ModeGarden); err != nil {
		t.Fatalf("SetLastMode: %v", err)
	}

	c2 := NewContainer(s)
	c2.View(func(st *State) {
		if st.UI == nil || st.UI.LastMode != model.ModeGarden {
			t.Fatal("last mode should survive a reload")
		}
	})
}

func TestReplaceNormalizesAndPersists(t *testing.T) {
	s := openTestStore(t)
	c := NewContainer(s)

	incoming := &State{
		Profile:  model.Profile{IslandXPSec: 7200},
		Sessions: []model.Session{{ClientID: "x", DurationSec: 7200, Method: model.MethodTimer, RewardMode: model.ModeIsland}},
	}
	if err := c.Replace(incoming); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	c2 := NewContainer(s)
	c2.View(func(st *State) {
		if len(st.Sessions) != 1 || st.Profile.IslandXPSec != 7200 {
			t.Errorf("replaced state not persisted: %+v", st.Profile)
		}
		if st.Profile.Theme != "dusk" {
			t.Errorf("Replace should merge defaults, Theme=%q", st.Profile.Theme)
		}
	})
}
