package backup

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/minhng/focusgarden/internal/model"
	"github.com/minhng/focusgarden/internal/state"
	"github.com/minhng/focusgarden/internal/store"
)

func newTestContainer(t *testing.T) *state.Container {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return state.NewContainer(s)
}

func TestDecodeRejectsNonObject(t *testing.T) {
	for _, data := range []string{"[]", `"hi"`, "42", "{broken"} {
		if _, err := Decode([]byte(data)); !errors.Is(err, ErrMalformed) {
			t.Errorf("Decode(%q): expected ErrMalformed, got %v", data, err)
		}
	}
}

func TestDecodeRequiresSessionsArray(t *testing.T) {
	if _, err := Decode([]byte(`{"profile":{}}`)); !errors.Is(err, ErrMalformed) {
		t.Fatalf("missing sessions: expected ErrMalformed, got %v", err)
	}
	if _, err := Decode([]byte(`{"sessions":"nope"}`)); !errors.Is(err, ErrMalformed) {
		t.Fatalf("non-array sessions: expected ErrMalformed, got %v", err)
	}
}

func TestDecodeMergesDefaults(t *testing.T) {
	st, err := Decode([]byte(`{"sessions":[]}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if st.Profile.Theme != "dusk" || st.Profile.WeeklyGoalMin != 300 {
		t.Fatalf("decoded document should merge defaults, got %+v", st.Profile)
	}
}

func TestDecodeLegacyFlattenedCounters(t *testing.T) {
	data := []byte(`{
		"sessions": [],
		"island_xp_sec": 7200,
		"garden": {"growth_sec": 5400}
	}`)
	st, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if st.Profile.IslandXPSec != 7200 {
		t.Errorf("legacy island counter not applied: %d", st.Profile.IslandXPSec)
	}
	if st.Profile.GardenGrowthSec != 5400 {
		t.Errorf("legacy garden counter not applied: %d", st.Profile.GardenGrowthSec)
	}
}

func TestDecodeNestedProfileWinsOverLegacy(t *testing.T) {
	data := []byte(`{
		"sessions": [],
		"profile": {"island_xp_sec": 100, "garden_growth_sec": 200},
		"island_xp_sec": 7200,
		"garden_growth_sec": 5400
	}`)
	st, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if st.Profile.IslandXPSec != 100 || st.Profile.GardenGrowthSec != 200 {
		t.Fatalf("nested profile must win over legacy keys, got %d/%d",
			st.Profile.IslandXPSec, st.Profile.GardenGrowthSec)
	}
}

func TestExportImportRoundtrip(t *testing.T) {
	c := newTestContainer(t)
	c.Mutate(func(st *state.State) {
		st.Profile.DisplayName = "Minh"
		st.Profile.IslandXPSec = 4800
		st.Profile.GardenGrowthSec = 4800
		st.Sessions = []model.Session{{
			ID:          "id-1",
			ClientID:    "c-1",
			DurationSec: 4800,
			Method:      model.MethodPomodoro,
			RewardMode:  model.ModeGarden,
			Label:       "thesis",
		}}
	})

	path := filepath.Join(t.TempDir(), "backup.json")
	if err := Export(c, path); err != nil {
		t.Fatalf("Export: %v", err)
	}

	dest := newTestContainer(t)
	if err := Import(dest, path); err != nil {
		t.Fatalf("Import: %v", err)
	}

	dest.View(func(st *state.State) {
		if st.Profile.DisplayName != "Minh" || st.Profile.IslandXPSec != 4800 {
			t.Errorf("profile not restored: %+v", st.Profile)
		}
		if len(st.Sessions) != 1 || st.Sessions[0].ClientID != "c-1" {
			t.Errorf("sessions not restored: %+v", st.Sessions)
		}
	})
}

func TestImportLeavesStateOnMalformedFile(t *testing.T) {
	c := newTestContainer(t)
	c.Mutate(func(st *state.State) {
		st.Profile.DisplayName = "keep me"
	})

	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("not a backup"), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := Import(c, path); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
	c.View(func(st *state.State) {
		if st.Profile.DisplayName != "keep me" {
			t.Fatal("failed import must not touch local state")
		}
	})
}
