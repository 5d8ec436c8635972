package label

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/minhng/focusgarden/internal/model"
	"github.com/minhng/focusgarden/internal/state"
	"github.com/minhng/focusgarden/internal/store"
)

type spyNotifier struct {
	deleted []string
	changed int
}

func (n *spyNotifier) LabelDeleted(localID string) { n.deleted = append(n.deleted, localID) }
func (n *spyNotifier) LedgerChanged()              { n.changed++ }

func newTestRegistry(t *testing.T) (*Registry, *state.Container, *spyNotifier) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	c := state.NewContainer(s)
	notify := &spyNotifier{}
	return NewRegistry(c, notify), c, notify
}

func TestCreateTrimsAndDefaults(t *testing.T) {
	r, _, notify := newTestRegistry(t)

	l, err := r.Create("  deep work  ", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if l.Name != "deep work" {
		t.Errorf("name = %q, want trimmed", l.Name)
	}
	if l.Color != "teal" {
		t.Errorf("color = %q, want teal default", l.Color)
	}
	if l.LocalID == "" || l.ID == "" {
		t.Error("label must carry ids")
	}
	if notify.changed != 1 {
		t.Errorf("expected one change notification, got %d", notify.changed)
	}
}

func TestCreateRejectsEmptyName(t *testing.T) {
	r, _, _ := newTestRegistry(t)

	if _, err := r.Create("   ", "red"); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
}

func TestCreateTruncatesLongName(t *testing.T) {
	r, _, _ := newTestRegistry(t)

	l, err := r.Create(strings.Repeat("x", 40), "blue")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(l.Name) != model.MaxLabelLen {
		t.Fatalf("name length = %d, want %d", len(l.Name), model.MaxLabelLen)
	}
}

func TestCreateTruncatesMultiByteNameOnRuneBoundary(t *testing.T) {
	r, _, _ := newTestRegistry(t)

	// 23 ASCII chars plus two Japanese chars: 25 runes, so the last rune
	// must be dropped whole rather than cut mid-sequence.
	l, err := r.Create(strings.Repeat("a", 23)+"日本", "blue")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !utf8.ValidString(l.Name) {
		t.Fatalf("truncated name is not valid UTF-8: %q", l.Name)
	}
	if got := utf8.RuneCountInString(l.Name); got != model.MaxLabelLen {
		t.Fatalf("rune count = %d, want %d", got, model.MaxLabelLen)
	}
	if !strings.HasSuffix(l.Name, "日") {
		t.Fatalf("expected the 24th rune to survive intact, got %q", l.Name)
	}
}

func TestRenameTruncatesMultiByteNameOnRuneBoundary(t *testing.T) {
	r, _, _ := newTestRegistry(t)

	l, _ := r.Create("short", "red")
	if err := r.Rename(l.LocalID, strings.Repeat("字", 30)); err != nil {
		t.Fatalf("Rename: %v", err)
	}

	labels := r.Labels()
	if !utf8.ValidString(labels[0].Name) {
		t.Fatalf("renamed label is not valid UTF-8: %q", labels[0].Name)
	}
	if got := utf8.RuneCountInString(labels[0].Name); got != model.MaxLabelLen {
		t.Fatalf("rune count = %d, want %d", got, model.MaxLabelLen)
	}
}

func TestLabelsSortFavoritesFirstThenName(t *testing.T) {
	r, _, _ := newTestRegistry(t)

	r.Create("zebra", "red")
	r.Create("alpha", "red")
	fav, _ := r.Create("writing", "red")
	r.ToggleFavorite(fav.LocalID)

	labels := r.Labels()
	got := make([]string, len(labels))
	for i, l := range labels {
		got[i] = l.Name
	}
	want := []string{"writing", "alpha", "zebra"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestDeleteByNameQueuesTombstone(t *testing.T) {
	r, _, notify := newTestRegistry(t)

	l, _ := r.Create("physics", "green")
	if err := r.Delete("PHYSICS"); err != nil {
		t.Fatalf("Delete by name (case-insensitive): %v", err)
	}

	if len(r.Labels()) != 0 {
		t.Error("label should be gone")
	}
	if len(notify.deleted) != 1 || notify.deleted[0] != l.LocalID {
		t.Fatalf("notifier should receive the local id, got %v", notify.deleted)
	}
}

func TestDeleteUnknownLabel(t *testing.T) {
	r, _, _ := newTestRegistry(t)

	if err := r.Delete("ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteKeepsSessionHistory(t *testing.T) {
	r, c, _ := newTestRegistry(t)

	r.Create("math", "red")
	c.Mutate(func(st *state.State) {
		st.Sessions = append(st.Sessions, model.Session{
			ClientID:    "s1",
			DurationSec: 600,
			Method:      model.MethodTimer,
			RewardMode:  model.ModeIsland,
			Label:       "math",
		})
	})

	if err := r.Delete("math"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	c.View(func(st *state.State) {
		if len(st.Sessions) != 1 || st.Sessions[0].Label != "math" {
			t.Fatal("session must keep its label text after the label is deleted")
		}
	})
}

func TestToggleFavorite(t *testing.T) {
	r, _, _ := newTestRegistry(t)

	l, _ := r.Create("reading", "amber")

	fav, err := r.ToggleFavorite(l.LocalID)
	if err != nil || !fav {
		t.Fatalf("first toggle = %v, %v, want true", fav, err)
	}
	fav, err = r.ToggleFavorite(l.LocalID)
	if err != nil || fav {
		t.Fatalf("second toggle = %v, %v, want false", fav, err)
	}

	if _, err := r.ToggleFavorite("ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRename(t *testing.T) {
	r, _, _ := newTestRegistry(t)

	l, _ := r.Create("old", "red")
	if err := r.Rename(l.LocalID, "  new name  "); err != nil {
		t.Fatalf("Rename: %v", err)
	}

	labels := r.Labels()
	if len(labels) != 1 || labels[0].Name != "new name" {
		t.Fatalf("rename not applied: %+v", labels)
	}

	if err := r.Rename(l.LocalID, "  "); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("blank rename should fail, got %v", err)
	}
}
