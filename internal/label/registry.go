// Package label manages the named, colored tags attachable to sessions.
// Sessions reference labels by denormalized name only, so deleting a label
// never touches session history.
package label

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minhng/focusgarden/internal/logger"
	"github.com/minhng/focusgarden/internal/model"
	"github.com/minhng/focusgarden/internal/state"
)

// ErrEmptyName rejects blank or whitespace-only label names.
var ErrEmptyName = errors.New("label name is empty")

// ErrNotFound is returned when no label matches the given id.
var ErrNotFound = errors.New("label not found")

// DeleteNotifier receives local ids of deleted labels. The sync reconciler
// implements it with the durable tombstone queue so a pull in flight cannot
// resurrect the label.
type DeleteNotifier interface {
	LabelDeleted(localID string)
	LedgerChanged()
}

// Registry applies label operations to the state container.
type Registry struct {
	st     *state.Container
	notify DeleteNotifier
}

// NewRegistry returns a registry over st. notify may be nil.
func NewRegistry(st *state.Container, notify DeleteNotifier) *Registry {
	return &Registry{st: st, notify: notify}
}

// Create adds a label. Names are trimmed and truncated to 24 characters.
// Uniqueness is not enforced here; the remote store's (user, name)
// constraint surfaces a collision at push time.
func (r *Registry) Create(name, color string) (model.Label, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Label{}, ErrEmptyName
	}
	name = model.TruncateLabel(name)
	if color == "" {
		color = "teal"
	}

	l := model.Label{
		ID:        uuid.New().String(),
		LocalID:   uuid.New().String(),
		Name:      name,
		Color:     color,
		CreatedTs: time.Now().UnixMilli(),
	}

	err := r.st.Mutate(func(st *state.State) {
		st.Labels = append(st.Labels, l)
	})
	if err != nil {
		logger.Warn("Label created but not persisted", logger.F("error", err))
	}

	logger.Info("Label created", logger.F("name", name))
	if r.notify != nil {
		r.notify.LedgerChanged()
	}
	return l, nil
}

// Delete removes a label by id, local id or name. The label's cross-device
// id goes onto the tombstone queue; historical sessions keep their label
// text.
func (r *Registry) Delete(id string) error {
	var removed *model.Label

	_ = r.st.Mutate(func(st *state.State) {
		for i, l := range st.Labels {
			if l.ID == id || l.LocalID == id || strings.EqualFold(l.Name, id) {
				del := l
				removed = &del
				st.Labels = append(st.Labels[:i], st.Labels[i+1:]...)
				break
			}
		}
	})
	if removed == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	logger.Info("Label deleted", logger.F("name", removed.Name))
	if r.notify != nil {
		r.notify.LabelDeleted(removed.LocalID)
		r.notify.LedgerChanged()
	}
	return nil
}

// ToggleFavorite flips the favorite flag and returns the new value.
func (r *Registry) ToggleFavorite(id string) (bool, error) {
	var fav bool
	found := false
	err := r.st.Mutate(func(st *state.State) {
		for i := range st.Labels {
			l := &st.Labels[i]
			if l.ID == id || l.LocalID == id || strings.EqualFold(l.Name, id) {
				l.Favorite = !l.Favorite
				fav = l.Favorite
				found = true
				return
			}
		}
	})
	if !found {
		return false, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err == nil && r.notify != nil {
		r.notify.LedgerChanged()
	}
	return fav, nil
}

// Rename changes a label's name in place, subject to the same validation
// as Create and the same remote uniqueness caveat.
func (r *Registry) Rename(id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	name = model.TruncateLabel(name)

	found := false
	_ = r.st.Mutate(func(st *state.State) {
		for i := range st.Labels {
			l := &st.Labels[i]
			if l.ID == id || l.LocalID == id || strings.EqualFold(l.Name, id) {
				l.Name = name
				found = true
				return
			}
		}
	})
	if !found {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if r.notify != nil {
		r.notify.LedgerChanged()
	}
	return nil
}

// Labels returns a copy of all labels, favorites first, then by name.
func (r *Registry) Labels() []model.Label {
	var out []model.Label
	r.st.View(func(st *state.State) {
		out = append(out, st.Labels...)
	})
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Favorite != out[j].Favorite {
			return out[i].Favorite
		}
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}
