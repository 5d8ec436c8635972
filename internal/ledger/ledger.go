// Package ledger owns the append-only (soft-delete by removal) collection
// of study sessions and the aggregations derived from it. Recording a
// session moves both progression counters in lockstep; deleting one rolls
// them back, clamped at zero.
package ledger

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/minhng/focusgarden/internal/logger"
	"github.com/minhng/focusgarden/internal/model"
	"github.com/minhng/focusgarden/internal/state"
)

// ErrTooShort rejects sessions under the one-minute floor.
var ErrTooShort = errors.New("session shorter than one minute")

// DeleteNotifier receives ids of sessions whose remote rows must go. The
// sync reconciler implements it with a durable tombstone queue.
type DeleteNotifier interface {
	SessionDeleted(clientID string)
	LedgerChanged()
}

// Service applies ledger operations to the state container.
type Service struct {
	st     *state.Container
	notify DeleteNotifier
	now    func() time.Time
}

// NewService returns a ledger service over st. notify may be nil when no
// remote identity exists.
func NewService(st *state.Container, notify DeleteNotifier) *Service {
	return &Service{st: st, notify: notify, now: time.Now}
}

// RecordParams describes a session to record. StartedAt/EndedAt are
// optional; when zero the interval is derived backwards from now.
type RecordParams struct {
	DurationSec int
	Method      model.Method
	RewardMode  model.RewardMode
	Label       string
	StartedAt   time.Time
	EndedAt     time.Time
}

// Record validates and appends a session, incrementing both progression
// counters by its duration. Sub-minute durations are rejected and nothing
// is stored.
func (s *Service) Record(p RecordParams) (model.Session, error) {
	if p.DurationSec < model.MinSessionSec {
		return model.Session{}, fmt.Errorf("%w: %ds", ErrTooShort, p.DurationSec)
	}
	if !model.ValidMethod(p.Method) {
		p.Method = model.MethodManual
	}
	if !model.ValidRewardMode(p.RewardMode) {
		p.RewardMode = model.ModeIsland
	}
	p.Label = model.TruncateLabel(p.Label)

	end := p.EndedAt
	if end.IsZero() {
		end = s.now()
	}
	start := p.StartedAt
	if start.IsZero() {
		start = end.Add(-time.Duration(p.DurationSec) * time.Second)
	}

	sess := model.Session{
		ID:          uuid.New().String(),
		ClientID:    uuid.New().String(),
		StartTs:     start.UnixMilli(),
		EndTs:       end.UnixMilli(),
		DurationSec: p.DurationSec,
		Method:      p.Method,
		RewardMode:  p.RewardMode,
		Label:       p.Label,
	}

	err := s.st.Mutate(func(st *state.State) {
		// Most-recent-first is a display convenience, not a correctness
		// requirement.
		st.Sessions = append([]model.Session{sess}, st.Sessions...)
		st.Profile.IslandXPSec += int64(sess.DurationSec)
		st.Profile.GardenGrowthSec += int64(sess.DurationSec)
	})
	if err != nil {
		logger.Warn("Session recorded but not persisted", logger.F("error", err))
	}

	logger.Info("Session recorded",
		logger.F("clientId", sess.ClientID),
		logger.F("durationSec", sess.DurationSec),
		logger.F("label", sess.Label))

	if s.notify != nil {
		s.notify.LedgerChanged()
	}
	return sess, nil
}

// Delete removes a session by id or client id. When found, both counters
// roll back by its duration (never below zero) and the deletion is handed
// to the sync layer.
func (s *Service) Delete(id string) bool {
	var removed *model.Session

	_ = s.st.Mutate(func(st *state.State) {
		for i, sess := range st.Sessions {
			if sess.ID == id || sess.ClientID == id {
				r := sess
				removed = &r
				st.Sessions = append(st.Sessions[:i], st.Sessions[i+1:]...)
				break
			}
		}
		if removed == nil {
			return
		}
		d := int64(removed.DurationSec)
		st.Profile.IslandXPSec = clampSub(st.Profile.IslandXPSec, d)
		st.Profile.GardenGrowthSec = clampSub(st.Profile.GardenGrowthSec, d)
	})

	if removed == nil {
		return false
	}

	logger.Info("Session deleted",
		logger.F("clientId", removed.ClientID),
		logger.F("durationSec", removed.DurationSec))

	if s.notify != nil {
		s.notify.SessionDeleted(removed.ClientID)
		s.notify.LedgerChanged()
	}
	return true
}

// Reset clears the ledger and zeroes both counters, the harvested-on-tree
// counter and the fruit collection. Full stats wipe; the planted tree kind
// survives.
func (s *Service) Reset() error {
	err := s.st.Mutate(func(st *state.State) {
		st.Sessions = []model.Session{}
		st.Profile.IslandXPSec = 0
		st.Profile.GardenGrowthSec = 0
		st.Profile.HarvestedOnTree = 0
		for k := range st.Profile.FruitCollection {
			st.Profile.FruitCollection[k] = 0
		}
	})
	if err != nil {
		return err
	}
	logger.Info("Ledger reset")
	if s.notify != nil {
		s.notify.LedgerChanged()
	}
	return nil
}

// RecomputeIsland folds the ledger back into the island counter. Used to
// check the stored counter for drift; the stored value stays authoritative.
func (s *Service) RecomputeIsland() int64 {
	var sum int64
	s.st.View(func(st *state.State) {
		for _, sess := range st.Sessions {
			sum += int64(sess.DurationSec)
		}
	})
	return sum
}

// Sessions returns a copy of the ledger, most recent first.
func (s *Service) Sessions() []model.Session {
	var out []model.Session
	s.st.View(func(st *state.State) {
		out = append(out, st.Sessions...)
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].EndTs > out[j].EndTs })
	return out
}

func clampSub(v, d int64) int64 {
	v -= d
	if v < 0 {
		return 0
	}
	return v
}
