// Package progression maps cumulative studied seconds to Island levels and
// Garden growth stages. The functions here are pure; the two counters live
// on the profile and are moved only by the ledger and the garden
// operations in this package.
package progression

import (
	"fmt"

	"github.com/minhng/focusgarden/internal/logger"
	"github.com/minhng/focusgarden/internal/model"
	"github.com/minhng/focusgarden/internal/state"
)

// LevelUnitSec is one island level worth of studied time.
const LevelUnitSec = 3600

// FruitPeriodSec is the studied time between fruit yields once mature.
const FruitPeriodSec = 3600

// Stage is one step of the garden growth chain.
type Stage struct {
	Name   string
	MinSec int64
}

// Stages is the ordered growth chain. Mature is terminal; past its
// threshold growth produces fruit instead of new stages.
var Stages = []Stage{
	{Name: "seed", MinSec: 0},
	{Name: "sprout", MinSec: 1800},
	{Name: "plant", MinSec: 7200},
	{Name: "sapling", MinSec: 18000},
	{Name: "mature", MinSec: 36000},
}

// MatureMinSec is the growth threshold of the terminal stage.
var MatureMinSec = Stages[len(Stages)-1].MinSec

// LevelInfo describes island progress at a given XP.
type LevelInfo struct {
	Level          int
	PercentInLevel int // 0-100, floored
	RemainingSec   int64
}

// Level computes island level and intra-level progress from XP seconds.
func Level(xpSec int64) LevelInfo {
	if xpSec < 0 {
		xpSec = 0
	}
	level := xpSec / LevelUnitSec
	rem := xpSec % LevelUnitSec
	return LevelInfo{
		Level:          int(level),
		PercentInLevel: int(rem * 100 / LevelUnitSec),
		RemainingSec:   LevelUnitSec - rem,
	}
}

// StageInfo describes garden progress at a given growth.
type StageInfo struct {
	Current       Stage
	Next          *Stage // nil once mature
	PercentToNext int    // 0-100, floored; 100 when mature
	SecToNext     int64  // 0 when mature
}

// TreeStage finds the highest stage whose threshold growthSec has reached.
func TreeStage(growthSec int64) StageInfo {
	if growthSec < 0 {
		growthSec = 0
	}
	idx := 0
	for i, s := range Stages {
		if growthSec >= s.MinSec {
			idx = i
		}
	}

	info := StageInfo{Current: Stages[idx], PercentToNext: 100}
	if idx+1 < len(Stages) {
		next := Stages[idx+1]
		info.Next = &next
		span := next.MinSec - Stages[idx].MinSec
		info.PercentToNext = int((growthSec - Stages[idx].MinSec) * 100 / span)
		info.SecToNext = next.MinSec - growthSec
	}
	return info
}

// FruitsReady returns the unharvested yield: zero below the mature
// threshold, otherwise one fruit per FruitPeriodSec past it, minus what was
// already harvested on this tree.
func FruitsReady(growthSec, harvestedOnTree int64) int {
	if growthSec < MatureMinSec {
		return 0
	}
	ready := (growthSec-MatureMinSec)/FruitPeriodSec - harvestedOnTree
	if ready < 0 {
		return 0
	}
	return int(ready)
}

// Service applies garden operations to the state container.
type Service struct {
	st *state.Container
}

// NewService returns a progression service over st.
func NewService(st *state.Container) *Service {
	return &Service{st: st}
}

// Harvest moves every ready fruit into the collection under the current
// tree type. A harvest with nothing ready is a no-op and does not persist.
func (s *Service) Harvest() (int, error) {
	var harvested int
	var kind model.TreeKind

	ready := 0
	s.st.View(func(st *state.State) {
		ready = FruitsReady(st.Profile.GardenGrowthSec, st.Profile.HarvestedOnTree)
	})
	if ready == 0 {
		return 0, nil
	}

	err := s.st.Mutate(func(st *state.State) {
		p := &st.Profile
		harvested = FruitsReady(p.GardenGrowthSec, p.HarvestedOnTree)
		if harvested == 0 {
			return
		}
		kind = p.TreeType
		if p.FruitCollection == nil {
			p.FruitCollection = map[model.TreeKind]int{}
		}
		p.FruitCollection[kind] += harvested
		p.HarvestedOnTree += int64(harvested)
	})
	if err != nil {
		return harvested, err
	}

	logger.Info("Harvested fruit", logger.F("kind", kind), logger.F("count", harvested))
	return harvested, nil
}

// RestartTree plants a new tree: growth and the harvested-on-tree counter
// reset to zero. The fruit collection and island XP are untouched.
func (s *Service) RestartTree(kind model.TreeKind) error {
	if !model.ValidTreeKind(kind) {
		return fmt.Errorf("unknown tree kind %q", kind)
	}
	err := s.st.Mutate(func(st *state.State) {
		st.Profile.TreeType = kind
		st.Profile.GardenGrowthSec = 0
		st.Profile.HarvestedOnTree = 0
	})
	if err != nil {
		return err
	}
	logger.Info("Tree restarted", logger.F("kind", kind))
	return nil
}
