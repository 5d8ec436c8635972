package state

import "github.com/minhng/focusgarden/internal/model"

// Defaults returns a fresh default aggregate.
func Defaults() *State {
	return &State{
		Version: CurrentVersion,
		Profile: model.Profile{
			DisplayName:     "",
			WeeklyGoalMin:   300,
			Theme:           "dusk",
			StopwatchCapMin: 120,
			AmbientSound:    "none",
			TreeType:        model.TreeApple,
			FruitCollection: emptyCollection(),
		},
		Sessions: []model.Session{},
		Labels:   []model.Label{},
		Tasks:    []Task{},
		UI:       &UIPrefs{LastMode: model.ModeIsland},
	}
}

func emptyCollection() map[model.TreeKind]int {
	m := make(map[model.TreeKind]int, len(model.TreeKinds))
	for _, k := range model.TreeKinds {
		m[k] = 0
	}
	return m
}

// Normalize union-merges st with defaults in place: present values are
// kept, absent or malformed sections fall back, numeric and enum fields are
// clamped individually. Normalize(Normalize(x)) == Normalize(x).
func Normalize(st *State) {
	def := Defaults()

	if st.Version <= 0 {
		st.Version = CurrentVersion
	}

	p := &st.Profile
	if p.WeeklyGoalMin < 0 {
		p.WeeklyGoalMin = def.Profile.WeeklyGoalMin
	}
	if p.Theme == "" {
		p.Theme = def.Profile.Theme
	}
	if p.StopwatchCapMin <= 0 {
		p.StopwatchCapMin = def.Profile.StopwatchCapMin
	}
	if p.AmbientSound == "" {
		p.AmbientSound = def.Profile.AmbientSound
	}
	if p.IslandXPSec < 0 {
		p.IslandXPSec = 0
	}
	if p.GardenGrowthSec < 0 {
		p.GardenGrowthSec = 0
	}
	if p.HarvestedOnTree < 0 {
		p.HarvestedOnTree = 0
	}
	if !model.ValidTreeKind(p.TreeType) {
		p.TreeType = def.Profile.TreeType
	}
	if p.FruitCollection == nil {
		p.FruitCollection = emptyCollection()
	} else {
		for _, k := range model.TreeKinds {
			if p.FruitCollection[k] < 0 {
				p.FruitCollection[k] = 0
			}
		}
		for k := range p.FruitCollection {
			if !model.ValidTreeKind(k) {
				delete(p.FruitCollection, k)
			}
		}
	}

	// Drop sessions that could never have been stored; fix enums.
	sessions := st.Sessions[:0]
	for _, s := range st.Sessions {
		if s.DurationSec < model.MinSessionSec || s.ClientID == "" {
			continue
		}
		if !model.ValidMethod(s.Method) {
			s.Method = model.MethodManual
		}
		if !model.ValidRewardMode(s.RewardMode) {
			s.RewardMode = model.ModeIsland
		}
		s.Label = model.TruncateLabel(s.Label)
		sessions = append(sessions, s)
	}
	st.Sessions = sessions
	if st.Sessions == nil {
		st.Sessions = []model.Session{}
	}

	labels := st.Labels[:0]
	for _, l := range st.Labels {
		if l.Name == "" || l.LocalID == "" {
			continue
		}
		l.Name = model.TruncateLabel(l.Name)
		labels = append(labels, l)
	}
	st.Labels = labels
	if st.Labels == nil {
		st.Labels = []model.Label{}
	}

	if st.Tasks == nil {
		st.Tasks = []Task{}
	}

	// One-time migration of the legacy view flag: only when the UI section
	// is entirely absent. Its presence means migration already happened or
	// the user chose explicitly; never overwrite that.
	if st.UI == nil {
		mode := def.UI.LastMode
		if st.DefaultView == string(model.ModeGarden) {
			mode = model.ModeGarden
		}
		st.UI = &UIPrefs{LastMode: mode}
	} else if !model.ValidRewardMode(st.UI.LastMode) {
		st.UI.LastMode = def.UI.LastMode
	}
	st.DefaultView = ""
}
