package model

// TreeKind is the fruit tree planted in the garden.
type TreeKind string

const (
	TreeApple  TreeKind = "apple"
	TreeOrange TreeKind = "orange"
	TreeCherry TreeKind = "cherry"
	TreePeach  TreeKind = "peach"
	TreePlum   TreeKind = "plum"
)

// TreeKinds lists every plantable kind in display order.
var TreeKinds = []TreeKind{TreeApple, TreeOrange, TreeCherry, TreePeach, TreePlum}

// ValidTreeKind reports whether k names a known tree.
func ValidTreeKind(k TreeKind) bool {
	for _, t := range TreeKinds {
		if t == k {
			return true
		}
	}
	return false
}

// Profile holds user settings plus the progression counters that ride along
// in the remote profile row. Both counters are incremented by session saves
// and decremented (clamped at zero) by session deletes.
type Profile struct {
	DisplayName     string `json:"display_name"`
	WeeklyGoalMin   int    `json:"weekly_goal_min"`
	Theme           string `json:"theme"`
	StopwatchCapMin int    `json:"stopwatch_cap_min"`
	AmbientSound    string `json:"ambient_sound"`

	IslandXPSec     int64            `json:"island_xp_sec"`
	GardenGrowthSec int64            `json:"garden_growth_sec"`
	TreeType        TreeKind         `json:"tree_type"`
	HarvestedOnTree int64            `json:"harvested_on_tree"`
	FruitCollection map[TreeKind]int `json:"fruit_collection"`

	UpdatedMs int64 `json:"updated_ms"`
}
