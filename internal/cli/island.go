package cli

import (
	"fmt"

	"github.com/minhng/focusgarden/internal/display"
	"github.com/minhng/focusgarden/internal/model"
	"github.com/minhng/focusgarden/internal/progression"
	"github.com/minhng/focusgarden/internal/state"
	"github.com/spf13/cobra"
)

var islandCmd = &cobra.Command{
	Use:   "island",
	Short: "Show island level and progress",
	RunE:  runIsland,
}

func runIsland(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()

	var xp int64
	a.state.View(func(st *state.State) {
		xp = st.Profile.IslandXPSec
	})
	_ = a.state.SetLastMode(model.ModeIsland)

	info := progression.Level(xp)
	fmt.Println(display.Title("Island"))
	fmt.Printf("  Level %d\n", info.Level)
	fmt.Printf("  %s %d%%\n", display.Bar(info.PercentInLevel, 20), info.PercentInLevel)
	fmt.Printf("  %s to next level\n", display.Duration(info.RemainingSec))
	fmt.Printf("  Total studied: %s\n", display.Duration(xp))
	return nil
}
