package cli

import (
	"fmt"

	"github.com/minhng/focusgarden/internal/display"
	"github.com/minhng/focusgarden/internal/state"
	"github.com/spf13/cobra"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or update profile settings",
	RunE:  runProfile,
}

var (
	profileName  string
	profileGoal  int
	profileTheme string
	profileCap   int
	profileSound string
)

func init() {
	profileCmd.Flags().StringVar(&profileName, "name", "", "Display name")
	profileCmd.Flags().IntVar(&profileGoal, "goal", 0, "Weekly goal in minutes")
	profileCmd.Flags().StringVar(&profileTheme, "theme", "", "Theme name")
	profileCmd.Flags().IntVar(&profileCap, "stopwatch-cap", 0, "Stopwatch cap in minutes")
	profileCmd.Flags().StringVar(&profileSound, "sound", "", "Ambient sound preference")
}

func runProfile(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()

	changed := false
	err = a.state.Mutate(func(st *state.State) {
		p := &st.Profile
		if cmd.Flags().Changed("name") {
			p.DisplayName = profileName
			changed = true
		}
		if cmd.Flags().Changed("goal") && profileGoal >= 0 {
			p.WeeklyGoalMin = profileGoal
			changed = true
		}
		if cmd.Flags().Changed("theme") {
			p.Theme = profileTheme
			changed = true
		}
		if cmd.Flags().Changed("stopwatch-cap") && profileCap > 0 {
			p.StopwatchCapMin = profileCap
			changed = true
		}
		if cmd.Flags().Changed("sound") {
			p.AmbientSound = profileSound
			changed = true
		}
	})
	if err != nil {
		fmt.Println(display.Warning("profile change not persisted"))
	}

	a.state.View(func(st *state.State) {
		p := st.Profile
		fmt.Println(display.Title("Profile"))
		fmt.Printf("  Name:          %s\n", p.DisplayName)
		fmt.Printf("  Weekly goal:   %d min\n", p.WeeklyGoalMin)
		fmt.Printf("  Theme:         %s\n", p.Theme)
		fmt.Printf("  Stopwatch cap: %d min\n", p.StopwatchCapMin)
		fmt.Printf("  Ambient sound: %s\n", p.AmbientSound)
	})

	if changed {
		a.syncAfterChange()
	}
	return nil
}
