package cli

import (
	"fmt"

	"github.com/minhng/focusgarden/internal/display"
	"github.com/minhng/focusgarden/internal/model"
	"github.com/minhng/focusgarden/internal/progression"
	"github.com/minhng/focusgarden/internal/state"
	"github.com/spf13/cobra"
)

var gardenCmd = &cobra.Command{
	Use:   "garden",
	Short: "Show garden growth, harvest fruit, or plant a new tree",
	RunE:  runGardenStatus,
}

var gardenHarvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Collect every ripe fruit into the collection",
	RunE:  runGardenHarvest,
}

var gardenRestartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Plant a new tree (growth starts over; the collection is kept)",
	RunE:  runGardenRestart,
}

var restartTree string

func init() {
	gardenRestartCmd.Flags().StringVarP(&restartTree, "tree", "t", "", "Tree kind (apple, orange, cherry, peach, plum)")
	_ = gardenRestartCmd.MarkFlagRequired("tree")
	gardenCmd.AddCommand(gardenHarvestCmd)
	gardenCmd.AddCommand(gardenRestartCmd)
}

func runGardenStatus(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()

	var growth, harvested int64
	var tree model.TreeKind
	var collection map[model.TreeKind]int
	a.state.View(func(st *state.State) {
		growth = st.Profile.GardenGrowthSec
		harvested = st.Profile.HarvestedOnTree
		tree = st.Profile.TreeType
		collection = make(map[model.TreeKind]int, len(st.Profile.FruitCollection))
		for k, v := range st.Profile.FruitCollection {
			collection[k] = v
		}
	})
	_ = a.state.SetLastMode(model.ModeGarden)

	info := progression.TreeStage(growth)
	ready := progression.FruitsReady(growth, harvested)

	fmt.Println(display.Title(fmt.Sprintf("Garden (%s tree)", tree)))
	fmt.Printf("  Stage: %s\n", info.Current.Name)
	if info.Next != nil {
		fmt.Printf("  %s %d%% to %s (%s)\n",
			display.Bar(info.PercentToNext, 20), info.PercentToNext,
			info.Next.Name, display.Duration(info.SecToNext))
	} else {
		fmt.Printf("  %s mature\n", display.Bar(100, 20))
	}
	if ready > 0 {
		fmt.Println(display.Success(fmt.Sprintf("%d fruit ready to harvest", ready)))
	}

	fmt.Println(display.Title("Collection"))
	for _, k := range model.TreeKinds {
		fmt.Printf("  %-8s %d\n", k, collection[k])
	}
	return nil
}

func runGardenHarvest(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()

	n, err := a.garden.Harvest()
	if err != nil {
		return err
	}
	if n == 0 {
		fmt.Println(display.Muted("Nothing ripe yet."))
		return nil
	}
	fmt.Println(display.Success(fmt.Sprintf("Harvested %d fruit", n)))
	a.syncAfterChange()
	return nil
}

func runGardenRestart(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()

	kind := model.TreeKind(restartTree)
	if a.cfg.ConfirmDelete && !confirm(fmt.Sprintf("Plant a new %s tree? Current growth is lost", kind)) {
		fmt.Println("Cancelled.")
		return nil
	}
	if err := a.garden.RestartTree(kind); err != nil {
		return err
	}
	fmt.Println(display.Success(fmt.Sprintf("Planted a new %s tree", kind)))
	a.syncAfterChange()
	return nil
}
