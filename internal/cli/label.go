package cli

import (
	"fmt"

	"github.com/minhng/focusgarden/internal/display"
	"github.com/spf13/cobra"
)

var labelCmd = &cobra.Command{
	Use:   "label",
	Short: "Manage session labels",
	RunE:  runLabelList,
}

var labelAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a label",
	Args:  cobra.ExactArgs(1),
	RunE:  runLabelAdd,
}

var labelDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a label (sessions keep their label text)",
	Args:  cobra.ExactArgs(1),
	RunE:  runLabelDelete,
}

var labelFavoriteCmd = &cobra.Command{
	Use:   "favorite <name>",
	Short: "Toggle a label's favorite flag",
	Args:  cobra.ExactArgs(1),
	RunE:  runLabelFavorite,
}

var labelRenameCmd = &cobra.Command{
	Use:   "rename <name> <new-name>",
	Short: "Rename a label",
	Args:  cobra.ExactArgs(2),
	RunE:  runLabelRename,
}

var labelColor string

func init() {
	labelAddCmd.Flags().StringVarP(&labelColor, "color", "c", "teal", "Color swatch token")
	labelCmd.AddCommand(labelAddCmd)
	labelCmd.AddCommand(labelDeleteCmd)
	labelCmd.AddCommand(labelFavoriteCmd)
	labelCmd.AddCommand(labelRenameCmd)
}

func runLabelList(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()

	labels := a.labels.Labels()
	if len(labels) == 0 {
		fmt.Println(display.Muted("No labels yet. Create one with 'focusgarden label add'."))
		return nil
	}
	fmt.Println(display.Title("Labels"))
	for _, l := range labels {
		star := " "
		if l.Favorite {
			star = "★"
		}
		fmt.Printf("  %s %-24s %s\n", star, l.Name, display.Muted(l.Color))
	}
	return nil
}

func runLabelAdd(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()

	l, err := a.labels.Create(args[0], labelColor)
	if err != nil {
		return err
	}
	fmt.Println(display.Success(fmt.Sprintf("Label %q created", l.Name)))
	a.syncAfterChange()
	return nil
}

func runLabelDelete(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.labels.Delete(args[0]); err != nil {
		return err
	}
	fmt.Println(display.Success(fmt.Sprintf("Label %q deleted", args[0])))
	a.syncAfterChange()
	return nil
}

func runLabelFavorite(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()

	fav, err := a.labels.ToggleFavorite(args[0])
	if err != nil {
		return err
	}
	if fav {
		fmt.Println(display.Success(fmt.Sprintf("%q marked as favorite", args[0])))
	} else {
		fmt.Println(display.Success(fmt.Sprintf("%q unmarked", args[0])))
	}
	a.syncAfterChange()
	return nil
}

func runLabelRename(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.labels.Rename(args[0], args[1]); err != nil {
		return err
	}
	fmt.Println(display.Success(fmt.Sprintf("Label renamed to %q", args[1])))
	a.syncAfterChange()
	return nil
}
