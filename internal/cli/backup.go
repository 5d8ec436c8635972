package cli

import (
	"errors"
	"fmt"

	"github.com/minhng/focusgarden/internal/backup"
	"github.com/minhng/focusgarden/internal/display"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write a full-state backup file",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Restore a backup, replacing local state",
	Long: `Restore a backup file, replacing local state wholesale.

The next sync pushes the imported data as-is instead of pulling first, so
stale remote rows cannot overwrite the restore.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func runExport(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()

	if err := backup.Export(a.state, args[0]); err != nil {
		return err
	}
	fmt.Println(display.Success("Exported to " + args[0]))
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()

	if a.cfg.ConfirmDelete && !confirm("Importing replaces ALL local data. Continue?") {
		fmt.Println("Cancelled.")
		return nil
	}

	if err := backup.Import(a.state, args[0]); err != nil {
		if errors.Is(err, backup.ErrMalformed) {
			fmt.Println(display.Error("not a valid backup file, local state untouched"))
			return nil
		}
		return err
	}

	// Local truth now; skip the next pull and schedule the push so the
	// end-of-command flush has something to fire.
	a.rec.ForcePushOnce()
	a.auto.Trigger()
	fmt.Println(display.Success("Imported " + args[0]))
	a.syncAfterChange()
	return nil
}
