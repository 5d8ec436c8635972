package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/minhng/focusgarden/internal/display"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile with the sync server",
	Long: `Run one reconciliation pass: queued deletions are flushed, remote rows
are pulled and merged, then local state is pushed back.`,
	RunE: runSync,
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync status",
	RunE:  runSyncStatus,
}

var syncConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Configure sync settings",
	RunE:  runSyncConfig,
}

func init() {
	syncCmd.AddCommand(syncStatusCmd)
	syncCmd.AddCommand(syncConfigCmd)
	syncConfigCmd.Flags().String("server", "", "Set server URL")
}

func runSync(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()

	if !a.client.SignedIn() {
		return fmt.Errorf("not signed in; run 'focusgarden auth login' first")
	}

	fmt.Println("Synchronizing...")
	res, ran := a.rec.Reconcile(context.Background())
	if !ran {
		fmt.Println(display.Warning("a sync pass is already running"))
		return nil
	}

	for _, w := range res.Warnings {
		fmt.Println(display.Warning(w))
	}
	fmt.Println(display.Success(fmt.Sprintf("Synced (↓%d sessions, ↓%d labels, ↑%d sessions, ↑%d labels)",
		res.PulledSessions, res.PulledLabels, res.PushedSessions, res.PushedLabels)))
	return nil
}

func runSyncStatus(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()

	serverURL, userID := a.client.Status()
	fmt.Printf("Server:    %s\n", serverURL)
	if a.client.SignedIn() {
		fmt.Printf("User ID:   %s\n", userID)
		if last := a.rec.LastSyncMs(); last > 0 {
			fmt.Printf("Last sync: %s\n", time.UnixMilli(last).Format(time.RFC3339))
		} else {
			fmt.Println("Last sync: never")
		}
		lbl, sess := a.rec.PendingTombstones()
		if lbl+sess > 0 {
			fmt.Printf("Queued deletions: %d labels, %d sessions\n", lbl, sess)
		}
		fmt.Println("Status:    signed in")
	} else {
		fmt.Println("Status:    not signed in")
	}
	return nil
}

func runSyncConfig(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()

	server, _ := cmd.Flags().GetString("server")
	if server != "" {
		if err := a.client.SetServer(server); err != nil {
			return err
		}
		fmt.Println(display.Success("Server set to " + server))
		return nil
	}
	url, _ := a.client.Status()
	fmt.Printf("Server: %s\n", url)
	return nil
}
