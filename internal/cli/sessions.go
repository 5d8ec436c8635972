package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/minhng/focusgarden/internal/display"
	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List and manage recorded sessions",
	RunE:  runSessionsList,
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a session and roll back its progression",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsDelete,
}

var sessionsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all sessions and zero all progression counters",
	RunE:  runSessionsReset,
}

var sessionsLimit int

func init() {
	sessionsCmd.Flags().IntVarP(&sessionsLimit, "limit", "n", 20, "Show at most this many sessions")
	sessionsCmd.AddCommand(sessionsDeleteCmd)
	sessionsCmd.AddCommand(sessionsResetCmd)
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()

	sessions := a.ledger.Sessions()
	if len(sessions) == 0 {
		fmt.Println(display.Muted("No sessions recorded yet."))
		return nil
	}

	fmt.Println(display.Title("Sessions"))
	for i, s := range sessions {
		if i >= sessionsLimit {
			fmt.Println(display.Muted(fmt.Sprintf("… and %d more", len(sessions)-i)))
			break
		}
		line := fmt.Sprintf("%s  %-8s %-9s %s",
			s.EndedAt().Format("2006-01-02 15:04"),
			display.Duration(int64(s.DurationSec)),
			s.Method,
			s.Label)
		fmt.Printf("%s  %s\n", line, display.Muted(shortID(s.ClientID)))
	}
	return nil
}

func runSessionsDelete(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()

	id := resolveSessionID(a, args[0])
	if !a.ledger.Delete(id) {
		fmt.Println(display.Error("no session matches " + args[0]))
		return nil
	}
	fmt.Println(display.Success("Session deleted, progression rolled back"))
	a.syncAfterChange()
	return nil
}

func runSessionsReset(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()

	if a.cfg.ConfirmDelete && !confirm("Delete ALL sessions and reset progression?") {
		fmt.Println("Cancelled.")
		return nil
	}

	// Every session needs a tombstone so remote copies cannot resurrect.
	for _, s := range a.ledger.Sessions() {
		a.auto.SessionDeleted(s.ClientID)
	}
	if err := a.ledger.Reset(); err != nil {
		return err
	}
	fmt.Println(display.Success("All sessions deleted, progression reset"))
	a.syncAfterChange()
	return nil
}

// resolveSessionID expands a short id prefix to the full client id when
// unambiguous.
func resolveSessionID(a *app, id string) string {
	var match string
	count := 0
	for _, s := range a.ledger.Sessions() {
		if strings.HasPrefix(s.ClientID, id) || strings.HasPrefix(s.ID, id) {
			match = s.ClientID
			count++
		}
	}
	if count == 1 {
		return match
	}
	return id
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(strings.ToLower(line))
	return line == "y" || line == "yes"
}
