package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/minhng/focusgarden/internal/display"
	"github.com/minhng/focusgarden/internal/ledger"
	"github.com/minhng/focusgarden/internal/model"
	"github.com/spf13/cobra"
)

var recordCmd = &cobra.Command{
	Use:   "record <minutes>",
	Short: "Record a completed study session",
	Long: `Record a completed study session.

Examples:
  focusgarden record 25
  focusgarden record 50 --label Maths --method pomodoro
  focusgarden record 90 --mode garden --at 2025-08-30T14:00`,
	Args: cobra.ExactArgs(1),
	RunE: runRecord,
}

var (
	recordLabel  string
	recordMethod string
	recordMode   string
	recordAt     string
)

func init() {
	recordCmd.Flags().StringVarP(&recordLabel, "label", "l", "", "Label for this session")
	recordCmd.Flags().StringVarP(&recordMethod, "method", "m", "manual", "Timing method (stopwatch, pomodoro, timer, manual)")
	recordCmd.Flags().StringVar(&recordMode, "mode", "island", "Progression view attributed (island, garden)")
	recordCmd.Flags().StringVar(&recordAt, "at", "", "Session end time (RFC3339 or 2006-01-02T15:04), default now")
}

func runRecord(cmd *cobra.Command, args []string) error {
	var minutes int
	if _, err := fmt.Sscanf(args[0], "%d", &minutes); err != nil || minutes <= 0 {
		return fmt.Errorf("invalid minutes: %q", args[0])
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()

	lbl := recordLabel
	if lbl == "" {
		lbl = a.cfg.DefaultLabel
	}

	var endedAt time.Time
	if recordAt != "" {
		endedAt, err = parseWhen(recordAt)
		if err != nil {
			return err
		}
	}

	sess, err := a.ledger.Record(ledger.RecordParams{
		DurationSec: minutes * 60,
		Method:      model.Method(recordMethod),
		RewardMode:  model.RewardMode(recordMode),
		Label:       lbl,
		EndedAt:     endedAt,
	})
	if errors.Is(err, ledger.ErrTooShort) {
		fmt.Println(display.Warning("sessions under a minute are not recorded"))
		return nil
	}
	if err != nil {
		return err
	}

	msg := fmt.Sprintf("Recorded %s", display.Duration(int64(sess.DurationSec)))
	if sess.Label != "" {
		msg += fmt.Sprintf(" [%s]", sess.Label)
	}
	fmt.Println(display.Success(msg))

	a.syncAfterChange()
	return nil
}

func parseWhen(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02 15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}
