package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/minhng/focusgarden/internal/display"
	"github.com/minhng/focusgarden/internal/ledger"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show study totals, streaks and the daily heatmap",
	RunE:  runStats,
}

var statsRange string

func init() {
	statsCmd.Flags().StringVarP(&statsRange, "range", "r", "all", "Window: today, week, month, all")
}

func runStats(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()

	sessions := a.ledger.Sessions()
	now := time.Now()

	r := ledger.Range(statsRange)
	switch r {
	case ledger.RangeToday, ledger.RangeWeek, ledger.RangeMonth, ledger.RangeAll:
	default:
		return fmt.Errorf("unknown range %q", statsRange)
	}

	totals := ledger.TotalsFor(sessions, r, now)
	streak := ledger.ComputeStreak(sessions, now)

	fmt.Println(display.Title(fmt.Sprintf("Stats (%s)", r)))
	fmt.Printf("  Sessions:     %d\n", totals.Sessions)
	fmt.Printf("  Studied:      %s\n", display.Duration(totals.TotalSec))
	fmt.Printf("  Average:      %s\n", display.Duration(totals.AverageSec))
	fmt.Printf("  Active days:  %d\n", totals.UniqueDays)
	fmt.Printf("  Streak:       %d current / %d longest\n", streak.Current, streak.Longest)

	heat := ledger.Heatmap(sessions)
	if len(heat) > 0 {
		fmt.Println(display.Title("Last 14 days"))
		for i := 13; i >= 0; i-- {
			day := now.AddDate(0, 0, -i)
			key := day.Format("2006-01-02")
			sec := heat[key]
			bar := display.Bar(int(min64(sec, 4*3600)*100/(4*3600)), 20)
			fmt.Printf("  %s %s %s\n", key, bar, display.Muted(display.Duration(sec)))
		}
	}

	perLabel := map[string]int64{}
	for _, s := range sessions {
		name := s.Label
		if name == "" {
			name = "(unlabeled)"
		}
		perLabel[name] += int64(s.DurationSec)
	}
	if len(perLabel) > 0 {
		type labelSum struct {
			name string
			sec  int64
		}
		var sums []labelSum
		for n, sec := range perLabel {
			sums = append(sums, labelSum{n, sec})
		}
		sort.Slice(sums, func(i, j int) bool { return sums[i].sec > sums[j].sec })
		fmt.Println(display.Title("By label"))
		for i, ls := range sums {
			if i >= 5 {
				break
			}
			fmt.Printf("  %-24s %s\n", ls.name, display.Duration(ls.sec))
		}
	}
	return nil
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
