package ledger

import (
	"sort"
	"time"

	"github.com/minhng/focusgarden/internal/model"
)

// Range selects the time window for totals.
type Range string

const (
	RangeToday Range = "today"
	RangeWeek  Range = "week"
	RangeMonth Range = "month"
	RangeAll   Range = "all"
)

// streakMinSec is the summed duration a day needs to count toward a streak.
const streakMinSec = 60

// Totals aggregates a window of the ledger.
type Totals struct {
	Sessions    int
	TotalSec    int64
	AverageSec  int64
	UniqueDays  int
}

// Streak holds current and longest run of qualifying days.
type Streak struct {
	Current int
	Longest int
}

// windowStart computes the inclusive lower bound for a range, in local
// time: today = midnight, week = Monday 00:00, month = the 1st, all = epoch.
func windowStart(r Range, now time.Time) time.Time {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch r {
	case RangeToday:
		return midnight
	case RangeWeek:
		wd := int(midnight.Weekday())
		if wd == 0 {
			wd = 7 // Sunday belongs to the week started last Monday
		}
		return midnight.AddDate(0, 0, -(wd - 1))
	case RangeMonth:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	default:
		return time.Unix(0, 0)
	}
}

// TotalsFor sums sessions whose EndTs falls inside the range. A session
// spanning midnight counts entirely toward the day it ended.
func TotalsFor(sessions []model.Session, r Range, now time.Time) Totals {
	start := windowStart(r, now).UnixMilli()

	t := Totals{}
	days := map[string]struct{}{}
	for _, s := range sessions {
		if s.EndTs < start {
			continue
		}
		t.Sessions++
		t.TotalSec += int64(s.DurationSec)
		days[dayKey(s.EndedAt())] = struct{}{}
	}
	t.UniqueDays = len(days)
	if t.Sessions > 0 {
		t.AverageSec = t.TotalSec / int64(t.Sessions)
	}
	return t
}

// UniqueDays counts distinct local calendar dates with at least one session.
func UniqueDays(sessions []model.Session) int {
	days := map[string]struct{}{}
	for _, s := range sessions {
		days[dayKey(s.EndedAt())] = struct{}{}
	}
	return len(days)
}

// Heatmap returns summed seconds per local day key (YYYY-MM-DD).
func Heatmap(sessions []model.Session) map[string]int64 {
	m := map[string]int64{}
	for _, s := range sessions {
		m[dayKey(s.EndedAt())] += int64(s.DurationSec)
	}
	return m
}

// ComputeStreak walks qualifying days (summed duration >= 60s). The current
// streak runs backward from today (a quiet today does not break yesterday's
// run); the longest streak is the longest run of consecutive dates overall.
func ComputeStreak(sessions []model.Session, now time.Time) Streak {
	perDay := map[string]int64{}
	for _, s := range sessions {
		perDay[dayKey(s.EndedAt())] += int64(s.DurationSec)
	}

	qualifies := func(d time.Time) bool {
		return perDay[dayKey(d)] >= streakMinSec
	}

	st := Streak{}

	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if !qualifies(day) {
		day = day.AddDate(0, 0, -1)
	}
	for qualifies(day) {
		st.Current++
		day = day.AddDate(0, 0, -1)
	}

	var keys []string
	for k, sec := range perDay {
		if sec >= streakMinSec {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	run := 0
	var prev time.Time
	for i, k := range keys {
		d, err := time.ParseInLocation("2006-01-02", k, now.Location())
		if err != nil {
			continue
		}
		if i > 0 && prev.AddDate(0, 0, 1).Equal(d) {
			run++
		} else {
			run = 1
		}
		if run > st.Longest {
			st.Longest = run
		}
		prev = d
	}
	return st
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
