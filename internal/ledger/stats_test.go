package ledger

import (
	"testing"
	"time"

	"github.com/minhng/focusgarden/internal/model"
)

func sessionEndingAt(end time.Time, durationSec int) model.Session {
	return model.Session{
		ClientID:    end.Format(time.RFC3339Nano),
		StartTs:     end.Add(-time.Duration(durationSec) * time.Second).UnixMilli(),
		EndTs:       end.UnixMilli(),
		DurationSec: durationSec,
		Method:      model.MethodTimer,
		RewardMode:  model.ModeIsland,
	}
}

func TestWindowStart(t *testing.T) {
	// A Wednesday afternoon.
	now := time.Date(2026, 3, 11, 15, 30, 0, 0, time.Local)

	if got := windowStart(RangeToday, now); got != time.Date(2026, 3, 11, 0, 0, 0, 0, time.Local) {
		t.Errorf("today window = %v", got)
	}
	if got := windowStart(RangeWeek, now); got != time.Date(2026, 3, 9, 0, 0, 0, 0, time.Local) {
		t.Errorf("week window should start Monday, got %v", got)
	}
	if got := windowStart(RangeMonth, now); got != time.Date(2026, 3, 1, 0, 0, 0, 0, time.Local) {
		t.Errorf("month window = %v", got)
	}
}

func TestWindowStartSundayBelongsToLastMonday(t *testing.T) {
	sunday := time.Date(2026, 3, 15, 10, 0, 0, 0, time.Local)
	want := time.Date(2026, 3, 9, 0, 0, 0, 0, time.Local)
	if got := windowStart(RangeWeek, sunday); got != want {
		t.Fatalf("week window for Sunday = %v, want %v", got, want)
	}
}

func TestTotalsForWindowsOnEndTime(t *testing.T) {
	now := time.Date(2026, 3, 11, 20, 0, 0, 0, time.Local)
	sessions := []model.Session{
		sessionEndingAt(now.Add(-1*time.Hour), 1800),           // today
		sessionEndingAt(now.Add(-2*time.Hour), 600),            // today
		sessionEndingAt(now.AddDate(0, 0, -1), 3600),           // yesterday
		sessionEndingAt(now.AddDate(0, 0, -20), 3600),          // last month window
	}

	today := TotalsFor(sessions, RangeToday, now)
	if today.Sessions != 2 || today.TotalSec != 2400 {
		t.Errorf("today totals = %+v", today)
	}
	if today.AverageSec != 1200 {
		t.Errorf("average = %d, want 1200", today.AverageSec)
	}
	if today.UniqueDays != 1 {
		t.Errorf("unique days today = %d", today.UniqueDays)
	}

	all := TotalsFor(sessions, RangeAll, now)
	if all.Sessions != 4 || all.TotalSec != 9600 {
		t.Errorf("all totals = %+v", all)
	}
}

func TestSessionSpanningMidnightCountsForEndDay(t *testing.T) {
	now := time.Date(2026, 3, 11, 9, 0, 0, 0, time.Local)
	// Started 23:30 yesterday, ended 00:30 today.
	end := time.Date(2026, 3, 11, 0, 30, 0, 0, time.Local)
	sessions := []model.Session{sessionEndingAt(end, 3600)}

	today := TotalsFor(sessions, RangeToday, now)
	if today.Sessions != 1 {
		t.Fatal("midnight-spanning session should count toward the day it ended")
	}
}

func TestHeatmapBucketsPerDay(t *testing.T) {
	d1 := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	d2 := time.Date(2026, 3, 11, 9, 0, 0, 0, time.Local)
	sessions := []model.Session{
		sessionEndingAt(d1, 600),
		sessionEndingAt(d1.Add(time.Hour), 900),
		sessionEndingAt(d2, 1200),
	}

	m := Heatmap(sessions)
	if m["2026-03-10"] != 1500 {
		t.Errorf("day 1 sum = %d, want 1500", m["2026-03-10"])
	}
	if m["2026-03-11"] != 1200 {
		t.Errorf("day 2 sum = %d, want 1200", m["2026-03-11"])
	}
}

func TestStreakConsecutiveDays(t *testing.T) {
	now := time.Date(2026, 3, 11, 20, 0, 0, 0, time.Local)
	sessions := []model.Session{
		sessionEndingAt(now.Add(-time.Hour), 300),
		sessionEndingAt(now.AddDate(0, 0, -1), 300),
		sessionEndingAt(now.AddDate(0, 0, -2), 300),
	}

	st := ComputeStreak(sessions, now)
	if st.Current != 3 {
		t.Errorf("current streak = %d, want 3", st.Current)
	}
	if st.Longest != 3 {
		t.Errorf("longest streak = %d, want 3", st.Longest)
	}
}

func TestStreakSurvivesQuietToday(t *testing.T) {
	now := time.Date(2026, 3, 11, 8, 0, 0, 0, time.Local)
	sessions := []model.Session{
		sessionEndingAt(now.AddDate(0, 0, -1), 300),
		sessionEndingAt(now.AddDate(0, 0, -2), 300),
	}

	st := ComputeStreak(sessions, now)
	if st.Current != 2 {
		t.Fatalf("a quiet today must not break yesterday's run, got %d", st.Current)
	}
}

func TestStreakBrokenByGap(t *testing.T) {
	now := time.Date(2026, 3, 11, 20, 0, 0, 0, time.Local)
	sessions := []model.Session{
		sessionEndingAt(now.Add(-time.Hour), 300),
		// Gap on the 10th.
		sessionEndingAt(now.AddDate(0, 0, -2), 300),
		sessionEndingAt(now.AddDate(0, 0, -3), 300),
		sessionEndingAt(now.AddDate(0, 0, -4), 300),
	}

	st := ComputeStreak(sessions, now)
	if st.Current != 1 {
		t.Errorf("current streak = %d, want 1", st.Current)
	}
	if st.Longest != 3 {
		t.Errorf("longest streak = %d, want 3", st.Longest)
	}
}

func TestStreakIgnoresSubMinuteDays(t *testing.T) {
	now := time.Date(2026, 3, 11, 20, 0, 0, 0, time.Local)
	sessions := []model.Session{
		sessionEndingAt(now.Add(-time.Hour), 30),
	}

	st := ComputeStreak(sessions, now)
	if st.Current != 0 {
		t.Fatalf("a day under a minute should not qualify, got %d", st.Current)
	}
}

func TestUniqueDays(t *testing.T) {
	d := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	sessions := []model.Session{
		sessionEndingAt(d, 600),
		sessionEndingAt(d.Add(3*time.Hour), 600),
		sessionEndingAt(d.AddDate(0, 0, 5), 600),
	}
	if got := UniqueDays(sessions); got != 2 {
		t.Fatalf("UniqueDays = %d, want 2", got)
	}
}
