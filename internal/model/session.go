package model

import (
	"time"
	"unicode/utf8"
)

// Method describes how a session was timed.
type Method string

const (
	MethodStopwatch Method = "stopwatch"
	MethodPomodoro  Method = "pomodoro"
	MethodTimer     Method = "timer"
	MethodManual    Method = "manual"
)

// RewardMode is the progression view a session was attributed to at save
// time. Cosmetic only: progression is always applied to both views.
type RewardMode string

const (
	ModeIsland RewardMode = "island"
	ModeGarden RewardMode = "garden"
)

// MinSessionSec is the shortest duration the ledger will store.
const MinSessionSec = 60

// MaxLabelLen caps label names (and the denormalized copy on sessions).
const MaxLabelLen = 24

// TruncateLabel caps s at MaxLabelLen characters. Truncation is by rune, not
// byte, so a multi-byte name is never cut mid-sequence into invalid UTF-8.
func TruncateLabel(s string) string {
	if utf8.RuneCountInString(s) <= MaxLabelLen {
		return s
	}
	return string([]rune(s)[:MaxLabelLen])
}

// Session is one completed study interval. Sessions are never mutated in
// place; they are created by the ledger and removed only by explicit
// deletion. ClientID is the cross-device dedup key.
type Session struct {
	ID          string     `json:"id"`
	ClientID    string     `json:"client_id"`
	StartTs     int64      `json:"start_ts"` // ms since epoch
	EndTs       int64      `json:"end_ts"`   // ms since epoch, authoritative for day bucketing
	DurationSec int        `json:"duration_sec"`
	Method      Method     `json:"method"`
	RewardMode  RewardMode `json:"reward_mode"`
	Label       string     `json:"label"` // denormalized label name, survives label deletion
}

// EndedAt returns the session end as local time.
func (s Session) EndedAt() time.Time {
	return time.UnixMilli(s.EndTs)
}

// ValidMethod reports whether m is a known timing method.
func ValidMethod(m Method) bool {
	switch m {
	case MethodStopwatch, MethodPomodoro, MethodTimer, MethodManual:
		return true
	}
	return false
}

// ValidRewardMode reports whether m is a known progression view.
func ValidRewardMode(m RewardMode) bool {
	return m == ModeIsland || m == ModeGarden
}
