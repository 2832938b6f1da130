package model

import (
	"time"

	"github.com/nhle/habit-engine/internal/appday"
)

// ProgressState is a user's running streak record. It is created on the
// first submission, mutated exactly once per accepted submission by the
// streak tracker, and never edited directly.
type ProgressState struct {
	// UserID identifies the user this record belongs to.
	UserID string `json:"user_id" db:"user_id"`

	// CurrentStreak is the count of consecutive app-days with a
	// submission, ending at LastSubmittedAppDay.
	CurrentStreak int `json:"current_streak" db:"current_streak"`

	// LongestStreak is the maximum CurrentStreak ever observed.
	// Invariant: LongestStreak >= CurrentStreak.
	LongestStreak int `json:"longest_streak" db:"longest_streak"`

	// TotalDays counts every app-day with an accepted submission,
	// contiguous or not.
	TotalDays int `json:"total_days" db:"total_days"`

	// LastSubmittedAppDay is the most recent app-day with a submission.
	// Empty until the first submission.
	LastSubmittedAppDay appday.AppDay `json:"last_submitted_app_day" db:"last_submitted_app_day"`

	// UpdatedAt is when this record last changed.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
