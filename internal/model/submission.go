package model

import (
	"time"

	"github.com/nhle/habit-engine/internal/appday"
)

// SyncState tracks whether a submission has been acknowledged by the
// remote store or is only accepted locally.
type SyncState string

const (
	SyncStatePending SyncState = "pending"
	SyncStateSynced  SyncState = "synced"
)

// HabitFlags is the fixed set of daily habits a user can check off.
// A missing flag is simply false; there is no invalid combination.
type HabitFlags struct {
	// DrinkWater records whether the user drank water first thing.
	DrinkWater bool `json:"drink_water"`

	// NoSocialMedia records whether the user stayed off social media
	// for the first hour of the day.
	NoSocialMedia bool `json:"no_social_media"`

	// Sunlight records whether the user got early sunlight exposure.
	Sunlight bool `json:"sunlight"`

	// ElephantTask records whether the user completed their single most
	// important task of the day.
	ElephantTask bool `json:"elephant_task"`
}

// CompletedCount returns how many of the four habits are checked.
func (f HabitFlags) CompletedCount() int {
	n := 0
	for _, done := range []bool{f.DrinkWater, f.NoSocialMedia, f.Sunlight, f.ElephantTask} {
		if done {
			n++
		}
	}
	return n
}

// Submission is one user's checklist for one app-day. At most one
// submission exists per (UserID, AppDay); once synced it is immutable.
type Submission struct {
	// UserID identifies the submitting user.
	UserID string `json:"user_id" db:"user_id"`

	// AppDay is the canonical day key the submission belongs to.
	AppDay appday.AppDay `json:"app_day" db:"app_day"`

	// Habits holds the completion flags as submitted.
	Habits HabitFlags `json:"habits"`

	// Score is the weighted 0-100 score derived from Habits. It is
	// never user-supplied.
	Score int `json:"score" db:"score"`

	// SubmittedAt is the wall-clock time of local acceptance.
	SubmittedAt time.Time `json:"submitted_at" db:"submitted_at"`

	// SyncState is pending until the remote store acknowledges the
	// submission.
	SyncState SyncState `json:"sync_state" db:"sync_state"`
}

// QueuedSubmission wraps a not-yet-acknowledged submission in the
// offline queue. Entries are owned by the queue until the sync
// coordinator confirms the remote write and removes them.
type QueuedSubmission struct {
	// ID is the locally-unique queue entry identifier.
	ID string `json:"id" db:"id"`

	// Submission is the queued record.
	Submission Submission `json:"submission"`

	// EnqueuedAt is when the entry was added to the queue.
	EnqueuedAt time.Time `json:"enqueued_at" db:"enqueued_at"`

	// Attempts counts remote write attempts for this entry.
	Attempts int `json:"attempts" db:"attempts"`

	// LastError holds the most recent sync failure, if any.
	LastError string `json:"last_error,omitempty" db:"last_error"`
}

// ReminderInstruction tells the host's notification scheduler when to
// fire the daily routine reminder. The engine computes it; it never
// schedules notifications itself.
type ReminderInstruction struct {
	FireAt time.Time `json:"fire_at"`
	Repeat string    `json:"repeat"`
}

// RepeatDaily is the only repeat cadence the engine emits.
const RepeatDaily = "daily"
