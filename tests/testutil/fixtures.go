package testutil

import (
	"time"

	"github.com/nhle/habit-engine/internal/appday"
	"github.com/nhle/habit-engine/internal/model"
	"github.com/nhle/habit-engine/internal/scoring"
)

// Submission builds a pending submission for tests with the score
// derived from flags, the same way the engine does.
func Submission(userID string, day appday.AppDay, flags model.HabitFlags, at time.Time) model.Submission {
	return model.Submission{
		UserID:      userID,
		AppDay:      day,
		Habits:      flags,
		Score:       scoring.Score(flags),
		SubmittedAt: at,
		SyncState:   model.SyncStatePending,
	}
}

// AllHabits returns a checklist with every habit completed.
func AllHabits() model.HabitFlags {
	return model.HabitFlags{
		DrinkWater:    true,
		NoSocialMedia: true,
		Sunlight:      true,
		ElephantTask:  true,
	}
}
