// Package streak maintains a user's running streak state. Apply is the
// single mutation path for ProgressState: it is invoked exactly once per
// locally-accepted submission, before any network round-trip, so the
// user sees streak credit immediately and a later sync failure can never
// claw it back.
package streak

import (
	"time"

	"github.com/nhle/habit-engine/internal/appday"
	"github.com/nhle/habit-engine/internal/model"
)

// Apply folds one accepted submission's app-day into prior progress
// state and returns the updated state. The counted result reports
// whether the event changed anything: a duplicate submission for the
// day already recorded as most recent is a no-op, so toggling can never
// double-count a day.
//
// Rules:
//   - first-ever submission: streak starts at 1
//   - day immediately after the last submitted day: streak extends
//   - same day as the last submitted day: no-op
//   - anything else (gap, or an out-of-order earlier day from a stale
//     queue entry): streak resets to 1
//
// LastSubmittedAppDay never moves backwards, so a delayed submission
// for an earlier day cannot make the record look older than it is.
func Apply(prior model.ProgressState, day appday.AppDay, now time.Time) (model.ProgressState, bool) {
	next := prior
	last := prior.LastSubmittedAppDay

	switch {
	case last == "":
		next.CurrentStreak = 1
		next.LastSubmittedAppDay = day
	case day == last:
		return prior, false
	case last.IsNext(day):
		next.CurrentStreak = prior.CurrentStreak + 1
		next.LastSubmittedAppDay = day
	case day.Before(last):
		next.CurrentStreak = 1
	default:
		next.CurrentStreak = 1
		next.LastSubmittedAppDay = day
	}

	next.TotalDays = prior.TotalDays + 1
	if next.CurrentStreak > next.LongestStreak {
		next.LongestStreak = next.CurrentStreak
	}
	next.UpdatedAt = now

	return next, true
}
