package streak

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/habit-engine/internal/appday"
	"github.com/nhle/habit-engine/internal/model"
)

var now = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

func TestApply_FirstSubmissionStartsAtOne(t *testing.T) {
	prior := model.ProgressState{UserID: "u1"}

	next, counted := Apply(prior, "2025-03-05", now)

	require.True(t, counted)
	assert.Equal(t, 1, next.CurrentStreak)
	assert.Equal(t, 1, next.LongestStreak)
	assert.Equal(t, 1, next.TotalDays)
	assert.Equal(t, appday.AppDay("2025-03-05"), next.LastSubmittedAppDay)
}

func TestApply_ConsecutiveDaysExtendStreak(t *testing.T) {
	state := model.ProgressState{UserID: "u1"}

	day := appday.AppDay("2025-03-01")
	for i := 1; i <= 5; i++ {
		var counted bool
		state, counted = Apply(state, day, now)
		require.True(t, counted)
		assert.Equal(t, i, state.CurrentStreak)
		day = day.Next()
	}

	assert.Equal(t, 5, state.LongestStreak)
	assert.Equal(t, 5, state.TotalDays)
}

func TestApply_SameDayIsNoOp(t *testing.T) {
	prior := model.ProgressState{
		UserID:              "u1",
		CurrentStreak:       3,
		LongestStreak:       4,
		TotalDays:           7,
		LastSubmittedAppDay: "2025-03-05",
	}

	next, counted := Apply(prior, "2025-03-05", now)

	assert.False(t, counted)
	assert.Equal(t, prior, next)
}

func TestApply_GapResetsToOnePreservingLongest(t *testing.T) {
	prior := model.ProgressState{
		UserID:              "u1",
		CurrentStreak:       6,
		LongestStreak:       6,
		TotalDays:           6,
		LastSubmittedAppDay: "2025-03-05",
	}

	// Skip March 6; submit on March 7.
	next, counted := Apply(prior, "2025-03-07", now)

	require.True(t, counted)
	assert.Equal(t, 1, next.CurrentStreak, "streak resets to 1, not 0")
	assert.Equal(t, 6, next.LongestStreak, "longest streak survives the gap")
	assert.Equal(t, 7, next.TotalDays)
	assert.Equal(t, appday.AppDay("2025-03-07"), next.LastSubmittedAppDay)
}

func TestApply_BackfilledEarlierDayResetsButKeepsLastDay(t *testing.T) {
	prior := model.ProgressState{
		UserID:              "u1",
		CurrentStreak:       2,
		LongestStreak:       4,
		TotalDays:           5,
		LastSubmittedAppDay: "2025-03-05",
	}

	// A stale queue entry for March 2 arrives late.
	next, counted := Apply(prior, "2025-03-02", now)

	require.True(t, counted)
	assert.Equal(t, 1, next.CurrentStreak)
	assert.Equal(t, appday.AppDay("2025-03-05"), next.LastSubmittedAppDay,
		"last submitted day must never move backwards")
	assert.Equal(t, 4, next.LongestStreak)
	assert.Equal(t, 6, next.TotalDays)
}

func TestApply_LongestNeverBelowCurrent(t *testing.T) {
	state := model.ProgressState{UserID: "u1"}

	day := appday.AppDay("2025-01-01")
	for i := 0; i < 10; i++ {
		state, _ = Apply(state, day, now)
		assert.GreaterOrEqual(t, state.LongestStreak, state.CurrentStreak)
		// Alternate between extending and gapping.
		if i%3 == 2 {
			day = day.Next().Next()
		} else {
			day = day.Next()
		}
	}
}

func TestApply_SetsUpdatedAt(t *testing.T) {
	next, _ := Apply(model.ProgressState{UserID: "u1"}, "2025-03-05", now)
	assert.Equal(t, now, next.UpdatedAt)
}
