package remote

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/habit-engine/internal/model"
)

func pendingSubmission(userID string) model.Submission {
	return model.Submission{
		UserID:      userID,
		AppDay:      "2025-03-05",
		Habits:      model.HabitFlags{DrinkWater: true},
		Score:       20,
		SubmittedAt: time.Date(2025, 3, 5, 8, 0, 0, 0, time.UTC),
		SyncState:   model.SyncStatePending,
	}
}

func TestMemory_CreateSubmissionIfAbsent(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	created, err := m.CreateSubmissionIfAbsent(ctx, pendingSubmission("u1"))
	require.NoError(t, err)
	assert.True(t, created)

	got, err := m.GetSubmission(ctx, "u1", "2025-03-05")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.SyncStateSynced, got.SyncState, "remote stores the record as synced")
}

func TestMemory_CreateConflict(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, err := m.CreateSubmissionIfAbsent(ctx, pendingSubmission("u1"))
	require.NoError(t, err)

	created, err := m.CreateSubmissionIfAbsent(ctx, pendingSubmission("u1"))
	assert.False(t, created)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestMemory_FailWrites(t *testing.T) {
	m := NewMemory()
	m.SetFailWrites(true)

	_, err := m.CreateSubmissionIfAbsent(context.Background(), pendingSubmission("u1"))
	assert.True(t, IsUnavailable(err))
}

func TestMemory_SubscribeToday(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	var seen []*model.Submission
	cancel, err := m.SubscribeToday("u1", "2025-03-05", func(sub *model.Submission) {
		seen = append(seen, sub)
	})
	require.NoError(t, err)

	// Initial delivery: no submission yet.
	require.Len(t, seen, 1)
	assert.Nil(t, seen[0])

	_, err = m.CreateSubmissionIfAbsent(ctx, pendingSubmission("u1"))
	require.NoError(t, err)

	require.Len(t, seen, 2)
	require.NotNil(t, seen[1])
	assert.Equal(t, 20, seen[1].Score)

	cancel()
	_, _ = m.CreateSubmissionIfAbsent(ctx, pendingSubmission("u2"))
	assert.Len(t, seen, 2, "no delivery after cancel")
}

func TestMemory_SaveProgress(t *testing.T) {
	m := NewMemory()

	p := model.ProgressState{UserID: "u1", CurrentStreak: 3, LongestStreak: 5}
	require.NoError(t, m.SaveProgress(context.Background(), p))

	got := m.GetProgress("u1")
	require.NotNil(t, got)
	assert.Equal(t, 3, got.CurrentStreak)

	assert.Nil(t, m.GetProgress("u2"))
}
