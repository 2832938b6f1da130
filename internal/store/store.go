package store

import (
	"context"

	"github.com/nhle/habit-engine/internal/appday"
	"github.com/nhle/habit-engine/internal/model"
)

// Store defines the local durable persistence interface for
// submissions, progress state, and the offline queue. It is the only
// component that touches on-device storage; everything above it sees
// typed records.
type Store interface {
	// === Submissions ===

	// GetSubmission returns the submission for (userID, day), or nil if
	// none exists.
	GetSubmission(ctx context.Context, userID string, day appday.AppDay) (*model.Submission, error)

	// ListSubmissionsRange returns submissions for userID with
	// from <= app_day <= to, ordered by app_day ascending.
	ListSubmissionsRange(ctx context.Context, userID string, from, to appday.AppDay) ([]model.Submission, error)

	// === Progress ===

	// GetProgress returns the user's progress state, or nil if the user
	// has never submitted.
	GetProgress(ctx context.Context, userID string) (*model.ProgressState, error)

	// === Accept path ===

	// ApplySubmission persists a locally-accepted submission, the
	// updated progress state, and an offline-queue entry in a single
	// transaction. Either all three land or none do, so progress can
	// never advance without its submission. Returns the queue entry.
	ApplySubmission(ctx context.Context, sub model.Submission, progress model.ProgressState) (model.QueuedSubmission, error)

	// === Offline queue ===

	// ListPendingQueue returns the user's not-yet-synced entries,
	// oldest app-day first. The order is stable across restarts.
	ListPendingQueue(ctx context.Context, userID string) ([]model.QueuedSubmission, error)

	// PendingCount returns the number of queued entries for the user.
	PendingCount(ctx context.Context, userID string) (int, error)

	// ListUsersWithPending returns the distinct users that have queued
	// entries, so a drain can resume after process restart.
	ListUsersWithPending(ctx context.Context) ([]string, error)

	// MarkSynced flips the queued submission's sync state to synced and
	// removes the queue entry, in one transaction.
	MarkSynced(ctx context.Context, queueID string) error

	// RecordSyncAttempt increments the entry's attempt counter and
	// records the failure, keeping it queued for the next drain.
	RecordSyncAttempt(ctx context.Context, queueID string, syncErr error) error

	// Close releases the underlying storage.
	Close() error
}
