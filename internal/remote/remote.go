// Package remote defines the engine's contract with the backing
// document store. The engine never talks to a concrete backend
// directly; hosts supply an implementation and the engine holds it to
// this interface.
package remote

import (
	"context"
	"errors"
	"fmt"

	"github.com/nhle/habit-engine/internal/appday"
	"github.com/nhle/habit-engine/internal/model"
)

// UnavailableError indicates the remote store could not be reached.
// The sync coordinator keeps the affected entry queued and retries;
// this error is never surfaced to a submitting caller.
type UnavailableError struct {
	Op  string
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("remote unavailable (%s): %v", e.Op, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// IsUnavailable reports whether err (or any error in its chain) is an
// UnavailableError.
func IsUnavailable(err error) bool {
	var ue *UnavailableError
	return errors.As(err, &ue)
}

// ErrConflict is returned by CreateSubmissionIfAbsent when the remote
// already holds a submission for the key. The coordinator resolves it
// as success: a retried write that actually landed, or another device
// winning the race, both mean the day is synced.
var ErrConflict = errors.New("remote submission already exists")

// Store is the remote document store contract. Keys are (userID,
// appDay) for submissions and userID for progress.
type Store interface {
	// CreateSubmissionIfAbsent writes the submission iff no submission
	// exists for its (UserID, AppDay) key. Returns true if this call
	// created the record, or false with ErrConflict if one was already
	// present.
	CreateSubmissionIfAbsent(ctx context.Context, sub model.Submission) (bool, error)

	// GetSubmission returns the remote submission for (userID, day), or
	// nil if none exists.
	GetSubmission(ctx context.Context, userID string, day appday.AppDay) (*model.Submission, error)

	// SaveProgress mirrors the user's progress state to the remote.
	// Last writer wins; the local streak tracker remains authoritative
	// for this device.
	SaveProgress(ctx context.Context, p model.ProgressState) error

	// SubscribeToday delivers the remote submission for (userID, day)
	// to fn whenever it changes, starting with the current value (nil
	// if absent). The returned cancel func stops delivery; no calls to
	// fn happen after it returns.
	SubscribeToday(userID string, day appday.AppDay, fn func(*model.Submission)) (cancel func(), err error)
}
