package engine

import (
	"errors"
	"fmt"
)

// ErrAlreadySubmitted is returned by Submit when a submission already
// exists for the caller's current app-day. It is user-facing and not
// retryable until the next app-day.
var ErrAlreadySubmitted = errors.New("already submitted today")

// StorageError indicates local durable storage failed after bounded
// retries, so local acceptance could not be guaranteed. Unlike remote
// failures, this is surfaced to the caller immediately: the submission
// was not recorded anywhere.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("local storage unavailable (%s): %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsStorageError reports whether err (or any error in its chain) is a
// StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
