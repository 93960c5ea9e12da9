// Package common defines the sentinel errors shared by the store, the remote
// clients and the outer surfaces (HTTP API, CLI). Callers should use errors.Is
// to match these values.
package common

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// Validation errors, raised before any mutation.
	ErrInvalidTimestamp = errors.New("invalid timestamp, please pick a valid date and time")
	ErrNotFound         = errors.New("log not found")

	// Local mirror errors. Never fatal, the store degrades to memory-only.
	ErrStorageUnavailable = errors.New("local storage unavailable")

	// Remote sync errors.
	ErrRemoteConfig    = errors.New("incomplete sync configuration")
	ErrRemote          = errors.New("remote sync failed")
	ErrVersionConflict = errors.New("version conflict")
	ErrSyncDisabled    = errors.New("sync is not configured")

	// State machine guard.
	ErrIllegalTransition = errors.New("illegal sync state transition")
)

// RemoteError is returned for any non-success response from the remote store.
// It matches ErrRemote, and ErrVersionConflict when Conflict is set.
type RemoteError struct {
	Status   int
	Message  string
	Conflict bool
	Err      error
}

// NewRemoteError builds a RemoteError, falling back to the status text when
// the server did not supply a message.
func NewRemoteError(status int, message string, err error) *RemoteError {
	if message == "" {
		message = http.StatusText(status)
	}
	if message == "" && err != nil {
		message = err.Error()
	}
	return &RemoteError{Status: status, Message: message, Err: err}
}

func (e *RemoteError) Error() string {
	if e.Conflict {
		return fmt.Sprintf("remote document changed since last sync, reload before retrying: %s", e.Message)
	}
	return e.Message
}

func (e *RemoteError) Is(target error) bool {
	switch target {
	case ErrRemote:
		return true
	case ErrVersionConflict:
		return e.Conflict
	}
	return false
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}
