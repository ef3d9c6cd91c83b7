// Package offense persists per-user offense records: how many egregious
// messages a user has sent and until when they are timed out.
//
// Every backend performs Update as one atomic read-modify-write, so
// concurrent offenses for the same user are never lost. Storage failures are
// always returned as *StorageError; no backend substitutes a default record
// when the store cannot be read.
package offense

import (
	"errors"
	"fmt"
	"math"

	"github.com/whisper/chat-moderation/internal/metrics"
)

// Permanent is the TimeoutUntil sentinel for a timeout that never ends.
const Permanent int64 = math.MaxInt64

// Record is the persisted offense state of one user. TimeoutUntil is in
// epoch milliseconds; zero means the user was never timed out.
type Record struct {
	UserID       string `json:"user_id"`
	OffenseCount int    `json:"offense_count"`
	TimeoutUntil int64  `json:"timeout_until"`
}

// IsPermanent reports whether the record carries the permanent sentinel.
func (r Record) IsPermanent() bool {
	return r.TimeoutUntil == Permanent
}

// ErrStorage matches every *StorageError via errors.Is.
var ErrStorage = errors.New("offense: storage failure")

// ErrConflict is wrapped in a StorageError when an optimistic update kept
// losing to concurrent writers.
var ErrConflict = errors.New("offense: too many concurrent updates")

// StorageError reports a failed store operation.
type StorageError struct {
	Op     string
	UserID string
	Err    error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("offense: %s %q: %v", e.Op, e.UserID, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

func storageErr(op, userID string, err error) error {
	metrics.StoreErrors.WithLabelValues(op).Inc()
	return &StorageError{Op: op, UserID: userID, Err: err}
}
