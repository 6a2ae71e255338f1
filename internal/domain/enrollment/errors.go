package enrollment

import "errors"

var (
	// ErrNoApplicableMilestone means the resolver found no matching window.
	// A recognized terminal outcome, not a failure: callers skip enrollment.
	ErrNoApplicableMilestone = errors.New("no applicable milestone")

	// ErrMalformedScheduleInput means a date input could not be parsed. The
	// triggering call aborts before any store write.
	ErrMalformedScheduleInput = errors.New("malformed schedule input")

	// ErrMissingPrerequisite means the entity the operation needs (e.g. a
	// registered mother) does not exist. Logged and skipped by callers.
	ErrMissingPrerequisite = errors.New("missing prerequisite")

	// ErrStoreConflict means concurrent writers raced on the action store
	// and the bounded retries were exhausted.
	ErrStoreConflict = errors.New("action store conflict")

	// ErrLogWriteFailure means the audit append failed. Always fatal: the
	// schedule log is the only durable history of superseded alerts.
	ErrLogWriteFailure = errors.New("schedule log write failure")
)
