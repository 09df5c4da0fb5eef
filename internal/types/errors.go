package types

import "fmt"

// Error taxonomy for the session lifecycle and metrics pipeline.
//
// Storage reads never produce these; unreadable stored state degrades to
// empty defaults. Writes, precondition violations, and state-machine
// violations always surface to the caller.

// PreconditionError signals that a required prior state is missing, e.g.
// creating a non-baseline session before any baseline has been completed.
// Not retryable until the precondition is satisfied.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("precondition failed: %s", e.Reason)
}

// InvalidStateError signals an operation attempted on a session in the wrong
// lifecycle state. Indicates a caller logic bug; not retryable as-is.
type InvalidStateError struct {
	Op     string
	Status SessionStatus
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s session in status %q", e.Op, e.Status)
}

// StorageWriteError signals that the persistence layer failed an explicit
// write. The caller may retry.
type StorageWriteError struct {
	Key string
	Err error
}

func (e *StorageWriteError) Error() string {
	return fmt.Sprintf("storage write failed for %q: %v", e.Key, e.Err)
}

func (e *StorageWriteError) Unwrap() error { return e.Err }

// InvalidSessionError signals that a referenced session does not exist or is
// missing a required field.
type InvalidSessionError struct {
	ID     string
	Reason string
}

func (e *InvalidSessionError) Error() string {
	return fmt.Sprintf("invalid session %q: %s", e.ID, e.Reason)
}

// AnalysisUnavailableError signals that the external analysis collaborator
// failed or timed out. Metrics requiring it cannot be computed; the caller
// decides whether to complete with partial metrics or retry.
type AnalysisUnavailableError struct {
	Err error
}

func (e *AnalysisUnavailableError) Error() string {
	return fmt.Sprintf("conversation analysis unavailable: %v", e.Err)
}

func (e *AnalysisUnavailableError) Unwrap() error { return e.Err }
