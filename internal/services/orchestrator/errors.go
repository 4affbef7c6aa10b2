package orchestrator

import "errors"

// Sentinel errors for the order-processing session lifecycle.
// Use errors.Is() to classify errors in calling code.
var (
	// ErrValidation covers locally recoverable input problems: bad VIN
	// format, an empty order identifier at finalize, a malformed enqueue.
	// Never aborts the session.
	ErrValidation = errors.New("validation rejected")

	// ErrRemoteCall marks a failed call to the processing service. Recorded
	// per dealership; the session continues.
	ErrRemoteCall = errors.New("remote call failed")

	// ErrWrongStage rejects an operation attempted in the wrong session
	// stage, such as finalize before review. State is not mutated.
	ErrWrongStage = errors.New("session not in expected state")

	// ErrSessionNotFound indicates an unknown session id.
	ErrSessionNotFound = errors.New("session not found")

	// ErrFatal is the only class that aborts a session. It signals a caller
	// contract violation, such as a queue item referenced by a missing id.
	ErrFatal = errors.New("fatal session error")
)
