package services

import "errors"

// Domain outcomes the handlers translate into API error codes. These are
// expected, modeled results of the claim state machine, not failures.
var (
	// ErrAlreadyInProgress: the user already holds an unfinished group.
	ErrAlreadyInProgress = errors.New("a problem group is already in progress")
	// ErrAlreadyAllocated: the guest session already holds its group.
	ErrAlreadyAllocated = errors.New("a problem group has already been allocated to this session")
	// ErrOutOfStock: no eligible group exists for the requested difficulty.
	ErrOutOfStock = errors.New("no problem group available for the requested difficulty")
	// ErrGuestLimitReached: the guest session has consumed its single
	// lifetime attempt.
	ErrGuestLimitReached = errors.New("guest sessions may solve only one problem group")
	// ErrNoActiveClaim: completion was attempted without a matching claim.
	ErrNoActiveClaim = errors.New("no active claim matches the supplied problem group")

	ErrNotFound         = errors.New("resource not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrEmailTaken       = errors.New("email is already registered")
	ErrInvalidLogin     = errors.New("invalid email or password")

	// ErrGeneration and ErrGrading wrap content generator and grader
	// failures; both are transient from the caller's point of view.
	ErrGeneration = errors.New("problem generation failed")
	ErrGrading    = errors.New("answer grading failed")
)
