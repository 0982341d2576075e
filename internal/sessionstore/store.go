// Package sessionstore holds the ephemeral per-session claim state for guest
// requesters. Losing it on crash only degrades to "guest must re-allocate";
// nothing durable depends on it.
package sessionstore

import (
	"context"
)

// GuestClaim is the single lifetime claim of an anonymous session: the one
// group ever dispensed to it and whether the session has finished it.
type GuestClaim struct {
	Token          string `json:"token"`
	ProblemGroupID string `json:"problem_group_id"`
	Completed      bool   `json:"completed"`
}

type GuestClaimStore interface {
	// Get returns the session's claim, or nil when the session has none.
	Get(ctx context.Context, sessionID string) (*GuestClaim, error)
	// Claim stores the claim only if the session has none yet (set-if-absent).
	// Returns false when another claim already exists, which is how two
	// concurrent allocations for the same session are serialized.
	Claim(ctx context.Context, sessionID string, claim *GuestClaim) (bool, error)
	// MarkCompleted flips the completed flag on the session's claim.
	MarkCompleted(ctx context.Context, sessionID string) error
	// Clear drops the session's claim.
	Clear(ctx context.Context, sessionID string) error
}
