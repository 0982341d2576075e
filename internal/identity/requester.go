package identity

import (
	"context"

	"github.com/google/uuid"

	"github.com/sekkei-dojo/backend/internal/requestdata"
)

type Kind int

const (
	KindGuest Kind = iota
	KindUser
)

// Requester is the tagged union the allocation engine and finalizer branch
// on: an authenticated user carries a UserID, an anonymous guest carries the
// opaque session id its ephemeral state is keyed by.
type Requester struct {
	Kind      Kind
	UserID    uuid.UUID
	SessionID string
}

func User(id uuid.UUID) Requester {
	return Requester{Kind: KindUser, UserID: id}
}

func Guest(sessionID string) Requester {
	return Requester{Kind: KindGuest, SessionID: sessionID}
}

func (r Requester) IsUser() bool { return r.Kind == KindUser }

// FromContext derives the requester from authenticated request data. A
// resolved user id wins over the guest session.
func FromContext(ctx context.Context) (Requester, bool) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return Requester{}, false
	}
	if rd.UserID != uuid.Nil {
		return User(rd.UserID), true
	}
	if rd.GuestSessionID != "" {
		return Guest(rd.GuestSessionID), true
	}
	return Requester{}, false
}
