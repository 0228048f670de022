// Package authz implements the client access gate. Administrators may
// access any client; coaches only the clients assigned to them. The gate
// returns an explicit decision (granted, or a named rejection reason)
// instead of raising opaquely, so callers can map outcomes to HTTP results
// and log them consistently.
package authz

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mwierda/coachhub-backend/internal/domain"
	"github.com/mwierda/coachhub-backend/internal/repo"
)

// Rejection reasons. Stable identifiers suitable for logs; the user-facing
// message is the handler's concern.
const (
	ReasonClientNotFound = "client_not_found"
	ReasonNotAssigned    = "not_assigned"
	ReasonUnknownRole    = "unknown_role"
)

// Caller identifies the authenticated principal asking for access.
type Caller struct {
	UserID string
	Role   string
}

// Decision is the gate's verdict. Reason is empty when Granted is true.
type Decision struct {
	Granted bool
	Reason  string
}

// CanAccessClient decides whether the caller may read or mutate data of the
// given client. A missing client is a rejection, not an error; only DB
// failures surface as errors.
func CanAccessClient(ctx context.Context, db *gorm.DB, caller Caller, clientID string) (Decision, error) {
	client, err := repo.GetClient(ctx, db, clientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Decision{Reason: ReasonClientNotFound}, nil
		}
		return Decision{}, err
	}

	switch caller.Role {
	case domain.RoleAdmin:
		return Decision{Granted: true}, nil
	case domain.RoleCoach:
		if client.CoachID != nil && *client.CoachID == caller.UserID {
			return Decision{Granted: true}, nil
		}
		return Decision{Reason: ReasonNotAssigned}, nil
	default:
		return Decision{Reason: ReasonUnknownRole}, nil
	}
}
