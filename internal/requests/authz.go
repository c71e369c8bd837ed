package requests

import "github.com/google/uuid"

// targetRole maps each reachable target status to the only role that may
// request it. PENDING is absent: nothing transitions back to PENDING.
var targetRole = map[Status]role{
	StatusAccepted:  roleDonor,
	StatusRejected:  roleDonor,
	StatusShipped:   roleDonor,
	StatusCompleted: roleRequester,
}

type role int

const (
	roleNone role = iota
	roleDonor
	roleRequester
)

func roleOf(actorID, postOwnerID, requesterID uuid.UUID) role {
	switch actorID {
	case postOwnerID:
		return roleDonor
	case requesterID:
		return roleRequester
	}
	return roleNone
}

// Authorize decides whether actorID may move a request from current to
// target. It is a pure function: role checks fail with ErrForbidden before
// the state machine is consulted, so a requester asking for ACCEPTED is
// always Forbidden no matter the current status, and an unreachable edge
// for the correct role is ErrInvalidTransition.
func Authorize(actorID, postOwnerID, requesterID uuid.UUID, current, target Status) error {
	required, reachable := targetRole[target]
	if !reachable {
		return ErrInvalidTransition
	}
	if roleOf(actorID, postOwnerID, requesterID) != required {
		return ErrForbidden
	}
	if !CanTransition(current, target) {
		return ErrInvalidTransition
	}
	return nil
}
